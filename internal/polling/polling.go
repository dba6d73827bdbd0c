// Package polling implements the process-wide registry mapping a polling
// id to its deployment status. The registry is the only shared mutable
// state the core owns; it must let independent keys make progress without
// blocking each other, so it shards its locking across a fixed number of
// stripes rather than guarding the whole map with one mutex — the same
// posture client-go's thread-safe object caches take toward concurrent
// readers and writers.
package polling

import (
	"crypto/sha256"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PollingID uniquely names one deploy attempt, supplied by the client.
type PollingID = uuid.UUID

// DeployStep is one stage of an in-progress deployment. Steps advance
// strictly forward: Building -> Pushing -> Pulling -> Deploying.
type DeployStep int

const (
	Building DeployStep = iota
	Pushing
	Pulling
	Deploying
)

func (s DeployStep) String() string {
	switch s {
	case Building:
		return "building"
	case Pushing:
		return "pushing"
	case Pulling:
		return "pulling"
	case Deploying:
		return "deploying"
	default:
		return "unknown"
	}
}

// Next returns the successor step, or false if s is already terminal
// (Deploying has no successor).
func (s DeployStep) Next() (DeployStep, bool) {
	switch s {
	case Building:
		return Pushing, true
	case Pushing:
		return Pulling, true
	case Pulling:
		return Deploying, true
	default:
		return s, false
	}
}

// StatusKind distinguishes the variants of DeploymentStatus without
// resorting to nil-checking every field.
type StatusKind int

const (
	Unknown StatusKind = iota
	InProgress
	Success
	Failure
)

// DeploymentStatus is a tagged-union status value. Exactly the fields
// relevant to Kind are meaningful; this mirrors the original sum type more
// faithfully than a Go interface hierarchy would, per the "tagged unions
// over inheritance" design note.
type DeploymentStatus struct {
	Kind StatusKind

	// InProgress
	StartedAt time.Time
	Step      DeployStep

	// Success
	Ports []int32

	// Failure
	Reason string

	// Success and Failure
	FinishedAt time.Time
}

// IsFinished reports whether the status is terminal (Success or Failure).
func (s DeploymentStatus) IsFinished() bool {
	return s.Kind == Success || s.Kind == Failure
}

// LastChange returns the timestamp of the most recent transition. Unknown
// has no transition, so it reports the call time.
func (s DeploymentStatus) LastChange() time.Time {
	switch s.Kind {
	case InProgress:
		return s.StartedAt
	case Success, Failure:
		return s.FinishedAt
	default:
		return time.Now()
	}
}

// String renders the status's current_status field for serialization.
func (s DeploymentStatus) String() string {
	switch s.Kind {
	case InProgress:
		return s.Step.String()
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// PollInfo is returned by Poll: the status snapshot plus poll-time bookkeeping.
type PollInfo struct {
	ID                       PollingID
	Status                   DeploymentStatus
	PollTime                 time.Time
	DurationSinceLastChange  time.Duration
}

const shardCount = 32

type shard struct {
	mu   sync.RWMutex
	data map[PollingID]DeploymentStatus
}

// Registry is the concurrently-accessed polling-id -> status map.
type Registry struct {
	shards [shardCount]*shard
}

// New constructs an empty Registry ready for concurrent use.
func New() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{data: make(map[PollingID]DeploymentStatus)}
	}
	return r
}

func (r *Registry) shardFor(id PollingID) *shard {
	sum := sha256.Sum256(id[:])
	return r.shards[sum[0]%shardCount]
}

// ErrCollision is returned by Register when id already names a non-terminal
// deployment.
type ErrCollision struct {
	Existing DeploymentStatus
}

func (e *ErrCollision) Error() string {
	return "poll id already registered: " + e.Existing.String()
}

// Register inserts a fresh InProgress(Building) entry for id. If an entry
// already exists and is terminal, it is deregistered and replaced
// atomically. If it exists and is non-terminal, Register returns
// *ErrCollision wrapping the existing status without touching the map —
// an active deployment is never silently overwritten.
func (r *Registry) Register(id PollingID) error {
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[id]; ok && !existing.IsFinished() {
		return &ErrCollision{Existing: existing}
	}

	s.data[id] = DeploymentStatus{Kind: InProgress, StartedAt: time.Now(), Step: Building}
	return nil
}

// Deregister removes id's entry, returning its prior status if present.
func (r *Registry) Deregister(id PollingID) (DeploymentStatus, bool) {
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.data[id]
	if ok {
		delete(s.data, id)
	}
	return status, ok
}

// Poll returns the current status snapshot for id, or ok=false if id is not
// registered.
func (r *Registry) Poll(id PollingID) (PollInfo, bool) {
	s := r.shardFor(id)
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.data[id]
	if !ok {
		return PollInfo{}, false
	}

	now := time.Now()
	return PollInfo{
		ID:                      id,
		Status:                  status,
		PollTime:                now,
		DurationSinceLastChange: now.Sub(status.LastChange()),
	}, true
}

// ErrNotFound is returned by mutating operations when id has no entry, and
// also when the requested transition is not allowed (Advance on a status
// that is not InProgress or has no successor step, Succeed/Fail on a status
// that is already terminal).
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "poll id not registered" }

// Advance moves id's InProgress status to nextStep, or to the current
// step's successor if nextStep is nil. It fails if the status is not
// currently InProgress, or if no successor exists and nextStep was not
// explicitly given. The timestamp updates only when the step actually
// changes — requesting the same step again is a no-op write that preserves
// StartedAt.
func (r *Registry) Advance(id PollingID, nextStep *DeployStep) (DeploymentStatus, error) {
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.data[id]
	if !ok {
		return DeploymentStatus{}, ErrNotFound
	}
	if status.Kind != InProgress {
		return DeploymentStatus{}, ErrNotFound
	}

	var target DeployStep
	if nextStep != nil {
		target = *nextStep
	} else {
		successor, hasNext := status.Step.Next()
		if !hasNext {
			return DeploymentStatus{}, ErrNotFound
		}
		target = successor
	}

	if target != status.Step {
		status.StartedAt = time.Now()
		status.Step = target
	}
	s.data[id] = status
	return status, nil
}

// Fail transitions id to Failure(reason), unless it is already terminal.
func (r *Registry) Fail(id PollingID, reason string) (DeploymentStatus, error) {
	return r.terminate(id, func() DeploymentStatus {
		return DeploymentStatus{Kind: Failure, Reason: reason, FinishedAt: time.Now()}
	})
}

// Succeed transitions id to Success(ports), unless it is already terminal.
func (r *Registry) Succeed(id PollingID, ports []int32) (DeploymentStatus, error) {
	return r.terminate(id, func() DeploymentStatus {
		return DeploymentStatus{Kind: Success, Ports: ports, FinishedAt: time.Now()}
	})
}

func (r *Registry) terminate(id PollingID, build func() DeploymentStatus) (DeploymentStatus, error) {
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.data[id]
	if !ok {
		return DeploymentStatus{}, ErrNotFound
	}
	if status.IsFinished() {
		return DeploymentStatus{}, ErrNotFound
	}

	next := build()
	s.data[id] = next
	return next, nil
}
