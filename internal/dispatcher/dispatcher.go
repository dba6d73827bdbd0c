// Package dispatcher implements the single authenticated HTTP endpoint
// the competition hub talks to: one POST route that fans out on a
// `__type` field to the deploy/redeploy/delete/poll/modify-metadata
// operations. It is deliberately thin — request parsing, status-code
// mapping, and handing off to the pipeline engine — with no business
// logic of its own.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/bcactf/arcs-deploy-controller/internal/apierrors"
	"github.com/bcactf/arcs-deploy-controller/internal/gitmanager"
	"github.com/bcactf/arcs-deploy-controller/internal/pipeline"
	"github.com/bcactf/arcs-deploy-controller/internal/polling"
	"github.com/bcactf/arcs-deploy-controller/internal/webhook"
	"github.com/bcactf/arcs-deploy-controller/internal/yamleditor"
	"github.com/bcactf/arcs-deploy-controller/internal/yamlshape"
)

// requestType is the uppercased, case-insensitive `__type` discriminator.
type requestType string

const (
	typeDeploy      requestType = "DEPLOY"
	typeRedeploy    requestType = "REDEPLOY"
	typeDelete      requestType = "DELETE"
	typePoll        requestType = "POLL"
	typeModifyMeta  requestType = "MODIFY_META"
)

// inboundRequest is the JSON body every request to the single endpoint
// takes, regardless of __type.
type inboundRequest struct {
	Type             string                  `json:"__type"`
	DeployIdentifier string                  `json:"deploy_identifier"`
	ChallName        string                  `json:"chall_name"`
	Modifications    *modificationsPayload   `json:"modifications,omitempty"`
}

// modificationsPayload is the wire shape of a MODIFY_META request's edits.
// Tags uses a double-optional encoding: the field is entirely absent when
// untouched, present-with-null to delete, present-with-a-list to set.
type modificationsPayload struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"desc,omitempty"`
	Points      *uint64          `json:"points,omitempty"`
	Categories  *[]string        `json:"categories,omitempty"`
	Tags        tagsFieldRaw     `json:"tags,omitempty"`
}

type tagsFieldRaw struct {
	set   bool
	value *[]string
}

func (t *tagsFieldRaw) UnmarshalJSON(data []byte) error {
	t.set = true
	if string(data) == "null" {
		t.value = nil
		return nil
	}
	var v []string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	t.value = &v
	return nil
}

// statusResponse mirrors a Poll/Deploy response body.
type statusResponse struct {
	ChallName string  `json:"chall_name,omitempty"`
	PollID    string  `json:"poll_id"`
	Status    string  `json:"status"`
	ErrMsg    string  `json:"err_msg,omitempty"`
}

type challNameListResponse struct {
	ChallNameList []string `json:"chall_name_list"`
}

// ChallLookup resolves a chall_name to the parsed shape of its chall.yaml,
// sourced from the git checkout the git manager tracks.
type ChallLookup func(ctx context.Context, challName string) (*yamlshape.Shape, error)

// Dispatcher routes the single inbound endpoint's requests.
type Dispatcher struct {
	Engine   *pipeline.Engine
	Registry *polling.Registry
	Git      *gitmanager.Manager
	Lookup   ChallLookup
	Log      logr.Logger
}

// ServeHTTP is mounted as the handler for POST /.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req inboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	kind := requestType(strings.ToUpper(req.Type))
	pollID, err := parseDeployIdentifier(req.DeployIdentifier)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown or malformed deploy identifier")
		return
	}

	ctx := r.Context()

	switch kind {
	case typePoll:
		d.handlePoll(w, pollID)
	case typeDeploy, typeRedeploy:
		d.handleDeployOrRedeploy(w, ctx, pollID, req.ChallName, kind == typeRedeploy)
	case typeDelete:
		d.handleDelete(w, ctx, pollID, req.ChallName)
	case typeModifyMeta:
		d.handleModifyMeta(w, ctx, pollID, req.ChallName, req.Modifications)
	default:
		writeError(w, http.StatusNotFound, "unknown endpoint")
	}
}

func parseDeployIdentifier(raw string) (uuid.UUID, error) {
	// Historical callers sometimes send "<uuid>.<uuid>"; only the first
	// segment has ever been meaningful to this service.
	first := raw
	if idx := strings.IndexByte(raw, '.'); idx != -1 {
		first = raw[:idx]
	}
	return uuid.Parse(first)
}

func (d *Dispatcher) handlePoll(w http.ResponseWriter, pollID uuid.UUID) {
	info, ok := d.Registry.Poll(pollID)
	if !ok {
		writeJSON(w, http.StatusNotFound, statusResponse{PollID: pollID.String(), Status: "unknown"})
		return
	}
	resp := statusResponse{PollID: pollID.String(), Status: info.Status.String()}
	if info.Status.Kind == polling.Failure {
		resp.ErrMsg = info.Status.Reason
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dispatcher) handleDeployOrRedeploy(w http.ResponseWriter, ctx context.Context, pollID uuid.UUID, challName string, redeploy bool) {
	shape, err := d.Lookup(ctx, challName)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown challenge")
		return
	}

	if err := d.Registry.Register(pollID); err != nil {
		var collision *polling.ErrCollision
		if errors.As(err, &collision) {
			writeJSON(w, http.StatusConflict, statusResponse{PollID: pollID.String(), Status: collision.Existing.String()})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to register poll id")
		return
	}

	go func() {
		bg := context.Background()
		if redeploy {
			d.Engine.Redeploy(bg, pollID, challName, shape)
		} else {
			d.Engine.Run(bg, pollID, challName, shape)
		}
	}()

	writeJSON(w, http.StatusAccepted, statusResponse{PollID: pollID.String(), Status: "building"})
}

func (d *Dispatcher) handleDelete(w http.ResponseWriter, ctx context.Context, pollID uuid.UUID, challName string) {
	shape, err := d.Lookup(ctx, challName)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown challenge")
		return
	}

	warnings, err := d.Engine.Delete(ctx, pollID, challName, shape)
	for _, warning := range warnings {
		d.Log.Info("delete warning", "chall", challName, "warning", warning)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{PollID: pollID.String(), Status: "success"})
}

func (d *Dispatcher) handleModifyMeta(w http.ResponseWriter, ctx context.Context, pollID uuid.UUID, challName string, mods *modificationsPayload) {
	if mods == nil {
		writeError(w, http.StatusPreconditionFailed, "missing modifications")
		return
	}

	edit := yamleditor.Modifications{
		Name:        mods.Name,
		Description: mods.Description,
		Points:      mods.Points,
		Categories:  mods.Categories,
	}
	update := webhook.UpdateDetails{
		Name:        mods.Name,
		Description: mods.Description,
		Points:      mods.Points,
		Categories:  mods.Categories,
	}
	if mods.Tags.set {
		edit.Tags = &yamleditor.TagsModification{Value: mods.Tags.value}
		update.Tags = mods.Tags.value
	}

	if err := d.Engine.ModifyMetadata(ctx, pollID, challName, edit, update); err != nil {
		var clientErr *apierrors.ClientError
		if errors.As(err, &clientErr) {
			writeError(w, clientErr.StatusCode, clientErr.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "modifications failed")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{PollID: pollID.String(), Status: "success"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
