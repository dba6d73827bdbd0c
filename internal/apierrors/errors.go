// Package apierrors defines the typed error taxonomy shared across the
// deployment controller. Each exported type models one of the tagged-union
// error families named in the component design: client-facing request
// errors, pipeline stage errors, external-system errors, git errors, and
// YAML errors. Callers type-switch on these instead of matching on string
// content.
package apierrors

import "fmt"

// ClientErrorKind enumerates the client-facing error conditions.
type ClientErrorKind string

const (
	UnknownEndpoint    ClientErrorKind = "unknown_endpoint"
	UnknownChallenge   ClientErrorKind = "unknown_challenge"
	UnknownPollID      ClientErrorKind = "unknown_poll_id"
	PollIDCollision    ClientErrorKind = "poll_id_collision"
	MissingModifications ClientErrorKind = "missing_modifications"
)

// ClientError is returned by synchronous request-handling paths. StatusCode
// is the HTTP status the dispatcher should render.
type ClientError struct {
	Kind       ClientErrorKind
	Message    string
	StatusCode int
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewClientError(kind ClientErrorKind, status int, format string, args ...any) *ClientError {
	return &ClientError{Kind: kind, Message: fmt.Sprintf(format, args...), StatusCode: status}
}

// PipelineStage identifies which step of the Build->Push->Pull->Deploy->
// StaticFiles sequence produced an error.
type PipelineStage string

const (
	StageBuild       PipelineStage = "build"
	StagePush        PipelineStage = "push"
	StagePull        PipelineStage = "pull"
	StageDeploy      PipelineStage = "deploy"
	StageStaticFiles PipelineStage = "static_files"
)

// PipelineError carries the stage tag and message recorded as a
// deployment's terminal Failure reason.
type PipelineError struct {
	Stage   PipelineStage
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

func NewPipelineError(stage PipelineStage, message string, cause error) *PipelineError {
	return &PipelineError{Stage: stage, Message: message, Cause: cause}
}

// ExternalSystemKind enumerates which external collaborator failed.
type ExternalSystemKind string

const (
	ContainerEngineLogin ExternalSystemKind = "container_engine_login"
	OrchestratorLogin    ExternalSystemKind = "orchestrator_login"
	ObjectStoreUpload    ExternalSystemKind = "object_store_upload"
	WebhookDelivery      ExternalSystemKind = "webhook_delivery"
)

// ExternalError wraps a failure from a collaborator outside the process:
// the container engine, the orchestrator, the object store, or the webhook
// hub.
type ExternalError struct {
	Kind    ExternalSystemKind
	Message string
	Cause   error
}

func (e *ExternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExternalError) Unwrap() error { return e.Cause }

func NewExternalError(kind ExternalSystemKind, message string, cause error) *ExternalError {
	return &ExternalError{Kind: kind, Message: message, Cause: cause}
}

// GitErrorKind enumerates the git-manager failure points.
type GitErrorKind string

const (
	GitOpenRepo        GitErrorKind = "open_repo"
	GitAuth            GitErrorKind = "auth"
	GitFetch           GitErrorKind = "fetch"
	GitMergeUnresolved GitErrorKind = "merge_unresolved"
	GitCommit          GitErrorKind = "commit"
	GitPush            GitErrorKind = "push"
)

// GitError is the single error kind all git-manager failures surface as,
// carrying enough context to log and to convert into an HTTP response. The
// git manager never retries automatically; every failure here is terminal
// for the calling request.
type GitError struct {
	Kind    GitErrorKind
	Message string
	Cause   error
}

func (e *GitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("git %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("git %s: %s", e.Kind, e.Message)
}

func (e *GitError) Unwrap() error { return e.Cause }

func NewGitError(kind GitErrorKind, message string, cause error) *GitError {
	return &GitError{Kind: kind, Message: message, Cause: cause}
}

// YAMLErrorKind enumerates the shapes a single YAML field error can take.
type YAMLErrorKind string

const (
	YAMLParseFailure   YAMLErrorKind = "parse_failure"
	YAMLRootNotMapping YAMLErrorKind = "root_not_mapping"
	YAMLWrongType      YAMLErrorKind = "wrong_type"
	YAMLMissingField   YAMLErrorKind = "missing_field"
	YAMLInvalidValue   YAMLErrorKind = "invalid_value"
)

// YAMLFieldError is one aggregated per-field failure produced by the
// verifier. SubKind further distinguishes an YAMLInvalidValue error (e.g.
// "missing_file_key", "bad_path") without inventing new top-level kinds.
type YAMLFieldError struct {
	Field   string
	Kind    YAMLErrorKind
	SubKind string
	Message string
}

func (e *YAMLFieldError) Error() string {
	if e.SubKind != "" {
		return fmt.Sprintf("%s: %s (%s): %s", e.Field, e.Kind, e.SubKind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Field, e.Kind, e.Message)
}

// YAMLVerifyError aggregates every field-level error found while verifying
// one document. It never short-circuits: all errors from one parse attempt
// are collected here.
type YAMLVerifyError struct {
	ParseFailure bool
	RootNotMap   bool
	Fields       []*YAMLFieldError
}

func (e *YAMLVerifyError) Error() string {
	if e.ParseFailure {
		return "yaml: document is not well-formed"
	}
	if e.RootNotMap {
		return "yaml: root is not a mapping"
	}
	if len(e.Fields) == 0 {
		return "yaml: no errors"
	}
	msg := fmt.Sprintf("yaml: %d field error(s): ", len(e.Fields))
	for i, f := range e.Fields {
		if i > 0 {
			msg += "; "
		}
		msg += f.Error()
	}
	return msg
}

// HasErrors reports whether any failure was recorded.
func (e *YAMLVerifyError) HasErrors() bool {
	return e.ParseFailure || e.RootNotMap || len(e.Fields) > 0
}

func (e *YAMLVerifyError) AddField(err *YAMLFieldError) {
	e.Fields = append(e.Fields, err)
}
