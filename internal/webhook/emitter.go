package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/bcactf/arcs-deploy-controller/internal/apierrors"
)

// Emitter posts deployment lifecycle events to the hub webhook.
type Emitter struct {
	HTTPClient *http.Client
	URL        string
	Token      string
	Log        logr.Logger
}

func New(url, token string, log logr.Logger) *Emitter {
	return &Emitter{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		URL:        url,
		Token:      token,
		Log:        log,
	}
}

func (e *Emitter) post(ctx context.Context, body any) (*outgoingEnvelope, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, apierrors.NewExternalError(apierrors.WebhookDelivery, "failed to encode payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(buf))
	if err != nil {
		return nil, apierrors.NewExternalError(apierrors.WebhookDelivery, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.Token)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, apierrors.NewExternalError(apierrors.WebhookDelivery, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		e.Log.Info("webhook hub returned 401 Unauthorized; check that the configured WEBHOOK_SERVER_AUTH_TOKEN is correct")
		return nil, apierrors.NewExternalError(apierrors.WebhookDelivery, "hub rejected the webhook auth token (401)", nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierrors.NewExternalError(apierrors.WebhookDelivery, fmt.Sprintf("hub returned status %d", resp.StatusCode), nil)
	}

	var env outgoingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, apierrors.NewExternalError(apierrors.WebhookDelivery, "failed to decode hub response", err)
	}
	return &env, nil
}

// SuccessDetails is everything EmitSuccess needs to build the SQL-create
// payload; it deliberately mirrors a verified Shape rather than taking one
// directly so the webhook package has no import-time dependency on the
// yaml verifier.
type SuccessDetails struct {
	Name         string
	Description  string
	Points       uint64
	Authors      []string
	Hints        []string
	Categories   []string
	Tags         []string
	Visible      bool
	Flag         string
	SourceFolder string
}

// EmitSuccess records a successful deployment: a `chall.create` SQL
// message plus an informational Discord notice, in a single request. The
// hub's response must echo back the same poll ID under a successful SQL
// result and a successful Discord result, or EmitSuccess treats the whole
// call as failed even though the HTTP status was 2xx.
func (e *Emitter) EmitSuccess(ctx context.Context, pollID uuid.UUID, d SuccessDetails, links []DeployLink, discordMessageText string) error {
	payload := successPayload{
		SQL: sqlChallCreate{
			Type:         "chall",
			QueryName:    "create",
			ID:           pollID,
			Name:         d.Name,
			Description:  d.Description,
			Points:       d.Points,
			Authors:      d.Authors,
			Hints:        d.Hints,
			Categories:   d.Categories,
			Tags:         d.Tags,
			Links:        links,
			SourceFolder: d.SourceFolder,
			Visible:      d.Visible,
			Flag:         d.Flag,
		},
		Discord: developerInfo(discordMessageText),
	}

	env, err := e.post(ctx, payload)
	if err != nil {
		return err
	}
	if env.SQL == nil || env.SQL.Status != "success" || env.SQL.Chall == nil || env.SQL.Chall.ID != pollID {
		return apierrors.NewExternalError(apierrors.WebhookDelivery, "hub did not echo a successful chall-create result for this poll id", nil)
	}
	if env.Discord == nil || env.Discord.Status != "success" {
		return apierrors.NewExternalError(apierrors.WebhookDelivery, "hub did not echo a successful discord result", nil)
	}
	return nil
}

// EmitFailure records a failed deployment as a Discord warning only; no
// SQL row is created for a challenge that never finished deploying.
func (e *Emitter) EmitFailure(ctx context.Context, pollID uuid.UUID, challName, reason string) error {
	message := fmt.Sprintf("Failed to deploy **%s**\n(%s)\nCheck logs for more info", challName, reason)
	_, err := e.post(ctx, failurePayload{Discord: developerWarn(message)})
	return err
}

// UpdateDetails carries the fields a metadata edit may change; nil means
// "not changed by this request."
type UpdateDetails struct {
	Name        *string
	Description *string
	Points      *uint64
	Categories  *[]string
	Tags        *[]string
}

// EmitMetadataUpdate records a `chall.update` SQL message after a
// successful modify-metadata operation.
func (e *Emitter) EmitMetadataUpdate(ctx context.Context, pollID uuid.UUID, d UpdateDetails) error {
	payload := updatePayload{SQL: sqlChallUpdate{
		Type:       "chall",
		QueryName:  "update",
		ID:         pollID,
		Name:       d.Name,
		Description: d.Description,
		Points:     d.Points,
		Categories: d.Categories,
		Tags:       d.Tags,
	}}

	env, err := e.post(ctx, payload)
	if err != nil {
		return err
	}
	if env.SQL == nil || env.SQL.Status != "success" || env.SQL.Chall == nil || env.SQL.Chall.ID != pollID {
		return apierrors.NewExternalError(apierrors.WebhookDelivery, "hub did not echo a successful chall-update result for this poll id", nil)
	}
	return nil
}

// EmitFrontendSync nudges the frontend to refresh its cache of one
// challenge. It fires after a fresh deployment, after a delete, and after
// a modify-metadata edit — any change to a challenge's public record needs
// the frontend to pick it up.
func (e *Emitter) EmitFrontendSync(ctx context.Context, pollID uuid.UUID) error {
	env, err := e.post(ctx, syncPayload{Frontend: frontendSync{Type: "sync", SyncType: "chall", ID: pollID}})
	if err != nil {
		return err
	}
	if env.Frontend == nil || env.Frontend.Status != "success" || env.Frontend.Chall == nil || env.Frontend.Chall.ID != pollID {
		return apierrors.NewExternalError(apierrors.WebhookDelivery, "hub did not echo a successful frontend-sync result for this poll id", nil)
	}
	return nil
}
