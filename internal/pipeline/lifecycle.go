package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bcactf/arcs-deploy-controller/internal/apierrors"
	"github.com/bcactf/arcs-deploy-controller/internal/webhook"
	"github.com/bcactf/arcs-deploy-controller/internal/yamleditor"
	"github.com/bcactf/arcs-deploy-controller/internal/yamlshape"
)

// Redeploy tears a challenge down and runs it back through Run. It is
// the same path a caller could reach by issuing a Delete followed by a
// deploy request, collapsed into one operation so the dispatcher can
// offer it atomically rather than requiring two round trips.
func (e *Engine) Redeploy(ctx context.Context, pollID uuid.UUID, challName string, shape *yamlshape.Shape) {
	if _, err := e.TearDown(ctx, challName, shape); err != nil {
		e.fail(ctx, pollID, challName, err)
		return
	}
	e.Run(ctx, pollID, challName, shape)
}

// TearDown removes every deployed target and the built image for a
// challenge. A target or image that is already gone is reported as a
// warning, not a failure — delete is idempotent by design.
func (e *Engine) TearDown(ctx context.Context, challName string, shape *yamlshape.Shape) (warnings []string, err error) {
	for _, targetType := range yamlshape.OrderedDeployTargets {
		if _, ok := shape.Deploy[targetType]; !ok {
			continue
		}
		w, derr := e.Deployer.Delete(ctx, challName, targetType)
		warnings = append(warnings, w...)
		if derr != nil {
			return warnings, derr
		}
	}

	if err := e.Images.Delete(ctx, challName); err != nil {
		warnings = append(warnings, fmt.Sprintf("image delete: %v", err))
	}

	return warnings, nil
}

// Delete tears down a challenge's running workload synchronously — DELETE
// is one of the handlers that answers inline rather than through the
// polling registry — then emits a frontend-sync nudge so the listing
// drops it. Warnings from an already-absent resource are returned for the
// caller to log; they are never promoted to an error.
func (e *Engine) Delete(ctx context.Context, pollID uuid.UUID, challName string, shape *yamlshape.Shape) (warnings []string, err error) {
	warnings, err = e.TearDown(ctx, challName, shape)
	if err != nil {
		return warnings, err
	}
	if err := e.Webhook.EmitFrontendSync(ctx, pollID); err != nil {
		e.Log.Error(err, "failed to emit frontend-sync webhook after delete", "pollID", pollID)
	}
	return warnings, nil
}

// ModifyMetadata edits one challenge's chall.yaml in place: pull the repo
// up to date, splice in the requested fields, commit, and push, then tell
// the hub about the new values. The push is skipped when the preceding
// sync found the remote unreachable — the commit still lands locally, but
// nothing is sent anywhere it can't be reached.
func (e *Engine) ModifyMetadata(ctx context.Context, pollID uuid.UUID, challName string, mods yamleditor.Modifications, update webhook.UpdateDetails) error {
	connected, err := e.Git.EnsureRepoUpToDate(ctx)
	if err != nil {
		return apierrors.NewGitError(apierrors.GitFetch, "failed to sync repo before editing chall.yaml", err)
	}

	path := filepath.Join(e.Git.RepoPath, challName, "chall.yaml")
	original, err := os.ReadFile(path)
	if err != nil {
		return apierrors.NewClientError(apierrors.UnknownChallenge, 404, "no chall.yaml found for %q", challName)
	}

	edited, err := yamleditor.Apply(string(original), mods)
	if err != nil {
		return apierrors.NewPipelineError(apierrors.StageDeploy, "failed to apply yaml edit", err)
	}

	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		return apierrors.NewPipelineError(apierrors.StageDeploy, "failed to write edited chall.yaml", err)
	}

	relPath := filepath.Join(challName, "chall.yaml")
	message := fmt.Sprintf("ADMIN_PANEL_MANAGEMENT: updated chall.yaml for challenge `%s`", challName)
	if err := e.Git.MakeCommit(ctx, []string{relPath}, message); err != nil {
		return err
	}
	if connected {
		if err := e.Git.PushAll(ctx); err != nil {
			return err
		}
	} else {
		e.Log.Info("remote unreachable during sync, committed locally without pushing", "chall", challName)
	}

	if err := e.Webhook.EmitMetadataUpdate(ctx, pollID, update); err != nil {
		return err
	}
	return e.Webhook.EmitFrontendSync(ctx, pollID)
}
