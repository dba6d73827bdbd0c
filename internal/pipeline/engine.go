package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/bcactf/arcs-deploy-controller/internal/apierrors"
	"github.com/bcactf/arcs-deploy-controller/internal/gitmanager"
	"github.com/bcactf/arcs-deploy-controller/internal/polling"
	"github.com/bcactf/arcs-deploy-controller/internal/webhook"
	"github.com/bcactf/arcs-deploy-controller/internal/yamlshape"
)

// Engine drives one challenge deployment end to end: Build -> Push ->
// Pull -> Deploy for each deploy target in turn (Web, then Admin, then
// Nc), followed by a StaticFiles pass for any file the chall.yaml marks
// with the Static container type. Every step advances the challenge's polling
// status; any failure marks the deployment Failed and emits a webhook
// failure notice instead of continuing to the next target.
type Engine struct {
	Images   *ImageEngine
	Deployer *K8sDeployer
	Static   *StaticUploader
	Git      *gitmanager.Manager
	Webhook  *webhook.Emitter
	Registry *polling.Registry
	Log      logr.Logger

	DisplayAddress string
}

// DeployResult is what a completed (successful) run produced, handed to
// the caller so it can build the webhook success payload.
type DeployResult struct {
	Ports       map[yamlshape.DeployTargetType][]int32
	StaticLinks []string
}

// Run executes the full pipeline for one challenge under one polling ID.
// It is intended to be launched in its own goroutine by the request
// handler that registered pollID; Run itself never touches HTTP.
func (e *Engine) Run(ctx context.Context, pollID uuid.UUID, challName string, shape *yamlshape.Shape) {
	result, err := e.run(ctx, pollID, challName, shape)
	if err != nil {
		e.fail(ctx, pollID, challName, err)
		return
	}
	e.succeed(ctx, pollID, challName, shape, result)
}

func (e *Engine) run(ctx context.Context, pollID uuid.UUID, challName string, shape *yamlshape.Shape) (*DeployResult, error) {
	result := &DeployResult{Ports: map[yamlshape.DeployTargetType][]int32{}}

	for _, targetType := range yamlshape.OrderedDeployTargets {
		target, ok := shape.Deploy[targetType]
		if !ok {
			continue
		}

		if err := e.buildPushPull(ctx, pollID, challName, target); err != nil {
			return nil, err
		}

		ports, err := e.Deployer.Deploy(ctx, challName, targetType, target, e.Images.imageRef(challName))
		if err != nil {
			return nil, apierrors.NewPipelineError(apierrors.StageDeploy, fmt.Sprintf("failed to deploy %s", targetType), err)
		}
		if len(ports) == 0 {
			return nil, apierrors.NewPipelineError(apierrors.StageDeploy, fmt.Sprintf("no ports returned for %s", targetType), nil)
		}
		result.Ports[targetType] = int32Slice(ports)
	}

	var staticEntries []yamlshape.FileEntry
	for _, f := range shape.Files {
		if f.ContainerType != nil && *f.ContainerType == yamlshape.ContainerStatic {
			staticEntries = append(staticEntries, f)
		}
	}
	if len(staticEntries) > 0 {
		succeeded, failed := e.Static.Upload(ctx, challName, staticEntries)
		if len(failed) > 0 {
			return nil, apierrors.NewPipelineError(apierrors.StageStaticFiles, fmt.Sprintf("%d file(s) failed to upload", len(failed)), nil)
		}
		for _, name := range succeeded {
			result.StaticLinks = append(result.StaticLinks, DisplayLink(e.DisplayAddress, challName, name))
		}
	}

	return result, nil
}

// buildPushPull runs the image stages for one target, advancing the polling
// status to the next step as each stage completes (Pushing after Build,
// Pulling after Push, Deploying after Pull).
func (e *Engine) buildPushPull(ctx context.Context, pollID uuid.UUID, challName string, target yamlshape.DeployTarget) error {
	if _, err := e.Images.Build(ctx, challName, target.Build); err != nil {
		return err
	}
	if _, err := e.advance(pollID); err != nil {
		return err
	}
	if err := e.Images.Push(ctx, challName); err != nil {
		return err
	}
	if _, err := e.advance(pollID); err != nil {
		return err
	}
	if err := e.Images.Pull(ctx, challName); err != nil {
		return err
	}
	if _, err := e.advance(pollID); err != nil {
		return err
	}
	return nil
}

// advance moves the polling status to its default successor step. Once a
// later deploy target (Admin, Nc) starts after an earlier one has already
// reached Deploying, there is no further step to advance to — Advance
// reports that as ErrNotFound, which is expected here and not a failure.
func (e *Engine) advance(pollID uuid.UUID) (polling.DeploymentStatus, error) {
	status, err := e.Registry.Advance(pollID, nil)
	if errors.Is(err, polling.ErrNotFound) {
		return status, nil
	}
	if err != nil {
		return status, apierrors.NewPipelineError(apierrors.StageDeploy, "failed to advance polling status", err)
	}
	return status, nil
}

func (e *Engine) fail(ctx context.Context, pollID uuid.UUID, challName string, cause error) {
	if _, err := e.Registry.Fail(pollID, cause.Error()); err != nil {
		e.Log.Error(err, "failed to mark deployment failed", "pollID", pollID)
	}
	if err := e.Webhook.EmitFailure(ctx, pollID, challName, cause.Error()); err != nil {
		e.Log.Error(err, "failed to emit deployment-failure webhook", "pollID", pollID)
	}
}

func (e *Engine) succeed(ctx context.Context, pollID uuid.UUID, challName string, shape *yamlshape.Shape, result *DeployResult) {
	var allPorts []int32
	var links []webhook.DeployLink
	for _, targetType := range yamlshape.OrderedDeployTargets {
		ports, ok := result.Ports[targetType]
		if !ok {
			continue
		}
		allPorts = append(allPorts, ports...)
		for _, p := range ports {
			links = append(links, webhook.DeployLink{Type: deployLinkKind(targetType), Location: linkLocation(targetType, e.DisplayAddress, p)})
		}
	}
	for _, link := range result.StaticLinks {
		links = append(links, webhook.DeployLink{Type: webhook.LinkStatic, Location: link})
	}

	if _, err := e.Registry.Succeed(pollID, allPorts); err != nil {
		e.Log.Error(err, "failed to mark deployment succeeded", "pollID", pollID)
	}

	details := webhook.SuccessDetails{
		Name:         shape.Name,
		Description:  shape.Description,
		Points:       shape.Points,
		Authors:      shape.Authors,
		Hints:        shape.Hints,
		Categories:   shape.Categories,
		Visible:      shape.Visible,
		Flag:         flagLiteral(shape),
		SourceFolder: challName,
	}
	message := fmt.Sprintf("Successfully deployed **%s** on port(s) %v", challName, allPorts)
	if err := e.Webhook.EmitSuccess(ctx, pollID, details, links, message); err != nil {
		e.Log.Error(err, "failed to emit deployment-success webhook", "pollID", pollID)
	}
	if err := e.Webhook.EmitFrontendSync(ctx, pollID); err != nil {
		e.Log.Error(err, "failed to emit frontend-sync webhook", "pollID", pollID)
	}
}

func flagLiteral(shape *yamlshape.Shape) string {
	if shape.Flag.Kind == yamlshape.FlagFile {
		return ""
	}
	return shape.Flag.Literal
}

// linkLocation formats a deploy target's connection address. Nc targets are
// connected to with a raw TCP client (`nc host port`), so their location
// uses a space rather than the `host:port` web/admin convention.
func linkLocation(t yamlshape.DeployTargetType, host string, port int32) string {
	if t == yamlshape.TargetNc {
		return fmt.Sprintf("%s %d", host, port)
	}
	return fmt.Sprintf("%s:%d", host, port)
}

func deployLinkKind(t yamlshape.DeployTargetType) webhook.DeployLinkKind {
	switch t {
	case yamlshape.TargetWeb:
		return webhook.LinkWeb
	case yamlshape.TargetAdmin:
		return webhook.LinkAdmin
	case yamlshape.TargetNc:
		return webhook.LinkNc
	default:
		return webhook.LinkWeb
	}
}

func int32Slice(in []int32) []int32 {
	out := make([]int32, len(in))
	copy(out, in)
	return out
}
