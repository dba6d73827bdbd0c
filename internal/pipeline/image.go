package pipeline

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/google/go-containerregistry/pkg/crane"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/daemon"

	"github.com/bcactf/arcs-deploy-controller/internal/apierrors"
)

// ImageEngine builds, pushes, and pulls challenge container images. Build
// shells out to the local docker daemon (go-containerregistry has no
// Dockerfile builder of its own), as does Delete for the local image; Push
// and Pull go through crane directly against the configured registry,
// which is what crane is for.
type ImageEngine struct {
	Registry   string
	ChallFolder string
}

func (e *ImageEngine) imageRef(challName string) string {
	return fmt.Sprintf("%s/%s:latest", e.Registry, challName)
}

// Build runs `docker build` against the challenge's build context
// (chall_folder/name/buildPath, or chall_folder/name when buildPath is
// "." or empty) and tags the result with the registry-qualified image
// name Push/Pull expect.
func (e *ImageEngine) Build(ctx context.Context, challName, buildPath string) (emit func(Chunk), err error) {
	dir := filepath.Join(e.ChallFolder, challName)
	if buildPath != "" && buildPath != "." {
		dir = filepath.Join(dir, buildPath)
	}

	ref := e.imageRef(challName)
	cmd := exec.CommandContext(ctx, "docker", "build", "-t", ref, dir)
	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		return nil, apierrors.NewPipelineError(apierrors.StageBuild, string(out), runErr)
	}
	return nil, nil
}

// Push uploads the built image to the registry. The image must already be
// reachable through the local daemon's image store under its registry-
// qualified tag, which Build arranges for.
func (e *ImageEngine) Push(ctx context.Context, challName string) error {
	ref := e.imageRef(challName)
	tag, err := name.ParseReference(ref)
	if err != nil {
		return apierrors.NewPipelineError(apierrors.StagePush, "failed to parse image reference", err)
	}
	img, err := daemon.Image(tag)
	if err != nil {
		return apierrors.NewPipelineError(apierrors.StagePush, "failed to load built image from the local daemon", err)
	}
	if err := crane.Push(img, ref); err != nil {
		return apierrors.NewPipelineError(apierrors.StagePush, "failed to push image", err)
	}
	return nil
}

// Pull downloads the image back down from the registry, confirming it
// landed before the deploy step references it by tag.
func (e *ImageEngine) Pull(ctx context.Context, challName string) error {
	ref := e.imageRef(challName)
	if _, err := crane.Pull(ref); err != nil {
		return apierrors.NewPipelineError(apierrors.StagePull, "failed to pull image", err)
	}
	return nil
}

// Delete removes a locally-cached image reference, best-effort.
func (e *ImageEngine) Delete(ctx context.Context, challName string) error {
	ref := e.imageRef(challName)
	if err := exec.CommandContext(ctx, "docker", "image", "rm", ref).Run(); err != nil {
		return apierrors.NewExternalError(apierrors.ContainerEngineLogin, "failed to delete image", err)
	}
	return nil
}
