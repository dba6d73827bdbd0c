package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bcactf/arcs-deploy-controller/internal/yamlshape"
)

// StaticUploader pushes each of a challenge's declared handout files to
// the object store over a bearer-authenticated HTTP POST, one request per
// file. It never aborts early on a single file's failure: every file is
// attempted, and every failure is collected, mirroring the policy that a
// partial static-files failure should report exactly which files failed
// rather than stopping at the first one.
type StaticUploader struct {
	HTTPClient  *http.Client
	BucketURL   string
	BearerToken string
	ChallFolder string
}

// Upload reads every file entry in files from disk (relative to
// ChallFolder/challName) and POSTs its bytes to BucketURL/challName/<basename>.
// It returns the basenames that succeeded and, separately, the ones that
// failed with context for each.
func (u *StaticUploader) Upload(ctx context.Context, challName string, files []yamlshape.FileEntry) (succeeded []string, failed map[string]error) {
	failed = map[string]error{}
	base := strings.Trim(u.BucketURL, "/")
	chall := strings.Trim(challName, "/")

	for _, f := range files {
		name := filepath.Base(f.SrcPath)
		data, err := os.ReadFile(filepath.Join(u.ChallFolder, challName, f.SrcPath))
		if err != nil {
			failed[f.SrcPath] = fmt.Errorf("failed to read file from disk: %w", err)
			continue
		}

		url := fmt.Sprintf("%s/%s/%s", base, chall, name)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			failed[f.SrcPath] = fmt.Errorf("failed to build upload request: %w", err)
			continue
		}
		req.Header.Set("Authorization", "Bearer "+u.BearerToken)

		resp, err := u.HTTPClient.Do(req)
		if err != nil {
			failed[f.SrcPath] = fmt.Errorf("upload request failed: %w", err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			failed[f.SrcPath] = fmt.Errorf("object store returned status %d", resp.StatusCode)
			continue
		}

		succeeded = append(succeeded, name)
	}

	return succeeded, failed
}

// DisplayLink returns the public-facing address for one already-uploaded
// file, using the configured display address rather than the internal
// bucket URL — the two may differ (e.g. bucket URL is an internal
// cluster-local endpoint, display address is a public CDN domain), and
// the configured display address always wins over any hardcoded host.
func DisplayLink(displayAddress, challName, srcPath string) string {
	base := strings.Trim(displayAddress, "/")
	chall := strings.Trim(challName, "/")
	name := filepath.Base(srcPath)
	return fmt.Sprintf("%s/%s/%s", base, chall, name)
}
