package dispatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bcactf/arcs-deploy-controller/internal/gitmanager"
	"github.com/bcactf/arcs-deploy-controller/internal/yamlshape"
)

// NewGitLookup builds a ChallLookup backed by the git manager's checkout:
// it syncs the repo up to date, then reads and verifies chall_name's
// chall.yaml straight off disk.
func NewGitLookup(git *gitmanager.Manager) ChallLookup {
	return func(ctx context.Context, challName string) (*yamlshape.Shape, error) {
		if _, err := git.EnsureRepoUpToDate(ctx); err != nil {
			return nil, fmt.Errorf("syncing repo: %w", err)
		}

		path := filepath.Join(git.RepoPath, challName, "chall.yaml")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading chall.yaml for %q: %w", challName, err)
		}

		shape, verr := yamlshape.Verify(data)
		if verr != nil {
			return nil, fmt.Errorf("verifying chall.yaml for %q: %w", challName, verr)
		}
		return shape, nil
	}
}
