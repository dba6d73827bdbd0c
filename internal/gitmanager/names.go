package gitmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"

	"github.com/bcactf/arcs-deploy-controller/internal/apierrors"
)

// ListChallNames returns the name of every challenge directory at the
// repo root containing a chall.yaml file. A directory counts only one
// level deep — chall.yaml nested inside a subdirectory of a challenge
// folder doesn't register a second name.
//
// The underlying repo sync is throttled to once per chalListThrottle: a
// caller that polls this every few seconds doesn't force a fetch-and-merge
// on every call. The tree walk itself runs on every call.
func (m *Manager) ListChallNames(ctx context.Context) ([]string, error) {
	m.cacheMu.Lock()
	stale := time.Since(m.cachedAt) > chalListThrottle
	m.cacheMu.Unlock()

	if stale {
		if _, err := m.EnsureRepoUpToDate(ctx); err != nil {
			// A sync failure doesn't prevent listing from the checkout as
			// it stands locally; only the staleness timer is left unset
			// so the next call retries the sync.
		} else {
			m.cacheMu.Lock()
			m.cachedAt = time.Now()
			m.cacheMu.Unlock()
		}
	}

	names, err := m.listChallNamesFromDisk()
	if err != nil {
		return nil, err
	}

	m.cacheMu.Lock()
	m.cachedNames = names
	m.cacheMu.Unlock()

	return names, nil
}

func (m *Manager) listChallNamesFromDisk() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	repo, err := git.PlainOpen(m.RepoPath)
	if err != nil {
		return nil, &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to open repository: %v", err)}
	}
	head, err := repo.Head()
	if err != nil {
		return nil, &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to read HEAD: %v", err)}
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to resolve HEAD commit: %v", err)}
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to read HEAD tree: %v", err)}
	}

	var names []string
	for _, entry := range tree.Entries {
		if entry.Mode != filemode.Dir {
			continue
		}
		subtree, err := repo.TreeObject(entry.Hash)
		if err != nil {
			continue
		}
		if _, err := subtree.File("chall.yaml"); err == nil {
			names = append(names, entry.Name)
		}
	}
	return names, nil
}
