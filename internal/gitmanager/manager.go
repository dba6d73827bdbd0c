// Package gitmanager wraps the chall-repo checkout used to stage, commit,
// and push chall.yaml edits. All write operations against a single
// checkout are serialized behind one process-wide lock: go-git's
// worktree/index state is not safe for concurrent mutation, and the
// competition only ever has one deploy controller driving one checkout.
package gitmanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/bcactf/arcs-deploy-controller/internal/apierrors"
)

const remoteName = "origin"

const chalListThrottle = 60 * time.Second

// Manager drives the on-disk chall-repo checkout at RepoPath. A Manager is
// safe for concurrent use: every operation takes the internal mutex, so
// two goroutines calling MakeCommit and EnsureRepoUpToDate at once queue
// rather than race on the underlying worktree.
type Manager struct {
	RepoPath   string
	Branch     string
	SSHKeyPath string
	GitEmail   string

	mu sync.Mutex

	cacheMu     sync.Mutex
	cachedNames []string
	cachedAt    time.Time
}

func New(repoPath, branch, sshKeyPath, gitEmail string) *Manager {
	return &Manager{
		RepoPath:   repoPath,
		Branch:     branch,
		SSHKeyPath: sshKeyPath,
		GitEmail:   gitEmail,
	}
}

func (m *Manager) signature() *object.Signature {
	return &object.Signature{
		Name:  "ARCS Admin Panel",
		Email: m.GitEmail,
		When:  time.Now(),
	}
}

func (m *Manager) sshAuth() (transport.AuthMethod, error) {
	auth, err := ssh.NewPublicKeysFromFile("git", m.SSHKeyPath, "")
	if err != nil {
		return nil, &apierrors.GitError{Kind: apierrors.GitAuth, Message: fmt.Sprintf("failed to load SSH key at %s: %v", m.SSHKeyPath, err)}
	}
	return auth, nil
}

// EnsureRepoUpToDate commits any unstaged local changes, fetches from the
// remote, and fast-forwards (or confirms up-to-date). It never performs a
// true three-way merge: if local and remote have diverged, it hard-resets
// the checkout to the pre-fetch snapshot and returns an error rather than
// risk corrupting the working tree, mirroring how the original admin
// panel's merge step only ever ran with prioritize_remote=false — the
// only branch that doesn't attempt an actual tree merge.
//
// The bool return reports whether a remote connection was established at
// all; a false value with a nil error means the remote was unreachable,
// which the caller should treat as "skip remote sync, proceed locally."
func (m *Manager) EnsureRepoUpToDate(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	repo, err := git.PlainOpen(m.RepoPath)
	if err != nil {
		return false, &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to open repository: %v", err)}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to open worktree: %v", err)}
	}

	if err := m.commitAllUnstaged(wt); err != nil {
		return false, err
	}

	preFetchHead, err := repo.Head()
	if err != nil {
		return false, &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to read HEAD before fetch: %v", err)}
	}

	auth, err := m.sshAuth()
	if err != nil {
		// Without a usable SSH key no connection can be made: report the
		// remote as unreachable, the same as a failed fetch below.
		return false, nil
	}

	fetchErr := repo.FetchContext(ctx, &git.FetchOptions{RemoteName: remoteName, Auth: auth})
	if fetchErr != nil && fetchErr != git.NoErrAlreadyUpToDate {
		// Can't distinguish "remote unreachable" from other transport
		// failures with certainty; treat any fetch failure as "could not
		// connect" rather than a hard error, matching the original
		// behavior of silently skipping remote sync when the connection
		// attempt itself fails.
		return false, nil
	}

	localRef, err := repo.Reference(plumbing.NewBranchReferenceName(m.Branch), true)
	if err != nil {
		return false, &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to find local branch %q: %v", m.Branch, err)}
	}
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, m.Branch), true)
	if err != nil {
		return false, &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to find remote-tracking branch %q: %v", m.Branch, err)}
	}

	if localRef.Hash() == remoteRef.Hash() {
		return true, nil
	}

	ancestor, err := isAncestor(repo, localRef.Hash(), remoteRef.Hash())
	if err != nil {
		return false, &apierrors.GitError{Kind: apierrors.GitMergeUnresolved, Message: fmt.Sprintf("failed to compute merge analysis: %v", err)}
	}

	if ancestor {
		ffMsg := fmt.Sprintf("Fast-forwarding branch `%s` to id: %s", m.Branch, remoteRef.Hash())
		newRef := plumbing.NewHashReference(localRef.Name(), remoteRef.Hash())
		if err := repo.Storer.SetReference(newRef); err != nil {
			return false, &apierrors.GitError{Kind: apierrors.GitMergeUnresolved, Message: fmt.Sprintf("%s: failed to update ref: %v", ffMsg, err)}
		}
		if err := wt.Checkout(&git.CheckoutOptions{Force: true}); err != nil {
			return false, &apierrors.GitError{Kind: apierrors.GitMergeUnresolved, Message: fmt.Sprintf("%s: failed to check out new HEAD: %v", ffMsg, err)}
		}
		return true, nil
	}

	// Local already contains the remote tip (e.g. an unpushed local
	// commit): the branch is up to date and there is nothing to merge.
	remoteContained, err := isAncestor(repo, remoteRef.Hash(), localRef.Hash())
	if err != nil {
		return false, &apierrors.GitError{Kind: apierrors.GitMergeUnresolved, Message: fmt.Sprintf("failed to compute merge analysis: %v", err)}
	}
	if remoteContained {
		return true, nil
	}

	// Disjoint history and we never attempt conflict resolution that
	// prioritizes remote changes: roll back to the snapshot taken before
	// the fetch and surface a merge failure.
	resetErr := wt.Reset(&git.ResetOptions{Commit: preFetchHead.Hash(), Mode: git.HardReset})
	if resetErr != nil {
		return false, &apierrors.GitError{Kind: apierrors.GitMergeUnresolved, Message: fmt.Sprintf("failed to merge fetched commits, and rollback also failed: %v", resetErr)}
	}
	return false, &apierrors.GitError{Kind: apierrors.GitMergeUnresolved, Message: "failed to merge fetched commits: unresolved conflicts"}
}

func (m *Manager) commitAllUnstaged(wt *git.Worktree) error {
	status, err := wt.Status()
	if err != nil {
		return &apierrors.GitError{Kind: apierrors.GitCommit, Message: fmt.Sprintf("failed to compute worktree status: %v", err)}
	}
	if status.IsClean() {
		return nil
	}

	var changed []string
	for path := range status {
		changed = append(changed, path)
	}

	if _, err := wt.Add("."); err != nil {
		return &apierrors.GitError{Kind: apierrors.GitCommit, Message: fmt.Sprintf("failed to stage unstaged changes: %v", err)}
	}

	message := fmt.Sprintf("ADMIN_PANEL_MANAGEMENT: Committed local changes to %s before fetch\n\nChanged/added files:\n", m.Branch)
	for _, f := range changed {
		message += fmt.Sprintf(" - %q\n", f)
	}

	sig := m.signature()
	if _, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return &apierrors.GitError{Kind: apierrors.GitCommit, Message: fmt.Sprintf("failed to commit staged changes: %v", err)}
	}
	return nil
}

// isAncestor reports whether the commit at ancestorHash is an ancestor of
// (or equal to) the commit at descendantHash.
func isAncestor(repo *git.Repository, ancestorHash, descendantHash plumbing.Hash) (bool, error) {
	ancestor, err := repo.CommitObject(ancestorHash)
	if err != nil {
		return false, err
	}
	descendant, err := repo.CommitObject(descendantHash)
	if err != nil {
		return false, err
	}
	return ancestor.IsAncestor(descendant)
}

// MakeCommit stages exactly the given files (relative to the repo root)
// and commits them with message.
func (m *Manager) MakeCommit(ctx context.Context, files []string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	repo, err := git.PlainOpen(m.RepoPath)
	if err != nil {
		return &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to open repository: %v", err)}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to open worktree: %v", err)}
	}

	for _, f := range files {
		if _, err := wt.Add(f); err != nil {
			return &apierrors.GitError{Kind: apierrors.GitCommit, Message: fmt.Sprintf("failed to stage %s: %v", f, err)}
		}
	}

	sig := m.signature()
	if _, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return &apierrors.GitError{Kind: apierrors.GitCommit, Message: fmt.Sprintf("failed to commit files: %v", err)}
	}
	return nil
}

// PushAll pushes the tracked branch to the remote.
func (m *Manager) PushAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	repo, err := git.PlainOpen(m.RepoPath)
	if err != nil {
		return &apierrors.GitError{Kind: apierrors.GitOpenRepo, Message: fmt.Sprintf("failed to open repository: %v", err)}
	}

	auth, err := m.sshAuth()
	if err != nil {
		return err
	}

	refspec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", m.Branch, m.Branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		Auth:       auth,
		RefSpecs:   []config.RefSpec{refspec},
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return &apierrors.GitError{Kind: apierrors.GitPush, Message: fmt.Sprintf("failed to push to remote: %v", err)}
	}
	return nil
}
