package gitmanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func initRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	return repo
}

func commitAll(t *testing.T, repo *git.Repository, message string) {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("."); err != nil {
		t.Fatal(err)
	}
	sig := &object.Signature{Name: "test", Email: "test@example.com"}
	if _, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatal(err)
	}
}

func TestMakeCommit_StagesOnlyNamedFiles(t *testing.T) {
	dir := t.TempDir()
	repo := initRepo(t, dir)
	writeFile(t, dir, "chall.yaml", "name: x\n")
	commitAll(t, repo, "initial")

	writeFile(t, dir, "chall.yaml", "name: y\n")
	writeFile(t, dir, "untracked.txt", "should not be staged")

	m := New(dir, "master", "", "bot@example.com")
	if err := m.MakeCommit(context.Background(), []string{"chall.yaml"}, "ADMIN_PANEL_MANAGEMENT: updated chall.yaml"); err != nil {
		t.Fatalf("MakeCommit() error = %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	status, err := wt.Status()
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := status["untracked.txt"]; !ok || s.Staging != git.Untracked {
		t.Errorf("untracked.txt should remain untracked after MakeCommit, got %+v", status["untracked.txt"])
	}
}

func TestEnsureRepoUpToDate_NoRemoteConfigured(t *testing.T) {
	dir := t.TempDir()
	repo := initRepo(t, dir)
	writeFile(t, dir, "chall.yaml", "name: x\n")
	commitAll(t, repo, "initial")

	m := New(dir, "master", filepath.Join(dir, "nonexistent-key"), "bot@example.com")
	connected, err := m.EnsureRepoUpToDate(context.Background())
	if connected {
		t.Error("expected connected=false with no remote configured")
	}
	if err != nil {
		t.Errorf("expected a nil error (treated as unreachable remote), got %v", err)
	}
}

func TestIsAncestor_LinearHistory(t *testing.T) {
	dir := t.TempDir()
	repo := initRepo(t, dir)
	writeFile(t, dir, "a.txt", "1")
	commitAll(t, repo, "first")
	head1, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, dir, "a.txt", "2")
	commitAll(t, repo, "second")
	head2, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}

	ok, err := isAncestor(repo, head1.Hash(), head2.Hash())
	if err != nil {
		t.Fatalf("isAncestor() error = %v", err)
	}
	if !ok {
		t.Error("expected first commit to be an ancestor of second")
	}

	ok, err = isAncestor(repo, head2.Hash(), head1.Hash())
	if err != nil {
		t.Fatalf("isAncestor() error = %v", err)
	}
	if ok {
		t.Error("second commit must not be an ancestor of first")
	}
}

func TestListChallNames_OneLevelDeep(t *testing.T) {
	dir := t.TempDir()
	repo := initRepo(t, dir)

	if err := os.MkdirAll(filepath.Join(dir, "web-challenge"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, filepath.Join("web-challenge", "chall.yaml"), "name: Web\n")

	if err := os.MkdirAll(filepath.Join(dir, "nested", "deep"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, filepath.Join("nested", "deep", "chall.yaml"), "name: TooDeep\n")

	commitAll(t, repo, "add challs")

	m := New(dir, "master", "", "bot@example.com")
	names, err := m.listChallNamesFromDisk()
	if err != nil {
		t.Fatalf("listChallNamesFromDisk() error = %v", err)
	}
	if len(names) != 1 || names[0] != "web-challenge" {
		t.Errorf("names = %v, want exactly [\"web-challenge\"] (one level deep only)", names)
	}
}
