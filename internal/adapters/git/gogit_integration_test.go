package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// testLogger is a minimal logger for testing that doesn't output anything.
type testLogger struct{}

func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{})  {}

// requireGit skips the test when the git binary is unavailable.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// setupTestRepo creates a repository with a commit on develop and master,
// and an origin remote. Returns the repository path.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)

	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "symbolic-ref", "HEAD", "refs/heads/master")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")

	commitFile(t, dir, "package.json", `{"version": "1.0.0"}`, "Initial commit")
	runGit(t, dir, "checkout", "-b", "develop")
	runGit(t, dir, "remote", "add", "origin", "https://github.com/TestOrg/webapp.git")

	return dir
}

func commitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", message)
}

// runGit executes a git command in the given directory and returns trimmed stdout.
func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, output)
	}
	return strings.TrimSpace(string(output))
}

func TestNewGoGitRepository_Success(t *testing.T) {
	repoPath := setupTestRepo(t)

	repo, err := NewGoGitRepository(repoPath, &testLogger{})

	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, repoPath, repo.path)
	require.NoError(t, repo.Close())
}

func TestNewGoGitRepository_NotARepository(t *testing.T) {
	repo, err := NewGoGitRepository(t.TempDir(), &testLogger{})

	require.Error(t, err)
	assert.Nil(t, repo)
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}

func TestGoGitRepository_GetGitContext(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo, err := NewGoGitRepository(repoPath, &testLogger{})
	require.NoError(t, err)

	gitCtx, err := repo.GetGitContext(context.Background())

	require.NoError(t, err)
	assert.Len(t, gitCtx.HeadSHA, 40)
	assert.Equal(t, "develop", gitCtx.Branch)
	assert.Equal(t, "TestOrg/webapp", gitCtx.Repository)
	assert.False(t, gitCtx.IsDetached)
}

func TestGoGitRepository_GetGitContext_LocalRemote(t *testing.T) {
	repoPath := setupTestRepo(t)
	runGit(t, repoPath, "remote", "set-url", "origin", "/srv/git/webapp.git")
	repo, err := NewGoGitRepository(repoPath, &testLogger{})
	require.NoError(t, err)

	gitCtx, err := repo.GetGitContext(context.Background())

	require.NoError(t, err)
	assert.Empty(t, gitCtx.Repository)
	assert.Equal(t, "develop", gitCtx.Branch)
}

func TestGoGitRepository_GetGitContext_DetachedHead(t *testing.T) {
	repoPath := setupTestRepo(t)
	commitFile(t, repoPath, "package.json", `{"version": "1.0.1"}`, "Second commit")
	first := runGit(t, repoPath, "rev-parse", "HEAD~1")
	runGit(t, repoPath, "checkout", first)

	repo, err := NewGoGitRepository(repoPath, &testLogger{})
	require.NoError(t, err)

	gitCtx, err := repo.GetGitContext(context.Background())

	require.NoError(t, err)
	assert.True(t, gitCtx.IsDetached)
	assert.Empty(t, gitCtx.Branch)
	assert.Equal(t, first, gitCtx.HeadSHA)
}

func TestGoGitRepository_BranchHead(t *testing.T) {
	repoPath := setupTestRepo(t)
	repo, err := NewGoGitRepository(repoPath, &testLogger{})
	require.NoError(t, err)

	head, err := repo.BranchHead(context.Background(), "master")
	require.NoError(t, err)
	assert.Equal(t, runGit(t, repoPath, "rev-parse", "master"), head)

	_, err = repo.BranchHead(context.Background(), "revision-9.9.9")
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)
}

func TestGoGitRepository_ContainsCommit(t *testing.T) {
	repoPath := setupTestRepo(t)

	// master gets a commit develop does not have
	runGit(t, repoPath, "checkout", "master")
	commitFile(t, repoPath, "CHANGELOG.md", "release", "Release commit")
	masterHead := runGit(t, repoPath, "rev-parse", "HEAD")
	runGit(t, repoPath, "checkout", "develop")

	repo, err := NewGoGitRepository(repoPath, &testLogger{})
	require.NoError(t, err)

	contained, err := repo.ContainsCommit(context.Background(), "develop", masterHead)
	require.NoError(t, err)
	assert.False(t, contained)

	runGit(t, repoPath, "merge", "--no-ff", "-m", "Merge master into develop", "master")

	repo, err = NewGoGitRepository(repoPath, &testLogger{})
	require.NoError(t, err)

	contained, err = repo.ContainsCommit(context.Background(), "develop", masterHead)
	require.NoError(t, err)
	assert.True(t, contained)

	developHead := runGit(t, repoPath, "rev-parse", "develop")
	contained, err = repo.ContainsCommit(context.Background(), "develop", developHead)
	require.NoError(t, err)
	assert.True(t, contained)
}

func TestGoGitRepository_TagExists(t *testing.T) {
	repoPath := setupTestRepo(t)
	runGit(t, repoPath, "tag", "-a", "revision-1.0.1", "-m", "Release 1.0.1")

	repo, err := NewGoGitRepository(repoPath, &testLogger{})
	require.NoError(t, err)

	exists, err := repo.TagExists(context.Background(), "revision-1.0.1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.TagExists(context.Background(), "revision-1.0.2")
	require.NoError(t, err)
	assert.False(t, exists)
}
