package usecases

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/cut-version/internal/adapters/executor"
	gitadapter "github.com/MyCarrier-DevOps/cut-version/internal/adapters/git"
	"github.com/MyCarrier-DevOps/cut-version/internal/adapters/manifest"
	"github.com/MyCarrier-DevOps/cut-version/internal/adapters/workspace"
	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

const seedManifest = `{
  "name": "webapp",
  "version": "1.0.0",
  "private": true
}
`

var gitIdentity = map[string]string{
	"GIT_AUTHOR_NAME":     "Release Bot",
	"GIT_AUTHOR_EMAIL":    "release@example.com",
	"GIT_COMMITTER_NAME":  "Release Bot",
	"GIT_COMMITTER_EMAIL": "release@example.com",
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, output)
	}
	return strings.TrimSpace(string(output))
}

// setupRemote creates a bare repository with master and develop branches
// carrying a package.json at version 1.0.0. Returns the bare repository path.
func setupRemote(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	root := t.TempDir()
	remote := filepath.Join(root, "webapp.git")
	seed := filepath.Join(root, "seed")
	require.NoError(t, os.MkdirAll(seed, 0o755))

	gitOutput(t, root, "init", "--bare", remote)
	gitOutput(t, remote, "symbolic-ref", "HEAD", "refs/heads/master")

	gitOutput(t, seed, "init")
	gitOutput(t, seed, "symbolic-ref", "HEAD", "refs/heads/master")
	gitOutput(t, seed, "config", "user.email", "seed@example.com")
	gitOutput(t, seed, "config", "user.name", "Seed")
	require.NoError(t, os.WriteFile(filepath.Join(seed, "package.json"), []byte(seedManifest), 0o644))
	gitOutput(t, seed, "add", ".")
	gitOutput(t, seed, "commit", "-m", "Initial commit")
	gitOutput(t, seed, "branch", "develop")
	gitOutput(t, seed, "remote", "add", "origin", remote)
	gitOutput(t, seed, "push", "origin", "master", "develop")

	return remote
}

func newIntegrationCutter(out *bytes.Buffer) *ReleaseCutter {
	log := &mockLogger{}
	fs := osfs.New("/")
	runner := executor.NewRunner(
		executor.WithOutput(out, out),
		executor.WithEnv(gitIdentity),
		executor.WithLogger(log),
	)
	openRepo := func(path string) (domain.LocalGitRepository, error) {
		repo, err := gitadapter.NewGoGitRepository(path, log)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	stages := NewStages(runner, workspace.New(fs, log), manifest.NewStore(fs, log), openRepo, log)
	return NewReleaseCutter(stages, log)
}

func TestReleaseCutter_Cut_Integration(t *testing.T) {
	remote := setupRemote(t)
	baseDir := t.TempDir()
	var out bytes.Buffer
	cutter := newIntegrationCutter(&out)

	report, err := cutter.Cut(context.Background(), domain.CutInput{
		Application:   "webapp",
		RepositoryURL: remote,
		BaseDir:       baseDir,
		Settings: domain.Application{
			Install: []domain.CommandSpec{},
			Build: []domain.CommandSpec{
				{Name: "bundle", Command: "sh", Args: []string{"-c", "echo built > deployment/app.js"}},
			},
		},
	})

	require.NoError(t, err, out.String())
	assert.Equal(t, "1.0.0", report.PreviousVersion)
	assert.Equal(t, "1.0.1", report.Version)
	assert.Equal(t, "revision-1.0.1", report.Tag)
	assert.True(t, report.DevelopContainsStable)
	assert.Len(t, report.StableHead, 40)
	assert.Contains(t, out.String(), "git clone --branch develop")

	// The remote carries the released version on every long-lived branch.
	for _, ref := range []string{"master", "develop", "revision-1.0.1"} {
		content := gitOutput(t, remote, "show", ref+":package.json")
		assert.Contains(t, content, `"version": "1.0.1",`, ref)
		assert.Contains(t, content, `"private": true`, ref)
	}
	assert.Equal(t, "built", gitOutput(t, remote, "show", "master:deployment/app.js"))
	assert.Equal(t, "revision-1.0.1", gitOutput(t, remote, "tag", "-l"))
	assert.Equal(t, report.StableHead, gitOutput(t, remote, "rev-parse", "master"))
	assert.Equal(t, report.DevelopHead, gitOutput(t, remote, "rev-parse", "develop"))
	gitOutput(t, remote, "merge-base", "--is-ancestor", "master", "develop")

	workingCopy := filepath.Join(baseDir, domain.StagingDir, "webapp")
	assert.Equal(t, "develop", gitOutput(t, workingCopy, "rev-parse", "--abbrev-ref", "HEAD"))
}

func TestReleaseCutter_Cut_Integration_BuildFailure(t *testing.T) {
	remote := setupRemote(t)
	var out bytes.Buffer
	cutter := newIntegrationCutter(&out)
	masterBefore := gitOutput(t, remote, "rev-parse", "master")

	_, err := cutter.Cut(context.Background(), domain.CutInput{
		Application:   "webapp",
		RepositoryURL: remote,
		BaseDir:       t.TempDir(),
		Settings: domain.Application{
			Install: []domain.CommandSpec{},
			Build: []domain.CommandSpec{
				{Name: "bundle", Command: "sh", Args: []string{"-c", "exit 2"}},
			},
		},
	})

	require.Error(t, err)
	stage, ok := domain.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, domain.StageBuild, stage)
	assert.Equal(t, 2, domain.ExitCodeOf(err))

	// The release branch was published by the bump but nothing was merged or tagged.
	assert.Equal(t, masterBefore, gitOutput(t, remote, "rev-parse", "master"))
	assert.Empty(t, gitOutput(t, remote, "tag", "-l"))
	assert.Contains(t, gitOutput(t, remote, "branch", "--list"), "revision-1.0.1")
}
