package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// mockLogger implements the Logger interface for testing.
type mockLogger struct{}

func (m *mockLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (m *mockLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

// journal records side effects from every mock in the order they happen.
type journal struct {
	entries []string
}

func (j *journal) add(entry string) {
	j.entries = append(j.entries, entry)
}

// commands returns the recorded command lines only.
func (j *journal) commands() []string {
	var out []string
	for _, e := range j.entries {
		if strings.HasPrefix(e, "run: ") {
			out = append(out, strings.TrimPrefix(e, "run: "))
		}
	}
	return out
}

// mockRunner implements domain.CommandRunner for testing.
// failures maps a full command line to the exit code it should fail with.
type mockRunner struct {
	journal  *journal
	dirs     []string
	failures map[string]int
}

func newMockRunner(j *journal) *mockRunner {
	return &mockRunner{journal: j, failures: map[string]int{}}
}

func (m *mockRunner) Run(_ context.Context, dir string, name string, args ...string) error {
	line := name
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	m.journal.add("run: " + line)
	m.dirs = append(m.dirs, dir)

	if code, ok := m.failures[line]; ok {
		return &domain.CommandError{Command: name, Args: args, Dir: dir, ExitCode: code, Err: errors.New("exit status")}
	}
	return nil
}

// mockWorkspace implements domain.Workspace for testing.
type mockWorkspace struct {
	journal   *journal
	removeErr error
	ensureErr error
	resetErr  error
}

func (m *mockWorkspace) Reset(_ context.Context, path string) error {
	m.journal.add("reset: " + path)
	return m.resetErr
}

func (m *mockWorkspace) Remove(_ context.Context, path string) error {
	m.journal.add("remove: " + path)
	return m.removeErr
}

func (m *mockWorkspace) EnsureDir(_ context.Context, path string) error {
	m.journal.add("mkdir: " + path)
	return m.ensureErr
}

// mockManifestStore implements domain.ManifestStore for testing.
type mockManifestStore struct {
	journal  *journal
	version  domain.Version
	readErr  error
	writeErr error
}

func (m *mockManifestStore) ReadVersion(_ context.Context, path string) (domain.Version, error) {
	m.journal.add("read: " + path)
	return m.version, m.readErr
}

func (m *mockManifestStore) WriteVersion(_ context.Context, path, _ string, v domain.Version) (bool, error) {
	m.journal.add("write: " + path + " " + v.String())
	if m.writeErr != nil {
		return false, m.writeErr
	}
	return true, nil
}

// mockGitRepo implements domain.LocalGitRepository for testing.
type mockGitRepo struct {
	gitContext  *domain.GitContext
	gitCtxErr   error
	heads       map[string]string
	contains    bool
	containsErr error
	tagMissing  bool
	closeCalled bool
}

func (m *mockGitRepo) GetGitContext(_ context.Context) (*domain.GitContext, error) {
	return m.gitContext, m.gitCtxErr
}

func (m *mockGitRepo) BranchHead(_ context.Context, branch string) (string, error) {
	head, ok := m.heads[branch]
	if !ok {
		return "", domain.ErrBranchNotFound
	}
	return head, nil
}

func (m *mockGitRepo) ContainsCommit(_ context.Context, _, _ string) (bool, error) {
	return m.contains, m.containsErr
}

func (m *mockGitRepo) TagExists(_ context.Context, _ string) (bool, error) {
	return !m.tagMissing, nil
}

func (m *mockGitRepo) Close() error {
	m.closeCalled = true
	return nil
}

func newHealthyRepo() *mockGitRepo {
	return &mockGitRepo{
		gitContext: &domain.GitContext{HeadSHA: strings.Repeat("a", 40), Branch: "develop"},
		heads: map[string]string{
			"master":  strings.Repeat("b", 40),
			"develop": strings.Repeat("c", 40),
		},
		contains: true,
	}
}

func repoFactory(repo *mockGitRepo, err error) domain.LocalGitRepositoryFactory {
	return func(_ string) (domain.LocalGitRepository, error) {
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}

// newTestContext returns a pipeline context as it looks after staging.
func newTestContext() *domain.PipelineContext {
	return &domain.PipelineContext{
		RunID:         "run-1",
		BaseDir:       "/base",
		Application:   "webapp",
		RepositoryURL: "git@github.com:org/webapp.git",
		Settings:      domain.Application{}.WithDefaults(),
		WorkingCopy:   "/base/cut-version/webapp",
	}
}
