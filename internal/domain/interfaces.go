// Package domain defines the core business entities and interfaces for cut-version.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
)

// CommandRunner executes external programs.
// Only the exit code decides success; output content is never inspected.
type CommandRunner interface {
	// Run executes name with args inside dir, forwarding output live.
	// A non-zero exit returns a *CommandError.
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// ManifestStore reads and updates the version declared in a project manifest.
type ManifestStore interface {
	// ReadVersion loads the manifest at path and parses its declared version.
	ReadVersion(ctx context.Context, path string) (Version, error)

	// WriteVersion sets the version on the first line containing marker to v,
	// keeping whatever precedes the marker and follows the value's closing quote.
	// Returns false without writing if that line already declares v.
	// Returns ErrMarkerNotFound, leaving the file untouched, if no line contains marker.
	WriteVersion(ctx context.Context, path, marker string, v Version) (bool, error)
}

// Workspace performs filesystem operations on staging and build directories.
type Workspace interface {
	// Reset removes path and everything below it, then recreates it empty.
	Reset(ctx context.Context, path string) error

	// Remove deletes path and everything below it. A missing path is not an error.
	Remove(ctx context.Context, path string) error

	// EnsureDir creates path and any missing parents.
	EnsureDir(ctx context.Context, path string) error
}

// GitContext describes the checked-out state of a local repository.
type GitContext struct {
	// HeadSHA is the full 40-character commit SHA of HEAD.
	HeadSHA string

	// Branch is the current branch name (empty string if HEAD is detached).
	Branch string

	// Repository is the repository name in owner/repo format, derived from the
	// 'origin' remote URL. Empty when the URL is not a hosted-repository URL.
	Repository string

	// IsDetached indicates if HEAD is detached (not on a branch).
	IsDetached bool
}

// LocalGitRepository inspects a working copy without modifying it.
type LocalGitRepository interface {
	// GetGitContext extracts HEAD, branch and repository name.
	GetGitContext(ctx context.Context) (*GitContext, error)

	// BranchHead returns the commit SHA the local branch points at.
	BranchHead(ctx context.Context, branch string) (string, error)

	// ContainsCommit reports whether sha is reachable from the local branch.
	ContainsCommit(ctx context.Context, branch, sha string) (bool, error)

	// TagExists reports whether the tag exists locally.
	TagExists(ctx context.Context, tag string) (bool, error)

	// Close releases any resources held by the repository.
	Close() error
}

// LocalGitRepositoryFactory opens the repository at path.
type LocalGitRepositoryFactory func(path string) (LocalGitRepository, error)

// Stage is one named macro-stage of the release-cut pipeline.
type Stage interface {
	// Name identifies the stage in errors and logs.
	Name() StageName

	// Run performs the stage against the shared pipeline context.
	Run(ctx context.Context, pc *PipelineContext) error
}

// Cutter cuts a release end to end.
type Cutter interface {
	// Cut runs every stage in order and returns the report of a completed release.
	Cut(ctx context.Context, input CutInput) (*CutReport, error)
}

// OutputWriter writes the operator-facing result of a release cut.
type OutputWriter interface {
	// WriteReport writes the version, branch and follow-up commands.
	WriteReport(report *CutReport) error

	// WriteFailure writes a single failure report for err.
	WriteFailure(err error) error
}
