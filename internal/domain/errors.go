package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for manifest handling, git operations and builds.
var (
	// ErrInvalidVersionFormat indicates a version string is not a dotted numeric triple.
	ErrInvalidVersionFormat = errors.New("invalid version format")

	// ErrManifestUnreadable indicates the manifest could not be read or decoded.
	ErrManifestUnreadable = errors.New("manifest unreadable")

	// ErrMarkerNotFound indicates no manifest line contains the version marker.
	ErrMarkerNotFound = errors.New("version marker not found in manifest")

	// ErrCommandFailed indicates an external command exited non-zero or could not start.
	ErrCommandFailed = errors.New("external command failed")

	// ErrCloneFailed indicates the repository could not be cloned.
	ErrCloneFailed = errors.New("clone failed")

	// ErrCheckoutFailed indicates a branch could not be checked out or created.
	ErrCheckoutFailed = errors.New("checkout failed")

	// ErrGitOperationFailed indicates a finalize step's git command failed.
	ErrGitOperationFailed = errors.New("git operation failed")

	// ErrBuildStepFailed indicates a build command exited non-zero.
	ErrBuildStepFailed = errors.New("build step failed")

	// ErrNotOnDevelopBranch indicates the staged working copy is not on the development branch.
	ErrNotOnDevelopBranch = errors.New("working copy is not on the development branch")

	// ErrRepositoryNotFound indicates the specified path is not a valid Git repository.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrBranchNotFound indicates a local branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrInvalidCutInput indicates the release cut was requested with missing or unsafe parameters.
	ErrInvalidCutInput = errors.New("invalid release cut input")

	// ErrApplicationNotDefined indicates the project definition has no such application.
	ErrApplicationNotDefined = errors.New("application not defined in project")
)

// CommandError describes a failed external command.
type CommandError struct {
	Command string
	Args    []string
	Dir     string

	// ExitCode is the process exit code, or -1 if the process never ran to exit.
	ExitCode int
	Err      error
}

// CommandLine reconstructs the invoked command line.
func (e *CommandError) CommandLine() string {
	if len(e.Args) == 0 {
		return e.Command
	}
	return e.Command + " " + strings.Join(e.Args, " ")
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("error code %d from: %s", e.ExitCode, e.CommandLine())
}

func (e *CommandError) Unwrap() error { return e.Err }

// Is matches ErrCommandFailed.
func (e *CommandError) Is(target error) bool { return target == ErrCommandFailed }

// ExitCodeOf returns the exit code carried by the first CommandError in err's chain, or -1.
func ExitCodeOf(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

// BuildStepError describes a failed build step.
type BuildStepError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *BuildStepError) Error() string {
	return fmt.Sprintf("build step %q failed with exit code %d: %v", e.Step, e.ExitCode, e.Err)
}

func (e *BuildStepError) Unwrap() error { return e.Err }

// Is matches ErrBuildStepFailed.
func (e *BuildStepError) Is(target error) bool { return target == ErrBuildStepFailed }

// FinalizeError describes the finalize step a release cut aborted at.
type FinalizeError struct {
	Step FinalizeStep
	Err  error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("aborted at finalize step %d (%s): %v", int(e.Step), e.Step, e.Err)
}

func (e *FinalizeError) Unwrap() error { return e.Err }

// Is matches ErrGitOperationFailed.
func (e *FinalizeError) Is(target error) bool { return target == ErrGitOperationFailed }

// StageError attaches the failing macro-stage to an error.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage named by the first StageError in err's chain.
func FailedStage(err error) (StageName, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}
