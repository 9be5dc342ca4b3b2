// Package domain defines the core business entities and interfaces for cut-version.
package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// Default settings applied to an Application when the project definition omits them.
const (
	// DefaultDevelopBranch is the long-lived branch new releases are cut from.
	DefaultDevelopBranch = "develop"

	// DefaultStableBranch is the long-lived branch releases are merged into and tagged on.
	DefaultStableBranch = "master"

	// DefaultManifest is the version-bearing file relative to the working copy root.
	DefaultManifest = "package.json"

	// DefaultVersionMarker identifies the manifest line that carries the version.
	DefaultVersionMarker = `  "version": "`

	// DefaultBuildDir is the build-output directory, cleared before every build.
	DefaultBuildDir = "deployment"

	// StagingDir is the fixed subdirectory of the base directory holding working copies.
	StagingDir = "cut-version"

	// ReleaseBranchPrefix prefixes every release branch and tag name.
	ReleaseBranchPrefix = "revision-"

	// DefaultRemote is the remote every push and pull goes to.
	DefaultRemote = "origin"
)

// Version is a dotted numeric triple (major.minor.patch).
// Parsing goes through the version package; String is the one formatter.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// NextPatch returns a copy of v with only the patch component incremented.
func (v Version) NextPatch() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// String joins the components with dots.
func (v Version) String() string {
	return strconv.FormatUint(v.Major, 10) + "." +
		strconv.FormatUint(v.Minor, 10) + "." +
		strconv.FormatUint(v.Patch, 10)
}

// ReleaseBranchName derives the release branch (and tag) name for a version.
func ReleaseBranchName(v Version) string {
	return ReleaseBranchPrefix + v.String()
}

// CommandSpec is an external program invocation declared by the project.
type CommandSpec struct {
	// Name identifies the step in logs and errors (e.g. "relay", "server").
	Name string `yaml:"name" json:"name"`

	// Command is the program to execute.
	Command string `yaml:"command" json:"command"`

	// Args are passed to Command verbatim.
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// String renders the command line for logging.
func (c CommandSpec) String() string {
	line := c.Command
	for _, a := range c.Args {
		line += " " + a
	}
	return line
}

// Application describes one releasable application of a project.
type Application struct {
	RepositoryURL string        `yaml:"repositoryUrl" json:"repositoryUrl"`
	DevelopBranch string        `yaml:"developBranch,omitempty" json:"developBranch,omitempty"`
	StableBranch  string        `yaml:"stableBranch,omitempty" json:"stableBranch,omitempty"`
	Manifest      string        `yaml:"manifest,omitempty" json:"manifest,omitempty"`
	VersionMarker string        `yaml:"versionMarker,omitempty" json:"versionMarker,omitempty"`
	BuildDir      string        `yaml:"buildDir,omitempty" json:"buildDir,omitempty"`
	Install       []CommandSpec `yaml:"install,omitempty" json:"install,omitempty"`
	Build         []CommandSpec `yaml:"build,omitempty" json:"build,omitempty"`
}

// DefaultInstallSteps returns the dependency installation steps used when none are configured.
func DefaultInstallSteps() []CommandSpec {
	return []CommandSpec{
		{Name: "install", Command: "yarn"},
		{Name: "setup", Command: "yarn", Args: []string{"setup-local-cut-version"}},
	}
}

// DefaultBuildSteps returns the build steps used when none are configured:
// one per deployable artifact.
func DefaultBuildSteps() []CommandSpec {
	return []CommandSpec{
		{Name: "relay", Command: "npm", Args: []string{"run", "build-relay"}},
		{Name: "server", Command: "npm", Args: []string{"run", "build-server"}},
		{Name: "webpack", Command: "npm", Args: []string{"run", "build-webpack"}},
	}
}

// WithDefaults returns a copy of a with every unset field filled in.
// Install and Build are only defaulted when nil; an explicit empty list disables them.
func (a Application) WithDefaults() Application {
	if a.DevelopBranch == "" {
		a.DevelopBranch = DefaultDevelopBranch
	}
	if a.StableBranch == "" {
		a.StableBranch = DefaultStableBranch
	}
	if a.Manifest == "" {
		a.Manifest = DefaultManifest
	}
	if a.VersionMarker == "" {
		a.VersionMarker = DefaultVersionMarker
	}
	if a.BuildDir == "" {
		a.BuildDir = DefaultBuildDir
	}
	if a.Install == nil {
		a.Install = DefaultInstallSteps()
	}
	if a.Build == nil {
		a.Build = DefaultBuildSteps()
	}
	return a
}

// Project is the project definition that lists every application.
type Project struct {
	Name         string                 `yaml:"name" json:"name"`
	Applications map[string]Application `yaml:"applications" json:"applications"`
}

// CutInput contains the parameters for a release cut.
type CutInput struct {
	// Application is the application name; it also names the working copy directory.
	Application string

	// RepositoryURL is the remote to clone from and push to.
	RepositoryURL string

	// BaseDir is the directory under which StagingDir is created.
	BaseDir string

	// Settings are the application's branch, manifest and build settings.
	// Unset fields are defaulted by the cutter.
	Settings Application
}

// PipelineContext is the transient state threaded through every stage of one release cut.
// It is created at pipeline start and discarded when the cut ends.
type PipelineContext struct {
	RunID         string
	BaseDir       string
	Application   string
	RepositoryURL string
	Settings      Application

	// WorkingCopy is set by the stager.
	WorkingCopy string

	// CurrentVersion, ReleasedVersion and ReleaseBranch are set by the bumper.
	CurrentVersion  Version
	ReleasedVersion Version
	ReleaseBranch   string

	// Completed holds finalize steps in the order they finished; a step the
	// post-merge check rejects is removed again.
	Completed []FinalizeStep

	// StableHead, DevelopHead and DevelopContainsStable are set by the finalizer
	// once the merge-back has been pushed.
	StableHead            string
	DevelopHead           string
	DevelopContainsStable bool
}

// ManifestPath returns the manifest location inside the working copy.
func (p *PipelineContext) ManifestPath() string {
	return filepath.Join(p.WorkingCopy, p.Settings.Manifest)
}

// BuildDirPath returns the build-output directory inside the working copy.
func (p *PipelineContext) BuildDirPath() string {
	return filepath.Join(p.WorkingCopy, p.Settings.BuildDir)
}

// CutReport is the caller-facing result of a successful release cut.
type CutReport struct {
	RunID                 string
	Application           string
	PreviousVersion       string
	Version               string
	ReleaseBranch         string
	Tag                   string
	StableBranch          string
	DevelopBranch         string
	StableHead            string
	DevelopHead           string
	DevelopContainsStable bool

	// FollowUp lists the operator commands to promote the release; they are not executed.
	FollowUp []FollowUpCommand
}

// FollowUpCommand is an operator command printed after a successful cut.
type FollowUpCommand struct {
	Description string
	Command     string
}

// FollowUpCommands returns the promote-to-sandbox and promote-to-production commands.
func FollowUpCommands(application string, v Version) []FollowUpCommand {
	return []FollowUpCommand{
		{
			Description: "To test with sandbox",
			Command:     fmt.Sprintf("./update-%s %s", application, v),
		},
		{
			Description: "To release after testing",
			Command:     fmt.Sprintf("./publish-%s %s", application, v),
		},
	}
}

// StageName identifies one of the pipeline's macro-stages.
type StageName string

// Pipeline macro-stages in execution order.
const (
	StageStage    StageName = "stage"
	StageVerify   StageName = "verify"
	StageBump     StageName = "bump"
	StageBuild    StageName = "build"
	StageFinalize StageName = "finalize"
)

// FinalizeStep is a state of the release finalizer. The zero value means no step completed.
type FinalizeStep int

// Finalizer states in execution order.
const (
	StepCommitted FinalizeStep = iota + 1
	StepPushed
	StepMergedToStable
	StepTagged
	StepMergedToDevelop
)

// FinalizeSteps lists every finalizer state in order.
var FinalizeSteps = []FinalizeStep{
	StepCommitted,
	StepPushed,
	StepMergedToStable,
	StepTagged,
	StepMergedToDevelop,
}

// String returns the state name.
func (s FinalizeStep) String() string {
	switch s {
	case StepCommitted:
		return "Committed"
	case StepPushed:
		return "Pushed"
	case StepMergedToStable:
		return "MergedToStable"
	case StepTagged:
		return "Tagged"
	case StepMergedToDevelop:
		return "MergedToDevelop"
	default:
		return "FinalizeStep(" + strconv.Itoa(int(s)) + ")"
	}
}
