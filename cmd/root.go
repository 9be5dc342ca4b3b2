// Package cmd provides the CLI commands for cut-version.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance scoped to the application being released.
	LoggerFactory func(application string) Logger

	// ConfigLoader loads application configuration.
	// A non-empty projectFile overrides the configured project definition location.
	ConfigLoader func(projectFile string) (*AppConfig, error)

	// CutterFactory creates the release pipeline. Command transcripts go to stdout and stderr.
	CutterFactory func(log Logger, stdout, stderr io.Writer) domain.Cutter

	// OutputWriterFactory creates an OutputWriter.
	OutputWriterFactory func(stdout, stderr io.Writer) domain.OutputWriter

	// Stdout is the writer for the command transcript and the release report.
	Stdout io.Writer

	// Stderr is the writer for child process errors and the failure report.
	Stderr io.Writer
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// BaseDir is the default base directory for staging.
	BaseDir string

	// ProjectSource describes where the project definition came from, for logging.
	ProjectSource string

	// ResolveApplication returns the settings for an application.
	// A non-empty repoOverride replaces the configured repository URL.
	ResolveApplication func(name, repoOverride string) (domain.Application, error)

	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string
}

// Command-line flags.
var (
	repository  string
	baseDir     string
	projectFile string
	verbose     bool
)

// reportedError marks an error that has already been written as a failure report.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for cut-version.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cut-version <application>",
		Short: "Cut a patch release of an application",
		Long: `cut-version cuts a new patch release of an application.

It clones the development branch into <base-dir>/cut-version/<application>,
installs dependencies, bumps the patch version in the manifest on a new
revision-<version> branch, runs the build, then commits, merges the release
into the stable branch, tags it and merges the stable branch back into the
development branch, pushing each step to origin.

The first failing step stops the release. Nothing already pushed is reverted.

The repository URL and build settings come from the project definition
(rebar-project.json, CUT_VERSION_PROJECT_FILE, or Vault via
VAULT_PROJECT_CONFIG_PATH) unless --repository is given.

Examples:
  # Cut a release of webapp as defined in rebar-project.json
  cut-version webapp

  # Cut a release from an explicit repository
  cut-version webapp --repository git@github.com:org/webapp.git

  # Stage working copies under /srv/releases with debug logging
  cut-version webapp -b /srv/releases -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCut(cmd, args, deps)
		},
	}

	rootCmd.Flags().StringVarP(&repository, "repository", "r", "",
		"Repository URL to clone (overrides the project definition)")
	rootCmd.Flags().StringVarP(&baseDir, "base-dir", "b", "",
		"Base directory for the cut-version staging directory (default: CUT_VERSION_BASE_DIR or current directory)")
	rootCmd.Flags().StringVarP(&projectFile, "project", "p", "",
		"Project definition file (default: CUT_VERSION_PROJECT_FILE or rebar-project.json)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	return rootCmd
}

// runCut executes the release cut with injected dependencies.
func runCut(cmd *cobra.Command, args []string, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application := args[0]

	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	log := deps.LoggerFactory(application)
	writer := deps.OutputWriterFactory(stdout, stderr)

	fail := func(err error) error {
		if writeErr := writer.WriteFailure(err); writeErr != nil {
			log.Warn(ctx, "failed to write failure report", map[string]interface{}{
				"error": writeErr.Error(),
			})
			return err
		}
		return &reportedError{err: err}
	}

	log.Info(ctx, "starting cut-version", map[string]interface{}{
		"application": application,
		"repository":  repository,
		"base_dir":    baseDir,
		"project":     projectFile,
		"verbose":     verbose,
	})

	cfg, err := deps.ConfigLoader(projectFile)
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return fail(fmt.Errorf("configuration error: %w", err))
	}

	settings, err := cfg.ResolveApplication(application, repository)
	if err != nil {
		log.Error(ctx, "failed to resolve application", err, map[string]interface{}{
			"project": cfg.ProjectSource,
		})
		return fail(fmt.Errorf("configuration error: %w", err))
	}

	root := baseDir
	if root == "" {
		root = cfg.BaseDir
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return fail(fmt.Errorf("invalid base directory: %w", err))
	}

	cutter := deps.CutterFactory(log, stdout, stderr)
	report, err := cutter.Cut(ctx, domain.CutInput{
		Application:   application,
		RepositoryURL: settings.RepositoryURL,
		BaseDir:       root,
		Settings:      settings,
	})
	if err != nil {
		return fail(err)
	}

	if err := writer.WriteReport(report); err != nil {
		log.Error(ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			writeWarningf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		return
	}
}
