// Package main is the entry point for the cut-version CLI application.
// cut-version cuts a patch release of an application: it bumps the version,
// builds, and propagates the release through the stable and development branches.
package main

import (
	"context"
	"io"
	"os"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/MyCarrier-DevOps/cut-version/cmd"
	"github.com/MyCarrier-DevOps/cut-version/internal/adapters/executor"
	"github.com/MyCarrier-DevOps/cut-version/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/cut-version/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/cut-version/internal/adapters/manifest"
	"github.com/MyCarrier-DevOps/cut-version/internal/adapters/output"
	"github.com/MyCarrier-DevOps/cut-version/internal/adapters/workspace"
	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
	"github.com/MyCarrier-DevOps/cut-version/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/cut-version/internal/usecases"
)

func main() {
	deps := &cmd.Dependencies{
		// The zap logger reads LOG_LEVEL when created, so it is built after flags are parsed.
		LoggerFactory: func(application string) cmd.Logger {
			return logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig()).With(map[string]interface{}{
				"application": application,
			})
		},

		ConfigLoader: loadConfig,

		CutterFactory: newCutter,

		OutputWriterFactory: func(stdout, stderr io.Writer) domain.OutputWriter {
			return output.NewWriterWithOutput(stdout, stderr)
		},

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}

// loadConfig adapts the infrastructure configuration to the command's view of it.
func loadConfig(projectFile string) (*cmd.AppConfig, error) {
	cfg, err := config.LoadWithVaultClient(context.Background(), projectFile, nil)
	if err != nil {
		return nil, err
	}
	return &cmd.AppConfig{
		BaseDir:            cfg.BaseDir,
		ProjectSource:      cfg.ProjectSource,
		ResolveApplication: cfg.ResolveApplication,
		LogLevel:           cfg.LogLevel,
		LogAppName:         cfg.LogAppName,
	}, nil
}

// newCutter wires the release pipeline onto the host filesystem, the git CLI and go-git.
// Working copy paths are absolute, so the filesystem is rooted at "/".
func newCutter(log cmd.Logger, stdout, stderr io.Writer) domain.Cutter {
	fs := osfs.New("/")

	runner := executor.NewRunner(
		executor.WithOutput(stdout, stderr),
		executor.WithLogger(log),
	)

	openRepo := func(path string) (domain.LocalGitRepository, error) {
		repo, err := git.NewGoGitRepository(path, log)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	stages := usecases.NewStages(
		runner,
		workspace.New(fs, log),
		manifest.NewStore(fs, log),
		openRepo,
		log,
	)
	return usecases.NewReleaseCutter(stages, log)
}
