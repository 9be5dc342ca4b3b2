package usecases

import (
	"context"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// cleanStep names the build-output reset in BuildStepError.
const cleanStep = "clean"

// Builder runs the project's own build commands inside the working copy.
type Builder struct {
	runner    domain.CommandRunner
	workspace domain.Workspace
	logger    Logger
}

// NewBuilder creates a new Builder.
func NewBuilder(runner domain.CommandRunner, ws domain.Workspace, log Logger) *Builder {
	return &Builder{runner: runner, workspace: ws, logger: log}
}

// Name identifies the stage.
func (b *Builder) Name() domain.StageName { return domain.StageBuild }

// Run recreates the build-output directory and executes each build step in order.
// The first failing step aborts the rest; its partial artifacts stay on disk.
func (b *Builder) Run(ctx context.Context, pc *domain.PipelineContext) error {
	if err := b.workspace.Reset(ctx, pc.BuildDirPath()); err != nil {
		return &domain.BuildStepError{Step: cleanStep, ExitCode: -1, Err: err}
	}

	for _, step := range pc.Settings.Build {
		b.logger.Info(ctx, "running build step", map[string]interface{}{
			"run_id":  pc.RunID,
			"step":    step.Name,
			"command": step.String(),
		})

		if err := b.runner.Run(ctx, pc.WorkingCopy, step.Command, step.Args...); err != nil {
			return &domain.BuildStepError{
				Step:     step.Name,
				ExitCode: domain.ExitCodeOf(err),
				Err:      err,
			}
		}
	}

	return nil
}
