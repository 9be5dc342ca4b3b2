package usecases

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// Stager prepares a fresh working copy of the target repository on the development branch.
type Stager struct {
	runner    domain.CommandRunner
	workspace domain.Workspace
	logger    Logger
}

// NewStager creates a new Stager.
func NewStager(runner domain.CommandRunner, ws domain.Workspace, log Logger) *Stager {
	return &Stager{runner: runner, workspace: ws, logger: log}
}

// Name identifies the stage.
func (s *Stager) Name() domain.StageName { return domain.StageStage }

// Run destroys any previous working copy, clones the development branch into
// BaseDir/cut-version/<application> and installs the project's dependencies.
func (s *Stager) Run(ctx context.Context, pc *domain.PipelineContext) error {
	parent := filepath.Join(pc.BaseDir, domain.StagingDir)
	workingCopy := filepath.Join(parent, pc.Application)

	if err := s.workspace.Remove(ctx, workingCopy); err != nil {
		return fmt.Errorf("failed to clear previous working copy: %w", err)
	}
	if err := s.workspace.EnsureDir(ctx, parent); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	s.logger.Info(ctx, "cloning repository", map[string]interface{}{
		"run_id":     pc.RunID,
		"repository": pc.RepositoryURL,
		"branch":     pc.Settings.DevelopBranch,
		"path":       workingCopy,
	})

	err := s.runner.Run(ctx, parent, "git",
		"clone", "--branch", pc.Settings.DevelopBranch, pc.RepositoryURL, workingCopy)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCloneFailed, err)
	}
	pc.WorkingCopy = workingCopy

	for _, step := range pc.Settings.Install {
		s.logger.Info(ctx, "installing dependencies", map[string]interface{}{
			"run_id":  pc.RunID,
			"step":    step.Name,
			"command": step.String(),
		})
		if err := s.runner.Run(ctx, workingCopy, step.Command, step.Args...); err != nil {
			return fmt.Errorf("dependency step %q failed: %w", step.Name, err)
		}
	}

	return nil
}
