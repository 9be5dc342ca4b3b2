// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to cut a release.
package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// NewStages returns the release pipeline's stages in execution order:
// stage, verify, bump, build, finalize.
func NewStages(
	runner domain.CommandRunner,
	ws domain.Workspace,
	manifests domain.ManifestStore,
	openRepo domain.LocalGitRepositoryFactory,
	log Logger,
) []domain.Stage {
	return []domain.Stage{
		NewStager(runner, ws, log),
		NewBranchVerifier(openRepo, log),
		NewBumper(runner, manifests, log),
		NewBuilder(runner, ws, log),
		NewFinalizer(runner, openRepo, log),
	}
}

// ReleaseCutter runs the release pipeline stages strictly in sequence.
type ReleaseCutter struct {
	stages   []domain.Stage
	logger   Logger
	newRunID func() string
}

// NewReleaseCutter creates a new ReleaseCutter running stages in the given order.
func NewReleaseCutter(stages []domain.Stage, log Logger) *ReleaseCutter {
	return &ReleaseCutter{
		stages:   stages,
		logger:   log,
		newRunID: uuid.NewString,
	}
}

// Cut validates input and runs every stage. The first failing stage aborts the cut
// with a *domain.StageError naming it; no rollback is attempted.
func (c *ReleaseCutter) Cut(ctx context.Context, input domain.CutInput) (*domain.CutReport, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	pc := &domain.PipelineContext{
		RunID:         c.newRunID(),
		BaseDir:       input.BaseDir,
		Application:   input.Application,
		RepositoryURL: input.RepositoryURL,
		Settings:      input.Settings.WithDefaults(),
	}

	c.logger.Info(ctx, "starting release cut", map[string]interface{}{
		"run_id":      pc.RunID,
		"application": pc.Application,
		"repository":  pc.RepositoryURL,
		"base_dir":    pc.BaseDir,
	})

	for _, stage := range c.stages {
		c.logger.Debug(ctx, "entering stage", map[string]interface{}{
			"run_id": pc.RunID,
			"stage":  string(stage.Name()),
		})

		if err := stage.Run(ctx, pc); err != nil {
			c.logger.Error(ctx, "release cut failed", err, map[string]interface{}{
				"run_id": pc.RunID,
				"stage":  string(stage.Name()),
			})
			return nil, &domain.StageError{Stage: stage.Name(), Err: err}
		}
	}

	report := buildReport(pc)

	c.logger.Info(ctx, "release cut complete", map[string]interface{}{
		"run_id":         pc.RunID,
		"version":        report.Version,
		"release_branch": report.ReleaseBranch,
	})

	return report, nil
}

func validateInput(input domain.CutInput) error {
	switch {
	case input.Application == "":
		return fmt.Errorf("%w: application name is required", domain.ErrInvalidCutInput)
	case input.Application == "." || input.Application == ".." || strings.ContainsAny(input.Application, `/\`):
		return fmt.Errorf("%w: application name %q is not a valid directory name",
			domain.ErrInvalidCutInput, input.Application)
	case input.RepositoryURL == "":
		return fmt.Errorf("%w: repository URL is required", domain.ErrInvalidCutInput)
	case input.BaseDir == "":
		return fmt.Errorf("%w: base directory is required", domain.ErrInvalidCutInput)
	}
	return nil
}

func buildReport(pc *domain.PipelineContext) *domain.CutReport {
	return &domain.CutReport{
		RunID:                 pc.RunID,
		Application:           pc.Application,
		PreviousVersion:       pc.CurrentVersion.String(),
		Version:               pc.ReleasedVersion.String(),
		ReleaseBranch:         pc.ReleaseBranch,
		Tag:                   pc.ReleaseBranch,
		StableBranch:          pc.Settings.StableBranch,
		DevelopBranch:         pc.Settings.DevelopBranch,
		StableHead:            pc.StableHead,
		DevelopHead:           pc.DevelopHead,
		DevelopContainsStable: pc.DevelopContainsStable,
		FollowUp:              domain.FollowUpCommands(pc.Application, pc.ReleasedVersion),
	}
}
