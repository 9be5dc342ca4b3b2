package usecases

import (
	"context"
	"fmt"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// BranchVerifier confirms the staged working copy is checked out on the development branch.
// Any failure of the clone that left a different branch checked out is caught here.
type BranchVerifier struct {
	openRepo domain.LocalGitRepositoryFactory
	logger   Logger
}

// NewBranchVerifier creates a new BranchVerifier.
func NewBranchVerifier(openRepo domain.LocalGitRepositoryFactory, log Logger) *BranchVerifier {
	return &BranchVerifier{openRepo: openRepo, logger: log}
}

// Name identifies the stage.
func (v *BranchVerifier) Name() domain.StageName { return domain.StageVerify }

// Run fails with domain.ErrNotOnDevelopBranch unless HEAD is the development branch.
func (v *BranchVerifier) Run(ctx context.Context, pc *domain.PipelineContext) error {
	repo, err := v.openRepo(pc.WorkingCopy)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			v.logger.Warn(ctx, "failed to close git repository", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	gitCtx, err := repo.GetGitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get git context: %w", err)
	}

	if gitCtx.Branch != pc.Settings.DevelopBranch {
		return fmt.Errorf("%w: expected %s, current branch is %q",
			domain.ErrNotOnDevelopBranch, pc.Settings.DevelopBranch, gitCtx.Branch)
	}

	v.logger.Info(ctx, "working copy is on the development branch", map[string]interface{}{
		"run_id":     pc.RunID,
		"branch":     gitCtx.Branch,
		"head_sha":   gitCtx.HeadSHA,
		"repository": gitCtx.Repository,
	})

	return nil
}
