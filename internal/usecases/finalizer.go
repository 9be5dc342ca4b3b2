package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

var (
	// errTagMissing indicates the release tag is absent after the tag step reported success.
	errTagMissing = errors.New("release tag not found")

	// errMergeBackMissing indicates develop does not contain the stable head after the merge-back.
	errMergeBackMissing = errors.New("development branch does not contain the stable head")
)

// finalizeAction is one state transition of the finalizer.
type finalizeAction struct {
	step domain.FinalizeStep
	run  func(ctx context.Context, git gitCLI, pc *domain.PipelineContext) error
}

// finalizeActions is the fixed five-step sequence:
// commit, push, merge into stable, tag, merge stable back into develop.
var finalizeActions = []finalizeAction{
	{step: domain.StepCommitted, run: commitRelease},
	{step: domain.StepPushed, run: pushRelease},
	{step: domain.StepMergedToStable, run: mergeToStable},
	{step: domain.StepTagged, run: tagRelease},
	{step: domain.StepMergedToDevelop, run: mergeToDevelop},
}

// Finalizer commits the built release and propagates it through the long-lived branches.
type Finalizer struct {
	runner   domain.CommandRunner
	openRepo domain.LocalGitRepositoryFactory
	logger   Logger
}

// NewFinalizer creates a new Finalizer.
func NewFinalizer(runner domain.CommandRunner, openRepo domain.LocalGitRepositoryFactory, log Logger) *Finalizer {
	return &Finalizer{runner: runner, openRepo: openRepo, logger: log}
}

// Name identifies the stage.
func (f *Finalizer) Name() domain.StageName { return domain.StageFinalize }

// Run executes the five finalize steps in order and aborts at the first failure
// with a *domain.FinalizeError naming that step. Nothing already pushed is reverted.
func (f *Finalizer) Run(ctx context.Context, pc *domain.PipelineContext) error {
	git := newGitCLI(f.runner, pc.WorkingCopy)

	for _, action := range finalizeActions {
		f.logger.Info(ctx, "finalize step", map[string]interface{}{
			"run_id": pc.RunID,
			"step":   action.step.String(),
		})

		if err := action.run(ctx, git, pc); err != nil {
			return &domain.FinalizeError{Step: action.step, Err: err}
		}
		pc.Completed = append(pc.Completed, action.step)
	}

	if err := f.confirm(ctx, pc); err != nil {
		// A step is only complete once its effect is confirmed.
		var finalizeErr *domain.FinalizeError
		if errors.As(err, &finalizeErr) {
			pc.Completed = stepsBefore(finalizeErr.Step)
		}
		return err
	}

	return nil
}

// stepsBefore returns the finalize steps that precede step.
func stepsBefore(step domain.FinalizeStep) []domain.FinalizeStep {
	return append([]domain.FinalizeStep(nil), domain.FinalizeSteps[:step-1]...)
}

// confirm checks the tag exists, records the branch heads and checks develop now contains the stable head.
func (f *Finalizer) confirm(ctx context.Context, pc *domain.PipelineContext) error {
	repo, err := f.openRepo(pc.WorkingCopy)
	if err != nil {
		return &domain.FinalizeError{Step: domain.StepMergedToDevelop, Err: err}
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			f.logger.Warn(ctx, "failed to close git repository", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	tagged, err := repo.TagExists(ctx, pc.ReleaseBranch)
	if err != nil {
		return &domain.FinalizeError{Step: domain.StepTagged, Err: err}
	}
	if !tagged {
		return &domain.FinalizeError{
			Step: domain.StepTagged,
			Err:  fmt.Errorf("%w: %s", errTagMissing, pc.ReleaseBranch),
		}
	}

	stableHead, err := repo.BranchHead(ctx, pc.Settings.StableBranch)
	if err != nil {
		return &domain.FinalizeError{Step: domain.StepMergedToDevelop, Err: err}
	}
	developHead, err := repo.BranchHead(ctx, pc.Settings.DevelopBranch)
	if err != nil {
		return &domain.FinalizeError{Step: domain.StepMergedToDevelop, Err: err}
	}
	contained, err := repo.ContainsCommit(ctx, pc.Settings.DevelopBranch, stableHead)
	if err != nil {
		return &domain.FinalizeError{Step: domain.StepMergedToDevelop, Err: err}
	}

	pc.StableHead = stableHead
	pc.DevelopHead = developHead
	pc.DevelopContainsStable = contained

	if !contained {
		return &domain.FinalizeError{
			Step: domain.StepMergedToDevelop,
			Err:  fmt.Errorf("%w: %s at %s", errMergeBackMissing, pc.Settings.StableBranch, stableHead),
		}
	}

	f.logger.Info(ctx, "release finalized", map[string]interface{}{
		"run_id":       pc.RunID,
		"tag":          pc.ReleaseBranch,
		"stable_head":  stableHead,
		"develop_head": developHead,
	})

	return nil
}

func commitRelease(ctx context.Context, git gitCLI, pc *domain.PipelineContext) error {
	if err := git.run(ctx, "add", "-A"); err != nil {
		return err
	}
	return git.run(ctx, "commit", "-m", "Version "+pc.ReleasedVersion.String())
}

func pushRelease(ctx context.Context, git gitCLI, pc *domain.PipelineContext) error {
	return git.push(ctx, pc.ReleaseBranch)
}

func mergeToStable(ctx context.Context, git gitCLI, pc *domain.PipelineContext) error {
	return mergeAndPush(ctx, git, pc.ReleaseBranch, pc.Settings.StableBranch)
}

func tagRelease(ctx context.Context, git gitCLI, pc *domain.PipelineContext) error {
	if err := git.run(ctx, "tag", "-a", pc.ReleaseBranch, "-m", "Release "+pc.ReleasedVersion.String()); err != nil {
		return err
	}
	return git.run(ctx, "push", domain.DefaultRemote, "--tags")
}

func mergeToDevelop(ctx context.Context, git gitCLI, pc *domain.PipelineContext) error {
	return mergeAndPush(ctx, git, pc.Settings.StableBranch, pc.Settings.DevelopBranch)
}

// mergeAndPush checks out target, brings it up to date, merges source into it and pushes.
func mergeAndPush(ctx context.Context, git gitCLI, source, target string) error {
	if err := git.checkout(ctx, target); err != nil {
		return err
	}
	if err := git.pull(ctx, target); err != nil {
		return err
	}
	if err := git.merge(ctx, source, target); err != nil {
		return err
	}
	return git.push(ctx, target)
}
