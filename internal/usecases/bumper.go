package usecases

import (
	"context"
	"fmt"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// Bumper computes the next release version, creates its release branch,
// writes the version into the manifest and publishes the branch.
type Bumper struct {
	runner    domain.CommandRunner
	manifests domain.ManifestStore
	logger    Logger
}

// NewBumper creates a new Bumper.
func NewBumper(runner domain.CommandRunner, manifests domain.ManifestStore, log Logger) *Bumper {
	return &Bumper{runner: runner, manifests: manifests, logger: log}
}

// Name identifies the stage.
func (b *Bumper) Name() domain.StageName { return domain.StageBump }

// Run increments the patch component of the manifest version.
// The release branch is created before the manifest edit so its first commit is the bump,
// and it is pushed right away so a concurrent cut of the same version collides remotely.
func (b *Bumper) Run(ctx context.Context, pc *domain.PipelineContext) error {
	manifestPath := pc.ManifestPath()

	current, err := b.manifests.ReadVersion(ctx, manifestPath)
	if err != nil {
		return err
	}

	next := current.NextPatch()
	branch := domain.ReleaseBranchName(next)

	pc.CurrentVersion = current
	pc.ReleasedVersion = next
	pc.ReleaseBranch = branch

	b.logger.Info(ctx, "bumping version", map[string]interface{}{
		"run_id":         pc.RunID,
		"current":        current.String(),
		"next":           next.String(),
		"release_branch": branch,
	})

	git := newGitCLI(b.runner, pc.WorkingCopy)

	if err := git.run(ctx, "checkout", "-b", branch); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrCheckoutFailed, branch, err)
	}

	if _, err := b.manifests.WriteVersion(ctx, manifestPath, pc.Settings.VersionMarker, next); err != nil {
		return err
	}

	if err := git.run(ctx, "push", "-u", domain.DefaultRemote, branch); err != nil {
		return fmt.Errorf("%w: push %s: %w", domain.ErrGitOperationFailed, branch, err)
	}

	return nil
}
