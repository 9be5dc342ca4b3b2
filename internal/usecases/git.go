package usecases

import (
	"context"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// mergeStrategyOption is passed to every release merge so incoming changes win conflicts.
const mergeStrategyOption = "theirs"

// gitCLI runs git subcommands inside one working copy.
type gitCLI struct {
	runner domain.CommandRunner
	dir    string
}

func newGitCLI(runner domain.CommandRunner, dir string) gitCLI {
	return gitCLI{runner: runner, dir: dir}
}

func (g gitCLI) run(ctx context.Context, args ...string) error {
	return g.runner.Run(ctx, g.dir, "git", args...)
}

func (g gitCLI) checkout(ctx context.Context, branch string) error {
	return g.run(ctx, "checkout", branch)
}

func (g gitCLI) pull(ctx context.Context, branch string) error {
	return g.run(ctx, "pull", domain.DefaultRemote, branch)
}

func (g gitCLI) push(ctx context.Context, ref string) error {
	return g.run(ctx, "push", domain.DefaultRemote, ref)
}

// merge performs a non-fast-forward merge of source into the checked-out branch.
func (g gitCLI) merge(ctx context.Context, source, target string) error {
	return g.run(ctx,
		"merge", "--no-ff",
		"-X", mergeStrategyOption,
		"-m", "Merge branch '"+source+"' into "+target,
		source,
	)
}
