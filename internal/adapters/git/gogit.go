// Package git provides adapters for inspecting local Git working copies.
// This package implements the domain.LocalGitRepository interface using go-git/v5.
// Every mutation of the working copy goes through the git CLI; this adapter only reads.
package git

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
)

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// GoGitRepository implements domain.LocalGitRepository using go-git/v5.
type GoGitRepository struct {
	repo   *git.Repository
	path   string
	logger Logger
}

// NewGoGitRepository opens the repository at path.
// Returns domain.ErrRepositoryNotFound if the path is not a valid Git repository.
func NewGoGitRepository(path string, log Logger) (*GoGitRepository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	return &GoGitRepository{
		repo:   repo,
		path:   path,
		logger: log,
	}, nil
}

// GetGitContext extracts HEAD SHA, branch name, and repository name.
// A detached HEAD or an origin URL that is not a hosted-repository URL is logged
// and leaves the corresponding field empty.
func (r *GoGitRepository) GetGitContext(ctx context.Context) (*domain.GitContext, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	gitCtx := &domain.GitContext{
		HeadSHA:    head.Hash().String(),
		IsDetached: !head.Name().IsBranch(),
	}

	if head.Name().IsBranch() {
		gitCtx.Branch = head.Name().Short()
	} else {
		r.logger.Warn(ctx, "HEAD is detached; branch name will be empty", map[string]interface{}{
			"head_sha": gitCtx.HeadSHA,
			"path":     r.path,
		})
	}

	if remote, err := r.repo.Remote(domain.DefaultRemote); err == nil && len(remote.Config().URLs) > 0 {
		repoName, parseErr := parseRepoFromURL(remote.Config().URLs[0])
		if parseErr != nil {
			r.logger.Warn(ctx, "could not derive repository name from origin", map[string]interface{}{
				"url":   remote.Config().URLs[0],
				"error": parseErr.Error(),
			})
		}
		gitCtx.Repository = repoName
	}

	r.logger.Debug(ctx, "extracted git context", map[string]interface{}{
		"head_sha":    gitCtx.HeadSHA,
		"branch":      gitCtx.Branch,
		"repository":  gitCtx.Repository,
		"is_detached": gitCtx.IsDetached,
	})

	return gitCtx, nil
}

// BranchHead returns the commit SHA of the local branch.
// Returns domain.ErrBranchNotFound if the branch does not exist locally.
func (r *GoGitRepository) BranchHead(_ context.Context, branch string) (string, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrBranchNotFound, branch)
		}
		return "", fmt.Errorf("failed to resolve branch %s: %w", branch, err)
	}
	return ref.Hash().String(), nil
}

// ContainsCommit reports whether sha is the head of branch or one of its ancestors.
func (r *GoGitRepository) ContainsCommit(ctx context.Context, branch, sha string) (bool, error) {
	head, err := r.BranchHead(ctx, branch)
	if err != nil {
		return false, err
	}

	tip, err := r.repo.CommitObject(plumbing.NewHash(head))
	if err != nil {
		return false, fmt.Errorf("failed to get commit object for %s: %w", branch, err)
	}

	target, err := r.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return false, fmt.Errorf("failed to get commit object for %s: %w", sha, err)
	}

	contained, err := target.IsAncestor(tip)
	if err != nil {
		return false, fmt.Errorf("failed to walk history of %s: %w", branch, err)
	}

	r.logger.Debug(ctx, "checked branch ancestry", map[string]interface{}{
		"branch":    branch,
		"branch_at": head,
		"commit":    sha,
		"contained": contained,
	})

	return contained, nil
}

// TagExists reports whether the tag exists in the local repository.
func (r *GoGitRepository) TagExists(_ context.Context, tag string) (bool, error) {
	_, err := r.repo.Tag(tag)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to look up tag %s: %w", tag, err)
}

// Close releases any resources held by the repository.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (r *GoGitRepository) Close() error {
	return nil
}

// Regular expressions for parsing Git remote URLs.
var (
	// httpsURLPattern matches HTTPS URLs like:
	// https://github.com/owner/repo.git
	// https://github.com/owner/repo
	httpsURLPattern = regexp.MustCompile(`^https?://[^/]+/([^/]+)/([^/]+?)(?:\.git)?$`)

	// sshURLPattern matches SSH URLs like:
	// git@github.com:owner/repo.git
	// git@github.com:owner/repo
	sshURLPattern = regexp.MustCompile(`^git@[^:]+:([^/]+)/([^/]+?)(?:\.git)?$`)
)

// parseRepoFromURL extracts owner/repo from a Git remote URL.
// Supports both HTTPS and SSH formats:
//   - https://github.com/owner/repo.git -> owner/repo
//   - git@github.com:owner/repo.git -> owner/repo
func parseRepoFromURL(url string) (string, error) {
	url = strings.TrimSpace(url)

	if matches := httpsURLPattern.FindStringSubmatch(url); len(matches) == 3 {
		return matches[1] + "/" + matches[2], nil
	}

	if matches := sshURLPattern.FindStringSubmatch(url); len(matches) == 3 {
		return matches[1] + "/" + matches[2], nil
	}

	return "", fmt.Errorf("unrecognized URL format: %s", url)
}
