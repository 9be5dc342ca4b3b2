// Package workspace manages the on-disk staging and build directories.
// This package implements the domain.Workspace interface on a go-billy filesystem.
package workspace

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Logger defines the logging interface for the workspace.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// dirPerm is the permission used for every directory the workspace creates.
const dirPerm = 0o755

// Workspace implements domain.Workspace.
type Workspace struct {
	fs     billy.Filesystem
	logger Logger
}

// New creates a Workspace operating on fs.
func New(fs billy.Filesystem, log Logger) *Workspace {
	return &Workspace{fs: fs, logger: log}
}

// Remove deletes path and everything below it. A missing path is not an error.
func (w *Workspace) Remove(ctx context.Context, path string) error {
	if err := util.RemoveAll(w.fs, path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	w.logger.Debug(ctx, "removed directory", map[string]interface{}{
		"path": path,
	})
	return nil
}

// EnsureDir creates path and any missing parents.
func (w *Workspace) EnsureDir(ctx context.Context, path string) error {
	if err := w.fs.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w.logger.Debug(ctx, "ensured directory", map[string]interface{}{
		"path": path,
	})
	return nil
}

// Reset removes path and everything below it, then recreates it empty.
func (w *Workspace) Reset(ctx context.Context, path string) error {
	if err := w.Remove(ctx, path); err != nil {
		return err
	}
	return w.EnsureDir(ctx, path)
}
