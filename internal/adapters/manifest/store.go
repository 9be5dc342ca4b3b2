// Package manifest reads and rewrites the version field of a project manifest.
// This package implements the domain.ManifestStore interface on a go-billy filesystem.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/MyCarrier-DevOps/cut-version/internal/domain"
	"github.com/MyCarrier-DevOps/cut-version/internal/version"
)

// Logger defines the logging interface for the manifest store.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// Store implements domain.ManifestStore.
type Store struct {
	fs     billy.Filesystem
	logger Logger
}

// NewStore creates a Store operating on fs.
func NewStore(fs billy.Filesystem, log Logger) *Store {
	return &Store{fs: fs, logger: log}
}

// document is the subset of a package descriptor the store needs.
type document struct {
	Version *string `json:"version"`
}

// ReadVersion loads the manifest and parses its top-level "version" field.
func (s *Store) ReadVersion(ctx context.Context, name string) (domain.Version, error) {
	data, err := util.ReadFile(s.fs, name)
	if err != nil {
		return domain.Version{}, fmt.Errorf("%w: %s: %w", domain.ErrManifestUnreadable, name, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Version{}, fmt.Errorf("%w: %s: %w", domain.ErrManifestUnreadable, name, err)
	}
	if doc.Version == nil {
		return domain.Version{}, fmt.Errorf("%w: %s declares no version", domain.ErrManifestUnreadable, name)
	}

	v, err := version.Parse(*doc.Version)
	if err != nil {
		return domain.Version{}, fmt.Errorf("failed to parse version in %s: %w", name, err)
	}

	s.logger.Debug(ctx, "read manifest version", map[string]interface{}{
		"manifest": name,
		"version":  version.Format(v),
	})

	return v, nil
}

// WriteVersion rewrites the version on the first line containing marker to v.
// Text before the marker and after the closing quote is kept, so a trailing comma
// is only present when the original line had one.
// It returns false without touching the file when the line already declares v,
// and domain.ErrMarkerNotFound when no line contains marker.
// The rewrite goes through a temporary file in the same directory and a rename.
func (s *Store) WriteVersion(ctx context.Context, name, marker string, v domain.Version) (bool, error) {
	data, err := util.ReadFile(s.fs, name)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", domain.ErrManifestUnreadable, name, err)
	}

	lines := strings.Split(string(data), "\n")
	index := -1
	for i, l := range lines {
		if strings.Contains(l, marker) {
			index = i
			break
		}
	}

	if index < 0 {
		return false, fmt.Errorf("%w: %q in %s", domain.ErrMarkerNotFound, marker, name)
	}

	line := versionLine(lines[index], marker, version.Format(v))
	if lines[index] == line {
		s.logger.Info(ctx, "manifest is already up to date", map[string]interface{}{
			"manifest": name,
		})
		return false, nil
	}

	lines[index] = line
	if err := s.replace(name, []byte(strings.Join(lines, "\n"))); err != nil {
		return false, err
	}

	s.logger.Info(ctx, "updated manifest", map[string]interface{}{
		"manifest": name,
		"line":     index + 1,
		"version":  version.Format(v),
	})

	return true, nil
}

// versionLine swaps the value following marker in current for text.
// The value ends at the next double quote; without one the rest of the line is the value.
func versionLine(current, marker, text string) string {
	start := strings.Index(current, marker) + len(marker)
	rest := current[start:]

	suffix := `"`
	if end := strings.IndexByte(rest, '"'); end >= 0 {
		suffix = rest[end:]
	}

	return current[:start] + text + suffix
}

// replace atomically swaps the contents of name for data.
func (s *Store) replace(name string, data []byte) error {
	info, err := s.fs.Stat(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrManifestUnreadable, name, err)
	}

	tmp, err := util.TempFile(s.fs, filepath.Dir(name), ".manifest-")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if ch, ok := s.fs.(billy.Change); ok {
		// Best effort; memfs and some chroots do not support chmod.
		_ = ch.Chmod(tmpName, info.Mode().Perm())
	}

	if err := s.fs.Rename(tmpName, name); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	return nil
}
