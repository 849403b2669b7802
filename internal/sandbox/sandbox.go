// Package sandbox provides workspace-scoped filesystem access. Every path
// used by the pipeline is resolved through a Root, which rejects any
// relative path that would escape the project's workspace directory.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTraversal is returned when a relative path resolves outside the root.
var ErrTraversal = errors.New("path escapes sandbox root")

// Root is the validated absolute path of a project workspace. All file and
// command operations for a project are scoped under its Root.
type Root struct {
	dir string
}

// NewRoot creates a Root for the given directory. The directory must be an
// absolute path; it is cleaned but not required to exist yet.
func NewRoot(dir string) (Root, error) {
	if dir == "" {
		return Root{}, fmt.Errorf("sandbox root must not be empty")
	}
	if !filepath.IsAbs(dir) {
		return Root{}, fmt.Errorf("sandbox root must be absolute, got %q", dir)
	}
	return Root{dir: filepath.Clean(dir)}, nil
}

// Dir returns the absolute path of the sandbox root.
func (r Root) Dir() string {
	return r.dir
}

// Join resolves a relative path inside the root. It returns ErrTraversal if
// the cleaned path would land outside the root, including via "..", absolute
// paths, or an empty-after-clean escape.
func (r Root) Join(rel string) (string, error) {
	if r.dir == "" {
		return "", fmt.Errorf("sandbox root not initialized")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q is absolute", ErrTraversal, rel)
	}
	joined := filepath.Clean(filepath.Join(r.dir, rel))
	if joined != r.dir && !strings.HasPrefix(joined, r.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrTraversal, rel)
	}
	return joined, nil
}

// FileExists reports whether a regular file exists at the relative path.
// Traversal attempts report false.
func (r Root) FileExists(rel string) bool {
	abs, err := r.Join(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// DirExists reports whether a directory exists at the relative path.
func (r Root) DirExists(rel string) bool {
	abs, err := r.Join(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.IsDir()
}

// ReadFile reads the file at the relative path.
func (r Root) ReadFile(rel string) ([]byte, error) {
	abs, err := r.Join(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return data, nil
}

// WriteFile writes data to the file at the relative path, creating parent
// directories as needed.
func (r Root) WriteFile(rel string, data []byte) error {
	abs, err := r.Join(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// Glob returns the relative paths matching the pattern under the root.
// The pattern itself is validated against traversal before expansion.
func (r Root) Glob(pattern string) ([]string, error) {
	abs, err := r.Join(pattern)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(abs)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	rels := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(r.dir, m)
		if err != nil {
			continue
		}
		rels = append(rels, rel)
	}
	return rels, nil
}
