// Package storage writes rendered reports to a local directory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./reports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data under the base directory and returns the full path. The filename is
// reduced to its base name so callers cannot escape the directory.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	name := sanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid report filename %q", filename)
	}
	path := s.Path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return path, nil
}

// Path returns where filename is stored.
func (s *LocalStorage) Path(filename string) string {
	return filepath.Join(s.baseDir, sanitizeFilename(filename))
}

func sanitizeFilename(raw string) string {
	name := filepath.Base(strings.TrimSpace(raw))
	if name == "." || name == string(filepath.Separator) || name == ".." {
		return ""
	}
	return strings.NewReplacer(" ", "_", ":", "-").Replace(name)
}
