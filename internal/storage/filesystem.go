// Package storage provides path-sanitized file IO rooted at the target
// project tree
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem reads and writes files under a single project root. Every
// path is cleaned and checked so no action can escape the project tree.
type FileSystem struct {
	root string
}

// NewFileSystem creates a FileSystem rooted at the project directory
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{root: filepath.Clean(root)}
}

// Root returns the project root directory
func (fs *FileSystem) Root() string {
	return fs.root
}

// SanitizePath validates and cleans a project-relative path to prevent
// directory traversal
func (fs *FileSystem) SanitizePath(path string) (string, error) {
	cleaned := filepath.Clean(path)

	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path %q: contains parent directory reference", path)
	}
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid path %q: absolute paths not allowed", path)
	}

	fullPath := filepath.Join(fs.root, cleaned)

	// Handles symlink-style edge cases after joining
	if !strings.HasPrefix(fullPath, fs.root+string(filepath.Separator)) && fullPath != fs.root {
		return "", fmt.Errorf("invalid path %q: outside project root", path)
	}

	return fullPath, nil
}

// Save writes a file, creating parent directories as needed. Env files
// get owner-only permissions.
func (fs *FileSystem) Save(ctx context.Context, path string, data []byte) error {
	fullPath, err := fs.SanitizePath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	mode := os.FileMode(0644)
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".env") || strings.Contains(base, "secret") {
		mode = 0600
	}

	if err := os.WriteFile(fullPath, data, mode); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

// Load reads a file's content
func (fs *FileSystem) Load(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := fs.SanitizePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return data, nil
}

// Exists checks whether a path exists under the project root
func (fs *FileSystem) Exists(ctx context.Context, path string) bool {
	fullPath, err := fs.SanitizePath(path)
	if err != nil {
		return false
	}

	_, err = os.Stat(fullPath)
	return err == nil
}

