package blueprint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dotcommander/stackforge/internal/storage"
)

// Overlay is the in-memory virtual file system a transactional blueprint
// stages its writes against. Reads fall through to disk for untouched
// paths; nothing reaches disk until Flush, and a discarded overlay
// leaves every on-disk file unchanged.
type Overlay struct {
	fs    *storage.FileSystem
	files map[string][]byte
}

// NewOverlay creates an empty overlay over the project filesystem
func NewOverlay(fs *storage.FileSystem) *Overlay {
	return &Overlay{
		fs:    fs,
		files: make(map[string][]byte),
	}
}

// Read returns the current staged content for a path, or the on-disk
// content when the overlay has not touched it. The second return is
// false when the file exists in neither place.
func (o *Overlay) Read(ctx context.Context, path string) ([]byte, bool, error) {
	key, err := o.fs.SanitizePath(path)
	if err != nil {
		return nil, false, err
	}

	if content, ok := o.files[key]; ok {
		return content, true, nil
	}

	data, err := os.ReadFile(key)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading file: %w", err)
	}
	return data, true, nil
}

// Write stages new content for a path
func (o *Overlay) Write(path string, content []byte) error {
	key, err := o.fs.SanitizePath(path)
	if err != nil {
		return err
	}
	o.files[key] = content
	return nil
}

// Len returns the number of staged entries
func (o *Overlay) Len() int {
	return len(o.files)
}

// Paths returns the staged project-relative paths in sorted order
func (o *Overlay) Paths() []string {
	paths := make([]string, 0, len(o.files))
	for key := range o.files {
		rel, err := relToRoot(o.fs, key)
		if err != nil {
			continue
		}
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return paths
}

// Flush writes every staged entry to disk, one file per entry. Callers
// only reach Flush after every action staged successfully.
func (o *Overlay) Flush(ctx context.Context) error {
	for _, rel := range o.Paths() {
		key, err := o.fs.SanitizePath(rel)
		if err != nil {
			return err
		}
		if err := o.fs.Save(ctx, rel, o.files[key]); err != nil {
			return fmt.Errorf("flushing %s: %w", rel, err)
		}
	}
	return nil
}

// Discard drops every staged entry, leaving disk untouched
func (o *Overlay) Discard() {
	o.files = make(map[string][]byte)
}

func relToRoot(fs *storage.FileSystem, fullPath string) (string, error) {
	return filepath.Rel(fs.Root(), fullPath)
}
