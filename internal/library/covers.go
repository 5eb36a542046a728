// Package library manages media-library assets on disk. Only the cover-image
// store lives here; metadata scraping and scanning are separate concerns.
package library

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CoverStore holds cover images as individual files in a flat directory.
// Filenames are UUID-based so uploads never collide or clobber each other.
type CoverStore struct {
	dir string
}

// NewCoverStore returns a store rooted at dir. The directory is created
// lazily on first Save.
func NewCoverStore(dir string) *CoverStore {
	return &CoverStore{dir: dir}
}

// Dir returns the directory holding the cover files.
func (c *CoverStore) Dir() string {
	return c.dir
}

// Save streams r into a new cover file and returns its filename. ext must
// include the leading dot (e.g. ".jpg"); an empty ext is allowed.
func (c *CoverStore) Save(r io.Reader, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		return "", fmt.Errorf("cover extension %q must start with a dot", ext)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("create covers directory: %w", err)
	}

	name := uuid.New().String() + ext
	path := filepath.Join(c.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create cover %q: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write cover %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close cover %q: %w", name, err)
	}

	return name, nil
}

// Path returns the absolute path for a stored cover name.
func (c *CoverStore) Path(name string) string {
	return filepath.Join(c.dir, filepath.Base(name))
}

// Remove deletes a stored cover. Missing files are not an error.
func (c *CoverStore) Remove(name string) error {
	err := os.Remove(c.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cover %q: %w", name, err)
	}
	return nil
}

// Count returns the number of cover files currently stored. A missing
// directory counts as zero.
func (c *CoverStore) Count() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read covers directory: %w", err)
	}

	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	return n, nil
}
