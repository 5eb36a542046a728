package backup

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Sentinel errors surfaced to API callers. Both map to 4xx responses and
// never indicate a server fault.
var (
	ErrInvalidName    = errors.New("invalid backup filename")
	ErrBackupNotFound = errors.New("backup not found")
)

// Resolve validates a caller-supplied bundle filename and returns its
// absolute path inside the backup directory. Only the trailing path element
// is considered, so traversal components can never escape the directory;
// the existence check runs on the sandboxed path only. Returns
// ErrInvalidName for names that don't match the bundle pattern and
// ErrBackupNotFound when no such bundle exists.
func (e *Engine) Resolve(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))

	if base == "." || base == ".." || base == "/" {
		return "", ErrInvalidName
	}
	if !strings.HasPrefix(base, bundlePrefix) || !strings.HasSuffix(base, bundleExt) {
		return "", ErrInvalidName
	}
	if len(base) <= len(bundlePrefix)+len(bundleExt) {
		return "", ErrInvalidName
	}

	resolved := filepath.Join(e.dir, base)

	// Join with a clean base cannot escape e.dir, but verify anyway.
	rel, err := filepath.Rel(e.dir, resolved)
	if err != nil || rel != base {
		return "", ErrInvalidName
	}

	if _, err := os.Stat(resolved); err != nil {
		if os.IsNotExist(err) {
			return "", ErrBackupNotFound
		}
		return "", fmt.Errorf("stat backup %q: %w", base, err)
	}

	return resolved, nil
}
