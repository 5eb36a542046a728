package backup

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// BundleInfo describes one bundle on disk. CreatedAt comes from filesystem
// modification time, never from the encoded filename, so listings stay
// correct under clock or name drift.
type BundleInfo struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	SizeHuman string    `json:"sizeHuman"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListBackups returns all bundles in the backup directory sorted by
// modification time, most recent first. The directory is created if
// missing; non-conforming entries are ignored.
func (e *Engine) ListBackups() ([]BundleInfo, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	bundles := make([]BundleInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, bundlePrefix) || !strings.HasSuffix(name, bundleExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			e.logger.Warn("skipping unreadable backup",
				zap.String("filename", name), zap.Error(err))
			continue
		}

		bundles = append(bundles, BundleInfo{
			Filename:  name,
			Size:      info.Size(),
			SizeHuman: humanSize(info.Size()),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(bundles, func(i, j int) bool {
		return bundles[i].CreatedAt.After(bundles[j].CreatedAt)
	})

	return bundles, nil
}

// humanSize renders a byte count for display: raw bytes below 1 KB, one
// decimal place for KB and MB, two for GB. Rounding is half-up.
func humanSize(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)

	switch {
	case n < kb:
		return fmt.Sprintf("%d B", n)
	case n < mb:
		return fmt.Sprintf("%.1f KB", roundHalfUp(float64(n)/kb, 1))
	case n < gb:
		return fmt.Sprintf("%.1f MB", roundHalfUp(float64(n)/mb, 1))
	default:
		return fmt.Sprintf("%.2f GB", roundHalfUp(float64(n)/gb, 2))
	}
}

// roundHalfUp rounds to the given number of decimal places, with ties
// going away from zero (0.05 -> 0.1, not banker's rounding).
func roundHalfUp(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Floor(v*scale+0.5) / scale
}

// Delete removes a single bundle by name, routed through Resolve so the
// same validation and sandboxing applies as for restores.
func (e *Engine) Delete(name string) error {
	path, err := e.Resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting backup %q: %w", filepath.Base(path), err)
	}
	e.logger.Info("backup deleted", zap.String("filename", filepath.Base(path)))
	return nil
}
