package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// RestoreOptions selects which bundle contents to apply.
type RestoreOptions struct {
	Database bool `json:"restoreDatabase"`
	Covers   bool `json:"restoreCovers"`
}

// DefaultRestoreOptions restores everything the bundle contains.
func DefaultRestoreOptions() RestoreOptions {
	return RestoreOptions{Database: true, Covers: true}
}

// RestoreReport summarizes what a restore applied.
type RestoreReport struct {
	Database bool      `json:"database"`
	Covers   int       `json:"covers"`
	Manifest *Manifest `json:"manifest"`
}

// RestoreBackup applies the bundle at bundlePath. Entries are processed
// strictly in archive order, one at a time, dispatched by their stored
// path: the manifest is parsed into the report, the database entry
// overwrites the live database (after a best-effort .bak safety copy),
// cover entries stream into the covers directory, and everything else is
// skipped. A failure mid-restore aborts immediately; entries already
// applied stay in place and the .bak copy is the recovery path.
//
// Callers must hold the engine guard (TryBegin) when other backup or
// restore operations may run concurrently.
func (e *Engine) RestoreBackup(ctx context.Context, bundlePath string, opts RestoreOptions) (*RestoreReport, error) {
	if _, err := os.Stat(bundlePath); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	zr, err := zip.OpenReader(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("opening backup archive: %w", err)
	}
	defer zr.Close()

	report := &RestoreReport{}
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		kind, coverName := classifyEntry(f.Name)
		switch kind {
		case entryManifest:
			m, err := readManifestEntry(f)
			if err != nil {
				return nil, err
			}
			report.Manifest = m

		case entryDatabase:
			if !opts.Database {
				continue
			}
			if err := e.restoreDatabase(f); err != nil {
				return nil, err
			}
			report.Database = true

		case entryCover:
			if !opts.Covers {
				continue
			}
			if err := e.restoreCover(f, coverName); err != nil {
				return nil, err
			}
			report.Covers++

		default:
			// Directory placeholders and unknown entries are skipped.
		}
	}

	e.logger.Info("backup restored",
		zap.String("bundle", filepath.Base(bundlePath)),
		zap.Bool("database", report.Database),
		zap.Int("covers", report.Covers),
	)
	restoresCompleted.Inc()

	return report, nil
}

// readManifestEntry buffers and parses the manifest. Manifests are small;
// a parse failure aborts the restore.
func readManifestEntry(f *zip.File) (*Manifest, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening manifest entry: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading manifest entry: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// restoreDatabase copies the live database to a .bak sibling and then
// streams the archived database over the live path, fsyncing before the
// entry counts as applied. The .bak copy is best-effort: one exists per
// database path and each restore overwrites it.
func (e *Engine) restoreDatabase(f *zip.File) error {
	if err := copyFile(e.dbPath, e.dbPath+".bak"); err != nil {
		e.logger.Warn("could not create .bak safety copy", zap.Error(err))
	}

	if err := os.MkdirAll(filepath.Dir(e.dbPath), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	if err := writeEntry(f, e.dbPath); err != nil {
		return fmt.Errorf("restoring database: %w", err)
	}
	return nil
}

// restoreCover streams one cover entry to its destination under the covers
// directory, rejecting names that would resolve outside it.
func (e *Engine) restoreCover(f *zip.File, coverName string) error {
	dest := filepath.Join(e.coversDir, filepath.FromSlash(coverName))

	rel, err := filepath.Rel(e.coversDir, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: cover entry %q", ErrInvalidName, f.Name)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating cover directory: %w", err)
	}
	if err := writeEntry(f, dest); err != nil {
		return fmt.Errorf("restoring cover %q: %w", coverName, err)
	}
	return nil
}

// writeEntry streams an archive entry to destPath and fsyncs it. A
// mid-stream error (truncated or corrupt entry) propagates to the caller.
func writeEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, rc); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// copyFile duplicates src to dst, preserving nothing but the bytes.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
