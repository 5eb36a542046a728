package backup

import (
	"archive/zip"
	"compress/flate"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver for the WAL checkpoint

	"github.com/sappho-media/sappho/internal/version"
)

// partialSuffix marks in-progress bundle writes. Listing ignores these and
// a crash mid-write leaves no file under a valid bundle name.
const partialSuffix = ".partial"

// BuildResult describes a successfully written bundle.
type BuildResult struct {
	Filename       string `json:"filename"`
	Size           int64  `json:"size"`
	IncludesCovers bool   `json:"includesCovers"`
}

// CreateBackup writes a new bundle containing the database, optionally the
// cover tree, and a manifest, in that order. The bundle appears under its
// final name only after the archive is fully written and closed; failures
// leave no partial bundle behind.
//
// Callers must hold the engine guard (TryBegin) when other backup or
// restore operations may run concurrently.
func (e *Engine) CreateBackup(ctx context.Context, includeCovers bool) (result *BuildResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			backupFailures.Inc()
			return
		}
		backupDuration.Observe(time.Since(start).Seconds())
	}()

	if _, err := os.Stat(e.dbPath); err != nil {
		return nil, fmt.Errorf("database file not found: %w", err)
	}

	// Checkpoint WAL to flush pending writes before the file-level copy.
	if err := checkpointWAL(ctx, e.dbPath); err != nil {
		return nil, fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	filename := bundlePrefix + encodeTimestamp(e.now().UTC()) + bundleExt
	finalPath := filepath.Join(e.dir, filename)
	if _, err := os.Stat(finalPath); err == nil {
		return nil, fmt.Errorf("backup already exists: %s", filename)
	}

	tmpPath := finalPath + partialSuffix
	coversAdded, err := e.writeBundle(ctx, tmpPath, includeCovers)
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("finalizing backup: %w", err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	e.logger.Info("backup created",
		zap.String("filename", filename),
		zap.Int64("size", info.Size()),
		zap.Bool("covers", coversAdded),
	)
	backupsCreated.Inc()

	return &BuildResult{
		Filename:       filename,
		Size:           info.Size(),
		IncludesCovers: coversAdded,
	}, nil
}

// writeBundle streams all archive entries to tmpPath at maximum compression.
// Returns whether any cover files were added.
func (e *Engine) writeBundle(ctx context.Context, tmpPath string, includeCovers bool) (coversAdded bool, err error) {
	out, err := os.Create(tmpPath)
	if err != nil {
		return false, fmt.Errorf("creating backup file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing backup file: %w", cerr)
		}
	}()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	if err := e.addFileEntry(zw, e.dbPath, databaseEntry); err != nil {
		return false, fmt.Errorf("adding database to archive: %w", err)
	}

	if includeCovers {
		coversAdded, err = e.addCoverEntries(ctx, zw)
		if err != nil {
			return false, fmt.Errorf("adding covers to archive: %w", err)
		}
	}

	manifest := Manifest{
		Version:    manifestVersion,
		Includes:   []string{IncludeDatabase},
		CreatedAt:  e.now().UTC(),
		AppVersion: version.Short(),
	}
	if coversAdded {
		manifest.Includes = append(manifest.Includes, IncludeCovers)
	}
	if err := addManifestEntry(zw, manifest); err != nil {
		return false, fmt.Errorf("adding manifest to archive: %w", err)
	}

	if err := zw.Close(); err != nil {
		return false, fmt.Errorf("finalizing archive: %w", err)
	}
	if err := out.Sync(); err != nil {
		return false, fmt.Errorf("syncing backup file: %w", err)
	}

	return coversAdded, nil
}

// addFileEntry streams a single file from disk into the archive under the
// given entry name.
func (e *Engine) addFileEntry(zw *zip.Writer, filePath, entryName string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = entryName
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}

// addCoverEntries walks the cover directory and adds one entry per regular
// file under the covers/ prefix. An absent or empty directory adds nothing
// and is not an error.
func (e *Engine) addCoverEntries(ctx context.Context, zw *zip.Writer) (bool, error) {
	if _, err := os.Stat(e.coversDir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	added := false
	err := filepath.WalkDir(e.coversDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cErr := ctx.Err(); cErr != nil {
			return cErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(e.coversDir, p)
		if err != nil {
			return err
		}
		entryName := coverEntryPrefix + filepath.ToSlash(rel)
		if err := e.addFileEntry(zw, p, entryName); err != nil {
			return fmt.Errorf("cover %q: %w", rel, err)
		}
		added = true
		return nil
	})
	return added, err
}

// addManifestEntry serializes the manifest as indented JSON at the archive
// root. Written last so it reflects what was actually archived.
func addManifestEntry(zw *zip.Writer, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	w, err := zw.Create(manifestEntry)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// checkpointWAL opens the database, runs a TRUNCATE checkpoint to flush the
// WAL, and closes the connection.
func checkpointWAL(ctx context.Context, dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// encodeTimestamp renders t as an ISO 8601 string with colons and periods
// replaced by dashes for filesystem safety. Milliseconds keep rapid
// consecutive backups from colliding. The result is never parsed back;
// listing uses filesystem modification times.
func encodeTimestamp(t time.Time) string {
	return strings.NewReplacer(":", "-", ".", "-").
		Replace(t.Format("2006-01-02T15:04:05.000Z"))
}
