// Package backup implements Sappho's backup and restore engine: building
// point-in-time zip bundles of the database and cover images, restoring
// from them, pruning old bundles, and running the whole cycle on a
// schedule.
package backup

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Bundle filename and archive layout constants.
const (
	bundlePrefix = "sappho-backup-"
	bundleExt    = ".zip"

	databaseEntry    = "sappho.db"
	manifestEntry    = "manifest.json"
	coverEntryPrefix = "covers/"
)

// Engine owns the backup directory and the paths of the live database and
// cover tree. At most one build or restore runs at a time; callers acquire
// the guard with TryBegin before invoking either.
type Engine struct {
	dir       string
	dbPath    string
	coversDir string
	logger    *zap.Logger

	now func() time.Time

	mu   sync.Mutex
	busy bool
}

// NewEngine creates an Engine writing bundles to dir, backing up the
// database at dbPath and the cover images under coversDir.
func NewEngine(dir, dbPath, coversDir string, logger *zap.Logger) *Engine {
	return &Engine{
		dir:       dir,
		dbPath:    dbPath,
		coversDir: coversDir,
		logger:    logger,
		now:       time.Now,
	}
}

// Dir returns the backup directory.
func (e *Engine) Dir() string {
	return e.dir
}

// TryBegin acquires the single-flight guard. It returns false when a build
// or restore is already running, in which case the caller must not proceed.
func (e *Engine) TryBegin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return false
	}
	e.busy = true
	return true
}

// End releases the guard acquired by TryBegin.
func (e *Engine) End() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

// Busy reports whether a build or restore cycle is currently in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}
