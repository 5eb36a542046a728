package backup

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/sappho-media/sappho/internal/server"
)

// handleList returns all bundles, newest first.
func (p *Plugin) handleList(w http.ResponseWriter, r *http.Request) {
	bundles, err := p.engine.ListBackups()
	if err != nil {
		p.logger.Error("listing backups failed", zap.Error(err))
		server.InternalError(w, "listing backups failed", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, bundles)
}

// handleCreate builds a new bundle on demand. Manual builds share the
// scheduler's single-flight guard; a busy engine yields 409.
func (p *Plugin) handleCreate(w http.ResponseWriter, r *http.Request) {
	includeCovers := true
	if v := r.URL.Query().Get("covers"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			server.BadRequest(w, "covers must be a boolean", r.URL.Path)
			return
		}
		includeCovers = parsed
	}

	if !p.engine.TryBegin() {
		server.Conflict(w, "a backup or restore is already in progress", r.URL.Path)
		return
	}
	defer p.engine.End()

	result, err := p.engine.CreateBackup(r.Context(), includeCovers)
	if err != nil {
		p.logger.Error("backup failed", zap.Error(err))
		server.InternalError(w, "backup failed: "+err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleDelete removes a single bundle by name.
func (p *Plugin) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if err := p.engine.Delete(name); err != nil {
		writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDownload streams a bundle to the client.
func (p *Plugin) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, err := p.engine.Resolve(r.PathValue("filename"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

type restoreRequest struct {
	Filename        string `json:"filename"`
	RestoreDatabase *bool  `json:"restoreDatabase"`
	RestoreCovers   *bool  `json:"restoreCovers"`
}

// handleRestore applies a bundle to the live data. Shares the single-flight
// guard with builds and scheduled cycles.
func (p *Plugin) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid request body", r.URL.Path)
		return
	}

	path, err := p.engine.Resolve(req.Filename)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	opts := DefaultRestoreOptions()
	if req.RestoreDatabase != nil {
		opts.Database = *req.RestoreDatabase
	}
	if req.RestoreCovers != nil {
		opts.Covers = *req.RestoreCovers
	}

	if !p.engine.TryBegin() {
		server.Conflict(w, "a backup or restore is already in progress", r.URL.Path)
		return
	}
	defer p.engine.End()

	report, err := p.engine.RestoreBackup(r.Context(), path, opts)
	if err != nil {
		p.logger.Error("restore failed", zap.Error(err))
		server.InternalError(w, "restore failed: "+err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type scheduleStartRequest struct {
	IntervalHours int `json:"intervalHours"`
}

// handleScheduleStart arms the scheduler and persists the choice.
func (p *Plugin) handleScheduleStart(w http.ResponseWriter, r *http.Request) {
	// An empty body means "use the configured interval".
	var req scheduleStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		server.BadRequest(w, "invalid request body", r.URL.Path)
		return
	}

	interval := req.IntervalHours
	if interval <= 0 {
		interval = p.defaultIntervalHours
	}

	p.scheduler.Start(interval)
	p.persistSchedule(r.Context(), true, interval)

	status, err := p.scheduler.Status()
	if err != nil {
		server.InternalError(w, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleScheduleStop disarms the scheduler and persists the choice.
func (p *Plugin) handleScheduleStop(w http.ResponseWriter, r *http.Request) {
	p.scheduler.Stop()
	p.persistSchedule(r.Context(), false, 0)

	status, err := p.scheduler.Status()
	if err != nil {
		server.InternalError(w, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleScheduleStatus returns the current scheduler snapshot.
func (p *Plugin) handleScheduleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := p.scheduler.Status()
	if err != nil {
		server.InternalError(w, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// writeEngineError maps engine sentinels onto problem responses.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidName):
		server.BadRequest(w, "invalid backup filename", r.URL.Path)
	case errors.Is(err, ErrBackupNotFound):
		server.NotFound(w, "backup not found", r.URL.Path)
	default:
		server.InternalError(w, err.Error(), r.URL.Path)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
