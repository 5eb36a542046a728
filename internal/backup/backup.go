package backup

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/sappho-media/sappho/internal/config"
	"github.com/sappho-media/sappho/internal/plugin"
	"github.com/sappho-media/sappho/internal/services"
)

// Settings keys persisted in the database. Values set via the API override
// the config file on the next start.
const (
	settingScheduleEnabled  = "backup.schedule.enabled"
	settingScheduleInterval = "backup.schedule.interval_hours"
)

// Plugin wires the backup engine, scheduler, and HTTP routes into the
// Sappho server.
type Plugin struct {
	logger   *zap.Logger
	settings services.SettingsRepository

	engine    *Engine
	scheduler *Scheduler

	scheduleEnabled      bool
	defaultIntervalHours int
}

// New creates the backup plugin. settings may be nil when no database-backed
// settings are available (e.g. standalone CLI use); config values then apply
// unconditionally.
func New(settings services.SettingsRepository) *Plugin {
	return &Plugin{settings: settings}
}

func (p *Plugin) Name() string    { return "backup" }
func (p *Plugin) Version() string { return "1.0.0" }

// Init reads the plugin configuration and constructs the engine and
// scheduler. Paths default relative to data_dir when unset.
func (p *Plugin) Init(cfg config.Config, logger *zap.Logger) error {
	p.logger = logger

	dir := cfg.GetString("dir")
	if dir == "" {
		dir = filepath.Join("data", "backups")
	}
	dbPath := cfg.GetString("database")
	if dbPath == "" {
		dbPath = filepath.Join("data", "sappho.db")
	}
	coversDir := cfg.GetString("covers_dir")
	if coversDir == "" {
		coversDir = filepath.Join("data", "covers")
	}

	retention := cfg.GetInt("retention")
	includeCovers := true
	if cfg.IsSet("schedule.include_covers") {
		includeCovers = cfg.GetBool("schedule.include_covers")
	}

	p.scheduleEnabled = cfg.GetBool("schedule.enabled")
	p.defaultIntervalHours = cfg.GetInt("schedule.interval_hours")
	if p.defaultIntervalHours <= 0 {
		p.defaultIntervalHours = 24
	}

	p.engine = NewEngine(dir, dbPath, coversDir, logger)
	p.scheduler = NewScheduler(p.engine, includeCovers, retention, logger)

	logger.Info("backup module initialized",
		zap.String("dir", dir),
		zap.String("database", dbPath),
		zap.String("covers_dir", coversDir),
		zap.Int("retention", retention),
	)
	return nil
}

// Start arms the scheduler when enabled. Database-persisted settings
// (toggled via the API) take precedence over the config file.
func (p *Plugin) Start(ctx context.Context) error {
	enabled, interval := p.effectiveSchedule(ctx)
	if enabled {
		p.scheduler.Start(interval)
	}
	return nil
}

// Stop disarms the scheduler.
func (p *Plugin) Stop() error {
	p.scheduler.Stop()
	return nil
}

// Routes exposes the backup REST API, mounted under /api/v1/backup.
func (p *Plugin) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/{$}", Handler: p.handleList},
		{Method: "POST", Path: "/{$}", Handler: p.handleCreate},
		{Method: "DELETE", Path: "/{filename}", Handler: p.handleDelete},
		{Method: "GET", Path: "/{filename}/download", Handler: p.handleDownload},
		{Method: "POST", Path: "/restore", Handler: p.handleRestore},
		{Method: "POST", Path: "/schedule/start", Handler: p.handleScheduleStart},
		{Method: "POST", Path: "/schedule/stop", Handler: p.handleScheduleStop},
		{Method: "GET", Path: "/schedule/status", Handler: p.handleScheduleStatus},
	}
}

// Engine exposes the engine for CLI and test composition.
func (p *Plugin) Engine() *Engine {
	return p.engine
}

// effectiveSchedule merges persisted settings over config defaults.
func (p *Plugin) effectiveSchedule(ctx context.Context) (bool, int) {
	enabled := p.scheduleEnabled
	interval := p.defaultIntervalHours

	if p.settings == nil {
		return enabled, interval
	}

	if s, err := p.settings.Get(ctx, settingScheduleEnabled); err == nil {
		if v, perr := strconv.ParseBool(s.Value); perr == nil {
			enabled = v
		}
	} else if !errors.Is(err, services.ErrNotFound) {
		p.logger.Warn("reading schedule setting failed", zap.Error(err))
	}

	if s, err := p.settings.Get(ctx, settingScheduleInterval); err == nil {
		if v, perr := strconv.Atoi(s.Value); perr == nil && v > 0 {
			interval = v
		}
	} else if !errors.Is(err, services.ErrNotFound) {
		p.logger.Warn("reading schedule interval failed", zap.Error(err))
	}

	return enabled, interval
}

// persistSchedule records the schedule state so it survives restarts.
// Best-effort: persistence failures are logged, the scheduler state is
// already applied.
func (p *Plugin) persistSchedule(ctx context.Context, enabled bool, intervalHours int) {
	if p.settings == nil {
		return
	}

	if err := p.settings.Set(ctx, settingScheduleEnabled, strconv.FormatBool(enabled)); err != nil {
		p.logger.Warn("persisting schedule setting failed", zap.Error(err))
	}
	if enabled && intervalHours > 0 {
		if err := p.settings.Set(ctx, settingScheduleInterval, strconv.Itoa(intervalHours)); err != nil {
			p.logger.Warn("persisting schedule interval failed", zap.Error(err))
		}
	}
}
