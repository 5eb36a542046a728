package backup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sappho_backup_created_total",
		Help: "Number of backup bundles successfully created.",
	})

	backupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sappho_backup_failures_total",
		Help: "Number of backup builds that aborted with an error.",
	})

	restoresCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sappho_backup_restores_total",
		Help: "Number of restores that completed without error.",
	})

	retentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sappho_backup_retention_deleted_total",
		Help: "Number of bundles removed by the retention policy.",
	})

	backupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sappho_backup_duration_seconds",
		Help:    "Wall-clock duration of backup builds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
