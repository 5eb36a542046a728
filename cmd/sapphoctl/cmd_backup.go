package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sappho-media/sappho/internal/backup"
)

func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./data", "directory containing the database and covers")
	backupDir := fs.String("backup-dir", "", "backup directory (default: {data-dir}/backups)")
	covers := fs.Bool("covers", true, "include cover images in the backup")
	keep := fs.Int("keep", 0, "apply retention after backup, keeping this many bundles (0 = keep all)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *backupDir == "" {
		*backupDir = filepath.Join(*dataDir, "backups")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	engine := backup.NewEngine(
		*backupDir,
		filepath.Join(*dataDir, "sappho.db"),
		filepath.Join(*dataDir, "covers"),
		logger,
	)

	ctx := context.Background()
	result, err := engine.CreateBackup(ctx, *covers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Backup created: %s (%d bytes)\n", result.Filename, result.Size)

	if *keep > 0 {
		deleted, err := engine.ApplyRetention(*keep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "retention failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Retention: deleted %d old backup(s)\n", deleted)
	}
}
