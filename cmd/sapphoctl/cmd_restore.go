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

func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	input := fs.String("input", "", "backup bundle filename to restore (required)")
	dataDir := fs.String("data-dir", "./data", "directory containing the database and covers")
	backupDir := fs.String("backup-dir", "", "backup directory (default: {data-dir}/backups)")
	noDatabase := fs.Bool("skip-database", false, "do not restore the database")
	noCovers := fs.Bool("skip-covers", false, "do not restore cover images")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "error: --input is required")
		fs.Usage()
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

	path, err := engine.Resolve(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		os.Exit(1)
	}

	opts := backup.DefaultRestoreOptions()
	opts.Database = !*noDatabase
	opts.Covers = !*noCovers

	report, err := engine.RestoreBackup(context.Background(), path, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Restore complete: database=%t covers=%d\n", report.Database, report.Covers)
}
