package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sappho-media/sappho/internal/backup"
	"github.com/sappho-media/sappho/internal/config"
	"github.com/sappho-media/sappho/internal/plugin"
	"github.com/sappho-media/sappho/internal/server"
	"github.com/sappho-media/sappho/internal/services"
	"github.com/sappho-media/sappho/internal/store"
	"github.com/sappho-media/sappho/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Sappho server starting", zap.String("version", version.Short()))

	v, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	cfg := config.New(v)

	// Open the primary database.
	st, err := store.New(cfg.GetString("plugins.backup.database"))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings, err := services.NewSQLiteSettingsRepository(ctx, st)
	if err != nil {
		logger.Fatal("failed to initialize settings", zap.Error(err))
	}

	// Register all plugins (compile-time composition).
	registry := plugin.NewRegistry(logger)
	plugins := []plugin.Plugin{
		backup.New(settings),
	}
	for _, p := range plugins {
		if err := registry.Register(p); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}

	if err := registry.InitAll(cfg); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}
	if err := registry.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	addr := cfg.GetString("server.host") + ":" + cfg.GetString("server.port")
	if addr == ":" {
		addr = "0.0.0.0:8080"
	}
	srv := server.New(addr, registry, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("Sappho server ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	registry.StopAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("Sappho server stopped")
}
