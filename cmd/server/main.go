package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fieldform/internal/audit"
	"github.com/JonMunkholm/fieldform/internal/config"
	"github.com/JonMunkholm/fieldform/internal/core"
	"github.com/JonMunkholm/fieldform/internal/document"
	"github.com/JonMunkholm/fieldform/internal/logging"
	"github.com/JonMunkholm/fieldform/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	// Audit events go to PostgreSQL when configured, otherwise to the log.
	var (
		sink    core.AuditSink
		options []web.Option
	)
	if cfg.Audit.Enabled() {
		if cfg.Audit.AutoMigrate {
			if err := audit.Migrate(cfg.Audit.DatabaseURL); err != nil {
				slog.Error("failed to migrate audit database", "error", err)
				os.Exit(1)
			}
		}
		store, err := audit.Open(ctx, cfg.Audit.DatabaseURL, audit.PoolConfig{
			MaxConns:        cfg.Audit.MaxConns,
			MinConns:        cfg.Audit.MinConns,
			MaxConnLifetime: cfg.Audit.MaxConnLifetime,
			MaxConnIdleTime: cfg.Audit.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to audit database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		slog.Info("audit database connected")

		sink = store
		options = append(options, web.WithAuditLog(store))
	}

	mode, err := core.ParseValidationMode(cfg.Import.ValidationMode)
	if err != nil {
		slog.Error("invalid import validation mode", "error", err)
		os.Exit(1)
	}

	renderer := document.NewRenderer(document.NewFontSource(
		cfg.Export.FontPath,
		cfg.Export.FontURL,
		cfg.Export.FontFetchTimeout,
	))

	service, err := core.NewService(renderer, sink, core.ServiceConfig{
		ValidationMode:       mode,
		MaxImportSize:        cfg.Import.MaxFileSize,
		DocumentTitle:        cfg.Export.Title,
		MaxConcurrentRenders: cfg.Export.MaxConcurrent,
		RenderWaitTime:       cfg.Export.MaxWaitTime,
		SessionTTL:           cfg.Session.TTL,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg, options...)

	jobCtx, cancelJobs := context.WithCancel(ctx)
	go service.Sessions().StartSweeper(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight document renders finish before closing connections.
		if status := service.RenderStatus(); status.Active > 0 {
			slog.Info("waiting for exports to complete", "active", status.Active)
			if err := service.WaitForExports(shutdownCtx); err != nil {
				slog.Warn("exports did not complete in time", "error", err)
			} else {
				slog.Info("all exports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
