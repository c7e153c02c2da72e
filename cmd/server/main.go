package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/colimport/internal/config"
	"github.com/JonMunkholm/colimport/internal/core"
	"github.com/JonMunkholm/colimport/internal/logging"
	"github.com/JonMunkholm/colimport/internal/reader"
	"github.com/JonMunkholm/colimport/internal/web"
)

func main() {
	// Load .env file if it exists; real environment variables win.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"import_max_file_size", cfg.Import.MaxFileSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"sql_enabled", cfg.SQL.Enabled(),
	)

	readers := core.Readers()
	slog.Info("readers registered", "count", len(readers))
	for _, r := range readers {
		slog.Debug("reader", "key", r.Key, "kind", r.Kind, "extensions", r.Extensions)
	}

	service := core.NewService(cfg.Import.ServiceConfig())

	var opts []web.Option
	if cfg.SQL.Enabled() {
		db, err := openDatabase(cfg.SQL)
		if err != nil {
			slog.Error("failed to connect to database", "driver", cfg.SQL.Driver, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		opts = append(opts, web.WithDatabase(db, cfg.SQL.Driver))
	}

	server := web.NewServer(service, cfg, opts...)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartSpoolJanitor(jobCtx, core.JanitorConfig{})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Cancel running imports and wait for their slots to drain
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("cancelling active imports", "active", status.Active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

func openDatabase(cfg config.SQLConfig) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	db, err := reader.OpenDB(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to database", "driver", cfg.Driver)
	return db, nil
}
