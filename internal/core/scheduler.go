package core

// scheduler.go provides background maintenance for the import service.
//
// The spool janitor removes upload spool files that outlived their job, for
// example after a crash between spooling and the deferred cleanup. It runs
// once on start and then on every tick until the context is cancelled.
// Failures are logged and never stop the loop.

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// spoolPattern matches the files written by Service.spool.
const spoolPattern = "colimport-*"

// JanitorConfig holds configuration for the spool janitor.
// Zero values fall back to the defaults.
type JanitorConfig struct {
	MaxAge        time.Duration // spool files older than this are removed (default: 1h)
	CheckInterval time.Duration // how often to run (default: 15m)
}

func (c JanitorConfig) withDefaults() JanitorConfig {
	if c.MaxAge <= 0 {
		c.MaxAge = time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 15 * time.Minute
	}
	return c
}

// StartSpoolJanitor blocks, sweeping the spool directory until ctx is done.
// Run it in its own goroutine.
func (s *Service) StartSpoolJanitor(ctx context.Context, cfg JanitorConfig) {
	cfg = cfg.withDefaults()
	slog.Info("spool janitor started",
		"spool_dir", s.spoolDir(),
		"max_age", cfg.MaxAge,
		"interval", cfg.CheckInterval,
	)

	s.sweepSpool(cfg.MaxAge)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("spool janitor stopped")
			return
		case <-ticker.C:
			s.sweepSpool(cfg.MaxAge)
		}
	}
}

// sweepSpool removes stale spool files and returns how many were deleted.
func (s *Service) sweepSpool(maxAge time.Duration) int {
	start := time.Now()
	matches, err := filepath.Glob(filepath.Join(s.spoolDir(), spoolPattern))
	if err != nil {
		slog.Error("spool sweep failed", "error", err)
		return 0
	}

	removed := 0
	cutoff := start.Add(-maxAge)
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() || fi.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			slog.Warn("remove stale spool file", "path", path, "error", err)
			continue
		}
		removed++
	}

	slog.Debug("spool sweep completed",
		"files_removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return removed
}

func (s *Service) spoolDir() string {
	if s.cfg.SpoolDir != "" {
		return s.cfg.SpoolDir
	}
	return os.TempDir()
}
