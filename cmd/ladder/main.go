package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/ladder/api"
	"github.com/use-agent/ladder/cache"
	"github.com/use-agent/ladder/cleaner"
	"github.com/use-agent/ladder/config"
	"github.com/use-agent/ladder/engine"
	"github.com/use-agent/ladder/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)

	// ── 3. Profile the environment ──────────────────────────────────
	profile := engine.ProfileFrom(engine.DeploymentContext{
		Serverless:  cfg.Deployment.Serverless,
		Development: cfg.Deployment.Development,
	})
	slog.Info("ladder starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"serverless", profile.IsServerless,
		"maxTier", profile.MaxTier,
	)

	// ── 4. Build tier executors ─────────────────────────────────────
	// Browsers are created lazily inside scraper.Browser; constructing the
	// executors here launches nothing until a tier is actually attempted.
	browser := scraper.NewBrowser(cfg.Browser, false)
	defer browser.Close()
	undetected := scraper.NewBrowser(cfg.Browser, true)
	defer undetected.Close()

	executors := map[int]engine.TierExecutor{
		0: scraper.NewDirectHTTP(),
		1: scraper.NewHeadlessTier(browser),
		2: scraper.NewStealthTier(browser),
		3: scraper.NewUndetectedTier(undetected),
		4: scraper.NewInteractiveTier(cfg.Tiers.CDPURL),
	}

	// ── 5. Assemble the orchestrator ────────────────────────────────
	var timeouts engine.TierTimeouts
	for i := range timeouts {
		if i < len(cfg.Tiers.Timeouts) {
			timeouts[i] = cfg.Tiers.Timeouts[i]
		} else {
			timeouts[i] = 60 * time.Second
		}
	}

	memory := engine.NewDomainMemory(cfg.Tiers.MemoryTTL)
	defer memory.Stop()

	orch := engine.NewOrchestrator(profile, executors, timeouts, memory)

	// ── 6. Initialise cleaner + cache ───────────────────────────────
	cl := cleaner.NewCleaner()
	cc := cache.New(cfg.Cache.MaxEntries)

	// ── 7. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(orch, browser, cl, cfg, cc, startTime)

	// ── 8. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// browser.Close() runs via defer — drains page pools and kills Chrome.
	slog.Info("ladder stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
