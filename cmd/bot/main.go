package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"relay_bot/internal/bot"
	"relay_bot/internal/config"
	"relay_bot/internal/dedup"
	"relay_bot/internal/fetcher"
	"relay_bot/internal/filter"
	"relay_bot/internal/registry"
	"relay_bot/internal/scheduler"
	"relay_bot/internal/storage"
	"relay_bot/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.Error("open store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	filters, err := filter.ParseRules(cfg.FeedInclude, cfg.FeedExclude)
	if err != nil {
		log.Error("parse feed filters", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := registry.Open(ctx, store, log)

	b, err := bot.New(cfg, reg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(reg, dedup.New(), fetcher.New(&http.Client{}), b, scheduler.Options{
		FeedURL:        cfg.FeedURL,
		FeedLimit:      cfg.FeedLimit,
		Location:       cfg.FeedTimezone,
		Filters:        filters,
		Tick:           cfg.TickInterval,
		SendDelay:      cfg.SendDelay,
		SendTimeout:    cfg.SendTimeout,
		DedupRetention: cfg.DedupRetention,
		PromoText:      bot.PromoText(cfg.SupportGroup),
	}, log)

	log.Info("starting bot", "feed", cfg.FeedURL, "store", cfg.DatabasePath)

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	if cfg.WebAddr != "" {
		srv := &http.Server{
			Addr:              cfg.WebAddr,
			Handler:           web.NewRouter(reg, cfg.WebPassword, log),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("dashboard listening", "addr", cfg.WebAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("dashboard server", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	b.Run(ctx)
	<-schedDone
	reg.Flush()

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
