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

	"github.com/lysyi3m/rss-alert/app/api"
	"github.com/lysyi3m/rss-alert/app/cfg"
	"github.com/lysyi3m/rss-alert/app/database"
	"github.com/lysyi3m/rss-alert/app/feed"
	"github.com/lysyi3m/rss-alert/app/notify"
	"github.com/lysyi3m/rss-alert/app/tasks"
	"github.com/lysyi3m/rss-alert/app/triage"
)

const fetchClientTimeout = 60 * time.Second

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appConfig == nil {
		// --help
		return
	}

	setupLogger(appConfig.Debug)

	slog.Info("Starting RSS Alert", "version", appConfig.Version, "watch", appConfig.Watch)

	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appConfig.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Debug("Database ready", "path", appConfig.DBPath, "version", version, "dirty", dirty)

	configCache := feed.NewConfigCache(appConfig.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "dir", appConfig.FeedsDir, "error", err)
		os.Exit(1)
	}

	fetcher := feed.NewFetcher(&http.Client{Timeout: fetchClientTimeout}, feed.NewParser(), appConfig.UserAgent)
	coordinator := triage.NewCoordinator(fetcher, triage.NewEngine(feed.NewMatcher()))

	watermarkRepo := database.NewWatermarkRepository(db)
	runRepo := database.NewRunRepository(db)
	notifier := notify.NewSlackNotifier(appConfig.SlackWebhookURL)

	newRunTask := func() *tasks.RunTask {
		return tasks.NewRunTask(configCache, coordinator, watermarkRepo, runRepo, notifier)
	}

	if !appConfig.Watch {
		if err := runOnce(newRunTask()); err != nil {
			slog.Error("Run failed", "error", err)
			db.Close()
			os.Exit(1)
		}
		return
	}

	serve(appConfig, newRunTask, configCache, watermarkRepo, runRepo)
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runOnce(task *tasks.RunTask) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	task.Start()
	if err := task.Execute(ctx); err != nil {
		return err
	}

	fmt.Println(task.Result().Summary())
	return nil
}

func serve(appConfig *cfg.Cfg, newRunTask func() *tasks.RunTask, configCache *feed.ConfigCache,
	watermarkRepo *database.SQLiteWatermarkRepository, runRepo *database.SQLiteRunRepository) {
	scheduler := tasks.NewScheduler(newRunTask, appConfig.Interval())
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(configCache, watermarkRepo, runRepo, scheduler)
	server := api.NewServer(handler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port, "interval", appConfig.Interval())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("RSS Alert shutdown complete")
}
