// Package main provides the entry point for the podium engine daemon.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/podium-engine/internal/betting"
	"github.com/yourusername/podium-engine/internal/config"
	"github.com/yourusername/podium-engine/internal/database"
	"github.com/yourusername/podium-engine/internal/datasource"
	"github.com/yourusername/podium-engine/internal/events"
	"github.com/yourusername/podium-engine/internal/feed"
	"github.com/yourusername/podium-engine/internal/health"
	"github.com/yourusername/podium-engine/internal/logger"
	"github.com/yourusername/podium-engine/internal/metrics"
	"github.com/yourusername/podium-engine/internal/odds"
	"github.com/yourusername/podium-engine/internal/progression"
	"github.com/yourusername/podium-engine/internal/rating"
	"github.com/yourusername/podium-engine/internal/repository"
	"github.com/yourusername/podium-engine/internal/scheduler"
	"github.com/yourusername/podium-engine/internal/service"
)

var version = "dev"

func main() {
	cfg, err := config.LoadWithDefaults(os.Getenv("PODIUM_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(context.Background(), cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     version,
	}).Info("Podium engine starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDB(ctx, cfg.GetDatabaseDSN(), int32(cfg.Database.MaxConnections))
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	metrics.InitRegistry()

	bus := events.NewBus(appLog)
	audit := logger.NewAuditLogger(appLog)

	updater := rating.NewUpdater(repos.Competitor, repos.Race, cfg.Rating.Tau, appLog)
	softReset := rating.NewSoftReset(repos.Competitor, repos.Race, repos.SoftReset, appLog)

	oddsEngine := odds.NewEngine(repos.Competitor, repos.Odds, odds.NewSnapshotCache(), bus, odds.Config{
		Trials:  cfg.Odds.Trials,
		Seed:    cfg.Odds.Seed,
		Workers: cfg.Odds.Workers,
	}, appLog)

	tracker := progression.NewTracker(repos.Streak, bus, appLog)
	cycle := betting.NewCycle(repos.Week, audit, appLog)
	settler := betting.NewSettler(repos.Week, repos.Bet, repos.Competitor, repos.Odds, oddsEngine, tracker, bus, audit, appLog)

	provider := datasource.NewResultsAPI(datasource.ResultsAPIConfig{
		BaseURL: cfg.Datasource.BaseURL,
		APIKey:  cfg.Datasource.APIKey,
		Client: datasource.HTTPClientConfig{
			Timeout:           cfg.Datasource.HTTPTimeout(),
			MaxRetries:        cfg.Datasource.MaxRetries,
			RetryWaitMin:      100 * time.Millisecond,
			RetryWaitMax:      10 * time.Second,
			RateLimit:         cfg.Datasource.RateLimitPerSecond,
			CircuitBreakerMax: cfg.Datasource.CircuitBreakerFailures,
		},
	}, appLog)
	defer provider.Close()

	ingestion := service.NewIngestionService(provider, updater, oddsEngine, cycle, tracker, appLog)
	rankings := service.NewRankingsService(repos.Competitor, repos.Bet, appLog)
	archive := service.NewArchiveService(rankings, repos.Race, repos.Archive, softReset, appLog)

	sched := scheduler.NewScheduler(cycle, settler, oddsEngine, updater, ingestion, archive, appLog)
	if err := sched.ScheduleWeekLifecycle(); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule week lifecycle")
	}
	if err := sched.ScheduleResultPolling(cfg.Datasource.PollInterval(), cfg.Datasource.Lookback()); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule result polling")
	}

	// The current week must exist before the first poll lands.
	if _, err := cycle.EnsureCurrentWeek(ctx, time.Now().UTC()); err != nil {
		appLog.WithError(err).Fatal("Failed to ensure current betting week")
	}

	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     version,
		Port:        cfg.Health.Port,
		Logger:      appLog,
		DB:          db,
		Scheduler:   sched,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}
	healthServer.SetReady(true)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			appLog.WithField("addr", metricsServer.Addr).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	if cfg.Feed.Enabled {
		feedServer := feed.NewServer(cfg.Feed.Port, bus, appLog)
		if err := feedServer.Start(ctx); err != nil {
			appLog.WithError(err).Fatal("Failed to start event feed")
		}
	}

	appLog.WithFields(logrus.Fields{
		"odds_trials": cfg.Odds.Trials,
		"rating_tau":  cfg.Rating.Tau,
		"next_run":    sched.NextRun().Format(time.RFC3339),
	}).Info("Podium engine running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig.String()).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()

	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error during scheduler shutdown")
	}
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	appLog.Info("Podium engine shut down")
}
