package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tmajkov/sideout/internal/cbva"
	"github.com/tmajkov/sideout/internal/config"
	"github.com/tmajkov/sideout/internal/database"
	server "github.com/tmajkov/sideout/internal/http"
	"github.com/tmajkov/sideout/internal/league"
	"github.com/tmajkov/sideout/internal/metrics"
	"github.com/tmajkov/sideout/internal/notifier/slack"
	"github.com/tmajkov/sideout/internal/pipeline"
	"github.com/tmajkov/sideout/internal/pubsub"
	"github.com/tmajkov/sideout/internal/rating"
	"github.com/tmajkov/sideout/internal/reconcile"
	"github.com/tmajkov/sideout/internal/scheduler"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	leagueStore := league.New(db)
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	cbvaClient := cbva.NewClient(cfg.Cbva.BaseURL)
	notifier := slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	pubsubClient := pubsub.New(cfg.ProjectID)
	reconciler := reconcile.New(leagueStore, metricsSvc)
	engine := rating.New(leagueStore, metricsSvc)
	pipe := pipeline.New(reconciler, engine, notifier, pubsubClient)

	s := server.NewServer(
		leagueStore,
		metricsSvc,
		metricsHandler,
		cfg,
		cbvaClient,
		notifier,
		pipe,
		engine,
		pubsubClient,
	)

	// Scheduled scrapes publish every current-year tournament; the push
	// subscription drives reconciliation and incremental rating.
	sched := scheduler.New(cfg.ScrapeCron, func() {
		metricsSvc.IncScraperRuns()
		year := time.Now().Year()
		refs, err := cbvaClient.ListTournaments(year, year)
		if err != nil {
			log.Error("Scheduled scrape failed to list tournaments", "error", err)
			return
		}
		for _, ref := range refs {
			record, err := cbvaClient.FetchTournament(ref.ExternalID)
			if err != nil {
				log.Error("Scheduled scrape failed to fetch tournament", "tournamentID", ref.ExternalID, "error", err)
				continue
			}
			if err := pipe.Publish(*record); err != nil {
				log.Error("Scheduled scrape failed to publish tournament", "tournamentID", ref.ExternalID, "error", err)
			}
		}
	})
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %s", err)
	}
	defer sched.Stop()

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
