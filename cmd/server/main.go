package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"prop-parlay-engine/internal/alerts"
	"prop-parlay-engine/internal/api"
	"prop-parlay-engine/internal/config"
	"prop-parlay-engine/internal/engine"
	"prop-parlay-engine/internal/metrics"
	"prop-parlay-engine/internal/server"
	"prop-parlay-engine/internal/slips"
	"prop-parlay-engine/internal/stream"
)

func main() {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.InsiderAPIKey == "" {
		log.Println("INSIDER_API_KEY not set, requesting feeds without a key")
	}

	// Initialize components
	feedClient := api.NewFeedClient(cfg.InsiderAPIKey, cfg.FeedURLs, cfg.FeedRequestsPerMin)
	notifier := alerts.NewNotifier(cfg.AlertCooldown)
	m := metrics.New()
	hub := stream.NewHub()
	hub.OnClientsChanged = func(n int) { m.StreamClients.Set(float64(n)) }

	// Saved slips are optional; the board still serves without them.
	var db *slips.DB
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Printf("Slips disabled: %v", err)
	} else if db, err = slips.Open(cfg.DBPath); err != nil {
		log.Printf("Slips disabled: %v", err)
		db = nil
	} else {
		defer db.Close()
	}

	eng, err := engine.New(feedClient, notifier, hub, m, cfg)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	log.Printf("Starting | sports=%v refresh=%s comboCap=%s displayCap=%s capMode=%s comparator=%s alert=%d legs@%+d db=%s",
		cfg.Sports, cfg.RefreshInterval, config.FormatCap(cfg.ComboCap), config.FormatCap(cfg.DisplayCap),
		cfg.CapMode, cfg.Comparator, cfg.AlertLegs, cfg.AlertMinOdds, cfg.DBPath)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		eng.Run(ctx)
	}()

	srv := server.New(eng, db, hub, m, cfg.ParlayOptions())
	srv.CORSOrigins = cfg.CORSOrigins
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	wg.Wait()
	log.Println("Stopped gracefully")
}
