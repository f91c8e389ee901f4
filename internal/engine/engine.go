package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"prop-parlay-engine/internal/alerts"
	"prop-parlay-engine/internal/api"
	"prop-parlay-engine/internal/config"
	"prop-parlay-engine/internal/metrics"
	"prop-parlay-engine/internal/parlay"
	"prop-parlay-engine/internal/props"
	"prop-parlay-engine/internal/stream"
)

// ErrUnknownSport is returned for sports the engine was not configured to track.
var ErrUnknownSport = errors.New("sport not tracked")

// Fetcher loads a sport's prop board.
type Fetcher interface {
	Fetch(ctx context.Context, sport string) (*api.Feed, error)
	Supports(sport string) bool
}

// Engine keeps the latest prop snapshot per sport fresh and builds parlays from it.
type Engine struct {
	fetcher  Fetcher
	notifier *alerts.Notifier
	hub      *stream.Hub
	metrics  *metrics.Metrics
	cfg      config.Config

	mu        sync.RWMutex
	snapshots map[string]*api.Feed
}

// New creates a new Engine. notifier, hub and m may be nil. Every configured
// sport must be one the fetcher supports.
func New(
	fetcher Fetcher,
	notifier *alerts.Notifier,
	hub *stream.Hub,
	m *metrics.Metrics,
	cfg config.Config,
) (*Engine, error) {
	for _, sport := range cfg.Sports {
		if !fetcher.Supports(sport) {
			return nil, fmt.Errorf("%w: feed has no endpoint for %s", ErrUnknownSport, sport)
		}
	}
	return &Engine{
		fetcher:   fetcher,
		notifier:  notifier,
		hub:       hub,
		metrics:   m,
		cfg:       cfg,
		snapshots: make(map[string]*api.Feed),
	}, nil
}

// Sports returns the tracked sports.
func (e *Engine) Sports() []string {
	return slices.Clone(e.cfg.Sports)
}

// Tracks reports whether sport is configured.
func (e *Engine) Tracks(sport string) bool {
	return slices.Contains(e.cfg.Sports, strings.ToLower(sport))
}

// Run refreshes every sport immediately and then on each RefreshInterval.
// It blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.RefreshAll(ctx)

	ticker := time.NewTicker(e.cfg.RefreshInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(config.DefaultCleanupInterval)
	defer cleanupTicker.Stop()

	slog.Info("Starting refresh loop", "interval", e.cfg.RefreshInterval, "sports", e.cfg.Sports)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Refresh loop stopped")
			return

		case <-cleanupTicker.C:
			if e.notifier != nil {
				e.notifier.CleanupOldAlerts()
			}

		case <-ticker.C:
			e.RefreshAll(ctx)
		}
	}
}

// RefreshAll refreshes each tracked sport in turn. Failures are logged and
// leave that sport's previous snapshot in place.
func (e *Engine) RefreshAll(ctx context.Context) {
	for _, sport := range e.cfg.Sports {
		if ctx.Err() != nil {
			return
		}
		if err := e.Refresh(ctx, sport); err != nil {
			if e.notifier != nil {
				e.notifier.LogError("refresh "+sport, err)
			} else {
				slog.Error("Refresh failed", "sport", sport, "error", err)
			}
		}
	}
}

// Refresh fetches sport's board and replaces its snapshot.
func (e *Engine) Refresh(ctx context.Context, sport string) error {
	sport = strings.ToLower(sport)
	if !e.Tracks(sport) {
		return fmt.Errorf("%w: %s", ErrUnknownSport, sport)
	}

	start := time.Now()
	feed, err := e.fetcher.Fetch(ctx, sport)
	if e.metrics != nil {
		e.metrics.RecordFetch(sport, time.Since(start), err)
	}
	if err != nil {
		if e.hub != nil {
			e.hub.BroadcastError(err, "refresh "+sport)
		}
		return fmt.Errorf("refreshing %s: %w", sport, err)
	}

	// Latest completed fetch wins.
	e.mu.Lock()
	e.snapshots[sport] = feed
	e.mu.Unlock()

	slog.Info("Props refreshed", "sport", sport, "props", len(feed.Props), "games", len(feed.Games))

	if e.metrics != nil {
		e.metrics.RecordSnapshot(sport, len(feed.Props), feed.FetchedAt)
	}
	if e.hub != nil {
		e.hub.BroadcastRefresh(sport, len(feed.Props), len(feed.Games))
	}

	e.alertTopParlay(sport, feed.Props)
	return nil
}

// Snapshot returns the latest board for sport.
func (e *Engine) Snapshot(sport string) (*api.Feed, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	feed, ok := e.snapshots[strings.ToLower(sport)]
	return feed, ok
}

// Props returns sport's current props, or none before the first refresh.
func (e *Engine) Props(sport string) ([]props.Prop, error) {
	if !e.Tracks(sport) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSport, sport)
	}
	feed, ok := e.Snapshot(sport)
	if !ok {
		return []props.Prop{}, nil
	}
	return feed.Props, nil
}

// Games returns sport's matchup labels.
func (e *Engine) Games(sport string) ([]string, error) {
	if !e.Tracks(sport) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSport, sport)
	}
	feed, ok := e.Snapshot(sport)
	if !ok {
		return []string{}, nil
	}
	return feed.Matchups(), nil
}

// Build filters sport's snapshot and assembles parlays from what remains.
func (e *Engine) Build(sport string, filter props.Filter, opts parlay.Options) (parlay.Result, error) {
	if err := opts.Validate(); err != nil {
		return parlay.Result{}, err
	}
	all, err := e.Props(sport)
	if err != nil {
		return parlay.Result{}, err
	}

	start := time.Now()
	result := parlay.Build(props.Apply(all, filter), opts)
	if e.metrics != nil {
		e.metrics.RecordBuild(strings.ToLower(sport), strconv.Itoa(opts.Legs), string(opts.CapMode),
			result.Generated, result.Truncated, time.Since(start))
	}
	return result, nil
}

// alertTopParlay alerts on the longest parlay at or above the alert floor.
func (e *Engine) alertTopParlay(sport string, all []props.Prop) {
	if e.notifier == nil || e.cfg.AlertLegs == 0 {
		return
	}

	opts := e.cfg.ParlayOptions()
	opts.Legs = e.cfg.AlertLegs
	opts.MinOdds = &e.cfg.AlertMinOdds
	opts.DisplayCap = 1

	result := parlay.Build(all, opts)
	if len(result.Parlays) == 0 {
		return
	}
	top := result.Parlays[0]
	if !e.notifier.AlertParlay(sport, top) {
		return
	}
	if e.metrics != nil {
		e.metrics.AlertsSent.WithLabelValues(sport).Inc()
	}
	if e.hub != nil {
		e.hub.BroadcastAlert(sport, top)
	}
}
