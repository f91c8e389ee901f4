package alerts

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"prop-parlay-engine/internal/odds"
	"prop-parlay-engine/internal/parlay"
)

// Notifier handles alert notifications
type Notifier struct {
	mu         sync.Mutex
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts
	now        func() time.Time
}

// NewNotifier creates a new notifier
func NewNotifier(cooldown time.Duration) *Notifier {
	return &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
		now:        time.Now,
	}
}

// checkCooldown reports whether key was alerted within the cooldown and
// records it otherwise.
func (n *Notifier) checkCooldown(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if lastTime, ok := n.lastAlerts[key]; ok && now.Sub(lastTime) < n.cooldown {
		return true
	}
	n.lastAlerts[key] = now
	return false
}

// AlertParlay logs a long-shot parlay once per cooldown per leg set.
// It reports whether the alert was emitted.
func (n *Notifier) AlertParlay(sport string, p parlay.Parlay) bool {
	if n.checkCooldown(sport + "|" + p.Key()) {
		return false
	}

	players := make([]string, len(p.Legs))
	for i, leg := range p.Legs {
		players[i] = leg.Player
	}

	attrs := []any{
		"sport", sport,
		"type", p.Type,
		"game", p.Game,
		"odds", odds.Format(p.TotalOdds),
		"legs", strings.Join(players, ", "),
	}
	if p.AvgPercentAbove != nil {
		attrs = append(attrs, "avg_pct_above", *p.AvgPercentAbove)
	}
	if p.MixedPricing {
		attrs = append(attrs, "mixed_pricing", true)
	}
	slog.Info("long-shot parlay", attrs...)
	return true
}

// LogError logs a failure outside the alert path, e.g. a feed refresh.
func (n *Notifier) LogError(context string, err error) {
	slog.Error("engine error", "context", context, "error", err)
}

// CleanupOldAlerts removes stale alert records
func (n *Notifier) CleanupOldAlerts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := n.now().Add(-n.cooldown)
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}
