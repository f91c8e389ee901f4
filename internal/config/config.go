package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"prop-parlay-engine/internal/api"
	"prop-parlay-engine/internal/parlay"
)

// Defaults for configuration values.
const (
	DefaultPort               = "8080"
	DefaultDBPath             = "/data/slips.db"
	DefaultRefreshInterval    = 5 * time.Minute
	DefaultSports             = "nfl,nba"
	DefaultComboCap           = parlay.DefaultComboCap
	DefaultDisplayCap         = parlay.DefaultDisplayCap
	DefaultCapMode            = parlay.CapEnumeration
	DefaultComparator         = parlay.ComparatorAmerican
	DefaultAlertMinOdds       = 1000
	DefaultAlertLegs          = 3
	DefaultAlertCooldown      = 5 * time.Minute
	DefaultCleanupInterval    = 10 * time.Minute
	DefaultFeedRequestsPerMin = 60
	DefaultCORSOrigin         = "*"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	DBPath          string
	RefreshInterval time.Duration
	Sports          []string

	// Prop feed settings
	InsiderAPIKey      string
	FeedURLs           map[string]string
	FeedRequestsPerMin int

	// Parlay builder settings
	ComboCap   int
	DisplayCap int
	CapMode    parlay.CapMode
	Comparator string

	// Alert settings
	AlertMinOdds  int
	AlertLegs     int
	AlertCooldown time.Duration

	// Browser origins allowed to call the API
	CORSOrigins []string
}

// Load reads configuration from environment variables (and .env file if present).
func Load() Config {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := Config{
		Port:            DefaultPort,
		DBPath:          DefaultDBPath,
		RefreshInterval: DefaultRefreshInterval,
		Sports:          splitList(DefaultSports),

		InsiderAPIKey:      os.Getenv("INSIDER_API_KEY"),
		FeedURLs:           api.DefaultFeedURLs(),
		FeedRequestsPerMin: DefaultFeedRequestsPerMin,

		ComboCap:   DefaultComboCap,
		DisplayCap: DefaultDisplayCap,
		CapMode:    DefaultCapMode,
		Comparator: DefaultComparator,

		AlertMinOdds:  DefaultAlertMinOdds,
		AlertLegs:     DefaultAlertLegs,
		AlertCooldown: DefaultAlertCooldown,

		CORSOrigins: splitOrigins(DefaultCORSOrigin),
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("REFRESH_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RefreshInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("SPORTS"); v != "" {
		cfg.Sports = splitList(v)
	}

	// Feed URL overrides per sport
	if v := os.Getenv("NFL_FEED_URL"); v != "" {
		cfg.FeedURLs["nfl"] = v
	}
	if v := os.Getenv("NBA_FEED_URL"); v != "" {
		cfg.FeedURLs["nba"] = v
	}

	if v := os.Getenv("FEED_REQUESTS_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FeedRequestsPerMin = n
		}
	}

	if v := os.Getenv("COMBO_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ComboCap = n
		}
	}

	if v := os.Getenv("DISPLAY_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DisplayCap = n
		}
	}

	if v := os.Getenv("CAP_MODE"); v != "" {
		cfg.CapMode = parlay.CapMode(strings.ToLower(v))
	}

	if v := os.Getenv("DEDUPE_COMPARATOR"); v != "" {
		cfg.Comparator = strings.ToLower(v)
	}

	if v := os.Getenv("ALERT_MIN_ODDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AlertMinOdds = n
		}
	}

	if v := os.Getenv("ALERT_LEGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AlertLegs = n
		}
	}

	if v := os.Getenv("ALERT_COOLDOWN_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AlertCooldown = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		cfg.CORSOrigins = splitOrigins(v)
	}

	return cfg
}

// Validate checks that configuration values are within acceptable ranges.
func Validate(cfg Config) error {
	if cfg.RefreshInterval < time.Second {
		return fmt.Errorf("REFRESH_INTERVAL_SEC must be at least 1, got %v", cfg.RefreshInterval)
	}
	if len(cfg.Sports) == 0 {
		return errors.New("SPORTS must name at least one sport")
	}
	for _, sport := range cfg.Sports {
		if _, ok := cfg.FeedURLs[sport]; !ok {
			return fmt.Errorf("SPORTS includes %q which has no feed URL", sport)
		}
	}
	if cfg.ComboCap < 0 {
		return fmt.Errorf("COMBO_CAP must be non-negative, got %d", cfg.ComboCap)
	}
	if cfg.DisplayCap < 0 {
		return fmt.Errorf("DISPLAY_CAP must be non-negative, got %d", cfg.DisplayCap)
	}
	if cfg.CapMode != parlay.CapEnumeration && cfg.CapMode != parlay.CapRanked {
		return fmt.Errorf("CAP_MODE must be %q or %q, got %q", parlay.CapEnumeration, parlay.CapRanked, cfg.CapMode)
	}
	if _, err := parlay.ComparatorByName(cfg.Comparator); err != nil {
		return fmt.Errorf("DEDUPE_COMPARATOR: %w", err)
	}
	// ALERT_LEGS=0 disables alerts.
	if cfg.AlertLegs != 0 && (cfg.AlertLegs < parlay.MinLegs || cfg.AlertLegs > parlay.MaxLegs) {
		return fmt.Errorf("ALERT_LEGS must be 0 or between %d and %d, got %d", parlay.MinLegs, parlay.MaxLegs, cfg.AlertLegs)
	}
	if cfg.FeedRequestsPerMin <= 0 {
		return fmt.Errorf("FEED_REQUESTS_PER_MIN must be positive, got %d", cfg.FeedRequestsPerMin)
	}
	return nil
}

// ParlayOptions returns builder options carrying the configured caps and comparator.
func (c Config) ParlayOptions() parlay.Options {
	opts := parlay.DefaultOptions()
	opts.ComboCap = c.ComboCap
	opts.DisplayCap = c.DisplayCap
	opts.CapMode = c.CapMode
	if cmp, err := parlay.ComparatorByName(c.Comparator); err == nil {
		opts.Comparator = cmp
	}
	return opts
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.ToLower(strings.TrimSpace(part)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitOrigins parses a comma-separated origin list, dropping trailing slashes.
func splitOrigins(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if o := strings.TrimRight(strings.TrimSpace(part), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// FormatCap returns a human-readable string for a result cap.
func FormatCap(n int) string {
	if n <= 0 {
		return "no cap"
	}
	return strconv.Itoa(n)
}
