package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"prop-parlay-engine/internal/props"
)

const (
	DefaultNFLFeedURL = "https://nfl-alt-prop-tool-database-production.up.railway.app"
	DefaultNBAFeedURL = "https://nba-alt-prop-tool-production.up.railway.app"

	apiKeyHeader   = "insider-api-key"
	requestTimeout = 15 * time.Second
	maxRetries     = 3
)

// ErrUnsupportedSport is returned for sports without a prop feed.
var ErrUnsupportedSport = errors.New("no prop feed for sport")

// Game is a matchup listed by the feed.
type Game struct {
	Matchup string `json:"matchup"`
}

// Feed is one snapshot of a sport's prop board.
type Feed struct {
	Sport     string       `json:"sport"`
	Games     []Game       `json:"games"`
	Props     []props.Prop `json:"props"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Matchups returns the game labels listed by the feed.
func (f *Feed) Matchups() []string {
	out := make([]string, 0, len(f.Games))
	for _, g := range f.Games {
		out = append(out, g.Matchup)
	}
	return out
}

// FeedClient fetches prop boards by sport.
type FeedClient struct {
	apiKey string
	urls   map[string]string
	client *RateLimitedClient
}

// NewFeedClient creates a client for the given sport → URL table.
func NewFeedClient(apiKey string, urls map[string]string, requestsPerMinute int) *FeedClient {
	table := make(map[string]string, len(urls))
	for sport, url := range urls {
		table[strings.ToLower(sport)] = url
	}
	return &FeedClient{
		apiKey: apiKey,
		urls:   table,
		client: NewRateLimitedClient(requestsPerMinute, requestTimeout, maxRetries),
	}
}

// DefaultFeedURLs returns the production feed for each supported sport.
func DefaultFeedURLs() map[string]string {
	return map[string]string{
		"nfl": DefaultNFLFeedURL,
		"nba": DefaultNBAFeedURL,
	}
}

// Supports reports whether sport has a configured feed.
func (c *FeedClient) Supports(sport string) bool {
	_, ok := c.urls[strings.ToLower(sport)]
	return ok
}

// Fetch downloads and decodes the current prop board for sport.
// Props without any quote are dropped.
func (c *FeedClient) Fetch(ctx context.Context, sport string) (*Feed, error) {
	sport = strings.ToLower(sport)
	url, ok := c.urls[sport]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSport, sport)
	}

	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers[apiKeyHeader] = c.apiKey
	}

	body, err := c.client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetching %s props: %w", sport, err)
	}

	var feed Feed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing %s props response: %w", sport, err)
	}

	kept := feed.Props[:0]
	for _, p := range feed.Props {
		if !p.Valid() {
			continue
		}
		kept = append(kept, p)
	}
	if dropped := len(feed.Props) - len(kept); dropped > 0 {
		slog.Warn("Dropped unquoted props", "sport", sport, "count", dropped)
	}

	feed.Props = kept
	feed.Sport = sport
	feed.FetchedAt = time.Now()
	return &feed, nil
}
