package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"prop-parlay-engine/internal/api"
	"prop-parlay-engine/internal/config"
	"prop-parlay-engine/internal/odds"
	"prop-parlay-engine/internal/parlay"
	"prop-parlay-engine/internal/props"
)

func main() {
	sport := flag.String("sport", "nfl", "sport to fetch")
	legs := flag.Int("legs", 2, "legs per parlay")
	kind := flag.String("type", "all", "parlay type: sgp, standard or all")
	book := flag.String("book", props.AllValue, "price legs at this book")
	top := flag.Int("top", 10, "parlays to print")
	minOdds := flag.Int("minodds", -600, "drop legs whose best odds are below this")
	flag.Parse()

	cfg := config.Load()
	client := api.NewFeedClient(cfg.InsiderAPIKey, cfg.FeedURLs, cfg.FeedRequestsPerMin)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	feed, err := client.Fetch(ctx, *sport)
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}

	fmt.Printf("%s: %d props, %d games\n", strings.ToUpper(feed.Sport), len(feed.Props), len(feed.Games))
	fmt.Println("\nGames:")
	for _, g := range feed.Matchups() {
		fmt.Printf("  %s\n", g)
	}
	fmt.Println("\nBooks:")
	for _, b := range props.Bookmakers(feed.Props) {
		fmt.Printf("  %-15s %s\n", b, props.FormatBook(b))
	}

	opts := cfg.ParlayOptions()
	opts.Legs = *legs
	opts.Kind = parlay.Kind(*kind)
	opts.Book = *book
	opts.DisplayCap = *top
	if err := opts.Validate(); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	pool := props.Apply(feed.Props, props.Filter{Book: *book, MinOdds: minOdds})

	start := time.Now()
	result := parlay.Build(pool, opts)
	fmt.Printf("\nTop %d-leg parlays from %d props (%d generated, truncated=%v, %s):\n",
		*legs, len(pool), result.Generated, result.Truncated, time.Since(start).Round(time.Millisecond))
	for i, p := range result.Parlays {
		mixed := ""
		if p.MixedPricing {
			mixed = " (mixed books)"
		}
		fmt.Printf("%2d. %-8s %7s  %s%s\n", i+1, p.Type, odds.Format(p.TotalOdds), p.Game, mixed)
		for j, leg := range p.Legs {
			fmt.Printf("      %-25s %-30s %5.1f  %7s @ %s\n", leg.Player, props.FormatMarket(leg.Market), leg.Line,
				odds.Format(p.Pricing[j].Odds), props.FormatBook(p.Pricing[j].Book))
		}
	}
}
