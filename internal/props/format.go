package props

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var marketReplacer = strings.NewReplacer(
	"Player ", "",
	" Alternate", "",
	"Reception Yds", "Rec Yds",
	"Receptions", "Rec",
	"Rush Yds", "Rush",
	"Pass Tds", "Pass TD",
)

// FormatMarket shortens a feed market name for display.
// "Player Reception Yds Alternate" → "Rec Yds"
// Snake-case keys are title-cased first: "player_rush_yds" → "Rush".
func FormatMarket(market string) string {
	if strings.Contains(market, "_") {
		market = cases.Title(language.English).String(strings.ReplaceAll(market, "_", " "))
	}
	return marketReplacer.Replace(market)
}

var bookNames = map[string]string{
	"draftkings":     "DraftKings",
	"fanduel":        "FanDuel",
	"betmgm":         "BetMGM",
	"williamhill_us": "Caesars",
	"betrivers":      "BetRivers",
	"bovada":         "Bovada",
	"fanatics":       "Fanatics",
	"betonlineag":    "BetOnline",
}

// FormatBook maps a feed book key to its display name, passing unknown keys through.
func FormatBook(name string) string {
	if display, ok := bookNames[name]; ok {
		return display
	}
	return name
}
