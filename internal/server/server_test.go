package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"prop-parlay-engine/internal/api"
	"prop-parlay-engine/internal/config"
	"prop-parlay-engine/internal/engine"
	"prop-parlay-engine/internal/metrics"
	"prop-parlay-engine/internal/parlay"
	"prop-parlay-engine/internal/props"
	"prop-parlay-engine/internal/slips"
)

type staticFetcher map[string]*api.Feed

func (f staticFetcher) Fetch(ctx context.Context, sport string) (*api.Feed, error) {
	return f[sport], nil
}

func (f staticFetcher) Supports(sport string) bool {
	_, ok := f[sport]
	return ok
}

func prop(player, game, team string, quotes ...props.Quote) props.Prop {
	return props.Prop{
		Player:        player,
		Market:        "player_receptions_alternate",
		Line:          4,
		Game:          game,
		SeasonAverage: 5,
		Bookmakers:    quotes,
		TeamID:        team,
	}
}

func q(book string, odds int) props.Quote { return props.Quote{Name: book, Odds: odds} }

func testServer(t *testing.T) http.Handler {
	t.Helper()

	feed := &api.Feed{
		Sport: "nfl",
		Games: []api.Game{{Matchup: "KC @ BUF"}, {Matchup: "DAL @ PHI"}},
		Props: []props.Prop{
			prop("Travis Kelce", "KC @ BUF", "Kansas City Chiefs", q("draftkings", -150), q("fanduel", -140)),
			prop("Stefon Diggs", "KC @ BUF", "Buffalo Bills", q("fanduel", 120)),
			prop("CeeDee Lamb", "DAL @ PHI", "Dallas Cowboys", q("draftkings", 200)),
			prop("Big Favorite", "DAL @ PHI", "Philadelphia Eagles", q("draftkings", -800)),
		},
		FetchedAt: time.Now(),
	}

	cfg := config.Config{
		RefreshInterval: time.Hour,
		Sports:          []string{"nfl"},
		ComboCap:        parlay.DefaultComboCap,
		DisplayCap:      parlay.DefaultDisplayCap,
		CapMode:         parlay.CapEnumeration,
		Comparator:      parlay.ComparatorAmerican,
	}
	m := metrics.New()
	e, err := engine.New(staticFetcher{"nfl": feed}, nil, nil, m, cfg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	if err := e.Refresh(context.Background(), "nfl"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	db, err := slips.Open(filepath.Join(t.TempDir(), "slips.db"))
	if err != nil {
		t.Fatalf("slips.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(e, db, nil, m, cfg.ParlayOptions())
	srv.CORSOrigins = []string{"http://localhost:3000"}
	return srv.Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	h := testServer(t)
	rec := do(t, h, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProps(t *testing.T) {
	h := testServer(t)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"default floor hides -800", "", 3},
		{"no floor", "?minOdds=none", 4},
		{"search", "?search=kelce", 1},
		{"game", "?game=DAL%20@%20PHI&minOdds=none", 2},
		{"book", "?book=fanduel", 2},
		{"plus sign", "?minOdds=%2B150", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, "GET", "/sports/nfl/props"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
			var body struct {
				Count int          `json:"count"`
				Props []props.Prop `json:"props"`
			}
			decode(t, rec, &body)
			if body.Count != tt.want || len(body.Props) != tt.want {
				t.Errorf("count = %d, want %d", body.Count, tt.want)
			}
		})
	}
}

func TestPropsErrors(t *testing.T) {
	h := testServer(t)

	if rec := do(t, h, "GET", "/sports/mlb/props", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown sport status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, "GET", "/sports/nfl/props?minOdds=lots", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad minOdds status = %d, want 400", rec.Code)
	}
}

func TestBooksAndGames(t *testing.T) {
	h := testServer(t)

	rec := do(t, h, "GET", "/sports/nfl/books", "")
	var books struct {
		Books []bookEntry `json:"books"`
	}
	decode(t, rec, &books)
	if len(books.Books) != 2 || books.Books[0].Name != "draftkings" || books.Books[0].Display != "DraftKings" {
		t.Errorf("books = %+v", books.Books)
	}

	rec = do(t, h, "GET", "/sports/nfl/games", "")
	var games struct {
		Games []string `json:"games"`
	}
	decode(t, rec, &games)
	if len(games.Games) != 2 || games.Games[0] != "KC @ BUF" {
		t.Errorf("games = %v", games.Games)
	}
}

type parlaysBody struct {
	Count     int             `json:"count"`
	Generated int             `json:"generated"`
	Parlays   []parlay.Parlay `json:"parlays"`
}

func TestParlays(t *testing.T) {
	h := testServer(t)

	rec := do(t, h, "GET", "/sports/nfl/parlays?legs=2&type=sgp", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body parlaysBody
	decode(t, rec, &body)
	// The -600 prop floor drops Big Favorite, leaving DAL @ PHI one leg short.
	if body.Count != 1 || body.Parlays[0].Game != "KC @ BUF" {
		t.Fatalf("parlays = %+v, want the KC @ BUF SGP only", body.Parlays)
	}

	rec = do(t, h, "GET", "/sports/nfl/parlays?legs=2&type=sgp&propMinOdds=none", "")
	decode(t, rec, &body)
	// One SGP per game: KC @ BUF and DAL @ PHI.
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	for _, p := range body.Parlays {
		if p.Type != parlay.TypeSGP {
			t.Errorf("type = %s, want SGP", p.Type)
		}
	}

	rec = do(t, h, "GET", "/sports/nfl/parlays?legs=2&type=standard&minOdds=%2B500", "")
	decode(t, rec, &body)
	// Diggs +120 with Lamb +200 is the only standard pair above +500: 2.2*3-1 = +560.
	if body.Count != 1 || body.Parlays[0].TotalOdds != 560 {
		t.Errorf("parlays = %+v", body.Parlays)
	}
}

func TestParlaysBookPricing(t *testing.T) {
	h := testServer(t)

	rec := do(t, h, "GET", "/sports/nfl/parlays?legs=2&type=sgp&book=draftkings&pool=all&game=KC%20@%20BUF", "")
	var body parlaysBody
	decode(t, rec, &body)
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	p := body.Parlays[0]
	if !p.MixedPricing {
		t.Error("Diggs is not quoted at draftkings, pricing should be mixed")
	}
	if p.Pricing[0].Source != parlay.SourceSelectedBook || p.Pricing[0].Odds != -150 {
		t.Errorf("first leg pricing = %+v", p.Pricing[0])
	}
}

func TestParlaysBookFiltersPool(t *testing.T) {
	h := testServer(t)

	for _, book := range []string{"fanduel", "draftkings"} {
		t.Run(book, func(t *testing.T) {
			rec := do(t, h, "GET", "/sports/nfl/parlays?legs=2&propMinOdds=none&book="+book, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
			var body parlaysBody
			decode(t, rec, &body)
			if body.Count == 0 {
				t.Fatal("expected parlays from the book's props")
			}
			for _, p := range body.Parlays {
				if p.MixedPricing {
					t.Errorf("%s: mixed pricing with a book-filtered pool", p.Game)
				}
				for _, leg := range p.Legs {
					if _, ok := leg.QuoteFor(book); !ok {
						t.Errorf("leg %s has no %s quote", leg.Player, book)
					}
				}
			}
		})
	}
}

func TestParlaysBadQuery(t *testing.T) {
	h := testServer(t)

	for _, query := range []string{
		"?legs=7",
		"?legs=two",
		"?type=teaser",
		"?capMode=random",
		"?comparator=kelly",
		"?minOdds=abc",
		"?propMinOdds=abc",
		"?pool=everything",
	} {
		t.Run(query, func(t *testing.T) {
			if rec := do(t, h, "GET", "/sports/nfl/parlays"+query, ""); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestParlaysEmpty(t *testing.T) {
	h := testServer(t)

	rec := do(t, h, "GET", "/sports/nfl/parlays?legs=6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"parlays":[]`) {
		t.Errorf("empty result should encode as []: %s", rec.Body)
	}
}

func TestRecommendations(t *testing.T) {
	h := testServer(t)

	rec := do(t, h, "GET", "/sports/nfl/recommendations?awayTeam=Kansas%20City&homeTeam=Buffalo", "")
	var body struct {
		Count int `json:"count"`
	}
	decode(t, rec, &body)
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}

	if rec := do(t, h, "GET", "/sports/nfl/recommendations?awayTeam=KC", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing homeTeam status = %d, want 400", rec.Code)
	}
}

func TestCalculator(t *testing.T) {
	h := testServer(t)

	rec := do(t, h, "POST", "/calculator", `{"legs":[-150,0,120],"book_odds":240,"stake":"10"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Odds   int    `json:"odds"`
		Rating string `json:"rating"`
		Payout string `json:"payout"`
	}
	decode(t, rec, &body)
	if body.Odds != 267 || body.Rating != "Great Value" || body.Payout != "36.67" {
		t.Errorf("calculator = %+v", body)
	}

	if rec := do(t, h, "POST", "/calculator", `{"legs":`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d, want 400", rec.Code)
	}
}

func TestSlipLifecycle(t *testing.T) {
	h := testServer(t)

	body := `{"sport":"NFL","type":"Standard","game":"KC @ BUF + DAL @ PHI","legs":[` +
		`{"player":"Stefon Diggs","market":"player_receptions_alternate","line":4,"game":"KC @ BUF","bookmakers":[{"name":"fanduel","odds":120}]},` +
		`{"player":"CeeDee Lamb","market":"player_receptions_alternate","line":4,"game":"DAL @ PHI","bookmakers":[{"name":"draftkings","odds":200}]}]}`

	rec := do(t, h, "POST", "/slips", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var created slips.Slip
	decode(t, rec, &created)
	if created.ID == "" || created.TotalOdds != 560 || created.Sport != "nfl" {
		t.Fatalf("created = %+v", created)
	}

	rec = do(t, h, "GET", "/slips?sport=nfl", "")
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != 1 {
		t.Errorf("list count = %d, want 1", list.Count)
	}

	if rec := do(t, h, "GET", "/slips/"+created.ID, ""); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
	if rec := do(t, h, "DELETE", "/slips/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/slips/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestCreateSlipValidation(t *testing.T) {
	h := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"unknown sport", `{"sport":"mlb","legs":[]}`},
		{"one leg", `{"sport":"nfl","legs":[{"player":"A","bookmakers":[{"name":"fanduel","odds":100}]}]}`},
		{"unpriced leg", `{"sport":"nfl","legs":[{"player":"A","bookmakers":[]},{"player":"B","bookmakers":[{"name":"fanduel","odds":100}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, "POST", "/slips", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := testServer(t)

	rec := do(t, h, "GET", "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "propparlay_snapshot_props") {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := testServer(t)

	req := httptest.NewRequest("OPTIONS", "/sports/nfl/parlays", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin got Allow-Origin %q", got)
	}
}
