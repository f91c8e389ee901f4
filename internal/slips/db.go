package slips

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"prop-parlay-engine/internal/props"
)

// ErrNotFound is returned when no slip has the requested ID.
var ErrNotFound = errors.New("slip not found")

// Slip is a saved parlay
type Slip struct {
	ID        string       `json:"id"`
	Sport     string       `json:"sport"`
	Type      string       `json:"type"` // "SGP" or "Standard"
	Game      string       `json:"game"`
	Book      string       `json:"book"`
	TotalOdds int          `json:"total_odds"`
	Legs      []props.Prop `json:"legs"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// DB handles slip storage
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the slip database at path
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db, now: time.Now}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS slips (
		id TEXT PRIMARY KEY,
		sport TEXT NOT NULL,
		type TEXT NOT NULL,
		game TEXT NOT NULL,
		book TEXT NOT NULL,
		total_odds INTEGER NOT NULL,
		legs TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_slips_sport ON slips(sport, created_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Save stores a slip under a fresh ID and returns the stored copy
func (d *DB) Save(ctx context.Context, s Slip) (Slip, error) {
	if len(s.Legs) == 0 {
		return Slip{}, errors.New("slip has no legs")
	}

	legs, err := json.Marshal(s.Legs)
	if err != nil {
		return Slip{}, fmt.Errorf("encoding legs: %w", err)
	}

	s.ID = uuid.NewString()
	s.CreatedAt = d.now().UTC()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO slips (id, sport, type, game, book, total_odds, legs, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Sport, s.Type, s.Game, s.Book, s.TotalOdds, string(legs), s.Note, s.CreatedAt)
	if err != nil {
		return Slip{}, fmt.Errorf("inserting slip: %w", err)
	}

	return s, nil
}

// Get retrieves a slip by ID
func (d *DB) Get(ctx context.Context, id string) (Slip, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, sport, type, game, book, total_odds, legs, note, created_at
		FROM slips WHERE id = ?
	`, id)

	s, err := scanSlip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Slip{}, ErrNotFound
	}
	if err != nil {
		return Slip{}, err
	}
	return s, nil
}

// List retrieves slips newest first, optionally limited to one sport
func (d *DB) List(ctx context.Context, sport string) ([]Slip, error) {
	query := `
		SELECT id, sport, type, game, book, total_odds, legs, note, created_at
		FROM slips`
	var args []any
	if sport != "" {
		query += " WHERE sport = ?"
		args = append(args, sport)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying slips: %w", err)
	}
	defer rows.Close()

	slips := []Slip{}
	for rows.Next() {
		s, err := scanSlip(rows)
		if err != nil {
			return nil, err
		}
		slips = append(slips, s)
	}

	return slips, rows.Err()
}

// Delete removes a slip
func (d *DB) Delete(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM slips WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting slip: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting slip: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSlip(row scanner) (Slip, error) {
	var s Slip
	var legs string
	if err := row.Scan(&s.ID, &s.Sport, &s.Type, &s.Game, &s.Book,
		&s.TotalOdds, &legs, &s.Note, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Slip{}, err
		}
		return Slip{}, fmt.Errorf("scanning slip: %w", err)
	}
	if err := json.Unmarshal([]byte(legs), &s.Legs); err != nil {
		return Slip{}, fmt.Errorf("decoding legs for %s: %w", s.ID, err)
	}
	return s, nil
}
