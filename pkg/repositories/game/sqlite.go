package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/blackjack/pkg/db/migrations"
	"github.com/fadedpez/blackjack/pkg/entities"
	_ "github.com/mattn/go-sqlite3"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Schema is the round history schema, applied through the migrator
var Schema = []migrations.Migration{
	{
		Version:     "001",
		Description: "round history",
		SQL: `
		CREATE TABLE IF NOT EXISTS game_rounds (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP NOT NULL,
			summary TEXT NOT NULL,  -- JSON encoded GameSummary
			seq INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS round_players (
			round_id TEXT NOT NULL,
			player_name TEXT NOT NULL,
			PRIMARY KEY (round_id, player_name),
			FOREIGN KEY (round_id) REFERENCES game_rounds(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_round_players_player ON round_players(player_name);`,
	},
	{
		Version:     "002",
		Description: "player statistics",
		SQL: `
		CREATE TABLE IF NOT EXISTS player_statistics (
			player_name TEXT PRIMARY KEY,
			rounds_played INTEGER NOT NULL DEFAULT 0,
			hands_played INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			pushes INTEGER NOT NULL DEFAULT 0,
			blackjacks INTEGER NOT NULL DEFAULT 0,
			surrenders INTEGER NOT NULL DEFAULT 0,
			busts INTEGER NOT NULL DEFAULT 0,
			splits INTEGER NOT NULL DEFAULT 0,
			double_downs INTEGER NOT NULL DEFAULT 0,
			total_bet INTEGER NOT NULL DEFAULT 0,
			total_returned INTEGER NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT '',
			last_updated TIMESTAMP NOT NULL
		);`,
	},
}

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := migrations.NewMigrator(db, "game", Schema).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating round schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// SaveRound stores a round and folds it into player statistics in one transaction
func (r *SQLiteRepository) SaveRound(ctx context.Context, summary *entities.GameSummary) error {
	if err := validateSummary(summary); err != nil {
		return err
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("error encoding round: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_rounds WHERE id = ?`, summary.RoundID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("error checking round: %w", err)
	}
	if exists > 0 {
		return errDuplicateRound(summary.RoundID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_rounds (id, started_at, completed_at, summary, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM game_rounds))`,
		summary.RoundID,
		formatTimestamp(summary.StartedAt),
		formatTimestamp(summary.CompletedAt),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("error saving round: %w", err)
	}

	for _, p := range summary.Players {
		_, err = tx.ExecContext(ctx, `INSERT INTO round_players (round_id, player_name) VALUES (?, ?)`,
			summary.RoundID, p.Name)
		if err != nil {
			return fmt.Errorf("error saving round player: %w", err)
		}

		stats, err := getStatistics(ctx, tx, p.Name)
		if err != nil {
			return err
		}
		stats.Apply(p, summary.CompletedAt)
		if err := saveStatistics(ctx, tx, stats); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRound retrieves a round by ID
func (r *SQLiteRepository) GetRound(ctx context.Context, roundID string) (*entities.GameSummary, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT summary FROM game_rounds WHERE id = ?`, roundID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("error getting round: %w", err)
	}
	return decodeSummary(data)
}

// GetRecentRounds returns the most recently saved rounds
func (r *SQLiteRepository) GetRecentRounds(ctx context.Context, limit int) ([]*entities.GameSummary, error) {
	query := `SELECT summary FROM game_rounds ORDER BY seq DESC LIMIT ?`
	return r.querySummaries(ctx, query, sqlLimit(limit))
}

// GetPlayerRounds returns the most recent rounds the player sat in
func (r *SQLiteRepository) GetPlayerRounds(ctx context.Context, playerName string, limit int) ([]*entities.GameSummary, error) {
	query := `
		SELECT gr.summary
		FROM game_rounds gr
		JOIN round_players rp ON rp.round_id = gr.id
		WHERE rp.player_name = ?
		ORDER BY gr.seq DESC
		LIMIT ?`
	return r.querySummaries(ctx, query, playerName, sqlLimit(limit))
}

func (r *SQLiteRepository) querySummaries(ctx context.Context, query string, args ...interface{}) ([]*entities.GameSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying rounds: %w", err)
	}
	defer rows.Close()

	results := []*entities.GameSummary{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("error scanning round: %w", err)
		}
		summary, err := decodeSummary(data)
		if err != nil {
			return nil, err
		}
		results = append(results, summary)
	}
	return results, rows.Err()
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func decodeSummary(data string) (*entities.GameSummary, error) {
	var summary entities.GameSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, fmt.Errorf("error decoding round: %w", err)
	}
	return &summary, nil
}

// sqlLimit maps "no limit" to SQLite's -1
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

// parseTimestamp accepts both the stored format and the RFC 3339 form the
// driver produces for TIMESTAMP columns
func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{timestampFormat, time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}
