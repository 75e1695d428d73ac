package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fadedpez/blackjack/pkg/entities"
)

const statisticsColumns = `player_name, rounds_played, hands_played, wins, losses, pushes,
	blackjacks, surrenders, busts, splits, double_downs,
	total_bet, total_returned, currency, last_updated`

// queryRower is satisfied by both *sql.DB and *sql.Tx
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// GetPlayerStatistics retrieves statistics for a specific player
func (r *SQLiteRepository) GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error) {
	return getStatistics(ctx, r.db, playerName)
}

// GetAllPlayerStatistics retrieves statistics for every player who has played a round
func (r *SQLiteRepository) GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	query := `SELECT ` + statisticsColumns + ` FROM player_statistics`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query player statistics: %w", err)
	}
	defer rows.Close()

	statsList := []*entities.PlayerStatistics{}
	for rows.Next() {
		stats, err := scanStatistics(rows)
		if err != nil {
			return nil, err
		}
		statsList = append(statsList, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read player statistics: %w", err)
	}

	sortStatistics(statsList)
	return statsList, nil
}

func getStatistics(ctx context.Context, q queryRower, playerName string) (*entities.PlayerStatistics, error) {
	query := `SELECT ` + statisticsColumns + ` FROM player_statistics WHERE player_name = ?`

	stats, err := scanStatistics(q.QueryRowContext(ctx, query, playerName))
	if errors.Is(err, sql.ErrNoRows) {
		return &entities.PlayerStatistics{PlayerName: playerName}, nil
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func scanStatistics(row rowScanner) (*entities.PlayerStatistics, error) {
	var stats entities.PlayerStatistics
	var currency, lastUpdated string

	err := row.Scan(
		&stats.PlayerName, &stats.RoundsPlayed, &stats.HandsPlayed,
		&stats.Wins, &stats.Losses, &stats.Pushes,
		&stats.Blackjacks, &stats.Surrenders, &stats.Busts,
		&stats.Splits, &stats.DoubleDowns,
		&stats.TotalBet.Amount, &stats.TotalReturned.Amount,
		&currency, &lastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get player statistics: %w", err)
	}

	stats.TotalBet.Currency = currency
	stats.TotalReturned.Currency = currency
	if stats.LastUpdated, err = parseTimestamp(lastUpdated); err != nil {
		return nil, err
	}
	return &stats, nil
}

func saveStatistics(ctx context.Context, tx *sql.Tx, stats *entities.PlayerStatistics) error {
	query := `
		INSERT INTO player_statistics (` + statisticsColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_name) DO UPDATE SET
			rounds_played = excluded.rounds_played,
			hands_played = excluded.hands_played,
			wins = excluded.wins,
			losses = excluded.losses,
			pushes = excluded.pushes,
			blackjacks = excluded.blackjacks,
			surrenders = excluded.surrenders,
			busts = excluded.busts,
			splits = excluded.splits,
			double_downs = excluded.double_downs,
			total_bet = excluded.total_bet,
			total_returned = excluded.total_returned,
			currency = excluded.currency,
			last_updated = excluded.last_updated
	`

	_, err := tx.ExecContext(ctx, query,
		stats.PlayerName, stats.RoundsPlayed, stats.HandsPlayed,
		stats.Wins, stats.Losses, stats.Pushes,
		stats.Blackjacks, stats.Surrenders, stats.Busts,
		stats.Splits, stats.DoubleDowns,
		stats.TotalBet.Amount, stats.TotalReturned.Amount,
		stats.TotalBet.Currency, formatTimestamp(stats.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("failed to save player statistics: %w", err)
	}
	return nil
}
