package game

import (
	"context"
	"errors"

	"github.com/fadedpez/blackjack/pkg/entities"
)

// ErrRoundNotFound is returned when no round has the requested ID
var ErrRoundNotFound = errors.New("round not found")

// Repository stores finished round summaries and the per-player statistics
// folded from them
type Repository interface {
	// SaveRound stores a round and folds it into every seated player's statistics
	SaveRound(ctx context.Context, summary *entities.GameSummary) error
	GetRound(ctx context.Context, roundID string) (*entities.GameSummary, error)
	// GetRecentRounds returns up to limit rounds, newest first
	GetRecentRounds(ctx context.Context, limit int) ([]*entities.GameSummary, error)
	// GetPlayerRounds returns up to limit rounds the player sat in, newest first
	GetPlayerRounds(ctx context.Context, playerName string, limit int) ([]*entities.GameSummary, error)

	// GetPlayerStatistics returns zeroed statistics for an unknown player
	GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error)
	// GetAllPlayerStatistics returns every player's statistics, best net profit first
	GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error)

	Close() error
}
