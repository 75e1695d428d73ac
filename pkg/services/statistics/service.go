package statistics

import (
	"context"
	"sort"
	"time"

	"github.com/coder/quartz"
	"github.com/fadedpez/blackjack/internal/logging"
	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/fadedpez/blackjack/pkg/repositories/game"
)

// DefaultPlayersPerPage is the leaderboard page size when none is given
const DefaultPlayersPerPage = 10

// Service records finished rounds and serves player statistics
type Service struct {
	repository game.Repository
	clock      quartz.Clock
	logger     *logging.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock sets the clock used to stamp leaderboards
func WithClock(clock quartz.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger sets the service logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new statistics service
func NewService(repository game.Repository, opts ...Option) *Service {
	s := &Service{
		repository: repository,
		clock:      quartz.NewReal(),
		logger:     logging.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlayerRank is a player's statistics with ranking information
type PlayerRank struct {
	*entities.PlayerStatistics
	Rank        int     `json:"rank"`
	WinRate     float64 `json:"win_rate"`
	ProfitRate  float64 `json:"profit_rate"`
	IsTopWinner bool    `json:"is_top_winner"`
	IsTopPlayer bool    `json:"is_top_player"`
}

// Leaderboard is a page of ranked players
type Leaderboard struct {
	Players        []*PlayerRank `json:"players"`
	TotalPlayers   int           `json:"total_players"`
	CurrentPage    int           `json:"current_page"`
	TotalPages     int           `json:"total_pages"`
	PlayersPerPage int           `json:"players_per_page"`
	LastUpdated    time.Time     `json:"last_updated"`
}

// RecordRound stores a finished round and updates the statistics of every
// player in it
func (s *Service) RecordRound(ctx context.Context, summary *entities.GameSummary) error {
	if summary == nil {
		return types.NewGameError(types.ErrInvalidArgument, "round summary is required")
	}
	if err := s.repository.SaveRound(ctx, summary); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to record round "+summary.RoundID, err)
	}
	s.logger.Debug("Recorded round %s for %d players", summary.RoundID, len(summary.Players))
	return nil
}

// GetPlayerStatistics returns a player's running totals
func (s *Service) GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error) {
	stats, err := s.repository.GetPlayerStatistics(ctx, playerName)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to load statistics for "+playerName, err)
	}
	return stats, nil
}

// GetPlayerHistory returns up to limit of the player's most recent rounds
func (s *Service) GetPlayerHistory(ctx context.Context, playerName string, limit int) ([]*entities.GameSummary, error) {
	rounds, err := s.repository.GetPlayerRounds(ctx, playerName, limit)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to load rounds for "+playerName, err)
	}
	return rounds, nil
}

// GetLeaderboard ranks every player by net profit and returns one page
func (s *Service) GetLeaderboard(ctx context.Context, page, playersPerPage int) (*Leaderboard, error) {
	if page < 1 {
		page = 1
	}
	if playersPerPage < 1 {
		playersPerPage = DefaultPlayersPerPage
	}

	allStats, err := s.repository.GetAllPlayerStatistics(ctx)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to load player statistics", err)
	}

	ranks := make([]*PlayerRank, 0, len(allStats))
	for _, stats := range allStats {
		if stats.HandsPlayed == 0 {
			continue
		}
		var profitRate float64
		if stats.TotalBet.Amount > 0 {
			profitRate = float64(stats.NetProfit().Amount) / float64(stats.TotalBet.Amount)
		}
		ranks = append(ranks, &PlayerRank{
			PlayerStatistics: stats,
			WinRate:          stats.WinRate(),
			ProfitRate:       profitRate,
		})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		a, b := ranks[i].NetProfit().Amount, ranks[j].NetProfit().Amount
		if a != b {
			return a > b
		}
		return ranks[i].PlayerName < ranks[j].PlayerName
	})

	if len(ranks) > 0 {
		ranks[0].IsTopWinner = true

		mostRounds := 0
		for i := 1; i < len(ranks); i++ {
			if ranks[i].RoundsPlayed > ranks[mostRounds].RoundsPlayed {
				mostRounds = i
			}
		}
		ranks[mostRounds].IsTopPlayer = true
	}
	for i := range ranks {
		ranks[i].Rank = i + 1
	}

	totalPlayers := len(ranks)
	totalPages := (totalPlayers + playersPerPage - 1) / playersPerPage
	if page > totalPages && totalPages > 0 {
		page = totalPages
	}

	start := (page - 1) * playersPerPage
	end := start + playersPerPage
	if end > totalPlayers {
		end = totalPlayers
	}
	players := []*PlayerRank{}
	if start < totalPlayers {
		players = ranks[start:end]
	}

	return &Leaderboard{
		Players:        players,
		TotalPlayers:   totalPlayers,
		CurrentPage:    page,
		TotalPages:     totalPages,
		PlayersPerPage: playersPerPage,
		LastUpdated:    s.clock.Now(),
	}, nil
}
