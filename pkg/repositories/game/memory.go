package game

import (
	"context"
	"sync"

	"github.com/fadedpez/blackjack/pkg/entities"
)

// MemoryRepository implements Repository with in-memory storage
type MemoryRepository struct {
	mu sync.RWMutex
	// rounds in the order they were saved
	rounds []*entities.GameSummary
	byID   map[string]*entities.GameSummary
	stats  map[string]*entities.PlayerStatistics
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]*entities.GameSummary),
		stats: make(map[string]*entities.PlayerStatistics),
	}
}

// SaveRound stores a copy of the summary and updates player statistics
func (r *MemoryRepository) SaveRound(ctx context.Context, summary *entities.GameSummary) error {
	if err := validateSummary(summary); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[summary.RoundID]; exists {
		return errDuplicateRound(summary.RoundID)
	}

	stored := copySummary(summary)
	r.rounds = append(r.rounds, stored)
	r.byID[stored.RoundID] = stored
	for _, p := range stored.Players {
		r.statsFor(p.Name).Apply(p, stored.CompletedAt)
	}
	return nil
}

// GetRound retrieves a round by ID
func (r *MemoryRepository) GetRound(ctx context.Context, roundID string) (*entities.GameSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	round, exists := r.byID[roundID]
	if !exists {
		return nil, ErrRoundNotFound
	}
	return copySummary(round), nil
}

// GetRecentRounds returns the most recently saved rounds
func (r *MemoryRepository) GetRecentRounds(ctx context.Context, limit int) ([]*entities.GameSummary, error) {
	return r.newest(limit, func(*entities.GameSummary) bool { return true }), nil
}

// GetPlayerRounds returns the most recent rounds the player sat in
func (r *MemoryRepository) GetPlayerRounds(ctx context.Context, playerName string, limit int) ([]*entities.GameSummary, error) {
	return r.newest(limit, func(s *entities.GameSummary) bool {
		_, seated := s.Player(playerName)
		return seated
	}), nil
}

func (r *MemoryRepository) newest(limit int, keep func(*entities.GameSummary) bool) []*entities.GameSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []*entities.GameSummary{}
	for i := len(r.rounds) - 1; i >= 0; i-- {
		if limit > 0 && len(results) == limit {
			break
		}
		if keep(r.rounds[i]) {
			results = append(results, copySummary(r.rounds[i]))
		}
	}
	return results
}

// Close is a no-op for the memory repository
func (r *MemoryRepository) Close() error {
	return nil
}

// copySummary returns a deep copy so callers cannot mutate stored rounds
func copySummary(s *entities.GameSummary) *entities.GameSummary {
	c := *s
	c.DealerCards = append([]entities.Card(nil), s.DealerCards...)
	c.Payouts.Payouts = append([]entities.Payout(nil), s.Payouts.Payouts...)
	c.Players = make([]entities.PlayerSummary, len(s.Players))
	for i, p := range s.Players {
		p.Hands = append([]entities.HandOutcome(nil), p.Hands...)
		for j := range p.Hands {
			p.Hands[j].Cards = append([]entities.Card(nil), p.Hands[j].Cards...)
		}
		c.Players[i] = p
	}
	return &c
}
