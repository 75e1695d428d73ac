package game

import (
	"context"

	"github.com/fadedpez/blackjack/pkg/entities"
)

// statsFor returns the running statistics for a player, creating them on
// first use. Callers hold the write lock.
func (r *MemoryRepository) statsFor(playerName string) *entities.PlayerStatistics {
	stats, ok := r.stats[playerName]
	if !ok {
		stats = &entities.PlayerStatistics{PlayerName: playerName}
		r.stats[playerName] = stats
	}
	return stats
}

// GetPlayerStatistics retrieves statistics for a specific player
func (r *MemoryRepository) GetPlayerStatistics(ctx context.Context, playerName string) (*entities.PlayerStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats, ok := r.stats[playerName]
	if !ok {
		return &entities.PlayerStatistics{PlayerName: playerName}, nil
	}
	c := *stats
	return &c, nil
}

// GetAllPlayerStatistics retrieves statistics for every player who has played a round
func (r *MemoryRepository) GetAllPlayerStatistics(ctx context.Context) ([]*entities.PlayerStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statsList := make([]*entities.PlayerStatistics, 0, len(r.stats))
	for _, stats := range r.stats {
		c := *stats
		statsList = append(statsList, &c)
	}
	sortStatistics(statsList)
	return statsList, nil
}
