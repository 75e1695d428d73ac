package scheduler

import (
	"context"
	"time"

	"github.com/fadedpez/blackjack/internal/logging"
)

const (
	// DefaultReindexInterval is how often recent rounds are pushed to the index
	DefaultReindexInterval = 5 * time.Minute
	// DefaultReindexBatch is how many of the newest rounds each pass covers
	DefaultReindexBatch = 100
)

// RoundIndexer re-indexes the most recent rounds of a round store
type RoundIndexer interface {
	ReindexRecent(ctx context.Context, limit int) (int, error)
}

// IndexMaintenance keeps the round search index caught up with the round
// store. Rounds whose indexing failed when they were recorded are picked up
// by the next pass.
type IndexMaintenance struct {
	scheduler *Scheduler
	indexer   RoundIndexer
	interval  time.Duration
	batch     int
	logger    *logging.Logger
}

// NewIndexMaintenance creates a maintenance scheduler for indexer. A zero
// interval or batch uses the defaults.
func NewIndexMaintenance(indexer RoundIndexer, interval time.Duration, batch int, opts ...Option) *IndexMaintenance {
	if interval <= 0 {
		interval = DefaultReindexInterval
	}
	if batch <= 0 {
		batch = DefaultReindexBatch
	}

	m := &IndexMaintenance{
		scheduler: NewScheduler(opts...),
		indexer:   indexer,
		interval:  interval,
		batch:     batch,
	}
	m.logger = m.scheduler.logger
	m.scheduler.AddTask("reindex_recent_rounds", interval, m.reindex)
	return m
}

// Start starts the reindex task
func (m *IndexMaintenance) Start(ctx context.Context) {
	m.scheduler.Start(ctx)
	m.logger.Info("Index maintenance started, every %s for the newest %d rounds", m.interval, m.batch)
}

// Stop stops the maintenance scheduler
func (m *IndexMaintenance) Stop() {
	m.scheduler.Stop()
}

func (m *IndexMaintenance) reindex(ctx context.Context) error {
	indexed, err := m.indexer.ReindexRecent(ctx, m.batch)
	if err != nil {
		return err
	}
	m.logger.Debug("Index maintenance pushed %d rounds", indexed)
	return nil
}
