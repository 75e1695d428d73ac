package main

import (
	"context"
	"fmt"

	"github.com/fadedpez/blackjack/internal/config"
	"github.com/fadedpez/blackjack/internal/logging"
	"github.com/fadedpez/blackjack/pkg/repositories/game"
	"github.com/fadedpez/blackjack/pkg/repositories/wallet"
	"github.com/fadedpez/blackjack/pkg/scheduler"
	"github.com/fadedpez/blackjack/pkg/services/betting"
	"github.com/fadedpez/blackjack/pkg/services/blackjack"
	"github.com/fadedpez/blackjack/pkg/services/statistics"
	"golang.org/x/sync/errgroup"
)

// app holds the wired services for one command
type app struct {
	cfg        *config.Config
	rules      blackjack.Config
	logger     *logging.Logger
	wallet     wallet.Repository
	rounds     game.Repository
	search     *game.ElasticsearchRepository
	betting    *betting.Service
	statistics *statistics.Service
	closers    []func() error
}

// newApp loads configuration and opens the stores it names
func newApp(ctx context.Context, cli *CLI) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.Rules != "" {
		cfg.RulesFile = cli.Rules
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(level)
	logging.Default = logger

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	a := &app{cfg: cfg, rules: rules, logger: logger}
	if err := a.openStores(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.betting = betting.NewService(a.wallet, config.BettingConfig(rules),
		betting.WithLogger(logger.With("service", "betting")))
	a.statistics = statistics.NewService(a.rounds,
		statistics.WithLogger(logger.With("service", "statistics")))
	return a, nil
}

func (a *app) openStores(ctx context.Context) error {
	switch a.cfg.StorageType {
	case config.StorageSQLite:
		// The two databases are separate files and migrate independently
		var walletRepo *wallet.SQLiteRepository
		var roundRepo *game.SQLiteRepository
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			walletRepo, err = wallet.NewSQLiteRepository(gctx, a.cfg.WalletDBPath())
			return err
		})
		g.Go(func() error {
			var err error
			roundRepo, err = game.NewSQLiteRepository(gctx, a.cfg.GameDBPath())
			return err
		})
		err := g.Wait()
		if walletRepo != nil {
			a.wallet = walletRepo
			a.closers = append(a.closers, walletRepo.Close)
		}
		if err != nil {
			if roundRepo != nil {
				roundRepo.Close()
			}
			return err
		}
		a.rounds = roundRepo
	default:
		a.wallet = wallet.NewMemoryRepository()
		a.rounds = game.NewMemoryRepository()
	}

	if a.cfg.ElasticsearchURL != "" {
		esConfig := game.DefaultElasticsearchConfig()
		esConfig.URL = a.cfg.ElasticsearchURL
		esConfig.IndexPrefix = a.cfg.ElasticsearchIndexPrefix

		search, err := game.NewElasticsearchRepository(ctx, a.rounds, esConfig, a.logger.With("store", "elasticsearch"))
		if err != nil {
			a.rounds.Close()
			return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
		}
		a.search = search
		a.rounds = search
	}
	a.closers = append(a.closers, a.rounds.Close)
	return nil
}

// newGame builds a table recording into the statistics service
func (a *app) newGame(opts ...blackjack.GameOption) (*blackjack.Game, error) {
	opts = append([]blackjack.GameOption{
		blackjack.WithLogger(a.logger.With("service", "game")),
		blackjack.WithRecorder(a.statistics),
	}, opts...)
	return blackjack.NewGame(a.rules, a.betting, opts...)
}

// startIndexMaintenance keeps the search index caught up while the table
// runs. It returns the function that stops it.
func (a *app) startIndexMaintenance(ctx context.Context) func() {
	if a.search == nil {
		return func() {}
	}
	maintenance := scheduler.NewIndexMaintenance(a.search, a.cfg.ReindexInterval, 0,
		scheduler.WithLogger(a.logger.With("service", "index-maintenance")))
	maintenance.Start(ctx)
	return maintenance.Stop
}

// Close releases every store in reverse order of opening
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Error closing store: %v", err)
		}
	}
	a.closers = nil
}
