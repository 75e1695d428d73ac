package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fadedpez/blackjack/internal/config"
)

type MigrateCmd struct{}

// Run opens both SQLite databases; opening applies any pending migrations
func (c *MigrateCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.StorageType != config.StorageSQLite {
		return fmt.Errorf("STORAGE_TYPE is %q; migrations only apply to %q", a.cfg.StorageType, config.StorageSQLite)
	}
	fmt.Printf("Migrated %s\n", a.cfg.WalletDBPath())
	fmt.Printf("Migrated %s\n", a.cfg.GameDBPath())
	return nil
}

type StatsCmd struct {
	Player string `arg:"" help:"Player name"`
}

func (c *StatsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.statistics.GetPlayerStatistics(ctx, c.Player)
	if err != nil {
		return err
	}
	if stats.RoundsPlayed == 0 {
		fmt.Printf("%s has not played yet\n", c.Player)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Player\t%s\n", stats.PlayerName)
	fmt.Fprintf(w, "Rounds\t%d\n", stats.RoundsPlayed)
	fmt.Fprintf(w, "Hands\t%d\n", stats.HandsPlayed)
	fmt.Fprintf(w, "Won / lost / pushed\t%d / %d / %d\n", stats.Wins, stats.Losses, stats.Pushes)
	fmt.Fprintf(w, "Blackjacks\t%d\n", stats.Blackjacks)
	fmt.Fprintf(w, "Surrenders\t%d\n", stats.Surrenders)
	fmt.Fprintf(w, "Busts\t%d\n", stats.Busts)
	fmt.Fprintf(w, "Splits / doubles\t%d / %d\n", stats.Splits, stats.DoubleDowns)
	fmt.Fprintf(w, "Win rate\t%.1f%%\n", stats.WinRate())
	fmt.Fprintf(w, "Wagered\t%s\n", stats.TotalBet)
	fmt.Fprintf(w, "Net\t%s\n", stats.NetProfit())
	if bankroll, err := a.betting.GetPlayerBankroll(ctx, c.Player); err == nil {
		fmt.Fprintf(w, "Bankroll\t%s\n", bankroll)
	}
	return w.Flush()
}

type LeaderboardCmd struct {
	Page    int `default:"1" help:"Page to show"`
	PerPage int `default:"10" help:"Players per page"`
}

func (c *LeaderboardCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	board, err := a.statistics.GetLeaderboard(ctx, c.Page, c.PerPage)
	if err != nil {
		return err
	}
	if board.TotalPlayers == 0 {
		fmt.Println("No rounds have been played yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPlayer\tRounds\tWin rate\tNet\t")
	for _, p := range board.Players {
		var badges []string
		if p.IsTopWinner {
			badges = append(badges, "top winner")
		}
		if p.IsTopPlayer {
			badges = append(badges, "most rounds")
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.1f%%\t%s\t%s\n",
			p.Rank, p.PlayerName, p.RoundsPlayed, p.WinRate, p.NetProfit(), strings.Join(badges, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("Page %d of %d (%d players)\n", board.CurrentPage, board.TotalPages, board.TotalPlayers)
	return nil
}

type HistoryCmd struct {
	Player string `arg:"" help:"Player name"`
	Limit  int    `default:"10" help:"Rounds to show"`
	Search bool   `help:"Read from the Elasticsearch index instead of the round store"`
}

func (c *HistoryCmd) Run(cli *CLI) error {
	ctx := context.Background()
	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Completed\tRound\tHands\tDealer\t")

	if c.Search {
		if a.search == nil {
			return fmt.Errorf("ELASTICSEARCH_URL is not set")
		}
		rounds, err := a.search.SearchPlayerRounds(ctx, c.Player, c.Limit)
		if err != nil {
			return err
		}
		for _, r := range rounds {
			var results []string
			for _, h := range r.Hands {
				if h.PlayerName == c.Player {
					results = append(results, fmt.Sprintf("%d %s", h.Score, h.Result))
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t\n", r.CompletedAt.Format("2006-01-02 15:04"), r.RoundID, strings.Join(results, ", "), r.DealerScore)
		}
		return w.Flush()
	}

	rounds, err := a.statistics.GetPlayerHistory(ctx, c.Player, c.Limit)
	if err != nil {
		return err
	}
	for _, r := range rounds {
		var results []string
		if p, ok := r.Player(c.Player); ok {
			for _, h := range p.Hands {
				results = append(results, fmt.Sprintf("%d %s", h.Value, h.Result))
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t\n", r.CompletedAt.Format("2006-01-02 15:04"), r.RoundID, strings.Join(results, ", "), r.DealerValue)
	}
	return w.Flush()
}
