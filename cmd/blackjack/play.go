package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/fadedpez/blackjack/pkg/services/betting"
	"github.com/fadedpez/blackjack/pkg/services/blackjack"
)

type PlayCmd struct {
	Players []string `arg:"" optional:"" help:"Player names, one seat each (defaults to \"Player\")"`
	Seed    int64    `help:"Shuffle seed for a reproducible shoe (0 picks one)"`
}

func (c *PlayCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.startIndexMaintenance(ctx)()

	var opts []blackjack.GameOption
	if c.Seed != 0 {
		opts = append(opts, blackjack.WithShoeOptions(blackjack.WithSeed(c.Seed)))
	}
	g, err := a.newGame(opts...)
	if err != nil {
		return err
	}

	players := c.Players
	if len(players) == 0 {
		players = []string{"Player"}
	}
	return newTable(g, a.betting, players, os.Stdin, os.Stdout).run(ctx)
}

// actionWords maps what a player may type to a game action
var actionWords = map[string]entities.Action{
	"h":         entities.ActionHit,
	"hit":       entities.ActionHit,
	"s":         entities.ActionStand,
	"stand":     entities.ActionStand,
	"d":         entities.ActionDoubleDown,
	"double":    entities.ActionDoubleDown,
	"p":         entities.ActionSplit,
	"split":     entities.ActionSplit,
	"r":         entities.ActionSurrender,
	"surrender": entities.ActionSurrender,
}

var actionLabels = map[entities.Action]string{
	entities.ActionHit:        "(h)it",
	entities.ActionStand:      "(s)tand",
	entities.ActionDoubleDown: "(d)ouble",
	entities.ActionSplit:      "s(p)lit",
	entities.ActionSurrender:  "su(r)render",
}

// table runs rounds at a terminal until a player leaves or input ends
type table struct {
	game    *blackjack.Game
	betting *betting.Service
	players []string
	in      *bufio.Scanner
	out     io.Writer

	noticeStyle  lipgloss.Style
	resultStyles map[entities.Result]lipgloss.Style
}

func newTable(game *blackjack.Game, bettingService *betting.Service, players []string, in io.Reader, out io.Writer) *table {
	// Colors only reach terminals; plain writers get plain text
	r := lipgloss.NewRenderer(out)
	win := r.NewStyle().Foreground(lipgloss.Color("10"))
	return &table{
		game:        game,
		betting:     bettingService,
		players:     players,
		in:          bufio.NewScanner(in),
		out:         out,
		noticeStyle: r.NewStyle().Foreground(lipgloss.Color("11")),
		resultStyles: map[entities.Result]lipgloss.Style{
			entities.ResultWin:       win,
			entities.ResultBlackjack: win,
			entities.ResultPush:      r.NewStyle().Foreground(lipgloss.Color("12")),
			entities.ResultLose:      r.NewStyle().Foreground(lipgloss.Color("9")),
			entities.ResultSurrender: r.NewStyle().Foreground(lipgloss.Color("9")),
		},
	}
}

func (t *table) run(ctx context.Context) error {
	unsubscribe := t.game.SubscribeReshuffles(func(event blackjack.ReshuffleEvent) {
		if event.Kind == blackjack.ReshuffleOccurred {
			t.printf("%s\n", t.noticeStyle.Render(fmt.Sprintf("*** The dealer reshuffles the shoe (%s) ***", event.Reason)))
		}
	})
	defer unsubscribe()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := t.game.StartNewGame(ctx, t.players); err != nil {
			return err
		}

		leaving, err := t.takeBets(ctx)
		if err != nil || leaving {
			return err
		}

		if err := t.game.DealInitialCards(ctx); err != nil {
			return err
		}
		t.printTable()

		for t.game.Phase() == entities.PhasePlayerTurns {
			leaving, err := t.playTurn(ctx)
			if err != nil || leaving {
				return err
			}
		}

		if err := t.game.PlayDealerTurn(ctx); err != nil {
			return err
		}
		summary, err := t.game.GetGameResults(ctx)
		if err != nil {
			return err
		}
		t.printResults(summary)
	}
}

// takeBets asks every seat for a wager and places them once all are valid,
// so a player leaving never strands another player's bet
func (t *table) takeBets(ctx context.Context) (bool, error) {
	limits := t.betting.Config()
	amounts := make([]entities.Money, len(t.players))

	for i, name := range t.players {
		for {
			bankroll, err := t.betting.GetPlayerBankroll(ctx, name)
			if err != nil {
				return false, err
			}
			t.printf("%s, bankroll %s. Bet (%s to %s, enter for minimum, q to leave): ",
				name, bankroll, limits.MinBet, limits.MaxBet)

			line, ok := t.readLine()
			if !ok || line == "q" || line == "quit" {
				t.printf("\nThanks for playing.\n")
				return true, nil
			}

			amount := limits.MinBet
			if line != "" {
				value, err := strconv.ParseFloat(line, 64)
				if err != nil {
					t.printf("%q is not an amount\n", line)
					continue
				}
				amount = entities.FromMajor(value, limits.Currency)
			}
			if err := t.betting.ValidateBet(ctx, name, amount); err != nil {
				t.printf("%s\n", describe(err))
				continue
			}
			amounts[i] = amount
			break
		}
	}

	for i, name := range t.players {
		if _, err := t.game.PlaceBet(ctx, name, amounts[i]); err != nil {
			return false, err
		}
	}
	return false, nil
}

// playTurn reads one decision for the player whose turn it is
func (t *table) playTurn(ctx context.Context) (bool, error) {
	state := t.game.GetCurrentGameState()
	player, ok := state.Player(state.CurrentPlayer)
	if !ok {
		return false, fmt.Errorf("no player to act in phase %s", state.Phase)
	}

	hand := player.Hands[player.ActiveHand]
	labels := make([]string, 0, len(player.AvailableActions))
	for _, action := range player.AvailableActions {
		labels = append(labels, actionLabels[action])
	}
	t.printf("%s, hand %d: %s (%d). %s? ", player.Name, player.ActiveHand+1,
		formatCards(hand.Cards), hand.Value, strings.Join(labels, ", "))

	line, ok := t.readLine()
	if !ok || line == "q" || line == "quit" {
		t.printf("\nLeaving mid-round; open bets stay on the table.\n")
		return true, nil
	}
	action, known := actionWords[line]
	if !known {
		t.printf("Unknown action %q\n", line)
		return false, nil
	}

	if err := t.game.ProcessPlayerAction(ctx, player.Name, action); err != nil {
		var gameErr *types.GameError
		if types.As(err, &gameErr) {
			t.printf("%s\n", describe(err))
			return false, nil
		}
		return false, err
	}

	after := t.game.GetCurrentGameState()
	if p, ok := after.Player(player.Name); ok {
		for _, h := range p.Hands {
			if h.ID == hand.ID {
				t.printf("  %s (%d) %s\n", formatCards(h.Cards), h.Value, strings.ToLower(string(h.Status)))
			}
		}
	}
	return false, nil
}

func (t *table) printTable() {
	state := t.game.GetCurrentGameState()
	dealer := formatCards(state.Dealer.Cards)
	if state.Dealer.HoleCardHidden {
		dealer += ", [hidden]"
	}
	t.printf("\nDealer: %s\n", dealer)
	for _, p := range state.Players {
		for _, h := range p.Hands {
			t.printf("%s: %s (%d)\n", p.Name, formatCards(h.Cards), h.Value)
		}
	}
	t.printf("Shoe: %d of %d cards left\n\n", state.ShoeRemaining, state.ShoeTotal)
}

func (t *table) printResults(summary *entities.GameSummary) {
	dealer := fmt.Sprintf("%d", summary.DealerValue)
	switch {
	case summary.DealerBlackjack:
		dealer = "blackjack"
	case summary.DealerBusted:
		dealer += ", bust"
	}
	t.printf("\nDealer: %s (%s)\n", formatCards(summary.DealerCards), dealer)

	for _, p := range summary.Players {
		for i, h := range p.Hands {
			t.printf("%s hand %d: %s (%d) %s\n", p.Name, i+1, formatCards(h.Cards), h.Value,
				t.resultStyles[h.Result].Render(string(h.Result)))
		}
		t.printf("%s net %s, bankroll %s\n", p.Name, p.Net, p.Bankroll)
	}
	t.printf("\n")
}

func (t *table) readLine() (string, bool) {
	if !t.in.Scan() {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(t.in.Text())), true
}

func (t *table) printf(format string, args ...interface{}) {
	fmt.Fprintf(t.out, format, args...)
}

func formatCards(cards []entities.Card) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = card.String()
	}
	return strings.Join(parts, ", ")
}

// describe returns the player-facing part of an error
func describe(err error) string {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		return gameErr.Message
	}
	return err.Error()
}
