package blackjack

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/fadedpez/blackjack/internal/logging"
	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/google/uuid"
)

// BettingService is the money side of a round
type BettingService interface {
	BankrollReader
	EnsureBankroll(ctx context.Context, playerName string) (entities.Money, error)
	PlaceBet(ctx context.Context, playerName, handID string, amount entities.Money) (*entities.Bet, error)
	PlaceAdditionalBet(ctx context.Context, bet *entities.Bet) error
	ProcessPayouts(ctx context.Context, outcomes []entities.HandOutcome) (*entities.PayoutSummary, error)
	ClearSettledBets(playerName string)
}

// RoundRecorder receives the summary of every finished round
type RoundRecorder interface {
	RecordRound(ctx context.Context, summary *entities.GameSummary) error
}

// GameOption configures a Game
type GameOption func(*Game)

// WithClock sets the clock used for round timestamps
func WithClock(clock quartz.Clock) GameOption {
	return func(g *Game) {
		g.clock = clock
	}
}

// WithLogger sets the game's logger
func WithLogger(logger *logging.Logger) GameOption {
	return func(g *Game) {
		g.logger = logger
	}
}

// WithRecorder registers the collaborator that receives round summaries
func WithRecorder(recorder RoundRecorder) GameOption {
	return func(g *Game) {
		g.recorder = recorder
	}
}

// WithShoeManager uses an existing shoe manager instead of building one from
// the config
func WithShoeManager(manager *ShoeManager) GameOption {
	return func(g *Game) {
		g.shoe = manager
	}
}

// WithShoeOptions passes options to the shoe built from the config
func WithShoeOptions(opts ...ShoeOption) GameOption {
	return func(g *Game) {
		g.shoeOpts = append(g.shoeOpts, opts...)
	}
}

// Game runs rounds of blackjack at one table. All exported methods are safe
// for concurrent use; reshuffle listeners are called while the game is locked
// and must not call back into it.
type Game struct {
	mu sync.Mutex

	cfg      Config
	betting  BettingService
	splits   *SplitHandManager
	shoe     *ShoeManager
	shoeOpts []ShoeOption
	recorder RoundRecorder
	clock    quartz.Clock
	logger   *logging.Logger

	started   bool
	roundID   string
	startedAt time.Time
	phase     entities.Phase
	players   []*Player
	current   int
	dealer    *Hand
	revealed  bool
	bets      map[string][]*entities.Bet // hand ID -> bets riding on it
	summary   *entities.GameSummary
}

// NewGame creates a table with validated rules and a betting service
func NewGame(cfg Config, betting BettingService, opts ...GameOption) (*Game, error) {
	if betting == nil {
		return nil, types.NewGameError(types.ErrInvalidArgument, "betting service is required")
	}

	g := &Game{
		cfg:     cfg,
		betting: betting,
		phase:   entities.PhaseNotStarted,
		bets:    make(map[string][]*entities.Bet),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.clock == nil {
		g.clock = quartz.NewReal()
	}
	if g.logger == nil {
		g.logger = logging.Default
	}
	if g.shoe == nil {
		shoe, err := NewShoe(cfg.DeckCount, g.shoeOpts...)
		if err != nil {
			return nil, err
		}
		g.shoe = NewShoeManager(shoe, ShoeManagerOptions{
			AutoReshuffle:        cfg.AutoReshuffle,
			PenetrationThreshold: cfg.PenetrationThreshold,
			Logger:               g.logger,
		})
	}
	g.splits = NewSplitHandManager(cfg.MaxSplits, betting)

	return g, nil
}

// ShoeManager exposes the table's shoe manager
func (g *Game) ShoeManager() *ShoeManager {
	return g.shoe
}

// SubscribeReshuffles registers a reshuffle listener on the table's shoe
func (g *Game) SubscribeReshuffles(listener ReshuffleListener) func() {
	return g.shoe.Subscribe(listener)
}

// Phase returns the current round phase
func (g *Game) Phase() entities.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// StartNewGame seats the named players and opens betting for a new round
func (g *Game) StartNewGame(ctx context.Context, names []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != entities.PhaseNotStarted && g.phase != entities.PhaseRoundComplete {
		return types.Errorf(types.ErrGameInProgress, "round %s is in phase %s", g.roundID, g.phase)
	}
	if err := validateNames(names); err != nil {
		return err
	}

	for _, name := range names {
		if _, err := g.betting.EnsureBankroll(ctx, name); err != nil {
			return err
		}
	}
	for _, p := range g.players {
		g.betting.ClearSettledBets(p.Name)
	}

	g.players = make([]*Player, 0, len(names))
	for _, name := range names {
		g.players = append(g.players, NewPlayer(name))
	}
	g.started = true
	g.roundID = uuid.New().String()
	g.startedAt = g.clock.Now()
	g.current = 0
	g.dealer = NewHand()
	g.revealed = false
	g.bets = make(map[string][]*entities.Bet)
	g.summary = nil
	g.setPhase(entities.PhaseBettingOpen)

	g.logger.Info("Started round %s with %d players", g.roundID, len(names))
	return nil
}

func validateNames(names []string) error {
	if len(names) == 0 {
		return types.NewGameError(types.ErrInvalidArgument, "at least one player is required")
	}
	if len(names) > MaxPlayers {
		return types.Errorf(types.ErrInvalidArgument, "at most %d players can sit at a table, got %d", MaxPlayers, len(names))
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return types.NewGameError(types.ErrInvalidArgument, "player name cannot be empty")
		}
		if seen[name] {
			return types.Errorf(types.ErrInvalidArgument, "duplicate player name %q", name)
		}
		seen[name] = true
	}
	return nil
}

// PlaceBet places a player's opening wager. Once every player has bet the
// round moves on to the initial deal.
func (g *Game) PlaceBet(ctx context.Context, name string, amount entities.Money) (*entities.Bet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != entities.PhaseBettingOpen {
		return nil, types.Errorf(types.ErrInvalidState, "bets cannot be placed during %s", g.phase)
	}
	player, err := g.player(name)
	if err != nil {
		return nil, err
	}
	hand := player.Hands[0]
	if len(g.bets[hand.ID]) > 0 {
		return nil, types.Errorf(types.ErrInvalidOperation, "%s has already placed a bet this round", name)
	}

	bet, err := g.betting.PlaceBet(ctx, name, hand.ID, amount)
	if err != nil {
		return nil, err
	}
	g.bets[hand.ID] = append(g.bets[hand.ID], bet)
	g.logger.Debug("%s bet %s", name, amount)

	if g.allBetsPlaced() {
		g.setPhase(entities.PhaseInitialDeal)
	}
	return bet, nil
}

func (g *Game) allBetsPlaced() bool {
	for _, p := range g.players {
		if len(g.bets[p.Hands[0].ID]) == 0 {
			return false
		}
	}
	return true
}

// DealInitialCards deals two cards to every player and to the dealer, the
// dealer's second card face down
func (g *Game) DealInitialCards(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != entities.PhaseInitialDeal {
		return types.Errorf(types.ErrInvalidState, "cards cannot be dealt during %s", g.phase)
	}

	g.shoe.HandleAutomaticReshuffle()
	if err := g.shoe.EnsureAvailable(2 * (len(g.players) + 1)); err != nil {
		return err
	}

	for round := 0; round < 2; round++ {
		for _, p := range g.players {
			if err := g.dealTo(p.Hands[0]); err != nil {
				return err
			}
		}
		if err := g.dealTo(g.dealer); err != nil {
			return err
		}
	}

	for _, p := range g.players {
		hand := p.Hands[0]
		if hand.IsBlackjack() {
			_ = hand.Stand()
			g.logger.Info("%s has blackjack", p.Name)
		}
	}

	// The dealer peeks: a natural ends the round before anyone acts
	if g.dealer.IsBlackjack() {
		g.logger.Info("Dealer has blackjack")
		g.setPhase(entities.PhaseDealerTurn)
		return nil
	}

	g.setPhase(entities.PhasePlayerTurns)
	g.current = 0
	return g.advance()
}

// PlayDealerTurn reveals the hole card and draws for the dealer until the
// house rules say stand
func (g *Game) PlayDealerTurn(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != entities.PhaseDealerTurn {
		return types.Errorf(types.ErrInvalidState, "dealer cannot play during %s", g.phase)
	}
	if g.dealer.IsDone() {
		return types.NewGameError(types.ErrInvalidOperation, "dealer has already played")
	}

	g.revealed = true
	g.logger.Debug("Dealer reveals %v (%d)", g.dealer.Cards(), g.dealer.Value())

	if !g.cfg.DealerPlaysWhenAllBust && !g.anyLiveHand() {
		g.logger.Debug("Every player hand is finished without a showdown, dealer stands")
		return g.dealer.Stand()
	}

	for ShouldDealerHitWithRules(g.dealer.Value(), g.dealer.IsSoft(), g.cfg.DealerHitsSoft17) {
		if err := g.dealTo(g.dealer); err != nil {
			return err
		}
	}
	if !g.dealer.IsBusted() {
		return g.dealer.Stand()
	}
	g.logger.Debug("Dealer busts with %d", g.dealer.Value())
	return nil
}

// anyLiveHand reports whether a player hand still needs the dealer's total
func (g *Game) anyLiveHand() bool {
	for _, p := range g.players {
		for _, h := range p.Hands {
			if h.Status() == StatusStand {
				return true
			}
		}
	}
	return false
}

// GetGameResults settles the round and returns its summary. Settlement runs
// once; later calls return the same summary.
func (g *Game) GetGameResults(ctx context.Context) (*entities.GameSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == entities.PhaseRoundComplete && g.summary != nil {
		return g.summary, nil
	}
	if g.phase != entities.PhaseDealerTurn || !g.dealer.IsDone() {
		return nil, types.Errorf(types.ErrInvalidState, "results are not available during %s", g.phase)
	}

	outcomes := g.outcomes()
	payouts, err := g.betting.ProcessPayouts(ctx, outcomes)
	if err != nil {
		return nil, err
	}

	summary := &entities.GameSummary{
		RoundID:         g.roundID,
		StartedAt:       g.startedAt,
		CompletedAt:     g.clock.Now(),
		DealerCards:     g.dealer.Cards(),
		DealerValue:     g.dealer.Value(),
		DealerBusted:    g.dealer.IsBusted(),
		DealerBlackjack: g.dealer.IsBlackjack(),
		Payouts:         *payouts,
	}
	for _, p := range g.players {
		ps, err := g.playerSummary(ctx, p, outcomes, payouts)
		if err != nil {
			return nil, err
		}
		summary.Players = append(summary.Players, ps)
	}

	g.revealed = true
	g.summary = summary
	g.setPhase(entities.PhaseRoundComplete)
	g.logger.Info("Round %s complete: %d wins, %d losses, %d pushes, %d blackjacks",
		g.roundID, payouts.Wins, payouts.Losses, payouts.Pushes, payouts.Blackjacks)

	if g.recorder != nil {
		if err := g.recorder.RecordRound(ctx, summary); err != nil {
			g.logger.LogError(types.WrapError(types.ErrDatabaseError, "failed to record round", err))
		}
	}
	return summary, nil
}

func (g *Game) outcomes() []entities.HandOutcome {
	var outcomes []entities.HandOutcome
	for _, p := range g.players {
		for _, h := range p.Hands {
			result := DetermineResult(h, g.dealer)
			if h.Status() == StatusSurrendered {
				result = entities.ResultSurrender
			}
			outcomes = append(outcomes, entities.HandOutcome{
				PlayerName:  p.Name,
				HandID:      h.ID,
				Cards:       h.Cards(),
				Value:       h.Value(),
				Result:      result,
				IsSplit:     h.IsSplitHand(),
				IsDoubled:   h.IsDoubledDown(),
				IsBlackjack: h.IsBlackjack(),
				IsBusted:    h.IsBusted(),
			})
		}
	}
	return outcomes
}

func (g *Game) playerSummary(ctx context.Context, p *Player, outcomes []entities.HandOutcome, payouts *entities.PayoutSummary) (entities.PlayerSummary, error) {
	currency := g.cfg.Currency
	if currency == "" {
		currency = entities.DefaultCurrency
	}
	ps := entities.PlayerSummary{
		Name:     p.Name,
		Wagered:  entities.Zero(currency),
		Returned: entities.Zero(currency),
	}
	for _, o := range outcomes {
		if o.PlayerName == p.Name {
			ps.Hands = append(ps.Hands, o)
		}
	}
	for _, po := range payouts.Payouts {
		if po.PlayerName != p.Name {
			continue
		}
		ps.Wagered.Amount += po.Wager.Amount
		ps.Returned.Amount += po.TotalReturn.Amount
	}
	ps.Net = entities.NewMoney(ps.Returned.Amount-ps.Wagered.Amount, currency)

	bankroll, err := g.betting.GetPlayerBankroll(ctx, p.Name)
	if err != nil {
		return ps, err
	}
	ps.Bankroll = bankroll
	return ps, nil
}

// player finds a seated player by name
func (g *Game) player(name string) (*Player, error) {
	for _, p := range g.players {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, types.Errorf(types.ErrPlayerNotFound, "player %q is not in this round", name)
}

// CurrentPlayer returns the player whose turn it is, if any
func (g *Game) CurrentPlayer() (*Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentPlayer()
}

func (g *Game) currentPlayer() (*Player, bool) {
	if g.phase != entities.PhasePlayerTurns || g.current >= len(g.players) {
		return nil, false
	}
	return g.players[g.current], true
}

// dealTo draws one card from the shoe onto hand
func (g *Game) dealTo(hand *Hand) error {
	card, err := g.shoe.Draw()
	if err != nil {
		return err
	}
	return hand.AddCard(card)
}

func (g *Game) setPhase(phase entities.Phase) {
	if g.phase != phase {
		g.logger.Debug("Round %s: %s -> %s", g.roundID, g.phase, phase)
	}
	g.phase = phase
}
