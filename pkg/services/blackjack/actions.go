package blackjack

import (
	"context"

	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
)

// ProcessPlayerAction applies action to the active hand of the named player.
// A rejected action leaves the round untouched.
func (g *Game) ProcessPlayerAction(ctx context.Context, name string, action entities.Action) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != entities.PhasePlayerTurns {
		return types.Errorf(types.ErrInvalidState, "players cannot act during %s", g.phase)
	}
	player, err := g.player(name)
	if err != nil {
		return err
	}
	current, ok := g.currentPlayer()
	if !ok || current != player {
		return types.Errorf(types.ErrNotPlayerTurn, "it is not %s's turn", name)
	}
	hand := player.ActiveHand()
	if hand == nil {
		return types.Errorf(types.ErrInvalidState, "%s has no hand left to play", name)
	}

	if err := g.shoe.EnsureAvailable(g.cardsNeeded(player, action)); err != nil {
		return err
	}

	switch action {
	case entities.ActionHit:
		err = g.hit(hand)
	case entities.ActionStand:
		err = hand.Stand()
	case entities.ActionDoubleDown:
		err = g.doubleDown(ctx, player, hand)
	case entities.ActionSplit:
		err = g.split(ctx, player, hand)
	case entities.ActionSurrender:
		err = g.surrender(player, hand)
	default:
		err = types.Errorf(types.ErrInvalidPlayerAction, "unknown action %q", action)
	}
	if err != nil {
		return err
	}

	g.logger.Debug("%s: %s on hand %s, now %d", name, action, hand.ID, hand.Value())
	return g.advance()
}

// cardsNeeded bounds how many cards action can pull from the shoe before the
// turn moves on, including second cards owed to the player's split hands
func (g *Game) cardsNeeded(player *Player, action entities.Action) int {
	needed := 0
	switch action {
	case entities.ActionHit, entities.ActionDoubleDown:
		needed = 1
	case entities.ActionSplit:
		needed = 2
	}
	for _, h := range player.Hands {
		if h.CardCount() == 1 && !h.IsDone() {
			needed++
		}
	}
	return needed
}

func (g *Game) hit(hand *Hand) error {
	if g.splitAces(hand) {
		return types.NewGameError(types.ErrInvalidPlayerAction, "split aces cannot be hit")
	}
	if err := g.dealTo(hand); err != nil {
		return err
	}
	if hand.Value() == BlackjackValue {
		return hand.Stand()
	}
	return nil
}

// splitAces reports whether hand came from splitting a pair of aces
func (g *Game) splitAces(hand *Hand) bool {
	if !hand.IsSplitHand() {
		return false
	}
	cards := hand.Cards()
	return len(cards) > 0 && cards[0].IsAce()
}

func (g *Game) doubleDown(ctx context.Context, player *Player, hand *Hand) error {
	if !g.cfg.AllowDoubleDown {
		return types.NewGameError(types.ErrInvalidPlayerAction, "doubling down is not allowed at this table")
	}
	if !CanDoubleDown(hand) {
		return types.Errorf(types.ErrInvalidPlayerAction, "hand %s cannot double down with %d cards", hand.ID, hand.CardCount())
	}
	if hand.IsSplitHand() && !g.cfg.DoubleAfterSplit {
		return types.NewGameError(types.ErrInvalidPlayerAction, "doubling after a split is not allowed at this table")
	}
	if g.splitAces(hand) {
		return types.NewGameError(types.ErrInvalidPlayerAction, "split aces cannot be doubled")
	}

	base := g.wagerOn(hand)
	if base == nil {
		return types.Errorf(types.ErrInvalidOperation, "hand %s has no active bet", hand.ID)
	}
	double := entities.NewBet(player.Name, hand.ID, base.Amount, entities.BetTypeDoubleDown)
	if err := g.betting.PlaceAdditionalBet(ctx, double); err != nil {
		return err
	}
	g.bets[hand.ID] = append(g.bets[hand.ID], double)
	hand.markDoubled()

	if err := g.dealTo(hand); err != nil {
		return err
	}
	if hand.IsBusted() {
		return nil
	}
	return hand.Stand()
}

func (g *Game) split(ctx context.Context, player *Player, hand *Hand) error {
	if !g.cfg.AllowSplit {
		return types.NewGameError(types.ErrInvalidPlayerAction, "splitting is not allowed at this table")
	}
	if !g.splits.CanSplit(hand) {
		return types.Errorf(types.ErrInvalidPlayerAction, "hand %s is not a pair", hand.ID)
	}
	if !g.splits.CanSplitAgain(player) {
		return types.Errorf(types.ErrInvalidOperation, "%s has reached the maximum of %d splits", player.Name, g.splits.MaximumSplits())
	}

	original := g.standardBet(player)
	if original == nil {
		return types.Errorf(types.ErrInvalidOperation, "%s has no standard bet to split", player.Name)
	}
	ok, err := g.splits.HasSufficientFundsForSplit(ctx, player.Name, original)
	if err != nil {
		return err
	}
	if !ok {
		return types.Errorf(types.ErrInsufficientFunds, "%s cannot cover a second wager", player.Name)
	}

	first, second, err := g.splits.SplitHand(hand)
	if err != nil {
		return err
	}
	splitBet, err := g.splits.CreateSplitBet(original, second.ID)
	if err != nil {
		return err
	}
	if err := g.betting.PlaceAdditionalBet(ctx, splitBet); err != nil {
		return err
	}

	// The first half keeps the hand ID, so only the bets move with it
	g.bets[second.ID] = []*entities.Bet{splitBet}
	player.replaceActive(first, second)
	g.logger.Info("%s split %s into %s and %s", player.Name, hand.ID, first.ID, second.ID)

	return g.completeSplitHand(first)
}

func (g *Game) surrender(player *Player, hand *Hand) error {
	if !g.cfg.AllowSurrender {
		return types.NewGameError(types.ErrInvalidPlayerAction, "surrender is not allowed at this table")
	}
	if len(player.Hands) != 1 || hand.CardCount() != 2 {
		return types.NewGameError(types.ErrInvalidPlayerAction, "surrender is only allowed on the first two cards")
	}
	return hand.Surrender()
}

// completeSplitHand deals the second card owed to a one-card split hand. Split
// aces stand on it; any hand reaching 21 stands.
func (g *Game) completeSplitHand(hand *Hand) error {
	if !hand.IsSplitHand() || hand.CardCount() != 1 || hand.IsDone() {
		return nil
	}
	aces := g.splits.IsSplitAcesHand(hand)
	if err := g.dealTo(hand); err != nil {
		return err
	}
	if aces || hand.Value() == BlackjackValue {
		return hand.Stand()
	}
	return nil
}

// advance moves the turn cursor to the next hand that needs a decision,
// finishing split hands on the way. When no hand is left the dealer is up.
func (g *Game) advance() error {
	for g.current < len(g.players) {
		player := g.players[g.current]
		for hand := player.advance(); hand != nil; hand = player.advance() {
			if err := g.completeSplitHand(hand); err != nil {
				return err
			}
			if !hand.IsDone() {
				return nil
			}
		}
		g.current++
	}
	g.setPhase(entities.PhaseDealerTurn)
	return nil
}

// wagerOn returns the bet that opened hand: the standard bet or a split bet
func (g *Game) wagerOn(hand *Hand) *entities.Bet {
	for _, bet := range g.bets[hand.ID] {
		if bet.Type != entities.BetTypeDoubleDown && bet.IsActive() {
			return bet
		}
	}
	return nil
}

// standardBet returns the player's opening wager of the round
func (g *Game) standardBet(player *Player) *entities.Bet {
	for _, hand := range player.Hands {
		for _, bet := range g.bets[hand.ID] {
			if bet.Type == entities.BetTypeStandard {
				return bet
			}
		}
	}
	return nil
}

// availableActions lists what the active hand of player may do next
func (g *Game) availableActions(player *Player) []entities.Action {
	hand := player.ActiveHand()
	if hand == nil || hand.IsDone() {
		return nil
	}

	actions := []entities.Action{entities.ActionHit, entities.ActionStand}
	if g.cfg.AllowDoubleDown && CanDoubleDown(hand) && !g.splitAces(hand) &&
		(!hand.IsSplitHand() || g.cfg.DoubleAfterSplit) {
		actions = append(actions, entities.ActionDoubleDown)
	}
	if g.cfg.AllowSplit && g.splits.CanSplit(hand) && g.splits.CanSplitAgain(player) {
		actions = append(actions, entities.ActionSplit)
	}
	if g.cfg.AllowSurrender && len(player.Hands) == 1 && hand.CardCount() == 2 {
		actions = append(actions, entities.ActionSurrender)
	}
	return actions
}
