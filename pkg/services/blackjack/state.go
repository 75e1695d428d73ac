package blackjack

import "github.com/fadedpez/blackjack/pkg/entities"

// HandState is a read-only view of one hand
type HandState struct {
	ID          string          `json:"id"`
	Cards       []entities.Card `json:"cards"`
	Value       int             `json:"value"`
	IsSoft      bool            `json:"is_soft"`
	Status      Status          `json:"status"`
	IsSplit     bool            `json:"is_split"`
	IsDoubled   bool            `json:"is_doubled"`
	IsBlackjack bool            `json:"is_blackjack"`
	IsBusted    bool            `json:"is_busted"`
	Wager       entities.Money  `json:"wager"`
	IsActive    bool            `json:"is_active"`
}

// PlayerState is a read-only view of one seat
type PlayerState struct {
	Name             string            `json:"name"`
	Hands            []HandState       `json:"hands"`
	ActiveHand       int               `json:"active_hand"`
	HasBet           bool              `json:"has_bet"`
	CanBet           bool              `json:"can_bet"`
	IsCurrent        bool              `json:"is_current"`
	AvailableActions []entities.Action `json:"available_actions"`
}

// DealerState is the dealer as players see it. Until the reveal only the
// up card is listed and Value counts only that card.
type DealerState struct {
	Cards          []entities.Card `json:"cards"`
	Value          int             `json:"value"`
	HoleCardHidden bool            `json:"hole_card_hidden"`
	IsBusted       bool            `json:"is_busted"`
	IsBlackjack    bool            `json:"is_blackjack"`
}

// GameStateSnapshot is a point-in-time copy of the round, safe to hand to
// presentation code
type GameStateSnapshot struct {
	RoundID       string         `json:"round_id"`
	Phase         entities.Phase `json:"phase"`
	Players       []PlayerState  `json:"players"`
	Dealer        DealerState    `json:"dealer"`
	CurrentPlayer string         `json:"current_player,omitempty"`
	ShoeRemaining int            `json:"shoe_remaining"`
	ShoeTotal     int            `json:"shoe_total"`
}

// Player returns the state of the named player
func (s *GameStateSnapshot) Player(name string) (*PlayerState, bool) {
	for i := range s.Players {
		if s.Players[i].Name == name {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// GetCurrentGameState returns a snapshot of the round, or nil if no round has
// been started yet
func (g *Game) GetCurrentGameState() *GameStateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return nil
	}

	snapshot := &GameStateSnapshot{
		RoundID:       g.roundID,
		Phase:         g.phase,
		Dealer:        g.dealerState(),
		ShoeRemaining: g.shoe.Remaining(),
		ShoeTotal:     g.shoe.Total(),
	}
	current, hasCurrent := g.currentPlayer()
	if hasCurrent {
		snapshot.CurrentPlayer = current.Name
	}

	for _, p := range g.players {
		ps := PlayerState{
			Name:       p.Name,
			ActiveHand: p.ActiveHandIndex(),
			HasBet:     len(g.bets[p.Hands[0].ID]) > 0,
			IsCurrent:  hasCurrent && current == p,
		}
		ps.CanBet = g.phase == entities.PhaseBettingOpen && !ps.HasBet
		if ps.IsCurrent {
			ps.AvailableActions = g.availableActions(p)
		}
		for i, h := range p.Hands {
			ps.Hands = append(ps.Hands, g.handState(h, ps.IsCurrent && i == p.ActiveHandIndex()))
		}
		snapshot.Players = append(snapshot.Players, ps)
	}
	return snapshot
}

func (g *Game) handState(h *Hand, active bool) HandState {
	state := HandState{
		ID:          h.ID,
		Cards:       h.Cards(),
		Value:       h.Value(),
		IsSoft:      h.IsSoft(),
		Status:      h.Status(),
		IsSplit:     h.IsSplitHand(),
		IsDoubled:   h.IsDoubledDown(),
		IsBlackjack: h.IsBlackjack(),
		IsBusted:    h.IsBusted(),
		IsActive:    active,
	}
	currency := g.cfg.Currency
	if currency == "" {
		currency = entities.DefaultCurrency
	}
	state.Wager = entities.Zero(currency)
	for _, bet := range g.bets[h.ID] {
		state.Wager.Amount += bet.Amount.Amount
	}
	return state
}

func (g *Game) dealerState() DealerState {
	cards := g.dealer.Cards()
	if !g.revealed && len(cards) > 1 {
		up := cards[:1]
		value, _ := HandValue(up)
		return DealerState{
			Cards:          up,
			Value:          value,
			HoleCardHidden: true,
		}
	}
	return DealerState{
		Cards:       cards,
		Value:       g.dealer.Value(),
		IsBusted:    g.dealer.IsBusted(),
		IsBlackjack: g.dealer.IsBlackjack(),
	}
}
