package entities

import (
	"time"

	"github.com/fadedpez/blackjack/internal/types"
	"github.com/google/uuid"
)

// BetType distinguishes the original wager from the extra wagers a hand can attract
type BetType string

const (
	BetTypeStandard   BetType = "STANDARD"
	BetTypeDoubleDown BetType = "DOUBLE_DOWN"
	BetTypeSplit      BetType = "SPLIT"
)

// Bet is a wager on one hand. Everything but the settlement fields is fixed
// at creation.
type Bet struct {
	ID         string    `json:"id"`
	PlayerName string    `json:"player_name"`
	HandID     string    `json:"hand_id"`
	Amount     Money     `json:"amount"`
	Type       BetType   `json:"type"`
	PlacedAt   time.Time `json:"placed_at"`

	settled   bool
	result    Result
	payout    Payout
	settledAt time.Time
}

// NewBet creates an unsettled bet with a fresh ID
func NewBet(playerName, handID string, amount Money, betType BetType) *Bet {
	return &Bet{
		ID:         uuid.New().String(),
		PlayerName: playerName,
		HandID:     handID,
		Amount:     amount,
		Type:       betType,
	}
}

// IsSettled reports whether the bet has been paid out or collected
func (b *Bet) IsSettled() bool {
	return b.settled
}

// IsActive reports whether the bet is still riding on a hand
func (b *Bet) IsActive() bool {
	return !b.settled
}

// Result returns the result the bet was settled with
func (b *Bet) Result() Result {
	return b.result
}

// Payout returns the payout the bet was settled with
func (b *Bet) Payout() Payout {
	return b.payout
}

// SettledAt returns when the bet was settled
func (b *Bet) SettledAt() time.Time {
	return b.settledAt
}

// Settle records the terminal outcome of the bet. A bet settles exactly once.
func (b *Bet) Settle(payout Payout, at time.Time) error {
	if b.settled {
		return types.Errorf(types.ErrInvalidOperation, "bet %s is already settled", b.ID)
	}
	b.settled = true
	b.result = payout.Result
	b.payout = payout
	b.settledAt = at
	return nil
}

// Payout is the money owed on one settled bet
type Payout struct {
	BetID      string  `json:"bet_id"`
	PlayerName string  `json:"player_name"`
	HandID     string  `json:"hand_id"`
	BetType    BetType `json:"bet_type"`
	Result     Result  `json:"result"`
	Wager      Money   `json:"wager"`
	// Winnings is the profit on top of the wager (zero for push, loss and surrender)
	Winnings Money `json:"winnings"`
	// TotalReturn is what goes back to the bankroll: wager + winnings, the wager
	// alone for a push, half of it for a surrender and nothing for a loss
	TotalReturn Money `json:"total_return"`
}

// Net is the bankroll change relative to before the bet was placed
func (p Payout) Net() Money {
	return Money{Amount: p.TotalReturn.Amount - p.Wager.Amount, Currency: p.Wager.Currency}
}
