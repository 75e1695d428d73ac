package blackjack

import (
	"context"

	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/google/uuid"
)

// DefaultMaxSplits allows up to four hands per player
const DefaultMaxSplits = 3

// BankrollReader is the slice of the betting service the split manager needs
type BankrollReader interface {
	GetPlayerBankroll(ctx context.Context, playerName string) (entities.Money, error)
}

// SplitHandManager validates and performs pair splits
type SplitHandManager struct {
	maxSplits int
	bankrolls BankrollReader
}

// NewSplitHandManager creates a split manager allowing maxSplits splits per
// player per round. A non-positive maxSplits falls back to DefaultMaxSplits.
func NewSplitHandManager(maxSplits int, bankrolls BankrollReader) *SplitHandManager {
	if maxSplits <= 0 {
		maxSplits = DefaultMaxSplits
	}
	return &SplitHandManager{
		maxSplits: maxSplits,
		bankrolls: bankrolls,
	}
}

// CanSplit reports whether hand is a two-card pair
func (m *SplitHandManager) CanSplit(hand *Hand) bool {
	return hand != nil && hand.Status() == StatusPlaying && CanSplit(hand)
}

// SplitHand divides a pair into two one-card hands. The first keeps the
// original hand's ID so bets tied to it stay attached; the original hand is
// left untouched.
func (m *SplitHandManager) SplitHand(hand *Hand) (*Hand, *Hand, error) {
	if !m.CanSplit(hand) {
		return nil, nil, types.Errorf(types.ErrInvalidSplit, "hand %s is not a splittable pair", handID(hand))
	}

	cards := hand.Cards()
	parent := hand.ID
	if hand.IsSplitHand() {
		parent = hand.ParentID()
	}

	first := NewHandWithID(hand.ID)
	first.markSplit(parent)
	second := NewHandWithID(uuid.New().String())
	second.markSplit(parent)

	if err := first.AddCard(cards[0]); err != nil {
		return nil, nil, err
	}
	if err := second.AddCard(cards[1]); err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// IsSplitAcesHand reports a split hand holding a single ace. Such a hand gets
// exactly one more card and may not be hit or resplit.
func (m *SplitHandManager) IsSplitAcesHand(hand *Hand) bool {
	if hand == nil || !hand.IsSplitHand() || hand.CardCount() != 1 {
		return false
	}
	return hand.Cards()[0].IsAce()
}

// HasSufficientFundsForSplit reports whether the player can match an active
// standard bet
func (m *SplitHandManager) HasSufficientFundsForSplit(ctx context.Context, playerName string, bet *entities.Bet) (bool, error) {
	if bet == nil || !bet.IsActive() {
		return false, nil
	}

	balance, err := m.bankrolls.GetPlayerBankroll(ctx, playerName)
	if err != nil {
		return false, err
	}
	cmp, err := balance.Cmp(bet.Amount)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}

// CreateSplitBet derives the matching wager for the new hand of a split
func (m *SplitHandManager) CreateSplitBet(original *entities.Bet, newHandID string) (*entities.Bet, error) {
	if original == nil {
		return nil, types.NewGameError(types.ErrInvalidArgument, "original bet is required")
	}
	if original.IsSettled() {
		return nil, types.Errorf(types.ErrInvalidOperation, "bet %s is already settled", original.ID)
	}
	if original.Type != entities.BetTypeStandard {
		return nil, types.Errorf(types.ErrInvalidOperation, "only standard bets can be split, bet %s is %s", original.ID, original.Type)
	}
	return entities.NewBet(original.PlayerName, newHandID, original.Amount, entities.BetTypeSplit), nil
}

// CountSplitHands counts the hands of a player that came from splitting
func (m *SplitHandManager) CountSplitHands(player *Player) int {
	count := 0
	for _, hand := range player.Hands {
		if hand.IsSplitHand() {
			count++
		}
	}
	return count
}

// SplitsPerformed returns how many splits produced the player's hands
func (m *SplitHandManager) SplitsPerformed(player *Player) int {
	return len(player.Hands) - 1
}

// CanSplitAgain reports whether the player is under the split ceiling
func (m *SplitHandManager) CanSplitAgain(player *Player) bool {
	return m.SplitsPerformed(player) < m.maxSplits
}

// MaximumSplits returns the split ceiling per player per round
func (m *SplitHandManager) MaximumSplits() int {
	return m.maxSplits
}

func handID(hand *Hand) string {
	if hand == nil {
		return "<nil>"
	}
	return hand.ID
}
