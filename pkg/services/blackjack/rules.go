package blackjack

import (
	"strconv"

	"github.com/fadedpez/blackjack/pkg/entities"
)

const (
	BlackjackValue   = 21
	DealerStandValue = 17
	MaxPlayers       = 7 // Max number of players allowed at a table
)

// CardValue resolves a card's value given the value of the hand it joins.
// An ace counts 11 unless that would take the hand past 21.
func CardValue(card entities.Card, currentHandValue int) int {
	switch {
	case card.IsAce():
		if currentHandValue+11 > BlackjackValue {
			return 1
		}
		return 11
	case card.Rank == entities.Ten || card.Rank.IsFace():
		return 10
	default:
		val, _ := strconv.Atoi(string(card.Rank))
		return val
	}
}

// HandValue returns the best total for the cards and whether an ace is being
// counted as 11. Aces are re-optimised from scratch so the result does not
// depend on the order the cards arrived in.
func HandValue(cards []entities.Card) (int, bool) {
	score := 0
	aces := 0

	for _, card := range cards {
		if card.IsAce() {
			aces++
			continue
		}
		score += CardValue(card, score)
	}

	if aces == 0 {
		return score, false
	}

	// At most one ace can ever count as 11
	score += aces
	if score+10 <= BlackjackValue {
		return score + 10, true
	}
	return score, false
}

// ShouldDealerHit reports whether the dealer draws: hit 16 and below, stand on all 17s
func ShouldDealerHit(dealerValue int) bool {
	return dealerValue < DealerStandValue
}

// ShouldDealerHitWithRules is ShouldDealerHit with the optional hit-soft-17 variant
func ShouldDealerHitWithRules(dealerValue int, soft bool, hitSoft17 bool) bool {
	if hitSoft17 && soft && dealerValue == DealerStandValue {
		return true
	}
	return ShouldDealerHit(dealerValue)
}

// IsNaturalBlackjack reports a two-card 21 that did not come from a split
func IsNaturalBlackjack(hand *Hand) bool {
	return hand.CardCount() == 2 && hand.Value() == BlackjackValue && !hand.IsSplitHand()
}

// IsBust checks if a hand exceeds 21
func IsBust(hand *Hand) bool {
	return hand.Value() > BlackjackValue
}

// CanDoubleDown reports whether the hand is eligible to double: exactly two
// cards, not busted and not a natural
func CanDoubleDown(hand *Hand) bool {
	return hand.CardCount() == 2 && !IsBust(hand) && !IsNaturalBlackjack(hand)
}

// CanSplit reports whether the hand is exactly two cards of matching rank
func CanSplit(hand *Hand) bool {
	if hand.CardCount() != 2 {
		return false
	}
	cards := hand.Cards()
	return cards[0].Rank == cards[1].Rank
}

// DetermineResult compares a finished player hand with the dealer's hand
func DetermineResult(player, dealer *Hand) entities.Result {
	// A busted player loses even when the dealer busts too
	if IsBust(player) {
		return entities.ResultLose
	}

	// A dealer natural only matters through the totals: it pushes a natural
	// or any other 21 and beats everything lower
	if IsNaturalBlackjack(player) && !IsNaturalBlackjack(dealer) {
		return entities.ResultBlackjack
	}

	if IsBust(dealer) {
		return entities.ResultWin
	}

	playerScore := player.Value()
	dealerScore := dealer.Value()
	switch {
	case playerScore > dealerScore:
		return entities.ResultWin
	case playerScore < dealerScore:
		return entities.ResultLose
	}
	return entities.ResultPush
}
