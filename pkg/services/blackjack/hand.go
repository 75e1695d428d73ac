package blackjack

import (
	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/google/uuid"
)

// Status represents the current state of the hand
type Status string

const (
	StatusPlaying     Status = "PLAYING"
	StatusBust        Status = "BUST"
	StatusStand       Status = "STAND"
	StatusSurrendered Status = "SURRENDERED"
)

// Hand represents a player's or the dealer's hand in a round of blackjack
type Hand struct {
	ID       string
	cards    []entities.Card
	status   Status
	split    bool
	doubled  bool
	parentID string
}

// NewHand creates a new empty hand with a fresh ID
func NewHand() *Hand {
	return NewHandWithID(uuid.New().String())
}

// NewHandWithID creates a new empty hand with the given ID
func NewHandWithID(id string) *Hand {
	return &Hand{
		ID:     id,
		cards:  make([]entities.Card, 0, 4),
		status: StatusPlaying,
	}
}

// AddCard appends a card to the hand, marking it bust past 21
func (h *Hand) AddCard(card entities.Card) error {
	if h.status != StatusPlaying {
		return types.Errorf(types.ErrInvalidOperation, "hand %s is %s", h.ID, h.status)
	}

	h.cards = append(h.cards, card)

	if h.Value() > BlackjackValue {
		h.status = StatusBust
	}
	return nil
}

// Stand marks the hand as stood
func (h *Hand) Stand() error {
	if h.status != StatusPlaying {
		return types.Errorf(types.ErrInvalidOperation, "hand %s is %s", h.ID, h.status)
	}
	h.status = StatusStand
	return nil
}

// Surrender gives the hand up
func (h *Hand) Surrender() error {
	if h.status != StatusPlaying {
		return types.Errorf(types.ErrInvalidOperation, "hand %s is %s", h.ID, h.status)
	}
	h.status = StatusSurrendered
	return nil
}

// Cards returns a copy of the cards in deal order
func (h *Hand) Cards() []entities.Card {
	return append([]entities.Card(nil), h.cards...)
}

// CardCount returns how many cards the hand holds
func (h *Hand) CardCount() int {
	return len(h.cards)
}

// Value returns the best possible score for the hand
func (h *Hand) Value() int {
	value, _ := HandValue(h.cards)
	return value
}

// IsSoft reports whether an ace is currently counted as 11
func (h *Hand) IsSoft() bool {
	_, soft := HandValue(h.cards)
	return soft
}

// IsBusted reports whether the hand is over 21
func (h *Hand) IsBusted() bool {
	return h.Value() > BlackjackValue
}

// IsBlackjack reports a natural: two cards worth 21 on a hand that was not split
func (h *Hand) IsBlackjack() bool {
	return IsNaturalBlackjack(h)
}

// Status returns the hand's play status
func (h *Hand) Status() Status {
	return h.status
}

// IsDone reports whether the hand can take no further action
func (h *Hand) IsDone() bool {
	return h.status != StatusPlaying
}

// IsSplitHand reports whether the hand came from a split
func (h *Hand) IsSplitHand() bool {
	return h.split
}

// ParentID returns the ID of the hand this one was split from
func (h *Hand) ParentID() string {
	return h.parentID
}

// IsDoubledDown reports whether the hand has been doubled
func (h *Hand) IsDoubledDown() bool {
	return h.doubled
}

func (h *Hand) markSplit(parentID string) {
	h.split = true
	h.parentID = parentID
}

func (h *Hand) markDoubled() {
	h.doubled = true
}
