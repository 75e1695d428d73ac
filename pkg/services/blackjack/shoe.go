package blackjack

import (
	"math/rand"
	"time"

	"github.com/fadedpez/blackjack/internal/types"
	"github.com/fadedpez/blackjack/pkg/entities"
)

const (
	MinDecks     = 1
	MaxDecks     = 8
	DefaultDecks = 6
)

// ShoeEventKind identifies what a shoe is signalling
type ShoeEventKind string

const (
	// ShoeEventPenetration fires once per shoe generation when the remaining
	// fraction first reaches the watched threshold
	ShoeEventPenetration ShoeEventKind = "PENETRATION_REACHED"
	// ShoeEventEmpty fires when the last card is drawn
	ShoeEventEmpty ShoeEventKind = "EMPTY"
)

// ShoeEvent is delivered to shoe subscribers
type ShoeEvent struct {
	Kind      ShoeEventKind
	Remaining int
	Total     int
}

// ShoeOption configures a Shoe
type ShoeOption func(*Shoe)

// WithRand sets the random source used for shuffling
func WithRand(rng *rand.Rand) ShoeOption {
	return func(s *Shoe) {
		s.rng = rng
	}
}

// WithSeed shuffles with a deterministic source
func WithSeed(seed int64) ShoeOption {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithPenetrationWatch makes the shoe emit ShoeEventPenetration when the
// remaining fraction drops to threshold
func WithPenetrationWatch(threshold float64) ShoeOption {
	return func(s *Shoe) {
		s.watch = threshold
	}
}

// Shoe holds deckCount standard decks. cards keeps every card of the shoe;
// the ones before next have been dealt.
type Shoe struct {
	deckCount int
	cards     []entities.Card
	next      int
	rng       *rand.Rand

	watch     float64
	signalled bool

	listeners map[int]func(ShoeEvent)
	nextSubID int
}

// NewShoe creates a shuffled shoe of deckCount decks
func NewShoe(deckCount int, opts ...ShoeOption) (*Shoe, error) {
	if deckCount < MinDecks || deckCount > MaxDecks {
		return nil, types.Errorf(types.ErrInvalidArgument, "deck count must be between %d and %d, got %d", MinDecks, MaxDecks, deckCount)
	}

	s := &Shoe{
		deckCount: deckCount,
		cards:     make([]entities.Card, 0, deckCount*entities.StandardDeckSize),
		listeners: make(map[int]func(ShoeEvent)),
	}
	for i := 0; i < deckCount; i++ {
		s.cards = append(s.cards, entities.NewDeck()...)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s.Shuffle()
	return s, nil
}

// Draw removes and returns the top card
func (s *Shoe) Draw() (entities.Card, error) {
	if s.next >= len(s.cards) {
		return entities.Card{}, types.NewGameError(types.ErrEmptyShoe, "no cards remain in the shoe")
	}

	card := s.cards[s.next]
	s.next++

	if s.watch > 0 && !s.signalled && s.NeedsReshuffle(s.watch) {
		s.signalled = true
		s.emit(ShoeEventPenetration)
	}
	if s.Remaining() == 0 {
		s.emit(ShoeEventEmpty)
	}
	return card, nil
}

// Shuffle permutes the undealt cards using Fisher-Yates
func (s *Shoe) Shuffle() {
	remaining := s.cards[s.next:]
	for i := len(remaining) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		remaining[i], remaining[j] = remaining[j], remaining[i]
	}
}

// Reset returns every dealt card to the shoe and shuffles
func (s *Shoe) Reset() {
	s.next = 0
	s.signalled = false
	s.Shuffle()
}

// Arrange moves the given cards, in order, to the top of the shoe. Each card
// must still be undealt; used to replay a known deal.
func (s *Shoe) Arrange(cards ...entities.Card) error {
	for i, card := range cards {
		pos := s.next + i
		found := -1
		for j := pos; j < len(s.cards); j++ {
			if s.cards[j] == card {
				found = j
				break
			}
		}
		if found < 0 {
			return types.Errorf(types.ErrInvalidArgument, "card %s is not available in the shoe", card)
		}
		s.cards[pos], s.cards[found] = s.cards[found], s.cards[pos]
	}
	return nil
}

// NeedsReshuffle reports whether the remaining fraction is at or below threshold
func (s *Shoe) NeedsReshuffle(threshold float64) bool {
	return float64(s.Remaining())/float64(s.Total()) <= threshold
}

// Remaining returns how many cards are left to deal
func (s *Shoe) Remaining() int {
	return len(s.cards) - s.next
}

// Dealt returns how many cards have left the shoe since the last reset
func (s *Shoe) Dealt() int {
	return s.next
}

// Total returns the full size of the shoe
func (s *Shoe) Total() int {
	return len(s.cards)
}

// DeckCount returns how many decks make up the shoe
func (s *Shoe) DeckCount() int {
	return s.deckCount
}

// Subscribe registers fn for shoe events and returns a func that removes it
func (s *Shoe) Subscribe(fn func(ShoeEvent)) func() {
	id := s.nextSubID
	s.nextSubID++
	s.listeners[id] = fn
	return func() {
		delete(s.listeners, id)
	}
}

// SubscriberCount returns the number of registered listeners
func (s *Shoe) SubscriberCount() int {
	return len(s.listeners)
}

func (s *Shoe) emit(kind ShoeEventKind) {
	event := ShoeEvent{Kind: kind, Remaining: s.Remaining(), Total: s.Total()}
	for _, fn := range s.listeners {
		fn(event)
	}
}
