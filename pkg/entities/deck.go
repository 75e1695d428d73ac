package entities

// StandardDeckSize is the number of cards in one standard deck
const StandardDeckSize = 52

// NewDeck returns the 52 cards of one standard deck, one of each rank and suit,
// ordered by suit then rank
func NewDeck() []Card {
	cards := make([]Card, 0, StandardDeckSize)
	for _, suit := range allSuits {
		for _, rank := range allRanks {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}
