package blackjack

// Player is a seat in a round. Hands grows only by splitting; active points at
// the hand whose turn it is.
type Player struct {
	Name   string
	Hands  []*Hand
	active int
}

// NewPlayer seats a player with a single empty hand
func NewPlayer(name string) *Player {
	return &Player{
		Name:  name,
		Hands: []*Hand{NewHand()},
	}
}

// ActiveHand returns the hand being played, or nil once every hand is done
func (p *Player) ActiveHand() *Hand {
	if p.active >= len(p.Hands) {
		return nil
	}
	return p.Hands[p.active]
}

// ActiveHandIndex returns the cursor into Hands
func (p *Player) ActiveHandIndex() int {
	return p.active
}

// Hand looks up one of the player's hands by ID
func (p *Player) Hand(id string) (*Hand, bool) {
	for _, h := range p.Hands {
		if h.ID == id {
			return h, true
		}
	}
	return nil, false
}

// IsDone reports whether every hand of the player is finished
func (p *Player) IsDone() bool {
	for _, h := range p.Hands {
		if !h.IsDone() {
			return false
		}
	}
	return true
}

// replaceActive swaps the active hand for the two halves of a split, keeping
// the second right after the first
func (p *Player) replaceActive(first, second *Hand) {
	hands := make([]*Hand, 0, len(p.Hands)+1)
	hands = append(hands, p.Hands[:p.active]...)
	hands = append(hands, first, second)
	hands = append(hands, p.Hands[p.active+1:]...)
	p.Hands = hands
}

// advance moves the cursor past finished hands and returns the next playable hand
func (p *Player) advance() *Hand {
	for p.active < len(p.Hands) && p.Hands[p.active].IsDone() {
		p.active++
	}
	return p.ActiveHand()
}
