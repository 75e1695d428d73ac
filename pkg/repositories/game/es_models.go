package game

import (
	"time"
)

// ESRound is a finished round as indexed in Elasticsearch. Money is in minor
// units of Currency.
type ESRound struct {
	RoundID         string    `json:"round_id"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	Currency        string    `json:"currency"`
	PlayerNames     []string  `json:"player_names"`
	DealerCards     []string  `json:"dealer_cards"`
	DealerScore     int       `json:"dealer_score"`
	DealerBusted    bool      `json:"dealer_busted"`
	DealerBlackjack bool      `json:"dealer_blackjack"`
	Hands           []ESHand  `json:"hands"`
}

// ESHand is one player hand inside an ESRound
type ESHand struct {
	PlayerName string   `json:"player_name"`
	HandID     string   `json:"hand_id"`
	Cards      []string `json:"cards"`
	Score      int      `json:"score"`
	Result     string   `json:"result"`
	Bet        int64    `json:"bet"`
	Returned   int64    `json:"returned"`
	Blackjack  bool     `json:"blackjack"`
	Busted     bool     `json:"busted"`
	IsSplit    bool     `json:"is_split"`
	IsDoubled  bool     `json:"is_doubled"`
}

// esSearchResponse is the subset of a search response the repository reads
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source ESRound `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
