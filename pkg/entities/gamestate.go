package entities

import "time"

// Result represents the outcome of one player hand against the dealer
type Result string

const (
	ResultWin       Result = "WIN"
	ResultLose      Result = "LOSE"
	ResultPush      Result = "PUSH"
	ResultBlackjack Result = "BLACKJACK"
	ResultSurrender Result = "SURRENDER"
)

// String returns the string representation of the result
func (r Result) String() string {
	return string(r)
}

// IsWin returns true if this result represents a win
func (r Result) IsWin() bool {
	return r == ResultWin || r == ResultBlackjack
}

// Phase is the lifecycle position of a round
type Phase string

const (
	PhaseNotStarted    Phase = "NOT_STARTED"
	PhaseBettingOpen   Phase = "BETTING_OPEN"
	PhaseInitialDeal   Phase = "INITIAL_DEAL"
	PhasePlayerTurns   Phase = "PLAYER_TURNS"
	PhaseDealerTurn    Phase = "DEALER_TURN"
	PhaseRoundComplete Phase = "ROUND_COMPLETE"
)

// Action is a decision a player makes on their active hand
type Action string

const (
	ActionHit        Action = "HIT"
	ActionStand      Action = "STAND"
	ActionDoubleDown Action = "DOUBLE_DOWN"
	ActionSplit      Action = "SPLIT"
	ActionSurrender  Action = "SURRENDER"
)

// HandOutcome is the final state of one player hand and how it fared
type HandOutcome struct {
	PlayerName  string `json:"player_name"`
	HandID      string `json:"hand_id"`
	Cards       []Card `json:"cards"`
	Value       int    `json:"value"`
	Result      Result `json:"result"`
	IsSplit     bool   `json:"is_split"`
	IsDoubled   bool   `json:"is_doubled"`
	IsBlackjack bool   `json:"is_blackjack"`
	IsBusted    bool   `json:"is_busted"`
}

// PayoutSummary aggregates the payouts of one round
type PayoutSummary struct {
	Wins          int      `json:"wins"`
	Losses        int      `json:"losses"`
	Pushes        int      `json:"pushes"`
	Blackjacks    int      `json:"blackjacks"`
	Surrenders    int      `json:"surrenders"`
	TotalWagered  Money    `json:"total_wagered"`
	TotalWinnings Money    `json:"total_winnings"`
	TotalReturned Money    `json:"total_returned"`
	Payouts       []Payout `json:"payouts"`
}

// PlayerSummary is one player's view of a finished round
type PlayerSummary struct {
	Name     string        `json:"name"`
	Hands    []HandOutcome `json:"hands"`
	Wagered  Money         `json:"wagered"`
	Returned Money         `json:"returned"`
	Net      Money         `json:"net"`
	Bankroll Money         `json:"bankroll"`
}

// GameSummary is the result of a finished round, handed to statistics and presentation
type GameSummary struct {
	RoundID         string          `json:"round_id"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     time.Time       `json:"completed_at"`
	DealerCards     []Card          `json:"dealer_cards"`
	DealerValue     int             `json:"dealer_value"`
	DealerBusted    bool            `json:"dealer_busted"`
	DealerBlackjack bool            `json:"dealer_blackjack"`
	Players         []PlayerSummary `json:"players"`
	Payouts         PayoutSummary   `json:"payouts"`
}

// Player returns the summary for the named player
func (s *GameSummary) Player(name string) (*PlayerSummary, bool) {
	for i := range s.Players {
		if s.Players[i].Name == name {
			return &s.Players[i], true
		}
	}
	return nil, false
}
