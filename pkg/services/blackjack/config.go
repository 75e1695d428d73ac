package blackjack

import "github.com/fadedpez/blackjack/pkg/entities"

// Config holds the validated table rules a game runs with
type Config struct {
	DeckCount            int
	PenetrationThreshold float64
	AutoReshuffle        bool

	BlackjackPayout float64
	MaxSplits       int

	AllowSplit       bool
	AllowDoubleDown  bool
	AllowSurrender   bool
	DoubleAfterSplit bool
	DealerHitsSoft17 bool
	// DealerPlaysWhenAllBust keeps the dealer drawing when no player hand is
	// left standing
	DealerPlaysWhenAllBust bool

	Currency        string
	MinBet          entities.Money
	MaxBet          entities.Money
	DefaultBankroll entities.Money
	MinBankroll     entities.Money
	MaxBankroll     entities.Money
}

// DefaultConfig returns the house rules used when nothing is configured
func DefaultConfig() Config {
	return Config{
		DeckCount:              DefaultDecks,
		PenetrationThreshold:   DefaultPenetrationThreshold,
		AutoReshuffle:          true,
		BlackjackPayout:        1.5,
		MaxSplits:              DefaultMaxSplits,
		AllowSplit:             true,
		AllowDoubleDown:        true,
		AllowSurrender:         false,
		DoubleAfterSplit:       true,
		DealerHitsSoft17:       false,
		DealerPlaysWhenAllBust: true,
		Currency:               entities.DefaultCurrency,
		MinBet:                 entities.Dollars(5),
		MaxBet:                 entities.Dollars(500),
		DefaultBankroll:        entities.Dollars(1000),
		MinBankroll:            entities.Dollars(0),
		MaxBankroll:            entities.Dollars(100000),
	}
}
