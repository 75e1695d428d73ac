package config

import (
	"fmt"
	"os"

	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/fadedpez/blackjack/pkg/services/betting"
	"github.com/fadedpez/blackjack/pkg/services/blackjack"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// RulesFile is the HCL layout of a table rules file:
//
//	table {
//	  decks           = 6
//	  penetration     = 0.25
//	  max_split_hands = 4
//	  allow_surrender = true
//	}
//
//	betting {
//	  min_bet = 10
//	  max_bet = 1000
//	}
type RulesFile struct {
	Table   *TableRules   `hcl:"table,block"`
	Betting *BettingRules `hcl:"betting,block"`
}

// TableRules are the dealing and play options. Unset values keep the house default.
type TableRules struct {
	Decks                  int     `hcl:"decks,optional"`
	Penetration            float64 `hcl:"penetration,optional"`
	AutoReshuffle          *bool   `hcl:"auto_reshuffle,optional"`
	BlackjackPayout        float64 `hcl:"blackjack_payout,optional"`
	MaxSplitHands          int     `hcl:"max_split_hands,optional"`
	AllowSplit             *bool   `hcl:"allow_split,optional"`
	AllowDoubleDown        *bool   `hcl:"allow_double_down,optional"`
	AllowSurrender         *bool   `hcl:"allow_surrender,optional"`
	DoubleAfterSplit       *bool   `hcl:"double_after_split,optional"`
	DealerHitsSoft17       *bool   `hcl:"dealer_hits_soft_17,optional"`
	DealerPlaysWhenAllBust *bool   `hcl:"dealer_plays_when_all_bust,optional"`
}

// BettingRules are the money limits, in whole currency units
type BettingRules struct {
	Currency        string   `hcl:"currency,optional"`
	MinBet          float64  `hcl:"min_bet,optional"`
	MaxBet          float64  `hcl:"max_bet,optional"`
	DefaultBankroll float64  `hcl:"default_bankroll,optional"`
	MinBankroll     *float64 `hcl:"min_bankroll,optional"`
	MaxBankroll     float64  `hcl:"max_bankroll,optional"`
}

// LoadRules reads table rules from an HCL file. An empty filename or a missing
// file yields the house defaults.
func LoadRules(filename string) (blackjack.Config, error) {
	if filename == "" {
		return blackjack.DefaultConfig(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return blackjack.DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return blackjack.Config{}, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decodeRules(file)
}

// ParseRules reads table rules from HCL source
func ParseRules(src []byte, filename string) (blackjack.Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return blackjack.Config{}, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decodeRules(file)
}

func decodeRules(file *hcl.File) (blackjack.Config, error) {
	var rules RulesFile
	if diags := gohcl.DecodeBody(file.Body, nil, &rules); diags.HasErrors() {
		return blackjack.Config{}, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := rules.Apply(blackjack.DefaultConfig())
	if err := ValidateRules(cfg); err != nil {
		return blackjack.Config{}, err
	}
	return cfg, nil
}

// Apply overlays the values set in the file on top of cfg
func (r RulesFile) Apply(cfg blackjack.Config) blackjack.Config {
	if t := r.Table; t != nil {
		if t.Decks != 0 {
			cfg.DeckCount = t.Decks
		}
		if t.Penetration != 0 {
			cfg.PenetrationThreshold = t.Penetration
		}
		if t.BlackjackPayout != 0 {
			cfg.BlackjackPayout = t.BlackjackPayout
		}
		if t.MaxSplitHands != 0 {
			cfg.MaxSplits = t.MaxSplitHands - 1
		}
		setBool(&cfg.AutoReshuffle, t.AutoReshuffle)
		setBool(&cfg.AllowSplit, t.AllowSplit)
		setBool(&cfg.AllowDoubleDown, t.AllowDoubleDown)
		setBool(&cfg.AllowSurrender, t.AllowSurrender)
		setBool(&cfg.DoubleAfterSplit, t.DoubleAfterSplit)
		setBool(&cfg.DealerHitsSoft17, t.DealerHitsSoft17)
		setBool(&cfg.DealerPlaysWhenAllBust, t.DealerPlaysWhenAllBust)
	}

	if b := r.Betting; b != nil {
		if b.Currency != "" {
			cfg.Currency = b.Currency
		}
		money := func(target *entities.Money, amount float64) {
			if amount != 0 {
				*target = entities.FromMajor(amount, cfg.Currency)
			}
		}
		money(&cfg.MinBet, b.MinBet)
		money(&cfg.MaxBet, b.MaxBet)
		money(&cfg.DefaultBankroll, b.DefaultBankroll)
		money(&cfg.MaxBankroll, b.MaxBankroll)
		if b.MinBankroll != nil {
			cfg.MinBankroll = entities.FromMajor(*b.MinBankroll, cfg.Currency)
		}
		// Amounts left at their defaults follow the configured currency
		for _, m := range []*entities.Money{&cfg.MinBet, &cfg.MaxBet, &cfg.DefaultBankroll, &cfg.MinBankroll, &cfg.MaxBankroll} {
			m.Currency = cfg.Currency
		}
	}
	return cfg
}

func setBool(target *bool, value *bool) {
	if value != nil {
		*target = *value
	}
}

// ValidateRules checks table rules against the ranges the engine supports
func ValidateRules(cfg blackjack.Config) error {
	if cfg.DeckCount < blackjack.MinDecks || cfg.DeckCount > blackjack.MaxDecks {
		return fmt.Errorf("decks must be between %d and %d, got %d", blackjack.MinDecks, blackjack.MaxDecks, cfg.DeckCount)
	}
	if cfg.PenetrationThreshold < 0.1 || cfg.PenetrationThreshold > 0.9 {
		return fmt.Errorf("penetration must be between 0.1 and 0.9, got %g", cfg.PenetrationThreshold)
	}
	if cfg.BlackjackPayout < 1.0 || cfg.BlackjackPayout > 2.0 {
		return fmt.Errorf("blackjack payout must be between 1.0 and 2.0, got %g", cfg.BlackjackPayout)
	}
	if hands := cfg.MaxSplits + 1; hands < 2 || hands > 4 {
		return fmt.Errorf("max split hands must be between 2 and 4, got %d", hands)
	}
	if cfg.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if !cfg.MinBet.IsPositive() {
		return fmt.Errorf("minimum bet must be positive, got %s", cfg.MinBet)
	}
	if cfg.MinBet.Amount > cfg.MaxBet.Amount {
		return fmt.Errorf("minimum bet %s is above maximum bet %s", cfg.MinBet, cfg.MaxBet)
	}
	if cfg.MinBankroll.IsNegative() {
		return fmt.Errorf("minimum bankroll cannot be negative, got %s", cfg.MinBankroll)
	}
	if cfg.DefaultBankroll.Amount < cfg.MinBankroll.Amount || cfg.DefaultBankroll.Amount > cfg.MaxBankroll.Amount {
		return fmt.Errorf("default bankroll %s must be between %s and %s", cfg.DefaultBankroll, cfg.MinBankroll, cfg.MaxBankroll)
	}
	return nil
}

// BettingConfig derives the betting service limits from table rules
func BettingConfig(cfg blackjack.Config) betting.Config {
	return betting.Config{
		Currency:        cfg.Currency,
		MinBet:          cfg.MinBet,
		MaxBet:          cfg.MaxBet,
		DefaultBankroll: cfg.DefaultBankroll,
		MinBankroll:     cfg.MinBankroll,
		MaxBankroll:     cfg.MaxBankroll,
		BlackjackPayout: cfg.BlackjackPayout,
	}
}
