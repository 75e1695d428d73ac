package entities

import (
	"time"
)

// Bankroll represents a player's funds available for wagering
type Bankroll struct {
	PlayerName  string    // Unique player name
	Balance     Money     // Current balance
	LastUpdated time.Time // When the bankroll was last updated
}

// TransactionType represents the type of bankroll transaction
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeBet        TransactionType = "BET"
	TransactionTypePayout     TransactionType = "PAYOUT"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// Transaction represents a single bankroll movement
type Transaction struct {
	ID           string          // Unique identifier
	PlayerName   string          // Player associated with the transaction
	Amount       Money           // Positive for credits, negative for debits
	Type         TransactionType // Type of transaction
	ReferenceID  string          // Optional reference (bet ID for bets and payouts)
	Description  string          // Human-readable description
	Timestamp    time.Time       // When the transaction occurred
	BalanceAfter Money           // Balance after this transaction
}
