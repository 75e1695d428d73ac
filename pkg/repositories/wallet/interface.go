package wallet

import (
	"context"
	"errors"

	"github.com/fadedpez/blackjack/pkg/entities"
)

var (
	ErrBankrollNotFound     = errors.New("bankroll not found")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
)

//go:generate mockgen -source=interface.go -destination=mock/mock.go -package=mock

// Repository defines the interface for bankroll data operations
type Repository interface {
	// GetBankroll retrieves a bankroll by player name
	GetBankroll(ctx context.Context, playerName string) (*entities.Bankroll, error)

	// SaveBankroll creates or updates a bankroll
	SaveBankroll(ctx context.Context, bankroll *entities.Bankroll) error

	// AddTransaction records a new transaction
	AddTransaction(ctx context.Context, transaction *entities.Transaction) error

	// ApplyTransaction saves the bankroll and records the transaction that
	// produced it as one unit. Neither is stored when either fails.
	ApplyTransaction(ctx context.Context, bankroll *entities.Bankroll, transaction *entities.Transaction) error

	// GetTransactions retrieves the most recent transactions for a player, newest first
	GetTransactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error)

	// GetTransactionsByType retrieves transactions of a specific type, newest first
	GetTransactionsByType(ctx context.Context, playerName string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error)
}
