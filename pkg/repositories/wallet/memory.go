package wallet

import (
	"context"
	"sync"

	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/google/uuid"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	bankrolls    map[string]*entities.Bankroll
	transactions map[string][]*entities.Transaction
	ids          map[string]struct{}
	mu           sync.RWMutex
}

// NewMemoryRepository creates a new in-memory bankroll repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bankrolls:    make(map[string]*entities.Bankroll),
		transactions: make(map[string][]*entities.Transaction),
		ids:          make(map[string]struct{}),
	}
}

// GetBankroll retrieves a bankroll by player name
func (r *MemoryRepository) GetBankroll(ctx context.Context, playerName string) (*entities.Bankroll, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bankroll, exists := r.bankrolls[playerName]
	if !exists {
		return nil, ErrBankrollNotFound
	}

	bankrollCopy := *bankroll
	return &bankrollCopy, nil
}

// SaveBankroll creates or updates a bankroll
func (r *MemoryRepository) SaveBankroll(ctx context.Context, bankroll *entities.Bankroll) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bankrollCopy := *bankroll
	r.bankrolls[bankroll.PlayerName] = &bankrollCopy
	return nil
}

// AddTransaction records a new transaction
func (r *MemoryRepository) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addTransaction(transaction)
}

// ApplyTransaction saves the bankroll and records the transaction under one lock
func (r *MemoryRepository) ApplyTransaction(ctx context.Context, bankroll *entities.Bankroll, transaction *entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.addTransaction(transaction); err != nil {
		return err
	}
	bankrollCopy := *bankroll
	r.bankrolls[bankroll.PlayerName] = &bankrollCopy
	return nil
}

func (r *MemoryRepository) addTransaction(transaction *entities.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if _, exists := r.ids[transaction.ID]; exists {
		return ErrDuplicateTransaction
	}

	txCopy := *transaction
	r.ids[transaction.ID] = struct{}{}
	r.transactions[transaction.PlayerName] = append(r.transactions[transaction.PlayerName], &txCopy)
	return nil
}

// GetTransactions retrieves the most recent transactions for a player
func (r *MemoryRepository) GetTransactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error) {
	return r.filter(playerName, limit, func(*entities.Transaction) bool { return true }), nil
}

// GetTransactionsByType retrieves transactions of a specific type
func (r *MemoryRepository) GetTransactionsByType(ctx context.Context, playerName string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	return r.filter(playerName, limit, func(tx *entities.Transaction) bool {
		return tx.Type == transactionType
	}), nil
}

func (r *MemoryRepository) filter(playerName string, limit int, keep func(*entities.Transaction) bool) []*entities.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transactions := r.transactions[playerName]
	result := make([]*entities.Transaction, 0)
	for i := len(transactions) - 1; i >= 0 && len(result) < limit; i-- {
		if keep(transactions[i]) {
			txCopy := *transactions[i]
			result = append(result, &txCopy)
		}
	}
	return result
}
