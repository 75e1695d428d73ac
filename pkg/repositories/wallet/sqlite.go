package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/blackjack/pkg/db/migrations"
	"github.com/fadedpez/blackjack/pkg/entities"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Schema is the bankroll schema, applied through the migrator
var Schema = []migrations.Migration{
	{
		Version:     "001",
		Description: "bankrolls and transactions",
		SQL: `
		CREATE TABLE IF NOT EXISTS bankrolls (
			player_name TEXT PRIMARY KEY,
			balance INTEGER NOT NULL DEFAULT 0,
			currency TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			type TEXT NOT NULL,
			reference_id TEXT,
			description TEXT,
			timestamp TIMESTAMP NOT NULL,
			balance_after INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			FOREIGN KEY (player_name) REFERENCES bankrolls(player_name)
		);`,
	},
	{
		Version:     "002",
		Description: "transaction indexes",
		SQL: `
		CREATE INDEX IF NOT EXISTS idx_transactions_player ON transactions(player_name, seq DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);`,
	},
}

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and writes serialised
	db.SetMaxOpenConns(1)

	if _, err := migrations.NewMigrator(db, "wallet", Schema).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating bankroll schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// GetBankroll retrieves a bankroll by player name
func (r *SQLiteRepository) GetBankroll(ctx context.Context, playerName string) (*entities.Bankroll, error) {
	query := `SELECT player_name, balance, currency, updated_at FROM bankrolls WHERE player_name = ?`

	var bankroll entities.Bankroll
	var updatedAt string

	err := r.db.QueryRowContext(ctx, query, playerName).Scan(
		&bankroll.PlayerName,
		&bankroll.Balance.Amount,
		&bankroll.Balance.Currency,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBankrollNotFound
		}
		return nil, fmt.Errorf("error getting bankroll: %w", err)
	}

	if bankroll.LastUpdated, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &bankroll, nil
}

// SaveBankroll creates or updates a bankroll
func (r *SQLiteRepository) SaveBankroll(ctx context.Context, bankroll *entities.Bankroll) error {
	return saveBankroll(ctx, r.db, bankroll)
}

// AddTransaction records a new transaction
func (r *SQLiteRepository) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	return addTransaction(ctx, r.db, transaction)
}

// ApplyTransaction saves the bankroll and records the transaction in one
// database transaction
func (r *SQLiteRepository) ApplyTransaction(ctx context.Context, bankroll *entities.Bankroll, transaction *entities.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveBankroll(ctx, tx, bankroll); err != nil {
		return err
	}
	if err := addTransaction(ctx, tx, transaction); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func saveBankroll(ctx context.Context, db execer, bankroll *entities.Bankroll) error {
	query := `
		INSERT INTO bankrolls (player_name, balance, currency, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_name) DO UPDATE SET
			balance = excluded.balance,
			currency = excluded.currency,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		bankroll.PlayerName,
		bankroll.Balance.Amount,
		bankroll.Balance.Currency,
		bankroll.LastUpdated.UTC().Format(timestampFormat),
	)
	if err != nil {
		return fmt.Errorf("error saving bankroll: %w", err)
	}
	return nil
}

func addTransaction(ctx context.Context, db execer, transaction *entities.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}

	query := `
		INSERT INTO transactions (
			id, player_name, amount, currency, type, reference_id, description, timestamp, balance_after, seq
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions))
	`

	_, err := db.ExecContext(ctx, query,
		transaction.ID,
		transaction.PlayerName,
		transaction.Amount.Amount,
		transaction.Amount.Currency,
		transaction.Type,
		transaction.ReferenceID,
		transaction.Description,
		transaction.Timestamp.UTC().Format(timestampFormat),
		transaction.BalanceAfter.Amount,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("error adding transaction: %w", err)
	}
	return nil
}

// GetTransactions retrieves the most recent transactions for a player
func (r *SQLiteRepository) GetTransactions(ctx context.Context, playerName string, limit int) ([]*entities.Transaction, error) {
	query := `
		SELECT id, player_name, amount, currency, type, reference_id, description, timestamp, balance_after
		FROM transactions
		WHERE player_name = ?
		ORDER BY seq DESC
		LIMIT ?
	`
	return r.queryTransactions(ctx, query, playerName, limit)
}

// GetTransactionsByType retrieves transactions of a specific type
func (r *SQLiteRepository) GetTransactionsByType(ctx context.Context, playerName string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	query := `
		SELECT id, player_name, amount, currency, type, reference_id, description, timestamp, balance_after
		FROM transactions
		WHERE player_name = ? AND type = ?
		ORDER BY seq DESC
		LIMIT ?
	`
	return r.queryTransactions(ctx, query, playerName, transactionType, limit)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]*entities.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*entities.Transaction, 0)
	for rows.Next() {
		var tx entities.Transaction
		var referenceID, description sql.NullString
		var timestamp string

		err := rows.Scan(
			&tx.ID,
			&tx.PlayerName,
			&tx.Amount.Amount,
			&tx.Amount.Currency,
			&tx.Type,
			&referenceID,
			&description,
			&timestamp,
			&tx.BalanceAfter.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}

		tx.ReferenceID = referenceID.String
		tx.Description = description.String
		tx.BalanceAfter.Currency = tx.Amount.Currency
		if tx.Timestamp, err = parseTimestamp(timestamp); err != nil {
			return nil, err
		}

		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// parseTimestamp accepts the formats SQLite hands back for TIMESTAMP columns
func parseTimestamp(value string) (time.Time, error) {
	formats := []string{
		timestampFormat,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339Nano,
	}

	var err error
	for _, format := range formats {
		var t time.Time
		if t, err = time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("error parsing timestamp '%s': %w", value, err)
}
