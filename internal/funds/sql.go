package funds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/store"
)

const balancesSchema = `
CREATE TABLE IF NOT EXISTS balances (
    account TEXT PRIMARY KEY,
    amount  INTEGER NOT NULL CHECK (amount >= 0)
);
`

// SQL keeps balances in their own SQLite database, apart from the registry.
// Amounts are stored as signed 64-bit integers, so balances above
// math.MaxInt64 are rejected with ErrBalanceOverflow.
type SQL struct {
	db *sql.DB
}

// OpenSQL opens or creates a balance ledger at path.
func OpenSQL(path string) (*SQL, error) {
	db, err := store.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(balancesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQL{db: db}, nil
}

// Close closes the database connection.
func (s *SQL) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Transfer moves amount from one account to another in one transaction.
func (s *SQL) Transfer(ctx context.Context, from, to kitty.Principal, amount kitty.Balance) error {
	if amount > math.MaxInt64 {
		return ErrBalanceOverflow
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transfer: begin: %w", err)
	}
	defer tx.Rollback()

	have, err := balance(ctx, tx, from)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if have < amount {
		return ErrInsufficientFunds
	}
	if from == to || amount == 0 {
		return nil
	}
	dest, err := balance(ctx, tx, to)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if dest > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}

	if err := setBalance(ctx, tx, from, have-amount); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if err := setBalance(ctx, tx, to, dest+amount); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transfer: commit: %w", err)
	}
	return nil
}

// Deposit credits amount to who.
func (s *SQL) Deposit(ctx context.Context, who kitty.Principal, amount kitty.Balance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deposit: begin: %w", err)
	}
	defer tx.Rollback()

	have, err := balance(ctx, tx, who)
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	if amount > math.MaxInt64 || have > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	if err := setBalance(ctx, tx, who, have+amount); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("deposit: commit: %w", err)
	}
	return nil
}

// Balance returns the balance of who. Unknown accounts hold zero.
func (s *SQL) Balance(ctx context.Context, who kitty.Principal) (kitty.Balance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("balance: begin: %w", err)
	}
	defer tx.Rollback()
	return balance(ctx, tx, who)
}

func balance(ctx context.Context, tx *sql.Tx, who kitty.Principal) (kitty.Balance, error) {
	var amount int64
	err := tx.QueryRowContext(ctx, `SELECT amount FROM balances WHERE account = ?`, string(who)).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return kitty.Balance(amount), nil
}

func setBalance(ctx context.Context, tx *sql.Tx, who kitty.Principal, amount kitty.Balance) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balances (account, amount) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET amount = excluded.amount
	`, string(who), int64(amount))
	if err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}
