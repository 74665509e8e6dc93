// Package funds implements the fungible-balance ledger the registry pays
// through. The registry only calls Transfer; Deposit and Balance are for
// operators and tests.
package funds

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/kitties/internal/kitty"
)

var (
	// ErrInsufficientFunds is returned when the payer's balance is short.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrBalanceOverflow is returned when a credit would exceed the balance range.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Memory keeps balances in a map.
type Memory struct {
	mu       sync.Mutex
	balances map[kitty.Principal]kitty.Balance
}

// NewMemory creates a ledger with the given opening balances.
func NewMemory(initial map[kitty.Principal]kitty.Balance) *Memory {
	m := &Memory{balances: make(map[kitty.Principal]kitty.Balance, len(initial))}
	for who, amt := range initial {
		m.balances[who] = amt
	}
	return m
}

// Transfer moves amount from one account to another, or nothing on error.
func (m *Memory) Transfer(ctx context.Context, from, to kitty.Principal, amount kitty.Balance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.balances[from] < amount {
		return ErrInsufficientFunds
	}
	if from == to || amount == 0 {
		return nil
	}
	if m.balances[to]+amount < m.balances[to] {
		return ErrBalanceOverflow
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

// Deposit credits amount to who.
func (m *Memory) Deposit(ctx context.Context, who kitty.Principal, amount kitty.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[who]+amount < m.balances[who] {
		return ErrBalanceOverflow
	}
	m.balances[who] += amount
	return nil
}

// Balance returns the balance of who. Unknown accounts hold zero.
func (m *Memory) Balance(ctx context.Context, who kitty.Principal) (kitty.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[who], nil
}
