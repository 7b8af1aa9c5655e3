package ledger

import (
	"context"
	"sync"
)

// Memory is an in-process ledger
// Balances are lost when the process exits.
type Memory struct {
	startingChips int

	mu       sync.Mutex
	balances map[string]int
}

var _ Ledger = (*Memory)(nil)

// NewMemory returns an empty in-memory ledger
func NewMemory(startingChips int) *Memory {
	if startingChips <= 0 {
		startingChips = DefaultStartingChips
	}

	return &Memory{
		startingChips: startingChips,
		balances:      make(map[string]int),
	}
}

func (m *Memory) account(identity string) int {
	balance, ok := m.balances[identity]
	if !ok {
		balance = m.startingChips
		m.balances[identity] = balance
	}

	return balance
}

// GetBalance returns the balance of the identity
func (m *Memory) GetBalance(_ context.Context, identity string) (int, error) {
	if identity == "" {
		return 0, ErrInvalidIdentity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.account(identity), nil
}

// ApplyDelta adds amount to the balance of the identity
func (m *Memory) ApplyDelta(_ context.Context, identity string, amount int) error {
	if identity == "" {
		return ErrInvalidIdentity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[identity] = m.account(identity) + amount
	return nil
}
