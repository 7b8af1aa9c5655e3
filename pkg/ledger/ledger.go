// Package ledger keeps the durable chip balance of every player identity
package ledger

import (
	"context"
	"errors"
)

// DefaultStartingChips is the balance of an identity the ledger has never seen
const DefaultStartingChips = 2000

// ErrInvalidIdentity is returned for an empty identity
var ErrInvalidIdentity = errors.New("identity is required")

// Ledger owns chip balances keyed by player identity
type Ledger interface {
	// GetBalance returns the balance, creating the account with the starting chips if needed
	GetBalance(ctx context.Context, identity string) (int, error)

	// ApplyDelta adds amount (which may be negative) to the balance
	ApplyDelta(ctx context.Context, identity string, amount int) error
}
