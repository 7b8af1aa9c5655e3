package ledger

import (
	"context"
	"database/sql"
)

// Postgres keeps balances in the `accounts` table
type Postgres struct {
	db            *sql.DB
	startingChips int
}

var _ Ledger = (*Postgres)(nil)

// NewPostgres returns a ledger backed by the database
func NewPostgres(db *sql.DB, startingChips int) *Postgres {
	if startingChips <= 0 {
		startingChips = DefaultStartingChips
	}

	return &Postgres{
		db:            db,
		startingChips: startingChips,
	}
}

// GetBalance returns the balance of the identity
func (p *Postgres) GetBalance(ctx context.Context, identity string) (int, error) {
	if identity == "" {
		return 0, ErrInvalidIdentity
	}

	const query = `
INSERT INTO accounts (identity, chips)
VALUES ($1, $2)
ON CONFLICT (identity) DO UPDATE SET identity = EXCLUDED.identity
RETURNING chips`

	var chips int
	if err := p.db.QueryRowContext(ctx, query, identity, p.startingChips).Scan(&chips); err != nil {
		return 0, err
	}

	return chips, nil
}

// applyDeltaQuery casts its parameters, lib/pq sends them untyped
const applyDeltaQuery = `
INSERT INTO accounts (identity, chips)
VALUES ($1, $2::integer)
ON CONFLICT (identity) DO UPDATE
SET chips = accounts.chips + $3::integer,
    updated = (NOW() AT TIME ZONE 'utc')`

// ApplyDelta adds amount to the balance of the identity
func (p *Postgres) ApplyDelta(ctx context.Context, identity string, amount int) error {
	if identity == "" {
		return ErrInvalidIdentity
	}

	// an account first seen on a write starts from the starting chips
	_, err := p.db.ExecContext(ctx, applyDeltaQuery, identity, p.startingChips+amount, amount)
	return err
}
