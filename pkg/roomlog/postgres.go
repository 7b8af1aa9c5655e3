package roomlog

import (
	"context"
	"database/sql"

	"blackjack-server/pkg/blackjack"

	"github.com/sirupsen/logrus"
)

// Postgres keeps every room's log in the `game_log` table
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres returns a store backed by the database
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Append inserts the entries in a single transaction
func (p *Postgres) Append(ctx context.Context, room string, entries []blackjack.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	commit := false
	defer func() {
		if !commit {
			if err := tx.Rollback(); err != nil {
				logrus.WithError(err).Error("could not rollback transaction")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO game_log (room, ts, event) VALUES ($1, $2, $3)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, room, entry.TS, entry.Event); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	commit = true
	return nil
}

// Recent returns the latest entries of the room
func (p *Postgres) Recent(ctx context.Context, room string, limit int) ([]blackjack.LogEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	const query = `
SELECT ts, event
FROM game_log
WHERE room = $1
ORDER BY id DESC
LIMIT $2`

	rows, err := p.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]blackjack.LogEntry, 0, limit)
	for rows.Next() {
		var entry blackjack.LogEntry
		if err := rows.Scan(&entry.TS, &entry.Event); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// newest first from the query
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return entries, nil
}
