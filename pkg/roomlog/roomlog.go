// Package roomlog persists the round log of each room so it survives the room itself
package roomlog

import (
	"context"

	"blackjack-server/pkg/blackjack"
)

// DefaultLimit is how many entries are kept per room
const DefaultLimit = 60

// Store persists log entries per room
type Store interface {
	// Append adds entries to the end of the room's log
	Append(ctx context.Context, room string, entries []blackjack.LogEntry) error

	// Recent returns up to limit of the latest entries, oldest first
	Recent(ctx context.Context, room string, limit int) ([]blackjack.LogEntry, error)
}
