package roomlog

import (
	"context"
	"sync"

	"blackjack-server/pkg/blackjack"
)

// Memory is an in-process Store
type Memory struct {
	limit int

	mu    sync.Mutex
	rooms map[string][]blackjack.LogEntry
}

var _ Store = (*Memory)(nil)

// NewMemory returns a store that keeps limit entries per room
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Memory{
		limit: limit,
		rooms: make(map[string][]blackjack.LogEntry),
	}
}

// Append adds entries to the room's log
func (m *Memory) Append(_ context.Context, room string, entries []blackjack.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := append(m.rooms[room], entries...)
	if len(log) > m.limit {
		log = append([]blackjack.LogEntry(nil), log[len(log)-m.limit:]...)
	}

	m.rooms[room] = log
	return nil
}

// Recent returns the latest entries of the room
func (m *Memory) Recent(_ context.Context, room string, limit int) ([]blackjack.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.rooms[room]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}

	return append([]blackjack.LogEntry{}, log...), nil
}
