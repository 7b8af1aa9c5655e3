package blackjack

import (
	"fmt"
	"time"
)

// LogEntry is a single timestamped line of the round log
type LogEntry struct {
	// TS is a unix timestamp in seconds
	TS    int64  `json:"ts"`
	Event string `json:"event"`
}

// RoundLog is a bounded, ordered log of table events
// Entries that were added since the last TakeNew are tracked separately so they
// can be persisted.
type RoundLog struct {
	limit   int
	entries []LogEntry
	pending []LogEntry
}

// NewRoundLog returns a log that keeps at most limit entries
func NewRoundLog(limit int) *RoundLog {
	if limit <= 0 {
		limit = DefaultOptions().LogLimit
	}

	return &RoundLog{limit: limit}
}

// Preload seeds the log with previously persisted entries
// Preloaded entries are not considered new.
func (r *RoundLog) Preload(entries []LogEntry) {
	r.entries = trimLog(append(append([]LogEntry(nil), entries...), r.entries...), r.limit)
}

func (r *RoundLog) add(at time.Time, format string, a ...interface{}) {
	entry := LogEntry{
		TS:    at.Unix(),
		Event: fmt.Sprintf(format, a...),
	}

	r.entries = trimLog(append(r.entries, entry), r.limit)
	r.pending = append(r.pending, entry)
}

// Entries returns a copy of the retained entries, oldest first
func (r *RoundLog) Entries() []LogEntry {
	return append([]LogEntry{}, r.entries...)
}

// TakeNew returns the entries added since the last call
func (r *RoundLog) TakeNew() []LogEntry {
	pending := r.pending
	r.pending = nil
	return pending
}

func (r *RoundLog) clone() *RoundLog {
	return &RoundLog{
		limit:   r.limit,
		entries: append([]LogEntry(nil), r.entries...),
		pending: append([]LogEntry(nil), r.pending...),
	}
}

func trimLog(entries []LogEntry, limit int) []LogEntry {
	count := len(entries)
	if count > limit {
		entries = entries[count-limit:]
	}

	return entries
}
