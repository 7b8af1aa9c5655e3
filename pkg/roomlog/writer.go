package roomlog

import (
	"context"
	"time"

	"blackjack-server/pkg/blackjack"

	"github.com/sirupsen/logrus"
)

const writerBuffer = 256

// drainTimeout bounds how long buffered entries are written after shutdown
const drainTimeout = 5 * time.Second

type batch struct {
	room    string
	entries []blackjack.LogEntry
}

// Writer appends log entries to a Store in the background
type Writer struct {
	store  Store
	logger logrus.FieldLogger
	queue  chan batch
}

// NewWriter returns a writer for the store
func NewWriter(logger logrus.FieldLogger, store Store) *Writer {
	return &Writer{
		store:  store,
		logger: logger.WithField("component", "roomlog"),
		queue:  make(chan batch, writerBuffer),
	}
}

// Store returns the underlying store
func (w *Writer) Store() Store {
	return w.store
}

// Write queues entries for the room, it never blocks
// Entries are dropped (and a warning logged) if the queue is full.
func (w *Writer) Write(room string, entries []blackjack.LogEntry) {
	if len(entries) == 0 {
		return
	}

	select {
	case w.queue <- batch{room: room, entries: entries}:
	default:
		w.logger.WithField("room", room).WithField("entries", len(entries)).Warn("log queue is full, dropping entries")
	}
}

// Run writes queued entries until ctx is done, then drains what is left
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case b := <-w.queue:
			w.append(ctx, b)
		}
	}
}

func (w *Writer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case b := <-w.queue:
			w.append(ctx, b)
		default:
			return
		}
	}
}

func (w *Writer) append(ctx context.Context, b batch) {
	if err := w.store.Append(ctx, b.room, b.entries); err != nil {
		w.logger.WithError(err).WithField("room", b.room).Error("could not persist log entries")
	}
}

// Recent reads the most recent persisted entries for the room
func (w *Writer) Recent(ctx context.Context, room string, limit int) ([]blackjack.LogEntry, error) {
	return w.store.Recent(ctx, room, limit)
}
