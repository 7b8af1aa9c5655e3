package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"
)

// Backoff bounds used by Payer when the ledger is unavailable
const (
	DefaultMinBackoff = 500 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second
)

// Payer sends chip deltas to a ledger in the background
// Deltas are cached until the ledger accepts them, so a settled round never waits on the ledger
// and is never lost because of it.
type Payer struct {
	ledger Ledger
	clock  quartz.Clock
	logger logrus.FieldLogger

	MinBackoff time.Duration
	MaxBackoff time.Duration

	mu      sync.Mutex
	pending map[string]int

	// flushing is held for writing while deltas are in flight
	flushing sync.RWMutex
	wake     chan struct{}
}

// NewPayer returns a payer for the ledger
func NewPayer(logger logrus.FieldLogger, ledger Ledger, clock quartz.Clock) *Payer {
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &Payer{
		ledger:     ledger,
		clock:      clock,
		logger:     logger.WithField("component", "payer"),
		MinBackoff: DefaultMinBackoff,
		MaxBackoff: DefaultMaxBackoff,
		pending:    make(map[string]int),
		wake:       make(chan struct{}, 1),
	}
}

// Pay queues the deltas, it never blocks on the ledger
func (p *Payer) Pay(deltas map[string]int) {
	p.mu.Lock()
	for identity, amount := range deltas {
		if amount == 0 {
			continue
		}

		p.pending[identity] += amount
		if p.pending[identity] == 0 {
			delete(p.pending, identity)
		}
	}
	p.mu.Unlock()

	p.signal()
}

func (p *Payer) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Balance returns the ledger balance plus any delta that has not been written yet
func (p *Payer) Balance(ctx context.Context, identity string) (int, error) {
	p.flushing.RLock()
	defer p.flushing.RUnlock()

	balance, err := p.ledger.GetBalance(ctx, identity)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return balance + p.pending[identity], nil
}

// Pending returns a copy of the deltas that have not been written yet
func (p *Payer) Pending() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := make(map[string]int, len(p.pending))
	for identity, amount := range p.pending {
		pending[identity] = amount
	}

	return pending
}

// Flush writes every pending delta to the ledger
// It stops at the first failure; deltas that were not written stay pending.
func (p *Payer) Flush(ctx context.Context) error {
	p.flushing.Lock()
	defer p.flushing.Unlock()

	batch := p.Pending()
	identities := make([]string, 0, len(batch))
	for identity := range batch {
		identities = append(identities, identity)
	}

	sort.Strings(identities)

	for _, identity := range identities {
		amount := batch[identity]
		if err := p.ledger.ApplyDelta(ctx, identity, amount); err != nil {
			return fmt.Errorf("could not apply %d chips to %s: %w", amount, identity, err)
		}

		p.mu.Lock()
		p.pending[identity] -= amount
		if p.pending[identity] == 0 {
			delete(p.pending, identity)
		}
		p.mu.Unlock()
	}

	return nil
}

// Run flushes deltas as they arrive, retrying with backoff until ctx is done
func (p *Payer) Run(ctx context.Context) error {
	var backoff time.Duration
	for {
		select {
		case <-ctx.Done():
			if pending := p.Pending(); len(pending) > 0 {
				p.logger.WithField("identities", len(pending)).Warn("stopping with unwritten chip deltas")
			}

			return nil
		case <-p.wake:
		}

		if err := p.Flush(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}

			backoff = p.nextBackoff(backoff)
			p.logger.WithError(err).WithField("retryIn", backoff).Warn("could not write chip deltas")
			p.clock.AfterFunc(backoff, p.signal, "payer", "retry")
			continue
		}

		backoff = 0
	}
}

func (p *Payer) nextBackoff(backoff time.Duration) time.Duration {
	if backoff == 0 {
		return p.MinBackoff
	}

	backoff *= 2
	if backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}

	return backoff
}
