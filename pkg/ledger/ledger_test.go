package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cbg = context.Background()

// flakyLedger fails every write while down is set
type flakyLedger struct {
	*Memory

	mu     sync.Mutex
	down   bool
	writes int
}

func (f *flakyLedger) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *flakyLedger) ApplyDelta(ctx context.Context, identity string, amount int) error {
	f.mu.Lock()
	f.writes++
	down := f.down
	f.mu.Unlock()

	if down {
		return errors.New("connection refused")
	}

	return f.Memory.ApplyDelta(ctx, identity, amount)
}

func TestMemory(t *testing.T) {
	a := assert.New(t)

	m := NewMemory(0)
	balance, err := m.GetBalance(cbg, "alice")
	a.NoError(err)
	a.Equal(DefaultStartingChips, balance)

	a.NoError(m.ApplyDelta(cbg, "alice", -150))
	a.NoError(m.ApplyDelta(cbg, "bob", 25))

	balance, _ = m.GetBalance(cbg, "alice")
	a.Equal(1850, balance)
	balance, _ = m.GetBalance(cbg, "bob")
	a.Equal(2025, balance)

	_, err = m.GetBalance(cbg, "")
	a.Equal(ErrInvalidIdentity, err)
	a.Equal(ErrInvalidIdentity, m.ApplyDelta(cbg, "", 5))
}

func TestPayer_Flush(t *testing.T) {
	a := assert.New(t)

	l := &flakyLedger{Memory: NewMemory(100), down: true}
	p := NewPayer(logrus.StandardLogger(), l, quartz.NewMock(t))

	p.Pay(map[string]int{"alice": -10, "bob": 15, "carol": 0})
	p.Pay(map[string]int{"alice": -5})
	a.Equal(map[string]int{"alice": -15, "bob": 15}, p.Pending())

	a.Error(p.Flush(cbg))
	a.Equal(map[string]int{"alice": -15, "bob": 15}, p.Pending(), "nothing is lost on failure")

	balance, err := p.Balance(cbg, "alice")
	require.NoError(t, err)
	a.Equal(85, balance, "reads include pending deltas")

	l.setDown(false)
	a.NoError(p.Flush(cbg))
	a.Empty(p.Pending())

	balance, _ = l.GetBalance(cbg, "alice")
	a.Equal(85, balance)
	balance, _ = p.Balance(cbg, "bob")
	a.Equal(115, balance)
}

func TestPayer_Run(t *testing.T) {
	a := assert.New(t)

	l := &flakyLedger{Memory: NewMemory(100), down: true}
	p := NewPayer(logrus.StandardLogger(), l, quartz.NewReal())
	p.MinBackoff = time.Millisecond
	p.MaxBackoff = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(cbg)
	done := make(chan error)
	go func() {
		done <- p.Run(ctx)
	}()

	p.Pay(map[string]int{"alice": 40})

	a.Eventually(func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.writes >= 3
	}, time.Second, time.Millisecond, "retries while the ledger is down")

	l.setDown(false)
	a.Eventually(func() bool {
		return len(p.Pending()) == 0
	}, time.Second, time.Millisecond)

	balance, _ := l.GetBalance(cbg, "alice")
	a.Equal(140, balance)

	cancel()
	a.NoError(<-done)
}

func TestPayer_nextBackoff(t *testing.T) {
	p := NewPayer(logrus.StandardLogger(), NewMemory(0), nil)
	p.MinBackoff = time.Second
	p.MaxBackoff = 5 * time.Second

	var backoff time.Duration
	var got []time.Duration
	for i := 0; i < 5; i++ {
		backoff = p.nextBackoff(backoff)
		got = append(got, backoff)
	}

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}, got)
}
