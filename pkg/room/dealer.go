package room

import (
	"context"
	"errors"
	"maps"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"blackjack-server/pkg/blackjack"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"
)

// execBuffer is how many commands can queue up for a room
const execBuffer = 256

type job struct {
	fn   func() error
	done chan error
}

// Dealer is responsible for running a single room
// Every command against the session is executed on the dealer's run loop, so a
// room never sees two commands at once.
type Dealer struct {
	code        string
	pitBoss     *PitBoss
	session     *blackjack.Session
	logger      logrus.FieldLogger
	clock       quartz.Clock
	turnTimeout time.Duration

	// clients that receive room pushes, only touched from the run loop
	clients map[string]*Client

	// summary is published after every command so listing never waits on the run loop
	summary atomic.Pointer[blackjack.Summary]

	execInRunLoop chan job
	close         chan struct{}
	closeOnce     sync.Once

	// retired is set once the last connected player left, only touched from the run loop
	retired bool

	timer      *quartz.Timer
	timerToken blackjack.TurnToken
}

// NewDealer creates a new dealer object
// This is called from a blocking state, so it needs to return quickly
func NewDealer(pitBoss *PitBoss, session *blackjack.Session) *Dealer {
	d := &Dealer{
		code:          session.Code,
		pitBoss:       pitBoss,
		session:       session,
		logger:        pitBoss.logger.WithField("room", session.Code),
		clock:         pitBoss.options.Clock,
		turnTimeout:   pitBoss.options.TurnTimeout,
		clients:       make(map[string]*Client),
		execInRunLoop: make(chan job, execBuffer),
		close:         make(chan struct{}),
	}

	d.publishSummary()
	return d
}

// Code returns the room code
func (d *Dealer) Code() string {
	return d.code
}

// Summary returns the last published summary of the room
func (d *Dealer) Summary() blackjack.Summary {
	return *d.summary.Load()
}

// StartShift starts the run loop
func (d *Dealer) StartShift() {
	go d.runLoop()
}

// EndShift is called when the dealer is no longer needed
func (d *Dealer) EndShift() {
	d.closeOnce.Do(func() {
		close(d.close)
	})
}

func (d *Dealer) runLoop() {
	d.logger.Debug("creating dealer run loop")
	for {
		select {
		case j := <-d.execInRunLoop:
			j.done <- d.exec(j.fn)
		case <-d.close:
			d.stopTimer()
			d.logger.Debug("terminating dealer run loop")
			return
		}
	}
}

// Do runs fn against the session on the run loop and waits for it
// If fn succeeds, the new state is pushed to every client in the room. If fn fails
// or panics, the session is rolled back to the state it had before fn ran.
func (d *Dealer) Do(ctx context.Context, fn func(s *blackjack.Session) error) error {
	return d.enqueue(ctx, func() error {
		return fn(d.session)
	})
}

func (d *Dealer) enqueue(ctx context.Context, fn func() error) error {
	j := job{fn: fn, done: make(chan error, 1)}

	select {
	case d.execInRunLoop <- j:
	case <-d.close:
		return ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-d.close:
		// the job that retired the room finishes before the loop is closed
		select {
		case err := <-j.done:
			return err
		default:
			return ErrRoomNotFound
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NOTE: must only be called from the run loop
func (d *Dealer) exec(fn func() error) (err error) {
	if d.retired {
		return ErrRoomNotFound
	}

	checkpoint := d.session.Checkpoint()
	clients := maps.Clone(d.clients)

	defer func() {
		if r := recover(); r != nil {
			d.session.Restore(checkpoint)
			d.clients = clients
			d.logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("command panicked, room was rolled back")
			err = errInternal
		}
	}()

	if err := fn(); err != nil {
		d.session.Restore(checkpoint)
		d.clients = clients
		return err
	}

	d.commit()
	return nil
}

// commit hands the results of a command to the collaborators
// NOTE: must only be called from the run loop
func (d *Dealer) commit() {
	if settlement := d.session.TakeSettlement(); settlement != nil {
		d.logger.WithField("round", settlement.Round).WithField("deltas", settlement.Deltas).Info("round settled")
		d.pitBoss.cashier.Pay(settlement.Deltas)
		d.pitBoss.releaseStakes(d)
	}

	if entries := d.session.TakeNewLogs(); len(entries) > 0 {
		d.pitBoss.logs.Write(d.code, entries)
	}

	d.publishSummary()
	d.broadcast()
	d.armTimer()
}

func (d *Dealer) publishSummary() {
	summary := d.session.Summary()
	d.summary.Store(&summary)
}

// NOTE: must only be called from the run loop
func (d *Dealer) broadcast() {
	state := newRoomState(d.session.State())
	logs := newRoomLogs(d.session.Logs())

	for _, client := range d.clients {
		if !client.Send(state) || !client.Send(logs) {
			d.logger.WithField("client", client.String()).Warn("client is not keeping up, dropped room update")
		}
	}
}

// armTimer starts the auto-stand timer for the current turn
// NOTE: must only be called from the run loop
func (d *Dealer) armTimer() {
	if d.turnTimeout <= 0 {
		return
	}

	token, ok := d.session.TurnToken()
	if d.timer != nil {
		if ok && token == d.timerToken {
			return
		}

		d.stopTimer()
	}

	if !ok {
		return
	}

	d.timerToken = token
	d.timer = d.clock.AfterFunc(d.turnTimeout, func() {
		err := d.enqueue(context.Background(), func() error {
			return d.session.AutoStand(token)
		})

		if err != nil && !errors.Is(err, blackjack.ErrStaleTurn) && !errors.Is(err, ErrRoomNotFound) {
			d.logger.WithError(err).Error("could not stand after the turn timed out")
		}
	}, "dealer", "autoStand")
}

func (d *Dealer) stopTimer() {
	if d.timer == nil {
		return
	}

	d.timer.Stop()
	d.timer = nil
}

// addClient seats the client and starts sending it room pushes
func (d *Dealer) addClient(ctx context.Context, client *Client, balance int) error {
	return d.enqueue(ctx, func() error {
		if err := d.session.Seat(client.playerInfo(balance)); err != nil {
			return err
		}

		d.pitBoss.reclaimStake(client, d)
		d.clients[client.ID] = client
		return nil
	})
}

// removeClient unseats the client
// retired is true if the room has no connected players left and must be reclaimed.
func (d *Dealer) removeClient(ctx context.Context, client *Client) (retired bool, err error) {
	err = d.enqueue(ctx, func() error {
		if err := d.session.Unseat(client.ID); err != nil {
			return err
		}

		delete(d.clients, client.ID)
		if d.session.StakeOpen(client.ID) {
			d.pitBoss.holdStake(client, d)
		}

		if d.session.PlayerCount() == 0 {
			d.retired = true
			retired = true
		}

		return nil
	})

	return retired, err
}
