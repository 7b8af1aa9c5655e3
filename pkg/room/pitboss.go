package room

import (
	"context"
	"errors"
	"iter"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"blackjack-server/internal/rng"
	"blackjack-server/pkg/blackjack"
	"blackjack-server/pkg/deck"
	"blackjack-server/pkg/token"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"
)

const maxRoomCodeLength = 16

// generateAttempts bounds how many random codes are tried before giving up
const generateAttempts = 5

// disconnectTimeout bounds how long a disconnect waits on the room
const disconnectTimeout = 5 * time.Second

var roomCodePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// ErrAlreadyPlaying is returned when the same account is seated from another connection
var ErrAlreadyPlaying = blackjack.IllegalStateError("you are already playing from another connection")

// ErrChipsInPlay is returned when an account that left mid-round sits down before that round settled
var ErrChipsInPlay = blackjack.IllegalStateError("your chips are still in play, wait for the round to settle")

// Cashier reads balances and receives settlements
type Cashier interface {
	// Balance returns the chip balance of the account
	Balance(ctx context.Context, identity string) (int, error)

	// Pay queues net chip deltas per account, it must not block
	Pay(deltas map[string]int)
}

// LogWriter persists and reads back room logs
type LogWriter interface {
	// Write queues entries for the room, it must not block
	Write(room string, entries []blackjack.LogEntry)

	// Recent returns the most recent persisted entries, oldest first
	Recent(ctx context.Context, room string, limit int) ([]blackjack.LogEntry, error)
}

// Options configure the rooms a PitBoss creates
type Options struct {
	Table blackjack.Options

	// TurnTimeout stands a hand automatically if the player does not act in time
	// Zero disables the timer.
	TurnTimeout time.Duration

	Clock quartz.Clock

	// NewShoe returns the shoe for a new room, defaults to a crypto-shuffled shoe
	NewShoe func(decks int) *deck.Shoe
}

// PitBoss is responsible for dispatching players to rooms
type PitBoss struct {
	logger  logrus.FieldLogger
	cashier Cashier
	logs    LogWriter
	options Options

	lock    sync.RWMutex
	dealers map[string]*Dealer
	// clients are all connected clients, they receive the rooms list
	clients map[string]*Client
	// members maps a client ID to the room it is seated in
	members map[string]*Dealer
	// identities maps an account to the client ID it is seated with
	identities map[string]string
	// departed maps an account that left mid-round to the seat holding its stake
	departed map[string]departure
}

type departure struct {
	dealer   *Dealer
	clientID string
}

// NewPitBoss returns a new dispatch object
func NewPitBoss(logger logrus.FieldLogger, cashier Cashier, logs LogWriter, options Options) *PitBoss {
	if options.Clock == nil {
		options.Clock = quartz.NewReal()
	}

	if options.NewShoe == nil {
		options.NewShoe = func(decks int) *deck.Shoe {
			return deck.NewShoe(decks, rng.Crypto{})
		}
	}

	return &PitBoss{
		logger:     logger,
		cashier:    cashier,
		logs:       logs,
		options:    options,
		dealers:    make(map[string]*Dealer),
		clients:    make(map[string]*Client),
		members:    make(map[string]*Dealer),
		identities: make(map[string]string),
		departed:   make(map[string]departure),
	}
}

// NormalizeCode trims and upper-cases a room code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateCode(code string) error {
	if len(code) == 0 || len(code) > maxRoomCodeLength || !roomCodePattern.MatchString(code) {
		return ErrInvalidRoomCode
	}

	return nil
}

// ClientConnected is called when a client connects to the server
func (p *PitBoss) ClientConnected(client *Client) {
	p.lock.Lock()
	p.clients[client.ID] = client
	p.lock.Unlock()

	p.logger.WithField("client", client.String()).Debug("client connected")
	client.Send(newRoomsList(slices.Collect(p.List())))
}

// ClientDisconnected is called when a client disconnects from the server
// The client leaves its room, open hands stand.
func (p *PitBoss) ClientDisconnected(client *Client) {
	p.lock.Lock()
	delete(p.clients, client.ID)
	dealer := p.members[client.ID]
	p.lock.Unlock()

	p.logger.WithField("client", client.String()).Debug("client disconnected")
	if dealer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := p.leave(ctx, client, dealer); err != nil {
		p.logger.WithError(err).WithField("client", client.String()).Error("could not remove disconnected client")
	}
}

// Room returns the room with the code
func (p *PitBoss) Room(code string) (*Dealer, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	d, ok := p.dealers[NormalizeCode(code)]
	return d, ok
}

// RoomOf returns the room the client is seated in
func (p *PitBoss) RoomOf(client *Client) (*Dealer, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	d, ok := p.members[client.ID]
	return d, ok
}

// List returns a summary of every room, ordered by code
// Summaries are read when the sequence is iterated.
func (p *PitBoss) List() iter.Seq[blackjack.Summary] {
	return func(yield func(blackjack.Summary) bool) {
		p.lock.RLock()
		dealers := make([]*Dealer, 0, len(p.dealers))
		for _, d := range p.dealers {
			dealers = append(dealers, d)
		}
		p.lock.RUnlock()

		slices.SortFunc(dealers, func(a, b *Dealer) int {
			return strings.Compare(a.code, b.code)
		})

		for _, d := range dealers {
			if !yield(d.Summary()) {
				return
			}
		}
	}
}

// Create opens a new room with the client seated as host
// An empty code generates one. The code of the new room is returned.
func (p *PitBoss) Create(ctx context.Context, client *Client, code string) (string, error) {
	code, err := p.newCode(code)
	if err != nil {
		return "", err
	}

	if err := p.leaveCurrent(ctx, client); err != nil {
		return "", err
	}

	if err := p.claimIdentity(client, nil); err != nil {
		return "", err
	}

	d, err := p.openRoom(ctx, client, code)
	if err != nil {
		p.releaseIdentity(client)
		return "", err
	}

	p.lock.Lock()
	if _, exists := p.dealers[code]; exists {
		p.lock.Unlock()
		p.releaseIdentity(client)
		return "", AlreadyExistsError(code)
	}

	p.dealers[code] = d
	p.members[client.ID] = d
	p.lock.Unlock()

	p.logger.WithField("room", code).WithField("client", client.String()).Info("room created")

	d.StartShift()

	// push the first state and persist the join
	if err := d.enqueue(ctx, func() error { return nil }); err != nil {
		p.logger.WithError(err).WithField("room", code).Warn("could not push initial room state")
	}

	p.broadcastRoomsList()
	return code, nil
}

func (p *PitBoss) newCode(code string) (string, error) {
	code = NormalizeCode(code)
	if code != "" {
		if err := validateCode(code); err != nil {
			return "", err
		}

		if _, exists := p.Room(code); exists {
			return "", AlreadyExistsError(code)
		}

		return code, nil
	}

	for i := 0; i < generateAttempts; i++ {
		generated, err := token.RoomCode()
		if err != nil {
			return "", err
		}

		if _, exists := p.Room(generated); !exists {
			return generated, nil
		}
	}

	return "", errors.New("could not generate a free room code")
}

// openRoom builds the session with the creator seated, the room is not visible yet
func (p *PitBoss) openRoom(ctx context.Context, client *Client, code string) (*Dealer, error) {
	balance, err := p.cashier.Balance(ctx, client.Identity)
	if err != nil {
		return nil, err
	}

	decks := p.options.Table.Decks
	if decks <= 0 {
		decks = blackjack.DefaultOptions().Decks
	}

	session := blackjack.NewSession(p.logger, code, p.options.Table, p.options.NewShoe(decks), p.options.Clock)

	history, err := p.logs.Recent(ctx, code, session.Options().LogLimit)
	if err != nil {
		p.logger.WithError(err).WithField("room", code).Warn("could not load room history")
	} else {
		session.PreloadLogs(history)
	}

	if err := session.Seat(client.playerInfo(balance)); err != nil {
		return nil, err
	}

	d := NewDealer(p, session)
	d.clients[client.ID] = client
	return d, nil
}

// Join seats the client in an existing room
// A client seated in another room leaves it first.
func (p *PitBoss) Join(ctx context.Context, client *Client, code string) error {
	d, ok := p.Room(code)
	if !ok {
		return ErrRoomNotFound
	}

	if current, ok := p.RoomOf(client); ok {
		if current == d {
			return blackjack.ErrAlreadySeated
		}

		if err := p.leave(ctx, client, current); err != nil {
			return err
		}
	}

	if err := p.claimIdentity(client, d); err != nil {
		return err
	}

	balance, err := p.cashier.Balance(ctx, client.Identity)
	if err != nil {
		p.releaseIdentity(client)
		return err
	}

	if err := d.addClient(ctx, client, balance); err != nil {
		p.releaseIdentity(client)
		return err
	}

	p.lock.Lock()
	p.members[client.ID] = d
	p.lock.Unlock()

	p.broadcastRoomsList()
	return nil
}

// Leave removes the client from the room
func (p *PitBoss) Leave(ctx context.Context, client *Client, code string) error {
	d, ok := p.RoomOf(client)
	if !ok || (code != "" && NormalizeCode(code) != d.code) {
		return ErrNotInRoom
	}

	return p.leave(ctx, client, d)
}

func (p *PitBoss) leaveCurrent(ctx context.Context, client *Client) error {
	if d, ok := p.RoomOf(client); ok {
		return p.leave(ctx, client, d)
	}

	return nil
}

func (p *PitBoss) leave(ctx context.Context, client *Client, d *Dealer) error {
	retired, err := d.removeClient(ctx, client)
	if err != nil {
		var notFound blackjack.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	p.lock.Lock()
	delete(p.members, client.ID)
	if p.identities[client.Identity] == client.ID {
		delete(p.identities, client.Identity)
	}

	if retired && p.dealers[d.code] == d {
		delete(p.dealers, d.code)
		p.releaseStakesLocked(d)
	}
	p.lock.Unlock()

	if retired {
		d.EndShift()
		p.logger.WithField("room", d.code).Info("room closed")
	}

	p.broadcastRoomsList()
	return nil
}

// claimIdentity reserves the account of the client for a seat in target
// A nil target is a room that does not exist yet.
func (p *PitBoss) claimIdentity(client *Client, target *Dealer) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if id, ok := p.identities[client.Identity]; ok && id != client.ID {
		return ErrAlreadyPlaying
	}

	// only the departed seat itself may come back before its round settled
	if dep, ok := p.departed[client.Identity]; ok && (dep.dealer != target || dep.clientID != client.ID) {
		return ErrChipsInPlay
	}

	p.identities[client.Identity] = client.ID
	return nil
}

func (p *PitBoss) releaseIdentity(client *Client) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.identities[client.Identity] == client.ID {
		delete(p.identities, client.Identity)
	}
}

// holdStake keeps the account of a client that left mid-round away from other seats
// NOTE: must only be called from the run loop of d
func (p *PitBoss) holdStake(client *Client, d *Dealer) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.departed[client.Identity] = departure{dealer: d, clientID: client.ID}
}

// reclaimStake is called when a departed seat rejoins its room
// NOTE: must only be called from the run loop of d
func (p *PitBoss) reclaimStake(client *Client, d *Dealer) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if dep, ok := p.departed[client.Identity]; ok && dep.dealer == d && dep.clientID == client.ID {
		delete(p.departed, client.Identity)
	}
}

// releaseStakes frees every account held by the room once its round settled
// NOTE: must only be called from the run loop of d
func (p *PitBoss) releaseStakes(d *Dealer) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.releaseStakesLocked(d)
}

func (p *PitBoss) releaseStakesLocked(d *Dealer) {
	for identity, dep := range p.departed {
		if dep.dealer == d {
			delete(p.departed, identity)
		}
	}
}

func (p *PitBoss) broadcastRoomsList() {
	msg := newRoomsList(slices.Collect(p.List()))

	p.lock.RLock()
	defer p.lock.RUnlock()

	for _, client := range p.clients {
		client.Send(msg)
	}
}

// ReceivedMessage is called when a client sends a message to the server
// A client's messages are handled one at a time, in order. Rejections are sent to
// the client as a toast.
func (p *PitBoss) ReceivedMessage(ctx context.Context, client *Client, msg *PayloadIn) {
	if err := p.dispatch(ctx, client, msg); err != nil {
		log := p.logger.WithError(err).WithFields(logrus.Fields{
			"client": client.String(),
			"event":  msg.Event,
		})

		if blackjack.IsUserError(err) || IsRegistryError(err) {
			log.Debug("rejected request")
		} else {
			log.Error("could not perform request")
		}

		client.Send(newErrorResponse(err))
	}
}

type sessionAction func(s *blackjack.Session, playerID string, data AdditionalData) error

var sessionActions = map[string]sessionAction{
	EventChat: func(s *blackjack.Session, playerID string, data AdditionalData) error {
		msg, _ := data.GetString("msg")
		return s.Chat(playerID, msg)
	},
	EventSetBetReady: func(s *blackjack.Session, playerID string, data AdditionalData) error {
		bet, ok := data.GetInt("bet")
		if !ok {
			return blackjack.ErrInvalidBet
		}

		return s.SetBetReady(playerID, bet)
	},
	EventStartRound: func(s *blackjack.Session, playerID string, _ AdditionalData) error {
		return s.StartRound(playerID)
	},
	EventNextRound: func(s *blackjack.Session, playerID string, _ AdditionalData) error {
		return s.NextRound(playerID)
	},
	EventHit: func(s *blackjack.Session, playerID string, _ AdditionalData) error {
		return s.Hit(playerID)
	},
	EventStand: func(s *blackjack.Session, playerID string, _ AdditionalData) error {
		return s.Stand(playerID)
	},
	EventDouble: func(s *blackjack.Session, playerID string, _ AdditionalData) error {
		return s.Double(playerID)
	},
	EventSplit: func(s *blackjack.Session, playerID string, _ AdditionalData) error {
		return s.Split(playerID)
	},
	EventInsurance: func(s *blackjack.Session, playerID string, data AdditionalData) error {
		amount, ok := data.GetInt("amount")
		if !ok {
			return blackjack.ErrInvalidInsurance
		}

		return s.Insurance(playerID, amount)
	},
}

func (p *PitBoss) dispatch(ctx context.Context, client *Client, msg *PayloadIn) error {
	switch msg.Event {
	case EventGetRooms:
		client.Send(newRoomsList(slices.Collect(p.List())))
		return nil
	case EventCreateRoom:
		_, err := p.Create(ctx, client, msg.Room())
		return err
	case EventJoinRoom:
		return p.Join(ctx, client, msg.Room())
	case EventLeaveRoom:
		return p.Leave(ctx, client, msg.Room())
	}

	action, ok := sessionActions[msg.Event]
	if !ok {
		return ErrUnknownEvent
	}

	d, ok := p.RoomOf(client)
	if !ok {
		return ErrNotInRoom
	}

	if code := msg.Room(); code != "" && NormalizeCode(code) != d.code {
		return ErrNotInRoom
	}

	return d.Do(ctx, func(s *blackjack.Session) error {
		return action(s, client.ID, msg.Data)
	})
}

// Balance returns the chip balance of the account, including unsettled payouts
func (p *PitBoss) Balance(ctx context.Context, identity string) (int, error) {
	return p.cashier.Balance(ctx, identity)
}
