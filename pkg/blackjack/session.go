package blackjack

import (
	"strings"
	"unicode/utf8"

	"blackjack-server/pkg/deck"

	"github.com/coder/quartz"
	"github.com/sirupsen/logrus"
)

// Session is the state machine of a single blackjack room
// A Session is not safe for concurrent use. Every call must be serialized by the caller.
type Session struct {
	// Code is the unique, upper-case room code
	Code string

	logger  logrus.FieldLogger
	options Options
	clock   quartz.Clock
	shoe    *deck.Shoe

	phase  Phase
	seats  []*Seat
	hostID string

	dealer   *Hand
	revealed bool
	turns    *TurnQueue

	round          int
	turnSeq        int
	actedThisRound bool

	settlement *Settlement
	unclaimed  *Settlement

	log *RoundLog
}

// NewSession returns a room in the betting phase
// If shoe is nil, a shoe with options.Decks is built. If clock is nil, the real clock is used.
func NewSession(logger logrus.FieldLogger, code string, options Options, shoe *deck.Shoe, clock quartz.Clock) *Session {
	options = options.withDefaults()
	if shoe == nil {
		shoe = deck.NewShoe(options.Decks, nil)
	}

	if clock == nil {
		clock = quartz.NewReal()
	}

	return &Session{
		Code:    code,
		logger:  logger.WithField("room", code),
		options: options,
		clock:   clock,
		shoe:    shoe,
		phase:   PhaseBetting,
		log:     NewRoundLog(options.LogLimit),
	}
}

// Options returns the house rules of the table
func (s *Session) Options() Options {
	return s.options
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	return s.phase
}

// Host returns the player ID of the host
func (s *Session) Host() string {
	return s.hostID
}

// PlayerCount returns the number of connected players
func (s *Session) PlayerCount() int {
	count := 0
	for _, seat := range s.seats {
		if seat.Connected {
			count++
		}
	}

	return count
}

// Empty returns true if no connected player remains
func (s *Session) Empty() bool {
	return s.PlayerCount() == 0
}

// StakeOpen returns true while the player has chips at stake in an unsettled round
// A player who left mid-round keeps their stake open until the dealer resolves.
func (s *Session) StakeOpen(playerID string) bool {
	seat := s.seat(playerID)
	if seat == nil || !seat.inRound {
		return false
	}

	return s.phase == PhasePlaying || s.phase == PhaseDealerResolving
}

// Balance returns the in-memory chip balance of a seated player
func (s *Session) Balance(playerID string) (int, bool) {
	seat := s.seat(playerID)
	if seat == nil {
		return 0, false
	}

	return seat.Balance, true
}

func (s *Session) seat(playerID string) *Seat {
	for _, seat := range s.seats {
		if seat.ID == playerID {
			return seat
		}
	}

	return nil
}

// Seat adds a player to the table
// The first player seated becomes the host. Players who join mid-round watch until the next round.
func (s *Session) Seat(info PlayerInfo) error {
	if seat := s.seat(info.ID); seat != nil {
		if seat.Connected {
			return ErrAlreadySeated
		}

		// left mid-round and came back before the round was cleared, the hands already stood
		seat.Connected = true
		s.claimHost(seat)
		s.log.add(s.clock.Now(), "%s rejoined the table", seat.Name)
		return nil
	}

	// seats kept for players who left mid-round do not count
	if s.PlayerCount() >= s.options.SeatCap {
		return RoomFullError(s.options.SeatCap)
	}

	seat := &Seat{
		ID:        info.ID,
		Identity:  info.Identity,
		Name:      info.Name,
		Balance:   info.Balance,
		Connected: true,
	}

	s.seats = append(s.seats, seat)
	s.claimHost(seat)
	s.log.add(s.clock.Now(), "%s joined the table", seat.Name)

	return nil
}

func (s *Session) claimHost(seat *Seat) {
	if s.hostID == "" {
		s.hostID = seat.ID
	}
}

// Unseat removes a player from the table
// A player dealt into the current round keeps their seat until the round is cleared;
// their open hands stand where they are.
func (s *Session) Unseat(playerID string) error {
	seat := s.seat(playerID)
	if seat == nil || !seat.Connected {
		return ErrPlayerNotFound
	}

	if seat.inRound && s.phase != PhaseBetting {
		seat.Connected = false
		seat.Ready = false
	} else {
		s.removeSeat(seat)
	}

	s.log.add(s.clock.Now(), "%s left the table", seat.Name)

	if s.hostID == seat.ID {
		s.reassignHost()
	}

	if s.phase == PhasePlaying {
		s.advance()
	}

	return nil
}

func (s *Session) removeSeat(seat *Seat) {
	seats := s.seats[:0]
	for _, st := range s.seats {
		if st != seat {
			seats = append(seats, st)
		}
	}

	for i := len(seats); i < len(s.seats); i++ {
		s.seats[i] = nil
	}

	s.seats = seats
}

// reassignHost hands the table to the earliest connected seat in join order
func (s *Session) reassignHost() {
	s.hostID = ""
	for _, seat := range s.seats {
		if seat.Connected {
			s.hostID = seat.ID
			s.log.add(s.clock.Now(), "%s is now the host", seat.Name)
			return
		}
	}
}

// SetBetReady sets the player's bet for the next round and marks them as ready
func (s *Session) SetBetReady(playerID string, bet int) error {
	if s.phase != PhaseBetting {
		return wrongPhase(s.phase)
	}

	seat := s.seat(playerID)
	if seat == nil || !seat.Connected {
		return ErrPlayerNotFound
	}

	if bet <= 0 {
		return ErrInvalidBet
	}

	if bet > seat.Balance {
		return InsufficientFundsError{Need: bet, Have: seat.Balance}
	}

	seat.Bet = bet
	seat.Ready = true
	s.log.add(s.clock.Now(), "%s is ready with a bet of %d", seat.Name, bet)

	return nil
}

// StartRound charges the bets of every ready player and deals the first two cards
func (s *Session) StartRound(playerID string) error {
	if err := s.requireHost(playerID); err != nil {
		return err
	}

	if s.phase != PhaseBetting {
		return wrongPhase(s.phase)
	}

	participants := make([]*Seat, 0, len(s.seats))
	for _, seat := range s.seats {
		if seat.Connected && seat.Ready && seat.Bet > 0 && seat.Bet <= seat.Balance {
			participants = append(participants, seat)
		}
	}

	if len(participants) == 0 {
		return ErrNoReadyPlayers
	}

	s.round++
	minCards := 2 * (len(participants) + 1)
	if s.options.CutCard > minCards {
		minCards = s.options.CutCard
	}

	if s.shoe.BeginRound(minCards) {
		s.log.add(s.clock.Now(), "the shoe was reshuffled")
	}

	for _, seat := range s.seats {
		seat.resetRound()
	}

	for _, seat := range participants {
		seat.Balance -= seat.Bet
		seat.Hands = []*Hand{{Bet: seat.Bet}}
		seat.inRound = true
	}

	s.dealer = &Hand{}
	s.revealed = false
	s.actedThisRound = false
	s.settlement = nil

	for i := 0; i < 2; i++ {
		for _, seat := range participants {
			seat.Hands[0].add(s.shoe.Draw())
		}

		s.dealer.add(s.shoe.Draw())
	}

	s.phase = PhasePlaying
	s.turns = NewTurnQueue(participants)
	s.log.add(s.clock.Now(), "round %d started, dealer shows %s", s.round, s.dealer.Cards[0])
	for _, seat := range participants {
		if seat.Hands[0].Blackjack() {
			s.log.add(s.clock.Now(), "%s has blackjack", seat.Name)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"round":   s.round,
		"players": len(participants),
		"shoe":    s.shoe.Remaining(),
	}).Debug("round started")

	s.advance()
	return nil
}

func (s *Session) requireHost(playerID string) error {
	if s.seat(playerID) == nil {
		return ErrPlayerNotFound
	}

	if s.hostID != playerID {
		return ErrNotHost
	}

	return nil
}

// turnHolder returns the seat and hand of the player if it is their turn
func (s *Session) turnHolder(playerID string) (*Seat, *Hand, error) {
	if s.phase != PhasePlaying {
		return nil, nil, wrongPhase(s.phase)
	}

	seat := s.seat(playerID)
	if seat == nil || !seat.Connected {
		return nil, nil, ErrPlayerNotFound
	}

	if !seat.inRound {
		return nil, nil, ErrNotInRound
	}

	current, hand, ok := s.turns.Current()
	if !ok || current != seat || hand.Closed() {
		return nil, nil, ErrNotYourTurn
	}

	return seat, hand, nil
}

// Hit draws a card for the current hand
// The turn stays with the hand unless it busts.
func (s *Session) Hit(playerID string) error {
	seat, hand, err := s.turnHolder(playerID)
	if err != nil {
		return err
	}

	card := s.shoe.Draw()
	hand.add(card)
	hand.actions++
	s.actedThisRound = true

	if hand.Busted() {
		s.log.add(s.clock.Now(), "%s hits %s and busts with %d", seat.Name, card, hand.Value())
	} else {
		s.log.add(s.clock.Now(), "%s hits %s (%d)", seat.Name, card, hand.Value())
	}

	s.advance()
	return nil
}

// Stand closes the current hand
func (s *Session) Stand(playerID string) error {
	seat, hand, err := s.turnHolder(playerID)
	if err != nil {
		return err
	}

	s.stand(seat, hand, "%s stands on %d")
	return nil
}

func (s *Session) stand(seat *Seat, hand *Hand, format string) {
	hand.Stood = true
	hand.actions++
	s.actedThisRound = true
	s.log.add(s.clock.Now(), format, seat.Name, hand.Value())
	s.advance()
}

// Double doubles the bet of the current hand and draws exactly one card
func (s *Session) Double(playerID string) error {
	seat, hand, err := s.turnHolder(playerID)
	if err != nil {
		return err
	}

	if !hand.CanDouble() {
		return ErrCannotDouble
	}

	if seat.Balance < hand.Bet {
		return InsufficientFundsError{Need: hand.Bet, Have: seat.Balance}
	}

	seat.Balance -= hand.Bet
	hand.Bet *= 2
	hand.Doubled = true
	card := s.shoe.Draw()
	hand.add(card)
	hand.actions++
	s.actedThisRound = true
	s.log.add(s.clock.Now(), "%s doubles down for %d and draws %s (%d)", seat.Name, hand.Bet, card, hand.Value())

	s.advance()
	return nil
}

// Split turns a pair into two hands, each dealt a second card
// The new hand is played directly after the current one.
func (s *Session) Split(playerID string) error {
	seat, hand, err := s.turnHolder(playerID)
	if err != nil {
		return err
	}

	if !hand.CanSplit() {
		return ErrCannotSplit
	}

	if len(seat.Hands) >= s.options.MaxHands {
		return ErrTooManyHands
	}

	if seat.Balance < hand.Bet {
		return InsufficientFundsError{Need: hand.Bet, Have: seat.Balance}
	}

	seat.Balance -= hand.Bet
	newHand := &Hand{
		Cards: []*deck.Card{hand.Cards[1]},
		Bet:   hand.Bet,
		Split: true,
	}

	hand.Cards = []*deck.Card{hand.Cards[0]}
	hand.Split = true
	seat.insertHandAfter(hand, newHand)
	s.turns.InsertAfterCurrent(seat, newHand)

	hand.add(s.shoe.Draw())
	newHand.add(s.shoe.Draw())
	hand.actions = 0
	s.actedThisRound = true
	s.log.add(s.clock.Now(), "%s splits into %s and %s", seat.Name, cardCodes(hand.Cards), cardCodes(newHand.Cards))

	s.advance()
	return nil
}

// Insurance places an insurance side bet against a dealer ace
// Insurance is only offered before any hand has acted this round.
func (s *Session) Insurance(playerID string, amount int) error {
	if s.phase != PhasePlaying {
		return wrongPhase(s.phase)
	}

	seat := s.seat(playerID)
	if seat == nil || !seat.Connected {
		return ErrPlayerNotFound
	}

	if !seat.inRound {
		return ErrNotInRound
	}

	if s.actedThisRound || !s.dealer.Cards[0].IsAce() {
		return ErrInsuranceUnavailable
	}

	if seat.Insurance > 0 {
		return ErrAlreadyInsured
	}

	if amount <= 0 || amount > seat.Bet/2 {
		return ErrInvalidInsurance
	}

	if amount > seat.Balance {
		return InsufficientFundsError{Need: amount, Have: seat.Balance}
	}

	seat.Balance -= amount
	seat.Insurance = amount
	s.log.add(s.clock.Now(), "%s takes insurance for %d", seat.Name, amount)

	return nil
}

// TurnToken returns a token identifying the current turn
// The boolean is false when no player is to act.
func (s *Session) TurnToken() (TurnToken, bool) {
	if s.phase != PhasePlaying || s.turns.Exhausted() {
		return TurnToken{}, false
	}

	return TurnToken{Round: s.round, Seq: s.turnSeq}, true
}

// AutoStand stands the current hand if the turn has not moved on since the token was issued
func (s *Session) AutoStand(token TurnToken) error {
	current, ok := s.TurnToken()
	if !ok || current != token {
		return ErrStaleTurn
	}

	seat, hand, ok := s.turns.Current()
	if !ok || hand.Closed() {
		return ErrStaleTurn
	}

	s.stand(seat, hand, "%s ran out of time and stands on %d")
	return nil
}

// advance moves the turn to the next open hand, resolving the dealer once none remain
func (s *Session) advance() {
	s.turnSeq++
	if _, _, ok := s.turns.Advance(); ok {
		return
	}

	s.resolveDealer()
}

func (s *Session) dealerShouldHit() bool {
	value, soft := Value(s.dealer.Cards)
	if value < 17 {
		return true
	}

	return value == 17 && soft && !s.options.StandsOnSoft17
}

// resolveDealer reveals the hole card, plays the dealer hand and settles the round
func (s *Session) resolveDealer() {
	s.phase = PhaseDealerResolving
	s.revealed = true
	s.log.add(s.clock.Now(), "dealer reveals %s (%d)", cardCodes(s.dealer.Cards), s.dealer.Value())

	for s.dealerShouldHit() {
		card := s.shoe.Draw()
		s.dealer.add(card)
		s.log.add(s.clock.Now(), "dealer draws %s (%d)", card, s.dealer.Value())
	}

	switch {
	case s.dealer.Blackjack():
		s.log.add(s.clock.Now(), "dealer has blackjack")
	case s.dealer.Busted():
		s.log.add(s.clock.Now(), "dealer busts with %d", s.dealer.Value())
	default:
		s.log.add(s.clock.Now(), "dealer stands on %d", s.dealer.Value())
	}

	settlement := Resolve(s.dealer, s.seats)
	settlement.Round = s.round
	settlement.apply(s.seats)
	s.settlement = settlement
	s.unclaimed = settlement
	s.phase = PhasePayout

	for _, res := range settlement.Hands {
		seat := s.seat(res.SeatID)
		s.log.add(s.clock.Now(), "%s: hand %d %s (%+d)", seat.Name, res.HandIndex+1, res.Outcome, res.Credit-res.Stake)
	}

	for _, res := range settlement.Insurance {
		seat := s.seat(res.SeatID)
		s.log.add(s.clock.Now(), "%s: insurance (%+d)", seat.Name, res.Credit-res.Stake)
	}

	s.logger.WithFields(logrus.Fields{
		"round":  s.round,
		"dealer": s.dealer.Value(),
		"hands":  len(settlement.Hands),
	}).Debug("round settled")
}

func cardCodes(cards []*deck.Card) string {
	codes := make([]string, len(cards))
	for i, card := range cards {
		codes[i] = card.Code()
	}

	return strings.Join(codes, " ")
}

// Settlement returns the settlement of the current round, if it has been resolved
func (s *Session) Settlement() *Settlement {
	return s.settlement
}

// TakeSettlement returns the settlement of the last resolved round exactly once
func (s *Session) TakeSettlement() *Settlement {
	settlement := s.unclaimed
	s.unclaimed = nil
	return settlement
}

// NextRound clears the table for the next round of bets
// Bets are kept as the default for the next round.
func (s *Session) NextRound(playerID string) error {
	if err := s.requireHost(playerID); err != nil {
		return err
	}

	if s.phase != PhasePayout {
		return wrongPhase(s.phase)
	}

	for _, seat := range append([]*Seat(nil), s.seats...) {
		if !seat.Connected {
			s.removeSeat(seat)
			continue
		}

		seat.resetRound()
	}

	s.dealer = nil
	s.revealed = false
	s.turns = nil
	s.settlement = nil
	s.actedThisRound = false
	s.phase = PhaseBetting
	s.log.add(s.clock.Now(), "waiting for bets")

	return nil
}

// Chat appends a message from a player to the round log
func (s *Session) Chat(playerID, message string) error {
	seat := s.seat(playerID)
	if seat == nil || !seat.Connected {
		return ErrPlayerNotFound
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}

	if utf8.RuneCountInString(message) > s.options.MaxChatLength {
		return ErrMessageTooLong
	}

	s.log.add(s.clock.Now(), "%s: %s", seat.Name, message)
	return nil
}

// Logs returns the retained round log
func (s *Session) Logs() []LogEntry {
	return s.log.Entries()
}

// TakeNewLogs returns the log entries added since the last call
func (s *Session) TakeNewLogs() []LogEntry {
	return s.log.TakeNew()
}

// PreloadLogs seeds the round log with persisted entries
func (s *Session) PreloadLogs(entries []LogEntry) {
	s.log.Preload(entries)
}

// Checkpoint returns a deep copy of the session that can be passed to Restore
func (s *Session) Checkpoint() *Session {
	cp := *s

	seats := make(map[*Seat]*Seat, len(s.seats))
	hands := make(map[*Hand]*Hand)
	cp.seats = make([]*Seat, len(s.seats))
	for i, seat := range s.seats {
		seatCopy := *seat
		seatCopy.Hands = make([]*Hand, len(seat.Hands))
		for j, hand := range seat.Hands {
			handCopy := hand.clone()
			hands[hand] = handCopy
			seatCopy.Hands[j] = handCopy
		}

		seats[seat] = &seatCopy
		cp.seats[i] = &seatCopy
	}

	if s.dealer != nil {
		cp.dealer = s.dealer.clone()
	}

	cp.turns = s.turns.clone(seats, hands)
	cp.shoe = s.shoe.Clone()
	cp.log = s.log.clone()

	return &cp
}

// Restore replaces the state of the session with a checkpoint
func (s *Session) Restore(checkpoint *Session) {
	*s = *checkpoint
}
