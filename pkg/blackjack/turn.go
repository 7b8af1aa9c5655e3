package blackjack

// TurnToken identifies a single turn so that a delayed caller (e.g., a timer) can
// tell whether the turn it was scheduled for is still current
type TurnToken struct {
	Round int
	Seq   int
}

type turnEntry struct {
	seat *Seat
	hand *Hand
}

// TurnQueue is the ordered list of (seat, hand) pairs that act in a round
// A split inserts the new hand directly after the current entry, so a player
// finishes all of their hands before the next player acts.
type TurnQueue struct {
	entries []turnEntry
	pos     int
}

// NewTurnQueue builds a queue with one entry per hand of each seat, in seat order
func NewTurnQueue(seats []*Seat) *TurnQueue {
	q := &TurnQueue{}
	for _, seat := range seats {
		for _, hand := range seat.Hands {
			q.entries = append(q.entries, turnEntry{seat: seat, hand: hand})
		}
	}

	return q
}

// Current returns the entry under the pointer without moving it
// The entry may be closed; call Advance to settle on an open hand.
func (q *TurnQueue) Current() (*Seat, *Hand, bool) {
	if q == nil || q.pos >= len(q.entries) {
		return nil, nil, false
	}

	e := q.entries[q.pos]
	return e.seat, e.hand, true
}

// Advance moves the pointer to the first open hand at or after the current position
// Open hands of disconnected seats are forced to stand and skipped.
// Calling Advance while the current hand is still open is a no-op.
// Returns false once every hand is closed.
func (q *TurnQueue) Advance() (*Seat, *Hand, bool) {
	if q == nil {
		return nil, nil, false
	}

	for ; q.pos < len(q.entries); q.pos++ {
		e := q.entries[q.pos]
		if !e.seat.Connected && !e.hand.Closed() {
			e.hand.Stood = true
		}

		if !e.hand.Closed() {
			return e.seat, e.hand, true
		}
	}

	return nil, nil, false
}

// InsertAfterCurrent places a hand directly after the current entry
func (q *TurnQueue) InsertAfterCurrent(seat *Seat, hand *Hand) {
	at := q.pos + 1
	if at > len(q.entries) {
		at = len(q.entries)
	}

	entries := make([]turnEntry, 0, len(q.entries)+1)
	entries = append(entries, q.entries[:at]...)
	entries = append(entries, turnEntry{seat: seat, hand: hand})
	entries = append(entries, q.entries[at:]...)
	q.entries = entries
}

// Len returns the number of entries in the queue
func (q *TurnQueue) Len() int {
	if q == nil {
		return 0
	}

	return len(q.entries)
}

// Exhausted returns true if the pointer has moved past the last entry
func (q *TurnQueue) Exhausted() bool {
	return q == nil || q.pos >= len(q.entries)
}

func (q *TurnQueue) clone(seats map[*Seat]*Seat, hands map[*Hand]*Hand) *TurnQueue {
	if q == nil {
		return nil
	}

	cp := &TurnQueue{
		entries: make([]turnEntry, len(q.entries)),
		pos:     q.pos,
	}

	for i, e := range q.entries {
		cp.entries[i] = turnEntry{seat: seats[e.seat], hand: hands[e.hand]}
	}

	return cp
}
