package blackjack

import (
	"testing"

	"blackjack-server/pkg/deck"

	"github.com/stretchr/testify/assert"
)

func newTestSeat(id string, hands ...string) *Seat {
	s := &Seat{ID: id, Identity: id, Name: id, Connected: true, inRound: true}
	for _, cards := range hands {
		s.Hands = append(s.Hands, &Hand{Cards: deck.CardsFromString(cards), Bet: 10})
	}

	return s
}

func TestTurnQueue_Advance(t *testing.T) {
	a := assert.New(t)

	p1 := newTestSeat("p1", "10c,7d")
	p2 := newTestSeat("p2", "14c,13d") // natural, closed
	p3 := newTestSeat("p3", "5c,6d")
	q := NewTurnQueue([]*Seat{p1, p2, p3})
	a.Equal(3, q.Len())

	seat, hand, ok := q.Advance()
	a.True(ok)
	a.Equal(p1, seat)
	a.Equal(p1.Hands[0], hand)

	// idempotent while the hand is open
	seat, _, ok = q.Advance()
	a.True(ok)
	a.Equal(p1, seat)

	p1.Hands[0].Stood = true
	seat, _, ok = q.Advance()
	a.True(ok)
	a.Equal(p3, seat, "natural blackjack is skipped")

	p3.Hands[0].Doubled = true
	_, _, ok = q.Advance()
	a.False(ok)
	a.True(q.Exhausted())

	_, _, ok = q.Current()
	a.False(ok)
}

func TestTurnQueue_disconnectedSeatsAreStoodAndSkipped(t *testing.T) {
	a := assert.New(t)

	p1 := newTestSeat("p1", "10c,7d", "10s,2d")
	p2 := newTestSeat("p2", "9c,7d")
	p1.Connected = false

	q := NewTurnQueue([]*Seat{p1, p2})
	seat, _, ok := q.Advance()
	a.True(ok)
	a.Equal(p2, seat)
	a.True(p1.Hands[0].Stood)
	a.True(p1.Hands[1].Stood)
}

func TestTurnQueue_InsertAfterCurrent(t *testing.T) {
	a := assert.New(t)

	p1 := newTestSeat("p1", "8c,8d")
	p2 := newTestSeat("p2", "9c,7d")
	q := NewTurnQueue([]*Seat{p1, p2})
	q.Advance()

	split := &Hand{Cards: deck.CardsFromString("8d,3c"), Bet: 10, Split: true}
	q.InsertAfterCurrent(p1, split)
	a.Equal(3, q.Len())

	p1.Hands[0].Stood = true
	seat, hand, ok := q.Advance()
	a.True(ok)
	a.Equal(p1, seat)
	a.Equal(split, hand, "split hand plays before the next player")

	split.Stood = true
	seat, _, ok = q.Advance()
	a.True(ok)
	a.Equal(p2, seat)
}

func TestTurnQueue_InsertAfterCurrentOnLastEntry(t *testing.T) {
	a := assert.New(t)

	p1 := newTestSeat("p1", "9c,7d")
	p2 := newTestSeat("p2", "8c,8d")
	q := NewTurnQueue([]*Seat{p1, p2})

	p1.Hands[0].Stood = true
	seat, _, _ := q.Advance()
	a.Equal(p2, seat)

	split := &Hand{Cards: deck.CardsFromString("8d,2c"), Bet: 10, Split: true}
	q.InsertAfterCurrent(p2, split)

	p2.Hands[0].Stood = true
	_, hand, ok := q.Advance()
	a.True(ok)
	a.Equal(split, hand)

	split.Stood = true
	_, _, ok = q.Advance()
	a.False(ok)
}

func TestTurnQueue_nil(t *testing.T) {
	var q *TurnQueue
	_, _, ok := q.Advance()
	assert.False(t, ok)
	assert.True(t, q.Exhausted())
	assert.Equal(t, 0, q.Len())
}
