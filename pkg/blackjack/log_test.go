package blackjack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundLog(t *testing.T) {
	a := assert.New(t)

	at := time.Unix(1700000000, 0)
	l := NewRoundLog(3)
	l.Preload([]LogEntry{{TS: 1, Event: "old 1"}, {TS: 2, Event: "old 2"}})
	a.Len(l.Entries(), 2)
	a.Empty(l.TakeNew())

	l.add(at, "round %d", 1)
	l.add(at, "round %d", 2)

	a.Equal([]LogEntry{
		{TS: 2, Event: "old 2"},
		{TS: 1700000000, Event: "round 1"},
		{TS: 1700000000, Event: "round 2"},
	}, l.Entries())

	a.Equal([]LogEntry{
		{TS: 1700000000, Event: "round 1"},
		{TS: 1700000000, Event: "round 2"},
	}, l.TakeNew())
	a.Empty(l.TakeNew())
}

func TestNewRoundLog_defaultLimit(t *testing.T) {
	l := NewRoundLog(0)
	for i := 0; i < 100; i++ {
		l.add(time.Now(), "entry %d", i)
	}

	assert.Len(t, l.Entries(), 60)
	assert.Equal(t, "entry 99", l.Entries()[59].Event)
}
