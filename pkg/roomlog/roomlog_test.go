package roomlog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"blackjack-server/internal/util"
	"blackjack-server/pkg/blackjack"
	"blackjack-server/pkg/db"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cbg = context.Background()

func entries(from, to int) []blackjack.LogEntry {
	var e []blackjack.LogEntry
	for i := from; i <= to; i++ {
		e = append(e, blackjack.LogEntry{TS: int64(1700000000 + i), Event: fmt.Sprintf("event %d", i)})
	}

	return e
}

// testStore checks the behavior every Store shares
func testStore(t *testing.T, s Store, limit int) {
	t.Helper()
	a := assert.New(t)
	room := "T" + uuid.New().String()[:8]

	got, err := s.Recent(cbg, room, limit)
	a.NoError(err)
	a.Empty(got)

	require.NoError(t, s.Append(cbg, room, entries(1, 3)))
	require.NoError(t, s.Append(cbg, room, nil))
	require.NoError(t, s.Append(cbg, room, entries(4, 5)))

	got, err = s.Recent(cbg, room, limit)
	a.NoError(err)
	a.Equal(entries(1, 5), got)

	got, err = s.Recent(cbg, room, 2)
	a.NoError(err)
	a.Equal(entries(4, 5), got)

	got, err = s.Recent(cbg, "other"+room, limit)
	a.NoError(err)
	a.Empty(got)
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory(10), 10)

	m := NewMemory(3)
	require.NoError(t, m.Append(cbg, "ROOM", entries(1, 5)))
	got, _ := m.Recent(cbg, "ROOM", 0)
	assert.Equal(t, entries(3, 5), got, "capped to the limit")
}

func TestRedis(t *testing.T) {
	addr := util.Getenv("BJS_REDIS_ADDR", "")
	if addr == "" {
		t.Skip("BJS_REDIS_ADDR is not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(cbg, 3*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	testStore(t, NewRedis(client, 10), 10)

	r := NewRedis(client, 3)
	room := "T" + uuid.New().String()[:8]
	defer client.Del(cbg, key(room))
	require.NoError(t, r.Append(cbg, room, entries(1, 5)))
	assert.Equal(t, int64(3), client.LLen(cbg, key(room)).Val())
}

func TestPostgres(t *testing.T) {
	if util.Getenv("BJS_PG_DSN", "") == "" {
		t.Skip("BJS_PG_DSN is not set")
	}

	testStore(t, NewPostgres(db.Instance()), 10)
}

func TestWriter(t *testing.T) {
	a := assert.New(t)

	store := NewMemory(10)
	w := NewWriter(logrus.StandardLogger(), store)
	a.Equal(store, w.Store())

	ctx, cancel := context.WithCancel(cbg)
	done := make(chan error)
	go func() {
		done <- w.Run(ctx)
	}()

	w.Write("ROOM", entries(1, 2))
	w.Write("ROOM", nil)
	w.Write("ROOM", entries(3, 3))

	a.Eventually(func() bool {
		got, _ := store.Recent(cbg, "ROOM", 10)
		return len(got) == 3
	}, time.Second, time.Millisecond)

	cancel()
	a.NoError(<-done)

	got, _ := store.Recent(cbg, "ROOM", 10)
	a.Equal(entries(1, 3), got)
}

func TestWriter_drainsOnShutdown(t *testing.T) {
	store := NewMemory(10)
	w := NewWriter(logrus.StandardLogger(), store)
	w.Write("ROOM", entries(1, 2))

	ctx, cancel := context.WithCancel(cbg)
	cancel()
	assert.NoError(t, w.Run(ctx))

	got, _ := store.Recent(cbg, "ROOM", 10)
	assert.Equal(t, entries(1, 2), got)
}
