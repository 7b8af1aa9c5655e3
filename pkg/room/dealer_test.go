package room

import (
	"context"
	"testing"

	"blackjack-server/pkg/blackjack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealer_EndShift(t *testing.T) {
	p := newTestPitBoss(t, "", 0)
	c := newTestClient(p, "player")

	ctx := context.Background()
	_, err := p.Create(ctx, c, "SHIFT")
	require.NoError(t, err)

	d, _ := p.Room("SHIFT")
	d.EndShift()
	d.EndShift()

	err = d.Do(ctx, func(s *blackjack.Session) error {
		return nil
	})
	assert.Equal(t, ErrRoomNotFound, err)
}

func TestDealer_Do_rollsBackRejections(t *testing.T) {
	p := newTestPitBoss(t, "", 0)
	c := newTestClient(p, "player")

	ctx := context.Background()
	_, err := p.Create(ctx, c, "SAFE")
	require.NoError(t, err)
	d, _ := p.Room("SAFE")
	drain(c)

	err = d.Do(ctx, func(s *blackjack.Session) error {
		assert.NoError(t, s.Chat(c.ID, "this should not stick"))
		return blackjack.ErrNotYourTurn
	})
	assert.Equal(t, blackjack.ErrNotYourTurn, err)
	assert.Empty(t, drain(c))

	require.NoError(t, d.Do(ctx, func(s *blackjack.Session) error {
		for _, entry := range s.Logs() {
			assert.NotContains(t, entry.Event, "should not stick")
		}

		return nil
	}))
	assert.NotEmpty(t, drain(c), "a committed command is broadcast")
}

func TestDealer_Do_cancelled(t *testing.T) {
	p := newTestPitBoss(t, "", 0)
	c := newTestClient(p, "player")

	_, err := p.Create(context.Background(), c, "CTX")
	require.NoError(t, err)
	d, _ := p.Room("CTX")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// either the loop or the cancellation wins, the room keeps working
	_ = d.Do(ctx, func(s *blackjack.Session) error { return nil })
	assert.NoError(t, d.Do(context.Background(), func(s *blackjack.Session) error { return nil }))
}
