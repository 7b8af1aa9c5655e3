package mux

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"blackjack-server/pkg/blackjack"
	"blackjack-server/pkg/room"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?access_token=" + url.QueryEscape(token)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn
}

// readUntil reads frames until one with the event arrives
func readUntil(t *testing.T, conn *websocket.Conn, event string, v interface{}) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Event == event {
			require.NoError(t, json.Unmarshal(f.Data, v))
			return
		}
	}
}

func TestMux_getWS(t *testing.T) {
	m := newTestMux(t)
	ts := httptest.NewServer(m)
	defer ts.Close()

	conn := dialWS(t, ts, signed(t, "alice"))

	var auth room.AuthResult
	readUntil(t, conn, room.EventAuthResult, &auth)
	assert.True(t, auth.OK)
	assert.Equal(t, "alice", auth.Username)
	assert.Equal(t, 2000, auth.Chips)

	var list []blackjack.Summary
	readUntil(t, conn, room.EventRoomsList, &list)
	assert.Empty(t, list)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": room.EventCreateRoom,
		"data":  map[string]interface{}{"room": "ws"},
	}))

	var state blackjack.RoomState
	readUntil(t, conn, room.EventRoomState, &state)
	assert.Equal(t, "WS", state.Room)
	require.Len(t, state.Players, 1)
	assert.Equal(t, "alice", state.Players[0].Username)
	assert.Equal(t, 2000, state.Players[0].Chips)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": room.EventStartRound,
		"data":  map[string]interface{}{"room": "WS"},
	}))

	var toast room.Toast
	readUntil(t, conn, room.EventToast, &toast)
	assert.Equal(t, blackjack.ErrNoReadyPlayers.Error(), toast.Text)

	// a malformed request is answered, the connection stays open
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	readUntil(t, conn, room.EventToast, &toast)
	assert.Equal(t, "could not understand that request", toast.Text)

	_ = conn.Close()
	assert.Eventually(t, func() bool {
		_, ok := m.pitBoss.Room("WS")
		return !ok
	}, 5*time.Second, 10*time.Millisecond, "the room closes once its only player disconnects")
}

func TestMux_getWS_unauthorized(t *testing.T) {
	ts := httptest.NewServer(newTestMux(t))
	defer ts.Close()

	conn := dialWS(t, ts, "bogus")

	var auth room.AuthResult
	readUntil(t, conn, room.EventAuthResult, &auth)
	assert.False(t, auth.OK)
	assert.Equal(t, "invalid or expired token", auth.Message)

	var f frame
	err := conn.ReadJSON(&f)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}
