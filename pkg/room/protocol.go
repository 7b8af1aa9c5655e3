package room

import (
	"blackjack-server/pkg/blackjack"
)

// Requests a client can send
const (
	EventGetRooms    = "get_rooms"
	EventCreateRoom  = "create_room"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventChat        = "chat"
	EventSetBetReady = "set_bet_ready"
	EventStartRound  = "start_round"
	EventNextRound   = "next_round"
	EventHit         = "hit"
	EventStand       = "stand"
	EventDouble      = "double"
	EventSplit       = "split"
	EventInsurance   = "insurance"
)

// Pushes the server sends
const (
	EventAuthResult = "auth_result"
	EventRoomsList  = "rooms_list"
	EventToast      = "toast"
	EventRoomLogs   = "room_logs"
	EventRoomState  = "room_state"
)

// PayloadIn is the format we expect from the JS client
type PayloadIn struct {
	Event string         `json:"event"`
	Data  AdditionalData `json:"data"`
}

// Room returns the room code the payload is addressed to
func (p *PayloadIn) Room() string {
	room, _ := p.Data.GetString("room")
	return room
}

// AdditionalData provides additional data in a payload
type AdditionalData map[string]interface{}

// GetString returns a string for the given key
func (a AdditionalData) GetString(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// GetInt returns an integer value for the given key
func (a AdditionalData) GetInt(key string) (int, bool) {
	floatVal, ok := a[key].(float64)
	if !ok {
		return 0, false
	}

	if floatVal != float64(int(floatVal)) {
		return 0, false
	}

	return int(floatVal), true
}

// Response is a frame pushed to the client
type Response struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// AuthResult is the payload of auth_result
type AuthResult struct {
	OK       bool   `json:"ok"`
	Username string `json:"username,omitempty"`
	Chips    int    `json:"chips"`
	Message  string `json:"msg,omitempty"`
}

// Toast is the payload of toast
type Toast struct {
	Text string `json:"text"`
}

// NewToast returns a toast frame
func NewToast(text string) *Response {
	return &Response{
		Event: EventToast,
		Data:  Toast{Text: text},
	}
}

func newErrorResponse(err error) *Response {
	if blackjack.IsUserError(err) || IsRegistryError(err) {
		return NewToast(err.Error())
	}

	return NewToast(genericFailure)
}

// NewAuthResult returns an auth_result frame
func NewAuthResult(ok bool, username string, chips int, msg string) *Response {
	return &Response{
		Event: EventAuthResult,
		Data: AuthResult{
			OK:       ok,
			Username: username,
			Chips:    chips,
			Message:  msg,
		},
	}
}

func newRoomState(state *blackjack.RoomState) *Response {
	return &Response{
		Event: EventRoomState,
		Data:  state,
	}
}

func newRoomLogs(entries []blackjack.LogEntry) *Response {
	if entries == nil {
		entries = []blackjack.LogEntry{}
	}

	return &Response{
		Event: EventRoomLogs,
		Data:  entries,
	}
}

func newRoomsList(summaries []blackjack.Summary) *Response {
	if summaries == nil {
		summaries = []blackjack.Summary{}
	}

	return &Response{
		Event: EventRoomsList,
		Data:  summaries,
	}
}
