package room

import (
	"fmt"

	"blackjack-server/pkg/blackjack"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBuffer is how many frames can queue up for a slow client before frames are dropped
const sendBuffer = 256

// Client is a client connected to the server via websockets
type Client struct {
	// ID is unique per connection, a player reconnecting gets a new one
	ID string

	// Identity is the authenticated account
	Identity string

	// Name is the display name
	Name string

	// Conn is the underlying websocket connection
	Conn *websocket.Conn

	// send is a channel for sending messages to the client
	send chan interface{}

	// Close is a channel for closing the client
	Close chan string

	// CloseError contains the reason why the connection was closed
	CloseError error
}

// NewClient returns a new client object
func NewClient(conn *websocket.Conn, identity, name string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		Identity: identity,
		Name:     name,
		Conn:     conn,
		send:     make(chan interface{}, sendBuffer),
		Close:    make(chan string, 1),
	}
}

// Send send a message to the web client
// It returns false if the client is not keeping up and the message was dropped.
func (c *Client) Send(msg interface{}) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// SendChan returns a read-only channel
func (c *Client) SendChan() <-chan interface{} {
	return c.send
}

// String returns a traceable identifier for the client
func (c *Client) String() string {
	return fmt.Sprintf("%s:%s", c.Identity, c.ID)
}

func (c *Client) playerInfo(balance int) blackjack.PlayerInfo {
	return blackjack.PlayerInfo{
		ID:       c.ID,
		Identity: c.Identity,
		Name:     c.Name,
		Balance:  balance,
	}
}
