package room

import (
	"errors"
	"fmt"

	"blackjack-server/pkg/blackjack"
)

// genericFailure is shown when a request failed for a reason the player should not see
const genericFailure = "something went wrong, please try again"

// AlreadyExistsError is returned when a room code is taken
type AlreadyExistsError string

func (a AlreadyExistsError) Error() string {
	return fmt.Sprintf("room %s already exists", string(a))
}

// ErrRoomNotFound is returned when no room has the requested code
var ErrRoomNotFound = blackjack.NotFoundError("room not found")

// ErrNotInRoom is returned when a request names a room the client is not in
var ErrNotInRoom = blackjack.NotFoundError("you are not in that room")

// ErrInvalidRoomCode is returned when a room code has unsupported characters
var ErrInvalidRoomCode = blackjack.ValidationError(fmt.Sprintf("room codes are 1 to %d letters, digits, - or _", maxRoomCodeLength))

// ErrUnknownEvent is returned for events the server does not handle
var ErrUnknownEvent = blackjack.ValidationError("unknown request")

// errInternal is returned when a command panicked and the room was rolled back
var errInternal = errors.New("command failed and was rolled back")

// IsRegistryError returns true if the error is a registry error safe to show to the player
func IsRegistryError(err error) bool {
	var exists AlreadyExistsError
	return errors.As(err, &exists)
}
