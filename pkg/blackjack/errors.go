package blackjack

import (
	"errors"
	"fmt"
)

// ValidationError is a malformed or out-of-range request (e.g., a negative bet)
type ValidationError string

func (v ValidationError) Error() string {
	return string(v)
}

// IllegalStateError is a well-formed request that is wrong for the current phase or turn
type IllegalStateError string

func (i IllegalStateError) Error() string {
	return string(i)
}

// NotFoundError is returned when a room or player is missing
type NotFoundError string

func (n NotFoundError) Error() string {
	return string(n)
}

// RoomFullError is returned when every seat at the table is taken
type RoomFullError int

func (r RoomFullError) Error() string {
	return fmt.Sprintf("room is full (%d seats)", int(r))
}

// InsufficientFundsError is returned when a bet, double, split or insurance exceeds the balance
type InsufficientFundsError struct {
	Need int
	Have int
}

func (i InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient chips: need %d, have %d", i.Need, i.Have)
}

// ErrInvalidBet is returned when a bet is not a positive amount
var ErrInvalidBet = ValidationError("bet must be greater than zero")

// ErrInvalidInsurance is returned when the insurance amount is outside of (0, bet/2]
var ErrInvalidInsurance = ValidationError("insurance must be between 1 and half of your bet")

// ErrEmptyMessage is returned when a chat message is blank
var ErrEmptyMessage = ValidationError("message is empty")

// ErrMessageTooLong is returned when a chat message exceeds the limit
var ErrMessageTooLong = ValidationError("message is too long")

// ErrPlayerNotFound is returned when the player is not seated at the table
var ErrPlayerNotFound = NotFoundError("you are not seated in this room")

// ErrAlreadySeated is returned when the same connection tries to sit twice
var ErrAlreadySeated = IllegalStateError("you are already seated in this room")

// ErrNotHost is returned when a host-only request comes from someone else
var ErrNotHost = IllegalStateError("only the host can do that")

// ErrNotYourTurn is returned when a player acts out of turn
var ErrNotYourTurn = IllegalStateError("it is not your turn")

// ErrNoReadyPlayers is returned when the host starts a round nobody is ready for
var ErrNoReadyPlayers = IllegalStateError("at least one player must be ready with a bet")

// ErrNotInRound is returned when an observer tries to act on the current round
var ErrNotInRound = IllegalStateError("you are not playing this round")

// ErrCannotDouble is returned when double is not the first action on a two-card hand
var ErrCannotDouble = IllegalStateError("you can only double down as the first action on a two-card hand")

// ErrCannotSplit is returned when split is not the first action on a pair
var ErrCannotSplit = IllegalStateError("you can only split a pair as the first action on a hand")

// ErrTooManyHands is returned when a split would exceed the hand limit
var ErrTooManyHands = IllegalStateError("you cannot split into any more hands")

// ErrInsuranceUnavailable is returned when insurance is not on offer
var ErrInsuranceUnavailable = IllegalStateError("insurance is only offered against a dealer ace before anyone acts")

// ErrAlreadyInsured is returned on a second insurance bet in the same round
var ErrAlreadyInsured = IllegalStateError("you already placed an insurance bet")

// ErrStaleTurn is returned when a timer fires for a turn that has already moved on
var ErrStaleTurn = IllegalStateError("the turn has already moved on")

func wrongPhase(phase Phase) IllegalStateError {
	return IllegalStateError(fmt.Sprintf("not allowed while the table is %s", phase))
}

// IsUserError returns true if the error is safe to show to the requesting player
func IsUserError(err error) bool {
	var (
		validation   ValidationError
		illegalState IllegalStateError
		notFound     NotFoundError
		roomFull     RoomFullError
		funds        InsufficientFundsError
	)

	return errors.As(err, &validation) ||
		errors.As(err, &illegalState) ||
		errors.As(err, &notFound) ||
		errors.As(err, &roomFull) ||
		errors.As(err, &funds)
}
