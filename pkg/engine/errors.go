package engine

import (
	"errors"
	"fmt"
)

// ValidationError is an illegal action rejection that is safe to return to the caller.
// The game state is unchanged when one is returned.
type ValidationError string

func (v ValidationError) Error() string {
	return string(v)
}

func newValidationError(format string, a ...interface{}) ValidationError {
	return ValidationError(fmt.Sprintf(format, a...))
}

// ErrInvariant wraps a violated game invariant, such as chips appearing or
// disappearing across an action. These must never be swallowed.
var ErrInvariant = errors.New("game invariant violated")

// ErrPlayerNotInGame is an error when the acting player is not seated at the game
var ErrPlayerNotInGame = errors.New("player is not in the game")
