package engine

import "errors"

var (
	ErrGameOver  = errors.New("game already over")
	ErrOutOfTurn = errors.New("play out of turn")
)

// InvalidStateError signals that a rule operation was invoked on a
// logically impossible state (empty hand asked to play, malformed
// deal). It indicates a caller bug and is never retried.
type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

// ErrInvalidState wraps msg in an InvalidStateError.
func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
