package session

import "errors"

// Typed outcomes of store operations. Front-ends match on these and turn
// them into prompts or mail notifications; none of them is fatal.
var (
	ErrRosterFull         = errors.New("game already has two players")
	ErrUnknownPlayer      = errors.New("you are not a player in this game")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrWaitingForOpponent = errors.New("waiting for an opponent to join")
	ErrMalformedMove      = errors.New("malformed move, use UCI notation")
	ErrIllegalMove        = errors.New("illegal move")

	// ErrPartialRecord flags a record that failed to parse. The codec
	// substitutes the documented default; the store logs and carries on.
	ErrPartialRecord = errors.New("partial game record")
)
