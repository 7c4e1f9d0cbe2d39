package game

import "errors"

// Capacity errors.
var (
	ErrRoomFull           = errors.New("room is full")
	ErrCodeSpaceExhausted = errors.New("unable to generate unique room code")
)

// State-conflict errors. These are always recoverable and reported to the
// originating caller only.
var (
	ErrGameInProgress  = errors.New("cannot join: game already started")
	ErrAlreadyStarted  = errors.New("game already started or finished")
	ErrNotPlaying      = errors.New("game is not active")
	ErrAlreadyAnswered = errors.New("already answered this question")
)

// Not-found errors.
var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrUnknownPlayer = errors.New("player not in room")
)

// Input errors.
var (
	ErrNoQuestions         = errors.New("no questions provided")
	ErrInsufficientPlayers = errors.New("need at least 1 player to start")
)
