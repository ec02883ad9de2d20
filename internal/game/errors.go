package game

import "errors"

// Errors reported back to the originating client. None of them changes room
// state; the protocol layer maps each one to a localized message.
var (
	ErrRoomNotFound           = errors.New("room not found")
	ErrRoomFull               = errors.New("room full")
	ErrPlayerNotInRoom        = errors.New("player not in room")
	ErrInvalidGuessLength     = errors.New("invalid guess length")
	ErrInvalidGuessCharacters = errors.New("guess must contain letters only")
	ErrNotInWordList          = errors.New("word not in list")
	ErrGameNotStarted         = errors.New("game not started")
	ErrGameFinished           = errors.New("game finished")
	ErrGameNotFinished        = errors.New("game not finished")
	ErrNotYourTurn            = errors.New("not your turn")
	ErrBadRequest             = errors.New("bad request")

	// ErrDuplicateRoomCode is retried inside the registry and never surfaced.
	ErrDuplicateRoomCode = errors.New("duplicate room code")
)
