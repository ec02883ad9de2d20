package match

import "github.com/robalobadob/maratona/internal/game"

// Client to server events.
const (
	EventCreateRoom  = "createMaratonaRoom"
	EventJoinRoom    = "joinMaratonaRoom"
	EventRejoinRoom  = "rejoinMaratonaRoom"
	EventSubmitGuess = "submitMaratonaGuess"
	EventRematch     = "maratonaRematch"
	EventLeaveRoom   = "leaveMaratonaRoom"
)

// Server to client events.
const (
	EventConnect          = "connect"
	EventRoomCreated      = "maratonaRoomCreated"
	EventRoomJoined       = "maratonaRoomJoined"
	EventStateSync        = "maratonaStateSync"
	EventGameStart        = "maratonaGameStart"
	EventGuessUpdate      = "maratonaGuessUpdate"
	EventGameOver         = "maratonaGameOver"
	EventRematchRequested = "maratonaRematchRequested"
	EventRematchStart     = "maratonaRematchStart"
	EventError            = "maratonaError"
	EventPlayerLeft       = "maratonaPlayerLeft"
)

type CreateRoomRequest struct {
	Lang     string `json:"lang"`
	PlayerID string `json:"playerId"`
}

type JoinRoomRequest struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

type RejoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type GuessRequest struct {
	Guess    string `json:"guess"`
	PlayerID string `json:"playerId"`
}

// ConnectPayload is the first frame of every connection.
type ConnectPayload struct {
	ID string `json:"id"`
}

// MessagePayload carries a localized, human readable message.
type MessagePayload struct {
	Message string `json:"message"`
}

type StateSync struct {
	GameStarted bool         `json:"gameStarted"`
	RoomCode    string       `json:"roomCode"`
	Guesses     []game.Guess `json:"guesses"`
	Finished    bool         `json:"finished"`
}

type GuessUpdate struct {
	Word     string        `json:"word"`
	Feedback []game.Status `json:"feedback"`
	IsOwner  bool          `json:"isOwner"`
}

// GameOver.WinnerID is the winner's live connection id, so it matches the
// recipient's own socket id only on the winner's client. Empty on a draw.
type GameOver struct {
	WinnerID   string `json:"winnerId"`
	SecretWord string `json:"secretWord"`
}
