package match

import (
	"errors"

	"github.com/robalobadob/maratona/internal/game"
	"github.com/robalobadob/maratona/internal/words"
)

type catalog struct {
	gameStart        string
	rematchRequested string
	rematchStart     string
	rematchExpired   string
	playerLeft       string
	roomExpired      string
	genericError     string
	errs             map[error]string
}

var catalogs = map[words.Language]catalog{
	words.Italian: {
		gameStart:        "La partita è iniziata! Indovina la parola segreta.",
		rematchRequested: "L'avversario vuole la rivincita!",
		rematchStart:     "Rivincita! Nuova parola segreta.",
		rematchExpired:   "Richiesta di rivincita scaduta.",
		playerLeft:       "L'avversario ha lasciato la partita.",
		roomExpired:      "Stanza chiusa per inattività.",
		genericError:     "Si è verificato un errore.",
		errs: map[error]string{
			game.ErrRoomNotFound:           "Stanza non trovata.",
			game.ErrRoomFull:               "La stanza è piena.",
			game.ErrPlayerNotInRoom:        "Non fai parte di questa stanza.",
			game.ErrInvalidGuessLength:     "La parola deve avere 5 lettere.",
			game.ErrInvalidGuessCharacters: "Usa solo lettere.",
			game.ErrNotInWordList:          "Parola non presente nel dizionario.",
			game.ErrGameNotStarted:         "La partita non è ancora iniziata.",
			game.ErrGameFinished:           "La partita è terminata.",
			game.ErrGameNotFinished:        "La partita è ancora in corso.",
			game.ErrNotYourTurn:            "Non è il tuo turno.",
			game.ErrBadRequest:             "Richiesta non valida.",
		},
	},
	words.English: {
		gameStart:        "The match has started! Guess the secret word.",
		rematchRequested: "Your opponent wants a rematch!",
		rematchStart:     "Rematch! New secret word.",
		rematchExpired:   "Rematch request expired.",
		playerLeft:       "Your opponent left the match.",
		roomExpired:      "Room closed for inactivity.",
		genericError:     "Something went wrong.",
		errs: map[error]string{
			game.ErrRoomNotFound:           "Room not found.",
			game.ErrRoomFull:               "The room is full.",
			game.ErrPlayerNotInRoom:        "You are not part of this room.",
			game.ErrInvalidGuessLength:     "The word must have 5 letters.",
			game.ErrInvalidGuessCharacters: "Use letters only.",
			game.ErrNotInWordList:          "Word not in the dictionary.",
			game.ErrGameNotStarted:         "The match has not started yet.",
			game.ErrGameFinished:           "The match is over.",
			game.ErrGameNotFinished:        "The match is still running.",
			game.ErrNotYourTurn:            "It is not your turn.",
			game.ErrBadRequest:             "Invalid request.",
		},
	},
}

func messagesFor(lang words.Language) catalog {
	if c, ok := catalogs[lang]; ok {
		return c
	}
	return catalogs[words.Italian]
}

// errorMessage maps err to the localized text of the first matching sentinel.
func errorMessage(lang words.Language, err error) string {
	c := messagesFor(lang)
	for sentinel, msg := range c.errs {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return c.genericError
}
