package match

import (
	"sync"
	"time"

	"github.com/robalobadob/maratona/internal/game"
	"github.com/robalobadob/maratona/internal/words"
)

// MaxPlayers is the room capacity.
const MaxPlayers = 2

// Phase is the lifecycle stage of a room's current round.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// player is a room member identified by its durable id. connID and sender
// follow the player's current socket and are empty while disconnected.
type player struct {
	id        string
	connID    string
	sender    Sender
	connected bool

	graceGen   int
	graceTimer *time.Timer
	rematch    bool
}

// Room holds one match. Every field is guarded by mu; code and lang never
// change after creation.
type Room struct {
	mu   sync.Mutex
	code string
	lang words.Language

	players  []*player // join order; players[0] created the room
	phase    Phase
	secret   string
	guesses  []game.Guess
	winnerID string // durable id, empty on a draw
	round    int
	turn     int // index into players, used when turns are enforced

	startedAt    time.Time
	lastActivity time.Time

	rematchGen   int
	rematchTimer *time.Timer
	closed       bool
}

func newRoom(code string, lang words.Language) *Room {
	now := time.Now()
	return &Room{
		code:         code,
		lang:         lang,
		phase:        PhaseWaiting,
		round:        1,
		lastActivity: now,
	}
}

// Code returns the room's share code.
func (r *Room) Code() string { return r.code }

// Lang returns the language the secret words are drawn from.
func (r *Room) Lang() words.Language { return r.lang }

// Phase returns the current phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Guesses returns a copy of the current round's guess history.
func (r *Room) Guesses() []game.Guess {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneGuesses(r.guesses)
}

func (r *Room) player(id string) *player {
	for _, p := range r.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (r *Room) opponents(of *player) []*player {
	out := make([]*player, 0, len(r.players))
	for _, p := range r.players {
		if p != of {
			out = append(out, p)
		}
	}
	return out
}

// send delivers to p if it is connected. Caller holds r.mu.
func (r *Room) send(p *player, event string, data any) {
	if p == nil || !p.connected || p.sender == nil {
		return
	}
	_ = p.sender.Send(event, data)
}

func (r *Room) broadcast(event string, data any) {
	for _, p := range r.players {
		r.send(p, event, data)
	}
}

// gameOver builds the end-of-round payload. The winner is named by live
// connection id, which only the winner's own client recognises.
func (r *Room) gameOver() GameOver {
	out := GameOver{SecretWord: r.revealSecret()}
	if w := r.player(r.winnerID); w != nil {
		out.WinnerID = w.connID
	}
	return out
}

// revealSecret returns the secret once the round is over, "" before.
func (r *Room) revealSecret() string {
	if r.phase != PhaseFinished {
		return ""
	}
	return r.secret
}

func (r *Room) stateSync() StateSync {
	return StateSync{
		GameStarted: r.phase != PhaseWaiting,
		RoomCode:    r.code,
		Guesses:     cloneGuesses(r.guesses),
		Finished:    r.phase == PhaseFinished,
	}
}

func (r *Room) stopTimers() {
	for _, p := range r.players {
		if p.graceTimer != nil {
			p.graceTimer.Stop()
			p.graceTimer = nil
		}
		p.graceGen++
	}
	if r.rematchTimer != nil {
		r.rematchTimer.Stop()
		r.rematchTimer = nil
	}
	r.rematchGen++
}

func cloneGuesses(in []game.Guess) []game.Guess {
	out := make([]game.Guess, len(in))
	for i, g := range in {
		out[i] = game.Guess{
			PlayerID: g.PlayerID,
			Word:     g.Word,
			Feedback: append([]game.Status(nil), g.Feedback...),
		}
	}
	return out
}
