// internal/match/registry.go
//
// Room registry: active rooms keyed by their short share code.
//
// Characteristics:
//   - Codes are unique among active rooms; collisions are retried.
//   - Concurrency-safe via RWMutex (concurrent lookups, exclusive create/remove).
//   - State is lost when the process restarts.

package match

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/robalobadob/maratona/internal/game"
	"github.com/robalobadob/maratona/internal/words"
)

const (
	// CodeLength is the length of generated room codes.
	CodeLength = 6
	// codeAlphabet leaves out 0/O and 1/I so codes can be read aloud.
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxCodeAttempts = 32
)

// CodeGenerator produces candidate room codes.
type CodeGenerator func() (string, error)

// RandomCode returns a crypto-random CodeLength code.
func RandomCode() (string, error) {
	var sb strings.Builder
	sb.Grow(CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeCode upper-cases and trims a client supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Registry maps room codes to rooms.
type Registry struct {
	mu    sync.RWMutex     // guards rooms
	rooms map[string]*Room // keyed by Room.code
	gen   CodeGenerator
}

// NewRegistry builds an empty registry; a nil gen uses RandomCode.
func NewRegistry(gen CodeGenerator) *Registry {
	if gen == nil {
		gen = RandomCode
	}
	return &Registry{rooms: make(map[string]*Room), gen: gen}
}

// Create registers a new empty room in the waiting phase under a fresh code.
func (r *Registry) Create(lang words.Language) (*Room, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := r.gen()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}
		room, err := r.insert(NormalizeCode(code), lang)
		if err == nil {
			return room, nil
		}
	}
	return nil, fmt.Errorf("create room after %d attempts: %w", maxCodeAttempts, game.ErrDuplicateRoomCode)
}

func (r *Registry) insert(code string, lang words.Language) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.rooms[code]; taken || code == "" {
		return nil, game.ErrDuplicateRoomCode
	}
	room := newRoom(code, lang)
	r.rooms[code] = room
	return room, nil
}

// Get looks up a room by code (case-insensitive).
func (r *Registry) Get(code string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[NormalizeCode(code)]
	return room, ok
}

// Remove deletes room if it is still the one registered under its code.
func (r *Registry) Remove(room *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.rooms[room.code]; ok && cur == room {
		delete(r.rooms, room.code)
	}
}

// Len reports the number of active rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Snapshot returns the active rooms at call time.
func (r *Registry) Snapshot() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}
