package match

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/maratona/internal/history"
	"github.com/robalobadob/maratona/internal/words"
)

type frame struct {
	event string
	data  any
}

// fakeConn records every frame sent to it.
type fakeConn struct {
	id string

	mu     sync.Mutex
	frames []frame
	closed bool
}

func newConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(event string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame{event, data})
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fr := range f.frames {
		if fr.event == event {
			n++
		}
	}
	return n
}

func (f *fakeConn) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.frames))
	for i, fr := range f.frames {
		out[i] = fr.event
	}
	return out
}

// last returns the payload of the most recent frame of the given event.
func (f *fakeConn) last(t *testing.T, event string) any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.frames) - 1; i >= 0; i-- {
		if f.frames[i].event == event {
			return f.frames[i].data
		}
	}
	require.Failf(t, "event not received", "%s on %s", event, f.id)
	return nil
}

type fixedWords struct {
	secret  string
	allowed map[string]bool
}

func (fixedWords) Default() words.Language { return words.Italian }
func (w fixedWords) Pick(words.Language, string) string { return w.secret }
func (w fixedWords) IsAllowed(_ words.Language, word string) bool { return w.allowed[word] }

// codes yields the given codes in order, then random ones.
func codes(list ...string) CodeGenerator {
	var mu sync.Mutex
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(list) == 0 {
			return RandomCode()
		}
		c := list[0]
		list = list[1:]
		return c, nil
	}
}

type fakeRecorder struct {
	mu      sync.Mutex
	matches []history.Match
}

func (r *fakeRecorder) RecordMatch(_ context.Context, m history.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, m)
	return nil
}

func (r *fakeRecorder) all() []history.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]history.Match(nil), r.matches...)
}

func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	if opts.Codes == nil {
		opts.Codes = codes("AB12")
	}
	return NewHub(fixedWords{secret: "crane"}, opts)
}

// startMatch connects two players to room AB12 and starts the match.
func startMatch(t *testing.T, h *Hub) (p1, p2 *fakeConn) {
	t.Helper()
	p1, p2 = newConn("sock-1"), newConn("sock-2")
	h.Connect(p1)
	h.Connect(p2)
	require.NoError(t, h.CreateRoom(p1, CreateRoomRequest{Lang: "it", PlayerID: "P1"}))
	require.NoError(t, h.JoinRoom(p2, JoinRoomRequest{Code: "AB12", PlayerID: "P2"}))
	return p1, p2
}

func mustRoom(t *testing.T, h *Hub, code string) *Room {
	t.Helper()
	r, ok := h.Rooms().Get(code)
	require.True(t, ok, "room %s not registered", code)
	return r
}
