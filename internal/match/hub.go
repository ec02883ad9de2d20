// internal/match/hub.go
//
// Hub: session and reconnection manager plus the room operations driven by
// socket events.
//
// Lock order: a room's mu may be held while taking h.mu, never the reverse.
// Outbound frames are enqueued on the connection (Sender.Send) while the
// room lock is held, so every client observes room events in room order.

package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/maratona/internal/game"
	"github.com/robalobadob/maratona/internal/history"
	"github.com/robalobadob/maratona/internal/words"
)

// Sender is one live client connection. Send must not block. Shutdown
// calls Close on senders that have one.
type Sender interface {
	ID() string
	Send(event string, data any) error
}

// WordSource draws secrets and answers dictionary lookups.
type WordSource interface {
	Default() words.Language
	Pick(lang words.Language, key string) string
	IsAllowed(lang words.Language, word string) bool
}

// Recorder stores finished rounds.
type Recorder interface {
	RecordMatch(ctx context.Context, m history.Match) error
}

type Options struct {
	GracePeriod    time.Duration
	RematchTimeout time.Duration
	IdleTimeout    time.Duration
	SweepInterval  time.Duration
	EnforceTurns   bool
	StrictWords    bool
	MaxGuesses     int // 0 = unbounded

	Codes   CodeGenerator // nil = RandomCode
	History Recorder      // nil disables history
}

const recordTimeout = 5 * time.Second

// ErrHubStopped is returned for new rooms once Shutdown has run.
var ErrHubStopped = errors.New("server shutting down")

func (o *Options) setDefaults() {
	if o.GracePeriod <= 0 {
		o.GracePeriod = 45 * time.Second
	}
	if o.RematchTimeout <= 0 {
		o.RematchTimeout = time.Minute
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 30 * time.Minute
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
}

type binding struct {
	sender   Sender
	room     *Room
	playerID string
}

type Hub struct {
	opts  Options
	words WordSource
	rooms *Registry

	mu       sync.Mutex
	conns    map[string]*binding // by connection id
	stopping bool

	recording sync.WaitGroup
}

func NewHub(ws WordSource, opts Options) *Hub {
	opts.setDefaults()
	return &Hub{
		opts:  opts,
		words: ws,
		rooms: NewRegistry(opts.Codes),
		conns: make(map[string]*binding),
	}
}

// Rooms exposes the registry (read-only use).
func (h *Hub) Rooms() *Registry { return h.rooms }

// Connections reports the number of open connections.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Connect registers a new connection and tells the client its id.
func (h *Hub) Connect(s Sender) {
	h.mu.Lock()
	h.conns[s.ID()] = &binding{sender: s}
	h.mu.Unlock()
	_ = s.Send(EventConnect, ConnectPayload{ID: s.ID()})
	log.Debug().Str("conn", s.ID()).Msg("connected")
}

// Disconnect drops a connection. A bound player is marked disconnected and
// gets GracePeriod to rejoin before the room is torn down.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	b, ok := h.conns[connID]
	delete(h.conns, connID)
	h.mu.Unlock()
	if !ok || b.room == nil {
		return
	}

	room := b.room
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return
	}
	p := room.player(b.playerID)
	if p == nil || p.connID != connID || !p.connected {
		return
	}
	p.connected = false
	p.sender = nil
	p.graceGen++
	gen, pid := p.graceGen, p.id
	p.graceTimer = time.AfterFunc(h.opts.GracePeriod, func() { h.graceExpired(room, pid, gen) })

	log.Info().Str("room", room.code).Str("player", pid).Str("conn", connID).
		Dur("grace", h.opts.GracePeriod).Msg("player disconnected")
}

func (h *Hub) graceExpired(room *Room, playerID string, gen int) {
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return
	}
	p := room.player(playerID)
	if p == nil || p.connected || p.graceGen != gen {
		return
	}
	log.Info().Str("room", room.code).Str("player", playerID).Msg("grace period expired")
	h.removeLocked(room, p)
}

// Dispatch decodes one client event and runs it. Failures are reported to
// the sender only.
func (h *Hub) Dispatch(s Sender, event string, raw json.RawMessage) {
	var err error
	switch event {
	case EventCreateRoom:
		var req CreateRoomRequest
		if err = decode(raw, &req); err == nil {
			err = h.CreateRoom(s, req)
		}
	case EventJoinRoom:
		var req JoinRoomRequest
		if err = decode(raw, &req); err == nil {
			err = h.JoinRoom(s, req)
		}
	case EventRejoinRoom:
		var req RejoinRoomRequest
		if err = decode(raw, &req); err == nil {
			err = h.RejoinRoom(s, req)
		}
	case EventSubmitGuess:
		var req GuessRequest
		if err = decode(raw, &req); err == nil {
			err = h.SubmitGuess(s, req)
		}
	case EventRematch:
		err = h.Rematch(s)
	case EventLeaveRoom:
		err = h.Leave(s)
	default:
		err = fmt.Errorf("%w: unknown event %q", game.ErrBadRequest, event)
	}
	if err != nil {
		h.replyError(s, event, err)
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", game.ErrBadRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", game.ErrBadRequest, err)
	}
	return nil
}

func (h *Hub) replyError(s Sender, event string, err error) {
	lang := h.words.Default()
	if room, _ := h.boundRoom(s.ID()); room != nil {
		lang = room.lang
	}
	ev := log.Debug()
	if errors.Is(err, game.ErrDuplicateRoomCode) {
		ev = log.Warn()
	}
	ev.Err(err).Str("conn", s.ID()).Str("event", event).Msg("request rejected")
	_ = s.Send(EventError, errorMessage(lang, err))
}

// CreateRoom opens a waiting room with the requester as first player.
func (h *Hub) CreateRoom(s Sender, req CreateRoomRequest) error {
	pid := strings.TrimSpace(req.PlayerID)
	if pid == "" {
		return fmt.Errorf("%w: playerId required", game.ErrBadRequest)
	}
	lang := words.ParseLanguage(req.Lang, h.words.Default())

	h.leaveCurrent(s)
	room, err := h.rooms.Create(lang)
	if err != nil {
		return err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if h.isStopping() {
		h.closeLocked(room)
		return ErrHubStopped
	}
	p := &player{id: pid}
	room.players = append(room.players, p)
	h.attachLocked(room, p, s)
	room.send(p, EventRoomCreated, room.code)

	log.Info().Str("room", room.code).Str("player", pid).Str("lang", string(lang)).Msg("room created")
	return nil
}

// JoinRoom adds the second player and starts the match. A member joining
// again is treated as a rejoin.
func (h *Hub) JoinRoom(s Sender, req JoinRoomRequest) error {
	pid := strings.TrimSpace(req.PlayerID)
	if pid == "" {
		return fmt.Errorf("%w: playerId required", game.ErrBadRequest)
	}
	room, ok := h.rooms.Get(req.Code)
	if !ok {
		return fmt.Errorf("%w: %q", game.ErrRoomNotFound, req.Code)
	}
	cur, curPID := h.boundRoom(s.ID())
	if cur != nil && cur != room {
		h.leaveCurrent(s)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return fmt.Errorf("%w: %q", game.ErrRoomNotFound, req.Code)
	}
	if cur == room && curPID != pid {
		return fmt.Errorf("%w: connection already plays as %q", game.ErrBadRequest, curPID)
	}
	if p := room.player(pid); p != nil {
		h.attachLocked(room, p, s)
		room.send(p, EventRoomJoined, room.code)
		h.syncLocked(room, p)
		return nil
	}
	if len(room.players) >= MaxPlayers {
		return game.ErrRoomFull
	}

	p := &player{id: pid}
	room.players = append(room.players, p)
	h.attachLocked(room, p, s)
	room.send(p, EventRoomJoined, room.code)
	log.Info().Str("room", room.code).Str("player", pid).Msg("player joined")

	if len(room.players) == MaxPlayers && room.phase == PhaseWaiting {
		h.startRoundLocked(room, EventGameStart, messagesFor(room.lang).gameStart)
	}
	return nil
}

// RejoinRoom re-attaches a member on a new connection and sends it the full
// room state. A connection already bound to another room ignores the request.
func (h *Hub) RejoinRoom(s Sender, req RejoinRoomRequest) error {
	pid := strings.TrimSpace(req.PlayerID)
	if pid == "" || strings.TrimSpace(req.RoomCode) == "" {
		return fmt.Errorf("%w: roomCode and playerId required", game.ErrBadRequest)
	}
	room, ok := h.rooms.Get(req.RoomCode)
	if !ok {
		return fmt.Errorf("%w: %q", game.ErrRoomNotFound, req.RoomCode)
	}
	cur, curPID := h.boundRoom(s.ID())
	if cur != nil && cur != room {
		log.Debug().Str("conn", s.ID()).Str("room", room.code).Msg("rejoin ignored, connection bound elsewhere")
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return fmt.Errorf("%w: %q", game.ErrRoomNotFound, req.RoomCode)
	}
	if cur == room && curPID != pid {
		return fmt.Errorf("%w: connection already plays as %q", game.ErrBadRequest, curPID)
	}
	p := room.player(pid)
	if p == nil {
		return game.ErrPlayerNotInRoom
	}
	h.attachLocked(room, p, s)
	h.syncLocked(room, p)
	log.Info().Str("room", room.code).Str("player", pid).Str("conn", s.ID()).Msg("player rejoined")
	return nil
}

// SubmitGuess validates, scores and broadcasts one guess.
func (h *Hub) SubmitGuess(s Sender, req GuessRequest) error {
	room, _ := h.boundRoom(s.ID())
	if room == nil {
		return game.ErrPlayerNotInRoom
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	p := room.player(strings.TrimSpace(req.PlayerID))
	if room.closed || p == nil || !p.connected || p.connID != s.ID() {
		return game.ErrPlayerNotInRoom
	}
	// shape errors win over phase errors
	word := game.Normalize(req.Guess)
	if err := game.ValidateGuess(word); err != nil {
		return err
	}
	switch room.phase {
	case PhaseWaiting:
		return game.ErrGameNotStarted
	case PhaseFinished:
		return game.ErrGameFinished
	}
	if h.opts.EnforceTurns && room.players[room.turn] != p {
		return game.ErrNotYourTurn
	}
	if h.opts.StrictWords && !h.words.IsAllowed(room.lang, word) {
		return fmt.Errorf("%w: %s", game.ErrNotInWordList, word)
	}

	fb := game.Evaluate(room.secret, word)
	room.guesses = append(room.guesses, game.Guess{PlayerID: p.id, Word: word, Feedback: fb})
	room.lastActivity = time.Now()
	for i, q := range room.players {
		if q == p {
			room.turn = (i + 1) % len(room.players)
		}
		room.send(q, EventGuessUpdate, GuessUpdate{Word: word, Feedback: fb, IsOwner: q == p})
	}
	log.Debug().Str("room", room.code).Str("player", p.id).Int("n", len(room.guesses)).Msg("guess applied")

	switch {
	case game.AllCorrect(fb):
		h.finishLocked(room, p.id)
	case h.opts.MaxGuesses > 0 && len(room.guesses) >= h.opts.MaxGuesses:
		h.finishLocked(room, "")
	}
	return nil
}

// Rematch records the sender's vote; two votes start a new round.
func (h *Hub) Rematch(s Sender) error {
	room, pid := h.boundRoom(s.ID())
	if room == nil {
		return game.ErrPlayerNotInRoom
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	p := room.player(pid)
	if room.closed || p == nil || p.connID != s.ID() {
		return game.ErrPlayerNotInRoom
	}
	if room.phase != PhaseFinished {
		return game.ErrGameNotFinished
	}
	if p.rematch {
		return nil
	}
	p.rematch = true
	room.lastActivity = time.Now()

	all := len(room.players) == MaxPlayers
	for _, q := range room.players {
		all = all && q.rematch
	}
	if all {
		room.round++
		h.startRoundLocked(room, EventRematchStart, messagesFor(room.lang).rematchStart)
		return nil
	}

	msg := messagesFor(room.lang).rematchRequested
	for _, o := range room.opponents(p) {
		room.send(o, EventRematchRequested, msg)
	}
	if room.rematchTimer == nil {
		room.rematchGen++
		gen := room.rematchGen
		room.rematchTimer = time.AfterFunc(h.opts.RematchTimeout, func() { h.rematchExpired(room, gen) })
	}
	log.Info().Str("room", room.code).Str("player", pid).Msg("rematch requested")
	return nil
}

func (h *Hub) rematchExpired(room *Room, gen int) {
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed || room.rematchGen != gen || room.phase != PhaseFinished {
		return
	}
	room.rematchTimer = nil
	msg := messagesFor(room.lang).rematchExpired
	for _, p := range room.players {
		if p.rematch {
			p.rematch = false
			room.send(p, EventError, msg)
		}
	}
	log.Info().Str("room", room.code).Msg("rematch request expired")
}

// Leave removes the sender's player and tears the room down.
func (h *Hub) Leave(s Sender) error {
	h.leaveCurrent(s)
	return nil
}

// Run sweeps idle rooms until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.opts.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := h.sweep(now); n > 0 {
				log.Info().Int("closed", n).Int("active", h.rooms.Len()).Msg("idle rooms swept")
			}
		}
	}
}

func (h *Hub) sweep(now time.Time) int {
	closed := 0
	for _, room := range h.rooms.Snapshot() {
		room.mu.Lock()
		if !room.closed && now.Sub(room.lastActivity) >= h.opts.IdleTimeout {
			room.broadcast(EventPlayerLeft, messagesFor(room.lang).roomExpired)
			h.closeLocked(room)
			closed++
		}
		room.mu.Unlock()
	}
	return closed
}

// Shutdown closes every room and every live connection. Rooms created
// afterwards are refused, so no round can finish once it returns.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.stopping = true
	h.mu.Unlock()

	for _, room := range h.rooms.Snapshot() {
		room.mu.Lock()
		if !room.closed {
			h.closeLocked(room)
		}
		room.mu.Unlock()
	}

	h.mu.Lock()
	senders := make([]Sender, 0, len(h.conns))
	for _, b := range h.conns {
		senders = append(senders, b.sender)
	}
	h.mu.Unlock()
	for _, s := range senders {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
	log.Info().Int("connections", len(senders)).Msg("hub stopped")
}

func (h *Hub) isStopping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopping
}

// Wait blocks until pending history writes are done. A round's write is
// scheduled before its game-over frames are queued.
func (h *Hub) Wait() { h.recording.Wait() }

func (h *Hub) startRoundLocked(room *Room, event, message string) {
	room.secret = game.Normalize(h.words.Pick(room.lang, fmt.Sprintf("%s#%d", room.code, room.round)))
	room.phase = PhaseInProgress
	room.guesses = nil
	room.winnerID = ""
	room.turn = 0
	room.startedAt = time.Now()
	room.lastActivity = room.startedAt
	if room.rematchTimer != nil {
		room.rematchTimer.Stop()
		room.rematchTimer = nil
	}
	room.rematchGen++
	for _, p := range room.players {
		p.rematch = false
	}
	room.broadcast(event, MessagePayload{Message: message})
	log.Info().Str("room", room.code).Int("round", room.round).Msg("round started")
}

func (h *Hub) finishLocked(room *Room, winnerID string) {
	room.phase = PhaseFinished
	room.winnerID = winnerID
	room.lastActivity = time.Now()

	ids := make([]string, 0, len(room.players))
	for _, p := range room.players {
		ids = append(ids, p.id)
	}
	h.record(history.Match{
		RoomCode:   room.code,
		Round:      room.round,
		Lang:       string(room.lang),
		Secret:     room.secret,
		WinnerID:   winnerID,
		Guesses:    len(room.guesses),
		Players:    ids,
		StartedAt:  room.startedAt,
		FinishedAt: room.lastActivity,
	})

	for _, p := range room.players {
		room.send(p, EventGameOver, room.gameOver())
	}
	log.Info().Str("room", room.code).Int("round", room.round).Str("winner", winnerID).
		Int("guesses", len(room.guesses)).Msg("round finished")
}

func (h *Hub) record(m history.Match) {
	if h.opts.History == nil {
		return
	}
	h.recording.Add(1)
	go func() {
		defer h.recording.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := h.opts.History.RecordMatch(ctx, m); err != nil {
			log.Warn().Err(err).Str("room", m.RoomCode).Int("round", m.Round).Msg("record match")
		}
	}()
}

// syncLocked sends the full room state to p.
func (h *Hub) syncLocked(room *Room, p *player) {
	room.send(p, EventStateSync, room.stateSync())
	if room.phase != PhaseFinished {
		return
	}
	room.send(p, EventGameOver, room.gameOver())
	for _, o := range room.opponents(p) {
		if o.rematch && !p.rematch {
			room.send(p, EventRematchRequested, messagesFor(room.lang).rematchRequested)
			break
		}
	}
}

// attachLocked points p at connection s, replacing any previous one.
func (h *Hub) attachLocked(room *Room, p *player, s Sender) {
	if p.connID != "" && p.connID != s.ID() {
		h.unbind(p.connID, room)
	}
	if p.graceTimer != nil {
		p.graceTimer.Stop()
		p.graceTimer = nil
	}
	p.graceGen++
	p.connID = s.ID()
	p.sender = s
	p.connected = true
	room.lastActivity = time.Now()

	h.mu.Lock()
	b, ok := h.conns[s.ID()]
	if !ok {
		b = &binding{sender: s}
		h.conns[s.ID()] = b
	}
	b.room = room
	b.playerID = p.id
	h.mu.Unlock()
}

// removeLocked handles a player leaving: the opponent is told and the room
// is closed.
func (h *Hub) removeLocked(room *Room, p *player) {
	msg := messagesFor(room.lang).playerLeft
	for _, o := range room.opponents(p) {
		room.send(o, EventPlayerLeft, msg)
	}
	log.Info().Str("room", room.code).Str("player", p.id).Msg("player left")
	h.closeLocked(room)
}

func (h *Hub) closeLocked(room *Room) {
	room.closed = true
	room.stopTimers()
	h.rooms.Remove(room)
	for _, p := range room.players {
		h.unbind(p.connID, room)
	}
	log.Info().Str("room", room.code).Int("active", h.rooms.Len()).Msg("room closed")
}

// leaveCurrent removes the connection's player from its current room.
func (h *Hub) leaveCurrent(s Sender) {
	room, pid := h.boundRoom(s.ID())
	if room == nil {
		return
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return
	}
	if p := room.player(pid); p != nil && p.connID == s.ID() {
		h.removeLocked(room, p)
	}
}

func (h *Hub) boundRoom(connID string) (*Room, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.conns[connID]; ok {
		return b.room, b.playerID
	}
	return nil, ""
}

func (h *Hub) unbind(connID string, room *Room) {
	if connID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.conns[connID]; ok && b.room == room {
		b.room = nil
		b.playerID = ""
	}
}
