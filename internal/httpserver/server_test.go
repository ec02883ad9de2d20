package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/maratona/internal/account"
	"github.com/robalobadob/maratona/internal/config"
	"github.com/robalobadob/maratona/internal/db"
	"github.com/robalobadob/maratona/internal/history"
	"github.com/robalobadob/maratona/internal/match"
	"github.com/robalobadob/maratona/internal/words"
)

type stubWords struct{}

func (stubWords) Default() words.Language { return words.Italian }
func (stubWords) Pick(words.Language, string) string { return "PIZZA" }
func (stubWords) IsAllowed(words.Language, string) bool { return true }
func (stubWords) Stats() map[words.Language]int { return map[words.Language]int{words.Italian: 1} }

type testEnv struct {
	ts   *httptest.Server
	hub  *match.Hub
	hist history.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(sqlDB, db.Migrations("")))

	hist := history.NewSQLStore(sqlDB)
	hub := match.NewHub(stubWords{}, match.Options{History: hist})
	cfg := config.Config{
		ClientOrigin:   "http://localhost:5173",
		JWTSecret:      "test_secret",
		JWTExpiresDays: 1,
		CookieName:     "maratona_token",
	}
	srv := New(cfg, Deps{Hub: hub, Words: stubWords{}, Accounts: account.NewStore(sqlDB), History: hist})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, hub: hub, hist: hist}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func authCookie(res *http.Response) string {
	for _, c := range res.Cookies() {
		if c.Name == "maratona_token" {
			return c.Value
		}
	}
	return ""
}

func TestHealthAndDiagnostics(t *testing.T) {
	e := newTestEnv(t)

	res, body := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))

	_, body = e.do(t, http.MethodGet, "/debug/words", "", nil)
	assert.Equal(t, float64(1), body["it"])

	_, body = e.do(t, http.MethodGet, "/debug/rooms", "", nil)
	assert.Equal(t, float64(0), body["rooms"])

	res, body = e.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "not_found", body["error"])

	res, _ = e.do(t, http.MethodOptions, "/auth/login", "", nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestLeaderboardAndPlayerStats(t *testing.T) {
	e := newTestEnv(t)
	now := time.Now().UTC()
	require.NoError(t, e.hist.RecordMatch(context.Background(), history.Match{
		RoomCode: "QWERTY", Round: 1, Lang: "it", Secret: "PIZZA", WinnerID: "P1",
		Guesses: 3, Players: []string{"P1", "P2"}, StartedAt: now, FinishedAt: now,
	}))

	_, body := e.do(t, http.MethodGet, "/leaderboard?limit=5", "", nil)
	top, ok := body["top"].([]any)
	require.True(t, ok)
	require.Len(t, top, 2)
	assert.Equal(t, "P1", top[0].(map[string]any)["playerId"])

	_, body = e.do(t, http.MethodGet, "/players/P2/stats", "", nil)
	assert.Equal(t, float64(1), body["gamesPlayed"])
	assert.Equal(t, float64(0), body["wins"])
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)
	creds := map[string]string{"username": "ada_l", "password": "correct horse", "playerId": "P1"}

	res, body := e.do(t, http.MethodPost, "/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "ada_l", body["username"])
	token := authCookie(res)
	require.NotEmpty(t, token)

	res, _ = e.do(t, http.MethodPost, "/auth/signup", "", creds)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, _ = e.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res, _ = e.do(t, http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	_, body = e.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, "ada_l", body["username"])

	res, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "ada_l", "password": "wrong pass"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "ADA_L", "password": "correct horse"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, authCookie(res))

	res, _ = e.do(t, http.MethodPost, "/auth/claim", token, map[string]string{"playerId": "P2"})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	now := time.Now().UTC()
	require.NoError(t, e.hist.RecordMatch(context.Background(), history.Match{
		RoomCode: "QWERTY", Round: 1, Lang: "it", Secret: "PIZZA", WinnerID: "P1",
		Guesses: 3, Players: []string{"P1", "P3"}, StartedAt: now, FinishedAt: now,
	}))
	require.NoError(t, e.hist.RecordMatch(context.Background(), history.Match{
		RoomCode: "ASDFGH", Round: 1, Lang: "it", Secret: "PIZZA", WinnerID: "P3",
		Guesses: 5, Players: []string{"P2", "P3"}, StartedAt: now, FinishedAt: now.Add(time.Second),
	}))

	_, body = e.do(t, http.MethodGet, "/stats/me", token, nil)
	assert.Equal(t, float64(2), body["gamesPlayed"])
	assert.Equal(t, float64(1), body["wins"])
	assert.ElementsMatch(t, []any{"P1", "P2"}, body["playerIds"])

	req, _ := http.NewRequest(http.MethodGet, e.ts.URL+"/matches/mine", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mres, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer mres.Body.Close()
	var matches []history.Match
	require.NoError(t, json.NewDecoder(mres.Body).Decode(&matches))
	require.Len(t, matches, 2)
	assert.Equal(t, "ASDFGH", matches[0].RoomCode)

	// another account cannot take a claimed id
	res, _ = e.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "bob_b", "password": "hunter2hunter2"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	res, _ = e.do(t, http.MethodPost, "/auth/claim", authCookie(res), map[string]string{"playerId": "P1"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, _ = e.do(t, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

// ------------------------------- websocket ---------------------------------

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dial(t *testing.T, e *testEnv) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(map[string]any{"event": event, "data": data}))
}

// expect reads frames until one with the wanted event arrives.
func expect(t *testing.T, c *websocket.Conn, event string, into any) {
	t.Helper()
	for {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
		var f wireFrame
		require.NoError(t, c.ReadJSON(&f), "waiting for %s", event)
		if f.Event != event {
			continue
		}
		if into != nil {
			require.NoError(t, json.Unmarshal(f.Data, into))
		}
		return
	}
}

func TestWebSocketMatch(t *testing.T) {
	e := newTestEnv(t)
	c1, c2 := dial(t, e), dial(t, e)

	var id1, id2 match.ConnectPayload
	expect(t, c1, match.EventConnect, &id1)
	expect(t, c2, match.EventConnect, &id2)
	require.NotEmpty(t, id1.ID)
	require.NotEqual(t, id1.ID, id2.ID)

	send(t, c1, match.EventCreateRoom, match.CreateRoomRequest{Lang: "it", PlayerID: "P1"})
	var code string
	expect(t, c1, match.EventRoomCreated, &code)
	require.Len(t, code, match.CodeLength)

	send(t, c2, match.EventJoinRoom, match.JoinRoomRequest{Code: strings.ToLower(code), PlayerID: "P2"})
	expect(t, c2, match.EventRoomJoined, nil)
	var start match.MessagePayload
	expect(t, c1, match.EventGameStart, &start)
	assert.NotEmpty(t, start.Message)
	expect(t, c2, match.EventGameStart, nil)

	send(t, c2, match.EventSubmitGuess, match.GuessRequest{Guess: "abc", PlayerID: "P2"})
	var msg string
	expect(t, c2, match.EventError, &msg)
	assert.Equal(t, "La parola deve avere 5 lettere.", msg)

	send(t, c1, match.EventSubmitGuess, match.GuessRequest{Guess: "pizza", PlayerID: "P1"})
	var mine, theirs match.GuessUpdate
	expect(t, c1, match.EventGuessUpdate, &mine)
	expect(t, c2, match.EventGuessUpdate, &theirs)
	assert.True(t, mine.IsOwner)
	assert.False(t, theirs.IsOwner)

	var over1, over2 match.GameOver
	expect(t, c1, match.EventGameOver, &over1)
	expect(t, c2, match.EventGameOver, &over2)
	assert.Equal(t, id1.ID, over1.WinnerID)
	assert.NotEqual(t, id2.ID, over2.WinnerID)
	assert.Equal(t, "PIZZA", over2.SecretWord)

	e.hub.Wait()
	_, body := e.do(t, http.MethodGet, "/players/P1/stats", "", nil)
	assert.Equal(t, float64(1), body["wins"])
}

func TestWebSocketRejoinAfterDrop(t *testing.T) {
	e := newTestEnv(t)
	c1, c2 := dial(t, e), dial(t, e)
	expect(t, c1, match.EventConnect, nil)
	expect(t, c2, match.EventConnect, nil)

	send(t, c1, match.EventCreateRoom, match.CreateRoomRequest{PlayerID: "P1"})
	var code string
	expect(t, c1, match.EventRoomCreated, &code)
	send(t, c2, match.EventJoinRoom, match.JoinRoomRequest{Code: code, PlayerID: "P2"})
	expect(t, c2, match.EventGameStart, nil)
	send(t, c2, match.EventSubmitGuess, match.GuessRequest{Guess: "level", PlayerID: "P2"})
	expect(t, c2, match.EventGuessUpdate, nil)

	require.NoError(t, c2.Close())
	c2b := dial(t, e)
	expect(t, c2b, match.EventConnect, nil)
	send(t, c2b, match.EventRejoinRoom, match.RejoinRoomRequest{RoomCode: code, PlayerID: "P2"})

	var st match.StateSync
	expect(t, c2b, match.EventStateSync, &st)
	assert.True(t, st.GameStarted)
	assert.Equal(t, code, st.RoomCode)
	require.Len(t, st.Guesses, 1)
	assert.Equal(t, "P2", st.Guesses[0].PlayerID)
	assert.Equal(t, "LEVEL", st.Guesses[0].Word)
}

func TestWebSocketRejectsGarbage(t *testing.T) {
	e := newTestEnv(t)
	c := dial(t, e)
	expect(t, c, match.EventConnect, nil)

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("not json")))
	var msg string
	expect(t, c, match.EventError, &msg)
	assert.Equal(t, "Richiesta non valida.", msg)
}
