package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the same behavioural checks against any backend.
func exerciseStore(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.RecordMatch(ctx, Match{
		RoomCode: "AB12CD", Round: 1, Lang: "en", Secret: "CRANE", WinnerID: "alice",
		Guesses: 4, Players: []string{"alice", "bob"}, StartedAt: t0, FinishedAt: t0.Add(time.Minute),
	}))
	require.NoError(t, st.RecordMatch(ctx, Match{
		RoomCode: "AB12CD", Round: 2, Lang: "en", Secret: "SLATE", WinnerID: "bob",
		Guesses: 7, Players: []string{"alice", "bob"}, StartedAt: t0.Add(2 * time.Minute), FinishedAt: t0.Add(3 * time.Minute),
	}))
	require.NoError(t, st.RecordMatch(ctx, Match{
		RoomCode: "ZZ99ZZ", Round: 1, Lang: "it", Secret: "PIZZA", WinnerID: "alice",
		Guesses: 2, Players: []string{"alice", "carol"}, StartedAt: t0.Add(4 * time.Minute), FinishedAt: t0.Add(5 * time.Minute),
	}))

	alice, err := st.PlayerStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, PlayerStats{PlayerID: "alice", GamesPlayed: 3, Wins: 2}, alice)

	nobody, err := st.PlayerStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, nobody.GamesPlayed)

	lb, err := st.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, lb, 3)
	assert.Equal(t, "alice", lb[0].PlayerID)
	assert.Equal(t, "bob", lb[1].PlayerID)
	assert.Equal(t, "carol", lb[2].PlayerID)

	recent, err := st.RecentMatches(ctx, []string{"bob"}, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "SLATE", recent[0].Secret)
	assert.Equal(t, "CRANE", recent[1].Secret)
	assert.True(t, recent[0].FinishedAt.Equal(t0.Add(3*time.Minute)))

	both, err := st.RecentMatches(ctx, []string{"alice", "bob"}, 2)
	require.NoError(t, err)
	require.Len(t, both, 2)
	assert.Equal(t, "PIZZA", both[0].Secret)

	none, err := st.RecentMatches(ctx, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
