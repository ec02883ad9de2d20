// Package history persists finished Maratona rounds and answers the
// leaderboard / per-player statistics queries.
//
// Two backends implement Store: SQLite (database/sql, default) and
// Postgres (pgx pool, DB_DRIVER=postgres). Players are identified by their
// durable client-generated id.
package history

import (
	"context"
	"time"
)

// Match is one finished round of a room.
type Match struct {
	ID         int64     `json:"id"`
	RoomCode   string    `json:"roomCode"`
	Round      int       `json:"round"`
	Lang       string    `json:"lang"`
	Secret     string    `json:"secret"`
	WinnerID   string    `json:"winnerId,omitempty"` // empty on a draw
	Guesses    int       `json:"guesses"`
	Players    []string  `json:"players,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// PlayerStats aggregates the rounds of one durable player id.
type PlayerStats struct {
	PlayerID    string `json:"playerId"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
}

// Store is the persistence interface for match history.
type Store interface {
	// RecordMatch stores a finished round and its participants.
	RecordMatch(ctx context.Context, m Match) error

	// PlayerStats returns zero counts for an unknown player.
	PlayerStats(ctx context.Context, playerID string) (PlayerStats, error)

	// Leaderboard orders players by wins desc, then games played asc.
	Leaderboard(ctx context.Context, limit int) ([]PlayerStats, error)

	// RecentMatches lists rounds any of playerIDs took part in, newest first.
	RecentMatches(ctx context.Context, playerIDs []string, limit int) ([]Match, error)
}

const defaultLimit = 20

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, 100)
}
