package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS matches (
    id          BIGSERIAL PRIMARY KEY,
    room_code   TEXT NOT NULL,
    round       INTEGER NOT NULL,
    lang        TEXT NOT NULL,
    secret      TEXT NOT NULL,
    winner_id   TEXT NOT NULL DEFAULT '',
    guesses     INTEGER NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS match_players (
    match_id  BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
    player_id TEXT NOT NULL,
    won       BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (match_id, player_id)
);
CREATE INDEX IF NOT EXISTS idx_match_players_player ON match_players(player_id);
`

// PGStore is the Postgres-backed Store.
type PGStore struct{ pool *pgxpool.Pool }

// NewPGStore connects to databaseURL and ensures the schema exists.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Close() { s.pool.Close() }

func (s *PGStore) RecordMatch(ctx context.Context, m Match) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
            INSERT INTO matches (room_code, round, lang, secret, winner_id, guesses, started_at, finished_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            RETURNING id`,
			m.RoomCode, m.Round, m.Lang, m.Secret, m.WinnerID, m.Guesses, m.StartedAt.UTC(), m.FinishedAt.UTC(),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
		batch := &pgx.Batch{}
		for _, p := range m.Players {
			batch.Queue(`INSERT INTO match_players (match_id, player_id, won) VALUES ($1, $2, $3)
                         ON CONFLICT DO NOTHING`, id, p, p == m.WinnerID)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (s *PGStore) PlayerStats(ctx context.Context, playerID string) (PlayerStats, error) {
	st := PlayerStats{PlayerID: playerID}
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(1), COUNT(1) FILTER (WHERE won) FROM match_players WHERE player_id=$1`, playerID,
	).Scan(&st.GamesPlayed, &st.Wins)
	return st, err
}

func (s *PGStore) Leaderboard(ctx context.Context, limit int) ([]PlayerStats, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT player_id, COUNT(1) AS played, COUNT(1) FILTER (WHERE won) AS wins
        FROM match_players
        GROUP BY player_id
        ORDER BY wins DESC, played ASC, player_id ASC
        LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PlayerStats, error) {
		var r PlayerStats
		err := row.Scan(&r.PlayerID, &r.GamesPlayed, &r.Wins)
		return r, err
	})
	if out == nil {
		out = []PlayerStats{}
	}
	return out, err
}

func (s *PGStore) RecentMatches(ctx context.Context, playerIDs []string, limit int) ([]Match, error) {
	if len(playerIDs) == 0 {
		return []Match{}, nil
	}
	rows, err := s.pool.Query(ctx, `
        SELECT m.id, m.room_code, m.round, m.lang, m.secret, m.winner_id, m.guesses, m.started_at, m.finished_at
        FROM matches m
        WHERE EXISTS (SELECT 1 FROM match_players mp WHERE mp.match_id = m.id AND mp.player_id = ANY($1))
        ORDER BY m.finished_at DESC, m.id DESC
        LIMIT $2`, playerIDs, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Match, error) {
		var m Match
		err := row.Scan(&m.ID, &m.RoomCode, &m.Round, &m.Lang, &m.Secret, &m.WinnerID, &m.Guesses, &m.StartedAt, &m.FinishedAt)
		return m, err
	})
	if out == nil {
		out = []Match{}
	}
	return out, err
}
