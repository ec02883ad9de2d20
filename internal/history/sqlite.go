package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLStore is the SQLite-backed Store. The schema comes from the db
// package migrations.
type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) RecordMatch(ctx context.Context, m Match) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        INSERT INTO matches (room_code, round, lang, secret, winner_id, guesses, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RoomCode, m.Round, m.Lang, m.Secret, m.WinnerID, m.Guesses,
		m.StartedAt.UTC().Format(time.RFC3339), m.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, p := range m.Players {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO match_players (match_id, player_id, won) VALUES (?, ?, ?)`,
			id, p, boolInt(p == m.WinnerID),
		); err != nil {
			return fmt.Errorf("insert match player: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) PlayerStats(ctx context.Context, playerID string) (PlayerStats, error) {
	st := PlayerStats{PlayerID: playerID}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(won), 0) FROM match_players WHERE player_id=?`, playerID,
	).Scan(&st.GamesPlayed, &st.Wins)
	return st, err
}

func (s *SQLStore) Leaderboard(ctx context.Context, limit int) ([]PlayerStats, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT player_id, COUNT(1) AS played, COALESCE(SUM(won), 0) AS wins
        FROM match_players
        GROUP BY player_id
        ORDER BY wins DESC, played ASC, player_id ASC
        LIMIT ?`, clampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PlayerStats{}
	for rows.Next() {
		var r PlayerStats
		if err := rows.Scan(&r.PlayerID, &r.GamesPlayed, &r.Wins); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) RecentMatches(ctx context.Context, playerIDs []string, limit int) ([]Match, error) {
	out := []Match{}
	if len(playerIDs) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(playerIDs)+1)
	for _, p := range playerIDs {
		args = append(args, p)
	}
	args = append(args, clampLimit(limit))
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(playerIDs)), ",")

	rows, err := s.db.QueryContext(ctx, `
        SELECT DISTINCT m.id, m.room_code, m.round, m.lang, m.secret, m.winner_id, m.guesses, m.started_at, m.finished_at
        FROM matches m JOIN match_players mp ON mp.match_id = m.id
        WHERE mp.player_id IN (`+placeholders+`)
        ORDER BY m.finished_at DESC, m.id DESC
        LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m Match
		var started, finished string
		if err := rows.Scan(&m.ID, &m.RoomCode, &m.Round, &m.Lang, &m.Secret, &m.WinnerID, &m.Guesses, &started, &finished); err != nil {
			return nil, err
		}
		m.StartedAt, _ = time.Parse(time.RFC3339, started)
		m.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, m)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
