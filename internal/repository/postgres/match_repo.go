package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/halite-fleet/internal/model"
)

// MatchRepo handles match, match_player and turn database operations.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo creates a MatchRepo.
func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Create inserts a match and its players. m.ID must already be set.
func (r *MatchRepo) Create(ctx context.Context, m *model.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO matches (id, name, status, width, height, seed, max_turns)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING winner, created_at`,
		m.ID, m.Name, m.Status, m.Width, m.Height, m.Seed, m.MaxTurns,
	).Scan(&m.Winner, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	for _, p := range m.Players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO match_players (match_id, player_id, strategy) VALUES ($1, $2, $3)`,
			m.ID, p.PlayerID, p.Strategy,
		); err != nil {
			return fmt.Errorf("insert match player: %w", err)
		}
	}
	return tx.Commit()
}

// FindByID returns a match with its players, or nil when it does not exist.
func (r *MatchRepo) FindByID(ctx context.Context, id string) (*model.Match, error) {
	var m model.Match
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, width, height, seed, max_turns, turns, winner, created_at, finished_at
		 FROM matches WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Status, &m.Width, &m.Height, &m.Seed, &m.MaxTurns, &m.Turns, &m.Winner,
		&m.CreatedAt, &m.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}

	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Players = players
	return &m, nil
}

// List returns the most recent matches without their players.
func (r *MatchRepo) List(ctx context.Context, limit int) ([]model.Match, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, status, width, height, seed, max_turns, turns, winner, created_at, finished_at
		 FROM matches ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.Name, &m.Status, &m.Width, &m.Height, &m.Seed, &m.MaxTurns, &m.Turns,
			&m.Winner, &m.CreatedAt, &m.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListPlayers returns the seats of a match ordered by player ID.
func (r *MatchRepo) ListPlayers(ctx context.Context, matchID string) ([]model.MatchPlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, player_id, strategy, halite, ships, rank
		 FROM match_players WHERE match_id = $1 ORDER BY player_id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list match players: %w", err)
	}
	defer rows.Close()

	var players []model.MatchPlayer
	for rows.Next() {
		var p model.MatchPlayer
		if err := rows.Scan(&p.MatchID, &p.PlayerID, &p.Strategy, &p.Halite, &p.Ships, &p.Rank); err != nil {
			return nil, fmt.Errorf("scan match player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// SetFinished records the final turn count, winner and standings.
func (r *MatchRepo) SetFinished(ctx context.Context, id string, turns, winner int, players []model.MatchPlayer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE matches SET status = 'finished', turns = $2, winner = $3, finished_at = now() WHERE id = $1`,
		id, turns, winner,
	); err != nil {
		return fmt.Errorf("set match finished: %w", err)
	}
	for _, p := range players {
		if _, err := tx.ExecContext(ctx,
			`UPDATE match_players SET halite = $3, ships = $4, rank = $5 WHERE match_id = $1 AND player_id = $2`,
			id, p.PlayerID, p.Halite, p.Ships, p.Rank,
		); err != nil {
			return fmt.Errorf("update match player: %w", err)
		}
	}
	return tx.Commit()
}

// SetFailed marks a match that stopped before its last turn.
func (r *MatchRepo) SetFailed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = 'failed', finished_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("set match failed: %w", err)
	}
	return nil
}

// SaveTurns inserts a batch of turn summaries.
func (r *MatchRepo) SaveTurns(ctx context.Context, turns []model.Turn) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO turns (match_id, number, report) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("prepare insert turn: %w", err)
	}
	defer stmt.Close()

	for _, t := range turns {
		if _, err := stmt.ExecContext(ctx, t.MatchID, t.Number, []byte(t.Report)); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}
	return tx.Commit()
}

// ListTurns returns every saved turn of a match in order.
func (r *MatchRepo) ListTurns(ctx context.Context, matchID string) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, number, report, created_at FROM turns WHERE match_id = $1 ORDER BY number`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		var report []byte
		if err := rows.Scan(&t.MatchID, &t.Number, &report, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Report = report
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
