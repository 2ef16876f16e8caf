package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/freeeve/halite-fleet/internal/model"
)

const timeLayout = time.RFC3339Nano

// MatchRepo is the SQLite implementation of repository.MatchRepository.
type MatchRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewMatchRepo creates a MatchRepo.
func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a match and its players. m.ID must already be set.
func (r *MatchRepo) Create(ctx context.Context, m *model.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	m.CreatedAt = r.now()
	m.Winner = -1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO matches (id, name, status, width, height, seed, max_turns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Status, m.Width, m.Height, m.Seed, m.MaxTurns, m.CreatedAt.Format(timeLayout),
	); err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	for _, p := range m.Players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO match_players (match_id, player_id, strategy) VALUES (?, ?, ?)`,
			m.ID, p.PlayerID, p.Strategy,
		); err != nil {
			return fmt.Errorf("insert match player: %w", err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*model.Match, error) {
	var m model.Match
	var created string
	var finished sql.NullString
	if err := row.Scan(&m.ID, &m.Name, &m.Status, &m.Width, &m.Height, &m.Seed, &m.MaxTurns, &m.Turns,
		&m.Winner, &created, &finished); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	m.CreatedAt = t
	if finished.Valid {
		ft, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		m.FinishedAt = &ft
	}
	return &m, nil
}

// FindByID returns a match with its players, or nil when it does not exist.
func (r *MatchRepo) FindByID(ctx context.Context, id string) (*model.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx,
		`SELECT id, name, status, width, height, seed, max_turns, turns, winner, created_at, finished_at
		 FROM matches WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, player_id, strategy, halite, ships, rank
		 FROM match_players WHERE match_id = ? ORDER BY player_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list match players: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p model.MatchPlayer
		if err := rows.Scan(&p.MatchID, &p.PlayerID, &p.Strategy, &p.Halite, &p.Ships, &p.Rank); err != nil {
			return nil, fmt.Errorf("scan match player: %w", err)
		}
		m.Players = append(m.Players, p)
	}
	return m, rows.Err()
}

// List returns the most recent matches without their players.
func (r *MatchRepo) List(ctx context.Context, limit int) ([]model.Match, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, status, width, height, seed, max_turns, turns, winner, created_at, finished_at
		 FROM matches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// SetFinished records the final turn count, winner and standings.
func (r *MatchRepo) SetFinished(ctx context.Context, id string, turns, winner int, players []model.MatchPlayer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE matches SET status = 'finished', turns = ?, winner = ?, finished_at = ? WHERE id = ?`,
		turns, winner, r.now().Format(timeLayout), id,
	); err != nil {
		return fmt.Errorf("set match finished: %w", err)
	}
	for _, p := range players {
		if _, err := tx.ExecContext(ctx,
			`UPDATE match_players SET halite = ?, ships = ?, rank = ? WHERE match_id = ? AND player_id = ?`,
			p.Halite, p.Ships, p.Rank, id, p.PlayerID,
		); err != nil {
			return fmt.Errorf("update match player: %w", err)
		}
	}
	return tx.Commit()
}

// SetFailed marks a match that stopped before its last turn.
func (r *MatchRepo) SetFailed(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = 'failed', finished_at = ? WHERE id = ?`,
		r.now().Format(timeLayout), id,
	); err != nil {
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
		`INSERT INTO turns (match_id, number, report, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert turn: %w", err)
	}
	defer stmt.Close()

	now := r.now().Format(timeLayout)
	for _, t := range turns {
		if _, err := stmt.ExecContext(ctx, t.MatchID, t.Number, string(t.Report), now); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}
	return tx.Commit()
}

// ListTurns returns every saved turn of a match in order.
func (r *MatchRepo) ListTurns(ctx context.Context, matchID string) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, number, report, created_at FROM turns WHERE match_id = ? ORDER BY number`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		var report, created string
		if err := rows.Scan(&t.MatchID, &t.Number, &report, &created); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Report = []byte(report)
		if t.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse turn created_at: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
