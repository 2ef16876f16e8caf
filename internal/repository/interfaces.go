package repository

import (
	"context"
	"encoding/json"

	"github.com/freeeve/halite-fleet/internal/model"
)

// MatchRepository defines match data operations.
type MatchRepository interface {
	Create(ctx context.Context, m *model.Match) error
	FindByID(ctx context.Context, id string) (*model.Match, error)
	List(ctx context.Context, limit int) ([]model.Match, error)
	SetFinished(ctx context.Context, id string, turns, winner int, players []model.MatchPlayer) error
	SetFailed(ctx context.Context, id string) error
	SaveTurns(ctx context.Context, turns []model.Turn) error
	ListTurns(ctx context.Context, matchID string) ([]model.Turn, error)
}

// MatchCache defines live match state operations (Redis).
type MatchCache interface {
	SetFrame(ctx context.Context, matchID string, frame json.RawMessage) error
	GetFrame(ctx context.Context, matchID string) (json.RawMessage, error)
	DeleteMatchData(ctx context.Context, matchID string) error
	RecordWin(ctx context.Context, strategy string, score float64) error
	Leaderboard(ctx context.Context, n int) ([]model.LeaderboardEntry, error)
}
