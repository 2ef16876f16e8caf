package model

import (
	"encoding/json"
	"time"
)

// Match statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// Match is one arena game between strategies.
type Match struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Status     string        `json:"status"` // running, finished, failed
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Seed       int64         `json:"seed"`
	MaxTurns   int           `json:"max_turns"`
	Turns      int           `json:"turns"`
	Winner     int           `json:"winner"` // player ID, -1 until finished
	CreatedAt  time.Time     `json:"created_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Players    []MatchPlayer `json:"players,omitempty"`
}

// WinnerStrategy returns the strategy name of the winning player, or "".
func (m *Match) WinnerStrategy() string {
	for _, p := range m.Players {
		if p.PlayerID == m.Winner {
			return p.Strategy
		}
	}
	return ""
}

// MatchPlayer is a seat in a match and its final standing.
type MatchPlayer struct {
	MatchID  string `json:"match_id"`
	PlayerID int    `json:"player_id"`
	Strategy string `json:"strategy"`
	Halite   int    `json:"halite"`
	Ships    int    `json:"ships"`
	Rank     int    `json:"rank"` // 1-based, 0 until finished
}

// Turn is the persisted summary of one resolved turn.
type Turn struct {
	MatchID   string          `json:"match_id"`
	Number    int             `json:"number"`
	Report    json.RawMessage `json:"report"`
	CreatedAt time.Time       `json:"created_at"`
}

// LeaderboardEntry is a strategy's aggregate score across matches.
type LeaderboardEntry struct {
	Strategy string  `json:"strategy"`
	Wins     float64 `json:"wins"`
}
