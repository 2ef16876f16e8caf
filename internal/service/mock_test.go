package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/halite-fleet/internal/model"
)

type mockMatchRepo struct {
	mu      sync.Mutex
	matches map[string]*model.Match
	turns   map[string][]model.Turn
}

func newMockMatchRepo() *mockMatchRepo {
	return &mockMatchRepo{
		matches: make(map[string]*model.Match),
		turns:   make(map[string][]model.Turn),
	}
}

func (m *mockMatchRepo) Create(_ context.Context, match *model.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *match
	cp.Winner = -1
	cp.CreatedAt = time.Now()
	cp.Players = append([]model.MatchPlayer(nil), match.Players...)
	m.matches[match.ID] = &cp
	return nil
}

func (m *mockMatchRepo) FindByID(_ context.Context, id string) (*model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *match
	return &cp, nil
}

func (m *mockMatchRepo) List(_ context.Context, limit int) ([]model.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Match
	for _, match := range m.matches {
		out = append(out, *match)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockMatchRepo) SetFinished(_ context.Context, id string, turns, winner int, players []model.MatchPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	match := m.matches[id]
	match.Status = model.StatusFinished
	match.Turns = turns
	match.Winner = winner
	now := time.Now()
	match.FinishedAt = &now
	for _, p := range players {
		for i := range match.Players {
			if match.Players[i].PlayerID == p.PlayerID {
				match.Players[i].Halite = p.Halite
				match.Players[i].Ships = p.Ships
				match.Players[i].Rank = p.Rank
			}
		}
	}
	return nil
}

func (m *mockMatchRepo) SetFailed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if match, ok := m.matches[id]; ok {
		match.Status = model.StatusFailed
	}
	return nil
}

func (m *mockMatchRepo) SaveTurns(_ context.Context, turns []model.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range turns {
		m.turns[t.MatchID] = append(m.turns[t.MatchID], t)
	}
	return nil
}

func (m *mockMatchRepo) ListTurns(_ context.Context, matchID string) ([]model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Turn(nil), m.turns[matchID]...), nil
}

type mockCache struct {
	mu     sync.Mutex
	frames map[string]json.RawMessage
	wins   map[string]float64
}

func newMockCache() *mockCache {
	return &mockCache{frames: make(map[string]json.RawMessage), wins: make(map[string]float64)}
}

func (c *mockCache) SetFrame(_ context.Context, matchID string, frame json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames[matchID] = frame
	return nil
}

func (c *mockCache) GetFrame(_ context.Context, matchID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[matchID], nil
}

func (c *mockCache) DeleteMatchData(_ context.Context, matchID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.frames, matchID)
	return nil
}

func (c *mockCache) RecordWin(_ context.Context, strategy string, score float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wins[strategy] += score
	return nil
}

func (c *mockCache) Leaderboard(_ context.Context, n int) ([]model.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.LeaderboardEntry
	for s, w := range c.wins {
		out = append(out, model.LeaderboardEntry{Strategy: s, Wins: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wins > out[j].Wins })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events map[string][]string // gameID -> event types
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{events: make(map[string][]string)}
}

func (b *recordingBroadcaster) BroadcastGameEvent(gameID, eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[gameID] = append(b.events[gameID], eventType)
}

func (b *recordingBroadcaster) eventsFor(gameID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events[gameID]...)
}
