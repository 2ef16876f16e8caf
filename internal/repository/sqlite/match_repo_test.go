package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/freeeve/halite-fleet/internal/model"
)

func newTestRepo(t *testing.T) *MatchRepo {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "matches.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMatchRepo(db)
}

func createTestMatch(t *testing.T, r *MatchRepo, id string) *model.Match {
	t.Helper()
	m := &model.Match{
		ID:       id,
		Name:     "match " + id,
		Status:   model.StatusRunning,
		Width:    32,
		Height:   32,
		Seed:     42,
		MaxTurns: 400,
		Players: []model.MatchPlayer{
			{PlayerID: 0, Strategy: "fleet"},
			{PlayerID: 1, Strategy: "greedy"},
		},
	}
	if err := r.Create(context.Background(), m); err != nil {
		t.Fatalf("create: %v", err)
	}
	return m
}

func TestFindByIDMissing(t *testing.T) {
	r := newTestRepo(t)
	m, err := r.FindByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Fatalf("expected nil, got %+v", m)
	}
}

func TestCreateAndFind(t *testing.T) {
	r := newTestRepo(t)
	createTestMatch(t, r, "m1")

	m, err := r.FindByID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m == nil {
		t.Fatal("expected match")
	}
	if m.Status != model.StatusRunning || m.Winner != -1 {
		t.Errorf("unexpected status/winner: %s / %d", m.Status, m.Winner)
	}
	if len(m.Players) != 2 || m.Players[1].Strategy != "greedy" {
		t.Errorf("unexpected players: %+v", m.Players)
	}
	if m.FinishedAt != nil {
		t.Error("running match should have no finished_at")
	}
}

func TestSetFinished(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	createTestMatch(t, r, "m1")

	players := []model.MatchPlayer{
		{PlayerID: 0, Halite: 9000, Ships: 12, Rank: 1},
		{PlayerID: 1, Halite: 3000, Ships: 4, Rank: 2},
	}
	if err := r.SetFinished(ctx, "m1", 400, 0, players); err != nil {
		t.Fatalf("set finished: %v", err)
	}

	m, err := r.FindByID(ctx, "m1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if m.Status != model.StatusFinished || m.Turns != 400 || m.Winner != 0 {
		t.Errorf("unexpected match: %+v", m)
	}
	if m.FinishedAt == nil {
		t.Error("expected finished_at")
	}
	if m.Players[0].Halite != 9000 || m.Players[0].Rank != 1 {
		t.Errorf("unexpected standing: %+v", m.Players[0])
	}
	if got := m.WinnerStrategy(); got != "fleet" {
		t.Errorf("expected fleet to win, got %q", got)
	}
}

func TestListNewestFirst(t *testing.T) {
	r := newTestRepo(t)
	createTestMatch(t, r, "a")
	createTestMatch(t, r, "b")

	matches, err := r.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "b" {
		t.Errorf("expected newest first, got %s", matches[0].ID)
	}
}

func TestSaveAndListTurns(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	createTestMatch(t, r, "m1")

	turns := []model.Turn{
		{MatchID: "m1", Number: 2, Report: json.RawMessage(`{"turn":2}`)},
		{MatchID: "m1", Number: 1, Report: json.RawMessage(`{"turn":1}`)},
	}
	if err := r.SaveTurns(ctx, turns); err != nil {
		t.Fatalf("save turns: %v", err)
	}
	got, err := r.ListTurns(ctx, "m1")
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(got) != 2 || got[0].Number != 1 || string(got[1].Report) != `{"turn":2}` {
		t.Errorf("unexpected turns: %+v", got)
	}
}
