package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/freeeve/halite-fleet/internal/model"
	"github.com/freeeve/halite-fleet/internal/replay"
	"github.com/freeeve/halite-fleet/pkg/halite"
)

type memRepo struct {
	matches map[string]*model.Match
	turns   []model.Turn
}

func newMemRepo() *memRepo { return &memRepo{matches: map[string]*model.Match{}} }

func (r *memRepo) Create(_ context.Context, m *model.Match) error {
	cp := *m
	r.matches[m.ID] = &cp
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*model.Match, error) {
	return r.matches[id], nil
}

func (r *memRepo) List(context.Context, int) ([]model.Match, error) { return nil, nil }

func (r *memRepo) SetFinished(_ context.Context, id string, turns, winner int, players []model.MatchPlayer) error {
	m := r.matches[id]
	m.Status = model.StatusFinished
	m.Turns = turns
	m.Winner = winner
	m.Players = players
	return nil
}

func (r *memRepo) SetFailed(_ context.Context, id string) error {
	r.matches[id].Status = model.StatusFailed
	return nil
}

func (r *memRepo) SaveTurns(_ context.Context, turns []model.Turn) error {
	r.turns = append(r.turns, turns...)
	return nil
}

func (r *memRepo) ListTurns(context.Context, string) ([]model.Turn, error) { return r.turns, nil }

func recordedFrames(t *testing.T, turns int) []*replay.Frame {
	t.Helper()
	m, yards, err := halite.GenerateMap(halite.MapConfig{Width: 16, Height: 16, NumPlayers: 2, Seed: 7})
	if err != nil {
		t.Fatalf("GenerateMap: %v", err)
	}
	c := halite.DefaultConstants()
	c.MaxTurns = turns
	st := halite.NewState(c, m, yards)
	rec := replay.NewRecorder("match-1", []string{"fleet", "hold"})

	frames := []*replay.Frame{rec.Start(st)}
	for !st.Done() {
		batches := map[int][]halite.Command{}
		rep := st.Apply(batches)
		frames = append(frames, rec.Turn(st, batches, rep))
	}
	return append(frames, rec.End(st))
}

func TestMatchFromFrames(t *testing.T) {
	frames := recordedFrames(t, 4)
	m, err := matchFromFrames("imported-1", frames)
	if err != nil {
		t.Fatalf("matchFromFrames: %v", err)
	}
	if m.ID != "match-1" || m.Width != 16 || m.Height != 16 {
		t.Errorf("match = %+v", m)
	}
	if m.MaxTurns != 4 || m.Turns != 4 {
		t.Errorf("turns = %d/%d, want 4/4", m.Turns, m.MaxTurns)
	}
	if len(m.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(m.Players))
	}
	for _, p := range m.Players {
		if p.Rank < 1 || p.Rank > 2 {
			t.Errorf("player %d rank = %d", p.PlayerID, p.Rank)
		}
	}
	if got := m.WinnerStrategy(); got != "fleet" && got != "hold" {
		t.Errorf("WinnerStrategy = %q", got)
	}
}

func TestMatchFromFramesIncomplete(t *testing.T) {
	frames := recordedFrames(t, 3)
	if _, err := matchFromFrames("x", frames[:len(frames)-1]); err != errIncomplete {
		t.Errorf("missing end frame: err = %v, want errIncomplete", err)
	}
	if _, err := matchFromFrames("x", frames[:1]); err != errIncomplete {
		t.Errorf("single frame: err = %v, want errIncomplete", err)
	}
}

func TestImportReplay(t *testing.T) {
	repo := newMemRepo()
	frames := recordedFrames(t, 5)

	m, err := importReplay(context.Background(), repo, "imported-1", frames)
	if err != nil {
		t.Fatalf("importReplay: %v", err)
	}
	stored := repo.matches[m.ID]
	if stored == nil || stored.Status != model.StatusFinished {
		t.Fatalf("stored = %+v", stored)
	}
	if len(repo.turns) != 5 {
		t.Errorf("turns saved = %d, want 5", len(repo.turns))
	}
	if repo.turns[0].Number != 1 || len(repo.turns[0].Report) == 0 {
		t.Errorf("first turn = %+v", repo.turns[0])
	}

	if _, err := importReplay(context.Background(), repo, "imported-2", frames); err == nil {
		t.Error("re-import should fail")
	}
}

func TestReplayFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jsonl.zst", "b.jsonl.zst", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := replayFiles(dir)
	if err != nil {
		t.Fatalf("replayFiles: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("files = %v, want 2 replays", files)
	}

	single := filepath.Join(dir, "a.jsonl.zst")
	files, err = replayFiles(single)
	if err != nil || len(files) != 1 || files[0] != single {
		t.Errorf("replayFiles(file) = %v, %v", files, err)
	}
}
