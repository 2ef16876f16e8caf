package bot

import (
	"testing"

	"github.com/freeeve/halite-fleet/pkg/halite"
)

func TestSelectDestinationExploresFromPoorCell(t *testing.T) {
	g := newTestGame(t, 8, 5, halite.Position{X: 6, Y: 6}, halite.Position{X: 0, Y: 6})
	g.Map.At(halite.Position{X: 4, Y: 3}).Halite = 300
	g.Map.At(halite.Position{X: 5, Y: 5}).Halite = 500
	s := addShip(g, 0, 1, halite.Position{X: 2, Y: 2}, 0)
	tc := NewTurnContext(g, DefaultParams())

	dest := SelectDestination(tc, s)
	if dest.Pos == s.Pos {
		t.Fatal("destination must not be the ship's own poor cell")
	}
	if dest.Reason != ReasonExplore {
		t.Errorf("expected explore, got %s", dest.Reason)
	}
	// (4,3) is on the radius-2 ring; (5,5) is only reached at radius 3.
	if dest.Pos != (halite.Position{X: 4, Y: 3}) {
		t.Errorf("expected (4,3), got %v", dest.Pos)
	}
}

func TestSelectDestinationFullShipReturns(t *testing.T) {
	base := halite.Position{X: 2, Y: 2}
	g := newTestGame(t, 8, 100, base, halite.Position{X: 6, Y: 6})
	s := addShip(g, 0, 1, halite.Position{X: 4, Y: 3}, 960)
	setRemaining(g, 10)
	tc := NewTurnContext(g, DefaultParams())

	dest := SelectDestination(tc, s)
	if dest.Pos != base {
		t.Fatalf("expected base %v, got %v (%s)", base, dest.Pos, dest.Reason)
	}
	dir, ok := ChooseDirection(tc, s, dest.Pos, ModeUnsafe)
	if !ok {
		t.Fatal("unsafe mode must always return a direction")
	}
	next := g.Map.Offset(s.Pos, dir)
	if g.Map.Distance(next, base) >= g.Map.Distance(s.Pos, base) {
		t.Errorf("direction %v does not reduce distance to base", dir)
	}
}

func TestSelectDestinationRushOverridesInterestingCell(t *testing.T) {
	base := halite.Position{X: 0, Y: 0}
	g := newTestGame(t, 16, 800, base, halite.Position{X: 8, Y: 8})
	s := addShip(g, 0, 1, halite.Position{X: 3, Y: 2}, 0)
	params := DefaultParams()

	tests := []struct {
		remaining int
		rush      bool
	}{
		{remaining: 20, rush: false},
		{remaining: 10, rush: false}, // 10 == 5 + 5
		{remaining: 9, rush: true},
		{remaining: 1, rush: true},
	}
	for _, tt := range tests {
		setRemaining(g, tt.remaining)
		tc := NewTurnContext(g, params)
		dest := SelectDestination(tc, s)
		if tt.rush {
			if dest.Reason != ReasonRush || dest.Pos != base {
				t.Errorf("remaining %d: expected rush to base, got %s to %v", tt.remaining, dest.Reason, dest.Pos)
			}
			continue
		}
		if dest.Reason != ReasonCollect {
			t.Errorf("remaining %d: expected collect, got %s", tt.remaining, dest.Reason)
		}
	}
}

func TestSelectDestinationSecondaryReturn(t *testing.T) {
	base := halite.Position{X: 0, Y: 0}
	g := newTestGame(t, 16, 10, base, halite.Position{X: 8, Y: 8})
	s := addShip(g, 0, 1, halite.Position{X: 4, Y: 4}, 900)
	tc := NewTurnContext(g, DefaultParams())

	dest := SelectDestination(tc, s)
	if dest.Reason != ReasonReturn || dest.Pos != base {
		t.Errorf("expected return to base, got %s to %v", dest.Reason, dest.Pos)
	}

	// A rich cell keeps the ship collecting even above the secondary ratio.
	g.Map.At(s.Pos).Halite = 200
	tc = NewTurnContext(g, DefaultParams())
	if dest := SelectDestination(tc, s); dest.Reason != ReasonCollect {
		t.Errorf("expected collect on rich cell, got %s", dest.Reason)
	}
}

func TestSelectDestinationIsIdempotent(t *testing.T) {
	m, yards, err := halite.GenerateMap(halite.MapConfig{Width: 32, Height: 32, NumPlayers: 2, Seed: 11})
	if err != nil {
		t.Fatalf("generate map: %v", err)
	}
	st := halite.NewState(halite.DefaultConstants(), m, yards)
	g := st.View(0)
	for i, pos := range []halite.Position{{X: 3, Y: 3}, {X: 10, Y: 20}, {X: 30, Y: 1}} {
		addShip(g, 0, i, pos, i*300)
	}
	tc := NewTurnContext(g, DefaultParams())

	for _, s := range g.Me().Ships {
		first := SelectDestination(tc, s)
		for i := 0; i < 3; i++ {
			if again := SelectDestination(tc, s); again != first {
				t.Fatalf("ship %d: destination changed from %+v to %+v", s.ID, first, again)
			}
		}
	}
}

func TestKamikazeToggle(t *testing.T) {
	enemyYard := halite.Position{X: 6, Y: 6}
	g := newTestGame(t, 8, 0, halite.Position{X: 1, Y: 1}, enemyYard)
	for id := 0; id < 3; id++ {
		addShip(g, 0, id, halite.Position{X: id, Y: 3}, 0)
	}

	params := DefaultParams()
	params.Kamikaze.MinShips = 3
	tc := NewTurnContext(g, params)
	if dest := SelectDestination(tc, g.Me().Ships[0]); dest.Reason == ReasonKamikaze {
		t.Fatal("kamikaze must be off by default")
	}

	params.Kamikaze.Enabled = true
	tc = NewTurnContext(g, params)
	dest := SelectDestination(tc, g.Me().Ships[0])
	if dest.Reason != ReasonKamikaze || dest.Pos != enemyYard {
		t.Errorf("expected lowest ID ship to block %v, got %s to %v", enemyYard, dest.Reason, dest.Pos)
	}
	if dest := SelectDestination(tc, g.Me().Ships[1]); dest.Reason == ReasonKamikaze {
		t.Error("only the lowest ID ship blocks")
	}
}

func TestFullShipReturnsBeforeBlocking(t *testing.T) {
	yard := halite.Position{X: 1, Y: 1}
	g := newTestGame(t, 8, 0, yard, halite.Position{X: 6, Y: 6})
	for id := 0; id < 3; id++ {
		addShip(g, 0, id, halite.Position{X: id, Y: 3}, 0)
	}
	g.Me().Ships[0].Halite = 980

	params := DefaultParams()
	params.Kamikaze.Enabled = true
	params.Kamikaze.MinShips = 3
	dest := SelectDestination(NewTurnContext(g, params), g.Me().Ships[0])
	if dest.Reason != ReasonFull || dest.Pos != yard {
		t.Errorf("expected a full ship to head home to %v, got %s to %v", yard, dest.Reason, dest.Pos)
	}
}
