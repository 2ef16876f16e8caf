package bot

import (
	"testing"

	"github.com/freeeve/halite-fleet/pkg/halite"
)

func TestFindBestCellPrefersInnerRing(t *testing.T) {
	g := newTestGame(t, 16, 0, halite.Position{X: 0, Y: 0}, halite.Position{X: 8, Y: 8})
	g.Map.At(halite.Position{X: 5, Y: 4}).Halite = 100 // radius 1
	g.Map.At(halite.Position{X: 7, Y: 7}).Halite = 900 // radius 3
	s := addShip(g, 0, 1, halite.Position{X: 4, Y: 4}, 0)
	tc := NewTurnContext(g, DefaultParams())

	res := FindBestCell(tc, s)
	if !res.Found || res.Pos != (halite.Position{X: 5, Y: 4}) {
		t.Fatalf("expected (5,4), got %+v", res)
	}
	if res.Radius != 0 {
		// (5,4) is a cardinal neighbour, found at radius 0.
		t.Errorf("expected radius 0, got %d", res.Radius)
	}
}

func TestFindBestCellSkipsOccupiedAndReserved(t *testing.T) {
	g := newTestGame(t, 16, 0, halite.Position{X: 0, Y: 0}, halite.Position{X: 8, Y: 8})
	g.Map.At(halite.Position{X: 5, Y: 4}).Halite = 400
	g.Map.At(halite.Position{X: 3, Y: 4}).Halite = 300
	g.Map.At(halite.Position{X: 4, Y: 5}).Halite = 200
	s := addShip(g, 0, 1, halite.Position{X: 4, Y: 4}, 0)
	addShip(g, 1, 2, halite.Position{X: 5, Y: 4}, 0)
	tc := NewTurnContext(g, DefaultParams())
	tc.Reserve(halite.Position{X: 3, Y: 4}, 99)

	res := FindBestCell(tc, s)
	if res.Pos != (halite.Position{X: 4, Y: 5}) {
		t.Errorf("expected (4,5), got %v", res.Pos)
	}

	// A reservation held by the ship itself does not block it.
	tc.Reserve(halite.Position{X: 3, Y: 4}, s.ID)
	if res := FindBestCell(tc, s); res.Pos != (halite.Position{X: 3, Y: 4}) {
		t.Errorf("expected own reservation to be usable, got %v", res.Pos)
	}
}

func TestFindBestCellLowersThreshold(t *testing.T) {
	g := newTestGame(t, 8, 0, halite.Position{X: 0, Y: 0}, halite.Position{X: 4, Y: 4})
	g.Map.At(halite.Position{X: 6, Y: 6}).Halite = 25 // below the 50 threshold
	s := addShip(g, 0, 1, halite.Position{X: 2, Y: 2}, 0)
	tc := NewTurnContext(g, DefaultParams())

	res := FindBestCell(tc, s)
	if !res.Found || res.Pos != (halite.Position{X: 6, Y: 6}) {
		t.Fatalf("expected (6,6) after lowering the threshold, got %+v", res)
	}
	if res.Threshold != 20 || res.Sweeps != 4 {
		t.Errorf("expected threshold 20 on sweep 4, got %d on sweep %d", res.Threshold, res.Sweeps)
	}
}

func TestFindBestCellTerminatesOnEmptyMap(t *testing.T) {
	for _, size := range []int{8, 9, 32} {
		g := newTestGame(t, size, 0, halite.Position{X: 0, Y: 0}, halite.Position{X: size / 2, Y: size / 2})
		s := addShip(g, 0, 1, halite.Position{X: 2, Y: 2}, 0)
		tc := NewTurnContext(g, DefaultParams())

		res := FindBestCell(tc, s)
		if res.Found {
			t.Errorf("size %d: expected nothing on an empty map, got %v", size, res.Pos)
		}
		if res.MaxRadius > size {
			t.Errorf("size %d: radius %d exceeds the map width", size, res.MaxRadius)
		}
		if res.MaxRadius != size/2 {
			t.Errorf("size %d: expected sweeps to reach radius %d, got %d", size, size/2, res.MaxRadius)
		}
		if res.Sweeps != 6 {
			t.Errorf("size %d: expected 6 sweeps (50 down to 0), got %d", size, res.Sweeps)
		}

		if dest := SelectDestination(tc, s); dest.Reason != ReasonStuck || dest.Pos != s.Pos {
			t.Errorf("size %d: expected stuck at own cell, got %s to %v", size, dest.Reason, dest.Pos)
		}
	}
}

func TestFindBestCellBoundsSweepsForTinyDecrement(t *testing.T) {
	g := newTestGame(t, 32, 0, halite.Position{X: 0, Y: 0}, halite.Position{X: 16, Y: 16})
	g.Map.At(halite.Position{X: 20, Y: 5}).Halite = 3
	s := addShip(g, 0, 1, halite.Position{X: 2, Y: 2}, 0)
	params := DefaultParams()
	params.InterestingRatio = 1
	params.InterestingDecrement = 0.001

	res := FindBestCell(NewTurnContext(g, params), s)
	if res.Sweeps > maxExploreSweeps {
		t.Errorf("expected at most %d sweeps, got %d", maxExploreSweeps, res.Sweeps)
	}
	if !res.Found || res.Pos != (halite.Position{X: 20, Y: 5}) || res.Threshold != 0 {
		t.Errorf("expected the last sweep at threshold 0 to find (20,5), got %+v", res)
	}
}

func TestFindBestCellNeverReturnsOwnCell(t *testing.T) {
	g := newTestGame(t, 8, 0, halite.Position{X: 0, Y: 0}, halite.Position{X: 4, Y: 4})
	g.Map.At(halite.Position{X: 2, Y: 2}).Halite = 1000
	s := addShip(g, 0, 1, halite.Position{X: 2, Y: 2}, 0)
	tc := NewTurnContext(g, DefaultParams())

	if res := FindBestCell(tc, s); res.Found && res.Pos == s.Pos {
		t.Fatal("search returned the ship's own cell")
	}
}
