package bot

import (
	"testing"

	"github.com/freeeve/halite-fleet/pkg/halite"
)

// newTestGame builds a two-player game on a size x size map with cellHalite on
// every cell. Player 0 (the viewer) has its shipyard at mine, player 1 at theirs.
func newTestGame(t *testing.T, size, cellHalite int, mine, theirs halite.Position) *halite.Game {
	t.Helper()
	m := halite.NewGameMap(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			m.At(halite.Position{X: x, Y: y}).Halite = cellHalite
		}
	}
	m.At(mine).Halite = 0
	m.At(theirs).Halite = 0
	g := &halite.Game{
		Constants: halite.DefaultConstants(),
		Turn:      1,
		MyID:      0,
		Map:       m,
		Players: []*halite.Player{
			{ID: 0, Shipyard: halite.Structure{ID: -1, Owner: 0, Kind: halite.Shipyard, Pos: mine}, Halite: 5000},
			{ID: 1, Shipyard: halite.Structure{ID: -2, Owner: 1, Kind: halite.Shipyard, Pos: theirs}, Halite: 5000},
		},
	}
	g.PlaceEntities()
	return g
}

func addShip(g *halite.Game, owner, id int, pos halite.Position, cargo int) *halite.Ship {
	s := &halite.Ship{ID: id, Owner: owner, Pos: pos, Halite: cargo}
	p := g.Player(owner)
	p.Ships = append(p.Ships, s)
	g.PlaceEntities()
	return s
}

func setRemaining(g *halite.Game, remaining int) {
	g.Turn = g.Constants.MaxTurns - remaining
}

func TestTurnContextOccupancy(t *testing.T) {
	g := newTestGame(t, 8, 0, halite.Position{X: 0, Y: 0}, halite.Position{X: 4, Y: 4})
	addShip(g, 0, 1, halite.Position{X: 1, Y: 1}, 0)
	addShip(g, 1, 2, halite.Position{X: 2, Y: 2}, 0)
	tc := NewTurnContext(g, DefaultParams())

	if !tc.IsOccupied(halite.Position{X: 1, Y: 1}) || !tc.IsOccupied(halite.Position{X: 10, Y: 10}) {
		t.Error("expected both ships to occupy their cells, including through wraparound")
	}
	if tc.HasEnemy(halite.Position{X: 1, Y: 1}) {
		t.Error("own ship reported as enemy")
	}
	if !tc.HasEnemy(halite.Position{X: 2, Y: 2}) {
		t.Error("enemy ship not reported")
	}
	if tc.Treasury != 5000 {
		t.Errorf("expected treasury 5000, got %d", tc.Treasury)
	}
}

func TestMoveOccupantKeepsSwapPartner(t *testing.T) {
	g := newTestGame(t, 8, 0, halite.Position{X: 0, Y: 0}, halite.Position{X: 4, Y: 4})
	a := addShip(g, 0, 1, halite.Position{X: 1, Y: 1}, 0)
	b := addShip(g, 0, 2, halite.Position{X: 2, Y: 1}, 0)
	tc := NewTurnContext(g, DefaultParams())

	tc.moveOccupant(a.ID, a.Pos, b.Pos)
	tc.moveOccupant(b.ID, b.Pos, a.Pos)

	if o := tc.occupied[a.Pos]; o.shipID != b.ID {
		t.Errorf("expected ship %d at %v, got %d", b.ID, a.Pos, o.shipID)
	}
	if o := tc.occupied[b.Pos]; o.shipID != a.ID {
		t.Errorf("expected ship %d at %v, got %d", a.ID, b.Pos, o.shipID)
	}
}

func TestNearestDropPrefersShipyardOnTie(t *testing.T) {
	g := newTestGame(t, 16, 0, halite.Position{X: 2, Y: 8}, halite.Position{X: 12, Y: 8})
	me := g.Me()
	me.Dropoffs = append(me.Dropoffs, &halite.Structure{ID: 5, Owner: 0, Kind: halite.Dropoff, Pos: halite.Position{X: 6, Y: 8}})
	g.PlaceEntities()
	tc := NewTurnContext(g, DefaultParams())

	pos, dist := tc.NearestDrop(halite.Position{X: 4, Y: 8})
	if pos != (halite.Position{X: 2, Y: 8}) || dist != 2 {
		t.Errorf("expected shipyard at distance 2, got %v at %d", pos, dist)
	}
	pos, dist = tc.NearestDrop(halite.Position{X: 7, Y: 9})
	if pos != (halite.Position{X: 6, Y: 8}) || dist != 2 {
		t.Errorf("expected dropoff at distance 2, got %v at %d", pos, dist)
	}
}
