package bot

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/pkg/halite"
)

type occupant struct {
	shipID int
	enemy  bool
}

// TurnContext is the private working copy for one turn. Occupancy,
// reservations and the treasury are mutated while commands are committed;
// the halite snapshot itself is read-only. A new context is built every turn,
// so nothing here outlives the turn.
type TurnContext struct {
	Game     *halite.Game
	Me       *halite.Player
	Map      *halite.GameMap
	Params   Params
	Treasury int

	drops    []halite.Position
	dropSet  map[halite.Position]bool
	occupied map[halite.Position]occupant
	reserved map[halite.Position]int
	defended bool

	log zerolog.Logger
}

// NewTurnContext snapshots occupancy from g for the viewing player.
func NewTurnContext(g *halite.Game, params Params) *TurnContext {
	me := g.Me()
	tc := &TurnContext{
		Game:     g,
		Me:       me,
		Map:      g.Map,
		Params:   params,
		Treasury: me.Halite,
		dropSet:  make(map[halite.Position]bool),
		occupied: make(map[halite.Position]occupant),
		reserved: make(map[halite.Position]int),
		log:      log.With().Int("player", g.MyID).Int("turn", g.Turn).Logger(),
	}
	for _, d := range me.DropPoints() {
		d = g.Map.Normalize(d)
		tc.drops = append(tc.drops, d)
		tc.dropSet[d] = true
	}
	for _, p := range g.Players {
		for _, s := range p.Ships {
			tc.occupied[g.Map.Normalize(s.Pos)] = occupant{shipID: s.ID, enemy: p.ID != g.MyID}
		}
	}
	return tc
}

// NearestDrop returns the closest own drop point and its distance. Ties keep
// the shipyard first.
func (tc *TurnContext) NearestDrop(pos halite.Position) (halite.Position, int) {
	best := tc.drops[0]
	bestDist := tc.Map.Distance(pos, best)
	for _, d := range tc.drops[1:] {
		if dist := tc.Map.Distance(pos, d); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best, bestDist
}

// IsDropPoint reports whether pos is one of our drop points.
func (tc *TurnContext) IsDropPoint(pos halite.Position) bool {
	return tc.dropSet[tc.Map.Normalize(pos)]
}

// IsOccupied reports whether any ship currently claims pos in the working copy.
func (tc *TurnContext) IsOccupied(pos halite.Position) bool {
	_, ok := tc.occupied[tc.Map.Normalize(pos)]
	return ok
}

// HasEnemy reports whether an enemy ship sits on pos.
func (tc *TurnContext) HasEnemy(pos halite.Position) bool {
	o, ok := tc.occupied[tc.Map.Normalize(pos)]
	return ok && o.enemy
}

// IsReserved reports whether a ship other than shipID has claimed pos as its target.
func (tc *TurnContext) IsReserved(pos halite.Position, shipID int) bool {
	id, ok := tc.reserved[tc.Map.Normalize(pos)]
	return ok && id != shipID
}

// Reserve marks pos as the exploration target of shipID for this turn.
func (tc *TurnContext) Reserve(pos halite.Position, shipID int) {
	tc.reserved[tc.Map.Normalize(pos)] = shipID
}

// moveOccupant transfers shipID from one cell to another. The origin is only
// released when shipID still owns it.
func (tc *TurnContext) moveOccupant(shipID int, from, to halite.Position) {
	from, to = tc.Map.Normalize(from), tc.Map.Normalize(to)
	if o, ok := tc.occupied[from]; ok && o.shipID == shipID && !o.enemy {
		delete(tc.occupied, from)
	}
	tc.occupied[to] = occupant{shipID: shipID}
}

// release frees the cell a ship vacates without entering another, as a converting ship does.
func (tc *TurnContext) release(shipID int, pos halite.Position) {
	pos = tc.Map.Normalize(pos)
	if o, ok := tc.occupied[pos]; ok && o.shipID == shipID && !o.enemy {
		delete(tc.occupied, pos)
	}
}

// canAffordMove reports whether the ship can pay to leave its current cell.
func (tc *TurnContext) canAffordMove(s *halite.Ship) bool {
	return s.Halite >= tc.Game.Constants.MoveCost(tc.Map.At(s.Pos).Halite)
}
