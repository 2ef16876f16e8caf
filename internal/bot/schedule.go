package bot

import (
	"sort"

	"github.com/freeeve/halite-fleet/pkg/halite"
)

// Intention is a ship's preferred move before any conflicts are resolved.
type Intention struct {
	ShipID      int
	Destination Destination
	Direction   halite.Direction
	Rush        bool
	Explore     bool
}

// Plan is the result of scheduling one turn.
type Plan struct {
	Commands   []halite.Command
	Order      []int
	Intentions map[int]Intention
	Converted  []int
	Blocked    []int
	Defender   int // ship that rammed an enemy on a drop point, -1 if none
}

// Command returns the directive issued to shipID, if any.
func (p *Plan) Command(shipID int) (halite.Command, bool) {
	for _, c := range p.Commands {
		if c.Kind != halite.CommandSpawn && c.ShipID == shipID {
			return c, true
		}
	}
	return halite.Command{}, false
}

// HasSpawn reports whether the plan builds a ship.
func (p *Plan) HasSpawn() bool {
	for _, c := range p.Commands {
		if c.Kind == halite.CommandSpawn {
			return true
		}
	}
	return false
}

// Scheduler turns per-ship intentions into a conflict-free set of commands.
type Scheduler struct{}

// Plan runs the intention pass and the ordered commit pass over tc. Every
// living ship ends up with exactly one command. Spawning is left to
// DecideProduction, which must run after Plan.
func (Scheduler) Plan(tc *TurnContext) Plan {
	plan := Plan{
		Intentions: make(map[int]Intention),
		Defender:   -1,
	}
	committed := make(map[int]bool)

	commit := func(s *halite.Ship, cmd halite.Command) {
		committed[s.ID] = true
		plan.Commands = append(plan.Commands, cmd)
		plan.Order = append(plan.Order, s.ID)
	}

	if s, ok := decideConversion(tc); ok {
		commit(s, halite.ConvertCommand(s.ID))
		plan.Converted = append(plan.Converted, s.ID)
	}

	ships := tc.sortByDrop(tc.Me.Ships)

	// Intention pass. Exploration targets are reserved as they are chosen so
	// that later ships look elsewhere.
	for _, s := range ships {
		if committed[s.ID] {
			continue
		}
		dest := SelectDestination(tc, s)
		if dest.Reason == ReasonExplore {
			tc.Reserve(dest.Pos, s.ID)
		}
		dir := halite.Still
		if tc.canAffordMove(s) {
			dir, _ = ChooseDirection(tc, s, dest.Pos, ModeUnsafe)
		}
		in := Intention{
			ShipID:      s.ID,
			Destination: dest,
			Direction:   dir,
			Rush:        dest.IsRush(),
			Explore:     dest.Reason == ReasonExplore,
		}
		plan.Intentions[s.ID] = in
		tc.log.Debug().Int("ship", s.ID).Str("reason", string(dest.Reason)).
			Stringer("dest", dest.Pos).Stringer("dir", dir).Msg("intention")
	}

	// Any adjacent ship may defend, including one that meant to stay and collect.
	if d, dir, ok := tc.findDefender(ships, committed); ok {
		tc.moveOccupant(d.ID, d.Pos, tc.Map.Offset(d.Pos, dir))
		tc.defended = true
		plan.Defender = d.ID
		commit(d, halite.MoveCommand(d.ID, dir))
		tc.log.Debug().Int("ship", d.ID).Stringer("dir", dir).Msg("defending drop point")
	}

	// Ships staying put hold their cells before anyone else moves.
	for _, s := range ships {
		if committed[s.ID] {
			continue
		}
		if plan.Intentions[s.ID].Direction == halite.Still {
			commit(s, halite.StayCommand(s.ID))
		}
	}

	// Commit safe moves until a full pass makes no progress; each commit can
	// free the cell another ship was waiting for.
	pending := make([]*halite.Ship, 0, len(ships))
	for _, s := range ships {
		if !committed[s.ID] {
			pending = append(pending, s)
		}
	}
	for progress := true; progress && len(pending) > 0; {
		progress = false
		rest := pending[:0]
		for _, s := range pending {
			in := plan.Intentions[s.ID]
			if in.Rush && tc.Map.Distance(s.Pos, in.Destination.Pos) == 1 {
				dir, _ := ChooseDirection(tc, s, in.Destination.Pos, ModeUnsafe)
				tc.moveOccupant(s.ID, s.Pos, tc.Map.Offset(s.Pos, dir))
				commit(s, halite.MoveCommand(s.ID, dir))
				progress = true
				continue
			}
			if dir, ok := ChooseDirection(tc, s, in.Destination.Pos, ModeSafe); ok {
				commit(s, halite.MoveCommand(s.ID, dir))
				progress = true
				continue
			}
			rest = append(rest, s)
		}
		pending = rest
	}

	// Two ships that want each other's cells trade places.
	for i, a := range pending {
		if committed[a.ID] {
			continue
		}
		ia := plan.Intentions[a.ID]
		aTarget := tc.Map.Offset(a.Pos, ia.Direction)
		for _, b := range pending[i+1:] {
			if committed[b.ID] {
				continue
			}
			ib := plan.Intentions[b.ID]
			if tc.Map.Normalize(b.Pos) != aTarget || tc.Map.Offset(b.Pos, ib.Direction) != tc.Map.Normalize(a.Pos) {
				continue
			}
			tc.moveOccupant(a.ID, a.Pos, b.Pos)
			tc.moveOccupant(b.ID, b.Pos, a.Pos)
			commit(a, halite.MoveCommand(a.ID, ia.Direction))
			commit(b, halite.MoveCommand(b.ID, ib.Direction))
			tc.log.Debug().Int("ship", a.ID).Int("with", b.ID).Msg("swap")
			break
		}
	}

	for _, s := range pending {
		if committed[s.ID] {
			continue
		}
		plan.Blocked = append(plan.Blocked, s.ID)
		commit(s, halite.StayCommand(s.ID))
	}
	return plan
}

// findDefender picks the first uncommitted ship adjacent to an own drop point
// that an enemy ship is sitting on. Only one defender is allowed per turn.
func (tc *TurnContext) findDefender(ships []*halite.Ship, committed map[int]bool) (*halite.Ship, halite.Direction, bool) {
	if !tc.Params.DefendStructures || tc.defended {
		return nil, halite.Still, false
	}
	for _, drop := range tc.drops {
		if !tc.HasEnemy(drop) {
			continue
		}
		for _, s := range ships {
			if committed[s.ID] || tc.Map.Distance(s.Pos, drop) != 1 || !tc.canAffordMove(s) {
				continue
			}
			moves := tc.Map.GetUnsafeMoves(s.Pos, drop)
			if len(moves) == 0 {
				continue
			}
			return s, moves[0], true
		}
	}
	return nil, halite.Still, false
}

// sortByDrop returns ships ordered by distance to the nearest drop point, then ID.
func (tc *TurnContext) sortByDrop(ships []*halite.Ship) []*halite.Ship {
	out := make([]*halite.Ship, len(ships))
	copy(out, ships)
	dist := make(map[int]int, len(out))
	for _, s := range out {
		_, dist[s.ID] = tc.NearestDrop(s.Pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if dist[out[i].ID] != dist[out[j].ID] {
			return dist[out[i].ID] < dist[out[j].ID]
		}
		return out[i].ID < out[j].ID
	})
	return out
}
