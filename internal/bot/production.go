package bot

import (
	"github.com/freeeve/halite-fleet/pkg/halite"
)

// DecideProduction appends a spawn command to plan when production is still
// open, the treasury covers a ship and no ship will be on the shipyard after
// the commit pass. It must run after Scheduler.Plan so occupancy reflects
// every committed move.
func DecideProduction(tc *TurnContext, plan *Plan) bool {
	cost := tc.Game.Constants.ShipCost
	yard := tc.Me.Shipyard.Pos
	switch {
	case tc.Game.Turn > tc.Params.SpawnUntilTurn:
		return false
	case tc.Treasury < cost:
		return false
	case tc.IsOccupied(yard):
		return false
	}
	tc.Treasury -= cost
	plan.Commands = append(plan.Commands, halite.SpawnCommand())
	tc.log.Debug().Int("treasury", tc.Treasury).Msg("spawn")
	return true
}

// decideConversion picks at most one ship to become a dropoff this turn. The
// ship must be far enough from every drop point and not standing on a
// structure. Among candidates the richest cell wins, then the lowest ID. The
// full dropoff cost is taken from the treasury immediately.
func decideConversion(tc *TurnContext) (*halite.Ship, bool) {
	dp := tc.Params.Dropoff
	cost := tc.Game.Constants.DropoffCost
	if !dp.Enabled || tc.Treasury < cost || len(tc.Me.Ships) <= dp.MinShips || tc.Game.Turn > dp.UntilTurn {
		return nil, false
	}
	if tc.Game.RemainingTurns() < dp.MinDistance+tc.Params.SafetyMargin {
		return nil, false
	}

	var best *halite.Ship
	bestHalite := -1
	for _, s := range tc.Me.SortedShips() {
		if tc.Map.At(s.Pos).HasStructure() {
			continue
		}
		if _, dist := tc.NearestDrop(s.Pos); dist <= dp.MinDistance {
			continue
		}
		if h := tc.Map.At(s.Pos).Halite; h > bestHalite {
			best, bestHalite = s, h
		}
	}
	if best == nil {
		return nil, false
	}

	tc.Treasury -= cost
	tc.release(best.ID, best.Pos)
	tc.log.Info().Int("ship", best.ID).Stringer("pos", best.Pos).Int("treasury", tc.Treasury).Msg("converting to dropoff")
	return best, true
}
