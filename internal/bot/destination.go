package bot

import (
	"github.com/freeeve/halite-fleet/pkg/halite"
)

// DestinationReason records which rule picked a destination.
type DestinationReason string

const (
	ReasonRush     DestinationReason = "rush"
	ReasonFull     DestinationReason = "full"
	ReasonCollect  DestinationReason = "collect"
	ReasonReturn   DestinationReason = "return"
	ReasonExplore  DestinationReason = "explore"
	ReasonStuck    DestinationReason = "stuck"
	ReasonKamikaze DestinationReason = "kamikaze"
)

// Destination is where a ship wants to be and why.
type Destination struct {
	Pos    halite.Position
	Reason DestinationReason
}

// IsRush reports whether the ship is on its end-of-game run home.
func (d Destination) IsRush() bool { return d.Reason == ReasonRush }

// isRushing reports whether the ship must head home now to make it before the game ends.
func (tc *TurnContext) isRushing(s *halite.Ship) bool {
	_, dist := tc.NearestDrop(s.Pos)
	return tc.Game.RemainingTurns() < dist+tc.Params.SafetyMargin
}

// SelectDestination decides where the ship wants to go this turn. It only
// reads the context, so repeated calls on the same snapshot agree.
func SelectDestination(tc *TurnContext, s *halite.Ship) Destination {
	capacity := tc.Game.Constants.MaxHalite
	drop, _ := tc.NearestDrop(s.Pos)

	if tc.isRushing(s) {
		return Destination{Pos: drop, Reason: ReasonRush}
	}
	if s.Halite > tc.Params.ratio(capacity, tc.Params.ReturnRatio) {
		return Destination{Pos: drop, Reason: ReasonFull}
	}
	if kamikaze, ok := tc.kamikazeTarget(s); ok {
		return Destination{Pos: kamikaze, Reason: ReasonKamikaze}
	}
	if tc.Map.At(s.Pos).Halite > tc.Params.ratio(capacity, tc.Params.InterestingRatio) {
		return Destination{Pos: tc.Map.Normalize(s.Pos), Reason: ReasonCollect}
	}
	if s.Halite > tc.Params.ratio(capacity, tc.Params.SecondaryReturnRatio) {
		return Destination{Pos: drop, Reason: ReasonReturn}
	}
	res := FindBestCell(tc, s)
	if !res.Found {
		return Destination{Pos: tc.Map.Normalize(s.Pos), Reason: ReasonStuck}
	}
	return Destination{Pos: res.Pos, Reason: ReasonExplore}
}

// kamikazeTarget returns the enemy shipyard when s is the designated blocker:
// two-player games only, the lowest ship ID once the fleet is large enough.
func (tc *TurnContext) kamikazeTarget(s *halite.Ship) (halite.Position, bool) {
	k := tc.Params.Kamikaze
	if !k.Enabled || len(tc.Game.Players) != 2 || len(tc.Me.Ships) < k.MinShips {
		return halite.Position{}, false
	}
	for _, other := range tc.Me.Ships {
		if other.ID < s.ID {
			return halite.Position{}, false
		}
	}
	for _, p := range tc.Game.Players {
		if p.ID != tc.Me.ID {
			return tc.Map.Normalize(p.Shipyard.Pos), true
		}
	}
	return halite.Position{}, false
}
