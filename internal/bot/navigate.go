package bot

import (
	"github.com/freeeve/halite-fleet/pkg/halite"
)

// MoveMode selects whether occupancy is considered when choosing a step.
type MoveMode int

const (
	// ModeUnsafe ignores other ships and always yields a direction.
	ModeUnsafe MoveMode = iota
	// ModeSafe only steps onto free cells and records the move in the context.
	ModeSafe
)

func (m MoveMode) String() string {
	if m == ModeSafe {
		return "safe"
	}
	return "unsafe"
}

// ChooseDirection picks the single step toward dest whose target cell holds
// the least halite. In ModeUnsafe it returns Still when the ship is already
// there. In ModeSafe it returns false when every progressing step is blocked,
// and on success moves the ship in the context's occupancy immediately so the
// next ship evaluated sees it.
func ChooseDirection(tc *TurnContext, s *halite.Ship, dest halite.Position, mode MoveMode) (halite.Direction, bool) {
	candidates := tc.Map.GetUnsafeMoves(s.Pos, dest)
	if len(candidates) == 0 {
		return halite.Still, mode == ModeUnsafe
	}

	best := halite.Still
	bestHalite := -1
	for _, d := range candidates {
		target := tc.Map.Offset(s.Pos, d)
		if mode == ModeSafe && tc.IsOccupied(target) {
			continue
		}
		h := tc.Map.At(target).Halite
		if bestHalite < 0 || h < bestHalite {
			best, bestHalite = d, h
		}
	}
	if bestHalite < 0 {
		return halite.Still, false
	}
	if mode == ModeSafe {
		tc.moveOccupant(s.ID, s.Pos, tc.Map.Offset(s.Pos, best))
	}
	return best, true
}
