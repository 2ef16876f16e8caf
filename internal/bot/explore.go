package bot

import (
	"github.com/freeeve/halite-fleet/pkg/halite"
)

// ExploreResult is the outcome of a bounded exploration search.
type ExploreResult struct {
	Pos       halite.Position
	Found     bool
	Radius    int // radius at which the search stopped
	MaxRadius int // largest radius examined over every sweep
	Threshold int // threshold in force when the search stopped
	Sweeps    int
}

// maxExploreSweeps bounds how many times one search may restart. The
// threshold step is widened so the last sweep still reaches zero.
const maxExploreSweeps = 10

// FindBestCell looks for the richest free cell around the ship, expanding the
// search ring by ring. A sweep ends at half the map size; after a fruitless
// sweep the interesting threshold is lowered and the search restarts at the
// centre. The search gives up after the sweep at threshold zero.
func FindBestCell(tc *TurnContext, s *halite.Ship) ExploreResult {
	capacity := tc.Game.Constants.MaxHalite
	threshold := tc.Params.ratio(capacity, tc.Params.InterestingRatio)
	step := tc.Params.ratio(capacity, tc.Params.InterestingDecrement)
	if step > 0 {
		step = max(step, (threshold+maxExploreSweeps-2)/(maxExploreSweeps-1))
	}
	limit := max(tc.Map.Width, tc.Map.Height) / 2
	center := tc.Map.Normalize(s.Pos)

	res := ExploreResult{}
	for threshold >= 0 {
		res.Sweeps++
		for r := 0; r <= limit; r++ {
			res.Radius = r
			res.MaxRadius = max(res.MaxRadius, r)
			if pos, ok := tc.bestInRing(s.ID, center, r, threshold); ok {
				res.Pos, res.Found, res.Threshold = pos, true, threshold
				return res
			}
		}
		if step <= 0 {
			break
		}
		if threshold > 0 && threshold < step {
			threshold = 0
		} else {
			threshold -= step
		}
	}
	res.Threshold = threshold
	return res
}

// bestInRing scans the candidates at radius r: the four cardinal neighbours at
// r == 0, otherwise the boundary of the (2r+1) square. Earlier candidates win ties.
func (tc *TurnContext) bestInRing(shipID int, center halite.Position, r, threshold int) (halite.Position, bool) {
	var best halite.Position
	bestHalite := -1
	found := false

	consider := func(p halite.Position) {
		p = tc.Map.Normalize(p)
		if p == center || tc.IsOccupied(p) || tc.IsReserved(p, shipID) {
			return
		}
		h := tc.Map.At(p).Halite
		if h > threshold && h > bestHalite {
			best, bestHalite, found = p, h, true
		}
	}

	if r == 0 {
		for _, p := range tc.Map.Neighbors(center) {
			consider(p)
		}
		return best, found
	}
	for dx := -r; dx <= r; dx++ {
		consider(halite.Position{X: center.X + dx, Y: center.Y - r})
		consider(halite.Position{X: center.X + dx, Y: center.Y + r})
	}
	for dy := -r + 1; dy <= r-1; dy++ {
		consider(halite.Position{X: center.X - r, Y: center.Y + dy})
		consider(halite.Position{X: center.X + r, Y: center.Y + dy})
	}
	return best, found
}
