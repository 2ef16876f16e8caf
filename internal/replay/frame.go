// Package replay records arena matches as zstd-compressed JSON lines, one
// frame per line, and reads them back.
package replay

import (
	"github.com/freeeve/halite-fleet/pkg/halite"
)

// Frame types. They double as spectator event names.
const (
	TypeStarted = "match_started"
	TypeTurn    = "turn"
	TypeEnded   = "match_ended"
)

// CellUpdate is a cell whose halite changed during a turn.
type CellUpdate struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Halite int `json:"halite"`
}

// PlayerFrame is a player's visible state at the end of a turn.
type PlayerFrame struct {
	ID       int               `json:"id"`
	Strategy string            `json:"strategy,omitempty"`
	Halite   int               `json:"halite"`
	Shipyard halite.Position   `json:"shipyard"`
	Dropoffs []halite.Position `json:"dropoffs,omitempty"`
	Ships    []halite.Ship     `json:"ships"`
}

// Frame is one line of a replay. A replay starts with a match_started frame
// carrying the full grid, continues with one turn frame per resolved turn
// carrying only changed cells, and ends with match_ended.
type Frame struct {
	Type      string                   `json:"type"`
	MatchID   string                   `json:"match_id"`
	Turn      int                      `json:"turn"`
	Width     int                      `json:"width,omitempty"`
	Height    int                      `json:"height,omitempty"`
	Constants *halite.Constants        `json:"constants,omitempty"`
	Grid      []int                    `json:"grid,omitempty"`
	Updates   []CellUpdate             `json:"updates,omitempty"`
	Players   []PlayerFrame            `json:"players"`
	Commands  map[int][]halite.Command `json:"commands,omitempty"`
	Report    *halite.TurnReport       `json:"report,omitempty"`
	Winner    *int                     `json:"winner,omitempty"`
	Standings []int                    `json:"standings,omitempty"`
}

// Recorder builds frames for one match, tracking the grid between turns so
// turn frames only carry changed cells.
type Recorder struct {
	matchID    string
	strategies []string
	grid       []int
}

// NewRecorder starts recording matchID. strategies is indexed by player ID.
func NewRecorder(matchID string, strategies []string) *Recorder {
	return &Recorder{matchID: matchID, strategies: strategies}
}

// Start returns the opening frame with the full grid.
func (r *Recorder) Start(st *halite.State) *Frame {
	r.grid = gridOf(st.Map)
	c := st.Constants
	f := &Frame{
		Type:      TypeStarted,
		MatchID:   r.matchID,
		Turn:      st.Turn,
		Width:     st.Map.Width,
		Height:    st.Map.Height,
		Constants: &c,
		Grid:      append([]int(nil), r.grid...),
		Players:   r.players(st),
	}
	return f
}

// Turn returns the frame for a just-applied turn.
func (r *Recorder) Turn(st *halite.State, cmds map[int][]halite.Command, rep halite.TurnReport) *Frame {
	f := &Frame{
		Type:     TypeTurn,
		MatchID:  r.matchID,
		Turn:     rep.Turn,
		Players:  r.players(st),
		Commands: cmds,
		Report:   &rep,
	}
	for y := 0; y < st.Map.Height; y++ {
		for x := 0; x < st.Map.Width; x++ {
			i := y*st.Map.Width + x
			h := st.Map.At(halite.Position{X: x, Y: y}).Halite
			if r.grid != nil && r.grid[i] != h {
				f.Updates = append(f.Updates, CellUpdate{X: x, Y: y, Halite: h})
				r.grid[i] = h
			}
		}
	}
	return f
}

// End returns the closing frame with final standings.
func (r *Recorder) End(st *halite.State) *Frame {
	standings := st.Standings()
	winner := -1
	if len(standings) > 0 {
		winner = standings[0]
	}
	return &Frame{
		Type:      TypeEnded,
		MatchID:   r.matchID,
		Turn:      st.Turn - 1,
		Players:   r.players(st),
		Winner:    &winner,
		Standings: standings,
	}
}

func (r *Recorder) players(st *halite.State) []PlayerFrame {
	out := make([]PlayerFrame, 0, len(st.Players))
	for _, p := range st.Players {
		pf := PlayerFrame{
			ID:       p.ID,
			Halite:   p.Halite,
			Shipyard: p.Shipyard.Pos,
			Ships:    make([]halite.Ship, 0, len(p.Ships)),
		}
		if p.ID < len(r.strategies) {
			pf.Strategy = r.strategies[p.ID]
		}
		for _, d := range p.Dropoffs {
			pf.Dropoffs = append(pf.Dropoffs, d.Pos)
		}
		for _, s := range p.SortedShips() {
			pf.Ships = append(pf.Ships, *s)
		}
		out = append(out, pf)
	}
	return out
}

func gridOf(m *halite.GameMap) []int {
	out := make([]int, 0, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out = append(out, m.At(halite.Position{X: x, Y: y}).Halite)
		}
	}
	return out
}

// Apply replays f's cell updates onto grid, a row-major halite grid of the given width.
func (f *Frame) Apply(grid []int, width int) {
	for _, u := range f.Updates {
		grid[u.Y*width+u.X] = u.Halite
	}
}
