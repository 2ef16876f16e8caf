package halite

// StructureKind distinguishes shipyards from dropoffs.
type StructureKind int

const (
	Shipyard StructureKind = iota
	Dropoff
)

func (k StructureKind) String() string {
	if k == Shipyard {
		return "shipyard"
	}
	return "dropoff"
}

// Structure is a drop point: a player's shipyard or one of its dropoffs.
type Structure struct {
	ID    int           `json:"id"`
	Owner int           `json:"owner"`
	Kind  StructureKind `json:"kind"`
	Pos   Position      `json:"pos"`
}

// Cell is one square of the map snapshot.
type Cell struct {
	Pos       Position
	Halite    int
	Ship      *Ship      // nil when empty
	Structure *Structure // nil when no drop point
}

// IsOccupied reports whether a ship sits on the cell.
func (c *Cell) IsOccupied() bool { return c.Ship != nil }

// HasStructure reports whether the cell holds a shipyard or dropoff.
func (c *Cell) HasStructure() bool { return c.Structure != nil }

// GameMap is a toroidal grid of cells.
type GameMap struct {
	Width  int
	Height int
	cells  []Cell
}

// NewGameMap creates an empty map of the given dimensions.
func NewGameMap(width, height int) *GameMap {
	m := &GameMap{
		Width:  width,
		Height: height,
		cells:  make([]Cell, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.cells[y*width+x].Pos = Position{X: x, Y: y}
		}
	}
	return m
}

// Normalize wraps a position into the grid.
func (m *GameMap) Normalize(p Position) Position {
	x := ((p.X % m.Width) + m.Width) % m.Width
	y := ((p.Y % m.Height) + m.Height) % m.Height
	return Position{X: x, Y: y}
}

// At returns the cell at p (normalized).
func (m *GameMap) At(p Position) *Cell {
	p = m.Normalize(p)
	return &m.cells[p.Y*m.Width+p.X]
}

// Offset returns the normalized neighbour of p in direction d.
func (m *GameMap) Offset(p Position, d Direction) Position {
	return m.Normalize(p.Add(d.Offset()))
}

// Neighbors returns the four cardinal neighbours of p in Cardinals order.
func (m *GameMap) Neighbors(p Position) []Position {
	out := make([]Position, 0, len(Cardinals))
	for _, d := range Cardinals {
		out = append(out, m.Offset(p, d))
	}
	return out
}

// Distance is the toroidal Manhattan distance between two positions.
func (m *GameMap) Distance(a, b Position) int {
	a, b = m.Normalize(a), m.Normalize(b)
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	return min(dx, m.Width-dx) + min(dy, m.Height-dy)
}

// GetUnsafeMoves returns the directions that reduce the toroidal distance from
// src to dst, x axis first. Empty when src == dst.
func (m *GameMap) GetUnsafeMoves(src, dst Position) []Direction {
	src, dst = m.Normalize(src), m.Normalize(dst)
	var moves []Direction

	dx := abs(src.X - dst.X)
	wrapX := m.Width - dx
	if src.X < dst.X {
		if dx > wrapX {
			moves = append(moves, West)
		} else {
			moves = append(moves, East)
		}
	} else if src.X > dst.X {
		if dx < wrapX {
			moves = append(moves, West)
		} else {
			moves = append(moves, East)
		}
	}

	dy := abs(src.Y - dst.Y)
	wrapY := m.Height - dy
	if src.Y < dst.Y {
		if dy > wrapY {
			moves = append(moves, North)
		} else {
			moves = append(moves, South)
		}
	} else if src.Y > dst.Y {
		if dy < wrapY {
			moves = append(moves, North)
		} else {
			moves = append(moves, South)
		}
	}
	return moves
}

// TotalHalite sums the halite left on the map.
func (m *GameMap) TotalHalite() int {
	total := 0
	for i := range m.cells {
		total += m.cells[i].Halite
	}
	return total
}

// ClearOccupancy detaches every ship and structure reference.
func (m *GameMap) ClearOccupancy() {
	for i := range m.cells {
		m.cells[i].Ship = nil
		m.cells[i].Structure = nil
	}
}

// Clone deep-copies halite amounts. Ship and structure pointers are not carried
// over; callers re-place entities they own.
func (m *GameMap) Clone() *GameMap {
	c := NewGameMap(m.Width, m.Height)
	for i := range m.cells {
		c.cells[i].Halite = m.cells[i].Halite
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
