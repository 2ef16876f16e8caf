package halite

import "fmt"

// Position is a cell coordinate on the toroidal grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add returns the component-wise sum. The result is not normalized.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Direction is a single-step movement, encoded with the engine's command letters.
type Direction byte

const (
	North Direction = 'n'
	South Direction = 's'
	East  Direction = 'e'
	West  Direction = 'w'
	Still Direction = 'o'
)

// Cardinals lists the four moving directions in the order the engine documents them.
var Cardinals = []Direction{North, South, East, West}

// Offset returns the unit displacement for the direction. North decreases Y.
func (d Direction) Offset() Position {
	switch d {
	case North:
		return Position{X: 0, Y: -1}
	case South:
		return Position{X: 0, Y: 1}
	case East:
		return Position{X: 1, Y: 0}
	case West:
		return Position{X: -1, Y: 0}
	default:
		return Position{}
	}
}

// Invert returns the opposite direction.
func (d Direction) Invert() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return Still
	}
}

func (d Direction) String() string {
	return string(d)
}

// MarshalText encodes the direction as its engine letter.
func (d Direction) MarshalText() ([]byte, error) {
	if d == 0 {
		return []byte{byte(Still)}, nil
	}
	return []byte{byte(d)}, nil
}

// UnmarshalText decodes an engine letter.
func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection maps an engine letter to a Direction.
func ParseDirection(s string) (Direction, error) {
	if len(s) != 1 {
		return Still, fmt.Errorf("invalid direction %q", s)
	}
	switch d := Direction(s[0]); d {
	case North, South, East, West, Still:
		return d, nil
	}
	return Still, fmt.Errorf("invalid direction %q", s)
}
