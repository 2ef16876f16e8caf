package halite

import (
	"fmt"
	"sort"
)

// Constants are the per-game rule constants announced by the engine.
type Constants struct {
	MaxHalite          int  `json:"MAX_HALITE"`
	ShipCost           int  `json:"NEW_ENTITY_ENERGY_COST"`
	DropoffCost        int  `json:"DROPOFF_COST"`
	MaxTurns           int  `json:"MAX_TURNS"`
	ExtractRatio       int  `json:"EXTRACT_RATIO"`
	MoveCostRatio      int  `json:"MOVE_COST_RATIO"`
	InitialEnergy      int  `json:"INITIAL_ENERGY"`
	InspirationEnabled bool `json:"INSPIRATION_ENABLED"`
}

// DefaultConstants returns the standard rule set.
func DefaultConstants() Constants {
	return Constants{
		MaxHalite:     1000,
		ShipCost:      1000,
		DropoffCost:   4000,
		MaxTurns:      400,
		ExtractRatio:  4,
		MoveCostRatio: 10,
		InitialEnergy: 5000,
	}
}

// MaxTurnsForSize is the turn limit the engine uses for a square map of the given width.
func MaxTurnsForSize(width int) int {
	switch {
	case width <= 32:
		return 400
	case width <= 40:
		return 425
	case width <= 48:
		return 450
	case width <= 56:
		return 475
	default:
		return 500
	}
}

// MoveCost is the halite a ship pays to leave a cell holding cellHalite.
func (c Constants) MoveCost(cellHalite int) int {
	if c.MoveCostRatio <= 0 {
		return 0
	}
	return cellHalite / c.MoveCostRatio
}

// Extraction is the halite mined in one turn from a cell holding cellHalite.
func (c Constants) Extraction(cellHalite int) int {
	if c.ExtractRatio <= 0 || cellHalite <= 0 {
		return 0
	}
	return (cellHalite + c.ExtractRatio - 1) / c.ExtractRatio
}

// Ship is a mobile unit.
type Ship struct {
	ID     int      `json:"id"`
	Owner  int      `json:"owner"`
	Pos    Position `json:"pos"`
	Halite int      `json:"halite"`
}

// IsFull reports whether the ship carries at least capacity halite.
func (s *Ship) IsFull(capacity int) bool { return s.Halite >= capacity }

// Player is one participant with its shipyard, dropoffs, ships and treasury.
type Player struct {
	ID       int          `json:"id"`
	Shipyard Structure    `json:"shipyard"`
	Dropoffs []*Structure `json:"dropoffs"`
	Ships    []*Ship      `json:"ships"`
	Halite   int          `json:"halite"`
}

// DropPoints returns the shipyard followed by every dropoff.
func (p *Player) DropPoints() []Position {
	out := make([]Position, 0, 1+len(p.Dropoffs))
	out = append(out, p.Shipyard.Pos)
	for _, d := range p.Dropoffs {
		out = append(out, d.Pos)
	}
	return out
}

// Ship returns the player's ship with the given ID, or nil.
func (p *Player) Ship(id int) *Ship {
	for _, s := range p.Ships {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SortedShips returns the player's ships ordered by ID.
func (p *Player) SortedShips() []*Ship {
	out := make([]*Ship, len(p.Ships))
	copy(out, p.Ships)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Game is one player's view of a turn: constants, players, map and turn number.
type Game struct {
	Constants Constants
	Turn      int
	MyID      int
	Players   []*Player
	Map       *GameMap
}

// Me returns the viewing player.
func (g *Game) Me() *Player {
	return g.Player(g.MyID)
}

// Player returns the player with the given ID, or nil.
func (g *Game) Player(id int) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RemainingTurns is the number of turns left including the current one.
func (g *Game) RemainingTurns() int {
	return g.Constants.MaxTurns - g.Turn
}

// PlaceEntities clears the map's occupancy and re-links every ship and
// structure onto its cell.
func (g *Game) PlaceEntities() {
	g.Map.ClearOccupancy()
	for _, p := range g.Players {
		g.Map.At(p.Shipyard.Pos).Structure = &p.Shipyard
		for _, d := range p.Dropoffs {
			g.Map.At(d.Pos).Structure = d
		}
		for _, s := range p.Ships {
			g.Map.At(s.Pos).Ship = s
		}
	}
}

// CommandKind identifies a directive in a command batch.
type CommandKind int

const (
	CommandMove CommandKind = iota
	CommandSpawn
	CommandConvert
)

// Command is a single directive. Staying still is a move with direction Still.
type Command struct {
	Kind      CommandKind `json:"kind"`
	ShipID    int         `json:"ship_id,omitempty"`
	Direction Direction   `json:"direction,omitempty"`
}

// MoveCommand orders a ship to move one step (or stay with Still).
func MoveCommand(shipID int, d Direction) Command {
	return Command{Kind: CommandMove, ShipID: shipID, Direction: d}
}

// StayCommand orders a ship to stay in place.
func StayCommand(shipID int) Command {
	return MoveCommand(shipID, Still)
}

// SpawnCommand orders the shipyard to build a ship.
func SpawnCommand() Command {
	return Command{Kind: CommandSpawn}
}

// ConvertCommand orders a ship to turn its cell into a dropoff.
func ConvertCommand(shipID int) Command {
	return Command{Kind: CommandConvert, ShipID: shipID}
}

// String renders the command in engine wire format.
func (c Command) String() string {
	switch c.Kind {
	case CommandSpawn:
		return "g"
	case CommandConvert:
		return fmt.Sprintf("c %d", c.ShipID)
	default:
		d := c.Direction
		if d == 0 {
			d = Still
		}
		return fmt.Sprintf("m %d %c", c.ShipID, byte(d))
	}
}
