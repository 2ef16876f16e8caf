package halite

import (
	"fmt"
	"sort"
)

// State is the authoritative game state kept by a local engine. Strategies
// never see it directly; they receive a View.
type State struct {
	Constants Constants
	Turn      int
	Map       *GameMap
	Players   []*Player

	nextShipID      int
	nextStructureID int
}

// NewState creates a game on the given map with one shipyard per position.
// Player IDs are assigned in order starting at 0.
func NewState(c Constants, m *GameMap, shipyards []Position) *State {
	s := &State{
		Constants: c,
		Turn:      1,
		Map:       m,
	}
	for i, pos := range shipyards {
		s.Players = append(s.Players, &Player{
			ID: i,
			Shipyard: Structure{
				ID:    s.nextStructureID,
				Owner: i,
				Kind:  Shipyard,
				Pos:   m.Normalize(pos),
			},
			Halite: c.InitialEnergy,
		})
		s.nextStructureID++
	}
	s.link()
	return s
}

func (s *State) link() {
	g := Game{Map: s.Map, Players: s.Players}
	g.PlaceEntities()
}

// Done reports whether the final turn has been played.
func (s *State) Done() bool {
	return s.Turn > s.Constants.MaxTurns
}

// Player returns the player with the given ID, or nil.
func (s *State) Player(id int) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// View returns a deep copy of the state as seen by playerID.
func (s *State) View(playerID int) *Game {
	g := &Game{
		Constants: s.Constants,
		Turn:      s.Turn,
		MyID:      playerID,
		Map:       s.Map.Clone(),
	}
	for _, p := range s.Players {
		cp := &Player{
			ID:       p.ID,
			Shipyard: p.Shipyard,
			Halite:   p.Halite,
		}
		for _, d := range p.Dropoffs {
			dc := *d
			cp.Dropoffs = append(cp.Dropoffs, &dc)
		}
		for _, sh := range p.Ships {
			sc := *sh
			cp.Ships = append(cp.Ships, &sc)
		}
		g.Players = append(g.Players, cp)
	}
	g.PlaceEntities()
	return g
}

// TurnReport summarizes what happened when a turn was applied.
type TurnReport struct {
	Turn       int         `json:"turn"`
	Spawned    []int       `json:"spawned,omitempty"`
	Converted  []int       `json:"converted,omitempty"`
	Destroyed  []int       `json:"destroyed,omitempty"`
	Collisions []Position  `json:"collisions,omitempty"`
	Friendly   map[int]int `json:"friendly,omitempty"` // per player, own-ship collisions away from own structures
	Deposited  map[int]int `json:"deposited,omitempty"`
	Rejected   []string    `json:"rejected,omitempty"`
	Commands   map[int]int `json:"commands"`
	Halite     map[int]int `json:"halite"`
	Ships      map[int]int `json:"ships"`
}

type pendingMove struct {
	ship *Ship
	dir  Direction
}

// Apply resolves one simultaneous turn. batches maps player ID to its command
// batch. Order of resolution: spawns, conversions, moves, collisions, mining,
// deposits.
func (s *State) Apply(batches map[int][]Command) TurnReport {
	rep := TurnReport{
		Turn:      s.Turn,
		Deposited: make(map[int]int),
		Friendly:  make(map[int]int),
		Commands:  make(map[int]int),
		Halite:    make(map[int]int),
		Ships:     make(map[int]int),
	}

	moves := make(map[int]pendingMove)
	converting := make(map[int]bool)
	spawning := make(map[int]bool)

	for _, p := range s.Players {
		seen := make(map[int]bool)
		for _, c := range batches[p.ID] {
			rep.Commands[p.ID]++
			switch c.Kind {
			case CommandSpawn:
				if spawning[p.ID] {
					rep.Rejected = append(rep.Rejected, fmt.Sprintf("player %d: duplicate spawn", p.ID))
					continue
				}
				spawning[p.ID] = true
			case CommandMove, CommandConvert:
				sh := p.Ship(c.ShipID)
				if sh == nil {
					rep.Rejected = append(rep.Rejected, fmt.Sprintf("player %d: unknown ship %d", p.ID, c.ShipID))
					continue
				}
				if seen[c.ShipID] {
					rep.Rejected = append(rep.Rejected, fmt.Sprintf("player %d: duplicate command for ship %d", p.ID, c.ShipID))
					continue
				}
				seen[c.ShipID] = true
				if c.Kind == CommandConvert {
					converting[c.ShipID] = true
				} else if c.Direction != Still && c.Direction != 0 {
					moves[c.ShipID] = pendingMove{ship: sh, dir: c.Direction}
				}
			}
		}
	}

	// Spawns: the new ship appears on the shipyard and takes part in collisions.
	for _, p := range s.Players {
		if !spawning[p.ID] {
			continue
		}
		if p.Halite < s.Constants.ShipCost {
			rep.Rejected = append(rep.Rejected, fmt.Sprintf("player %d: cannot afford spawn", p.ID))
			continue
		}
		p.Halite -= s.Constants.ShipCost
		sh := &Ship{ID: s.nextShipID, Owner: p.ID, Pos: p.Shipyard.Pos}
		s.nextShipID++
		p.Ships = append(p.Ships, sh)
		rep.Spawned = append(rep.Spawned, sh.ID)
	}

	// Conversions pay DropoffCost reduced by the ship's cargo and the cell's halite.
	for _, p := range s.Players {
		kept := p.Ships[:0]
		for _, sh := range p.Ships {
			if !converting[sh.ID] {
				kept = append(kept, sh)
				continue
			}
			cell := s.Map.At(sh.Pos)
			cost := max(0, s.Constants.DropoffCost-sh.Halite-cell.Halite)
			if cell.HasStructure() || p.Halite < cost {
				rep.Rejected = append(rep.Rejected, fmt.Sprintf("player %d: conversion of ship %d refused", p.ID, sh.ID))
				kept = append(kept, sh)
				continue
			}
			p.Halite -= cost
			cell.Halite = 0
			d := &Structure{ID: s.nextStructureID, Owner: p.ID, Kind: Dropoff, Pos: sh.Pos}
			s.nextStructureID++
			p.Dropoffs = append(p.Dropoffs, d)
			cell.Structure = d
			rep.Converted = append(rep.Converted, sh.ID)
		}
		p.Ships = kept
	}

	// Moves: a ship that cannot pay to leave its cell stays and mines.
	moved := make(map[int]bool)
	ids := make([]int, 0, len(moves))
	for id := range moves {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		pm := moves[id]
		if converting[id] {
			continue
		}
		cost := s.Constants.MoveCost(s.Map.At(pm.ship.Pos).Halite)
		if pm.ship.Halite < cost {
			continue
		}
		pm.ship.Halite -= cost
		pm.ship.Pos = s.Map.Offset(pm.ship.Pos, pm.dir)
		moved[id] = true
	}

	// Collisions destroy every ship on a shared cell. Cargo goes to the
	// structure owner when the cell is a drop point, else onto the cell.
	byPos := make(map[Position][]*Ship)
	for _, p := range s.Players {
		for _, sh := range p.Ships {
			byPos[sh.Pos] = append(byPos[sh.Pos], sh)
		}
	}
	destroyed := make(map[int]bool)
	var collisionCells []Position
	for pos, ships := range byPos {
		if len(ships) > 1 {
			collisionCells = append(collisionCells, pos)
		}
	}
	sort.Slice(collisionCells, func(i, j int) bool {
		a, b := collisionCells[i], collisionCells[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	for _, pos := range collisionCells {
		cargo := 0
		owners := make(map[int]int)
		for _, sh := range byPos[pos] {
			owners[sh.Owner]++
			cargo += sh.Halite
			destroyed[sh.ID] = true
			rep.Destroyed = append(rep.Destroyed, sh.ID)
		}
		cell := s.Map.At(pos)
		if cell.HasStructure() {
			if owner := s.Player(cell.Structure.Owner); owner != nil {
				owner.Halite += cargo
				rep.Deposited[owner.ID] += cargo
			}
		} else {
			cell.Halite += cargo
		}
		for owner, n := range owners {
			if n > 1 && !(cell.HasStructure() && cell.Structure.Owner == owner) {
				rep.Friendly[owner]++
			}
		}
		rep.Collisions = append(rep.Collisions, pos)
	}
	sort.Ints(rep.Destroyed)
	for _, p := range s.Players {
		kept := p.Ships[:0]
		for _, sh := range p.Ships {
			if !destroyed[sh.ID] {
				kept = append(kept, sh)
			}
		}
		p.Ships = kept
	}

	s.link()

	// Mining and deposits.
	for _, p := range s.Players {
		for _, sh := range p.Ships {
			cell := s.Map.At(sh.Pos)
			if cell.HasStructure() {
				if cell.Structure.Owner == p.ID && sh.Halite > 0 {
					p.Halite += sh.Halite
					rep.Deposited[p.ID] += sh.Halite
					sh.Halite = 0
				}
				continue
			}
			if moved[sh.ID] {
				continue
			}
			mined := min(s.Constants.Extraction(cell.Halite), s.Constants.MaxHalite-sh.Halite)
			if mined > 0 {
				cell.Halite -= mined
				sh.Halite += mined
			}
		}
	}

	for _, p := range s.Players {
		rep.Halite[p.ID] = p.Halite
		rep.Ships[p.ID] = len(p.Ships)
	}
	s.Turn++
	return rep
}

// Standings returns player IDs ordered by treasury, highest first.
func (s *State) Standings() []int {
	ids := make([]int, 0, len(s.Players))
	for _, p := range s.Players {
		ids = append(ids, p.ID)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return s.Player(ids[i]).Halite > s.Player(ids[j]).Halite
	})
	return ids
}
