package halite

import (
	"fmt"
	"math/rand"
)

// MapConfig describes a generated map.
type MapConfig struct {
	Width      int
	Height     int
	NumPlayers int   // 1, 2 or 4
	Seed       int64 // same seed, same map
}

// GenerateMap builds a mirrored halite field and the shipyard positions for each player.
// Two-player maps mirror left/right, four-player maps mirror both axes.
func GenerateMap(cfg MapConfig) (*GameMap, []Position, error) {
	if cfg.Width < 8 || cfg.Height < 8 {
		return nil, nil, fmt.Errorf("map %dx%d too small", cfg.Width, cfg.Height)
	}
	switch cfg.NumPlayers {
	case 1, 2, 4:
	default:
		return nil, nil, fmt.Errorf("unsupported player count %d", cfg.NumPlayers)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	m := NewGameMap(cfg.Width, cfg.Height)

	tileW, tileH := cfg.Width, cfg.Height
	if cfg.NumPlayers >= 2 {
		tileW = (cfg.Width + 1) / 2
	}
	if cfg.NumPlayers == 4 {
		tileH = (cfg.Height + 1) / 2
	}

	field := make([]int, tileW*tileH)
	for i := range field {
		field[i] = rng.Intn(60)
	}

	// A few rich patches per tile with linear falloff.
	patches := 2 + (tileW*tileH)/160
	for p := 0; p < patches; p++ {
		cx, cy := rng.Intn(tileW), rng.Intn(tileH)
		peak := 400 + rng.Intn(600)
		radius := 2 + rng.Intn(4)
		for y := cy - radius; y <= cy+radius; y++ {
			for x := cx - radius; x <= cx+radius; x++ {
				if x < 0 || y < 0 || x >= tileW || y >= tileH {
					continue
				}
				d := abs(x-cx) + abs(y-cy)
				if d > radius {
					continue
				}
				field[y*tileW+x] += peak * (radius + 1 - d) / (radius + 1)
			}
		}
	}

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			tx, ty := x, y
			if tx >= tileW {
				tx = cfg.Width - 1 - x
			}
			if ty >= tileH {
				ty = cfg.Height - 1 - y
			}
			m.At(Position{X: x, Y: y}).Halite = min(field[ty*tileW+tx], 1000)
		}
	}

	qx, qy := cfg.Width/4, cfg.Height/4
	var yards []Position
	switch cfg.NumPlayers {
	case 1:
		yards = []Position{{X: cfg.Width / 2, Y: cfg.Height / 2}}
	case 2:
		yards = []Position{
			{X: qx, Y: cfg.Height / 2},
			{X: cfg.Width - 1 - qx, Y: cfg.Height / 2},
		}
	case 4:
		yards = []Position{
			{X: qx, Y: qy},
			{X: cfg.Width - 1 - qx, Y: qy},
			{X: qx, Y: cfg.Height - 1 - qy},
			{X: cfg.Width - 1 - qx, Y: cfg.Height - 1 - qy},
		}
	}
	for _, p := range yards {
		m.At(p).Halite = 0
	}
	return m, yards, nil
}
