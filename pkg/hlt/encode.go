package hlt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/freeeve/halite-fleet/pkg/halite"
)

// WriteInit writes the pre-game data for the viewing player of g.
func WriteInit(w io.Writer, g *halite.Game) error {
	bw := bufio.NewWriter(w)
	consts, err := json.Marshal(g.Constants)
	if err != nil {
		return fmt.Errorf("encode constants: %w", err)
	}
	fmt.Fprintf(bw, "%s\n", consts)
	fmt.Fprintf(bw, "%d %d\n", len(g.Players), g.MyID)
	for _, p := range g.Players {
		fmt.Fprintf(bw, "%d %d %d\n", p.ID, p.Shipyard.Pos.X, p.Shipyard.Pos.Y)
	}
	fmt.Fprintf(bw, "%d %d\n", g.Map.Width, g.Map.Height)
	for y := 0; y < g.Map.Height; y++ {
		for x := 0; x < g.Map.Width; x++ {
			if x > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%d", g.Map.At(halite.Position{X: x, Y: y}).Halite)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// HaliteSnapshot copies every cell's halite in row-major order.
func HaliteSnapshot(m *halite.GameMap) []int {
	out := make([]int, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out[y*m.Width+x] = m.At(halite.Position{X: x, Y: y}).Halite
		}
	}
	return out
}

// WriteFrame writes one turn. Only cells whose halite differs from prev are
// sent; prev is updated in place. A nil prev sends no cell updates.
func WriteFrame(w io.Writer, g *halite.Game, prev []int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", g.Turn)
	for _, p := range g.Players {
		fmt.Fprintf(bw, "%d %d %d %d\n", p.ID, len(p.Ships), len(p.Dropoffs), p.Halite)
		for _, s := range p.Ships {
			fmt.Fprintf(bw, "%d %d %d %d\n", s.ID, s.Pos.X, s.Pos.Y, s.Halite)
		}
		for _, d := range p.Dropoffs {
			fmt.Fprintf(bw, "%d %d %d\n", d.ID, d.Pos.X, d.Pos.Y)
		}
	}

	var updates []string
	if prev != nil {
		for y := 0; y < g.Map.Height; y++ {
			for x := 0; x < g.Map.Width; x++ {
				i := y*g.Map.Width + x
				h := g.Map.At(halite.Position{X: x, Y: y}).Halite
				if prev[i] != h {
					updates = append(updates, fmt.Sprintf("%d %d %d", x, y, h))
					prev[i] = h
				}
			}
		}
	}
	fmt.Fprintf(bw, "%d\n", len(updates))
	for _, u := range updates {
		fmt.Fprintf(bw, "%s\n", u)
	}
	return bw.Flush()
}
