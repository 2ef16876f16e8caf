// Package hlt implements the Halite engine line protocol on both sides of the
// pipe: Conn is what a bot uses on stdin/stdout, Process drives a bot binary as
// a subprocess from a local engine.
//
// Init (engine -> bot): constants JSON line, "num_players my_id", one
// "player_id shipyard_x shipyard_y" line per player, "width height", then one
// line of halite amounts per map row. The bot answers with its name.
//
// Each turn (engine -> bot): "turn", then per player "id ships dropoffs halite"
// followed by ship lines "id x y halite" and dropoff lines "id x y", then the
// count of changed cells and one "x y halite" line each. The bot answers with a
// single line of space separated commands.
package hlt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/freeeve/halite-fleet/pkg/halite"
)

const maxLineSize = 1 << 20

// Conn is the bot side of the protocol.
type Conn struct {
	scanner *bufio.Scanner
	w       *bufio.Writer
}

// NewConn wraps the engine's input and output streams.
func NewConn(r io.Reader, w io.Writer) *Conn {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Conn{scanner: s, w: bufio.NewWriter(w)}
}

// readLine returns the next non-empty line, or io.EOF when the engine closed the pipe.
func (c *Conn) readLine() (string, error) {
	for c.scanner.Scan() {
		line := strings.TrimSpace(c.scanner.Text())
		if line != "" {
			return line, nil
		}
	}
	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (c *Conn) readInts(n int) ([]int, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	return parseInts(line, n)
}

func parseInts(line string, n int) ([]int, error) {
	fields := strings.Fields(line)
	if n >= 0 && len(fields) != n {
		return nil, fmt.Errorf("expected %d fields, got %d in %q", n, len(fields), line)
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}

// ReadInit consumes the pre-game data and returns the initial game view.
func (c *Conn) ReadInit() (*halite.Game, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, fmt.Errorf("read constants: %w", err)
	}
	consts := halite.DefaultConstants()
	if err := json.Unmarshal([]byte(line), &consts); err != nil {
		return nil, fmt.Errorf("decode constants: %w", err)
	}

	head, err := c.readInts(2)
	if err != nil {
		return nil, fmt.Errorf("read player header: %w", err)
	}
	g := &halite.Game{Constants: consts, MyID: head[1]}

	for i := 0; i < head[0]; i++ {
		v, err := c.readInts(3)
		if err != nil {
			return nil, fmt.Errorf("read player %d: %w", i, err)
		}
		g.Players = append(g.Players, &halite.Player{
			ID: v[0],
			Shipyard: halite.Structure{
				ID:    -1 - v[0],
				Owner: v[0],
				Kind:  halite.Shipyard,
				Pos:   halite.Position{X: v[1], Y: v[2]},
			},
		})
	}

	dims, err := c.readInts(2)
	if err != nil {
		return nil, fmt.Errorf("read map size: %w", err)
	}
	g.Map = halite.NewGameMap(dims[0], dims[1])
	for y := 0; y < dims[1]; y++ {
		row, err := c.readInts(dims[0])
		if err != nil {
			return nil, fmt.Errorf("read map row %d: %w", y, err)
		}
		for x, h := range row {
			g.Map.At(halite.Position{X: x, Y: y}).Halite = h
		}
	}
	g.PlaceEntities()
	return g, nil
}

// Ready sends the bot name, which starts the engine's turn timer.
func (c *Conn) Ready(name string) error {
	return c.writeLine(name)
}

// ReadFrame updates g in place with the next turn. It returns io.EOF when the
// engine has ended the game.
func (c *Conn) ReadFrame(g *halite.Game) error {
	line, err := c.readLine()
	if err != nil {
		return err
	}
	turn, err := strconv.Atoi(line)
	if err != nil {
		return fmt.Errorf("parse turn %q: %w", line, err)
	}
	g.Turn = turn

	for range g.Players {
		v, err := c.readInts(4)
		if err != nil {
			return fmt.Errorf("read player frame: %w", err)
		}
		p := g.Player(v[0])
		if p == nil {
			return fmt.Errorf("unknown player %d", v[0])
		}
		p.Halite = v[3]
		p.Ships = p.Ships[:0]
		for i := 0; i < v[1]; i++ {
			s, err := c.readInts(4)
			if err != nil {
				return fmt.Errorf("read ship: %w", err)
			}
			p.Ships = append(p.Ships, &halite.Ship{
				ID:     s[0],
				Owner:  p.ID,
				Pos:    halite.Position{X: s[1], Y: s[2]},
				Halite: s[3],
			})
		}
		p.Dropoffs = p.Dropoffs[:0]
		for i := 0; i < v[2]; i++ {
			d, err := c.readInts(3)
			if err != nil {
				return fmt.Errorf("read dropoff: %w", err)
			}
			p.Dropoffs = append(p.Dropoffs, &halite.Structure{
				ID:    d[0],
				Owner: p.ID,
				Kind:  halite.Dropoff,
				Pos:   halite.Position{X: d[1], Y: d[2]},
			})
		}
	}

	n, err := c.readInts(1)
	if err != nil {
		return fmt.Errorf("read update count: %w", err)
	}
	for i := 0; i < n[0]; i++ {
		u, err := c.readInts(3)
		if err != nil {
			return fmt.Errorf("read cell update: %w", err)
		}
		g.Map.At(halite.Position{X: u[0], Y: u[1]}).Halite = u[2]
	}
	g.PlaceEntities()
	return nil
}

// EndTurn writes the command batch as one line.
func (c *Conn) EndTurn(cmds []halite.Command) error {
	return c.writeLine(FormatCommands(cmds))
}

func (c *Conn) writeLine(s string) error {
	if _, err := c.w.WriteString(s + "\n"); err != nil {
		return err
	}
	return c.w.Flush()
}

// FormatCommands renders a batch in wire format.
func FormatCommands(cmds []halite.Command) string {
	parts := make([]string, len(cmds))
	for i, cmd := range cmds {
		parts[i] = cmd.String()
	}
	return strings.Join(parts, " ")
}

// ParseCommands decodes a command line sent by a bot.
func ParseCommands(line string) ([]halite.Command, error) {
	fields := strings.Fields(line)
	var out []halite.Command
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "g":
			out = append(out, halite.SpawnCommand())
		case "c":
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("convert without ship id")
			}
			id, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("convert ship id %q: %w", fields[i+1], err)
			}
			out = append(out, halite.ConvertCommand(id))
			i++
		case "m":
			if i+2 >= len(fields) {
				return nil, fmt.Errorf("move needs ship id and direction")
			}
			id, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("move ship id %q: %w", fields[i+1], err)
			}
			d, err := halite.ParseDirection(fields[i+2])
			if err != nil {
				return nil, err
			}
			out = append(out, halite.MoveCommand(id, d))
			i += 2
		default:
			return nil, fmt.Errorf("unknown command %q", fields[i])
		}
	}
	return out, nil
}
