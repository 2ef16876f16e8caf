package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/pkg/hlt"
)

// DefaultTurnBudget is the engine's per-turn time limit.
const DefaultTurnBudget = 2 * time.Second

// Driver plays one game over the engine protocol: read a frame, decide,
// submit, repeat until the engine closes the stream.
type Driver struct {
	conn     *hlt.Conn
	strategy Strategy
	name     string
	budget   time.Duration
}

// NewDriver creates a driver reading engine input from r and writing commands to w.
func NewDriver(r io.Reader, w io.Writer, strategy Strategy, name string, budget time.Duration) *Driver {
	if budget <= 0 {
		budget = DefaultTurnBudget
	}
	return &Driver{
		conn:     hlt.NewConn(r, w),
		strategy: strategy,
		name:     name,
		budget:   budget,
	}
}

// Run performs the handshake and plays every turn. It returns nil when the
// engine ends the game.
func (d *Driver) Run(ctx context.Context) error {
	g, err := d.conn.ReadInit()
	if err != nil {
		return fmt.Errorf("read init: %w", err)
	}
	if in, ok := d.strategy.(Initializer); ok {
		if err := in.Init(ctx, g); err != nil {
			return fmt.Errorf("init strategy: %w", err)
		}
	}
	if err := d.conn.Ready(d.name); err != nil {
		return fmt.Errorf("send name: %w", err)
	}
	log.Info().Str("strategy", d.strategy.Name()).Int("player", g.MyID).
		Int("width", g.Map.Width).Int("height", g.Map.Height).Msg("Game started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping bot")
			return ctx.Err()
		default:
		}

		if err := d.conn.ReadFrame(g); err != nil {
			if errors.Is(err, io.EOF) {
				log.Info().Int("turn", g.Turn).Int("halite", g.Me().Halite).Msg("Game ended")
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		start := time.Now()
		cmds, err := decideTurn(ctx, d.strategy, g, d.budget)
		if err != nil {
			return fmt.Errorf("turn %d: %w", g.Turn, err)
		}
		if elapsed := time.Since(start); elapsed > d.budget {
			log.Warn().Int("turn", g.Turn).Dur("elapsed", elapsed).Dur("budget", d.budget).Msg("Turn over budget")
		}

		if err := d.conn.EndTurn(cmds); err != nil {
			return fmt.Errorf("submit turn %d: %w", g.Turn, err)
		}
		log.Debug().Int("turn", g.Turn).Int("commands", len(cmds)).Msg("Turn submitted")
	}
}
