package bot

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/pkg/halite"
	"github.com/freeeve/halite-fleet/pkg/hlt"
)

// Strategy produces one turn's commands for the viewing player of g.
type Strategy interface {
	Name() string
	Decide(ctx context.Context, g *halite.Game) ([]halite.Command, error)
}

// Initializer is implemented by strategies that need the opening game state
// before the first turn. Use a type assertion to check.
type Initializer interface {
	Init(ctx context.Context, g *halite.Game) error
}

// ExternalBotPath is the bot binary used by the "external" strategy. Set it
// at startup before creating strategies.
var ExternalBotPath string

// StrategyFor returns the named strategy. Unknown names get the fleet strategy.
func StrategyFor(name string, params Params) Strategy {
	switch name {
	case "hold":
		return HoldStrategy{}
	case "random":
		return RandomStrategy{}
	case "greedy":
		return &GreedyStrategy{Params: params}
	case "external":
		if ExternalBotPath == "" {
			log.Warn().Msg("external strategy requested but ExternalBotPath not set; falling back to fleet")
			return NewFleetStrategy(params)
		}
		return NewExternalStrategy(ExternalBotPath)
	default:
		return NewFleetStrategy(params)
	}
}

// StrategyNames lists every name StrategyFor understands.
func StrategyNames() []string {
	return []string{"fleet", "greedy", "random", "hold", "external"}
}

// --- HoldStrategy ---

// HoldStrategy keeps every ship still and never builds.
type HoldStrategy struct{}

func (HoldStrategy) Name() string { return "hold" }

func (HoldStrategy) Decide(_ context.Context, g *halite.Game) ([]halite.Command, error) {
	return holdAll(g.Me()), nil
}

func holdAll(p *halite.Player) []halite.Command {
	cmds := make([]halite.Command, 0, len(p.Ships))
	for _, s := range p.SortedShips() {
		cmds = append(cmds, halite.StayCommand(s.ID))
	}
	return cmds
}

// --- RandomStrategy ---

// RandomStrategy wanders: ~30% of ships stay, the rest pick a random
// direction they can afford. It builds half the time when it can.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) Decide(_ context.Context, g *halite.Game) ([]halite.Command, error) {
	me := g.Me()
	var cmds []halite.Command
	for _, s := range me.SortedShips() {
		cost := g.Constants.MoveCost(g.Map.At(s.Pos).Halite)
		if botFloat64() < 0.3 || s.Halite < cost {
			cmds = append(cmds, halite.StayCommand(s.ID))
			continue
		}
		d := halite.Cardinals[botIntn(len(halite.Cardinals))]
		cmds = append(cmds, halite.MoveCommand(s.ID, d))
	}
	yard := g.Map.At(me.Shipyard.Pos)
	if me.Halite >= g.Constants.ShipCost && !yard.IsOccupied() && botFloat64() < 0.5 {
		cmds = append(cmds, halite.SpawnCommand())
	}
	return cmds, nil
}

// --- GreedyStrategy ---

// GreedyStrategy is the first bot iteration: every ship walks straight at
// its destination with no collision avoidance.
type GreedyStrategy struct {
	Params Params
}

func (*GreedyStrategy) Name() string { return "greedy" }

func (gs *GreedyStrategy) Decide(_ context.Context, g *halite.Game) ([]halite.Command, error) {
	tc := NewTurnContext(g, gs.Params)
	var cmds []halite.Command
	for _, s := range tc.Me.SortedShips() {
		dir := halite.Still
		if tc.canAffordMove(s) {
			dest := SelectDestination(tc, s)
			if dest.Reason == ReasonExplore {
				tc.Reserve(dest.Pos, s.ID)
			}
			dir, _ = ChooseDirection(tc, s, dest.Pos, ModeUnsafe)
		}
		cmds = append(cmds, halite.MoveCommand(s.ID, dir))
	}
	if g.Turn <= gs.Params.SpawnUntilTurn && tc.Treasury >= g.Constants.ShipCost &&
		!g.Map.At(tc.Me.Shipyard.Pos).IsOccupied() {
		cmds = append(cmds, halite.SpawnCommand())
	}
	return cmds, nil
}

// --- FleetStrategy ---

// FleetStrategy runs the full scheduler: destinations, safe movement in a
// deterministic play order, dropoff conversion and spawning.
type FleetStrategy struct {
	Params    Params
	scheduler Scheduler

	// LastPlan is the plan of the most recent turn, kept for inspection.
	LastPlan Plan
}

// NewFleetStrategy returns a fleet strategy tuned by params.
func NewFleetStrategy(params Params) *FleetStrategy {
	return &FleetStrategy{Params: params}
}

func (*FleetStrategy) Name() string { return "fleet" }

func (fs *FleetStrategy) Decide(ctx context.Context, g *halite.Game) ([]halite.Command, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tc := NewTurnContext(g, fs.Params)
	plan := fs.scheduler.Plan(tc)
	DecideProduction(tc, &plan)
	fs.LastPlan = plan
	tc.log.Debug().Int("ships", len(tc.Me.Ships)).Int("commands", len(plan.Commands)).
		Int("blocked", len(plan.Blocked)).Msg("turn planned")
	return plan.Commands, nil
}

// --- ExternalStrategy ---

// ExternalStrategy delegates every turn to a bot binary speaking the engine
// protocol. On error it holds all ships for the turn.
type ExternalStrategy struct {
	proc *hlt.Process
}

// NewExternalStrategy prepares a strategy backed by the binary at path.
func NewExternalStrategy(path string, args ...string) *ExternalStrategy {
	return &ExternalStrategy{proc: hlt.NewProcess(path, args...)}
}

func (e *ExternalStrategy) Name() string {
	if n := e.proc.Name(); n != "" {
		return n
	}
	return "external"
}

// Init launches the bot and performs the opening handshake.
func (e *ExternalStrategy) Init(ctx context.Context, g *halite.Game) error {
	return e.proc.Start(ctx, g)
}

func (e *ExternalStrategy) Decide(ctx context.Context, g *halite.Game) ([]halite.Command, error) {
	cmds, err := e.proc.Turn(ctx, g)
	if err != nil {
		log.Warn().Err(err).Int("turn", g.Turn).Msg("external bot failed; holding")
		return holdAll(g.Me()), nil
	}
	return cmds, nil
}

// Close stops the bot process.
func (e *ExternalStrategy) Close() error {
	return e.proc.Close()
}
