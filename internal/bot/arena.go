package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/internal/model"
	"github.com/freeeve/halite-fleet/internal/replay"
	"github.com/freeeve/halite-fleet/internal/repository"
	"github.com/freeeve/halite-fleet/pkg/halite"
)

// turnFlushSize is how many turn summaries are buffered before a database write.
const turnFlushSize = 50

// ArenaConfig configures a single in-process match between strategies.
type ArenaConfig struct {
	MatchID    string        // generated when empty
	MatchName  string
	Strategies []string      // one strategy name per player; 2 or 4 players
	Width      int           // default 32
	Height     int           // default Width
	Seed       int64         // 0 = random
	MaxTurns   int           // 0 = by map size
	Params     Params        // tuning for the fleet and greedy strategies
	TurnBudget time.Duration // per-player thinking time, 0 = unlimited
	ReplayDir  string        // "" = no replay file
	DryRun     bool          // skip DB and cache writes

	// OnFrame, if set, receives every frame as it is produced.
	OnFrame func(*replay.Frame)
}

// ArenaResult describes the outcome of a completed match.
type ArenaResult struct {
	MatchID            string   `json:"match_id"`
	Strategies         []string `json:"strategies"`
	Seed               int64    `json:"seed"`
	Winner             int      `json:"winner"`
	WinnerStrategy     string   `json:"winner_strategy"`
	Turns              int      `json:"turns"`
	Halite             []int    `json:"halite"` // final treasury per player
	Ships              []int    `json:"ships"`  // ships alive at the end per player
	Standings          []int    `json:"standings"`
	Collisions         int      `json:"collisions"`
	FriendlyCollisions []int    `json:"friendly_collisions"` // per player, away from own structures
	Rejected           int      `json:"rejected"`
}

func (cfg *ArenaConfig) applyDefaults() error {
	if n := len(cfg.Strategies); n != 2 && n != 4 {
		return fmt.Errorf("arena: need 2 or 4 strategies, got %d", n)
	}
	if cfg.Width == 0 {
		cfg.Width = 32
	}
	if cfg.Height == 0 {
		cfg.Height = cfg.Width
	}
	if cfg.Seed == 0 {
		cfg.Seed = botInt63()
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = halite.MaxTurnsForSize(cfg.Width)
	}
	if cfg.MatchID == "" {
		cfg.MatchID = uuid.NewString()
	}
	if cfg.MatchName == "" {
		cfg.MatchName = "arena"
	}
	return nil
}

// RunGame plays a full match on a generated map. Pass nil repos for dry-run mode.
func RunGame(
	ctx context.Context,
	cfg ArenaConfig,
	matches repository.MatchRepository,
	cache repository.MatchCache,
) (*ArenaResult, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	persist := !cfg.DryRun && matches != nil
	cached := !cfg.DryRun && cache != nil
	mlog := log.With().Str("matchId", cfg.MatchID).Logger()

	m, yards, err := halite.GenerateMap(halite.MapConfig{
		Width:      cfg.Width,
		Height:     cfg.Height,
		NumPlayers: len(cfg.Strategies),
		Seed:       cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("arena: generate map: %w", err)
	}
	constants := halite.DefaultConstants()
	constants.MaxTurns = cfg.MaxTurns
	st := halite.NewState(constants, m, yards)

	strategies := make([]Strategy, len(cfg.Strategies))
	for i, name := range cfg.Strategies {
		s := StrategyFor(name, cfg.Params)
		if in, ok := s.(Initializer); ok {
			if err := in.Init(ctx, st.View(i)); err != nil {
				closeStrategies(strategies[:i])
				return nil, fmt.Errorf("arena: init %s for player %d: %w", name, i, err)
			}
		}
		strategies[i] = s
	}
	defer closeStrategies(strategies)

	if persist {
		players := make([]model.MatchPlayer, len(cfg.Strategies))
		for i, name := range cfg.Strategies {
			players[i] = model.MatchPlayer{MatchID: cfg.MatchID, PlayerID: i, Strategy: name}
		}
		if err := matches.Create(ctx, &model.Match{
			ID:       cfg.MatchID,
			Name:     cfg.MatchName,
			Status:   model.StatusRunning,
			Width:    cfg.Width,
			Height:   cfg.Height,
			Seed:     cfg.Seed,
			MaxTurns: cfg.MaxTurns,
			Players:  players,
		}); err != nil {
			return nil, fmt.Errorf("arena: create match: %w", err)
		}
	}

	var rw *replay.Writer
	fail := func(err error) (*ArenaResult, error) {
		if rw != nil {
			rw.Close()
		}
		if persist {
			if ferr := matches.SetFailed(context.WithoutCancel(ctx), cfg.MatchID); ferr != nil {
				mlog.Error().Err(ferr).Msg("Could not mark match failed")
			}
		}
		return nil, err
	}

	if cfg.ReplayDir != "" {
		rw, err = replay.Create(cfg.ReplayDir, cfg.MatchID)
		if err != nil {
			return fail(fmt.Errorf("arena: create replay: %w", err))
		}
	}
	rec := replay.NewRecorder(cfg.MatchID, cfg.Strategies)
	live := &replay.Live{}
	emit := func(f *replay.Frame) error {
		if rw != nil {
			if err := rw.Write(f); err != nil {
				return err
			}
		}
		if cached {
			// The cache holds the full current state, not the delta.
			live.Update(f)
			b, err := json.Marshal(live.Snapshot())
			if err != nil {
				return fmt.Errorf("marshal frame: %w", err)
			}
			if err := cache.SetFrame(ctx, cfg.MatchID, b); err != nil {
				mlog.Warn().Err(err).Msg("Frame cache write failed")
			}
		}
		if cfg.OnFrame != nil {
			cfg.OnFrame(f)
		}
		return nil
	}

	if err := emit(rec.Start(st)); err != nil {
		return fail(fmt.Errorf("arena: record start: %w", err))
	}
	mlog.Info().Strs("strategies", cfg.Strategies).Int64("seed", cfg.Seed).
		Int("size", cfg.Width).Int("maxTurns", cfg.MaxTurns).Msg("Arena match started")

	result := &ArenaResult{
		MatchID:            cfg.MatchID,
		Strategies:         cfg.Strategies,
		Seed:               cfg.Seed,
		FriendlyCollisions: make([]int, len(cfg.Strategies)),
	}
	var pending []model.Turn

	for !st.Done() {
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}

		batches := make(map[int][]halite.Command, len(strategies))
		for id, s := range strategies {
			cmds, err := decideTurn(ctx, s, st.View(id), cfg.TurnBudget)
			if err != nil {
				mlog.Warn().Err(err).Int("player", id).Int("turn", st.Turn).Msg("Strategy failed; ships hold")
				cmds = nil
			}
			batches[id] = cmds
		}
		rep := st.Apply(batches)

		result.Collisions += len(rep.Collisions)
		result.Rejected += len(rep.Rejected)
		for id, n := range rep.Friendly {
			result.FriendlyCollisions[id] += n
		}
		for _, r := range rep.Rejected {
			mlog.Debug().Int("turn", rep.Turn).Str("reason", r).Msg("Command rejected")
		}

		if err := emit(rec.Turn(st, batches, rep)); err != nil {
			return fail(fmt.Errorf("arena: record turn %d: %w", rep.Turn, err))
		}

		if persist {
			b, err := json.Marshal(rep)
			if err != nil {
				return fail(fmt.Errorf("arena: marshal report: %w", err))
			}
			pending = append(pending, model.Turn{MatchID: cfg.MatchID, Number: rep.Turn, Report: b})
			if len(pending) >= turnFlushSize {
				if err := matches.SaveTurns(ctx, pending); err != nil {
					return fail(fmt.Errorf("arena: save turns: %w", err))
				}
				pending = pending[:0]
			}
		}
	}

	if persist && len(pending) > 0 {
		if err := matches.SaveTurns(ctx, pending); err != nil {
			return fail(fmt.Errorf("arena: save turns: %w", err))
		}
	}

	end := rec.End(st)
	if err := emit(end); err != nil {
		return fail(fmt.Errorf("arena: record end: %w", err))
	}
	if rw != nil {
		err := rw.Close()
		rw = nil
		if err != nil {
			return fail(fmt.Errorf("arena: close replay: %w", err))
		}
	}
	fillResult(result, st)

	if persist {
		players := make([]model.MatchPlayer, 0, len(st.Players))
		for rank, id := range result.Standings {
			players = append(players, model.MatchPlayer{
				MatchID:  cfg.MatchID,
				PlayerID: id,
				Halite:   result.Halite[id],
				Ships:    result.Ships[id],
				Rank:     rank + 1,
			})
		}
		if err := matches.SetFinished(ctx, cfg.MatchID, result.Turns, result.Winner, players); err != nil {
			return nil, fmt.Errorf("arena: set finished: %w", err)
		}
	}
	if cached {
		if err := cache.RecordWin(ctx, result.WinnerStrategy, 1); err != nil {
			mlog.Warn().Err(err).Msg("Leaderboard update failed")
		}
	}

	mlog.Info().Int("winner", result.Winner).Str("strategy", result.WinnerStrategy).
		Ints("halite", result.Halite).Int("collisions", result.Collisions).Msg("Arena match finished")
	return result, nil
}

// decideTurn asks one strategy for its commands within the turn budget.
func decideTurn(ctx context.Context, s Strategy, view *halite.Game, budget time.Duration) ([]halite.Command, error) {
	if budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}
	return s.Decide(ctx, view)
}

func fillResult(result *ArenaResult, st *halite.State) {
	result.Turns = st.Turn - 1
	result.Standings = st.Standings()
	result.Winner = result.Standings[0]
	result.WinnerStrategy = result.Strategies[result.Winner]
	result.Halite = make([]int, len(st.Players))
	result.Ships = make([]int, len(st.Players))
	for _, p := range st.Players {
		result.Halite[p.ID] = p.Halite
		result.Ships[p.ID] = len(p.Ships)
	}
}

func closeStrategies(strategies []Strategy) {
	for _, s := range strategies {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Str("strategy", s.Name()).Msg("Closing strategy failed")
			}
		}
	}
}
