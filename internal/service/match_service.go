package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/internal/bot"
	"github.com/freeeve/halite-fleet/internal/logger"
	"github.com/freeeve/halite-fleet/internal/model"
	"github.com/freeeve/halite-fleet/internal/replay"
	"github.com/freeeve/halite-fleet/internal/repository"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrInvalidMatch  = errors.New("invalid match request")
	ErrShuttingDown  = errors.New("service is shutting down")
)

// Map sizes allowed for server-started matches.
const (
	MinMapSize = 16
	MaxMapSize = 64
)

// DefaultListLimit caps match listings when the caller gives no limit.
const DefaultListLimit = 50

// StartMatchRequest describes a match to run on the server.
type StartMatchRequest struct {
	Name       string   `json:"name"`
	Strategies []string `json:"strategies"`
	Size       int      `json:"size"`      // 0 = 32
	Seed       int64    `json:"seed"`      // 0 = random
	MaxTurns   int      `json:"max_turns"` // 0 = by map size
}

// RunFunc plays a match to completion. bot.RunGame in production.
type RunFunc func(ctx context.Context, cfg bot.ArenaConfig, matches repository.MatchRepository, cache repository.MatchCache) (*bot.ArenaResult, error)

// MatchService starts arena matches in the background and serves their
// results. Frames are forwarded to the broadcaster as spectator events.
type MatchService struct {
	matches     repository.MatchRepository
	cache       repository.MatchCache // optional
	broadcaster Broadcaster
	params      bot.Params
	replayDir   string
	turnBudget  time.Duration
	run         RunFunc

	mu      sync.Mutex
	running map[string]context.CancelFunc
	live    map[string]*replay.Live // full state of matches run here
	closed  bool
	wg      sync.WaitGroup
}

// MatchServiceConfig holds the tuning shared by every match the service starts.
type MatchServiceConfig struct {
	Params     bot.Params
	ReplayDir  string
	TurnBudget time.Duration
}

// NewMatchService creates a MatchService. cache and broadcaster may be nil.
func NewMatchService(
	matches repository.MatchRepository,
	cache repository.MatchCache,
	broadcaster Broadcaster,
	cfg MatchServiceConfig,
) *MatchService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &MatchService{
		matches:     matches,
		cache:       cache,
		broadcaster: broadcaster,
		params:      cfg.Params,
		replayDir:   cfg.ReplayDir,
		turnBudget:  cfg.TurnBudget,
		run:         bot.RunGame,
		running:     make(map[string]context.CancelFunc),
		live:        make(map[string]*replay.Live),
	}
}

// SetRunFunc replaces the match runner.
func (s *MatchService) SetRunFunc(run RunFunc) {
	s.run = run
}

func (s *MatchService) validate(req *StartMatchRequest) error {
	if n := len(req.Strategies); n != 2 && n != 4 {
		return fmt.Errorf("%w: need 2 or 4 strategies, got %d", ErrInvalidMatch, n)
	}
	known := bot.StrategyNames()
	for _, name := range req.Strategies {
		if !slices.Contains(known, name) {
			return fmt.Errorf("%w: unknown strategy %q", ErrInvalidMatch, name)
		}
	}
	if req.Size == 0 {
		req.Size = 32
	}
	if req.Size < MinMapSize || req.Size > MaxMapSize {
		return fmt.Errorf("%w: size must be between %d and %d", ErrInvalidMatch, MinMapSize, MaxMapSize)
	}
	if req.MaxTurns < 0 {
		return fmt.Errorf("%w: negative max_turns", ErrInvalidMatch)
	}
	return nil
}

// StartMatch validates req and launches the match in a background goroutine.
// The returned match is the running record; results arrive through the
// repository and the broadcaster.
func (s *MatchService) StartMatch(ctx context.Context, req StartMatchRequest) (*model.Match, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	live := &replay.Live{}
	cfg := bot.ArenaConfig{
		MatchID:    id,
		MatchName:  req.Name,
		Strategies: req.Strategies,
		Width:      req.Size,
		Seed:       req.Seed,
		MaxTurns:   req.MaxTurns,
		Params:     s.params,
		TurnBudget: s.turnBudget,
		ReplayDir:  s.replayDir,
		OnFrame: func(f *replay.Frame) {
			live.Update(f)
			s.broadcaster.BroadcastGameEvent(id, f.Type, f)
		},
	}

	runCtx, cancel := context.WithCancel(logger.WithMatchID(context.WithoutCancel(ctx), id))
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, ErrShuttingDown
	}
	s.running[id] = cancel
	s.live[id] = live
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.finish(id)
		mlog := logger.ForMatch(runCtx)
		res, err := s.run(runCtx, cfg, s.matches, s.cache)
		if err != nil {
			mlog.Error().Err(err).Msg("Match failed")
			s.broadcaster.BroadcastGameEvent(id, "match_failed", map[string]any{"error": err.Error()})
			return
		}
		mlog.Info().Str("winner", res.WinnerStrategy).Int("turns", res.Turns).Msg("Match completed")
	}()

	players := make([]model.MatchPlayer, len(req.Strategies))
	for i, name := range req.Strategies {
		players[i] = model.MatchPlayer{MatchID: id, PlayerID: i, Strategy: name}
	}
	return &model.Match{
		ID:        id,
		Name:      req.Name,
		Status:    model.StatusRunning,
		Width:     req.Size,
		Height:    req.Size,
		Seed:      req.Seed,
		MaxTurns:  req.MaxTurns,
		Winner:    -1,
		CreatedAt: time.Now().UTC(),
		Players:   players,
	}, nil
}

func (s *MatchService) finish(id string) {
	s.mu.Lock()
	cancel := s.running[id]
	delete(s.running, id)
	delete(s.live, id)
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsRunning reports whether the match is being played by this process.
func (s *MatchService) IsRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[id]
	return ok
}

// StopMatch cancels a running match. It is marked failed by the runner.
func (s *MatchService) StopMatch(id string) error {
	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()
	if !ok {
		return ErrMatchNotFound
	}
	cancel()
	return nil
}

// Shutdown cancels every running match and waits for the runners to exit or
// ctx to expire.
func (s *MatchService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for _, cancel := range s.running {
		cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetMatch returns a match by ID.
func (s *MatchService) GetMatch(ctx context.Context, id string) (*model.Match, error) {
	m, err := s.matches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// ListMatches returns the most recent matches, newest first.
func (s *MatchService) ListMatches(ctx context.Context, limit int) ([]model.Match, error) {
	if limit <= 0 || limit > 500 {
		limit = DefaultListLimit
	}
	return s.matches.List(ctx, limit)
}

// ListTurns returns the persisted turn reports of a match.
func (s *MatchService) ListTurns(ctx context.Context, id string) ([]model.Turn, error) {
	if _, err := s.GetMatch(ctx, id); err != nil {
		return nil, err
	}
	return s.matches.ListTurns(ctx, id)
}

// Leaderboard returns the top n strategies by wins. Without a cache the
// standings are recomputed from finished matches in the repository.
func (s *MatchService) Leaderboard(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}
	if s.cache != nil {
		return s.cache.Leaderboard(ctx, n)
	}

	matches, err := s.matches.List(ctx, 500)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	wins := make(map[string]float64)
	for _, m := range matches {
		if m.Status != model.StatusFinished {
			continue
		}
		if name := m.WinnerStrategy(); name != "" {
			wins[name]++
		}
	}
	out := make([]model.LeaderboardEntry, 0, len(wins))
	for name, w := range wins {
		out = append(out, model.LeaderboardEntry{Strategy: name, Wins: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Strategy < out[j].Strategy
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// RecoverRunningMatches marks matches left running by a previous process as
// failed. Called on server startup, before any match is started.
func (s *MatchService) RecoverRunningMatches(ctx context.Context) error {
	matches, err := s.matches.List(ctx, 500)
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	recovered := 0
	for _, m := range matches {
		if m.Status != model.StatusRunning || s.IsRunning(m.ID) {
			continue
		}
		if err := s.matches.SetFailed(ctx, m.ID); err != nil {
			log.Error().Err(err).Str("matchId", m.ID).Msg("Failed to mark orphaned match")
			continue
		}
		if s.cache != nil {
			if err := s.cache.DeleteMatchData(ctx, m.ID); err != nil {
				log.Warn().Err(err).Str("matchId", m.ID).Msg("Failed to clear cached frame")
			}
		}
		recovered++
	}
	if recovered > 0 {
		log.Info().Int("count", recovered).Msg("Marked orphaned matches as failed")
	}
	return nil
}

// LatestFrame returns the full current state of a match: from memory while
// this process runs it, otherwise from the cache. It is nil when neither
// has the match.
func (s *MatchService) LatestFrame(ctx context.Context, id string) (json.RawMessage, error) {
	s.mu.Lock()
	live := s.live[id]
	s.mu.Unlock()
	if live != nil {
		if f := live.Snapshot(); f != nil {
			b, err := json.Marshal(f)
			if err != nil {
				return nil, fmt.Errorf("marshal snapshot: %w", err)
			}
			return b, nil
		}
	}
	if s.cache == nil {
		return nil, nil
	}
	return s.cache.GetFrame(ctx, id)
}
