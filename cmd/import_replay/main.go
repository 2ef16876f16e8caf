// Command import_replay reads replay files written by the arena and imports
// them into the database so the matches show up in the API.
//
// Usage:
//
//	go run ./cmd/import_replay/ --input replays/<id>.jsonl.zst --db postgres://...
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/internal/logger"
	"github.com/freeeve/halite-fleet/internal/model"
	"github.com/freeeve/halite-fleet/internal/replay"
	"github.com/freeeve/halite-fleet/internal/repository"
	"github.com/freeeve/halite-fleet/internal/repository/postgres"
	"github.com/freeeve/halite-fleet/internal/repository/sqlite"
)

var errIncomplete = errors.New("replay is incomplete")

func main() {
	logger.Init()
	input := flag.String("input", "", "Replay file, or a directory of replay files")
	driver := flag.String("db-driver", envOr("DATABASE_DRIVER", "postgres"), "Database driver: postgres or sqlite")
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "Database URL or sqlite path")
	namePrefix := flag.String("name-prefix", "imported", "Match name prefix")
	flag.Parse()

	if *input == "" {
		log.Fatal().Msg("--input is required")
	}
	if *dbURL == "" {
		log.Fatal().Msg("--db or DATABASE_URL is required")
	}

	var (
		db    *sql.DB
		repo  repository.MatchRepository
		dbErr error
	)
	switch *driver {
	case "sqlite":
		db, dbErr = sqlite.Open(*dbURL)
		if dbErr == nil {
			repo = sqlite.NewMatchRepo(db)
		}
	default:
		db, dbErr = postgres.Connect(*dbURL, postgres.PoolForWorkers(1))
		if dbErr == nil {
			repo = postgres.NewMatchRepo(db)
		}
	}
	if dbErr != nil {
		log.Fatal().Err(dbErr).Str("driver", *driver).Msg("Database connection failed")
	}
	defer db.Close()

	files, err := replayFiles(*input)
	if err != nil {
		log.Fatal().Err(err).Msg("Listing replays failed")
	}

	ctx := context.Background()
	imported, skipped := 0, 0
	for i, path := range files {
		frames, err := replay.ReadAll(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable replay")
			skipped++
			continue
		}
		name := fmt.Sprintf("%s-%d", *namePrefix, i+1)
		m, err := importReplay(ctx, repo, name, frames)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping replay")
			skipped++
			continue
		}
		imported++
		log.Info().Str("matchId", m.ID).Str("name", m.Name).Int("turns", m.Turns).
			Str("winner", m.WinnerStrategy()).Msg("Imported match")
	}

	log.Info().Int("imported", imported).Int("skipped", skipped).Msg("Import finished")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// replayFiles expands a directory into the replay files it contains.
func replayFiles(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}
	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl.zst") {
			out = append(out, filepath.Join(input, e.Name()))
		}
	}
	return out, nil
}

// importReplay stores one recorded match and its turn reports.
func importReplay(ctx context.Context, repo repository.MatchRepository, name string, frames []*replay.Frame) (*model.Match, error) {
	m, err := matchFromFrames(name, frames)
	if err != nil {
		return nil, err
	}

	existing, err := repo.FindByID(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup match: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("match %s already imported", m.ID)
	}

	finalPlayers := m.Players
	m.Players = seats(m.ID, frames[0].Players)
	m.Status = model.StatusRunning
	if err := repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	turns := turnsFromFrames(m.ID, frames)
	if len(turns) > 0 {
		if err := repo.SaveTurns(ctx, turns); err != nil {
			return nil, fmt.Errorf("save turns: %w", err)
		}
	}

	if err := repo.SetFinished(ctx, m.ID, m.Turns, m.Winner, finalPlayers); err != nil {
		return nil, fmt.Errorf("finish match: %w", err)
	}
	m.Status = model.StatusFinished
	m.Players = finalPlayers
	return m, nil
}

// matchFromFrames rebuilds the finished match record from a replay's first
// and last frames. Players carry their final standing.
func matchFromFrames(name string, frames []*replay.Frame) (*model.Match, error) {
	if len(frames) < 2 {
		return nil, errIncomplete
	}
	start, end := frames[0], frames[len(frames)-1]
	if start.Type != replay.TypeStarted || end.Type != replay.TypeEnded || end.Winner == nil {
		return nil, errIncomplete
	}

	m := &model.Match{
		ID:     start.MatchID,
		Name:   name,
		Status: model.StatusFinished,
		Width:  start.Width,
		Height: start.Height,
		Turns:  end.Turn,
		Winner: *end.Winner,
	}
	if start.Constants != nil {
		m.MaxTurns = start.Constants.MaxTurns
	}

	rank := make(map[int]int, len(end.Standings))
	for i, id := range end.Standings {
		rank[id] = i + 1
	}
	strategies := make(map[int]string, len(start.Players))
	for _, p := range start.Players {
		strategies[p.ID] = p.Strategy
	}
	for _, p := range end.Players {
		m.Players = append(m.Players, model.MatchPlayer{
			MatchID:  m.ID,
			PlayerID: p.ID,
			Strategy: strategies[p.ID],
			Halite:   p.Halite,
			Ships:    len(p.Ships),
			Rank:     rank[p.ID],
		})
	}
	return m, nil
}

func seats(matchID string, players []replay.PlayerFrame) []model.MatchPlayer {
	out := make([]model.MatchPlayer, 0, len(players))
	for _, p := range players {
		out = append(out, model.MatchPlayer{MatchID: matchID, PlayerID: p.ID, Strategy: p.Strategy})
	}
	return out
}

func turnsFromFrames(matchID string, frames []*replay.Frame) []model.Turn {
	var out []model.Turn
	for _, f := range frames {
		if f.Type != replay.TypeTurn || f.Report == nil {
			continue
		}
		b, err := json.Marshal(f.Report)
		if err != nil {
			continue
		}
		out = append(out, model.Turn{MatchID: matchID, Number: f.Turn, Report: b})
	}
	return out
}
