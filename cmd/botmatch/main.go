package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/internal/bot"
	"github.com/freeeve/halite-fleet/internal/config"
	"github.com/freeeve/halite-fleet/internal/logger"
	"github.com/freeeve/halite-fleet/internal/repository"
	"github.com/freeeve/halite-fleet/internal/repository/postgres"
	redisrepo "github.com/freeeve/halite-fleet/internal/repository/redis"
	"github.com/freeeve/halite-fleet/internal/repository/sqlite"
)

func main() {
	logger.Init()
	env := config.Load()

	var (
		strategies string
		numGames   int
		workers    int
		size       int
		maxTurns   int
		seed       int64
		dbDriver   string
		dbURL      string
		redisURL   string
		replayDir  string
		paramsFile string
		botPath    string
		dryRun     bool
		jsonOut    bool
	)

	flag.StringVar(&strategies, "s", "fleet,greedy", "Comma-separated strategy per player (2 or 4)")
	flag.IntVar(&numGames, "n", 1, "Number of games to run")
	flag.IntVar(&workers, "workers", 1, "Concurrency (parallel games)")
	flag.IntVar(&size, "size", 32, "Map width and height")
	flag.IntVar(&maxTurns, "turns", 0, "Turn limit (0 = by map size)")
	flag.Int64Var(&seed, "seed", 0, "Base seed (0 = random)")
	flag.StringVar(&dbDriver, "db-driver", env.DatabaseDriver, "Database driver: postgres or sqlite")
	flag.StringVar(&dbURL, "db", "", "Database URL or sqlite path (or use DATABASE_URL env)")
	flag.StringVar(&redisURL, "redis", "", "Redis URL for frames and leaderboard (empty = off)")
	flag.StringVar(&replayDir, "replay-dir", "", "Write a replay file per game into this directory")
	flag.StringVar(&paramsFile, "params", env.StrategyFile, "YAML file with strategy parameters")
	flag.StringVar(&botPath, "bot", "", "Bot binary for the external strategy")
	flag.BoolVar(&dryRun, "dry-run", false, "Skip database writes")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")

	flag.Parse()

	names := strings.Split(strategies, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	params, err := config.LoadParams(paramsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading strategy parameters failed")
	}
	bot.ExternalBotPath = botPath

	if dbURL == "" {
		dbURL = env.DatabaseURL
		if dbDriver == "sqlite" && os.Getenv("DATABASE_URL") == "" {
			dbURL = "botmatch.db"
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	// Connect to DB (unless dry-run)
	var matches repository.MatchRepository
	if !dryRun {
		db, err := openDB(dbDriver, dbURL, workers)
		if err != nil {
			log.Fatal().Err(err).Str("driver", dbDriver).Msg("Database connection failed")
		}
		defer db.Close()
		switch dbDriver {
		case "sqlite":
			matches = sqlite.NewMatchRepo(db)
		default:
			matches = postgres.NewMatchRepo(db)
		}
	}

	var cache repository.MatchCache
	if redisURL != "" && !dryRun {
		rc, err := redisrepo.NewClient(redisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer rc.Close()
		cache = rc
	}

	label := strings.Join(names, "-vs-")

	// Run games
	results := make([]*bot.ArenaResult, numGames)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, max(1, workers))
	errCount := 0

	for i := 0; i < numGames; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			gameSeed := seed
			if seed != 0 {
				gameSeed = seed + int64(idx)
			}

			cfg := bot.ArenaConfig{
				MatchName:  fmt.Sprintf("%s #%d", label, idx+1),
				Strategies: names,
				Width:      size,
				Seed:       gameSeed,
				MaxTurns:   maxTurns,
				Params:     params,
				TurnBudget: env.TurnBudget,
				ReplayDir:  replayDir,
				DryRun:     dryRun,
			}

			result, err := bot.RunGame(ctx, cfg, matches, cache)
			if err != nil {
				log.Error().Err(err).Int("game", idx+1).Msg("Game failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			results[idx] = result
			mu.Unlock()

			log.Info().Int("game", idx+1).Str("winner", result.WinnerStrategy).
				Ints("halite", result.Halite).Int("turns", result.Turns).Msg("Game completed")
		}(i)
	}

	wg.Wait()

	if jsonOut {
		printJSON(results, numGames, errCount)
	} else {
		printSummary(results, names, errCount, label, dryRun)
	}
}

func openDB(driver, url string, workers int) (*sql.DB, error) {
	switch driver {
	case "postgres":
		return postgres.Connect(url, postgres.PoolForWorkers(workers))
	case "sqlite":
		return sqlite.Open(url)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

func printSummary(results []*bot.ArenaResult, names []string, errCount int, label string, dryRun bool) {
	type stats struct {
		wins        int
		totalHalite int
		totalShips  int
		friendly    int
		games       int
	}

	bySeat := make([]*stats, len(names))
	for i := range bySeat {
		bySeat[i] = &stats{}
	}

	completed := 0
	collisions := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		completed++
		collisions += r.Collisions
		for i, s := range bySeat {
			s.games++
			s.totalHalite += r.Halite[i]
			s.totalShips += r.Ships[i]
			s.friendly += r.FriendlyCollisions[i]
			if r.Winner == i {
				s.wins++
			}
		}
	}

	fmt.Printf("\nResults (%d games, %s):\n", completed, label)
	if errCount > 0 {
		fmt.Printf("  (%d games failed)\n", errCount)
	}

	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return bySeat[order[a]].wins > bySeat[order[b]].wins })

	for _, i := range order {
		s := bySeat[i]
		avgHalite, avgShips := 0.0, 0.0
		if s.games > 0 {
			avgHalite = float64(s.totalHalite) / float64(s.games)
			avgShips = float64(s.totalShips) / float64(s.games)
		}
		fmt.Printf("  player %d %-8s  %d wins  -- avg halite: %.0f, avg ships: %.1f, self-collisions: %d\n",
			i, names[i], s.wins, avgHalite, avgShips, s.friendly)
	}
	fmt.Printf("  total collisions: %d\n", collisions)

	if !dryRun && completed > 0 {
		fmt.Printf("\nMatches saved to database under \"%s #1\" through \"#%d\"\n", label, completed)
	}
}

func printJSON(results []*bot.ArenaResult, total, errCount int) {
	out := struct {
		Total   int                `json:"total"`
		Errors  int                `json:"errors"`
		Results []*bot.ArenaResult `json:"results"`
	}{
		Total:   total,
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
