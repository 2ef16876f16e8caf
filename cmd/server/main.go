package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/internal/auth"
	"github.com/freeeve/halite-fleet/internal/bot"
	"github.com/freeeve/halite-fleet/internal/config"
	"github.com/freeeve/halite-fleet/internal/handler"
	"github.com/freeeve/halite-fleet/internal/logger"
	"github.com/freeeve/halite-fleet/internal/middleware"
	"github.com/freeeve/halite-fleet/internal/repository"
	"github.com/freeeve/halite-fleet/internal/repository/postgres"
	redisrepo "github.com/freeeve/halite-fleet/internal/repository/redis"
	"github.com/freeeve/halite-fleet/internal/repository/sqlite"
	"github.com/freeeve/halite-fleet/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	issueToken := flag.String("issue-token", "", "print an operator token for this name and exit (needs API_SECRET)")
	flag.Parse()

	var tokens *auth.TokenManager
	if cfg.APISecret != "" {
		tokens = auth.NewTokenManager(cfg.APISecret, cfg.TokenTTL)
	}
	if *issueToken != "" {
		if tokens == nil {
			log.Fatal().Msg("API_SECRET is not set")
		}
		token, err := tokens.Issue(*issueToken)
		if err != nil {
			log.Fatal().Err(err).Msg("Issuing token failed")
		}
		fmt.Println(token)
		return
	}
	if tokens == nil {
		log.Warn().Msg("API_SECRET not set; match routes are unauthenticated")
	}

	bot.ExternalBotPath = os.Getenv("EXTERNAL_BOT_PATH")
	log.Info().Str("databaseDriver", cfg.DatabaseDriver).Str("replayDir", cfg.ReplayDir).Msg("Config loaded")

	params, err := config.LoadParams(cfg.StrategyFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.StrategyFile).Msg("Loading strategy parameters failed")
	}

	// Database
	db, matches, err := openMatchRepo(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	deps := map[string]handler.Pinger{"database": db}

	// Redis is optional; without it the leaderboard falls back to the database.
	var cache repository.MatchCache
	if cfg.RedisURL != "" {
		redisClient, err := redisrepo.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable; running without frame cache")
		} else {
			defer redisClient.Close()
			cache = redisClient
			deps["redis"] = redisClient
		}
	}

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	matchSvc := service.NewMatchService(matches, cache, wsHub, service.MatchServiceConfig{
		Params:     params,
		ReplayDir:  cfg.ReplayDir,
		TurnBudget: cfg.TurnBudget,
	})

	// Matches left running by a previous process can never finish.
	if err := matchSvc.RecoverRunningMatches(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to recover running matches (non-fatal)")
	}

	wsHub.SetFrameSource(matchSvc)

	// Handlers
	healthHandler := handler.NewHealthHandler(deps)
	matchHandler := handler.NewMatchHandler(matchSvc)
	wsHandler := handler.NewWSHandler(wsHub, matchSvc)

	mux := handler.Routes(healthHandler, matchHandler, wsHandler, auth.Middleware(tokens))

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.Recover, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	if err := matchSvc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Matches did not stop in time")
	}
	log.Info().Msg("Server stopped")
}

func openMatchRepo(driver, url string) (*sql.DB, repository.MatchRepository, error) {
	switch driver {
	case "postgres":
		db, err := postgres.Connect(url, postgres.DefaultPool())
		if err != nil {
			return nil, nil, err
		}
		return db, postgres.NewMatchRepo(db), nil
	case "sqlite":
		db, err := sqlite.Open(url)
		if err != nil {
			return nil, nil, err
		}
		return db, sqlite.NewMatchRepo(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
