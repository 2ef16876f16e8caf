package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/internal/bot"
	"github.com/freeeve/halite-fleet/internal/config"
	"github.com/freeeve/halite-fleet/internal/logger"
)

func main() {
	cfg := config.Load()
	strategyName := flag.String("strategy", "fleet", "bot strategy (fleet, greedy, random, hold)")
	name := flag.String("name", "halite-fleet", "name sent to the engine")
	paramsFile := flag.String("params", cfg.StrategyFile, "YAML file with strategy parameters")
	logDir := flag.String("log-dir", "", "directory for a per-process log file (empty = stderr only)")
	budget := flag.Duration("budget", cfg.TurnBudget, "per-turn time budget")
	flag.Parse()

	// stdout carries the engine protocol, so logs go to stderr and the optional file.
	if *logDir != "" {
		f, err := logger.OpenFile(filepath.Join(*logDir, fmt.Sprintf("bot-%d.log", os.Getpid())))
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.Init(f)
	} else {
		logger.Init()
	}

	params, err := config.LoadParams(*paramsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", *paramsFile).Msg("Loading strategy parameters failed")
	}
	if *strategyName == "external" {
		log.Fatal().Msg("The external strategy cannot drive the bot binary itself")
	}
	strategy := bot.StrategyFor(*strategyName, params)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	driver := bot.NewDriver(os.Stdin, os.Stdout, strategy, *name, *budget)
	if err := driver.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Bot failed")
	}
	log.Info().Msg("Bot game completed successfully")
}
