package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/freeeve/halite-fleet/internal/bot"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_DRIVER", "TURN_BUDGET", "STRATEGY_FILE", "API_SECRET", "TOKEN_TTL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8009" {
		t.Errorf("expected port 8009, got %s", cfg.Port)
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.DatabaseDriver)
	}
	if cfg.TurnBudget != 2*time.Second {
		t.Errorf("expected 2s budget, got %v", cfg.TurnBudget)
	}
	if cfg.APISecret != "" || cfg.TokenTTL != 24*time.Hour {
		t.Errorf("unexpected token config: %q %v", cfg.APISecret, cfg.TokenTTL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "arena.db")
	t.Setenv("TURN_BUDGET", "750ms")
	cfg := Load()
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabaseURL != "arena.db" {
		t.Errorf("unexpected database config: %+v", cfg)
	}
	if cfg.TurnBudget != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %v", cfg.TurnBudget)
	}
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("TURN_BUDGET", "soon")
	if got := Load().TurnBudget; got != 2*time.Second {
		t.Errorf("expected fallback 2s, got %v", got)
	}
}

func TestLoadParamsEmptyPath(t *testing.T) {
	p, err := LoadParams("")
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if p != bot.DefaultParams() {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func TestLoadParamsOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	data := []byte(`
return_ratio: 0.9
dropoff:
  min_distance: 12
kamikaze:
  enabled: true
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	def := bot.DefaultParams()
	if p.ReturnRatio != 0.9 {
		t.Errorf("expected return ratio 0.9, got %v", p.ReturnRatio)
	}
	if p.Dropoff.MinDistance != 12 || p.Dropoff.MinShips != def.Dropoff.MinShips || !p.Dropoff.Enabled {
		t.Errorf("dropoff overlay wrong: %+v", p.Dropoff)
	}
	if !p.Kamikaze.Enabled || p.Kamikaze.MinShips != def.Kamikaze.MinShips {
		t.Errorf("kamikaze overlay wrong: %+v", p.Kamikaze)
	}
	if p.SpawnUntilTurn != def.SpawnUntilTurn {
		t.Errorf("spawn cutoff changed: %d", p.SpawnUntilTurn)
	}
}

func TestParseParamsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "return_ratop: 0.9\n"},
		{"ratio above one", "return_ratio: 1.5\n"},
		{"negative margin", "safety_margin: -1\n"},
		{"wrong type", "spawn_until_turn: soon\n"},
		{"zero decrement", "interesting_decrement: 0\n"},
		{"tiny decrement", "interesting_decrement: 0.001\n"},
		{"secondary above primary", "return_ratio: 0.5\nsecondary_return_ratio: 0.6\n"},
		{"malformed", "return_ratio: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParams([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadParamsMissingFile(t *testing.T) {
	if _, err := LoadParams(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
