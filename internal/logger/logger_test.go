package logger

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestNewRequestIDFormat(t *testing.T) {
	id := NewRequestID()
	if len(id) != 8 {
		t.Fatalf("expected 8 chars, got %q", id)
	}
	for _, c := range id {
		if !strings.ContainsRune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", c) {
			t.Errorf("unexpected char %q in %q", c, id)
		}
	}
}

func TestContextIDs(t *testing.T) {
	ctx := WithMatchID(WithRequestID(context.Background(), "req1"), "m-1")
	if got := RequestIDFromContext(ctx); got != "req1" {
		t.Errorf("request id = %q", got)
	}
	if got := MatchIDFromContext(ctx); got != "m-1" {
		t.Errorf("match id = %q", got)
	}
	if got := MatchIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty match id, got %q", got)
	}
}

func TestForMatchAddsField(t *testing.T) {
	var buf bytes.Buffer
	old := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = old }()

	l := ForMatch(WithMatchID(context.Background(), "abc"))
	l.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"matchId":"abc"`) {
		t.Errorf("expected matchId field, got %s", buf.String())
	}
}

func TestInitTeesIntoExtraWriter(t *testing.T) {
	old := log.Logger
	defer func() { log.Logger = old }()
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	Init(&buf)
	log.Debug().Int("ship", 3).Msg("decision")
	if !strings.Contains(buf.String(), "decision") {
		t.Errorf("extra writer missed the log line: %q", buf.String())
	}
}

func TestOpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot-0.log")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	f.Close()
}
