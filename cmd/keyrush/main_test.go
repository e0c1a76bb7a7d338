package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/keyrush/internal/logging"
	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/store"
)

func TestBuildStatsConfig(t *testing.T) {
	cfg, err := buildStatsConfig("Time", "15S", "2026-01-02", 10)
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	if cfg.Category != model.CategoryTime || cfg.Mode != "15s" || cfg.Last != 10 || cfg.Since == nil {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Since.Format("2006-01-02") != "2026-01-02" {
		t.Fatalf("unexpected since %v", cfg.Since)
	}

	for _, tc := range []struct {
		category, mode, since string
		last                  int
	}{
		{category: "zen"},
		{mode: "45"},
		{since: "02/01/2026"},
		{last: -1},
	} {
		if _, err := buildStatsConfig(tc.category, tc.mode, tc.since, tc.last); err == nil {
			t.Fatalf("expected error for %+v", tc)
		}
	}
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"":      false,
		"y":     true,
	}
	for input, want := range cases {
		got, err := confirm(strings.NewReader(input), "")
		if err != nil {
			t.Fatalf("confirm %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("confirm %q: expected %v, got %v", input, want, got)
		}
	}
}

func TestResolveModePrecedence(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "keyrush.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	logger := logging.Discard()
	ctx := context.Background()

	mode, err := resolveMode(ctx, st, "", logger)
	if err != nil || mode != model.TimeLimit(15) {
		t.Fatalf("expected default 15s, got %v %v", mode, err)
	}

	if err := st.SetSelectedMode(ctx, model.Quote()); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	mode, err = resolveMode(ctx, st, "", logger)
	if err != nil || mode != model.Quote() {
		t.Fatalf("expected stored quote mode, got %v %v", mode, err)
	}

	mode, err = resolveMode(ctx, st, "60", logger)
	if err != nil || mode != model.WordCount(60) {
		t.Fatalf("expected explicit 60, got %v %v", mode, err)
	}

	if _, err := resolveMode(ctx, st, "45", logger); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestWordSourceFromFile(t *testing.T) {
	if _, err := wordSource(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing word list")
	}
	gen, err := wordSource("")
	if err != nil {
		t.Fatalf("default source: %v", err)
	}
	if got := len(strings.Fields(gen.Text(5))); got != 5 {
		t.Fatalf("expected 5 words, got %d", got)
	}
}
