package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/keyrush/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSparklineFlat(t *testing.T) {
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if got := Sparkline([]float64{0, 10}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestTrendOldestFirst(t *testing.T) {
	results := make([]model.Result, 25)
	for i := range results {
		results[i] = model.Result{WPM: 100 - i, Accuracy: 90}
	}
	wpms, accs := Trend(results, TrendLimit)
	if len(wpms) != TrendLimit || len(accs) != TrendLimit {
		t.Fatalf("expected %d points, got %d", TrendLimit, len(wpms))
	}
	if wpms[0] != 81 || wpms[TrendLimit-1] != 100 {
		t.Fatalf("expected oldest first, got %v", wpms)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, model.Aggregate{}, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No results found." {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderHistoryTable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	results := []model.Result{
		{ID: "r1", CompletedAt: now.Add(-2 * time.Hour), WPM: 88, Accuracy: 97, ElapsedSeconds: 15.7, MistakeCount: 2, Mode: model.TimeLimit(15)},
		{ID: "r2", CompletedAt: now.Add(-48 * time.Hour), WPM: 61, Accuracy: 93, ElapsedSeconds: 41.2, MistakeCount: 5, Mode: model.Quote(), Author: "Ada Lovelace"},
	}
	var buf bytes.Buffer
	if err := RenderHistoryTable(&buf, results, now); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2 hours ago", "2 days ago", "15 seconds", "quote", "15s", "41s", "Ada Lovelace"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatMode(t *testing.T) {
	cases := map[model.Mode]string{
		model.WordCount(30): "30 words",
		model.TimeLimit(60): "60 seconds",
		model.Quote():       "quote",
	}
	for mode, want := range cases {
		if got := FormatMode(mode); got != want {
			t.Fatalf("FormatMode(%v) = %q, want %q", mode, got, want)
		}
	}
}
