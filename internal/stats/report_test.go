package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "keyrush.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		res := model.Result{
			ID:             string(rune('a' + i)),
			CompletedAt:    time.Unix(0, 0).Add(time.Duration(i) * time.Minute),
			WPM:            40 + 10*i,
			Accuracy:       90 + i,
			ElapsedSeconds: 30,
			TextLength:     100,
			Text:           "sample",
			Mode:           model.TimeLimit(30),
		}
		if err := st.Append(ctx, res); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	cfg := model.StatsConfig{Category: model.CategoryTime, Last: 2, CurveWindow: 1}
	report, err := BuildReport(ctx, st, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	if report.Results[0].ID != "c" || report.Results[1].ID != "b" {
		t.Fatalf("unexpected result order: %+v", report.Results)
	}
	if report.Aggregate.Count != 2 || report.Aggregate.MaxWPM != 60 || report.Aggregate.MinWPM != 50 {
		t.Fatalf("unexpected aggregate: %+v", report.Aggregate)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, cfg.CurveWindow); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Tests: 2", "Avg WPM: 55", "Words Per Minute", "Accuracy"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, buf.String())
		}
	}
}
