package statsui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/store"
)

type memHistory struct {
	results []model.Result
	cleared int
}

func (h *memHistory) List(_ context.Context, cfg model.StatsConfig) ([]model.Result, error) {
	var out []model.Result
	for _, res := range h.results {
		if cfg.Category != "" && res.Mode.Category() != cfg.Category {
			continue
		}
		if cfg.Mode != "" && res.Mode.ID() != cfg.Mode {
			continue
		}
		out = append(out, res)
		if cfg.Last > 0 && len(out) == cfg.Last {
			break
		}
	}
	return out, nil
}

func (h *memHistory) Aggregate(ctx context.Context, cfg model.StatsConfig) (model.Aggregate, error) {
	results, _ := h.List(ctx, cfg)
	if len(results) == 0 {
		return model.Aggregate{}, nil
	}
	agg := model.Aggregate{Count: len(results), MinWPM: results[0].WPM}
	sumWPM, sumAcc := 0, 0
	for _, res := range results {
		sumWPM += res.WPM
		sumAcc += res.Accuracy
		agg.MaxWPM = max(agg.MaxWPM, res.WPM)
		agg.MinWPM = min(agg.MinWPM, res.WPM)
		agg.MaxAccuracy = max(agg.MaxAccuracy, res.Accuracy)
	}
	agg.AvgWPM = sumWPM / len(results)
	agg.AvgAccuracy = sumAcc / len(results)
	return agg, nil
}

func (h *memHistory) Delete(_ context.Context, id string) error {
	for i, res := range h.results {
		if res.ID == id {
			h.results = append(h.results[:i], h.results[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (h *memHistory) Clear(context.Context) (int64, error) {
	n := int64(len(h.results))
	h.results = nil
	h.cleared++
	return n, nil
}

func sampleHistory() *memHistory {
	now := time.Now()
	return &memHistory{results: []model.Result{
		{ID: "aaaaaaaa-1", CompletedAt: now.Add(-time.Minute), WPM: 60, Accuracy: 95, ElapsedSeconds: 30, Mode: model.WordCount(30)},
		{ID: "bbbbbbbb-2", CompletedAt: now.Add(-time.Hour), WPM: 40, Accuracy: 90, ElapsedSeconds: 15, Mode: model.TimeLimit(15)},
		{ID: "cccccccc-3", CompletedAt: now.Add(-2 * time.Hour), WPM: 50, Accuracy: 85, ElapsedSeconds: 20, Mode: model.Quote(), Author: "Ada"},
	}}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(t *testing.T, m *Model) {
	t.Helper()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
}

func TestOverviewShowsSummaryCards(t *testing.T) {
	m := NewModel(sampleHistory(), model.StatsConfig{})
	sized(t, m)
	view := m.View()
	for _, want := range []string{"Overview", "Tests", "Avg WPM", "50", "Best WPM", "60"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestOverviewEmptyHistory(t *testing.T) {
	m := NewModel(&memHistory{}, model.StatsConfig{})
	sized(t, m)
	if !strings.Contains(m.View(), "No results found.") {
		t.Fatalf("expected empty message, got:\n%s", m.View())
	}
}

func TestHistoryTabListsResults(t *testing.T) {
	m := NewModel(sampleHistory(), model.StatsConfig{})
	sized(t, m)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view := m.View()
	for _, want := range []string{"When", "Mode", "30 words", "15 seconds", "quote", "Ada", "1 minute ago"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestDeleteSelectedRequiresConfirmation(t *testing.T) {
	h := sampleHistory()
	m := NewModel(h, model.StatsConfig{})
	sized(t, m)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})

	m.Update(keyRunes("d"))
	if m.confirm != confirmDelete || m.confirmID != "aaaaaaaa-1" {
		t.Fatalf("expected delete confirmation for first row, got %v %q", m.confirm, m.confirmID)
	}
	m.Update(keyRunes("n"))
	if len(h.results) != 3 {
		t.Fatalf("cancel must keep results, got %d", len(h.results))
	}

	m.Update(keyRunes("d"))
	m.Update(keyRunes("y"))
	if len(h.results) != 2 {
		t.Fatalf("expected 2 results after delete, got %d", len(h.results))
	}
	if len(m.rowIDs) != 2 || m.rowIDs[0] != "bbbbbbbb-2" {
		t.Fatalf("unexpected rows after delete: %v", m.rowIDs)
	}
	if !strings.Contains(m.notice, "aaaaaaaa") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestClearWithoutFiltersClearsStore(t *testing.T) {
	h := sampleHistory()
	m := NewModel(h, model.StatsConfig{})
	sized(t, m)
	m.Update(keyRunes("C"))
	if !strings.Contains(m.View(), "Delete every saved result?") {
		t.Fatalf("expected clear prompt, got:\n%s", m.View())
	}
	m.Update(keyRunes("y"))
	if h.cleared != 1 || len(h.results) != 0 {
		t.Fatalf("expected store cleared, got cleared=%d results=%d", h.cleared, len(h.results))
	}
	if m.notice != "Deleted 3 results." {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestClearWithFilterDeletesVisibleOnly(t *testing.T) {
	h := sampleHistory()
	m := NewModel(h, model.StatsConfig{Category: model.CategoryTime})
	sized(t, m)
	m.Update(keyRunes("C"))
	m.Update(keyRunes("y"))
	if h.cleared != 0 {
		t.Fatalf("filtered clear must not wipe the store")
	}
	if len(h.results) != 2 {
		t.Fatalf("expected 2 remaining results, got %d", len(h.results))
	}
	for _, res := range h.results {
		if res.Mode.Category() == model.CategoryTime {
			t.Fatalf("time result %s should have been removed", res.ID)
		}
	}
}

func TestApplyFilter(t *testing.T) {
	m := NewModel(sampleHistory(), model.StatsConfig{})
	m.filterInputs[filterCategory].SetValue("Words")
	m.filterInputs[filterMode].SetValue("30")
	m.filterInputs[filterLast].SetValue("5")
	m.filterInputs[filterWindow].SetValue("3")
	if err := m.applyFilter(); err != nil {
		t.Fatalf("apply filter: %v", err)
	}
	if m.cfg.Category != model.CategoryWords || m.cfg.Mode != "30" || m.cfg.Last != 5 || m.cfg.CurveWindow != 3 {
		t.Fatalf("unexpected config %+v", m.cfg)
	}
}

func TestApplyFilterRejectsBadValues(t *testing.T) {
	cases := map[int]string{
		filterCategory: "zen",
		filterMode:     "45",
		filterSince:    "yesterday",
		filterLast:     "-1",
		filterWindow:   "0",
	}
	for field, value := range cases {
		m := NewModel(sampleHistory(), model.StatsConfig{})
		m.filterInputs[field].SetValue(value)
		if err := m.applyFilter(); err == nil {
			t.Fatalf("expected error for field %d value %q", field, value)
		}
	}
}

func TestFilterModeTypingDoesNotQuit(t *testing.T) {
	m := NewModel(sampleHistory(), model.StatsConfig{})
	sized(t, m)
	m.Update(keyRunes("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.Update(keyRunes("q"))
	if !m.filterMode {
		t.Fatalf("q inside the settings form must not leave it")
	}
	if got := m.filterInputs[filterCategory].Value(); got != "q" {
		t.Fatalf("expected typed value, got %q", got)
	}
}

func TestCurveWindowSteps(t *testing.T) {
	if nextCurveWindow(0) != 5 || nextCurveWindow(5) != 10 || nextCurveWindow(7) != 10 {
		t.Fatalf("unexpected next window")
	}
	if prevCurveWindow(5) != 1 || prevCurveWindow(10) != 5 || prevCurveWindow(7) != 5 {
		t.Fatalf("unexpected prev window")
	}
}
