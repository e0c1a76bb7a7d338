// Package stats contains metric calculations and history reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/keyrush/internal/model"
)

const sparkChars = " .:-=+*#%@"

// TrendLimit is the number of most recent results shown in trend charts.
const TrendLimit = 20

const authorWidth = 24

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := seriesMinMaxSingle(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Trend returns WPM and accuracy series for the last limit results, oldest first.
// Results are expected most recent first, as the store returns them.
func Trend(results []model.Result, limit int) (wpms, accs []float64) {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	wpms = make([]float64, len(results))
	accs = make([]float64, len(results))
	for i, res := range results {
		j := len(results) - 1 - i
		wpms[j] = float64(res.WPM)
		accs[j] = float64(res.Accuracy)
	}
	return wpms, accs
}

// RenderSummary prints aggregate statistics and a WPM sparkline.
func RenderSummary(w io.Writer, agg model.Aggregate, results []model.Result) error {
	if agg.Count == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	wpms, _ := Trend(results, TrendLimit)
	lines := []string{
		"Summary",
		fmt.Sprintf("Tests: %d", agg.Count),
		fmt.Sprintf("Avg WPM: %d", agg.AvgWPM),
		fmt.Sprintf("Best WPM: %d", agg.MaxWPM),
		fmt.Sprintf("Worst WPM: %d", agg.MinWPM),
		fmt.Sprintf("Avg Accuracy: %d%%", agg.AvgAccuracy),
		fmt.Sprintf("Best Accuracy: %d%%", agg.MaxAccuracy),
	}
	if len(wpms) > 1 {
		lines = append(lines, fmt.Sprintf("Recent WPM: [%s]", Sparkline(wpms)))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints WPM and accuracy trend charts.
func RenderCurves(w io.Writer, results []model.Result, window int) error {
	return RenderCurvesWithSize(w, results, window, 0, 10, false)
}

// RenderCurvesWithSize prints trend charts sized to a given total width.
func RenderCurvesWithSize(w io.Writer, results []model.Result, window, totalWidth, height int, useColor bool) error {
	if len(results) == 0 {
		return nil
	}
	wpms, accs := Trend(results, TrendLimit)
	wpms = MovingAverage(wpms, window)
	accs = MovingAverage(accs, window)

	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	if err := PlotSeriesWithColor(w, "Words Per Minute", []Series{
		{Name: "WPM", Values: wpms, Floor: 0, Bounded: false},
	}, width, height, useColor); err != nil {
		return err
	}
	return PlotSeriesWithColor(w, "Accuracy", []Series{
		{Name: "Accuracy (%)", Values: accs, Floor: 0, Ceil: 100, Bounded: true},
	}, width, height, useColor)
}

// RenderHistoryTable prints one row per result relative to now.
func RenderHistoryTable(w io.Writer, results []model.Result, now time.Time) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	cols := []column{
		{title: "ID"},
		{title: "When"},
		{title: "Mode"},
		{title: "WPM", right: true},
		{title: "Accuracy", right: true},
		{title: "Time", right: true},
		{title: "Errors", right: true},
		{title: "Author", maxWidth: authorWidth},
	}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.ID,
			humanize.RelTime(res.CompletedAt, now, "ago", "from now"),
			FormatMode(res.Mode),
			fmt.Sprintf("%d", res.WPM),
			fmt.Sprintf("%d%%", res.Accuracy),
			FormatSeconds(res.ElapsedSeconds),
			fmt.Sprintf("%d", res.MistakeCount),
			res.Author,
		})
	}
	for _, line := range formatTable(cols, rows) {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// FormatMode renders a mode for humans, e.g. "15 seconds" or "30 words".
func FormatMode(m model.Mode) string {
	if s, ok := m.Seconds(); ok {
		return fmt.Sprintf("%d seconds", s)
	}
	if n, ok := m.Words(); ok {
		return fmt.Sprintf("%d words", n)
	}
	return m.ID()
}

// FormatSeconds renders elapsed seconds truncated to whole seconds.
func FormatSeconds(seconds float64) string {
	return fmt.Sprintf("%ds", int(math.Floor(seconds)))
}
