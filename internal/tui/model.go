// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/session"
	"github.com/verte-zerg/keyrush/internal/stats"
)

const refreshInterval = 250 * time.Millisecond

// History is the part of the result store the typing screen reads and writes.
type History interface {
	List(ctx context.Context, cfg model.StatsConfig) ([]model.Result, error)
	Aggregate(ctx context.Context, cfg model.StatsConfig) (model.Aggregate, error)
	SetSelectedMode(ctx context.Context, mode model.Mode) error
}

// Engine is the session behavior the typing screen drives.
type Engine interface {
	Snapshot() session.Snapshot
	Type(s string)
	Backspace()
	Reset()
	SetMode(mode model.Mode)
	SetCategory(category model.Category)
}

// engineMsg carries an engine notification into the Bubble Tea loop.
type engineMsg struct {
	event session.Event
}

type refreshMsg struct{}

// Model implements the Bubble Tea typing UI.
type Model struct {
	engine  Engine
	history History
	logger  *slog.Logger

	width  int
	height int

	last    *model.Result
	agg     model.Aggregate
	ticking bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	timerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	authorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	cardStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6E6E6E")).Padding(0, 2)
)

// NewModel constructs a typing TUI model around a running engine.
func NewModel(engine Engine, history History, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		engine:  engine,
		history: history,
		logger:  logger,
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case engineMsg:
		if msg.event.Kind == session.EventFinished {
			if res := msg.event.Snapshot.Result; res != nil {
				m.last = res
			}
			m.loadAggregate()
		}
		return m, nil
	case refreshMsg:
		if m.engine.Snapshot().State != session.Active {
			m.ticking = false
			return m, nil
		}
		return m, refresh()
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit
	case tea.KeyEsc:
		m.engine.Reset()
	case tea.KeyEnter:
		if m.engine.Snapshot().State == session.Finished {
			m.engine.Reset()
		}
	case tea.KeyTab:
		m.engine.SetCategory(nextCategory(m.engine.Snapshot().Mode.Category()))
		m.persistMode()
	case tea.KeyShiftTab:
		m.engine.SetMode(nextMode(m.engine.Snapshot().Mode))
		m.persistMode()
	case tea.KeyBackspace, tea.KeyDelete:
		m.engine.Backspace()
	case tea.KeySpace:
		m.engine.Type(" ")
	case tea.KeyRunes:
		m.engine.Type(string(msg.Runes))
	default:
		return nil
	}
	if !m.ticking && m.engine.Snapshot().State == session.Active {
		m.ticking = true
		return refresh()
	}
	return nil
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

func nextCategory(current model.Category) model.Category {
	for i, c := range model.Categories {
		if c == current {
			return model.Categories[(i+1)%len(model.Categories)]
		}
	}
	return model.Categories[0]
}

func nextMode(current model.Mode) model.Mode {
	modes := model.ModesFor(current.Category())
	for i, mode := range modes {
		if mode == current {
			return modes[(i+1)%len(modes)]
		}
	}
	return model.DefaultMode(current.Category())
}

func (m *Model) persistMode() {
	if m.history == nil {
		return
	}
	mode := m.engine.Snapshot().Mode
	if err := m.history.SetSelectedMode(context.Background(), mode); err != nil {
		m.logger.Warn("failed to persist mode", "mode", mode.ID(), "err", err)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.engine.Snapshot()
	sections := []string{renderSelector(snap.Mode)}
	if _, timed := snap.Mode.Seconds(); timed && snap.State == session.Active {
		sections = append(sections, timerStyle.Render(fmt.Sprintf("%d", snap.Remaining)))
	} else {
		sections = append(sections, "")
	}

	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	sections = append(sections, m.renderText(snap, contentWidth))
	if snap.State == session.Finished {
		sections = append(sections, renderCompletion(snap))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter(snap)
	}
	footer := m.renderFooter(snap)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func renderSelector(current model.Mode) string {
	categories := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		label := string(c)
		if c == current.Category() {
			label = selectedStyle.Render(label)
		} else {
			label = footerStyle.Render(label)
		}
		categories = append(categories, label)
	}
	modes := []string{}
	for _, mode := range model.ModesFor(current.Category()) {
		label := mode.Label()
		if mode == current {
			label = selectedStyle.Render(label)
		} else {
			label = footerStyle.Render(label)
		}
		modes = append(modes, label)
	}
	return strings.Join(categories, "  ") + "\n" + strings.Join(modes, "  ")
}

func (m *Model) renderText(snap session.Snapshot, width int) string {
	if snap.Mode.Category() == model.CategoryQuote && snap.State == session.NotStarted && snap.Target == "" {
		switch {
		case snap.QuoteErr != nil:
			return errorStyle.Render("Failed to load quote. Press Esc to try again.")
		case snap.QuoteLoading:
			return pendingStyle.Render("Loading quote...")
		default:
			return ""
		}
	}
	target := []rune(snap.Target)
	input := []rune(snap.Input)
	cursorIndex := -1
	if snap.State != session.Finished && len(input) < len(target) {
		cursorIndex = len(input)
	}
	styled := buildStyledRunes(target, input, cursorIndex)
	var text string
	if m.width == 0 {
		text = renderStyledRunes(styled)
	} else {
		text = lipgloss.NewStyle().Width(width).Render(wrapStyledRunes(styled, width, visibleLines))
	}
	if snap.Author != "" {
		text += "\n\n" + authorStyle.Render("- "+snap.Author)
	}
	return text
}

func renderCompletion(snap session.Snapshot) string {
	lines := []string{
		selectedStyle.Render("Test complete"),
		fmt.Sprintf("WPM %d   Accuracy %d%%   Time %s", snap.WPM, snap.Accuracy, stats.FormatSeconds(snap.ElapsedSeconds)),
	}
	if snap.Result == nil {
		lines = append(lines, footerStyle.Render("Nothing typed, result not saved"))
	}
	lines = append(lines, footerStyle.Render("enter new test · esc reset · tab category · shift+tab mode"))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) loadFooterStats() {
	if m.history == nil {
		return
	}
	results, err := m.history.List(context.Background(), model.StatsConfig{Last: 1})
	if err != nil {
		m.logger.Error("failed to load last result", "err", err)
		return
	}
	if len(results) > 0 {
		last := results[0]
		m.last = &last
	}
	m.loadAggregate()
}

func (m *Model) loadAggregate() {
	if m.history == nil {
		return
	}
	agg, err := m.history.Aggregate(context.Background(), model.StatsConfig{})
	if err != nil {
		m.logger.Error("failed to load aggregate", "err", err)
		return
	}
	m.agg = agg
}

func (m *Model) renderFooter(snap session.Snapshot) string {
	segments := []string{fmt.Sprintf("%d WPM · %d%%", snap.WPM, snap.Accuracy)}
	if m.last != nil {
		segments = append(segments, fmt.Sprintf("Last %d WPM · %d%%", m.last.WPM, m.last.Accuracy))
	}
	if m.agg.Count > 0 {
		segments = append(segments, fmt.Sprintf("All-time %d WPM · %d%% (%d tests)", m.agg.AvgWPM, m.agg.AvgAccuracy, m.agg.Count))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
