// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/stats"
)

const (
	tabOverview = iota
	tabHistory
)

const (
	plotHeight = 10
)

const (
	filterCategory = iota
	filterMode
	filterSince
	filterLast
	filterWindow
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmDelete
	confirmClear
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// History is the result store as seen by the stats screen.
type History interface {
	stats.ResultReader
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) (int64, error)
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	history History
	cfg     model.StatsConfig
	now     func() time.Time

	report stats.Report
	errMsg string
	notice string

	tabs      []string
	activeTab int
	overview  viewport.Model
	results   table.Model
	rowIDs    []string

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	confirm   confirmKind
	confirmID string
}

// NewModel constructs a stats UI model.
func NewModel(history History, cfg model.StatsConfig) *Model {
	m := &Model{
		history: history,
		cfg:     cfg,
		now:     time.Now,
		tabs:    []string{"Overview", "History"},
	}
	m.overview = viewport.New(0, 0)
	m.results = buildResultsTable(nil, m.now(), 0, 1)
	m.initInputs()
	m.refreshReport()
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
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.confirm != confirmNone {
			return m.updateConfirm(msg)
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.activeTab == tabHistory {
			m.results.Focus()
		} else {
			m.results.Blur()
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startFilter()
		case "d", "x":
			if m.activeTab == tabHistory {
				m.startDelete()
			}
			return m, nil
		case "C":
			if len(m.report.Results) > 0 {
				m.confirm = confirmClear
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabHistory {
				m.results.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabHistory {
				m.results.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabHistory {
				m.results, cmd = m.results.Update(msg)
				return m, cmd
			}
			m.overview, cmd = m.overview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.confirm != confirmNone {
		return fitLines(m.renderConfirmModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Category (time/words/quote): "),
		newFilterInput("Mode (e.g. 30, 15s, quote): "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[filterCategory].SetValue(string(m.cfg.Category))
	m.filterInputs[filterMode].SetValue(m.cfg.Mode)
	if m.cfg.Since != nil {
		m.filterInputs[filterSince].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[filterSince].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[filterLast].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[filterLast].SetValue("")
	}
	m.filterInputs[filterWindow].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && (m.errMsg != "" || m.notice != "") {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.results.SetWidth(m.width)
	m.results.SetHeight(max(1, bodyHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabHistory {
		m.results.Focus()
	} else {
		m.results.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	category := string(m.cfg.Category)
	if category == "" {
		category = "any"
	}
	mode := m.cfg.Mode
	if mode == "" {
		mode = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: category=%s  mode=%s  since=%s  last=%s  window=%d", category, mode, since, last, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Clear: C  Quit: q"
	if m.activeTab == tabHistory {
		help = "Nav: left/right  Select: up/down  Delete: d  Clear: C  Settings: /  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	switch {
	case m.errMsg != "":
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	case m.notice != "":
		return m.renderHelp() + "\n" + headerStyle.Render(m.notice)
	default:
		return m.renderHelp()
	}
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabHistory {
		if len(m.report.Results) == 0 {
			return fitLines("No results found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.results.View()), m.width, height)
	}
	return fitLines(m.overview.View(), m.width, height)
}

func (m *Model) renderConfirmModal() string {
	question := "Delete all results matching the current settings?"
	if m.confirm == confirmClear && m.filtersEmpty() {
		question = "Delete every saved result?"
	}
	if m.confirm == confirmDelete {
		question = fmt.Sprintf("Delete result %s?", shortID(m.confirmID))
	}
	body := []string{
		cardValueStyle.Render("Confirm"),
		question,
		headerStyle.Render("y to confirm / any other key to cancel"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.history, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.rowIDs = make([]string, len(report.Results))
	for i, res := range report.Results {
		m.rowIDs[i] = res.ID
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.results.SetRows(resultRows(report.Results, m.now()))
	m.results.SetHeight(max(1, bodyHeight-1))
	if idx := m.results.Cursor(); idx >= len(m.rowIDs) && len(m.rowIDs) > 0 {
		m.results.SetCursor(len(m.rowIDs) - 1)
	}
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		m.overview.SetContent("Failed to load stats.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
}

func renderOverview(report stats.Report, window, width int) string {
	if report.Aggregate.Count == 0 {
		return "No results found."
	}
	summary := renderSummaryCards(report.Aggregate, width)
	curves := renderCurves(report.Results, window, width)
	return strings.TrimRight(summary+"\n\n"+curves, "\n")
}

func renderSummaryCards(agg model.Aggregate, width int) string {
	cards := []string{
		metricCard("Tests", strconv.Itoa(agg.Count)),
		metricCard("Avg WPM", strconv.Itoa(agg.AvgWPM)),
		metricCard("Best WPM", strconv.Itoa(agg.MaxWPM)),
		metricCard("Worst WPM", strconv.Itoa(agg.MinWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%d%%", agg.AvgAccuracy)),
		metricCard("Best Acc", fmt.Sprintf("%d%%", agg.MaxAccuracy)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurves(results []model.Result, window, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderCurvesWithSize(&buf, results, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func resultColumns() []table.Column {
	return []table.Column{
		{Title: "When", Width: 16},
		{Title: "Mode", Width: 10},
		{Title: "WPM", Width: 5},
		{Title: "Accuracy", Width: 9},
		{Title: "Time", Width: 6},
		{Title: "Errors", Width: 6},
		{Title: "Author", Width: 24},
	}
}

func resultRows(results []model.Result, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(results))
	for _, res := range results {
		author := res.Author
		if author == "" {
			author = "-"
		}
		rows = append(rows, table.Row{
			humanize.RelTime(res.CompletedAt, now, "ago", "from now"),
			stats.FormatMode(res.Mode),
			strconv.Itoa(res.WPM),
			fmt.Sprintf("%d%%", res.Accuracy),
			stats.FormatSeconds(res.ElapsedSeconds),
			strconv.Itoa(res.MistakeCount),
			author,
		})
	}
	return rows
}

func buildResultsTable(results []model.Result, now time.Time, width, height int) table.Model {
	t := table.New(
		table.WithColumns(resultColumns()),
		table.WithRows(resultRows(results, now)),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(resultsTableStyles())
	return t
}

func resultsTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startDelete() {
	idx := m.results.Cursor()
	if idx < 0 || idx >= len(m.rowIDs) {
		return
	}
	m.confirm = confirmDelete
	m.confirmID = m.rowIDs[idx]
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kind, id := m.confirm, m.confirmID
	m.confirm = confirmNone
	m.confirmID = ""
	if msg.String() != "y" && msg.String() != "Y" {
		m.notice = ""
		return m, nil
	}
	ctx := context.Background()
	switch kind {
	case confirmDelete:
		if err := m.history.Delete(ctx, id); err != nil {
			m.notice = ""
			m.errMsg = fmt.Sprintf("failed to delete result: %v", err)
			return m, nil
		}
		m.notice = fmt.Sprintf("Deleted result %s.", shortID(id))
	case confirmClear:
		removed, err := m.clearMatching(ctx)
		if err != nil {
			m.notice = ""
			m.errMsg = fmt.Sprintf("failed to clear results: %v", err)
			return m, nil
		}
		m.notice = fmt.Sprintf("Deleted %d results.", removed)
	}
	m.refreshReport()
	m.updateLayout()
	return m, nil
}

// clearMatching drops everything when no filter is set and only the visible
// results otherwise.
func (m *Model) clearMatching(ctx context.Context) (int64, error) {
	if m.filtersEmpty() {
		return m.history.Clear(ctx)
	}
	var removed int64
	for _, id := range m.rowIDs {
		if err := m.history.Delete(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (m *Model) filtersEmpty() bool {
	return m.cfg.Category == "" && m.cfg.Mode == "" && m.cfg.Since == nil && m.cfg.Last == 0
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.notice = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

var errInvalidFilter = errors.New("invalid settings")

func (m *Model) applyFilter() error {
	var category model.Category
	if raw := strings.TrimSpace(m.filterInputs[filterCategory].Value()); raw != "" {
		parsed, err := model.ParseCategory(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", errInvalidFilter, err)
		}
		category = parsed
	}

	mode := ""
	if raw := strings.TrimSpace(m.filterInputs[filterMode].Value()); raw != "" {
		parsed, err := model.ParseMode(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", errInvalidFilter, err)
		}
		mode = parsed.ID()
	}

	var since *time.Time
	if raw := strings.TrimSpace(m.filterInputs[filterSince].Value()); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return fmt.Errorf("%w: since date (expected YYYY-MM-DD)", errInvalidFilter)
		}
		since = &parsed
	}

	last, err := m.intField(filterLast, 0, "last (use 0 or positive integer)")
	if err != nil {
		return err
	}
	window, err := m.intField(filterWindow, 1, "curve window (use integer >= 1)")
	if err != nil {
		return err
	}

	m.cfg = model.StatsConfig{
		Category:    category,
		Mode:        mode,
		Since:       since,
		Last:        last,
		CurveWindow: window,
	}
	return nil
}

// intField parses an optional integer input; empty means 0.
func (m *Model) intField(field, floor int, hint string) (int, error) {
	raw := strings.TrimSpace(m.filterInputs[field].Value())
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < floor {
		return 0, fmt.Errorf("%w: %s", errInvalidFilter, hint)
	}
	return n, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

// padLines right-pads every line of s to width cells.
func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, s)
}

// fitLines pads s to width and clips or fills it to exactly height lines.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, strings.Join(lines, "\n"))
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
