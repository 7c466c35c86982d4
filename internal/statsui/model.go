// Package statsui provides the Bubble Tea results browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/oddsearch/internal/model"
	"github.com/verte-zerg/oddsearch/internal/stats"
	"github.com/verte-zerg/oddsearch/internal/store"
)

const (
	tabOverview = iota
	tabRuns
	tabTrials
)

const plotHeight = 10

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
)

// Model implements the Bubble Tea results UI.
type Model struct {
	store *store.Store
	cfg   model.ReportConfig

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	runTable  table.Model

	selectedRun    string
	selectedTrials []model.TrialRecord
	selectedEvents int
	trialsErrMsg   string

	width  int
	height int
}

// NewModel constructs a results UI model.
func NewModel(st *store.Store, cfg model.ReportConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "Runs", "Trials"},
	}
	m.initViewports()
	m.initRunTable()
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
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		if m.activeTab == tabRuns {
			m.runTable.Focus()
		} else {
			m.runTable.Blur()
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow++
			m.renderTabContents()
			return m, nil
		case "-":
			if m.cfg.CurveWindow > 1 {
				m.cfg.CurveWindow--
				m.renderTabContents()
			}
			return m, nil
		case "enter":
			if m.activeTab == tabRuns {
				m.selectRunAtCursor()
				m.activeTab = tabTrials
				m.renderTabContents()
				return m, tea.ClearScreen
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabRuns {
				m.runTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRuns {
				m.runTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabRuns {
				var cmd tea.Cmd
				m.runTable, cmd = m.runTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
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
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initRunTable() {
	m.runTable = table.New(
		table.WithColumns(runTableColumns()),
		table.WithHeight(1),
	)
	m.runTable.SetStyles(runTableStyles())
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
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
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.runTable.SetWidth(m.width)
	m.runTable.SetHeight(maxInt(1, bodyHeight-1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabRuns {
		m.runTable.Focus()
	} else {
		m.runTable.Blur()
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
	last := "all"
	if m.cfg.Last > 0 {
		last = fmt.Sprintf("%d", m.cfg.Last)
	}
	run := m.selectedRun
	if run == "" {
		run = "latest"
	}
	summary := fmt.Sprintf("Settings: last=%s  window=%d  run=%s", last, m.cfg.CurveWindow, shortRunID(run))
	summary = truncateLine(summary, m.width)
	return tabs + "\n" + headerStyle.Render(summary)
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Quit: q"
	if m.activeTab == tabRuns {
		help = "Nav: left/right  Select run: enter  Window: -/=  Quit: q"
	}
	if m.errMsg != "" {
		return headerStyle.Render(help) + "\n" + errorStyle.Render(m.errMsg)
	}
	return headerStyle.Render(help)
}

func (m *Model) renderBody() string {
	_, bodyHeight, _ := m.layoutHeights()
	if m.activeTab == tabRuns {
		if len(m.report.Runs) == 0 {
			return fitLines("No runs recorded yet.", m.width, bodyHeight)
		}
		view := tableMutedStyle.Render(m.runTable.View())
		return fitLines(view, m.width, bodyHeight)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, bodyHeight)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load results.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.selectedRun = report.LastRunID
	m.selectedTrials = report.LastTrials
	m.selectedEvents = 0
	if report.LastRunID != "" {
		if events, err := m.store.ListEvents(context.Background(), report.LastRunID); err == nil {
			m.selectedEvents = len(events)
		}
	}
	m.runTable.SetRows(buildRunRows(report.Runs))
	m.renderTabContents()
}

func (m *Model) selectRunAtCursor() {
	idx := m.runTable.Cursor()
	if idx < 0 || idx >= len(m.report.Runs) {
		return
	}
	run := m.report.Runs[idx]
	m.selectedRun = run.RunID
	trials, err := m.store.ListTrials(context.Background(), run.RunID)
	if err != nil {
		m.trialsErrMsg = err.Error()
		m.selectedTrials = nil
		return
	}
	m.trialsErrMsg = ""
	m.selectedTrials = trials
	m.selectedEvents = 0
	if events, err := m.store.ListEvents(context.Background(), run.RunID); err == nil {
		m.selectedEvents = len(events)
	}
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 || m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Runs, m.cfg.CurveWindow, width))
	m.viewports[tabTrials].SetContent(m.renderTrials())
}

func renderOverview(runs []model.RunSummary, window, width int) string {
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	summary := renderSummaryCards(runs, width)
	var buf bytes.Buffer
	if err := stats.RenderScoreCurve(&buf, runs, window, width, plotHeight); err != nil {
		return summary + "\n\n" + fmt.Sprintf("Failed to render score curve: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func renderSummaryCards(runs []model.RunSummary, width int) string {
	var totalScore, bestScore float64
	totalTrials := 0
	for i, r := range runs {
		totalScore += r.Score
		totalTrials += r.Trials
		if i == 0 || r.Score > bestScore {
			bestScore = r.Score
		}
	}
	count := float64(len(runs))
	cards := []string{
		metricCard("Runs", fmt.Sprintf("%d", len(runs))),
		metricCard("Avg Score", fmt.Sprintf("%.1f", totalScore/count)),
		metricCard("Best Score", fmt.Sprintf("%.1f", bestScore)),
		metricCard("Trials", fmt.Sprintf("%d", totalTrials)),
	}
	if width < 70 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) renderTrials() string {
	if m.trialsErrMsg != "" {
		return fmt.Sprintf("Failed to load trials: %s", m.trialsErrMsg)
	}
	if m.selectedRun == "" {
		return "No runs recorded yet."
	}
	if len(m.selectedTrials) == 0 {
		return fmt.Sprintf("Run %s has no trials.", shortRunID(m.selectedRun))
	}
	header := headerStyle.Render(fmt.Sprintf("Run %s  (%d events logged)", shortRunID(m.selectedRun), m.selectedEvents))
	var buf bytes.Buffer
	if err := stats.RenderTrialTable(&buf, m.selectedTrials); err != nil {
		return fmt.Sprintf("Failed to render trials: %v", err)
	}
	return strings.TrimRight(header+"\n\n"+buf.String(), "\n")
}

func runTableColumns() []table.Column {
	return []table.Column{
		{Title: "Run", Width: 10},
		{Title: "Started", Width: 17},
		{Title: "Trials", Width: 6},
		{Title: "Score", Width: 8},
	}
}

func buildRunRows(runs []model.RunSummary) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, table.Row{
			shortRunID(r.RunID),
			r.StartedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", r.Trials),
			fmt.Sprintf("%.1f", r.Score),
		})
	}
	return rows
}

func runTableStyles() table.Styles {
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

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
