// Package tui provides the Bubble Tea experiment interface.
package tui

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/oddsearch/internal/eventlog"
	"github.com/verte-zerg/oddsearch/internal/experiment"
	"github.com/verte-zerg/oddsearch/internal/model"
	"github.com/verte-zerg/oddsearch/internal/store"
)

const tickInterval = 50 * time.Millisecond

// Rotation glyphs in 45-degree steps, clockwise from 0.
var rotationGlyphs = [8]rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

const (
	maskGlyph   = '▦'
	hiddenGlyph = ' '
)

var (
	stimulusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	maskedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	borderStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
)

const instructionsText = "One shape was shown as a cue. Find every shape in the field with the same rotation. " +
	"Hold space on the home key to keep the field visible; release it to move, which hides the shapes behind masks. " +
	"Move the cursor with the arrow keys and tap with enter, then press space to return home and see how you did. " +
	"Press e when you think you found them all."

// Display remembers tap outcomes per stimulus for feedback coloring.
// Visibility and masking are read back from the session field snapshot, so
// the corresponding display calls need no state here.
type Display struct {
	marks map[int]bool
}

// NewDisplay returns the display collaborator to build the experiment
// session with before constructing the model.
func NewDisplay() *Display {
	return &Display{marks: map[int]bool{}}
}

func (f *Display) Show(int)   {}
func (f *Display) Hide(int)   {}
func (f *Display) Mask(int)   {}
func (f *Display) Unmask(int) {}
func (f *Display) ShowCue()   {}

func (f *Display) HideCue() {}

func (f *Display) SetFeedback(id int, correct bool) {
	f.marks[id] = correct
}

func (f *Display) reset() {
	f.marks = map[int]bool{}
}

type tickMsg time.Time

// Model implements the Bubble Tea experiment UI.
type Model struct {
	sess   *experiment.Session
	store  *store.Store
	log    *eventlog.Log
	region model.Rect
	marks  *Display

	width  int
	height int

	cursorX int
	cursorY int
	atHome  bool

	startedAt time.Time
	lastTick  time.Time
	saveErr   error
}

// NewModel constructs the experiment TUI model. The marks display must be
// the one the session was built with.
func NewModel(sess *experiment.Session, st *store.Store, log *eventlog.Log, region model.Rect, marks *Display) *Model {
	m := &Model{
		sess:      sess,
		store:     st,
		log:       log,
		region:    region,
		marks:     marks,
		atHome:    true,
		startedAt: time.Now(),
	}
	sess.Begin()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.lastTick = time.Now()
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		now := time.Time(msg)
		dt := now.Sub(m.lastTick).Seconds()
		m.lastTick = now
		m.sess.Advance(dt)
		return m, tickCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.sess.State() {
	case model.ExperimentInstructions:
		if msg.Type == tea.KeyEnter {
			m.marks.reset()
			m.sess.Proceed()
		}
	case model.ExperimentPreTrial:
		if msg.Type == tea.KeyEnter {
			m.atHome = true
			m.sess.LongPressHome()
		}
	case model.ExperimentInTrial:
		return m.handleTrialKey(msg)
	case model.ExperimentPostTrial:
		if msg.Type == tea.KeyEnter {
			m.marks.reset()
			m.sess.LongPressHome()
		}
	case model.ExperimentThankYou:
		if msg.Type == tea.KeyEnter {
			m.sess.LongPressDone()
			m.finishRun()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) handleTrialKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cols, rows := m.gridSize()
	switch msg.Type {
	case tea.KeySpace:
		if m.atHome {
			m.atHome = false
			m.sess.LeaveHome()
		} else {
			m.atHome = true
			m.sess.ReturnHome()
		}
	case tea.KeyEnter:
		m.tapAtCursor(cols, rows)
	case tea.KeyUp:
		m.moveCursor(0, -1, cols, rows)
	case tea.KeyDown:
		m.moveCursor(0, 1, cols, rows)
	case tea.KeyLeft:
		m.moveCursor(-1, 0, cols, rows)
	case tea.KeyRight:
		m.moveCursor(1, 0, cols, rows)
	case tea.KeyRunes:
		if string(msg.Runes) == "e" {
			m.atHome = true
			m.sess.EndTrial()
		}
	}
	return m, nil
}

func (m *Model) moveCursor(dx, dy, cols, rows int) {
	m.cursorX += dx
	m.cursorY += dy
	if m.cursorX < 0 {
		m.cursorX = 0
	}
	if m.cursorX >= cols {
		m.cursorX = cols - 1
	}
	if m.cursorY < 0 {
		m.cursorY = 0
	}
	if m.cursorY >= rows {
		m.cursorY = rows - 1
	}
}

// tapAtCursor converts the cursor cell into region coordinates and taps the
// nearest stimulus. Without a stimulus nearby the tap has no object and is
// dropped, mirroring a touch on empty background.
func (m *Model) tapAtCursor(cols, rows int) {
	tr := m.sess.Trial()
	if tr == nil {
		return
	}
	pos := m.cellToRegion(m.cursorX, m.cursorY, cols, rows)
	field := tr.Field()
	bestID := -1
	bestDist := math.Inf(1)
	for id, spec := range field {
		d := model.Distance(pos, spec.Pos)
		if d < bestDist {
			bestID = id
			bestDist = d
		}
	}
	if bestID < 0 || bestDist > m.cellDiagonal(cols, rows) {
		return
	}
	m.sess.Tap(bestID, pos)
}

func (m *Model) gridSize() (cols, rows int) {
	cols = m.width - 4
	rows = m.height - 6
	if cols < 16 {
		cols = 16
	}
	if rows < 8 {
		rows = 8
	}
	return cols, rows
}

func (m *Model) cellToRegion(x, y, cols, rows int) model.Point {
	return model.Point{
		X: m.region.Min.X + (float64(x)+0.5)/float64(cols)*m.region.Dx(),
		Y: m.region.Min.Y + (float64(y)+0.5)/float64(rows)*m.region.Dy(),
	}
}

func (m *Model) regionToCell(p model.Point, cols, rows int) (int, int) {
	x := int((p.X - m.region.Min.X) / m.region.Dx() * float64(cols))
	y := int((p.Y - m.region.Min.Y) / m.region.Dy() * float64(rows))
	if x < 0 {
		x = 0
	}
	if x >= cols {
		x = cols - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= rows {
		y = rows - 1
	}
	return x, y
}

// cellDiagonal is the tap tolerance: one grid cell in region units.
func (m *Model) cellDiagonal(cols, rows int) float64 {
	cw := m.region.Dx() / float64(cols)
	ch := m.region.Dy() / float64(rows)
	return math.Sqrt(cw*cw + ch*ch)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	var body string
	switch m.sess.State() {
	case model.ExperimentInitialisation, model.ExperimentInstructions:
		body = m.renderInstructions()
	case model.ExperimentPreTrial:
		body = m.renderPreTrial()
	case model.ExperimentInTrial:
		body = m.renderField()
	case model.ExperimentPostTrial:
		body = m.renderPostTrial()
	case model.ExperimentThankYou:
		body = m.renderThankYou()
	}
	footer := footerStyle.Render(m.renderFooter())
	content := body + "\n" + footer
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderInstructions() string {
	width := m.contentWidth()
	text := wrapText(instructionsText, width)
	return textStyle.Render(text) + "\n\n" + textStyle.Render("Press enter to continue.")
}

func (m *Model) renderPreTrial() string {
	var b strings.Builder
	tr := m.sess.Trial()
	if tr != nil && tr.Cue().Visible {
		b.WriteString(textStyle.Render("Remember this rotation:"))
		b.WriteString("\n\n")
		b.WriteString(cueStyle.Render(string(glyphForRotation(tr.Cue().Rotation))))
		b.WriteString("\n\n")
	}
	if fb := m.sess.Feedback(); fb != "" {
		b.WriteString(textStyle.Render(wrapText(fb, m.contentWidth())))
		b.WriteString("\n\n")
	}
	b.WriteString(textStyle.Render("Hold enter on the home key to start."))
	return b.String()
}

func (m *Model) renderField() string {
	tr := m.sess.Trial()
	if tr == nil {
		return ""
	}
	cols, rows := m.gridSize()
	type cell struct {
		glyph string
		style lipgloss.Style
	}
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x] = cell{glyph: string(hiddenGlyph), style: textStyle}
		}
	}
	for id, spec := range tr.Field() {
		if !spec.Visible {
			continue
		}
		x, y := m.regionToCell(spec.Pos, cols, rows)
		glyph, style := m.stimulusCell(id, spec)
		grid[y][x] = cell{glyph: glyph, style: style}
	}
	if m.cursorY < rows && m.cursorX < cols {
		c := &grid[m.cursorY][m.cursorX]
		if c.glyph == string(hiddenGlyph) {
			c.glyph = "+"
		}
		c.style = cursorStyle
	}
	lines := make([]string, rows)
	for y := range grid {
		var b strings.Builder
		for x := range grid[y] {
			b.WriteString(grid[y][x].style.Render(grid[y][x].glyph))
		}
		lines[y] = b.String()
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) stimulusCell(id int, spec model.StimulusSpec) (string, lipgloss.Style) {
	if spec.Masked {
		return string(maskGlyph), maskedStyle
	}
	glyph := string(glyphForRotation(spec.Rotation))
	if correct, ok := m.marks.marks[id]; ok {
		if correct {
			return glyph, correctStyle
		}
		return glyph, wrongStyle
	}
	return glyph, stimulusStyle
}

func (m *Model) renderPostTrial() string {
	var b strings.Builder
	b.WriteString(textStyle.Render(fmt.Sprintf("Trial %d of %d complete.", m.sess.TrialIndex(), m.sess.SequenceLen())))
	b.WriteString("\n\n")
	b.WriteString(textStyle.Render(fmt.Sprintf("Score: %.1f", m.sess.Score())))
	b.WriteString("\n\n")
	if fb := m.sess.Feedback(); fb != "" {
		b.WriteString(textStyle.Render(wrapText(fb, m.contentWidth())))
		b.WriteString("\n\n")
	}
	b.WriteString(textStyle.Render("Hold enter on the home key to continue."))
	return b.String()
}

func (m *Model) renderThankYou() string {
	return textStyle.Render(fmt.Sprintf("All done. Final score: %.1f", m.sess.Score())) +
		"\n\n" + textStyle.Render("Thank you for taking part. Press enter to finish.")
}

func (m *Model) renderFooter() string {
	segments := []string{fmt.Sprintf("State %s", m.sess.State())}
	if m.sess.State() == model.ExperimentInTrial {
		home := "home"
		if !m.atHome {
			home = "airborne"
		}
		segments = append(segments, home)
		if tr := m.sess.Trial(); tr != nil {
			stats := tr.Stats()
			segments = append(segments, fmt.Sprintf("Hits %d · Misses %d", stats.Hits, stats.Misses))
			if id, correct := tr.TappedID(); id >= 0 {
				outcome := "miss"
				if correct {
					outcome = "hit"
				}
				segments = append(segments, fmt.Sprintf("last tap %s", outcome))
			}
		}
	}
	segments = append(segments, fmt.Sprintf("Score %.1f", m.sess.Score()))
	return strings.Join(segments, "  ")
}

func (m *Model) contentWidth() int {
	width := int(float64(m.width) * 0.70)
	if width < 20 {
		width = 20
	}
	return width
}

// finishRun persists the run, its trials, and the event records.
func (m *Model) finishRun() {
	results := m.sess.Results()
	trials := make([]model.TrialRecord, 0, len(results))
	for i, r := range results {
		trials = append(trials, model.TrialRecord{
			Seq:        i,
			Stats:      r.Stats,
			ScoreDelta: r.ScoreDelta,
			Feedback:   r.Feedback,
			Skipped:    r.Skipped,
		})
	}
	run := model.RunSummary{
		RunID:     m.log.RunID(),
		StartedAt: m.startedAt,
		EndedAt:   time.Now(),
		Score:     m.sess.Score(),
		Trials:    len(trials),
	}
	if err := m.store.InsertRun(context.Background(), run, trials, m.log.Records()); err != nil {
		m.saveErr = err
		logErrf("failed to save run: %v\n", err)
	}
}

// SaveErr reports a persistence failure from the end of the run.
func (m *Model) SaveErr() error {
	return m.saveErr
}

func glyphForRotation(rotation float64) rune {
	idx := int(math.Round(rotation/45)) % len(rotationGlyphs)
	if idx < 0 {
		idx += len(rotationGlyphs)
	}
	return rotationGlyphs[idx]
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
