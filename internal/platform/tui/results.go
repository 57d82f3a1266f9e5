package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/stratometer/internal/storage"
)

// Results browser layout constants
const (
	minWidthForSidebar = 80 // Minimum width to show strategy sidebar
	sidebarWidth       = 22 // Width of strategy sidebar
	maxBatches         = 50 // Batches reachable with [ and ]
	chromeHeight       = 9  // Title, summary, borders and help
)

// ResultsModel is the Bubble Tea model for browsing stored batches.
type ResultsModel struct {
	store       *storage.Store
	batches     []storage.BatchRecord
	batchCursor int
	stratCursor int
	matches     []storage.MatchRecord
	table       table.Model
	detail      viewport.Model
	showDetail  bool
	help        help.Model
	keys        ResultsKeyMap
	width       int
	height      int
	err         error
	quitting    bool
	showSidebar bool
}

// NewResultsModel creates a results browser. An empty batchID opens the
// most recent batch.
func NewResultsModel(store *storage.Store, batchID string, width, height int) ResultsModel {
	h := help.New()
	h.ShowAll = false

	m := ResultsModel{
		store:       store,
		keys:        DefaultResultsKeyMap(),
		help:        h,
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}
	m.table = m.createTable()
	m.detail = viewport.New(width, max(height-chromeHeight, 3))

	if store == nil {
		return m
	}

	m.batches, m.err = store.RecentBatches(maxBatches)
	if m.err != nil {
		return m
	}
	if batchID != "" {
		m.selectBatch(batchID)
	}
	m.loadMatches()
	return m
}

// selectBatch moves the cursor to batchID, fetching it when it is older
// than the recent list.
func (m *ResultsModel) selectBatch(batchID string) {
	for i, b := range m.batches {
		if strings.HasPrefix(b.ID, batchID) {
			m.batchCursor = i
			return
		}
	}
	b, err := m.store.BatchByID(batchID)
	if err != nil {
		m.err = err
		return
	}
	if b == nil {
		m.err = fmt.Errorf("batch %q not found", batchID)
		return
	}
	m.batches = append([]storage.BatchRecord{*b}, m.batches...)
	m.batchCursor = 0
}

// createTable creates the match table sized to the window.
func (m *ResultsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Run", Width: 5},
		{Title: "Score", Width: 8},
		{Title: "Auton", Width: 7},
		{Title: "Teleop", Width: 7},
		{Title: "Endgame", Width: 8},
		{Title: "Steps", Width: 6},
		{Title: "Status", Width: 12},
	}

	// Give spare width to the status column
	tableWidth := m.width - 4
	if m.showSidebar {
		tableWidth -= sidebarWidth + 3
	}
	used := 0
	for _, c := range columns {
		used += c.Width + 2
	}
	if spare := tableWidth - used; spare > 0 {
		columns[len(columns)-1].Width += min(spare, 20)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-chromeHeight, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// current returns the selected batch, if any.
func (m ResultsModel) current() (storage.BatchRecord, bool) {
	if m.batchCursor < 0 || m.batchCursor >= len(m.batches) {
		return storage.BatchRecord{}, false
	}
	return m.batches[m.batchCursor], true
}

// strategy returns the selected strategy of the current batch.
func (m ResultsModel) strategy() string {
	b, ok := m.current()
	if !ok || len(b.Strategies) == 0 {
		return ""
	}
	return b.Strategies[m.stratCursor%len(b.Strategies)]
}

// loadMatches loads the matches of the selected batch and strategy.
func (m *ResultsModel) loadMatches() {
	m.matches = nil
	b, ok := m.current()
	if ok && m.store != nil {
		matches, err := m.store.MatchesForBatch(b.ID, m.strategy())
		if err != nil {
			m.err = err
		} else {
			m.matches = matches
		}
	}
	m.updateTableRows()
}

// updateTableRows updates the table with the loaded matches.
func (m *ResultsModel) updateTableRows() {
	rows := make([]table.Row, len(m.matches))
	for i, r := range m.matches {
		status := "ok"
		if r.Failed() {
			status = r.ErrorKind
			if status == "" {
				status = "error"
			}
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", r.Run),
			score(r.Score),
			score(r.AutonPoints),
			score(r.TeleopPoints),
			score(r.EndgamePoints),
			fmt.Sprintf("%d", r.Steps),
			status,
		}
	}
	m.table.SetRows(rows)

	// Reset cursor to top
	m.table.GotoTop()
}

// openDetail loads the steps of the highlighted match into the viewport.
func (m *ResultsModel) openDetail() {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.matches) || m.store == nil {
		return
	}
	r := m.matches[i]
	steps, err := m.store.MatchSteps(r.ID)
	if err != nil {
		m.err = err
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("match %s  strategy %s  run %d  seed %d\n", r.ID, r.Strategy, r.Run, r.Seed))
	b.WriteString(fmt.Sprintf("final score %s  remaining %.2fs\n", score(r.Score), r.TimeRemaining))
	if r.Failed() {
		b.WriteString(failStyle.Render(r.Error))
		b.WriteString("\n")
	}
	b.WriteString(RenderSteps(steps))

	m.detail.SetContent(b.String())
	m.detail.GotoTop()
	m.showDetail = true
}

// Init initializes the results model.
func (m ResultsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results browser.
func (m ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}

		if m.showDetail {
			if key.Matches(msg, m.keys.Back) {
				m.showDetail = false
				return m, nil
			}
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Back):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Open):
			m.openDetail()
			return m, nil

		case key.Matches(msg, m.keys.NextStrategy):
			if b, ok := m.current(); ok && len(b.Strategies) > 0 {
				m.stratCursor = (m.stratCursor + 1) % len(b.Strategies)
				m.loadMatches()
			}
			return m, nil

		case key.Matches(msg, m.keys.PrevStrategy):
			if b, ok := m.current(); ok && len(b.Strategies) > 0 {
				m.stratCursor = (m.stratCursor - 1 + len(b.Strategies)) % len(b.Strategies)
				m.loadMatches()
			}
			return m, nil

		case key.Matches(msg, m.keys.NextBatch):
			if m.batchCursor < len(m.batches)-1 {
				m.batchCursor++
				m.stratCursor = 0
				m.loadMatches()
			}
			return m, nil

		case key.Matches(msg, m.keys.PrevBatch):
			if m.batchCursor > 0 {
				m.batchCursor--
				m.stratCursor = 0
				m.loadMatches()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.updateTableRows()
		m.detail.Width = msg.Width
		m.detail.Height = max(msg.Height-chromeHeight, 3)
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the results browser.
func (m ResultsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "RESULTS"
	if cur, ok := m.current(); ok {
		title = fmt.Sprintf("RESULTS - %s - batch %s (%d/%d)",
			cur.Game, cur.ID[:min(8, len(cur.ID))], m.batchCursor+1, len(m.batches))
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(failStyle.Render("Error: " + m.err.Error()))
	case len(m.batches) == 0:
		b.WriteString(dimStyle.Italic(true).Padding(2, 4).
			Render("No batches stored yet.\nRun one with: stratometer run <game> --save"))
	case m.showDetail:
		b.WriteString(m.detail.View())
	case m.showSidebar:
		b.WriteString(m.renderWideLayout())
	default:
		b.WriteString(m.renderNarrowLayout())
	}

	// Help bar
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderSummaryLine summarizes the loaded matches of one strategy.
func (m ResultsModel) renderSummaryLine() string {
	if len(m.matches) == 0 {
		return dimStyle.Render("no matches")
	}
	total, best, failed, n := 0.0, 0.0, 0, 0
	for _, r := range m.matches {
		if r.Failed() {
			failed++
			continue
		}
		if n == 0 || r.Score > best {
			best = r.Score
		}
		total += r.Score
		n++
	}
	mean := 0.0
	if n > 0 {
		mean = total / float64(n)
	}
	line := fmt.Sprintf("%s: %d matches  mean %s  best %s", m.strategy(), len(m.matches), score(mean), score(best))
	if failed > 0 {
		return line + failStyle.Render(fmt.Sprintf("  failed %d", failed))
	}
	return line
}

// renderWideLayout renders the strategy sidebar next to the match table.
func (m ResultsModel) renderWideLayout() string {
	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sidebar strings.Builder
	sidebar.WriteString("Strategies\n")
	sidebar.WriteString(strings.Repeat("-", sidebarWidth-4))
	sidebar.WriteString("\n")

	cur, _ := m.current()
	for i, name := range cur.Strategies {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.stratCursor {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}
		maxLen := sidebarWidth - 6
		if len(name) > maxLen {
			name = name[:maxLen-1] + "."
		}
		sidebar.WriteString(style.Render(cursor + name))
		sidebar.WriteString("\n")
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	right := m.renderSummaryLine() + "\n" + tableStyle.Render(m.table.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebarStyle.Render(sidebar.String()), "  ", right)
}

// renderNarrowLayout shows the current strategy with arrows above the table.
func (m ResultsModel) renderNarrowLayout() string {
	var b strings.Builder
	b.WriteString(centerText(fmt.Sprintf("< %s >", m.strategy()), m.width))
	b.WriteString("\n")
	b.WriteString(centerText(m.renderSummaryLine(), m.width))
	b.WriteString("\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.table.View()))
	return b.String()
}

// IsQuitting returns true if the user closed the browser.
func (m ResultsModel) IsQuitting() bool {
	return m.quitting
}

// ShowingDetail returns true while a match history is open.
func (m ResultsModel) ShowingDetail() bool {
	return m.showDetail
}

// RunResults runs the results browser in the local terminal.
func RunResults(store *storage.Store, batchID string, width, height int) error {
	model := NewResultsModel(store, batchID, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
