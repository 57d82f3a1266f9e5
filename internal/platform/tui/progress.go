package tui

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// progressRate is how often the progress view polls the batch, per second.
const progressRate = 10

// TickMsg asks the progress view to redraw.
type TickMsg time.Time

// BatchDoneMsg tells the progress view that the batch returned.
type BatchDoneMsg struct{}

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(rate int) tea.Cmd {
	interval := time.Second / time.Duration(rate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Progress counts finished matches. It is safe for concurrent use and its
// Report method matches the batch runner's progress callback.
type Progress struct {
	done  atomic.Int64
	total atomic.Int64
}

// Report records that done of total matches have finished.
func (p *Progress) Report(done, total int) {
	p.total.Store(int64(total))
	for {
		cur := p.done.Load()
		if int64(done) <= cur || p.done.CompareAndSwap(cur, int64(done)) {
			return
		}
	}
}

// Fraction returns the finished share in [0, 1].
func (p *Progress) Fraction() float64 {
	total := p.total.Load()
	if total == 0 {
		return 0
	}
	return float64(p.done.Load()) / float64(total)
}

// ProgressModel draws a progress bar while a batch runs.
type ProgressModel struct {
	title       string
	counter     *Progress
	bar         progress.Model
	finished    bool
	interrupted bool
}

// NewProgressModel creates a progress view over counter.
func NewProgressModel(title string, counter *Progress) ProgressModel {
	return ProgressModel{
		title:   title,
		counter: counter,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Init starts polling.
func (m ProgressModel) Init() tea.Cmd {
	return tickCmd(progressRate)
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if m.finished {
			return m, nil
		}
		return m, tickCmd(progressRate)
	case BatchDoneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.interrupted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-len(m.title)-20, 10), 60)
	}
	return m, nil
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("  ")
	b.WriteString(m.bar.ViewAs(m.counter.Fraction()))
	fmt.Fprintf(&b, "  %d/%d", m.counter.done.Load(), m.counter.total.Load())
	if m.interrupted {
		b.WriteString(dimStyle.Render("  stopping..."))
	}
	b.WriteString("\n")
	return b.String()
}

// Interrupted reports whether the user asked to stop the batch.
func (m ProgressModel) Interrupted() bool {
	return m.interrupted
}
