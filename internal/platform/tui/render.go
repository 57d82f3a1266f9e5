package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vovakirdan/stratometer/internal/batch"
	"github.com/vovakirdan/stratometer/internal/match"
	"github.com/vovakirdan/stratometer/internal/storage"
)

// Shared styles for static output and the results browser.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
	cellStyle = lipgloss.NewStyle().Padding(0, 1)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	barStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("57"))
	bestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...)
}

func score(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// RenderSummary renders per-strategy statistics of a batch report.
func RenderSummary(r *batch.Report) string {
	return renderSummary(r.Game, r.ID, r.Runs, r.Seed, r.Elapsed, r.Summaries())
}

// RenderStoredSummary renders per-strategy statistics of a stored batch.
func RenderStoredSummary(b storage.BatchRecord, matches []storage.MatchRecord) string {
	byStrategy := make(map[string][]storage.MatchRecord, len(b.Strategies))
	for _, m := range matches {
		byStrategy[m.Strategy] = append(byStrategy[m.Strategy], m)
	}
	sums := make([]batch.StrategySummary, 0, len(b.Strategies))
	for _, s := range b.Strategies {
		sums = append(sums, batch.StrategySummary{Strategy: s, Summary: batch.Summarize(byStrategy[s])})
	}
	return renderSummary(b.Game, b.ID, b.Runs, b.Seed, b.Elapsed, sums)
}

// renderSummary highlights the strategy with the best mean.
func renderSummary(game, id string, runs int, seed int64, elapsed time.Duration, sums []batch.StrategySummary) string {
	best := -1
	for i, s := range sums {
		if s.Completed() > 0 && (best < 0 || s.Mean > sums[best].Mean) {
			best = i
		}
	}

	t := newTable("Strategy", "Runs", "Failed", "Mean", "SD", "Min", "P10", "Median", "P90", "Max",
		"Auton", "Teleop", "Endgame")
	for _, s := range sums {
		t.Row(
			s.Strategy,
			fmt.Sprintf("%d", s.Runs),
			fmt.Sprintf("%d", s.Failed),
			score(s.Mean),
			score(s.StdDev),
			score(s.Min),
			score(s.P10),
			score(s.Median),
			score(s.P90),
			score(s.Max),
			score(s.PhaseMeans[match.PhaseAuton]),
			score(s.PhaseMeans[match.PhaseTeleop]),
			score(s.PhaseMeans[match.PhaseEndgame]),
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case row == best:
			return bestStyle
		case col == 2 && sums[row].Failed > 0:
			return failStyle.Padding(0, 1)
		}
		return cellStyle
	})

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s: %d runs per strategy", game, runs)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("batch %s  seed %d  %s", id, seed, elapsed.Round(time.Millisecond))))
	b.WriteString("\n")
	b.WriteString(t.String())
	return b.String()
}

// RenderHistogram draws one horizontal bar per bin, scaled to width.
func RenderHistogram(bins []batch.Bin, width int) string {
	if len(bins) == 0 {
		return dimStyle.Render("no completed matches")
	}
	if width < 10 {
		width = 10
	}

	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}

	var sb strings.Builder
	for i, b := range bins {
		if i > 0 {
			sb.WriteString("\n")
		}
		n := 0
		if peak > 0 {
			n = b.Count * width / peak
		}
		if b.Count > 0 && n == 0 {
			n = 1
		}
		sb.WriteString(fmt.Sprintf("%7.1f-%-7.1f ", b.Lo, b.Hi))
		sb.WriteString(barStyle.Render(strings.Repeat("█", n)))
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" %d", b.Count)))
	}
	return sb.String()
}

// RenderSteps renders a match history with the clock at the start of
// every step.
func RenderSteps(steps []match.Step) string {
	t := newTable("#", "Action", "Phase", "Start", "Sampled", "Taken", "Points", "Score")
	clipped := make(map[int]bool)
	start := 0.0
	for i, st := range steps {
		taken := fmt.Sprintf("%.2f", st.Taken)
		if st.Clipped {
			taken += " ✂"
			clipped[i] = true
		}
		t.Row(
			fmt.Sprintf("%d", i+1),
			st.Action,
			st.Phase.String(),
			fmt.Sprintf("%.2f", start),
			fmt.Sprintf("%.2f", st.Nominal),
			taken,
			score(st.Points),
			score(st.ScoreAfter),
		)
		start += st.Taken
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if clipped[row] {
			return dimStyle.Padding(0, 1)
		}
		return cellStyle
	})
	return t.String()
}

// RenderBatches renders stored batch headers, newest first.
func RenderBatches(batches []storage.BatchRecord) string {
	if len(batches) == 0 {
		return dimStyle.Render("No batches stored yet.\nRun one with: stratometer run <game> --save")
	}
	t := newTable("ID", "Game", "Strategies", "Runs", "Matches", "Failed", "Seed", "Date")
	for _, b := range batches {
		t.Row(
			b.ID[:min(8, len(b.ID))],
			b.Game,
			strings.Join(b.Strategies, ","),
			fmt.Sprintf("%d", b.Runs),
			fmt.Sprintf("%d", b.Matches),
			fmt.Sprintf("%d", b.Failed),
			fmt.Sprintf("%d", b.Seed),
			b.CreatedAt.Local().Format("Jan 02 15:04"),
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})
	return t.String()
}

// RenderStrategyStats renders all-time per-strategy aggregates.
func RenderStrategyStats(game string, stats []storage.StrategyStat) string {
	if len(stats) == 0 {
		return dimStyle.Render(fmt.Sprintf("No stored matches for %s.", game))
	}
	t := newTable("Strategy", "Matches", "Failed", "Mean", "Best")
	for _, s := range stats {
		t.Row(
			s.Strategy,
			fmt.Sprintf("%d", s.Matches),
			fmt.Sprintf("%d", s.Failed),
			score(s.Mean),
			score(s.Best),
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})
	return titleStyle.Render("All-time: "+game) + "\n" + t.String()
}

// centerText pads text so it sits in the middle of width columns.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}
