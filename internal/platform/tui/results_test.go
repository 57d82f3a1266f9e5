package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/stratometer/internal/batch"
	"github.com/vovakirdan/stratometer/internal/match"
	"github.com/vovakirdan/stratometer/internal/storage"
)

var testActions = match.MustActions(
	match.Action{
		Name:     "score",
		Duration: match.Fixed(10),
		Effect:   func(m *match.Mutation) { m.AddScore(5) },
	},
	match.Action{Name: "stall", Duration: match.Fixed(0)},
)

func playMatch(t *testing.T, id, action string, run int) batch.Match {
	t.Helper()
	cfg := match.Config{Timing: match.Timing{Duration: 40, Auton: 15}, MaxZeroSteps: 2}
	sim, err := match.New(cfg, testActions, match.Always(action, action), match.WithMatchID(id))
	if err != nil {
		t.Fatalf("match.New() failed: %v", err)
	}
	res, _ := sim.Run(match.NewRand(1))
	return batch.Match{ID: id, Strategy: action, Run: run, Result: res}
}

func testReport(t *testing.T) *batch.Report {
	t.Helper()
	return &batch.Report{
		ID:         "0123456789abcdef",
		Game:       "test_game",
		Strategies: []string{"score", "stall"},
		Runs:       2,
		Seed:       5,
		Timing:     match.Timing{Duration: 40, Auton: 15},
		CreatedAt:  time.Now(),
		Matches: []batch.Match{
			playMatch(t, "m1", "score", 0),
			playMatch(t, "m2", "score", 1),
			playMatch(t, "m3", "stall", 0),
		},
	}
}

func openStore(t *testing.T, reports ...*batch.Report) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	for _, r := range reports {
		if err := store.SaveBatch(r); err != nil {
			t.Fatalf("SaveBatch() failed: %v", err)
		}
	}
	return store
}

func press(t *testing.T, m ResultsModel, msg tea.KeyMsg) ResultsModel {
	t.Helper()
	next, _ := m.Update(msg)
	rm, ok := next.(ResultsModel)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return rm
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyQuit  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
)

func TestResultsBrowseStrategies(t *testing.T) {
	store := openStore(t, testReport(t))
	m := NewResultsModel(store, "", 120, 40)

	if m.strategy() != "score" || len(m.matches) != 2 {
		t.Fatalf("Expected 2 score matches, got %q with %d", m.strategy(), len(m.matches))
	}
	if !strings.Contains(m.View(), "test_game") {
		t.Error("View should show the game of the batch")
	}

	m = press(t, m, keyTab)
	if m.strategy() != "stall" || len(m.matches) != 1 {
		t.Fatalf("Expected 1 stall match after tab, got %q with %d", m.strategy(), len(m.matches))
	}
	if !strings.Contains(m.View(), "NonProgressingSimulation") {
		t.Error("Failed matches should show their error kind")
	}

	m = press(t, m, keyTab)
	if m.strategy() != "score" {
		t.Errorf("Strategy cursor should wrap, got %q", m.strategy())
	}
}

func TestResultsDetail(t *testing.T) {
	store := openStore(t, testReport(t))
	m := NewResultsModel(store, "0123", 120, 40)

	m = press(t, m, keyEnter)
	if !m.ShowingDetail() {
		t.Fatal("Enter should open the match steps")
	}
	if !strings.Contains(m.View(), "match m1") {
		t.Error("Detail view should name the match")
	}

	m = press(t, m, keyEsc)
	if m.ShowingDetail() || m.IsQuitting() {
		t.Error("Esc should close the detail view without quitting")
	}

	m = press(t, m, keyQuit)
	if !m.IsQuitting() {
		t.Error("q should quit")
	}
}

func TestResultsEmptyAndMissing(t *testing.T) {
	store := openStore(t)

	empty := NewResultsModel(store, "", 120, 40)
	if !strings.Contains(empty.View(), "No batches stored yet") {
		t.Error("Empty store should show a hint")
	}

	missing := NewResultsModel(store, "deadbeef", 120, 40)
	if !strings.Contains(missing.View(), "not found") {
		t.Error("Unknown batch should report an error")
	}
}

func TestResultsNarrowLayout(t *testing.T) {
	store := openStore(t, testReport(t))
	m := NewResultsModel(store, "", 60, 30)
	if !strings.Contains(m.View(), "< score >") {
		t.Error("Narrow layout should show the strategy selector")
	}
}
