package tui

import "github.com/charmbracelet/bubbles/key"

// ResultsKeyMap defines the key bindings for the results browser.
type ResultsKeyMap struct {
	Up           key.Binding
	Down         key.Binding
	NextStrategy key.Binding
	PrevStrategy key.Binding
	NextBatch    key.Binding
	PrevBatch    key.Binding
	Open         key.Binding
	Back         key.Binding
	Quit         key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ResultsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextStrategy, k.NextBatch, k.Open, k.Back, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ResultsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.NextStrategy, k.PrevStrategy},
		{k.NextBatch, k.PrevBatch},
		{k.Back, k.Quit},
	}
}

// DefaultResultsKeyMap returns default key bindings.
func DefaultResultsKeyMap() ResultsKeyMap {
	return ResultsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextStrategy: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next strategy"),
		),
		PrevStrategy: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev strategy"),
		),
		NextBatch: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "older batch"),
		),
		PrevBatch: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "newer batch"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "match steps"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
