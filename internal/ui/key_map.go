package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter   key.Binding
	back    key.Binding
	open    key.Binding
	destroy key.Binding
	yes     key.Binding
	no      key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open url")),
		destroy: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "destroy")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back},
		{k.open, k.destroy, k.refresh},
		{k.yes, k.no, k.quit},
	}
}
