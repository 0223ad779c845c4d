package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter    key.Binding
	back     key.Binding
	toggle   key.Binding
	next     key.Binding
	prev     key.Binding
	tab      key.Binding
	devices  key.Binding
	more     key.Binding
	collapse key.Binding
	refresh  key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play/open")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "library/playlists")),
		devices:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "devices")),
		more:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
		collapse: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "collapse player")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.prev, k.devices, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back, k.tab, k.more},
		{k.toggle, k.next, k.prev, k.collapse},
		{k.devices, k.refresh, k.quit},
	}
}
