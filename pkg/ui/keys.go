// Package ui provides the Bubble Tea TUI for the deposit orchestrator.
package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit       key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
	Reset      key.Binding
	Commit     key.Binding
	ToggleSide key.Binding
	NextPreset key.Binding
	PrevPreset key.Binding
	ClearErrs  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "cancel"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "new deposit"),
		),
		Commit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "start deposit"),
		),
		ToggleSide: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch token"),
		),
		NextPreset: key.NewBinding(
			key.WithKeys("down", "right"),
			key.WithHelp("↓", "next preset"),
		),
		PrevPreset: key.NewBinding(
			key.WithKeys("up", "left"),
			key.WithHelp("↑", "prev preset"),
		),
		ClearErrs: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "clear errors"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Commit, k.ToggleSide, k.NextPreset, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Commit, k.ToggleSide, k.NextPreset, k.PrevPreset},
		{k.Confirm, k.Cancel, k.Reset, k.ClearErrs, k.Quit},
	}
}
