// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings for the chat screen and its panels.
type KeyMap struct {
	Submit   key.Binding
	Newline  key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	NewChat  key.Binding
	History  key.Binding
	Settings key.Binding
	Quit     key.Binding

	// Panel navigation
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Delete  key.Binding
	Confirm key.Binding
	Close   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter"),
			key.WithHelp("alt+enter", "newline"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		History: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "history"),
		),
		Settings: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "style"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "move down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NewChat, k.History, k.Settings, k.Quit}
}

// FullHelp returns every chat-screen binding grouped by purpose.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline},
		{k.PageUp, k.PageDown},
		{k.NewChat, k.History, k.Settings, k.Quit},
	}
}

// panelHelp is the help shown inside the history and settings panels.
type panelHelp struct {
	keys    KeyMap
	history bool
}

func (p panelHelp) ShortHelp() []key.Binding {
	if p.history {
		return []key.Binding{p.keys.Up, p.keys.Down, p.keys.Select, p.keys.Delete, p.keys.NewChat, p.keys.Close}
	}
	return []key.Binding{p.keys.Up, p.keys.Down, p.keys.Select, p.keys.Close}
}

func (p panelHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{p.ShortHelp()}
}
