// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for the mobileai TUI.

The Model is a Bubble Tea model over a session controller. It renders the
live message list in a scrolling viewport, takes input from a textarea and
runs each completion request in a tea.Cmd so the event loop never blocks on
the network.

# Layout

  - Header: app name, model and the active response style
  - Messages: user and bot bubbles, bot replies rendered as markdown
  - Input: multi-line textarea (enter sends, alt+enter inserts a newline)
  - Status bar: spinner while a reply is pending, key hints

# Panels

  - Settings (ctrl+p): pick a response language or persona, or clear it
  - History (ctrl+o): open, delete or start conversations

When the store is file backed, the history panel follows changes made by
other processes.

# Usage

	m := chat.New(chat.Options{
		Controller: ctrl,
		Completer:  client,
		Watcher:    store,
		ModelName:  client.Model(),
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
