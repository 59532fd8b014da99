// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/mobileai/internal/chat"
	"github.com/jeranaias/mobileai/internal/model"
)

// clearStyleLabel is the last settings entry; it removes the preference.
const clearStyleLabel = "None (plain replies)"

// =============================================================================
// SETTINGS PANEL
// =============================================================================

// settingsItems lists the style choices followed by the clear entry.
func settingsItems() []string {
	items := make([]string, 0, len(core.StyleOptions)+1)
	items = append(items, core.StyleOptions...)
	return append(items, clearStyleLabel)
}

func (m Model) openSettings() Model {
	items := settingsItems()
	m.cursor = len(items) - 1
	current := m.ctrl.Style()
	for i, opt := range core.StyleOptions {
		if opt == current {
			m.cursor = i
			break
		}
	}
	m.mode = modeSettings
	m.input.Blur()
	return m
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := settingsItems()

	switch {
	case key.Matches(msg, m.keys.Close):
		return m.closePanel()

	case key.Matches(msg, m.keys.Up):
		m.cursor = moveCursor(m.cursor, -1, len(items))

	case key.Matches(msg, m.keys.Down):
		m.cursor = moveCursor(m.cursor, 1, len(items))

	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(core.StyleOptions) {
			choice := core.StyleOptions[m.cursor]
			if err := m.ctrl.SetStyle(m.ctx, choice); err != nil {
				m.setError("Could not save style: " + err.Error())
			} else {
				m.setStatus("Replies will use: " + choice)
			}
		} else {
			if err := m.ctrl.ClearStyle(m.ctx); err != nil {
				m.setError("Could not clear style: " + err.Error())
			} else {
				m.setStatus("Style cleared")
			}
		}
		return m.closePanel()
	}
	return m, nil
}

// =============================================================================
// HISTORY PANEL
// =============================================================================

func (m Model) openHistory() Model {
	m.mode = modeHistory
	m.cursor = 0
	m.pendingDelete = ""
	m.refreshHistory()
	m.input.Blur()
	return m
}

// refreshHistory reloads the panel entries, newest first, keeping the
// cursor in range.
func (m *Model) refreshHistory() {
	convs := m.ctrl.Conversations()
	m.history = make([]model.Conversation, 0, len(convs))
	for i := len(convs) - 1; i >= 0; i-- {
		m.history = append(m.history, convs[i])
	}
	if m.cursor >= len(m.history) {
		m.cursor = len(m.history) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingDelete != "" {
		return m.handleDeleteConfirm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		return m.closePanel()

	case key.Matches(msg, m.keys.NewChat):
		m.ctrl.StartNew()
		m.setStatus("Started a new conversation")
		m.refresh()
		return m.closePanel()

	case key.Matches(msg, m.keys.Up):
		m.cursor = moveCursor(m.cursor, -1, len(m.history))

	case key.Matches(msg, m.keys.Down):
		m.cursor = moveCursor(m.cursor, 1, len(m.history))

	case key.Matches(msg, m.keys.Select):
		if len(m.history) == 0 {
			return m, nil
		}
		conv := m.history[m.cursor]
		if !m.ctrl.LoadExisting(conv.ID) {
			m.setError("Conversation no longer exists")
			m.refreshHistory()
			return m, nil
		}
		m.setStatus("Opened " + conv.Title)
		m.refresh()
		return m.closePanel()

	case key.Matches(msg, m.keys.Delete):
		if len(m.history) == 0 {
			return m, nil
		}
		conv := m.history[m.cursor]
		m.pendingDelete = conv.ID
		m.setStatus("Delete " + conv.Title + "? Press y to delete, any other key to cancel")
	}
	return m, nil
}

// handleDeleteConfirm deletes the pending conversation on y and cancels on
// any other key.
func (m Model) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.pendingDelete
	m.pendingDelete = ""

	if !key.Matches(msg, m.keys.Confirm) {
		m.setStatus("Delete cancelled")
		return m, nil
	}

	title := id
	for _, conv := range m.history {
		if conv.ID == id {
			title = conv.Title
			break
		}
	}
	if err := m.ctrl.DeleteConversation(m.ctx, id); err != nil {
		m.setError("Delete failed: " + err.Error())
	} else {
		m.setStatus("Deleted " + title)
	}
	m.refreshHistory()
	m.refresh()
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (m Model) closePanel() (tea.Model, tea.Cmd) {
	m.mode = modeChat
	return m, m.input.Focus()
}

// moveCursor moves by delta, wrapping within n entries.
func moveCursor(cursor, delta, n int) int {
	if n <= 0 {
		return 0
	}
	return ((cursor+delta)%n + n) % n
}
