// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	core "github.com/jeranaias/mobileai/internal/chat"
	"github.com/jeranaias/mobileai/internal/cloud"
	"github.com/jeranaias/mobileai/internal/model"
	"github.com/jeranaias/mobileai/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// render stacks header, body, input and status bar. The body is the message
// viewport or, when a panel is open, the panel centered in the same space.
func (m Model) render() string {
	if !m.ready {
		return "Loading..."
	}

	var body string
	switch m.mode {
	case modeSettings:
		body = m.placePanel(m.renderSettings())
	case modeHistory:
		body = m.placePanel(m.renderHistory())
	default:
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		body,
		m.theme.Input.Width(m.width).Render(m.input.View()),
		m.renderStatusBar(),
	)
}

func (m Model) placePanel(panel string) string {
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, panel)
}

// =============================================================================
// HEADER AND STATUS
// =============================================================================

func (m Model) renderHeader() string {
	parts := []string{m.theme.HeaderTitle.Render("mobileai")}
	if m.modelName != "" {
		parts = append(parts, m.theme.HeaderStyle.Render(m.modelName))
	}

	style := m.ctrl.Style()
	switch style {
	case "":
		parts = append(parts, m.theme.HeaderStyle.Render("plain replies"))
	case core.PirateStyle:
		parts = append(parts, m.theme.Pirate.Render(style))
	default:
		parts = append(parts, m.theme.HeaderStyle.Render("in "+style))
	}

	line := strings.Join(parts, m.theme.Hint.Render(" | "))
	return m.theme.Header.Width(m.width).MaxHeight(headerHeight).Render(line)
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.ctrl.Busy():
		left = m.spinner.View() + " " + m.theme.Pending.Render("Waiting for reply")
	case m.status != "" && m.statusErr:
		left = m.theme.StatusText("error", m.status)
	case m.status != "":
		left = m.theme.StatusText("success", m.status)
	}

	var right string
	switch m.mode {
	case modeSettings:
		right = m.help.View(panelHelp{keys: m.keys})
	case modeHistory:
		right = m.help.View(panelHelp{keys: m.keys, history: true})
	default:
		right = m.help.View(m.keys)
	}

	avail := m.width - 2
	if lipgloss.Width(left)+lipgloss.Width(right)+1 > avail {
		right = ""
	}
	gap := avail - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return m.theme.StatusBar.Width(m.width).MaxHeight(statusHeight).Render(line)
}

// =============================================================================
// MESSAGES
// =============================================================================

// bubbleWidth is the content width of a message bubble.
func (m Model) bubbleWidth() int {
	w := m.width - 8
	if w < 12 {
		w = 12
	}
	return w
}

func (m Model) renderMessages() string {
	snap := m.ctrl.Snapshot()
	blocks := make([]string, 0, len(snap.Messages))
	for _, msg := range snap.Messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n")
}

func (m Model) renderMessage(msg model.Message) string {
	width := m.bubbleWidth()

	label := m.theme.BotLabel.Render(msg.Sender.DisplayName())
	if msg.IsUser() {
		label = m.theme.UserLabel.Render(msg.Sender.DisplayName())
	}
	if m.showTimestamps && !msg.CreatedAt.IsZero() {
		label += " " + m.theme.Timestamp.Render(msg.CreatedAt.Format("15:04"))
	}

	if msg.IsUser() {
		bubble := m.theme.UserBubble.Width(width).Render(msg.Text)
		return lipgloss.JoinVertical(lipgloss.Left, "    "+label, bubble)
	}
	bubble := m.theme.BotBubble.Width(width).Render(m.renderMarkdown(msg.Text))
	return lipgloss.JoinVertical(lipgloss.Left, label, bubble)
}

// renderMarkdown renders bot text, falling back to the raw text when no
// renderer is available or rendering fails.
func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// PANELS
// =============================================================================

func (m Model) renderSettings() string {
	current := m.ctrl.Style()
	lines := []string{m.theme.PanelTitle.Render("Reply style")}
	for i, item := range settingsItems() {
		marker := "  "
		if item == current || (current == "" && item == clearStyleLabel) {
			marker = "* "
		}
		lines = append(lines, m.panelRow(i, marker+item))
	}
	return m.theme.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) renderHistory() string {
	lines := []string{m.theme.PanelTitle.Render(fmt.Sprintf("Conversations (%d)", len(m.history)))}
	if len(m.history) == 0 {
		lines = append(lines, m.theme.PanelMeta.Render("No saved conversations yet"))
		return m.theme.Panel.Render(strings.Join(lines, "\n"))
	}

	active := m.ctrl.Snapshot().ActiveID
	rowWidth := m.width - 16
	if rowWidth < 20 {
		rowWidth = 20
	}
	for i, conv := range m.history {
		marker := "  "
		if conv.ID == active {
			marker = "* "
		}
		row := marker + conv.Title + "  " +
			m.theme.PanelMeta.Render(fmt.Sprintf("%d msgs  %s", conv.MessageCount(), util.SingleLine(conv.Preview())))
		lines = append(lines, m.panelRow(i, util.TruncateWidth(row, rowWidth)))
	}
	if m.pendingDelete != "" {
		lines = append(lines, "", m.theme.Error.Render("Are you sure you want to delete this conversation? (y/N)"))
	}
	return m.theme.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) panelRow(i int, text string) string {
	if i == m.cursor {
		return m.theme.PanelSelected.Render(text)
	}
	return m.theme.PanelItem.Render(text)
}

// =============================================================================
// ERRORS
// =============================================================================

// describeError turns a completion error into a short status line.
func describeError(err error) string {
	switch {
	case errors.Is(err, cloud.ErrNotConfigured):
		return "No API key configured: set MOBILEAI_API_KEY or api.api_key"
	case errors.Is(err, cloud.ErrAuthFailed):
		return "The API rejected the key"
	case errors.Is(err, cloud.ErrRateLimited):
		return "Rate limited by the API, try again shortly"
	case errors.Is(err, cloud.ErrModelNotFound):
		return "Model not found at this endpoint"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Request cancelled"
	default:
		return "Request failed: " + util.TruncateRunes(err.Error(), 80)
	}
}
