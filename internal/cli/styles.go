// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/mobileai/internal/chat"
	"github.com/jeranaias/mobileai/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// OUTPUT STYLES
// =============================================================================

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)

	// Chat transcript labels
	userLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	botLabelStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	pirateStyle = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Bold(true)
)

// =============================================================================
// RENDER HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule of width columns (default 60).
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 60
	}
	return SeparatorStyle.Render(strings.Repeat("-", width))
}

// RenderLabel renders "label:" padded to width columns.
func RenderLabel(label string, width int) string {
	return LabelStyle.Width(width).Render(label + ":")
}

// RenderOK renders a success line with its text marker.
func RenderOK(msg string) string {
	return SuccessStyle.Render(styles.StatusIndicators.Success) + " " + msg
}

// RenderWarning renders a warning line with its text marker.
func RenderWarning(msg string) string {
	return WarningStyle.Render(styles.StatusIndicators.Warning + " " + msg)
}

// RenderStyleName renders a style preference, highlighting the persona.
func RenderStyleName(style string) string {
	if style == "" {
		return DimStyle.Render("(none)")
	}
	if style == chat.PirateStyle {
		return pirateStyle.Render(style)
	}
	return ValueStyle.Render(style)
}
