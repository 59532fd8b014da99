// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by ApplyTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme contains all the lipgloss styles used by the chat screen.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderStyle lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserBubble lipgloss.Style
	UserLabel  lipgloss.Style
	BotBubble  lipgloss.Style
	BotLabel   lipgloss.Style
	Timestamp  lipgloss.Style
	Pending    lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	Input     lipgloss.Style
	StatusBar lipgloss.Style
	Spinner   lipgloss.Style
	Error     lipgloss.Style
	Hint      lipgloss.Style

	// ==========================================================================
	// PANELS
	// ==========================================================================

	Panel         lipgloss.Style
	PanelTitle    lipgloss.Style
	PanelItem     lipgloss.Style
	PanelSelected lipgloss.Style
	PanelMeta     lipgloss.Style
	Pirate        lipgloss.Style
}

// NewTheme creates a theme for the detected terminal.
func NewTheme() *Theme {
	profile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       lipgloss.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// DefaultTheme returns a theme built for the current background setting.
func DefaultTheme() *Theme {
	return NewTheme()
}

// ApplyTheme forces the background lipgloss assumes when resolving
// AdaptiveColors. "auto" (or anything unknown) keeps terminal detection.
// Returns the normalized theme name.
func ApplyTheme(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThemeDark:
		lipgloss.SetHasDarkBackground(true)
		return ThemeDark
	case ThemeLight:
		lipgloss.SetHasDarkBackground(false)
		return ThemeLight
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
		return ThemeAuto
	}
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderStyle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.BotBubble = lipgloss.NewStyle().
		Foreground(BotBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.BotLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Pending = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.Error = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.Hint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.PanelTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.PanelItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.PanelSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true).
		PaddingLeft(2)

	t.PanelMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Pirate = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
}

// StatusText renders msg prefixed with its ASCII indicator in the matching
// color. kind is one of "success", "error", "warning", "pending"; anything
// else renders as active.
func (t *Theme) StatusText(kind, msg string) string {
	switch kind {
	case "success":
		return lipgloss.NewStyle().Foreground(Emerald).Render(StatusIndicators.Success + " " + msg)
	case "error":
		return t.Error.Render(StatusIndicators.Error + " " + msg)
	case "warning":
		return lipgloss.NewStyle().Foreground(Amber).Render(StatusIndicators.Warning + " " + msg)
	case "pending":
		return t.Pending.Render(StatusIndicators.Pending + " " + msg)
	default:
		return lipgloss.NewStyle().Foreground(Cyan).Render(StatusIndicators.Active + " " + msg)
	}
}
