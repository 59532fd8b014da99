// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the mobileai terminal UI.
//
// Colors are Lip Gloss AdaptiveColors, so they follow the terminal's light
// or dark background unless a theme forces one.
//
// # Key Types
//
//   - Theme: the lipgloss styles used by the chat screen
//   - StatusIndicators: ASCII markers shown next to colored status text
//
// # Usage
//
//	styles.ApplyTheme(cfg.UI.Theme)
//	theme := styles.DefaultTheme()
//	fmt.Println(theme.UserBubble.Render("Hello"))
package styles
