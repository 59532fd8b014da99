// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/mobileai/internal/model"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownRenderer     *glamour.TermRenderer
	markdownRendererOnce sync.Once
)

// renderMarkdown renders content for the terminal, returning it unchanged
// when no renderer could be built.
func renderMarkdown(content string) string {
	markdownRendererOnce.Do(func() {
		width := GetTerminalWidth()
		if width > 100 {
			width = 100
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width-4),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// displayReply writes a bot reply. Markdown is rendered only when stdout is
// a terminal so piped output stays plain.
func displayReply(w io.Writer, text string, markdown bool) {
	if markdown {
		fmt.Fprintln(w, renderMarkdown(text))
		return
	}
	fmt.Fprintln(w, text)
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// printMessage writes one message with its sender label.
func printMessage(w io.Writer, msg model.Message, markdown bool) {
	if msg.IsUser() {
		fmt.Fprintf(w, "%s %s\n", userLabelStyle.Render(msg.Sender.DisplayName()+":"), msg.Text)
		return
	}
	fmt.Fprintln(w, botLabelStyle.Render(msg.Sender.DisplayName()+":"))
	displayReply(w, msg.Text, markdown)
}

// printTranscript writes every message of conv, the greeting included.
func printTranscript(w io.Writer, conv model.Conversation, markdown bool) {
	fmt.Fprintln(w, TitleStyle.Render(conv.Title))
	fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("%s  %d messages", conv.ID, conv.MessageCount())))
	fmt.Fprintln(w, RenderSeparator(0))
	for _, msg := range conv.Messages {
		printMessage(w, msg, markdown)
		fmt.Fprintln(w)
	}
}
