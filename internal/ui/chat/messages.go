// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/mobileai/internal/chat"
)

// =============================================================================
// MESSAGES
// =============================================================================

// replyMsg carries the outcome of a completion request back to the event
// loop.
type replyMsg struct {
	pending *core.Pending
	reply   string
	err     error
}

// watchStartedMsg hands the store change channel to the event loop.
type watchStartedMsg struct {
	ch <-chan struct{}
}

// watchFailedMsg reports that change notification is unavailable.
type watchFailedMsg struct {
	err error
}

// storeChangedMsg means the store was written, by this or another process.
type storeChangedMsg struct {
	ch <-chan struct{}
}

// =============================================================================
// COMMANDS
// =============================================================================

// completeCmd runs the completion for p off the event loop.
func completeCmd(ctx context.Context, completer core.Completer, p *core.Pending) tea.Cmd {
	return func() tea.Msg {
		reply, err := completer.Complete(ctx, p.Prompt)
		return replyMsg{pending: p, reply: reply, err: err}
	}
}

// startWatchCmd subscribes to store changes.
func startWatchCmd(ctx context.Context, w Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		ch, err := w.Watch(ctx)
		if err != nil {
			return watchFailedMsg{err: err}
		}
		return watchStartedMsg{ch: ch}
	}
}

// waitForChangeCmd blocks until the next change notification. It yields no
// message once the channel is closed.
func waitForChangeCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{ch: ch}
	}
}
