// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/jeranaias/mobileai/internal/chat"
	"github.com/jeranaias/mobileai/internal/cloud"
	"github.com/jeranaias/mobileai/internal/model"
	"github.com/jeranaias/mobileai/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	backend *storage.MemoryBackend
	store   *storage.ConversationStore
	ctrl    *core.Controller
}

func newHarness(t *testing.T, completer core.Completer) (Model, *harness) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	store := storage.NewConversationStore(backend, testLogger())
	ctrl := core.New(context.Background(), store, completer, core.WithLogger(testLogger()))

	m := New(Options{
		Controller: ctrl,
		Completer:  completer,
		ModelName:  "test-model",
		Logger:     testLogger(),
	})
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, &harness{backend: backend, store: store, ctrl: ctrl}
}

func echoCompleter(reply string) core.Completer {
	return core.CompleterFunc(func(context.Context, string) (string, error) {
		return reply, nil
	})
}

// send applies msg and returns the model and command.
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return nm, cmd
}

// step applies msg and drops the command.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	nm, _ := send(t, m, msg)
	return nm
}

// collect runs cmd, flattening batches, and returns every message produced.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findReply(t *testing.T, cmd tea.Cmd) replyMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if r, ok := msg.(replyMsg); ok {
			return r
		}
	}
	t.Fatal("no reply message produced")
	return replyMsg{}
}

func typeAndSend(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	return send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// SENDING
// =============================================================================

func TestSubmitAppendsReply(t *testing.T) {
	m, h := newHarness(t, echoCompleter("  ahoy there  "))

	m, cmd := typeAndSend(t, m, "hello")
	require.NotNil(t, cmd)
	assert.True(t, h.ctrl.Busy())
	assert.Empty(t, m.input.Value(), "input should be cleared after sending")

	m = step(t, m, findReply(t, cmd))

	assert.False(t, h.ctrl.Busy())
	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "hello", snap.Messages[1].Text)
	assert.Equal(t, "ahoy there", snap.Messages[2].Text)
	assert.Contains(t, m.View(), "hello")

	stored := h.store.List()
	require.Len(t, stored, 1)
	assert.Equal(t, snap.ActiveID, stored[0].ID)
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	m, h := newHarness(t, echoCompleter("unused"))

	_, cmd := typeAndSend(t, m, "   ")

	assert.Nil(t, cmd)
	assert.False(t, h.ctrl.Busy())
	assert.Len(t, h.ctrl.Snapshot().Messages, 1)
}

func TestSubmitWhileBusyKeepsInput(t *testing.T) {
	m, h := newHarness(t, echoCompleter("first"))

	m, first := typeAndSend(t, m, "one")
	require.NotNil(t, first)

	m, second := typeAndSend(t, m, "two")
	assert.Nil(t, second)
	assert.Equal(t, "two", m.input.Value())
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "waiting")

	m = step(t, m, findReply(t, first))
	assert.False(t, h.ctrl.Busy())
	assert.Len(t, h.ctrl.Snapshot().Messages, 3)
}

func TestFailedReplyShowsFallbackAndError(t *testing.T) {
	failing := core.CompleterFunc(func(context.Context, string) (string, error) {
		return "", fmt.Errorf("wrapped: %w", cloud.ErrAuthFailed)
	})
	m, h := newHarness(t, failing)

	m, cmd := typeAndSend(t, m, "hello")
	m = step(t, m, findReply(t, cmd))

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, model.FailureReplyText, snap.Messages[2].Text)
	assert.True(t, m.statusErr)
	assert.Equal(t, "The API rejected the key", m.status)
}

func TestStaleReplyAfterNewChat(t *testing.T) {
	m, h := newHarness(t, echoCompleter("late"))

	m, cmd := typeAndSend(t, m, "question")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m = step(t, m, findReply(t, cmd))

	snap := h.ctrl.Snapshot()
	assert.Empty(t, snap.ActiveID)
	assert.Len(t, snap.Messages, 1, "live view shows only the greeting")
	assert.Contains(t, m.status, "earlier conversation")

	stored := h.store.List()
	require.Len(t, stored, 1)
	require.Len(t, stored[0].Messages, 3)
	assert.Equal(t, "late", stored[0].Messages[2].Text)
}

// =============================================================================
// PANELS
// =============================================================================

func TestSettingsPanelSetsPirateStyle(t *testing.T) {
	m, h := newHarness(t, echoCompleter("arr"))

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	require.Equal(t, modeSettings, m.mode)
	assert.Equal(t, len(core.StyleOptions), m.cursor, "cursor starts on the clear entry when no style is set")
	assert.Contains(t, m.View(), "Reply style")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, modeChat, m.mode)
	assert.Equal(t, core.PirateStyle, h.ctrl.Style())
	stored, ok := h.store.StylePreference(context.Background())
	assert.True(t, ok)
	assert.Equal(t, core.PirateStyle, stored)
	assert.Contains(t, m.View(), core.PirateStyle)
}

func TestSettingsPanelClearsStyle(t *testing.T) {
	m, h := newHarness(t, echoCompleter("hej"))
	require.NoError(t, h.ctrl.SetStyle(context.Background(), "Swedish"))

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, 1, m.cursor, "cursor starts on the current style")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, h.ctrl.Style())
	_, ok := h.store.StylePreference(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "Style cleared", m.status)
}

func TestSettingsPanelEscapeLeavesStyle(t *testing.T) {
	m, h := newHarness(t, echoCompleter(""))

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, modeChat, m.mode)
	assert.Empty(t, h.ctrl.Style())
}

func TestHistoryPanelOpensConversation(t *testing.T) {
	m, h := newHarness(t, echoCompleter("reply"))
	ctx := context.Background()

	_, err := h.ctrl.Submit(ctx, "older")
	require.NoError(t, err)
	olderID := h.ctrl.Snapshot().ActiveID
	h.ctrl.StartNew()
	_, err = h.ctrl.Submit(ctx, "newer")
	require.NoError(t, err)
	h.ctrl.StartNew()

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.Equal(t, modeHistory, m.mode)
	require.Len(t, m.history, 2)
	assert.Equal(t, "newer", m.history[0].Messages[1].Text, "newest first")

	m = step(t, m, keyRunes("j"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, modeChat, m.mode)
	assert.Equal(t, olderID, h.ctrl.Snapshot().ActiveID)
	assert.Contains(t, m.View(), "older")
}

func TestHistoryPanelDeletesActiveConversation(t *testing.T) {
	m, h := newHarness(t, echoCompleter("reply"))

	_, err := h.ctrl.Submit(context.Background(), "doomed")
	require.NoError(t, err)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.Len(t, m.history, 1)

	m = step(t, m, keyRunes("d"))
	m = step(t, m, keyRunes("y"))

	assert.Empty(t, m.history)
	assert.Empty(t, h.store.List())
	snap := h.ctrl.Snapshot()
	assert.Empty(t, snap.ActiveID)
	require.Len(t, snap.Messages, 1)
	assert.True(t, snap.Messages[0].IsGreeting())
	assert.Contains(t, m.View(), "No saved conversations yet")
}

func TestHistoryPanelDeleteNeedsConfirmation(t *testing.T) {
	m, h := newHarness(t, echoCompleter("reply"))

	_, err := h.ctrl.Submit(context.Background(), "keep me")
	require.NoError(t, err)
	activeID := h.ctrl.Snapshot().ActiveID

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m = step(t, m, keyRunes("d"))

	assert.Len(t, h.store.List(), 1, "one press must not delete")
	assert.Equal(t, activeID, m.pendingDelete)
	assert.Contains(t, m.View(), "Are you sure you want to delete this conversation?")

	m = step(t, m, keyRunes("n"))

	assert.Empty(t, m.pendingDelete)
	assert.Len(t, h.store.List(), 1)
	assert.Len(t, m.history, 1)
	assert.Equal(t, activeID, h.ctrl.Snapshot().ActiveID)
	assert.Equal(t, "Delete cancelled", m.status)
	assert.Equal(t, modeHistory, m.mode)
}

func TestHistoryPanelEscapeCancelsDelete(t *testing.T) {
	m, h := newHarness(t, echoCompleter("reply"))

	_, err := h.ctrl.Submit(context.Background(), "keep me")
	require.NoError(t, err)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m = step(t, m, keyRunes("d"))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Len(t, h.store.List(), 1)
	assert.Equal(t, modeHistory, m.mode, "esc only cancels the pending delete")

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeChat, m.mode)
}

func TestStoreChangeRefreshesHistory(t *testing.T) {
	m, h := newHarness(t, echoCompleter(""))
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.Empty(t, m.history)

	other := storage.NewConversationStore(h.backend, testLogger())
	conv := model.NewConversationWithID("external", time.Now())
	conv.Messages = append(conv.Messages, model.NewUserMessage("from elsewhere"))
	require.NoError(t, other.Upsert(context.Background(), conv))

	m, cmd := send(t, m, storeChangedMsg{})
	assert.Nil(t, cmd, "no channel means no re-arm")
	require.Len(t, m.history, 1)
	assert.Equal(t, "external", m.history[0].ID)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestQuitCancelsContext(t *testing.T) {
	m, _ := newHarness(t, echoCompleter(""))

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err())
}

func TestReplyAfterQuitIsIgnored(t *testing.T) {
	m, h := newHarness(t, echoCompleter("too late"))

	m, cmd := typeAndSend(t, m, "hello")
	reply := findReply(t, cmd)
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	step(t, m, reply)

	assert.Len(t, h.ctrl.Snapshot().Messages, 2)
}

func TestViewBeforeResize(t *testing.T) {
	store := storage.NewConversationStore(storage.NewMemoryBackend(), testLogger())
	ctrl := core.New(context.Background(), store, echoCompleter(""), core.WithLogger(testLogger()))
	m := New(Options{Controller: ctrl, Completer: echoCompleter(""), Logger: testLogger()})

	assert.Equal(t, "Loading...", m.View())
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{cloud.ErrNotConfigured, "No API key"},
		{fmt.Errorf("x: %w", cloud.ErrAuthFailed), "rejected the key"},
		{cloud.ErrRateLimited, "Rate limited"},
		{cloud.ErrModelNotFound, "Model not found"},
		{context.Canceled, "cancelled"},
		{errors.New("boom"), "Request failed: boom"},
	}
	for _, tt := range tests {
		got := describeError(tt.err)
		if !strings.Contains(got, tt.want) {
			t.Errorf("describeError(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}

func TestMoveCursorWraps(t *testing.T) {
	assert.Equal(t, 2, moveCursor(0, -1, 3))
	assert.Equal(t, 0, moveCursor(2, 1, 3))
	assert.Equal(t, 0, moveCursor(5, 1, 0))
}
