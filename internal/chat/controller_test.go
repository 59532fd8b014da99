// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/mobileai/internal/model"
	"github.com/jeranaias/mobileai/internal/storage"
)

// fakeCompleter records prompts and answers with a fixed reply or error.
type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// failingBackend accepts reads but rejects every write.
type failingBackend struct {
	*storage.MemoryBackend
}

func (failingBackend) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

// ctxBackend rejects operations on a done context, like database/sql does.
type ctxBackend struct {
	*storage.MemoryBackend
}

func (b ctxBackend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.MemoryBackend.Set(ctx, key, value)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newController(t *testing.T, comp Completer) (*Controller, *storage.ConversationStore) {
	t.Helper()
	store := storage.NewConversationStore(storage.NewMemoryBackend(), quietLogger())
	return New(context.Background(), store, comp, WithLogger(quietLogger())), store
}

func texts(msgs []model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_CancelledRequestIsSaved(t *testing.T) {
	backend := ctxBackend{storage.NewMemoryBackend()}
	store := storage.NewConversationStore(backend, quietLogger())
	comp := CompleterFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	ctrl := New(context.Background(), store, comp, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex, err := ctrl.Submit(ctx, "never answered")
	require.NoError(t, err)
	assert.ErrorIs(t, ex.Err, context.Canceled)

	// Read back from the backend, not the cache.
	fresh := storage.NewConversationStore(backend, quietLogger())
	convs := fresh.Load(context.Background())
	require.Len(t, convs, 1)
	assert.Equal(t, []string{model.GreetingText, "never answered", model.FailureReplyText}, texts(convs[0].Messages))
}

func TestSubmit_EmptyInput(t *testing.T) {
	comp := &fakeCompleter{reply: "x"}
	ctrl, store := newController(t, comp)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := ctrl.Submit(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}

	assert.Equal(t, 0, comp.calls())
	assert.Equal(t, []string{model.GreetingText}, texts(ctrl.Snapshot().Messages))
	assert.Empty(t, store.List())
}

func TestSubmit_TrimmedReplyPersisted(t *testing.T) {
	comp := &fakeCompleter{reply: " Hi there! "}
	ctrl, store := newController(t, comp)

	ex, err := ctrl.Submit(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", ex.Reply.Text)
	assert.False(t, ex.Stale)
	assert.NoError(t, ex.Err)

	snap := ctrl.Snapshot()
	assert.Equal(t, []string{model.GreetingText, "Hello", "Hi there!"}, texts(snap.Messages))
	assert.Equal(t, model.SenderUser, snap.Messages[1].Sender)
	assert.Equal(t, model.SenderBot, snap.Messages[2].Sender)
	assert.NotEmpty(t, snap.ActiveID)
	assert.Equal(t, StateIdle, snap.State)

	convs := store.List()
	require.Len(t, convs, 1)
	assert.Equal(t, snap.ActiveID, convs[0].ID)
	assert.Equal(t, texts(snap.Messages), texts(convs[0].Messages))
	assert.Contains(t, convs[0].Title, "Conversation ")
}

func TestSubmit_PromptStyles(t *testing.T) {
	tests := []struct {
		style string
		want  string
	}{
		{"", "Hello"},
		{"Finnish", "Hello Respond to this in Finnish"},
		{PirateStyle, "Hello Respond like a drunken pirate, ye scurvy dog!"},
		{"rap", "Hello Respond to this in rap"},
		{"sv", "Hello Respond to this in Swedish"},
	}
	for _, tt := range tests {
		comp := &fakeCompleter{reply: "ok"}
		ctrl, _ := newController(t, comp)
		if tt.style != "" {
			require.NoError(t, ctrl.SetStyle(context.Background(), tt.style))
		}

		_, err := ctrl.Submit(context.Background(), "Hello")
		require.NoError(t, err)
		require.Len(t, comp.prompts, 1)
		assert.Equal(t, tt.want, comp.prompts[0])

		// The stored user message is the text as typed, without the suffix.
		assert.Equal(t, "Hello", ctrl.Snapshot().Messages[1].Text)
	}
}

func TestSubmit_EmptyReplyFallback(t *testing.T) {
	ctrl, store := newController(t, &fakeCompleter{reply: "   "})

	ex, err := ctrl.Submit(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, model.EmptyReplyText, ex.Reply.Text)
	assert.Equal(t, model.EmptyReplyText, store.List()[0].Messages[2].Text)
}

func TestSubmit_FailureFallbackPersisted(t *testing.T) {
	cerr := errors.New("connection refused")
	ctrl, store := newController(t, &fakeCompleter{err: cerr})

	ex, err := ctrl.Submit(context.Background(), "Hello")
	require.NoError(t, err, "completion failures are not returned")
	assert.Equal(t, model.FailureReplyText, ex.Reply.Text)
	assert.ErrorIs(t, ex.Err, cerr)

	convs := store.List()
	require.Len(t, convs, 1)
	assert.Equal(t, []string{model.GreetingText, "Hello", model.FailureReplyText}, texts(convs[0].Messages))
}

func TestSubmit_SameConversationUpserted(t *testing.T) {
	ctrl, store := newController(t, &fakeCompleter{reply: "r"})
	ctx := context.Background()

	_, err := ctrl.Submit(ctx, "one")
	require.NoError(t, err)
	_, err = ctrl.Submit(ctx, "two")
	require.NoError(t, err)

	convs := store.List()
	require.Len(t, convs, 1)
	assert.Len(t, convs[0].Messages, 5)
}

func TestSubmit_WriteFailureKeepsMemory(t *testing.T) {
	store := storage.NewConversationStore(failingBackend{storage.NewMemoryBackend()}, quietLogger())
	ctrl := New(context.Background(), store, &fakeCompleter{reply: "r"}, WithLogger(quietLogger()))

	_, err := ctrl.Submit(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, []string{model.GreetingText, "Hello", "r"}, texts(ctrl.Snapshot().Messages))
}

// =============================================================================
// SESSION NAVIGATION TESTS
// =============================================================================

func TestStartNew(t *testing.T) {
	ctrl, store := newController(t, &fakeCompleter{reply: "r"})
	ctx := context.Background()

	_, err := ctrl.Submit(ctx, "first")
	require.NoError(t, err)
	firstID := ctrl.Snapshot().ActiveID

	ctrl.StartNew()
	snap := ctrl.Snapshot()
	assert.Empty(t, snap.ActiveID)
	require.Len(t, snap.Messages, 1)
	assert.True(t, snap.Messages[0].IsGreeting())

	_, err = ctrl.Submit(ctx, "second")
	require.NoError(t, err)
	assert.NotEqual(t, firstID, ctrl.Snapshot().ActiveID)
	assert.Len(t, store.List(), 2)
}

func TestLoadExisting(t *testing.T) {
	ctrl, _ := newController(t, &fakeCompleter{reply: "r"})
	ctx := context.Background()

	_, err := ctrl.Submit(ctx, "remember me")
	require.NoError(t, err)
	id := ctrl.Snapshot().ActiveID
	ctrl.StartNew()

	assert.False(t, ctrl.LoadExisting("nope"))
	assert.Empty(t, ctrl.Snapshot().ActiveID, "unknown id must not change state")

	require.True(t, ctrl.LoadExisting(id))
	snap := ctrl.Snapshot()
	assert.Equal(t, id, snap.ActiveID)
	assert.Equal(t, []string{model.GreetingText, "remember me", "r"}, texts(snap.Messages))

	// Continuing a loaded conversation extends it in place.
	_, err = ctrl.Submit(ctx, "more")
	require.NoError(t, err)
	assert.Len(t, ctrl.Conversations(), 1)
	assert.Len(t, ctrl.Conversations()[0].Messages, 5)
}

func TestDeleteConversation(t *testing.T) {
	ctrl, store := newController(t, &fakeCompleter{reply: "r"})
	ctx := context.Background()

	_, err := ctrl.Submit(ctx, "a")
	require.NoError(t, err)
	id := ctrl.Snapshot().ActiveID

	require.NoError(t, ctrl.DeleteConversation(ctx, id))
	assert.Empty(t, store.List())
	assert.Empty(t, ctrl.Snapshot().ActiveID, "deleting the active conversation resets")

	assert.NoError(t, ctrl.DeleteConversation(ctx, "unknown"))
}

func TestDeleteConversation_Inactive(t *testing.T) {
	ctrl, _ := newController(t, &fakeCompleter{reply: "r"})
	ctx := context.Background()

	_, _ = ctrl.Submit(ctx, "a")
	oldID := ctrl.Snapshot().ActiveID
	ctrl.StartNew()
	_, _ = ctrl.Submit(ctx, "b")
	activeID := ctrl.Snapshot().ActiveID

	require.NoError(t, ctrl.DeleteConversation(ctx, oldID))
	assert.Equal(t, activeID, ctrl.Snapshot().ActiveID)
	assert.Len(t, ctrl.Conversations(), 1)
}

// =============================================================================
// STYLE TESTS
// =============================================================================

func TestStylePersistsAcrossControllers(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ctx := context.Background()

	store := storage.NewConversationStore(backend, quietLogger())
	ctrl := New(ctx, store, &fakeCompleter{}, WithLogger(quietLogger()))
	require.NoError(t, ctrl.SetStyle(ctx, "swedish"))
	assert.Equal(t, "Swedish", ctrl.Style())

	again := New(ctx, storage.NewConversationStore(backend, quietLogger()), &fakeCompleter{}, WithLogger(quietLogger()))
	assert.Equal(t, "Swedish", again.Style())

	require.NoError(t, again.ClearStyle(ctx))
	assert.Empty(t, again.Style())
	_, ok := store.StylePreference(ctx)
	assert.False(t, ok)
}

func TestSetStyleBlankClears(t *testing.T) {
	ctrl, store := newController(t, &fakeCompleter{})
	ctx := context.Background()
	require.NoError(t, ctrl.SetStyle(ctx, "Finnish"))
	require.NoError(t, ctrl.SetStyle(ctx, "  "))
	assert.Empty(t, ctrl.Style())
	_, ok := store.StylePreference(ctx)
	assert.False(t, ok)
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestBegin_Busy(t *testing.T) {
	ctrl, _ := newController(t, &fakeCompleter{})
	ctx := context.Background()

	p, err := ctrl.Begin("first")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingReply, ctrl.Snapshot().State)

	_, err = ctrl.Begin("second")
	assert.ErrorIs(t, err, ErrBusy)

	// StartNew does not release the gate.
	ctrl.StartNew()
	_, err = ctrl.Begin("third")
	assert.ErrorIs(t, err, ErrBusy)

	ctrl.Finish(ctx, p, "done", nil)
	assert.False(t, ctrl.Busy())
	_, err = ctrl.Begin("fourth")
	assert.NoError(t, err)
}

func TestFinish_StaleReplyAfterStartNew(t *testing.T) {
	ctrl, store := newController(t, &fakeCompleter{})
	ctx := context.Background()

	p, err := ctrl.Begin("question")
	require.NoError(t, err)
	origin := p.ConversationID

	ctrl.StartNew()
	ex := ctrl.Finish(ctx, p, "late answer", nil)
	assert.True(t, ex.Stale)

	snap := ctrl.Snapshot()
	assert.Equal(t, []string{model.GreetingText}, texts(snap.Messages), "live view untouched")

	conv, ok := store.Get(origin)
	require.True(t, ok, "reply persisted to originating conversation")
	assert.Equal(t, []string{model.GreetingText, "question", "late answer"}, texts(conv.Messages))
}

func TestFinish_StaleReplyAfterLoadingOther(t *testing.T) {
	ctrl, store := newController(t, &fakeCompleter{reply: "r"})
	ctx := context.Background()

	_, err := ctrl.Submit(ctx, "other")
	require.NoError(t, err)
	otherID := ctrl.Snapshot().ActiveID
	ctrl.StartNew()

	_, _ = ctrl.Submit(ctx, "mine")
	mineID := ctrl.Snapshot().ActiveID

	p, err := ctrl.Begin("follow up")
	require.NoError(t, err)
	require.True(t, ctrl.LoadExisting(otherID))

	ex := ctrl.Finish(ctx, p, "late", nil)
	assert.True(t, ex.Stale)
	assert.Equal(t, []string{model.GreetingText, "other", "r"}, texts(ctrl.Snapshot().Messages))

	mine, ok := store.Get(mineID)
	require.True(t, ok)
	assert.Equal(t, []string{model.GreetingText, "mine", "r", "follow up", "late"}, texts(mine.Messages))
}

func TestFinish_StaleReplyForDeletedConversation(t *testing.T) {
	ctrl, store := newController(t, &fakeCompleter{reply: "r"})
	ctx := context.Background()

	_, _ = ctrl.Submit(ctx, "hello")
	id := ctrl.Snapshot().ActiveID

	p, err := ctrl.Begin("again")
	require.NoError(t, err)
	require.NoError(t, ctrl.DeleteConversation(ctx, id))

	ex := ctrl.Finish(ctx, p, "late", nil)
	assert.True(t, ex.Stale)
	_, ok := store.Get(id)
	assert.False(t, ok, "deleted conversation must not be resurrected")
}

func TestController_ConcurrentSubmit(t *testing.T) {
	ctrl, store := newController(t, &fakeCompleter{reply: "r"})
	ctx := context.Background()

	var wg sync.WaitGroup
	var okCount, busyCount int
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctrl.Submit(ctx, "hi")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, ErrBusy):
				busyCount++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, okCount+busyCount)
	convs := store.List()
	require.Len(t, convs, 1)
	assert.Len(t, convs[0].Messages, 1+2*okCount)
}
