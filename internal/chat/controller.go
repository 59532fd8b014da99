// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/mobileai/internal/model"
	"github.com/jeranaias/mobileai/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyInput is returned when the submitted text is blank.
	ErrEmptyInput = errors.New("empty input")

	// ErrBusy is returned when a reply is still pending.
	ErrBusy = errors.New("a reply is still pending")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Store is the persistence the controller needs. *storage.ConversationStore
// implements it.
type Store interface {
	Load(ctx context.Context) []model.Conversation
	List() []model.Conversation
	Get(id string) (model.Conversation, bool)
	Upsert(ctx context.Context, conv model.Conversation) error
	Delete(ctx context.Context, id string) error
	StylePreference(ctx context.Context) (string, bool)
	SetStylePreference(ctx context.Context, value string) error
	ClearStylePreference(ctx context.Context) error
}

// Completer produces a reply for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// =============================================================================
// STATE
// =============================================================================

// State is the controller's request state.
type State int

const (
	// StateIdle means no request is in flight.
	StateIdle State = iota
	// StateAwaitingReply means a prompt was sent and no reply has arrived.
	StateAwaitingReply
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting-reply"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the controller state. It shares no memory with
// the controller.
type Session struct {
	ActiveID string
	Messages []model.Message
	Style    string
	State    State
}

// Pending is a request started by Begin and not yet finished.
type Pending struct {
	// ConversationID is the conversation the prompt was asked in.
	ConversationID string
	// Prompt is the text to send, style suffix included.
	Prompt string
	// User is the user message appended by Begin.
	User model.Message

	base      []model.Message
	createdAt time.Time
	persisted bool
}

// Exchange is the result of one request.
type Exchange struct {
	ConversationID string
	User           model.Message
	Reply          model.Message

	// Stale is true when the user had switched conversations before the
	// reply arrived.
	Stale bool

	// Err is the completion error that produced a fallback reply, if any.
	Err error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the live conversation. It is safe for concurrent use.
type Controller struct {
	store     Store
	completer Completer
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	activeID  string
	createdAt time.Time
	messages  []model.Message
	style     string
	pending   *Pending
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New loads the store and the style preference and starts on a fresh
// conversation showing the greeting.
func New(ctx context.Context, store Store, completer Completer, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		completer: completer,
		logger:    slog.Default(),
		now:       time.Now,
		messages:  model.GreetingList(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "chat")

	convs := store.Load(ctx)
	if style, ok := store.StylePreference(ctx); ok {
		c.style = style
	}
	c.logger.Debug("session started", "conversations", len(convs), "style", c.style)
	return c
}

// Submit runs a whole exchange: Begin, the completion call, Finish.
// Completion failures become a fallback reply and are reported through
// Exchange.Err, not the returned error.
func (c *Controller) Submit(ctx context.Context, text string) (Exchange, error) {
	p, err := c.Begin(text)
	if err != nil {
		return Exchange{}, err
	}
	reply, cerr := c.completer.Complete(ctx, p.Prompt)
	return c.Finish(ctx, p, reply, cerr), nil
}

// Begin appends the user message and returns the request to send.
//
// Blank text yields ErrEmptyInput and changes nothing. A second Begin
// before Finish yields ErrBusy.
func (c *Controller) Begin(text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return nil, ErrBusy
	}

	if c.activeID == "" {
		c.activeID = model.NewID()
		c.createdAt = c.now()
	}
	_, persisted := c.store.Get(c.activeID)

	user := model.NewUserMessage(text)
	user.CreatedAt = c.now()
	c.messages = append(c.messages, user)

	c.pending = &Pending{
		ConversationID: c.activeID,
		Prompt:         BuildPrompt(text, c.style),
		User:           user,
		base:           model.CloneMessages(c.messages),
		createdAt:      c.createdAt,
		persisted:      persisted,
	}
	c.logger.Debug("request started", "conversation", c.activeID, "prompt_len", len(c.pending.Prompt))
	return c.pending, nil
}

// Finish records the outcome of p and returns the exchange.
//
// reply is trimmed; an empty reply becomes the empty-reply fallback and a
// non-nil cerr becomes the failure fallback. The conversation is upserted
// into the store; write errors are logged. The save ignores cancellation of
// ctx, so a cancelled request is still recorded.
func (c *Controller) Finish(ctx context.Context, p *Pending, reply string, cerr error) Exchange {
	ctx = context.WithoutCancel(ctx)
	text := strings.TrimSpace(reply)
	switch {
	case cerr != nil:
		c.logger.Error("completion failed", "conversation", p.ConversationID, "error", cerr)
		text = model.FailureReplyText
	case text == "":
		c.logger.Warn("empty completion", "conversation", p.ConversationID)
		text = model.EmptyReplyText
	}
	bot := model.NewBotMessage(text)
	bot.CreatedAt = c.now()

	ex := Exchange{
		ConversationID: p.ConversationID,
		User:           p.User,
		Reply:          bot,
		Err:            cerr,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == p {
		c.pending = nil
	}

	if p.ConversationID == c.activeID {
		if !model.ContainsMessage(c.messages, p.User.ID) {
			c.messages = append(c.messages, p.User)
		}
		c.messages = append(c.messages, bot)
		c.persistLocked(ctx, p.ConversationID, c.createdAt, c.messages)
		return ex
	}

	ex.Stale = true
	if p.persisted {
		if _, ok := c.store.Get(p.ConversationID); !ok {
			c.logger.Info("dropping reply for deleted conversation", "conversation", p.ConversationID)
			return ex
		}
	}
	msgs := append(model.CloneMessages(p.base), bot)
	c.logger.Info("reply arrived for inactive conversation", "conversation", p.ConversationID)
	c.persistLocked(ctx, p.ConversationID, p.createdAt, msgs)
	return ex
}

// StartNew clears the active conversation and shows only the greeting.
// A pending request keeps the controller busy until it finishes.
func (c *Controller) StartNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// LoadExisting makes the stored conversation id the active one. Unknown ids
// leave the state unchanged and return false.
func (c *Controller) LoadExisting(id string) bool {
	conv, ok := c.store.Get(id)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeID = conv.ID
	c.createdAt = conv.CreatedAt
	c.messages = model.CloneMessages(conv.Messages)
	if len(c.messages) == 0 {
		c.messages = model.GreetingList()
	}
	return true
}

// DeleteConversation removes id from the store. Deleting the active
// conversation resets the session like StartNew. Unknown ids are ignored.
func (c *Controller) DeleteConversation(ctx context.Context, id string) error {
	err := c.store.Delete(ctx, id)
	if errors.Is(err, storage.ErrConversationNotFound) {
		err = nil
	}
	if err != nil {
		c.logger.Error("failed to delete conversation", "conversation", id, "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != "" && id == c.activeID {
		c.resetLocked()
	}
	return err
}

// Conversations returns the saved conversations, oldest first.
func (c *Controller) Conversations() []model.Conversation {
	return c.store.List()
}

// Reload re-reads the store, for when another process changed it.
func (c *Controller) Reload(ctx context.Context) []model.Conversation {
	return c.store.Load(ctx)
}

// =============================================================================
// STYLE
// =============================================================================

// Style returns the current style preference, or "".
func (c *Controller) Style() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

// SetStyle normalizes v, uses it for later prompts and persists it. A blank
// value clears the preference. The in-memory value changes even if the
// write fails.
func (c *Controller) SetStyle(ctx context.Context, v string) error {
	v = NormalizeStyle(v)
	if v == "" {
		return c.ClearStyle(ctx)
	}

	c.mu.Lock()
	c.style = v
	c.mu.Unlock()

	if err := c.store.SetStylePreference(ctx, v); err != nil {
		c.logger.Error("failed to save style preference", "error", err)
		return err
	}
	return nil
}

// ClearStyle removes the style preference.
func (c *Controller) ClearStyle(ctx context.Context) error {
	c.mu.Lock()
	c.style = ""
	c.mu.Unlock()

	if err := c.store.ClearStylePreference(ctx); err != nil {
		c.logger.Error("failed to clear style preference", "error", err)
		return err
	}
	return nil
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := StateIdle
	if c.pending != nil {
		state = StateAwaitingReply
	}
	return Session{
		ActiveID: c.activeID,
		Messages: model.CloneMessages(c.messages),
		Style:    c.style,
		State:    state,
	}
}

// Busy reports whether a reply is pending.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (c *Controller) resetLocked() {
	c.activeID = ""
	c.createdAt = time.Time{}
	c.messages = model.GreetingList()
}

func (c *Controller) persistLocked(ctx context.Context, id string, createdAt time.Time, msgs []model.Message) {
	conv, ok := c.store.Get(id)
	if !ok {
		if createdAt.IsZero() {
			createdAt = c.now()
		}
		conv = model.NewConversationWithID(id, createdAt)
	}
	conv.Messages = model.CloneMessages(msgs)
	conv.UpdatedAt = c.now()

	if err := c.store.Upsert(ctx, conv); err != nil {
		c.logger.Error("failed to save conversation", "conversation", id, "error", err)
		return
	}
	c.logger.Debug("conversation saved", "conversation", id, "messages", len(msgs))
}
