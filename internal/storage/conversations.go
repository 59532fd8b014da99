// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/jeranaias/mobileai/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore holds the saved conversations and the style preference.
//
// The collection is cached in memory after the first Load and written back
// in full on every mutation. Writers are serialized by a mutex; against
// other processes sharing the backend the last write wins.
type ConversationStore struct {
	backend Backend
	logger  *slog.Logger

	mu            sync.Mutex
	conversations []model.Conversation
	loaded        bool
}

// NewConversationStore creates a store over backend. A nil logger means
// slog.Default().
func NewConversationStore(backend Backend, logger *slog.Logger) *ConversationStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationStore{
		backend: backend,
		logger:  logger.With("component", "storage"),
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load reads the persisted collection and returns it in stored order.
//
// Read or decode failures are logged and yield an empty collection; Load
// never fails.
func (s *ConversationStore) Load(ctx context.Context) []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = s.readLocked(ctx)
	s.loaded = true
	return cloneAll(s.conversations)
}

// List returns the cached collection in stored order (oldest first).
func (s *ConversationStore) List() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(context.Background())
	return cloneAll(s.conversations)
}

// Get returns the cached conversation with id.
func (s *ConversationStore) Get(id string) (model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(context.Background())

	if i := s.indexLocked(id); i >= 0 {
		return s.conversations[i].Clone(), true
	}
	return model.Conversation{}, false
}

// Resolve finds a conversation by full id, unique id prefix, or 1-based
// position in List order.
func (s *ConversationStore) Resolve(ref string) (model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(context.Background())

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Conversation{}, ErrConversationNotFound
	}
	if i := s.indexLocked(ref); i >= 0 {
		return s.conversations[i].Clone(), nil
	}

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(s.conversations) {
		return s.conversations[n-1].Clone(), nil
	}

	match := -1
	for i, c := range s.conversations {
		if strings.HasPrefix(c.ID, ref) {
			if match >= 0 {
				return model.Conversation{}, &ConversationError{Message: "ambiguous conversation reference " + ref}
			}
			match = i
		}
	}
	if match < 0 {
		return model.Conversation{}, ErrConversationNotFound
	}
	return s.conversations[match].Clone(), nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Upsert replaces any conversation with the same id and appends conv at the
// end of the collection, then persists the full collection.
//
// The cache is updated even when the write fails; the returned error is the
// write error and is meant to be logged.
func (s *ConversationStore) Upsert(ctx context.Context, conv model.Conversation) error {
	if conv.ID == "" {
		return &ConversationError{Message: "conversation id must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	filtered := make([]model.Conversation, 0, len(s.conversations)+1)
	for _, c := range s.conversations {
		if c.ID != conv.ID {
			filtered = append(filtered, c)
		}
	}
	s.conversations = append(filtered, conv.Clone())

	return s.persistLocked(ctx)
}

// Delete removes the conversation with id and persists the result.
// Returns ErrConversationNotFound, without writing, when id is unknown.
func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)

	i := s.indexLocked(id)
	if i < 0 {
		return ErrConversationNotFound
	}
	s.conversations = append(s.conversations[:i:i], s.conversations[i+1:]...)

	return s.persistLocked(ctx)
}

// Clear removes every saved conversation.
func (s *ConversationStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = nil
	s.loaded = true
	if err := s.backend.Delete(ctx, KeyConversations); err != nil {
		return fmt.Errorf("clear conversations: %w", err)
	}
	return nil
}

// =============================================================================
// STYLE PREFERENCE
// =============================================================================

// StylePreference returns the persisted style preference. Read failures
// are logged and reported as unset.
func (s *ConversationStore) StylePreference(ctx context.Context) (string, bool) {
	v, ok, err := s.backend.Get(ctx, KeyStylePreference)
	if err != nil {
		s.logger.Warn("failed to load style preference", "error", err)
		return "", false
	}
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// SetStylePreference persists value. A blank value clears the preference.
func (s *ConversationStore) SetStylePreference(ctx context.Context, value string) error {
	if strings.TrimSpace(value) == "" {
		return s.ClearStylePreference(ctx)
	}
	if err := s.backend.Set(ctx, KeyStylePreference, value); err != nil {
		return fmt.Errorf("save style preference: %w", err)
	}
	return nil
}

// ClearStylePreference removes the persisted style preference.
func (s *ConversationStore) ClearStylePreference(ctx context.Context) error {
	if err := s.backend.Delete(ctx, KeyStylePreference); err != nil {
		return fmt.Errorf("clear style preference: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (s *ConversationStore) ensureLoadedLocked(ctx context.Context) {
	if !s.loaded {
		s.conversations = s.readLocked(ctx)
		s.loaded = true
	}
}

func (s *ConversationStore) readLocked(ctx context.Context) []model.Conversation {
	raw, ok, err := s.backend.Get(ctx, KeyConversations)
	if err != nil {
		s.logger.Warn("failed to read conversations, starting empty", "error", err)
		return nil
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}

	var convs []model.Conversation
	if err := json.Unmarshal([]byte(raw), &convs); err != nil {
		s.logger.Warn("failed to decode conversations, starting empty", "error", err)
		return nil
	}
	s.logger.Debug("loaded conversations", "count", len(convs))
	return convs
}

func (s *ConversationStore) persistLocked(ctx context.Context) error {
	convs := s.conversations
	if convs == nil {
		convs = []model.Conversation{}
	}
	data, err := json.Marshal(convs)
	if err != nil {
		return fmt.Errorf("encode conversations: %w", err)
	}
	if err := s.backend.Set(ctx, KeyConversations, string(data)); err != nil {
		return fmt.Errorf("save conversations: %w", err)
	}
	return nil
}

func (s *ConversationStore) indexLocked(id string) int {
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(convs []model.Conversation) []model.Conversation {
	out := make([]model.Conversation, len(convs))
	for i, c := range convs {
		out[i] = c.Clone()
	}
	return out
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
