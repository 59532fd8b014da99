// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/mobileai/internal/util"
)

// TitleLayout formats conversation titles from their creation time.
const TitleLayout = "1/2/2006, 3:04:05 PM"

// Conversation is a saved, ordered sequence of messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversationWithID creates an empty conversation with the given id.
func NewConversationWithID(id string, now time.Time) Conversation {
	return Conversation{
		ID:        id,
		Title:     TitleFor(now),
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TitleFor returns the display title for a conversation created at t.
func TitleFor(t time.Time) string {
	return "Conversation " + t.Local().Format(TitleLayout)
}

// Clone returns a deep copy whose message slice can be modified freely.
func (c Conversation) Clone() Conversation {
	c.Messages = CloneMessages(c.Messages)
	return c
}

// MessageCount returns the number of messages.
func (c Conversation) MessageCount() int {
	return len(c.Messages)
}

// Preview returns the first user message, flattened to one line and
// truncated to 80 characters. Empty if the user never wrote anything.
func (c Conversation) Preview() string {
	for _, msg := range c.Messages {
		if msg.IsUser() && msg.Text != "" {
			return util.TruncateRunes(util.SingleLine(msg.Text), 80)
		}
	}
	return ""
}
