// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable label for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Bot"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Fixed bot texts.
const (
	// GreetingID is the id of the greeting that opens every new conversation.
	GreetingID = "greeting"

	// GreetingText is shown when a conversation starts.
	GreetingText = "Hi! Ask me anything."

	// EmptyReplyText replaces a completion that came back without content.
	EmptyReplyText = "Sorry, I didn’t get that."

	// FailureReplyText replaces a completion that failed outright.
	FailureReplyText = "Oops, something went wrong."
)

// Message is a single chat message. Messages are values; nothing mutates
// one after creation.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewID returns a fresh time-ordered identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the system entropy source does.
		return uuid.NewString()
	}
	return id.String()
}

// NewUserMessage creates a user message with a fresh id.
func NewUserMessage(text string) Message {
	return Message{ID: NewID(), Sender: SenderUser, Text: text, CreatedAt: time.Now()}
}

// NewBotMessage creates a bot message with a fresh id.
func NewBotMessage(text string) Message {
	return Message{ID: NewID(), Sender: SenderBot, Text: text, CreatedAt: time.Now()}
}

// Greeting returns the fixed greeting message.
func Greeting() Message {
	return Message{ID: GreetingID, Sender: SenderBot, Text: GreetingText}
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// IsGreeting reports whether the message is the fixed greeting.
func (m Message) IsGreeting() bool {
	return m.ID == GreetingID
}

// GreetingList returns the message list of a fresh conversation.
func GreetingList() []Message {
	return []Message{Greeting()}
}

// ContainsMessage reports whether msgs holds a message with id.
func ContainsMessage(msgs []Message, id string) bool {
	for _, m := range msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}

// CloneMessages returns a copy of msgs that shares no backing array.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
