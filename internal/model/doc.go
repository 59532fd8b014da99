// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: an id, a display title and an ordered message list
//   - Message: a single user or bot message, immutable once created
//   - Sender: who wrote a message (user or bot)
//
// Ids are UUIDv7 strings, so sorting ids sorts by creation time.
//
// # Usage
//
//	conv := model.NewConversationWithID(model.NewID(), time.Now())
//	conv.Messages = append(conv.Messages, model.NewUserMessage("Hello"), model.NewBotMessage("Hi!"))
package model
