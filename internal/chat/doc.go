// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat owns the live chat session.
//
// A Controller holds the active conversation id, the visible message list
// and the style preference. It turns user input into a prompt, asks a
// Completer for the reply, appends both messages and has the store persist
// the conversation.
//
// # State Machine
//
// The controller is either Idle or AwaitingReply. Only one request may be
// in flight; Begin returns ErrBusy otherwise. A reply that arrives after
// the user switched conversations is written to the conversation it was
// asked in, and the live list is left alone.
//
// # Usage
//
//	ctrl := chat.New(ctx, store, client, chat.WithLogger(logger))
//	ex, err := ctrl.Submit(ctx, "Hello")
//
// Front ends that must not block, such as the TUI, call Begin and Finish
// themselves and run the completion call in between.
package chat
