// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud talks to a hosted chat-completions endpoint.
//
// Any OpenAI-compatible service works: OpenAI itself, OpenRouter, or a
// self-hosted gateway. Each call is single turn: one user message in, the
// first choice's text out.
//
// # Key Types
//
//   - Completer: the interface the chat controller depends on
//   - Client: go-openai backed Completer
//   - Config: credential, base URL, model and HTTP client
//
// # Usage
//
//	client, err := cloud.NewClient(cloud.Config{
//	    APIKey: cfg.API.APIKey,
//	    Model:  cfg.API.Model,
//	})
//	reply, err := client.Complete(ctx, "Hello")
//
// # Errors
//
// Failures are classified into ErrNotConfigured, ErrAuthFailed,
// ErrRateLimited and ErrModelNotFound where the status code allows it.
// Other failures are returned wrapped. Nothing is retried.
//
// The API key is never logged.
package cloud
