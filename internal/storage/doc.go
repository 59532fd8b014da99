// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations and the style preference.
//
// Everything lives under two keys of a small key-value Backend:
//
//   - "conversations": JSON array of model.Conversation
//   - "preferredLanguage": the style preference, a plain string
//
// # Key Types
//
//   - Backend: key-value persistence (FileBackend, SQLiteBackend, MemoryBackend)
//   - ConversationStore: cached conversation collection with upsert-by-id
//
// # Usage
//
//	backend, err := storage.OpenBackend(storage.BackendFile, dataDir)
//	store := storage.NewConversationStore(backend, logger)
//	convs := store.Load(ctx)
//	err = store.Upsert(ctx, conv)
//
// # Storage Location
//
// By default data lives in ~/.mobileai/ as store.json or store.db.
package storage
