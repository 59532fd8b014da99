// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across mobileai packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file replacement (temp file, fsync, rename)
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, PadRight: display-width aware helpers for tables
//   - SingleLine: collapses whitespace for one-line previews
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	cell := util.PadRight(util.TruncateWidth(title, 30), 30)
package util
