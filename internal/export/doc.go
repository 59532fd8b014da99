// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved conversations out as files.
//
// # Key Types
//
//   - Exporter: converts a conversation to bytes
//   - MarkdownExporter: readable transcript with YAML frontmatter
//   - JSONExporter: the stored structure, indented
//   - Options: output directory, metadata and timestamps
//
// # Usage
//
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(conv, exp, &export.Options{OutputDir: "."})
package export
