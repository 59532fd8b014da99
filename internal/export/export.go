// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/mobileai/internal/model"
	"github.com/jeranaias/mobileai/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a conversation to the target format.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the file extension, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type of the exported format.
	MimeType() string
}

// Format names accepted by ForFormat.
const (
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// ForFormat returns the exporter for a format name ("md", "markdown" or
// "json").
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", FormatMarkdown, "markdown":
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want md or json)", format)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where ExportToFile writes when OutputPath is empty.
	// Default: current working directory
	OutputDir string

	// OutputPath is an explicit destination file.
	OutputPath string

	// IncludeMetadata adds a metadata header.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// IncludeGreeting keeps the fixed greeting in the transcript.
	IncludeGreeting bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports conv with exporter and returns the written path.
// Files are created with 0600 permissions since they hold chat history.
func ExportToFile(conv *model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		dir := opts.OutputDir
		if dir == "" {
			dir = "."
		}
		filename := fmt.Sprintf("conversation_%s_%s%s",
			sanitizeFilename(conv.Title),
			time.Now().Format("20060102_150405"),
			exporter.FileExtension(),
		)
		outputPath = filepath.Join(dir, filename)
	}

	if err := util.AtomicWriteFile(outputPath, content, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// WriteTo exports conv to w, e.g. stdout.
func WriteTo(w io.Writer, conv *model.Conversation, exporter Exporter) error {
	content, err := exporter.Export(conv)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	_, err = w.Write(content)
	return err
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunes(s, 50)

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|,`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "conversation"
	}
	return b.String()
}

// visibleMessages drops the greeting unless opts asks for it.
func visibleMessages(conv *model.Conversation, opts *Options) []model.Message {
	if opts.IncludeGreeting {
		return conv.Messages
	}
	out := make([]model.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		if !m.IsGreeting() {
			out = append(out, m)
		}
	}
	return out
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Local().Format("15:04:05")
}
