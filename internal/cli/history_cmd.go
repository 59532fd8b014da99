// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - saved conversation management.
//
// Command: history [list|show|delete|clear|export]
//
// Examples:
//
//	mobileai history
//	mobileai history show 3
//	mobileai history delete 0192f6c1
//	mobileai history export 3 --format json --out chat.json
//	mobileai history clear --yes
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/mobileai/internal/export"
	"github.com/jeranaias/mobileai/internal/model"
	"github.com/jeranaias/mobileai/internal/util"
)

// HandleHistory handles the "history" command.
func HandleHistory(args Args) {
	exitOnError(withRuntime(args, func(ctx context.Context, rt *Runtime) error {
		return HandleHistoryCommand(ctx, rt, args, os.Stdout)
	}))
}

// HandleHistoryCommand runs a history subcommand, writing to w.
func HandleHistoryCommand(ctx context.Context, rt *Runtime, args Args, w io.Writer) error {
	p := NewArgParser(args.Raw, "json", "yes", "y", "greeting")

	switch p.Subcommand() {
	case "", "list", "ls":
		if p.BoolFlag("json") {
			return writeHistoryJSON(w, rt.Store.List())
		}
		writeHistoryTable(w, rt.Store.List(), GetTerminalWidth())
		return nil

	case "show", "cat":
		conv, err := resolveConversation(rt, p.Positional(1))
		if err != nil {
			return err
		}
		printTranscript(w, conv, IsStdoutTTY())
		return nil

	case "delete", "rm":
		conv, err := resolveConversation(rt, p.Positional(1))
		if err != nil {
			return err
		}
		if err := rt.Store.Delete(ctx, conv.ID); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		fmt.Fprintln(w, RenderOK("Deleted "+conv.Title))
		return nil

	case "clear":
		n := len(rt.Store.List())
		if n == 0 {
			fmt.Fprintln(w, DimStyle.Render("No saved conversations."))
			return nil
		}
		if !p.BoolFlag("yes", "y") {
			return fmt.Errorf("refusing to delete %d conversations without --yes", n)
		}
		if err := rt.Store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(w, RenderOK(fmt.Sprintf("Deleted %d conversations", n)))
		return nil

	case "export":
		return exportConversation(rt, p, w)

	default:
		return fmt.Errorf("unknown history subcommand %q (want list, show, delete, clear or export)", p.Positional(0))
	}
}

// resolveConversation looks up a conversation by position, id or id prefix.
func resolveConversation(rt *Runtime, ref string) (model.Conversation, error) {
	if ref == "" {
		return model.Conversation{}, errors.New("conversation number or id required (see: mobileai history list)")
	}
	conv, err := rt.Store.Resolve(ref)
	if err != nil {
		return model.Conversation{}, fmt.Errorf("%s: %w", ref, err)
	}
	return conv, nil
}

// =============================================================================
// LIST
// =============================================================================

type historyEntry struct {
	Index     int       `json:"index"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  int       `json:"messages"`
	Preview   string    `json:"preview,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func writeHistoryJSON(w io.Writer, convs []model.Conversation) error {
	entries := make([]historyEntry, len(convs))
	for i, c := range convs {
		entries[i] = historyEntry{
			Index:     i + 1,
			ID:        c.ID,
			Title:     c.Title,
			Messages:  c.MessageCount(),
			Preview:   c.Preview(),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// writeHistoryTable prints conversations oldest first, numbered the way
// show, delete and export accept them.
func writeHistoryTable(w io.Writer, convs []model.Conversation, width int) {
	if len(convs) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No saved conversations."))
		return
	}

	const idWidth = 8
	headers := []string{"#", "ID", "Title", "Msgs", "First message"}
	rows := make([][]string, len(convs))
	for i, c := range convs {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			util.TruncateWidth(c.ID, idWidth),
			c.Title,
			strconv.Itoa(c.MessageCount()),
			c.Preview(),
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row)-1; i++ {
			if cw := runewidth.StringWidth(row[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	// The preview column takes what is left of the terminal width.
	used := 0
	for i := 0; i < len(widths)-1; i++ {
		used += widths[i] + 2
	}
	widths[len(widths)-1] = width - used
	if widths[len(widths)-1] < 10 {
		widths[len(widths)-1] = 10
	}

	writeRow := func(cells []string, render func(string) string) {
		line := ""
		for i, cell := range cells {
			cell = util.TruncateWidth(cell, widths[i])
			if i < len(cells)-1 {
				cell = util.PadRight(cell, widths[i]+2)
			}
			line += cell
		}
		fmt.Fprintln(w, render(line))
	}

	writeRow(headers, func(s string) string { return LabelStyle.Render(s) })
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func exportConversation(rt *Runtime, p *ArgParser, w io.Writer) error {
	conv, err := resolveConversation(rt, p.Positional(1))
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.IncludeGreeting = p.BoolFlag("greeting")
	out := p.FirstFlag("out", "o")

	exporter, err := export.ForFormat(p.FirstFlag("format", "f"), opts)
	if err != nil {
		return err
	}

	if out == "-" {
		return export.WriteTo(w, &conv, exporter)
	}
	opts.OutputPath = out

	path, err := export.ExportToFile(&conv, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, RenderOK("Exported to "+path))
	return nil
}
