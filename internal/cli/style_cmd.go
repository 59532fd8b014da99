// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// style_cmd.go - reply style preference.
//
// Command: style [show|set <value>|clear|list]
//
// Examples:
//
//	mobileai style set Finnish
//	mobileai style set drunken pirate
//	mobileai style clear
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/mobileai/internal/chat"
)

// HandleStyle handles the "style" command.
func HandleStyle(args Args) {
	exitOnError(withRuntime(args, func(ctx context.Context, rt *Runtime) error {
		return HandleStyleCommand(ctx, rt, args, os.Stdout)
	}))
}

// HandleStyleCommand runs a style subcommand, writing to w.
func HandleStyleCommand(ctx context.Context, rt *Runtime, args Args, w io.Writer) error {
	p := NewArgParser(args.Raw)

	switch p.Subcommand() {
	case "", "show":
		fmt.Fprintf(w, "%s %s\n", RenderLabel("Style", 8), RenderStyleName(rt.Controller.Style()))
		return nil

	case "set":
		value := JoinPositionalArgs(p, 1)
		if value == "" {
			return errors.New("style value required, e.g. mobileai style set Finnish")
		}
		if err := setStyle(ctx, rt.Controller, value); err != nil {
			return err
		}
		fmt.Fprintln(w, RenderOK("Style set to "+RenderStyleName(rt.Controller.Style())))
		return nil

	case "clear", "none", "reset":
		if err := rt.Controller.ClearStyle(ctx); err != nil {
			return err
		}
		fmt.Fprintln(w, RenderOK("Style cleared"))
		return nil

	case "list", "options":
		writeStyleOptions(w, rt.Controller.Style())
		return nil

	default:
		return fmt.Errorf("unknown style subcommand %q (want show, set, clear or list)", p.Positional(0))
	}
}

// setStyle applies value, treating "clear" and "none" as clearing.
func setStyle(ctx context.Context, ctrl *chat.Controller, value string) error {
	switch value {
	case "clear", "none", "off":
		return ctrl.ClearStyle(ctx)
	}
	return ctrl.SetStyle(ctx, value)
}

func writeStyleOptions(w io.Writer, current string) {
	for _, opt := range chat.StyleOptions {
		marker := "  "
		if opt == current {
			marker = "* "
		}
		fmt.Fprintln(w, marker+RenderStyleName(opt))
	}
	fmt.Fprintln(w, DimStyle.Render("Any language name also works, e.g. mobileai style set German"))
}
