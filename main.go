// mobileai - a terminal chat client for OpenAI-compatible models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mobileai/internal/cli"
	"github.com/jeranaias/mobileai/internal/ui/chat"
	"github.com/jeranaias/mobileai/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdHistory:
		cli.HandleHistory(args)
	case cli.CmdStyle:
		cli.HandleStyle(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp(args)
	}
}

// runTUI starts the full-screen chat.
func runTUI(args cli.Args) {
	if err := cli.RequiresTTY("the chat screen"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Use 'mobileai ask' for non-interactive use.")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The TUI owns the terminal, so logs go to the log file.
	rt, err := cli.OpenRuntime(ctx, args, cli.RuntimeOptions{LogToFile: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	theme := styles.ApplyTheme(rt.Config.UI.Theme)
	rt.Logger.Info("starting chat screen", "version", Version, "theme", theme, "model", rt.ModelName)

	m := chat.New(chat.Options{
		Controller:     rt.Controller,
		Completer:      rt.Completer,
		Watcher:        rt.Store,
		Context:        ctx,
		Theme:          styles.DefaultTheme(),
		ModelName:      rt.ModelName,
		ShowTimestamps: rt.Config.UI.ShowTimestamps,
		Logger:         rt.Logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := p.Run()
	cancel()

	if err := rt.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", runErr)
		os.Exit(1)
	}
}
