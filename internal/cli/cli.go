// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the mobileai command line: argument parsing, the
// line-edited chat REPL and the one-shot subcommands.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdHistory
	CmdStyle
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdHistory:
		return "history"
	case CmdStyle:
		return "style"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Model      string
	Backend    string
	Debug      bool

	// Query is the joined question for ask.
	Query string

	// Raw holds the arguments after the command name, global flags removed.
	Raw []string

	// Unknown is set when the command name was not recognized.
	Unknown string
}

const usageText = `mobileai - chat with an LLM from your terminal

Usage:
  mobileai                         Start the full-screen chat (default)
  mobileai tui                     Same as above
  mobileai chat                    Line-edited chat in the current terminal
  mobileai ask "question"          Ask one question, save it as a conversation
  mobileai history [subcommand]    Manage saved conversations
  mobileai style [subcommand]      Show or change the reply style
  mobileai config [subcommand]     Show or edit configuration
  mobileai version                 Show version information

History:
  mobileai history list [--json]               List conversations
  mobileai history show <n|id>                 Print a conversation
  mobileai history delete <n|id>               Delete a conversation
  mobileai history clear --yes                 Delete every conversation
  mobileai history export <n|id> [--format md|json] [--out path]
                                               Export (--out - for stdout)

Style:
  mobileai style show                          Show the current style
  mobileai style set <value>                   Finnish, Swedish, "Drunken Pirate", ...
  mobileai style clear                         Plain replies
  mobileai style list                          Show the suggested styles

Config:
  mobileai config show                         Print config (API key redacted)
  mobileai config path                         Print the config file path
  mobileai config init [--force]               Write a default config file
  mobileai config get <key>                    e.g. api.model
  mobileai config set <key> <value>            Update the config file
  mobileai config keys                         List the config keys

Chat commands:
  /new  /history  /load <n|id>  /delete <n|id>  /style [value|clear]  /help  /quit

Global flags:
  --config PATH                    Config file (default ~/.mobileai/config.toml)
  --model NAME                     Model to request (overrides config)
  --backend file|sqlite|memory     Conversation storage (overrides config)
  --debug                          Debug logging
  -V, --version                    Show version
  -h, --help                       Show this help

Environment:
  MOBILEAI_API_KEY, OPENAI_API_KEY API key (also read from .env)
  MOBILEAI_BASE_URL                OpenAI-compatible endpoint
  MOBILEAI_MODEL                   Model name
  MOBILEAI_BACKEND                 Storage backend
  MOBILEAI_DATA_DIR                Storage directory

Version: %s
`

// PrintUsage writes the help text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "mobileai version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses argv (without the program name) into a command and its
// arguments. Global flags may appear anywhere.
func Parse(argv []string) (Command, Args) {
	remaining, args, early := parseGlobalFlags(argv)
	if early != nil {
		return *early, args
	}

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	name := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	switch name {
	case "tui":
		return CmdTUI, args
	case "chat", "repl":
		return CmdChat, args
	case "ask":
		args.Query = strings.Join(args.Raw, " ")
		return CmdAsk, args
	case "history", "hist", "conversations":
		return CmdHistory, args
	case "style", "language":
		return CmdStyle, args
	case "config":
		return CmdConfig, args
	case "version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		args.Unknown = remaining[0]
		return CmdHelp, args
	}
}

// parseGlobalFlags removes global flags from argv. early is set when a
// flag such as --help decides the command by itself.
func parseGlobalFlags(argv []string) (remaining []string, args Args, early *Command) {
	takeValue := func(i *int, flag string) string {
		arg := argv[*i]
		if v, ok := strings.CutPrefix(arg, flag+"="); ok {
			return v
		}
		if *i+1 < len(argv) {
			*i++
			return argv[*i]
		}
		return ""
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--":
			remaining = append(remaining, argv[i+1:]...)
			return remaining, args, early
		case arg == "--debug":
			args.Debug = true
		case arg == "-h" || arg == "--help":
			cmd := CmdHelp
			early = &cmd
		case arg == "-V" || arg == "--version":
			cmd := CmdVersion
			early = &cmd
		case arg == "--config" || strings.HasPrefix(arg, "--config="):
			args.ConfigPath = takeValue(&i, "--config")
		case arg == "--model" || strings.HasPrefix(arg, "--model="):
			args.Model = takeValue(&i, "--model")
		case arg == "--backend" || strings.HasPrefix(arg, "--backend="):
			args.Backend = strings.ToLower(takeValue(&i, "--backend"))
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args, early
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// exitOnError prints err and exits with status 1.
func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion(os.Stdout)
}

// HandleHelp handles the "help" command and unknown commands.
func HandleHelp(args Args) {
	if args.Unknown != "" {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args.Unknown)
		PrintUsage(os.Stderr)
		os.Exit(2)
	}
	PrintUsage(os.Stdout)
}
