// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - line-edited chat in the current terminal.
//
// Command: chat
//
// Slash commands:
//
//	/new              start a new conversation
//	/history          list saved conversations
//	/load <n|id>      continue a saved conversation
//	/delete <n|id>    delete a saved conversation
//	/style [v|clear]  show, set or clear the reply style
//	/help             list commands
//	/quit             leave
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/mobileai/internal/config"
	"github.com/jeranaias/mobileai/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)
)

// =============================================================================
// LINE INPUT
// =============================================================================

// ChatCLI wraps liner for prompt editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the line editor and loads input history from the
// config directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// Confirm asks a yes/no question. Anything but a yes answer declines.
func (c *ChatCLI) Confirm(question string) bool {
	answer, err := c.line.Prompt(question + " [y/N] ")
	if err != nil {
		return false
	}
	ok, err := ParseBoolString(answer)
	return err == nil && ok
}

// ReadInput prompts for a line and records non-empty input in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// errQuit ends the REPL.
var errQuit = errors.New("quit")

// replSession runs chat input against a runtime. It is separate from the
// line editor so it can be driven without a terminal.
type replSession struct {
	rt       *Runtime
	out      io.Writer
	markdown bool
	// confirm asks a yes/no question. Nil declines.
	confirm func(question string) bool
}

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	exitOnError(withRuntime(args, HandleChatCommand))
}

// HandleChatCommand runs the REPL until /quit or end of input.
func HandleChatCommand(ctx context.Context, rt *Runtime) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	input := NewChatCLI()
	defer input.Close()

	s := &replSession{rt: rt, out: os.Stdout, markdown: IsStdoutTTY(), confirm: input.Confirm}
	s.printWelcome()

	for {
		line, err := input.ReadInput(promptStyle.Render("you> "))
		if errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(s.out, DimStyle.Render("(type /quit to leave)"))
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		if err := s.handleLine(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(s.out, ErrorStyle.Render("[Error]")+" "+err.Error())
		}
	}
}

// handleLine dispatches a slash command or sends the line as a message.
func (s *replSession) handleLine(ctx context.Context, line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "/") {
		return s.handleSlashCommand(ctx, trimmed)
	}
	return s.send(ctx, line)
}

// send submits text. Ctrl+C while waiting cancels the request, which then
// ends with the failure reply like any other failed request.
func (s *replSession) send(ctx context.Context, text string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(s.out, DimStyle.Render("..."))
	ex, err := s.rt.Controller.Submit(ctx, text)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, botLabelStyle.Render("bot>"))
	displayReply(s.out, ex.Reply.Text, s.markdown)
	if ex.Err != nil {
		fmt.Fprintln(s.out, RenderWarning(describeCompletionError(ex.Err)))
	}
	fmt.Fprintln(s.out)
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (s *replSession) handleSlashCommand(ctx context.Context, line string) error {
	name, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	rest = strings.TrimSpace(rest)
	ctrl := s.rt.Controller

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		s.printHelp()

	case "new", "clear":
		ctrl.StartNew()
		fmt.Fprintln(s.out, commandStyle.Render("[New conversation]"))
		s.printMessages()

	case "history", "list":
		writeHistoryTable(s.out, ctrl.Conversations(), GetTerminalWidth())

	case "load", "open":
		conv, err := resolveConversation(s.rt, rest)
		if err != nil {
			return err
		}
		if !ctrl.LoadExisting(conv.ID) {
			return fmt.Errorf("%s: conversation no longer exists", rest)
		}
		fmt.Fprintln(s.out, commandStyle.Render("[Loaded "+conv.Title+"]"))
		s.printMessages()

	case "delete", "rm":
		conv, err := resolveConversation(s.rt, rest)
		if err != nil {
			return err
		}
		if s.confirm == nil || !s.confirm("Are you sure you want to delete "+conv.Title+"?") {
			fmt.Fprintln(s.out, DimStyle.Render("Delete cancelled"))
			return nil
		}
		active := ctrl.Snapshot().ActiveID == conv.ID
		if err := ctrl.DeleteConversation(ctx, conv.ID); err != nil {
			return err
		}
		fmt.Fprintln(s.out, RenderOK("Deleted "+conv.Title))
		if active {
			fmt.Fprintln(s.out, commandStyle.Render("[New conversation]"))
		}

	case "style", "language":
		if rest == "" {
			fmt.Fprintf(s.out, "%s %s\n", RenderLabel("Style", 8), RenderStyleName(ctrl.Style()))
			writeStyleOptions(s.out, ctrl.Style())
			return nil
		}
		if err := setStyle(ctx, ctrl, rest); err != nil {
			return err
		}
		if ctrl.Style() == "" {
			fmt.Fprintln(s.out, RenderOK("Style cleared"))
		} else {
			fmt.Fprintln(s.out, RenderOK("Style set to "+RenderStyleName(ctrl.Style())))
		}

	default:
		return fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func (s *replSession) printWelcome() {
	fmt.Fprintln(s.out, welcomeStyle.Render("mobileai chat"))
	fmt.Fprintln(s.out, RenderSeparator(30))
	fmt.Fprintf(s.out, "%s %s\n", RenderLabel("Model", 8), ValueStyle.Render(s.rt.ModelName))
	fmt.Fprintf(s.out, "%s %s\n", RenderLabel("Style", 8), RenderStyleName(s.rt.Controller.Style()))
	fmt.Fprintf(s.out, "%s %d saved\n", RenderLabel("History", 8), len(s.rt.Controller.Conversations()))
	fmt.Fprintln(s.out, DimStyle.Render("Type a message and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(s.out)
	s.printMessages()
}

func (s *replSession) printHelp() {
	cmds := [][2]string{
		{"/new", "start a new conversation"},
		{"/history", "list saved conversations"},
		{"/load <n|id>", "continue a saved conversation"},
		{"/delete <n|id>", "delete a saved conversation"},
		{"/style [value|clear]", "show, set or clear the reply style"},
		{"/help", "show this list"},
		{"/quit", "leave"},
	}
	for _, c := range cmds {
		fmt.Fprintf(s.out, "  %s %s\n", commandStyle.Width(22).Render(c[0]), DimStyle.Render(c[1]))
	}
}

// printMessages shows the live conversation.
func (s *replSession) printMessages() {
	for _, msg := range s.rt.Controller.Snapshot().Messages {
		printMessage(s.out, msg, s.markdown)
	}
	fmt.Fprintln(s.out)
}
