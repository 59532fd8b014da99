// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - single question command.
//
// Command: ask [question]
//
// The exchange is saved as a new conversation. When no question is given
// and stdin is piped, stdin is the question.
//
// Examples:
//
//	mobileai ask "What is the capital of Finland?"
//	git diff | mobileai ask
//	mobileai --model gpt-4o-mini ask "Summarize RFC 2119"
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jeranaias/mobileai/internal/chat"
)

// maxStdinQuestion bounds how much piped input ask reads.
const maxStdinQuestion = 64 * 1024

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) {
	exitOnError(withRuntime(args, func(ctx context.Context, rt *Runtime) error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		question := args.Query
		if strings.TrimSpace(question) == "" && !IsTTY() {
			data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinQuestion))
			if err != nil {
				return fmt.Errorf("read question from stdin: %w", err)
			}
			question = string(data)
		}
		return HandleAskCommand(ctx, rt, question, os.Stdout, os.Stderr, IsStdoutTTY())
	}))
}

// HandleAskCommand asks question once and writes the reply to w. Notes
// about failures go to errw. A failed request still prints the fallback
// reply and then returns the cause.
func HandleAskCommand(ctx context.Context, rt *Runtime, question string, w, errw io.Writer, markdown bool) error {
	ex, err := rt.Controller.Submit(ctx, question)
	if errors.Is(err, chat.ErrEmptyInput) {
		return errors.New(`no question given (usage: mobileai ask "question")`)
	}
	if err != nil {
		return err
	}

	displayReply(w, ex.Reply.Text, markdown)

	if ex.Err != nil {
		fmt.Fprintln(errw, RenderWarning(describeCompletionError(ex.Err)))
		return fmt.Errorf("request failed: %w", ex.Err)
	}
	return nil
}
