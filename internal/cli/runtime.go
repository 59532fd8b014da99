// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jeranaias/mobileai/internal/chat"
	"github.com/jeranaias/mobileai/internal/cloud"
	"github.com/jeranaias/mobileai/internal/config"
	"github.com/jeranaias/mobileai/internal/logging"
	"github.com/jeranaias/mobileai/internal/storage"
)

// =============================================================================
// RUNTIME
// =============================================================================

// Runtime is everything a command needs: configuration, logger, the
// conversation store and a controller over it.
type Runtime struct {
	Config     *config.Config
	Logger     *slog.Logger
	Store      *storage.ConversationStore
	Controller *chat.Controller
	Completer  chat.Completer
	ModelName  string

	closers []func() error
}

// RuntimeOptions adjusts OpenRuntime.
type RuntimeOptions struct {
	// LogToFile sends logs to the log file instead of stderr. The TUI
	// needs this since it owns the terminal.
	LogToFile bool
}

// LoadConfig loads .env files and the config, then applies the global
// flag overrides from args.
func LoadConfig(args Args) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.Model != "" {
		cfg.API.Model = args.Model
	}
	if args.Backend != "" {
		cfg.Storage.Backend = args.Backend
	}
	if args.Debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// OpenRuntime loads configuration and opens the store. The caller must
// Close the runtime.
func OpenRuntime(ctx context.Context, args Args, opts RuntimeOptions) (*Runtime, error) {
	cfg, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, ModelName: cfg.API.Model}

	logOpts := logging.Options{Level: cfg.Log.Level}
	switch {
	case opts.LogToFile || cfg.Log.File != "":
		path, err := cfg.LogPath()
		if err != nil {
			return nil, err
		}
		logOpts.File = path
	case !args.Debug:
		// Keep routine messages off the terminal.
		logOpts.Level = "warn"
	}
	logger, closeLog, err := logging.Setup(logOpts)
	if err != nil {
		return nil, err
	}
	rt.Logger = logger
	rt.closers = append(rt.closers, closeLog)

	dataDir, err := cfg.DataDir()
	if err != nil {
		rt.Close()
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		rt.Close()
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	backend, err := storage.OpenBackend(cfg.Storage.Backend, dataDir)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, backend.Close)
	rt.Store = storage.NewConversationStore(backend, logger)

	rt.Completer, err = newCompleter(cfg, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.Controller = chat.New(ctx, rt.Store, rt.Completer, chat.WithLogger(logger))
	logger.Debug("runtime ready",
		"backend", cfg.Storage.Backend,
		"model", cfg.API.Model,
		"conversations", len(rt.Store.List()))
	return rt, nil
}

// newCompleter builds the API client. Without an API key every request
// fails with cloud.ErrNotConfigured, so history and style still work.
func newCompleter(cfg *config.Config, logger *slog.Logger) (chat.Completer, error) {
	client, err := cloud.NewClient(cloud.Config{
		APIKey:  cfg.API.APIKey,
		BaseURL: cfg.API.BaseURL,
		Model:   cfg.API.Model,
		Logger:  logger,
	})
	if errors.Is(err, cloud.ErrNotConfigured) {
		logger.Warn("no API key configured; requests will fail")
		return chat.CompleterFunc(func(context.Context, string) (string, error) {
			return "", cloud.ErrNotConfigured
		}), nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Close releases the store and the log file, in reverse order of opening.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// withRuntime opens the runtime, runs fn and closes the runtime.
func withRuntime(args Args, fn func(ctx context.Context, rt *Runtime) error) error {
	ctx := context.Background()
	rt, err := OpenRuntime(ctx, args, RuntimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}
