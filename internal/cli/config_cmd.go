// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - configuration inspection and editing.
//
// Command: config [show|path|init|get|set|keys]
//
// Examples:
//
//	mobileai config init
//	mobileai config set api.model gpt-4o-mini
//	mobileai config set api.base_url https://openrouter.ai/api/v1
//	mobileai config get storage.backend
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jeranaias/mobileai/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	exitOnError(HandleConfigCommand(args, os.Stdout))
}

// HandleConfigCommand runs a config subcommand, writing to w.
func HandleConfigCommand(args Args, w io.Writer) error {
	p := NewArgParser(args.Raw, "force")

	path, err := configFilePath(args)
	if err != nil {
		return err
	}

	switch p.Subcommand() {
	case "", "show":
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		fmt.Fprint(w, cfg.String())
		return nil

	case "path":
		fmt.Fprintln(w, path)
		return nil

	case "init":
		if _, err := os.Stat(path); err == nil && !p.BoolFlag("force") {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintln(w, RenderOK("Wrote "+path))
		fmt.Fprintln(w, DimStyle.Render("Set the API key with MOBILEAI_API_KEY or: mobileai config set api.api_key <key>"))
		return nil

	case "get":
		key := p.Positional(1)
		if key == "" {
			return errors.New("config key required (see: mobileai config keys)")
		}
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		v, err := cfg.Redacted().Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, v)
		return nil

	case "set":
		key, value := p.Positional(1), JoinPositionalArgs(p, 2)
		if key == "" || p.PositionalCount() < 3 {
			return errors.New("usage: mobileai config set <key> <value>")
		}
		return setConfigValue(path, key, value, w)

	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(w, k)
		}
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q (want show, path, init, get, set or keys)", p.Positional(0))
	}
}

// setConfigValue edits the file itself. Environment overrides are not
// applied so values from the environment never end up on disk.
func setConfigValue(path, key, value string, w io.Writer) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}

	shown := value
	if key == "api.api_key" {
		shown = "[REDACTED]"
	}
	fmt.Fprintln(w, RenderOK(fmt.Sprintf("%s = %s", key, shown)))
	return nil
}

func configFilePath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPath()
}
