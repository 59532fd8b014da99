// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mobileai.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, an optional .env file, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - APIConfig: completion endpoint, model and credential
//   - StorageConfig: backend kind and data directory
//   - UIConfig, LogConfig: presentation and logging settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MOBILEAI_*, OPENAI_API_KEY)
//   - .env in the working directory or ~/.mobileai
//   - ~/.mobileai/config.toml
//   - Built-in defaults
//
// # Usage
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	dir, _ := cfg.DataDir()
//
// The API key is never printed; String redacts it.
package config
