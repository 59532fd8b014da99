// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/mobileai/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the main configuration structure for mobileai.
type Config struct {
	// API holds the completion endpoint settings.
	API APIConfig `toml:"api"`

	// Storage holds persistence settings.
	Storage StorageConfig `toml:"storage"`

	// UI holds presentation settings.
	UI UIConfig `toml:"ui"`

	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// APIConfig configures the chat-completions endpoint.
type APIConfig struct {
	// BaseURL is the endpoint root; "/chat/completions" is appended.
	BaseURL string `toml:"base_url"`
	// Model is the model name sent with every request.
	Model string `toml:"model"`
	// APIKey is the bearer credential. Prefer MOBILEAI_API_KEY.
	APIKey string `toml:"api_key"`
}

// StorageConfig configures where conversations are kept.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory".
	Backend string `toml:"backend"`
	// Dir is the data directory. Empty means the config directory.
	Dir string `toml:"dir"`
}

// UIConfig configures the terminal front ends.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme"`
	// ShowTimestamps prints message times in the chat views.
	ShowTimestamps bool `toml:"show_timestamps"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level"`
	// File is where the TUI writes its log. Empty means mobileai.log in
	// the config directory.
	File string `toml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with every field set to its default.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-3.5-turbo",
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		UI: UIConfig{
			Theme: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the mobileai configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mobileai"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// DataDir returns the directory holding the conversation store.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return expandHome(c.Storage.Dir)
	}
	return ConfigDir()
}

// LogPath returns the log file used by the TUI.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mobileai.log"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ensureSecurePermissions tightens a config file to 0600; it may hold the
// API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads .env from the working directory and from the config
// directory. Variables already set in the environment win. Missing files
// are skipped.
func LoadDotEnv() error {
	var paths []string
	for _, p := range []string{".env", dotEnvInConfigDir()} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func dotEnvInConfigDir() string {
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ".env")
}

// Load loads ~/.mobileai/config.toml when it exists, otherwise the
// defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path into cfg and fills unset fields
// with defaults.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads the config file at path, then applies environment
// overrides and validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.Model == "" {
		cfg.API.Model = defaults.API.Model
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# mobileai configuration file")
	fmt.Fprintln(&buf, "# The API key is better kept in MOBILEAI_API_KEY or a .env file.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var (
	validBackends = map[string]bool{"file": true, "sqlite": true, "memory": true}
	validThemes   = map[string]bool{"auto": true, "dark": true, "light": true}
	validLevels   = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate checks the configuration. A missing API key is not an error;
// the front ends report it when a message is sent.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.BaseURL == "" {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: "must not be empty"})
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: "must be an http or https URL"})
	}
	if strings.TrimSpace(c.API.Model) == "" {
		errs = append(errs, ValidationError{Field: "api.model", Message: "must not be empty"})
	}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid value %q (want file, sqlite or memory)", c.Storage.Backend),
		})
	}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid value %q (want auto, dark or light)", c.UI.Theme),
		})
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid value %q (want debug, info, warn or error)", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MOBILEAI_API_KEY: overrides api.api_key
//   - OPENAI_API_KEY: used for api.api_key when nothing else set it
//   - MOBILEAI_BASE_URL: overrides api.base_url
//   - MOBILEAI_MODEL: overrides api.model
//   - MOBILEAI_BACKEND: overrides storage.backend
//   - MOBILEAI_DATA_DIR: overrides storage.dir
//   - MOBILEAI_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("MOBILEAI_API_KEY"); key != "" {
		c.API.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.API.APIKey == "" {
		c.API.APIKey = key
	}

	if u := os.Getenv("MOBILEAI_BASE_URL"); u != "" {
		c.API.BaseURL = u
	}
	if model := os.Getenv("MOBILEAI_MODEL"); model != "" {
		c.API.Model = model
	}
	if backend := os.Getenv("MOBILEAI_BACKEND"); backend != "" {
		c.Storage.Backend = strings.ToLower(backend)
	}
	if dir := os.Getenv("MOBILEAI_DATA_DIR"); dir != "" {
		c.Storage.Dir = dir
	}
	if level := os.Getenv("MOBILEAI_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys returns every configuration key in dot notation.
func Keys() []string {
	return []string{
		"api.base_url",
		"api.model",
		"api.api_key",
		"storage.backend",
		"storage.dir",
		"ui.theme",
		"ui.show_timestamps",
		"log.level",
		"log.file",
	}
}

// Get retrieves a value by dot-notation key, e.g. "api.model".
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by dot-notation key. String values are converted to
// the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key %q (want section.name)", key)
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return v, nil
}

// fieldByTag finds the struct field whose toml tag is name.
func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ","); tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				boolVal = strings.EqualFold(strVal, "yes")
				if !boolVal && !strings.EqualFold(strVal, "no") {
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	if value == nil {
		return errors.New("nil value")
	}
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy with the API key replaced by a marker.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.API.APIKey != "" {
		safe.API.APIKey = "[REDACTED]"
	}
	return safe
}

// String renders the configuration as TOML with the API key redacted.
func (c *Config) String() string {
	var buf bytes.Buffer
	_ = toml.NewEncoder(&buf).Encode(c.Redacted())
	return buf.String()
}
