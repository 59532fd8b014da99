// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Configuration defaults.
const (
	// DefaultBaseURL is the OpenAI API root. Requests go to
	// DefaultBaseURL + "/chat/completions".
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-3.5-turbo"
)

// Error variables for common endpoint failures.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrAuthFailed indicates the endpoint rejected the credential.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")
)

// Completer turns a prompt into a reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds the settings for a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// HTTPClient overrides the transport. Nil means a client without a
	// timeout; cancellation comes from the request context.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a Completer backed by go-openai.
type Client struct {
	api     *openai.Client
	model   string
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a client. A missing API key yields ErrNotConfigured so
// the caller can explain how to set one.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	} else {
		clientConfig.HTTPClient = &http.Client{}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		api:     openai.NewClientWithConfig(clientConfig),
		model:   model,
		baseURL: clientConfig.BaseURL,
		logger:  logger.With("component", "cloud"),
	}, nil
}

// Model returns the model requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// BaseURL returns the endpoint root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Complete sends prompt as a single user message and returns the first
// choice's content, trimmed. An empty choice list yields "" and no error.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()
	c.logger.Debug("completion request", "model", c.model, "prompt_len", len(prompt))

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		err = classify(err)
		c.logger.Warn("completion failed", "model", c.model, "error", err, "duration", time.Since(start))
		return "", err
	}

	c.logger.Debug("completion response",
		"model", c.model,
		"choices", len(resp.Choices),
		"duration", time.Since(start),
	)

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// StatusCode extracts the HTTP status from an endpoint error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func classify(err error) error {
	var sentinel error
	switch StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrAuthFailed
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	case http.StatusNotFound:
		sentinel = ErrModelNotFound
	}
	if sentinel != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return fmt.Errorf("completion request: %w", err)
}
