// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"

	"github.com/jeranaias/mobileai/internal/cloud"
)

// describeCompletionError explains a failed request with a next step.
func describeCompletionError(err error) string {
	switch {
	case errors.Is(err, cloud.ErrNotConfigured):
		return "No API key configured. Set MOBILEAI_API_KEY (or OPENAI_API_KEY), add it to .env, or run: mobileai config set api.api_key <key>"
	case errors.Is(err, cloud.ErrAuthFailed):
		return "The API rejected the key. Check api.api_key and api.base_url."
	case errors.Is(err, cloud.ErrRateLimited):
		return "Rate limited by the API. Wait a moment and try again."
	case errors.Is(err, cloud.ErrModelNotFound):
		return "The endpoint does not serve this model. Check api.model or --model."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return "Request failed: " + err.Error()
	}
}
