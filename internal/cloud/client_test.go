// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type recordedRequest struct {
	Path   string
	Auth   string
	Model  string
	Stream bool
	Msgs   []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
}

// newTestServer returns a server answering /chat/completions with status and body.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Path = r.URL.Path
		rec.Auth = r.Header.Get("Authorization")

		var payload struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &payload); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		rec.Model = payload.Model
		rec.Stream = payload.Stream
		rec.Msgs = payload.Messages

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

const okBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "gpt-3.5-turbo",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": " Hi there! "},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 3, "completion_tokens": 3, "total_tokens": 6}
}`

// =============================================================================
// REQUEST / RESPONSE TESTS
// =============================================================================

func TestComplete_TrimsFirstChoice(t *testing.T) {
	server, rec := newTestServer(t, http.StatusOK, okBody)
	client := newTestClient(t, server.URL)

	reply, err := client.Complete(context.Background(), "Hello Respond to this in Finnish")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "Hi there!" {
		t.Errorf("reply = %q, want %q", reply, "Hi there!")
	}

	if rec.Path != "/chat/completions" {
		t.Errorf("path = %q", rec.Path)
	}
	if rec.Auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", rec.Auth)
	}
	if rec.Model != DefaultModel {
		t.Errorf("model = %q, want %q", rec.Model, DefaultModel)
	}
	if rec.Stream {
		t.Error("request should not stream")
	}
	if len(rec.Msgs) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(rec.Msgs))
	}
	if rec.Msgs[0].Role != "user" || rec.Msgs[0].Content != "Hello Respond to this in Finnish" {
		t.Errorf("message = %+v", rec.Msgs[0])
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `{"id":"x","choices":[]}`)
	client := newTestClient(t, server.URL)

	reply, err := client.Complete(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "" {
		t.Errorf("reply = %q, want empty", reply)
	}
}

func TestComplete_CustomModel(t *testing.T) {
	server, rec := newTestServer(t, http.StatusOK, okBody)
	client, err := NewClient(Config{APIKey: "k", BaseURL: server.URL + "/", Model: "openai/gpt-4o-mini"})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if _, err := client.Complete(context.Background(), "Hello"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if rec.Model != "openai/gpt-4o-mini" {
		t.Errorf("model = %q", rec.Model)
	}
	if rec.Path != "/chat/completions" {
		t.Errorf("trailing slash not trimmed, path = %q", rec.Path)
	}
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestNewClient_NoKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: "  "})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestComplete_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthFailed},
		{"forbidden", http.StatusForbidden, ErrAuthFailed},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"model missing", http.StatusNotFound, ErrModelNotFound},
		{"server error", http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"error":{"message":"nope","type":"invalid_request_error"}}`
			server, _ := newTestServer(t, tt.status, body)
			client := newTestClient(t, server.URL)

			_, err := client.Complete(context.Background(), "Hello")
			if err == nil {
				t.Fatal("expected error")
			}
			if StatusCode(err) != tt.status {
				t.Errorf("StatusCode = %d, want %d", StatusCode(err), tt.status)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if tt.want == nil {
				for _, s := range []error{ErrAuthFailed, ErrRateLimited, ErrModelNotFound} {
					if errors.Is(err, s) {
						t.Errorf("unexpected classification %v", s)
					}
				}
			}
		})
	}
}

func TestComplete_MalformedBody(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `not json`)
	client := newTestClient(t, server.URL)

	if _, err := client.Complete(context.Background(), "Hello"); err == nil {
		t.Error("expected decode error")
	}
}

func TestComplete_ContextCancel(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(block)

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Complete(ctx, "Hello"); err == nil {
		t.Error("expected error after context deadline")
	}
}
