package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func anthropicServer(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{
		APIKey:  "test-key",
		Model:   "claude-haiku",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func TestAnthropicProvider_Quiz(t *testing.T) {
	bodies := make(chan string, 1)
	p := anthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"name":"Photosynthesis","age":3}`, "end_turn"))
	})

	resp, err := p.Generate(context.Background(), Request{
		System:    "You write quizzes for teachers.",
		Messages:  []Message{{Role: RoleUser, Content: "Lesson: plants make sugar from light."}},
		MaxTokens: 256,
		Schema:    testSchema(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.TotalTokens != 80 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != "end" || resp.Model != "claude-haiku-4-5-20251001" {
		t.Fatalf("stop = %q, model = %q", resp.StopReason, resp.Model)
	}
	body := <-bodies
	if !strings.Contains(body, "claude-haiku-4-5-20251001") {
		t.Errorf("friendly model name not resolved in request: %s", body)
	}
	if !strings.Contains(body, "You write quizzes for teachers.") {
		t.Errorf("system prompt missing from request: %s", body)
	}
}

func TestAnthropicProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header map[string]string
		check  func(t *testing.T, err error)
	}{
		{"rate limit", http.StatusTooManyRequests, map[string]string{"Retry-After": "4"}, func(t *testing.T, err error) {
			var rl *ErrRateLimit
			if !errors.As(err, &rl) {
				t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
			}
			if rl.RetryAfter != 4*time.Second {
				t.Errorf("retry after = %v, want 4s", rl.RetryAfter)
			}
		}},
		{"overloaded", 529, nil, func(t *testing.T, err error) {
			var unavail *ErrProviderUnavailable
			if !errors.As(err, &unavail) {
				t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
			}
		}},
		{"bad key", http.StatusUnauthorized, nil, func(t *testing.T, err error) {
			var rejected *ErrRequestRejected
			if !errors.As(err, &rejected) {
				t.Fatalf("expected ErrRequestRejected, got: %T (%v)", err, err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			p := anthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"type":  "error",
					"error": map[string]any{"type": "api_error", "message": "nope"},
				})
			})

			_, err := p.Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 100,
			})
			tt.check(t, err)
			if n := calls.Load(); n != 1 {
				t.Errorf("server saw %d calls, want 1 (SDK retries disabled)", n)
			}
		})
	}
}

func TestAnthropicProvider_TruncatedQuiz(t *testing.T) {
	p := anthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"name":"Photo`, "max_tokens"))
	})

	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 8,
		Schema:    testSchema(),
	})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func TestAnthropicProvider_NoText(t *testing.T) {
	p := anthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		msg := anthropicMessage("", "end_turn")
		msg["content"] = []map[string]any{}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(msg)
	})

	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestAnthropicModelMapping(t *testing.T) {
	for in, want := range map[string]string{
		"claude-sonnet":     "claude-sonnet-4-20250514",
		"claude-haiku":      "claude-haiku-4-5-20251001",
		"claude-sonnet-4-5": "claude-sonnet-4-5",
	} {
		if got := resolveModel(in, anthropicModels); got != want {
			t.Errorf("resolveModel(%q) = %q, want %q", in, got, want)
		}
	}
}
