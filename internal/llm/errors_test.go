package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestStatusError(t *testing.T) {
	cause := errors.New("boom")
	header := http.Header{"Retry-After": []string{"7"}}

	tests := []struct {
		status int
		check  func(error) bool
	}{
		{429, func(err error) bool {
			var rl *ErrRateLimit
			return errors.As(err, &rl) && rl.RetryAfter == 7*time.Second
		}},
		{500, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{503, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{408, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{400, func(err error) bool { var e *ErrRequestRejected; return errors.As(err, &e) && e.StatusCode == 400 }},
		{404, func(err error) bool { var e *ErrRequestRejected; return errors.As(err, &e) }},
		{0, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := statusError(tt.status, header, cause)
			if !tt.check(err) {
				t.Fatalf("statusError(%d) = %T (%v)", tt.status, err, err)
			}
			if !errors.Is(err, cause) {
				t.Fatal("cause should be wrapped")
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"0", 0},
		{"-2", 0},
		{"soon", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := retryAfter(h, now); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
	if got := retryAfter(nil, now); got != 0 {
		t.Errorf("retryAfter(nil) = %v", got)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"max tokens", &ErrMaxTokensExceeded{}, false},
		{"rejected", &ErrRequestRejected{StatusCode: 403}, false},
		{"rate limit", &ErrRateLimit{}, true},
		{"unavailable", &ErrProviderUnavailable{}, true},
		{"invalid", &ErrInvalidResponse{Err: errors.New("bad")}, true},
		{"network", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("%s: Retryable = %v, want %v", tt.name, got, tt.want)
		}
	}
}
