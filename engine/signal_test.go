package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/use-agent/ladder/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want SignalKind
	}{
		{
			name: "nil error",
			err:  nil,
			want: SignalUnknown,
		},
		{
			name: "typed 403",
			err:  &models.FetchError{StatusCode: 403, Message: "access denied"},
			want: SignalRateLimitOrForbidden,
		},
		{
			name: "typed 429",
			err:  &models.FetchError{StatusCode: 429, Message: "slow down"},
			want: SignalRateLimitOrForbidden,
		},
		{
			name: "wrapped typed 403",
			err:  fmt.Errorf("attempt failed: %w", &models.FetchError{StatusCode: 403, Message: "blocked"}),
			want: SignalRateLimitOrForbidden,
		},
		{
			name: "typed 500 is not a block",
			err:  &models.FetchError{StatusCode: 500, Message: "internal server error"},
			want: SignalUnknown,
		},
		{
			name: "deadline exceeded",
			err:  fmt.Errorf("navigate: %w", context.DeadlineExceeded),
			want: SignalTimeout,
		},
		{
			name: "context canceled",
			err:  context.Canceled,
			want: SignalTimeout,
		},
		{
			name: "captcha message",
			err:  errors.New("CAPTCHA challenge page detected"),
			want: SignalCaptcha,
		},
		{
			name: "forbidden message",
			err:  errors.New("server said: Forbidden"),
			want: SignalRateLimitOrForbidden,
		},
		{
			name: "too many requests message",
			err:  errors.New("got too many requests, backing off"),
			want: SignalRateLimitOrForbidden,
		},
		{
			name: "io timeout message",
			err:  errors.New("read tcp 10.0.0.1:443: i/o timeout"),
			want: SignalTimeout,
		},
		{
			name: "unrecognized failure",
			err:  errors.New("connection reset by peer"),
			want: SignalUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.want {
				t.Errorf("Classify(%v).Kind = %q, want %q", tt.err, got.Kind, tt.want)
			}
			if tt.err != nil && got.Evidence == "" {
				t.Error("non-nil error should carry evidence")
			}
		})
	}
}

const loginFormHTML = `<html><body>
<form action="/session" method="post">
  <input type="email" name="email">
  <input type="password" name="password">
</form>
</body></html>`

const loginTextHTML = `<html><body>
<h1>Members area</h1>
<p>Please sign in to continue reading this article.</p>
</body></html>`

const articleHTML = `<html><head><title>Weather</title></head><body>
<article><p>Tomorrow will be sunny with light winds.</p></article>
</body></html>`

func TestRequiresLogin(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		finalURL string
		want     bool
	}{
		{
			name:     "all three indicators",
			html:     loginFormHTML + loginTextHTML,
			finalURL: "https://example.com/login?next=%2Fdashboard",
			want:     true,
		},
		{
			name:     "url and password form",
			html:     loginFormHTML,
			finalURL: "https://example.com/accounts/login",
			want:     true,
		},
		{
			name:     "password form and sign-in text",
			html:     `<html><body><p>Sign in to your account</p><input type="password" name="pw"></body></html>`,
			finalURL: "https://example.com/reader",
			want:     true,
		},
		{
			name:     "auth url alone is not enough",
			html:     articleHTML,
			finalURL: "https://example.com/blog/login-best-practices",
			want:     false,
		},
		{
			name:     "password field alone is not enough",
			html:     loginFormHTML,
			finalURL: "https://example.com/settings",
			want:     false,
		},
		{
			name:     "sign-in text alone is not enough",
			html:     loginTextHTML,
			finalURL: "https://example.com/article/42",
			want:     false,
		},
		{
			name:     "plain article",
			html:     articleHTML,
			finalURL: "https://example.com/weather",
			want:     false,
		},
		{
			name:     "redirect query parameter counts as url indicator",
			html:     loginFormHTML,
			finalURL: "https://example.com/gate?return_to=%2Fprofile",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &FetchResult{HTML: tt.html, FinalURL: tt.finalURL}
			if got := RequiresLogin(res); got != tt.want {
				t.Errorf("RequiresLogin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequiresLogin_NilResult(t *testing.T) {
	if RequiresLogin(nil) {
		t.Error("nil result should never be a login wall")
	}
}
