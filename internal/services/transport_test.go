package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRetryDelayStatusCodes(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		err       error
		wantRetry bool
	}{
		{"rate limited", NewStatusError(http.StatusTooManyRequests, "slow down", ""), true},
		{"server error", NewStatusError(http.StatusBadGateway, "", ""), true},
		{"request timeout", NewStatusError(http.StatusRequestTimeout, "", ""), true},
		{"bad request", NewStatusError(http.StatusBadRequest, "", ""), false},
		{"unauthorized", NewStatusError(http.StatusUnauthorized, "", ""), false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, retry := RetryDelay(ctx, tt.err, 1, 3, time.Second, time.Minute)
			if retry != tt.wantRetry {
				t.Errorf("retry = %v, want %v", retry, tt.wantRetry)
			}
		})
	}
}

func TestRetryDelayHonorsRetryAfter(t *testing.T) {
	err := NewStatusError(http.StatusTooManyRequests, "", "7")
	delay, retry := RetryDelay(context.Background(), err, 1, 3, time.Second, time.Minute)
	if !retry || delay != 7*time.Second {
		t.Errorf("delay = %v retry = %v, want 7s true", delay, retry)
	}
}

func TestRetryDelayExhaustedAttempts(t *testing.T) {
	err := NewStatusError(http.StatusTooManyRequests, "", "")
	if _, retry := RetryDelay(context.Background(), err, 3, 3, time.Second, time.Minute); retry {
		t.Error("no retry allowed at the final attempt")
	}
}

func TestBackoffDelayDoubles(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 10 * time.Second}, // capped
	}
	for _, tt := range tests {
		if got := BackoffDelay(tt.attempt, time.Second, 10*time.Second); got != tt.want {
			t.Errorf("BackoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := ParseRetryAfter("30"); got != 30*time.Second {
		t.Errorf("seconds form = %v", got)
	}
	if got := ParseRetryAfter(""); got != 0 {
		t.Errorf("empty = %v", got)
	}
	if got := ParseRetryAfter("not a date"); got != 0 {
		t.Errorf("garbage = %v", got)
	}
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if got := ParseRetryAfter(future); got <= 0 || got > 90*time.Second {
		t.Errorf("http-date form = %v", got)
	}
}

func TestClassifyMarkers(t *testing.T) {
	rateErr := Classify("script", "generate", NewStatusError(http.StatusTooManyRequests, "", ""))
	if !errors.Is(rateErr, ErrRateLimited) {
		t.Errorf("429 classified as %v", rateErr)
	}
	timeoutErr := Classify("script", "generate", context.DeadlineExceeded)
	if !errors.Is(timeoutErr, ErrTimeout) {
		t.Errorf("deadline classified as %v", timeoutErr)
	}
	fatalErr := Classify("script", "generate", errors.New("schema mismatch"))
	if !errors.Is(fatalErr, ErrFatal) {
		t.Errorf("plain error classified as %v", fatalErr)
	}
	if Classify("script", "generate", nil) != nil {
		t.Error("nil must stay nil")
	}
}
