package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", Wrap(ErrRateLimited, "keyframe", "generate", "quota", nil), true},
		{"http 429", &HTTPStatusError{StatusCode: 429, Body: "slow down"}, true},
		{"wrapped http 429", fmt.Errorf("keyframe: %w", &HTTPStatusError{StatusCode: 429}), true},
		{"phrase rate limit", errors.New("provider said: Rate limit exceeded"), true},
		{"phrase quota", errors.New("quota exceeded for project"), true},
		{"phrase throttled", errors.New("request throttled"), true},
		{"http 500", &HTTPStatusError{StatusCode: 500, Body: "boom"}, false},
		{"plain failure", errors.New("invalid api key"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimited(tt.err); got != tt.want {
				t.Errorf("IsRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", ErrRateLimited, true},
		{"timeout", Wrap(ErrTimeout, "video", "poll", "deadline", nil), true},
		{"validation", Wrap(ErrValidation, "script", "parse", "malformed plan", nil), true},
		{"http 503", &HTTPStatusError{StatusCode: 503}, true},
		{"http 408", &HTTPStatusError{StatusCode: 408}, true},
		{"http 401", &HTTPStatusError{StatusCode: 401}, false},
		{"fatal", Wrap(ErrFatal, "script", "generate", "bad key", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrTimeout, "video", "submit", "provider unreachable", cause)
	if !errors.Is(err, ErrTimeout) {
		t.Error("marker lost")
	}
	if !errors.Is(err, cause) {
		t.Error("cause lost")
	}
	want := "timeout: video: submit: provider unreachable: connection reset"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapNilMarkerDefaultsToFatal(t *testing.T) {
	err := Wrap(nil, "script", "generate", "", nil)
	if !errors.Is(err, ErrFatal) {
		t.Error("nil marker should default to ErrFatal")
	}
}
