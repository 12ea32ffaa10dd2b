package videogen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookreel/internal/config"
	"bookreel/internal/services"
)

func newTestClient(url string, opts ...Option) *Client {
	base := []Option{
		WithSleeper(func(time.Duration) {}),
		WithRetryBackoff(time.Millisecond, time.Millisecond),
		WithPolling(time.Millisecond, time.Minute),
	}
	return NewClient(config.Provider{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-video-model",
	}, append(base, opts...)...)
}

func TestGenerateSubmitPollSucceeds(t *testing.T) {
	videoBytes := []byte("mp4 payload")
	var polls int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generations", func(w http.ResponseWriter, r *http.Request) {
		var req submissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.DurationSeconds != 8 {
			t.Errorf("duration = %d, want 8", req.DurationSeconds)
		}
		if req.Prompt != "slow push in" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		if req.Image == "" {
			t.Error("keyframe image missing from submission")
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "job-42"})
	})
	mux.HandleFunc("GET /generations/job-42", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 3 {
			json.NewEncoder(w).Encode(map[string]string{"status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":           "succeeded",
			"video_b64":        base64.StdEncoding.EncodeToString(videoBytes),
			"width":            720,
			"height":           1280,
			"frame_rate":       24.0,
			"duration_seconds": 8.0,
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	clip, err := newTestClient(server.URL).Generate(context.Background(), []byte("keyframe"), "slow push in", 8)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(clip.Bytes) != string(videoBytes) {
		t.Errorf("video = %q", clip.Bytes)
	}
	if clip.Width != 720 || clip.Height != 1280 || clip.FrameRate != 24.0 || clip.DurationSeconds != 8.0 {
		t.Errorf("clip metadata = %+v", clip)
	}
	if polls != 3 {
		t.Errorf("polls = %d, want 3", polls)
	}
}

func TestGenerateJobFailureClassified(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
	})
	mux.HandleFunc("GET /generations/job-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "failed", "error": "rate limit exceeded for account"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), []byte("keyframe"), "pan left", 8)
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsRateLimited(err) {
		t.Errorf("throttle-phrased job failure should classify as rate-limited: %v", err)
	}
}

func TestGenerateSubmissionRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, WithRetryMaxAttempts(2)).Generate(context.Background(), []byte("keyframe"), "pan left", 8)
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsRateLimited(err) {
		t.Errorf("error not classified as rate-limited: %v", err)
	}
}

func TestGeneratePollToleratesTransientErrors(t *testing.T) {
	var polls int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "job-7"})
	})
	mux.HandleFunc("GET /generations/job-7", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls == 1 {
			http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "succeeded",
			"video_b64": base64.StdEncoding.EncodeToString([]byte("ok")),
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	if _, err := newTestClient(server.URL).Generate(context.Background(), []byte("keyframe"), "tilt up", 8); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if polls != 2 {
		t.Errorf("polls = %d, want 2", polls)
	}
}

func TestGenerateValidation(t *testing.T) {
	client := newTestClient("http://localhost")
	if _, err := client.Generate(context.Background(), nil, "pan", 8); err == nil {
		t.Error("expected error for missing keyframe")
	}
	if _, err := client.Generate(context.Background(), []byte("k"), " ", 8); err == nil {
		t.Error("expected error for blank motion prompt")
	}
	if _, err := client.Generate(context.Background(), []byte("k"), "pan", 0); err == nil {
		t.Error("expected error for zero duration")
	}
}

func TestGenerateEmptyJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": ""})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), []byte("k"), "pan", 8)
	if err == nil || !strings.Contains(err.Error(), "job id") {
		t.Errorf("err = %v, want job id error", err)
	}
}
