package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookreel/internal/config"
	"bookreel/internal/services"
)

func newTestClient(url string, opts ...Option) *Client {
	base := []Option{
		WithSleeper(func(time.Duration) {}),
		WithRetryBackoff(time.Millisecond, time.Millisecond),
	}
	return NewClient(config.Provider{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-image-model",
	}, append(base, opts...)...)
}

func TestGenerateDecodesImage(t *testing.T) {
	imageBytes := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Prompt != "a lighthouse at dawn" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		if req.ResponseFormat != "b64_json" {
			t.Errorf("response_format = %q", req.ResponseFormat)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(imageBytes)}},
		})
	}))
	defer server.Close()

	image, err := newTestClient(server.URL).Generate(context.Background(), "a lighthouse at dawn")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(image) != string(imageBytes) {
		t.Errorf("image = %v", image)
	}
}

func TestGenerateRetriesServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString([]byte("img"))}},
		})
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestGenerateRateLimitExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, WithRetryMaxAttempts(2)).Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsRateLimited(err) {
		t.Errorf("error not classified as rate-limited: %v", err)
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	if _, err := newTestClient("http://localhost").Generate(context.Background(), "  "); err == nil {
		t.Error("expected validation error for blank prompt")
	}
}

func TestHealthCheckKeyRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	err := newTestClient(server.URL).HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}
