package videogen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookreel/internal/config"
	"bookreel/internal/services"
)

const (
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 2 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
	defaultPollInterval   = 5 * time.Second
	defaultPollTimeout    = 10 * time.Minute
)

// Client wraps the video synthesis provider. Generation is asynchronous on the
// provider side: a submission returns a job id which is polled to completion.
type Client struct {
	cfg        config.Provider
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	pollInterval     time.Duration
	pollTimeout      time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the in-client submission retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithPolling overrides the poll interval and overall poll deadline.
func WithPolling(interval, timeout time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
		if timeout > 0 {
			c.pollTimeout = timeout
		}
	}
}

// WithSleeper overrides how retry and poll sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a video provider client from the supplied settings.
func NewClient(cfg config.Provider, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: config.Provider{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
		pollInterval:     defaultPollInterval,
		pollTimeout:      defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type submissionRequest struct {
	Model           string `json:"model"`
	Prompt          string `json:"prompt"`
	Image           string `json:"image"`
	DurationSeconds int    `json:"duration_seconds"`
}

type submissionResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type jobStatusResponse struct {
	Status          string  `json:"status"`
	VideoB64        string  `json:"video_b64"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FrameRate       float64 `json:"frame_rate"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error"`
}

// Clip is a completed synthesis result: the video bytes plus the technical
// metadata the provider reports for the rendered output.
type Clip struct {
	Bytes           []byte
	Width           int
	Height          int
	FrameRate       float64
	DurationSeconds float64
}

// Generate submits a video synthesis job from a keyframe image and a motion
// prompt, polls it to completion, and returns the rendered clip.
func (c *Client) Generate(ctx context.Context, keyframe []byte, motionPrompt string, durationSeconds int) (Clip, error) {
	var empty Clip
	motionPrompt = strings.TrimSpace(motionPrompt)
	if len(keyframe) == 0 {
		return empty, services.Wrap(services.ErrValidation, "video", "generate", "keyframe image required", nil)
	}
	if motionPrompt == "" {
		return empty, services.Wrap(services.ErrValidation, "video", "generate", "motion prompt required", nil)
	}
	if durationSeconds <= 0 {
		return empty, services.Wrap(services.ErrValidation, "video", "generate", "duration must be positive", nil)
	}
	if c.cfg.APIKey == "" {
		return empty, services.Wrap(services.ErrConfiguration, "video", "generate", "api key required", nil)
	}

	jobID, err := c.submit(ctx, submissionRequest{
		Model:           c.cfg.Model,
		Prompt:          motionPrompt,
		Image:           base64.StdEncoding.EncodeToString(keyframe),
		DurationSeconds: durationSeconds,
	})
	if err != nil {
		return empty, err
	}
	return c.poll(ctx, jobID)
}

// HealthCheck verifies the endpoint is reachable and the key is accepted.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "video", "health", "api key required", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return services.Wrap(services.ErrFatal, "video", "health", "new request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Classify("video", "health", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return services.Wrap(services.ErrConfiguration, "video", "health", fmt.Sprintf("key rejected (http %d)", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) submit(ctx context.Context, payload submissionRequest) (string, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		jobID, err := c.submitOnce(ctx, payload)
		if err == nil {
			return jobID, nil
		}
		lastErr = err

		delay, retry := services.RetryDelay(ctx, err, attempt, attempts, c.retryBaseDelay, c.retryMaxDelay)
		if !retry {
			return "", services.Classify("video", "submit", err)
		}
		if err := services.SleepWithContext(ctx, delay, c.sleeper); err != nil {
			return "", services.Wrap(services.ErrTimeout, "video", "submit", "retry interrupted", err)
		}
	}
	return "", services.Classify("video", "submit", fmt.Errorf("failed after %d attempts: %w", attempts, lastErr))
}

func (c *Client) submitOnce(ctx context.Context, payload submissionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/generations", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.NewStatusError(resp.StatusCode, string(body), resp.Header.Get("Retry-After"))
	}
	var parsed submissionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	if strings.TrimSpace(parsed.ID) == "" {
		return "", errors.New("submission returned no job id")
	}
	return parsed.ID, nil
}

// poll checks the job until it settles or the poll deadline passes. Individual
// poll request failures are tolerated; only the provider reporting the job as
// failed, or the deadline expiring, ends the wait.
func (c *Client) poll(ctx context.Context, jobID string) (Clip, error) {
	var empty Clip
	deadline := time.Now().Add(c.pollTimeout)
	for {
		status, err := c.pollOnce(ctx, jobID)
		if err == nil {
			switch strings.ToLower(strings.TrimSpace(status.Status)) {
			case "succeeded", "completed":
				video, decodeErr := base64.StdEncoding.DecodeString(status.VideoB64)
				if decodeErr != nil || len(video) == 0 {
					return empty, services.Wrap(services.ErrValidation, "video", "poll", "completed job returned no video", decodeErr)
				}
				return Clip{
					Bytes:           video,
					Width:           status.Width,
					Height:          status.Height,
					FrameRate:       status.FrameRate,
					DurationSeconds: status.DurationSeconds,
				}, nil
			case "failed", "cancelled":
				return empty, services.Classify("video", "poll", fmt.Errorf("provider reported job failed: %s", status.Error))
			}
		} else if !services.IsTransient(err) {
			var statusErr *services.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError && statusErr.StatusCode != http.StatusTooManyRequests {
				return empty, services.Classify("video", "poll", err)
			}
		}

		if time.Now().After(deadline) {
			return empty, services.Wrap(services.ErrTimeout, "video", "poll",
				fmt.Sprintf("job %s did not settle within %s", jobID, c.pollTimeout), err)
		}
		if err := services.SleepWithContext(ctx, c.pollInterval, c.sleeper); err != nil {
			return empty, services.Wrap(services.ErrTimeout, "video", "poll", "poll interrupted", err)
		}
	}
}

func (c *Client) pollOnce(ctx context.Context, jobID string) (jobStatusResponse, error) {
	var status jobStatusResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/generations/"+jobID, nil)
	if err != nil {
		return status, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return status, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return status, services.NewStatusError(resp.StatusCode, string(body), resp.Header.Get("Retry-After"))
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return status, fmt.Errorf("decode response: %w", err)
	}
	return status, nil
}

func (c *Client) retryAttempts() int {
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}
