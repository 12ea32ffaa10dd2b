package scriptgen

import (
	"bytes"
	"context"
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
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// Anchor is the style anchor produced once per job. Every scene script is
// generated against the same anchor so the three clips share one look.
type Anchor struct {
	Palette        []string `json:"palette"`
	StyleSignature string   `json:"style_signature"`
	Tone           string   `json:"tone"`
	Mood           string   `json:"mood"`
}

// SceneScript is the structured script for a single scene. Palette and
// StyleSignature echo what the scene actually uses, which is what the
// consistency check compares against the anchor.
type SceneScript struct {
	Narration      string   `json:"narration"`
	ImagePrompt    string   `json:"image_prompt"`
	MotionPrompt   string   `json:"motion_prompt"`
	Subtitle       string   `json:"subtitle"`
	Palette        []string `json:"palette"`
	StyleSignature string   `json:"style_signature"`
}

// Client wraps the script provider's chat-completions endpoint.
type Client struct {
	cfg        config.Provider
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
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

// WithRetryMaxAttempts overrides the in-client retry count.
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

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a script provider client from the supplied settings.
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
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// GenerateAnchor produces the job-level style anchor for a book.
func (c *Client) GenerateAnchor(ctx context.Context, title, author, language string) (Anchor, error) {
	var empty Anchor
	title = strings.TrimSpace(title)
	if title == "" {
		return empty, services.Wrap(services.ErrValidation, "script", "anchor", "title required", nil)
	}
	if c.cfg.APIKey == "" {
		return empty, services.Wrap(services.ErrConfiguration, "script", "anchor", "api key required", nil)
	}
	content, err := c.completeJSON(ctx, anchorSystemPrompt, anchorUserPrompt(title, author, language), "anchor")
	if err != nil {
		return empty, err
	}
	var anchor Anchor
	if err := DecodeJSON(content, &anchor); err != nil {
		return empty, services.Wrap(services.ErrValidation, "script", "anchor", "parse payload", err)
	}
	anchor.StyleSignature = strings.TrimSpace(anchor.StyleSignature)
	anchor.Tone = strings.ToLower(strings.TrimSpace(anchor.Tone))
	anchor.Mood = strings.TrimSpace(anchor.Mood)
	if anchor.StyleSignature == "" {
		return empty, services.Wrap(services.ErrValidation, "script", "anchor", "anchor missing style signature", nil)
	}
	return anchor, nil
}

// GenerateScript produces a structured scene script for one scene role.
func (c *Client) GenerateScript(ctx context.Context, anchor Anchor, title, role, language string) (SceneScript, error) {
	var empty SceneScript
	if strings.TrimSpace(role) == "" {
		return empty, services.Wrap(services.ErrValidation, "script", "scene", "scene role required", nil)
	}
	if c.cfg.APIKey == "" {
		return empty, services.Wrap(services.ErrConfiguration, "script", "scene", "api key required", nil)
	}
	content, err := c.completeJSON(ctx, sceneSystemPrompt, sceneUserPrompt(anchor, title, role, language), "scene")
	if err != nil {
		return empty, err
	}
	var script SceneScript
	if err := DecodeJSON(content, &script); err != nil {
		return empty, services.Wrap(services.ErrValidation, "script", "scene", "parse payload", err)
	}
	script.Narration = strings.TrimSpace(script.Narration)
	script.ImagePrompt = strings.TrimSpace(script.ImagePrompt)
	script.MotionPrompt = strings.TrimSpace(script.MotionPrompt)
	script.Subtitle = strings.TrimSpace(script.Subtitle)
	if script.Narration == "" || script.ImagePrompt == "" {
		return empty, services.Wrap(services.ErrValidation, "script", "scene", "script missing narration or image prompt", nil)
	}
	return script, nil
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "script", "health", "api key required", nil)
	}
	content, err := c.completeJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`, "health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return services.Wrap(services.ErrValidation, "script", "health", "parse payload", err)
	}
	if !parsed.OK {
		return services.Wrap(services.ErrValidation, "script", "health", "unexpected response", nil)
	}
	return nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) completeJSON(ctx context.Context, systemPrompt, userPrompt, op string) (string, error) {
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.sendOnce(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err

		delay, retry := services.RetryDelay(ctx, err, attempt, attempts, c.retryBaseDelay, c.retryMaxDelay)
		if !retry {
			return "", services.Classify("script", op, err)
		}
		if err := services.SleepWithContext(ctx, delay, c.sleeper); err != nil {
			return "", services.Wrap(services.ErrTimeout, "script", op, "retry interrupted", err)
		}
	}
	return "", services.Classify("script", op, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr))
}

func (c *Client) sendOnce(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
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
	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", errors.New("empty choices")
}

func (c *Client) retryAttempts() int {
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

// DecodeJSON decodes JSON from a model response, handling code fences and
// prose wrapping around the payload.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}
	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return directErr
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return err
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
