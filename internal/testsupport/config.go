package testsupport

import (
	"path/filepath"
	"testing"

	"bookreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Provider credentials are filled with placeholders so validation passes;
// tests that exercise a provider override the base URL with their own server.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Cache.Path = filepath.Join(base, "data", "resultcache.json")

	for _, provider := range []*config.Provider{
		&cfg.Providers.Script,
		&cfg.Providers.Image,
		&cfg.Providers.Video,
	} {
		provider.APIKey = "test-key"
		provider.BaseURL = "http://127.0.0.1:0"
		provider.Model = "test-model"
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return &cfg
}

// WithSequentialWorkflow forces sequential scene processing.
func WithSequentialWorkflow() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.ForceSequential = true
	}
}

// WithRetryLimits overrides the per-stage budgets and the job ceiling.
func WithRetryLimits(script, keyframe, video, maxTotal int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Retry.ScriptRetries = script
		cfg.Retry.KeyframeRetries = keyframe
		cfg.Retry.VideoRetries = video
		cfg.Retry.MaxTotalAttempts = maxTotal
	}
}

// WithoutCache disables the result cache.
func WithoutCache() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.Enabled = false
		cfg.Cache.Path = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
