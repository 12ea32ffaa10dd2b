package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeRetry()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProviders() {
	normalizeProvider(&c.Providers.Script, "BOOKREEL_SCRIPT_API_KEY", defaultScriptBaseURL, defaultScriptModel, defaultProviderTimeoutSeconds)
	normalizeProvider(&c.Providers.Image, "BOOKREEL_IMAGE_API_KEY", defaultImageBaseURL, defaultImageModel, defaultProviderTimeoutSeconds)
	normalizeProvider(&c.Providers.Video, "BOOKREEL_VIDEO_API_KEY", defaultVideoBaseURL, defaultVideoModel, defaultVideoTimeoutSeconds)
	if c.Providers.ClipSeconds <= 0 {
		c.Providers.ClipSeconds = defaultClipSeconds
	}
}

func normalizeProvider(p *Provider, envKey, defaultURL, defaultModel string, defaultTimeout int) {
	p.APIKey = strings.TrimSpace(p.APIKey)
	if p.APIKey == "" {
		if value, ok := os.LookupEnv(envKey); ok {
			p.APIKey = strings.TrimSpace(value)
		}
	}
	p.BaseURL = strings.TrimSpace(p.BaseURL)
	if p.BaseURL == "" {
		p.BaseURL = defaultURL
	}
	p.Model = strings.TrimSpace(p.Model)
	if p.Model == "" {
		p.Model = defaultModel
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultTimeout
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.ScriptRetries < 0 {
		c.Retry.ScriptRetries = 0
	}
	if c.Retry.KeyframeRetries < 0 {
		c.Retry.KeyframeRetries = 0
	}
	if c.Retry.VideoRetries < 0 {
		c.Retry.VideoRetries = 0
	}
	if c.Retry.MaxTotalAttempts <= 0 {
		c.Retry.MaxTotalAttempts = defaultMaxTotalAttempts
	}
	if c.Retry.SceneDelaySeconds < 0 {
		c.Retry.SceneDelaySeconds = defaultSceneDelaySeconds
	}
	if c.Retry.RetryDelaySeconds < 0 {
		c.Retry.RetryDelaySeconds = defaultRetryDelaySeconds
	}
}

func (c *Config) normalizeCache() error {
	var err error
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	if c.Cache.TTLDays <= 0 {
		c.Cache.TTLDays = defaultCacheTTLDays
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
