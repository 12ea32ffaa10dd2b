package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateQC(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProviders() error {
	for name, p := range map[string]Provider{
		"providers.script": c.Providers.Script,
		"providers.image":  c.Providers.Image,
		"providers.video":  c.Providers.Video,
	} {
		if strings.TrimSpace(p.BaseURL) == "" {
			return fmt.Errorf("%s.base_url must be set", name)
		}
		if p.TimeoutSeconds <= 0 {
			return fmt.Errorf("%s.timeout_seconds must be positive", name)
		}
	}
	if c.Providers.ClipSeconds <= 0 {
		return errors.New("providers.clip_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePricing() error {
	for name, price := range map[string]float64{
		"pricing.script_call":   c.Pricing.ScriptCall,
		"pricing.keyframe_call": c.Pricing.KeyframeCall,
		"pricing.video_call":    c.Pricing.VideoCall,
	} {
		if price < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxTotalAttempts < 3 {
		return errors.New("retry.max_total_attempts must allow at least one attempt per scene")
	}
	return nil
}

func (c *Config) validateQC() error {
	weights := []float64{
		c.QC.Weights.Typography,
		c.QC.Weights.Consistency,
		c.QC.Weights.Safety,
		c.QC.Weights.Technical,
	}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return errors.New("qc.weights must not be negative")
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("qc.weights must sum to 1.0, got %.3f", sum)
	}
	for name, score := range map[string]float64{
		"qc.min_score":    c.QC.MinScore,
		"qc.pass_cutoff":  c.QC.PassCutoff,
		"qc.retry_cutoff": c.QC.RetryCutoff,
	} {
		if score < 0 || score > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.QC.RetryCutoff > c.QC.PassCutoff {
		return errors.New("qc.retry_cutoff must not exceed qc.pass_cutoff")
	}
	if c.QC.Typography.MaxChars <= 0 {
		return errors.New("qc.typography.max_chars must be positive")
	}
	if c.QC.Typography.MaxLines <= 0 {
		return errors.New("qc.typography.max_lines must be positive")
	}
	if c.QC.Technical.MinDurationSeconds > c.QC.Technical.MaxDurationSeconds {
		return errors.New("qc.technical duration range is inverted")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
