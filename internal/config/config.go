package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Provider contains connection settings for one generative-content provider.
type Provider struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Providers groups the three generation backends.
type Providers struct {
	Script Provider `toml:"script"`
	Image  Provider `toml:"image"`
	Video  Provider `toml:"video"`
	// ClipSeconds is the fixed duration requested per scene video.
	ClipSeconds int `toml:"clip_seconds"`
}

// Pricing contains the per-call unit prices used by the cost accountant.
type Pricing struct {
	ScriptCall   float64 `toml:"script_call"`
	KeyframeCall float64 `toml:"keyframe_call"`
	VideoCall    float64 `toml:"video_call"`
}

// Retry contains per-stage retry budgets and pacing delays.
type Retry struct {
	ScriptRetries   int `toml:"script_retries"`
	KeyframeRetries int `toml:"keyframe_retries"`
	VideoRetries    int `toml:"video_retries"`
	// MaxTotalAttempts caps attempts across all scenes and stages for one job.
	MaxTotalAttempts  int `toml:"max_total_attempts"`
	SceneDelaySeconds int `toml:"scene_delay_seconds"`
	RetryDelaySeconds int `toml:"retry_delay_seconds"`
}

// QCWeights contains the component weights for the aggregated quality score.
type QCWeights struct {
	Typography  float64 `toml:"typography"`
	Consistency float64 `toml:"consistency"`
	Safety      float64 `toml:"safety"`
	Technical   float64 `toml:"technical"`
}

// Typography contains subtitle layout limits.
type Typography struct {
	MaxChars           int            `toml:"max_chars"`
	MaxCharsByLanguage map[string]int `toml:"max_chars_by_language"`
	MaxLines           int            `toml:"max_lines"`
	MinFontSize        int            `toml:"min_font_size"`
	MinContrastRatio   float64        `toml:"min_contrast_ratio"`
	SafeAreaMarginPct  float64        `toml:"safe_area_margin_pct"`
}

// Technical contains minimum media properties for generated clips.
type Technical struct {
	MinWidth           int     `toml:"min_width"`
	MinHeight          int     `toml:"min_height"`
	MinFrameRate       float64 `toml:"min_frame_rate"`
	MinDurationSeconds float64 `toml:"min_duration_seconds"`
	MaxDurationSeconds float64 `toml:"max_duration_seconds"`
}

// QC contains quality gate thresholds.
type QC struct {
	Weights         QCWeights  `toml:"weights"`
	MinScore        float64    `toml:"min_score"`
	PassCutoff      float64    `toml:"pass_cutoff"`
	RetryCutoff     float64    `toml:"retry_cutoff"`
	DriftTolerance  float64    `toml:"drift_tolerance"`
	Typography      Typography `toml:"typography"`
	Technical       Technical  `toml:"technical"`
	ForbiddenWords  []string   `toml:"forbidden_words"`
	ForbiddenThemes []string   `toml:"forbidden_themes"`
}

// Cache contains result cache configuration.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	TTLDays int    `toml:"ttl_days"`
}

// Workflow contains orchestration policy settings.
type Workflow struct {
	// ForceSequential disables the concurrent first attempt entirely.
	ForceSequential bool `toml:"force_sequential"`
	// DiscardBatchOnRateLimit voids an entire concurrent batch, including
	// scenes that succeeded, when any scene hits a rate limit. Quota safety
	// over efficiency; disable only when providers do not share quota.
	DiscardBatchOnRateLimit bool `toml:"discard_batch_on_rate_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Bookreel.
//
// Configuration sections by subsystem:
//   - Paths: data, output, and log directories
//   - Providers: script/image/video generation backends
//   - Pricing: per-call unit prices for cost accounting
//   - Retry: per-stage budgets, job attempt ceiling, pacing delays
//   - QC: quality gate weights, thresholds, and limits
//   - Cache: result cache location and TTL
//   - Workflow: parallel-vs-sequential policy
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Providers Providers `toml:"providers"`
	Pricing   Pricing   `toml:"pricing"`
	Retry     Retry     `toml:"retry"`
	QC        QC        `toml:"qc"`
	Cache     Cache     `toml:"cache"`
	Workflow  Workflow  `toml:"workflow"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bookreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bookreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for final assembly.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// MaxSubtitleChars returns the typography character limit for a language,
// falling back to the default limit when no override is configured.
func (c *Config) MaxSubtitleChars(language string) int {
	language = strings.ToLower(strings.TrimSpace(language))
	if limit, ok := c.QC.Typography.MaxCharsByLanguage[language]; ok && limit > 0 {
		return limit
	}
	return c.QC.Typography.MaxChars
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
