package config

const (
	defaultDataDir   = "~/.local/share/bookreel/data"
	defaultOutputDir = "~/.local/share/bookreel/output"
	defaultLogDir    = "~/.local/share/bookreel/logs"
	defaultCachePath = "~/.cache/bookreel/results.json"

	defaultScriptBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultScriptModel   = "google/gemini-3-flash-preview"
	defaultImageBaseURL  = "https://api.bookreel.invalid/v1/images"
	defaultImageModel    = "keyframe-xl"
	defaultVideoBaseURL  = "https://api.bookreel.invalid/v1/videos"
	defaultVideoModel    = "motion-1"

	defaultProviderTimeoutSeconds = 60
	defaultVideoTimeoutSeconds    = 300
	defaultClipSeconds            = 8

	defaultScriptCallPrice   = 0.002
	defaultKeyframeCallPrice = 0.04
	defaultVideoCallPrice    = 0.40

	defaultScriptRetries     = 2
	defaultKeyframeRetries   = 3
	defaultVideoRetries      = 3
	defaultMaxTotalAttempts  = 12
	defaultSceneDelaySeconds = 2
	defaultRetryDelaySeconds = 3

	defaultQCMinScore       = 0.75
	defaultQCPassCutoff     = 0.70
	defaultQCRetryCutoff    = 0.60
	defaultDriftTolerance   = 0.25
	defaultMaxSubtitleChars = 84
	defaultMaxSubtitleLines = 2
	defaultMinFontSize      = 28
	defaultMinContrastRatio = 4.5
	defaultSafeAreaMargin   = 0.05

	defaultMinWidth    = 1280
	defaultMinHeight   = 720
	defaultMinFPS      = 23.9
	defaultMinDuration = 7.0
	defaultMaxDuration = 9.0

	defaultCacheTTLDays = 90

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Providers: Providers{
			Script: Provider{
				BaseURL:        defaultScriptBaseURL,
				Model:          defaultScriptModel,
				TimeoutSeconds: defaultProviderTimeoutSeconds,
			},
			Image: Provider{
				BaseURL:        defaultImageBaseURL,
				Model:          defaultImageModel,
				TimeoutSeconds: defaultProviderTimeoutSeconds,
			},
			Video: Provider{
				BaseURL:        defaultVideoBaseURL,
				Model:          defaultVideoModel,
				TimeoutSeconds: defaultVideoTimeoutSeconds,
			},
			ClipSeconds: defaultClipSeconds,
		},
		Pricing: Pricing{
			ScriptCall:   defaultScriptCallPrice,
			KeyframeCall: defaultKeyframeCallPrice,
			VideoCall:    defaultVideoCallPrice,
		},
		Retry: Retry{
			ScriptRetries:     defaultScriptRetries,
			KeyframeRetries:   defaultKeyframeRetries,
			VideoRetries:      defaultVideoRetries,
			MaxTotalAttempts:  defaultMaxTotalAttempts,
			SceneDelaySeconds: defaultSceneDelaySeconds,
			RetryDelaySeconds: defaultRetryDelaySeconds,
		},
		QC: QC{
			Weights: QCWeights{
				Typography:  0.25,
				Consistency: 0.25,
				Safety:      0.30,
				Technical:   0.20,
			},
			MinScore:       defaultQCMinScore,
			PassCutoff:     defaultQCPassCutoff,
			RetryCutoff:    defaultQCRetryCutoff,
			DriftTolerance: defaultDriftTolerance,
			Typography: Typography{
				MaxChars: defaultMaxSubtitleChars,
				MaxCharsByLanguage: map[string]int{
					"ja": 40,
					"ko": 40,
					"zh": 36,
				},
				MaxLines:          defaultMaxSubtitleLines,
				MinFontSize:       defaultMinFontSize,
				MinContrastRatio:  defaultMinContrastRatio,
				SafeAreaMarginPct: defaultSafeAreaMargin,
			},
			Technical: Technical{
				MinWidth:           defaultMinWidth,
				MinHeight:          defaultMinHeight,
				MinFrameRate:       defaultMinFPS,
				MinDurationSeconds: defaultMinDuration,
				MaxDurationSeconds: defaultMaxDuration,
			},
			ForbiddenWords: []string{
				"gore", "suicide", "torture", "massacre",
			},
			ForbiddenThemes: []string{
				"graphic violence", "self harm", "explicit content",
			},
		},
		Cache: Cache{
			Enabled: true,
			Path:    defaultCachePath,
			TTLDays: defaultCacheTTLDays,
		},
		Workflow: Workflow{
			ForceSequential:         false,
			DiscardBatchOnRateLimit: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
