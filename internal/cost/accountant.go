package cost

import (
	"log/slog"
	"time"

	"bookreel/internal/config"
	"bookreel/internal/logging"
)

// SceneUsage summarizes one scene's provider consumption for accounting.
type SceneUsage struct {
	Scene     int
	Succeeded bool
	Retries   int
}

// Report is the immutable usage and cost breakdown produced once per job.
type Report struct {
	CacheHit bool `json:"cache_hit"`

	ScriptCost   float64 `json:"script_cost"`
	KeyframeCost float64 `json:"keyframe_cost"`
	VideoCost    float64 `json:"video_cost"`
	RetryCost    float64 `json:"retry_cost"`
	AnchorCost   float64 `json:"anchor_cost"`
	TotalCost    float64 `json:"total_cost"`

	ScriptCalls   int `json:"script_calls"`
	KeyframeCalls int `json:"keyframe_calls"`
	VideoCalls    int `json:"video_calls"`

	RetriesByScene map[int]int   `json:"retries_by_scene"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Accountant prices provider calls and attempts, independent of outcome.
type Accountant struct {
	pricing config.Pricing
	logger  *slog.Logger
}

// New constructs an accountant from the configured pricing table.
func New(cfg *config.Config, logger *slog.Logger) *Accountant {
	return &Accountant{
		pricing: cfg.Pricing,
		logger:  logging.NewComponentLogger(logger, "cost"),
	}
}

// CacheHitReport returns the zero-cost report for a job served from cache.
func (a *Accountant) CacheHitReport(elapsed time.Duration) Report {
	return Report{
		CacheHit:       true,
		RetriesByScene: map[int]int{},
		Elapsed:        elapsed,
	}
}

// Account produces the usage report for a live run.
//
// Every retry is billed as if it re-executed all three stages. That
// deliberately overstates cost for retries of a single late stage; the
// accounting contract favors a conservative estimate over stage-exact
// attribution.
func (a *Accountant) Account(scenes []SceneUsage, anchorCost float64, elapsed time.Duration) Report {
	report := Report{
		AnchorCost:     anchorCost,
		RetriesByScene: make(map[int]int, len(scenes)),
		Elapsed:        elapsed,
	}

	successful := 0
	totalRetries := 0
	for _, scene := range scenes {
		report.RetriesByScene[scene.Scene] = scene.Retries
		totalRetries += scene.Retries
		if scene.Succeeded {
			successful++
		}

		// Attempts are counted once per provider type per attempt, not per
		// individual stage.
		attempts := scene.Retries
		if scene.Succeeded {
			attempts++
		}
		report.ScriptCalls += attempts
		report.KeyframeCalls += attempts
		report.VideoCalls += attempts
	}

	report.ScriptCost = float64(successful) * a.pricing.ScriptCall
	report.KeyframeCost = float64(successful) * a.pricing.KeyframeCall
	report.VideoCost = float64(successful) * a.pricing.VideoCall
	report.RetryCost = float64(totalRetries) * (a.pricing.ScriptCall + a.pricing.KeyframeCall + a.pricing.VideoCall)
	report.TotalCost = report.ScriptCost + report.KeyframeCost + report.VideoCost + report.RetryCost + report.AnchorCost

	a.logger.Info("usage accounted",
		logging.String(logging.FieldEventType, "cost_accounted"),
		logging.Float64("total_cost", report.TotalCost),
		logging.Int("successful_scenes", successful),
		logging.Int("total_retries", totalRetries),
		logging.Duration("elapsed", elapsed))

	return report
}
