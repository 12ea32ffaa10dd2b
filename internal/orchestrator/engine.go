package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookreel/internal/config"
	"bookreel/internal/cost"
	"bookreel/internal/logging"
	"bookreel/internal/muxer"
	"bookreel/internal/qc"
	"bookreel/internal/resultcache"
	"bookreel/internal/retry"
	"bookreel/internal/services"
	"bookreel/internal/services/scriptgen"
	"bookreel/internal/storage"
)

// Dependencies are the collaborators the engine composes. All are injected so
// tests can substitute fakes and deployments can swap backends.
type Dependencies struct {
	Scripts    ScriptProvider
	Images     ImageProvider
	Videos     VideoProvider
	Store      storage.Store
	Cache      *resultcache.Cache
	Gate       *qc.Gate
	Accountant *cost.Accountant
	Assembler  muxer.Assembler
}

// Engine runs generation jobs end to end: cache lookup, scene orchestration,
// bounded retries, quality gating, cost accounting, final assembly, and cache
// write-back.
type Engine struct {
	cfg  *config.Config
	deps Dependencies

	style   muxer.Style
	policy  retry.Policy
	sleeper func(time.Duration)
	now     func() time.Time
	logger  *slog.Logger
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithSleeper overrides how pacing delays are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) EngineOption {
	return func(e *Engine) {
		e.sleeper = sleeper
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs the engine from configuration and collaborators.
func NewEngine(cfg *config.Config, deps Dependencies, logger *slog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:    cfg,
		deps:   deps,
		style:  muxer.DefaultStyle(),
		policy: retry.PolicyFromConfig(cfg.Retry),
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "orchestrator"),
	}
	if styled, ok := deps.Assembler.(interface{ Style() muxer.Style }); ok {
		e.style = styled.Style()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one generation job. The returned Result is populated as far as
// the job got even when err is non-nil; the cost report in particular is
// always present for a live run.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	start := e.now()
	if err := req.Validate(); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "job", "validate", err.Error(), nil)
	}

	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = "en"
	}

	jobID := uuid.NewString()
	ctx = services.WithJobID(ctx, jobID)
	logger := e.logger.With(logging.String(logging.FieldJobID, jobID))

	if entry, ok := e.deps.Cache.Get(title, author); ok {
		logger.Info("serving cached result",
			logging.String(logging.FieldEventType, "cache_hit"),
			logging.String("cache_key", entry.Key),
			logging.Int64("request_count", entry.RequestCount))
		return Result{
			JobID:           entry.JobID,
			Title:           title,
			Author:          author,
			CacheHit:        true,
			VideoLocator:    entry.VideoLocator,
			SubtitleLocator: entry.SubtitleLocator,
			QCReport:        entry.QCReport,
			CostReport:      e.deps.Accountant.CacheHitReport(e.now().Sub(start)),
		}, nil
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeParallel
	}
	if e.cfg.Workflow.ForceSequential {
		mode = ModeSequential
	}

	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("title", title),
		logging.String(logging.FieldMode, string(mode)))

	anchor, err := e.deps.Scripts.GenerateAnchor(ctx, title, author, language)
	if err != nil {
		return Result{
			JobID:      jobID,
			Title:      title,
			Author:     author,
			CostReport: e.deps.Accountant.Account(nil, 0, e.now().Sub(start)),
		}, fmt.Errorf("%w: generate style anchor: %w", ErrGenerationFailed, err)
	}

	run := &runner{
		jobID:       jobID,
		title:       title,
		author:      author,
		language:    language,
		anchor:      anchor,
		scripts:     e.deps.Scripts,
		images:      e.deps.Images,
		videos:      e.deps.Videos,
		store:       e.deps.Store,
		policy:      e.policy,
		clipSeconds: e.cfg.Providers.ClipSeconds,
		sleep:       e.sleep,
		logger:      logger,
		tracker:     retry.NewTracker(e.policy.Limits),
	}

	scenes, modeUsed := run.generateScenes(ctx, newSceneUnits(), mode, e.cfg.Workflow.DiscardBatchOnRateLimit)

	for hasPending(scenes) {
		if exhausted := run.retryFailedScenes(ctx, scenes); exhausted {
			failPending(scenes, "job attempt ceiling reached")
			break
		}
		if ctx.Err() != nil {
			failPending(scenes, ctx.Err().Error())
			break
		}
	}

	elapsed := e.now().Sub(start)
	costReport := e.deps.Accountant.Account(sceneUsage(scenes), e.cfg.Pricing.ScriptCall, elapsed)

	result := Result{
		JobID:      jobID,
		Title:      title,
		Author:     author,
		ModeUsed:   modeUsed,
		Scenes:     scenes,
		Anchor:     anchor,
		CostReport: costReport,
	}

	if failed := countFailed(scenes); failed > 0 {
		return result, fmt.Errorf("%w: %d of %d scenes failed: %s",
			ErrGenerationFailed, failed, SceneCount, firstSceneError(scenes))
	}

	qcReport := e.deps.Gate.Evaluate(e.qcAnchor(anchor), e.qcScenes(scenes, anchor, language))
	result.QCReport = qcReport
	if qcReport.Status != qc.StatusPass {
		advised, reason := e.deps.Gate.RetrySignal(qcReport)
		result.RetryAdvised = advised && run.totalAttempts() < e.policy.Limits.MaxTotalAttempts
		result.RetryReason = reason
		return result, fmt.Errorf("%w: overall score %.2f", ErrQualityRejected, qcReport.OverallScore)
	}

	videoLocator, subtitleLocator, err := e.assemble(ctx, jobID, scenes)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrAssemblyFailed, err)
	}
	result.VideoLocator = videoLocator
	result.SubtitleLocator = subtitleLocator

	entry := resultcache.Entry{
		JobID:           jobID,
		VideoLocator:    videoLocator,
		SubtitleLocator: subtitleLocator,
		QCReport:        qcReport,
		CostReport:      costReport,
	}
	if err := e.deps.Cache.Set(title, author, entry); err != nil {
		logger.Warn("failed to cache job result",
			logging.String(logging.FieldEventType, "cache_store_failed"),
			logging.Error(err))
	}

	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.String("video", videoLocator),
		logging.Float64("total_cost", costReport.TotalCost),
		logging.Duration("elapsed", elapsed))

	return result, nil
}

// assemble writes the subtitle track and muxes the three scene clips into the
// final output file.
func (e *Engine) assemble(ctx context.Context, jobID string, scenes []SceneUnit) (string, string, error) {
	subtitles := make([]string, 0, len(scenes))
	scenePaths := make([]string, 0, len(scenes))
	for _, scene := range scenes {
		subtitles = append(subtitles, scene.Script.Subtitle)
		scenePaths = append(scenePaths, scene.VideoLocator)
	}

	srt := muxer.BuildSRT(subtitles, e.cfg.Providers.ClipSeconds)
	subtitleLocator, err := e.deps.Store.Save(ctx, "jobs/"+jobID+"/subtitles.srt", []byte(srt), nil)
	if err != nil {
		return "", "", fmt.Errorf("save subtitles: %w", err)
	}

	outputPath := filepath.Join(e.cfg.Paths.OutputDir, jobID+".mp4")
	if err := e.deps.Assembler.Assemble(muxer.AssembleRequest{
		ScenePaths:   scenePaths,
		SubtitlePath: subtitleLocator,
		OutputPath:   outputPath,
	}); err != nil {
		return "", "", err
	}
	return outputPath, subtitleLocator, nil
}

func (e *Engine) sleep(ctx context.Context, delay time.Duration) error {
	return services.SleepWithContext(ctx, delay, e.sleeper)
}

func (e *Engine) qcAnchor(anchor scriptgen.Anchor) qc.Anchor {
	return qc.Anchor{
		Palette:        anchor.Palette,
		StyleSignature: anchor.StyleSignature,
		Tone:           anchor.Tone,
	}
}

// qcScenes assembles the gate's evidence from the produced artifacts. The
// typography rendering facts come from the muxer's subtitle style, since the
// renderer applies it uniformly to every scene. Scenes whose scripts did not
// echo a palette or signature inherit the anchor's, meaning no drift.
func (e *Engine) qcScenes(scenes []SceneUnit, anchor scriptgen.Anchor, language string) []qc.Scene {
	evidence := make([]qc.Scene, 0, len(scenes))
	for _, scene := range scenes {
		palette := scene.Script.Palette
		if len(palette) == 0 {
			palette = anchor.Palette
		}
		signature := scene.Script.StyleSignature
		if strings.TrimSpace(signature) == "" {
			signature = anchor.StyleSignature
		}

		evidence = append(evidence, qc.Scene{
			Number:            scene.Number,
			Language:          language,
			SubtitleText:      scene.Script.Subtitle,
			SubtitleLines:     countLines(scene.Script.Subtitle),
			FontSize:          e.style.FontSize,
			ContrastRatio:     e.style.ContrastRatio,
			InSafeArea:        e.style.InSafeArea,
			Narration:         scene.Script.Narration,
			VisualDescription: scene.Script.ImagePrompt,
			Palette:           palette,
			StyleSignature:    signature,
			Width:             scene.Clip.Width,
			Height:            scene.Clip.Height,
			DurationSeconds:   scene.Clip.DurationSeconds,
			FrameRate:         scene.Clip.FrameRate,
		})
	}
	return evidence
}

func countLines(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return 1 + strings.Count(text, "\n")
}

func hasPending(scenes []SceneUnit) bool {
	for _, scene := range scenes {
		if scene.Status == ScenePending {
			return true
		}
	}
	return false
}

func failPending(scenes []SceneUnit, reason string) {
	for i := range scenes {
		if scenes[i].Status == ScenePending {
			scenes[i].Status = SceneFailed
			if scenes[i].LastError == "" {
				scenes[i].LastError = reason
			}
		}
	}
}

func countFailed(scenes []SceneUnit) int {
	failed := 0
	for _, scene := range scenes {
		if scene.Status != SceneSuccess {
			failed++
		}
	}
	return failed
}

func firstSceneError(scenes []SceneUnit) string {
	for _, scene := range scenes {
		if scene.Status != SceneSuccess && scene.LastError != "" {
			return fmt.Sprintf("scene %d: %s", scene.Number, scene.LastError)
		}
	}
	return "unknown failure"
}

func sceneUsage(scenes []SceneUnit) []cost.SceneUsage {
	usage := make([]cost.SceneUsage, 0, len(scenes))
	for _, scene := range scenes {
		usage = append(usage, cost.SceneUsage{
			Scene:     scene.Number,
			Succeeded: scene.Status == SceneSuccess,
			Retries:   scene.Retry.Retries(),
		})
	}
	return usage
}
