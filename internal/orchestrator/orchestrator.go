package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookreel/internal/logging"
	"bookreel/internal/retry"
	"bookreel/internal/services"
	"bookreel/internal/services/scriptgen"
	"bookreel/internal/storage"
)

// runner drives the scene pipelines of a single job. It owns the job's retry
// tracker; the tracker is not safe for concurrent use, so all Record calls go
// through the runner's mutex.
type runner struct {
	jobID    string
	title    string
	author   string
	language string
	anchor   scriptgen.Anchor

	scripts     ScriptProvider
	images      ImageProvider
	videos      VideoProvider
	store       storage.Store
	policy      retry.Policy
	clipSeconds int
	sleep       func(context.Context, time.Duration) error
	logger      *slog.Logger

	mu          sync.Mutex
	tracker     *retry.Tracker
	rateLimited bool
	exhausted   bool
}

// generateScenes drives the initial batch: one pipeline pass per scene, either
// concurrently or in ascending scene order. In concurrent mode a single
// rate-limit-class failure discards the entire batch, successes included, and
// the batch is rerun sequentially from scratch. Concurrency against a shared
// provider quota is what triggered the throttle; keeping partial wins would
// immediately re-enter the same state on retry.
func (r *runner) generateScenes(ctx context.Context, scenes []SceneUnit, mode Mode, discardOnRateLimit bool) ([]SceneUnit, Mode) {
	if mode != ModeParallel {
		r.runSequential(ctx, scenes)
		return scenes, ModeSequential
	}

	r.runParallel(ctx, scenes)
	if discardOnRateLimit && r.wasRateLimited() {
		r.logger.Warn("discarding concurrent batch after rate limit, rerunning sequentially",
			logging.String(logging.FieldEventType, "batch_discarded"),
			logging.String(logging.FieldJobID, r.jobID))
		scenes = newSceneUnits()
		r.runSequential(ctx, scenes)
		return scenes, ModeSequential
	}
	return scenes, ModeParallel
}

func (r *runner) runParallel(ctx context.Context, scenes []SceneUnit) {
	var wg sync.WaitGroup
	for i := range scenes {
		wg.Add(1)
		go func(scene *SceneUnit) {
			defer wg.Done()
			r.generateSingleScene(ctx, scene)
		}(&scenes[i])
	}
	wg.Wait()
}

func (r *runner) runSequential(ctx context.Context, scenes []SceneUnit) {
	for i := range scenes {
		if i > 0 {
			if err := r.sleep(ctx, r.policy.SceneDelay); err != nil {
				return
			}
		}
		r.generateSingleScene(ctx, &scenes[i])
	}
}

// retryFailedScenes re-drives every scene that is still pending, always
// sequentially and with the longer inter-retry delay. Returns true once the
// job-wide attempt ceiling has been hit, at which point no scene may retry.
func (r *runner) retryFailedScenes(ctx context.Context, scenes []SceneUnit) bool {
	for i := range scenes {
		if scenes[i].Status != ScenePending {
			continue
		}
		if r.isExhausted() {
			return true
		}
		if err := r.sleep(ctx, r.policy.RetryDelay); err != nil {
			return false
		}
		r.logger.Info("retrying scene",
			logging.String(logging.FieldEventType, "scene_retry"),
			logging.String(logging.FieldJobID, r.jobID),
			logging.Int(logging.FieldScene, scenes[i].Number),
			logging.String(logging.FieldStage, string(scenes[i].Retry.Stage)),
			logging.Int("scene_retries", scenes[i].Retry.Retries()))
		r.generateSingleScene(ctx, &scenes[i])
	}
	return r.isExhausted()
}

// generateSingleScene advances one scene through its stage chain, one attempt
// per stage, resuming at the scene's current stage and reusing artifacts
// already accepted from earlier stages. A stage failure leaves the scene
// pending (retryable) or failed, per the tracker's directive.
func (r *runner) generateSingleScene(ctx context.Context, scene *SceneUnit) {
	for {
		switch scene.Retry.Stage {
		case retry.StageDone:
			scene.Status = SceneSuccess
			scene.LastError = ""
			return
		case retry.StageFailed:
			scene.Status = SceneFailed
			return
		}

		stage := scene.Retry.Stage
		artifact, err := r.attemptStage(ctx, scene)
		if err != nil && services.IsRateLimited(err) {
			r.markRateLimited()
		}

		state, directive := r.record(scene.Retry, retry.Outcome{Stage: stage, Err: err, Artifact: artifact})
		scene.Retry = state
		if err != nil {
			scene.LastError = err.Error()
		}

		switch directive {
		case retry.DirectiveAdvanceStage:
			continue
		case retry.DirectiveRetrySameStage:
			return
		case retry.DirectiveSceneFailed:
			scene.Status = SceneFailed
			return
		case retry.DirectiveJobAttemptsExhausted:
			r.markExhausted()
			scene.Status = SceneFailed
			return
		}
	}
}

// attemptStage performs exactly one provider call for the scene's current
// stage and persists the produced artifact.
func (r *runner) attemptStage(ctx context.Context, scene *SceneUnit) (string, error) {
	ctx = services.WithScene(ctx, scene.Number)
	ctx = services.WithStage(ctx, string(scene.Retry.Stage))

	switch scene.Retry.Stage {
	case retry.StageScript:
		script, err := r.scripts.GenerateScript(ctx, r.anchor, r.title, scene.Role, r.language)
		if err != nil {
			return "", err
		}
		scene.Script = script
		encoded, err := json.Marshal(script)
		if err != nil {
			return "", services.Wrap(services.ErrFatal, "script", "persist", "encode script", err)
		}
		locator, err := r.store.Save(ctx, r.artifactKey(scene.Number, "script.json"), encoded, nil)
		if err != nil {
			return "", services.Wrap(services.ErrFatal, "script", "persist", "save script", err)
		}
		return locator, nil

	case retry.StageKeyframe:
		image, err := r.images.Generate(ctx, scene.Script.ImagePrompt)
		if err != nil {
			return "", err
		}
		scene.KeyframeBytes = image
		locator, err := r.store.Save(ctx, r.artifactKey(scene.Number, "keyframe.png"), image, storage.Metadata{
			"scene": fmt.Sprintf("%d", scene.Number),
		})
		if err != nil {
			return "", services.Wrap(services.ErrFatal, "keyframe", "persist", "save keyframe", err)
		}
		scene.KeyframeLocator = locator
		return locator, nil

	case retry.StageVideo:
		clip, err := r.videos.Generate(ctx, scene.KeyframeBytes, scene.Script.MotionPrompt, r.clipSeconds)
		if err != nil {
			return "", err
		}
		scene.Clip = clip
		locator, err := r.store.Save(ctx, r.artifactKey(scene.Number, "clip.mp4"), clip.Bytes, nil)
		if err != nil {
			return "", services.Wrap(services.ErrFatal, "video", "persist", "save clip", err)
		}
		scene.VideoLocator = locator
		return locator, nil
	}
	return "", services.Wrap(services.ErrFatal, string(scene.Retry.Stage), "attempt", "unknown stage", nil)
}

func (r *runner) artifactKey(scene int, name string) string {
	return fmt.Sprintf("jobs/%s/scene_%d_%s", r.jobID, scene, name)
}

func (r *runner) record(state retry.State, outcome retry.Outcome) (retry.State, retry.Directive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.Record(state, outcome)
}

func (r *runner) markRateLimited() {
	r.mu.Lock()
	r.rateLimited = true
	r.mu.Unlock()
}

func (r *runner) wasRateLimited() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rateLimited
}

func (r *runner) markExhausted() {
	r.mu.Lock()
	r.exhausted = true
	r.mu.Unlock()
}

func (r *runner) isExhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exhausted
}

func (r *runner) totalAttempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracker.TotalAttempts()
}
