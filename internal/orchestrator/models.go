package orchestrator

import (
	"context"
	"strings"

	"bookreel/internal/cost"
	"bookreel/internal/qc"
	"bookreel/internal/retry"
	"bookreel/internal/services/scriptgen"
	"bookreel/internal/services/videogen"
)

// SceneCount is fixed: every job produces exactly three 8-second scenes.
const SceneCount = 3

// sceneRoles maps scene numbers 1..3 to their narrative roles.
var sceneRoles = [SceneCount]string{"hook", "journey", "promise"}

// Mode selects how the initial scene batch is driven.
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// SceneStatus is the lifecycle of one scene unit.
type SceneStatus string

const (
	ScenePending SceneStatus = "pending"
	SceneSuccess SceneStatus = "success"
	SceneFailed  SceneStatus = "failed"
)

// Request describes one generation job.
type Request struct {
	Title    string
	Author   string
	Language string
	Mode     Mode
}

// Validate checks the request fields the engine cannot default.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errTitleRequired
	}
	return nil
}

// SceneUnit is the mutable working state of one scene during a job. Only the
// orchestrator and the retry tracker touch it.
type SceneUnit struct {
	Number int
	Role   string
	Status SceneStatus

	Script        scriptgen.SceneScript
	KeyframeBytes []byte
	Clip          videogen.Clip

	KeyframeLocator string
	VideoLocator    string

	Retry     retry.State
	LastError string
}

// newSceneUnits builds the initial pending scene set in ascending order.
func newSceneUnits() []SceneUnit {
	scenes := make([]SceneUnit, SceneCount)
	for i := range scenes {
		scenes[i] = SceneUnit{
			Number: i + 1,
			Role:   sceneRoles[i],
			Status: ScenePending,
			Retry:  retry.NewState(),
		}
	}
	return scenes
}

// Result is the immutable outcome of one job run.
type Result struct {
	JobID    string
	Title    string
	Author   string
	CacheHit bool

	// ModeUsed is how the initial scene batch actually ran. A parallel
	// request that was discarded after a rate limit reports sequential.
	ModeUsed Mode

	VideoLocator    string
	SubtitleLocator string

	Scenes     []SceneUnit
	Anchor     scriptgen.Anchor
	QCReport   qc.Report
	CostReport cost.Report

	// RetryAdvised carries the quality gate's retry signal for a failed
	// gate: true when a lenient component cutoff was missed and budget
	// analysis is worth a second look. Surfaced, never auto-acted on.
	RetryAdvised bool
	RetryReason  string
}

// ScriptProvider produces the style anchor and per-scene scripts.
type ScriptProvider interface {
	GenerateAnchor(ctx context.Context, title, author, language string) (scriptgen.Anchor, error)
	GenerateScript(ctx context.Context, anchor scriptgen.Anchor, title, role, language string) (scriptgen.SceneScript, error)
}

// ImageProvider produces keyframe images from text prompts.
type ImageProvider interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// VideoProvider produces scene clips from a keyframe and motion prompt.
type VideoProvider interface {
	Generate(ctx context.Context, keyframe []byte, motionPrompt string, durationSeconds int) (videogen.Clip, error)
}
