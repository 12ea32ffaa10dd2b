package retry

import (
	"time"

	"bookreel/internal/config"
	"bookreel/internal/services"
)

// Stage identifies one step of a scene pipeline.
type Stage string

const (
	StageScript   Stage = "script"
	StageKeyframe Stage = "keyframe"
	StageVideo    Stage = "video"
	StageDone     Stage = "done"
	StageFailed   Stage = "failed"
)

// Directive tells the orchestrator what to do after recording an outcome.
type Directive string

const (
	DirectiveRetrySameStage       Directive = "retry-same-stage"
	DirectiveAdvanceStage         Directive = "advance-stage"
	DirectiveSceneFailed          Directive = "scene-failed"
	DirectiveJobAttemptsExhausted Directive = "job-attempts-exhausted"
)

// Limits carries the per-stage retry budgets and the job-wide attempt ceiling.
type Limits struct {
	Script   int
	Keyframe int
	Video    int
	// MaxTotalAttempts caps attempts across all scenes and stages for one
	// job, independent of per-stage budgets. Circuit breaker against
	// compounding retry cost.
	MaxTotalAttempts int
}

// Policy is the retry-policy value object handed to the orchestrator:
// budgets plus pacing delays, so no caller hard-codes sleeps.
type Policy struct {
	Limits     Limits
	SceneDelay time.Duration
	RetryDelay time.Duration
}

// PolicyFromConfig builds the retry policy from configuration.
func PolicyFromConfig(cfg config.Retry) Policy {
	return Policy{
		Limits: Limits{
			Script:           cfg.ScriptRetries,
			Keyframe:         cfg.KeyframeRetries,
			Video:            cfg.VideoRetries,
			MaxTotalAttempts: cfg.MaxTotalAttempts,
		},
		SceneDelay: time.Duration(cfg.SceneDelaySeconds) * time.Second,
		RetryDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}
}

// State is the retry state of one scene. Artifacts accepted from earlier
// stages are kept so a later-stage retry reuses them instead of regenerating.
type State struct {
	Stage            Stage
	ScriptRetries    int
	KeyframeRetries  int
	VideoRetries     int
	LastError        string
	ScriptArtifact   string
	KeyframeArtifact string
	VideoArtifact    string
}

// NewState returns the initial retry state for a scene.
func NewState() State {
	return State{Stage: StageScript}
}

// Retries returns the total retry count across all stages of this scene.
func (s State) Retries() int {
	return s.ScriptRetries + s.KeyframeRetries + s.VideoRetries
}

// Outcome describes one completed stage attempt.
type Outcome struct {
	Stage    Stage
	Err      error
	Artifact string
}

// Tracker applies retry budgets for one job. Per-scene transitions are pure
// state transformations; the tracker itself only accumulates the job-wide
// attempt total.
type Tracker struct {
	limits        Limits
	totalAttempts int
}

// NewTracker constructs a tracker bound to the given limits.
func NewTracker(limits Limits) *Tracker {
	return &Tracker{limits: limits}
}

// TotalAttempts returns the attempts recorded so far across all scenes.
func (t *Tracker) TotalAttempts() int {
	return t.totalAttempts
}

// Record consumes one attempt and returns the scene's next state plus the
// directive for the orchestrator.
//
// Failure handling, in order of precedence: a fatal (non-transient) error
// fails the scene immediately; hitting the job attempt ceiling blocks all
// further retries; a stage counter within budget allows a same-stage retry;
// an exhausted stage counter fails the scene. Earlier accepted artifacts are
// never discarded by a failure, they simply go unused if the scene fails.
func (t *Tracker) Record(state State, outcome Outcome) (State, Directive) {
	t.totalAttempts++

	if outcome.Err == nil {
		return t.recordSuccess(state, outcome)
	}

	state.LastError = outcome.Err.Error()

	if !services.IsTransient(outcome.Err) {
		state.Stage = StageFailed
		return state, DirectiveSceneFailed
	}

	count, limit := state.bumpStage(outcome.Stage)
	if t.totalAttempts >= t.limits.MaxTotalAttempts {
		state.Stage = StageFailed
		return state, DirectiveJobAttemptsExhausted
	}
	if count > t.limitFor(limit) {
		state.Stage = StageFailed
		return state, DirectiveSceneFailed
	}
	return state, DirectiveRetrySameStage
}

func (t *Tracker) recordSuccess(state State, outcome Outcome) (State, Directive) {
	state.LastError = ""
	switch outcome.Stage {
	case StageScript:
		state.ScriptArtifact = outcome.Artifact
		state.Stage = StageKeyframe
	case StageKeyframe:
		state.KeyframeArtifact = outcome.Artifact
		state.Stage = StageVideo
	case StageVideo:
		state.VideoArtifact = outcome.Artifact
		state.Stage = StageDone
	}
	return state, DirectiveAdvanceStage
}

// bumpStage increments the failed stage's counter and returns the new count
// together with which limit applies.
func (s *State) bumpStage(stage Stage) (int, Stage) {
	switch stage {
	case StageScript:
		s.ScriptRetries++
		return s.ScriptRetries, StageScript
	case StageKeyframe:
		s.KeyframeRetries++
		return s.KeyframeRetries, StageKeyframe
	case StageVideo:
		s.VideoRetries++
		return s.VideoRetries, StageVideo
	default:
		return 0, stage
	}
}

func (t *Tracker) limitFor(stage Stage) int {
	switch stage {
	case StageScript:
		return t.limits.Script
	case StageKeyframe:
		return t.limits.Keyframe
	case StageVideo:
		return t.limits.Video
	default:
		return 0
	}
}
