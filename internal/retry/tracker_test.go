package retry

import (
	"errors"
	"testing"

	"bookreel/internal/services"
)

func testLimits() Limits {
	return Limits{Script: 2, Keyframe: 3, Video: 3, MaxTotalAttempts: 12}
}

func transientErr() error {
	return services.Wrap(services.ErrTimeout, "keyframe", "generate", "provider timeout", nil)
}

func TestSuccessAdvancesStages(t *testing.T) {
	tracker := NewTracker(testLimits())
	state := NewState()

	state, directive := tracker.Record(state, Outcome{Stage: StageScript, Artifact: "script-1"})
	if directive != DirectiveAdvanceStage || state.Stage != StageKeyframe {
		t.Fatalf("after script: directive=%s stage=%s", directive, state.Stage)
	}
	state, directive = tracker.Record(state, Outcome{Stage: StageKeyframe, Artifact: "frame-1"})
	if directive != DirectiveAdvanceStage || state.Stage != StageVideo {
		t.Fatalf("after keyframe: directive=%s stage=%s", directive, state.Stage)
	}
	state, directive = tracker.Record(state, Outcome{Stage: StageVideo, Artifact: "video-1"})
	if directive != DirectiveAdvanceStage || state.Stage != StageDone {
		t.Fatalf("after video: directive=%s stage=%s", directive, state.Stage)
	}

	if state.ScriptArtifact != "script-1" || state.KeyframeArtifact != "frame-1" || state.VideoArtifact != "video-1" {
		t.Errorf("artifacts not recorded: %+v", state)
	}
	if tracker.TotalAttempts() != 3 {
		t.Errorf("TotalAttempts = %d, want 3", tracker.TotalAttempts())
	}
}

func TestTransientFailureRetriesSameStage(t *testing.T) {
	tracker := NewTracker(testLimits())
	state := NewState()
	state, _ = tracker.Record(state, Outcome{Stage: StageScript, Artifact: "script-1"})

	state, directive := tracker.Record(state, Outcome{Stage: StageKeyframe, Err: transientErr()})
	if directive != DirectiveRetrySameStage {
		t.Fatalf("directive = %s, want retry-same-stage", directive)
	}
	if state.Stage != StageKeyframe {
		t.Errorf("stage = %s, want keyframe (stay at failed stage)", state.Stage)
	}
	if state.KeyframeRetries != 1 {
		t.Errorf("KeyframeRetries = %d, want 1", state.KeyframeRetries)
	}
	if state.LastError == "" {
		t.Error("LastError should be set")
	}
	if state.ScriptArtifact != "script-1" {
		t.Error("earlier accepted artifact must survive a later-stage failure")
	}
}

func TestExhaustedStageBudgetFailsSceneWithoutVideoAttempt(t *testing.T) {
	limits := testLimits()
	tracker := NewTracker(limits)
	state := NewState()
	state, _ = tracker.Record(state, Outcome{Stage: StageScript, Artifact: "script-1"})

	var directive Directive
	for i := 0; i < limits.Keyframe; i++ {
		state, directive = tracker.Record(state, Outcome{Stage: StageKeyframe, Err: transientErr()})
		if directive != DirectiveRetrySameStage {
			t.Fatalf("attempt %d: directive = %s, want retry-same-stage", i+1, directive)
		}
	}

	state, directive = tracker.Record(state, Outcome{Stage: StageKeyframe, Err: transientErr()})
	if directive != DirectiveSceneFailed {
		t.Fatalf("directive = %s, want scene-failed after budget exhaustion", directive)
	}
	if state.Stage != StageFailed {
		t.Errorf("stage = %s, want failed", state.Stage)
	}
	if state.KeyframeRetries != limits.Keyframe+1 {
		t.Errorf("KeyframeRetries = %d, want %d", state.KeyframeRetries, limits.Keyframe+1)
	}
	if state.VideoArtifact != "" {
		t.Error("video stage must never have been attempted")
	}
	if state.ScriptArtifact != "script-1" {
		t.Error("accepted script artifact remains recorded after scene failure")
	}
}

func TestFatalErrorFailsImmediately(t *testing.T) {
	tracker := NewTracker(testLimits())
	state := NewState()

	state, directive := tracker.Record(state, Outcome{
		Stage: StageScript,
		Err:   services.Wrap(services.ErrFatal, "script", "generate", "invalid api key", nil),
	})
	if directive != DirectiveSceneFailed {
		t.Fatalf("directive = %s, want scene-failed for fatal error", directive)
	}
	if state.Stage != StageFailed {
		t.Errorf("stage = %s, want failed", state.Stage)
	}
	if state.ScriptRetries != 0 {
		t.Errorf("fatal errors must not consume the stage retry budget, got %d", state.ScriptRetries)
	}
}

func TestJobAttemptCeilingOverridesStageBudget(t *testing.T) {
	limits := Limits{Script: 5, Keyframe: 5, Video: 5, MaxTotalAttempts: 3}
	tracker := NewTracker(limits)
	state := NewState()

	state, directive := tracker.Record(state, Outcome{Stage: StageScript, Err: transientErr()})
	if directive != DirectiveRetrySameStage {
		t.Fatalf("attempt 1: directive = %s", directive)
	}
	state, directive = tracker.Record(state, Outcome{Stage: StageScript, Err: transientErr()})
	if directive != DirectiveRetrySameStage {
		t.Fatalf("attempt 2: directive = %s", directive)
	}
	_, directive = tracker.Record(state, Outcome{Stage: StageScript, Err: transientErr()})
	if directive != DirectiveJobAttemptsExhausted {
		t.Fatalf("attempt 3: directive = %s, want job-attempts-exhausted despite stage budget remaining", directive)
	}
}

func TestRetriesTotalsAcrossStages(t *testing.T) {
	state := State{ScriptRetries: 1, KeyframeRetries: 2, VideoRetries: 3}
	if got := state.Retries(); got != 6 {
		t.Errorf("Retries() = %d, want 6", got)
	}
}

func TestRateLimitErrorIsRetried(t *testing.T) {
	tracker := NewTracker(testLimits())
	state := NewState()
	_, directive := tracker.Record(state, Outcome{Stage: StageScript, Err: errors.New("429 too many requests")})
	if directive != DirectiveRetrySameStage {
		t.Errorf("directive = %s, want retry-same-stage for rate-limit error", directive)
	}
}
