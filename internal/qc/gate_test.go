package qc

import (
	"strings"
	"testing"

	"bookreel/internal/config"
)

func testGate(t *testing.T) *Gate {
	t.Helper()
	cfg := config.Default()
	return New(&cfg, nil)
}

func testAnchor() Anchor {
	return Anchor{
		Palette:        []string{"#1a2b3c", "#ffcc00", "#ffffff"},
		StyleSignature: "watercolor-soft",
		Tone:           "warm inviting",
	}
}

func goodScene(number int) Scene {
	return Scene{
		Number:          number,
		Language:        "en",
		SubtitleText:    "A journey begins with a single page.",
		SubtitleLines:   1,
		FontSize:        36,
		ContrastRatio:   7.0,
		InSafeArea:      true,
		Narration:       "An invitation into a world of wonder.",
		Palette:         []string{"#1a2b3c", "#ffcc00", "#ffffff"},
		StyleSignature:  "watercolor-soft",
		Width:           1920,
		Height:          1080,
		DurationSeconds: 8.0,
		FrameRate:       24.0,
	}
}

func goodScenes() []Scene {
	return []Scene{goodScene(1), goodScene(2), goodScene(3)}
}

func TestEvaluateAllPass(t *testing.T) {
	gate := testGate(t)
	report := gate.Evaluate(testAnchor(), goodScenes())

	if report.Status != StatusPass {
		t.Fatalf("Status = %s, want pass (report: %+v)", report.Status, report)
	}
	if !report.PassedThreshold {
		t.Error("PassedThreshold should be true")
	}
	if !report.StyleSignatureMatch {
		t.Error("StyleSignatureMatch should be true")
	}
	if report.Safety.Score != 1.0 {
		t.Errorf("Safety.Score = %v, want 1.0", report.Safety.Score)
	}
	if report.OverallScore < 0.99 {
		t.Errorf("OverallScore = %v, want ~1.0", report.OverallScore)
	}
}

func TestSafetyHitForcesFailDespiteHighScore(t *testing.T) {
	gate := testGate(t)
	scenes := goodScenes()
	scenes[1].Narration = "A tale of torture and redemption."

	report := gate.Evaluate(testAnchor(), scenes)

	if report.Safety.Passed {
		t.Error("Safety should fail on forbidden word")
	}
	if report.Safety.Score != 0.0 {
		t.Errorf("Safety.Score = %v, want 0.0", report.Safety.Score)
	}
	if report.Status != StatusFail {
		t.Errorf("Status = %s, want fail: safety is a hard gate", report.Status)
	}
}

func TestNonPositiveToneFailsSafety(t *testing.T) {
	gate := testGate(t)
	anchor := testAnchor()
	anchor.Tone = "menacing"

	report := gate.Evaluate(anchor, goodScenes())
	if report.Safety.Passed {
		t.Error("Safety should fail for non-positive tone")
	}
	if report.Status != StatusFail {
		t.Errorf("Status = %s, want fail", report.Status)
	}
}

func TestTechnicalAloneCannotForceFail(t *testing.T) {
	gate := testGate(t)
	scenes := goodScenes()
	for i := range scenes {
		scenes[i].FrameRate = 15.0 // one violation per scene
	}

	report := gate.Evaluate(testAnchor(), scenes)

	if report.Technical.Passed {
		t.Error("Technical should fail with three frame-rate violations")
	}
	if report.Status != StatusPass {
		t.Errorf("Status = %s, want pass: technical is not a hard gate and weighted score stays above threshold", report.Status)
	}
}

func TestTypographyViolationsFailComponent(t *testing.T) {
	gate := testGate(t)
	scenes := goodScenes()
	scenes[0].SubtitleText = strings.Repeat("a very long subtitle ", 10)
	scenes[0].FontSize = 12

	report := gate.Evaluate(testAnchor(), scenes)

	if report.Typography.Passed {
		t.Error("Typography should fail when any sub-check fails")
	}
	if len(report.Typography.Violations) != 2 {
		t.Errorf("violations = %d, want 2 (chars + font size)", len(report.Typography.Violations))
	}
	// 15 sub-checks total, 13 passing.
	want := 13.0 / 15.0
	if diff := report.Typography.Score - want; diff > 0.001 || diff < -0.001 {
		t.Errorf("Typography.Score = %v, want %v", report.Typography.Score, want)
	}
	if report.Status != StatusFail {
		t.Errorf("Status = %s, want fail: typography is a hard gate", report.Status)
	}
}

func TestLanguageSpecificCharacterLimit(t *testing.T) {
	gate := testGate(t)
	scenes := goodScenes()
	scenes[0].Language = "ja"
	scenes[0].SubtitleText = strings.Repeat("本", 50) // over the 40-char ja limit

	report := gate.Evaluate(testAnchor(), scenes)
	if report.Typography.Passed {
		t.Error("Typography should apply the language-specific character limit")
	}
}

func TestConsistencyDriftFails(t *testing.T) {
	gate := testGate(t)
	scenes := goodScenes()
	scenes[2].Palette = []string{"#000000", "#111111", "#222222"}

	report := gate.Evaluate(testAnchor(), scenes)
	if report.Consistency.Passed {
		t.Error("Consistency should fail when drift exceeds tolerance")
	}
}

func TestStyleSignatureMismatchFlag(t *testing.T) {
	gate := testGate(t)
	scenes := goodScenes()
	scenes[1].StyleSignature = "photoreal-harsh"

	report := gate.Evaluate(testAnchor(), scenes)
	if report.StyleSignatureMatch {
		t.Error("StyleSignatureMatch should be false")
	}
	if report.Consistency.Passed {
		t.Error("Consistency should fail on signature mismatch")
	}
}

func TestRetrySignal(t *testing.T) {
	gate := testGate(t)
	scenes := goodScenes()
	scenes[0].Narration = "graphic violence everywhere"

	report := gate.Evaluate(testAnchor(), scenes)
	retry, reason := gate.RetrySignal(report)
	if !retry {
		t.Fatal("expected retry signal for safety score below retry cutoff")
	}
	if !strings.Contains(reason, "safety") {
		t.Errorf("reason should name the offending component: %q", reason)
	}

	clean := gate.Evaluate(testAnchor(), goodScenes())
	if retry, _ := gate.RetrySignal(clean); retry {
		t.Error("no retry signal expected for a clean report")
	}
}

func TestPaletteDrift(t *testing.T) {
	tests := []struct {
		name   string
		anchor []string
		scene  []string
		want   float64
	}{
		{"identical", []string{"#aaa", "#bbb"}, []string{"#AAA", "#bbb"}, 0},
		{"disjoint", []string{"#aaa", "#bbb"}, []string{"#ccc"}, 1},
		{"half", []string{"#aaa", "#bbb"}, []string{"#aaa"}, 0.5},
		{"empty anchor", nil, []string{"#aaa"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paletteDrift(tt.anchor, tt.scene); got != tt.want {
				t.Errorf("paletteDrift = %v, want %v", got, tt.want)
			}
		})
	}
}
