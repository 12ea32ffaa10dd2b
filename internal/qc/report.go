package qc

// Status is the aggregate verdict of a quality gate evaluation.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// ComponentResult captures one checker's verdict.
type ComponentResult struct {
	Name       string   `json:"name"`
	Score      float64  `json:"score"`
	Passed     bool     `json:"passed"`
	Violations []string `json:"violations,omitempty"`
}

// Report is the immutable outcome of one quality gate evaluation.
type Report struct {
	Typography  ComponentResult `json:"typography"`
	Consistency ComponentResult `json:"consistency"`
	Safety      ComponentResult `json:"safety"`
	Technical   ComponentResult `json:"technical"`

	// StyleSignatureMatch reports whether every scene matched the job's
	// style anchor signature.
	StyleSignatureMatch bool `json:"style_signature_match"`

	OverallScore    float64 `json:"overall_score"`
	PassedThreshold bool    `json:"passed_threshold"`
	Status          Status  `json:"status"`
}

// Components returns the per-checker results in evaluation order.
func (r Report) Components() []ComponentResult {
	return []ComponentResult{r.Typography, r.Consistency, r.Safety, r.Technical}
}

// Anchor is the job-level style anchor scenes are checked against.
type Anchor struct {
	Palette        []string `json:"palette"`
	StyleSignature string   `json:"style_signature"`
	Tone           string   `json:"tone"`
}

// Scene is the per-scene evidence the gate evaluates. The orchestrator
// assembles it from the accepted script, keyframe, and video artifacts.
type Scene struct {
	Number            int
	Language          string
	SubtitleText      string
	SubtitleLines     int
	FontSize          int
	ContrastRatio     float64
	InSafeArea        bool
	Narration         string
	VisualDescription string
	Palette           []string
	StyleSignature    string
	Width             int
	Height            int
	DurationSeconds   float64
	FrameRate         float64
}
