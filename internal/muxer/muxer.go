package muxer

// AssembleRequest describes one final assembly: the ordered scene clips, an
// optional subtitle file to burn in, and the output destination.
type AssembleRequest struct {
	ScenePaths   []string
	SubtitlePath string
	OutputPath   string
}

// Assembler joins the per-scene clips into the final promotional video.
type Assembler interface {
	Assemble(req AssembleRequest) error
}

// Style describes how burned-in subtitles are rendered. The quality gate uses
// these values as the typography evidence for every scene, since the renderer
// applies them uniformly.
type Style struct {
	FontSize      int
	ContrastRatio float64
	InSafeArea    bool
}

// DefaultStyle returns the renderer's subtitle style: 42pt white text with a
// dark outline box, kept inside the title-safe area.
func DefaultStyle() Style {
	return Style{
		FontSize:      42,
		ContrastRatio: 13.2,
		InSafeArea:    true,
	}
}
