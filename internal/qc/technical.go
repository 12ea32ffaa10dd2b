package qc

import "fmt"

// technicalPenalty is subtracted from a starting score of 1.0 for each
// violated media property.
const technicalPenalty = 0.3

func (g *Gate) checkTechnical(scenes []Scene) ComponentResult {
	result := ComponentResult{Name: "technical", Score: 1.0, Passed: true}
	if len(scenes) == 0 {
		result.Score = 0
		result.Passed = false
		result.Violations = append(result.Violations, "no scenes to check")
		return result
	}

	tech := g.cfg.Technical
	for _, scene := range scenes {
		if scene.Width < tech.MinWidth || scene.Height < tech.MinHeight {
			result.Score -= technicalPenalty
			result.Violations = append(result.Violations,
				fmt.Sprintf("scene %d: resolution %dx%d below minimum %dx%d", scene.Number, scene.Width, scene.Height, tech.MinWidth, tech.MinHeight))
		}
		if scene.DurationSeconds < tech.MinDurationSeconds || scene.DurationSeconds > tech.MaxDurationSeconds {
			result.Score -= technicalPenalty
			result.Violations = append(result.Violations,
				fmt.Sprintf("scene %d: duration %.1fs outside accepted range %.1f-%.1fs", scene.Number, scene.DurationSeconds, tech.MinDurationSeconds, tech.MaxDurationSeconds))
		}
		if scene.FrameRate < tech.MinFrameRate {
			result.Score -= technicalPenalty
			result.Violations = append(result.Violations,
				fmt.Sprintf("scene %d: frame rate %.2f below minimum %.2f", scene.Number, scene.FrameRate, tech.MinFrameRate))
		}
	}

	result.Score = clamp01(result.Score)
	result.Passed = result.Score >= g.cfg.PassCutoff
	return result
}
