package qc

import (
	"fmt"
	"strings"
)

func (g *Gate) checkConsistency(anchor Anchor, scenes []Scene) (ComponentResult, bool) {
	result := ComponentResult{Name: "consistency", Passed: true}
	if len(scenes) == 0 {
		result.Passed = false
		result.Violations = append(result.Violations, "no scenes to check")
		return result, false
	}

	signatureMatch := true
	var driftSum float64
	for _, scene := range scenes {
		drift := paletteDrift(anchor.Palette, scene.Palette)
		driftSum += drift
		if drift > g.cfg.DriftTolerance {
			result.Passed = false
			result.Violations = append(result.Violations,
				fmt.Sprintf("scene %d: palette drift %.2f exceeds tolerance %.2f", scene.Number, drift, g.cfg.DriftTolerance))
		}
		if !strings.EqualFold(strings.TrimSpace(scene.StyleSignature), strings.TrimSpace(anchor.StyleSignature)) {
			signatureMatch = false
			result.Passed = false
			result.Violations = append(result.Violations,
				fmt.Sprintf("scene %d: style signature %q does not match anchor %q", scene.Number, scene.StyleSignature, anchor.StyleSignature))
		}
	}

	avgDrift := driftSum / float64(len(scenes))
	result.Score = clamp01(1.0 - avgDrift)
	return result, signatureMatch
}

// paletteDrift measures how far a scene's palette strayed from the anchor:
// the fraction of anchor colors absent from the scene. 0 means fully on
// palette, 1 means no overlap at all.
func paletteDrift(anchor, scene []string) float64 {
	if len(anchor) == 0 {
		return 0
	}
	present := make(map[string]struct{}, len(scene))
	for _, color := range scene {
		present[normalizeColor(color)] = struct{}{}
	}
	missing := 0
	for _, color := range anchor {
		if _, ok := present[normalizeColor(color)]; !ok {
			missing++
		}
	}
	return float64(missing) / float64(len(anchor))
}

func normalizeColor(color string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(color), "#"))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
