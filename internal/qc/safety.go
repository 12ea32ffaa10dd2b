package qc

import (
	"fmt"
	"strings"
)

// positiveTones are the anchor tones accepted by the required-tone check.
// Promotional clips for books are expected to invite, not menace.
var positiveTones = map[string]struct{}{
	"uplifting":     {},
	"inviting":      {},
	"warm":          {},
	"hopeful":       {},
	"inspiring":     {},
	"curious":       {},
	"wonder":        {},
	"adventurous":   {},
	"contemplative": {},
}

func (g *Gate) checkSafety(anchor Anchor, scenes []Scene) ComponentResult {
	result := ComponentResult{Name: "safety", Passed: true}

	hits := 0
	for _, scene := range scenes {
		text := strings.ToLower(scene.Narration + " " + scene.SubtitleText + " " + scene.VisualDescription)
		for _, word := range g.cfg.ForbiddenWords {
			if word = strings.ToLower(strings.TrimSpace(word)); word != "" && strings.Contains(text, word) {
				hits++
				result.Violations = append(result.Violations,
					fmt.Sprintf("scene %d: forbidden word %q", scene.Number, word))
			}
		}
		for _, theme := range g.cfg.ForbiddenThemes {
			if theme = strings.ToLower(strings.TrimSpace(theme)); theme != "" && strings.Contains(text, theme) {
				hits++
				result.Violations = append(result.Violations,
					fmt.Sprintf("scene %d: forbidden theme %q", scene.Number, theme))
			}
		}
	}

	tonePositive := isPositiveTone(anchor.Tone)
	if !tonePositive {
		result.Violations = append(result.Violations,
			fmt.Sprintf("anchor tone %q is not an accepted promotional tone", anchor.Tone))
	}

	// Score is binary: any forbidden hit or tone failure disqualifies outright.
	if hits == 0 && tonePositive {
		result.Score = 1.0
	} else {
		result.Score = 0.0
		result.Passed = false
	}
	return result
}

func isPositiveTone(tone string) bool {
	tone = strings.ToLower(strings.TrimSpace(tone))
	if tone == "" {
		return false
	}
	for _, field := range strings.Fields(tone) {
		if _, ok := positiveTones[field]; ok {
			return true
		}
	}
	return false
}
