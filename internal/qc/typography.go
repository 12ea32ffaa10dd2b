package qc

import (
	"fmt"
	"unicode/utf8"
)

// subtitle sub-checks per scene: character count, line count, safe area,
// font size, contrast. Each contributes equally to the component score.
const typographySubChecks = 5

func (g *Gate) checkTypography(scenes []Scene) ComponentResult {
	result := ComponentResult{Name: "typography", Passed: true}
	if len(scenes) == 0 {
		result.Passed = false
		result.Violations = append(result.Violations, "no scenes to check")
		return result
	}

	total := 0
	passed := 0
	for _, scene := range scenes {
		maxChars := g.maxChars(scene.Language)

		checks := []struct {
			ok        bool
			violation string
		}{
			{
				ok:        utf8.RuneCountInString(scene.SubtitleText) <= maxChars,
				violation: fmt.Sprintf("scene %d: subtitle exceeds %d characters", scene.Number, maxChars),
			},
			{
				ok:        scene.SubtitleLines <= g.cfg.Typography.MaxLines,
				violation: fmt.Sprintf("scene %d: subtitle exceeds %d lines", scene.Number, g.cfg.Typography.MaxLines),
			},
			{
				ok:        scene.InSafeArea,
				violation: fmt.Sprintf("scene %d: subtitle renders outside safe area", scene.Number),
			},
			{
				ok:        scene.FontSize >= g.cfg.Typography.MinFontSize,
				violation: fmt.Sprintf("scene %d: font size %d below minimum %d", scene.Number, scene.FontSize, g.cfg.Typography.MinFontSize),
			},
			{
				ok:        scene.ContrastRatio >= g.cfg.Typography.MinContrastRatio,
				violation: fmt.Sprintf("scene %d: contrast ratio %.2f below minimum %.2f", scene.Number, scene.ContrastRatio, g.cfg.Typography.MinContrastRatio),
			},
		}

		for _, check := range checks {
			total++
			if check.ok {
				passed++
				continue
			}
			result.Passed = false
			result.Violations = append(result.Violations, check.violation)
		}
	}

	if total > 0 {
		result.Score = float64(passed) / float64(total)
	}
	return result
}

func (g *Gate) maxChars(language string) int {
	if limit, ok := g.maxCharsByLanguage[language]; ok && limit > 0 {
		return limit
	}
	return g.cfg.Typography.MaxChars
}
