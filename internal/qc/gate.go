package qc

import (
	"fmt"
	"log/slog"
	"strings"

	"bookreel/internal/config"
	"bookreel/internal/logging"
)

// Gate aggregates the independent quality checkers into a single verdict.
type Gate struct {
	cfg                config.QC
	maxCharsByLanguage map[string]int
	logger             *slog.Logger
}

// New constructs a quality gate from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Gate {
	byLanguage := make(map[string]int, len(cfg.QC.Typography.MaxCharsByLanguage))
	for lang, limit := range cfg.QC.Typography.MaxCharsByLanguage {
		byLanguage[strings.ToLower(strings.TrimSpace(lang))] = limit
	}
	return &Gate{
		cfg:                cfg.QC,
		maxCharsByLanguage: byLanguage,
		logger:             logging.NewComponentLogger(logger, "qc"),
	}
}

// Evaluate runs every checker and aggregates the weighted overall score.
//
// Safety, typography, and consistency are hard gates: each must individually
// pass regardless of the weighted sum. Technical alone cannot force a fail —
// a slightly off frame rate should not discard an otherwise acceptable clip.
func (g *Gate) Evaluate(anchor Anchor, scenes []Scene) Report {
	typography := g.checkTypography(scenes)
	consistency, signatureMatch := g.checkConsistency(anchor, scenes)
	safety := g.checkSafety(anchor, scenes)
	technical := g.checkTechnical(scenes)

	overall := typography.Score*g.cfg.Weights.Typography +
		consistency.Score*g.cfg.Weights.Consistency +
		safety.Score*g.cfg.Weights.Safety +
		technical.Score*g.cfg.Weights.Technical

	report := Report{
		Typography:          typography,
		Consistency:         consistency,
		Safety:              safety,
		Technical:           technical,
		StyleSignatureMatch: signatureMatch,
		OverallScore:        overall,
		PassedThreshold:     overall >= g.cfg.MinScore,
	}

	if report.PassedThreshold && safety.Passed && typography.Passed && consistency.Passed {
		report.Status = StatusPass
	} else {
		report.Status = StatusFail
	}

	g.logger.Info("quality gate evaluated",
		logging.String(logging.FieldEventType, "qc_evaluated"),
		logging.Float64("overall_score", report.OverallScore),
		logging.Bool("passed_threshold", report.PassedThreshold),
		logging.String("status", string(report.Status)),
		logging.Float64("typography_score", typography.Score),
		logging.Float64("consistency_score", consistency.Score),
		logging.Float64("safety_score", safety.Score),
		logging.Float64("technical_score", technical.Score))

	return report
}

// RetrySignal reports whether any component scored below the lenient
// retry-trigger cutoff, with a reason naming the offenders and their worst
// violations. The caller decides whether retry budget remains.
func (g *Gate) RetrySignal(report Report) (bool, string) {
	var reasons []string
	for _, component := range report.Components() {
		if component.Score >= g.cfg.RetryCutoff {
			continue
		}
		reason := fmt.Sprintf("%s scored %.2f (retry trigger %.2f)", component.Name, component.Score, g.cfg.RetryCutoff)
		if len(component.Violations) > 0 {
			reason += ": " + component.Violations[0]
		}
		reasons = append(reasons, reason)
	}
	if len(reasons) == 0 {
		return false, ""
	}
	return true, strings.Join(reasons, "; ")
}
