// Package qc implements the quality gate that decides whether a generated
// clip is acceptable. Four independent checkers (typography, consistency,
// safety, technical) each produce a score in [0,1] and a verdict; the gate
// aggregates them into a weighted overall score with safety, typography, and
// consistency acting as hard gates. A separate, more lenient retry-trigger
// threshold signals when regeneration is worth attempting.
package qc
