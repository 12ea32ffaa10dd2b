// Package retry implements the hierarchical retry tracker for scene
// pipelines. Each scene advances script → keyframe → video → done, with an
// independent retry budget per stage and a job-wide attempt ceiling that
// overrides all per-stage budgets. Transitions are pure: the orchestrator
// feeds in a state and an outcome and acts on the returned directive.
package retry
