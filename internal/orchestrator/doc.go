// Package orchestrator runs generation jobs end to end. A job fans out into
// three scene pipelines (script, keyframe, video), each bounded by per-stage
// retry budgets and a job-wide attempt ceiling. Concurrent batches are
// abandoned wholesale on rate limiting and rerun sequentially; retries are
// always sequential. Completed scenes pass through the quality gate, get
// priced by the cost accountant, and on full success are assembled into the
// final clip and written to the result cache.
package orchestrator
