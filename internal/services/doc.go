// Package services defines the shared error taxonomy and context helpers used
// by the generation provider clients and the orchestrator.
//
// Errors are tagged with sentinel markers (ErrRateLimited, ErrValidation,
// ErrTimeout, ErrFatal, ...) via Wrap so callers can classify failures with
// errors.Is without parsing messages. IsRateLimited is the single predicate
// that decides whether a failure is throttling-class; both the orchestrator's
// concurrent-batch discard and the stage-level retry budget consult it.
package services
