package orchestrator

import "errors"

var (
	errTitleRequired = errors.New("job request: title required")

	// ErrGenerationFailed marks a job that could not produce all three
	// scenes within its retry budgets.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrQualityRejected marks a job whose scenes were all produced but
	// which the quality gate refused. Distinct from ErrGenerationFailed so
	// callers can tell provider trouble from content trouble.
	ErrQualityRejected = errors.New("quality gate rejected result")

	// ErrAssemblyFailed marks a failure while muxing the final clip.
	ErrAssemblyFailed = errors.New("final assembly failed")
)
