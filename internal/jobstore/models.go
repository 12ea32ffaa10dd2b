package jobstore

import "time"

// Status is the resolved outcome of a job.
type Status string

const (
	StatusSucceeded        Status = "succeeded"
	StatusCacheHit         Status = "cache_hit"
	StatusGenerationFailed Status = "generation_failed"
	StatusQualityRejected  Status = "quality_rejected"
	StatusAssemblyFailed   Status = "assembly_failed"
)

// SceneSummary is the per-scene slice of a job record.
type SceneSummary struct {
	Number    int    `json:"number"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	Retries   int    `json:"retries"`
	LastError string `json:"last_error,omitempty"`
}

// Record is one resolved job. Only settled jobs are persisted; in-flight
// progress is not durable.
type Record struct {
	ID              int64
	JobID           string
	Title           string
	Author          string
	Language        string
	Mode            string
	Status          Status
	CacheHit        bool
	VideoLocator    string
	SubtitleLocator string
	OverallScore    float64
	TotalCost       float64
	TotalRetries    int
	Scenes          []SceneSummary
	ErrorMessage    string
	CreatedAt       time.Time
}
