// pkg/transfer/job.go
package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/gazetteer/pkg/config"
)

// BatchErrorPolicy decides what a run does after a batch transaction fails
type BatchErrorPolicy int

const (
	// ContinueOnBatchError logs the failed batch and moves on to the next one
	ContinueOnBatchError BatchErrorPolicy = iota
	// AbortOnBatchError stops the run at the first failed batch
	AbortOnBatchError
)

// String returns the configuration spelling of the policy
func (p BatchErrorPolicy) String() string {
	switch p {
	case ContinueOnBatchError:
		return config.PolicyContinue
	case AbortOnBatchError:
		return config.PolicyAbort
	default:
		return fmt.Sprintf("BatchErrorPolicy(%d)", int(p))
	}
}

// ParseBatchErrorPolicy reads "continue" or "abort"
func ParseBatchErrorPolicy(s string) (BatchErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case config.PolicyContinue:
		return ContinueOnBatchError, nil
	case config.PolicyAbort:
		return AbortOnBatchError, nil
	default:
		return 0, fmt.Errorf("unknown batch error policy %q, want %q or %q",
			s, config.PolicyContinue, config.PolicyAbort)
	}
}

// IngestOptions are the per-run switches of an ingestion
type IngestOptions struct {
	Policy BatchErrorPolicy
	// Force deletes the rows already stored for the source before loading
	Force bool
	// TranslateTypes maps place types to the canonical vocabulary before
	// loading. Only table sources honour it.
	TranslateTypes bool
}

// IngestJob represents one ingestion run over one source
type IngestJob struct {
	ID        string // Unique run identifier
	Source    string
	Paths     []string
	Options   IngestOptions
	CreatedAt time.Time
}

// NewIngestJob creates a job with a fresh run ID
func NewIngestJob(source string, paths []string, opts IngestOptions) IngestJob {
	return IngestJob{
		ID:        uuid.New().String(),
		Source:    source,
		Paths:     paths,
		Options:   opts,
		CreatedAt: time.Now(),
	}
}

// IngestResult represents the outcome of an ingestion run
type IngestResult struct {
	JobID              string
	Source             string
	Success            bool
	RecordsSeen        int64
	RecordsNormalized  int64
	RecordErrors       int64
	DuplicatesDropped  int
	PlaceTypesDropped  int
	RowsDeleted        int64
	RowsLoaded         int64
	BatchesCommitted   int
	BatchesFailed      int
	CleaningOperations map[string]int
	ErrorCategories    map[ErrorCategory]int
	ErrorSamples       map[ErrorCategory][]ErrorRecord
	Verification       *VerificationReport
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// NewIngestResult initializes a result for a job
func NewIngestResult(job IngestJob) *IngestResult {
	return &IngestResult{
		JobID:     job.ID,
		Source:    job.Source,
		StartTime: time.Now(),
	}
}

// Complete marks the run as finished and calculates duration
func (r *IngestResult) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// Throughput returns loaded rows per second
func (r *IngestResult) Throughput() float64 {
	if r.Duration.Seconds() <= 0 {
		return 0
	}
	return float64(r.RowsLoaded) / r.Duration.Seconds()
}

// HasErrors checks if any record or batch failed
func (r *IngestResult) HasErrors() bool {
	return r.RecordErrors > 0 || r.BatchesFailed > 0
}
