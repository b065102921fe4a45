// pkg/transfer/metrics.go
package transfer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const metricsNamespace = "gazetteer"

// IngestMetrics holds the ingestion counters, labelled by source
type IngestMetrics struct {
	RecordsSeen      *prometheus.CounterVec
	RecordsLoaded    *prometheus.CounterVec
	RecordsErrored   *prometheus.CounterVec
	BatchesCommitted *prometheus.CounterVec
	BatchesFailed    *prometheus.CounterVec
	BatchDuration    *prometheus.HistogramVec
}

// NewIngestMetrics creates the counters and registers them on reg. A nil
// registerer leaves them unregistered, which is what tests usually want.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      name,
			Help:      help,
		}, []string{"source"})
	}

	m := &IngestMetrics{
		RecordsSeen:      counter("records_seen_total", "Source records read."),
		RecordsLoaded:    counter("records_loaded_total", "Places committed to the sink."),
		RecordsErrored:   counter("records_errored_total", "Source records skipped by normalization."),
		BatchesCommitted: counter("batches_committed_total", "Batch transactions committed."),
		BatchesFailed:    counter("batches_failed_total", "Batch transactions rolled back."),
		BatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Time spent in one batch insert transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"source"}),
	}

	if reg != nil {
		reg.MustRegister(m.RecordsSeen, m.RecordsLoaded, m.RecordsErrored,
			m.BatchesCommitted, m.BatchesFailed, m.BatchDuration)
	}
	return m
}

// Progress logs seen/succeeded/errored counts every n records
type Progress struct {
	logger    *zap.Logger
	source    string
	every     int64
	start     time.Time
	seen      int64
	succeeded int64
	errored   int64
}

// NewProgress creates a progress reporter. every <= 0 disables periodic lines.
func NewProgress(logger *zap.Logger, source string, every int) *Progress {
	return &Progress{
		logger: logger,
		source: source,
		every:  int64(every),
		start:  time.Now(),
	}
}

// Seen counts one record read from the source
func (p *Progress) Seen(ok bool) {
	p.seen++
	if ok {
		p.succeeded++
	} else {
		p.errored++
	}
	if p.every > 0 && p.seen%p.every == 0 {
		p.Log("Ingestion progress")
	}
}

// Log writes the current counts
func (p *Progress) Log(msg string) {
	p.logger.Info(msg,
		zap.String("source", p.source),
		zap.Int64("seen", p.seen),
		zap.Int64("succeeded", p.succeeded),
		zap.Int64("errored", p.errored),
		zap.Duration("elapsed", time.Since(p.start)))
}

// Counts returns seen, succeeded and errored totals
func (p *Progress) Counts() (seen, succeeded, errored int64) {
	return p.seen, p.succeeded, p.errored
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// GenerateReport renders the final summary of a run
func (r *IngestResult) GenerateReport() string {
	status := "completed"
	if !r.Success {
		status = "failed"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`
Ingestion Report
================
Run ID:                  %s
Source:                  %s
Status:                  %s
Duration:                %s

Records
-------
Seen:                    %d
Normalized:              %d
Skipped (errors):        %d
Duplicates Dropped:      %d
Place Types Dropped:     %d

Sink
----
Rows Deleted:            %d
Rows Loaded:             %d
Batches Committed:       %d
Batches Failed:          %d
Throughput:              %.2f rows/sec
`,
		r.JobID,
		r.Source,
		status,
		formatDuration(r.Duration),
		r.RecordsSeen,
		r.RecordsNormalized,
		r.RecordErrors,
		r.DuplicatesDropped,
		r.PlaceTypesDropped,
		r.RowsDeleted,
		r.RowsLoaded,
		r.BatchesCommitted,
		r.BatchesFailed,
		r.Throughput(),
	))

	if len(r.CleaningOperations) > 0 {
		sb.WriteString("\nCleaning Operations\n-------------------\n")
		for _, op := range sortedKeys(r.CleaningOperations) {
			sb.WriteString(fmt.Sprintf("- %s: %d\n", op, r.CleaningOperations[op]))
		}
	}

	if len(r.ErrorSamples) > 0 {
		sb.WriteString("\nError Samples\n-------------\n")
		for _, category := range []ErrorCategory{ErrorCategoryRecordLevel, ErrorCategoryBatchLevel, ErrorCategoryFatal} {
			for _, sample := range r.ErrorSamples[category] {
				sb.WriteString(fmt.Sprintf("- %s\n", sample))
			}
		}
	}

	if v := r.Verification; v != nil {
		sb.WriteString(fmt.Sprintf("\nVerification: expected %d, found %d, match=%v\n",
			v.Expected, v.Actual, v.Match))
	}

	return sb.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
