// pkg/transfer/transfer.go

// Package transfer drives ingestion runs: it reads a source export, normalizes
// each record, and commits the resulting places to a sink in batches.
package transfer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/gazetteer/pkg/cleaner"
	"github.com/David-Botos/gazetteer/pkg/config"
	"github.com/David-Botos/gazetteer/pkg/dedup"
	"github.com/David-Botos/gazetteer/pkg/model"
	"github.com/David-Botos/gazetteer/pkg/placetype"
	"github.com/David-Botos/gazetteer/pkg/source"
)

// SinkOpener opens the sink for one run. The run closes it.
type SinkOpener func(ctx context.Context) (Sink, error)

// Ingestor runs TGN and HGIS ingestions against sinks from one opener
type Ingestor struct {
	openSink      SinkOpener
	batchSize     int
	progressEvery int
	metrics       *IngestMetrics
	verifier      *Verifier
	logger        *zap.Logger
}

// NewIngestor creates an ingestor. cfg supplies batch size and progress
// interval; metrics may be nil.
func NewIngestor(openSink SinkOpener, cfg *config.Config, metrics *IngestMetrics, logger *zap.Logger) *Ingestor {
	if metrics == nil {
		metrics = NewIngestMetrics(nil)
	}
	logger = logger.Named("ingest")
	ing := &Ingestor{
		openSink:      openSink,
		batchSize:     DefaultBatchSize,
		progressEvery: 1000,
		metrics:       metrics,
		verifier:      NewVerifier(logger),
		logger:        logger,
	}
	if cfg != nil {
		if cfg.BatchSize > 0 {
			ing.batchSize = cfg.BatchSize
		}
		ing.progressEvery = cfg.ProgressEvery
	}
	return ing
}

// run holds the per-run collaborators
type run struct {
	job          IngestJob
	result       *IngestResult
	sink         Sink
	loader       *BatchLoader
	cleaner      *cleaner.DataCleaner
	errorHandler *ErrorHandler
	progress     *Progress
	logger       *zap.Logger
}

// IngestTGN streams every Subject of the given XML exports into the sink
func (i *Ingestor) IngestTGN(ctx context.Context, paths []string, opts IngestOptions) (*IngestResult, error) {
	job := NewIngestJob(model.SourceTGN, paths, opts)
	return i.execute(ctx, job, func(r *run) error {
		for _, path := range paths {
			if err := i.streamTGN(ctx, r, path); err != nil {
				return err
			}
		}
		return nil
	})
}

// IngestHGIS loads the whole HGIS table, deduplicates it, optionally
// translates its place types, and loads the survivors
func (i *Ingestor) IngestHGIS(ctx context.Context, path string, opts IngestOptions) (*IngestResult, error) {
	job := NewIngestJob(model.SourceHGIS, []string{path}, opts)
	return i.execute(ctx, job, func(r *run) error {
		return i.loadHGIS(ctx, r, path)
	})
}

// execute wraps a run body with sink lifetime, reimport deletion, tail
// flush, verification and the result summary
func (i *Ingestor) execute(ctx context.Context, job IngestJob, body func(*run) error) (result *IngestResult, err error) {
	logger := i.logger.With(zap.String("run_id", job.ID), zap.String("source", job.Source))
	result = NewIngestResult(job)
	errorHandler := NewErrorHandler(logger)

	logger.Info("Starting ingestion",
		zap.Strings("paths", job.Paths),
		zap.String("policy", job.Options.Policy.String()),
		zap.Bool("force", job.Options.Force))

	sink, err := i.openSink(ctx)
	if err != nil {
		errorHandler.RecordError(NewErrorRecord(err, ErrorCategoryFatal).WithSource(job.Source))
		result.Complete(false)
		return result, fmt.Errorf("failed to open sink: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.Warn("Failed to close sink", zap.Error(cerr))
		}
	}()

	var before int64
	if job.Options.Force {
		if result.RowsDeleted, err = sink.DeleteBySource(ctx, job.Source); err != nil {
			result.Complete(false)
			return result, fmt.Errorf("failed to clear %s rows for reimport: %w", job.Source, err)
		}
	} else if before, err = sink.CountBySource(ctx, job.Source); err != nil {
		result.Complete(false)
		return result, fmt.Errorf("failed to count existing %s rows: %w", job.Source, err)
	}

	r := &run{
		job:          job,
		result:       result,
		sink:         sink,
		cleaner:      cleaner.NewDataCleaner(logger.Named("cleaner")),
		errorHandler: errorHandler,
		progress:     NewProgress(logger, job.Source, i.progressEvery),
		logger:       logger,
	}
	r.loader = NewBatchLoader(sink, job.Source, job.Options.Policy, errorHandler, i.metrics, logger).
		WithBatchSize(i.batchSize)

	runErr := body(r)
	if runErr == nil {
		runErr = r.loader.Flush(ctx)
	}

	stats := r.loader.Stats()
	result.RecordsSeen, result.RecordsNormalized, result.RecordErrors = r.progress.Counts()
	result.RowsLoaded = stats.Loaded
	result.BatchesCommitted = stats.Committed
	result.BatchesFailed = stats.Failed
	result.CleaningOperations = r.cleaner.Counts()
	r.cleaner.LogSummary()

	if runErr == nil {
		report, verr := i.verifier.VerifyRowCount(ctx, sink, job.Source, before+stats.Loaded)
		if verr != nil {
			logger.Warn("Verification failed", zap.Error(verr))
		} else {
			if reader, ok := sink.(PlaceReader); ok {
				if verr := i.verifier.VerifySampleRows(ctx, reader, r.loader.Sample(), report); verr != nil {
					logger.Warn("Sample verification failed", zap.Error(verr))
				}
			}
			result.Verification = report
		}
	}

	result.ErrorCategories = errorHandler.GetErrorSummary()
	result.ErrorSamples = errorHandler.GetErrorSamples()
	result.Complete(runErr == nil)
	r.progress.Log("Ingestion finished")
	logger.Info("Ingestion summary",
		zap.Bool("success", result.Success),
		zap.Int64("rowsLoaded", result.RowsLoaded),
		zap.Int("batchesCommitted", result.BatchesCommitted),
		zap.Int("batchesFailed", result.BatchesFailed),
		zap.Duration("duration", result.Duration))

	return result, runErr
}

// normalize maps one raw record to a place. A record error is counted and
// yields a nil place; only errors that end the run are returned.
func (r *run) normalize(i *Ingestor, rec source.RawRecordSource, recordID string) (*model.CanonicalPlace, error) {
	i.metrics.RecordsSeen.WithLabelValues(r.job.Source).Inc()

	place, err := rec.Normalize(r.cleaner)
	if err != nil {
		record := NewErrorRecord(err, r.errorHandler.CategorizeError(err)).
			WithSource(r.job.Source).
			WithRecord(recordID)
		if r.errorHandler.HandleError(record, r.job.Options.Policy) == ActionAbort {
			return nil, err
		}
		i.metrics.RecordsErrored.WithLabelValues(r.job.Source).Inc()
		r.progress.Seen(false)
		return nil, nil
	}

	r.progress.Seen(true)
	return place, nil
}

func (i *Ingestor) streamTGN(ctx context.Context, r *run, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open TGN export: %w", err)
	}
	defer f.Close()

	r.logger.Info("Reading TGN export", zap.String("path", path))
	stream := source.NewSubjectStream(bufio.NewReaderSize(f, 1<<20))
	return i.consumeSubjects(ctx, r, stream, path)
}

func (i *Ingestor) consumeSubjects(ctx context.Context, r *run, stream *source.SubjectStream, path string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		subject, err := stream.Next()
		if errors.Is(err, io.EOF) {
			r.logger.Debug("Reached end of TGN export",
				zap.String("path", path),
				zap.String("namespace", stream.Namespace()))
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		place, err := r.normalize(i, subject, subject.SubjectID)
		if err != nil {
			return err
		}
		if place == nil {
			continue
		}
		if err := r.loader.Add(ctx, place); err != nil {
			return err
		}
	}
}

func (i *Ingestor) loadHGIS(ctx context.Context, r *run, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open HGIS export: %w", err)
	}
	defer f.Close()

	rows, err := source.ReadTable(bufio.NewReader(f), delimiterFor(path))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	r.logger.Info("Read HGIS table", zap.String("path", path), zap.Int("rows", len(rows)))

	return i.loadRows(ctx, r, rows)
}

func (i *Ingestor) loadRows(ctx context.Context, r *run, rows []source.TabularRow) error {
	candidates := make([]*model.CanonicalPlace, 0, len(rows))
	for idx := range rows {
		row := &rows[idx]
		place, err := r.normalize(i, row, fmt.Sprintf("line %d", row.Line))
		if err != nil {
			return err
		}
		if place != nil {
			candidates = append(candidates, place)
		}
	}

	deduped := dedup.Deduplicate(candidates)
	r.result.DuplicatesDropped = deduped.Discarded
	if deduped.Discarded > 0 {
		r.logger.Info("Dropped duplicate places",
			zap.Int("discarded", deduped.Discarded),
			zap.Int("kept", len(deduped.Places)))
	}

	if r.job.Options.TranslateTypes {
		r.result.PlaceTypesDropped = placetype.TranslateAll(deduped.Places)
		r.logger.Info("Translated place types", zap.Int("unmapped", r.result.PlaceTypesDropped))
	}

	return r.loader.LoadAll(ctx, deduped.Places)
}

// delimiterFor picks tab for .tsv and .txt exports, comma otherwise
func delimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		return '\t'
	default:
		return ','
	}
}
