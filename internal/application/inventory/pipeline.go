package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"go.uber.org/zap"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

// ctxCheckEvery bounds how many rows are scanned between cancellation checks.
const ctxCheckEvery = 500

type ImportSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// UploadedFile points at an accepted upload in temporary storage.
type UploadedFile struct {
	Path string
	Info domain.FileInfo
}

type Metrics interface {
	ObserveResult(result domain.ProcessingResult)
	JobFinished(status domain.JobStatus, duration time.Duration)
	JobRetried()
}

type noopMetrics struct{}

func (noopMetrics) ObserveResult(domain.ProcessingResult) {}

func (noopMetrics) JobFinished(domain.JobStatus, time.Duration) {}

func (noopMetrics) JobRetried() {}

type Pipeline struct {
	source     ImportSource
	structure  *StructureValidator
	rows       RowValidator
	persister  *BatchPersister
	quality    QualityAssessor
	thresholds Thresholds
	metrics    Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewPipeline(source ImportSource, persister *BatchPersister, thresholds Thresholds, metrics Metrics, logger *zap.Logger) *Pipeline {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	thresholds = thresholds.withDefaults()

	return &Pipeline{
		source:     source,
		structure:  NewStructureValidator(),
		persister:  persister,
		quality:    NewQualityAssessor(thresholds),
		thresholds: thresholds,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Run ingests one file and always returns a result. Row and best-effort
// persistence problems are reported as data; anything unexpected, panics
// included, becomes a system_error entry.
func (p *Pipeline) Run(ctx context.Context, file UploadedFile, opts domain.ProcessingOptions) (result domain.ProcessingResult) {
	start := p.now()
	mem := &memTracker{}
	mem.sample()

	result = domain.ProcessingResult{
		FileInfo:        file.Info,
		ProcessingStats: domain.ProcessingStats{Errors: []domain.ValidationError{}},
		Performance:     domain.Performance{StartTime: start},
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("import pipeline panicked",
				zap.String("file", file.Info.Name),
				zap.Any("panic", r),
			)
			failSystem(&result, fmt.Errorf("unexpected failure: %v", r))
		}

		mem.sample()
		end := p.now()
		result.Performance.EndTime = end
		result.Performance.DurationSeconds = end.Sub(start).Seconds()
		result.Performance.MemoryPeakBytes = mem.peak
		p.metrics.ObserveResult(result)
	}()

	if err := p.run(ctx, file, opts, &result, mem); err != nil {
		p.logger.Error("import pipeline aborted",
			zap.String("file", file.Info.Name),
			zap.Error(err),
		)
		failSystem(&result, err)
	}
	return result
}

func (p *Pipeline) run(ctx context.Context, file UploadedFile, opts domain.ProcessingOptions, result *domain.ProcessingResult, mem *memTracker) error {
	report, err := p.checkStructure(ctx, file.Path)
	if err != nil {
		return err
	}
	result.ValidationSummary.HeadersValid = report.HeadersValid
	if !report.Valid {
		structErr := &domain.StructureError{Messages: report.Errors}
		result.Success = false
		result.Message = structErr.Error()
		result.Failures = append(result.Failures, domain.ResultError{
			Type:    domain.StructureErrorType,
			Message: "file structure is invalid",
			Details: report.Errors,
		})
		return nil
	}
	result.ValidationSummary.StructureValid = true
	mem.sample()

	valid, rowErrors, totalRows, err := p.scanRows(ctx, file.Path, opts)
	if err != nil {
		return err
	}
	mem.sample()

	stats := &result.ProcessingStats
	stats.TotalRows = totalRows
	stats.ValidRows = len(valid)
	stats.InvalidRows = len(rowErrors)
	stats.Errors = append(stats.Errors, rowErrors...)
	stats.Duplicates = countDuplicates(valid)

	toPersist, dupSkipped := valid, 0
	if opts.SkipDuplicates {
		toPersist, dupSkipped = firstOccurrences(valid)
	}

	strategy := SelectStrategy(opts, len(toPersist), p.thresholds.LargeFileRows)
	persisted, err := p.persister.Persist(ctx, toPersist, opts, strategy)
	stats.Inserted = persisted.Inserted
	stats.Updated = persisted.Updated
	stats.Skipped = persisted.Skipped + dupSkipped

	var persistErr *domain.PersistenceError
	switch {
	case errors.As(err, &persistErr):
		p.logger.Error("atomic persistence rolled back",
			zap.String("file", file.Info.Name),
			zap.Int("records", len(toPersist)),
			zap.Error(err),
		)
		result.Failures = append(result.Failures, domain.ResultError{
			Type:    domain.PersistenceErrorType,
			Message: persistErr.Error(),
		})
	case err != nil:
		// Rows already committed by earlier chunks stay counted.
		return err
	}
	mem.sample()

	for _, failure := range persisted.Failures {
		stats.Errors = append(stats.Errors, domain.ValidationError{
			Row:      failure.Row,
			Messages: []string{fmt.Sprintf("persist %s: %s", failure.ArticleNumber, failure.Message)},
		})
	}

	score := p.quality.Score(stats.ValidRows, stats.TotalRows, result.ErrorCount())
	result.BusinessIntelligence = p.quality.Summarize(valid)
	result.ValidationSummary.DataFormatValid = len(rowErrors) == 0
	result.ValidationSummary.PersistenceValid = persistErr == nil && len(persisted.Failures) == 0
	result.ValidationSummary.DataQualityScore = score

	counted := result.ErrorCount()
	if opts.ValidationMode == domain.ValidationSkipErrors {
		counted = len(persisted.Failures)
	}
	result.Success = persistErr == nil && p.thresholds.Tolerates(counted, stats.ValidRows)

	switch {
	case persistErr != nil:
		result.Message = fmt.Sprintf("import rolled back: %d valid rows were not persisted", len(toPersist))
	case result.Success:
		result.Message = fmt.Sprintf("imported %d of %d rows (%d inserted, %d updated, %d skipped)",
			stats.Inserted+stats.Updated, stats.TotalRows, stats.Inserted, stats.Updated, stats.Skipped)
	default:
		result.Message = fmt.Sprintf("import finished with %d errors in %d rows", result.ErrorCount(), stats.TotalRows)
	}

	p.logger.Info("import pipeline finished",
		zap.String("file", file.Info.Name),
		zap.String("strategy", strategy.String()),
		zap.Int("total_rows", stats.TotalRows),
		zap.Int("valid_rows", stats.ValidRows),
		zap.Int("errors", result.ErrorCount()),
		zap.Bool("success", result.Success),
	)
	return nil
}

func (p *Pipeline) checkStructure(ctx context.Context, path string) (StructureReport, error) {
	rc, err := p.source.Open(ctx, path)
	if err != nil {
		return StructureReport{}, fmt.Errorf("open for structure check: %w", err)
	}
	defer rc.Close()

	return p.structure.Validate(rc), nil
}

// scanRows validates every data row in file order. A bad row never stops the
// scan; only I/O failures and cancellation do.
func (p *Pipeline) scanRows(ctx context.Context, path string, opts domain.ProcessingOptions) ([]domain.InventoryRecord, []domain.ValidationError, int, error) {
	rc, err := p.source.Open(ctx, path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open for row scan: %w", err)
	}
	defer rc.Close()

	reader := newCSVReader(rc)
	header, err := reader.Read()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read header: %w", err)
	}
	headers := normalizeHeaders(header)

	var (
		valid     []domain.InventoryRecord
		rowErrors []domain.ValidationError
		total     int
	)

	for {
		if total%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, 0, fmt.Errorf("row scan interrupted: %w", err)
			}
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, nil, 0, fmt.Errorf("read row: %w", err)
			}
			total++
			rowErrors = append(rowErrors, domain.ValidationError{
				Row:      parseErr.StartLine,
				Messages: []string{parseErr.Err.Error()},
			})
			continue
		}

		total++
		line := recordLine(reader)
		row := domain.RawRow{Headers: headers, Fields: fields, Line: line}

		res := p.rows.Validate(row, line, opts)
		if !res.OK() {
			rowErrors = append(rowErrors, domain.ValidationError{
				Row:      line,
				Messages: res.Messages,
				RawData:  fields,
			})
			continue
		}
		valid = append(valid, *res.Record)
	}

	return valid, rowErrors, total, nil
}

func failSystem(result *domain.ProcessingResult, err error) {
	result.Success = false
	result.Message = "import aborted by an unexpected error"
	result.Failures = append(result.Failures, domain.ResultError{
		Type:    domain.SystemErrorType,
		Message: err.Error(),
	})
}

// countDuplicates is the number of records minus the number of distinct
// article numbers among them.
func countDuplicates(records []domain.InventoryRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		seen[record.InternalArticleNumber] = struct{}{}
	}
	return len(records) - len(seen)
}

func firstOccurrences(records []domain.InventoryRecord) ([]domain.InventoryRecord, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.InventoryRecord, 0, len(records))
	for _, record := range records {
		if _, ok := seen[record.InternalArticleNumber]; ok {
			continue
		}
		seen[record.InternalArticleNumber] = struct{}{}
		out = append(out, record)
	}
	return out, len(records) - len(out)
}

type memTracker struct {
	peak uint64
}

func (m *memTracker) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	if stats.HeapAlloc > m.peak {
		m.peak = stats.HeapAlloc
	}
}
