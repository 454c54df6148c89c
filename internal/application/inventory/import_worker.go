package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

// FileStore keeps uploaded files between submission and processing.
type FileStore interface {
	ImportSource
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

type importRunner interface {
	Run(ctx context.Context, file UploadedFile, opts domain.ProcessingOptions) domain.ProcessingResult
}

type importWorkerJobRepo interface {
	ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.ImportJob, error)
	Heartbeat(ctx context.Context, jobID string, leaseDuration time.Duration) error
	Complete(ctx context.Context, jobID string) error
	Requeue(ctx context.Context, jobID string, reason string) error
	Fail(ctx context.Context, jobID string, reason string) error
	FailExhausted(ctx context.Context, reason string) ([]domain.ImportJob, error)
}

type ImportWorkerConfig struct {
	Workers           int
	PollInterval      time.Duration
	LeaseDuration     time.Duration
	HeartbeatInterval time.Duration
	JobTimeout        time.Duration
	StatusTTL         time.Duration
	ReapInterval      time.Duration
}

type ImportWorkerDeps struct {
	Jobs     importWorkerJobRepo
	Files    FileStore
	Runner   importRunner
	Statuses domain.StatusStore
	Notifier domain.Notifier
	Metrics  Metrics
	Logger   *zap.Logger
}

// ImportWorker claims queued import jobs and drives them to a terminal
// state. Several workers may run against the same queue.
type ImportWorker struct {
	jobs     importWorkerJobRepo
	files    FileStore
	runner   importRunner
	statuses domain.StatusStore
	notifier domain.Notifier
	metrics  Metrics
	logger   *zap.Logger
	cfg      ImportWorkerConfig
	now      func() time.Time

	once sync.Once
}

func NewImportWorker(deps ImportWorkerDeps, cfg ImportWorkerConfig) *ImportWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = 60 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = cfg.LeaseDuration / 2
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = 24 * time.Hour
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = cfg.LeaseDuration
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &ImportWorker{
		jobs:     deps.Jobs,
		files:    deps.Files,
		runner:   deps.Runner,
		statuses: deps.Statuses,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run starts the worker pool and the lease reaper and blocks until ctx is
// done. Calling Run twice is a no-op for the second caller.
func (w *ImportWorker) Run(ctx context.Context) error {
	started := false
	w.once.Do(func() { started = true })
	if !started {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Workers; i++ {
		g.Go(func() error {
			w.workerLoop(gctx)
			return nil
		})
	}
	g.Go(func() error {
		w.reapLoop(gctx)
		return nil
	})
	return g.Wait()
}

func (w *ImportWorker) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed, err := w.processNext(ctx)
		if err != nil {
			w.logger.Warn("import job attempt failed", zap.Error(err))
		}
		if !claimed {
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
		}
	}
}

// processNext claims at most one job and processes it. It reports whether a
// job was claimed.
func (w *ImportWorker) processNext(ctx context.Context) (bool, error) {
	job, err := w.jobs.ClaimNext(ctx, w.cfg.LeaseDuration)
	if err != nil {
		return false, fmt.Errorf("claim next import job: %w", err)
	}
	if job == nil {
		return false, nil
	}
	return true, w.ProcessJob(ctx, *job)
}

func (w *ImportWorker) reapLoop(ctx context.Context) {
	for sleepWithContext(ctx, w.cfg.ReapInterval) {
		if err := w.reapExpired(ctx); err != nil {
			w.logger.Error("reap expired import jobs failed", zap.Error(err))
		}
	}
}

// reapExpired fails jobs whose lease ran out on their last attempt and
// finalizes them like any other failed job.
func (w *ImportWorker) reapExpired(ctx context.Context) error {
	const reason = "job lease expired after the final attempt"

	jobs, err := w.jobs.FailExhausted(ctx, reason)
	if err != nil {
		return fmt.Errorf("fail exhausted jobs: %w", err)
	}
	for _, job := range jobs {
		w.logger.Warn("import job abandoned", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempts))
		w.finalizeFailed(ctx, job, reason)
	}
	return nil
}

func (w *ImportWorker) ProcessJob(ctx context.Context, job domain.ImportJob) error {
	log := w.logger.With(zap.String("job_id", job.ID), zap.Int("attempt", job.Attempts))
	log.Info("import job started", zap.String("file", job.FileName))

	w.saveSnapshot(ctx, snapshotOf(job, domain.JobRunning))

	reader, err := w.files.Open(ctx, job.FilePath)
	if err != nil {
		return w.onProcessingError(ctx, job, fmt.Errorf("open import source: %w", err))
	}
	if err := reader.Close(); err != nil {
		log.Warn("close import source failed", zap.Error(err))
	}

	runCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	stopHeartbeat := w.startHeartbeat(runCtx, job.ID)
	result := w.runner.Run(runCtx, UploadedFile{Path: job.FilePath, Info: job.FileInfo()}, job.Options)
	stopHeartbeat()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return w.fail(ctx, job, fmt.Errorf("import exceeded the time budget of %s", w.cfg.JobTimeout))
	}
	if err := ctx.Err(); err != nil {
		// Shutdown: the lease runs out and another worker picks the job up.
		return err
	}

	if err := w.jobs.Complete(ctx, job.ID); err != nil {
		return w.onProcessingError(ctx, job, fmt.Errorf("complete job: %w", err))
	}

	w.finalizeCompleted(ctx, job, result)
	log.Info("import job completed",
		zap.Bool("success", result.Success),
		zap.Float64("duration", result.Performance.DurationSeconds),
	)
	return nil
}

func (w *ImportWorker) startHeartbeat(ctx context.Context, jobID string) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(w.cfg.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.jobs.Heartbeat(ctx, jobID, w.cfg.LeaseDuration); err != nil && ctx.Err() == nil {
					w.logger.Warn("import job heartbeat failed", zap.String("job_id", jobID), zap.Error(err))
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// onProcessingError requeues the job while attempts remain and fails it for
// good otherwise. The original error is always returned.
func (w *ImportWorker) onProcessingError(ctx context.Context, job domain.ImportJob, err error) error {
	reason := truncateReason(err.Error())
	if job.Attempts >= job.MaxAttempts {
		return w.fail(ctx, job, err)
	}

	if requeueErr := w.jobs.Requeue(ctx, job.ID, reason); requeueErr != nil {
		return fmt.Errorf("%v; requeue failed: %w", err, requeueErr)
	}
	w.metrics.JobRetried()

	snapshot := snapshotOf(job, domain.JobQueued)
	snapshot.Error = reason
	w.saveSnapshot(ctx, snapshot)
	return err
}

func (w *ImportWorker) fail(ctx context.Context, job domain.ImportJob, err error) error {
	reason := truncateReason(err.Error())
	if failErr := w.jobs.Fail(ctx, job.ID, reason); failErr != nil {
		return fmt.Errorf("%v; fail update failed: %w", err, failErr)
	}

	w.finalizeFailed(ctx, job, reason)
	return err
}

func (w *ImportWorker) finalizeCompleted(ctx context.Context, job domain.ImportJob, result domain.ProcessingResult) {
	ctx = context.WithoutCancel(ctx)
	w.removeFile(ctx, job)

	completedAt := w.now()
	snapshot := snapshotOf(job, domain.JobCompleted)
	snapshot.Result = &result
	snapshot.CompletedAt = &completedAt
	w.saveSnapshot(ctx, snapshot)
	w.metrics.JobFinished(domain.JobCompleted, completedAt.Sub(job.CreatedAt))

	if !job.Options.ShouldNotify() {
		return
	}
	err := w.notifier.NotifySuccess(ctx, job.Options.NotifyEmail, domain.SuccessNotification{
		JobID:                job.ID,
		FileInfo:             result.FileInfo,
		Success:              result.Success,
		ProcessingStats:      result.ProcessingStats,
		ValidationSummary:    result.ValidationSummary,
		BusinessIntelligence: result.BusinessIntelligence,
	})
	if err != nil {
		w.logger.Warn("send import success notification failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *ImportWorker) finalizeFailed(ctx context.Context, job domain.ImportJob, reason string) {
	ctx = context.WithoutCancel(ctx)
	w.removeFile(ctx, job)

	failedAt := w.now()
	snapshot := snapshotOf(job, domain.JobFailed)
	snapshot.Error = reason
	snapshot.CompletedAt = &failedAt
	w.saveSnapshot(ctx, snapshot)
	w.metrics.JobFinished(domain.JobFailed, failedAt.Sub(job.CreatedAt))

	w.logger.Error("import job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempts), zap.String("error", reason))

	if !job.Options.ShouldNotify() {
		return
	}
	err := w.notifier.NotifyFailure(ctx, job.Options.NotifyEmail, domain.FailureNotification{
		JobID:    job.ID,
		FileName: job.FileName,
		Error:    reason,
		FailedAt: failedAt,
	})
	if err != nil {
		w.logger.Warn("send import failure notification failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *ImportWorker) removeFile(ctx context.Context, job domain.ImportJob) {
	if err := w.files.Delete(ctx, job.FilePath); err != nil && !errors.Is(err, domain.ErrSourceNotFound) {
		w.logger.Warn("delete import file failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *ImportWorker) saveSnapshot(ctx context.Context, snapshot domain.JobSnapshot) {
	if err := w.statuses.Save(ctx, snapshot, w.cfg.StatusTTL); err != nil {
		w.logger.Warn("store import job status failed",
			zap.String("job_id", snapshot.JobID),
			zap.String("status", string(snapshot.Status)),
			zap.Error(err),
		)
	}
}

func snapshotOf(job domain.ImportJob, status domain.JobStatus) domain.JobSnapshot {
	return domain.JobSnapshot{
		JobID:       job.ID,
		Status:      status,
		FileName:    job.FileName,
		SubmittedBy: job.SubmittedBy,
		Attempts:    job.Attempts,
		SubmittedAt: job.CreatedAt,
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
