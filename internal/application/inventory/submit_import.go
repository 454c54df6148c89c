package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

type SubmitImportInput struct {
	File        io.Reader
	FileName    string
	Size        int64
	MimeType    string
	Options     domain.ProcessingOptions
	SubmittedBy string
}

type SubmitImportOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type SubmitImport interface {
	Execute(ctx context.Context, in SubmitImportInput) (SubmitImportOutput, error)
}

type importJobEnqueuer interface {
	Enqueue(ctx context.Context, job domain.ImportJob) error
}

type fileSaver interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

type submitImport struct {
	jobs        importJobEnqueuer
	files       fileSaver
	statuses    domain.StatusStore
	maxAttempts int
	statusTTL   time.Duration
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

func NewSubmitImport(jobs importJobEnqueuer, files fileSaver, statuses domain.StatusStore, maxAttempts int, statusTTL time.Duration, logger *zap.Logger) SubmitImport {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if statusTTL <= 0 {
		statusTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &submitImport{
		jobs:        jobs,
		files:       files,
		statuses:    statuses,
		maxAttempts: maxAttempts,
		statusTTL:   statusTTL,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// Execute stores the upload and queues it. Processing never happens on the
// caller's goroutine.
func (uc *submitImport) Execute(ctx context.Context, in SubmitImportInput) (SubmitImportOutput, error) {
	if in.File == nil {
		return SubmitImportOutput{}, ErrMissingImportFile
	}
	if err := in.Options.Validate(); err != nil {
		if errors.Is(err, domain.ErrInvalidOptions) {
			return SubmitImportOutput{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
		return SubmitImportOutput{}, err
	}

	jobID := uc.newID()
	path, err := uc.files.Save(ctx, jobID+".csv", in.File)
	if err != nil {
		return SubmitImportOutput{}, fmt.Errorf("%w: %v", ErrStoreImportFile, err)
	}

	job := domain.ImportJob{
		ID:          jobID,
		FilePath:    path,
		FileName:    displayName(in.FileName),
		FileSize:    in.Size,
		MimeType:    in.MimeType,
		Options:     in.Options,
		SubmittedBy: in.SubmittedBy,
		Status:      domain.JobQueued,
		MaxAttempts: uc.maxAttempts,
		CreatedAt:   uc.now().UTC(),
	}

	if err := uc.jobs.Enqueue(ctx, job); err != nil {
		if delErr := uc.files.Delete(ctx, path); delErr != nil {
			uc.logger.Warn("delete orphaned import file failed", zap.String("job_id", jobID), zap.Error(delErr))
		}
		return SubmitImportOutput{}, fmt.Errorf("%w: %v", ErrEnqueueImportJob, err)
	}

	snapshot := snapshotOf(job, domain.JobQueued)
	if err := uc.statuses.Save(ctx, snapshot, uc.statusTTL); err != nil {
		uc.logger.Warn("store queued import status failed", zap.String("job_id", jobID), zap.Error(err))
	}

	uc.logger.Info("import job queued",
		zap.String("job_id", jobID),
		zap.String("file", job.FileName),
		zap.Int64("size", job.FileSize),
	)

	return SubmitImportOutput{
		JobID:  jobID,
		Status: string(domain.JobQueued),
	}, nil
}

// displayName keeps the base name of the upload with control characters
// removed, so it can travel in status payloads and mail headers.
func displayName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, filepath.Base(name))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload.csv"
	}
	return name
}
