package inventory

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

type ImportJob struct {
	ID          string
	FilePath    string
	FileName    string
	FileSize    int64
	MimeType    string
	Options     ProcessingOptions
	SubmittedBy string
	Status      JobStatus
	Attempts    int
	MaxAttempts int
	CreatedAt   time.Time
}

func (j ImportJob) FileInfo() FileInfo {
	return FileInfo{
		Name:       j.FileName,
		Size:       j.FileSize,
		MimeType:   j.MimeType,
		UploadedAt: j.CreatedAt,
	}
}

// JobSnapshot is what clients see when they poll a job by id.
type JobSnapshot struct {
	JobID       string            `json:"job_id"`
	Status      JobStatus         `json:"status"`
	FileName    string            `json:"file_name"`
	SubmittedBy string            `json:"submitted_by,omitempty"`
	Attempts    int               `json:"attempts"`
	Result      *ProcessingResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// SuccessNotification is the payload for the import-success template.
type SuccessNotification struct {
	JobID                string               `json:"job_id"`
	FileInfo             FileInfo             `json:"file_info"`
	Success              bool                 `json:"success"`
	ProcessingStats      ProcessingStats      `json:"processing_stats"`
	ValidationSummary    ValidationSummary    `json:"validation_summary"`
	BusinessIntelligence BusinessIntelligence `json:"business_intelligence"`
}

// FailureNotification is the payload for the import-failure template.
type FailureNotification struct {
	JobID    string    `json:"job_id"`
	FileName string    `json:"file_name"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}
