package models

import "time"

type ImportJob struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	FilePath       string  `gorm:"type:text;not null"`
	FileName       string  `gorm:"size:255;not null"`
	FileSize       int64   `gorm:"not null;default:0"`
	MimeType       string  `gorm:"size:120;not null"`
	Options        string  `gorm:"type:jsonb;not null"`
	SubmittedBy    string  `gorm:"size:255;not null"`
	Status         string  `gorm:"type:text;not null;index"`
	Attempts       int     `gorm:"not null;default:0"`
	MaxAttempts    int     `gorm:"not null;default:3"`
	ErrorMessage   *string `gorm:"type:text"`
	HeartbeatAt    *time.Time
	LeaseExpiresAt *time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
