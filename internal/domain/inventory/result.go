package inventory

import "time"

type ResultErrorType string

const (
	StructureErrorType   ResultErrorType = "structure_error"
	PersistenceErrorType ResultErrorType = "persistence_error"
	SystemErrorType      ResultErrorType = "system_error"
)

// ResultError is a file-level failure carried inside a ProcessingResult.
type ResultError struct {
	Type    ResultErrorType `json:"type"`
	Message string          `json:"message"`
	Details []string        `json:"details,omitempty"`
}

// ValidationError describes one row that was not persisted.
type ValidationError struct {
	Row      int      `json:"row"`
	Messages []string `json:"messages"`
	RawData  []string `json:"raw_data,omitempty"`
}

type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type ProcessingStats struct {
	TotalRows   int               `json:"total_rows"`
	ValidRows   int               `json:"valid_rows"`
	InvalidRows int               `json:"invalid_rows"`
	Inserted    int               `json:"inserted"`
	Updated     int               `json:"updated"`
	Skipped     int               `json:"skipped"`
	Duplicates  int               `json:"duplicates"`
	Errors      []ValidationError `json:"errors"`
}

type Performance struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	MemoryPeakBytes uint64    `json:"memory_peak_bytes"`
}

type ValidationSummary struct {
	StructureValid   bool    `json:"structure_valid"`
	HeadersValid     bool    `json:"headers_valid"`
	DataFormatValid  bool    `json:"data_format_valid"`
	PersistenceValid bool    `json:"persistence_valid"`
	DataQualityScore float64 `json:"data_quality_score"`
}

type BusinessIntelligence struct {
	TotalValue         float64 `json:"total_value"`
	AveragePrice       float64 `json:"average_price"`
	UniqueBrands       int     `json:"unique_brands"`
	UniqueCategories   int     `json:"unique_categories"`
	InStockCount       int     `json:"in_stock_count"`
	OutOfStockCount    int     `json:"out_of_stock_count"`
	NewConditionCount  int     `json:"new_condition_count"`
	UsedConditionCount int     `json:"used_condition_count"`
}

// ProcessingResult is the complete outcome of one ingestion run.
type ProcessingResult struct {
	Success              bool                 `json:"success"`
	Message              string               `json:"message"`
	FileInfo             FileInfo             `json:"file_info"`
	ProcessingStats      ProcessingStats      `json:"processing_stats"`
	Performance          Performance          `json:"performance"`
	ValidationSummary    ValidationSummary    `json:"validation_summary"`
	BusinessIntelligence BusinessIntelligence `json:"business_intelligence"`
	Failures             []ResultError        `json:"failures,omitempty"`
}

// ErrorCount is the number of row-level entries in the result.
func (r ProcessingResult) ErrorCount() int {
	return len(r.ProcessingStats.Errors)
}

// HasFailure reports whether a file-level error of the given type was recorded.
func (r ProcessingResult) HasFailure(t ResultErrorType) bool {
	for _, f := range r.Failures {
		if f.Type == t {
			return true
		}
	}
	return false
}
