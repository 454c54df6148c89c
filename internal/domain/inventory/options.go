package inventory

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type ValidationMode string

const (
	ValidationStrict     ValidationMode = "strict"
	ValidationFlexible   ValidationMode = "flexible"
	ValidationSkipErrors ValidationMode = "skip_errors"
)

const (
	MinBatchSize     = 100
	MaxBatchSize     = 10000
	DefaultBatchSize = 1000
)

// ProcessingOptions tune one import run.
type ProcessingOptions struct {
	ValidationMode    ValidationMode `json:"validation_mode" validate:"required,oneof=strict flexible skip_errors"`
	UpdateExisting    bool           `json:"update_existing"`
	SkipDuplicates    bool           `json:"skip_duplicates"`
	BatchSize         int            `json:"batch_size" validate:"min=100,max=10000"`
	RollbackOnError   bool           `json:"rollback_on_error"`
	EmailNotification bool           `json:"email_notification"`
	NotifyEmail       string         `json:"notify_email,omitempty" validate:"omitempty,email"`
}

func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		ValidationMode:  ValidationFlexible,
		UpdateExisting:  true,
		BatchSize:       DefaultBatchSize,
		RollbackOnError: true,
	}
}

// ShouldNotify reports whether a terminal job should produce a notification.
func (o ProcessingOptions) ShouldNotify() bool {
	return o.EmailNotification && strings.TrimSpace(o.NotifyEmail) != ""
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func optionsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks option bounds and returns ErrInvalidOptions wrapping the
// offending fields.
func (o ProcessingOptions) Validate() error {
	if o.EmailNotification && strings.TrimSpace(o.NotifyEmail) == "" {
		return fmt.Errorf("%w: NotifyEmail is required when EmailNotification is set", ErrInvalidOptions)
	}

	err := optionsValidator().Struct(o)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(parts, ", "))
}
