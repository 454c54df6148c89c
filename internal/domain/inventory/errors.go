package inventory

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidOptions = errors.New("invalid processing options")
	ErrJobNotFound    = errors.New("import job not found")
	ErrItemNotFound   = errors.New("inventory item not found")
	ErrSourceNotFound = errors.New("import source not found")
)

// StructureError reports a file whose shape cannot be ingested.
type StructureError struct {
	Messages []string
}

func (e *StructureError) Error() string {
	return "invalid file structure: " + strings.Join(e.Messages, "; ")
}

// PersistenceError reports a write against the inventory store that failed.
type PersistenceError struct {
	ArticleNumber string
	Err           error
}

func (e *PersistenceError) Error() string {
	if e.ArticleNumber == "" {
		return fmt.Sprintf("persist batch: %v", e.Err)
	}
	return fmt.Sprintf("persist %s: %v", e.ArticleNumber, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
