package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

const (
	defaultSampleRows = 10
	minHeaderColumns  = 3
)

type StructureReport struct {
	Valid        bool
	HeadersValid bool
	Headers      []string
	Errors       []string
}

// StructureValidator checks the header row and a small sample of data rows
// before any row is processed. It only reads from the given stream.
type StructureValidator struct {
	SampleRows int
}

func NewStructureValidator() *StructureValidator {
	return &StructureValidator{SampleRows: defaultSampleRows}
}

func (v *StructureValidator) Validate(r io.Reader) StructureReport {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		msg := "file is empty"
		if !errors.Is(err, io.EOF) {
			msg = fmt.Sprintf("header row is unreadable: %v", err)
		}
		return StructureReport{Errors: []string{msg}}
	}

	headers := normalizeHeaders(header)
	report := StructureReport{Headers: headers, HeadersValid: true}

	if len(headers) < minHeaderColumns {
		report.HeadersValid = false
		report.Errors = append(report.Errors, fmt.Sprintf("header row has %d columns, at least %d are required", len(headers), minHeaderColumns))
	}

	if missing := missingHeaders(headers); len(missing) > 0 {
		report.HeadersValid = false
		report.Errors = append(report.Errors, "missing required headers: "+strings.Join(missing, ", "))
	}

	sample := v.SampleRows
	if sample <= 0 {
		sample = defaultSampleRows
	}

	for i := 0; i < sample; i++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Errors = append(report.Errors, fmt.Sprintf("row %d is malformed: %v", parseErr.StartLine, parseErr.Err))
			} else {
				report.Errors = append(report.Errors, fmt.Sprintf("sample row is unreadable: %v", err))
			}
			break
		}
		if len(fields) != len(headers) {
			report.Errors = append(report.Errors, fmt.Sprintf("row %d has %d columns, header has %d", recordLine(reader), len(fields), len(headers)))
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}

func missingHeaders(headers []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}

	var missing []string
	for _, required := range domain.RequiredHeaders {
		if _, ok := present[required]; !ok {
			missing = append(missing, required)
		}
	}
	return missing
}
