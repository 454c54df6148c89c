package inventory

import (
	"encoding/csv"
	"io"
	"strings"
)

const csvDelimiter = ';'

const utf8BOM = "\ufeff"

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = csvDelimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

func normalizeHeaders(header []string) []string {
	headers := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

// recordLine returns the source line on which the last read record started.
func recordLine(reader *csv.Reader) int {
	line, _ := reader.FieldPos(0)
	return line
}
