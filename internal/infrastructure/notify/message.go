package notify

import (
	"fmt"
	"strings"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

const (
	SuccessTemplate = "inventory_import_success"
	FailureTemplate = "inventory_import_failure"
)

func successSubject(p domain.SuccessNotification) string {
	if !p.Success {
		return fmt.Sprintf("Inventory import finished with problems: %s", headerSafe(p.FileInfo.Name))
	}
	return fmt.Sprintf("Inventory import completed: %s", headerSafe(p.FileInfo.Name))
}

func failureSubject(p domain.FailureNotification) string {
	return fmt.Sprintf("Inventory import failed: %s", headerSafe(p.FileName))
}

// headerSafe flattens line breaks so a value cannot start a new header.
func headerSafe(s string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}

func successBody(p domain.SuccessNotification) string {
	s := p.ProcessingStats
	bi := p.BusinessIntelligence

	var b strings.Builder
	fmt.Fprintf(&b, "Job: %s\n", p.JobID)
	fmt.Fprintf(&b, "File: %s (%d bytes)\n\n", p.FileInfo.Name, p.FileInfo.Size)
	fmt.Fprintf(&b, "Rows: %d total, %d valid, %d invalid\n", s.TotalRows, s.ValidRows, s.InvalidRows)
	fmt.Fprintf(&b, "Inserted: %d\nUpdated: %d\nSkipped: %d\nDuplicates: %d\n", s.Inserted, s.Updated, s.Skipped, s.Duplicates)
	fmt.Fprintf(&b, "Data quality score: %.2f\n\n", p.ValidationSummary.DataQualityScore)
	fmt.Fprintf(&b, "Total value: %.2f\nAverage price: %.2f\n", bi.TotalValue, bi.AveragePrice)
	fmt.Fprintf(&b, "Brands: %d\nCategories: %d\n", bi.UniqueBrands, bi.UniqueCategories)
	fmt.Fprintf(&b, "In stock: %d\nOut of stock: %d\n", bi.InStockCount, bi.OutOfStockCount)

	if n := len(s.Errors); n > 0 {
		fmt.Fprintf(&b, "\n%d rows were rejected", n)
		shown := s.Errors
		if len(shown) > 10 {
			shown = shown[:10]
			b.WriteString(", first 10")
		}
		b.WriteString(":\n")
		for _, e := range shown {
			fmt.Fprintf(&b, "  row %d: %s\n", e.Row, strings.Join(e.Messages, "; "))
		}
	}
	return b.String()
}

func failureBody(p domain.FailureNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job: %s\n", p.JobID)
	fmt.Fprintf(&b, "File: %s\n", p.FileName)
	fmt.Fprintf(&b, "Failed at: %s\n\n", p.FailedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Error: %s\n", p.Error)
	return b.String()
}
