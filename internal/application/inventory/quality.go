package inventory

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

// Thresholds are the tuning constants of scoring and strategy selection.
type Thresholds struct {
	// ErrorTolerance is the share of valid rows that may carry errors
	// while the run still counts as successful.
	ErrorTolerance  float64
	PenaltyPerError float64
	MaxPenalty      float64
	// LargeFileRows is the largest valid-row count persisted atomically.
	LargeFileRows int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ErrorTolerance:  0.10,
		PenaltyPerError: 5,
		MaxPenalty:      30,
		LargeFileRows:   5000,
	}
}

// withDefaults fills fields left negative. Zero is a valid setting for the
// tolerance and both penalties; LargeFileRows must be positive.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.ErrorTolerance < 0 {
		t.ErrorTolerance = d.ErrorTolerance
	}
	if t.PenaltyPerError < 0 {
		t.PenaltyPerError = d.PenaltyPerError
	}
	if t.MaxPenalty < 0 {
		t.MaxPenalty = d.MaxPenalty
	}
	if t.LargeFileRows <= 0 {
		t.LargeFileRows = d.LargeFileRows
	}
	return t
}

// Tolerates reports whether errorCount stays within the tolerated share of
// validRows.
func (t Thresholds) Tolerates(errorCount, validRows int) bool {
	return errorCount == 0 || float64(errorCount) <= t.ErrorTolerance*float64(validRows)
}

type QualityAssessor struct {
	thresholds Thresholds
}

func NewQualityAssessor(thresholds Thresholds) QualityAssessor {
	return QualityAssessor{thresholds: thresholds.withDefaults()}
}

// Score rates a run from 0 to 100: the validity ratio minus a capped
// per-error penalty, rounded to two decimals.
func (a QualityAssessor) Score(validRows, totalRows, errorCount int) float64 {
	if totalRows <= 0 {
		return 0
	}

	penalty := math.Min(float64(errorCount)*a.thresholds.PenaltyPerError, a.thresholds.MaxPenalty)
	score := float64(validRows)/float64(totalRows)*100 - penalty
	return math.Max(0, round2(score))
}

func (a QualityAssessor) Summarize(records []domain.InventoryRecord) domain.BusinessIntelligence {
	var bi domain.BusinessIntelligence
	if len(records) == 0 {
		return bi
	}

	total := decimal.Zero
	brands := make(map[string]struct{})
	categories := make(map[string]struct{})

	for _, record := range records {
		total = total.Add(record.Price)

		if brand := record.Brand(); brand != "" {
			brands[brand] = struct{}{}
		}
		if category := strings.TrimSpace(record.Category); category != "" {
			categories[strings.ToLower(category)] = struct{}{}
		}

		if record.InStock != nil {
			if *record.InStock {
				bi.InStockCount++
			} else {
				bi.OutOfStockCount++
			}
		}

		if record.Condition.IsNew() {
			bi.NewConditionCount++
		} else {
			bi.UsedConditionCount++
		}
	}

	bi.TotalValue = total.Round(2).InexactFloat64()
	bi.AveragePrice = total.Div(decimal.NewFromInt(int64(len(records)))).Round(2).InexactFloat64()
	bi.UniqueBrands = len(brands)
	bi.UniqueCategories = len(categories)
	return bi
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
