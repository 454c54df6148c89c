package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	app "github.com/mohammadpnp/parts-import/internal/application/inventory"
	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

func TestQualityScore(t *testing.T) {
	t.Parallel()

	qa := app.NewQualityAssessor(app.DefaultThresholds())

	cases := []struct {
		valid, total, errors int
		want                 float64
	}{
		{valid: 0, total: 0, errors: 0, want: 0},
		{valid: 10, total: 10, errors: 0, want: 100},
		{valid: 9, total: 10, errors: 1, want: 85},
		{valid: 2, total: 3, errors: 1, want: 61.67},
		{valid: 950, total: 1000, errors: 50, want: 65},
		{valid: 1, total: 10, errors: 9, want: 0},
	}

	for _, tc := range cases {
		got := qa.Score(tc.valid, tc.total, tc.errors)
		assert.InDelta(t, tc.want, got, 0.0001, "Score(%d, %d, %d)", tc.valid, tc.total, tc.errors)
	}
}

func TestQualityScoreUsesConfiguredPenalty(t *testing.T) {
	t.Parallel()

	qa := app.NewQualityAssessor(app.Thresholds{PenaltyPerError: 1, MaxPenalty: 2})
	assert.InDelta(t, 98.0, qa.Score(10, 10, 3), 0.0001)
}

func TestQualityScoreZeroPenaltyIsHonoured(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 90.0, app.NewQualityAssessor(app.Thresholds{}).Score(9, 10, 1), 0.0001)

	negative := app.Thresholds{PenaltyPerError: -1, MaxPenalty: -1}
	assert.InDelta(t, 85.0, app.NewQualityAssessor(negative).Score(9, 10, 1), 0.0001)
}

func TestThresholdsZeroToleranceRejectsAnyError(t *testing.T) {
	t.Parallel()

	th := app.DefaultThresholds()
	th.ErrorTolerance = 0
	assert.True(t, th.Tolerates(0, 100))
	assert.False(t, th.Tolerates(1, 99))
}

func TestThresholdsTolerates(t *testing.T) {
	t.Parallel()

	th := app.DefaultThresholds()
	assert.True(t, th.Tolerates(0, 0))
	assert.True(t, th.Tolerates(50, 950))
	assert.True(t, th.Tolerates(10, 100))
	assert.False(t, th.Tolerates(11, 100))
	assert.False(t, th.Tolerates(150, 850))
	assert.False(t, th.Tolerates(1, 0))
}

func TestQualitySummarize(t *testing.T) {
	t.Parallel()

	yes, no := true, false

	a := record("A", "10.50")
	a.BrandAndPartNumber = "Bosch 123"
	a.Category = "Bremsen"
	a.Condition = domain.ConditionNew
	a.InStock = &yes

	b := record("B", "4.25")
	b.BrandAndPartNumber = "bosch 999"
	b.Category = "bremsen"
	b.Condition = domain.ConditionUsedGood
	b.InStock = &no

	c := record("C", "1")
	c.BrandAndPartNumber = "Mann W712"
	c.Condition = domain.ConditionLikeNew

	bi := app.NewQualityAssessor(app.DefaultThresholds()).Summarize([]domain.InventoryRecord{a, b, c})

	assert.InDelta(t, 15.75, bi.TotalValue, 0.0001)
	assert.InDelta(t, 5.25, bi.AveragePrice, 0.0001)
	assert.Equal(t, 2, bi.UniqueBrands)
	assert.Equal(t, 1, bi.UniqueCategories)
	assert.Equal(t, 1, bi.InStockCount)
	assert.Equal(t, 1, bi.OutOfStockCount)
	assert.Equal(t, 2, bi.NewConditionCount)
	assert.Equal(t, 1, bi.UsedConditionCount)
}

func TestQualitySummarizeEmpty(t *testing.T) {
	t.Parallel()

	bi := app.NewQualityAssessor(app.DefaultThresholds()).Summarize(nil)
	assert.Equal(t, domain.BusinessIntelligence{}, bi)
}
