package inventory_test

import (
	"testing"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

func TestParseCondition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want domain.Condition
		ok   bool
	}{
		{raw: "0", want: domain.ConditionNew, ok: true},
		{raw: " 2 ", want: domain.ConditionUsedVeryGood, ok: true},
		{raw: "5", want: domain.ConditionDefective, ok: true},
		{raw: "Neuwertig", want: domain.ConditionLikeNew, ok: true},
		{raw: "DEFEKT", want: domain.ConditionDefective, ok: true},
		{raw: "6", ok: false},
		{raw: "-1", ok: false},
		{raw: "", ok: false},
		{raw: "mint", ok: false},
	}

	for _, tc := range cases {
		got, ok := domain.ParseCondition(tc.raw)
		if ok != tc.ok {
			t.Fatalf("ParseCondition(%q) ok=%v, want %v", tc.raw, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseCondition(%q)=%d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestConditionIsNew(t *testing.T) {
	t.Parallel()

	if !domain.ConditionNew.IsNew() || !domain.ConditionLikeNew.IsNew() {
		t.Fatal("expected new and like-new to be classified as new")
	}
	if domain.ConditionUsedGood.IsNew() || domain.ConditionDefective.IsNew() {
		t.Fatal("expected used conditions to be classified as used")
	}
}

func TestRawRowLookup(t *testing.T) {
	t.Parallel()

	row := domain.RawRow{
		Headers: []string{domain.HeaderInternalArticleNumber, domain.HeaderPrice, domain.HeaderCondition},
		Fields:  []string{" ART-1 ", "10,50"},
	}

	if v, ok := row.Lookup(domain.HeaderInternalArticleNumber); !ok || v != "ART-1" {
		t.Fatalf("unexpected article number lookup: %q %v", v, ok)
	}
	if _, ok := row.Lookup(domain.HeaderCondition); ok {
		t.Fatal("expected lookup past the end of the row to fail")
	}
	if _, ok := row.Lookup(domain.HeaderTitle); ok {
		t.Fatal("expected lookup of an absent header to fail")
	}
}

func TestInventoryRecordBrand(t *testing.T) {
	t.Parallel()

	rec := domain.InventoryRecord{BrandAndPartNumber: "Bosch 0 986 479 A14"}
	if rec.Brand() != "bosch" {
		t.Fatalf("unexpected brand: %q", rec.Brand())
	}
	if (domain.InventoryRecord{}).Brand() != "" {
		t.Fatal("expected empty brand")
	}
}
