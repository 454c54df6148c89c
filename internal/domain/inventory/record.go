package inventory

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CSV header labels. They are matched literally after trimming.
const (
	HeaderInternalArticleNumber = "interne Artikelnummer"
	HeaderTitle                 = "Titel"
	HeaderBrandAndPartNumber    = "Marke und Teilenummer"
	HeaderPrice                 = "Preis"
	HeaderCondition             = "Zustand"
	HeaderDeposit               = "Pfand"
	HeaderShippingClass         = "Versandklasse"
	HeaderDeliveryDays          = "Lieferzeit"
	HeaderCategory              = "Kategorie"
	HeaderInStock               = "Auf Lager"
)

// RequiredHeaders must all be present in the header row of an import file.
var RequiredHeaders = []string{HeaderInternalArticleNumber, HeaderPrice, HeaderCondition}

const (
	DefaultDeposit       = 0
	DefaultShippingClass = 1
	DefaultDeliveryDays  = 1

	MinShippingClass = 1
	MaxShippingClass = 5
)

type Condition int

const (
	ConditionNew Condition = iota
	ConditionLikeNew
	ConditionUsedVeryGood
	ConditionUsedGood
	ConditionUsedAcceptable
	ConditionDefective
)

var conditionLabels = map[Condition]string{
	ConditionNew:            "Neu",
	ConditionLikeNew:        "Neuwertig",
	ConditionUsedVeryGood:   "Gebraucht - sehr gut",
	ConditionUsedGood:       "Gebraucht - gut",
	ConditionUsedAcceptable: "Gebraucht - akzeptabel",
	ConditionDefective:      "Defekt",
}

var conditionAliases = map[string]Condition{
	"neu":                    ConditionNew,
	"new":                    ConditionNew,
	"neuwertig":              ConditionLikeNew,
	"like new":               ConditionLikeNew,
	"gebraucht - sehr gut":   ConditionUsedVeryGood,
	"used - very good":       ConditionUsedVeryGood,
	"gebraucht - gut":        ConditionUsedGood,
	"gebraucht":              ConditionUsedGood,
	"used":                   ConditionUsedGood,
	"used - good":            ConditionUsedGood,
	"gebraucht - akzeptabel": ConditionUsedAcceptable,
	"used - acceptable":      ConditionUsedAcceptable,
	"defekt":                 ConditionDefective,
	"defective":              ConditionDefective,
}

// ParseCondition maps a digit or a known label to a Condition.
func ParseCondition(raw string) (Condition, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(value); err == nil {
		c := Condition(n)
		return c, c.Valid()
	}
	c, ok := conditionAliases[strings.ToLower(value)]
	return c, ok
}

func (c Condition) Valid() bool {
	return c >= ConditionNew && c <= ConditionDefective
}

func (c Condition) Label() string {
	return conditionLabels[c]
}

// IsNew reports whether the condition label carries a new-like token.
func (c Condition) IsNew() bool {
	label := strings.ToLower(c.Label())
	return strings.Contains(label, "neu") || strings.Contains(label, "new")
}

// RawRow is one CSV record zipped positionally with the header row.
type RawRow struct {
	Headers []string
	Fields  []string
	Line    int
}

// Lookup returns the field under header name, if the header exists and the
// row is long enough.
func (r RawRow) Lookup(header string) (string, bool) {
	for i, h := range r.Headers {
		if h != header {
			continue
		}
		if i >= len(r.Fields) {
			return "", false
		}
		return strings.TrimSpace(r.Fields[i]), true
	}
	return "", false
}

// InventoryRecord is a validated CSV row ready for persistence.
// InternalArticleNumber is the natural key and never changes once stored.
type InventoryRecord struct {
	InternalArticleNumber string          `json:"internal_article_number"`
	Title                 string          `json:"title,omitempty"`
	BrandAndPartNumber    string          `json:"brand_and_part_number"`
	Price                 decimal.Decimal `json:"price"`
	Condition             Condition       `json:"condition"`
	Deposit               int             `json:"deposit"`
	ShippingClass         int             `json:"shipping_class"`
	DeliveryDays          int             `json:"delivery_days"`
	Category              string          `json:"category,omitempty"`
	InStock               *bool           `json:"in_stock,omitempty"`
	SourceRow             int             `json:"-"`
}

// Brand returns the first word of BrandAndPartNumber.
func (r InventoryRecord) Brand() string {
	fields := strings.Fields(r.BrandAndPartNumber)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
