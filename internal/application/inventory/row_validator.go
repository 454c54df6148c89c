package inventory

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/mohammadpnp/parts-import/internal/domain/inventory"
)

var (
	errPriceNotNumeric = errors.New("price is not numeric")
	nonPriceChars      = regexp.MustCompile(`[^0-9,.]`)
)

// RowResult is either a record or the list of reasons the row was rejected.
type RowResult struct {
	Record   *domain.InventoryRecord
	Messages []string
}

func (r RowResult) OK() bool {
	return r.Record != nil && len(r.Messages) == 0
}

// RowValidator maps one raw CSV row to an InventoryRecord. It has no side
// effects; every check runs so a rejected row reports all of its problems.
type RowValidator struct{}

func (RowValidator) Validate(raw domain.RawRow, rowNumber int, opts domain.ProcessingOptions) RowResult {
	if len(raw.Fields) != len(raw.Headers) {
		return RowResult{Messages: []string{
			fmt.Sprintf("row %d has %d columns, header has %d", rowNumber, len(raw.Fields), len(raw.Headers)),
		}}
	}

	strict := opts.ValidationMode == domain.ValidationStrict
	var messages []string

	record := domain.InventoryRecord{SourceRow: rowNumber}

	record.InternalArticleNumber, _ = raw.Lookup(domain.HeaderInternalArticleNumber)
	if record.InternalArticleNumber == "" {
		messages = append(messages, "internal article number is required")
	}

	rawPrice, _ := raw.Lookup(domain.HeaderPrice)
	price, err := ParsePrice(rawPrice)
	if err != nil {
		messages = append(messages, fmt.Sprintf("price %q is not numeric", rawPrice))
	}
	record.Price = price

	rawCondition, _ := raw.Lookup(domain.HeaderCondition)
	condition, ok := domain.ParseCondition(rawCondition)
	if !ok {
		messages = append(messages, fmt.Sprintf("condition %q must be between %d and %d", rawCondition, domain.ConditionNew, domain.ConditionDefective))
	}
	record.Condition = condition

	record.Title, _ = raw.Lookup(domain.HeaderTitle)
	record.Category, _ = raw.Lookup(domain.HeaderCategory)

	brand, hasBrand := raw.Lookup(domain.HeaderBrandAndPartNumber)
	if strict && hasBrand && brand == "" {
		messages = append(messages, "brand and part number is required")
	}
	record.BrandAndPartNumber = brand

	var msg string
	record.Deposit, msg = optionalInt(raw, domain.HeaderDeposit, domain.DefaultDeposit, strict, func(n int) bool {
		return n >= 0
	}, "deposit must be a non-negative integer")
	messages = appendMessage(messages, msg)

	record.ShippingClass, msg = optionalInt(raw, domain.HeaderShippingClass, domain.DefaultShippingClass, strict, func(n int) bool {
		return n >= domain.MinShippingClass && n <= domain.MaxShippingClass
	}, fmt.Sprintf("shipping class must be between %d and %d", domain.MinShippingClass, domain.MaxShippingClass))
	messages = appendMessage(messages, msg)

	record.DeliveryDays, msg = optionalInt(raw, domain.HeaderDeliveryDays, domain.DefaultDeliveryDays, strict, func(n int) bool {
		return n >= 1
	}, "delivery days must be at least 1")
	messages = appendMessage(messages, msg)

	if rawStock, ok := raw.Lookup(domain.HeaderInStock); ok && rawStock != "" {
		inStock, parsed := parseStockFlag(rawStock)
		switch {
		case parsed:
			record.InStock = &inStock
		case strict:
			messages = append(messages, fmt.Sprintf("stock flag %q is not a yes/no value", rawStock))
		}
	}

	if len(messages) > 0 {
		return RowResult{Messages: messages}
	}
	return RowResult{Record: &record}
}

// ParsePrice accepts both decimal comma and decimal point. Everything other
// than digits, commas and points is dropped first; when both separators are
// present the point is read as a thousands separator.
func ParsePrice(raw string) (decimal.Decimal, error) {
	cleaned := nonPriceChars.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Zero, errPriceNotNumeric
	}
	if strings.Contains(cleaned, ",") && strings.Contains(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errPriceNotNumeric
	}
	return price, nil
}

func optionalInt(raw domain.RawRow, header string, fallback int, strict bool, valid func(int) bool, message string) (int, string) {
	value, ok := raw.Lookup(header)
	if !ok || value == "" {
		return fallback, ""
	}
	n, err := strconv.Atoi(value)
	if err == nil && valid(n) {
		return n, ""
	}
	if strict {
		return fallback, message
	}
	return fallback, ""
}

func parseStockFlag(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "ja", "j", "yes", "y", "true", "x":
		return true, true
	case "0", "nein", "n", "no", "false":
		return false, true
	}
	return false, false
}

func appendMessage(messages []string, msg string) []string {
	if msg == "" {
		return messages
	}
	return append(messages, msg)
}
