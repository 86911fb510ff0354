package store

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cigarscout/cigarscout/pkg/catalog"
	"github.com/cigarscout/cigarscout/pkg/errors"
)

// Override is one manually verified price record for a listing URL. It
// exists for pages the extractor cannot read reliably: a human checks the
// price, records how, and the runner applies it after extraction.
type Override struct {
	URL           string
	Price         float64
	OriginalPrice *float64
	InStock       bool
	VerifiedAt    time.Time
	Method        string // e.g. "manual", "phone", "email"
}

// Overrides is the override table keyed by listing URL.
type Overrides map[string]Override

// OverrideColumns is the CSV layout of the override table.
var OverrideColumns = []string{
	"url", "price", "original_price", "in_stock", "verified_at", "method",
}

// LoadOverrides reads the override table. A missing file means no
// overrides; a malformed row fails the load because a silently dropped
// override would republish a wrong price.
func LoadOverrides(path string) (Overrides, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Overrides{}, nil
	}
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	header, records, err := readCSV(f)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	if len(header) == 0 {
		return Overrides{}, nil
	}

	overrides := make(Overrides, len(records))
	for i, record := range records {
		o, err := overrideFromRecord(record)
		if err != nil {
			return nil, &errors.ConfigError{
				Component: "price overrides",
				Message:   "row " + strconv.Itoa(i+2) + " in " + path,
				Err:       err,
			}
		}
		overrides[o.URL] = o
	}
	return overrides, nil
}

// Apply replaces the listing's transactional fields with the override and
// marks the listing so the substitution stays visible downstream. It
// reports whether an override existed for the listing's URL.
func (o Overrides) Apply(l *catalog.Listing) bool {
	ov, ok := o[l.URL]
	if !ok {
		return false
	}
	l.Price = ov.Price
	l.OriginalPrice = ov.OriginalPrice
	l.DiscountPercent = nil
	if ov.OriginalPrice != nil && *ov.OriginalPrice > ov.Price {
		pct := (*ov.OriginalPrice - ov.Price) / *ov.OriginalPrice * 100
		l.DiscountPercent = &pct
	}
	l.InStock = ov.InStock
	l.PromotionsApplied = true
	return true
}

func overrideFromRecord(record []string) (Override, error) {
	get := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	o := Override{URL: get(0), Method: get(5)}
	if o.URL == "" {
		return o, &errors.ValidationError{Field: "url", Message: "required"}
	}

	price, err := strconv.ParseFloat(get(1), 64)
	if err != nil {
		return o, &errors.ValidationError{Field: "price", Value: get(1), Message: "not a number"}
	}
	o.Price = price

	if raw := get(2); raw != "" {
		orig, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return o, &errors.ValidationError{Field: "original_price", Value: raw, Message: "not a number"}
		}
		o.OriginalPrice = &orig
	}

	o.InStock = parseOverrideBool(get(3))

	if raw := get(4); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return o, &errors.ValidationError{Field: "verified_at", Value: raw, Message: "not RFC3339"}
		}
		o.VerifiedAt = at
	}
	return o, nil
}

func parseOverrideBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
