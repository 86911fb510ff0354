package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cigarscout/cigarscout/pkg/profile"
)

// priceToken matches a currency-tagged numeric token.
var priceToken = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// msrpLabel matches prices explicitly labeled as the pre-sale value.
var msrpLabel = regexp.MustCompile(`(?i)(?:msrp|retail\s+price|list\s+price|compare\s+at|was)[:\s]*\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// priceOutcome is the resolver's contribution to the extraction result.
type priceOutcome struct {
	price    *float64
	original *float64
	discount *float64
	issues   []Issue
}

// resolvePrice buckets currency tokens into current (not struck-through)
// and original (struck-through or MSRP-labeled), filters both buckets to
// the profile's plausible range, and applies the tie-break rules: with an
// original on the page, prefer the largest current strictly below it (sale
// evidence); otherwise the maximum plausible current, since the box price
// dominates incidental smaller prices.
func resolvePrice(region *Region, bounds profile.PriceBounds) priceOutcome {
	var out priceOutcome

	text := region.Text()
	struck := region.StruckText()

	// Original bucket: struck-through text plus MSRP-labeled tokens.
	originals := parsePrices(struck)
	labelRanges := make([][2]int, 0, 2)
	for _, m := range msrpLabel.FindAllStringSubmatchIndex(text, -1) {
		if v, ok := parseAmount(text[m[2]:m[3]]); ok {
			originals = append(originals, v)
		}
		labelRanges = append(labelRanges, [2]int{m[0], m[1]})
	}

	// Current bucket: every token in the region text that is neither part
	// of a labeled original nor equal to a struck value.
	currents := make([]decimal.Decimal, 0, 4)
	for _, m := range priceToken.FindAllStringSubmatchIndex(text, -1) {
		if insideAny(m[0], labelRanges) {
			continue
		}
		v, ok := parseAmount(text[m[2]:m[3]])
		if !ok {
			continue
		}
		if containsValue(originals, v) {
			continue
		}
		currents = append(currents, v)
	}

	rejected := 0
	originals, rejected = filterBounds(originals, bounds, rejected)
	currents, rejected = filterBounds(currents, bounds, rejected)
	if rejected > 0 {
		out.issues = append(out.issues, Issue{
			Code:    IssueOutOfRangePrice,
			Message: fmt.Sprintf("%d price candidate(s) outside plausible range", rejected),
		})
	}

	distinct := distinctValues(append(append([]decimal.Decimal{}, originals...), currents...))
	if len(distinct) == 0 {
		out.issues = append(out.issues, Issue{
			Code:    IssueNoPriceCandidates,
			Message: "no currency token within the plausible range",
			Fatal:   true,
		})
		return out
	}
	if len(distinct) > 2 {
		out.issues = append(out.issues, Issue{
			Code:    IssueAmbiguousPricing,
			Message: fmt.Sprintf("%d distinct valid price candidates", len(distinct)),
			Fatal:   true,
		})
	}

	// Single candidate anywhere: use it as-is, no discount.
	if len(distinct) == 1 {
		out.price = floatPtr(pickAny(originals, currents))
		return out
	}

	original := maxValue(originals)
	if original != nil {
		// Sale evidence: the largest current strictly below the original.
		var sale *decimal.Decimal
		for i := range currents {
			c := currents[i]
			if c.LessThan(*original) && (sale == nil || c.GreaterThan(*sale)) {
				sale = &currents[i]
			}
		}
		if sale != nil {
			out.price = floatPtr(*sale)
			out.original = floatPtr(*original)
			out.discount = discountPercent(*original, *sale)
			return out
		}
	}

	chosen := maxValue(currents)
	if chosen == nil {
		// Only originals survived the bounds filter; the largest stands in.
		chosen = maxValue(originals)
	}
	out.price = floatPtr(*chosen)
	return out
}

// discountPercent computes (original-current)/original*100, or nil when the
// original does not exceed the current price.
func discountPercent(original, current decimal.Decimal) *float64 {
	if !original.GreaterThan(current) || original.IsZero() {
		return nil
	}
	pct := original.Sub(current).
		Div(original).
		Mul(decimal.NewFromInt(100)).
		Round(4)
	f := pct.InexactFloat64()
	return &f
}

// parsePrices extracts every currency token from a text fragment.
func parsePrices(text string) []decimal.Decimal {
	matches := priceToken.FindAllStringSubmatchIndex(text, -1)
	out := make([]decimal.Decimal, 0, len(matches))
	for _, m := range matches {
		if v, ok := parseAmount(text[m[2]:m[3]]); ok {
			out = append(out, v)
		}
	}
	return out
}

// parseAmount parses a numeric token, tolerating thousands separators.
func parseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	v, err := decimal.NewFromString(raw)
	if err != nil || !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}

func filterBounds(values []decimal.Decimal, bounds profile.PriceBounds, rejected int) ([]decimal.Decimal, int) {
	kept := values[:0]
	for _, v := range values {
		if bounds.Contains(v.InexactFloat64()) {
			kept = append(kept, v)
		} else {
			rejected++
		}
	}
	return kept, rejected
}

func distinctValues(values []decimal.Decimal) []decimal.Decimal {
	seen := make(map[string]struct{}, len(values))
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		key := v.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out
}

func containsValue(values []decimal.Decimal, v decimal.Decimal) bool {
	for _, c := range values {
		if c.Equal(v) {
			return true
		}
	}
	return false
}

func maxValue(values []decimal.Decimal) *decimal.Decimal {
	var best *decimal.Decimal
	for i := range values {
		if best == nil || values[i].GreaterThan(*best) {
			best = &values[i]
		}
	}
	return best
}

func pickAny(originals, currents []decimal.Decimal) decimal.Decimal {
	if len(currents) > 0 {
		return currents[0]
	}
	return originals[0]
}

func insideAny(pos int, ranges [][2]int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

func floatPtr(v decimal.Decimal) *float64 {
	f := v.InexactFloat64()
	return &f
}
