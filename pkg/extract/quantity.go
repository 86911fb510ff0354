package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cigarscout/cigarscout/pkg/profile"
)

// Qualified quantity patterns. A capture from one of these is explicit
// packaging text and bypasses the ring-gauge denylist.
var qualifiedQtyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bbox\s+of\s+(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\bpack\s+of\s+(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\bbundle\s+of\s+(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:ct|count)\b`),
	regexp.MustCompile(`(?i)\b(\d{1,3})\s*-\s*pack\b`),
}

// Bare quantity patterns: a number next to a packaging label but without an
// explicit "box of"/"pack of" qualifier. These are where ring gauges leak
// in ("Ring: 52" tables, "52 x 6" size text), so the denylist applies.
var bareQtyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:pack|qty|quantity)\s*:?\s+(\d{1,3})\b`),
}

// ringGaugeDenylist holds the common ring-gauge values that masquerade as
// quantities in bare-number matches.
var ringGaugeDenylist = map[int]struct{}{
	46: {}, 48: {}, 50: {}, 52: {}, 54: {}, 56: {},
	58: {}, 60: {}, 62: {}, 64: {}, 66: {}, 70: {},
}

// qtyCandidate is one quantity match with its offset in the scope text.
type qtyCandidate struct {
	value int
	pos   int
}

// qtyOutcome is the resolver's contribution to the extraction result.
type qtyOutcome struct {
	quantity *int
	issues   []Issue
}

// resolveQuantity scans title/heading text first, then structured attribute
// tables, then the full page as a fallback. The first scope that yields a
// valid candidate wins. Among several valid candidates the one co-located
// with the resolved price is preferred, else the maximum: a page offering
// "5-pack $62 / Box of 25 $240" quotes the box quantity next to the box
// price.
func resolveQuantity(doc *Document, region *Region, bounds profile.QtyBounds, price *float64) qtyOutcome {
	out := qtyOutcome{}

	scopes := []string{
		doc.TitleText(),
		region.AttributeText(),
		doc.FullText(),
	}

	rejected := 0
	for _, scope := range scopes {
		if scope == "" {
			continue
		}

		candidates := make([]qtyCandidate, 0, 2)
		candidates, rejected = scanQuantities(scope, qualifiedQtyPatterns, bounds, false, candidates, rejected)
		candidates, rejected = scanQuantities(scope, bareQtyPatterns, bounds, true, candidates, rejected)
		if len(candidates) == 0 {
			continue
		}

		if rejected > 0 {
			out.issues = append(out.issues, Issue{
				Code:    IssueOutOfRangeQuantity,
				Message: fmt.Sprintf("%d quantity candidate(s) outside accepted range", rejected),
			})
		}

		chosen, ambiguous := chooseQuantity(candidates, scope, price)
		if ambiguous {
			out.issues = append(out.issues, Issue{
				Code:    IssueAmbiguousQuantity,
				Message: "multiple distinct valid quantities on page",
			})
		}
		out.quantity = &chosen
		return out
	}

	if rejected > 0 {
		out.issues = append(out.issues, Issue{
			Code:    IssueOutOfRangeQuantity,
			Message: fmt.Sprintf("%d quantity candidate(s) outside accepted range", rejected),
		})
	}
	out.issues = append(out.issues, Issue{
		Code:    IssueMissingQuantity,
		Message: "no box or pack quantity found",
	})
	return out
}

// scanQuantities collects bounded matches for a pattern family, applying
// the ring-gauge denylist to bare matches only.
func scanQuantities(scope string, patterns []*regexp.Regexp, bounds profile.QtyBounds, bare bool, acc []qtyCandidate, rejected int) ([]qtyCandidate, int) {
	for _, pattern := range patterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(scope, -1) {
			n, err := strconv.Atoi(scope[m[2]:m[3]])
			if err != nil {
				continue
			}
			if bare {
				if _, denied := ringGaugeDenylist[n]; denied {
					continue
				}
			}
			if !bounds.Contains(n) {
				rejected++
				continue
			}
			acc = append(acc, qtyCandidate{value: n, pos: m[0]})
		}
	}
	return acc, rejected
}

// chooseQuantity applies the multi-match tie-break within one scope.
func chooseQuantity(candidates []qtyCandidate, scope string, price *float64) (int, bool) {
	distinct := make(map[int]struct{}, len(candidates))
	for _, c := range candidates {
		distinct[c.value] = struct{}{}
	}
	if len(distinct) == 1 {
		return candidates[0].value, false
	}

	// Several distinct values: the one nearest the resolved price wins.
	if pricePos := locatePrice(scope, price); pricePos >= 0 {
		best := candidates[0]
		bestDist := abs(best.pos - pricePos)
		for _, c := range candidates[1:] {
			if d := abs(c.pos - pricePos); d < bestDist {
				best, bestDist = c, d
			}
		}
		return best.value, true
	}

	max := candidates[0].value
	for _, c := range candidates[1:] {
		if c.value > max {
			max = c.value
		}
	}
	return max, true
}

// locatePrice finds the offset of the resolved price's token in a scope
// text, or -1. The pattern tolerates thousands separators, so a price
// resolved as 1201.99 still anchors on "$1,201.99".
func locatePrice(scope string, price *float64) int {
	if price == nil {
		return -1
	}
	intPart, fracPart, _ := strings.Cut(strconv.FormatFloat(*price, 'f', 2, 64), ".")
	var b strings.Builder
	b.WriteString(`\$\s*`)
	for i, d := range intPart {
		if i > 0 {
			b.WriteString(`,?`)
		}
		b.WriteRune(d)
	}
	b.WriteString(`\.` + fracPart)
	if loc := regexp.MustCompile(b.String()).FindStringIndex(scope); loc != nil {
		return loc[0]
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
