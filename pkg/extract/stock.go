package extract

import (
	"regexp"
	"strings"

	"github.com/cigarscout/cigarscout/pkg/profile"
)

// stockCount matches explicit availability counts ("12 in stock").
var stockCount = regexp.MustCompile(`(?i)\b(\d+)\s+in\s+stock\b`)

// stockOutcome is the classifier's contribution to the extraction result.
type stockOutcome struct {
	inStock   bool
	ruleFired string
	issues    []Issue
}

// classifyStock walks the profile's rule ladder in order; the first rule
// that fires decides. Negative phrases come before buy buttons in every
// sane profile: retailers routinely leave an enabled "Add to Cart" on
// backordered items, so text evidence of absence dominates an apparently
// purchasable control.
func classifyStock(region *Region, rules []profile.StockRule, priceFound bool) stockOutcome {
	text := strings.ToLower(region.Text())

	for _, rule := range rules {
		switch rule.Rule {
		case profile.StockRuleNegativePhrase:
			for _, phrase := range rule.Phrases {
				if strings.Contains(text, strings.ToLower(phrase)) {
					return stockOutcome{
						inStock:   false,
						ruleFired: string(rule.Rule),
					}
				}
			}

		case profile.StockRuleBuyButton:
			if hasEnabledControl(region, rule.Phrases) {
				return stockOutcome{
					inStock:   true,
					ruleFired: string(rule.Rule),
				}
			}

		case profile.StockRuleStockCount:
			if m := stockCount.FindStringSubmatch(text); m != nil && m[1] != "0" {
				return stockOutcome{
					inStock:   true,
					ruleFired: string(rule.Rule),
				}
			}

		case profile.StockRulePricePresence:
			if priceFound {
				return stockOutcome{
					inStock:   true,
					ruleFired: string(rule.Rule),
					issues: []Issue{{
						Code:    IssueUnknownStock,
						Message: "no stock signal; inferred in-stock from extracted price",
					}},
				}
			}
		}
	}

	// Nothing fired and no price backs an inference: conservative default.
	return stockOutcome{
		inStock:   false,
		ruleFired: "no-signal",
		issues: []Issue{{
			Code:    IssueNoStockSignal,
			Message: "no stock signal and no price; defaulting to out of stock",
		}},
	}
}

// hasEnabledControl reports whether a purchase control matching any of the
// phrases exists without a disabled marker.
func hasEnabledControl(region *Region, phrases []string) bool {
	found := false
	region.ActionControls(func(text string, disabled bool) {
		if found || disabled {
			return
		}
		lower := strings.ToLower(text)
		for _, phrase := range phrases {
			if strings.Contains(lower, strings.ToLower(phrase)) {
				found = true
				return
			}
		}
	})
	return found
}
