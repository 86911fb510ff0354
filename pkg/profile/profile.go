// Package profile defines per-retailer extraction configuration: price and
// quantity bounds, the ordered stock-signal rules, price region selectors,
// and the politeness rate limit. Profiles are data; the extraction engine
// stays one shared algorithm parameterized by them.
package profile

import (
	"strings"
	"time"

	"github.com/cigarscout/cigarscout/pkg/errors"
)

// StockRuleKind names one classification rule in the ordered ladder.
type StockRuleKind string

const (
	// StockRuleNegativePhrase fires when any configured negative phrase
	// appears in the product region. It must normally come first: many
	// sites leave buy buttons active for backordered items.
	StockRuleNegativePhrase StockRuleKind = "negative-phrase"

	// StockRuleBuyButton fires when an enabled positive action control
	// ("add to cart" without a disabled attribute) is present.
	StockRuleBuyButton StockRuleKind = "buy-button"

	// StockRuleStockCount fires on explicit count text ("12 in stock").
	StockRuleStockCount StockRuleKind = "stock-count"

	// StockRulePricePresence treats a validly extracted price as a weak
	// in-stock signal, at a confidence penalty.
	StockRulePricePresence StockRuleKind = "price-presence"
)

// StockRule is one entry in a profile's ordered stock ladder. Phrases apply
// to the phrase-driven kinds and are matched case-insensitively.
type StockRule struct {
	Rule    StockRuleKind `yaml:"rule" json:"rule"`
	Phrases []string      `yaml:"phrases,omitempty" json:"phrases,omitempty"`
}

// PriceBounds is the plausible box-price range for a retailer. A nil Max
// removes the ceiling for ultra-premium inventories.
type PriceBounds struct {
	Min float64  `yaml:"min" json:"min"`
	Max *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Contains reports whether a price lies within the bounds.
func (b PriceBounds) Contains(v float64) bool {
	if v < b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

// QtyBounds is the accepted box/pack quantity range.
type QtyBounds struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Contains reports whether a quantity lies within the bounds.
func (b QtyBounds) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

// Profile is one retailer's extraction configuration.
type Profile struct {
	RetailerKey string `yaml:"retailer_key" json:"retailer_key"`
	DisplayName string `yaml:"display_name,omitempty" json:"display_name,omitempty"`

	PriceBounds  PriceBounds `yaml:"price_bounds" json:"price_bounds"`
	BoxQtyBounds QtyBounds   `yaml:"box_qty_bounds" json:"box_qty_bounds"`

	// PriceRegionSelectors is an ordered list of CSS selectors; the first
	// one that matches scopes extraction to that region, keeping navigation
	// and cart noise out of the candidate pool.
	PriceRegionSelectors []string `yaml:"price_region_selectors,omitempty" json:"price_region_selectors,omitempty"`

	// StockRules is the ordered classification ladder; first match wins.
	StockRules []StockRule `yaml:"stock_rules,omitempty" json:"stock_rules,omitempty"`

	RateLimitSeconds float64 `yaml:"rate_limit_seconds,omitempty" json:"rate_limit_seconds,omitempty"`
}

// RateLimit returns the politeness delay between requests to this retailer.
func (p *Profile) RateLimit() time.Duration {
	if p.RateLimitSeconds <= 0 {
		return time.Second
	}
	return time.Duration(p.RateLimitSeconds * float64(time.Second))
}

// Validate checks that the profile is internally consistent. An invalid
// profile is a configuration error: the run must not start with it.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.RetailerKey) == "" {
		return errors.NewConfigError("profile", "retailer_key is required", nil)
	}
	if p.PriceBounds.Min < 0 {
		return errors.NewConfigError("profile", p.RetailerKey+": price_bounds.min must not be negative", nil)
	}
	if p.PriceBounds.Max != nil && *p.PriceBounds.Max <= p.PriceBounds.Min {
		return errors.NewConfigError("profile", p.RetailerKey+": price_bounds.max must exceed min", nil)
	}
	if p.BoxQtyBounds.Min <= 0 || p.BoxQtyBounds.Max < p.BoxQtyBounds.Min {
		return errors.NewConfigError("profile", p.RetailerKey+": box_qty_bounds must be a positive range", nil)
	}
	for _, rule := range p.StockRules {
		switch rule.Rule {
		case StockRuleNegativePhrase, StockRuleBuyButton:
			if len(rule.Phrases) == 0 {
				return errors.NewConfigError("profile", p.RetailerKey+": stock rule "+string(rule.Rule)+" needs phrases", nil)
			}
		case StockRuleStockCount, StockRulePricePresence:
			// No phrases needed.
		default:
			return errors.NewConfigError("profile", p.RetailerKey+": unknown stock rule "+string(rule.Rule), nil)
		}
	}
	return nil
}

// applyDefaults fills unset fields from the default profile.
func (p *Profile) applyDefaults() {
	def := Default()
	if p.PriceBounds.Min == 0 && p.PriceBounds.Max == nil {
		p.PriceBounds = def.PriceBounds
	}
	if p.BoxQtyBounds == (QtyBounds{}) {
		p.BoxQtyBounds = def.BoxQtyBounds
	}
	if len(p.StockRules) == 0 {
		p.StockRules = def.StockRules
	}
	if p.RateLimitSeconds == 0 {
		p.RateLimitSeconds = def.RateLimitSeconds
	}
	if p.DisplayName == "" {
		p.DisplayName = p.RetailerKey
	}
}
