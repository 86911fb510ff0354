package profile

// Default phrase lists distilled from production extractor behavior. Sites
// with extra backorder wording extend these in their profile rather than in
// code.
var (
	defaultNegativePhrases = []string{
		"sold out",
		"out of stock",
		"notify me",
		"backordered",
		"back-ordered",
		"temporarily unavailable",
	}

	defaultBuyButtonPhrases = []string{
		"add to cart",
		"add to basket",
		"buy now",
	}
)

const (
	defaultMinPrice = 50.0
	defaultMaxPrice = 2000.0

	defaultMinQty = 5
	defaultMaxQty = 100
)

// Default returns the baseline profile: the five-rule stock ladder, the
// standard box-price window, and a one request per second politeness limit.
func Default() *Profile {
	maxPrice := defaultMaxPrice
	return &Profile{
		RetailerKey:  "default",
		DisplayName:  "Default",
		PriceBounds:  PriceBounds{Min: defaultMinPrice, Max: &maxPrice},
		BoxQtyBounds: QtyBounds{Min: defaultMinQty, Max: defaultMaxQty},
		StockRules: []StockRule{
			{Rule: StockRuleNegativePhrase, Phrases: defaultNegativePhrases},
			{Rule: StockRuleBuyButton, Phrases: defaultBuyButtonPhrases},
			{Rule: StockRuleStockCount},
			{Rule: StockRulePricePresence},
		},
		RateLimitSeconds: 1,
	}
}
