package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cigarscout/cigarscout/pkg/profile"
)

func TestClassifyStockRuleOrder(t *testing.T) {
	rules := profile.Default().StockRules

	tests := []struct {
		name      string
		html      string
		price     bool
		inStock   bool
		ruleFired string
	}{
		{
			name:      "negative phrase beats enabled buy button",
			html:      `<body><p>Out Of Stock - Notify Me!</p><button>Add to Cart</button></body>`,
			price:     true,
			inStock:   false,
			ruleFired: "negative-phrase",
		},
		{
			name:      "sold out text",
			html:      `<body><p>This item is currently Sold Out.</p></body>`,
			inStock:   false,
			ruleFired: "negative-phrase",
		},
		{
			name:      "backordered",
			html:      `<body><span class="availability">Backordered until further notice</span></body>`,
			inStock:   false,
			ruleFired: "negative-phrase",
		},
		{
			name:      "enabled add to cart",
			html:      `<body><button type="submit">Add to Cart</button></body>`,
			inStock:   true,
			ruleFired: "buy-button",
		},
		{
			name:      "disabled add to cart falls through to count",
			html:      `<body><button disabled>Add to Cart</button><p>3 in stock</p></body>`,
			inStock:   true,
			ruleFired: "stock-count",
		},
		{
			name:      "disabled by class falls through",
			html:      `<body><button class="btn disabled">Add to Cart</button></body>`,
			price:     true,
			inStock:   true,
			ruleFired: "price-presence",
		},
		{
			name:      "explicit count",
			html:      `<body><p>7 in stock and ready to ship</p></body>`,
			inStock:   true,
			ruleFired: "stock-count",
		},
		{
			name:      "price presence as weak signal",
			html:      `<body><p>Premium selection</p></body>`,
			price:     true,
			inStock:   true,
			ruleFired: "price-presence",
		},
		{
			name:      "no signal no price",
			html:      `<body><p>Premium selection</p></body>`,
			inStock:   false,
			ruleFired: "no-signal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region := regionFor(t, tt.html)
			out := classifyStock(region, rules, tt.price)
			assert.Equal(t, tt.inStock, out.inStock)
			assert.Equal(t, tt.ruleFired, out.ruleFired)
		})
	}
}

func TestClassifyStockPenalties(t *testing.T) {
	rules := profile.Default().StockRules

	weak := classifyStock(regionFor(t, `<body><p>nothing useful</p></body>`), rules, true)
	assert.Len(t, weak.issues, 1)
	assert.Equal(t, IssueUnknownStock, weak.issues[0].Code)

	none := classifyStock(regionFor(t, `<body><p>nothing useful</p></body>`), rules, false)
	assert.Len(t, none.issues, 1)
	assert.Equal(t, IssueNoStockSignal, none.issues[0].Code)

	clean := classifyStock(regionFor(t, `<body><button>Add to Cart</button></body>`), rules, false)
	assert.Empty(t, clean.issues)
}

func TestClassifyStockCustomLadder(t *testing.T) {
	// A retailer whose backorder items carry an enabled buy button and a
	// plain "ships in 6-8 weeks" note prepends its own phrase.
	rules := []profile.StockRule{
		{Rule: profile.StockRuleNegativePhrase, Phrases: []string{"ships in 6-8 weeks", "sold out"}},
		{Rule: profile.StockRuleBuyButton, Phrases: []string{"add to cart"}},
	}

	region := regionFor(t, `<body><p>Ships in 6-8 weeks</p><button>Add to Cart</button></body>`)
	out := classifyStock(region, rules, true)
	assert.False(t, out.inStock)
	assert.Equal(t, "negative-phrase", out.ruleFired)
}

func TestClassifyStockZeroCountNotInStock(t *testing.T) {
	rules := []profile.StockRule{{Rule: profile.StockRuleStockCount}}
	out := classifyStock(regionFor(t, `<body><p>0 in stock</p></body>`), rules, false)
	assert.False(t, out.inStock)
	assert.Equal(t, "no-signal", out.ruleFired)
}
