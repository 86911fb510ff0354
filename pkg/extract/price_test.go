package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cigarscout/cigarscout/pkg/profile"
)

func regionFor(t *testing.T, html string) *Region {
	t.Helper()
	doc := ParseDocument([]byte(html))
	require.False(t, doc.Empty())
	return doc.Region(nil)
}

func TestResolvePriceSingleCandidate(t *testing.T) {
	region := regionFor(t, `<body><p>Our price: $128.50</p></body>`)
	out := resolvePrice(region, profile.Default().PriceBounds)

	require.NotNil(t, out.price)
	assert.InDelta(t, 128.50, *out.price, 0.001)
	assert.Nil(t, out.original)
	assert.Nil(t, out.discount)
	assert.Empty(t, out.issues)
}

func TestResolvePriceMSRPLabel(t *testing.T) {
	region := regionFor(t, `<body><p>MSRP $267.75</p><p>$201.99</p></body>`)
	out := resolvePrice(region, profile.Default().PriceBounds)

	require.NotNil(t, out.price)
	assert.InDelta(t, 201.99, *out.price, 0.001)
	require.NotNil(t, out.original)
	assert.InDelta(t, 267.75, *out.original, 0.001)
	require.NotNil(t, out.discount)
	assert.InDelta(t, 24.56, *out.discount, 0.05)
}

func TestResolvePriceBoxDominatesIncidental(t *testing.T) {
	// No strikethrough, no labels: the largest plausible value is the box
	// price; smaller tokens are 5-packs and singles.
	region := regionFor(t, `<body><p>5-pack $62.00</p><p>Box of 25 $240.00</p></body>`)
	out := resolvePrice(region, profile.Default().PriceBounds)

	require.NotNil(t, out.price)
	assert.InDelta(t, 240.00, *out.price, 0.001)
	assert.Nil(t, out.discount)
}

func TestResolvePriceSaleMustBeBelowOriginal(t *testing.T) {
	// The struck value is lower than every current value, so it is not
	// sale evidence; fall back to the maximum current with no discount.
	region := regionFor(t, `<body><del>$80.00</del><p>$150.00</p><p>$99.00</p></body>`)
	out := resolvePrice(region, profile.Default().PriceBounds)

	require.NotNil(t, out.price)
	assert.InDelta(t, 150.00, *out.price, 0.001)
	assert.Nil(t, out.original)
	assert.Nil(t, out.discount)
}

func TestResolvePriceOutOfRangeRejected(t *testing.T) {
	// $12.99 (below floor) and $9999.00 (above ceiling) must be rejected,
	// never clamped.
	region := regionFor(t, `<body><p>$12.99 shipping</p><p>$249.00</p><p>$9999.00 humidor bundle</p></body>`)
	out := resolvePrice(region, profile.Default().PriceBounds)

	require.NotNil(t, out.price)
	assert.InDelta(t, 249.00, *out.price, 0.001)

	require.Len(t, out.issues, 1)
	assert.Equal(t, IssueOutOfRangePrice, out.issues[0].Code)
	assert.False(t, out.issues[0].Fatal)
}

func TestResolvePriceUnboundedCeiling(t *testing.T) {
	region := regionFor(t, `<body><p>$12,500.00</p></body>`)
	out := resolvePrice(region, profile.PriceBounds{Min: 100})

	require.NotNil(t, out.price)
	assert.InDelta(t, 12500.00, *out.price, 0.001)
}

func TestResolvePriceNoCandidates(t *testing.T) {
	region := regionFor(t, `<body><p>Call for pricing</p></body>`)
	out := resolvePrice(region, profile.Default().PriceBounds)

	assert.Nil(t, out.price)
	require.Len(t, out.issues, 1)
	assert.Equal(t, IssueNoPriceCandidates, out.issues[0].Code)
	assert.True(t, out.issues[0].Fatal)
}

func TestResolvePriceAmbiguous(t *testing.T) {
	region := regionFor(t, `<body><p>$100.00</p><p>$150.00</p><p>$200.00</p></body>`)
	out := resolvePrice(region, profile.Default().PriceBounds)

	// A best guess is still produced, flagged for review.
	require.NotNil(t, out.price)
	assert.InDelta(t, 200.00, *out.price, 0.001)

	foundAmbiguous := false
	for _, issue := range out.issues {
		if issue.Code == IssueAmbiguousPricing {
			foundAmbiguous = true
			assert.True(t, issue.Fatal)
		}
	}
	assert.True(t, foundAmbiguous)
}

func TestResolvePriceDuplicateTokensNotAmbiguous(t *testing.T) {
	// The same value repeated (header, sticky cart, schema block) is one
	// candidate, not an ambiguity.
	region := regionFor(t, `<body><p>$240.00</p><p>$240.00</p><p>$240.00</p></body>`)
	out := resolvePrice(region, profile.Default().PriceBounds)

	require.NotNil(t, out.price)
	assert.InDelta(t, 240.00, *out.price, 0.001)
	assert.Empty(t, out.issues)
}

func TestDiscountPercentFormula(t *testing.T) {
	for _, tc := range []struct {
		original, current, want float64
	}{
		{267.75, 201.99, 24.5602},
		{100, 75, 25},
		{349, 299, 14.3266},
	} {
		t.Run(fmt.Sprintf("%.2f->%.2f", tc.original, tc.current), func(t *testing.T) {
			region := regionFor(t, fmt.Sprintf(
				`<body><del>$%.2f</del><p>$%.2f</p></body>`, tc.original, tc.current))
			ceiling := 100000.0
			out := resolvePrice(region, profile.PriceBounds{Min: 1, Max: &ceiling})
			require.NotNil(t, out.discount)
			assert.InDelta(t, tc.want, *out.discount, 0.001)
		})
	}
}
