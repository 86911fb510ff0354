package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cigarscout/cigarscout/pkg/profile"
)

func resolveQtyFromHTML(t *testing.T, html string, price *float64) qtyOutcome {
	t.Helper()
	doc := ParseDocument([]byte(html))
	require.False(t, doc.Empty())
	return resolveQuantity(doc, doc.Region(nil), profile.Default().BoxQtyBounds, price)
}

func TestResolveQuantityQualifiedPatterns(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{"box of", `<body><h1>Hemingway Classic - Box of 25</h1></body>`, 25},
		{"pack of", `<body><h1>Short Story Pack of 10</h1></body>`, 10},
		{"bundle of", `<body><h1>Factory Throwouts Bundle of 20</h1></body>`, 20},
		{"count suffix", `<body><h1>Serie V Melanio 10 ct</h1></body>`, 10},
		{"count word", `<body><h1>Serie V Melanio 12 Count</h1></body>`, 12},
		{"n-pack", `<body><h1>Melanio 5-Pack Sampler</h1></body>`, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := resolveQtyFromHTML(t, tt.html, nil)
			require.NotNil(t, out.quantity)
			assert.Equal(t, tt.want, *out.quantity)
		})
	}
}

func TestResolveQuantityRingGaugeDenylist(t *testing.T) {
	// Each common ring gauge must be rejected when it appears as a bare
	// labeled number.
	for _, gauge := range []int{46, 48, 50, 52, 54, 56, 58, 60, 62, 64, 66, 70} {
		t.Run(fmt.Sprintf("gauge %d", gauge), func(t *testing.T) {
			html := fmt.Sprintf(`<body><table><tr><td>Ring Qty: %d</td></tr></table></body>`, gauge)
			out := resolveQtyFromHTML(t, html, nil)
			assert.Nil(t, out.quantity)
		})
	}
}

func TestResolveQuantityQualifierBypassesDenylist(t *testing.T) {
	// 50 is on the ring-gauge denylist, but "Box of 50" is explicit
	// packaging text and must be accepted.
	out := resolveQtyFromHTML(t, `<body><h1>Churchill Box of 50</h1></body>`, nil)
	require.NotNil(t, out.quantity)
	assert.Equal(t, 50, *out.quantity)
}

func TestResolveQuantityBareLabelAccepted(t *testing.T) {
	// A bare number off the denylist is accepted from a labeled cell.
	out := resolveQtyFromHTML(t, `<body><table><tr><td>Pack: 24</td></tr></table></body>`, nil)
	require.NotNil(t, out.quantity)
	assert.Equal(t, 24, *out.quantity)
}

func TestResolveQuantityBoundsRejected(t *testing.T) {
	out := resolveQtyFromHTML(t, `<body><h1>Single Stick Pack of 1</h1><p>Box of 500 display</p></body>`, nil)
	assert.Nil(t, out.quantity)

	var codes []IssueCode
	for _, issue := range out.issues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, IssueOutOfRangeQuantity)
	assert.Contains(t, codes, IssueMissingQuantity)
}

func TestResolveQuantityTitleBeatsPageText(t *testing.T) {
	html := `<body>
	  <h1>Hemingway Classic Box of 25</h1>
	  <p>Also available: pack of 5 at checkout</p>
	</body>`
	out := resolveQtyFromHTML(t, html, nil)
	require.NotNil(t, out.quantity)
	assert.Equal(t, 25, *out.quantity)
	assert.Empty(t, out.issues)
}

func TestResolveQuantityPriceColocation(t *testing.T) {
	price := 240.0
	html := `<body><div>
	  <p>5-pack $62.00</p>
	  <p>Box of 25 $240.00</p>
	</div></body>`
	out := resolveQtyFromHTML(t, html, &price)

	require.NotNil(t, out.quantity)
	assert.Equal(t, 25, *out.quantity)

	var codes []IssueCode
	for _, issue := range out.issues {
		codes = append(codes, issue.Code)
	}
	assert.Contains(t, codes, IssueAmbiguousQuantity)
}

func TestResolveQuantityPriceColocationThousandsSeparator(t *testing.T) {
	price := 1201.99
	html := `<body><div>
	  <p>Box of 25 for $2,999.99</p>
	  <p>10-pack special $1,201.99</p>
	</div></body>`
	out := resolveQtyFromHTML(t, html, &price)

	require.NotNil(t, out.quantity)
	assert.Equal(t, 10, *out.quantity)
}

func TestResolveQuantityMaxWithoutPrice(t *testing.T) {
	html := `<body><div>
	  <p>5-pack option</p>
	  <p>Box of 25 option</p>
	</div></body>`
	out := resolveQtyFromHTML(t, html, nil)

	require.NotNil(t, out.quantity)
	assert.Equal(t, 25, *out.quantity)
}

func TestResolveQuantityMissing(t *testing.T) {
	out := resolveQtyFromHTML(t, `<body><p>A fine cigar.</p></body>`, nil)
	assert.Nil(t, out.quantity)
	require.Len(t, out.issues, 1)
	assert.Equal(t, IssueMissingQuantity, out.issues[0].Code)
}
