package extract

import (
	"github.com/cigarscout/cigarscout/pkg/profile"
)

// Engine runs the extraction pipeline over one fetched document. It is
// stateless and safe to share across goroutines: every call reads only its
// immutable inputs and returns a value.
type Engine struct {
	profile *profile.Profile
}

// New creates an engine for one retailer's profile. A nil profile gets the
// defaults.
func New(p *profile.Profile) *Engine {
	if p == nil {
		p = profile.Default()
	}
	return &Engine{profile: p}
}

// Extract produces a validated record from raw HTML bytes. It never fails:
// malformed markup, missing signals, and implausible values all become
// issues on the result. The pipeline order is fixed: price, then stock
// (which may read price presence as a weak signal), then quantity (which
// may use price co-location), then confidence over everything recorded.
func (e *Engine) Extract(body []byte) Result {
	doc := ParseDocument(body)
	if doc.Empty() {
		return Result{
			Confidence:         ConfidenceLow,
			ManualReviewNeeded: true,
			StockRule:          "no-signal",
			Issues: []Issue{{
				Code:    IssueUnparseableDocument,
				Message: "document yielded no text content",
				Fatal:   true,
			}},
		}
	}

	region := doc.Region(e.profile.PriceRegionSelectors)

	price := resolvePrice(region, e.profile.PriceBounds)
	stock := classifyStock(region, e.profile.StockRules, price.price != nil)
	qty := resolveQuantity(doc, region, e.profile.BoxQtyBounds, price.price)

	issues := make([]Issue, 0, len(price.issues)+len(stock.issues)+len(qty.issues))
	issues = append(issues, price.issues...)
	issues = append(issues, stock.issues...)
	issues = append(issues, qty.issues...)

	confidence, review := scoreConfidence(issues)

	return Result{
		Price:              price.price,
		OriginalPrice:      price.original,
		DiscountPercent:    price.discount,
		BoxQuantity:        qty.quantity,
		InStock:            stock.inStock,
		StockRule:          stock.ruleFired,
		Confidence:         confidence,
		ManualReviewNeeded: review,
		Issues:             issues,
	}
}

// Profile returns the profile the engine was built with.
func (e *Engine) Profile() *profile.Profile {
	return e.profile
}
