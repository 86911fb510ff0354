// Package extract turns noisy product-page content into a validated
// price/stock/quantity record. The engine and its sub-resolvers are pure
// functions of (document, profile): no network access, no randomness, and
// no errors. Every failure becomes an issue on the result, so one bad
// listing never blocks a batch.
package extract

// Confidence grades how trustworthy an extraction is.
type Confidence string

const (
	// ConfidenceHigh means every resolver produced an unambiguous value.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium means the record is usable but carries weak signals.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow means the record must not feed automation.
	ConfidenceLow Confidence = "low"
)

// rank orders confidence levels for threshold checks.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether c meets the given threshold.
func (c Confidence) AtLeast(min Confidence) bool {
	return c.rank() >= min.rank()
}

// IssueCode is a machine-readable extraction problem.
type IssueCode string

const (
	// IssueUnparseableDocument means the document yielded no DOM at all.
	IssueUnparseableDocument IssueCode = "unparseable-document"
	// IssueNoPriceCandidates means no plausible price token was found.
	IssueNoPriceCandidates IssueCode = "no-price-candidates"
	// IssueAmbiguousPricing means more than two distinct valid candidates.
	IssueAmbiguousPricing IssueCode = "ambiguous-pricing"
	// IssueOutOfRangePrice means candidates were rejected by profile bounds.
	IssueOutOfRangePrice IssueCode = "out-of-range-price"
	// IssueUnknownStock means stock was inferred from price presence only.
	IssueUnknownStock IssueCode = "unknown-stock"
	// IssueNoStockSignal means no rule fired and no price backs an inference.
	IssueNoStockSignal IssueCode = "no-stock-signal"
	// IssueMissingQuantity means no quantity pattern matched.
	IssueMissingQuantity IssueCode = "missing-quantity"
	// IssueAmbiguousQuantity means several valid quantities disagreed.
	IssueAmbiguousQuantity IssueCode = "ambiguous-quantity"
	// IssueOutOfRangeQuantity means quantities were rejected by bounds.
	IssueOutOfRangeQuantity IssueCode = "out-of-range-quantity"
)

// Issue is one recorded extraction problem. Fatal issues force low
// confidence and manual review; the rest cost one confidence level each.
type Issue struct {
	Code    IssueCode `json:"code"`
	Message string    `json:"message"`
	Fatal   bool      `json:"fatal,omitempty"`
}

// Result is the validated record produced for one fetched document.
// Pointer fields are nil when the corresponding value could not be
// extracted; they are never zero-filled.
type Result struct {
	Price           *float64 `json:"price,omitempty"`
	OriginalPrice   *float64 `json:"original_price,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	BoxQuantity     *int     `json:"box_quantity,omitempty"`
	InStock         bool     `json:"in_stock"`

	// StockRule names the classification rule that decided InStock.
	StockRule string `json:"stock_rule,omitempty"`

	Confidence         Confidence `json:"confidence"`
	ManualReviewNeeded bool       `json:"manual_review_needed"`
	Issues             []Issue    `json:"issues,omitempty"`
}

// AutomationEligible reports whether the record may feed automated updates:
// confidence at least medium and no manual review flag.
func (r *Result) AutomationEligible() bool {
	return r.Confidence.AtLeast(ConfidenceMedium) && !r.ManualReviewNeeded
}

// HasIssue reports whether an issue with the given code was recorded.
func (r *Result) HasIssue(code IssueCode) bool {
	for _, issue := range r.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
