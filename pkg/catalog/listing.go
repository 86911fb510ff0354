package catalog

import (
	"strconv"
	"strings"
)

// Listing is one retailer's tracked product: one URL, one transactional
// price point, plus the descriptive fields that reconciliation keeps in
// line with the master catalog.
//
// Descriptive fields (Title, Brand, Line, Wrapper, Vitola, Size, BoxQty) are
// mutated only by the reconciler. Transactional fields (Price, OriginalPrice,
// DiscountPercent, InStock) are mutated only from a fresh extraction.
type Listing struct {
	Retailer string  `json:"retailer"`
	CigarID  CigarID `json:"cigar_id"`
	URL      string  `json:"url"`

	// Descriptive fields, master-wins.
	Title   string `json:"title"`
	Brand   string `json:"brand"`
	Line    string `json:"line"`
	Wrapper string `json:"wrapper"`
	Vitola  string `json:"vitola"`
	Size    string `json:"size"`
	BoxQty  int    `json:"box_qty"`

	// Transactional fields, latest extraction wins.
	Price           float64  `json:"price"`
	OriginalPrice   *float64 `json:"original_price,omitempty"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	InStock         bool     `json:"in_stock"`

	// Orphaned marks a listing whose cigar_id is absent from the master
	// catalog; its descriptive fields are left untouched until curation
	// assigns a valid ID.
	Orphaned bool `json:"orphaned,omitempty"`

	// PromotionsApplied records that a manual price override or promotion
	// replaced the extracted transactional fields.
	PromotionsApplied bool `json:"current_promotions_applied,omitempty"`
}

// ListingKey identifies a listing: (retailer, cigar_id) when the listing has
// been matched to the catalog, else (retailer, url).
type ListingKey struct {
	Retailer string
	ID       string
}

// String returns "retailer/id" for log lines and change log rows.
func (k ListingKey) String() string {
	return k.Retailer + "/" + k.ID
}

// Key returns the identity of the listing.
func (l *Listing) Key() ListingKey {
	if !l.CigarID.IsZero() {
		return ListingKey{Retailer: l.Retailer, ID: l.CigarID.String()}
	}
	return ListingKey{Retailer: l.Retailer, ID: l.URL}
}

// DescriptiveFields returns the master-reconciled fields as an ordered
// name→value view. The order is the persisted column order.
func (l *Listing) DescriptiveFields() []FieldValue {
	return []FieldValue{
		{Name: "title", Value: l.Title},
		{Name: "brand", Value: l.Brand},
		{Name: "line", Value: l.Line},
		{Name: "wrapper", Value: l.Wrapper},
		{Name: "vitola", Value: l.Vitola},
		{Name: "size", Value: l.Size},
		{Name: "box_qty", Value: formatQty(l.BoxQty)},
	}
}

// FieldValue is a named field in its persisted string form.
type FieldValue struct {
	Name  string
	Value string
}

// ListingColumns is the persisted CSV column order for listing rows.
var ListingColumns = []string{
	"cigar_id", "title", "url", "brand", "line", "wrapper", "vitola",
	"size", "box_qty", "price", "in_stock", "current_promotions_applied",
}

// Record renders the listing as a CSV record in ListingColumns order.
func (l *Listing) Record() []string {
	return []string{
		l.CigarID.String(),
		l.Title,
		l.URL,
		l.Brand,
		l.Line,
		l.Wrapper,
		l.Vitola,
		l.Size,
		formatQty(l.BoxQty),
		strconv.FormatFloat(l.Price, 'f', 2, 64),
		strconv.FormatBool(l.InStock),
		strconv.FormatBool(l.PromotionsApplied),
	}
}

// ListingFromRecord parses a CSV record in ListingColumns order. Short or
// malformed numeric fields degrade to zero values rather than failing the
// row; the audit surfaces anything that matters.
func ListingFromRecord(retailer string, record []string) Listing {
	get := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	l := Listing{
		Retailer: retailer,
		CigarID:  CigarID(get(0)),
		Title:    get(1),
		URL:      get(2),
		Brand:    get(3),
		Line:     get(4),
		Wrapper:  get(5),
		Vitola:   get(6),
		Size:     get(7),
	}
	if qty, err := strconv.Atoi(get(8)); err == nil {
		l.BoxQty = qty
	}
	if price, err := strconv.ParseFloat(get(9), 64); err == nil {
		l.Price = price
	}
	l.InStock = parseBool(get(10))
	l.PromotionsApplied = parseBool(get(11))
	return l
}

func formatQty(qty int) string {
	if qty == 0 {
		return ""
	}
	return strconv.Itoa(qty)
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
