package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cigarscout/cigarscout/pkg/errors"
)

// Reader provides read-only access to the master catalog. Reconciliation and
// auditing accept this interface; nothing in this module writes through it.
type Reader interface {
	// Lookup returns the master product for an ID, or nil if unknown.
	Lookup(id CigarID) *MasterProduct

	// Products returns all products sorted by ID.
	Products() []*MasterProduct

	// Len returns the number of products in the catalog.
	Len() int
}

// Catalog holds the master products keyed by CigarID. It is populated once
// at load time and read-only afterwards, so concurrent readers need no
// coordination.
type Catalog struct {
	products map[CigarID]*MasterProduct
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{products: make(map[CigarID]*MasterProduct)}
}

// Add inserts a product, rejecting duplicates and malformed IDs.
func (c *Catalog) Add(p *MasterProduct) error {
	if p == nil {
		return errors.NewValidationError("product", nil, "nil product")
	}
	if !p.ID.Valid() {
		return errors.NewValidationError("cigar_id", p.ID.String(), "malformed composite id")
	}
	if _, exists := c.products[p.ID]; exists {
		return errors.NewValidationError("cigar_id", p.ID.String(), "duplicate id")
	}
	c.products[p.ID] = p
	return nil
}

// Lookup returns the master product for an ID, or nil if unknown.
func (c *Catalog) Lookup(id CigarID) *MasterProduct {
	return c.products[id]
}

// Products returns all products sorted by ID for deterministic iteration.
func (c *Catalog) Products() []*MasterProduct {
	out := make([]*MasterProduct, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.products)
}

// MasterColumns is the expected header of the master catalog CSV.
var MasterColumns = []string{
	"cigar_id", "product_name", "brand", "line", "wrapper", "wrapper_alias",
	"vitola", "size", "length", "ring_gauge", "box_qty", "country_of_origin",
}

// FromCSVRecords builds a catalog from header + data records. The header
// maps column names to positions so curated files may carry extra columns
// or a different order. A missing cigar_id column is a configuration error.
func FromCSVRecords(header []string, records [][]string) (*Catalog, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := idx["cigar_id"]; !ok {
		return nil, errors.NewConfigError("catalog", "master catalog has no cigar_id column", nil)
	}

	field := func(record []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	c := New()
	for _, record := range records {
		p := &MasterProduct{
			ID:              CigarID(field(record, "cigar_id")),
			ProductName:     field(record, "product_name"),
			Brand:           field(record, "brand"),
			Line:            field(record, "line"),
			Wrapper:         field(record, "wrapper"),
			WrapperAlias:    field(record, "wrapper_alias"),
			Vitola:          field(record, "vitola"),
			Size:            field(record, "size"),
			CountryOfOrigin: field(record, "country_of_origin"),
		}
		if v := field(record, "length"); v != "" {
			if length, err := strconv.ParseFloat(v, 64); err == nil {
				p.Length = length
			}
		}
		if v := field(record, "ring_gauge"); v != "" {
			if rg, err := strconv.Atoi(v); err == nil {
				p.RingGauge = rg
			}
		}
		if v := field(record, "box_qty"); v != "" {
			if qty, err := strconv.Atoi(v); err == nil {
				p.BoxQty = qty
			}
		}
		if err := c.Add(p); err != nil {
			return nil, errors.NewConfigError("catalog", "malformed master catalog row "+p.ID.String(), err)
		}
	}
	return c, nil
}
