// Package catalog defines the canonical product entities: the master catalog
// of cigars, per-retailer listings tracked against it, and the change log
// written when a listing is brought back in line with the master record.
package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CigarID is the composite key identifying a product SKU across the catalog.
// It is pipe-delimited with eight segments:
//
//	brand|brand|line|vitola|vitola|size|wrapper|packaging
//
// The doubled brand and vitola segments are historical: the first carries the
// display form, the second the normalized form used for joins.
type CigarID string

// cigarIDSegments is the fixed segment count of a well-formed CigarID.
const cigarIDSegments = 8

// String returns the string representation of a CigarID.
func (id CigarID) String() string {
	return string(id)
}

// IsZero reports whether the ID is empty.
func (id CigarID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Valid reports whether the ID has the expected composite shape.
func (id CigarID) Valid() bool {
	if id.IsZero() {
		return false
	}
	return len(strings.Split(string(id), "|")) == cigarIDSegments
}

// Segments returns the pipe-delimited parts of the ID.
func (id CigarID) Segments() []string {
	return strings.Split(string(id), "|")
}

// Brand returns the normalized brand segment, or "" for malformed IDs.
func (id CigarID) Brand() string {
	segs := id.Segments()
	if len(segs) != cigarIDSegments {
		return ""
	}
	return segs[1]
}

// Packaging returns the packaging segment (e.g. "box_25"), or "" for
// malformed IDs.
func (id CigarID) Packaging() string {
	segs := id.Segments()
	if len(segs) != cigarIDSegments {
		return ""
	}
	return segs[7]
}

// NewCigarID builds a composite ID from its parts, normalizing each segment.
func NewCigarID(brand, line, vitola, size, wrapper, packaging string) CigarID {
	norm := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.ReplaceAll(s, " ", "_")
		return strings.ReplaceAll(s, "-", "_")
	}
	parts := []string{
		norm(brand), norm(brand),
		norm(line),
		norm(vitola), norm(vitola),
		norm(size),
		norm(wrapper),
		norm(packaging),
	}
	return CigarID(strings.Join(parts, "|"))
}

// MasterProduct is the canonical, curated record for one SKU. It is created
// and mutated only by catalog curation; everything in this module reads it.
type MasterProduct struct {
	ID              CigarID `json:"cigar_id" yaml:"cigar_id"`
	ProductName     string  `json:"product_name" yaml:"product_name"`
	Brand           string  `json:"brand" yaml:"brand"`
	Line            string  `json:"line" yaml:"line"`
	Wrapper         string  `json:"wrapper" yaml:"wrapper"`
	WrapperAlias    string  `json:"wrapper_alias,omitempty" yaml:"wrapper_alias,omitempty"`
	Vitola          string  `json:"vitola" yaml:"vitola"`
	Size            string  `json:"size" yaml:"size"` // length x ring gauge, e.g. "7x48"
	Length          float64 `json:"length,omitempty" yaml:"length,omitempty"`
	RingGauge       int     `json:"ring_gauge,omitempty" yaml:"ring_gauge,omitempty"`
	BoxQty          int     `json:"box_qty" yaml:"box_qty"`
	CountryOfOrigin string  `json:"country_of_origin,omitempty" yaml:"country_of_origin,omitempty"`
}

// titleCaser renders brand and line names in their display form.
var titleCaser = cases.Title(language.AmericanEnglish)

// CanonicalName returns the display name for a product, preferring the
// curated ProductName and falling back to "Brand Line Vitola".
func (p *MasterProduct) CanonicalName() string {
	if p.ProductName != "" {
		return p.ProductName
	}
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Brand, p.Line, p.Vitola} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// NormalizeDisplay converts a lowercase or snake_case segment back into a
// display form ("arturo_fuente" -> "Arturo Fuente").
func NormalizeDisplay(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	if s == "" {
		return ""
	}
	return titleCaser.String(s)
}
