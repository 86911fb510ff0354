// Package reconcile merges fresh extraction results and the master catalog
// into persisted listings. The master catalog is the sole authority for
// descriptive fields; the latest extraction is the sole authority for
// transactional fields. Running the reconciler twice over unchanged inputs
// is a no-op, which is what makes nightly re-runs safe.
package reconcile

import (
	"strconv"

	"github.com/cigarscout/cigarscout/pkg/catalog"
	"github.com/cigarscout/cigarscout/pkg/extract"
)

// Reconciler merges extraction results against the master catalog.
type Reconciler struct {
	master catalog.Reader
}

// New creates a reconciler over a master catalog.
func New(master catalog.Reader) *Reconciler {
	return &Reconciler{master: master}
}

// Outcome reports what one reconciliation pass did to a listing.
type Outcome struct {
	Listing  catalog.Listing
	Changes  []catalog.ChangeLogEntry
	Orphaned bool
}

// Reconcile produces the updated listing for one (listing, extraction)
// pair. The input listing is not mutated.
//
// Descriptive fields are overwritten from the master product whenever the
// master's value is non-empty (master-wins); each field that differs
// pre/post yields a change log entry. A blank or unknown cigar_id marks the
// listing orphaned and leaves descriptive fields untouched. Transactional
// fields are copied solely from the extraction result; a nil result leaves
// them as they were.
func (r *Reconciler) Reconcile(listing catalog.Listing, result *extract.Result) Outcome {
	out := Outcome{Listing: listing}

	if result != nil {
		applyTransactional(&out.Listing, result)
	}

	master := r.lookup(listing.CigarID)
	if master == nil {
		out.Orphaned = true
		out.Listing.Orphaned = true
		return out
	}
	out.Listing.Orphaned = false

	key := out.Listing.Key()
	for _, field := range descriptiveFields(master) {
		if field.masterValue == "" {
			continue
		}
		old := field.get(&out.Listing)
		if old == field.masterValue {
			continue
		}
		field.set(&out.Listing, field.masterValue)
		out.Changes = append(out.Changes, catalog.ChangeLogEntry{
			Listing: key,
			Field:   field.name,
			Old:     old,
			New:     field.masterValue,
		})
	}
	return out
}

func (r *Reconciler) lookup(id catalog.CigarID) *catalog.MasterProduct {
	if id.IsZero() || r.master == nil {
		return nil
	}
	return r.master.Lookup(id)
}

// applyTransactional copies price/stock state from the latest extraction.
// Nothing else in the system writes these fields.
func applyTransactional(l *catalog.Listing, result *extract.Result) {
	if result.Price != nil {
		l.Price = *result.Price
	}
	l.OriginalPrice = result.OriginalPrice
	l.DiscountPercent = result.DiscountPercent
	l.InStock = result.InStock
	if result.BoxQuantity != nil && l.BoxQty == 0 {
		// Quantity is descriptive once curated; extraction only seeds it
		// for listings the master has not filled in yet.
		l.BoxQty = *result.BoxQuantity
	}
}

// descriptiveField binds one master-wins field to its listing accessors.
type descriptiveField struct {
	name        string
	masterValue string
	get         func(*catalog.Listing) string
	set         func(*catalog.Listing, string)
}

func descriptiveFields(m *catalog.MasterProduct) []descriptiveField {
	return []descriptiveField{
		{
			name:        "title",
			masterValue: m.CanonicalName(),
			get:         func(l *catalog.Listing) string { return l.Title },
			set:         func(l *catalog.Listing, v string) { l.Title = v },
		},
		{
			name:        "brand",
			masterValue: m.Brand,
			get:         func(l *catalog.Listing) string { return l.Brand },
			set:         func(l *catalog.Listing, v string) { l.Brand = v },
		},
		{
			name:        "line",
			masterValue: m.Line,
			get:         func(l *catalog.Listing) string { return l.Line },
			set:         func(l *catalog.Listing, v string) { l.Line = v },
		},
		{
			name:        "wrapper",
			masterValue: m.Wrapper,
			get:         func(l *catalog.Listing) string { return l.Wrapper },
			set:         func(l *catalog.Listing, v string) { l.Wrapper = v },
		},
		{
			name:        "vitola",
			masterValue: m.Vitola,
			get:         func(l *catalog.Listing) string { return l.Vitola },
			set:         func(l *catalog.Listing, v string) { l.Vitola = v },
		},
		{
			name:        "size",
			masterValue: m.Size,
			get:         func(l *catalog.Listing) string { return l.Size },
			set:         func(l *catalog.Listing, v string) { l.Size = v },
		},
		{
			name:        "box_qty",
			masterValue: qtyString(m.BoxQty),
			get:         func(l *catalog.Listing) string { return qtyString(l.BoxQty) },
			set: func(l *catalog.Listing, v string) {
				if n, err := strconv.Atoi(v); err == nil {
					l.BoxQty = n
				}
			},
		},
	}
}

func qtyString(qty int) string {
	if qty == 0 {
		return ""
	}
	return strconv.Itoa(qty)
}
