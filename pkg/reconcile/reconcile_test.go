package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cigarscout/cigarscout/pkg/catalog"
	"github.com/cigarscout/cigarscout/pkg/extract"
)

var hemingwayID = catalog.NewCigarID("Arturo Fuente", "Hemingway", "Classic", "7x48", "Cameroon", "Box 25")

func masterCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	require.NoError(t, c.Add(&catalog.MasterProduct{
		ID:      hemingwayID,
		Brand:   "Arturo Fuente",
		Line:    "Hemingway",
		Wrapper: "Cameroon",
		Vitola:  "Classic",
		Size:    "7x48",
		BoxQty:  25,
	}))
	return c
}

func trackedListing() catalog.Listing {
	return catalog.Listing{
		Retailer: "smokeinn",
		CigarID:  hemingwayID,
		URL:      "https://example.com/hemingway-classic",
		Title:    "Fuente Hemingway Classics",
		Brand:    "A. Fuente",
		Line:     "Hemingway",
		Wrapper:  "Cameroon",
		Vitola:   "Classic",
		Size:     "7x48",
		BoxQty:   25,
	}
}

func saleResult() *extract.Result {
	price := 201.99
	original := 267.75
	discount := 24.5602
	qty := 25
	return &extract.Result{
		Price:           &price,
		OriginalPrice:   &original,
		DiscountPercent: &discount,
		BoxQuantity:     &qty,
		InStock:         true,
		Confidence:      extract.ConfidenceHigh,
	}
}

func TestReconcileMasterWins(t *testing.T) {
	r := New(masterCatalog(t))
	out := r.Reconcile(trackedListing(), saleResult())

	assert.False(t, out.Orphaned)
	assert.Equal(t, "Arturo Fuente", out.Listing.Brand)
	assert.Equal(t, "Arturo Fuente Hemingway Classic", out.Listing.Title)

	// brand and title differed; everything else already matched.
	require.Len(t, out.Changes, 2)
	byField := map[string]catalog.ChangeLogEntry{}
	for _, ch := range out.Changes {
		byField[ch.Field] = ch
	}
	brand, ok := byField["brand"]
	require.True(t, ok)
	assert.Equal(t, "A. Fuente", brand.Old)
	assert.Equal(t, "Arturo Fuente", brand.New)
}

func TestReconcileTransactionalFromExtraction(t *testing.T) {
	r := New(masterCatalog(t))
	out := r.Reconcile(trackedListing(), saleResult())

	assert.InDelta(t, 201.99, out.Listing.Price, 0.001)
	require.NotNil(t, out.Listing.OriginalPrice)
	assert.InDelta(t, 267.75, *out.Listing.OriginalPrice, 0.001)
	require.NotNil(t, out.Listing.DiscountPercent)
	assert.True(t, out.Listing.InStock)
}

func TestReconcileIdempotent(t *testing.T) {
	r := New(masterCatalog(t))

	first := r.Reconcile(trackedListing(), saleResult())
	require.NotEmpty(t, first.Changes)

	// A second pass over the already-synced listing is a no-op.
	second := r.Reconcile(first.Listing, saleResult())
	assert.Empty(t, second.Changes)
	assert.Equal(t, first.Listing, second.Listing)
}

func TestReconcileOrphanUnknownID(t *testing.T) {
	r := New(masterCatalog(t))

	l := trackedListing()
	l.CigarID = catalog.NewCigarID("Unknown", "Mystery", "Thing", "6x50", "Habano", "Box 20")
	out := r.Reconcile(l, saleResult())

	assert.True(t, out.Orphaned)
	assert.True(t, out.Listing.Orphaned)
	assert.Empty(t, out.Changes)

	// Descriptive fields untouched; transactional fields still applied.
	assert.Equal(t, "A. Fuente", out.Listing.Brand)
	assert.InDelta(t, 201.99, out.Listing.Price, 0.001)
}

func TestReconcileOrphanBlankID(t *testing.T) {
	r := New(masterCatalog(t))

	l := trackedListing()
	l.CigarID = ""
	out := r.Reconcile(l, nil)

	assert.True(t, out.Orphaned)
	assert.Equal(t, "A. Fuente", out.Listing.Brand)
}

func TestReconcileNilResultKeepsTransactional(t *testing.T) {
	r := New(masterCatalog(t))

	l := trackedListing()
	l.Price = 199.99
	l.InStock = true
	out := r.Reconcile(l, nil)

	assert.InDelta(t, 199.99, out.Listing.Price, 0.001)
	assert.True(t, out.Listing.InStock)
}

func TestReconcileEmptyMasterFieldLeftAlone(t *testing.T) {
	c := catalog.New()
	id := catalog.NewCigarID("Oliva", "Serie V", "Melanio", "6x52", "", "Box 10")
	require.NoError(t, c.Add(&catalog.MasterProduct{
		ID:     id,
		Brand:  "Oliva",
		Line:   "Serie V",
		Vitola: "Melanio",
		// Wrapper intentionally uncurated.
	}))

	l := catalog.Listing{Retailer: "atlantic", CigarID: id, Wrapper: "Sumatra"}
	out := New(c).Reconcile(l, nil)

	// An empty master value never blanks retailer data.
	assert.Equal(t, "Sumatra", out.Listing.Wrapper)
}

func TestReconcileSeedsQuantityOnlyWhenEmpty(t *testing.T) {
	c := catalog.New()
	id := catalog.NewCigarID("Oliva", "Serie V", "Melanio", "6x52", "Sumatra", "Box 10")
	require.NoError(t, c.Add(&catalog.MasterProduct{ID: id, Brand: "Oliva"}))

	qty := 10
	price := 128.5
	res := &extract.Result{Price: &price, BoxQuantity: &qty, InStock: true}

	seeded := New(c).Reconcile(catalog.Listing{Retailer: "atlantic", CigarID: id}, res)
	assert.Equal(t, 10, seeded.Listing.BoxQty)

	existing := catalog.Listing{Retailer: "atlantic", CigarID: id, BoxQty: 12}
	kept := New(c).Reconcile(existing, res)
	assert.Equal(t, 12, kept.Listing.BoxQty)
}
