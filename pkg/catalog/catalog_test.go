package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id CigarID) *MasterProduct {
	return &MasterProduct{
		ID:     id,
		Brand:  "Arturo Fuente",
		Line:   "Hemingway",
		Vitola: "Classic",
		Size:   "7x48",
		BoxQty: 25,
	}
}

func TestNewCigarID(t *testing.T) {
	id := NewCigarID("Arturo Fuente", "Hemingway", "Classic", "7x48", "Cameroon", "Box 25")
	assert.Equal(t, CigarID("arturo_fuente|arturo_fuente|hemingway|classic|classic|7x48|cameroon|box_25"), id)
	assert.True(t, id.Valid())
	assert.Equal(t, "arturo_fuente", id.Brand())
	assert.Equal(t, "box_25", id.Packaging())
}

func TestCigarIDValid(t *testing.T) {
	tests := []struct {
		name  string
		id    CigarID
		valid bool
	}{
		{"well formed", "a|a|b|c|c|7x48|w|box_25", true},
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"too few segments", "a|b|c", false},
		{"too many segments", "a|a|b|c|c|d|e|f|g", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.id.Valid())
		})
	}
}

func TestCatalogAddAndLookup(t *testing.T) {
	c := New()
	id := NewCigarID("Padron", "1964 Anniversary", "Exclusivo", "5.5x50", "Maduro", "Box 25")
	require.NoError(t, c.Add(testProduct(id)))

	assert.Equal(t, 1, c.Len())
	assert.NotNil(t, c.Lookup(id))
	assert.Nil(t, c.Lookup(CigarID("missing|missing|x|y|y|z|w|box_10")))

	// Duplicate and malformed IDs are rejected.
	assert.Error(t, c.Add(testProduct(id)))
	assert.Error(t, c.Add(testProduct(CigarID("not-composite"))))
	assert.Error(t, c.Add(nil))
}

func TestCatalogProductsSorted(t *testing.T) {
	c := New()
	ids := []CigarID{
		NewCigarID("Padron", "1964", "Exclusivo", "5.5x50", "Maduro", "Box 25"),
		NewCigarID("Arturo Fuente", "Hemingway", "Classic", "7x48", "Cameroon", "Box 25"),
		NewCigarID("Oliva", "Serie V", "Melanio", "6x52", "Sumatra", "Box 10"),
	}
	for _, id := range ids {
		require.NoError(t, c.Add(testProduct(id)))
	}

	products := c.Products()
	require.Len(t, products, 3)
	for i := 1; i < len(products); i++ {
		assert.Less(t, products[i-1].ID.String(), products[i].ID.String())
	}
}

func TestFromCSVRecords(t *testing.T) {
	header := []string{"cigar_id", "brand", "line", "vitola", "size", "box_qty", "wrapper"}
	records := [][]string{
		{"arturo_fuente|arturo_fuente|hemingway|classic|classic|7x48|cameroon|box_25", "Arturo Fuente", "Hemingway", "Classic", "7x48", "25", "Cameroon"},
	}

	c, err := FromCSVRecords(header, records)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	p := c.Lookup(CigarID("arturo_fuente|arturo_fuente|hemingway|classic|classic|7x48|cameroon|box_25"))
	require.NotNil(t, p)
	assert.Equal(t, "Arturo Fuente", p.Brand)
	assert.Equal(t, 25, p.BoxQty)
	assert.Equal(t, "Arturo Fuente Hemingway Classic", p.CanonicalName())
}

func TestFromCSVRecordsMissingIDColumn(t *testing.T) {
	_, err := FromCSVRecords([]string{"brand", "line"}, nil)
	require.Error(t, err)
}

func TestListingRecordRoundTrip(t *testing.T) {
	orig := 299.99
	l := Listing{
		Retailer:          "smokeinn",
		CigarID:           NewCigarID("Arturo Fuente", "Hemingway", "Classic", "7x48", "Cameroon", "Box 25"),
		URL:               "https://example.com/hemingway-classic",
		Title:             "Arturo Fuente Hemingway Classic",
		Brand:             "Arturo Fuente",
		Line:              "Hemingway",
		Wrapper:           "Cameroon",
		Vitola:            "Classic",
		Size:              "7x48",
		BoxQty:            25,
		Price:             273.95,
		OriginalPrice:     &orig,
		InStock:           true,
		PromotionsApplied: true,
	}

	record := l.Record()
	require.Len(t, record, len(ListingColumns))

	parsed := ListingFromRecord("smokeinn", record)
	assert.Equal(t, l.CigarID, parsed.CigarID)
	assert.Equal(t, l.Title, parsed.Title)
	assert.Equal(t, l.BoxQty, parsed.BoxQty)
	assert.Equal(t, l.Price, parsed.Price)
	assert.True(t, parsed.InStock)
	assert.True(t, parsed.PromotionsApplied)
}

func TestListingKey(t *testing.T) {
	withID := Listing{Retailer: "smokeinn", CigarID: "a|a|b|c|c|d|e|f", URL: "https://example.com/p"}
	assert.Equal(t, ListingKey{Retailer: "smokeinn", ID: "a|a|b|c|c|d|e|f"}, withID.Key())

	withoutID := Listing{Retailer: "smokeinn", URL: "https://example.com/p"}
	assert.Equal(t, ListingKey{Retailer: "smokeinn", ID: "https://example.com/p"}, withoutID.Key())
}

func TestNormalizeDisplay(t *testing.T) {
	assert.Equal(t, "Arturo Fuente", NormalizeDisplay("arturo_fuente"))
	assert.Equal(t, "", NormalizeDisplay("  "))
}
