package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document wraps a parsed product page. Parsing tolerates arbitrary byte
// content: the underlying HTML parser repairs malformed markup, and a
// document that yields nothing at all is represented by an empty Document
// rather than an error.
type Document struct {
	doc *goquery.Document
}

// ParseDocument parses raw HTML bytes. It never fails; callers check
// Empty() when they care.
func ParseDocument(body []byte) *Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil || doc == nil {
		return &Document{}
	}
	return &Document{doc: doc}
}

// Empty reports whether the document yielded no usable DOM.
func (d *Document) Empty() bool {
	if d.doc == nil {
		return true
	}
	return strings.TrimSpace(d.doc.Text()) == ""
}

// Region scopes extraction to the first matching selector, keeping
// navigation, related-products and cart noise out of the candidate pool.
// With no match (or no selectors) the whole document is the region.
type Region struct {
	sel *goquery.Selection
}

// Region resolves the product region using the profile's ordered selectors.
func (d *Document) Region(selectors []string) *Region {
	if d.doc == nil {
		return &Region{}
	}
	for _, selector := range selectors {
		if selector == "" {
			continue
		}
		sel := d.doc.Find(selector)
		if sel.Length() > 0 {
			return &Region{sel: sel.First()}
		}
	}
	return &Region{sel: d.doc.Selection}
}

// Find runs a selector inside the region.
func (r *Region) Find(selector string) *goquery.Selection {
	if r.sel == nil {
		return new(goquery.Selection)
	}
	return r.sel.Find(selector)
}

// Text returns the region's text with whitespace collapsed to single
// spaces. Candidate offsets into this string are used for co-location.
func (r *Region) Text() string {
	if r.sel == nil {
		return ""
	}
	return collapseSpace(r.sel.Text())
}

// TitleText returns the page title plus heading text, the highest-priority
// scope for quantity patterns.
func (d *Document) TitleText() string {
	if d.doc == nil {
		return ""
	}
	parts := []string{d.doc.Find("title").Text()}
	d.doc.Find("h1, h2, [class*='product-title'], [class*='product-name']").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	return collapseSpace(strings.Join(parts, " "))
}

// AttributeText returns text from structured attribute tables and
// definition lists, the second scope for quantity patterns.
func (r *Region) AttributeText() string {
	if r.sel == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	r.sel.Find("table, dl, [class*='attribute'], [class*='spec']").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	return collapseSpace(strings.Join(parts, " "))
}

// FullText returns the whole document's collapsed text, the last-resort
// scope for quantity patterns.
func (d *Document) FullText() string {
	if d.doc == nil {
		return ""
	}
	return collapseSpace(d.doc.Text())
}

// struckSelector matches the markup retailers use for crossed-out prices.
const struckSelector = "del, s, strike, [style*='line-through'], [class*='old-price'], [class*='compare'], [class*='was-price'], [class*='msrp']"

// StruckText returns the concatenated text of struck-through elements in
// the region; prices found here belong to the original bucket.
func (r *Region) StruckText() string {
	if r.sel == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	r.sel.Find(struckSelector).Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	return collapseSpace(strings.Join(parts, " "))
}

// actionControlSelector matches elements that can act as a purchase control.
const actionControlSelector = "button, input[type='submit'], input[type='button'], a[class*='btn'], a[class*='button'], [role='button']"

// ActionControls visits each purchase-control candidate in the region with
// its visible text and whether it carries a disabled marker.
func (r *Region) ActionControls(visit func(text string, disabled bool)) {
	if r.sel == nil {
		return
	}
	r.sel.Find(actionControlSelector).Each(func(_ int, s *goquery.Selection) {
		text := collapseSpace(s.Text())
		if text == "" {
			if v, ok := s.Attr("value"); ok {
				text = collapseSpace(v)
			}
		}
		_, disabledAttr := s.Attr("disabled")
		class, _ := s.Attr("class")
		disabled := disabledAttr || strings.Contains(strings.ToLower(class), "disabled")
		visit(text, disabled)
	})
}

// collapseSpace normalizes all runs of whitespace to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
