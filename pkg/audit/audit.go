// Package audit performs the read-only consistency check of every tracked
// listing against the master catalog. It never mutates anything: running
// it twice over unchanged input yields byte-identical reports, which is
// what lets its output drive remediation queues.
package audit

import (
	"sort"
	"strconv"

	"github.com/cigarscout/cigarscout/pkg/catalog"
)

// IssueType classifies one audit finding.
type IssueType string

const (
	// IssueMetadataMismatch means a descriptive field drifted from master.
	IssueMetadataMismatch IssueType = "metadata_mismatch"
	// IssueOrphanedID means the listing's cigar_id is unknown to master.
	IssueOrphanedID IssueType = "orphaned_cigar_id"
	// IssueMissingID means the listing has no cigar_id at all.
	IssueMissingID IssueType = "missing_cigar_id"
)

// Mismatch is one audit finding row.
type Mismatch struct {
	Retailer      string    `json:"retailer"`
	CigarID       string    `json:"cigar_id"`
	Field         string    `json:"field"`
	RetailerValue string    `json:"retailer_value"`
	MasterValue   string    `json:"master_value"`
	IssueType     IssueType `json:"issue_type"`
}

// RetailerSummary aggregates one retailer's findings.
type RetailerSummary struct {
	Retailer          string         `json:"retailer"`
	Listings          int            `json:"listings"`
	Mismatches        int            `json:"mismatches"`
	Orphaned          int            `json:"orphaned"`
	MissingID         int            `json:"missing_cigar_id"`
	MismatchesByField map[string]int `json:"mismatches_by_field,omitempty"`

	// Priority sequences remediation: the total finding count, orphans
	// and missing IDs included.
	Priority int `json:"priority"`
}

// Report is the full audit output.
type Report struct {
	Mismatches []Mismatch        `json:"mismatches"`
	Summaries  []RetailerSummary `json:"summaries"`

	TotalListings int `json:"total_listings"`
	TotalFindings int `json:"total_findings"`
}

// Clean reports whether the audit found nothing to fix.
func (r *Report) Clean() bool {
	return r.TotalFindings == 0
}

// Auditor compares listings to the master catalog.
type Auditor struct {
	master catalog.Reader
}

// New creates an auditor over a master catalog.
func New(master catalog.Reader) *Auditor {
	return &Auditor{master: master}
}

// Run audits every listing. Inputs are read-only; the returned report is
// fully sorted (findings by retailer, cigar_id, field; summaries by
// priority descending, then retailer) so identical input produces an
// identical report.
func (a *Auditor) Run(listings []catalog.Listing) *Report {
	report := &Report{TotalListings: len(listings)}
	perRetailer := make(map[string]*RetailerSummary)

	summary := func(retailer string) *RetailerSummary {
		s, ok := perRetailer[retailer]
		if !ok {
			s = &RetailerSummary{Retailer: retailer, MismatchesByField: make(map[string]int)}
			perRetailer[retailer] = s
		}
		return s
	}

	for i := range listings {
		l := &listings[i]
		s := summary(l.Retailer)
		s.Listings++

		if l.CigarID.IsZero() {
			s.MissingID++
			report.Mismatches = append(report.Mismatches, Mismatch{
				Retailer:  l.Retailer,
				Field:     "cigar_id",
				IssueType: IssueMissingID,
			})
			continue
		}

		master := a.master.Lookup(l.CigarID)
		if master == nil {
			s.Orphaned++
			report.Mismatches = append(report.Mismatches, Mismatch{
				Retailer:      l.Retailer,
				CigarID:       l.CigarID.String(),
				Field:         "cigar_id",
				RetailerValue: l.CigarID.String(),
				IssueType:     IssueOrphanedID,
			})
			continue
		}

		for _, cmp := range fieldComparisons(l, master) {
			if cmp.expected == "" || cmp.actual == cmp.expected {
				continue
			}
			s.Mismatches++
			s.MismatchesByField[cmp.field]++
			report.Mismatches = append(report.Mismatches, Mismatch{
				Retailer:      l.Retailer,
				CigarID:       l.CigarID.String(),
				Field:         cmp.field,
				RetailerValue: cmp.actual,
				MasterValue:   cmp.expected,
				IssueType:     IssueMetadataMismatch,
			})
		}
	}

	sort.Slice(report.Mismatches, func(i, j int) bool {
		a, b := report.Mismatches[i], report.Mismatches[j]
		if a.Retailer != b.Retailer {
			return a.Retailer < b.Retailer
		}
		if a.CigarID != b.CigarID {
			return a.CigarID < b.CigarID
		}
		return a.Field < b.Field
	})

	for _, s := range perRetailer {
		s.Priority = s.Mismatches + s.Orphaned + s.MissingID
		report.TotalFindings += s.Priority
		report.Summaries = append(report.Summaries, *s)
	}
	sort.Slice(report.Summaries, func(i, j int) bool {
		a, b := report.Summaries[i], report.Summaries[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Retailer < b.Retailer
	})

	return report
}

// fieldComparison pairs a listing value with its master-wins expectation.
type fieldComparison struct {
	field    string
	actual   string
	expected string
}

func fieldComparisons(l *catalog.Listing, m *catalog.MasterProduct) []fieldComparison {
	return []fieldComparison{
		{"title", l.Title, m.CanonicalName()},
		{"brand", l.Brand, m.Brand},
		{"line", l.Line, m.Line},
		{"wrapper", l.Wrapper, m.Wrapper},
		{"vitola", l.Vitola, m.Vitola},
		{"size", l.Size, m.Size},
		{"box_qty", qtyString(l.BoxQty), qtyString(m.BoxQty)},
	}
}

func qtyString(qty int) string {
	if qty == 0 {
		return ""
	}
	return strconv.Itoa(qty)
}
