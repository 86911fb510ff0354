package audit

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// MismatchColumns is the CSV header for exported audit findings.
var MismatchColumns = []string{
	"retailer", "cigar_id", "field", "retailer_value", "master_value", "issue_type",
}

// Records renders the findings as CSV records in MismatchColumns order,
// header included.
func (r *Report) Records() [][]string {
	records := make([][]string, 0, len(r.Mismatches)+1)
	records = append(records, MismatchColumns)
	for _, m := range r.Mismatches {
		records = append(records, []string{
			m.Retailer,
			m.CigarID,
			m.Field,
			m.RetailerValue,
			m.MasterValue,
			string(m.IssueType),
		})
	}
	return records
}

// Render writes the human-readable report: the remediation ranking first,
// then each finding row.
func (r *Report) Render(w io.Writer) error {
	fmt.Fprintf(w, "Audited %d listings across %d retailers: %d findings\n\n",
		r.TotalListings, len(r.Summaries), r.TotalFindings)

	if r.Clean() {
		fmt.Fprintln(w, "All retailer metadata is consistent with the master catalog.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RETAILER\tLISTINGS\tMISMATCHES\tORPHANED\tMISSING ID\tPRIORITY")
	for _, s := range r.Summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			s.Retailer, s.Listings, s.Mismatches, s.Orphaned, s.MissingID, s.Priority)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RETAILER\tCIGAR ID\tFIELD\tRETAILER VALUE\tMASTER VALUE\tISSUE")
	for _, m := range r.Mismatches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Retailer, truncate(m.CigarID, 40), m.Field,
			truncate(m.RetailerValue, 30), truncate(m.MasterValue, 30), m.IssueType)
	}
	return tw.Flush()
}

// PriorityRanking returns retailer keys in remediation order.
func (r *Report) PriorityRanking() []string {
	out := make([]string, 0, len(r.Summaries))
	for _, s := range r.Summaries {
		out = append(out, s.Retailer)
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
