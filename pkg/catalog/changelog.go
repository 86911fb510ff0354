package catalog

import "fmt"

// ChangeLogEntry records one descriptive field rewritten during
// reconciliation: which listing, which field, and the before/after values.
type ChangeLogEntry struct {
	Listing ListingKey `json:"listing"`
	Field   string     `json:"field"`
	Old     string     `json:"old"`
	New     string     `json:"new"`
}

// String renders the entry for log output.
func (e ChangeLogEntry) String() string {
	return fmt.Sprintf("%s: %s %q -> %q", e.Listing, e.Field, e.Old, e.New)
}
