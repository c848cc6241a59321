package models

// Report statuses of a column.
const (
	StatusComplete  = "complete"
	StatusFilled    = "filled"
	StatusPartial   = "partially filled"
	StatusDropped   = "dropped"
	StatusAdded     = "added"
	StatusUntouched = "missing left"
)

// MissingEntry compares one column before and after imputation.
type MissingEntry struct {
	Table         string
	Column        string
	Kind          string
	Type          string
	RowsBefore    int
	MissingBefore int
	RowsAfter     int
	MissingAfter  int
	Status        string
}

// MissingReport holds the before/after missing-value counts of a run.
type MissingReport struct {
	RunID   string
	Entries []MissingEntry
}

// Totals sums the missing values across all entries.
func (r *MissingReport) Totals() (before, after int) {
	for _, e := range r.Entries {
		before += e.MissingBefore
		after += e.MissingAfter
	}
	return before, after
}
