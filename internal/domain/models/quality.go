package models

// QualityReport summarizes a validation pass over one persisted table.
// Missing counts NaN cells and NonFinite counts ±Inf cells, both keyed by
// column name. Reports are advisory and never block persistence.
type QualityReport struct {
	Rows      int            `json:"rows"`
	Missing   map[string]int `json:"missing,omitempty"`
	NonFinite map[string]int `json:"non_finite,omitempty"`
}

// Clean reports whether the scan found nothing to flag.
func (r QualityReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.NonFinite) == 0
}

// MissingCells returns the total number of NaN cells across all columns.
func (r QualityReport) MissingCells() int {
	n := 0
	for _, c := range r.Missing {
		n += c
	}
	return n
}

// NonFiniteCells returns the total number of ±Inf cells across all columns.
func (r QualityReport) NonFiniteCells() int {
	n := 0
	for _, c := range r.NonFinite {
		n += c
	}
	return n
}
