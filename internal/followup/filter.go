package followup

import (
	"sort"
	"strings"
)

// StatusFilter narrows the presented list. FilterAll shows pending and
// snoozed alike (canceled never reaches the read path, done is included so
// completed work stays visible for the day).
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterPending StatusFilter = "pending"
	FilterSnoozed StatusFilter = "snoozed"
)

type ListFilter struct {
	Status StatusFilter
	Search string // case-insensitive substring of the patient name
}

// SortAndFilter applies the read-path contract: stable sort descending by
// priority rank, then status filter, then patient-name filter. Insertion
// order is preserved between equal-priority records.
func SortAndFilter(records []Followup, filter ListFilter) []Followup {
	sorted := make([]Followup, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.Rank() > sorted[j].Priority.Rank()
	})

	results := sorted
	if filter.Status != "" && filter.Status != FilterAll {
		filtered := results[:0:0]
		for _, f := range results {
			if string(f.Status) == string(filter.Status) {
				filtered = append(filtered, f)
			}
		}
		results = filtered
	}

	if term := strings.TrimSpace(filter.Search); term != "" {
		term = strings.ToLower(term)
		filtered := results[:0:0]
		for _, f := range results {
			if strings.Contains(strings.ToLower(f.PatientName), term) {
				filtered = append(filtered, f)
			}
		}
		results = filtered
	}

	return results
}
