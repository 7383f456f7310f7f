package followup

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name string, priority Priority, status Status) Followup {
	return Followup{
		ID:          uuid.New(),
		PatientName: name,
		Priority:    priority,
		Status:      status,
	}
}

func names(records []Followup) []string {
	out := make([]string, len(records))
	for i, f := range records {
		out[i] = f.PatientName
	}
	return out
}

func TestSortAndFilterPriorityDescendingStable(t *testing.T) {
	in := []Followup{
		record("Anil", PriorityLow, StatusPending),
		record("Bhavna", PriorityUrgent, StatusPending),
		record("Chitra", PriorityNormal, StatusPending),
		record("Deepak", PriorityUrgent, StatusPending),
	}

	out := SortAndFilter(in, ListFilter{})

	// Equal-priority records keep their original relative order.
	assert.Equal(t, []string{"Bhavna", "Deepak", "Chitra", "Anil"}, names(out))
}

func TestSortAndFilterLeavesInputUntouched(t *testing.T) {
	in := []Followup{
		record("Anil", PriorityLow, StatusPending),
		record("Bhavna", PriorityUrgent, StatusPending),
	}

	_ = SortAndFilter(in, ListFilter{})

	assert.Equal(t, "Anil", in[0].PatientName, "caller's slice is not reordered")
}

func TestSortAndFilterStatusFilter(t *testing.T) {
	in := []Followup{
		record("Anil", PriorityNormal, StatusPending),
		record("Bhavna", PriorityNormal, StatusSnoozed),
		record("Chitra", PriorityNormal, StatusDone),
	}

	pending := SortAndFilter(in, ListFilter{Status: FilterPending})
	assert.Equal(t, []string{"Anil"}, names(pending))

	snoozed := SortAndFilter(in, ListFilter{Status: FilterSnoozed})
	assert.Equal(t, []string{"Bhavna"}, names(snoozed))

	all := SortAndFilter(in, ListFilter{Status: FilterAll})
	assert.Len(t, all, 3, "all keeps done records visible")
}

func TestSortAndFilterSearchCaseInsensitive(t *testing.T) {
	in := []Followup{
		record("Kavya Reddy", PriorityNormal, StatusPending),
		record("Ravi Kumar", PriorityNormal, StatusPending),
	}

	out := SortAndFilter(in, ListFilter{Search: "  kAvYa "})
	require.Len(t, out, 1)
	assert.Equal(t, "Kavya Reddy", out[0].PatientName)

	none := SortAndFilter(in, ListFilter{Search: "zzz"})
	assert.Empty(t, none)
}

func TestSortAndFilterCombined(t *testing.T) {
	in := []Followup{
		record("Ravi Kumar", PriorityLow, StatusPending),
		record("Kavya Reddy", PriorityUrgent, StatusSnoozed),
		record("Ravi Sharma", PriorityUrgent, StatusPending),
	}

	out := SortAndFilter(in, ListFilter{Status: FilterPending, Search: "ravi"})
	assert.Equal(t, []string{"Ravi Sharma", "Ravi Kumar"}, names(out))
}
