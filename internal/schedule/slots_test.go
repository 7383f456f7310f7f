package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

// otherDayNow is a reference "now" on a different date, so the past-slot
// filter never kicks in.
var otherDayNow = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 3, hour, minute, 0, 0, time.UTC)
}

func appt(start, end time.Time) Appointment {
	return Appointment{StartTime: start, EndTime: end, Status: StatusConfirmed}
}

func slotTimes(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

func TestComputeSlotsEmptyDayThirtyMinutes(t *testing.T) {
	slots := ComputeSlots(testDay, 30*time.Minute, nil, nil, otherDayNow)

	// 09:00..12:30 then 14:00..16:30, both at 15-minute steps.
	require.Len(t, slots, 26)

	want := []string{
		"09:00", "09:15", "09:30", "09:45",
		"10:00", "10:15", "10:30", "10:45",
		"11:00", "11:15", "11:30", "11:45",
		"12:00", "12:15", "12:30",
	}
	assert.Equal(t, want, slotTimes(slots)[:15])
	assert.Equal(t, "14:00", slots[15].Time)
	assert.Equal(t, "16:30", slots[25].Time)

	for _, s := range slots {
		assert.False(t, s.Recommended, "no occupancy means nothing abuts")
	}
}

func TestComputeSlotsRespectsBandBoundaries(t *testing.T) {
	slots := ComputeSlots(testDay, 60*time.Minute, nil, nil, otherDayNow)

	times := slotTimes(slots)
	assert.Contains(t, times, "12:00")
	assert.NotContains(t, times, "12:15", "a 60 minute slot at 12:15 would cross 13:00")
	assert.Contains(t, times, "16:00")
	assert.NotContains(t, times, "16:15")
}

func TestComputeSlotsDurationTooLongForAnyBand(t *testing.T) {
	slots := ComputeSlots(testDay, 5*time.Hour, nil, nil, otherDayNow)
	assert.Empty(t, slots, "a duration no band can hold yields zero slots, not an error")
}

func TestComputeSlotsExcludesOverlaps(t *testing.T) {
	appts := []Appointment{appt(at(10, 0), at(10, 30))}

	slots := ComputeSlots(testDay, 30*time.Minute, appts, nil, otherDayNow)
	times := slotTimes(slots)

	// Half-open semantics: [09:45, 10:15) and [10:15, 10:45) overlap the
	// booking, [09:30, 10:00) and [10:30, 11:00) do not.
	assert.NotContains(t, times, "09:45")
	assert.NotContains(t, times, "10:00")
	assert.NotContains(t, times, "10:15")
	assert.Contains(t, times, "09:30")
	assert.Contains(t, times, "10:30")
}

func TestComputeSlotsBlockersOccupyLikeAppointments(t *testing.T) {
	blockers := []CalendarBlocker{{StartTime: at(14, 0), EndTime: at(15, 0), Reason: "admin"}}

	slots := ComputeSlots(testDay, 30*time.Minute, nil, blockers, otherDayNow)
	times := slotTimes(slots)

	assert.NotContains(t, times, "14:00")
	assert.NotContains(t, times, "14:45")
	assert.Contains(t, times, "15:00")
}

func TestComputeSlotsRecommendsAbuttingSlots(t *testing.T) {
	appts := []Appointment{appt(at(10, 0), at(10, 30))}

	slots := ComputeSlots(testDay, 30*time.Minute, appts, nil, otherDayNow)

	recommended := map[string]bool{}
	for _, s := range slots {
		recommended[s.Time] = s.Recommended
	}

	assert.True(t, recommended["09:30"], "ends exactly at the booking start")
	assert.True(t, recommended["10:30"], "starts exactly at the booking end")
	assert.False(t, recommended["09:00"])
	assert.False(t, recommended["11:00"])
}

func TestComputeSlotsRecommendedComeFirstChronologically(t *testing.T) {
	appts := []Appointment{appt(at(10, 0), at(10, 30))}

	slots := ComputeSlots(testDay, 30*time.Minute, appts, nil, otherDayNow)
	require.NotEmpty(t, slots)

	seenPlain := false
	var lastRecommended, lastPlain string
	for _, s := range slots {
		if s.Recommended {
			assert.False(t, seenPlain, "recommended slot %s after a non-recommended one", s.Time)
			if lastRecommended != "" {
				assert.Less(t, lastRecommended, s.Time, "recommended group must stay chronological")
			}
			lastRecommended = s.Time
			continue
		}
		seenPlain = true
		if lastPlain != "" {
			assert.Less(t, lastPlain, s.Time, "non-recommended group must stay chronological")
		}
		lastPlain = s.Time
	}
	assert.Equal(t, "09:30", slots[0].Time)
	assert.Equal(t, "10:30", slots[1].Time)
}

func TestComputeSlotsDropsPastSlotsToday(t *testing.T) {
	now := at(11, 7)

	slots := ComputeSlots(testDay, 30*time.Minute, nil, nil, now)
	require.NotEmpty(t, slots)

	// 11:00 would still fit its band but started before now: dropped, not
	// truncated.
	assert.Equal(t, "11:15", slots[0].Time)
	for _, s := range slots {
		assert.GreaterOrEqual(t, s.Time, "11:15")
	}
}

func TestComputeSlotsIgnoresNowOnOtherDates(t *testing.T) {
	now := time.Date(2024, 6, 4, 23, 0, 0, 0, time.UTC)

	slots := ComputeSlots(testDay, 30*time.Minute, nil, nil, now)
	require.NotEmpty(t, slots)
	assert.Equal(t, "09:00", slots[0].Time)
}

func TestComputeSlotsZeroDuration(t *testing.T) {
	assert.Empty(t, ComputeSlots(testDay, 0, nil, nil, otherDayNow))
}
