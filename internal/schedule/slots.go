package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Working hours are two fixed daily bands. Minutes from midnight.
type band struct {
	start int
	end   int
}

var workingBands = []band{
	{start: 9 * 60, end: 13 * 60},  // 09:00 - 13:00
	{start: 14 * 60, end: 17 * 60}, // 14:00 - 17:00
}

const slotStepMinutes = 15

// abutTolerance is how close a candidate must sit to an occupied interval to
// count as schedule-packing.
const abutTolerance = time.Second

type occupied struct {
	start time.Time
	end   time.Time
}

// ComputeSlots generates the bookable start times for day given a service
// duration and the day's existing commitments. It is a pure function: callers
// must refetch appointments and blockers and call it again whenever the date,
// service, or branch selection changes.
//
// A candidate [start, start+duration) is kept only if it fits inside its own
// working band and does not overlap any appointment or blocker under
// half-open semantics. When day is the current date, candidates starting
// before now are dropped rather than truncated. Candidates that tightly abut
// an existing interval are flagged recommended and sorted to the front,
// preserving chronological order within each group.
func ComputeSlots(day time.Time, duration time.Duration, appts []Appointment, blockers []CalendarBlocker, now time.Time) []Slot {
	if duration <= 0 {
		return nil
	}

	occ := make([]occupied, 0, len(appts)+len(blockers))
	for _, a := range appts {
		occ = append(occ, occupied{start: a.StartTime, end: a.EndTime})
	}
	for _, b := range blockers {
		occ = append(occ, occupied{start: b.StartTime, end: b.EndTime})
	}

	year, month, dayOfMonth := day.Date()
	loc := day.Location()
	midnight := time.Date(year, month, dayOfMonth, 0, 0, 0, 0, loc)
	isToday := sameDate(midnight, now.In(loc))

	durMinutes := int(duration / time.Minute)

	slots := make([]Slot, 0, 32)
	for _, wb := range workingBands {
		for minute := wb.start; minute+durMinutes <= wb.end; minute += slotStepMinutes {
			slotStart := midnight.Add(time.Duration(minute) * time.Minute)
			slotEnd := slotStart.Add(duration)

			if isToday && slotStart.Before(now) {
				continue
			}

			if overlapsAny(slotStart, slotEnd, occ) {
				continue
			}

			slots = append(slots, Slot{
				Time:        fmt.Sprintf("%02d:%02d", minute/60, minute%60),
				Recommended: abutsAny(slotStart, slotEnd, occ),
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Recommended && !slots[j].Recommended
	})

	return slots
}

// overlapsAny applies the half-open interval test: [s1, e1) and [s2, e2)
// overlap iff s1 < e2 && e1 > s2.
func overlapsAny(start, end time.Time, occ []occupied) bool {
	for _, o := range occ {
		if start.Before(o.end) && end.After(o.start) {
			return true
		}
	}
	return false
}

// abutsAny reports whether the candidate starts within abutTolerance of an
// occupied end, or ends within abutTolerance of an occupied start. Such slots
// pack the schedule without leaving dead gaps.
func abutsAny(start, end time.Time, occ []occupied) bool {
	for _, o := range occ {
		if absDuration(start.Sub(o.end)) < abutTolerance {
			return true
		}
		if absDuration(o.start.Sub(end)) < abutTolerance {
			return true
		}
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
