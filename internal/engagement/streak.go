package engagement

import "time"

// Transition names which edge of the streak state machine an entry took.
type Transition string

const (
	TransitionStarted   Transition = "started"   // first entry ever
	TransitionSameDay   Transition = "same_day"  // another entry on the last entry's day
	TransitionContinued Transition = "continued" // first entry of the day after the last entry
	TransitionReset     Transition = "reset"     // first entry after a gap of two or more days
)

type StreakResult struct {
	NewStreak       int
	StreakIncreased bool
	StreakBonus     bool
	Transition      Transition
}

// NextStreak computes the streak state after an entry created at now, given the
// previous entry instant (nil when the user has never written) and the current
// streak. Calendar days are evaluated in loc; a nil loc means UTC.
//
// A now that falls on a calendar day before lastEntry is treated as a gap.
func NextStreak(lastEntry *time.Time, currentStreak int, now time.Time, loc *time.Location) StreakResult {
	if lastEntry == nil {
		return StreakResult{NewStreak: 1, StreakIncreased: true, Transition: TransitionStarted}
	}

	switch CalendarDaysBetween(*lastEntry, now, loc) {
	case 0:
		return StreakResult{NewStreak: currentStreak, Transition: TransitionSameDay}
	case 1:
		return StreakResult{
			NewStreak:       currentStreak + 1,
			StreakIncreased: true,
			StreakBonus:     true,
			Transition:      TransitionContinued,
		}
	default:
		return StreakResult{NewStreak: 1, StreakIncreased: true, Transition: TransitionReset}
	}
}

// CalendarDaysBetween returns the number of day boundaries in loc crossed going
// from a to b. It is negative when b falls on an earlier day than a.
func CalendarDaysBetween(a, b time.Time, loc *time.Location) int {
	return int(calendarDay(b, loc).Sub(calendarDay(a, loc)).Hours() / 24)
}

// calendarDay maps t to midnight UTC of its date in loc so that day arithmetic
// is free of DST-length days.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
