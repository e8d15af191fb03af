package schedule

import "time"

// Policy bundles the working-hours and suggestion constants. It is built from
// configuration at wiring time and passed down explicitly; the domain never
// reads global state.
type Policy struct {
	WorkdayStart   time.Duration // offset from midnight, e.g. 9h
	WorkdayEnd     time.Duration // offset from midnight, e.g. 18h
	Buffer         time.Duration // padding around blocked ranges when suggesting
	MinGap         time.Duration // smallest gap worth emitting
	MaxSuggestions int
}

func DefaultPolicy() Policy {
	return Policy{
		WorkdayStart:   9 * time.Hour,
		WorkdayEnd:     18 * time.Hour,
		Buffer:         30 * time.Minute,
		MinGap:         30 * time.Minute,
		MaxSuggestions: 5,
	}
}

// IsWorkingDay reports whether t falls on a bookable weekday (Mon-Fri).
func (p Policy) IsWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WorkingWindow returns the bookable window of the day containing t,
// in t's location.
func (p Policy) WorkingWindow(t time.Time) Interval {
	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return Interval{
		Start: midnight.Add(p.WorkdayStart),
		End:   midnight.Add(p.WorkdayEnd),
	}
}

// WithinWorkingHours reports whether the interval lies inside the working
// window of its start day. Slots never span days.
func (p Policy) WithinWorkingHours(iv Interval) bool {
	if !p.IsWorkingDay(iv.Start) {
		return false
	}
	return p.WorkingWindow(iv.Start).Contains(iv)
}
