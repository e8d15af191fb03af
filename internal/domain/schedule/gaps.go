package schedule

import "time"

// FreeGaps computes the bookable gaps for one resource over the horizon.
// Blocking intervals are merged, then each working day (Mon-Fri) between now
// and now+horizonDays is walked: the complement of the blocked set within the
// working window is emitted, dropping gaps shorter than the policy minimum.
//
// The scan pointer for the current day starts at the next full hour after
// now (clamped up to the working-day start). After hours it rolls to the
// next day's window; before hours it starts at the window open.
func FreeGaps(blocked []Interval, now time.Time, horizonDays int, p Policy) []Interval {
	merged := MergeIntervals(blocked)
	horizon := now.AddDate(0, 0, horizonDays)

	var gaps []Interval
	for day := now; !day.After(horizon); day = nextMidnight(day) {
		if !p.IsWorkingDay(day) {
			continue
		}
		window := p.WorkingWindow(day)

		if sameDay(day, now) {
			start := scanStart(now, p)
			if !sameDay(start, now) {
				// Rolled past midnight: today is exhausted.
				continue
			}
			if start.After(window.Start) {
				window.Start = start
			}
		}
		if !window.Start.Before(window.End) {
			continue
		}

		gaps = append(gaps, dayGaps(window, merged, p.MinGap)...)
	}
	return gaps
}

// scanStart resolves the first instant of "today" worth scanning.
func scanStart(now time.Time, p Policy) time.Time {
	window := p.WorkingWindow(now)
	switch {
	case now.Before(window.Start):
		return window.Start
	case !now.Before(window.End):
		// At or past close: today yields nothing; report tomorrow so the
		// caller skips the day.
		return nextMidnight(now)
	default:
		next := nextFullHour(now)
		if next.Before(window.Start) {
			return window.Start
		}
		return next
	}
}

// dayGaps emits the complement of blocked within the window, keeping gaps of
// at least minGap.
func dayGaps(window Interval, blocked []Interval, minGap time.Duration) []Interval {
	var gaps []Interval
	cursor := window.Start

	for _, b := range blocked {
		if !b.End.After(window.Start) {
			continue
		}
		if !b.Start.Before(window.End) {
			break
		}
		if b.Start.After(cursor) {
			gap := Interval{Start: cursor, End: minTime(b.Start, window.End)}
			if gap.Duration() >= minGap {
				gaps = append(gaps, gap)
			}
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(window.End) {
			return gaps
		}
	}

	if window.End.Sub(cursor) >= minGap {
		gaps = append(gaps, Interval{Start: cursor, End: window.End})
	}
	return gaps
}

// nextFullHour rounds up to the next local full hour; an instant already on
// the hour is returned unchanged.
func nextFullHour(t time.Time) time.Time {
	year, month, day := t.Date()
	hour := t.Hour()
	onTheHour := time.Date(year, month, day, hour, 0, 0, 0, t.Location())
	if onTheHour.Equal(t) {
		return t
	}
	return time.Date(year, month, day, hour+1, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func nextMidnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, t.Location())
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
