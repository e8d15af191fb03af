package schedule

import (
	"strings"
	"time"

	"labbook/internal/domain/booking"
)

const (
	scoreConfirmed  = 10
	scorePrivileged = 5
	scoreMaxAge     = 30
)

// Strategy names for auto-resolution. Only reschedule-lower-priority is
// implemented; the name travels with the Resolution for reporting.
const StrategyRescheduleLowerPriority = "reschedule_lower_priority"

// SuggestAlternativeTimes proposes up to policy.MaxSuggestions slots of the
// same duration as the failed candidate. Each blocking interval is padded by
// the policy buffer on both sides; proposals are: a slot ending where the
// first blocked range begins, slots opening each inter-block gap wide enough
// for the duration, and a slot starting where the last blocked range ends.
// Proposals outside working hours or starting in the past are dropped.
// Order is generation order: before-first, gaps chronologically, after-last.
func SuggestAlternativeTimes(duration time.Duration, conflicts []Conflict, now time.Time, p Policy) []Interval {
	if len(conflicts) == 0 || duration <= 0 {
		return nil
	}

	padded := make([]Interval, 0, len(conflicts))
	for _, c := range conflicts {
		padded = append(padded, c.Blocking.Pad(p.Buffer))
	}
	blocked := MergeIntervals(padded)

	candidates := make([]Interval, 0, len(blocked)+1)

	first := blocked[0]
	before := Interval{Start: first.Start.Add(-duration), End: first.Start}
	if !before.Start.Before(now) {
		candidates = append(candidates, before)
	}

	for i := 0; i+1 < len(blocked); i++ {
		gapStart := blocked[i].End
		gapEnd := blocked[i+1].Start
		if gapEnd.Sub(gapStart) < duration {
			continue
		}
		candidates = append(candidates, Interval{Start: gapStart, End: gapStart.Add(duration)})
	}

	last := blocked[len(blocked)-1]
	candidates = append(candidates, Interval{Start: last.End, End: last.End.Add(duration)})

	var out []Interval
	for _, slot := range candidates {
		if slot.Start.Before(now) {
			continue
		}
		if !p.WithinWorkingHours(slot) {
			continue
		}
		out = append(out, slot)
		if len(out) == p.MaxSuggestions {
			break
		}
	}
	return out
}

// ScoreReservation ranks a reservation for auto-resolution: confirmed status
// and a privileged owner role add fixed weight, and age adds up to 30 points
// so that older reservations win over newer ones.
func ScoreReservation(span ReservationSpan, now time.Time) int {
	score := 0
	if span.Status == booking.StatusConfirmed {
		score += scoreConfirmed
	}
	if span.OwnerRole.Privileged() {
		score += scorePrivileged
	}
	ageDays := int(now.Sub(span.CreatedAt).Hours() / 24)
	if ageDays < 0 {
		ageDays = 0
	}
	if ageDays > scoreMaxAge {
		ageDays = scoreMaxAge
	}
	return score + ageDays
}

// Resolution designates which side of a conflicting pair keeps its slot and
// which should be rescheduled.
type Resolution struct {
	Strategy        string
	Keep            ReservationSpan
	Reschedule      ReservationSpan
	KeepScore       int
	RescheduleScore int
}

// AutoResolve scores both reservations and marks the lower-scoring one for
// rescheduling. Equal scores are broken by the lexicographically smaller
// reservation ID keeping its slot, so resolution is deterministic.
func AutoResolve(pair ReservationPair, now time.Time) Resolution {
	a, b := pair.First, pair.Second
	sa, sb := ScoreReservation(a, now), ScoreReservation(b, now)

	keep, resched := a, b
	keepScore, reschedScore := sa, sb
	if sb > sa || (sb == sa && strings.Compare(b.ID.String(), a.ID.String()) < 0) {
		keep, resched = b, a
		keepScore, reschedScore = sb, sa
	}

	return Resolution{
		Strategy:        StrategyRescheduleLowerPriority,
		Keep:            keep,
		Reschedule:      resched,
		KeepScore:       keepScore,
		RescheduleScore: reschedScore,
	}
}
