package schedule

import (
	"time"

	"labbook/internal/domain/booking"

	"github.com/google/uuid"
)

// ReservationSpan is the slice of a persisted reservation that conflict logic
// needs. Readstores produce these from overlap queries; tests build them
// directly.
type ReservationSpan struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	OwnerID    uuid.UUID
	OwnerRole  booking.Role
	Status     booking.Status
	Interval   Interval
	CreatedAt  time.Time
}

// MaintenanceSpan mirrors a maintenance window row.
type MaintenanceSpan struct {
	ID            uuid.UUID
	ResourceID    uuid.UUID
	Interval      Interval
	BlocksBooking bool
}

type ConflictKind string

const (
	ConflictWithReservation ConflictKind = "reservation"
	ConflictWithMaintenance ConflictKind = "maintenance"
)

// Conflict pairs a candidate interval with one blocking row. Overlap is the
// shared window (max of starts, min of ends); Blocking is the full extent of
// the other interval, which the resolver pads when proposing alternatives.
type Conflict struct {
	Kind     ConflictKind
	WithID   uuid.UUID
	Overlap  Interval
	Blocking Interval
}

// ReservationPair is a conflict between two persisted reservations, produced
// by the pairwise range scan and consumed by auto-resolution.
type ReservationPair struct {
	First   ReservationSpan
	Second  ReservationSpan
	Overlap Interval
}

// FindReservationConflicts reports each span that strictly overlaps the
// candidate. Spans in non-blocking states (cancelled, rejected, completed)
// never conflict regardless of time overlap. excludeIDs removes reservations
// being edited from their own re-validation.
//
// Capacity is deliberately not consulted here: every resource is treated as
// single-occupancy. Capacity-aware counting is an extension point.
func FindReservationConflicts(candidate Interval, spans []ReservationSpan, excludeIDs []uuid.UUID) []Conflict {
	excluded := make(map[uuid.UUID]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	var conflicts []Conflict
	for _, span := range spans {
		if _, skip := excluded[span.ID]; skip {
			continue
		}
		if !span.Status.Blocks() {
			continue
		}
		if !candidate.Overlaps(span.Interval) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:     ConflictWithReservation,
			WithID:   span.ID,
			Overlap:  candidate.Overlap(span.Interval),
			Blocking: span.Interval,
		})
	}
	return conflicts
}

// FindMaintenanceConflicts reports overlapping maintenance windows. Windows
// that do not block booking are informational and never conflict.
func FindMaintenanceConflicts(candidate Interval, windows []MaintenanceSpan) []Conflict {
	var conflicts []Conflict
	for _, w := range windows {
		if !w.BlocksBooking {
			continue
		}
		if !candidate.Overlaps(w.Interval) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:     ConflictWithMaintenance,
			WithID:   w.ID,
			Overlap:  candidate.Overlap(w.Interval),
			Blocking: w.Interval,
		})
	}
	return conflicts
}

// FindConflictsInRange runs the pairwise scan over all spans of one resource
// within a range. excludeIDs removes reservations being edited from both
// sides of the scan; callers with nothing to exclude pass nil. O(n^2) is
// fine at the expected scale of dozens to low hundreds of reservations per
// window.
func FindConflictsInRange(spans []ReservationSpan, excludeIDs []uuid.UUID) []ReservationPair {
	excluded := make(map[uuid.UUID]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	var pairs []ReservationPair
	for i := 0; i < len(spans); i++ {
		if _, skip := excluded[spans[i].ID]; skip {
			continue
		}
		if !spans[i].Status.Blocks() {
			continue
		}
		for j := i + 1; j < len(spans); j++ {
			if _, skip := excluded[spans[j].ID]; skip {
				continue
			}
			if !spans[j].Status.Blocks() {
				continue
			}
			if !spans[i].Interval.Overlaps(spans[j].Interval) {
				continue
			}
			pairs = append(pairs, ReservationPair{
				First:   spans[i],
				Second:  spans[j],
				Overlap: spans[i].Interval.Overlap(spans[j].Interval),
			})
		}
	}
	return pairs
}

// BlockedIntervals projects blocking reservations and blocking maintenance
// windows into one merged interval set, the input for gap computation.
func BlockedIntervals(spans []ReservationSpan, windows []MaintenanceSpan) []Interval {
	blocked := make([]Interval, 0, len(spans)+len(windows))
	for _, s := range spans {
		if s.Status.Blocks() {
			blocked = append(blocked, s.Interval)
		}
	}
	for _, w := range windows {
		if w.BlocksBooking {
			blocked = append(blocked, w.Interval)
		}
	}
	return MergeIntervals(blocked)
}
