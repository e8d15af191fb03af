package readstore

import (
	"context"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/infra"
	"labbook/internal/infra/db"

	"github.com/google/uuid"
)

// ScheduleReadStore serves the interval queries behind conflict detection and
// gap computation. Overlap is the strict test in SQL form: a row overlaps
// [start, end) when starts_at < end AND ends_at > start, so adjacency never
// matches.
type ScheduleReadStore struct {
	db db.DBTX
}

func NewScheduleReadStore(dbtx db.DBTX) *ScheduleReadStore {
	return &ScheduleReadStore{db: dbtx}
}

func (s *ScheduleReadStore) ReservationSpans(ctx context.Context, resourceID uuid.UUID, overlapping schedule.Interval, statuses []booking.Status) ([]schedule.ReservationSpan, error) {
	const q = `
		SELECT id, resource_id, owner_id, owner_role, status, starts_at, ends_at, created_at
		FROM reservations
		WHERE resource_id = $1
		  AND starts_at < $3 AND ends_at > $2
		  AND status = ANY($4)
		ORDER BY starts_at`

	states := make([]string, len(statuses))
	for i, st := range statuses {
		states[i] = string(st)
	}

	rows, err := s.db.Query(ctx, q, resourceID, overlapping.Start, overlapping.End, states)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query reservation spans", err)
	}
	defer rows.Close()

	var spans []schedule.ReservationSpan
	for rows.Next() {
		var (
			span       schedule.ReservationSpan
			role       string
			status     string
			start, end time.Time
		)
		if err := rows.Scan(&span.ID, &span.ResourceID, &span.OwnerID, &role, &status, &start, &end, &span.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation span", err)
		}
		span.OwnerRole = booking.Role(role)
		span.Status = booking.Status(status)
		span.Interval = schedule.Interval{Start: start, End: end}
		spans = append(spans, span)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reservation spans", err)
	}
	return spans, nil
}

func (s *ScheduleReadStore) MaintenanceSpans(ctx context.Context, resourceID uuid.UUID, overlapping schedule.Interval, blockingOnly bool) ([]schedule.MaintenanceSpan, error) {
	const q = `
		SELECT id, resource_id, starts_at, ends_at, blocks_booking
		FROM maintenance_windows
		WHERE resource_id = $1
		  AND starts_at < $3 AND ends_at > $2
		  AND (NOT $4 OR blocks_booking)
		ORDER BY starts_at`

	rows, err := s.db.Query(ctx, q, resourceID, overlapping.Start, overlapping.End, blockingOnly)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query maintenance windows", err)
	}
	defer rows.Close()

	var spans []schedule.MaintenanceSpan
	for rows.Next() {
		var (
			span       schedule.MaintenanceSpan
			start, end time.Time
		)
		if err := rows.Scan(&span.ID, &span.ResourceID, &start, &end, &span.BlocksBooking); err != nil {
			return nil, infra.WrapRepoErr("failed to scan maintenance window", err)
		}
		span.Interval = schedule.Interval{Start: start, End: end}
		spans = append(spans, span)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read maintenance windows", err)
	}
	return spans, nil
}
