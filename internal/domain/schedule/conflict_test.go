//go:build unit

package schedule_test

import (
	"testing"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(id uuid.UUID, status booking.Status, interval schedule.Interval) schedule.ReservationSpan {
	return schedule.ReservationSpan{
		ID:       id,
		Status:   status,
		Interval: interval,
	}
}

func TestFindReservationConflicts(t *testing.T) {
	existingID := uuid.New()

	t.Run("partial overlap reports the shared window", func(t *testing.T) {
		candidate := iv(t, 10, 0, 12, 0)
		spans := []schedule.ReservationSpan{
			span(existingID, booking.StatusConfirmed, iv(t, 11, 0, 13, 0)),
		}

		got := schedule.FindReservationConflicts(candidate, spans, nil)

		require.Len(t, got, 1)
		assert.Equal(t, schedule.ConflictWithReservation, got[0].Kind)
		assert.Equal(t, existingID, got[0].WithID)
		assert.Equal(t, iv(t, 11, 0, 12, 0), got[0].Overlap)
		assert.Equal(t, iv(t, 11, 0, 13, 0), got[0].Blocking)
	})

	t.Run("back to back slots never conflict", func(t *testing.T) {
		candidate := iv(t, 12, 0, 13, 0)
		spans := []schedule.ReservationSpan{
			span(existingID, booking.StatusConfirmed, iv(t, 10, 0, 12, 0)),
		}

		assert.Empty(t, schedule.FindReservationConflicts(candidate, spans, nil))
	})

	t.Run("only blocking states conflict", func(t *testing.T) {
		candidate := iv(t, 10, 0, 12, 0)
		cases := []struct {
			status booking.Status
			want   int
		}{
			{booking.StatusPending, 1},
			{booking.StatusConfirmed, 1},
			{booking.StatusCancelled, 0},
			{booking.StatusRejected, 0},
			{booking.StatusCompleted, 0},
		}
		for _, tc := range cases {
			t.Run(string(tc.status), func(t *testing.T) {
				spans := []schedule.ReservationSpan{
					span(uuid.New(), tc.status, iv(t, 11, 0, 13, 0)),
				}
				assert.Len(t, schedule.FindReservationConflicts(candidate, spans, nil), tc.want)
			})
		}
	})

	t.Run("excluded reservations are ignored", func(t *testing.T) {
		candidate := iv(t, 10, 0, 12, 0)
		spans := []schedule.ReservationSpan{
			span(existingID, booking.StatusConfirmed, iv(t, 10, 0, 12, 0)),
		}

		got := schedule.FindReservationConflicts(candidate, spans, []uuid.UUID{existingID})

		assert.Empty(t, got)
	})
}

func TestFindMaintenanceConflicts(t *testing.T) {
	windowID := uuid.New()
	candidate := iv(t, 10, 0, 12, 0)

	t.Run("blocking window conflicts", func(t *testing.T) {
		windows := []schedule.MaintenanceSpan{
			{ID: windowID, Interval: iv(t, 11, 0, 14, 0), BlocksBooking: true},
		}

		got := schedule.FindMaintenanceConflicts(candidate, windows)

		require.Len(t, got, 1)
		assert.Equal(t, schedule.ConflictWithMaintenance, got[0].Kind)
		assert.Equal(t, windowID, got[0].WithID)
		assert.Equal(t, iv(t, 11, 0, 12, 0), got[0].Overlap)
	})

	t.Run("informational window never conflicts", func(t *testing.T) {
		windows := []schedule.MaintenanceSpan{
			{ID: windowID, Interval: iv(t, 11, 0, 14, 0), BlocksBooking: false},
		}

		assert.Empty(t, schedule.FindMaintenanceConflicts(candidate, windows))
	})
}

func TestFindConflictsInRange(t *testing.T) {
	a := span(uuid.New(), booking.StatusConfirmed, iv(t, 9, 0, 11, 0))
	b := span(uuid.New(), booking.StatusPending, iv(t, 10, 0, 12, 0))
	c := span(uuid.New(), booking.StatusConfirmed, iv(t, 11, 30, 13, 0))
	cancelled := span(uuid.New(), booking.StatusCancelled, iv(t, 9, 0, 13, 0))

	got := schedule.FindConflictsInRange([]schedule.ReservationSpan{a, b, c, cancelled}, nil)

	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].First.ID)
	assert.Equal(t, b.ID, got[0].Second.ID)
	assert.Equal(t, iv(t, 10, 0, 11, 0), got[0].Overlap)
	assert.Equal(t, b.ID, got[1].First.ID)
	assert.Equal(t, c.ID, got[1].Second.ID)
	assert.Equal(t, iv(t, 11, 30, 12, 0), got[1].Overlap)

	t.Run("excluded reservation drops out of both sides", func(t *testing.T) {
		got := schedule.FindConflictsInRange(
			[]schedule.ReservationSpan{a, b, c, cancelled},
			[]uuid.UUID{b.ID},
		)

		assert.Empty(t, got, "b is the only span touching a and c")
	})
}

func TestBlockedIntervals(t *testing.T) {
	spans := []schedule.ReservationSpan{
		span(uuid.New(), booking.StatusConfirmed, iv(t, 10, 0, 11, 0)),
		span(uuid.New(), booking.StatusCancelled, iv(t, 15, 0, 16, 0)),
	}
	windows := []schedule.MaintenanceSpan{
		{ID: uuid.New(), Interval: iv(t, 10, 30, 12, 0), BlocksBooking: true},
		{ID: uuid.New(), Interval: iv(t, 13, 0, 14, 0), BlocksBooking: false},
	}

	got := schedule.BlockedIntervals(spans, windows)

	require.Len(t, got, 1, "overlapping blockers merge, non-blocking rows drop out")
	assert.Equal(t, iv(t, 10, 0, 12, 0), got[0])
}
