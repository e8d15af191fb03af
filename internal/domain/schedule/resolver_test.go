//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSuggestAlternativeTimes(t *testing.T) {
	policy := schedule.DefaultPolicy()

	t.Run("slots around a single padded blocker", func(t *testing.T) {
		now := at(t, 9, 0)
		conflicts := []schedule.Conflict{
			{Blocking: iv(t, 13, 0, 15, 0)},
		}

		got := schedule.SuggestAlternativeTimes(2*time.Hour, conflicts, now, policy)

		// Padded blocker is 12:30-15:30; before-first ends at its start,
		// after-last begins at its end.
		want := []schedule.Interval{
			iv(t, 10, 30, 12, 30),
			iv(t, 15, 30, 17, 30),
		}
		assert.Empty(t, cmp.Diff(want, got))
	})

	t.Run("gap between blockers is proposed when wide enough", func(t *testing.T) {
		now := at(t, 9, 0)
		conflicts := []schedule.Conflict{
			{Blocking: iv(t, 9, 30, 10, 30)},
			{Blocking: iv(t, 14, 0, 15, 0)},
		}

		got := schedule.SuggestAlternativeTimes(2*time.Hour, conflicts, now, policy)

		// Padded: 9:00-11:00 and 13:30-15:30. Before-first lands before the
		// working day and is dropped; the 2.5h gap holds a 2h slot.
		want := []schedule.Interval{
			iv(t, 11, 0, 13, 0),
			iv(t, 15, 30, 17, 30),
		}
		assert.Empty(t, cmp.Diff(want, got))
	})

	t.Run("slots in the past are dropped", func(t *testing.T) {
		now := at(t, 14, 0)
		conflicts := []schedule.Conflict{
			{Blocking: iv(t, 13, 0, 15, 0)},
		}

		got := schedule.SuggestAlternativeTimes(2*time.Hour, conflicts, now, policy)

		want := []schedule.Interval{iv(t, 15, 30, 17, 30)}
		assert.Empty(t, cmp.Diff(want, got))
	})

	t.Run("slots outside working hours are dropped", func(t *testing.T) {
		now := at(t, 9, 0)
		conflicts := []schedule.Conflict{
			{Blocking: iv(t, 15, 0, 17, 0)},
		}

		got := schedule.SuggestAlternativeTimes(2*time.Hour, conflicts, now, policy)

		// After-last would run 17:30-19:30, past closing time.
		want := []schedule.Interval{iv(t, 12, 30, 14, 30)}
		assert.Empty(t, cmp.Diff(want, got))
	})

	t.Run("result capped at the policy maximum", func(t *testing.T) {
		now := at(t, 9, 0)
		capped := policy
		capped.MaxSuggestions = 1
		conflicts := []schedule.Conflict{
			{Blocking: iv(t, 13, 0, 15, 0)},
		}

		got := schedule.SuggestAlternativeTimes(2*time.Hour, conflicts, now, capped)

		assert.Len(t, got, 1)
	})

	t.Run("no conflicts yields no suggestions", func(t *testing.T) {
		assert.Nil(t, schedule.SuggestAlternativeTimes(time.Hour, nil, at(t, 9, 0), policy))
	})
}

func TestScoreReservation(t *testing.T) {
	now := at(t, 12, 0)

	base := schedule.ReservationSpan{
		ID:        uuid.New(),
		OwnerRole: booking.RoleStudent,
		Status:    booking.StatusPending,
		CreatedAt: now,
	}

	cases := []struct {
		name   string
		mutate func(s *schedule.ReservationSpan)
		want   int
	}{
		{"pending student just created", func(_ *schedule.ReservationSpan) {}, 0},
		{"confirmed adds ten", func(s *schedule.ReservationSpan) { s.Status = booking.StatusConfirmed }, 10},
		{"privileged role adds five", func(s *schedule.ReservationSpan) { s.OwnerRole = booking.RoleLecturer }, 5},
		{"age adds a point per day", func(s *schedule.ReservationSpan) { s.CreatedAt = now.AddDate(0, 0, -7) }, 7},
		{"age clamps at thirty", func(s *schedule.ReservationSpan) { s.CreatedAt = now.AddDate(0, 0, -90) }, 30},
		{"future creation counts as zero age", func(s *schedule.ReservationSpan) { s.CreatedAt = now.AddDate(0, 0, 2) }, 0},
		{
			"weights stack",
			func(s *schedule.ReservationSpan) {
				s.Status = booking.StatusConfirmed
				s.OwnerRole = booking.RoleLabManager
				s.CreatedAt = now.AddDate(0, 0, -3)
			},
			18,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			span := base
			tc.mutate(&span)
			assert.Equal(t, tc.want, schedule.ScoreReservation(span, now))
		})
	}
}

func TestAutoResolve(t *testing.T) {
	now := at(t, 12, 0)

	t.Run("higher score keeps the slot", func(t *testing.T) {
		older := schedule.ReservationSpan{
			ID:        uuid.New(),
			OwnerRole: booking.RoleStudent,
			Status:    booking.StatusConfirmed,
			Interval:  iv(t, 10, 0, 12, 0),
			CreatedAt: now.AddDate(0, 0, -5),
		}
		newer := schedule.ReservationSpan{
			ID:        uuid.New(),
			OwnerRole: booking.RoleStudent,
			Status:    booking.StatusPending,
			Interval:  iv(t, 11, 0, 13, 0),
			CreatedAt: now,
		}

		got := schedule.AutoResolve(schedule.ReservationPair{First: newer, Second: older, Overlap: iv(t, 11, 0, 12, 0)}, now)

		assert.Equal(t, schedule.StrategyRescheduleLowerPriority, got.Strategy)
		assert.Equal(t, older.ID, got.Keep.ID)
		assert.Equal(t, newer.ID, got.Reschedule.ID)
		assert.Equal(t, 15, got.KeepScore)
		assert.Equal(t, 0, got.RescheduleScore)
	})

	t.Run("equal scores break on the smaller id, order independent", func(t *testing.T) {
		a := schedule.ReservationSpan{
			ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			OwnerRole: booking.RoleStudent,
			Status:    booking.StatusPending,
			CreatedAt: now,
		}
		b := a
		b.ID = uuid.MustParse("22222222-2222-2222-2222-222222222222")

		first := schedule.AutoResolve(schedule.ReservationPair{First: a, Second: b}, now)
		second := schedule.AutoResolve(schedule.ReservationPair{First: b, Second: a}, now)

		assert.Equal(t, a.ID, first.Keep.ID)
		assert.Equal(t, a.ID, second.Keep.ID)
		assert.Equal(t, first.KeepScore, first.RescheduleScore)
	})
}
