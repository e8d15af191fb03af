//go:build unit

package waitlist_test

import (
	"testing"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/domain/waitlist"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = waitlist.Defaults{
	MinDuration: time.Hour,
	MaxWaitDays: 14,
	Priority:    waitlist.PriorityNormal,
}

func at(t *testing.T, day, hour int) time.Time {
	t.Helper()
	return time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
}

func iv(t *testing.T, day, startHour, endHour int) schedule.Interval {
	t.Helper()
	return schedule.Interval{Start: at(t, day, startHour), End: at(t, day, endHour)}
}

func newEntry(t *testing.T, desired schedule.Interval, opts waitlist.Options) *waitlist.Entry {
	t.Helper()
	entry, err := waitlist.NewEntry(uuid.New(), booking.RoleStudent, uuid.New(), desired, opts, testDefaults, at(t, 3, 8))
	require.NoError(t, err)
	return entry
}

func TestNewEntry(t *testing.T) {
	desired := iv(t, 10, 10, 12)

	t.Run("unset options fall back to defaults", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{})

		assert.Equal(t, time.Hour, entry.MinDuration())
		assert.Equal(t, 14, entry.MaxWaitDays())
		assert.Equal(t, waitlist.PriorityNormal, entry.Priority())
		assert.Equal(t, waitlist.StatusActive, entry.Status())
	})

	t.Run("explicit options win over defaults", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{
			MinDuration: 30 * time.Minute,
			MaxWaitDays: 3,
			Priority:    waitlist.PriorityUrgent,
			AutoBook:    true,
		})

		assert.Equal(t, 30*time.Minute, entry.MinDuration())
		assert.Equal(t, 3, entry.MaxWaitDays())
		assert.Equal(t, waitlist.PriorityUrgent, entry.Priority())
		assert.True(t, entry.AutoBook())
	})

	t.Run("expiry is capped at the desired window end", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{})
		assert.Equal(t, desired.End, entry.ExpiresAt(), "window ends before now+14d")

		far := iv(t, 28, 10, 12)
		entry = newEntry(t, far, waitlist.Options{MaxWaitDays: 7})
		assert.Equal(t, at(t, 3, 8).AddDate(0, 0, 7), entry.ExpiresAt())
	})

	t.Run("carries the enrolling user's role", func(t *testing.T) {
		entry, err := waitlist.NewEntry(uuid.New(), booking.RoleLecturer, uuid.New(), desired, waitlist.Options{}, testDefaults, at(t, 3, 8))
		require.NoError(t, err)
		assert.Equal(t, booking.RoleLecturer, entry.UserRole())
	})

	t.Run("degenerate desired window is rejected", func(t *testing.T) {
		_, err := waitlist.NewEntry(uuid.New(), booking.RoleStudent, uuid.New(), schedule.Interval{
			Start: at(t, 10, 12),
			End:   at(t, 10, 10),
		}, waitlist.Options{}, testDefaults, at(t, 3, 8))

		assert.ErrorIs(t, err, waitlist.ErrInvalidDesiredWindow)
	})
}

func TestEntryMatches(t *testing.T) {
	desired := iv(t, 10, 10, 12)

	t.Run("fixed entry needs the gap to contain the desired window", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{})

		assert.True(t, entry.Matches(iv(t, 10, 9, 13)))
		assert.True(t, entry.Matches(desired))
		assert.False(t, entry.Matches(iv(t, 10, 11, 14)), "partial coverage is not enough")
		assert.False(t, entry.Matches(iv(t, 11, 9, 13)), "right shape, wrong day")
	})

	t.Run("flexible entry accepts any gap at least min duration long", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{FlexibleStart: true, MinDuration: 90 * time.Minute})

		assert.True(t, entry.Matches(iv(t, 11, 14, 16)))
		assert.False(t, entry.Matches(iv(t, 11, 14, 15)))
	})
}

func TestEntrySlotWithin(t *testing.T) {
	desired := iv(t, 10, 10, 12)

	t.Run("fixed entry takes the desired window", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{})
		assert.Equal(t, desired, entry.SlotWithin(iv(t, 10, 9, 14)))
	})

	t.Run("flexible entry takes the gap front edge at desired length", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{FlexibleStart: true})
		assert.Equal(t, iv(t, 11, 14, 16), entry.SlotWithin(iv(t, 11, 14, 17)))
	})

	t.Run("flexible duration shrinks to the minimum", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{
			FlexibleStart:    true,
			FlexibleDuration: true,
			MinDuration:      time.Hour,
		})
		assert.Equal(t, iv(t, 11, 14, 15), entry.SlotWithin(iv(t, 11, 14, 17)))
	})

	t.Run("slot never exceeds the gap", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{FlexibleStart: true, MinDuration: time.Hour})
		got := entry.SlotWithin(iv(t, 11, 14, 15))
		assert.Equal(t, iv(t, 11, 14, 15), got)
	})
}

func TestEntryLifecycle(t *testing.T) {
	desired := iv(t, 10, 10, 12)

	t.Run("notify then reactivate", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{})

		require.NoError(t, entry.MarkNotified())
		assert.Equal(t, waitlist.StatusNotified, entry.Status())
		assert.Equal(t, 1, entry.TimesNotified())

		assert.ErrorIs(t, entry.MarkNotified(), waitlist.ErrNotActive)

		entry.Reactivate()
		assert.Equal(t, waitlist.StatusActive, entry.Status())

		require.NoError(t, entry.MarkNotified())
		assert.Equal(t, 2, entry.TimesNotified())
	})

	t.Run("reactivate is a no-op outside notified", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{})
		entry.MarkFulfilled()
		entry.Reactivate()
		assert.Equal(t, waitlist.StatusFulfilled, entry.Status())
	})

	t.Run("cancel from active and notified only", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{})
		require.NoError(t, entry.Cancel())
		assert.Equal(t, waitlist.StatusCancelled, entry.Status())

		entry = newEntry(t, desired, waitlist.Options{})
		require.NoError(t, entry.MarkNotified())
		require.NoError(t, entry.Cancel())

		entry = newEntry(t, desired, waitlist.Options{})
		entry.Expire()
		assert.ErrorIs(t, entry.Cancel(), waitlist.ErrNotCancellable)
	})

	t.Run("expiry boundary is inclusive", func(t *testing.T) {
		entry := newEntry(t, desired, waitlist.Options{})
		assert.False(t, entry.IsExpired(entry.ExpiresAt().Add(-time.Second)))
		assert.True(t, entry.IsExpired(entry.ExpiresAt()))
	})
}

func TestSortForProcessing(t *testing.T) {
	mk := func(priority waitlist.Priority, createdAt time.Time) *waitlist.Entry {
		return waitlist.ReconstructEntry(
			uuid.New(), uuid.New(), booking.RoleStudent, uuid.New(),
			iv(t, 10, 10, 12),
			false, false,
			time.Hour, 14, priority, false,
			waitlist.StatusActive, 0,
			at(t, 10, 12), createdAt,
		)
	}

	t1, t2, t3 := at(t, 1, 9), at(t, 1, 10), at(t, 1, 11)
	highLate := mk(waitlist.PriorityHigh, t3)
	urgentEarly := mk(waitlist.PriorityUrgent, t1)
	urgentLate := mk(waitlist.PriorityUrgent, t2)

	entries := []*waitlist.Entry{highLate, urgentEarly, urgentLate}
	waitlist.SortForProcessing(entries)

	assert.Equal(t, []*waitlist.Entry{urgentEarly, urgentLate, highLate}, entries,
		"priority tier first, then arrival order")
}
