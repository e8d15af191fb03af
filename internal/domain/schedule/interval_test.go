//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"labbook/internal/domain/schedule"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 3, 3, hour, min, 0, 0, time.UTC) // a Monday
}

func iv(t *testing.T, startHour, startMin, endHour, endMin int) schedule.Interval {
	t.Helper()
	return schedule.Interval{Start: at(t, startHour, startMin), End: at(t, endHour, endMin)}
}

func TestInterval(t *testing.T) {
	t.Run("construction rejects degenerate ranges", func(t *testing.T) {
		_, err := schedule.NewInterval(at(t, 12, 0), at(t, 12, 0))
		assert.ErrorIs(t, err, schedule.ErrInvalidInterval)

		_, err = schedule.NewInterval(at(t, 13, 0), at(t, 12, 0))
		assert.ErrorIs(t, err, schedule.ErrInvalidInterval)

		got, err := schedule.NewInterval(at(t, 12, 0), at(t, 13, 0))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, got.Duration())
	})

	t.Run("overlap is strict and symmetric", func(t *testing.T) {
		cases := []struct {
			name string
			a, b schedule.Interval
			want bool
		}{
			{"partial overlap", iv(t, 10, 0, 12, 0), iv(t, 11, 0, 13, 0), true},
			{"containment", iv(t, 10, 0, 14, 0), iv(t, 11, 0, 12, 0), true},
			{"identical", iv(t, 10, 0, 12, 0), iv(t, 10, 0, 12, 0), true},
			{"adjacent never overlaps", iv(t, 10, 0, 12, 0), iv(t, 12, 0, 13, 0), false},
			{"disjoint", iv(t, 9, 0, 10, 0), iv(t, 11, 0, 12, 0), false},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
				assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
			})
		}
	})

	t.Run("overlap window is max of starts to min of ends", func(t *testing.T) {
		got := iv(t, 10, 0, 12, 0).Overlap(iv(t, 11, 0, 13, 0))
		assert.Equal(t, iv(t, 11, 0, 12, 0), got)
		assert.Equal(t, time.Hour, got.Duration())
	})

	t.Run("pad widens both sides", func(t *testing.T) {
		got := iv(t, 11, 0, 12, 0).Pad(30 * time.Minute)
		assert.Equal(t, iv(t, 10, 30, 12, 30), got)
	})

	t.Run("contains", func(t *testing.T) {
		outer := iv(t, 9, 0, 18, 0)
		assert.True(t, outer.Contains(iv(t, 9, 0, 18, 0)))
		assert.True(t, outer.Contains(iv(t, 10, 0, 11, 0)))
		assert.False(t, outer.Contains(iv(t, 8, 0, 10, 0)))
	})
}

func TestMergeIntervals(t *testing.T) {
	t.Run("coalesces overlapping and touching intervals", func(t *testing.T) {
		got := schedule.MergeIntervals([]schedule.Interval{
			iv(t, 14, 0, 15, 0),
			iv(t, 10, 0, 11, 0),
			iv(t, 11, 0, 12, 0), // touches the previous one
			iv(t, 10, 30, 11, 30),
		})
		want := []schedule.Interval{
			iv(t, 10, 0, 12, 0),
			iv(t, 14, 0, 15, 0),
		}
		assert.Empty(t, cmp.Diff(want, got))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, schedule.MergeIntervals(nil))
	})
}
