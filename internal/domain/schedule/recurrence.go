package schedule

import (
	"encoding/json"
	"errors"
	"sort"
	"time"
)

type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
	FreqYearly  Frequency = "yearly"
)

var (
	ErrInvalidFrequency    = errors.New("recurrence frequency must be daily, weekly, monthly or yearly")
	ErrInvalidRuleInterval = errors.New("recurrence interval must be at least 1")
	ErrInvalidCount        = errors.New("recurrence count must be at least 1")
	ErrRuleTerminator      = errors.New("exactly one of count or until must be set")
	ErrWeeklyNeedsWeekdays = errors.New("weekly recurrence requires at least one weekday")
	ErrInvalidMonthDay     = errors.New("recurrence month day must be between 1 and 31")
	ErrInvalidMonth        = errors.New("recurrence month must be between 1 and 12")
)

// Rule is a calendar recurrence in the RFC-5545 spirit, restricted to the
// combinations the booking flows need. A rule is either count-bounded or
// until-bounded, never both and never neither.
type Rule struct {
	Frequency  Frequency      `json:"frequency"`
	Interval   int            `json:"interval"`
	Count      *int           `json:"count,omitempty"`
	Until      *time.Time     `json:"until,omitempty"`
	ByWeekdays []time.Weekday `json:"by_weekdays,omitempty"`
	ByMonthDay *int           `json:"by_month_day,omitempty"`
	ByMonth    *int           `json:"by_month,omitempty"`
}

// NewRule validates eagerly: a rule that fails any check is rejected whole.
func NewRule(rule Rule) (Rule, error) {
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	sort.Slice(rule.ByWeekdays, func(i, j int) bool { return rule.ByWeekdays[i] < rule.ByWeekdays[j] })
	return rule, nil
}

func (r Rule) Validate() error {
	switch r.Frequency {
	case FreqDaily, FreqWeekly, FreqMonthly, FreqYearly:
	default:
		return ErrInvalidFrequency
	}
	if r.Interval < 1 {
		return ErrInvalidRuleInterval
	}
	if (r.Count == nil) == (r.Until == nil) {
		return ErrRuleTerminator
	}
	if r.Count != nil && *r.Count < 1 {
		return ErrInvalidCount
	}
	if r.Frequency == FreqWeekly && len(r.ByWeekdays) == 0 {
		return ErrWeeklyNeedsWeekdays
	}
	if r.ByMonthDay != nil && (*r.ByMonthDay < 1 || *r.ByMonthDay > 31) {
		return ErrInvalidMonthDay
	}
	if r.ByMonth != nil && (*r.ByMonth < 1 || *r.ByMonth > 12) {
		return ErrInvalidMonth
	}
	return nil
}

// Encode produces the canonical serialized form used as series identity.
// Weekdays are sorted by NewRule, so equal rules encode identically.
func (r Rule) Encode() ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRule(data []byte) (Rule, error) {
	var r Rule
	if err := json.Unmarshal(data, &r); err != nil {
		return Rule{}, err
	}
	return NewRule(r)
}

// Occurrences expands the rule into concrete start instants anchored at base.
// The anchor itself is included when it matches the pattern. When the rule is
// count-bounded, generation is additionally capped at now + maxAdvanceDays so
// no invocation walks an unbounded calendar. The expansion is deterministic
// for a fixed (rule, base, now).
func (r Rule) Occurrences(base time.Time, now time.Time, maxAdvanceDays int) []time.Time {
	horizon := now.AddDate(0, 0, maxAdvanceDays)
	if r.Until != nil && r.Until.Before(horizon) {
		horizon = *r.Until
	}

	var out []time.Time
	emit := func(t time.Time) bool {
		if t.After(horizon) {
			return false
		}
		out = append(out, t)
		return r.Count == nil || len(out) < *r.Count
	}

	switch r.Frequency {
	case FreqDaily:
		for t := base; ; t = addDaysWallClock(t, r.Interval) {
			if t.After(horizon) {
				break
			}
			if !emit(t) {
				break
			}
		}
	case FreqWeekly:
		r.expandWeekly(base, horizon, emit)
	case FreqMonthly:
		r.expandMonthly(base, horizon, emit)
	case FreqYearly:
		r.expandYearly(base, horizon, emit)
	}
	return out
}

func (r Rule) expandWeekly(base, horizon time.Time, emit func(time.Time) bool) {
	wanted := make(map[time.Weekday]struct{}, len(r.ByWeekdays))
	for _, wd := range r.ByWeekdays {
		wanted[wd] = struct{}{}
	}

	baseWeek := startOfWeek(base)
	for t := base; !t.After(horizon); t = addDaysWallClock(t, 1) {
		if _, ok := wanted[t.Weekday()]; !ok {
			continue
		}
		weeks := daysBetween(baseWeek, startOfWeek(t)) / 7
		if weeks%r.Interval != 0 {
			continue
		}
		if !emit(t) {
			return
		}
	}
}

func (r Rule) expandMonthly(base, horizon time.Time, emit func(time.Time) bool) {
	day := base.Day()
	if r.ByMonthDay != nil {
		day = *r.ByMonthDay
	}
	hour, minute, sec := base.Clock()

	year, month, _ := base.Date()
	for i := 0; ; i += r.Interval {
		y, m := addMonths(year, month, i)
		t := time.Date(y, m, day, hour, minute, sec, 0, base.Location())
		// Months without the requested day (e.g. Feb 31) are skipped.
		if t.Day() != day || t.Month() != m {
			if t.After(horizon) {
				return
			}
			continue
		}
		if t.Before(base) {
			continue
		}
		if t.After(horizon) {
			return
		}
		if !emit(t) {
			return
		}
	}
}

func (r Rule) expandYearly(base, horizon time.Time, emit func(time.Time) bool) {
	month := base.Month()
	if r.ByMonth != nil {
		month = time.Month(*r.ByMonth)
	}
	day := base.Day()
	if r.ByMonthDay != nil {
		day = *r.ByMonthDay
	}
	hour, minute, sec := base.Clock()

	for year := base.Year(); ; year += r.Interval {
		t := time.Date(year, month, day, hour, minute, sec, 0, base.Location())
		if t.Day() != day || t.Month() != month {
			// Feb 29 in a non-leap year and similar.
			if t.After(horizon) {
				return
			}
			continue
		}
		if t.Before(base) {
			continue
		}
		if t.After(horizon) {
			return
		}
		if !emit(t) {
			return
		}
	}
}

// addDaysWallClock advances by whole calendar days keeping the wall-clock
// time, so occurrences stay at the base's local time across DST changes.
func addDaysWallClock(t time.Time, days int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	return time.Date(year, month, day+days, hour, minute, sec, 0, t.Location())
}

// startOfWeek returns midnight of the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	offset := (int(t.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

// daysBetween counts calendar days between two local midnights. Rounding
// absorbs the off-by-an-hour from DST transitions.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Round(24*time.Hour) / (24 * time.Hour))
}

func addMonths(year int, month time.Month, n int) (int, time.Month) {
	idx := int(month) - 1 + n
	return year + idx/12, time.Month(idx%12 + 1)
}
