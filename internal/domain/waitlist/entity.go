package waitlist

import (
	"errors"
	"sort"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusNotified  Status = "notified"
	StatusFulfilled Status = "fulfilled"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Priority is ordinal: lower values are served first.
type Priority int

const (
	PriorityUrgent Priority = 1
	PriorityHigh   Priority = 2
	PriorityNormal Priority = 5
	PriorityLow    Priority = 8
)

var (
	ErrInvalidDesiredWindow = errors.New("desired start must be before desired end")
	ErrInvalidMinDuration   = errors.New("minimum duration must be positive")
	ErrNotActive            = errors.New("waiting list entry is not active")
	ErrNotCancellable       = errors.New("waiting list entry cannot be cancelled in its current state")
)

// Options are the tunable parts of an enrollment; zero values fall back to
// the platform defaults at construction.
type Options struct {
	FlexibleStart    bool
	FlexibleDuration bool
	MinDuration      time.Duration
	MaxWaitDays      int
	Priority         Priority
	AutoBook         bool
}

// Defaults are injected from configuration; the engine never hardcodes them.
type Defaults struct {
	MinDuration time.Duration
	MaxWaitDays int
	Priority    Priority
}

type Entry struct {
	id               uuid.UUID
	userID           uuid.UUID
	userRole         booking.Role
	resourceID       uuid.UUID
	desired          schedule.Interval
	flexibleStart    bool
	flexibleDuration bool
	minDuration      time.Duration
	maxWaitDays      int
	priority         Priority
	autoBook         bool
	status           Status
	timesNotified    int
	expiresAt        time.Time
	createdAt        time.Time
}

// NewEntry creates an active entry. Unset options take the platform
// defaults. Expiry is the earlier of now+maxWaitDays and the end of the
// desired window: once the desired window has passed the request is moot.
// The enrolling user's role is carried so a later auto-book keeps it.
func NewEntry(userID uuid.UUID, userRole booking.Role, resourceID uuid.UUID, desired schedule.Interval, opts Options, defaults Defaults, now time.Time) (*Entry, error) {
	if !desired.Start.Before(desired.End) {
		return nil, ErrInvalidDesiredWindow
	}

	minDuration := opts.MinDuration
	if minDuration == 0 {
		minDuration = defaults.MinDuration
	}
	if minDuration <= 0 {
		return nil, ErrInvalidMinDuration
	}
	maxWaitDays := opts.MaxWaitDays
	if maxWaitDays == 0 {
		maxWaitDays = defaults.MaxWaitDays
	}
	priority := opts.Priority
	if priority == 0 {
		priority = defaults.Priority
	}

	expiresAt := now.AddDate(0, 0, maxWaitDays)
	if desired.End.Before(expiresAt) {
		expiresAt = desired.End
	}

	return &Entry{
		id:               uuid.New(),
		userID:           userID,
		userRole:         userRole,
		resourceID:       resourceID,
		desired:          desired,
		flexibleStart:    opts.FlexibleStart,
		flexibleDuration: opts.FlexibleDuration,
		minDuration:      minDuration,
		maxWaitDays:      maxWaitDays,
		priority:         priority,
		autoBook:         opts.AutoBook,
		status:           StatusActive,
		expiresAt:        expiresAt,
		createdAt:        now,
	}, nil
}

func ReconstructEntry(
	id, userID uuid.UUID,
	userRole booking.Role,
	resourceID uuid.UUID,
	desired schedule.Interval,
	flexibleStart, flexibleDuration bool,
	minDuration time.Duration,
	maxWaitDays int,
	priority Priority,
	autoBook bool,
	status Status,
	timesNotified int,
	expiresAt, createdAt time.Time,
) *Entry {
	return &Entry{
		id:               id,
		userID:           userID,
		userRole:         userRole,
		resourceID:       resourceID,
		desired:          desired,
		flexibleStart:    flexibleStart,
		flexibleDuration: flexibleDuration,
		minDuration:      minDuration,
		maxWaitDays:      maxWaitDays,
		priority:         priority,
		autoBook:         autoBook,
		status:           status,
		timesNotified:    timesNotified,
		expiresAt:        expiresAt,
		createdAt:        createdAt,
	}
}

// Matches reports whether a free gap satisfies this entry. Flexible-start
// entries accept any gap at least their minimum duration long; fixed entries
// need the gap to contain the exact desired window.
func (e *Entry) Matches(gap schedule.Interval) bool {
	if e.flexibleStart {
		return gap.Duration() >= e.minDuration
	}
	return gap.Contains(e.desired)
}

// SlotWithin picks the concrete slot to book or offer inside a matching gap.
// Flexible entries take the gap's front edge; fixed entries take their
// desired window.
func (e *Entry) SlotWithin(gap schedule.Interval) schedule.Interval {
	if !e.flexibleStart {
		return e.desired
	}
	length := e.desired.Duration()
	if e.flexibleDuration || length < e.minDuration {
		length = e.minDuration
	}
	if length > gap.Duration() {
		length = gap.Duration()
	}
	return schedule.Interval{Start: gap.Start, End: gap.Start.Add(length)}
}

func (e *Entry) IsExpired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

func (e *Entry) MarkNotified() error {
	if e.status != StatusActive {
		return ErrNotActive
	}
	e.status = StatusNotified
	e.timesNotified++
	return nil
}

// Reactivate puts a notified entry back on the list after a declined offer.
func (e *Entry) Reactivate() {
	if e.status == StatusNotified {
		e.status = StatusActive
	}
}

func (e *Entry) MarkFulfilled() {
	e.status = StatusFulfilled
}

func (e *Entry) Expire() {
	e.status = StatusExpired
}

func (e *Entry) Cancel() error {
	if e.status != StatusActive && e.status != StatusNotified {
		return ErrNotCancellable
	}
	e.status = StatusCancelled
	return nil
}

func (e *Entry) ID() uuid.UUID               { return e.id }
func (e *Entry) UserID() uuid.UUID           { return e.userID }
func (e *Entry) UserRole() booking.Role      { return e.userRole }
func (e *Entry) ResourceID() uuid.UUID       { return e.resourceID }
func (e *Entry) Desired() schedule.Interval  { return e.desired }
func (e *Entry) FlexibleStart() bool         { return e.flexibleStart }
func (e *Entry) FlexibleDuration() bool      { return e.flexibleDuration }
func (e *Entry) MinDuration() time.Duration  { return e.minDuration }
func (e *Entry) MaxWaitDays() int            { return e.maxWaitDays }
func (e *Entry) Priority() Priority          { return e.priority }
func (e *Entry) AutoBook() bool              { return e.autoBook }
func (e *Entry) Status() Status              { return e.status }
func (e *Entry) TimesNotified() int          { return e.timesNotified }
func (e *Entry) ExpiresAt() time.Time        { return e.expiresAt }
func (e *Entry) CreatedAt() time.Time        { return e.createdAt }

// SortForProcessing orders entries the way the sweep serves them: priority
// ascending, then creation time ascending within a tier.
func SortForProcessing(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].createdAt.Before(entries[j].createdAt)
	})
}
