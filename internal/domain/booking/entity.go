package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotCancellable    = errors.New("reservation is not cancellable in its current state")
	ErrAlreadyCancelled  = errors.New("reservation is already cancelled")
	ErrInvalidStatus     = errors.New("invalid reservation status")
	ErrNotOwner          = errors.New("reservation is owned by another user")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Reservation struct {
	id             uuid.UUID
	resourceID     uuid.UUID
	ownerID        uuid.UUID
	ownerRole      Role
	title          Title
	slot           TimeSlot
	status         Status
	isRecurring    bool
	recurrenceRule []byte
	attendeeIDs    []uuid.UUID
	createdAt      time.Time
	updatedAt      time.Time
}

// NewReservation builds a reservation in its initial state. Conflict checking
// is not done here; callers must verify the slot against the interval store
// inside the same transaction that persists the reservation.
func NewReservation(
	resourceID, ownerID uuid.UUID,
	ownerRole Role,
	title Title,
	slot TimeSlot,
	status Status,
	attendeeIDs []uuid.UUID,
) (*Reservation, error) {
	if status != StatusPending && status != StatusConfirmed {
		return nil, ErrInvalidStatus
	}
	return &Reservation{
		id:          uuid.New(),
		resourceID:  resourceID,
		ownerID:     ownerID,
		ownerRole:   ownerRole,
		title:       title,
		slot:        slot,
		status:      status,
		attendeeIDs: attendeeIDs,
	}, nil
}

func ReconstructReservation(
	id, resourceID, ownerID uuid.UUID,
	ownerRole Role,
	title Title,
	slot TimeSlot,
	status Status,
	isRecurring bool,
	recurrenceRule []byte,
	attendeeIDs []uuid.UUID,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:             id,
		resourceID:     resourceID,
		ownerID:        ownerID,
		ownerRole:      ownerRole,
		title:          title,
		slot:           slot,
		status:         status,
		isRecurring:    isRecurring,
		recurrenceRule: recurrenceRule,
		attendeeIDs:    attendeeIDs,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// TagRecurring marks the reservation as a member of a recurring series.
// The serialized rule is the series identity together with resource and owner.
func (r *Reservation) TagRecurring(rule []byte) {
	r.isRecurring = true
	r.recurrenceRule = rule
}

// CanCancel reports whether a cancellation is allowed from the current state.
func (r *Reservation) CanCancel() bool {
	return r.status == StatusPending || r.status == StatusConfirmed
}

// Cancel transitions the reservation to cancelled. Cancelled and rejected
// are terminal, so a second cancel fails with a distinct error.
func (r *Reservation) Cancel() error {
	if r.status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !r.CanCancel() {
		return ErrNotCancellable
	}
	r.status = StatusCancelled
	return nil
}

func (r *Reservation) HasStarted(now time.Time) bool {
	return !now.Before(r.slot.Start())
}

func (r *Reservation) ID() uuid.UUID            { return r.id }
func (r *Reservation) ResourceID() uuid.UUID    { return r.resourceID }
func (r *Reservation) OwnerID() uuid.UUID       { return r.ownerID }
func (r *Reservation) OwnerRole() Role          { return r.ownerRole }
func (r *Reservation) Title() Title             { return r.title }
func (r *Reservation) Slot() TimeSlot           { return r.slot }
func (r *Reservation) Status() Status           { return r.status }
func (r *Reservation) IsRecurring() bool        { return r.isRecurring }
func (r *Reservation) RecurrenceRule() []byte   { return r.recurrenceRule }
func (r *Reservation) AttendeeIDs() []uuid.UUID { return r.attendeeIDs }
func (r *Reservation) CreatedAt() time.Time     { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time     { return r.updatedAt }
