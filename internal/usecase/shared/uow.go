package shared

import (
	"context"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/domain/waitlist"

	"github.com/google/uuid"
)

// UnitOfWork is the transactional boundary around the interval store. Every
// path that checks conflicts and then writes a reservation must take the
// resource lock, re-read overlaps, and insert inside one Within call, so two
// concurrent requests cannot both observe "no conflict" and insert
// overlapping rows.
type UnitOfWork interface {
	// Within runs fn in a read-committed transaction with retry on
	// serialization failures.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads exposes non-transactional reads for queries and pre-validation.
	Reads() StoreReads
}

type Tx interface {
	// LockResource serializes writers on one resource for the remainder of
	// the transaction. It must be taken before any conflict check whose
	// outcome gates an insert.
	LockResource(ctx context.Context, resourceID uuid.UUID) error
	Reservations() ReservationRepository
	Waitlist() WaitlistRepository
	Offers() OfferRepository
	Reads() StoreReads
}

// StoreReads is the explicit query contract over persisted reservations,
// maintenance windows, resources and waiting-list state. The domain logic is
// storage-agnostic; tests implement this with in-memory fakes.
type StoreReads interface {
	// ReservationSpans returns reservations for the resource in the given
	// states whose interval strictly overlaps the range.
	ReservationSpans(ctx context.Context, resourceID uuid.UUID, overlapping schedule.Interval, statuses []booking.Status) ([]schedule.ReservationSpan, error)
	// MaintenanceSpans returns maintenance windows overlapping the range;
	// blockingOnly restricts to windows that block booking.
	MaintenanceSpans(ctx context.Context, resourceID uuid.UUID, overlapping schedule.Interval, blockingOnly bool) ([]schedule.MaintenanceSpan, error)

	ReservationByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error)
	ReservationsByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]*booking.Reservation, error)
	// Series returns every reservation sharing the (resource, owner, rule)
	// identity, ordered by start.
	Series(ctx context.Context, resourceID, ownerID uuid.UUID, rule []byte) ([]*booking.Reservation, error)

	ResourceByID(ctx context.Context, id uuid.UUID) (*ResourceSnapshot, error)
	ResourcesByType(ctx context.Context, resourceType string, activeOnly bool) ([]ResourceSnapshot, error)

	// ActiveEntries returns non-terminal waiting-list entries for a resource
	// ordered by priority ascending then creation time ascending.
	ActiveEntries(ctx context.Context, resourceID uuid.UUID) ([]*waitlist.Entry, error)
	EntriesByUser(ctx context.Context, userID uuid.UUID) ([]*waitlist.Entry, error)
	EntryByID(ctx context.Context, id uuid.UUID) (*waitlist.Entry, error)
	HasActiveEntry(ctx context.Context, userID, resourceID uuid.UUID, desiredStart time.Time) (bool, error)
	OfferByID(ctx context.Context, id uuid.UUID) (*waitlist.Offer, error)
	ResourceIDsWithActiveEntries(ctx context.Context) ([]uuid.UUID, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, res *booking.Reservation) (uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status) error
	TagRecurring(ctx context.Context, id uuid.UUID, rule []byte) error
}

type WaitlistRepository interface {
	Create(ctx context.Context, entry *waitlist.Entry) (uuid.UUID, error)
	SetStatus(ctx context.Context, id uuid.UUID, status waitlist.Status) error
	// MarkNotified sets the entry to notified and bumps its counter.
	MarkNotified(ctx context.Context, id uuid.UUID) error
	// ExpireOverdue bulk-transitions active entries past expiry; returns the
	// number of rows affected.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type OfferRepository interface {
	Create(ctx context.Context, offer *waitlist.Offer) (uuid.UUID, error)
	// Resolve conditionally transitions a pending, unexpired offer to
	// accepted or declined. Returns false when the offer was already
	// handled or has expired, making responses idempotent at the store.
	Resolve(ctx context.Context, id uuid.UUID, accept bool, now time.Time) (bool, error)
}

type ResourceSnapshot struct {
	ID               uuid.UUID
	Name             string
	ResourceType     string
	Capacity         int
	IsActive         bool
	RequiredTraining *string
}
