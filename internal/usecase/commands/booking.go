package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/infra"
	"labbook/internal/infra/metrics"
	"labbook/internal/pkg/clock"
	"labbook/internal/pkg/config"
	"labbook/internal/pkg/errs"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrResourceNotFound    = errs.New("resource not found")
	ErrResourceUnavailable = errs.New("resource not available for this user")
	ErrInvalidTimeSlot     = errs.New("invalid time slot")
	ErrReservationNotFound = errs.New("reservation not found")
	ErrNotOwner            = errs.New("reservation belongs to another user")
	ErrNotCancellable      = errs.New("reservation cannot be cancelled in its current state")
	ErrAlreadyCancelled    = errs.New("reservation is already cancelled")
	ErrStorageFailure      = errs.New("storage operation failed")

	// errConflictDetected aborts the booking transaction when the in-tx
	// recheck finds overlaps. It never leaves this package: the caller
	// translates it into a conflicted result.
	errConflictDetected = errs.New("conflict detected")
)

type CreateReservationParams struct {
	ResourceID uuid.UUID
	OwnerID    uuid.UUID
	OwnerRole  booking.Role
	Title      string
	Start      time.Time
	End        time.Time
	Attendees  []uuid.UUID
}

// Alternatives accompany a conflicted result: other times on the same
// resource and other resources at the same time.
type Alternatives struct {
	Times     []schedule.Interval
	Resources []shared.ResourceSnapshot
}

// CreateReservationResult is either a created reservation or the conflicts
// that prevented one. A detected conflict is the expected common-path
// outcome, not an error.
type CreateReservationResult struct {
	Reservation  *booking.Reservation
	Conflicts    []schedule.Conflict
	Alternatives *Alternatives
}

func (r *CreateReservationResult) Conflicted() bool {
	return len(r.Conflicts) > 0
}

type BookingCommands interface {
	Create(ctx context.Context, params CreateReservationParams) (*CreateReservationResult, error)
	Cancel(ctx context.Context, reservationID, requesterID uuid.UUID, requesterRole booking.Role) error
}

type bookingCommands struct {
	uow      shared.UnitOfWork
	policy   shared.AccessPolicy
	notifier shared.Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
	cfg      config.BookingConfig
}

func NewBookingCommands(
	uow shared.UnitOfWork,
	policy shared.AccessPolicy,
	notifier shared.Notifier,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg config.BookingConfig,
) BookingCommands {
	return &bookingCommands{
		uow:      uow,
		policy:   policy,
		notifier: notifier,
		metrics:  m,
		clock:    clk,
		cfg:      cfg,
	}
}

func (b *bookingCommands) Create(ctx context.Context, params CreateReservationParams) (*CreateReservationResult, error) {
	slot, err := booking.NewTimeSlot(params.Start, params.End)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidTimeSlot)
	}

	resource, err := b.uow.Reads().ResourceByID(ctx, params.ResourceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	if !resource.IsActive {
		return nil, ErrResourceUnavailable
	}

	allowed, err := b.policy.IsAvailableForUser(ctx, params.ResourceID, params.OwnerID)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	if !allowed {
		return nil, ErrResourceUnavailable
	}

	// Privileged roles book confirmed directly; everyone else waits for
	// approval. Both states block the slot either way.
	status := booking.StatusPending
	if params.OwnerRole.Privileged() {
		status = booking.StatusConfirmed
	}

	entity, err := booking.NewReservation(
		params.ResourceID, params.OwnerID, params.OwnerRole,
		booking.NewTitle(params.Title), slot, status, params.Attendees,
	)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidTimeSlot)
	}

	candidate := schedule.Interval{Start: slot.Start(), End: slot.End()}
	var conflicts []schedule.Conflict

	err = b.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// Serialize writers on this resource so the recheck below cannot race
		// another insert committing between check and write.
		if lockErr := tx.LockResource(ctx, params.ResourceID); lockErr != nil {
			return errs.Mark(lockErr, ErrStorageFailure)
		}
		found, checkErr := checkConflicts(ctx, tx.Reads(), params.ResourceID, candidate, nil)
		if checkErr != nil {
			return checkErr
		}
		if len(found) > 0 {
			conflicts = found
			return errConflictDetected
		}
		_, createErr := tx.Reservations().Create(ctx, entity)
		return createErr
	})
	if err != nil {
		if errors.Is(err, errConflictDetected) {
			b.metrics.BookingConflicts.Inc()
			alts, altErr := b.alternatives(ctx, params, candidate, conflicts)
			if altErr != nil {
				slog.Warn("failed to compute alternatives", "error", altErr)
			}
			return &CreateReservationResult{Conflicts: conflicts, Alternatives: alts}, nil
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	b.metrics.BookingsCreated.Inc()
	b.notify(ctx, params.OwnerID, "reservation_created", map[string]any{
		"reservation_id": entity.ID(),
		"resource_id":    params.ResourceID,
		"start":          slot.Start(),
		"end":            slot.End(),
		"status":         string(entity.Status()),
	})

	return &CreateReservationResult{Reservation: entity}, nil
}

func (b *bookingCommands) Cancel(ctx context.Context, reservationID, requesterID uuid.UUID, requesterRole booking.Role) error {
	var ownerID uuid.UUID
	err := b.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		res, err := tx.Reads().ReservationByID(ctx, reservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return errs.Mark(err, ErrStorageFailure)
		}
		if res.OwnerID() != requesterID && !requesterRole.Privileged() {
			return ErrNotOwner
		}
		if err := res.Cancel(); err != nil {
			switch {
			case errors.Is(err, booking.ErrAlreadyCancelled):
				return errs.Mark(err, ErrAlreadyCancelled)
			default:
				return errs.Mark(err, ErrNotCancellable)
			}
		}
		ownerID = res.OwnerID()
		return tx.Reservations().UpdateStatus(ctx, reservationID, booking.StatusCancelled)
	})
	if err != nil {
		return err
	}

	b.notify(ctx, ownerID, "reservation_cancelled", map[string]any{
		"reservation_id": reservationID,
	})
	return nil
}

// alternatives proposes other slots on the same resource and conflict-free
// sibling resources of the same type.
func (b *bookingCommands) alternatives(ctx context.Context, params CreateReservationParams, candidate schedule.Interval, conflicts []schedule.Conflict) (*Alternatives, error) {
	now := b.clock.Now()
	policy := shared.PolicyFrom(b.cfg)

	alts := &Alternatives{
		Times: schedule.SuggestAlternativeTimes(candidate.Duration(), conflicts, now, policy),
	}

	resource, err := b.uow.Reads().ResourceByID(ctx, params.ResourceID)
	if err != nil {
		return alts, err
	}
	siblings, err := b.uow.Reads().ResourcesByType(ctx, resource.ResourceType, true)
	if err != nil {
		return alts, err
	}
	for _, sibling := range siblings {
		if sibling.ID == params.ResourceID {
			continue
		}
		allowed, err := b.policy.IsAvailableForUser(ctx, sibling.ID, params.OwnerID)
		if err != nil {
			return alts, err
		}
		if !allowed {
			continue
		}
		found, err := checkConflicts(ctx, b.uow.Reads(), sibling.ID, candidate, nil)
		if err != nil {
			return alts, err
		}
		if len(found) == 0 {
			alts.Resources = append(alts.Resources, sibling)
		}
	}
	return alts, nil
}

func (b *bookingCommands) notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) {
	if err := b.notifier.Notify(ctx, userID, kind, payload); err != nil {
		// Notification failures never roll back the primary operation.
		slog.Warn("notification failed", "kind", kind, "user_id", userID, "error", err)
	}
}

// checkConflicts runs the detector against both blocking reservation spans
// and blocking maintenance windows for the candidate interval.
func checkConflicts(ctx context.Context, reads shared.StoreReads, resourceID uuid.UUID, candidate schedule.Interval, excludeIDs []uuid.UUID) ([]schedule.Conflict, error) {
	spans, err := reads.ReservationSpans(ctx, resourceID, candidate, booking.BlockingStatuses())
	if err != nil {
		return nil, err
	}
	windows, err := reads.MaintenanceSpans(ctx, resourceID, candidate, true)
	if err != nil {
		return nil, err
	}
	conflicts := schedule.FindReservationConflicts(candidate, spans, excludeIDs)
	conflicts = append(conflicts, schedule.FindMaintenanceConflicts(candidate, windows)...)
	return conflicts, nil
}
