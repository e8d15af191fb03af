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
	ErrInvalidRule    = errs.New("invalid recurrence rule")
	ErrNotRecurring   = errs.New("reservation is not part of a recurring series")
	ErrSeriesConflict = errs.New("recurring series conflicts with existing bookings")

	errSeriesAborted = errs.New("series materialization aborted")
)

// OccurrenceConflicts ties a generated instant to the conflicts found there.
type OccurrenceConflicts struct {
	Instant   time.Time
	Conflicts []schedule.Conflict
}

// MaterializeSeriesResult reports the outcome completely: what was created,
// which instants were skipped, and the conflicts behind each skip.
type MaterializeSeriesResult struct {
	Created   []*booking.Reservation
	Skipped   []time.Time
	Conflicts []OccurrenceConflicts
}

type MaterializeSeriesParams struct {
	ReservationID uuid.UUID
	RequesterID   uuid.UUID
	RequesterRole booking.Role
	Rule          schedule.Rule
	SkipConflicts bool
}

type RecurrenceCommands interface {
	// MaterializeSeries expands the rule anchored at the base reservation and
	// persists one reservation per conflict-free occurrence. Without
	// SkipConflicts the operation is all-or-nothing: a single conflicting
	// occurrence rolls back every write and the result reports it.
	MaterializeSeries(ctx context.Context, params MaterializeSeriesParams) (*MaterializeSeriesResult, error)
	// CancelSeries cancels every cancellable member of the series the given
	// reservation belongs to, optionally only those that have not started.
	CancelSeries(ctx context.Context, reservationID, requesterID uuid.UUID, requesterRole booking.Role, futureOnly bool) (int, error)
}

type recurrenceCommands struct {
	uow      shared.UnitOfWork
	notifier shared.Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
	cfg      config.BookingConfig
}

func NewRecurrenceCommands(
	uow shared.UnitOfWork,
	notifier shared.Notifier,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg config.BookingConfig,
) RecurrenceCommands {
	return &recurrenceCommands{
		uow:      uow,
		notifier: notifier,
		metrics:  m,
		clock:    clk,
		cfg:      cfg,
	}
}

func (r *recurrenceCommands) MaterializeSeries(ctx context.Context, params MaterializeSeriesParams) (*MaterializeSeriesResult, error) {
	rule, err := schedule.NewRule(params.Rule)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidRule)
	}
	encoded, err := rule.Encode()
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidRule)
	}

	now := r.clock.Now()
	result := &MaterializeSeriesResult{}

	err = r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// The unit of work may retry fn; start each attempt clean.
		result.Created, result.Skipped, result.Conflicts = nil, nil, nil

		base, err := tx.Reads().ReservationByID(ctx, params.ReservationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return errs.Mark(err, ErrStorageFailure)
		}
		if base.OwnerID() != params.RequesterID && !params.RequesterRole.Privileged() {
			return ErrNotOwner
		}

		if err := tx.LockResource(ctx, base.ResourceID()); err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}

		duration := base.Slot().Duration()
		occurrences := rule.Occurrences(base.Slot().Start(), now, r.cfg.RecurrenceHorizonDays)

		for _, instant := range occurrences {
			if instant.Equal(base.Slot().Start()) {
				continue
			}
			candidate := schedule.Interval{Start: instant, End: instant.Add(duration)}

			conflicts, err := checkConflicts(ctx, tx.Reads(), base.ResourceID(), candidate, nil)
			if err != nil {
				return errs.Mark(err, ErrStorageFailure)
			}
			if len(conflicts) > 0 {
				result.Conflicts = append(result.Conflicts, OccurrenceConflicts{Instant: instant, Conflicts: conflicts})
				if !params.SkipConflicts {
					// First conflicting instant fails the whole operation.
					return errSeriesAborted
				}
				result.Skipped = append(result.Skipped, instant)
				continue
			}

			slot, err := booking.NewTimeSlot(candidate.Start, candidate.End)
			if err != nil {
				return errs.Mark(err, ErrInvalidTimeSlot)
			}
			occurrence, err := booking.NewReservation(
				base.ResourceID(), base.OwnerID(), base.OwnerRole(),
				base.Title(), slot, base.Status(), base.AttendeeIDs(),
			)
			if err != nil {
				return errs.Mark(err, ErrStorageFailure)
			}
			occurrence.TagRecurring(encoded)

			if _, err := tx.Reservations().Create(ctx, occurrence); err != nil {
				return errs.Mark(err, ErrStorageFailure)
			}
			result.Created = append(result.Created, occurrence)
		}

		return tx.Reservations().TagRecurring(ctx, base.ID(), encoded)
	})
	if err != nil {
		if errors.Is(err, errSeriesAborted) {
			result.Created = nil
			result.Skipped = nil
			return result, ErrSeriesConflict
		}
		return nil, err
	}

	r.metrics.SeriesMaterialized.Inc()
	r.notify(ctx, params.RequesterID, "series_materialized", map[string]any{
		"reservation_id": params.ReservationID,
		"created":        len(result.Created),
		"skipped":        len(result.Skipped),
	})
	return result, nil
}

func (r *recurrenceCommands) CancelSeries(ctx context.Context, reservationID, requesterID uuid.UUID, requesterRole booking.Role, futureOnly bool) (int, error) {
	now := r.clock.Now()
	cancelled := 0
	var ownerID uuid.UUID

	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		cancelled = 0
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
		if !res.IsRecurring() || len(res.RecurrenceRule()) == 0 {
			return ErrNotRecurring
		}
		ownerID = res.OwnerID()

		series, err := tx.Reads().Series(ctx, res.ResourceID(), res.OwnerID(), res.RecurrenceRule())
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		for _, member := range series {
			if futureOnly && member.HasStarted(now) {
				continue
			}
			if !member.CanCancel() {
				continue
			}
			if err := tx.Reservations().UpdateStatus(ctx, member.ID(), booking.StatusCancelled); err != nil {
				return errs.Mark(err, ErrStorageFailure)
			}
			cancelled++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.notify(ctx, ownerID, "series_cancelled", map[string]any{
		"reservation_id": reservationID,
		"cancelled":      cancelled,
	})
	return cancelled, nil
}

func (r *recurrenceCommands) notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) {
	if err := r.notifier.Notify(ctx, userID, kind, payload); err != nil {
		slog.Warn("notification failed", "kind", kind, "user_id", userID, "error", err)
	}
}
