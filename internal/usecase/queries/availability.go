package queries

import (
	"context"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/infra"
	"labbook/internal/pkg/clock"
	"labbook/internal/pkg/config"
	"labbook/internal/pkg/errs"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrResourceNotFound = errs.New("resource not found")
	ErrInvalidRange     = errs.New("invalid time range")
	ErrStorageFailure   = errs.New("storage operation failed")
)

type AvailabilityQueries interface {
	// FreeGaps returns the bookable free intervals for a resource over the
	// configured horizon, respecting working hours and the minimum gap size.
	FreeGaps(ctx context.Context, resourceID uuid.UUID) ([]schedule.Interval, error)
	// CheckSlot reports the conflicts a hypothetical booking would hit without
	// creating anything. An empty result means the slot is free right now.
	CheckSlot(ctx context.Context, resourceID uuid.UUID, candidate schedule.Interval) ([]schedule.Conflict, error)
}

type availabilityQueries struct {
	reads shared.StoreReads
	clock clock.Clock
	cfg   config.BookingConfig
}

func NewAvailabilityQueries(reads shared.StoreReads, clk clock.Clock, cfg config.BookingConfig) AvailabilityQueries {
	return &availabilityQueries{reads: reads, clock: clk, cfg: cfg}
}

func (a *availabilityQueries) FreeGaps(ctx context.Context, resourceID uuid.UUID) ([]schedule.Interval, error) {
	if _, err := a.reads.ResourceByID(ctx, resourceID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	now := a.clock.Now()
	horizon := schedule.Interval{Start: now, End: now.AddDate(0, 0, a.cfg.GapHorizonDays)}

	spans, err := a.reads.ReservationSpans(ctx, resourceID, horizon, booking.BlockingStatuses())
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	windows, err := a.reads.MaintenanceSpans(ctx, resourceID, horizon, true)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	blocked := schedule.BlockedIntervals(spans, windows)
	return schedule.FreeGaps(blocked, now, a.cfg.GapHorizonDays, shared.PolicyFrom(a.cfg)), nil
}

func (a *availabilityQueries) CheckSlot(ctx context.Context, resourceID uuid.UUID, candidate schedule.Interval) ([]schedule.Conflict, error) {
	if !candidate.Start.Before(candidate.End) {
		return nil, ErrInvalidRange
	}
	if _, err := a.reads.ResourceByID(ctx, resourceID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	spans, err := a.reads.ReservationSpans(ctx, resourceID, candidate, booking.BlockingStatuses())
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	windows, err := a.reads.MaintenanceSpans(ctx, resourceID, candidate, true)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	conflicts := schedule.FindReservationConflicts(candidate, spans, nil)
	return append(conflicts, schedule.FindMaintenanceConflicts(candidate, windows)...), nil
}
