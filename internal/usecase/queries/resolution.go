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

// ResolvedPair couples one conflicting pair with its resolution and the slots
// the displaced side could move to.
type ResolvedPair struct {
	Pair        schedule.ReservationPair
	Resolution  schedule.Resolution
	Suggestions []schedule.Interval
}

// BulkResolutionReport is advisory: nothing is moved, the caller decides what
// to apply. Auto counts pairs with a clear score winner; Manual counts ties
// broken only by the deterministic ID rule.
type BulkResolutionReport struct {
	Pairs  []ResolvedPair
	Auto   int
	Manual int
}

type ResolutionQueries interface {
	// RangeConflicts runs the pairwise scan over every blocking reservation of
	// one resource within the range.
	RangeConflicts(ctx context.Context, resourceID uuid.UUID, within schedule.Interval) ([]schedule.ReservationPair, error)
	// BulkResolve scores each conflicting pair in the range and proposes
	// alternative slots for the side marked for rescheduling.
	BulkResolve(ctx context.Context, resourceID uuid.UUID, within schedule.Interval) (*BulkResolutionReport, error)
}

type resolutionQueries struct {
	reads shared.StoreReads
	clock clock.Clock
	cfg   config.BookingConfig
}

func NewResolutionQueries(reads shared.StoreReads, clk clock.Clock, cfg config.BookingConfig) ResolutionQueries {
	return &resolutionQueries{reads: reads, clock: clk, cfg: cfg}
}

func (r *resolutionQueries) RangeConflicts(ctx context.Context, resourceID uuid.UUID, within schedule.Interval) ([]schedule.ReservationPair, error) {
	spans, err := r.rangeSpans(ctx, resourceID, within)
	if err != nil {
		return nil, err
	}
	return schedule.FindConflictsInRange(spans, nil), nil
}

func (r *resolutionQueries) BulkResolve(ctx context.Context, resourceID uuid.UUID, within schedule.Interval) (*BulkResolutionReport, error) {
	spans, err := r.rangeSpans(ctx, resourceID, within)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	policy := shared.PolicyFrom(r.cfg)
	report := &BulkResolutionReport{}

	for _, pair := range schedule.FindConflictsInRange(spans, nil) {
		resolution := schedule.AutoResolve(pair, now)
		if resolution.KeepScore == resolution.RescheduleScore {
			report.Manual++
		} else {
			report.Auto++
		}

		// Propose slots for the displaced reservation around the kept one.
		displaced := resolution.Reschedule.Interval
		conflict := schedule.Conflict{
			Kind:     schedule.ConflictWithReservation,
			WithID:   resolution.Keep.ID,
			Overlap:  pair.Overlap,
			Blocking: resolution.Keep.Interval,
		}
		report.Pairs = append(report.Pairs, ResolvedPair{
			Pair:        pair,
			Resolution:  resolution,
			Suggestions: schedule.SuggestAlternativeTimes(displaced.Duration(), []schedule.Conflict{conflict}, now, policy),
		})
	}
	return report, nil
}

func (r *resolutionQueries) rangeSpans(ctx context.Context, resourceID uuid.UUID, within schedule.Interval) ([]schedule.ReservationSpan, error) {
	if !within.Start.Before(within.End) {
		return nil, ErrInvalidRange
	}
	if _, err := r.reads.ResourceByID(ctx, resourceID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	spans, err := r.reads.ReservationSpans(ctx, resourceID, within, booking.BlockingStatuses())
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	return spans, nil
}
