package queries

import (
	"context"

	"labbook/internal/domain/booking"
	"labbook/internal/infra"
	"labbook/internal/pkg/errs"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrReservationNotFound = errs.New("reservation not found")

const defaultListLimit = 100

type ReservationQueries interface {
	ByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error)
	ByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]*booking.Reservation, error)
	// SeriesOf returns every member of the recurring series the reservation
	// belongs to, the given one included, ordered by start time.
	SeriesOf(ctx context.Context, id uuid.UUID) ([]*booking.Reservation, error)
}

type reservationQueries struct {
	reads shared.StoreReads
}

func NewReservationQueries(reads shared.StoreReads) ReservationQueries {
	return &reservationQueries{reads: reads}
}

func (r *reservationQueries) ByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	res, err := r.reads.ReservationByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	return res, nil
}

func (r *reservationQueries) ByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]*booking.Reservation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	list, err := r.reads.ReservationsByOwner(ctx, ownerID, limit)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	return list, nil
}

func (r *reservationQueries) SeriesOf(ctx context.Context, id uuid.UUID) ([]*booking.Reservation, error) {
	res, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.IsRecurring() || len(res.RecurrenceRule()) == 0 {
		return []*booking.Reservation{res}, nil
	}
	series, err := r.reads.Series(ctx, res.ResourceID(), res.OwnerID(), res.RecurrenceRule())
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	return series, nil
}
