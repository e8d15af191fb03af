package repository

import (
	"context"

	"labbook/internal/domain/booking"
	"labbook/internal/infra"
	"labbook/internal/infra/db"

	"github.com/google/uuid"
)

type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(dbtx db.DBTX) *ReservationRepository {
	return &ReservationRepository{db: dbtx}
}

func (r *ReservationRepository) Create(ctx context.Context, res *booking.Reservation) (uuid.UUID, error) {
	const q = `
		INSERT INTO reservations
			(id, resource_id, owner_id, owner_role, title, starts_at, ends_at,
			 status, is_recurring, recurrence_rule, attendees, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, q,
		res.ID(), res.ResourceID(), res.OwnerID(), string(res.OwnerRole()),
		res.Title().String(), res.Slot().Start(), res.Slot().End(),
		string(res.Status()), res.IsRecurring(), res.RecurrenceRule(), res.AttendeeIDs(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create reservation", err)
	}
	return id, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status booking.Status) error {
	const q = `UPDATE reservations SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, id, string(status))
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *ReservationRepository) TagRecurring(ctx context.Context, id uuid.UUID, rule []byte) error {
	const q = `
		UPDATE reservations
		SET is_recurring = true, recurrence_rule = $2, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, id, rule)
	if err != nil {
		return infra.WrapRepoErr("failed to tag reservation as recurring", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return nil
}
