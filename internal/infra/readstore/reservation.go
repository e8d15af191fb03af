package readstore

import (
	"context"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/infra"
	"labbook/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const reservationColumns = `
	id, resource_id, owner_id, owner_role, title, starts_at, ends_at,
	status, is_recurring, recurrence_rule, attendees, created_at, updated_at`

type ReservationReadStore struct {
	db db.DBTX
}

func NewReservationReadStore(dbtx db.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: dbtx}
}

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	const q = `SELECT` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}
	return res, nil
}

func (r *ReservationReadStore) FindByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]*booking.Reservation, error) {
	const q = `SELECT` + reservationColumns + `
		FROM reservations
		WHERE owner_id = $1
		ORDER BY starts_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, q, ownerID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find reservations by owner", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

// FindSeries returns the members of one recurring series: same resource, same
// owner, identical canonical rule, ordered by start.
func (r *ReservationReadStore) FindSeries(ctx context.Context, resourceID, ownerID uuid.UUID, rule []byte) ([]*booking.Reservation, error) {
	const q = `SELECT` + reservationColumns + `
		FROM reservations
		WHERE resource_id = $1 AND owner_id = $2
		  AND is_recurring AND recurrence_rule = $3
		ORDER BY starts_at`

	rows, err := r.db.Query(ctx, q, resourceID, ownerID, rule)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find reservation series", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]*booking.Reservation, error) {
	var out []*booking.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reservations", err)
	}
	return out, nil
}

func scanReservation(row pgx.Row) (*booking.Reservation, error) {
	var (
		id, resourceID, ownerID uuid.UUID
		ownerRole, title        string
		startsAt, endsAt        time.Time
		status                  string
		isRecurring             bool
		recurrenceRule          []byte
		attendees               []uuid.UUID
		createdAt, updatedAt    time.Time
	)
	err := row.Scan(
		&id, &resourceID, &ownerID, &ownerRole, &title, &startsAt, &endsAt,
		&status, &isRecurring, &recurrenceRule, &attendees, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot, err := booking.NewTimeSlot(startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	return booking.ReconstructReservation(
		id, resourceID, ownerID,
		booking.Role(ownerRole), booking.NewTitle(title), slot,
		booking.Status(status), isRecurring, recurrenceRule, attendees,
		createdAt, updatedAt,
	), nil
}
