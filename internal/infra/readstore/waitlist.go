package readstore

import (
	"context"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/domain/waitlist"
	"labbook/internal/infra"
	"labbook/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const entryColumns = `
	id, user_id, user_role, resource_id, desired_start, desired_end,
	flexible_start, flexible_duration, min_duration_min, max_wait_days,
	priority, auto_book, status, times_notified, expires_at, created_at`

type WaitlistReadStore struct {
	db db.DBTX
}

func NewWaitlistReadStore(dbtx db.DBTX) *WaitlistReadStore {
	return &WaitlistReadStore{db: dbtx}
}

// FindActiveByResource returns the serving order directly from SQL; callers
// may still re-sort defensively.
func (w *WaitlistReadStore) FindActiveByResource(ctx context.Context, resourceID uuid.UUID) ([]*waitlist.Entry, error) {
	const q = `SELECT` + entryColumns + `
		FROM waitlist_entries
		WHERE resource_id = $1 AND status = 'active'
		ORDER BY priority, created_at`

	rows, err := w.db.Query(ctx, q, resourceID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find active waitlist entries", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (w *WaitlistReadStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*waitlist.Entry, error) {
	const q = `SELECT` + entryColumns + `
		FROM waitlist_entries
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := w.db.Query(ctx, q, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find waitlist entries by user", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (w *WaitlistReadStore) FindByID(ctx context.Context, id uuid.UUID) (*waitlist.Entry, error) {
	const q = `SELECT` + entryColumns + ` FROM waitlist_entries WHERE id = $1`

	entry, err := scanEntry(w.db.QueryRow(ctx, q, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("waitlist entry not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find waitlist entry by ID", err)
	}
	return entry, nil
}

func (w *WaitlistReadStore) HasActiveEntry(ctx context.Context, userID, resourceID uuid.UUID, desiredStart time.Time) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM waitlist_entries
			WHERE user_id = $1 AND resource_id = $2
			  AND desired_start = $3
			  AND status IN ('active', 'notified')
		)`

	var exists bool
	if err := w.db.QueryRow(ctx, q, userID, resourceID, desiredStart).Scan(&exists); err != nil {
		return false, infra.WrapRepoErr("failed to check for duplicate waitlist entry", err)
	}
	return exists, nil
}

func (w *WaitlistReadStore) ResourceIDsWithActiveEntries(ctx context.Context) ([]uuid.UUID, error) {
	const q = `
		SELECT DISTINCT resource_id
		FROM waitlist_entries
		WHERE status = 'active'`

	rows, err := w.db.Query(ctx, q)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list resources with active entries", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan resource ID", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read resource IDs", err)
	}
	return ids, nil
}

func (w *WaitlistReadStore) FindOfferByID(ctx context.Context, id uuid.UUID) (*waitlist.Offer, error) {
	const q = `
		SELECT id, entry_id, user_id, slot_start, slot_end, status, expires_at, created_at
		FROM waitlist_offers
		WHERE id = $1`

	var (
		offerID, entryID, userID uuid.UUID
		slotStart, slotEnd       time.Time
		status                   string
		expiresAt, createdAt     time.Time
	)
	err := w.db.QueryRow(ctx, q, id).Scan(
		&offerID, &entryID, &userID, &slotStart, &slotEnd, &status, &expiresAt, &createdAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("offer not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find offer by ID", err)
	}

	return waitlist.ReconstructOffer(
		offerID, entryID, userID,
		schedule.Interval{Start: slotStart, End: slotEnd},
		waitlist.OfferStatus(status), expiresAt, createdAt,
	), nil
}

func collectEntries(rows pgx.Rows) ([]*waitlist.Entry, error) {
	var out []*waitlist.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan waitlist entry", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read waitlist entries", err)
	}
	return out, nil
}

func scanEntry(row pgx.Row) (*waitlist.Entry, error) {
	var (
		id, userID, resourceID      uuid.UUID
		userRole                    string
		desiredStart, desiredEnd    time.Time
		flexibleStart, flexibleDur  bool
		minDurationMin, maxWaitDays int
		priority                    int
		autoBook                    bool
		status                      string
		timesNotified               int
		expiresAt, createdAt        time.Time
	)
	err := row.Scan(
		&id, &userID, &userRole, &resourceID, &desiredStart, &desiredEnd,
		&flexibleStart, &flexibleDur, &minDurationMin, &maxWaitDays,
		&priority, &autoBook, &status, &timesNotified, &expiresAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	return waitlist.ReconstructEntry(
		id, userID, booking.Role(userRole), resourceID,
		schedule.Interval{Start: desiredStart, End: desiredEnd},
		flexibleStart, flexibleDur,
		time.Duration(minDurationMin)*time.Minute, maxWaitDays,
		waitlist.Priority(priority), autoBook,
		waitlist.Status(status), timesNotified,
		expiresAt, createdAt,
	), nil
}
