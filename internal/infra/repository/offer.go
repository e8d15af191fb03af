package repository

import (
	"context"
	"time"

	"labbook/internal/domain/waitlist"
	"labbook/internal/infra"
	"labbook/internal/infra/db"

	"github.com/google/uuid"
)

type OfferRepository struct {
	db db.DBTX
}

func NewOfferRepository(dbtx db.DBTX) *OfferRepository {
	return &OfferRepository{db: dbtx}
}

func (r *OfferRepository) Create(ctx context.Context, offer *waitlist.Offer) (uuid.UUID, error) {
	const q = `
		INSERT INTO waitlist_offers
			(id, entry_id, user_id, slot_start, slot_end, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, q,
		offer.ID(), offer.EntryID(), offer.UserID(),
		offer.Slot().Start, offer.Slot().End,
		string(offer.Status()), offer.ExpiresAt(), offer.CreatedAt(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create offer", err)
	}
	return id, nil
}

// Resolve transitions a pending, unexpired offer in one conditional update.
// A zero row count means the offer was already handled or has expired; the
// caller distinguishes the two from the offer row it read.
func (r *OfferRepository) Resolve(ctx context.Context, id uuid.UUID, accept bool, now time.Time) (bool, error) {
	status := waitlist.OfferDeclined
	if accept {
		status = waitlist.OfferAccepted
	}

	const q = `
		UPDATE waitlist_offers
		SET status = $2
		WHERE id = $1 AND status = 'pending' AND expires_at > $3`

	tag, err := r.db.Exec(ctx, q, id, string(status), now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to resolve offer", err)
	}
	return tag.RowsAffected() > 0, nil
}
