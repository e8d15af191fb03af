package repository

import (
	"context"
	"time"

	"labbook/internal/domain/waitlist"
	"labbook/internal/infra"
	"labbook/internal/infra/db"

	"github.com/google/uuid"
)

type WaitlistRepository struct {
	db db.DBTX
}

func NewWaitlistRepository(dbtx db.DBTX) *WaitlistRepository {
	return &WaitlistRepository{db: dbtx}
}

func (r *WaitlistRepository) Create(ctx context.Context, entry *waitlist.Entry) (uuid.UUID, error) {
	const q = `
		INSERT INTO waitlist_entries
			(id, user_id, user_role, resource_id, desired_start, desired_end,
			 flexible_start, flexible_duration, min_duration_min, max_wait_days,
			 priority, auto_book, status, times_notified, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, q,
		entry.ID(), entry.UserID(), string(entry.UserRole()), entry.ResourceID(),
		entry.Desired().Start, entry.Desired().End,
		entry.FlexibleStart(), entry.FlexibleDuration(),
		int(entry.MinDuration().Minutes()), entry.MaxWaitDays(),
		int(entry.Priority()), entry.AutoBook(),
		string(entry.Status()), entry.TimesNotified(),
		entry.ExpiresAt(), entry.CreatedAt(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create waitlist entry", err)
	}
	return id, nil
}

func (r *WaitlistRepository) SetStatus(ctx context.Context, id uuid.UUID, status waitlist.Status) error {
	const q = `UPDATE waitlist_entries SET status = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, id, string(status))
	if err != nil {
		return infra.WrapRepoErr("failed to update waitlist entry status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("waitlist entry not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *WaitlistRepository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE waitlist_entries
		SET status = 'notified', times_notified = times_notified + 1
		WHERE id = $1 AND status = 'active'`

	tag, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return infra.WrapRepoErr("failed to mark waitlist entry notified", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("waitlist entry not active", nil, infra.KindNotFound)
	}
	return nil
}

func (r *WaitlistRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE waitlist_entries
		SET status = 'expired'
		WHERE status IN ('active', 'notified') AND expires_at <= $1`

	tag, err := r.db.Exec(ctx, q, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to expire waitlist entries", err)
	}
	return tag.RowsAffected(), nil
}
