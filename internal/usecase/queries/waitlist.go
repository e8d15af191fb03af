package queries

import (
	"context"

	"labbook/internal/domain/waitlist"
	"labbook/internal/pkg/errs"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
)

type WaitlistQueries interface {
	// EntriesByUser returns all of a user's waiting-list entries, newest first.
	EntriesByUser(ctx context.Context, userID uuid.UUID) ([]*waitlist.Entry, error)
	// QueueForResource returns active entries for a resource in the order the
	// sweep would serve them.
	QueueForResource(ctx context.Context, resourceID uuid.UUID) ([]*waitlist.Entry, error)
}

type waitlistQueries struct {
	reads shared.StoreReads
}

func NewWaitlistQueries(reads shared.StoreReads) WaitlistQueries {
	return &waitlistQueries{reads: reads}
}

func (w *waitlistQueries) EntriesByUser(ctx context.Context, userID uuid.UUID) ([]*waitlist.Entry, error) {
	entries, err := w.reads.EntriesByUser(ctx, userID)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	return entries, nil
}

func (w *waitlistQueries) QueueForResource(ctx context.Context, resourceID uuid.UUID) ([]*waitlist.Entry, error) {
	entries, err := w.reads.ActiveEntries(ctx, resourceID)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}
	waitlist.SortForProcessing(entries)
	return entries, nil
}
