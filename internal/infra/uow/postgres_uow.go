package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/domain/waitlist"
	"labbook/internal/infra/db"
	"labbook/internal/infra/readstore"
	"labbook/internal/infra/repository"
	"labbook/internal/pkg/errs"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
	errResourceLock       = errs.New("failed to acquire resource lock")
)

type PostgresUoW struct {
	pool *pgxpool.Pool
}

func NewPostgresUoW(pool *pgxpool.Pool) shared.UnitOfWork {
	return &PostgresUoW{pool: pool}
}

// ReadCommitted alone does not serialize two check-then-insert transactions
// on the same resource; callers must take pgTx.LockResource before the
// conflict check so concurrent writers on one resource queue behind each
// other until commit.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (u *PostgresUoW) Reads() shared.StoreReads {
	return &storeReads{dbtx: u.pool}
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{dbtx: pgxTx}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries {
				slog.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx db.DBTX

	// Lazy-initialized repositories
	reservationRepo shared.ReservationRepository
	waitlistRepo    shared.WaitlistRepository
	offerRepo       shared.OfferRepository
	reads           shared.StoreReads
}

// LockResource takes a transaction-scoped advisory lock keyed on the
// resource ID. The lock is released automatically at commit or rollback, so
// overlap checks made after this call see every committed write from earlier
// holders.
func (t *pgTx) LockResource(ctx context.Context, resourceID uuid.UUID) error {
	const q = `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`

	if _, err := t.dbtx.Exec(ctx, q, resourceID.String()); err != nil {
		return errs.Mark(err, errResourceLock)
	}
	return nil
}

func (t *pgTx) Reservations() shared.ReservationRepository {
	if t.reservationRepo == nil {
		t.reservationRepo = repository.NewReservationRepository(t.dbtx)
	}
	return t.reservationRepo
}

func (t *pgTx) Waitlist() shared.WaitlistRepository {
	if t.waitlistRepo == nil {
		t.waitlistRepo = repository.NewWaitlistRepository(t.dbtx)
	}
	return t.waitlistRepo
}

func (t *pgTx) Offers() shared.OfferRepository {
	if t.offerRepo == nil {
		t.offerRepo = repository.NewOfferRepository(t.dbtx)
	}
	return t.offerRepo
}

func (t *pgTx) Reads() shared.StoreReads {
	if t.reads == nil {
		t.reads = &storeReads{dbtx: t.dbtx}
	}
	return t.reads
}

type storeReads struct {
	dbtx db.DBTX

	// Lazy-initialized readstores
	scheduleStore    *readstore.ScheduleReadStore
	reservationStore *readstore.ReservationReadStore
	resourceStore    *readstore.ResourceReadStore
	waitlistStore    *readstore.WaitlistReadStore
}

func (r *storeReads) schedule() *readstore.ScheduleReadStore {
	if r.scheduleStore == nil {
		r.scheduleStore = readstore.NewScheduleReadStore(r.dbtx)
	}
	return r.scheduleStore
}

func (r *storeReads) reservations() *readstore.ReservationReadStore {
	if r.reservationStore == nil {
		r.reservationStore = readstore.NewReservationReadStore(r.dbtx)
	}
	return r.reservationStore
}

func (r *storeReads) resources() *readstore.ResourceReadStore {
	if r.resourceStore == nil {
		r.resourceStore = readstore.NewResourceReadStore(r.dbtx)
	}
	return r.resourceStore
}

func (r *storeReads) waitlist() *readstore.WaitlistReadStore {
	if r.waitlistStore == nil {
		r.waitlistStore = readstore.NewWaitlistReadStore(r.dbtx)
	}
	return r.waitlistStore
}

func (r *storeReads) ReservationSpans(ctx context.Context, resourceID uuid.UUID, overlapping schedule.Interval, statuses []booking.Status) ([]schedule.ReservationSpan, error) {
	return r.schedule().ReservationSpans(ctx, resourceID, overlapping, statuses)
}

func (r *storeReads) MaintenanceSpans(ctx context.Context, resourceID uuid.UUID, overlapping schedule.Interval, blockingOnly bool) ([]schedule.MaintenanceSpan, error) {
	return r.schedule().MaintenanceSpans(ctx, resourceID, overlapping, blockingOnly)
}

func (r *storeReads) ReservationByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	return r.reservations().FindByID(ctx, id)
}

func (r *storeReads) ReservationsByOwner(ctx context.Context, ownerID uuid.UUID, limit int32) ([]*booking.Reservation, error) {
	return r.reservations().FindByOwner(ctx, ownerID, limit)
}

func (r *storeReads) Series(ctx context.Context, resourceID, ownerID uuid.UUID, rule []byte) ([]*booking.Reservation, error) {
	return r.reservations().FindSeries(ctx, resourceID, ownerID, rule)
}

func (r *storeReads) ResourceByID(ctx context.Context, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	return r.resources().FindByID(ctx, id)
}

func (r *storeReads) ResourcesByType(ctx context.Context, resourceType string, activeOnly bool) ([]shared.ResourceSnapshot, error) {
	return r.resources().FindByType(ctx, resourceType, activeOnly)
}

func (r *storeReads) ActiveEntries(ctx context.Context, resourceID uuid.UUID) ([]*waitlist.Entry, error) {
	return r.waitlist().FindActiveByResource(ctx, resourceID)
}

func (r *storeReads) EntriesByUser(ctx context.Context, userID uuid.UUID) ([]*waitlist.Entry, error) {
	return r.waitlist().FindByUser(ctx, userID)
}

func (r *storeReads) EntryByID(ctx context.Context, id uuid.UUID) (*waitlist.Entry, error) {
	return r.waitlist().FindByID(ctx, id)
}

func (r *storeReads) HasActiveEntry(ctx context.Context, userID, resourceID uuid.UUID, desiredStart time.Time) (bool, error) {
	return r.waitlist().HasActiveEntry(ctx, userID, resourceID, desiredStart)
}

func (r *storeReads) OfferByID(ctx context.Context, id uuid.UUID) (*waitlist.Offer, error) {
	return r.waitlist().FindOfferByID(ctx, id)
}

func (r *storeReads) ResourceIDsWithActiveEntries(ctx context.Context) ([]uuid.UUID, error) {
	return r.waitlist().ResourceIDsWithActiveEntries(ctx)
}
