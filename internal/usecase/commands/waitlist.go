package commands

import (
	"context"
	"log/slog"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/domain/waitlist"
	"labbook/internal/infra"
	"labbook/internal/infra/metrics"
	"labbook/internal/pkg/clock"
	"labbook/internal/pkg/config"
	"labbook/internal/pkg/errs"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrDuplicateEntry      = errs.New("an active waiting list entry already exists for this slot")
	ErrEntryNotFound       = errs.New("waiting list entry not found")
	ErrOfferNotFound       = errs.New("offer not found")
	ErrOfferAlreadyHandled = errs.New("offer has already been responded to")
	ErrOfferExpired        = errs.New("offer has expired")
	ErrOfferNotForUser     = errs.New("offer belongs to another user")
	ErrOfferSlotTaken      = errs.New("offered slot is no longer free")
	ErrEntryNotCancellable = errs.New("waiting list entry cannot be cancelled in its current state")
)

type EnrollParams struct {
	UserID       uuid.UUID
	UserRole     booking.Role
	ResourceID   uuid.UUID
	DesiredStart time.Time
	DesiredEnd   time.Time
	Options      waitlist.Options
}

// SweepReport summarizes one waiting-list pass over a resource.
type SweepReport struct {
	Notified   int
	AutoBooked int
	Expired    int
}

func (s *SweepReport) add(o SweepReport) {
	s.Notified += o.Notified
	s.AutoBooked += o.AutoBooked
	s.Expired += o.Expired
}

type AcceptedOffer struct {
	Reservation *booking.Reservation
}

type WaitlistCommands interface {
	Enroll(ctx context.Context, params EnrollParams) (*waitlist.Entry, error)
	CancelEntry(ctx context.Context, entryID, userID uuid.UUID) error
	// ProcessResource recomputes free gaps for the resource and serves active
	// entries in priority order, offering or auto-booking matching slots. A
	// slot consumed in this pass is never offered twice within it.
	ProcessResource(ctx context.Context, resourceID uuid.UUID) (*SweepReport, error)
	// ProcessAll sweeps every resource that has active entries. Resources are
	// independent; failures on one are logged and do not stop the sweep.
	ProcessAll(ctx context.Context) (*SweepReport, error)
	// RespondToOffer accepts or declines a pending offer. Accepting books the
	// slot (re-checked in-tx); declining returns the entry to the list.
	// Responding twice fails with ErrOfferAlreadyHandled.
	RespondToOffer(ctx context.Context, offerID, userID uuid.UUID, accept bool) (*AcceptedOffer, error)
	// ExpireStale bulk-expires active entries past their expiry.
	ExpireStale(ctx context.Context) (int64, error)
}

type waitlistCommands struct {
	uow      shared.UnitOfWork
	notifier shared.Notifier
	metrics  *metrics.Metrics
	clock    clock.Clock
	cfg      config.BookingConfig
}

func NewWaitlistCommands(
	uow shared.UnitOfWork,
	notifier shared.Notifier,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg config.BookingConfig,
) WaitlistCommands {
	return &waitlistCommands{
		uow:      uow,
		notifier: notifier,
		metrics:  m,
		clock:    clk,
		cfg:      cfg,
	}
}

func (w *waitlistCommands) Enroll(ctx context.Context, params EnrollParams) (*waitlist.Entry, error) {
	desired, err := schedule.NewInterval(params.DesiredStart, params.DesiredEnd)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidTimeSlot)
	}

	if _, err := w.uow.Reads().ResourceByID(ctx, params.ResourceID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	entry, err := waitlist.NewEntry(
		params.UserID, params.UserRole, params.ResourceID, desired,
		params.Options, shared.WaitlistDefaultsFrom(w.cfg), w.clock.Now(),
	)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidTimeSlot)
	}

	err = w.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		duplicate, err := tx.Reads().HasActiveEntry(ctx, params.UserID, params.ResourceID, params.DesiredStart)
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		if duplicate {
			return ErrDuplicateEntry
		}
		_, err = tx.Waitlist().Create(ctx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (w *waitlistCommands) CancelEntry(ctx context.Context, entryID, userID uuid.UUID) error {
	return w.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entry, err := tx.Reads().EntryByID(ctx, entryID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrEntryNotFound
			}
			return errs.Mark(err, ErrStorageFailure)
		}
		if entry.UserID() != userID {
			return ErrNotOwner
		}
		if err := entry.Cancel(); err != nil {
			return errs.Mark(err, ErrEntryNotCancellable)
		}
		return tx.Waitlist().SetStatus(ctx, entryID, waitlist.StatusCancelled)
	})
}

type pendingNotification struct {
	userID  uuid.UUID
	kind    string
	payload map[string]any
}

func (w *waitlistCommands) ProcessResource(ctx context.Context, resourceID uuid.UUID) (*SweepReport, error) {
	now := w.clock.Now()
	policy := shared.PolicyFrom(w.cfg)
	report := &SweepReport{}
	var outbox []pendingNotification

	err := w.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		*report = SweepReport{}
		outbox = outbox[:0]

		// Gap computation and the auto-book inserts below must not race
		// direct bookings on the same resource.
		if err := tx.LockResource(ctx, resourceID); err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}

		horizon := schedule.Interval{Start: now, End: now.AddDate(0, 0, w.cfg.GapHorizonDays)}
		spans, err := tx.Reads().ReservationSpans(ctx, resourceID, horizon, booking.BlockingStatuses())
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		windows, err := tx.Reads().MaintenanceSpans(ctx, resourceID, horizon, true)
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		gaps := schedule.FreeGaps(schedule.BlockedIntervals(spans, windows), now, w.cfg.GapHorizonDays, policy)

		entries, err := tx.Reads().ActiveEntries(ctx, resourceID)
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		waitlist.SortForProcessing(entries)

		for _, entry := range entries {
			if entry.IsExpired(now) {
				if err := tx.Waitlist().SetStatus(ctx, entry.ID(), waitlist.StatusExpired); err != nil {
					return errs.Mark(err, ErrStorageFailure)
				}
				report.Expired++
				continue
			}

			gapIdx := matchGap(entry, gaps)
			if gapIdx < 0 {
				continue
			}
			slot := entry.SlotWithin(gaps[gapIdx])

			if entry.AutoBook() {
				if err := w.autoBook(ctx, tx, entry, slot); err != nil {
					return err
				}
				report.AutoBooked++
				outbox = append(outbox, pendingNotification{
					userID: entry.UserID(),
					kind:   "waitlist_auto_booked",
					payload: map[string]any{
						"entry_id": entry.ID(),
						"start":    slot.Start,
						"end":      slot.End,
					},
				})
			} else {
				offer := waitlist.NewOffer(entry.ID(), entry.UserID(), slot, w.cfg.OfferLifetime, now)
				if _, err := tx.Offers().Create(ctx, offer); err != nil {
					return errs.Mark(err, ErrStorageFailure)
				}
				if err := tx.Waitlist().MarkNotified(ctx, entry.ID()); err != nil {
					return errs.Mark(err, ErrStorageFailure)
				}
				report.Notified++
				outbox = append(outbox, pendingNotification{
					userID: entry.UserID(),
					kind:   "waitlist_slot_offered",
					payload: map[string]any{
						"entry_id": entry.ID(),
						"offer_id": offer.ID(),
						"start":    slot.Start,
						"end":      slot.End,
						"expires":  offer.ExpiresAt(),
					},
				})
			}

			// The consumed slot must not match anyone else in this pass.
			gaps = consumeSlot(gaps, gapIdx, slot, policy.MinGap)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, n := range outbox {
		w.notify(ctx, n.userID, n.kind, n.payload)
	}
	w.metrics.WaitlistNotified.Add(float64(report.Notified))
	w.metrics.WaitlistAutoBooked.Add(float64(report.AutoBooked))
	return report, nil
}

func (w *waitlistCommands) ProcessAll(ctx context.Context) (*SweepReport, error) {
	resourceIDs, err := w.uow.Reads().ResourceIDsWithActiveEntries(ctx)
	if err != nil {
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	total := &SweepReport{}
	for _, id := range resourceIDs {
		report, err := w.ProcessResource(ctx, id)
		if err != nil {
			slog.Error("waiting list sweep failed for resource", "resource_id", id, "error", err)
			continue
		}
		total.add(*report)
	}
	return total, nil
}

func (w *waitlistCommands) RespondToOffer(ctx context.Context, offerID, userID uuid.UUID, accept bool) (*AcceptedOffer, error) {
	now := w.clock.Now()
	var reservation *booking.Reservation
	var entryUser uuid.UUID

	err := w.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		reservation = nil

		offer, err := tx.Reads().OfferByID(ctx, offerID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrOfferNotFound
			}
			return errs.Mark(err, ErrStorageFailure)
		}
		if offer.UserID() != userID {
			return ErrOfferNotForUser
		}

		claimed, err := tx.Offers().Resolve(ctx, offerID, accept, now)
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		if !claimed {
			// The conditional update only touches pending, unexpired offers.
			if offer.Status() == waitlist.OfferPending {
				return ErrOfferExpired
			}
			return ErrOfferAlreadyHandled
		}

		entry, err := tx.Reads().EntryByID(ctx, offer.EntryID())
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		entryUser = entry.UserID()

		if !accept {
			// Declining keeps the request on the list.
			return tx.Waitlist().SetStatus(ctx, entry.ID(), waitlist.StatusActive)
		}

		slot := offer.Slot()
		if err := tx.LockResource(ctx, entry.ResourceID()); err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		conflicts, err := checkConflicts(ctx, tx.Reads(), entry.ResourceID(), slot, nil)
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		if len(conflicts) > 0 {
			return ErrOfferSlotTaken
		}

		timeSlot, err := booking.NewTimeSlot(slot.Start, slot.End)
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		reservation, err = booking.NewReservation(
			entry.ResourceID(), entry.UserID(), entry.UserRole(),
			booking.NewTitle("Waiting list booking"), timeSlot,
			booking.StatusConfirmed, nil,
		)
		if err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		if _, err := tx.Reservations().Create(ctx, reservation); err != nil {
			return errs.Mark(err, ErrStorageFailure)
		}
		return tx.Waitlist().SetStatus(ctx, entry.ID(), waitlist.StatusFulfilled)
	})
	if err != nil {
		return nil, err
	}

	if accept {
		w.metrics.BookingsCreated.Inc()
		w.notify(ctx, entryUser, "waitlist_offer_accepted", map[string]any{
			"offer_id":       offerID,
			"reservation_id": reservation.ID(),
		})
		return &AcceptedOffer{Reservation: reservation}, nil
	}
	return &AcceptedOffer{}, nil
}

func (w *waitlistCommands) ExpireStale(ctx context.Context) (int64, error) {
	var count int64
	err := w.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		count, err = tx.Waitlist().ExpireOverdue(ctx, w.clock.Now())
		return err
	})
	if err != nil {
		return 0, errs.Mark(err, ErrStorageFailure)
	}
	return count, nil
}

func (w *waitlistCommands) autoBook(ctx context.Context, tx shared.Tx, entry *waitlist.Entry, slot schedule.Interval) error {
	timeSlot, err := booking.NewTimeSlot(slot.Start, slot.End)
	if err != nil {
		return errs.Mark(err, ErrStorageFailure)
	}
	reservation, err := booking.NewReservation(
		entry.ResourceID(), entry.UserID(), entry.UserRole(),
		booking.NewTitle("Waiting list booking"), timeSlot,
		booking.StatusConfirmed, nil,
	)
	if err != nil {
		return errs.Mark(err, ErrStorageFailure)
	}
	if _, err := tx.Reservations().Create(ctx, reservation); err != nil {
		return errs.Mark(err, ErrStorageFailure)
	}
	return tx.Waitlist().SetStatus(ctx, entry.ID(), waitlist.StatusFulfilled)
}

func (w *waitlistCommands) notify(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) {
	if err := w.notifier.Notify(ctx, userID, kind, payload); err != nil {
		slog.Warn("notification failed", "kind", kind, "user_id", userID, "error", err)
	}
}

// matchGap returns the index of the earliest gap satisfying the entry, or -1.
// Gaps are produced in chronological order, so the first match is earliest.
func matchGap(entry *waitlist.Entry, gaps []schedule.Interval) int {
	for i, gap := range gaps {
		if entry.Matches(gap) {
			return i
		}
	}
	return -1
}

// consumeSlot removes the booked slot from the gap list, keeping any
// remainders still worth offering.
func consumeSlot(gaps []schedule.Interval, idx int, slot schedule.Interval, minGap time.Duration) []schedule.Interval {
	gap := gaps[idx]
	out := make([]schedule.Interval, 0, len(gaps)+1)
	out = append(out, gaps[:idx]...)
	if slot.Start.Sub(gap.Start) >= minGap {
		out = append(out, schedule.Interval{Start: gap.Start, End: slot.Start})
	}
	if gap.End.Sub(slot.End) >= minGap {
		out = append(out, schedule.Interval{Start: slot.End, End: gap.End})
	}
	return append(out, gaps[idx+1:]...)
}
