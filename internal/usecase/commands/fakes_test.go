//go:build unit

package commands_test

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/domain/waitlist"
	"labbook/internal/infra"
	"labbook/internal/infra/metrics"
	"labbook/internal/pkg/clock"
	"labbook/internal/pkg/config"
	"labbook/internal/usecase/commands"
	"labbook/internal/usecase/shared"

	"github.com/google/uuid"
)

// testNow is Monday 2025-03-03 08:00 UTC, one hour before the working window.
var testNow = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

func ts(day, hour, min int) time.Time {
	return time.Date(2025, 3, day, hour, min, 0, 0, time.UTC)
}

func interval(day, startHour, endHour int) schedule.Interval {
	return schedule.Interval{Start: ts(day, startHour, 0), End: ts(day, endHour, 0)}
}

var errNoRows = errors.New("fake: no rows")

func notFound(msg string) error {
	return infra.WrapRepoErr(msg, errNoRows, infra.KindNotFound)
}

type reservationRecord struct {
	id         uuid.UUID
	resourceID uuid.UUID
	ownerID    uuid.UUID
	ownerRole  booking.Role
	title      booking.Title
	slot       booking.TimeSlot
	status     booking.Status
	recurring  bool
	rule       []byte
	attendees  []uuid.UUID
	createdAt  time.Time
}

type entryRecord struct {
	id            uuid.UUID
	userID        uuid.UUID
	userRole      booking.Role
	resourceID    uuid.UUID
	desired       schedule.Interval
	flexStart     bool
	flexDuration  bool
	minDuration   time.Duration
	maxWaitDays   int
	priority      waitlist.Priority
	autoBook      bool
	status        waitlist.Status
	timesNotified int
	expiresAt     time.Time
	createdAt     time.Time
}

type offerRecord struct {
	id        uuid.UUID
	entryID   uuid.UUID
	userID    uuid.UUID
	slot      schedule.Interval
	status    waitlist.OfferStatus
	expiresAt time.Time
	createdAt time.Time
}

// fakeStore is an in-memory stand-in for the persistence layer. It backs the
// StoreReads contract and all three repositories over plain maps. ops records
// resource locks and reservation inserts in call order so tests can assert
// that writes happen under the lock.
type fakeStore struct {
	resources    map[uuid.UUID]shared.ResourceSnapshot
	reservations map[uuid.UUID]reservationRecord
	maintenance  []schedule.MaintenanceSpan
	entries      map[uuid.UUID]entryRecord
	offers       map[uuid.UUID]offerRecord
	ops          []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		resources:    make(map[uuid.UUID]shared.ResourceSnapshot),
		reservations: make(map[uuid.UUID]reservationRecord),
		entries:      make(map[uuid.UUID]entryRecord),
		offers:       make(map[uuid.UUID]offerRecord),
	}
}

func (s *fakeStore) snapshot() fakeStore {
	cp := fakeStore{
		resources:    make(map[uuid.UUID]shared.ResourceSnapshot, len(s.resources)),
		reservations: make(map[uuid.UUID]reservationRecord, len(s.reservations)),
		entries:      make(map[uuid.UUID]entryRecord, len(s.entries)),
		offers:       make(map[uuid.UUID]offerRecord, len(s.offers)),
		maintenance:  append([]schedule.MaintenanceSpan(nil), s.maintenance...),
		ops:          append([]string(nil), s.ops...),
	}
	for k, v := range s.resources {
		cp.resources[k] = v
	}
	for k, v := range s.reservations {
		cp.reservations[k] = v
	}
	for k, v := range s.entries {
		cp.entries[k] = v
	}
	for k, v := range s.offers {
		cp.offers[k] = v
	}
	return cp
}

func (s *fakeStore) addResource(snap shared.ResourceSnapshot) {
	s.resources[snap.ID] = snap
}

func (s *fakeStore) addReservation(res *booking.Reservation) {
	s.reservations[res.ID()] = reservationRecord{
		id:         res.ID(),
		resourceID: res.ResourceID(),
		ownerID:    res.OwnerID(),
		ownerRole:  res.OwnerRole(),
		title:      res.Title(),
		slot:       res.Slot(),
		status:     res.Status(),
		recurring:  res.IsRecurring(),
		rule:       res.RecurrenceRule(),
		attendees:  res.AttendeeIDs(),
		createdAt:  res.CreatedAt(),
	}
}

func (s *fakeStore) addEntry(e *waitlist.Entry) {
	s.entries[e.ID()] = entryRecord{
		id:            e.ID(),
		userID:        e.UserID(),
		userRole:      e.UserRole(),
		resourceID:    e.ResourceID(),
		desired:       e.Desired(),
		flexStart:     e.FlexibleStart(),
		flexDuration:  e.FlexibleDuration(),
		minDuration:   e.MinDuration(),
		maxWaitDays:   e.MaxWaitDays(),
		priority:      e.Priority(),
		autoBook:      e.AutoBook(),
		status:        e.Status(),
		timesNotified: e.TimesNotified(),
		expiresAt:     e.ExpiresAt(),
		createdAt:     e.CreatedAt(),
	}
}

func (s *fakeStore) addOffer(o *waitlist.Offer) {
	s.offers[o.ID()] = offerRecord{
		id:        o.ID(),
		entryID:   o.EntryID(),
		userID:    o.UserID(),
		slot:      o.Slot(),
		status:    o.Status(),
		expiresAt: o.ExpiresAt(),
		createdAt: o.CreatedAt(),
	}
}

func (r reservationRecord) rebuild() *booking.Reservation {
	return booking.ReconstructReservation(
		r.id, r.resourceID, r.ownerID, r.ownerRole, r.title, r.slot,
		r.status, r.recurring, r.rule, r.attendees, r.createdAt, r.createdAt,
	)
}

func (r entryRecord) rebuild() *waitlist.Entry {
	return waitlist.ReconstructEntry(
		r.id, r.userID, r.userRole, r.resourceID, r.desired,
		r.flexStart, r.flexDuration, r.minDuration, r.maxWaitDays,
		r.priority, r.autoBook, r.status, r.timesNotified,
		r.expiresAt, r.createdAt,
	)
}

// --- StoreReads ---

func (s *fakeStore) ReservationSpans(_ context.Context, resourceID uuid.UUID, overlapping schedule.Interval, statuses []booking.Status) ([]schedule.ReservationSpan, error) {
	allowed := make(map[booking.Status]struct{}, len(statuses))
	for _, st := range statuses {
		allowed[st] = struct{}{}
	}
	var out []schedule.ReservationSpan
	for _, rec := range s.reservations {
		if rec.resourceID != resourceID {
			continue
		}
		if _, ok := allowed[rec.status]; !ok {
			continue
		}
		iv := schedule.Interval{Start: rec.slot.Start(), End: rec.slot.End()}
		if !iv.Overlaps(overlapping) {
			continue
		}
		out = append(out, schedule.ReservationSpan{
			ID:         rec.id,
			ResourceID: rec.resourceID,
			OwnerID:    rec.ownerID,
			OwnerRole:  rec.ownerRole,
			Status:     rec.status,
			Interval:   iv,
			CreatedAt:  rec.createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Interval.Start.Before(out[j].Interval.Start) })
	return out, nil
}

func (s *fakeStore) MaintenanceSpans(_ context.Context, resourceID uuid.UUID, overlapping schedule.Interval, blockingOnly bool) ([]schedule.MaintenanceSpan, error) {
	var out []schedule.MaintenanceSpan
	for _, w := range s.maintenance {
		if w.ResourceID != resourceID {
			continue
		}
		if blockingOnly && !w.BlocksBooking {
			continue
		}
		if !w.Interval.Overlaps(overlapping) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *fakeStore) ReservationByID(_ context.Context, id uuid.UUID) (*booking.Reservation, error) {
	rec, ok := s.reservations[id]
	if !ok {
		return nil, notFound("reservation not found")
	}
	return rec.rebuild(), nil
}

func (s *fakeStore) ReservationsByOwner(_ context.Context, ownerID uuid.UUID, limit int32) ([]*booking.Reservation, error) {
	var out []*booking.Reservation
	for _, rec := range s.reservations {
		if rec.ownerID != ownerID {
			continue
		}
		out = append(out, rec.rebuild())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot().Start().Before(out[j].Slot().Start()) })
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) Series(_ context.Context, resourceID, ownerID uuid.UUID, rule []byte) ([]*booking.Reservation, error) {
	var out []*booking.Reservation
	for _, rec := range s.reservations {
		if rec.resourceID != resourceID || rec.ownerID != ownerID {
			continue
		}
		if !rec.recurring || !bytes.Equal(rec.rule, rule) {
			continue
		}
		out = append(out, rec.rebuild())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot().Start().Before(out[j].Slot().Start()) })
	return out, nil
}

func (s *fakeStore) ResourceByID(_ context.Context, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	snap, ok := s.resources[id]
	if !ok {
		return nil, notFound("resource not found")
	}
	return &snap, nil
}

func (s *fakeStore) ResourcesByType(_ context.Context, resourceType string, activeOnly bool) ([]shared.ResourceSnapshot, error) {
	var out []shared.ResourceSnapshot
	for _, snap := range s.resources {
		if snap.ResourceType != resourceType {
			continue
		}
		if activeOnly && !snap.IsActive {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *fakeStore) ActiveEntries(_ context.Context, resourceID uuid.UUID) ([]*waitlist.Entry, error) {
	var out []*waitlist.Entry
	for _, rec := range s.entries {
		if rec.resourceID != resourceID {
			continue
		}
		if rec.status != waitlist.StatusActive && rec.status != waitlist.StatusNotified {
			continue
		}
		out = append(out, rec.rebuild())
	}
	waitlist.SortForProcessing(out)
	return out, nil
}

func (s *fakeStore) EntriesByUser(_ context.Context, userID uuid.UUID) ([]*waitlist.Entry, error) {
	var out []*waitlist.Entry
	for _, rec := range s.entries {
		if rec.userID == userID {
			out = append(out, rec.rebuild())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

func (s *fakeStore) EntryByID(_ context.Context, id uuid.UUID) (*waitlist.Entry, error) {
	rec, ok := s.entries[id]
	if !ok {
		return nil, notFound("waiting list entry not found")
	}
	return rec.rebuild(), nil
}

func (s *fakeStore) HasActiveEntry(_ context.Context, userID, resourceID uuid.UUID, desiredStart time.Time) (bool, error) {
	for _, rec := range s.entries {
		if rec.userID != userID || rec.resourceID != resourceID {
			continue
		}
		if rec.status != waitlist.StatusActive && rec.status != waitlist.StatusNotified {
			continue
		}
		if rec.desired.Start.Equal(desiredStart) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) OfferByID(_ context.Context, id uuid.UUID) (*waitlist.Offer, error) {
	rec, ok := s.offers[id]
	if !ok {
		return nil, notFound("offer not found")
	}
	return waitlist.ReconstructOffer(rec.id, rec.entryID, rec.userID, rec.slot, rec.status, rec.expiresAt, rec.createdAt), nil
}

func (s *fakeStore) ResourceIDsWithActiveEntries(_ context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	for _, rec := range s.entries {
		if rec.status == waitlist.StatusActive || rec.status == waitlist.StatusNotified {
			seen[rec.resourceID] = struct{}{}
		}
	}
	out := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// --- repositories ---

type fakeReservationRepo struct{ s *fakeStore }

func (r fakeReservationRepo) Create(_ context.Context, res *booking.Reservation) (uuid.UUID, error) {
	r.s.ops = append(r.s.ops, "insert "+res.ResourceID().String())
	r.s.addReservation(res)
	return res.ID(), nil
}

func (r fakeReservationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status booking.Status) error {
	rec, ok := r.s.reservations[id]
	if !ok {
		return notFound("reservation not found")
	}
	rec.status = status
	r.s.reservations[id] = rec
	return nil
}

func (r fakeReservationRepo) TagRecurring(_ context.Context, id uuid.UUID, rule []byte) error {
	rec, ok := r.s.reservations[id]
	if !ok {
		return notFound("reservation not found")
	}
	rec.recurring = true
	rec.rule = rule
	r.s.reservations[id] = rec
	return nil
}

type fakeWaitlistRepo struct{ s *fakeStore }

func (r fakeWaitlistRepo) Create(_ context.Context, entry *waitlist.Entry) (uuid.UUID, error) {
	r.s.addEntry(entry)
	return entry.ID(), nil
}

func (r fakeWaitlistRepo) SetStatus(_ context.Context, id uuid.UUID, status waitlist.Status) error {
	rec, ok := r.s.entries[id]
	if !ok {
		return notFound("waiting list entry not found")
	}
	rec.status = status
	r.s.entries[id] = rec
	return nil
}

func (r fakeWaitlistRepo) MarkNotified(_ context.Context, id uuid.UUID) error {
	rec, ok := r.s.entries[id]
	if !ok || rec.status != waitlist.StatusActive {
		return notFound("waiting list entry not active")
	}
	rec.status = waitlist.StatusNotified
	rec.timesNotified++
	r.s.entries[id] = rec
	return nil
}

func (r fakeWaitlistRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for id, rec := range r.s.entries {
		if rec.status != waitlist.StatusActive && rec.status != waitlist.StatusNotified {
			continue
		}
		if now.Before(rec.expiresAt) {
			continue
		}
		rec.status = waitlist.StatusExpired
		r.s.entries[id] = rec
		count++
	}
	return count, nil
}

type fakeOfferRepo struct{ s *fakeStore }

func (r fakeOfferRepo) Create(_ context.Context, offer *waitlist.Offer) (uuid.UUID, error) {
	r.s.addOffer(offer)
	return offer.ID(), nil
}

func (r fakeOfferRepo) Resolve(_ context.Context, id uuid.UUID, accept bool, now time.Time) (bool, error) {
	rec, ok := r.s.offers[id]
	if !ok {
		return false, notFound("offer not found")
	}
	if rec.status != waitlist.OfferPending || !now.Before(rec.expiresAt) {
		return false, nil
	}
	if accept {
		rec.status = waitlist.OfferAccepted
	} else {
		rec.status = waitlist.OfferDeclined
	}
	r.s.offers[id] = rec
	return true, nil
}

// --- unit of work ---

type fakeTx struct{ s *fakeStore }

func (t fakeTx) LockResource(_ context.Context, resourceID uuid.UUID) error {
	t.s.ops = append(t.s.ops, "lock "+resourceID.String())
	return nil
}

func (t fakeTx) Reservations() shared.ReservationRepository { return fakeReservationRepo{t.s} }
func (t fakeTx) Waitlist() shared.WaitlistRepository        { return fakeWaitlistRepo{t.s} }
func (t fakeTx) Offers() shared.OfferRepository             { return fakeOfferRepo{t.s} }
func (t fakeTx) Reads() shared.StoreReads                   { return t.s }

// fakeUoW mimics transactional behaviour: a failing closure restores the
// store to its pre-transaction state.
type fakeUoW struct {
	mu sync.Mutex
	s  *fakeStore
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	backup := u.s.snapshot()
	if err := fn(ctx, fakeTx{u.s}); err != nil {
		*u.s = backup
		return err
	}
	return nil
}

func (u *fakeUoW) Reads() shared.StoreReads { return u.s }

// --- collaborators ---

type sentNotification struct {
	UserID uuid.UUID
	Kind   string
}

type fakeNotifier struct {
	sent []sentNotification
}

func (n *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, kind string, _ map[string]any) error {
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind})
	return nil
}

type fakePolicy struct {
	denied map[uuid.UUID]bool
}

func (p *fakePolicy) IsAvailableForUser(_ context.Context, resourceID, _ uuid.UUID) (bool, error) {
	return !p.denied[resourceID], nil
}

// --- wiring ---

type cmdEnv struct {
	store    *fakeStore
	uow      *fakeUoW
	notifier *fakeNotifier
	policy   *fakePolicy
	clock    *clock.MockClock
	metrics  *metrics.Metrics
	cfg      config.BookingConfig
}

func newCmdEnv(t *testing.T) *cmdEnv {
	t.Helper()
	store := newFakeStore()
	return &cmdEnv{
		store:    store,
		uow:      &fakeUoW{s: store},
		notifier: &fakeNotifier{},
		policy:   &fakePolicy{denied: make(map[uuid.UUID]bool)},
		clock:    clock.NewMockClock(testNow),
		metrics:  metrics.New(),
		cfg:      config.NewTestConfig().Booking,
	}
}

func (e *cmdEnv) bookings() commands.BookingCommands {
	return commands.NewBookingCommands(e.uow, e.policy, e.notifier, e.metrics, e.clock, e.cfg)
}

func (e *cmdEnv) recurrence() commands.RecurrenceCommands {
	return commands.NewRecurrenceCommands(e.uow, e.notifier, e.metrics, e.clock, e.cfg)
}

func (e *cmdEnv) waitlist() commands.WaitlistCommands {
	return commands.NewWaitlistCommands(e.uow, e.notifier, e.metrics, e.clock, e.cfg)
}

func (e *cmdEnv) seedResource(t *testing.T, resourceType string, active bool) shared.ResourceSnapshot {
	t.Helper()
	snap := shared.ResourceSnapshot{
		ID:           uuid.New(),
		Name:         "fume hood",
		ResourceType: resourceType,
		Capacity:     1,
		IsActive:     active,
	}
	e.store.addResource(snap)
	return snap
}

func (e *cmdEnv) seedReservation(t *testing.T, resourceID, ownerID uuid.UUID, role booking.Role, status booking.Status, slot schedule.Interval) *booking.Reservation {
	t.Helper()
	timeSlot, err := booking.NewTimeSlot(slot.Start, slot.End)
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	res, err := booking.NewReservation(resourceID, ownerID, role, booking.NewTitle("seeded"), timeSlot, booking.StatusConfirmed, nil)
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	e.store.addReservation(res)
	if status != booking.StatusConfirmed {
		rec := e.store.reservations[res.ID()]
		rec.status = status
		e.store.reservations[res.ID()] = rec
	}
	return res
}

func (e *cmdEnv) seedEntry(t *testing.T, userID, resourceID uuid.UUID, desired schedule.Interval, opts waitlist.Options) *waitlist.Entry {
	t.Helper()
	return e.seedEntryAs(t, userID, booking.RoleStudent, resourceID, desired, opts)
}

func (e *cmdEnv) seedEntryAs(t *testing.T, userID uuid.UUID, role booking.Role, resourceID uuid.UUID, desired schedule.Interval, opts waitlist.Options) *waitlist.Entry {
	t.Helper()
	entry, err := waitlist.NewEntry(userID, role, resourceID, desired, opts, shared.WaitlistDefaultsFrom(e.cfg), e.clock.Now())
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	e.store.addEntry(entry)
	return entry
}

func (e *cmdEnv) reservationStatus(t *testing.T, id uuid.UUID) booking.Status {
	t.Helper()
	rec, ok := e.store.reservations[id]
	if !ok {
		t.Fatalf("reservation %s not in store", id)
	}
	return rec.status
}

func (e *cmdEnv) entryStatus(t *testing.T, id uuid.UUID) waitlist.Status {
	t.Helper()
	rec, ok := e.store.entries[id]
	if !ok {
		t.Fatalf("entry %s not in store", id)
	}
	return rec.status
}

func (e *cmdEnv) offerStatus(t *testing.T, id uuid.UUID) waitlist.OfferStatus {
	t.Helper()
	rec, ok := e.store.offers[id]
	if !ok {
		t.Fatalf("offer %s not in store", id)
	}
	return rec.status
}

func (e *cmdEnv) notifiedKinds() []string {
	kinds := make([]string, 0, len(e.notifier.sent))
	for _, n := range e.notifier.sent {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}
