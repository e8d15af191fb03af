package waitlist

import (
	"time"

	"labbook/internal/domain/schedule"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
	OfferExpired  OfferStatus = "expired"
)

// Offer records a concrete slot proposed to a waiting-list entry. It is
// persisted so a response can be validated and made idempotent.
type Offer struct {
	id        uuid.UUID
	entryID   uuid.UUID
	userID    uuid.UUID
	slot      schedule.Interval
	status    OfferStatus
	expiresAt time.Time
	createdAt time.Time
}

func NewOffer(entryID, userID uuid.UUID, slot schedule.Interval, lifetime time.Duration, now time.Time) *Offer {
	return &Offer{
		id:        uuid.New(),
		entryID:   entryID,
		userID:    userID,
		slot:      slot,
		status:    OfferPending,
		expiresAt: now.Add(lifetime),
		createdAt: now,
	}
}

func ReconstructOffer(
	id, entryID, userID uuid.UUID,
	slot schedule.Interval,
	status OfferStatus,
	expiresAt, createdAt time.Time,
) *Offer {
	return &Offer{
		id:        id,
		entryID:   entryID,
		userID:    userID,
		slot:      slot,
		status:    status,
		expiresAt: expiresAt,
		createdAt: createdAt,
	}
}

func (o *Offer) ID() uuid.UUID           { return o.id }
func (o *Offer) EntryID() uuid.UUID      { return o.entryID }
func (o *Offer) UserID() uuid.UUID       { return o.userID }
func (o *Offer) Slot() schedule.Interval { return o.slot }
func (o *Offer) Status() OfferStatus     { return o.status }
func (o *Offer) ExpiresAt() time.Time    { return o.expiresAt }
func (o *Offer) CreatedAt() time.Time    { return o.createdAt }
