package response

import (
	"time"

	"labbook/internal/domain/waitlist"
	"labbook/internal/usecase/commands"

	"github.com/google/uuid"
)

type WaitlistEntryResponse struct {
	ID               uuid.UUID `json:"id"`
	ResourceID       uuid.UUID `json:"resource_id"`
	DesiredStart     time.Time `json:"desired_start"`
	DesiredEnd       time.Time `json:"desired_end"`
	FlexibleStart    bool      `json:"flexible_start"`
	FlexibleDuration bool      `json:"flexible_duration"`
	MinDurationMin   int       `json:"min_duration_min"`
	Priority         int       `json:"priority"`
	AutoBook         bool      `json:"auto_book"`
	Status           string    `json:"status"`
	TimesNotified    int       `json:"times_notified"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

func FromWaitlistEntry(entry *waitlist.Entry) *WaitlistEntryResponse {
	return &WaitlistEntryResponse{
		ID:               entry.ID(),
		ResourceID:       entry.ResourceID(),
		DesiredStart:     entry.Desired().Start,
		DesiredEnd:       entry.Desired().End,
		FlexibleStart:    entry.FlexibleStart(),
		FlexibleDuration: entry.FlexibleDuration(),
		MinDurationMin:   int(entry.MinDuration().Minutes()),
		Priority:         int(entry.Priority()),
		AutoBook:         entry.AutoBook(),
		Status:           string(entry.Status()),
		TimesNotified:    entry.TimesNotified(),
		ExpiresAt:        entry.ExpiresAt(),
		CreatedAt:        entry.CreatedAt(),
	}
}

func FromWaitlistEntries(entries []*waitlist.Entry) []*WaitlistEntryResponse {
	out := make([]*WaitlistEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = FromWaitlistEntry(e)
	}
	return out
}

type SweepReportResponse struct {
	Notified   int `json:"notified"`
	AutoBooked int `json:"auto_booked"`
	Expired    int `json:"expired"`
}

func FromSweepReport(report *commands.SweepReport) *SweepReportResponse {
	return &SweepReportResponse{
		Notified:   report.Notified,
		AutoBooked: report.AutoBooked,
		Expired:    report.Expired,
	}
}

type OfferOutcomeResponse struct {
	Accepted    bool                 `json:"accepted"`
	Reservation *ReservationResponse `json:"reservation,omitempty"`
}
