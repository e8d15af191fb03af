package request

import (
	"time"

	"labbook/internal/domain/waitlist"

	"github.com/google/uuid"
)

type EnrollWaitlistRequest struct {
	ResourceID       uuid.UUID `json:"resource_id" binding:"required"`
	DesiredStart     time.Time `json:"desired_start" binding:"required"`
	DesiredEnd       time.Time `json:"desired_end" binding:"required"`
	FlexibleStart    bool      `json:"flexible_start"`
	FlexibleDuration bool      `json:"flexible_duration"`
	MinDurationMin   int       `json:"min_duration_min"`
	MaxWaitDays      int       `json:"max_wait_days"`
	Priority         int       `json:"priority"`
	AutoBook         bool      `json:"auto_book"`
}

func (r EnrollWaitlistRequest) ToOptions() waitlist.Options {
	return waitlist.Options{
		FlexibleStart:    r.FlexibleStart,
		FlexibleDuration: r.FlexibleDuration,
		MinDuration:      time.Duration(r.MinDurationMin) * time.Minute,
		MaxWaitDays:      r.MaxWaitDays,
		Priority:         waitlist.Priority(r.Priority),
		AutoBook:         r.AutoBook,
	}
}

type RespondOfferRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}
