package shared

import (
	"time"

	"labbook/internal/domain/schedule"
	"labbook/internal/domain/waitlist"
	"labbook/internal/pkg/config"
)

// PolicyFrom projects the configured booking constants into the domain
// policy value the scheduling functions take.
func PolicyFrom(cfg config.BookingConfig) schedule.Policy {
	return schedule.Policy{
		WorkdayStart:   time.Duration(cfg.WorkdayStartHour) * time.Hour,
		WorkdayEnd:     time.Duration(cfg.WorkdayEndHour) * time.Hour,
		Buffer:         cfg.Buffer,
		MinGap:         cfg.MinGap,
		MaxSuggestions: cfg.MaxSuggestions,
	}
}

func WaitlistDefaultsFrom(cfg config.BookingConfig) waitlist.Defaults {
	return waitlist.Defaults{
		MinDuration: cfg.WaitlistMinDuration,
		MaxWaitDays: cfg.WaitlistMaxWaitDays,
		Priority:    waitlist.PriorityNormal,
	}
}
