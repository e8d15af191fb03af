package request

import (
	"time"

	"labbook/internal/domain/schedule"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	ResourceID uuid.UUID   `json:"resource_id" binding:"required"`
	Title      string      `json:"title"`
	StartTime  time.Time   `json:"start_time" binding:"required"`
	EndTime    time.Time   `json:"end_time" binding:"required"`
	Attendees  []uuid.UUID `json:"attendees"`
}

type RecurrenceRuleRequest struct {
	Frequency  string     `json:"frequency" binding:"required"`
	Interval   int        `json:"interval"`
	Count      *int       `json:"count,omitempty"`
	Until      *time.Time `json:"until,omitempty"`
	ByWeekdays []int      `json:"by_weekdays,omitempty"`
	ByMonthDay *int       `json:"by_month_day,omitempty"`
	ByMonth    *int       `json:"by_month,omitempty"`
}

type MaterializeSeriesRequest struct {
	Rule          RecurrenceRuleRequest `json:"rule" binding:"required"`
	SkipConflicts bool                  `json:"skip_conflicts"`
}

func (r RecurrenceRuleRequest) ToRule() schedule.Rule {
	interval := r.Interval
	if interval == 0 {
		interval = 1
	}
	weekdays := make([]time.Weekday, len(r.ByWeekdays))
	for i, wd := range r.ByWeekdays {
		weekdays[i] = time.Weekday(wd)
	}
	return schedule.Rule{
		Frequency:  schedule.Frequency(r.Frequency),
		Interval:   interval,
		Count:      r.Count,
		Until:      r.Until,
		ByWeekdays: weekdays,
		ByMonthDay: r.ByMonthDay,
		ByMonth:    r.ByMonth,
	}
}
