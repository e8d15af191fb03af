package response

import (
	"time"

	"labbook/internal/domain/booking"
	"labbook/internal/domain/schedule"
	"labbook/internal/usecase/commands"

	"github.com/google/uuid"
)

type ReservationResponse struct {
	ID          uuid.UUID   `json:"id"`
	ResourceID  uuid.UUID   `json:"resource_id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	OwnerRole   string      `json:"owner_role"`
	Title       string      `json:"title"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Status      string      `json:"status"`
	IsRecurring bool        `json:"is_recurring"`
	Attendees   []uuid.UUID `json:"attendees,omitempty"`
}

func FromReservation(res *booking.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:          res.ID(),
		ResourceID:  res.ResourceID(),
		OwnerID:     res.OwnerID(),
		OwnerRole:   string(res.OwnerRole()),
		Title:       res.Title().String(),
		StartTime:   res.Slot().Start(),
		EndTime:     res.Slot().End(),
		Status:      string(res.Status()),
		IsRecurring: res.IsRecurring(),
		Attendees:   res.AttendeeIDs(),
	}
}

type IntervalResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func FromInterval(iv schedule.Interval) IntervalResponse {
	return IntervalResponse{Start: iv.Start, End: iv.End}
}

func FromIntervals(ivs []schedule.Interval) []IntervalResponse {
	out := make([]IntervalResponse, len(ivs))
	for i, iv := range ivs {
		out[i] = FromInterval(iv)
	}
	return out
}

type ConflictResponse struct {
	Kind     string           `json:"kind"`
	WithID   uuid.UUID        `json:"with_id"`
	Overlap  IntervalResponse `json:"overlap"`
	Blocking IntervalResponse `json:"blocking"`
}

func FromConflicts(conflicts []schedule.Conflict) []ConflictResponse {
	out := make([]ConflictResponse, len(conflicts))
	for i, c := range conflicts {
		out[i] = ConflictResponse{
			Kind:     string(c.Kind),
			WithID:   c.WithID,
			Overlap:  FromInterval(c.Overlap),
			Blocking: FromInterval(c.Blocking),
		}
	}
	return out
}

type AlternativeResourceResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

type ConflictedBookingResponse struct {
	Conflicts            []ConflictResponse            `json:"conflicts"`
	AlternativeTimes     []IntervalResponse            `json:"alternative_times,omitempty"`
	AlternativeResources []AlternativeResourceResponse `json:"alternative_resources,omitempty"`
}

func FromConflictedResult(result *commands.CreateReservationResult) *ConflictedBookingResponse {
	resp := &ConflictedBookingResponse{
		Conflicts: FromConflicts(result.Conflicts),
	}
	if result.Alternatives != nil {
		resp.AlternativeTimes = FromIntervals(result.Alternatives.Times)
		for _, res := range result.Alternatives.Resources {
			resp.AlternativeResources = append(resp.AlternativeResources, AlternativeResourceResponse{
				ID:   res.ID,
				Name: res.Name,
				Type: res.ResourceType,
			})
		}
	}
	return resp
}

type SeriesResponse struct {
	Created   []*ReservationResponse   `json:"created"`
	Skipped   []time.Time              `json:"skipped,omitempty"`
	Conflicts []SeriesConflictResponse `json:"conflicts,omitempty"`
}

type SeriesConflictResponse struct {
	Instant   time.Time          `json:"instant"`
	Conflicts []ConflictResponse `json:"conflicts"`
}

func FromSeriesResult(result *commands.MaterializeSeriesResult) *SeriesResponse {
	resp := &SeriesResponse{
		Created: make([]*ReservationResponse, len(result.Created)),
		Skipped: result.Skipped,
	}
	for i, res := range result.Created {
		resp.Created[i] = FromReservation(res)
	}
	for _, oc := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, SeriesConflictResponse{
			Instant:   oc.Instant,
			Conflicts: FromConflicts(oc.Conflicts),
		})
	}
	return resp
}
