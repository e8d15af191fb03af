package response

import (
	"labbook/internal/domain/schedule"
	"labbook/internal/usecase/queries"

	"github.com/google/uuid"
)

type FreeGapsResponse struct {
	ResourceID uuid.UUID          `json:"resource_id"`
	Gaps       []IntervalResponse `json:"gaps"`
}

type ConflictPairResponse struct {
	FirstID  uuid.UUID        `json:"first_id"`
	SecondID uuid.UUID        `json:"second_id"`
	Overlap  IntervalResponse `json:"overlap"`
}

func FromConflictPairs(pairs []schedule.ReservationPair) []ConflictPairResponse {
	out := make([]ConflictPairResponse, len(pairs))
	for i, p := range pairs {
		out[i] = ConflictPairResponse{
			FirstID:  p.First.ID,
			SecondID: p.Second.ID,
			Overlap:  FromInterval(p.Overlap),
		}
	}
	return out
}

type ResolutionResponse struct {
	Strategy        string             `json:"strategy"`
	KeepID          uuid.UUID          `json:"keep_id"`
	RescheduleID    uuid.UUID          `json:"reschedule_id"`
	KeepScore       int                `json:"keep_score"`
	RescheduleScore int                `json:"reschedule_score"`
	Overlap         IntervalResponse   `json:"overlap"`
	Suggestions     []IntervalResponse `json:"suggestions,omitempty"`
}

type BulkResolutionResponse struct {
	Resolutions []ResolutionResponse `json:"resolutions"`
	Auto        int                  `json:"auto"`
	Manual      int                  `json:"manual"`
}

func FromBulkResolution(report *queries.BulkResolutionReport) *BulkResolutionResponse {
	resp := &BulkResolutionResponse{Auto: report.Auto, Manual: report.Manual}
	for _, rp := range report.Pairs {
		resp.Resolutions = append(resp.Resolutions, ResolutionResponse{
			Strategy:        rp.Resolution.Strategy,
			KeepID:          rp.Resolution.Keep.ID,
			RescheduleID:    rp.Resolution.Reschedule.ID,
			KeepScore:       rp.Resolution.KeepScore,
			RescheduleScore: rp.Resolution.RescheduleScore,
			Overlap:         FromInterval(rp.Pair.Overlap),
			Suggestions:     FromIntervals(rp.Suggestions),
		})
	}
	return resp
}

type SeriesListResponse struct {
	Members []*ReservationResponse `json:"members"`
}

type SlotCheckResponse struct {
	Free      bool               `json:"free"`
	Conflicts []ConflictResponse `json:"conflicts,omitempty"`
}

func FromSlotCheck(conflicts []schedule.Conflict) *SlotCheckResponse {
	return &SlotCheckResponse{
		Free:      len(conflicts) == 0,
		Conflicts: FromConflicts(conflicts),
	}
}
