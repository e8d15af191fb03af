package api

import (
	"errors"
	"net/http"
	"time"

	"labbook/internal/domain/schedule"
	resdto "labbook/internal/handler/dto/response"
	"labbook/internal/handler/httperr"
	"labbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	availability queries.AvailabilityQueries
	resolution   queries.ResolutionQueries
}

func NewAvailabilityHandler(availability queries.AvailabilityQueries, resolution queries.ResolutionQueries) *AvailabilityHandler {
	return &AvailabilityHandler{
		availability: availability,
		resolution:   resolution,
	}
}

func (h *AvailabilityHandler) GetFreeGaps(c *gin.Context) {
	resourceID, ok := parseIDParam(c)
	if !ok {
		return
	}

	gaps, err := h.availability.FreeGaps(c.Request.Context(), resourceID)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrResourceNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Resource not found", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, resdto.FreeGapsResponse{
		ResourceID: resourceID,
		Gaps:       resdto.FromIntervals(gaps),
	})
}

// CheckSlot answers "would this booking succeed right now" without booking.
func (h *AvailabilityHandler) CheckSlot(c *gin.Context) {
	resourceID, ok := parseIDParam(c)
	if !ok {
		return
	}
	candidate, ok := parseRangeQuery(c)
	if !ok {
		return
	}

	conflicts, err := h.availability.CheckSlot(c.Request.Context(), resourceID, candidate)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrResourceNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Resource not found", nil)
		case errors.Is(err, queries.ErrInvalidRange):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid time range", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromSlotCheck(conflicts))
}

func (h *AvailabilityHandler) GetRangeConflicts(c *gin.Context) {
	resourceID, ok := parseIDParam(c)
	if !ok {
		return
	}
	within, ok := parseRangeQuery(c)
	if !ok {
		return
	}

	pairs, err := h.resolution.RangeConflicts(c.Request.Context(), resourceID, within)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrResourceNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Resource not found", nil)
		case errors.Is(err, queries.ErrInvalidRange):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid time range", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromConflictPairs(pairs))
}

// BulkResolve proposes resolutions for every conflicting pair in a range.
// The report is advisory; nothing is rescheduled.
func (h *AvailabilityHandler) BulkResolve(c *gin.Context) {
	resourceID, ok := parseIDParam(c)
	if !ok {
		return
	}
	within, ok := parseRangeQuery(c)
	if !ok {
		return
	}

	report, err := h.resolution.BulkResolve(c.Request.Context(), resourceID, within)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrResourceNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Resource not found", nil)
		case errors.Is(err, queries.ErrInvalidRange):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid time range", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromBulkResolution(report))
}

func parseRangeQuery(c *gin.Context) (schedule.Interval, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid or missing start parameter", nil)
		return schedule.Interval{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid or missing end parameter", nil)
		return schedule.Interval{}, false
	}
	return schedule.Interval{Start: start, End: end}, true
}
