package api

import (
	"errors"
	"net/http"

	"labbook/internal/domain/booking"
	reqdto "labbook/internal/handler/dto/request"
	resdto "labbook/internal/handler/dto/response"
	"labbook/internal/handler/httperr"
	"labbook/internal/handler/middleware"
	"labbook/internal/usecase/commands"
	"labbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errIdentityMissing = errors.New("identity not set on request context")

type BookingHandler struct {
	bookings    commands.BookingCommands
	recurrence  commands.RecurrenceCommands
	reservation queries.ReservationQueries
}

func NewBookingHandler(
	bookings commands.BookingCommands,
	recurrence commands.RecurrenceCommands,
	reservation queries.ReservationQueries,
) *BookingHandler {
	return &BookingHandler{
		bookings:    bookings,
		recurrence:  recurrence,
		reservation: reservation,
	}
}

// CreateReservation books a slot. A conflicted attempt is a successful HTTP
// exchange: 409 with the conflicts and alternative suggestions in the body.
func (h *BookingHandler) CreateReservation(c *gin.Context) {
	userID, role, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req reqdto.CreateReservationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	result, err := h.bookings.Create(c.Request.Context(), commands.CreateReservationParams{
		ResourceID: req.ResourceID,
		OwnerID:    userID,
		OwnerRole:  role,
		Title:      req.Title,
		Start:      req.StartTime,
		End:        req.EndTime,
		Attendees:  req.Attendees,
	})
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrResourceNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Resource not found", nil)
		case errors.Is(err, commands.ErrResourceUnavailable):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Resource not available for this user", nil)
		case errors.Is(err, commands.ErrInvalidTimeSlot):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid time slot", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	if result.Conflicted() {
		c.JSON(http.StatusConflict, resdto.FromConflictedResult(result))
		return
	}
	c.JSON(http.StatusCreated, resdto.FromReservation(result.Reservation))
}

func (h *BookingHandler) GetReservation(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	res, err := h.reservation.ByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrReservationNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservation(res))
}

func (h *BookingHandler) GetUserReservations(c *gin.Context) {
	userID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	list, err := h.reservation.ByOwner(c.Request.Context(), userID, 0)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	response := make([]*resdto.ReservationResponse, len(list))
	for i, res := range list {
		response[i] = resdto.FromReservation(res)
	}
	c.JSON(http.StatusOK, response)
}

func (h *BookingHandler) CancelReservation(c *gin.Context) {
	userID, role, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	err := h.bookings.Cancel(c.Request.Context(), id, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrReservationNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found", nil)
		case errors.Is(err, commands.ErrNotOwner):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Reservation belongs to another user", nil)
		case errors.Is(err, commands.ErrAlreadyCancelled):
			httperr.AbortWithError(c, http.StatusConflict, err, "Reservation is already cancelled", nil)
		case errors.Is(err, commands.ErrNotCancellable):
			httperr.AbortWithError(c, http.StatusConflict, err, "Reservation cannot be cancelled in its current state", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// MaterializeSeries expands a recurrence rule anchored at an existing
// reservation. 409 carries the per-occurrence conflicts when the expansion
// was rolled back.
func (h *BookingHandler) MaterializeSeries(c *gin.Context) {
	userID, role, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req reqdto.MaterializeSeriesRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	result, err := h.recurrence.MaterializeSeries(c.Request.Context(), commands.MaterializeSeriesParams{
		ReservationID: id,
		RequesterID:   userID,
		RequesterRole: role,
		Rule:          req.Rule.ToRule(),
		SkipConflicts: req.SkipConflicts,
	})
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrSeriesConflict):
			httperr.AbortWithError(c, http.StatusConflict, err, "Recurring series conflicts with existing bookings", resdto.FromSeriesResult(result))
		case errors.Is(err, commands.ErrInvalidRule):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid recurrence rule", nil)
		case errors.Is(err, commands.ErrReservationNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found", nil)
		case errors.Is(err, commands.ErrNotOwner):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Reservation belongs to another user", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.JSON(http.StatusCreated, resdto.FromSeriesResult(result))
}

func (h *BookingHandler) GetSeries(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	members, err := h.reservation.SeriesOf(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrReservationNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	resp := resdto.SeriesListResponse{Members: make([]*resdto.ReservationResponse, len(members))}
	for i, m := range members {
		resp.Members[i] = resdto.FromReservation(m)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) CancelSeries(c *gin.Context) {
	userID, role, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	futureOnly := c.Query("future_only") != "false"

	cancelled, err := h.recurrence.CancelSeries(c.Request.Context(), id, userID, role, futureOnly)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrReservationNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found", nil)
		case errors.Is(err, commands.ErrNotRecurring):
			httperr.AbortWithError(c, http.StatusConflict, err, "Reservation is not part of a recurring series", nil)
		case errors.Is(err, commands.ErrNotOwner):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Reservation belongs to another user", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func requireIdentity(c *gin.Context) (uuid.UUID, booking.Role, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errIdentityMissing, "Internal server error", nil)
		return uuid.Nil, "", false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errIdentityMissing, "Internal server error", nil)
		return uuid.Nil, "", false
	}
	return userID, role, true
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}
