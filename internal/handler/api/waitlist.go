package api

import (
	"errors"
	"net/http"

	reqdto "labbook/internal/handler/dto/request"
	resdto "labbook/internal/handler/dto/response"
	"labbook/internal/handler/httperr"
	"labbook/internal/usecase/commands"
	"labbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type WaitlistHandler struct {
	waitlist commands.WaitlistCommands
	views    queries.WaitlistQueries
}

func NewWaitlistHandler(waitlist commands.WaitlistCommands, views queries.WaitlistQueries) *WaitlistHandler {
	return &WaitlistHandler{
		waitlist: waitlist,
		views:    views,
	}
}

func (h *WaitlistHandler) Enroll(c *gin.Context) {
	userID, role, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req reqdto.EnrollWaitlistRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	entry, err := h.waitlist.Enroll(c.Request.Context(), commands.EnrollParams{
		UserID:       userID,
		UserRole:     role,
		ResourceID:   req.ResourceID,
		DesiredStart: req.DesiredStart,
		DesiredEnd:   req.DesiredEnd,
		Options:      req.ToOptions(),
	})
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrResourceNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Resource not found", nil)
		case errors.Is(err, commands.ErrDuplicateEntry):
			httperr.AbortWithError(c, http.StatusConflict, err, "An active waiting list entry already exists for this slot", nil)
		case errors.Is(err, commands.ErrInvalidTimeSlot):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid desired window", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.JSON(http.StatusCreated, resdto.FromWaitlistEntry(entry))
}

func (h *WaitlistHandler) GetUserEntries(c *gin.Context) {
	userID, _, ok := requireIdentity(c)
	if !ok {
		return
	}

	entries, err := h.views.EntriesByUser(c.Request.Context(), userID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromWaitlistEntries(entries))
}

func (h *WaitlistHandler) CancelEntry(c *gin.Context) {
	userID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	err := h.waitlist.CancelEntry(c.Request.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrEntryNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Waiting list entry not found", nil)
		case errors.Is(err, commands.ErrNotOwner):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Waiting list entry belongs to another user", nil)
		case errors.Is(err, commands.ErrEntryNotCancellable):
			httperr.AbortWithError(c, http.StatusConflict, err, "Waiting list entry cannot be cancelled in its current state", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// RespondToOffer accepts or declines a slot offer. Responding twice yields
// 409; an expired offer yields 410.
func (h *WaitlistHandler) RespondToOffer(c *gin.Context) {
	userID, _, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req reqdto.RespondOfferRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil || req.Accept == nil {
		if bindErr == nil {
			bindErr = errors.New("accept field is required")
		}
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	outcome, err := h.waitlist.RespondToOffer(c.Request.Context(), id, userID, *req.Accept)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrOfferNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Offer not found", nil)
		case errors.Is(err, commands.ErrOfferNotForUser):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Offer belongs to another user", nil)
		case errors.Is(err, commands.ErrOfferAlreadyHandled):
			httperr.AbortWithError(c, http.StatusConflict, err, "Offer has already been responded to", nil)
		case errors.Is(err, commands.ErrOfferExpired):
			httperr.AbortWithError(c, http.StatusGone, err, "Offer has expired", nil)
		case errors.Is(err, commands.ErrOfferSlotTaken):
			httperr.AbortWithError(c, http.StatusConflict, err, "Offered slot is no longer free", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	resp := resdto.OfferOutcomeResponse{Accepted: *req.Accept}
	if outcome.Reservation != nil {
		resp.Reservation = resdto.FromReservation(outcome.Reservation)
	}
	c.JSON(http.StatusOK, resp)
}

// Sweep triggers a waiting list pass over every resource with active
// entries. Normally the cron worker does this; the endpoint exists for
// operators.
func (h *WaitlistHandler) Sweep(c *gin.Context) {
	report, err := h.waitlist.ProcessAll(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSweepReport(report))
}
