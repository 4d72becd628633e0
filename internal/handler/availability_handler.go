package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorlane/tutorhub-api/internal/service"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
	"github.com/tutorlane/tutorhub-api/pkg/response"
)

// AvailabilityHandler exposes conflict detection and availability windows.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
	checkTimeout time.Duration
}

// NewAvailabilityHandler creates a new handler. checkTimeout bounds one full
// check including the alternative-tutor scan; zero means no deadline.
func NewAvailabilityHandler(availability *service.AvailabilityService, checkTimeout time.Duration) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, checkTimeout: checkTimeout}
}

// Check godoc
// @Summary Run the full availability check for a booking request
// @Description Returns conflicts, suggestions, and alternative tutors for the requested slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body service.AvailabilityCheckRequest true "Booking request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/check [post]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	var req service.AvailabilityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	ctx := c.Request.Context()
	if h.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.checkTimeout)
		defer cancel()
	}

	result, err := h.availability.PerformFullCheck(ctx, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Alternatives godoc
// @Summary Find alternative tutors for a time range
// @Tags Availability
// @Produce json
// @Param tutorId query string true "Original tutor id"
// @Param start query string true "Range start (RFC3339)"
// @Param end query string true "Range end (RFC3339)"
// @Param studentIds query []string false "Enrolled student ids"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/alternatives [get]
func (h *AvailabilityHandler) Alternatives(c *gin.Context) {
	tutorID := c.Query("tutorId")
	if tutorID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tutorId is required"))
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end must be RFC3339"))
		return
	}
	if !end.After(start) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end must be after start"))
		return
	}

	candidates, err := h.availability.FindAlternativeTutors(c.Request.Context(), tutorID, start, end, c.QueryArray("studentIds"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, nil)
}

// ListWindows godoc
// @Summary List a tutor's weekly availability windows
// @Tags Availability
// @Produce json
// @Param id path string true "Tutor id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutors/{id}/availability [get]
func (h *AvailabilityHandler) ListWindows(c *gin.Context) {
	windows, err := h.availability.ListWindows(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}

// AddWindow godoc
// @Summary Add a weekly availability window for a tutor
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Tutor id"
// @Param payload body service.CreateWindowRequest true "Window payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tutors/{id}/availability [post]
func (h *AvailabilityHandler) AddWindow(c *gin.Context) {
	var req service.CreateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	window, err := h.availability.AddWindow(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// RemoveWindow godoc
// @Summary Remove one of a tutor's availability windows
// @Tags Availability
// @Param id path string true "Tutor id"
// @Param windowId path string true "Window id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /tutors/{id}/availability/{windowId} [delete]
func (h *AvailabilityHandler) RemoveWindow(c *gin.Context) {
	if err := h.availability.RemoveWindow(c.Request.Context(), c.Param("id"), c.Param("windowId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
