package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorlane/tutorhub-api/internal/models"
	"github.com/tutorlane/tutorhub-api/internal/service"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
	"github.com/tutorlane/tutorhub-api/pkg/response"
)

// TimeOffHandler exposes time-off requests and conflict resolution.
type TimeOffHandler struct {
	timeOff *service.TimeOffService
}

// NewTimeOffHandler creates a new handler.
func NewTimeOffHandler(timeOff *service.TimeOffService) *TimeOffHandler {
	return &TimeOffHandler{timeOff: timeOff}
}

// List godoc
// @Summary List time-off requests
// @Tags TimeOff
// @Produce json
// @Param tutorId query string false "Filter by tutor"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /time-off [get]
func (h *TimeOffHandler) List(c *gin.Context) {
	filter := models.TimeOffFilter{TutorID: c.Query("tutorId")}
	if raw := c.Query("status"); raw != "" {
		status := models.TimeOffStatus(raw)
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	requests, pagination, err := h.timeOff.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Create godoc
// @Summary Request time off
// @Tags TimeOff
// @Accept json
// @Produce json
// @Param payload body service.CreateTimeOffRequest true "Time-off payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /time-off [post]
func (h *TimeOffHandler) Create(c *gin.Context) {
	var req service.CreateTimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	request, err := h.timeOff.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// UpdateStatus godoc
// @Summary Approve or reject a time-off request
// @Description Approval returns the scheduled lessons the window invalidates
// @Tags TimeOff
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body service.UpdateTimeOffStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /time-off/{id}/status [patch]
func (h *TimeOffHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateTimeOffStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	request, conflicts, err := h.timeOff.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"request": request, "impacted_lessons": conflicts}, nil)
}

// Delete godoc
// @Summary Cancel a pending time-off request
// @Tags TimeOff
// @Accept json
// @Param id path string true "Request id"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /time-off/{id} [delete]
func (h *TimeOffHandler) Delete(c *gin.Context) {
	var req struct {
		TutorID string `json:"tutor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.timeOff.Delete(c.Request.Context(), c.Param("id"), req.TutorID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Resolve godoc
// @Summary Apply resolutions for lessons invalidated by approved time off
// @Description Entries are independent; one failure does not abort the rest
// @Tags TimeOff
// @Accept json
// @Produce json
// @Param payload body []models.ConflictResolution true "Resolutions"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /time-off/resolutions [post]
func (h *TimeOffHandler) Resolve(c *gin.Context) {
	var resolutions []models.ConflictResolution
	if err := c.ShouldBindJSON(&resolutions); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	adminID := ""
	if claims != nil {
		adminID = claims.UserID
	}

	outcomes, err := h.timeOff.ResolveAll(c.Request.Context(), resolutions, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcomes, nil)
}
