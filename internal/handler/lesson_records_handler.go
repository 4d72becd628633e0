package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorlane/tutorhub-api/internal/service"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
	"github.com/tutorlane/tutorhub-api/pkg/response"
)

// LessonRecordsHandler exposes the per-lesson attendance and homework rows.
type LessonRecordsHandler struct {
	records *service.LessonRecordsService
	cache   *service.CacheService
}

// NewLessonRecordsHandler creates a new handler.
func NewLessonRecordsHandler(records *service.LessonRecordsService, cache *service.CacheService) *LessonRecordsHandler {
	return &LessonRecordsHandler{records: records, cache: cache}
}

// ListAttendance godoc
// @Summary List attendance for a lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id}/attendance [get]
func (h *LessonRecordsHandler) ListAttendance(c *gin.Context) {
	records, err := h.records.ListAttendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// MarkAttendance godoc
// @Summary Record a student's attendance for a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.MarkAttendanceRequest true "Attendance mark"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id}/attendance [put]
func (h *LessonRecordsHandler) MarkAttendance(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	record, err := h.records.MarkAttendance(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Derived status flags for any set containing this lesson are stale now.
	_ = h.cache.Invalidate(c.Request.Context(), "lesson_status:*")
	response.JSON(c, http.StatusOK, record, nil)
}

// ListHomework godoc
// @Summary List homework for a lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id}/homework [get]
func (h *LessonRecordsHandler) ListHomework(c *gin.Context) {
	items, err := h.records.ListHomework(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// AddHomework godoc
// @Summary Attach a homework item to a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.CreateHomeworkRequest true "Homework item"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id}/homework [post]
func (h *LessonRecordsHandler) AddHomework(c *gin.Context) {
	var req service.CreateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	hw, err := h.records.AddHomework(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	_ = h.cache.Invalidate(c.Request.Context(), "lesson_status:completion:*")
	response.JSON(c, http.StatusCreated, hw, nil)
}
