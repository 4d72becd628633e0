package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorlane/tutorhub-api/internal/models"
	"github.com/tutorlane/tutorhub-api/internal/service"
	appErrors "github.com/tutorlane/tutorhub-api/pkg/errors"
	"github.com/tutorlane/tutorhub-api/pkg/response"
)

const statusCacheTTL = 5 * time.Minute

// LessonHandler exposes lesson CRUD and derived status flags.
type LessonHandler struct {
	lessons *service.LessonService
	status  *service.LessonStatusService
	cache   *service.CacheService
}

// NewLessonHandler creates a new handler.
func NewLessonHandler(lessons *service.LessonService, status *service.LessonStatusService, cache *service.CacheService) *LessonHandler {
	return &LessonHandler{lessons: lessons, status: status, cache: cache}
}

// List godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Param tutorId query string false "Filter by tutor"
// @Param studentId query string false "Filter by enrolled student"
// @Param status query string false "Filter by status"
// @Param from query string false "Start of range (RFC3339)"
// @Param to query string false "End of range (RFC3339)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	filter := models.LessonFilter{
		TutorID:   c.Query("tutorId"),
		StudentID: c.Query("studentId"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.LessonStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be RFC3339"))
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be RFC3339"))
			return
		}
		filter.To = &to
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	lessons, pagination, err := h.lessons.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, pagination)
}

// Get godoc
// @Summary Get one lesson with its roster
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, studentIDs, err := h.lessons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"lesson": lesson, "student_ids": studentIDs}, nil)
}

// Create godoc
// @Summary Book a lesson
// @Description Runs the full availability check; a conflicted request is rejected unless an admin sets force
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req service.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.Force && !isAdmin(c) {
		req.Force = false
	}

	lesson, check, err := h.lessons.Create(c.Request.Context(), req)
	if err != nil {
		if check != nil {
			appErr := appErrors.FromError(err)
			c.JSON(appErr.Status, response.Envelope{Error: appErr, Data: check})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"lesson": lesson, "check": check})
}

// Update godoc
// @Summary Reschedule or retitle a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson id"
// @Param payload body service.UpdateLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req service.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.Force && !isAdmin(c) {
		req.Force = false
	}

	lesson, check, err := h.lessons.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if check != nil {
			appErr := appErrors.FromError(err)
			c.JSON(appErr.Status, response.Envelope{Error: appErr, Data: check})
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"lesson": lesson, "check": check}, nil)
}

// UpdateStatus godoc
// @Summary Transition a lesson's lifecycle status
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson id"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/status [patch]
func (h *LessonHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status models.LessonStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.lessons.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": req.Status}, nil)
}

// AttendanceStatus godoc
// @Summary Derive attendance flags for a set of lessons
// @Description Batched aggregation; ids from a failed batch are absent from the map
// @Tags Lessons
// @Produce json
// @Param ids query string true "Comma-separated lesson ids"
// @Success 200 {object} response.Envelope
// @Router /lessons/status/attendance [get]
func (h *LessonHandler) AttendanceStatus(c *gin.Context) {
	ids := splitIDs(c.Query("ids"))
	cacheKey := h.status.CacheKey(ids)

	if cacheKey != "" {
		var cached map[string]models.LessonStatusFlags
		if hit, err := h.cache.Get(c.Request.Context(), "lesson_status:attendance:"+cacheKey, &cached); err == nil && hit {
			response.JSON(c, http.StatusOK, cached, nil, map[string]interface{}{"cache_key": cacheKey, "cached": true})
			return
		}
	}

	flags, cacheKey, err := h.status.AttendanceFlags(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	if cacheKey != "" {
		_ = h.cache.Set(c.Request.Context(), "lesson_status:attendance:"+cacheKey, flags, statusCacheTTL)
	}
	response.JSON(c, http.StatusOK, flags, nil, map[string]interface{}{"cache_key": cacheKey})
}

// CompletionStatus godoc
// @Summary Derive completion flags for a set of lessons
// @Tags Lessons
// @Produce json
// @Param ids query string true "Comma-separated lesson ids"
// @Success 200 {object} response.Envelope
// @Router /lessons/status/completion [get]
func (h *LessonHandler) CompletionStatus(c *gin.Context) {
	ids := splitIDs(c.Query("ids"))
	cacheKey := h.status.CacheKey(ids)

	if cacheKey != "" {
		var cached map[string]bool
		if hit, err := h.cache.Get(c.Request.Context(), "lesson_status:completion:"+cacheKey, &cached); err == nil && hit {
			response.JSON(c, http.StatusOK, cached, nil, map[string]interface{}{"cache_key": cacheKey, "cached": true})
			return
		}
	}

	flags, cacheKey, err := h.status.CompletionFlags(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	if cacheKey != "" {
		_ = h.cache.Set(c.Request.Context(), "lesson_status:completion:"+cacheKey, flags, statusCacheTTL)
	}
	response.JSON(c, http.StatusOK, flags, nil, map[string]interface{}{"cache_key": cacheKey})
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
