package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/services"
	"github.com/praxis-edu/practice-service/internal/utils"
)

// PracticeHandler serves the student-facing practice loop: start a session,
// answer questions one at a time, end the session, read progress.
type PracticeHandler struct {
	BaseHandler
	selector    services.SelectorService
	grading     services.GradingService
	session     services.SessionService
	progress    services.ProgressService
	achievement services.AchievementService
}

func NewPracticeHandler(
	sm services.ServiceManager,
	logger utils.Logger,
) *PracticeHandler {
	return &PracticeHandler{
		BaseHandler: NewBaseHandler(logger),
		selector:    sm.Selector(),
		grading:     sm.Grading(),
		session:     sm.Session(),
		progress:    sm.Progress(),
		achievement: sm.Achievement(),
	}
}

type endSessionRequest struct {
	SessionID uint `json:"session_id" validate:"required"`
}

// StartSession begins a new practice session
// @Router /practice/session/start [post]
func (h *PracticeHandler) StartSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting practice session", "mode", req.Mode)

	resp, err := h.selector.StartSession(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SubmitAnswer grades one answer within a session
// @Router /practice/answer [post]
func (h *PracticeHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.grading.SubmitAnswer(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EndSession finalizes a session and returns the summary statistics
// @Router /practice/session/end [post]
func (h *PracticeHandler) EndSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req endSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: "session_id is required",
		})
		return
	}

	h.LogRequest(c, "Ending practice session", "session_id", req.SessionID)

	resp, err := h.session.EndSession(c.Request.Context(), req.SessionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProgress returns the aggregate dashboard for the current user
// @Router /practice/progress [get]
func (h *PracticeHandler) GetProgress(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.progress.GetProgress(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetHistory lists the current user's past sessions
// @Router /practice/sessions [get]
func (h *PracticeHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, offset := parsePagination(c)
	filters := repositories.SessionFilters{
		Limit:     limit,
		Offset:    offset,
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if mode := c.Query("mode"); mode != "" {
		m := models.SessionMode(mode)
		filters.Mode = &m
	}
	if status := c.Query("status"); status != "" {
		st := models.SessionStatus(status)
		filters.Status = &st
	}
	if from := c.Query("date_from"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filters.DateFrom = &ts
		}
	}
	if to := c.Query("date_to"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filters.DateTo = &ts
		}
	}

	sessions, total, err := h.session.GetHistory(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: sessions, Total: total})
}

// GetAchievements lists the current user's earned achievements
// @Router /practice/achievements [get]
func (h *PracticeHandler) GetAchievements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	awards, err := h.achievement.GetByUser(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: awards, Total: int64(len(awards))})
}

// parseOptionalUintQuery reads an optional numeric query param.
func parseOptionalUintQuery(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(value)
	return &id
}
