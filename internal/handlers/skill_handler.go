package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/services"
	"github.com/praxis-edu/practice-service/internal/utils"
)

type SkillHandler struct {
	BaseHandler
	skillService services.SkillService
}

func NewSkillHandler(skillService services.SkillService, logger utils.Logger) *SkillHandler {
	return &SkillHandler{
		BaseHandler:  NewBaseHandler(logger),
		skillService: skillService,
	}
}

// CreateSkill creates a new skill
// @Router /skills [post]
func (h *SkillHandler) CreateSkill(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating skill", "name", req.Name)

	skill, err := h.skillService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, skill)
}

// GetSkill returns one skill with its question count
// @Router /skills/{id} [get]
func (h *SkillHandler) GetSkill(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	skill, err := h.skillService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, skill)
}

// UpdateSkill edits skill metadata
// @Router /skills/{id} [put]
func (h *SkillHandler) UpdateSkill(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	skill, err := h.skillService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, skill)
}

// DeleteSkill removes a skill without questions
// @Router /skills/{id} [delete]
func (h *SkillHandler) DeleteSkill(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.skillService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Skill deleted", nil)
}

// ListSkills lists skills with optional grade/unit filters
// @Router /skills [get]
func (h *SkillHandler) ListSkills(c *gin.Context) {
	limit, offset := parsePagination(c)
	filters := repositories.SkillFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "order_index"),
		SortOrder: c.DefaultQuery("sort_order", "asc"),
	}
	if grade := c.Query("grade"); grade != "" {
		if g, err := strconv.Atoi(grade); err == nil {
			filters.Grade = &g
		}
	}
	if unit := c.Query("unit"); unit != "" {
		if u, err := strconv.Atoi(unit); err == nil {
			filters.Unit = &u
		}
	}
	if creator := c.Query("created_by"); creator != "" {
		filters.CreatedBy = &creator
	}

	skills, total, err := h.skillService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: skills, Total: total})
}
