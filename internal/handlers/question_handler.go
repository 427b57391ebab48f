package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/services"
	"github.com/praxis-edu/practice-service/internal/utils"
)

const maxImportFileSize = 10 << 20 // 10 MB

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importExport    services.ImportExportService
}

func NewQuestionHandler(
	questionService services.QuestionService,
	importExport services.ImportExportService,
	logger utils.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		importExport:    importExport,
	}
}

// CreateQuestion creates a new practice question
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating question", "skill_id", req.SkillID, "type", req.Type)

	question, err := h.questionService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// GetQuestion returns one question including its answer key
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// UpdateQuestion edits a question
// @Router /questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes a question
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Question deleted", nil)
}

// ListQuestions lists questions with filters
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	limit, offset := parsePagination(c)
	filters := repositories.QuestionFilters{
		SkillID:   parseOptionalUintQuery(c, "skill_id"),
		BankID:    parseOptionalUintQuery(c, "bank_id"),
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if qType := c.Query("type"); qType != "" {
		t := models.QuestionType(qType)
		filters.Type = &t
	}
	if tier := c.Query("tier"); tier != "" {
		if t, err := strconv.Atoi(tier); err == nil {
			filters.Tier = &t
		}
	}

	questions, total, err := h.questionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: questions, Total: total})
}

// GetRandomQuestions returns a random draw of questions
// @Router /questions/random [get]
func (h *QuestionHandler) GetRandomQuestions(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "5"))
	if err != nil || count < 1 || count > 50 {
		count = 5
	}
	filters := repositories.RandomQuestionFilters{
		SkillID: parseOptionalUintQuery(c, "skill_id"),
		BankID:  parseOptionalUintQuery(c, "bank_id"),
		Count:   count,
	}

	questions, err := h.questionService.GetRandom(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: questions, Total: int64(len(questions))})
}

// CreateBank creates a question bank scoped to a skill
// @Router /banks [post]
func (h *QuestionHandler) CreateBank(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	bank, err := h.questionService.CreateBank(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bank)
}

// ListBanks lists question banks
// @Router /banks [get]
func (h *QuestionHandler) ListBanks(c *gin.Context) {
	limit, offset := parsePagination(c)
	filters := repositories.BankFilters{
		SkillID: parseOptionalUintQuery(c, "skill_id"),
		Limit:   limit,
		Offset:  offset,
	}

	banks, total, err := h.questionService.ListBanks(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: banks, Total: total})
}

// ImportQuestions bulk-imports questions into a bank from an uploaded file
// @Router /banks/{id}/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	bankID := parseIDParam(c, "id")
	if bankID == 0 {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing upload file",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxImportFileSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Upload file too large",
		})
		return
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to open upload", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing questions", "bank_id", bankID, "format", format, "file", fileHeader.Filename)

	summary, err := h.importExport.ImportQuestions(c.Request.Context(), bankID, format, file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportQuestions streams questions in the requested format
// @Router /questions/export [get]
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	req := &models.ExportRequest{
		BankID:         parseOptionalUintQuery(c, "bank_id"),
		SkillID:        parseOptionalUintQuery(c, "skill_id"),
		Format:         c.DefaultQuery("format", "xlsx"),
		IncludeAnswers: c.DefaultQuery("include_answers", "true") == "true",
	}
	if types := c.Query("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			req.QuestionTypes = append(req.QuestionTypes, models.QuestionType(strings.TrimSpace(t)))
		}
	}

	contentTypes := map[string]string{
		"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"csv":  "text/csv",
		"json": "application/json",
	}
	contentType, ok := contentTypes[req.Format]
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
			Details: req.Format,
		})
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=questions.%s", req.Format))

	if err := h.importExport.ExportQuestions(c.Request.Context(), req, c.Writer); err != nil {
		h.handleServiceError(c, err)
		return
	}
}
