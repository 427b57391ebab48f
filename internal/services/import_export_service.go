package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/utils"
	"github.com/praxis-edu/practice-service/internal/validator"
)

// Column layout shared by the xlsx and csv formats. Hints and solution
// steps are pipe-separated in a single cell; the payload cell carries the
// type-specific JSON verbatim.
var questionColumns = []string{
	"prompt", "type", "payload", "difficulty_tier", "points", "hints", "solution_steps",
}

const listSeparator = "|"

type importExportService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, logger utils.Logger, v *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// ImportQuestions bulk-loads questions into one bank from an xlsx or csv
// stream. Rows are validated individually: bad rows are reported in the
// summary and skipped, good rows are inserted in one batch.
func (s *importExportService) ImportQuestions(ctx context.Context, bankID uint, format string, r io.Reader, creatorID string) (*models.ImportSummary, error) {
	start := time.Now()

	bank, err := s.repo.QuestionBank().GetByID(ctx, bankID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBankNotFound
		}
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}

	var rows [][]string
	switch strings.ToLower(format) {
	case "xlsx":
		rows, err = readXLSXRows(r)
	case "csv":
		rows, err = readCSVRows(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	summary := &models.ImportSummary{
		TotalRows: len(rows),
	}
	if len(rows) > 0 {
		// Skip the header row.
		rows = rows[1:]
		summary.TotalRows = len(rows)
	}

	var questions []*models.Question
	for i, row := range rows {
		rowNum := i + 2 // 1-based, after the header
		summary.ProcessedRows++

		question, rowErrs := s.parseQuestionRow(row, rowNum, bank, creatorID)
		if len(rowErrs) > 0 {
			summary.ErrorCount++
			summary.Errors = append(summary.Errors, rowErrs...)
			continue
		}
		questions = append(questions, question)
	}

	if len(questions) > 0 {
		if err := s.repo.Question().CreateBatch(ctx, questions); err != nil {
			return nil, fmt.Errorf("failed to insert imported questions: %w", err)
		}
		for _, q := range questions {
			summary.CreatedQuestions = append(summary.CreatedQuestions, q.ID)
		}
		summary.SuccessCount = len(questions)
	}

	summary.ProcessingTime = time.Since(start)
	s.logger.InfoContext(ctx, "Question import finished",
		"bank_id", bankID,
		"total", summary.TotalRows,
		"imported", summary.SuccessCount,
		"errors", summary.ErrorCount)
	return summary, nil
}

func (s *importExportService) parseQuestionRow(row []string, rowNum int, bank *models.QuestionBank, creatorID string) (*models.Question, []models.ImportValidationError) {
	var errs []models.ImportValidationError
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	prompt := field(0)
	if prompt == "" {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "prompt", Message: "prompt is required"})
	}

	qType := models.QuestionType(field(1))
	payload := field(2)
	if err := s.validator.Answer().ValidatePayload(qType, []byte(payload)); err != nil {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "payload", Message: err.Error()})
	}

	tier, err := strconv.Atoi(field(3))
	if err != nil || tier < 1 || tier > 5 {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "difficulty_tier", Message: "difficulty tier must be an integer between 1 and 5"})
	}

	points := 10
	if raw := field(4); raw != "" {
		points, err = strconv.Atoi(raw)
		if err != nil || points < 1 || points > 100 {
			errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "points", Message: "points must be an integer between 1 and 100"})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &models.Question{
		SkillID:        bank.SkillID,
		BankID:         bank.ID,
		Type:           qType,
		Prompt:         prompt,
		Payload:        datatypes.JSON(payload),
		DifficultyTier: tier,
		Points:         points,
		Hints:          marshalStringList(splitCell(field(5))),
		SolutionSteps:  marshalStringList(splitCell(field(6))),
		CreatedBy:      creatorID,
	}, nil
}

// ExportQuestions streams the selected questions to w in the requested
// format. With IncludeAnswers unset the payload column carries only the
// presentation options, mirroring what students see.
func (s *importExportService) ExportQuestions(ctx context.Context, req *models.ExportRequest, w io.Writer) error {
	if err := s.validator.ValidateStruct(req); err != nil {
		return err
	}

	questions, err := s.collectQuestions(ctx, req)
	if err != nil {
		return err
	}

	switch req.Format {
	case "xlsx":
		return writeXLSX(questions, req.IncludeAnswers, w)
	case "csv":
		return writeCSV(questions, req.IncludeAnswers, w)
	case "json":
		return writeJSON(questions, req.IncludeAnswers, w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
}

func (s *importExportService) collectQuestions(ctx context.Context, req *models.ExportRequest) ([]*models.Question, error) {
	filters := repositories.QuestionFilters{
		SkillID: req.SkillID,
		BankID:  req.BankID,
	}
	questions, _, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for export: %w", err)
	}

	if len(req.QuestionTypes) == 0 {
		return questions, nil
	}
	wanted := make(map[models.QuestionType]struct{}, len(req.QuestionTypes))
	for _, t := range req.QuestionTypes {
		wanted[t] = struct{}{}
	}
	filtered := questions[:0]
	for _, q := range questions {
		if _, ok := wanted[q.Type]; ok {
			filtered = append(filtered, q)
		}
	}
	return filtered, nil
}

// ===== FORMAT READERS / WRITERS =====

func readXLSXRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx stream: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}
	return rows, nil
}

func readCSVRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv rows: %w", err)
	}
	return rows, nil
}

func writeXLSX(questions []*models.Question, includeAnswers bool, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, col := range questionColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for rowIdx, q := range questions {
		for colIdx, value := range questionRow(q, includeAnswers) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
			}
		}
	}
	return f.Write(w)
}

func writeCSV(questions []*models.Question, includeAnswers bool, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(questionColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, q := range questions {
		if err := writer.Write(questionRow(q, includeAnswers)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(questions []*models.Question, includeAnswers bool, w io.Writer) error {
	type exportedQuestion struct {
		Prompt         string          `json:"prompt"`
		Type           string          `json:"type"`
		Payload        json.RawMessage `json:"payload"`
		DifficultyTier int             `json:"difficulty_tier"`
		Points         int             `json:"points"`
		Hints          []string        `json:"hints,omitempty"`
		SolutionSteps  []string        `json:"solution_steps,omitempty"`
	}

	exported := make([]exportedQuestion, 0, len(questions))
	for _, q := range questions {
		exported = append(exported, exportedQuestion{
			Prompt:         q.Prompt,
			Type:           string(q.Type),
			Payload:        json.RawMessage(exportPayload(q, includeAnswers)),
			DifficultyTier: q.DifficultyTier,
			Points:         q.Points,
			Hints:          decodeStringList(q.Hints),
			SolutionSteps:  decodeStringList(q.SolutionSteps),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

func questionRow(q *models.Question, includeAnswers bool) []string {
	return []string{
		q.Prompt,
		string(q.Type),
		exportPayload(q, includeAnswers),
		strconv.Itoa(q.DifficultyTier),
		strconv.Itoa(q.Points),
		joinCell(decodeStringList(q.Hints)),
		joinCell(decodeStringList(q.SolutionSteps)),
	}
}

// exportPayload returns the stored payload, with the answer key stripped
// when answers are excluded.
func exportPayload(q *models.Question, includeAnswers bool) string {
	if includeAnswers {
		return string(q.Payload)
	}

	view := buildQuestionView(q)
	stripped := map[string]interface{}{}
	if len(view.Options) > 0 {
		stripped["options"] = view.Options
	}
	data, err := json.Marshal(stripped)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func splitCell(cell string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func joinCell(list []string) string {
	return strings.Join(list, listSeparator)
}
