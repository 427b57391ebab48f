package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/utils"
	"github.com/praxis-edu/practice-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger utils.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := s.validator.Answer().ValidatePayload(req.Type, req.Payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuestionInvalidPayload, err)
	}

	if _, err := s.repo.Skill().GetByID(ctx, req.SkillID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSkillNotFound
		}
		return nil, fmt.Errorf("failed to load skill: %w", err)
	}
	bank, err := s.repo.QuestionBank().GetByID(ctx, req.BankID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBankNotFound
		}
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}
	if bank.SkillID != req.SkillID {
		return nil, NewBusinessRuleError("bank_skill_match", "question bank belongs to a different skill", map[string]interface{}{
			"bank_id":  req.BankID,
			"skill_id": req.SkillID,
		})
	}

	points := req.Points
	if points == 0 {
		points = 10
	}

	question := &models.Question{
		SkillID:        req.SkillID,
		BankID:         req.BankID,
		Type:           req.Type,
		Prompt:         req.Prompt,
		Payload:        datatypes.JSON(req.Payload),
		DifficultyTier: req.DifficultyTier,
		Points:         points,
		Hints:          marshalStringList(req.Hints),
		SolutionSteps:  marshalStringList(req.SolutionSteps),
		CreatedBy:      creatorID,
	}
	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.InfoContext(ctx, "Question created",
		"question_id", question.ID,
		"skill_id", question.SkillID,
		"type", question.Type,
		"created_by", creatorID)
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	return question, nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.Question, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if question.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "question", "update", "only the creator can edit a question")
	}

	if req.Prompt != nil {
		question.Prompt = *req.Prompt
	}
	if req.Payload != nil {
		if err := s.validator.Answer().ValidatePayload(question.Type, req.Payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuestionInvalidPayload, err)
		}
		question.Payload = datatypes.JSON(req.Payload)
	}
	if req.DifficultyTier != nil {
		question.DifficultyTier = *req.DifficultyTier
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.Hints != nil {
		question.Hints = marshalStringList(req.Hints)
	}
	if req.SolutionSteps != nil {
		question.SolutionSteps = marshalStringList(req.SolutionSteps)
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to load question: %w", err)
	}
	if question.CreatedBy != userID {
		return NewPermissionError(userID, id, "question", "delete", "only the creator can delete a question")
	}

	if err := s.repo.Question().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	s.logger.InfoContext(ctx, "Question deleted", "question_id", id, "deleted_by", userID)
	return nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	questions, total, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

func (s *questionService) GetRandom(ctx context.Context, filters repositories.RandomQuestionFilters) ([]*models.Question, error) {
	questions, err := s.repo.Question().GetRandom(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load random questions: %w", err)
	}
	return questions, nil
}

func (s *questionService) CreateBank(ctx context.Context, req *CreateBankRequest, creatorID string) (*models.QuestionBank, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Skill().GetByID(ctx, req.SkillID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSkillNotFound
		}
		return nil, fmt.Errorf("failed to load skill: %w", err)
	}

	bank := &models.QuestionBank{
		SkillID:     req.SkillID,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   creatorID,
	}
	if err := s.repo.QuestionBank().Create(ctx, bank); err != nil {
		return nil, fmt.Errorf("failed to create question bank: %w", err)
	}
	return bank, nil
}

func (s *questionService) ListBanks(ctx context.Context, filters repositories.BankFilters) ([]*models.QuestionBank, int64, error) {
	banks, total, err := s.repo.QuestionBank().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list question banks: %w", err)
	}
	return banks, total, nil
}

func marshalStringList(list []string) datatypes.JSON {
	if len(list) == 0 {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
