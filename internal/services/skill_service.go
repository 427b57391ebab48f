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

type skillService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *validator.Validator
}

func NewSkillService(repo repositories.Repository, logger utils.Logger, v *validator.Validator) SkillService {
	return &skillService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *skillService) Create(ctx context.Context, req *CreateSkillRequest, creatorID string) (*models.Skill, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	prereqs, err := s.marshalPrerequisites(ctx, req.Prerequisites)
	if err != nil {
		return nil, err
	}

	skill := &models.Skill{
		Name:          req.Name,
		Description:   req.Description,
		Grade:         req.Grade,
		Unit:          req.Unit,
		OrderIndex:    req.OrderIndex,
		Prerequisites: prereqs,
		CreatedBy:     creatorID,
	}
	if err := s.repo.Skill().Create(ctx, skill); err != nil {
		return nil, fmt.Errorf("failed to create skill: %w", err)
	}

	s.logger.InfoContext(ctx, "Skill created", "skill_id", skill.ID, "name", skill.Name, "created_by", creatorID)
	return skill, nil
}

func (s *skillService) GetByID(ctx context.Context, id uint) (*models.Skill, error) {
	skill, err := s.repo.Skill().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSkillNotFound
		}
		return nil, fmt.Errorf("failed to load skill: %w", err)
	}

	count, err := s.repo.Question().CountBySkill(ctx, id)
	if err == nil {
		skill.QuestionCount = int(count)
	}
	return skill, nil
}

// Update edits skill metadata only; grade and unit are fixed at creation.
func (s *skillService) Update(ctx context.Context, id uint, req *UpdateSkillRequest, userID string) (*models.Skill, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	skill, err := s.repo.Skill().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSkillNotFound
		}
		return nil, fmt.Errorf("failed to load skill: %w", err)
	}
	if skill.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "skill", "update", "only the creator can edit a skill")
	}

	if req.Name != nil {
		skill.Name = *req.Name
	}
	if req.Description != nil {
		skill.Description = req.Description
	}
	if req.OrderIndex != nil {
		skill.OrderIndex = *req.OrderIndex
	}
	if req.Prerequisites != nil {
		prereqs, err := s.marshalPrerequisites(ctx, req.Prerequisites)
		if err != nil {
			return nil, err
		}
		skill.Prerequisites = prereqs
	}

	if err := s.repo.Skill().Update(ctx, skill); err != nil {
		return nil, fmt.Errorf("failed to update skill: %w", err)
	}
	return skill, nil
}

func (s *skillService) Delete(ctx context.Context, id uint, userID string) error {
	skill, err := s.repo.Skill().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSkillNotFound
		}
		return fmt.Errorf("failed to load skill: %w", err)
	}
	if skill.CreatedBy != userID {
		return NewPermissionError(userID, id, "skill", "delete", "only the creator can delete a skill")
	}

	hasQuestions, err := s.repo.Skill().HasQuestions(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check skill questions: %w", err)
	}
	if hasQuestions {
		return ErrSkillNotDeletable
	}

	if err := s.repo.Skill().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	s.logger.InfoContext(ctx, "Skill deleted", "skill_id", id, "deleted_by", userID)
	return nil
}

func (s *skillService) List(ctx context.Context, filters repositories.SkillFilters) ([]*models.Skill, int64, error) {
	skills, total, err := s.repo.Skill().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, total, nil
}

// marshalPrerequisites verifies every referenced skill exists before storing
// the list.
func (s *skillService) marshalPrerequisites(ctx context.Context, ids []uint) (datatypes.JSON, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	skills, err := s.repo.Skill().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load prerequisite skills: %w", err)
	}
	if len(skills) != len(uniqueIDs(ids)) {
		return nil, NewValidationError("prerequisites", "one or more prerequisite skills do not exist", ids)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prerequisites: %w", err)
	}
	return datatypes.JSON(data), nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
