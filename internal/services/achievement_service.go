package services

import (
	"context"
	"fmt"
	"time"

	"github.com/praxis-edu/practice-service/internal/events"
	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/utils"
)

type achievementService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewAchievementService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger utils.Logger,
) AchievementService {
	return &achievementService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// EvaluateAfterAttempt checks every achievement condition against the user's
// current aggregates and awards the ones newly met. It runs outside the
// grading transaction; the award insert ignores duplicates, so concurrent
// evaluations cannot double-award.
func (s *achievementService) EvaluateAfterAttempt(ctx context.Context, userID string, record *models.MasteryRecord) ([]*models.Achievement, error) {
	codes, err := s.metConditions(ctx, userID, record)
	if err != nil {
		return nil, err
	}

	var earned []*models.Achievement
	for _, code := range codes {
		achievement, err := s.repo.Achievement().GetByCode(ctx, code)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to load achievement %s: %w", code, err)
		}

		has, err := s.repo.Achievement().HasAward(ctx, userID, achievement.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check award: %w", err)
		}
		if has {
			continue
		}

		award := &models.UserAchievement{
			UserID:        userID,
			AchievementID: achievement.ID,
			EarnedAt:      time.Now(),
		}
		if err := s.repo.Achievement().Award(ctx, award); err != nil {
			return nil, fmt.Errorf("failed to award achievement %s: %w", code, err)
		}
		earned = append(earned, achievement)

		if pubErr := s.publisher.PublishPracticeEvent(ctx, events.NewAchievementEarnedEvent(userID, achievement)); pubErr != nil {
			s.logger.Warn("Failed to publish achievement earned event",
				"user_id", userID, "code", code, "error", pubErr)
		}
		s.logger.Info("Achievement earned", "user_id", userID, "code", code)
	}
	return earned, nil
}

func (s *achievementService) metConditions(ctx context.Context, userID string, record *models.MasteryRecord) ([]models.AchievementCode, error) {
	var codes []models.AchievementCode

	sessionCount, err := s.repo.Session().CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	if sessionCount >= 1 {
		codes = append(codes, models.AchievementFirstSession)
	}

	if record != nil {
		if record.CurrentStreak >= 5 {
			codes = append(codes, models.AchievementStreak5)
		}
		if record.CurrentStreak >= 10 {
			codes = append(codes, models.AchievementStreak10)
		}
	}

	statusCounts, err := s.repo.Mastery().CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count mastery statuses: %w", err)
	}
	mastered := statusCounts[models.MasteryMastered]
	if mastered >= 1 {
		codes = append(codes, models.AchievementFirstMastery)
	}
	if mastered >= 5 {
		codes = append(codes, models.AchievementFiveMasteries)
	}

	attemptCount, err := s.repo.Attempt().CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if attemptCount >= 100 {
		codes = append(codes, models.AchievementCentury)
	}

	return codes, nil
}

func (s *achievementService) GetByUser(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	awards, err := s.repo.Achievement().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user achievements: %w", err)
	}
	return awards, nil
}
