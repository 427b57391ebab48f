package postgres

import (
	"context"
	"time"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.PracticeAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.PracticeAttempt, error) {
	var attempt models.PracticeAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetBySession(ctx context.Context, sessionID uint) ([]*models.PracticeAttempt, error) {
	var attempts []*models.PracticeAttempt
	if err := a.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.PracticeAttempt{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (a *AttemptPostgreSQL) CountCorrectByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.PracticeAttempt{}).
		Where("user_id = ? AND is_correct = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (a *AttemptPostgreSQL) GetPracticeDays(ctx context.Context, userID string, limit int) ([]time.Time, error) {
	var days []time.Time
	query := a.db.WithContext(ctx).
		Model(&models.PracticeAttempt{}).
		Select("DISTINCT date_trunc('day', created_at AT TIME ZONE 'UTC') as day").
		Where("user_id = ?", userID).
		Order("day desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("day", &days).Error; err != nil {
		return nil, err
	}
	return days, nil
}

func (a *AttemptPostgreSQL) GetRecentBySkill(ctx context.Context, userID string, skillID uint, limit int) ([]*models.PracticeAttempt, error) {
	var attempts []*models.PracticeAttempt
	query := a.db.WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
