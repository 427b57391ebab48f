package postgres

import (
	"context"
	"errors"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementPostgreSQL struct {
	db *gorm.DB
}

func NewAchievementPostgreSQL(db *gorm.DB) repositories.AchievementRepository {
	return &AchievementPostgreSQL{db: db}
}

func (a *AchievementPostgreSQL) GetAll(ctx context.Context) ([]*models.Achievement, error) {
	var achievements []*models.Achievement
	if err := a.db.WithContext(ctx).Order("id asc").Find(&achievements).Error; err != nil {
		return nil, err
	}
	return achievements, nil
}

func (a *AchievementPostgreSQL) GetByCode(ctx context.Context, code models.AchievementCode) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := a.db.WithContext(ctx).Where("code = ?", code).First(&achievement).Error; err != nil {
		return nil, err
	}
	return &achievement, nil
}

// SeedDefaults inserts the built-in achievement definitions, skipping codes
// that already exist.
func (a *AchievementPostgreSQL) SeedDefaults(ctx context.Context) error {
	defaults := []models.Achievement{
		{Code: models.AchievementFirstSession, Name: "First Steps", Description: "Complete your first practice attempt", Points: 10},
		{Code: models.AchievementStreak5, Name: "On a Roll", Description: "Answer 5 questions correctly in a row", Points: 25},
		{Code: models.AchievementStreak10, Name: "Unstoppable", Description: "Answer 10 questions correctly in a row", Points: 50},
		{Code: models.AchievementFirstMastery, Name: "Skill Master", Description: "Master your first skill", Points: 50},
		{Code: models.AchievementFiveMasteries, Name: "Pentamaster", Description: "Master five skills", Points: 100},
		{Code: models.AchievementCentury, Name: "Centurion", Description: "Complete 100 practice attempts", Points: 75},
	}

	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).
		Create(&defaults).Error
}

func (a *AchievementPostgreSQL) Award(ctx context.Context, award *models.UserAchievement) error {
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(award).Error
}

func (a *AchievementPostgreSQL) GetByUser(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	var awards []*models.UserAchievement
	if err := a.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Achievement").
		Order("earned_at desc").
		Find(&awards).Error; err != nil {
		return nil, err
	}
	return awards, nil
}

func (a *AchievementPostgreSQL) HasAward(ctx context.Context, userID string, achievementID uint) (bool, error) {
	var award models.UserAchievement
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&award).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
