package postgres

import (
	"context"
	"time"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type MasteryPostgreSQL struct {
	db *gorm.DB
}

func NewMasteryPostgreSQL(db *gorm.DB) repositories.MasteryRepository {
	return &MasteryPostgreSQL{db: db}
}

func (m *MasteryPostgreSQL) Create(ctx context.Context, record *models.MasteryRecord) error {
	return m.db.WithContext(ctx).Create(record).Error
}

func (m *MasteryPostgreSQL) GetByUserAndSkill(ctx context.Context, userID string, skillID uint) (*models.MasteryRecord, error) {
	var record models.MasteryRecord
	if err := m.db.WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (m *MasteryPostgreSQL) GetByUser(ctx context.Context, userID string) ([]*models.MasteryRecord, error) {
	var records []*models.MasteryRecord
	if err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Skill").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (m *MasteryPostgreSQL) GetByUserAndSkills(ctx context.Context, userID string, skillIDs []uint) ([]*models.MasteryRecord, error) {
	var records []*models.MasteryRecord
	if len(skillIDs) == 0 {
		return records, nil
	}
	if err := m.db.WithContext(ctx).
		Where("user_id = ? AND skill_id IN ?", userID, skillIDs).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (m *MasteryPostgreSQL) Update(ctx context.Context, record *models.MasteryRecord) error {
	return m.db.WithContext(ctx).Save(record).Error
}

func (m *MasteryPostgreSQL) GetReviewCandidates(ctx context.Context, userID string, staleBefore time.Time, belowLevel float64) ([]*models.MasteryRecord, error) {
	var records []*models.MasteryRecord
	if err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("last_practiced < ? OR level < ?", staleBefore, belowLevel).
		Order("last_practiced asc NULLS FIRST").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (m *MasteryPostgreSQL) GetByStatuses(ctx context.Context, userID string, statuses []models.MasteryStatus) ([]*models.MasteryRecord, error) {
	var records []*models.MasteryRecord
	if len(statuses) == 0 {
		return records, nil
	}
	if err := m.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (m *MasteryPostgreSQL) CountByStatus(ctx context.Context, userID string) (map[models.MasteryStatus]int, error) {
	type row struct {
		Status models.MasteryStatus
		Count  int
	}
	var rows []row

	if err := m.db.WithContext(ctx).
		Model(&models.MasteryRecord{}).
		Select("status, count(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.MasteryStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
