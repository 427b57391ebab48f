package postgres

import (
	"context"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type SkillPostgreSQL struct {
	db *gorm.DB
}

func NewSkillPostgreSQL(db *gorm.DB) repositories.SkillRepository {
	return &SkillPostgreSQL{db: db}
}

func (s *SkillPostgreSQL) Create(ctx context.Context, skill *models.Skill) error {
	return s.db.WithContext(ctx).Create(skill).Error
}

func (s *SkillPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Skill, error) {
	var skill models.Skill
	if err := s.db.WithContext(ctx).First(&skill, id).Error; err != nil {
		return nil, err
	}
	return &skill, nil
}

func (s *SkillPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.Skill, error) {
	var skills []*models.Skill
	if len(ids) == 0 {
		return skills, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&skills).Error; err != nil {
		return nil, err
	}
	return skills, nil
}

func (s *SkillPostgreSQL) Update(ctx context.Context, skill *models.Skill) error {
	return s.db.WithContext(ctx).Save(skill).Error
}

func (s *SkillPostgreSQL) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Skill{}, id).Error
}

func (s *SkillPostgreSQL) List(ctx context.Context, filters repositories.SkillFilters) ([]*models.Skill, int64, error) {
	var skills []*models.Skill
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Skill{})
	if filters.Grade != nil {
		query = query.Where("grade = ?", *filters.Grade)
	}
	if filters.Unit != nil {
		query = query.Where("unit = ?", *filters.Unit)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "order_index"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "desc" {
		sortOrder = "asc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&skills).Error; err != nil {
		return nil, 0, err
	}

	return skills, total, nil
}

func (s *SkillPostgreSQL) CountByGradeUnit(ctx context.Context, grade int) (map[int]int, error) {
	type row struct {
		Unit  int
		Count int
	}
	var rows []row

	if err := s.db.WithContext(ctx).
		Model(&models.Skill{}).
		Select("unit, count(*) as count").
		Where("grade = ?", grade).
		Group("unit").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(rows))
	for _, r := range rows {
		counts[r.Unit] = r.Count
	}
	return counts, nil
}

func (s *SkillPostgreSQL) HasQuestions(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("skill_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
