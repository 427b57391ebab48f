package postgres

import (
	"context"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionBankPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionBankPostgreSQL(db *gorm.DB) repositories.QuestionBankRepository {
	return &QuestionBankPostgreSQL{db: db}
}

func (b *QuestionBankPostgreSQL) Create(ctx context.Context, bank *models.QuestionBank) error {
	return b.db.WithContext(ctx).Create(bank).Error
}

func (b *QuestionBankPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuestionBank, error) {
	var bank models.QuestionBank
	if err := b.db.WithContext(ctx).First(&bank, id).Error; err != nil {
		return nil, err
	}
	return &bank, nil
}

func (b *QuestionBankPostgreSQL) Update(ctx context.Context, bank *models.QuestionBank) error {
	return b.db.WithContext(ctx).Save(bank).Error
}

func (b *QuestionBankPostgreSQL) Delete(ctx context.Context, id uint) error {
	return b.db.WithContext(ctx).Delete(&models.QuestionBank{}, id).Error
}

func (b *QuestionBankPostgreSQL) List(ctx context.Context, filters repositories.BankFilters) ([]*models.QuestionBank, int64, error) {
	var banks []*models.QuestionBank
	var total int64

	query := b.db.WithContext(ctx).Model(&models.QuestionBank{})
	if filters.SkillID != nil {
		query = query.Where("skill_id = ?", *filters.SkillID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("created_at desc").Find(&banks).Error; err != nil {
		return nil, 0, err
	}

	return banks, total, nil
}

func (b *QuestionBankPostgreSQL) HasQuestions(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := b.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("bank_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return q.db.WithContext(ctx).Create(questions).Error
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	var questions []*models.Question
	if len(ids) == 0 {
		return questions, nil
	}
	if err := q.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Save(question).Error
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).Delete(&models.Question{}, id).Error
}

func (q *QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Question{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q *QuestionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.SkillID != nil {
		query = query.Where("skill_id = ?", *filters.SkillID)
	}
	if filters.BankID != nil {
		query = query.Where("bank_id = ?", *filters.BankID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Tier != nil {
		query = query.Where("difficulty_tier = ?", *filters.Tier)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}

func (q *QuestionPostgreSQL) GetEligible(ctx context.Context, filters repositories.EligibleQuestionFilters) ([]*models.Question, error) {
	var questions []*models.Question

	query := q.db.WithContext(ctx).Model(&models.Question{})
	if filters.SkillID != nil {
		query = query.Where("skill_id = ?", *filters.SkillID)
	}
	if len(filters.SkillIDs) > 0 {
		query = query.Where("skill_id IN ?", filters.SkillIDs)
	}
	if filters.MinTier > 0 {
		query = query.Where("difficulty_tier >= ?", filters.MinTier)
	}
	if filters.MaxTier > 0 {
		query = query.Where("difficulty_tier <= ?", filters.MaxTier)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if err := query.Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (q *QuestionPostgreSQL) GetRandom(ctx context.Context, filters repositories.RandomQuestionFilters) ([]*models.Question, error) {
	var questions []*models.Question

	query := q.db.WithContext(ctx).Model(&models.Question{})
	if filters.SkillID != nil {
		query = query.Where("skill_id = ?", *filters.SkillID)
	}
	if filters.BankID != nil {
		query = query.Where("bank_id = ?", *filters.BankID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if len(filters.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filters.ExcludeIDs)
	}

	count := filters.Count
	if count <= 0 {
		count = 10
	}

	if err := query.Order("RANDOM()").Limit(count).Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (q *QuestionPostgreSQL) CountBySkill(ctx context.Context, skillID uint) (int64, error) {
	var count int64
	if err := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("skill_id = ?", skillID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
