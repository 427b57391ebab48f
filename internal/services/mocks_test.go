package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/praxis-edu/practice-service/internal/cache"
	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
)

// mockRepository satisfies repositories.Repository with one testify mock per
// entity. WithTransaction runs the callback against the same mocks, which is
// enough to assert that the attempt insert and mastery update travel
// together.
type mockRepository struct {
	skill       *mockSkillRepo
	bank        *mockBankRepo
	question    *mockQuestionRepo
	mastery     *mockMasteryRepo
	session     *mockSessionRepo
	attempt     *mockAttemptRepo
	achievement *mockAchievementRepo

	txErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		skill:       &mockSkillRepo{},
		bank:        &mockBankRepo{},
		question:    &mockQuestionRepo{},
		mastery:     &mockMasteryRepo{},
		session:     &mockSessionRepo{},
		attempt:     &mockAttemptRepo{},
		achievement: &mockAchievementRepo{},
	}
}

func (m *mockRepository) Skill() repositories.SkillRepository               { return m.skill }
func (m *mockRepository) QuestionBank() repositories.QuestionBankRepository { return m.bank }
func (m *mockRepository) Question() repositories.QuestionRepository         { return m.question }
func (m *mockRepository) Mastery() repositories.MasteryRepository           { return m.mastery }
func (m *mockRepository) Session() repositories.SessionRepository           { return m.session }
func (m *mockRepository) Attempt() repositories.AttemptRepository           { return m.attempt }
func (m *mockRepository) Achievement() repositories.AchievementRepository   { return m.achievement }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== ENTITY MOCKS =====

type mockSkillRepo struct{ mock.Mock }

func (m *mockSkillRepo) Create(ctx context.Context, skill *models.Skill) error {
	return m.Called(ctx, skill).Error(0)
}

func (m *mockSkillRepo) GetByID(ctx context.Context, id uint) (*models.Skill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Skill), args.Error(1)
}

func (m *mockSkillRepo) GetByIDs(ctx context.Context, ids []uint) ([]*models.Skill, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Skill), args.Error(1)
}

func (m *mockSkillRepo) Update(ctx context.Context, skill *models.Skill) error {
	return m.Called(ctx, skill).Error(0)
}

func (m *mockSkillRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSkillRepo) List(ctx context.Context, filters repositories.SkillFilters) ([]*models.Skill, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Skill), args.Get(1).(int64), args.Error(2)
}

func (m *mockSkillRepo) CountByGradeUnit(ctx context.Context, grade int) (map[int]int, error) {
	args := m.Called(ctx, grade)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

func (m *mockSkillRepo) HasQuestions(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockBankRepo struct{ mock.Mock }

func (m *mockBankRepo) Create(ctx context.Context, bank *models.QuestionBank) error {
	return m.Called(ctx, bank).Error(0)
}

func (m *mockBankRepo) GetByID(ctx context.Context, id uint) (*models.QuestionBank, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionBank), args.Error(1)
}

func (m *mockBankRepo) Update(ctx context.Context, bank *models.QuestionBank) error {
	return m.Called(ctx, bank).Error(0)
}

func (m *mockBankRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBankRepo) List(ctx context.Context, filters repositories.BankFilters) ([]*models.QuestionBank, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.QuestionBank), args.Get(1).(int64), args.Error(2)
}

func (m *mockBankRepo) HasQuestions(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockQuestionRepo struct{ mock.Mock }

func (m *mockQuestionRepo) Create(ctx context.Context, question *models.Question) error {
	return m.Called(ctx, question).Error(0)
}

func (m *mockQuestionRepo) CreateBatch(ctx context.Context, questions []*models.Question) error {
	return m.Called(ctx, questions).Error(0)
}

func (m *mockQuestionRepo) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *mockQuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *mockQuestionRepo) Update(ctx context.Context, question *models.Question) error {
	return m.Called(ctx, question).Error(0)
}

func (m *mockQuestionRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockQuestionRepo) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Question), args.Get(1).(int64), args.Error(2)
}

func (m *mockQuestionRepo) GetEligible(ctx context.Context, filters repositories.EligibleQuestionFilters) ([]*models.Question, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *mockQuestionRepo) GetRandom(ctx context.Context, filters repositories.RandomQuestionFilters) ([]*models.Question, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *mockQuestionRepo) CountBySkill(ctx context.Context, skillID uint) (int64, error) {
	args := m.Called(ctx, skillID)
	return args.Get(0).(int64), args.Error(1)
}

type mockMasteryRepo struct{ mock.Mock }

func (m *mockMasteryRepo) Create(ctx context.Context, record *models.MasteryRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockMasteryRepo) GetByUserAndSkill(ctx context.Context, userID string, skillID uint) (*models.MasteryRecord, error) {
	args := m.Called(ctx, userID, skillID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MasteryRecord), args.Error(1)
}

func (m *mockMasteryRepo) GetByUser(ctx context.Context, userID string) ([]*models.MasteryRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MasteryRecord), args.Error(1)
}

func (m *mockMasteryRepo) GetByUserAndSkills(ctx context.Context, userID string, skillIDs []uint) ([]*models.MasteryRecord, error) {
	args := m.Called(ctx, userID, skillIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MasteryRecord), args.Error(1)
}

func (m *mockMasteryRepo) Update(ctx context.Context, record *models.MasteryRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockMasteryRepo) GetReviewCandidates(ctx context.Context, userID string, staleBefore time.Time, belowLevel float64) ([]*models.MasteryRecord, error) {
	args := m.Called(ctx, userID, staleBefore, belowLevel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MasteryRecord), args.Error(1)
}

func (m *mockMasteryRepo) GetByStatuses(ctx context.Context, userID string, statuses []models.MasteryStatus) ([]*models.MasteryRecord, error) {
	args := m.Called(ctx, userID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MasteryRecord), args.Error(1)
}

func (m *mockMasteryRepo) CountByStatus(ctx context.Context, userID string) (map[models.MasteryStatus]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.MasteryStatus]int), args.Error(1)
}

type mockSessionRepo struct{ mock.Mock }

func (m *mockSessionRepo) Create(ctx context.Context, session *models.PracticeSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uint) (*models.PracticeSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PracticeSession), args.Error(1)
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.PracticeSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) GetByUser(ctx context.Context, userID string, filters repositories.SessionFilters) ([]*models.PracticeSession, int64, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.PracticeSession), args.Get(1).(int64), args.Error(2)
}

func (m *mockSessionRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockAttemptRepo struct{ mock.Mock }

func (m *mockAttemptRepo) Create(ctx context.Context, attempt *models.PracticeAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *mockAttemptRepo) GetByID(ctx context.Context, id uint) (*models.PracticeAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PracticeAttempt), args.Error(1)
}

func (m *mockAttemptRepo) GetBySession(ctx context.Context, sessionID uint) ([]*models.PracticeAttempt, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PracticeAttempt), args.Error(1)
}

func (m *mockAttemptRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAttemptRepo) CountCorrectByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAttemptRepo) GetPracticeDays(ctx context.Context, userID string, limit int) ([]time.Time, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *mockAttemptRepo) GetRecentBySkill(ctx context.Context, userID string, skillID uint, limit int) ([]*models.PracticeAttempt, error) {
	args := m.Called(ctx, userID, skillID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PracticeAttempt), args.Error(1)
}

type mockAchievementRepo struct{ mock.Mock }

func (m *mockAchievementRepo) GetAll(ctx context.Context) ([]*models.Achievement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Achievement), args.Error(1)
}

func (m *mockAchievementRepo) GetByCode(ctx context.Context, code models.AchievementCode) (*models.Achievement, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Achievement), args.Error(1)
}

func (m *mockAchievementRepo) SeedDefaults(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockAchievementRepo) Award(ctx context.Context, award *models.UserAchievement) error {
	return m.Called(ctx, award).Error(0)
}

func (m *mockAchievementRepo) GetByUser(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserAchievement), args.Error(1)
}

func (m *mockAchievementRepo) HasAward(ctx context.Context, userID string, achievementID uint) (bool, error) {
	args := m.Called(ctx, userID, achievementID)
	return args.Bool(0), args.Error(1)
}

// mockCache is an in-memory cache.CacheService for progress tests.
type mockCache struct {
	store map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func (c *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = data
	return nil
}

func (c *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := c.store[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func (c *mockCache) DeletePattern(ctx context.Context, pattern string) error {
	c.store = make(map[string][]byte)
	return nil
}
