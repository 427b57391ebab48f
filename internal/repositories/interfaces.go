package repositories

import (
	"context"
	"time"

	"github.com/praxis-edu/practice-service/internal/models"
)

// ===== AGGREGATE REPOSITORY =====

// Repository bundles all entity repositories behind one handle. Services
// receive a Repository rather than a database pool so tests can substitute
// doubles; WithTransaction yields a Repository bound to one transaction.
type Repository interface {
	Skill() SkillRepository
	QuestionBank() QuestionBankRepository
	Question() QuestionRepository
	Mastery() MasteryRepository
	Session() SessionRepository
	Attempt() AttemptRepository
	Achievement() AchievementRepository

	// WithTransaction runs fn with a Repository bound to a single database
	// transaction; any error rolls the whole transaction back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// ===== ENTITY REPOSITORIES =====

type SkillRepository interface {
	Create(ctx context.Context, skill *models.Skill) error
	GetByID(ctx context.Context, id uint) (*models.Skill, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Skill, error)
	Update(ctx context.Context, skill *models.Skill) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters SkillFilters) ([]*models.Skill, int64, error)
	CountByGradeUnit(ctx context.Context, grade int) (map[int]int, error)
	HasQuestions(ctx context.Context, id uint) (bool, error)
}

type QuestionBankRepository interface {
	Create(ctx context.Context, bank *models.QuestionBank) error
	GetByID(ctx context.Context, id uint) (*models.QuestionBank, error)
	Update(ctx context.Context, bank *models.QuestionBank) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters BankFilters) ([]*models.QuestionBank, int64, error)
	HasQuestions(ctx context.Context, id uint) (bool, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
	GetEligible(ctx context.Context, filters EligibleQuestionFilters) ([]*models.Question, error)
	GetRandom(ctx context.Context, filters RandomQuestionFilters) ([]*models.Question, error)
	CountBySkill(ctx context.Context, skillID uint) (int64, error)
}

type MasteryRepository interface {
	Create(ctx context.Context, record *models.MasteryRecord) error
	GetByUserAndSkill(ctx context.Context, userID string, skillID uint) (*models.MasteryRecord, error)
	GetByUser(ctx context.Context, userID string) ([]*models.MasteryRecord, error)
	GetByUserAndSkills(ctx context.Context, userID string, skillIDs []uint) ([]*models.MasteryRecord, error)
	Update(ctx context.Context, record *models.MasteryRecord) error

	// GetReviewCandidates returns records stale before the cutoff or below
	// the level threshold, oldest-practiced first.
	GetReviewCandidates(ctx context.Context, userID string, staleBefore time.Time, belowLevel float64) ([]*models.MasteryRecord, error)
	GetByStatuses(ctx context.Context, userID string, statuses []models.MasteryStatus) ([]*models.MasteryRecord, error)
	CountByStatus(ctx context.Context, userID string) (map[models.MasteryStatus]int, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.PracticeSession) error
	GetByID(ctx context.Context, id uint) (*models.PracticeSession, error)
	Update(ctx context.Context, session *models.PracticeSession) error

	GetByUser(ctx context.Context, userID string, filters SessionFilters) ([]*models.PracticeSession, int64, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.PracticeAttempt) error
	GetByID(ctx context.Context, id uint) (*models.PracticeAttempt, error)

	GetBySession(ctx context.Context, sessionID uint) ([]*models.PracticeAttempt, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	CountCorrectByUser(ctx context.Context, userID string) (int64, error)
	// GetPracticeDays returns the distinct UTC days the user practiced on,
	// most recent first. Used for the daily streak.
	GetPracticeDays(ctx context.Context, userID string, limit int) ([]time.Time, error)
	GetRecentBySkill(ctx context.Context, userID string, skillID uint, limit int) ([]*models.PracticeAttempt, error)
}

type AchievementRepository interface {
	GetAll(ctx context.Context) ([]*models.Achievement, error)
	GetByCode(ctx context.Context, code models.AchievementCode) (*models.Achievement, error)
	SeedDefaults(ctx context.Context) error

	Award(ctx context.Context, award *models.UserAchievement) error
	GetByUser(ctx context.Context, userID string) ([]*models.UserAchievement, error)
	HasAward(ctx context.Context, userID string, achievementID uint) (bool, error)
}

// ===== SHARED FILTER STRUCTS =====

type SkillFilters struct {
	Grade     *int    `json:"grade"`
	Unit      *int    `json:"unit"`
	CreatedBy *string `json:"created_by"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "order_index", "name", "created_at"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type BankFilters struct {
	SkillID   *uint   `json:"skill_id"`
	CreatedBy *string `json:"created_by"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

type QuestionFilters struct {
	SkillID   *uint                `json:"skill_id"`
	BankID    *uint                `json:"bank_id"`
	Type      *models.QuestionType `json:"type"`
	Tier      *int                 `json:"tier"`
	CreatedBy *string              `json:"created_by"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`
	SortOrder string               `json:"sort_order"`
}

// EligibleQuestionFilters scopes selector candidate queries. MinTier and
// MaxTier bound the difficulty band; zero values mean unbounded.
type EligibleQuestionFilters struct {
	SkillID  *uint  `json:"skill_id"`
	SkillIDs []uint `json:"skill_ids"`
	MinTier  int    `json:"min_tier"`
	MaxTier  int    `json:"max_tier"`
	Limit    int    `json:"limit"`
}

type RandomQuestionFilters struct {
	SkillID    *uint                `json:"skill_id"`
	BankID     *uint                `json:"bank_id"`
	Type       *models.QuestionType `json:"type"`
	ExcludeIDs []uint               `json:"exclude_ids"`
	Count      int                  `json:"count"`
}

type SessionFilters struct {
	Mode      *models.SessionMode   `json:"mode"`
	Status    *models.SessionStatus `json:"status"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortOrder string                `json:"sort_order"` // "asc", "desc" on started_at
}
