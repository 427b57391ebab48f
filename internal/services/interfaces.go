package services

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/praxis-edu/practice-service/internal/cache"
	"github.com/praxis-edu/practice-service/internal/events"
	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/utils"
	"github.com/praxis-edu/practice-service/internal/validator"
)

// ===== SERVICE INTERFACES =====

// SelectorService builds practice sessions: it picks and orders questions
// for one sitting and persists the session row. It never mutates mastery.
type SelectorService interface {
	StartSession(ctx context.Context, req *StartSessionRequest, userID string) (*StartSessionResponse, error)
}

// GradingService grades one submission and applies the mastery update,
// both inside a single transaction.
type GradingService interface {
	SubmitAnswer(ctx context.Context, req *SubmitAnswerRequest, userID string) (*GradeResponse, error)
}

// SessionService ends sessions and serves session history. Ending is
// idempotent: stats are recomputed from the attempt ledger every call.
type SessionService interface {
	EndSession(ctx context.Context, sessionID uint, userID string) (*EndSessionResponse, error)
	GetHistory(ctx context.Context, userID string, filters repositories.SessionFilters) ([]*models.PracticeSession, int64, error)
}

// ProgressService serves the aggregate dashboard.
type ProgressService interface {
	GetProgress(ctx context.Context, userID string) (*ProgressResponse, error)
	InvalidateProgress(ctx context.Context, userID string)
}

// AchievementService evaluates and awards achievements after grading.
type AchievementService interface {
	EvaluateAfterAttempt(ctx context.Context, userID string, record *models.MasteryRecord) ([]*models.Achievement, error)
	GetByUser(ctx context.Context, userID string) ([]*models.UserAchievement, error)
}

type SkillService interface {
	Create(ctx context.Context, req *CreateSkillRequest, creatorID string) (*models.Skill, error)
	GetByID(ctx context.Context, id uint) (*models.Skill, error)
	Update(ctx context.Context, id uint, req *UpdateSkillRequest, userID string) (*models.Skill, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.SkillFilters) ([]*models.Skill, int64, error)
}

type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.Question, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	GetRandom(ctx context.Context, filters repositories.RandomQuestionFilters) ([]*models.Question, error)
	CreateBank(ctx context.Context, req *CreateBankRequest, creatorID string) (*models.QuestionBank, error)
	ListBanks(ctx context.Context, filters repositories.BankFilters) ([]*models.QuestionBank, int64, error)
}

type ImportExportService interface {
	ImportQuestions(ctx context.Context, bankID uint, format string, r io.Reader, creatorID string) (*models.ImportSummary, error)
	ExportQuestions(ctx context.Context, req *models.ExportRequest, w io.Writer) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Selector() SelectorService
	Grading() GradingService
	Session() SessionService
	Progress() ProgressService
	Achievement() AchievementService
	Skill() SkillService
	Question() QuestionService
	ImportExport() ImportExportService
}

type serviceManager struct {
	selector     SelectorService
	grading      GradingService
	session      SessionService
	progress     ProgressService
	achievement  AchievementService
	skill        SkillService
	question     QuestionService
	importExport ImportExportService
}

func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger utils.Logger,
	v *validator.Validator,
) ServiceManager {
	progress := NewProgressService(repo, cacheService, logger)
	achievement := NewAchievementService(repo, publisher, logger)

	return &serviceManager{
		selector:     NewSelectorService(repo, publisher, logger, v),
		grading:      NewGradingService(repo, publisher, achievement, progress, logger, v),
		session:      NewSessionService(repo, publisher, logger),
		progress:     progress,
		achievement:  achievement,
		skill:        NewSkillService(repo, logger, v),
		question:     NewQuestionService(repo, logger, v),
		importExport: NewImportExportService(repo, logger, v),
	}
}

func (sm *serviceManager) Selector() SelectorService         { return sm.selector }
func (sm *serviceManager) Grading() GradingService           { return sm.grading }
func (sm *serviceManager) Session() SessionService           { return sm.session }
func (sm *serviceManager) Progress() ProgressService         { return sm.progress }
func (sm *serviceManager) Achievement() AchievementService   { return sm.achievement }
func (sm *serviceManager) Skill() SkillService               { return sm.skill }
func (sm *serviceManager) Question() QuestionService         { return sm.question }
func (sm *serviceManager) ImportExport() ImportExportService { return sm.importExport }

// ===== REQUEST / RESPONSE STRUCTS =====

type StartSessionRequest struct {
	Mode         models.SessionMode `json:"mode" validate:"required,session_mode"`
	SkillID      *uint              `json:"skill_id"`
	NumQuestions int                `json:"num_questions" validate:"required,min=1,max=50"`
}

// QuestionView is a question as handed to a student: the answer key is
// stripped from the payload.
type QuestionView struct {
	ID             uint                `json:"id"`
	SkillID        uint                `json:"skill_id"`
	Type           models.QuestionType `json:"type"`
	Prompt         string              `json:"prompt"`
	Options        []string            `json:"options,omitempty"`
	DifficultyTier int                 `json:"difficulty_tier"`
	Points         int                 `json:"points"`
	Hints          []string            `json:"hints,omitempty"`
}

type StartSessionResponse struct {
	SessionID      uint               `json:"session_id"`
	ExternalID     string             `json:"external_id"`
	SessionType    models.SessionMode `json:"session_type"`
	Questions      []QuestionView     `json:"questions"`
	TotalQuestions int                `json:"total_questions"`
}

type SubmitAnswerRequest struct {
	SessionID        uint            `json:"session_id" validate:"required"`
	QuestionID       uint            `json:"question_id" validate:"required"`
	UserAnswer       json.RawMessage `json:"user_answer" validate:"required"`
	HintsUsed        int             `json:"hints_used" validate:"min=0"`
	TimeTakenSeconds int             `json:"time_taken_seconds" validate:"min=0,max=3600"`
}

type GradeResponse struct {
	IsCorrect          bool                 `json:"is_correct"`
	CorrectAnswer      interface{}          `json:"correct_answer"`
	SolutionSteps      []string             `json:"solution_steps"`
	NewMasteryLevel    float64              `json:"new_mastery_level"`
	NewMasteryStatus   models.MasteryStatus `json:"new_mastery_status"`
	PointsEarned       int                  `json:"points_earned"`
	AchievementsEarned []AchievementView    `json:"achievements_earned"`
}

type AchievementView struct {
	Code        models.AchievementCode `json:"code"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Points      int                    `json:"points"`
}

type EndSessionResponse struct {
	SessionStats  models.SessionStats `json:"session_stats"`
	SkillProgress []models.SkillDelta `json:"skill_progress"`
}

type ProgressResponse struct {
	TotalAttempted  int                          `json:"total_attempted"`
	TotalCorrect    int                          `json:"total_correct"`
	OverallAccuracy float64                      `json:"overall_accuracy"`
	TotalSessions   int                          `json:"total_sessions"`
	DailyStreak     int                          `json:"daily_streak"`
	StatusCounts    map[models.MasteryStatus]int `json:"status_counts"`
	Skills          []SkillProgress              `json:"skills"`
	UnitCompletion  []UnitCompletion             `json:"unit_completion"`
	Achievements    []AchievementView            `json:"achievements"`
	GeneratedAt     time.Time                    `json:"generated_at"`
}

type SkillProgress struct {
	SkillID       uint                 `json:"skill_id"`
	SkillName     string               `json:"skill_name"`
	Grade         int                  `json:"grade"`
	Unit          int                  `json:"unit"`
	Level         float64              `json:"level"`
	Status        models.MasteryStatus `json:"status"`
	Attempted     int                  `json:"attempted"`
	Correct       int                  `json:"correct"`
	BestStreak    int                  `json:"best_streak"`
	LastPracticed *time.Time           `json:"last_practiced"`
}

type UnitCompletion struct {
	Grade         int     `json:"grade"`
	Unit          int     `json:"unit"`
	SkillCount    int     `json:"skill_count"`
	MasteredCount int     `json:"mastered_count"`
	CompletionPct float64 `json:"completion_pct"`
}

type CreateSkillRequest struct {
	Name          string  `json:"name" validate:"required,min=1,max=200"`
	Description   *string `json:"description" validate:"omitempty,max=1000"`
	Grade         int     `json:"grade" validate:"required,min=1,max=13"`
	Unit          int     `json:"unit" validate:"required,min=1"`
	OrderIndex    int     `json:"order_index"`
	Prerequisites []uint  `json:"prerequisites"`
}

type UpdateSkillRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string `json:"description" validate:"omitempty,max=1000"`
	OrderIndex    *int    `json:"order_index"`
	Prerequisites []uint  `json:"prerequisites"`
}

type CreateQuestionRequest struct {
	SkillID        uint                `json:"skill_id" validate:"required"`
	BankID         uint                `json:"bank_id" validate:"required"`
	Type           models.QuestionType `json:"type" validate:"required,question_type"`
	Prompt         string              `json:"prompt" validate:"required,min=1"`
	Payload        json.RawMessage     `json:"payload" validate:"required"`
	DifficultyTier int                 `json:"difficulty_tier" validate:"required,difficulty_tier"`
	Points         int                 `json:"points" validate:"min=1,max=100"`
	Hints          []string            `json:"hints"`
	SolutionSteps  []string            `json:"solution_steps"`
}

type UpdateQuestionRequest struct {
	Prompt         *string         `json:"prompt" validate:"omitempty,min=1"`
	Payload        json.RawMessage `json:"payload"`
	DifficultyTier *int            `json:"difficulty_tier" validate:"omitempty,difficulty_tier"`
	Points         *int            `json:"points" validate:"omitempty,min=1,max=100"`
	Hints          []string        `json:"hints"`
	SolutionSteps  []string        `json:"solution_steps"`
}

type CreateBankRequest struct {
	SkillID     uint    `json:"skill_id" validate:"required"`
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}
