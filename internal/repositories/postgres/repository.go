package postgres

import (
	"context"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"gorm.io/gorm"
)

// Repository is the GORM-backed implementation of repositories.Repository.
type Repository struct {
	db          *gorm.DB
	skill       repositories.SkillRepository
	bank        repositories.QuestionBankRepository
	question    repositories.QuestionRepository
	mastery     repositories.MasteryRepository
	session     repositories.SessionRepository
	attempt     repositories.AttemptRepository
	achievement repositories.AchievementRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		skill:       NewSkillPostgreSQL(db),
		bank:        NewQuestionBankPostgreSQL(db),
		question:    NewQuestionPostgreSQL(db),
		mastery:     NewMasteryPostgreSQL(db),
		session:     NewSessionPostgreSQL(db),
		attempt:     NewAttemptPostgreSQL(db),
		achievement: NewAchievementPostgreSQL(db),
	}
}

func (r *Repository) Skill() repositories.SkillRepository               { return r.skill }
func (r *Repository) QuestionBank() repositories.QuestionBankRepository { return r.bank }
func (r *Repository) Question() repositories.QuestionRepository         { return r.question }
func (r *Repository) Mastery() repositories.MasteryRepository           { return r.mastery }
func (r *Repository) Session() repositories.SessionRepository           { return r.session }
func (r *Repository) Attempt() repositories.AttemptRepository           { return r.attempt }
func (r *Repository) Achievement() repositories.AchievementRepository   { return r.achievement }

// WithTransaction runs fn with a Repository bound to one transaction.
// Read-committed isolation is sufficient for the attempt+mastery write pair.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates the schema for all practice tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Skill{},
		&models.QuestionBank{},
		&models.Question{},
		&models.MasteryRecord{},
		&models.PracticeSession{},
		&models.PracticeAttempt{},
		&models.Achievement{},
		&models.UserAchievement{},
	)
}
