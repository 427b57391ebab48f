package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/praxis-edu/practice-service/internal/events"
	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/utils"
	"github.com/praxis-edu/practice-service/internal/validator"
)

func newSelectorForTest(repo *mockRepository) (SelectorService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(slog.Default())
	logger := utils.NewDevelopmentLogger()
	return NewSelectorService(repo, publisher, logger, validator.New()), publisher
}

func tierQuestion(id uint, skillID uint, tier int) *models.Question {
	return &models.Question{
		ID:             id,
		SkillID:        skillID,
		BankID:         1,
		Type:           models.Numeric,
		Prompt:         "prompt",
		Payload:        []byte(`{"value": 1}`),
		DifficultyTier: tier,
		Points:         10,
	}
}

func expectSessionCreate(repo *mockRepository, assignID uint) {
	repo.session.On("Create", mock.Anything, mock.AnythingOfType("*models.PracticeSession")).
		Run(func(args mock.Arguments) {
			session := args.Get(1).(*models.PracticeSession)
			session.ID = assignID
		}).
		Return(nil)
}

func TestStartSession_TargetedOrdersByAscendingTier(t *testing.T) {
	repo := newMockRepository()
	service, publisher := newSelectorForTest(repo)
	skillID := uint(7)

	repo.skill.On("GetByID", mock.Anything, skillID).Return(&models.Skill{ID: skillID, Name: "Fractions"}, nil)
	repo.question.On("GetEligible", mock.Anything, mock.Anything).Return([]*models.Question{
		tierQuestion(1, skillID, 4),
		tierQuestion(2, skillID, 1),
		tierQuestion(3, skillID, 3),
		tierQuestion(4, skillID, 2),
		tierQuestion(5, skillID, 5),
	}, nil)
	expectSessionCreate(repo, 42)

	resp, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeTargeted,
		SkillID:      &skillID,
		NumQuestions: 10,
	}, "student-1")

	require.NoError(t, err)
	assert.Equal(t, uint(42), resp.SessionID)
	assert.Equal(t, models.ModeTargeted, resp.SessionType)
	// Only 5 eligible questions: a short session, not an error.
	require.Len(t, resp.Questions, 5)
	assert.Equal(t, 5, resp.TotalQuestions)

	for i := 1; i < len(resp.Questions); i++ {
		assert.GreaterOrEqual(t, resp.Questions[i].DifficultyTier, resp.Questions[i-1].DifficultyTier)
	}

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventSessionStarted, published[0].Type)
}

func TestStartSession_TargetedRequiresSkill(t *testing.T) {
	repo := newMockRepository()
	service, _ := newSelectorForTest(repo)

	_, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeTargeted,
		NumQuestions: 5,
	}, "student-1")

	assert.ErrorIs(t, err, ErrSessionSkillRequired)
}

func TestStartSession_TargetedUnknownSkill(t *testing.T) {
	repo := newMockRepository()
	service, _ := newSelectorForTest(repo)
	skillID := uint(99)

	repo.skill.On("GetByID", mock.Anything, skillID).Return(nil, gorm.ErrRecordNotFound)

	_, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeTargeted,
		SkillID:      &skillID,
		NumQuestions: 5,
	}, "student-1")

	assert.ErrorIs(t, err, ErrSkillNotFound)
}

func TestStartSession_TruncatesToRequestedCount(t *testing.T) {
	repo := newMockRepository()
	service, _ := newSelectorForTest(repo)
	skillID := uint(7)

	questions := make([]*models.Question, 0, 8)
	for i := uint(1); i <= 8; i++ {
		questions = append(questions, tierQuestion(i, skillID, int(i%5)+1))
	}
	repo.skill.On("GetByID", mock.Anything, skillID).Return(&models.Skill{ID: skillID}, nil)
	repo.question.On("GetEligible", mock.Anything, mock.Anything).Return(questions, nil)
	expectSessionCreate(repo, 1)

	resp, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeTargeted,
		SkillID:      &skillID,
		NumQuestions: 3,
	}, "student-1")

	require.NoError(t, err)
	assert.Len(t, resp.Questions, 3)
}

func TestStartSession_MixedWithNothingToPractice(t *testing.T) {
	repo := newMockRepository()
	service, _ := newSelectorForTest(repo)

	repo.mastery.On("GetByStatuses", mock.Anything, "student-1", mock.Anything).
		Return([]*models.MasteryRecord{}, nil)
	expectSessionCreate(repo, 2)

	resp, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeMixed,
		NumQuestions: 5,
	}, "student-1")

	// Zero questions is a valid empty session, not an error.
	require.NoError(t, err)
	assert.Empty(t, resp.Questions)
	assert.Equal(t, 0, resp.TotalQuestions)
}

func TestStartSession_MixedDrawsFromActiveSkills(t *testing.T) {
	repo := newMockRepository()
	service, _ := newSelectorForTest(repo)

	repo.mastery.On("GetByStatuses", mock.Anything, "student-1", []models.MasteryStatus{
		models.MasteryLearning, models.MasteryPracticed,
	}).Return([]*models.MasteryRecord{
		{UserID: "student-1", SkillID: 3, Status: models.MasteryLearning},
		{UserID: "student-1", SkillID: 5, Status: models.MasteryPracticed},
	}, nil)

	repo.question.On("GetEligible", mock.Anything, mock.MatchedBy(func(f repositories.EligibleQuestionFilters) bool {
		return len(f.SkillIDs) == 2 && f.SkillIDs[0] == 3 && f.SkillIDs[1] == 5
	})).Return([]*models.Question{
		tierQuestion(1, 3, 2),
		tierQuestion(2, 5, 3),
	}, nil)
	expectSessionCreate(repo, 3)

	resp, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeMixed,
		NumQuestions: 5,
	}, "student-1")

	require.NoError(t, err)
	assert.Len(t, resp.Questions, 2)
}

func TestStartSession_AdaptiveRestrictsTierBand(t *testing.T) {
	repo := newMockRepository()
	service, _ := newSelectorForTest(repo)
	skillID := uint(7)

	repo.skill.On("GetByID", mock.Anything, skillID).Return(&models.Skill{ID: skillID}, nil)
	// Mastery 40 puts the ideal tier at 2, so the band is tiers 1-3.
	repo.mastery.On("GetByUserAndSkill", mock.Anything, "student-1", skillID).
		Return(&models.MasteryRecord{UserID: "student-1", SkillID: skillID, Level: 40}, nil)

	repo.question.On("GetEligible", mock.Anything, mock.MatchedBy(func(f repositories.EligibleQuestionFilters) bool {
		return f.SkillID != nil && *f.SkillID == skillID && f.MinTier == 1 && f.MaxTier == 3
	})).Return([]*models.Question{
		tierQuestion(1, skillID, 1),
		tierQuestion(2, skillID, 2),
		tierQuestion(3, skillID, 3),
		tierQuestion(4, skillID, 2),
	}, nil)
	expectSessionCreate(repo, 4)

	resp, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeAdaptive,
		SkillID:      &skillID,
		NumQuestions: 10,
	}, "student-1")

	require.NoError(t, err)
	require.Len(t, resp.Questions, 4)
	for _, q := range resp.Questions {
		assert.Contains(t, []int{1, 2, 3}, q.DifficultyTier)
	}
	// Ideal-tier questions come before the neighbors.
	assert.Equal(t, 2, resp.Questions[0].DifficultyTier)
	assert.Equal(t, 2, resp.Questions[1].DifficultyTier)
}

func TestStartSession_AdaptiveOnboardsUnseenSkill(t *testing.T) {
	repo := newMockRepository()
	service, _ := newSelectorForTest(repo)
	skillID := uint(7)

	repo.skill.On("GetByID", mock.Anything, skillID).Return(&models.Skill{ID: skillID}, nil)
	repo.mastery.On("GetByUserAndSkill", mock.Anything, "student-1", skillID).
		Return(nil, gorm.ErrRecordNotFound)

	repo.question.On("GetEligible", mock.Anything, mock.MatchedBy(func(f repositories.EligibleQuestionFilters) bool {
		return f.MinTier == 1 && f.MaxTier == 2
	})).Return([]*models.Question{
		tierQuestion(1, skillID, 1),
		tierQuestion(2, skillID, 2),
	}, nil)
	expectSessionCreate(repo, 5)

	resp, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeAdaptive,
		SkillID:      &skillID,
		NumQuestions: 10,
	}, "student-1")

	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)
	for _, q := range resp.Questions {
		assert.LessOrEqual(t, q.DifficultyTier, 2)
	}
}

func TestStartSession_ReviewOrdersOldestPracticedFirst(t *testing.T) {
	repo := newMockRepository()
	service, _ := newSelectorForTest(repo)

	// The repository already returns candidates oldest-practiced first.
	repo.mastery.On("GetReviewCandidates", mock.Anything, "student-1", mock.Anything, reviewLevelThreshold).
		Return([]*models.MasteryRecord{
			{UserID: "student-1", SkillID: 9, Level: 50},
			{UserID: "student-1", SkillID: 4, Level: 65},
		}, nil)

	repo.question.On("GetEligible", mock.Anything, mock.MatchedBy(func(f repositories.EligibleQuestionFilters) bool {
		return f.SkillID != nil && *f.SkillID == 9
	})).Return([]*models.Question{tierQuestion(1, 9, 2)}, nil)
	repo.question.On("GetEligible", mock.Anything, mock.MatchedBy(func(f repositories.EligibleQuestionFilters) bool {
		return f.SkillID != nil && *f.SkillID == 4
	})).Return([]*models.Question{tierQuestion(2, 4, 2)}, nil)
	expectSessionCreate(repo, 6)

	resp, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeReview,
		NumQuestions: 10,
	}, "student-1")

	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)
	assert.Equal(t, uint(9), resp.Questions[0].SkillID)
	assert.Equal(t, uint(4), resp.Questions[1].SkillID)
}

func TestStartSession_RejectsInvalidRequest(t *testing.T) {
	repo := newMockRepository()
	service, _ := newSelectorForTest(repo)

	_, err := service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         "warpspeed",
		NumQuestions: 5,
	}, "student-1")
	require.Error(t, err)

	_, err = service.StartSession(context.Background(), &StartSessionRequest{
		Mode:         models.ModeMixed,
		NumQuestions: 0,
	}, "student-1")
	require.Error(t, err)
}
