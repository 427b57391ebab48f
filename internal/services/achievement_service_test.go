package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/praxis-edu/practice-service/internal/events"
	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/utils"
)

func newAchievementForTest(repo *mockRepository) (AchievementService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(slog.Default())
	return NewAchievementService(repo, publisher, utils.NewDevelopmentLogger()), publisher
}

func expectBaseline(repo *mockRepository, sessions, attempts int64, mastered int) {
	repo.session.On("CountByUser", mock.Anything, "student-1").Return(sessions, nil)
	repo.attempt.On("CountByUser", mock.Anything, "student-1").Return(attempts, nil)
	repo.mastery.On("CountByStatus", mock.Anything, "student-1").Return(map[models.MasteryStatus]int{
		models.MasteryMastered: mastered,
	}, nil)
}

func TestEvaluateAfterAttempt_AwardsFirstSession(t *testing.T) {
	repo := newMockRepository()
	service, publisher := newAchievementForTest(repo)

	expectBaseline(repo, 1, 3, 0)
	achievement := &models.Achievement{ID: 1, Code: models.AchievementFirstSession, Name: "First Steps", Points: 10}
	repo.achievement.On("GetByCode", mock.Anything, models.AchievementFirstSession).Return(achievement, nil)
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(1)).Return(false, nil)
	repo.achievement.On("Award", mock.Anything, mock.AnythingOfType("*models.UserAchievement")).Return(nil)

	earned, err := service.EvaluateAfterAttempt(context.Background(), "student-1", &models.MasteryRecord{CurrentStreak: 1})
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, models.AchievementFirstSession, earned[0].Code)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAchievementEarned, published[0].Type)
}

func TestEvaluateAfterAttempt_AlreadyAwardedIsSkipped(t *testing.T) {
	repo := newMockRepository()
	service, publisher := newAchievementForTest(repo)

	expectBaseline(repo, 5, 20, 0)
	achievement := &models.Achievement{ID: 1, Code: models.AchievementFirstSession}
	repo.achievement.On("GetByCode", mock.Anything, models.AchievementFirstSession).Return(achievement, nil)
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(1)).Return(true, nil)

	earned, err := service.EvaluateAfterAttempt(context.Background(), "student-1", &models.MasteryRecord{})
	require.NoError(t, err)
	assert.Empty(t, earned)
	assert.Empty(t, publisher.GetPublishedEvents())
	repo.achievement.AssertNotCalled(t, "Award", mock.Anything, mock.Anything)
}

func TestEvaluateAfterAttempt_StreakAchievements(t *testing.T) {
	repo := newMockRepository()
	service, _ := newAchievementForTest(repo)

	expectBaseline(repo, 2, 30, 0)

	first := &models.Achievement{ID: 1, Code: models.AchievementFirstSession}
	streak5 := &models.Achievement{ID: 2, Code: models.AchievementStreak5, Name: "On a Roll"}
	streak10 := &models.Achievement{ID: 3, Code: models.AchievementStreak10, Name: "Unstoppable"}
	repo.achievement.On("GetByCode", mock.Anything, models.AchievementFirstSession).Return(first, nil)
	repo.achievement.On("GetByCode", mock.Anything, models.AchievementStreak5).Return(streak5, nil)
	repo.achievement.On("GetByCode", mock.Anything, models.AchievementStreak10).Return(streak10, nil)
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(1)).Return(true, nil)
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(2)).Return(true, nil)
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(3)).Return(false, nil)
	repo.achievement.On("Award", mock.Anything, mock.AnythingOfType("*models.UserAchievement")).Return(nil)

	earned, err := service.EvaluateAfterAttempt(context.Background(), "student-1", &models.MasteryRecord{CurrentStreak: 10})
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, models.AchievementStreak10, earned[0].Code)
}

func TestEvaluateAfterAttempt_MasteryCounts(t *testing.T) {
	repo := newMockRepository()
	service, _ := newAchievementForTest(repo)

	expectBaseline(repo, 3, 50, 5)

	ids := map[models.AchievementCode]uint{
		models.AchievementFirstSession:  1,
		models.AchievementFirstMastery:  4,
		models.AchievementFiveMasteries: 5,
	}
	for code, id := range ids {
		repo.achievement.On("GetByCode", mock.Anything, code).Return(&models.Achievement{ID: id, Code: code}, nil)
	}
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(1)).Return(true, nil)
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(4)).Return(true, nil)
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(5)).Return(false, nil)
	repo.achievement.On("Award", mock.Anything, mock.AnythingOfType("*models.UserAchievement")).Return(nil)

	earned, err := service.EvaluateAfterAttempt(context.Background(), "student-1", &models.MasteryRecord{})
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, models.AchievementFiveMasteries, earned[0].Code)
}

func TestEvaluateAfterAttempt_Century(t *testing.T) {
	repo := newMockRepository()
	service, _ := newAchievementForTest(repo)

	expectBaseline(repo, 10, 100, 0)

	first := &models.Achievement{ID: 1, Code: models.AchievementFirstSession}
	century := &models.Achievement{ID: 6, Code: models.AchievementCentury, Name: "Century Club"}
	repo.achievement.On("GetByCode", mock.Anything, models.AchievementFirstSession).Return(first, nil)
	repo.achievement.On("GetByCode", mock.Anything, models.AchievementCentury).Return(century, nil)
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(1)).Return(true, nil)
	repo.achievement.On("HasAward", mock.Anything, "student-1", uint(6)).Return(false, nil)
	repo.achievement.On("Award", mock.Anything, mock.AnythingOfType("*models.UserAchievement")).Return(nil)

	earned, err := service.EvaluateAfterAttempt(context.Background(), "student-1", &models.MasteryRecord{})
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, models.AchievementCentury, earned[0].Code)
}
