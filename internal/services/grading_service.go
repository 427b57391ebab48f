package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/praxis-edu/practice-service/internal/events"
	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/utils"
	"github.com/praxis-edu/practice-service/internal/validator"
)

type gradingService struct {
	repo        repositories.Repository
	publisher   events.EventPublisher
	achievement AchievementService
	progress    ProgressService
	logger      utils.Logger
	validator   *validator.Validator
}

func NewGradingService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	achievement AchievementService,
	progress ProgressService,
	logger utils.Logger,
	v *validator.Validator,
) GradingService {
	return &gradingService{
		repo:        repo,
		publisher:   publisher,
		achievement: achievement,
		progress:    progress,
		logger:      logger,
		validator:   v,
	}
}

// SubmitAnswer grades one submission. The attempt insert and the mastery
// record update happen in one transaction; a failure in either rolls both
// back. Achievements, events and cache invalidation run after commit and
// never fail the grading response.
func (s *gradingService) SubmitAnswer(ctx context.Context, req *SubmitAnswerRequest, userID string) (*GradeResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	session, err := s.repo.Session().GetByID(ctx, req.SessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.UserID != userID {
		return nil, NewPermissionError(userID, session.ID, "session", "answer", "session belongs to another user")
	}
	if session.Status != models.SessionActive {
		return nil, ErrSessionNotActive
	}
	if !sessionContainsQuestion(session, req.QuestionID) {
		return nil, ErrQuestionNotInSession
	}

	question, err := s.repo.Question().GetByID(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}

	isCorrect, correctAnswer, err := checkAnswer(question, req.UserAnswer)
	if err != nil {
		return nil, err
	}
	points := attemptPoints(question, isCorrect, req.HintsUsed)
	now := time.Now()

	attempt := &models.PracticeAttempt{
		SessionID:        session.ID,
		QuestionID:       question.ID,
		SkillID:          question.SkillID,
		UserID:           userID,
		Submitted:        datatypes.JSON(req.UserAnswer),
		IsCorrect:        isCorrect,
		HintsUsed:        req.HintsUsed,
		TimeTakenSeconds: req.TimeTakenSeconds,
		PointsEarned:     points,
	}

	var (
		record        *models.MasteryRecord
		crossedThresh bool
	)
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Attempt().Create(ctx, attempt); err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}

		record, err = tx.Mastery().GetByUserAndSkill(ctx, userID, question.SkillID)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to load mastery record: %w", err)
			}
			record = &models.MasteryRecord{
				UserID:  userID,
				SkillID: question.SkillID,
				Status:  models.MasteryNew,
			}
			if err := tx.Mastery().Create(ctx, record); err != nil {
				return fmt.Errorf("failed to create mastery record: %w", err)
			}
		}

		wasMastered := record.Status == models.MasteryMastered
		advanceMastery(record, isCorrect, req.TimeTakenSeconds, now)
		crossedThresh = !wasMastered && record.Status == models.MasteryMastered

		if err := tx.Mastery().Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update mastery record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	achievements := s.afterCommit(ctx, userID, question, attempt, record, crossedThresh)

	solutionSteps := decodeStringList(question.SolutionSteps)

	return &GradeResponse{
		IsCorrect:          isCorrect,
		CorrectAnswer:      correctAnswer,
		SolutionSteps:      solutionSteps,
		NewMasteryLevel:    record.Level,
		NewMasteryStatus:   record.Status,
		PointsEarned:       points,
		AchievementsEarned: achievements,
	}, nil
}

// afterCommit handles the best-effort side effects of a graded attempt.
// Failures here are logged and never surfaced to the caller.
func (s *gradingService) afterCommit(
	ctx context.Context,
	userID string,
	question *models.Question,
	attempt *models.PracticeAttempt,
	record *models.MasteryRecord,
	crossedThresh bool,
) []AchievementView {
	if err := s.publisher.PublishPracticeEvent(ctx, events.NewAttemptGradedEvent(attempt, record.Level)); err != nil {
		s.logger.Warn("Failed to publish attempt graded event", "attempt_id", attempt.ID, "error", err)
	}

	if crossedThresh {
		skillName := ""
		if skill, err := s.repo.Skill().GetByID(ctx, question.SkillID); err == nil {
			skillName = skill.Name
		}
		if err := s.publisher.PublishPracticeEvent(ctx, events.NewSkillMasteredEvent(userID, question.SkillID, skillName, record.Level)); err != nil {
			s.logger.Warn("Failed to publish skill mastered event", "skill_id", question.SkillID, "error", err)
		}
	}

	var views []AchievementView
	earned, err := s.achievement.EvaluateAfterAttempt(ctx, userID, record)
	if err != nil {
		s.logger.Warn("Achievement evaluation failed", "user_id", userID, "error", err)
	} else {
		for _, a := range earned {
			views = append(views, AchievementView{
				Code:        a.Code,
				Name:        a.Name,
				Description: a.Description,
				Points:      a.Points,
			})
		}
	}

	s.progress.InvalidateProgress(ctx, userID)
	return views
}

func sessionContainsQuestion(session *models.PracticeSession, questionID uint) bool {
	var ids []uint
	if err := json.Unmarshal(session.QuestionIDs, &ids); err != nil {
		return false
	}
	for _, id := range ids {
		if id == questionID {
			return true
		}
	}
	return false
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}
