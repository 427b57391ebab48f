package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"

	"github.com/praxis-edu/practice-service/internal/events"
	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/utils"
)

type sessionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewSessionService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger utils.Logger,
) SessionService {
	return &sessionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// EndSession rolls the session's attempt ledger up into summary statistics
// and writes the summary onto the session row. The stats are recomputed from
// the ledger on every call, so calling it again overwrites rather than
// double-counts. A session with zero attempts ends with all-zero stats.
func (s *sessionService) EndSession(ctx context.Context, sessionID uint, userID string) (*EndSessionResponse, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.UserID != userID {
		return nil, NewPermissionError(userID, session.ID, "session", "end", "session belongs to another user")
	}

	attempts, err := s.repo.Attempt().GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session attempts: %w", err)
	}

	stats := computeSessionStats(attempts)

	summaryJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session summary: %w", err)
	}
	firstEnd := session.Status == models.SessionActive
	now := time.Now()
	session.Status = models.SessionCompleted
	session.Summary = datatypes.JSON(summaryJSON)
	if session.EndedAt == nil {
		session.EndedAt = &now
	}
	if err := s.repo.Session().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	deltas, err := s.skillDeltas(ctx, userID, attempts)
	if err != nil {
		return nil, err
	}

	if firstEnd {
		if pubErr := s.publisher.PublishPracticeEvent(ctx, events.NewSessionCompletedEvent(session, stats)); pubErr != nil {
			s.logger.Warn("Failed to publish session completed event", "session_id", session.ID, "error", pubErr)
		}
	}

	s.logger.InfoContext(ctx, "Practice session ended",
		"session_id", session.ID,
		"user_id", userID,
		"attempted", stats.QuestionsAttempted,
		"correct", stats.QuestionsCorrect)

	return &EndSessionResponse{
		SessionStats:  stats,
		SkillProgress: deltas,
	}, nil
}

func (s *sessionService) GetHistory(ctx context.Context, userID string, filters repositories.SessionFilters) ([]*models.PracticeSession, int64, error) {
	sessions, total, err := s.repo.Session().GetByUser(ctx, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load session history: %w", err)
	}
	return sessions, total, nil
}

func computeSessionStats(attempts []*models.PracticeAttempt) models.SessionStats {
	stats := models.SessionStats{}
	for _, a := range attempts {
		stats.QuestionsAttempted++
		if a.IsCorrect {
			stats.QuestionsCorrect++
		}
		stats.TotalTimeSeconds += a.TimeTakenSeconds
		stats.PointsEarned += a.PointsEarned
	}
	if stats.QuestionsAttempted > 0 {
		stats.AccuracyPct = 100 * float64(stats.QuestionsCorrect) / float64(stats.QuestionsAttempted)
		stats.AvgTimePerQuestion = float64(stats.TotalTimeSeconds) / float64(stats.QuestionsAttempted)
	}
	return stats
}

// skillDeltas reports the per-skill movement of the session: how many of the
// session's attempts hit each skill and where the mastery record stands now.
func (s *sessionService) skillDeltas(ctx context.Context, userID string, attempts []*models.PracticeAttempt) ([]models.SkillDelta, error) {
	type tally struct {
		attempted int
		correct   int
	}
	bySkill := make(map[uint]*tally)
	for _, a := range attempts {
		t := bySkill[a.SkillID]
		if t == nil {
			t = &tally{}
			bySkill[a.SkillID] = t
		}
		t.attempted++
		if a.IsCorrect {
			t.correct++
		}
	}
	if len(bySkill) == 0 {
		return []models.SkillDelta{}, nil
	}

	skillIDs := make([]uint, 0, len(bySkill))
	for id := range bySkill {
		skillIDs = append(skillIDs, id)
	}
	sort.Slice(skillIDs, func(i, j int) bool { return skillIDs[i] < skillIDs[j] })

	skills, err := s.repo.Skill().GetByIDs(ctx, skillIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load skills: %w", err)
	}
	names := make(map[uint]string, len(skills))
	for _, sk := range skills {
		names[sk.ID] = sk.Name
	}

	records, err := s.repo.Mastery().GetByUserAndSkills(ctx, userID, skillIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load mastery records: %w", err)
	}
	recordBySkill := make(map[uint]*models.MasteryRecord, len(records))
	for _, r := range records {
		recordBySkill[r.SkillID] = r
	}

	deltas := make([]models.SkillDelta, 0, len(skillIDs))
	for _, id := range skillIDs {
		t := bySkill[id]
		delta := models.SkillDelta{
			SkillID:   id,
			SkillName: names[id],
			Attempted: t.attempted,
			Correct:   t.correct,
		}
		if r := recordBySkill[id]; r != nil {
			delta.Level = r.Level
			delta.Status = r.Status
		}
		deltas = append(deltas, delta)
	}
	return deltas, nil
}
