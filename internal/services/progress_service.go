package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/praxis-edu/practice-service/internal/cache"
	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/utils"
)

const (
	progressCacheKeyFormat = "practice:progress:%s"
	progressCacheTTL       = 5 * time.Minute

	// How many distinct practice days to pull when computing the streak.
	practiceDayWindow = 400
)

type progressService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger utils.Logger
}

func NewProgressService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	logger utils.Logger,
) ProgressService {
	return &progressService{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
	}
}

// GetProgress assembles the dashboard: lifetime totals, per-skill mastery,
// per-unit completion, the daily practice streak and earned achievements.
// Results are cached per user and invalidated after every graded attempt.
func (s *progressService) GetProgress(ctx context.Context, userID string) (*ProgressResponse, error) {
	key := fmt.Sprintf(progressCacheKeyFormat, userID)

	var cached ProgressResponse
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if err != cache.ErrCacheMiss {
		s.logger.Warn("Progress cache read failed", "user_id", userID, "error", err)
	}

	response, err := s.buildProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, response, progressCacheTTL); err != nil {
		s.logger.Warn("Progress cache write failed", "user_id", userID, "error", err)
	}
	return response, nil
}

// InvalidateProgress drops the cached dashboard so the next read rebuilds
// it. Cache failures only log; stale dashboards expire by TTL anyway.
func (s *progressService) InvalidateProgress(ctx context.Context, userID string) {
	key := fmt.Sprintf(progressCacheKeyFormat, userID)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("Progress cache invalidation failed", "user_id", userID, "error", err)
	}
}

func (s *progressService) buildProgress(ctx context.Context, userID string) (*ProgressResponse, error) {
	attempted, err := s.repo.Attempt().CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	correct, err := s.repo.Attempt().CountCorrectByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count correct attempts: %w", err)
	}
	sessions, err := s.repo.Session().CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	statusCounts, err := s.repo.Mastery().CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count mastery statuses: %w", err)
	}

	records, err := s.repo.Mastery().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mastery records: %w", err)
	}
	skills, err := s.loadSkills(ctx, records)
	if err != nil {
		return nil, err
	}

	skillProgress := make([]SkillProgress, 0, len(records))
	for _, r := range records {
		sp := SkillProgress{
			SkillID:       r.SkillID,
			Level:         r.Level,
			Status:        r.Status,
			Attempted:     r.Attempted,
			Correct:       r.Correct,
			BestStreak:    r.BestStreak,
			LastPracticed: r.LastPracticed,
		}
		if skill := skills[r.SkillID]; skill != nil {
			sp.SkillName = skill.Name
			sp.Grade = skill.Grade
			sp.Unit = skill.Unit
		}
		skillProgress = append(skillProgress, sp)
	}
	sort.Slice(skillProgress, func(i, j int) bool {
		a, b := skillProgress[i], skillProgress[j]
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.SkillID < b.SkillID
	})

	unitCompletion, err := s.unitCompletion(ctx, records, skills)
	if err != nil {
		return nil, err
	}

	streak, err := s.dailyStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	awards, err := s.repo.Achievement().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	achievements := make([]AchievementView, 0, len(awards))
	for _, award := range awards {
		achievements = append(achievements, AchievementView{
			Code:        award.Achievement.Code,
			Name:        award.Achievement.Name,
			Description: award.Achievement.Description,
			Points:      award.Achievement.Points,
		})
	}

	response := &ProgressResponse{
		TotalAttempted: int(attempted),
		TotalCorrect:   int(correct),
		TotalSessions:  int(sessions),
		DailyStreak:    streak,
		StatusCounts:   statusCounts,
		Skills:         skillProgress,
		UnitCompletion: unitCompletion,
		Achievements:   achievements,
		GeneratedAt:    time.Now(),
	}
	if attempted > 0 {
		response.OverallAccuracy = 100 * float64(correct) / float64(attempted)
	}
	return response, nil
}

func (s *progressService) loadSkills(ctx context.Context, records []*models.MasteryRecord) (map[uint]*models.Skill, error) {
	if len(records) == 0 {
		return map[uint]*models.Skill{}, nil
	}
	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.SkillID)
	}
	skills, err := s.repo.Skill().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load skills: %w", err)
	}
	bySkill := make(map[uint]*models.Skill, len(skills))
	for _, skill := range skills {
		bySkill[skill.ID] = skill
	}
	return bySkill, nil
}

// unitCompletion reports, for every grade/unit the user has touched, how
// many of the unit's skills are mastered.
func (s *progressService) unitCompletion(ctx context.Context, records []*models.MasteryRecord, skills map[uint]*models.Skill) ([]UnitCompletion, error) {
	type unitKey struct {
		grade int
		unit  int
	}
	mastered := make(map[unitKey]int)
	grades := make(map[int]bool)
	for _, r := range records {
		skill := skills[r.SkillID]
		if skill == nil {
			continue
		}
		grades[skill.Grade] = true
		if r.Status == models.MasteryMastered {
			mastered[unitKey{skill.Grade, skill.Unit}]++
		}
	}

	var completion []UnitCompletion
	for grade := range grades {
		unitCounts, err := s.repo.Skill().CountByGradeUnit(ctx, grade)
		if err != nil {
			return nil, fmt.Errorf("failed to count skills for grade %d: %w", grade, err)
		}
		for unit, skillCount := range unitCounts {
			if skillCount == 0 {
				continue
			}
			m := mastered[unitKey{grade, unit}]
			completion = append(completion, UnitCompletion{
				Grade:         grade,
				Unit:          unit,
				SkillCount:    skillCount,
				MasteredCount: m,
				CompletionPct: 100 * float64(m) / float64(skillCount),
			})
		}
	}
	sort.Slice(completion, func(i, j int) bool {
		if completion[i].Grade != completion[j].Grade {
			return completion[i].Grade < completion[j].Grade
		}
		return completion[i].Unit < completion[j].Unit
	})
	return completion, nil
}

// dailyStreak counts consecutive practice days ending today or yesterday.
func (s *progressService) dailyStreak(ctx context.Context, userID string) (int, error) {
	days, err := s.repo.Attempt().GetPracticeDays(ctx, userID, practiceDayWindow)
	if err != nil {
		return 0, fmt.Errorf("failed to load practice days: %w", err)
	}
	if len(days) == 0 {
		return 0, nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	expected := today
	if !days[0].Equal(today) {
		expected = today.AddDate(0, 0, -1)
		if !days[0].Equal(expected) {
			return 0, nil
		}
	}

	streak := 0
	for _, day := range days {
		if !day.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak, nil
}
