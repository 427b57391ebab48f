package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gorm.io/datatypes"

	"github.com/google/uuid"
	"github.com/praxis-edu/practice-service/internal/events"
	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/utils"
	"github.com/praxis-edu/practice-service/internal/validator"
)

// Review mode cutoffs: a skill qualifies when it was last practiced more
// than reviewStaleness ago or its level sits below reviewLevelThreshold.
const (
	reviewStaleness      = 7 * 24 * time.Hour
	reviewLevelThreshold = 70.0

	// Onboarding band for skills the user has never practiced.
	onboardingMaxTier = 2
)

type selectorService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    utils.Logger
	validator *validator.Validator
}

func NewSelectorService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger utils.Logger,
	v *validator.Validator,
) SelectorService {
	return &selectorService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// StartSession selects and orders questions for one sitting and persists the
// session row. Selection never mutates mastery records. A result with fewer
// questions than requested, including zero, is a valid short session.
func (s *selectorService) StartSession(ctx context.Context, req *StartSessionRequest, userID string) (*StartSessionResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	var (
		questions []*models.Question
		err       error
	)

	switch req.Mode {
	case models.ModeTargeted:
		questions, err = s.selectTargeted(ctx, req)
	case models.ModeMixed:
		questions, err = s.selectMixed(ctx, userID, req.NumQuestions)
	case models.ModeReview:
		questions, err = s.selectReview(ctx, userID, req.NumQuestions)
	case models.ModeAdaptive:
		questions, err = s.selectAdaptive(ctx, userID, req)
	default:
		return nil, NewValidationError("mode", "unknown session mode", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	if len(questions) > req.NumQuestions {
		questions = questions[:req.NumQuestions]
	}

	session, err := s.persistSession(ctx, req, userID, questions)
	if err != nil {
		return nil, err
	}

	if pubErr := s.publisher.PublishPracticeEvent(ctx, events.NewSessionStartedEvent(session, len(questions))); pubErr != nil {
		s.logger.Warn("Failed to publish session started event", "session_id", session.ID, "error", pubErr)
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, buildQuestionView(q))
	}

	s.logger.InfoContext(ctx, "Practice session started",
		"session_id", session.ID,
		"user_id", userID,
		"mode", req.Mode,
		"question_count", len(questions))

	return &StartSessionResponse{
		SessionID:      session.ID,
		ExternalID:     session.ExternalID,
		SessionType:    session.Mode,
		Questions:      views,
		TotalQuestions: len(questions),
	}, nil
}

// selectTargeted returns questions for one skill ordered by ascending
// difficulty tier with random tie order.
func (s *selectorService) selectTargeted(ctx context.Context, req *StartSessionRequest) ([]*models.Question, error) {
	if req.SkillID == nil {
		return nil, ErrSessionSkillRequired
	}
	if _, err := s.repo.Skill().GetByID(ctx, *req.SkillID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSkillNotFound
		}
		return nil, fmt.Errorf("failed to load skill: %w", err)
	}

	questions, err := s.repo.Question().GetEligible(ctx, repositories.EligibleQuestionFilters{
		SkillID: req.SkillID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible questions: %w", err)
	}

	shuffleQuestions(questions)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].DifficultyTier < questions[j].DifficultyTier
	})
	return questions, nil
}

// selectMixed draws from every skill the user currently has in learning or
// practiced status, random order.
func (s *selectorService) selectMixed(ctx context.Context, userID string, count int) ([]*models.Question, error) {
	records, err := s.repo.Mastery().GetByStatuses(ctx, userID, []models.MasteryStatus{
		models.MasteryLearning,
		models.MasteryPracticed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load mastery records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	skillIDs := make([]uint, 0, len(records))
	for _, r := range records {
		skillIDs = append(skillIDs, r.SkillID)
	}

	questions, err := s.repo.Question().GetEligible(ctx, repositories.EligibleQuestionFilters{
		SkillIDs: skillIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible questions: %w", err)
	}

	shuffleQuestions(questions)
	return questions, nil
}

// selectReview pulls questions from stale or weak skills, oldest-practiced
// skill first. Within one skill the order is random.
func (s *selectorService) selectReview(ctx context.Context, userID string, count int) ([]*models.Question, error) {
	staleBefore := time.Now().Add(-reviewStaleness)
	records, err := s.repo.Mastery().GetReviewCandidates(ctx, userID, staleBefore, reviewLevelThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to load review candidates: %w", err)
	}

	var selected []*models.Question
	for _, record := range records {
		if len(selected) >= count {
			break
		}
		skillID := record.SkillID
		questions, err := s.repo.Question().GetEligible(ctx, repositories.EligibleQuestionFilters{
			SkillID: &skillID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load eligible questions: %w", err)
		}
		shuffleQuestions(questions)
		selected = append(selected, questions...)
	}
	return selected, nil
}

// selectAdaptive restricts each skill to a difficulty band of ±1 around the
// ideal tier derived from its mastery level, tiers 1-2 for unseen skills, and
// orders candidates by ascending distance from the ideal tier.
func (s *selectorService) selectAdaptive(ctx context.Context, userID string, req *StartSessionRequest) ([]*models.Question, error) {
	type band struct {
		filters repositories.EligibleQuestionFilters
		ideal   int
	}
	var bands []band

	if req.SkillID != nil {
		skillID := *req.SkillID
		if _, err := s.repo.Skill().GetByID(ctx, skillID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrSkillNotFound
			}
			return nil, fmt.Errorf("failed to load skill: %w", err)
		}

		record, err := s.repo.Mastery().GetByUserAndSkill(ctx, userID, skillID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load mastery record: %w", err)
		}

		ideal := 1
		minTier, maxTier := 1, onboardingMaxTier
		if record != nil {
			ideal = record.IdealTier()
			minTier, maxTier = tierBand(ideal)
		}
		bands = append(bands, band{
			filters: repositories.EligibleQuestionFilters{SkillID: &skillID, MinTier: minTier, MaxTier: maxTier},
			ideal:   ideal,
		})
	} else {
		records, err := s.repo.Mastery().GetByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load mastery records: %w", err)
		}
		if len(records) == 0 {
			// Fresh user: onboard across all skills at the easy tiers.
			bands = append(bands, band{
				filters: repositories.EligibleQuestionFilters{MinTier: 1, MaxTier: onboardingMaxTier},
				ideal:   1,
			})
		}
		for _, record := range records {
			skillID := record.SkillID
			ideal := record.IdealTier()
			minTier, maxTier := tierBand(ideal)
			bands = append(bands, band{
				filters: repositories.EligibleQuestionFilters{SkillID: &skillID, MinTier: minTier, MaxTier: maxTier},
				ideal:   ideal,
			})
		}
	}

	type candidate struct {
		question *models.Question
		distance int
	}
	var candidates []candidate
	for _, b := range bands {
		questions, err := s.repo.Question().GetEligible(ctx, b.filters)
		if err != nil {
			return nil, fmt.Errorf("failed to load eligible questions: %w", err)
		}
		for _, q := range questions {
			d := q.DifficultyTier - b.ideal
			if d < 0 {
				d = -d
			}
			candidates = append(candidates, candidate{question: q, distance: d})
		}
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	questions := make([]*models.Question, 0, len(candidates))
	for _, c := range candidates {
		questions = append(questions, c.question)
	}
	return questions, nil
}

func (s *selectorService) persistSession(ctx context.Context, req *StartSessionRequest, userID string, questions []*models.Question) (*models.PracticeSession, error) {
	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question ids: %w", err)
	}

	session := &models.PracticeSession{
		ExternalID:  uuid.NewString(),
		UserID:      userID,
		Mode:        req.Mode,
		SkillID:     req.SkillID,
		Status:      models.SessionActive,
		QuestionIDs: datatypes.JSON(idsJSON),
		StartedAt:   time.Now(),
	}
	if err := s.repo.Session().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// tierBand clamps ideal±1 to the valid 1-5 tier range.
func tierBand(ideal int) (int, int) {
	minTier := ideal - 1
	if minTier < 1 {
		minTier = 1
	}
	maxTier := ideal + 1
	if maxTier > 5 {
		maxTier = 5
	}
	return minTier, maxTier
}

func shuffleQuestions(questions []*models.Question) {
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}

// buildQuestionView strips the answer key out of the stored payload so a
// question can be handed to the student.
func buildQuestionView(q *models.Question) QuestionView {
	view := QuestionView{
		ID:             q.ID,
		SkillID:        q.SkillID,
		Type:           q.Type,
		Prompt:         q.Prompt,
		DifficultyTier: q.DifficultyTier,
		Points:         q.Points,
	}

	switch q.Type {
	case models.MultipleChoice:
		var payload models.ChoicePayload
		if err := json.Unmarshal(q.Payload, &payload); err == nil {
			view.Options = payload.Options
		}
	case models.TrueFalse:
		view.Options = []string{"true", "false"}
	case models.MultiSelect:
		var payload models.MultiSelectPayload
		if err := json.Unmarshal(q.Payload, &payload); err == nil {
			view.Options = payload.Options
		}
	}

	if len(q.Hints) > 0 {
		var hints []string
		if err := json.Unmarshal(q.Hints, &hints); err == nil {
			view.Hints = hints
		}
	}
	return view
}
