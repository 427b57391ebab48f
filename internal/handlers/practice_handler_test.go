package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-edu/practice-service/internal/models"
	"github.com/praxis-edu/practice-service/internal/repositories"
	"github.com/praxis-edu/practice-service/internal/services"
	"github.com/praxis-edu/practice-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ===== STUBS =====

type stubSelector struct {
	startFn func(ctx context.Context, req *services.StartSessionRequest, userID string) (*services.StartSessionResponse, error)
}

func (s *stubSelector) StartSession(ctx context.Context, req *services.StartSessionRequest, userID string) (*services.StartSessionResponse, error) {
	return s.startFn(ctx, req, userID)
}

type stubGrading struct {
	submitFn func(ctx context.Context, req *services.SubmitAnswerRequest, userID string) (*services.GradeResponse, error)
}

func (s *stubGrading) SubmitAnswer(ctx context.Context, req *services.SubmitAnswerRequest, userID string) (*services.GradeResponse, error) {
	return s.submitFn(ctx, req, userID)
}

type stubSession struct {
	endFn     func(ctx context.Context, sessionID uint, userID string) (*services.EndSessionResponse, error)
	historyFn func(ctx context.Context, userID string, filters repositories.SessionFilters) ([]*models.PracticeSession, int64, error)
}

func (s *stubSession) EndSession(ctx context.Context, sessionID uint, userID string) (*services.EndSessionResponse, error) {
	return s.endFn(ctx, sessionID, userID)
}

func (s *stubSession) GetHistory(ctx context.Context, userID string, filters repositories.SessionFilters) ([]*models.PracticeSession, int64, error) {
	return s.historyFn(ctx, userID, filters)
}

type stubProgress struct {
	progressFn func(ctx context.Context, userID string) (*services.ProgressResponse, error)
}

func (s *stubProgress) GetProgress(ctx context.Context, userID string) (*services.ProgressResponse, error) {
	return s.progressFn(ctx, userID)
}

func (s *stubProgress) InvalidateProgress(ctx context.Context, userID string) {}

type stubAchievement struct {
	byUserFn func(ctx context.Context, userID string) ([]*models.UserAchievement, error)
}

func (s *stubAchievement) EvaluateAfterAttempt(ctx context.Context, userID string, record *models.MasteryRecord) ([]*models.Achievement, error) {
	return nil, nil
}

func (s *stubAchievement) GetByUser(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	return s.byUserFn(ctx, userID)
}

// stubServiceManager hands the practice handler its stub dependencies. The
// skill/question/import services stay nil: these tests never route to them.
type stubServiceManager struct {
	selector    services.SelectorService
	grading     services.GradingService
	session     services.SessionService
	progress    services.ProgressService
	achievement services.AchievementService
}

func (sm *stubServiceManager) Selector() services.SelectorService         { return sm.selector }
func (sm *stubServiceManager) Grading() services.GradingService           { return sm.grading }
func (sm *stubServiceManager) Session() services.SessionService           { return sm.session }
func (sm *stubServiceManager) Progress() services.ProgressService         { return sm.progress }
func (sm *stubServiceManager) Achievement() services.AchievementService   { return sm.achievement }
func (sm *stubServiceManager) Skill() services.SkillService               { return nil }
func (sm *stubServiceManager) Question() services.QuestionService         { return nil }
func (sm *stubServiceManager) ImportExport() services.ImportExportService { return nil }

// testAuth mirrors the disabled-auth middleware: the user comes from the
// X-User-ID header when present.
func testAuth(c *gin.Context) {
	if userID := c.GetHeader("X-User-ID"); userID != "" {
		c.Set("user_id", userID)
	}
	c.Next()
}

func newTestRouter(sm *stubServiceManager) *gin.Engine {
	hm := NewHandlerManager(sm, utils.NewDevelopmentLogger())
	router := gin.New()
	hm.SetupRoutes(router, testAuth)
	return router
}

func doRequest(router *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "student-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ===== TESTS =====

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubServiceManager{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestStartSession_Created(t *testing.T) {
	var gotUserID string
	sm := &stubServiceManager{
		selector: &stubSelector{
			startFn: func(_ context.Context, req *services.StartSessionRequest, userID string) (*services.StartSessionResponse, error) {
				gotUserID = userID
				return &services.StartSessionResponse{
					SessionID:      42,
					ExternalID:     "abc-123",
					SessionType:    req.Mode,
					TotalQuestions: 0,
				}, nil
			},
		},
	}
	router := newTestRouter(sm)

	body := bytes.NewBufferString(`{"mode": "adaptive", "num_questions": 10}`)
	w := doRequest(router, http.MethodPost, "/api/v1/practice/session/start", body)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "student-1", gotUserID)

	var resp services.StartSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(42), resp.SessionID)
	assert.Equal(t, models.ModeAdaptive, resp.SessionType)
}

func TestStartSession_MissingUser(t *testing.T) {
	router := newTestRouter(&stubServiceManager{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/practice/session/start",
		strings.NewReader(`{"mode": "mixed", "num_questions": 5}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStartSession_MalformedBody(t *testing.T) {
	router := newTestRouter(&stubServiceManager{})

	w := doRequest(router, http.MethodPost, "/api/v1/practice/session/start",
		strings.NewReader(`{"mode": `))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAnswer_OK(t *testing.T) {
	sm := &stubServiceManager{
		grading: &stubGrading{
			submitFn: func(_ context.Context, req *services.SubmitAnswerRequest, _ string) (*services.GradeResponse, error) {
				return &services.GradeResponse{
					IsCorrect:        true,
					CorrectAnswer:    1,
					NewMasteryLevel:  12.0,
					NewMasteryStatus: models.MasteryLearning,
					PointsEarned:     10,
				}, nil
			},
		},
	}
	router := newTestRouter(sm)

	body := bytes.NewBufferString(`{
		"session_id": 42,
		"question_id": 7,
		"user_answer": {"selected_index": 1},
		"time_taken_seconds": 20
	}`)
	w := doRequest(router, http.MethodPost, "/api/v1/practice/answer", body)

	require.Equal(t, http.StatusOK, w.Code)

	var resp services.GradeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsCorrect)
	assert.Equal(t, 10, resp.PointsEarned)
}

func TestSubmitAnswer_SessionNotFound(t *testing.T) {
	sm := &stubServiceManager{
		grading: &stubGrading{
			submitFn: func(context.Context, *services.SubmitAnswerRequest, string) (*services.GradeResponse, error) {
				return nil, services.ErrSessionNotFound
			},
		},
	}
	router := newTestRouter(sm)

	body := bytes.NewBufferString(`{"session_id": 99, "question_id": 7, "user_answer": {"selected_index": 0}}`)
	w := doRequest(router, http.MethodPost, "/api/v1/practice/answer", body)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitAnswer_ForeignSessionForbidden(t *testing.T) {
	sm := &stubServiceManager{
		grading: &stubGrading{
			submitFn: func(context.Context, *services.SubmitAnswerRequest, string) (*services.GradeResponse, error) {
				return nil, services.NewPermissionError("student-1", 42, "session", "answer", "session belongs to another user")
			},
		},
	}
	router := newTestRouter(sm)

	body := bytes.NewBufferString(`{"session_id": 42, "question_id": 7, "user_answer": {"selected_index": 0}}`)
	w := doRequest(router, http.MethodPost, "/api/v1/practice/answer", body)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEndSession_OK(t *testing.T) {
	sm := &stubServiceManager{
		session: &stubSession{
			endFn: func(_ context.Context, sessionID uint, _ string) (*services.EndSessionResponse, error) {
				assert.Equal(t, uint(42), sessionID)
				return &services.EndSessionResponse{
					SessionStats: models.SessionStats{
						QuestionsAttempted: 3,
						QuestionsCorrect:   2,
						AccuracyPct:        66.67,
					},
				}, nil
			},
		},
	}
	router := newTestRouter(sm)

	w := doRequest(router, http.MethodPost, "/api/v1/practice/session/end",
		strings.NewReader(`{"session_id": 42}`))

	require.Equal(t, http.StatusOK, w.Code)

	var resp services.EndSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.SessionStats.QuestionsAttempted)
}

func TestEndSession_MissingSessionID(t *testing.T) {
	router := newTestRouter(&stubServiceManager{})

	w := doRequest(router, http.MethodPost, "/api/v1/practice/session/end",
		strings.NewReader(`{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEndSession_NotActiveConflict(t *testing.T) {
	sm := &stubServiceManager{
		session: &stubSession{
			endFn: func(context.Context, uint, string) (*services.EndSessionResponse, error) {
				return nil, services.ErrSessionNotActive
			},
		},
	}
	router := newTestRouter(sm)

	w := doRequest(router, http.MethodPost, "/api/v1/practice/session/end",
		strings.NewReader(`{"session_id": 42}`))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetProgress_OK(t *testing.T) {
	sm := &stubServiceManager{
		progress: &stubProgress{
			progressFn: func(_ context.Context, userID string) (*services.ProgressResponse, error) {
				return &services.ProgressResponse{
					TotalAttempted:  12,
					TotalCorrect:    9,
					OverallAccuracy: 75,
					DailyStreak:     3,
				}, nil
			},
		},
	}
	router := newTestRouter(sm)

	w := doRequest(router, http.MethodGet, "/api/v1/practice/progress", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp services.ProgressResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.TotalAttempted)
	assert.Equal(t, 3, resp.DailyStreak)
}

func TestGetHistory_PassesFilters(t *testing.T) {
	var gotFilters repositories.SessionFilters
	sm := &stubServiceManager{
		session: &stubSession{
			historyFn: func(_ context.Context, _ string, filters repositories.SessionFilters) ([]*models.PracticeSession, int64, error) {
				gotFilters = filters
				return []*models.PracticeSession{}, 0, nil
			},
		},
	}
	router := newTestRouter(sm)

	w := doRequest(router, http.MethodGet,
		"/api/v1/practice/sessions?limit=5&offset=10&mode=targeted&status=completed", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, gotFilters.Limit)
	assert.Equal(t, 10, gotFilters.Offset)
	require.NotNil(t, gotFilters.Mode)
	assert.Equal(t, models.ModeTargeted, *gotFilters.Mode)
	require.NotNil(t, gotFilters.Status)
	assert.Equal(t, models.SessionCompleted, *gotFilters.Status)
}

func TestGetAchievements_OK(t *testing.T) {
	sm := &stubServiceManager{
		achievement: &stubAchievement{
			byUserFn: func(_ context.Context, userID string) ([]*models.UserAchievement, error) {
				return []*models.UserAchievement{
					{ID: 1, UserID: userID, AchievementID: 2},
				}, nil
			},
		},
	}
	router := newTestRouter(sm)

	w := doRequest(router, http.MethodGet, "/api/v1/practice/achievements", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
}
