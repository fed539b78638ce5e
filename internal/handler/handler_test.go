package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/middleware"
	"github.com/yourusername/tutorquest-api/internal/service"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// Моки сервисов
// ============================================================================

type MockTournamentServiceForHandler struct {
	mock.Mock
}

func (m *MockTournamentServiceForHandler) StatusOf(t *entity.DailyTournament) ranking.Status {
	args := m.Called(t)
	return args.Get(0).(ranking.Status)
}

func (m *MockTournamentServiceForHandler) GetActive(ctx context.Context, userID uint) ([]service.TournamentView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.TournamentView), args.Error(1)
}

func (m *MockTournamentServiceForHandler) Submit(ctx context.Context, tournamentID, userID uint, answers []ranking.Answer) (*service.SubmitResult, error) {
	args := m.Called(ctx, tournamentID, userID, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmitResult), args.Error(1)
}

func (m *MockTournamentServiceForHandler) Leaderboard(ctx context.Context, tournamentID uint) (*entity.DailyTournament, []ranking.RankedEntry, error) {
	args := m.Called(ctx, tournamentID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.DailyTournament), args.Get(1).([]ranking.RankedEntry), args.Error(2)
}

func (m *MockTournamentServiceForHandler) History(ctx context.Context, userID uint) ([]service.HistoryItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.HistoryItem), args.Error(1)
}

func (m *MockTournamentServiceForHandler) Create(ctx context.Context, adminID uint, in service.CreateTournamentInput) (*entity.DailyTournament, error) {
	args := m.Called(ctx, adminID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyTournament), args.Error(1)
}

func (m *MockTournamentServiceForHandler) Delete(ctx context.Context, tournamentID uint) error {
	args := m.Called(ctx, tournamentID)
	return args.Error(0)
}

type MockLeagueServiceForHandler struct {
	mock.Mock
}

func (m *MockLeagueServiceForHandler) RunWeeklyPromotion(ctx context.Context, force bool) (*service.PromotionReport, error) {
	args := m.Called(ctx, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PromotionReport), args.Error(1)
}

func (m *MockLeagueServiceForHandler) Standings(ctx context.Context, tierName string) (*service.TierStandings, error) {
	args := m.Called(ctx, tierName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TierStandings), args.Error(1)
}

func (m *MockLeagueServiceForHandler) My(ctx context.Context, userID uint) (*service.MyLeague, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MyLeague), args.Error(1)
}

func (m *MockLeagueServiceForHandler) History(ctx context.Context, userID uint) ([]entity.LeagueMovement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeagueMovement), args.Error(1)
}

// ============================================================================
// Хелперы
// ============================================================================

const testUserID uint = 7

// asUser подменяет RequireAuth: выставляет пользователя и роль в контекст
func asUser(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, testUserID)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func newTournamentRouter(svc TournamentUseCase) *gin.Engine {
	h := NewTournamentHandler(svc)
	r := gin.New()
	g := r.Group("/api/tournaments/daily", asUser(entity.RoleAdmin))
	g.GET("/active", h.GetActive)
	g.GET("/history", h.History)
	g.POST("", h.Create)
	withID := g.Group("/:id", middleware.ExtractUintParam("id", TournamentIDKey))
	withID.POST("/submit", h.Submit)
	withID.GET("/leaderboard", h.Leaderboard)
	withID.GET("/leaderboard/export", h.ExportLeaderboard)
	withID.DELETE("", h.Delete)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

func requireErrorType(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantType string) {
	t.Helper()
	require.Equal(t, wantStatus, w.Code, w.Body.String())
	require.Equal(t, wantType, parseJSONResponse(t, w)["error_type"])
}
