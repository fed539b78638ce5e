package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/middleware"
	"github.com/yourusername/tutorquest-api/internal/service"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
	"github.com/yourusername/tutorquest-api/internal/websocket"
)

func newWSServer(t *testing.T, svc TournamentUseCase, hub *websocket.Hub) *httptest.Server {
	t.Helper()
	h := NewWSHandler(hub, svc, []string{"http://localhost:5173"})
	r := gin.New()
	r.GET("/ws/tournaments/:id", asUser(entity.RoleStudent), middleware.ExtractUintParam("id", TournamentIDKey), h.HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestWSHandler_SendsSnapshotThenUpdates(t *testing.T) {
	svc := new(MockTournamentServiceForHandler)
	tour := testTournament()
	svc.On("Leaderboard", mock.Anything, uint(5)).Return(tour, testBoard(), nil)
	svc.On("StatusOf", tour).Return(ranking.StatusActive)
	hub := websocket.NewHub()
	srv := newWSServer(t, svc, hub)

	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/5"), nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first websocket.Event
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, websocket.EventConnected, first.Type)
	snapshot := first.Data.(map[string]interface{})
	assert.Equal(t, float64(2), snapshot["total_participants"])

	require.Eventually(t, func() bool { return hub.RoomSize(5) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.BroadcastToTournament(5, websocket.EventLeaderboardUpdated, map[string]int{"total_participants": 3}))

	var update websocket.Event
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, websocket.EventLeaderboardUpdated, update.Type)
}

func TestWSHandler_UnknownTournament(t *testing.T) {
	svc := new(MockTournamentServiceForHandler)
	svc.On("Leaderboard", mock.Anything, uint(9)).Return(nil, nil, service.ErrTournamentNotFound)
	srv := newWSServer(t, svc, websocket.NewHub())

	_, resp, err := gorillaws.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/9"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWSHandler_RejectsForeignOrigin(t *testing.T) {
	svc := new(MockTournamentServiceForHandler)
	tour := testTournament()
	svc.On("Leaderboard", mock.Anything, uint(5)).Return(tour, testBoard(), nil)
	srv := newWSServer(t, svc, websocket.NewHub())

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := gorillaws.DefaultDialer.Dial(wsURL(srv, "/ws/tournaments/5"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
