package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/tutorquest-api/internal/handler/dto"
	"github.com/yourusername/tutorquest-api/internal/websocket"
)

// WSHandler подключает зрителей к живой таблице турнира
type WSHandler struct {
	hub         *websocket.Hub
	tournaments TournamentUseCase
	upgrader    gorillaws.Upgrader
}

// NewWSHandler создает обработчик WebSocket.
// allowedOrigins синхронизирован с CORS в main.go.
func NewWSHandler(hub *websocket.Hub, tournaments TournamentUseCase, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSHandler{
		hub:         hub,
		tournaments: tournaments,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// без Origin подключается не браузер (мобильное приложение, curl)
				if origin == "" || allowed[origin] {
					return true
				}
				log.Printf("[WebSocket] rejected unauthorized origin: %s", origin)
				return false
			},
		},
	}
}

// HandleConnection поднимает соединение и отправляет текущую таблицу
// GET /ws/tournaments/:id?token=...
func (h *WSHandler) HandleConnection(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tournamentID := c.MustGet(TournamentIDKey).(uint)

	// турнир должен существовать до апгрейда, иначе клиент получит обычный 404
	tournament, board, err := h.tournaments.Leaderboard(c.Request.Context(), tournamentID)
	if err != nil {
		handleServiceError(c, "WSHandler", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade сам пишет ответ об ошибке
		log.Printf("[WebSocket] upgrade failed for user %d: %v", userID, err)
		return
	}

	client := websocket.NewClient(h.hub, conn, userID, tournamentID)
	snapshot := dto.NewLeaderboardResponse(tournament, h.tournaments.StatusOf(tournament), board)
	if err := h.hub.SendEvent(client, websocket.EventConnected, snapshot); err != nil {
		log.Printf("[WebSocket] failed to send snapshot to user %d: %v", userID, err)
	}

	log.Printf("[WebSocket] user %d connected to tournament %d (conn=%s)", userID, tournamentID, client.ConnectionID)
	client.Run()
}
