package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/tutorquest-api/internal/handler/dto"
	"github.com/yourusername/tutorquest-api/internal/service"
)

// ScoreboardHandler - мини-игра с футбольной таблицей, без хранения состояния
type ScoreboardHandler struct {
	scoreboard *service.ScoreboardService
}

// NewScoreboardHandler создает новый обработчик мини-игры
func NewScoreboardHandler(scoreboard *service.ScoreboardService) *ScoreboardHandler {
	return &ScoreboardHandler{scoreboard: scoreboard}
}

// Fixtures строит расписание кругового турнира
// POST /api/scoreboard/fixtures
func (h *ScoreboardHandler) Fixtures(c *gin.Context) {
	var req dto.FixturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rounds, err := h.scoreboard.Fixtures(req.Teams)
	if err != nil {
		handleServiceError(c, "ScoreboardHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewFixturesResponse(rounds))
}

// Standings считает таблицу по результатам матчей
// POST /api/scoreboard/standings
func (h *ScoreboardHandler) Standings(c *gin.Context) {
	var req dto.StandingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rows, err := h.scoreboard.Standings(req.Teams, req.Fixtures, req.Results)
	if err != nil {
		handleServiceError(c, "ScoreboardHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.ScoreboardStandingsResponse{Standings: rows})
}
