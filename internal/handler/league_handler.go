package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/handler/dto"
	"github.com/yourusername/tutorquest-api/internal/service"
)

// LeagueUseCase - операции сервиса лиг, нужные хендлеру
type LeagueUseCase interface {
	RunWeeklyPromotion(ctx context.Context, force bool) (*service.PromotionReport, error)
	Standings(ctx context.Context, tierName string) (*service.TierStandings, error)
	My(ctx context.Context, userID uint) (*service.MyLeague, error)
	History(ctx context.Context, userID uint) ([]entity.LeagueMovement, error)
}

// LeagueHandler обрабатывает запросы лиг
type LeagueHandler struct {
	leagues LeagueUseCase
}

// NewLeagueHandler создает новый обработчик лиг
func NewLeagueHandler(leagues LeagueUseCase) *LeagueHandler {
	return &LeagueHandler{leagues: leagues}
}

// Standings возвращает таблицу лиги за текущую неделю
// GET /api/leagues/standings?league=silver
func (h *LeagueHandler) Standings(c *gin.Context) {
	league := c.Query("league")
	if league == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "league query parameter is required", "error_type": "validation"})
		return
	}

	standings, err := h.leagues.Standings(c.Request.Context(), league)
	if err != nil {
		handleServiceError(c, "LeagueHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStandingsResponse(standings))
}

// My возвращает лигу текущего пользователя
// GET /api/leagues/my
func (h *LeagueHandler) My(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	my, err := h.leagues.My(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, "LeagueHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMyLeagueResponse(my))
}

// History возвращает последние переходы пользователя между лигами
// GET /api/leagues/history
func (h *LeagueHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	moves, err := h.leagues.History(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, "LeagueHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": dto.NewLeagueHistoryResponse(moves)})
}

// Promote запускает недельный пересчёт лиг
// POST /api/leagues/promote?force=true
func (h *LeagueHandler) Promote(c *gin.Context) {
	force := false
	if raw := c.Query("force"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "force must be true or false", "error_type": "invalid_format"})
			return
		}
		force = v
	}

	report, err := h.leagues.RunWeeklyPromotion(c.Request.Context(), force)
	if err != nil {
		handleServiceError(c, "LeagueHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPromotionReportResponse(report))
}
