package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/handler/dto"
	"github.com/yourusername/tutorquest-api/internal/middleware"
	"github.com/yourusername/tutorquest-api/internal/service"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

// TournamentUseCase - операции сервиса турниров, нужные хендлеру
type TournamentUseCase interface {
	StatusOf(t *entity.DailyTournament) ranking.Status
	GetActive(ctx context.Context, userID uint) ([]service.TournamentView, error)
	Submit(ctx context.Context, tournamentID, userID uint, answers []ranking.Answer) (*service.SubmitResult, error)
	Leaderboard(ctx context.Context, tournamentID uint) (*entity.DailyTournament, []ranking.RankedEntry, error)
	History(ctx context.Context, userID uint) ([]service.HistoryItem, error)
	Create(ctx context.Context, adminID uint, in service.CreateTournamentInput) (*entity.DailyTournament, error)
	Delete(ctx context.Context, tournamentID uint) error
}

// TournamentHandler обрабатывает запросы ежедневных турниров
type TournamentHandler struct {
	tournaments TournamentUseCase
	now         func() time.Time
}

// NewTournamentHandler создает новый обработчик турниров
func NewTournamentHandler(tournaments TournamentUseCase) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments, now: time.Now}
}

// TournamentIDKey - ключ контекста, куда ExtractUintParam кладёт :id
const TournamentIDKey = "tournamentID"

// currentUser достаёт пользователя из контекста или отвечает 401
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return 0, false
	}
	return userID, true
}

// GetActive возвращает незавершённые турниры
// GET /api/tournaments/daily/active
func (h *TournamentHandler) GetActive(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.tournaments.GetActive(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, "TournamentHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": dto.NewActiveTournamentList(views)})
}

// Submit принимает ответы участника
// POST /api/tournaments/daily/:id/submit
func (h *TournamentHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tournamentID := c.MustGet(TournamentIDKey).(uint)

	var req dto.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.tournaments.Submit(c.Request.Context(), tournamentID, userID, req.ToAnswers())
	if err != nil {
		handleServiceError(c, "TournamentHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubmitResponse(result))
}

// Leaderboard возвращает полную таблицу турнира
// GET /api/tournaments/daily/:id/leaderboard
func (h *TournamentHandler) Leaderboard(c *gin.Context) {
	tournamentID := c.MustGet(TournamentIDKey).(uint)

	tournament, board, err := h.tournaments.Leaderboard(c.Request.Context(), tournamentID)
	if err != nil {
		handleServiceError(c, "TournamentHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLeaderboardResponse(tournament, h.tournaments.StatusOf(tournament), board))
}

// History возвращает последние турниры с результатом пользователя
// GET /api/tournaments/daily/history
func (h *TournamentHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.tournaments.History(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, "TournamentHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": dto.NewHistoryResponse(items)})
}

// Create создает турнир
// POST /api/tournaments/daily
func (h *TournamentHandler) Create(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateTournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tournament, err := h.tournaments.Create(c.Request.Context(), adminID, req.ToInput())
	if err != nil {
		handleServiceError(c, "TournamentHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTournamentResponse(tournament, h.tournaments.StatusOf(tournament)))
}

// Delete удаляет турнир без участников
// DELETE /api/tournaments/daily/:id
func (h *TournamentHandler) Delete(c *gin.Context) {
	tournamentID := c.MustGet(TournamentIDKey).(uint)

	if err := h.tournaments.Delete(c.Request.Context(), tournamentID); err != nil {
		handleServiceError(c, "TournamentHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tournament deleted"})
}

// ExportLeaderboard экспортирует таблицу турнира в CSV или Excel
// GET /api/tournaments/daily/:id/leaderboard/export?format=csv|xlsx
func (h *TournamentHandler) ExportLeaderboard(c *gin.Context) {
	tournamentID := c.MustGet(TournamentIDKey).(uint)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx", "error_type": "validation"})
		return
	}

	tournament, board, err := h.tournaments.Leaderboard(c.Request.Context(), tournamentID)
	if err != nil {
		handleServiceError(c, "TournamentHandler", err)
		return
	}

	name := tournament.Slug
	if name == "" {
		name = "tournament"
	}
	filename := fmt.Sprintf("%s_%d_leaderboard_%s", name, tournament.ID, h.now().Format(ranking.DateLayout))

	if format == "xlsx" {
		h.exportXLSX(c, board, filename)
		return
	}
	h.exportCSV(c, board, filename)
}

var exportHeaders = []string{"Rank", "User ID", "Username", "Score", "Total time (s)", "XP earned", "Submitted at"}

func exportRow(e ranking.RankedEntry) []string {
	return []string{
		strconv.Itoa(e.Rank),
		strconv.FormatUint(uint64(e.UserID), 10),
		sanitizeForExcel(e.Username),
		strconv.Itoa(e.Score),
		strconv.FormatFloat(e.TotalTime, 'f', 1, 64),
		strconv.Itoa(e.XPEarned),
		e.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

// exportCSV пишет CSV с BOM, чтобы Excel открыл UTF-8 корректно
func (h *TournamentHandler) exportCSV(c *gin.Context, board []ranking.RankedEntry, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	if _, err := c.Writer.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		log.Printf("[TournamentHandler] Ошибка записи BOM: %v", err)
		return
	}

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(exportHeaders); err != nil {
		log.Printf("[TournamentHandler] Ошибка записи заголовка CSV: %v", err)
		return
	}
	for _, e := range board {
		if err := writer.Write(exportRow(e)); err != nil {
			log.Printf("[TournamentHandler] Ошибка записи строки CSV (user %d): %v", e.UserID, err)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("[TournamentHandler] Ошибка сброса CSV: %v", err)
	}
}

// exportXLSX пишет таблицу через StreamWriter
func (h *TournamentHandler) exportXLSX(c *gin.Context, board []ranking.RankedEntry, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Leaderboard"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[TournamentHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file", "error_type": "internal"})
		return
	}

	headers := make([]interface{}, len(exportHeaders))
	for i, hdr := range exportHeaders {
		headers[i] = hdr
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[TournamentHandler] Ошибка записи заголовков: %v", err)
	}

	for i, e := range board {
		rowNum := i + 2
		row := []interface{}{
			e.Rank, e.UserID, sanitizeForExcel(e.Username), e.Score,
			e.TotalTime, e.XPEarned, e.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if err := sw.SetRow(fmt.Sprintf("A%d", rowNum), row); err != nil {
			log.Printf("[TournamentHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[TournamentHandler] Ошибка при Flush: %v", err)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[TournamentHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// символы, с которых Excel/LibreOffice начинает формулу
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
