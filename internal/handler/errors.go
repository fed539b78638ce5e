package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/tutorquest-api/internal/pkg/errors"
	"github.com/yourusername/tutorquest-api/internal/service"
)

// errorType уточняет категорию ошибки для клиента
func errorType(err error) string {
	switch {
	case errors.Is(err, service.ErrTournamentNotActive):
		return "not_active"
	case errors.Is(err, service.ErrAlreadyParticipated):
		return "duplicate"
	case errors.Is(err, service.ErrTournamentHasParticipants):
		return "has_participants"
	case errors.Is(err, service.ErrPromotionInProgress):
		return "promotion_in_progress"
	case errors.Is(err, service.ErrInvalidAnswers):
		return "invalid_format"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "token_invalid"
	case errors.Is(err, apperrors.ErrForbidden):
		return "forbidden"
	}
	return "internal"
}

// handleServiceError отправляет HTTP ответ по категории ошибки сервиса.
// Конфликт состояния отдаётся как 400, а текст внутренних ошибок клиенту не уходит.
func handleServiceError(c *gin.Context, component string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		log.Printf("ERROR: Internal server error in %s: %v", component, err)
		c.JSON(status, gin.H{"error": "Internal server error", "error_type": "internal"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "error_type": errorType(err)})
}

// bindError - ответ на тело запроса, которое не разобралось
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "invalid_format"})
}
