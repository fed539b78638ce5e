package service

import (
	"fmt"

	apperrors "github.com/yourusername/tutorquest-api/internal/pkg/errors"
)

// Доменные ошибки сервисов. Каждая оборачивает общую ошибку из internal/pkg/errors,
// поэтому хендлеры могут проверять и конкретную ошибку, и её категорию.
var (
	ErrTournamentNotFound        = fmt.Errorf("%w: tournament not found", apperrors.ErrNotFound)
	ErrTournamentNotActive       = fmt.Errorf("%w: tournament is not active", apperrors.ErrConflict)
	ErrAlreadyParticipated       = fmt.Errorf("%w: already participated in this tournament", apperrors.ErrConflict)
	ErrTournamentHasParticipants = fmt.Errorf("%w: tournament has participants", apperrors.ErrConflict)
	ErrPromotionInProgress       = fmt.Errorf("%w: league promotion is already running", apperrors.ErrConflict)

	ErrInvalidAnswers        = fmt.Errorf("%w: invalid answers format", apperrors.ErrValidation)
	ErrInsufficientQuestions = fmt.Errorf("%w: not enough questions", apperrors.ErrValidation)
	ErrUnknownTier           = fmt.Errorf("%w: unknown league tier", apperrors.ErrValidation)
)
