package repository

import (
	"github.com/yourusername/tutorquest-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	GetByID(id uint) (*entity.User, error)
	// ListByTier возвращает всех участников лиги
	ListByTier(tier entity.LeagueTier) ([]entity.User, error)
}
