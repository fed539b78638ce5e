package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	apperrors "github.com/yourusername/tutorquest-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListByTier возвращает всех пользователей лиги
func (r *UserRepo) ListByTier(tier entity.LeagueTier) ([]entity.User, error) {
	var users []entity.User
	err := r.db.Where("league = ?", tier).Order("id").Find(&users).Error
	return users, err
}
