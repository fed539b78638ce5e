package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/domain/repository"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetByIDs возвращает вопросы по списку ID
func (r *QuestionRepo) GetByIDs(ids []uint) ([]entity.Question, error) {
	var questions []entity.Question
	if len(ids) == 0 {
		return questions, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *QuestionRepo) activeQuery(filter repository.QuestionFilter) *gorm.DB {
	query := r.db.Model(&entity.Question{}).Where("is_active = ?", true)
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	return query
}

// CountActive возвращает количество активных вопросов под фильтр
func (r *QuestionRepo) CountActive(filter repository.QuestionFilter) (int64, error) {
	var count int64
	err := r.activeQuery(filter).Count(&count).Error
	return count, err
}

// GetRandomActive возвращает limit случайных активных вопросов под фильтр.
// Банк вопросов небольшой, поэтому ORDER BY RANDOM() достаточно.
func (r *QuestionRepo) GetRandomActive(filter repository.QuestionFilter, limit int) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.activeQuery(filter).Order("RANDOM()").Limit(limit).Find(&questions).Error
	return questions, err
}
