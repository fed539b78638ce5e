package repository

import (
	"github.com/yourusername/tutorquest-api/internal/domain/entity"
)

// QuestionFilter - необязательные фильтры банка вопросов
type QuestionFilter struct {
	Subject    string
	Difficulty string
}

// QuestionRepository определяет методы для чтения банка вопросов
type QuestionRepository interface {
	// GetByIDs возвращает вопросы в произвольном порядке, отсутствующие ID пропускаются
	GetByIDs(ids []uint) ([]entity.Question, error)
	CountActive(filter QuestionFilter) (int64, error)
	GetRandomActive(filter QuestionFilter, limit int) ([]entity.Question, error)
}
