package helper

import (
	"time"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

// QuestionOption - вариант ответа для клиента, без признака правильности
type QuestionOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// ConvertOptionsToObjects преобразует массив строк в массив объектов с id и text.
// ID 0-based и совпадает со значением selected в ответах.
func ConvertOptionsToObjects(options entity.StringArray) []QuestionOption {
	converted := make([]QuestionOption, len(options))
	for i, opt := range options {
		if opt == "" {
			opt = "(empty option)"
		}
		converted[i] = QuestionOption{ID: i, Text: opt}
	}
	return converted
}

// FormatDate печатает календарную дату турнира в формате YYYY-MM-DD
func FormatDate(d time.Time) string {
	return d.Format(ranking.DateLayout)
}

// TierPtr возвращает строку лиги или nil, если лиги нет
func TierPtr(t *entity.LeagueTier) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}
