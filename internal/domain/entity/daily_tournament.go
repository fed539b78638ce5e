package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// DailyTournament - ежедневный турнир с фиксированным набором вопросов.
// Статус не хранится: он каждый раз вычисляется из окна дат и времени.
type DailyTournament struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:100;not null" json:"title"`
	Slug          string    `gorm:"size:120;not null;default:''" json:"slug"`
	StartDate     time.Time `gorm:"type:date;not null;index" json:"start_date"`
	EndDate       time.Time `gorm:"type:date;not null;index" json:"end_date"`
	StartTime     string    `gorm:"size:5;not null" json:"start_time"` // HH:mm
	EndTime       string    `gorm:"size:5;not null" json:"end_time"`   // HH:mm
	QuestionCount int       `gorm:"not null" json:"question_count"`
	Subject       string    `gorm:"size:50;not null;default:''" json:"subject"`
	Difficulty    string    `gorm:"size:20;not null;default:''" json:"difficulty"`
	QuestionIDs   UintArray `gorm:"type:jsonb;not null" json:"-"` // порядок задаёт question_idx
	CreatedBy     uint      `gorm:"not null;default:0" json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Participants []TournamentParticipant `gorm:"foreignKey:TournamentID" json:"-"`
}

// TableName определяет имя таблицы для GORM
func (DailyTournament) TableName() string {
	return "daily_tournaments"
}

// ParticipantAnswer - проверенный ответ участника
type ParticipantAnswer struct {
	QuestionIdx int     `json:"question_idx"`
	Selected    int     `json:"selected"`
	Correct     bool    `json:"correct"`
	TimeSpent   float64 `json:"time_spent"`
}

// ParticipantAnswers хранится как JSONB
type ParticipantAnswers []ParticipantAnswer

// Scan реализует интерфейс sql.Scanner
func (a *ParticipantAnswers) Scan(value interface{}) error {
	if value == nil {
		*a = ParticipantAnswers{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*a = ParticipantAnswers{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Value реализует интерфейс driver.Valuer
func (a ParticipantAnswers) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// TournamentParticipant - результат одного студента в турнире.
// Уникальный индекс (tournament_id, user_id) гарантирует одну запись на студента.
type TournamentParticipant struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	TournamentID uint               `gorm:"not null;uniqueIndex:idx_tournament_participant" json:"tournament_id"`
	UserID       uint               `gorm:"not null;uniqueIndex:idx_tournament_participant;index" json:"user_id"`
	Username     string             `gorm:"size:50;not null" json:"username"`
	Answers      ParticipantAnswers `gorm:"type:jsonb;not null" json:"answers"`
	Score        int                `gorm:"not null;default:0" json:"score"`
	TotalTime    float64            `gorm:"not null;default:0" json:"total_time"`
	XPEarned     int                `gorm:"not null;default:0" json:"xp_earned"`
	BonusXP      int                `gorm:"not null;default:0" json:"bonus_xp"`
	SubmittedAt  time.Time          `gorm:"not null" json:"submitted_at"`
	CreatedAt    time.Time          `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (TournamentParticipant) TableName() string {
	return "tournament_participants"
}

// QuizAttempt - дневная попытка квиза. Пишется внешним квиз-модулем,
// здесь используется только для подсчёта недельного опыта.
type QuizAttempt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_quiz_attempts_user_date" json:"user_id"`
	Date      time.Time `gorm:"not null;index:idx_quiz_attempts_user_date" json:"date"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	XPEarned  int       `gorm:"not null;default:0" json:"xp_earned"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
