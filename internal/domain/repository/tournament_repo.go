package repository

import (
	"time"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
)

// SubmitFunc строит запись участника внутри транзакции отправки.
// tournament заблокирован (SELECT ... FOR UPDATE), existing - все текущие участники.
// Ошибка из SubmitFunc откатывает транзакцию и возвращается как есть.
type SubmitFunc func(tournament *entity.DailyTournament, existing []entity.TournamentParticipant) (*entity.TournamentParticipant, error)

// TournamentRepository определяет методы для работы с ежедневными турнирами
type TournamentRepository interface {
	Create(tournament *entity.DailyTournament) error
	GetByID(id uint) (*entity.DailyTournament, error)
	// ListEndingFrom возвращает турниры с end_date >= from, по возрастанию даты начала
	ListEndingFrom(from time.Time) ([]entity.DailyTournament, error)
	// ListRecent возвращает последние limit турниров по дате начала
	ListRecent(limit int) ([]entity.DailyTournament, error)
	// DeleteIfEmpty удаляет турнир, только если в нём нет участников
	DeleteIfEmpty(id uint) error

	GetParticipants(tournamentID uint) ([]entity.TournamentParticipant, error)
	GetParticipantsByTournaments(tournamentIDs []uint) ([]entity.TournamentParticipant, error)
	GetParticipant(tournamentID, userID uint) (*entity.TournamentParticipant, error)

	// SubmitParticipant в одной транзакции блокирует турнир, вызывает build,
	// вставляет запись участника и начисляет опыт пользователю.
	SubmitParticipant(tournamentID uint, build SubmitFunc) (*entity.TournamentParticipant, error)
}
