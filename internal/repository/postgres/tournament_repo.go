package postgres

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/domain/repository"
	apperrors "github.com/yourusername/tutorquest-api/internal/pkg/errors"
)

// TournamentRepo реализует repository.TournamentRepository
type TournamentRepo struct {
	db *gorm.DB
}

// NewTournamentRepo создает новый репозиторий ежедневных турниров
func NewTournamentRepo(db *gorm.DB) *TournamentRepo {
	return &TournamentRepo{db: db}
}

// Create создает турнир
func (r *TournamentRepo) Create(tournament *entity.DailyTournament) error {
	return r.db.Create(tournament).Error
}

// GetByID возвращает турнир по ID
func (r *TournamentRepo) GetByID(id uint) (*entity.DailyTournament, error) {
	var tournament entity.DailyTournament
	err := r.db.First(&tournament, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &tournament, nil
}

// ListEndingFrom возвращает турниры, которые ещё не закончились по дате
func (r *TournamentRepo) ListEndingFrom(from time.Time) ([]entity.DailyTournament, error) {
	var tournaments []entity.DailyTournament
	err := r.db.Where("end_date >= ?", from.Format("2006-01-02")).
		Order("start_date ASC, start_time ASC, id ASC").
		Find(&tournaments).Error
	return tournaments, err
}

// ListRecent возвращает последние турниры по дате начала
func (r *TournamentRepo) ListRecent(limit int) ([]entity.DailyTournament, error) {
	var tournaments []entity.DailyTournament
	err := r.db.Order("start_date DESC, id DESC").Limit(limit).Find(&tournaments).Error
	return tournaments, err
}

// DeleteIfEmpty удаляет турнир без участников.
// Турнир блокируется, чтобы отправка ответов не проскочила между проверкой и удалением.
func (r *TournamentRepo) DeleteIfEmpty(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var tournament entity.DailyTournament
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tournament, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&entity.TournamentParticipant{}).
			Where("tournament_id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: tournament %d has %d participants", apperrors.ErrConflict, id, count)
		}

		return tx.Delete(&entity.DailyTournament{}, id).Error
	})
}

// GetParticipants возвращает всех участников турнира
func (r *TournamentRepo) GetParticipants(tournamentID uint) ([]entity.TournamentParticipant, error) {
	var participants []entity.TournamentParticipant
	err := r.db.Where("tournament_id = ?", tournamentID).
		Order("submitted_at ASC").
		Find(&participants).Error
	return participants, err
}

// GetParticipantsByTournaments возвращает участников сразу нескольких турниров
func (r *TournamentRepo) GetParticipantsByTournaments(tournamentIDs []uint) ([]entity.TournamentParticipant, error) {
	var participants []entity.TournamentParticipant
	if len(tournamentIDs) == 0 {
		return participants, nil
	}
	err := r.db.Where("tournament_id IN ?", tournamentIDs).
		Order("submitted_at ASC").
		Find(&participants).Error
	return participants, err
}

// GetParticipant возвращает запись участника
func (r *TournamentRepo) GetParticipant(tournamentID, userID uint) (*entity.TournamentParticipant, error) {
	var participant entity.TournamentParticipant
	err := r.db.Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// SubmitParticipant записывает результат одной транзакцией: блокировка турнира,
// расчёт записи через build, вставка, начисление опыта пользователю.
func (r *TournamentRepo) SubmitParticipant(tournamentID uint, build repository.SubmitFunc) (*entity.TournamentParticipant, error) {
	tx := r.db.Begin()
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var tournament entity.DailyTournament
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tournament, tournamentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	var existing []entity.TournamentParticipant
	if err := tx.Where("tournament_id = ?", tournamentID).Find(&existing).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	participant, err := build(&tournament, existing)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Create(participant).Error; err != nil {
		tx.Rollback()
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user %d already participated in tournament %d", apperrors.ErrConflict, participant.UserID, tournamentID)
		}
		return nil, err
	}

	res := tx.Model(&entity.User{}).
		Where("id = ?", participant.UserID).
		UpdateColumn("total_xp", gorm.Expr("total_xp + ?", participant.XPEarned))
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("[TournamentRepo] user %d not found while crediting %d XP", participant.UserID, participant.XPEarned)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return participant, nil
}
