package postgres

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	apperrors "github.com/yourusername/tutorquest-api/internal/pkg/errors"
)

// LeagueRepo реализует repository.LeagueRepository
type LeagueRepo struct {
	db *gorm.DB
}

// NewLeagueRepo создает новый репозиторий лиг
func NewLeagueRepo(db *gorm.DB) *LeagueRepo {
	return &LeagueRepo{db: db}
}

type weeklyXPRow struct {
	UserID uint
	XP     int
}

// WeeklyXP суммирует опыт попыток за неделю одним запросом
func (r *LeagueRepo) WeeklyXP(userIDs []uint, from, to time.Time) (map[uint]int, error) {
	result := make(map[uint]int, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var rows []weeklyXPRow
	err := r.db.Model(&entity.QuizAttempt{}).
		Select("user_id, COALESCE(SUM(xp_earned), 0) AS xp").
		Where("user_id IN ? AND date >= ? AND date < ?", userIDs, from, to).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.UserID] = row.XP
	}
	return result, nil
}

// HasRun проверяет, был ли пересчёт лиги за неделю
func (r *LeagueRepo) HasRun(weekKey string, tier entity.LeagueTier) (bool, error) {
	var count int64
	err := r.db.Model(&entity.LeagueRun{}).
		Where("week_key = ? AND tier = ?", weekKey, tier).
		Count(&count).Error
	return count > 0, err
}

// ApplyTierRun применяет переходы одной лиги атомарно.
// Без run.Forced повторная отметка за ту же неделю нарушает уникальный индекс,
// и вся транзакция откатывается с ErrConflict.
func (r *LeagueRepo) ApplyTierRun(run *entity.LeagueRun, moves []entity.LeagueMovement, at time.Time) ([]entity.LeagueMovement, error) {
	applied := make([]entity.LeagueMovement, 0, len(moves))

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, move := range moves {
			res := tx.Model(&entity.User{}).
				Where("id = ? AND league = ?", move.UserID, move.FromTier).
				Updates(map[string]interface{}{
					"league":            move.ToTier,
					"league_updated_at": at,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				log.Printf("[LeagueRepo] user %d is no longer in %s, skipping move to %s", move.UserID, move.FromTier, move.ToTier)
				continue
			}
			applied = append(applied, move)
		}

		if len(applied) > 0 {
			if err := tx.Create(&applied).Error; err != nil {
				return err
			}
		}

		run.PromotedCount, run.RelegatedCount = 0, 0
		for i := range applied {
			if applied[i].IsPromotion() {
				run.PromotedCount++
			} else {
				run.RelegatedCount++
			}
		}

		create := tx
		if run.Forced {
			create = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "week_key"}, {Name: "tier"}},
				DoUpdates: clause.AssignmentColumns([]string{"run_id", "forced", "member_count", "promoted_count", "relegated_count", "updated_at"}),
			})
		}
		if err := create.Create(run).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: league %s already processed for %s", apperrors.ErrConflict, run.Tier, run.WeekKey)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// ListMovements возвращает последние переходы пользователя
func (r *LeagueRepo) ListMovements(userID uint, limit int) ([]entity.LeagueMovement, error) {
	var movements []entity.LeagueMovement
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}
