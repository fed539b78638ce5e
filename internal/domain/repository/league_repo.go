package repository

import (
	"time"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
)

// LeagueRepository определяет методы недельного пересчёта лиг
type LeagueRepository interface {
	// WeeklyXP суммирует xp_earned попыток в полуинтервале [from, to) по пользователям
	WeeklyXP(userIDs []uint, from, to time.Time) (map[uint]int, error)
	HasRun(weekKey string, tier entity.LeagueTier) (bool, error)
	// ApplyTierRun в одной транзакции переводит пользователей, пишет журнал и отметку запуска.
	// Возвращает переходы, которые реально применились.
	ApplyTierRun(run *entity.LeagueRun, moves []entity.LeagueMovement, at time.Time) ([]entity.LeagueMovement, error)
	ListMovements(userID uint, limit int) ([]entity.LeagueMovement, error)
}
