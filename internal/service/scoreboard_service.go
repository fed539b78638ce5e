package service

import (
	"fmt"

	apperrors "github.com/yourusername/tutorquest-api/internal/pkg/errors"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

// MaxScoreboardTeams ограничивает размер мини-турнира
const MaxScoreboardTeams = 64

// ScoreboardService - футбольная мини-игра. Ничего не хранит:
// таблица каждый раз пересчитывается из присланных результатов.
type ScoreboardService struct{}

// NewScoreboardService создает сервис мини-игры
func NewScoreboardService() *ScoreboardService {
	return &ScoreboardService{}
}

func checkTeamCount(teams []string) error {
	if len(teams) > MaxScoreboardTeams {
		return fmt.Errorf("%w: at most %d teams allowed", apperrors.ErrValidation, MaxScoreboardTeams)
	}
	return nil
}

// Fixtures строит расписание круговой системы по турам
func (s *ScoreboardService) Fixtures(teams []string) ([][]ranking.Fixture, error) {
	if err := checkTeamCount(teams); err != nil {
		return nil, err
	}
	rounds, err := ranking.RoundRobin(teams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return rounds, nil
}

// Standings считает таблицу по результатам
func (s *ScoreboardService) Standings(teams []string, fixtures []ranking.Fixture, results map[string]ranking.MatchResult) ([]ranking.StandingRow, error) {
	if err := checkTeamCount(teams); err != nil {
		return nil, err
	}
	rows, err := ranking.ComputeStandings(teams, fixtures, results)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return rows, nil
}
