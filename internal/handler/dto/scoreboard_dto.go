package dto

import "github.com/yourusername/tutorquest-api/internal/service/ranking"

// FixturesRequest - тело POST /scoreboard/fixtures
type FixturesRequest struct {
	Teams []string `json:"teams" binding:"required"`
}

// FixturesResponse - круговой турнир по турам и плоским списком
type FixturesResponse struct {
	Rounds   [][]ranking.Fixture `json:"rounds"`
	Fixtures []ranking.Fixture   `json:"fixtures"`
}

// StandingsRequest - тело POST /scoreboard/standings
type StandingsRequest struct {
	Teams    []string                       `json:"teams" binding:"required"`
	Fixtures []ranking.Fixture              `json:"fixtures"`
	Results  map[string]ranking.MatchResult `json:"results"`
}

// ScoreboardStandingsResponse - турнирная таблица мини-игры
type ScoreboardStandingsResponse struct {
	Standings []ranking.StandingRow `json:"standings"`
}

// NewFixturesResponse создает DTO расписания
func NewFixturesResponse(rounds [][]ranking.Fixture) *FixturesResponse {
	flat := make([]ranking.Fixture, 0)
	for _, r := range rounds {
		flat = append(flat, r...)
	}
	return &FixturesResponse{Rounds: rounds, Fixtures: flat}
}
