package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/tutorquest-api/internal/pkg/errors"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

func TestScoreboard_FixturesThenStandings(t *testing.T) {
	s := NewScoreboardService()
	teams := []string{"A", "B", "C"}

	rounds, err := s.Fixtures(teams)
	require.NoError(t, err)
	var fixtures []ranking.Fixture
	for _, r := range rounds {
		fixtures = append(fixtures, r...)
	}
	require.Len(t, fixtures, 3)

	results := map[string]ranking.MatchResult{}
	for _, f := range fixtures {
		results[f.ID] = ranking.MatchResult{HomeScore: 1, AwayScore: 1}
	}
	rows, err := s.Standings(teams, fixtures, results)
	require.NoError(t, err)
	for _, r := range rows {
		assert.Equal(t, 2, r.Played)
		assert.Equal(t, 2, r.Points)
	}
}

func TestScoreboard_ValidationErrors(t *testing.T) {
	s := NewScoreboardService()

	_, err := s.Fixtures([]string{"A", "A"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = s.Standings([]string{"A", "B"},
		[]ranking.Fixture{{ID: "A-vs-B", Home: "A", Away: "B"}},
		map[string]ranking.MatchResult{"A-vs-B": {HomeScore: -1}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	many := make([]string, MaxScoreboardTeams+1)
	for i := range many {
		many[i] = fmt.Sprintf("team-%d", i)
	}
	_, err = s.Fixtures(many)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
