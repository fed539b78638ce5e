package ranking

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStandings_Fold(t *testing.T) {
	teams := []string{"A", "B", "C"}
	fixtures := []Fixture{
		{ID: FixtureID("A", "B"), Home: "A", Away: "B"},
		{ID: FixtureID("B", "C"), Home: "B", Away: "C"},
		{ID: FixtureID("A", "C"), Home: "A", Away: "C"}, // ещё не сыгран
	}
	results := map[string]MatchResult{
		"A-vs-B": {HomeScore: 3, AwayScore: 1},
		"B-vs-C": {HomeScore: 2, AwayScore: 2},
	}

	got, err := ComputeStandings(teams, fixtures, results)
	require.NoError(t, err)

	want := []StandingRow{
		{Team: "A", Played: 1, Won: 1, GoalsFor: 3, GoalsAgainst: 1, GoalDifference: 2, Points: 3},
		{Team: "C", Played: 1, Drawn: 1, GoalsFor: 2, GoalsAgainst: 2, GoalDifference: 0, Points: 1},
		{Team: "B", Played: 2, Drawn: 1, Lost: 1, GoalsFor: 3, GoalsAgainst: 5, GoalDifference: -2, Points: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("standings mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeStandings_Idempotent(t *testing.T) {
	teams := []string{"Red", "Blue", "Green", "White"}
	rounds, err := RoundRobin(teams)
	require.NoError(t, err)

	var fixtures []Fixture
	results := map[string]MatchResult{}
	for r, round := range rounds {
		for i, f := range round {
			fixtures = append(fixtures, f)
			results[f.ID] = MatchResult{HomeScore: (r + i) % 3, AwayScore: i % 2}
		}
	}

	first, err := ComputeStandings(teams, fixtures, results)
	require.NoError(t, err)
	second, err := ComputeStandings(teams, fixtures, results)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("recomputed standings differ (-first +second):\n%s", diff)
	}

	// сумма очков и мячей сходится со всеми результатами
	played, gf, ga := 0, 0, 0
	for _, row := range first {
		played += row.Played
		gf += row.GoalsFor
		ga += row.GoalsAgainst
	}
	assert.Equal(t, 2*len(results), played)
	assert.Equal(t, gf, ga)
}

func TestComputeStandings_IgnoresUnknownFixtures(t *testing.T) {
	got, err := ComputeStandings(
		[]string{"A", "B"},
		[]Fixture{{ID: "A-vs-B", Home: "A", Away: "B"}},
		map[string]MatchResult{"X-vs-Y": {HomeScore: 5, AwayScore: 0}},
	)
	require.NoError(t, err)
	for _, row := range got {
		assert.Zero(t, row.Played)
	}
}

func TestComputeStandings_Errors(t *testing.T) {
	_, err := ComputeStandings([]string{"A", "A"}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidTeams))

	_, err = ComputeStandings([]string{"A", " "}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidTeams))

	_, err = ComputeStandings(
		[]string{"A", "B"},
		[]Fixture{{ID: "A-vs-B", Home: "A", Away: "B"}},
		map[string]MatchResult{"A-vs-B": {HomeScore: -1, AwayScore: 0}},
	)
	assert.True(t, errors.Is(err, ErrInvalidScore))
}

func TestRoundRobin_EachPairOnce(t *testing.T) {
	for _, teams := range [][]string{
		{"A", "B"},
		{"A", "B", "C"},
		{"A", "B", "C", "D", "E", "F"},
	} {
		rounds, err := RoundRobin(teams)
		require.NoError(t, err)

		pairs := map[string]int{}
		for _, round := range rounds {
			busy := map[string]bool{}
			for _, f := range round {
				assert.NotEqual(t, f.Home, f.Away)
				assert.False(t, busy[f.Home] || busy[f.Away], "команда играет дважды в туре")
				busy[f.Home], busy[f.Away] = true, true

				key := f.Home + "|" + f.Away
				if f.Away < f.Home {
					key = f.Away + "|" + f.Home
				}
				pairs[key]++
				assert.Equal(t, FixtureID(f.Home, f.Away), f.ID)
			}
		}
		n := len(teams)
		assert.Len(t, pairs, n*(n-1)/2)
		for key, count := range pairs {
			assert.Equal(t, 1, count, key)
		}
	}
}

func TestRoundRobin_TooFewTeams(t *testing.T) {
	_, err := RoundRobin([]string{"A"})
	assert.True(t, errors.Is(err, ErrInvalidTeams))
}

func TestRoundRobin_RejectsSeparatorInTeamName(t *testing.T) {
	_, err := RoundRobin([]string{"A-vs-B", "C", "A", "B-vs-C"})
	assert.True(t, errors.Is(err, ErrInvalidTeams))

	_, err = ComputeStandings([]string{"A-vs-B", "C"}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidTeams))
}

func TestComputeStandings_DuplicateFixtureID(t *testing.T) {
	fixture := Fixture{ID: FixtureID("A", "B"), Home: "A", Away: "B"}
	results := map[string]MatchResult{fixture.ID: {HomeScore: 1, AwayScore: 0}}

	_, err := ComputeStandings([]string{"A", "B"}, []Fixture{fixture, fixture}, results)
	assert.True(t, errors.Is(err, ErrInvalidFixtures))

	rows, err := ComputeStandings([]string{"A", "B"}, []Fixture{fixture}, results)
	require.NoError(t, err)
	played := 0
	for _, r := range rows {
		played += r.Played
	}
	assert.Equal(t, 2, played)
}
