package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Очки за результат матча.
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

var (
	// ErrInvalidTeams - пустое или повторяющееся название команды.
	ErrInvalidTeams = errors.New("invalid team list")
	// ErrInvalidScore - отрицательный счёт.
	ErrInvalidScore = errors.New("invalid match score")
	// ErrInvalidFixtures - повторяющийся ID фикстуры.
	ErrInvalidFixtures = errors.New("invalid fixture list")
)

// fixtureSeparator разделяет хозяев и гостей в ID фикстуры.
// В названиях команд он запрещён, иначе ID перестаёт быть однозначным.
const fixtureSeparator = "-vs-"

// Fixture - пара команд. ID синтетический: "<home>-vs-<away>".
type Fixture struct {
	ID   string `json:"id"`
	Home string `json:"home"`
	Away string `json:"away"`
}

// MatchResult - счёт матча по ID фикстуры.
type MatchResult struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

// StandingRow - строка турнирной таблицы.
type StandingRow struct {
	Team           string `json:"team"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
}

// FixtureID строит синтетический идентификатор матча.
func FixtureID(home, away string) string {
	return home + fixtureSeparator + away
}

func normalizeTeams(teams []string) ([]string, error) {
	out := make([]string, 0, len(teams))
	seen := make(map[string]bool, len(teams))
	for _, t := range teams {
		name := strings.TrimSpace(t)
		if name == "" {
			return nil, fmt.Errorf("%w: blank team name", ErrInvalidTeams)
		}
		if strings.Contains(name, fixtureSeparator) {
			return nil, fmt.Errorf("%w: team %q must not contain %q", ErrInvalidTeams, name, fixtureSeparator)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate team %q", ErrInvalidTeams, name)
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

// record добавляет в строку один матч с точки зрения команды.
func (r *StandingRow) record(scored, conceded int) {
	r.Played++
	r.GoalsFor += scored
	r.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		r.Won++
		r.Points += PointsWin
	case scored == conceded:
		r.Drawn++
		r.Points += PointsDraw
	default:
		r.Lost++
		r.Points += PointsLoss
	}
	r.GoalDifference = r.GoalsFor - r.GoalsAgainst
}

// ComputeStandings сворачивает все результаты в турнирную таблицу.
// Таблица нигде не хранится и каждый раз строится заново из результатов.
// Результаты без известной фикстуры игнорируются, повтор ID фикстуры - ошибка. Порядок: очки, разница мячей,
// забитые мячи (по убыванию), затем название команды.
func ComputeStandings(teams []string, fixtures []Fixture, results map[string]MatchResult) ([]StandingRow, error) {
	names, err := normalizeTeams(teams)
	if err != nil {
		return nil, err
	}

	rows := make(map[string]*StandingRow, len(names))
	for _, name := range names {
		rows[name] = &StandingRow{Team: name}
	}

	seenFixtures := make(map[string]bool, len(fixtures))
	for _, f := range fixtures {
		if seenFixtures[f.ID] {
			return nil, fmt.Errorf("%w: duplicate fixture %q", ErrInvalidFixtures, f.ID)
		}
		seenFixtures[f.ID] = true

		res, ok := results[f.ID]
		if !ok {
			continue
		}
		if res.HomeScore < 0 || res.AwayScore < 0 {
			return nil, fmt.Errorf("%w: fixture %s", ErrInvalidScore, f.ID)
		}
		if row, ok := rows[f.Home]; ok {
			row.record(res.HomeScore, res.AwayScore)
		}
		if row, ok := rows[f.Away]; ok {
			row.record(res.AwayScore, res.HomeScore)
		}
	}

	table := make([]StandingRow, 0, len(rows))
	for _, name := range names {
		table = append(table, *rows[name])
	}
	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Team < b.Team
	})
	return table, nil
}

// RoundRobin строит круговой турнир методом вращения: каждая пара играет один раз.
// Для нечётного числа команд в каждом туре одна команда отдыхает.
func RoundRobin(teams []string) ([][]Fixture, error) {
	names, err := normalizeTeams(teams)
	if err != nil {
		return nil, err
	}
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: at least two teams required", ErrInvalidTeams)
	}

	slots := append([]string(nil), names...)
	if len(slots)%2 == 1 {
		slots = append(slots, "") // отдых
	}
	n := len(slots)

	rounds := make([][]Fixture, 0, n-1)
	for r := 0; r < n-1; r++ {
		round := make([]Fixture, 0, n/2)
		for i := 0; i < n/2; i++ {
			home, away := slots[i], slots[n-1-i]
			if home == "" || away == "" {
				continue
			}
			// первая пара чередует хозяев, чтобы зафиксированная команда не играла всегда дома
			if i == 0 && r%2 == 1 {
				home, away = away, home
			}
			round = append(round, Fixture{ID: FixtureID(home, away), Home: home, Away: away})
		}
		rounds = append(rounds, round)

		// первая позиция фиксирована, остальные сдвигаются по кругу
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}
	return rounds, nil
}
