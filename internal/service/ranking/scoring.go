package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	// XPPerCorrect - базовый опыт за каждый правильный ответ.
	XPPerCorrect = 5

	// MaxQuestionTimeSec - верхняя граница времени на вопрос, которую принимаем от клиента.
	MaxQuestionTimeSec = 300.0

	// Unanswered - значение selected для пропущенного вопроса.
	Unanswered = -1
)

// Бонус за призовые места: 1-е, 2-е, 3-е.
var podiumBonus = [...]int{50, 30, 20}

// ErrInvalidAnswers возвращается при некорректном массиве ответов.
var ErrInvalidAnswers = errors.New("invalid answers format")

// Answer - ответ участника на один вопрос турнира.
type Answer struct {
	QuestionIdx int     `json:"question_idx"`
	Selected    int     `json:"selected"`
	TimeSpent   float64 `json:"time_spent"`
}

// GradedAnswer - проверенный ответ, сохраняется в записи участника.
type GradedAnswer struct {
	QuestionIdx int     `json:"question_idx"`
	Selected    int     `json:"selected"`
	Correct     bool    `json:"correct"`
	TimeSpent   float64 `json:"time_spent"`
}

// ValidateAnswers проверяет, что ответов ровно столько, сколько вопросов,
// индексы уникальны и лежат в диапазоне, а selected и time_spent допустимы.
func ValidateAnswers(answers []Answer, questionCount int) error {
	if len(answers) == 0 || len(answers) != questionCount {
		return fmt.Errorf("%w: expected %d answers, got %d", ErrInvalidAnswers, questionCount, len(answers))
	}
	seen := make(map[int]bool, len(answers))
	for i, a := range answers {
		if a.QuestionIdx < 0 || a.QuestionIdx >= questionCount {
			return fmt.Errorf("%w: answer %d references question %d out of range", ErrInvalidAnswers, i, a.QuestionIdx)
		}
		if seen[a.QuestionIdx] {
			return fmt.Errorf("%w: question %d answered twice", ErrInvalidAnswers, a.QuestionIdx)
		}
		seen[a.QuestionIdx] = true
		if a.Selected < Unanswered {
			return fmt.Errorf("%w: answer %d has invalid option %d", ErrInvalidAnswers, i, a.Selected)
		}
		if math.IsNaN(a.TimeSpent) || math.IsInf(a.TimeSpent, 0) || a.TimeSpent < 0 {
			return fmt.Errorf("%w: answer %d has invalid time_spent", ErrInvalidAnswers, i)
		}
	}
	return nil
}

// Grade проверяет ответы по индексам правильных вариантов (correct[i] - правильный
// вариант i-го вопроса турнира) и возвращает проверенные ответы и количество верных.
func Grade(answers []Answer, correct []int) ([]GradedAnswer, int, error) {
	if err := ValidateAnswers(answers, len(correct)); err != nil {
		return nil, 0, err
	}
	graded := make([]GradedAnswer, len(answers))
	score := 0
	for i, a := range answers {
		ok := a.Selected != Unanswered && a.Selected == correct[a.QuestionIdx]
		if ok {
			score++
		}
		graded[i] = GradedAnswer{
			QuestionIdx: a.QuestionIdx,
			Selected:    a.Selected,
			Correct:     ok,
			TimeSpent:   a.TimeSpent,
		}
	}
	return graded, score, nil
}

// BaseXP - опыт без бонуса за место.
func BaseXP(score int) int {
	return score * XPPerCorrect
}

// ClientTotalTime суммирует время клиента, ограничивая каждое значение MaxQuestionTimeSec.
// Используется только когда серверная отметка начала попытки недоступна.
func ClientTotalTime(answers []Answer) float64 {
	total := 0.0
	for _, a := range answers {
		t := a.TimeSpent
		if t < 0 || math.IsNaN(t) {
			t = 0
		}
		if t > MaxQuestionTimeSec {
			t = MaxQuestionTimeSec
		}
		total += t
	}
	return total
}

// BonusXP возвращает бонус за место (ранги с единицы).
func BonusXP(rank int) int {
	if rank < 1 || rank > len(podiumBonus) {
		return 0
	}
	return podiumBonus[rank-1]
}

// Percent - доля правильных ответов, округлённая до целого процента.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// Entry - результат участника, по которому строится рейтинг турнира.
type Entry struct {
	UserID      uint
	Username    string
	Score       int
	TotalTime   float64
	XPEarned    int
	SubmittedAt time.Time
}

// RankedEntry - запись таблицы лидеров с местом.
type RankedEntry struct {
	Rank int
	Entry
}

// less задаёт порядок: больше очков, затем меньше времени, затем раньше отправка.
// Последний критерий (user id) нужен только для детерминизма.
func less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TotalTime != b.TotalTime {
		return a.TotalTime < b.TotalTime
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}
	return a.UserID < b.UserID
}

// SortEntries сортирует копию входного слайса, исходный не меняется.
func SortEntries(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted
}

// Leaderboard сортирует участников и присваивает последовательные места с единицы.
func Leaderboard(entries []Entry) []RankedEntry {
	sorted := SortEntries(entries)
	out := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		out[i] = RankedEntry{Rank: i + 1, Entry: e}
	}
	return out
}

// RankOf возвращает место пользователя в таблице или 0, если его нет.
func RankOf(entries []Entry, userID uint) int {
	for _, r := range Leaderboard(entries) {
		if r.UserID == userID {
			return r.Rank
		}
	}
	return 0
}

// Placement - итог отправки ответов, рассчитанный до записи в БД.
type Placement struct {
	Rank              int
	BonusXP           int
	XPEarned          int
	TotalParticipants int
}

// Place ставит нового участника среди уже существующих и считает итоговый опыт.
func Place(existing []Entry, candidate Entry) Placement {
	all := make([]Entry, 0, len(existing)+1)
	all = append(all, existing...)
	all = append(all, candidate)

	rank := RankOf(all, candidate.UserID)
	bonus := BonusXP(rank)
	return Placement{
		Rank:              rank,
		BonusXP:           bonus,
		XPEarned:          BaseXP(candidate.Score) + bonus,
		TotalParticipants: len(all),
	}
}
