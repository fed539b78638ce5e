package ranking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrade_CountsCorrectAnswers(t *testing.T) {
	correct := []int{0, 1, 2, 3, 0}
	answers := []Answer{
		{QuestionIdx: 0, Selected: 0, TimeSpent: 3},
		{QuestionIdx: 1, Selected: 1, TimeSpent: 4},
		{QuestionIdx: 2, Selected: 0, TimeSpent: 5},
		{QuestionIdx: 3, Selected: 3, TimeSpent: 2},
		{QuestionIdx: 4, Selected: Unanswered, TimeSpent: 10},
	}

	graded, score, err := Grade(answers, correct)
	require.NoError(t, err)
	assert.Equal(t, 3, score)
	assert.Equal(t, 15, BaseXP(score))
	require.Len(t, graded, 5)
	assert.True(t, graded[0].Correct)
	assert.False(t, graded[2].Correct)
	assert.False(t, graded[4].Correct, "пропущенный вопрос не засчитывается")
}

func TestGrade_OrderIndependent(t *testing.T) {
	correct := []int{2, 1}
	answers := []Answer{
		{QuestionIdx: 1, Selected: 1},
		{QuestionIdx: 0, Selected: 2},
	}
	_, score, err := Grade(answers, correct)
	require.NoError(t, err)
	assert.Equal(t, 2, score)
}

func TestValidateAnswers_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		answers []Answer
	}{
		{"empty", nil},
		{"too few", []Answer{{QuestionIdx: 0}}},
		{"index out of range", []Answer{{QuestionIdx: 0}, {QuestionIdx: 2}}},
		{"duplicate index", []Answer{{QuestionIdx: 0}, {QuestionIdx: 0}}},
		{"bad option", []Answer{{QuestionIdx: 0, Selected: -2}, {QuestionIdx: 1}}},
		{"negative time", []Answer{{QuestionIdx: 0, TimeSpent: -1}, {QuestionIdx: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswers(tt.answers, 2)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAnswers))
		})
	}
}

func TestClientTotalTime_Clamps(t *testing.T) {
	answers := []Answer{{TimeSpent: 10}, {TimeSpent: 1e6}, {TimeSpent: 2.5}}
	assert.InDelta(t, 10+MaxQuestionTimeSec+2.5, ClientTotalTime(answers), 1e-9)
}

func TestBonusXP(t *testing.T) {
	assert.Equal(t, 50, BonusXP(1))
	assert.Equal(t, 30, BonusXP(2))
	assert.Equal(t, 20, BonusXP(3))
	assert.Equal(t, 0, BonusXP(4))
	assert.Equal(t, 0, BonusXP(0))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(10, 10))
	assert.Equal(t, 0, Percent(0, 10))
	assert.Equal(t, 0, Percent(3, 0))
}

func TestLeaderboard_TieBreakByTime(t *testing.T) {
	base := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{UserID: 1, Score: 8, TotalTime: 90, SubmittedAt: base},
		{UserID: 2, Score: 8, TotalTime: 60, SubmittedAt: base.Add(time.Minute)},
		{UserID: 3, Score: 9, TotalTime: 200, SubmittedAt: base},
	}

	board := Leaderboard(entries)
	require.Len(t, board, 3)
	assert.Equal(t, uint(3), board[0].UserID)
	assert.Equal(t, uint(2), board[1].UserID, "при равных очках выше тот, кто быстрее")
	assert.Equal(t, uint(1), board[2].UserID)
	for i, r := range board {
		assert.Equal(t, i+1, r.Rank)
	}
	// исходный слайс не меняется
	assert.Equal(t, uint(1), entries[0].UserID)
}

func TestPlace_FirstGetsFullBonus(t *testing.T) {
	existing := []Entry{
		{UserID: 1, Score: 5, TotalTime: 30},
		{UserID: 2, Score: 4, TotalTime: 20},
	}
	p := Place(existing, Entry{UserID: 3, Score: 6, TotalTime: 100})
	assert.Equal(t, 1, p.Rank)
	assert.Equal(t, 50, p.BonusXP)
	assert.Equal(t, 6*XPPerCorrect+50, p.XPEarned)
	assert.Equal(t, 3, p.TotalParticipants)
}

func TestPlace_FourthGetsNoBonus(t *testing.T) {
	existing := []Entry{
		{UserID: 1, Score: 9},
		{UserID: 2, Score: 8},
		{UserID: 3, Score: 7},
	}
	p := Place(existing, Entry{UserID: 4, Score: 2})
	assert.Equal(t, 4, p.Rank)
	assert.Equal(t, 0, p.BonusXP)
	assert.Equal(t, 10, p.XPEarned)
}
