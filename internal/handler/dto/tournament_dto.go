package dto

import (
	"time"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/handler/helper"
	"github.com/yourusername/tutorquest-api/internal/service"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

// QuestionResponse - вопрос турнира без правильного ответа
type QuestionResponse struct {
	ID          uint                    `json:"id"`
	QuestionIdx int                     `json:"question_idx"`
	Text        string                  `json:"text"`
	Options     []helper.QuestionOption `json:"options"`
	Subject     string                  `json:"subject,omitempty"`
	Difficulty  string                  `json:"difficulty,omitempty"`
}

// TournamentResponse - турнир с вычисленным статусом
type TournamentResponse struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	QuestionCount int    `json:"question_count"`
	Subject       string `json:"subject,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	Status        string `json:"status"`
}

// LeaderboardEntryResponse - строка таблицы лидеров
type LeaderboardEntryResponse struct {
	Rank        int       `json:"rank"`
	UserID      uint      `json:"user_id"`
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	TotalTime   float64   `json:"total_time"`
	XPEarned    int       `json:"xp_earned"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// MyResultResponse - результат текущего пользователя
type MyResultResponse struct {
	Score     int     `json:"score"`
	Rank      int     `json:"rank"`
	XPEarned  int     `json:"xp_earned"`
	BonusXP   int     `json:"bonus_xp"`
	Pct       int     `json:"pct"`
	TotalTime float64 `json:"total_time"`
}

// ActiveTournamentResponse - элемент списка активных турниров
type ActiveTournamentResponse struct {
	TournamentResponse
	Leaderboard       []LeaderboardEntryResponse `json:"leaderboard"`
	TotalParticipants int                        `json:"total_participants"`
	HasParticipated   bool                       `json:"has_participated"`
	MyResult          *MyResultResponse          `json:"my_result,omitempty"`
	Questions         []QuestionResponse         `json:"questions,omitempty"`
}

// LeaderboardResponse - полная таблица одного турнира
type LeaderboardResponse struct {
	Tournament        TournamentResponse         `json:"tournament"`
	Leaderboard       []LeaderboardEntryResponse `json:"leaderboard"`
	TotalParticipants int                        `json:"total_participants"`
}

// HistoryItemResponse - турнир из истории с результатом пользователя
type HistoryItemResponse struct {
	TournamentResponse
	TotalParticipants int               `json:"total_participants"`
	Participated      bool              `json:"participated"`
	Result            *MyResultResponse `json:"result"`
}

// AnswerRequest - ответ на один вопрос. selected=-1 означает пропуск.
// Указатели нужны, чтобы отличить отсутствующее поле от нулевого индекса.
type AnswerRequest struct {
	QuestionIdx *int    `json:"question_idx" binding:"required,min=0"`
	Selected    *int    `json:"selected" binding:"required,min=-1"`
	TimeSpent   float64 `json:"time_spent"`
}

// SubmitAnswersRequest - тело POST /tournaments/daily/:id/submit
type SubmitAnswersRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"required,dive"`
}

// SubmitResponse - итог отправки ответов
type SubmitResponse struct {
	Score             int `json:"score"`
	Total             int `json:"total"`
	XPEarned          int `json:"xp_earned"`
	BonusXP           int `json:"bonus_xp"`
	Rank              int `json:"rank"`
	TotalParticipants int `json:"total_participants"`
	Pct               int `json:"pct"`
}

// CreateTournamentRequest - тело POST /tournaments/daily
type CreateTournamentRequest struct {
	Title         string `json:"title" binding:"omitempty,max=100"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date" binding:"required"`
	StartTime     string `json:"start_time" binding:"required"`
	EndTime       string `json:"end_time" binding:"required"`
	QuestionCount int    `json:"question_count" binding:"required"`
	Subject       string `json:"subject" binding:"omitempty,max=50"`
	Difficulty    string `json:"difficulty" binding:"omitempty,max=20"`
}

// ToInput переводит запрос в параметры сервиса
func (r *CreateTournamentRequest) ToInput() service.CreateTournamentInput {
	return service.CreateTournamentInput{
		Title:         r.Title,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		QuestionCount: r.QuestionCount,
		Subject:       r.Subject,
		Difficulty:    r.Difficulty,
	}
}

// ToAnswers переводит ответы запроса в формат оценки
func (r *SubmitAnswersRequest) ToAnswers() []ranking.Answer {
	out := make([]ranking.Answer, len(r.Answers))
	for i, a := range r.Answers {
		out[i] = ranking.Answer{QuestionIdx: *a.QuestionIdx, Selected: *a.Selected, TimeSpent: a.TimeSpent}
	}
	return out
}

// NewTournamentResponse создает DTO турнира
func NewTournamentResponse(t *entity.DailyTournament, status ranking.Status) TournamentResponse {
	return TournamentResponse{
		ID:            t.ID,
		Title:         t.Title,
		Slug:          t.Slug,
		StartDate:     helper.FormatDate(t.StartDate),
		EndDate:       helper.FormatDate(t.EndDate),
		StartTime:     t.StartTime,
		EndTime:       t.EndTime,
		QuestionCount: t.QuestionCount,
		Subject:       t.Subject,
		Difficulty:    t.Difficulty,
		Status:        string(status),
	}
}

// NewQuestionResponses создает DTO вопросов. Порядок задаёт question_idx.
func NewQuestionResponses(questions []entity.Question) []QuestionResponse {
	out := make([]QuestionResponse, len(questions))
	for i := range questions {
		q := &questions[i]
		out[i] = QuestionResponse{
			ID:          q.ID,
			QuestionIdx: i,
			Text:        q.Text,
			Options:     helper.ConvertOptionsToObjects(q.Options),
			Subject:     q.Subject,
			Difficulty:  q.Difficulty,
		}
	}
	return out
}

// NewLeaderboardEntries создает строки таблицы, пустая таблица сериализуется как []
func NewLeaderboardEntries(board []ranking.RankedEntry) []LeaderboardEntryResponse {
	out := make([]LeaderboardEntryResponse, len(board))
	for i, e := range board {
		out[i] = LeaderboardEntryResponse{
			Rank:        e.Rank,
			UserID:      e.UserID,
			Username:    e.Username,
			Score:       e.Score,
			TotalTime:   e.TotalTime,
			XPEarned:    e.XPEarned,
			SubmittedAt: e.SubmittedAt,
		}
	}
	return out
}

// NewMyResultResponse создает DTO результата, nil если пользователь не участвовал
func NewMyResultResponse(r *service.ParticipantResult) *MyResultResponse {
	if r == nil {
		return nil
	}
	return &MyResultResponse{
		Score:     r.Score,
		Rank:      r.Rank,
		XPEarned:  r.XPEarned,
		BonusXP:   r.BonusXP,
		Pct:       r.Pct,
		TotalTime: r.TotalTime,
	}
}

// NewActiveTournamentList создает DTO списка активных турниров
func NewActiveTournamentList(views []service.TournamentView) []ActiveTournamentResponse {
	out := make([]ActiveTournamentResponse, len(views))
	for i := range views {
		v := &views[i]
		item := ActiveTournamentResponse{
			TournamentResponse: NewTournamentResponse(v.Tournament, v.Status),
			Leaderboard:        NewLeaderboardEntries(v.Leaderboard),
			TotalParticipants:  v.TotalParticipants,
			HasParticipated:    v.HasParticipated,
			MyResult:           NewMyResultResponse(v.MyResult),
		}
		if len(v.Questions) > 0 {
			item.Questions = NewQuestionResponses(v.Questions)
		}
		out[i] = item
	}
	return out
}

// NewLeaderboardResponse создает DTO полной таблицы
func NewLeaderboardResponse(t *entity.DailyTournament, status ranking.Status, board []ranking.RankedEntry) *LeaderboardResponse {
	return &LeaderboardResponse{
		Tournament:        NewTournamentResponse(t, status),
		Leaderboard:       NewLeaderboardEntries(board),
		TotalParticipants: len(board),
	}
}

// NewHistoryResponse создает DTO истории турниров
func NewHistoryResponse(items []service.HistoryItem) []HistoryItemResponse {
	out := make([]HistoryItemResponse, len(items))
	for i := range items {
		it := &items[i]
		out[i] = HistoryItemResponse{
			TournamentResponse: NewTournamentResponse(it.Tournament, it.Status),
			TotalParticipants:  it.TotalParticipants,
			Participated:       it.Participated,
			Result:             NewMyResultResponse(it.Result),
		}
	}
	return out
}

// NewSubmitResponse создает DTO итога отправки
func NewSubmitResponse(r *service.SubmitResult) *SubmitResponse {
	return &SubmitResponse{
		Score:             r.Score,
		Total:             r.Total,
		XPEarned:          r.XPEarned,
		BonusXP:           r.BonusXP,
		Rank:              r.Rank,
		TotalParticipants: r.TotalParticipants,
		Pct:               r.Pct,
	}
}
