package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/domain/repository"
	"github.com/yourusername/tutorquest-api/internal/metrics"
	apperrors "github.com/yourusername/tutorquest-api/internal/pkg/errors"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
	"github.com/yourusername/tutorquest-api/internal/websocket"
)

// MaxTournamentQuestions - верхняя граница question_count при создании турнира
const MaxTournamentQuestions = 50

// неизвестный вопрос (удалён из банка) не совпадает ни с одним вариантом
const missingQuestionOption = -2

// LeaderboardBroadcaster рассылает обновления таблицы подключённым зрителям
type LeaderboardBroadcaster interface {
	BroadcastToTournament(tournamentID uint, eventType string, data interface{}) error
}

// TournamentSettings - настройки сервиса турниров из конфигурации
type TournamentSettings struct {
	Location                *time.Location
	LeaderboardCacheTTL     time.Duration
	HistoryLimit            int
	EmbeddedLeaderboardSize int
	AttemptTTL              time.Duration
}

// ParticipantResult - результат конкретного пользователя в турнире
type ParticipantResult struct {
	Score     int
	Rank      int
	XPEarned  int
	BonusXP   int
	Pct       int
	TotalTime float64
}

// TournamentView - турнир для списка активных с производным статусом
type TournamentView struct {
	Tournament        *entity.DailyTournament
	Status            ranking.Status
	Leaderboard       []ranking.RankedEntry
	TotalParticipants int
	HasParticipated   bool
	MyResult          *ParticipantResult
	// Questions заполнены только для активного турнира, который пользователь ещё не проходил
	Questions []entity.Question
}

// SubmitResult - итог отправки ответов
type SubmitResult struct {
	Score             int
	Total             int
	XPEarned          int
	BonusXP           int
	Rank              int
	TotalParticipants int
	Pct               int
}

// HistoryItem - прошедший или текущий турнир с результатом пользователя
type HistoryItem struct {
	Tournament        *entity.DailyTournament
	Status            ranking.Status
	TotalParticipants int
	Participated      bool
	Result            *ParticipantResult
}

// CreateTournamentInput - параметры создания турнира администратором
type CreateTournamentInput struct {
	Title         string
	StartDate     string
	EndDate       string
	StartTime     string
	EndTime       string
	QuestionCount int
	Subject       string
	Difficulty    string
}

// TournamentService предоставляет методы для работы с ежедневными турнирами
type TournamentService struct {
	tournamentRepo repository.TournamentRepository
	questionRepo   repository.QuestionRepository
	userRepo       repository.UserRepository
	cacheRepo      repository.CacheRepository
	broadcaster    LeaderboardBroadcaster
	metrics        *metrics.Metrics
	settings       TournamentSettings
	now            func() time.Time
}

// NewTournamentService создает новый сервис турниров
func NewTournamentService(
	tournamentRepo repository.TournamentRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	broadcaster LeaderboardBroadcaster,
	m *metrics.Metrics,
	settings TournamentSettings,
) *TournamentService {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.HistoryLimit < 1 {
		settings.HistoryLimit = 30
	}
	if settings.EmbeddedLeaderboardSize < 1 {
		settings.EmbeddedLeaderboardSize = 10
	}
	return &TournamentService{
		tournamentRepo: tournamentRepo,
		questionRepo:   questionRepo,
		userRepo:       userRepo,
		cacheRepo:      cacheRepo,
		broadcaster:    broadcaster,
		metrics:        m,
		settings:       settings,
		now:            time.Now,
	}
}

func leaderboardCacheKey(tournamentID uint) string {
	return fmt.Sprintf("tournament:%d:leaderboard", tournamentID)
}

func attemptKey(tournamentID, userID uint) string {
	return fmt.Sprintf("tournament:%d:attempt:%d", tournamentID, userID)
}

func scheduleOf(t *entity.DailyTournament) ranking.Schedule {
	return ranking.Schedule{
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
		StartTime: t.StartTime,
		EndTime:   t.EndTime,
	}
}

// StatusOf возвращает производный статус турнира на текущий момент
func (s *TournamentService) StatusOf(t *entity.DailyTournament) ranking.Status {
	return ranking.ComputeStatus(scheduleOf(t), s.now(), s.settings.Location)
}

func entriesOf(participants []entity.TournamentParticipant) []ranking.Entry {
	entries := make([]ranking.Entry, len(participants))
	for i, p := range participants {
		entries[i] = ranking.Entry{
			UserID:      p.UserID,
			Username:    p.Username,
			Score:       p.Score,
			TotalTime:   p.TotalTime,
			XPEarned:    p.XPEarned,
			SubmittedAt: p.SubmittedAt,
		}
	}
	return entries
}

func groupByTournament(participants []entity.TournamentParticipant) map[uint][]entity.TournamentParticipant {
	grouped := make(map[uint][]entity.TournamentParticipant)
	for _, p := range participants {
		grouped[p.TournamentID] = append(grouped[p.TournamentID], p)
	}
	return grouped
}

// resultOf ищет пользователя в независимо отсортированной копии таблицы
func resultOf(t *entity.DailyTournament, participants []entity.TournamentParticipant, userID uint) *ParticipantResult {
	for _, p := range participants {
		if p.UserID != userID {
			continue
		}
		return &ParticipantResult{
			Score:     p.Score,
			Rank:      ranking.RankOf(entriesOf(participants), userID),
			XPEarned:  p.XPEarned,
			BonusXP:   p.BonusXP,
			Pct:       ranking.Percent(p.Score, t.QuestionCount),
			TotalTime: p.TotalTime,
		}
	}
	return nil
}

func topN(board []ranking.RankedEntry, n int) []ranking.RankedEntry {
	if len(board) > n {
		return board[:n]
	}
	return board
}

// orderedQuestions раскладывает вопросы в порядке турнира, пропавшие вопросы пропускаются
func orderedQuestions(ids []uint, questions []entity.Question) []entity.Question {
	byID := make(map[uint]entity.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]entity.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

// correctOptions возвращает правильный вариант для каждого вопроса турнира по его индексу
func correctOptions(ids []uint, questions []entity.Question) []int {
	byID := make(map[uint]int, len(questions))
	for _, q := range questions {
		byID[q.ID] = q.CorrectOption
	}
	correct := make([]int, len(ids))
	for i, id := range ids {
		opt, ok := byID[id]
		if !ok {
			opt = missingQuestionOption
		}
		correct[i] = opt
	}
	return correct
}

// GetActive возвращает незавершённые турниры со статусом, топом таблицы и результатом пользователя.
// Для активного непройденного турнира отдаются вопросы и ставится отметка начала попытки.
func (s *TournamentService) GetActive(ctx context.Context, userID uint) ([]TournamentView, error) {
	now := s.now()
	local := now.In(s.settings.Location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.settings.Location)

	tournaments, err := s.tournamentRepo.ListEndingFrom(today)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}

	views := make([]TournamentView, 0, len(tournaments))
	ids := make([]uint, 0, len(tournaments))
	for i := range tournaments {
		status := ranking.ComputeStatus(scheduleOf(&tournaments[i]), now, s.settings.Location)
		if status == ranking.StatusEnded {
			continue
		}
		views = append(views, TournamentView{Tournament: &tournaments[i], Status: status})
		ids = append(ids, tournaments[i].ID)
	}
	if len(views) == 0 {
		return views, nil
	}

	participants, err := s.tournamentRepo.GetParticipantsByTournaments(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	grouped := groupByTournament(participants)

	for i := range views {
		v := &views[i]
		list := grouped[v.Tournament.ID]
		v.Leaderboard = topN(ranking.Leaderboard(entriesOf(list)), s.settings.EmbeddedLeaderboardSize)
		v.TotalParticipants = len(list)
		v.MyResult = resultOf(v.Tournament, list, userID)
		v.HasParticipated = v.MyResult != nil

		if v.Status != ranking.StatusActive || v.HasParticipated {
			continue
		}
		questions, err := s.questionRepo.GetByIDs(v.Tournament.QuestionIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load questions for tournament %d: %w", v.Tournament.ID, err)
		}
		v.Questions = orderedQuestions(v.Tournament.QuestionIDs, questions)
		s.stampAttempt(ctx, v.Tournament.ID, userID, now)
	}
	return views, nil
}

// stampAttempt запоминает момент первой выдачи вопросов. Повторная выдача отметку не сдвигает.
func (s *TournamentService) stampAttempt(ctx context.Context, tournamentID, userID uint, now time.Time) {
	if s.cacheRepo == nil {
		return
	}
	if _, err := s.cacheRepo.SetNX(ctx, attemptKey(tournamentID, userID), now.UnixMilli(), s.settings.AttemptTTL); err != nil {
		log.Printf("[TournamentService] failed to stamp attempt start tournament=%d user=%d: %v", tournamentID, userID, err)
	}
}

// serverElapsed возвращает секунды с момента выдачи вопросов или -1, если отметки нет
func (s *TournamentService) serverElapsed(ctx context.Context, tournamentID, userID uint, now time.Time) float64 {
	if s.cacheRepo == nil {
		return -1
	}
	raw, err := s.cacheRepo.Get(ctx, attemptKey(tournamentID, userID))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[TournamentService] failed to read attempt start tournament=%d user=%d: %v", tournamentID, userID, err)
		}
		return -1
	}
	startedMs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return -1
	}
	elapsed := float64(now.UnixMilli()-startedMs) / 1000
	if elapsed < 0 {
		return -1
	}
	return elapsed
}

// Submit проверяет и записывает ответы участника одной транзакцией.
// Место и бонус считаются до записи, поэтому итоговый опыт пишется один раз.
func (s *TournamentService) Submit(ctx context.Context, tournamentID, userID uint, answers []ranking.Answer) (*SubmitResult, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperrors.ErrUnauthorized, userID)
		}
		return nil, err
	}

	now := s.now()
	elapsed := s.serverElapsed(ctx, tournamentID, userID, now)

	var result SubmitResult
	build := func(t *entity.DailyTournament, existing []entity.TournamentParticipant) (*entity.TournamentParticipant, error) {
		if ranking.ComputeStatus(scheduleOf(t), now, s.settings.Location) != ranking.StatusActive {
			return nil, ErrTournamentNotActive
		}
		for _, p := range existing {
			if p.UserID == userID {
				return nil, ErrAlreadyParticipated
			}
		}

		questions, err := s.questionRepo.GetByIDs(t.QuestionIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load questions: %w", err)
		}
		graded, score, err := ranking.Grade(answers, correctOptions(t.QuestionIDs, questions))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAnswers, strings.TrimPrefix(err.Error(), ranking.ErrInvalidAnswers.Error()+": "))
		}

		totalTime := elapsed
		if totalTime < 0 {
			totalTime = ranking.ClientTotalTime(answers)
		}
		totalTime = math.Round(totalTime*1000) / 1000

		placement := ranking.Place(entriesOf(existing), ranking.Entry{
			UserID:      userID,
			Username:    user.Username,
			Score:       score,
			TotalTime:   totalTime,
			SubmittedAt: now,
		})

		total := len(t.QuestionIDs)
		result = SubmitResult{
			Score:             score,
			Total:             total,
			XPEarned:          placement.XPEarned,
			BonusXP:           placement.BonusXP,
			Rank:              placement.Rank,
			TotalParticipants: placement.TotalParticipants,
			Pct:               ranking.Percent(score, total),
		}

		stored := make(entity.ParticipantAnswers, len(graded))
		for i, g := range graded {
			stored[i] = entity.ParticipantAnswer{
				QuestionIdx: g.QuestionIdx,
				Selected:    g.Selected,
				Correct:     g.Correct,
				TimeSpent:   g.TimeSpent,
			}
		}
		return &entity.TournamentParticipant{
			TournamentID: t.ID,
			UserID:       userID,
			Username:     user.Username,
			Answers:      stored,
			Score:        score,
			TotalTime:    totalTime,
			XPEarned:     placement.XPEarned,
			BonusXP:      placement.BonusXP,
			SubmittedAt:  now,
		}, nil
	}

	if _, err := s.tournamentRepo.SubmitParticipant(tournamentID, build); err != nil {
		return nil, s.submitError(tournamentID, userID, err)
	}
	s.metrics.Submission(metrics.OutcomeAccepted)
	log.Printf("[TournamentService] user %d submitted tournament %d: score=%d rank=%d xp=%d", userID, tournamentID, result.Score, result.Rank, result.XPEarned)

	s.afterSubmit(ctx, tournamentID, userID)
	return &result, nil
}

// submitError приводит ошибку транзакции к доменной и учитывает исход в метриках
func (s *TournamentService) submitError(tournamentID, userID uint, err error) error {
	switch {
	case errors.Is(err, ErrTournamentNotActive):
		s.metrics.Submission(metrics.OutcomeNotActive)
		return err
	case errors.Is(err, ErrAlreadyParticipated):
		s.metrics.Submission(metrics.OutcomeDuplicate)
		return err
	case errors.Is(err, apperrors.ErrConflict):
		// уникальный индекс (tournament_id, user_id) поймал параллельную отправку
		s.metrics.Submission(metrics.OutcomeDuplicate)
		return ErrAlreadyParticipated
	case errors.Is(err, apperrors.ErrValidation):
		s.metrics.Submission(metrics.OutcomeInvalid)
		return err
	case errors.Is(err, apperrors.ErrNotFound):
		s.metrics.Submission(metrics.OutcomeInvalid)
		return ErrTournamentNotFound
	}
	s.metrics.Submission(metrics.OutcomeError)
	log.Printf("[TournamentService] submit failed tournament=%d user=%d: %v", tournamentID, userID, err)
	return fmt.Errorf("failed to submit answers: %w", err)
}

// afterSubmit сбрасывает кеш таблицы и рассылает обновление. Ошибки только логируются.
func (s *TournamentService) afterSubmit(ctx context.Context, tournamentID, userID uint) {
	if s.cacheRepo != nil {
		if err := s.cacheRepo.Delete(ctx, leaderboardCacheKey(tournamentID), attemptKey(tournamentID, userID)); err != nil {
			log.Printf("[TournamentService] failed to invalidate cache for tournament %d: %v", tournamentID, err)
		}
	}
	if s.broadcaster == nil {
		return
	}
	participants, err := s.tournamentRepo.GetParticipants(tournamentID)
	if err != nil {
		log.Printf("[TournamentService] failed to load leaderboard for broadcast tournament=%d: %v", tournamentID, err)
		return
	}
	board := ranking.Leaderboard(entriesOf(participants))
	payload := map[string]interface{}{
		"tournament_id":      tournamentID,
		"total_participants": len(board),
		"leaderboard":        topN(board, s.settings.EmbeddedLeaderboardSize),
	}
	if err := s.broadcaster.BroadcastToTournament(tournamentID, websocket.EventLeaderboardUpdated, payload); err != nil {
		log.Printf("[TournamentService] broadcast failed tournament=%d: %v", tournamentID, err)
	}
}

// Leaderboard возвращает турнир и полную таблицу. Таблица кешируется в Redis.
func (s *TournamentService) Leaderboard(ctx context.Context, tournamentID uint) (*entity.DailyTournament, []ranking.RankedEntry, error) {
	tournament, err := s.tournamentRepo.GetByID(tournamentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, err
	}

	key := leaderboardCacheKey(tournamentID)
	if s.cacheRepo != nil {
		var cached []ranking.RankedEntry
		err := s.cacheRepo.GetJSON(ctx, key, &cached)
		if err == nil {
			return tournament, cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[TournamentService] leaderboard cache read failed for %d: %v", tournamentID, err)
		}
	}

	participants, err := s.tournamentRepo.GetParticipants(tournamentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load participants: %w", err)
	}
	board := ranking.Leaderboard(entriesOf(participants))

	if s.cacheRepo != nil && s.settings.LeaderboardCacheTTL > 0 {
		if err := s.cacheRepo.SetJSON(ctx, key, board, s.settings.LeaderboardCacheTTL); err != nil {
			log.Printf("[TournamentService] leaderboard cache write failed for %d: %v", tournamentID, err)
		}
	}
	return tournament, board, nil
}

// History возвращает последние турниры с результатом пользователя
func (s *TournamentService) History(ctx context.Context, userID uint) ([]HistoryItem, error) {
	tournaments, err := s.tournamentRepo.ListRecent(s.settings.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if len(tournaments) == 0 {
		return []HistoryItem{}, nil
	}

	ids := make([]uint, len(tournaments))
	for i := range tournaments {
		ids[i] = tournaments[i].ID
	}
	participants, err := s.tournamentRepo.GetParticipantsByTournaments(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	grouped := groupByTournament(participants)

	now := s.now()
	items := make([]HistoryItem, len(tournaments))
	for i := range tournaments {
		t := &tournaments[i]
		list := grouped[t.ID]
		res := resultOf(t, list, userID)
		items[i] = HistoryItem{
			Tournament:        t,
			Status:            ranking.ComputeStatus(scheduleOf(t), now, s.settings.Location),
			TotalParticipants: len(list),
			Participated:      res != nil,
			Result:            res,
		}
	}
	return items, nil
}

// Create создает турнир из случайных активных вопросов под фильтр
func (s *TournamentService) Create(ctx context.Context, adminID uint, in CreateTournamentInput) (*entity.DailyTournament, error) {
	startDate, err := time.Parse(ranking.DateLayout, strings.TrimSpace(in.StartDate))
	if err != nil {
		return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", apperrors.ErrValidation)
	}
	endDate, err := time.Parse(ranking.DateLayout, strings.TrimSpace(in.EndDate))
	if err != nil {
		return nil, fmt.Errorf("%w: end_date must be YYYY-MM-DD", apperrors.ErrValidation)
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("%w: end_date is before start_date", apperrors.ErrValidation)
	}
	startMin, err := ranking.ParseClock(in.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start_time: %v", apperrors.ErrValidation, err)
	}
	endMin, err := ranking.ParseClock(in.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: end_time: %v", apperrors.ErrValidation, err)
	}
	if endMin <= startMin {
		return nil, fmt.Errorf("%w: end_time must be after start_time", apperrors.ErrValidation)
	}
	if in.QuestionCount < 1 || in.QuestionCount > MaxTournamentQuestions {
		return nil, fmt.Errorf("%w: question_count must be between 1 and %d", apperrors.ErrValidation, MaxTournamentQuestions)
	}

	filter := repository.QuestionFilter{
		Subject:    strings.TrimSpace(in.Subject),
		Difficulty: strings.TrimSpace(in.Difficulty),
	}
	available, err := s.questionRepo.CountActive(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if available < int64(in.QuestionCount) {
		return nil, fmt.Errorf("%w: only %d available, %d required", ErrInsufficientQuestions, available, in.QuestionCount)
	}
	questions, err := s.questionRepo.GetRandomActive(filter, in.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to sample questions: %w", err)
	}
	if len(questions) < in.QuestionCount {
		return nil, fmt.Errorf("%w: only %d available, %d required", ErrInsufficientQuestions, len(questions), in.QuestionCount)
	}

	ids := make(entity.UintArray, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Daily Tournament " + startDate.Format(ranking.DateLayout)
	}

	tournament := &entity.DailyTournament{
		Title:         title,
		Slug:          slug.Make(title),
		StartDate:     startDate,
		EndDate:       endDate,
		StartTime:     strings.TrimSpace(in.StartTime),
		EndTime:       strings.TrimSpace(in.EndTime),
		QuestionCount: len(ids),
		Subject:       filter.Subject,
		Difficulty:    filter.Difficulty,
		QuestionIDs:   ids,
		CreatedBy:     adminID,
	}
	if err := s.tournamentRepo.Create(tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	log.Printf("[TournamentService] admin %d created tournament %d (%s, %d questions)", adminID, tournament.ID, tournament.Slug, tournament.QuestionCount)
	return tournament, nil
}

// Delete удаляет турнир, только если в нём нет участников
func (s *TournamentService) Delete(ctx context.Context, tournamentID uint) error {
	if err := s.tournamentRepo.DeleteIfEmpty(tournamentID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return ErrTournamentNotFound
		case errors.Is(err, apperrors.ErrConflict):
			return ErrTournamentHasParticipants
		}
		return fmt.Errorf("failed to delete tournament: %w", err)
	}
	if s.cacheRepo != nil {
		if err := s.cacheRepo.Delete(ctx, leaderboardCacheKey(tournamentID)); err != nil {
			log.Printf("[TournamentService] failed to drop leaderboard cache for %d: %v", tournamentID, err)
		}
	}
	log.Printf("[TournamentService] tournament %d deleted", tournamentID)
	return nil
}
