package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/domain/repository"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

// ============================================================================
// Общие моки репозиториев для тестов сервисов
// ============================================================================

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) ListByTier(tier entity.LeagueTier) ([]entity.User, error) {
	args := m.Called(tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

// GetJSON: первый аргумент Return может быть функцией, заполняющей dest
func (m *MockCacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	if fill, ok := args.Get(0).(func(dest interface{})); ok {
		fill(dest)
		return nil
	}
	return args.Error(0)
}

func (m *MockCacheRepo) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepo) DeleteIfEquals(ctx context.Context, key, value string) (bool, error) {
	args := m.Called(ctx, key, value)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Моки для TournamentService
// ============================================================================

type MockTournamentRepoForTournamentService struct {
	mock.Mock
	submitted *entity.TournamentParticipant
}

func (m *MockTournamentRepoForTournamentService) Create(tournament *entity.DailyTournament) error {
	args := m.Called(tournament)
	if args.Error(0) == nil {
		tournament.ID = 100
	}
	return args.Error(0)
}

func (m *MockTournamentRepoForTournamentService) GetByID(id uint) (*entity.DailyTournament, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyTournament), args.Error(1)
}

func (m *MockTournamentRepoForTournamentService) ListEndingFrom(from time.Time) ([]entity.DailyTournament, error) {
	args := m.Called(from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DailyTournament), args.Error(1)
}

func (m *MockTournamentRepoForTournamentService) ListRecent(limit int) ([]entity.DailyTournament, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DailyTournament), args.Error(1)
}

func (m *MockTournamentRepoForTournamentService) DeleteIfEmpty(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockTournamentRepoForTournamentService) GetParticipants(tournamentID uint) ([]entity.TournamentParticipant, error) {
	args := m.Called(tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TournamentParticipant), args.Error(1)
}

func (m *MockTournamentRepoForTournamentService) GetParticipantsByTournaments(ids []uint) ([]entity.TournamentParticipant, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TournamentParticipant), args.Error(1)
}

func (m *MockTournamentRepoForTournamentService) GetParticipant(tournamentID, userID uint) (*entity.TournamentParticipant, error) {
	args := m.Called(tournamentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TournamentParticipant), args.Error(1)
}

// SubmitParticipant имитирует транзакцию: Return(tournament, existing, err).
// Если err == nil, вызывается build и построенная запись сохраняется в submitted.
func (m *MockTournamentRepoForTournamentService) SubmitParticipant(tournamentID uint, build repository.SubmitFunc) (*entity.TournamentParticipant, error) {
	args := m.Called(tournamentID)
	if err := args.Error(2); err != nil {
		return nil, err
	}
	p, err := build(args.Get(0).(*entity.DailyTournament), args.Get(1).([]entity.TournamentParticipant))
	if err != nil {
		return nil, err
	}
	m.submitted = p
	return p, nil
}

type MockQuestionRepoForTournamentService struct {
	mock.Mock
}

func (m *MockQuestionRepoForTournamentService) GetByIDs(ids []uint) ([]entity.Question, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepoForTournamentService) CountActive(filter repository.QuestionFilter) (int64, error) {
	args := m.Called(filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepoForTournamentService) GetRandomActive(filter repository.QuestionFilter, limit int) ([]entity.Question, error) {
	args := m.Called(filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

type broadcastCall struct {
	TournamentID uint
	EventType    string
	Data         interface{}
}

// fakeBroadcaster запоминает рассылки
type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (f *fakeBroadcaster) BroadcastToTournament(tournamentID uint, eventType string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, broadcastCall{TournamentID: tournamentID, EventType: eventType, Data: data})
	return nil
}

// ============================================================================
// Моки для LeagueService
// ============================================================================

type MockLeagueRepoForLeagueService struct {
	mock.Mock
}

func (m *MockLeagueRepoForLeagueService) WeeklyXP(userIDs []uint, from, to time.Time) (map[uint]int, error) {
	args := m.Called(userIDs, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]int), args.Error(1)
}

func (m *MockLeagueRepoForLeagueService) HasRun(weekKey string, tier entity.LeagueTier) (bool, error) {
	args := m.Called(weekKey, tier)
	return args.Bool(0), args.Error(1)
}

// ApplyTierRun по умолчанию применяет все переходы
func (m *MockLeagueRepoForLeagueService) ApplyTierRun(run *entity.LeagueRun, moves []entity.LeagueMovement, at time.Time) ([]entity.LeagueMovement, error) {
	args := m.Called(run, moves, at)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if applied, ok := args.Get(0).([]entity.LeagueMovement); ok {
		return applied, nil
	}
	return moves, nil
}

func (m *MockLeagueRepoForLeagueService) ListMovements(userID uint, limit int) ([]entity.LeagueMovement, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeagueMovement), args.Error(1)
}

type notifyCall struct {
	UserID uint
	Email  string
	Week   string
}

// recordingNotifier запоминает уведомления
type recordingNotifier struct {
	calls []notifyCall
}

func (r *recordingNotifier) NotifyLeagueMove(ctx context.Context, move ranking.Movement, weekKey string) error {
	r.calls = append(r.calls, notifyCall{UserID: move.UserID, Email: move.Email, Week: weekKey})
	return nil
}
