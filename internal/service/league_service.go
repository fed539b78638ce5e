package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/domain/repository"
	"github.com/yourusername/tutorquest-api/internal/metrics"
	apperrors "github.com/yourusername/tutorquest-api/internal/pkg/errors"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

const (
	promotionLockKey = "league:promotion:lock"

	// MovementHistoryLimit - сколько последних переходов показывать пользователю
	MovementHistoryLimit = 20
)

// LeagueSettings - настройки недельного пересчёта лиг
type LeagueSettings struct {
	Location    *time.Location
	LockTTL     time.Duration
	NotifyMoves bool
}

// PromotionReport - итог недельного пересчёта
type PromotionReport struct {
	Week         string              `json:"week"`
	Promoted     []ranking.Movement  `json:"promoted"`
	Relegated    []ranking.Movement  `json:"relegated"`
	SkippedTiers []entity.LeagueTier `json:"skipped_tiers"`
}

// StandingsRow - строка таблицы лиги
type StandingsRow struct {
	Rank     int
	UserID   uint
	Name     string
	WeeklyXP int
	Zone     ranking.Zone
}

// TierStandings - таблица одной лиги за текущую неделю
type TierStandings struct {
	Tier entity.LeagueTier
	Week string
	Rows []StandingsRow
}

// MyLeague - положение пользователя в его лиге
type MyLeague struct {
	Tier      entity.LeagueTier
	Next      *entity.LeagueTier
	Prev      *entity.LeagueTier
	Week      string
	WeeklyXP  int
	Rank      int
	TierSize  int
	Zone      ranking.Zone
	UpdatedAt *time.Time
}

// LeagueService управляет лигами и недельным пересчётом
type LeagueService struct {
	userRepo   repository.UserRepository
	leagueRepo repository.LeagueRepository
	cacheRepo  repository.CacheRepository
	notifier   LeagueNotifier
	metrics    *metrics.Metrics
	settings   LeagueSettings
	now        func() time.Time
}

// NewLeagueService создает новый сервис лиг
func NewLeagueService(
	userRepo repository.UserRepository,
	leagueRepo repository.LeagueRepository,
	cacheRepo repository.CacheRepository,
	notifier LeagueNotifier,
	m *metrics.Metrics,
	settings LeagueSettings,
) *LeagueService {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.LockTTL <= 0 {
		settings.LockTTL = 5 * time.Minute
	}
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	return &LeagueService{
		userRepo:   userRepo,
		leagueRepo: leagueRepo,
		cacheRepo:  cacheRepo,
		notifier:   notifier,
		metrics:    m,
		settings:   settings,
		now:        time.Now,
	}
}

// members собирает участников лиги с опытом за неделю
func (s *LeagueService) members(users []entity.User, from, to time.Time) ([]ranking.Member, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	xp, err := s.leagueRepo.WeeklyXP(ids, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate weekly xp: %w", err)
	}
	members := make([]ranking.Member, len(users))
	for i, u := range users {
		members[i] = ranking.Member{
			UserID:   u.ID,
			Name:     u.Username,
			Email:    u.Email,
			WeeklyXP: xp[u.ID],
		}
	}
	return members, nil
}

// RunWeeklyPromotion выполняет недельный пересчёт всех лиг.
// Состав лиг снимается до применения переходов, поэтому повышенный из bronze
// не участвует в пересчёте silver в том же запуске. Лига, уже обработанная
// за эту неделю, пропускается, если не передан force.
func (s *LeagueService) RunWeeklyPromotion(ctx context.Context, force bool) (*PromotionReport, error) {
	runID := uuid.New().String()

	if s.cacheRepo != nil {
		acquired, err := s.cacheRepo.SetNX(ctx, promotionLockKey, runID, s.settings.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire promotion lock: %w", err)
		}
		if !acquired {
			return nil, ErrPromotionInProgress
		}
		defer func() {
			// отпускаем блокировку даже если контекст запроса уже отменён
			// чужую блокировку не трогаем: наша могла истечь за время долгого запуска
			released, err := s.cacheRepo.DeleteIfEquals(context.Background(), promotionLockKey, runID)
			if err != nil {
				log.Printf("[LeagueService] failed to release promotion lock: %v", err)
			} else if !released {
				log.Printf("[LeagueService] promotion lock of run %s expired before release", runID)
			}
		}()
	}

	now := s.now()
	from, to := ranking.WeekWindow(now, s.settings.Location)
	week := ranking.WeekKey(now, s.settings.Location)
	report := &PromotionReport{
		Week:         week,
		Promoted:     []ranking.Movement{},
		Relegated:    []ranking.Movement{},
		SkippedTiers: []entity.LeagueTier{},
	}

	snapshot := make(map[entity.LeagueTier][]entity.User, len(entity.LeagueTiers))
	for _, tier := range entity.LeagueTiers {
		users, err := s.userRepo.ListByTier(tier)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s members: %w", tier, err)
		}
		snapshot[tier] = users
	}

	log.Printf("[LeagueService] run %s started for %s (force=%t)", runID, week, force)
	for _, tier := range entity.LeagueTiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		users := snapshot[tier]
		if len(users) < 2 {
			continue
		}

		done, err := s.leagueRepo.HasRun(week, tier)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s run: %w", tier, err)
		}
		if done && !force {
			log.Printf("[LeagueService] %s already processed for %s, skipping", tier, week)
			report.SkippedTiers = append(report.SkippedTiers, tier)
			s.metrics.LeagueTierRun("skipped")
			continue
		}

		members, err := s.members(users, from, to)
		if err != nil {
			return nil, err
		}
		plan := ranking.PlanTierMovements(tier, members)

		planned := append(append([]ranking.Movement{}, plan.Promote...), plan.Relegate...)
		moves := make([]entity.LeagueMovement, len(planned))
		for i, m := range planned {
			moves[i] = entity.LeagueMovement{
				RunID:    runID,
				WeekKey:  week,
				UserID:   m.UserID,
				FromTier: m.From,
				ToTier:   m.To,
				WeeklyXP: m.WeeklyXP,
			}
		}

		run := &entity.LeagueRun{
			WeekKey:     week,
			Tier:        tier,
			RunID:       runID,
			Forced:      force,
			MemberCount: len(users),
		}
		applied, err := s.leagueRepo.ApplyTierRun(run, moves, now)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				// параллельный запуск успел поставить отметку
				report.SkippedTiers = append(report.SkippedTiers, tier)
				s.metrics.LeagueTierRun("skipped")
				continue
			}
			s.metrics.LeagueTierRun("failed")
			return nil, fmt.Errorf("failed to apply %s movements: %w", tier, err)
		}
		s.metrics.LeagueTierRun("applied")

		appliedIDs := make(map[uint]bool, len(applied))
		for _, a := range applied {
			appliedIDs[a.UserID] = true
		}
		for _, m := range plan.Promote {
			if appliedIDs[m.UserID] {
				report.Promoted = append(report.Promoted, m)
				s.metrics.LeagueMove("up", string(m.From))
			}
		}
		for _, m := range plan.Relegate {
			if appliedIDs[m.UserID] {
				report.Relegated = append(report.Relegated, m)
				s.metrics.LeagueMove("down", string(m.From))
			}
		}
	}

	log.Printf("[LeagueService] run %s finished: promoted=%d relegated=%d skipped=%v",
		runID, len(report.Promoted), len(report.Relegated), report.SkippedTiers)

	if s.settings.NotifyMoves {
		s.notifyMoves(ctx, week, report)
	}
	return report, nil
}

// notifyMoves отправляет письма о переходах. Ошибки не влияют на результат пересчёта.
func (s *LeagueService) notifyMoves(ctx context.Context, week string, report *PromotionReport) {
	moves := append(append([]ranking.Movement{}, report.Promoted...), report.Relegated...)
	for _, m := range moves {
		if m.Email == "" {
			continue
		}
		if err := s.notifier.NotifyLeagueMove(ctx, m, week); err != nil {
			log.Printf("[LeagueService] failed to notify user %d about %s -> %s: %v", m.UserID, m.From, m.To, err)
		}
	}
}

// Standings возвращает таблицу лиги с зонами повышения и понижения
func (s *LeagueService) Standings(ctx context.Context, tierName string) (*TierStandings, error) {
	tier, err := entity.ParseLeagueTier(tierName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTier, tierName)
	}

	users, err := s.userRepo.ListByTier(tier)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s members: %w", tier, err)
	}

	now := s.now()
	from, to := ranking.WeekWindow(now, s.settings.Location)
	members, err := s.members(users, from, to)
	if err != nil {
		return nil, err
	}
	plan := ranking.PlanTierMovements(tier, members)

	rows := make([]StandingsRow, len(plan.Ranked))
	for i, m := range plan.Ranked {
		rows[i] = StandingsRow{
			Rank:     i + 1,
			UserID:   m.UserID,
			Name:     m.Name,
			WeeklyXP: m.WeeklyXP,
			Zone:     plan.ZoneOf(m.UserID),
		}
	}
	return &TierStandings{
		Tier: tier,
		Week: ranking.WeekKey(now, s.settings.Location),
		Rows: rows,
	}, nil
}

// My возвращает лигу пользователя, соседние лиги и место за неделю
func (s *LeagueService) My(ctx context.Context, userID uint) (*MyLeague, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	tier := user.Tier()

	users, err := s.userRepo.ListByTier(tier)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s members: %w", tier, err)
	}
	found := false
	for _, u := range users {
		if u.ID == user.ID {
			found = true
			break
		}
	}
	if !found {
		users = append(users, *user)
	}

	now := s.now()
	from, to := ranking.WeekWindow(now, s.settings.Location)
	members, err := s.members(users, from, to)
	if err != nil {
		return nil, err
	}
	plan := ranking.PlanTierMovements(tier, members)

	my := &MyLeague{
		Tier:      tier,
		Week:      ranking.WeekKey(now, s.settings.Location),
		Rank:      plan.RankOf(user.ID),
		TierSize:  len(plan.Ranked),
		Zone:      plan.ZoneOf(user.ID),
		UpdatedAt: user.LeagueUpdatedAt,
	}
	if my.Rank > 0 {
		my.WeeklyXP = plan.Ranked[my.Rank-1].WeeklyXP
	}
	if next, ok := tier.Next(); ok {
		my.Next = &next
	}
	if prev, ok := tier.Prev(); ok {
		my.Prev = &prev
	}
	return my, nil
}

// History возвращает последние переходы пользователя между лигами
func (s *LeagueService) History(ctx context.Context, userID uint) ([]entity.LeagueMovement, error) {
	movements, err := s.leagueRepo.ListMovements(userID, MovementHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load league history: %w", err)
	}
	return movements, nil
}
