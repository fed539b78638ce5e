package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// PromotionRunner - то, что запускает планировщик раз в неделю
type PromotionRunner interface {
	RunWeeklyPromotion(ctx context.Context, force bool) (*PromotionReport, error)
}

// LeagueScheduler запускает недельный пересчёт лиг по cron выражению.
// По умолчанию выключен: пересчёт вызывает администратор.
type LeagueScheduler struct {
	scheduler gocron.Scheduler
	runner    PromotionRunner
	timeout   time.Duration
}

// NewLeagueScheduler регистрирует задачу пересчёта в зоне loc
func NewLeagueScheduler(runner PromotionRunner, cronExpr string, loc *time.Location, timeout time.Duration) (*LeagueScheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ls := &LeagueScheduler{scheduler: sched, runner: runner, timeout: timeout}
	_, err = sched.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(ls.run),
		gocron.WithName("weekly-league-promotion"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("invalid league schedule %q: %w", cronExpr, err)
	}
	return ls, nil
}

func (ls *LeagueScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), ls.timeout)
	defer cancel()

	report, err := ls.runner.RunWeeklyPromotion(ctx, false)
	if err != nil {
		if errors.Is(err, ErrPromotionInProgress) {
			log.Printf("[LeagueScheduler] promotion already running, skipping tick")
			return
		}
		log.Printf("[LeagueScheduler] weekly promotion failed: %v", err)
		return
	}
	log.Printf("[LeagueScheduler] week %s: promoted=%d relegated=%d skipped=%v",
		report.Week, len(report.Promoted), len(report.Relegated), report.SkippedTiers)
}

// Start запускает планировщик
func (ls *LeagueScheduler) Start() {
	ls.scheduler.Start()
	log.Printf("[LeagueScheduler] started")
}

// Shutdown останавливает планировщик и ждёт текущую задачу
func (ls *LeagueScheduler) Shutdown() error {
	return ls.scheduler.Shutdown()
}
