package ranking

import (
	"fmt"
	"sort"
	"time"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
)

// ZoneShare - доля лиги, попадающая в зону повышения и в зону понижения.
const ZoneShare = 0.25

// Zone - положение участника в таблице лиги.
type Zone string

const (
	ZonePromotion  Zone = "promotion"
	ZoneRelegation Zone = "relegation"
	ZoneSafe       Zone = "safe"
)

// Member - участник лиги с опытом за текущую неделю.
type Member struct {
	UserID   uint
	Name     string
	Email    string
	WeeklyXP int
}

// Movement - переход участника между лигами.
type Movement struct {
	UserID   uint              `json:"user_id"`
	Name     string            `json:"name"`
	Email    string            `json:"-"`
	From     entity.LeagueTier `json:"from"`
	To       entity.LeagueTier `json:"to"`
	WeeklyXP int               `json:"weekly_xp"`
}

// TierPlan - отсортированная таблица лиги и запланированные переходы.
type TierPlan struct {
	Tier     entity.LeagueTier
	Ranked   []Member
	Promote  []Movement
	Relegate []Movement
}

// ZoneSize = max(1, floor(n*0.25)).
func ZoneSize(n int) int {
	size := int(float64(n) * ZoneShare)
	if size < 1 {
		return 1
	}
	return size
}

// SortMembers сортирует копию по недельному опыту (убывание), при равенстве по user id.
func SortMembers(members []Member) []Member {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].WeeklyXP != sorted[j].WeeklyXP {
			return sorted[i].WeeklyXP > sorted[j].WeeklyXP
		}
		return sorted[i].UserID < sorted[j].UserID
	})
	return sorted
}

// PlanTierMovements рассчитывает повышения и понижения внутри одной лиги.
// Лиги меньше чем из двух участников не меняются. Повышаются только участники
// с опытом больше нуля, понижаются нижние участники независимо от опыта.
// Каждый участник попадает максимум в один список.
func PlanTierMovements(tier entity.LeagueTier, members []Member) TierPlan {
	plan := TierPlan{Tier: tier, Ranked: SortMembers(members)}
	n := len(plan.Ranked)
	if n < 2 {
		return plan
	}

	promoteCount := ZoneSize(n)
	relegateCount := ZoneSize(n)
	moved := make(map[uint]bool, promoteCount+relegateCount)

	if next, ok := tier.Next(); ok {
		for _, m := range plan.Ranked[:promoteCount] {
			if m.WeeklyXP <= 0 {
				continue
			}
			moved[m.UserID] = true
			plan.Promote = append(plan.Promote, Movement{
				UserID: m.UserID, Name: m.Name, Email: m.Email,
				From: tier, To: next, WeeklyXP: m.WeeklyXP,
			})
		}
	}

	if prev, ok := tier.Prev(); ok {
		for _, m := range plan.Ranked[n-relegateCount:] {
			if moved[m.UserID] {
				continue
			}
			moved[m.UserID] = true
			plan.Relegate = append(plan.Relegate, Movement{
				UserID: m.UserID, Name: m.Name, Email: m.Email,
				From: tier, To: prev, WeeklyXP: m.WeeklyXP,
			})
		}
	}

	return plan
}

// ZoneOf возвращает зону участника по плану.
func (p TierPlan) ZoneOf(userID uint) Zone {
	for _, m := range p.Promote {
		if m.UserID == userID {
			return ZonePromotion
		}
	}
	for _, m := range p.Relegate {
		if m.UserID == userID {
			return ZoneRelegation
		}
	}
	return ZoneSafe
}

// RankOf возвращает место участника в лиге (с единицы) или 0.
func (p TierPlan) RankOf(userID uint) int {
	for i, m := range p.Ranked {
		if m.UserID == userID {
			return i + 1
		}
	}
	return 0
}

// WeekWindow возвращает полуинтервал [понедельник 00:00, следующий понедельник 00:00)
// для недели, в которую попадает now. Воскресенье считается седьмым днём недели.
func WeekWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	y, m, d := local.Date()
	start := time.Date(y, m, d-(weekday-1), 0, 0, 0, 0, loc)
	end := time.Date(y, m, d-(weekday-1)+7, 0, 0, 0, 0, loc)
	return start, end
}

// WeekKey - ISO идентификатор недели вида "2026-W42".
func WeekKey(now time.Time, loc *time.Location) string {
	start, _ := WeekWindow(now, loc)
	year, week := start.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
