package entity

import (
	"fmt"
	"strings"
	"time"
)

// LeagueTier - лига пользователя. Порядок значимый: bronze самая нижняя, diamond самая верхняя.
type LeagueTier string

const (
	TierBronze   LeagueTier = "bronze"
	TierSilver   LeagueTier = "silver"
	TierGold     LeagueTier = "gold"
	TierPlatinum LeagueTier = "platinum"
	TierDiamond  LeagueTier = "diamond"
)

// LeagueTiers перечисляет лиги снизу вверх.
var LeagueTiers = []LeagueTier{TierBronze, TierSilver, TierGold, TierPlatinum, TierDiamond}

// ParseLeagueTier разбирает название лиги без учёта регистра.
func ParseLeagueTier(s string) (LeagueTier, error) {
	t := LeagueTier(strings.ToLower(strings.TrimSpace(s)))
	if t.Index() < 0 {
		return "", fmt.Errorf("unknown league tier %q", s)
	}
	return t, nil
}

// Index возвращает позицию лиги в порядке bronze..diamond или -1.
func (t LeagueTier) Index() int {
	for i, tier := range LeagueTiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// IsTop - самая верхняя лига, повышать некуда.
func (t LeagueTier) IsTop() bool {
	return t.Index() == len(LeagueTiers)-1
}

// IsBottom - самая нижняя лига, понижать некуда.
func (t LeagueTier) IsBottom() bool {
	return t.Index() == 0
}

// Next возвращает лигу выше. ok=false для diamond и неизвестных значений.
func (t LeagueTier) Next() (LeagueTier, bool) {
	i := t.Index()
	if i < 0 || i >= len(LeagueTiers)-1 {
		return "", false
	}
	return LeagueTiers[i+1], true
}

// Prev возвращает лигу ниже. ok=false для bronze и неизвестных значений.
func (t LeagueTier) Prev() (LeagueTier, bool) {
	i := t.Index()
	if i <= 0 {
		return "", false
	}
	return LeagueTiers[i-1], true
}

// LeagueRun - отметка о том, что недельный пересчёт лиги уже выполнен.
// Пара (week_key, tier) уникальна: повторный запуск за ту же неделю без force пропускается.
type LeagueRun struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	WeekKey        string     `gorm:"size:10;not null;uniqueIndex:idx_league_runs_week_tier" json:"week_key"`
	Tier           LeagueTier `gorm:"size:20;not null;uniqueIndex:idx_league_runs_week_tier" json:"tier"`
	RunID          string     `gorm:"size:36;not null" json:"run_id"`
	Forced         bool       `gorm:"not null;default:false" json:"forced"`
	MemberCount    int        `gorm:"not null;default:0" json:"member_count"`
	PromotedCount  int        `gorm:"not null;default:0" json:"promoted_count"`
	RelegatedCount int        `gorm:"not null;default:0" json:"relegated_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (LeagueRun) TableName() string {
	return "league_runs"
}

// LeagueMovement - журнал переходов пользователей между лигами.
type LeagueMovement struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	RunID     string     `gorm:"size:36;not null;index" json:"run_id"`
	WeekKey   string     `gorm:"size:10;not null;index" json:"week_key"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	FromTier  LeagueTier `gorm:"size:20;not null" json:"from_tier"`
	ToTier    LeagueTier `gorm:"size:20;not null" json:"to_tier"`
	WeeklyXP  int        `gorm:"not null;default:0" json:"weekly_xp"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (LeagueMovement) TableName() string {
	return "league_movements"
}

// IsPromotion - переход в лигу выше.
func (m *LeagueMovement) IsPromotion() bool {
	return m.ToTier.Index() > m.FromTier.Index()
}
