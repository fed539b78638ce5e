package entity

import (
	"time"
)

// Роли пользователей
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

// User представляет пользователя. Аккаунты создаёт внешний CRUD слой,
// здесь важны только лига, общий опыт и роль.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Username        string     `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email           string     `gorm:"size:100;not null;default:''" json:"-"`
	Role            string     `gorm:"size:20;not null;default:'student'" json:"role"`
	League          LeagueTier `gorm:"size:20;not null;default:'bronze';index" json:"league"`
	LeagueUpdatedAt *time.Time `gorm:"type:timestamp" json:"league_updated_at,omitempty"`
	TotalXP         int64      `gorm:"not null;default:0" json:"total_xp"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// IsAdmin проверяет роль администратора
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Tier возвращает лигу пользователя, пустое значение считается бронзой
func (u *User) Tier() LeagueTier {
	if u.League.Index() < 0 {
		return TierBronze
	}
	return u.League
}
