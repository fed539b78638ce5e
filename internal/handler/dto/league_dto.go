package dto

import (
	"time"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/handler/helper"
	"github.com/yourusername/tutorquest-api/internal/service"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

// MovementResponse - переход пользователя между лигами
type MovementResponse struct {
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	From     string `json:"from"`
	To       string `json:"to"`
	WeeklyXP int    `json:"weekly_xp"`
}

// PromotionReportResponse - итог недельного пересчёта
type PromotionReportResponse struct {
	Week         string             `json:"week"`
	Promoted     []MovementResponse `json:"promoted"`
	Relegated    []MovementResponse `json:"relegated"`
	SkippedTiers []string           `json:"skipped_tiers"`
}

// StandingsRowResponse - строка таблицы лиги
type StandingsRowResponse struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	WeeklyXP int    `json:"weekly_xp"`
	Zone     string `json:"zone"`
}

// StandingsResponse - таблица лиги за текущую неделю
type StandingsResponse struct {
	League  string                 `json:"league"`
	Week    string                 `json:"week"`
	Members []StandingsRowResponse `json:"members"`
}

// MyLeagueResponse - лига текущего пользователя
type MyLeagueResponse struct {
	League          string     `json:"league"`
	NextLeague      *string    `json:"next_league"`
	PrevLeague      *string    `json:"prev_league"`
	Week            string     `json:"week"`
	WeeklyXP        int        `json:"weekly_xp"`
	Rank            int        `json:"rank"`
	TierSize        int        `json:"tier_size"`
	Zone            string     `json:"zone"`
	LeagueUpdatedAt *time.Time `json:"league_updated_at,omitempty"`
}

// LeagueMovementResponse - запись истории переходов
type LeagueMovementResponse struct {
	Week      string    `json:"week"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Promotion bool      `json:"promotion"`
	WeeklyXP  int       `json:"weekly_xp"`
	CreatedAt time.Time `json:"created_at"`
}

func newMovementList(moves []ranking.Movement) []MovementResponse {
	out := make([]MovementResponse, len(moves))
	for i, m := range moves {
		out[i] = MovementResponse{
			UserID:   m.UserID,
			Name:     m.Name,
			From:     string(m.From),
			To:       string(m.To),
			WeeklyXP: m.WeeklyXP,
		}
	}
	return out
}

// NewPromotionReportResponse создает DTO отчёта о пересчёте
func NewPromotionReportResponse(r *service.PromotionReport) *PromotionReportResponse {
	skipped := make([]string, len(r.SkippedTiers))
	for i, t := range r.SkippedTiers {
		skipped[i] = string(t)
	}
	return &PromotionReportResponse{
		Week:         r.Week,
		Promoted:     newMovementList(r.Promoted),
		Relegated:    newMovementList(r.Relegated),
		SkippedTiers: skipped,
	}
}

// NewStandingsResponse создает DTO таблицы лиги
func NewStandingsResponse(s *service.TierStandings) *StandingsResponse {
	rows := make([]StandingsRowResponse, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = StandingsRowResponse{
			Rank:     r.Rank,
			UserID:   r.UserID,
			Name:     r.Name,
			WeeklyXP: r.WeeklyXP,
			Zone:     string(r.Zone),
		}
	}
	return &StandingsResponse{League: string(s.Tier), Week: s.Week, Members: rows}
}

// NewMyLeagueResponse создает DTO лиги пользователя
func NewMyLeagueResponse(m *service.MyLeague) *MyLeagueResponse {
	return &MyLeagueResponse{
		League:          string(m.Tier),
		NextLeague:      helper.TierPtr(m.Next),
		PrevLeague:      helper.TierPtr(m.Prev),
		Week:            m.Week,
		WeeklyXP:        m.WeeklyXP,
		Rank:            m.Rank,
		TierSize:        m.TierSize,
		Zone:            string(m.Zone),
		LeagueUpdatedAt: m.UpdatedAt,
	}
}

// NewLeagueHistoryResponse создает DTO истории переходов
func NewLeagueHistoryResponse(moves []entity.LeagueMovement) []LeagueMovementResponse {
	out := make([]LeagueMovementResponse, len(moves))
	for i := range moves {
		m := &moves[i]
		out[i] = LeagueMovementResponse{
			Week:      m.WeekKey,
			From:      string(m.FromTier),
			To:        string(m.ToTier),
			Promotion: m.IsPromotion(),
			WeeklyXP:  m.WeeklyXP,
			CreatedAt: m.CreatedAt,
		}
	}
	return out
}
