// Package ranking содержит чистые функции подсчёта очков, рангов, лиг и турнирных таблиц.
// Пакет не обращается к БД и не читает часы сам: текущее время всегда передаётся снаружи.
package ranking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status - производное состояние ежедневного турнира. Никогда не хранится в БД.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
)

// DateLayout - формат календарных дат турнира.
const DateLayout = "2006-01-02"

// Schedule описывает окно турнира: диапазон дат и ежедневное окно времени (HH:mm).
type Schedule struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime string
	EndTime   string
}

// ParseClock разбирает строку "HH:mm" в минуты от полуночи.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:mm", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// civilDate возвращает номер календарного дня в локации loc, пригодный для сравнения.
func civilDate(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return y*10000 + int(m)*100 + d
}

// ComputeStatus вычисляет состояние турнира на момент now.
// Даты турнира сравниваются как календарные дни (их собственные Y-M-D),
// а now переводится в loc. Некорректное время суток трактуется как 00:00 / 23:59.
func ComputeStatus(s Schedule, now time.Time, loc *time.Location) Status {
	if loc == nil {
		loc = time.Local
	}

	sy, sm, sd := s.StartDate.Date()
	ey, em, ed := s.EndDate.Date()
	start := sy*10000 + int(sm)*100 + sd
	end := ey*10000 + int(em)*100 + ed
	today := civilDate(now, loc)

	if today < start {
		return StatusScheduled
	}
	if today > end {
		return StatusEnded
	}

	local := now.In(loc)
	nowMinutes := local.Hour()*60 + local.Minute()

	startMin, err := ParseClock(s.StartTime)
	if err != nil {
		startMin = 0
	}
	endMin, err := ParseClock(s.EndTime)
	if err != nil {
		endMin = 23*60 + 59
	}

	if nowMinutes < startMin {
		return StatusScheduled
	}
	if nowMinutes > endMin {
		// на последнем дне окно закрыто окончательно, иначе турнир откроется завтра
		if today >= end {
			return StatusEnded
		}
		return StatusScheduled
	}
	return StatusActive
}
