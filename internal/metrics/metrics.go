// Package metrics собирает Prometheus метрики сервиса.
// Все методы безопасны для nil-получателя, поэтому сервисы в тестах работают без метрик.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tutorquest"

// Исходы отправки ответов
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeNotActive = "not_active"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Metrics хранит собственный реестр и коллекторы
type Metrics struct {
	registry     *prometheus.Registry
	submissions  *prometheus.CounterVec
	leagueMoves  *prometheus.CounterVec
	leagueRuns   *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New создает реестр и регистрирует коллекторы
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournament_submissions_total",
			Help:      "Daily tournament submissions by outcome.",
		}, []string{"outcome"}),
		leagueMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "league_moves_total",
			Help:      "Applied league promotions and relegations.",
		}, []string{"direction", "from"}),
		leagueRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "league_tier_runs_total",
			Help:      "Weekly league tier runs by result.",
		}, []string{"result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submissions,
		m.leagueMoves,
		m.leagueRuns,
		m.httpDuration,
	)
	return m
}

// Handler отдаёт метрики для /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Submission учитывает исход отправки ответов
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// LeagueMove учитывает применённый переход ("up" или "down")
func (m *Metrics) LeagueMove(direction, from string) {
	if m == nil {
		return
	}
	m.leagueMoves.WithLabelValues(direction, from).Inc()
}

// LeagueTierRun учитывает обработку лиги: applied, skipped, failed
func (m *Metrics) LeagueTierRun(result string) {
	if m == nil {
		return
	}
	m.leagueRuns.WithLabelValues(result).Inc()
}

// ObserveHTTP записывает длительность запроса
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
