package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Tournaments TournamentsConfig `mapstructure:"tournaments"`
	Leagues     LeaguesConfig     `mapstructure:"leagues"`
	Email       EmailConfig       `mapstructure:"email"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	// Timezone - IANA зона, в которой считаются окна турниров и недели лиг.
	// Пусто - локальное время сервера.
	Timezone       string   `mapstructure:"timezone"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           string `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: "single", "sentinel", "cluster". По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: список адресов (хост:порт). Для 'single' используется первый.
	Addrs []string `mapstructure:"addrs"`

	// Addr: адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: имя мастера (только для "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expiration_hrs"`
}

// TournamentsConfig содержит настройки ежедневных турниров
type TournamentsConfig struct {
	LeaderboardCacheTTLSec  int `mapstructure:"leaderboard_cache_ttl_sec"`
	HistoryLimit            int `mapstructure:"history_limit"`
	EmbeddedLeaderboardSize int `mapstructure:"embedded_leaderboard_size"`
	AttemptTTLHours         int `mapstructure:"attempt_ttl_hours"`
}

// LeaguesConfig содержит настройки недельного пересчёта лиг
type LeaguesConfig struct {
	ScheduleEnabled bool   `mapstructure:"schedule_enabled"`
	ScheduleCron    string `mapstructure:"schedule_cron"`
	LockTTLSec      int    `mapstructure:"lock_ttl_sec"`
	NotifyMoves     bool   `mapstructure:"notify_moves"`
}

// EmailConfig содержит настройки Resend
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// RateLimitConfig содержит лимит на отправку ответов
type RateLimitConfig struct {
	SubmitMaxRequests int `mapstructure:"submit_max_requests"`
	SubmitWindowSec   int `mapstructure:"submit_window_sec"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Location возвращает зону для расчёта окон турниров и недель
func (s *ServerConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(s.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid server timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// LeaderboardCacheTTL возвращает время жизни кеша лидерборда
func (t *TournamentsConfig) LeaderboardCacheTTL() time.Duration {
	return time.Duration(t.LeaderboardCacheTTLSec) * time.Second
}

// AttemptTTL возвращает время хранения отметки начала попытки
func (t *TournamentsConfig) AttemptTTL() time.Duration {
	return time.Duration(t.AttemptTTLHours) * time.Hour
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("jwt.expiration_hrs", 24)

	vip.SetDefault("tournaments.leaderboard_cache_ttl_sec", 30)
	vip.SetDefault("tournaments.history_limit", 30)
	vip.SetDefault("tournaments.embedded_leaderboard_size", 10)
	vip.SetDefault("tournaments.attempt_ttl_hours", 24)

	vip.SetDefault("leagues.schedule_enabled", false)
	vip.SetDefault("leagues.schedule_cron", "55 23 * * 0")
	vip.SetDefault("leagues.lock_ttl_sec", 300)
	vip.SetDefault("leagues.notify_moves", false)

	vip.SetDefault("rate_limit.submit_max_requests", 10)
	vip.SetDefault("rate_limit.submit_window_sec", 60)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // отдельный экземпляр, без глобального состояния

	setDefaults(vip)

	// Привязываем переменные окружения ЯВНО
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.timezone", "SERVER_TIMEZONE")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expiration_hrs", "JWT_EXPIRATION_HRS")

	vip.BindEnv("leagues.schedule_enabled", "LEAGUES_SCHEDULE_ENABLED")
	vip.BindEnv("leagues.schedule_cron", "LEAGUES_SCHEDULE_CRON")
	vip.BindEnv("leagues.notify_moves", "LEAGUES_NOTIFY_MOVES")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("GIN_MODE", "GIN_MODE")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// файла может не быть, тогда работаем на переменных окружения
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ginMode := vip.GetString("GIN_MODE")
	if ginMode != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Server Port: %s, Timezone: %q", cfg.Server.Port, cfg.Server.Timezone)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Leagues Schedule: enabled=%t cron=%q", cfg.Leagues.ScheduleEnabled, cfg.Leagues.ScheduleCron)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.validate(ginMode); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) validate(ginMode string) error {
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	// пароль БД обязателен везде, кроме debug
	if ginMode != "debug" && cfg.Database.Password == "" {
		return fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}
	if _, err := cfg.Server.Location(); err != nil {
		return err
	}
	if cfg.Tournaments.HistoryLimit < 1 {
		cfg.Tournaments.HistoryLimit = 30
	}
	if cfg.Tournaments.EmbeddedLeaderboardSize < 1 {
		cfg.Tournaments.EmbeddedLeaderboardSize = 10
	}
	return nil
}
