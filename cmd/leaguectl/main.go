package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"github.com/yourusername/tutorquest-api/internal/config"
	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/metrics"
	pgRepo "github.com/yourusername/tutorquest-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/tutorquest-api/internal/repository/redis"
	"github.com/yourusername/tutorquest-api/internal/service"
	"github.com/yourusername/tutorquest-api/pkg/auth"
	"github.com/yourusername/tutorquest-api/pkg/database"
)

func main() {
	cliApp := &cli.App{
		Name:  "leaguectl",
		Usage: "operator commands for the tutorquest API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config/config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			migrateForceCommand(),
			promoteCommand(),
			tokenCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openSQL открывает database/sql подключение через lib/pq для команд миграций
func openSQL(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply all pending migrations",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := openSQL(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.ApplyMigrations(db, cfg.Database.MigrationsPath)
		},
	}
}

// migrateForceCommand снимает dirty-флаг после упавшей миграции
func migrateForceCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate-force",
		Usage: "force the schema version and clear the dirty state",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "version", Required: true, Usage: "last migration version that applied cleanly"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := openSQL(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := database.NewMigrator(db, cfg.Database.MigrationsPath)
			if err != nil {
				return err
			}
			version := c.Int("version")
			fmt.Printf("Forcing migration version to %d to clean dirty state...\n", version)
			if err := m.Force(version); err != nil {
				return fmt.Errorf("failed to force version: %w", err)
			}
			fmt.Println("Dirty state cleaned.")
			return nil
		},
	}
}

func promoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "promote",
		Usage: "run the weekly league promotion now",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "re-run tiers already processed this week"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			loc, err := cfg.Server.Location()
			if err != nil {
				return err
			}

			db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
			if err != nil {
				return err
			}
			redisClient, err := database.NewUniversalRedisClient(c.Context, cfg.Redis)
			if err != nil {
				return err
			}
			defer redisClient.Close()
			cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
			if err != nil {
				return err
			}

			var notifier service.LeagueNotifier = &service.NoopNotifier{}
			if cfg.Leagues.NotifyMoves && cfg.Email.ResendAPIKey != "" {
				if n, err := service.NewResendNotifier(cfg.Email.ResendAPIKey, cfg.Email.From); err != nil {
					log.Printf("[leaguectl] e-mail notifications disabled: %v", err)
				} else {
					notifier = n
				}
			}

			leagues := service.NewLeagueService(
				pgRepo.NewUserRepo(db), pgRepo.NewLeagueRepo(db), cacheRepo, notifier, metrics.New(),
				service.LeagueSettings{
					Location:    loc,
					LockTTL:     time.Duration(cfg.Leagues.LockTTLSec) * time.Second,
					NotifyMoves: cfg.Leagues.NotifyMoves,
				},
			)
			report, err := leagues.RunWeeklyPromotion(c.Context, c.Bool("force"))
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// tokenCommand выпускает токен для ручной проверки API.
// Настоящие токены выдаёт сервис аккаунтов с тем же секретом.
func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a bearer token for a user",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "user-id", Required: true},
			&cli.StringFlag{Name: "role", Value: entity.RoleStudent, Usage: "student, tutor or admin"},
		},
		Action: func(c *cli.Context) error {
			role := c.String("role")
			switch role {
			case entity.RoleStudent, entity.RoleTutor, entity.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
			if err != nil {
				return err
			}
			token, err := jwtService.GenerateToken(c.Uint("user-id"), role)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}
