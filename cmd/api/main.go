package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/tutorquest-api/internal/config"
	"github.com/yourusername/tutorquest-api/internal/handler"
	"github.com/yourusername/tutorquest-api/internal/metrics"
	"github.com/yourusername/tutorquest-api/internal/middleware"
	pgRepo "github.com/yourusername/tutorquest-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/tutorquest-api/internal/repository/redis"
	"github.com/yourusername/tutorquest-api/internal/service"
	ws "github.com/yourusername/tutorquest-api/internal/websocket"
	"github.com/yourusername/tutorquest-api/pkg/auth"
	"github.com/yourusername/tutorquest-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}
	loc, err := cfg.Server.Location()
	if err != nil {
		log.Printf("Failed to load timezone: %v", err)
		os.Exit(1)
	}
	isProduction := gin.Mode() == gin.ReleaseMode

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), !isProduction)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis: кеш таблиц, отметки попыток, блокировка пересчёта лиг, rate limiting
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	tournamentRepo := pgRepo.NewTournamentRepo(db)
	leagueRepo := pgRepo.NewLeagueRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	appMetrics := metrics.New()
	wsHub := ws.NewHub()

	// Уведомления о переходах между лигами
	var notifier service.LeagueNotifier = &service.NoopNotifier{}
	if cfg.Leagues.NotifyMoves && cfg.Email.ResendAPIKey != "" {
		resendNotifier, err := service.NewResendNotifier(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize Resend notifier, league e-mails disabled: %v", err)
		} else {
			notifier = resendNotifier
		}
	}

	// Инициализируем сервисы
	tournamentService := service.NewTournamentService(
		tournamentRepo, questionRepo, userRepo, cacheRepo, wsHub, appMetrics,
		service.TournamentSettings{
			Location:                loc,
			LeaderboardCacheTTL:     cfg.Tournaments.LeaderboardCacheTTL(),
			HistoryLimit:            cfg.Tournaments.HistoryLimit,
			EmbeddedLeaderboardSize: cfg.Tournaments.EmbeddedLeaderboardSize,
			AttemptTTL:              cfg.Tournaments.AttemptTTL(),
		},
	)
	leagueService := service.NewLeagueService(
		userRepo, leagueRepo, cacheRepo, notifier, appMetrics,
		service.LeagueSettings{
			Location:    loc,
			LockTTL:     time.Duration(cfg.Leagues.LockTTLSec) * time.Second,
			NotifyMoves: cfg.Leagues.NotifyMoves,
		},
	)
	scoreboardService := service.NewScoreboardService()

	// Недельный пересчёт по расписанию, по умолчанию выключен
	var leagueScheduler *service.LeagueScheduler
	if cfg.Leagues.ScheduleEnabled {
		leagueScheduler, err = service.NewLeagueScheduler(leagueService, cfg.Leagues.ScheduleCron, loc, 10*time.Minute)
		if err != nil {
			log.Printf("Failed to initialize league scheduler: %v", err)
			os.Exit(1)
		}
		leagueScheduler.Start()
	}

	// Инициализируем обработчики
	tournamentHandler := handler.NewTournamentHandler(tournamentService)
	leagueHandler := handler.NewLeagueHandler(leagueService)
	scoreboardHandler := handler.NewScoreboardHandler(scoreboardService)
	wsHandler := handler.NewWSHandler(wsHub, tournamentService, cfg.Server.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	// В production не доверяем прокси-заголовкам (защита от IP spoofing)
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(middleware.RequestMetrics(appMetrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/metrics", gin.WrapH(appMetrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		tournaments := api.Group("/tournaments/daily")
		{
			tournaments.GET("/active", tournamentHandler.GetActive)
			tournaments.GET("/history", tournamentHandler.History)

			withID := tournaments.Group("/:id")
			withID.Use(middleware.ExtractUintParam("id", handler.TournamentIDKey))
			{
				withID.POST("/submit",
					rateLimiter.Limit(middleware.SubmitRateLimitConfig(cfg.RateLimit.SubmitMaxRequests, cfg.RateLimit.SubmitWindowSec)),
					tournamentHandler.Submit)
				withID.GET("/leaderboard", tournamentHandler.Leaderboard)

				adminWithID := withID.Group("")
				adminWithID.Use(authMiddleware.AdminOnly())
				{
					adminWithID.GET("/leaderboard/export", tournamentHandler.ExportLeaderboard)
					adminWithID.DELETE("", tournamentHandler.Delete)
				}
			}

			tournaments.POST("", authMiddleware.AdminOnly(), tournamentHandler.Create)
		}

		leagues := api.Group("/leagues")
		{
			leagues.GET("/standings", leagueHandler.Standings)
			leagues.GET("/my", leagueHandler.My)
			leagues.GET("/history", leagueHandler.History)
			leagues.POST("/promote", authMiddleware.AdminOnly(), leagueHandler.Promote)
		}

		scoreboard := api.Group("/scoreboard")
		{
			scoreboard.POST("/fixtures", scoreboardHandler.Fixtures)
			scoreboard.POST("/standings", scoreboardHandler.Standings)
		}
	}

	// браузер не умеет выставлять Authorization для WebSocket, токен приходит в ?token=
	router.GET("/ws/tournaments/:id",
		authMiddleware.RequireAuthWS(),
		middleware.ExtractUintParam("id", handler.TournamentIDKey),
		wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	if leagueScheduler != nil {
		if err := leagueScheduler.Shutdown(); err != nil {
			log.Printf("Error stopping league scheduler: %v", err)
		}
	}
	wsHub.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
