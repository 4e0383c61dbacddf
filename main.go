package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/NewPyDev/Momentum/cache"
	"github.com/NewPyDev/Momentum/config"
	"github.com/NewPyDev/Momentum/db"
	"github.com/NewPyDev/Momentum/handlers"
	"github.com/NewPyDev/Momentum/middleware"
	"github.com/NewPyDev/Momentum/models"
	"github.com/NewPyDev/Momentum/services"
	"github.com/NewPyDev/Momentum/utils"
)

func main() {
	// Инициализация логирования и метрик
	utils.InitLogger()
	defer utils.Logger.Sync()
	utils.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		utils.Logger.Fatal("config_load_failed", zap.Error(err))
	}
	utils.InitJWT(cfg.JWTSecret)

	utils.Logger.Info("starting_application")

	// Подключение к БД
	db.Connect(cfg)
	if err := db.DB.AutoMigrate(
		&models.User{},
		&models.Goal{},
		&models.Step{},
		&models.RewardLedger{},
		&models.Badge{},
		&models.UserBadge{},
	); err != nil {
		utils.Logger.Fatal("migration_failed", zap.Error(err))
	}

	// Статичный каталог бейджей
	seedBadges()

	// Redis не обязателен: без него работаем без кэша и rate limit
	if err := cache.InitRedis(cfg, utils.Logger); err != nil {
		utils.Logger.Warn("redis_unavailable", zap.Error(err))
	}
	defer cache.Close()

	rewardService := services.NewRewardService(db.DB, utils.Logger, cfg)
	goalService := services.NewGoalService(db.DB, utils.Logger, cfg, rewardService)
	subscriptionService := services.NewSubscriptionService(db.DB, utils.Logger, cfg)
	summaryService := services.NewSummaryService(db.DB, utils.Logger)
	handlers.Setup(goalService, rewardService, subscriptionService, summaryService)

	// Настройка Gin
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Middleware в правильном порядке
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now(),
			"database":  "connected",
		})
	})

	// Публичные эндпоинты
	r.POST("/api/register", middleware.RateLimitMiddleware(10, time.Minute), handlers.Register)
	r.POST("/api/login", middleware.RateLimitMiddleware(10, time.Minute), handlers.Login)
	r.POST("/api/payments/webhook", handlers.PaymentWebhook)

	// Защищенные эндпоинты
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// Профиль
		api.GET("/profile", handlers.Profile)
		api.DELETE("/profile", handlers.DeleteAccount)

		// Цели
		api.GET("/goals", handlers.GetGoals)
		api.POST("/goals", handlers.CreateGoal)
		api.GET("/goals/:id", handlers.GetGoal)
		api.PUT("/goals/:id", handlers.UpdateGoal)
		api.DELETE("/goals/:id", handlers.DeleteGoal)

		// Шаги
		api.POST("/goals/:id/steps", handlers.CreateStep)
		api.PUT("/goals/:id/steps/:stepId", handlers.UpdateStep)
		api.PATCH("/goals/:id/steps/:stepId/toggle", handlers.ToggleStep)
		api.DELETE("/goals/:id/steps/:stepId", handlers.DeleteStep)

		// Награды и сводка
		api.GET("/rewards", middleware.CacheMiddleware(time.Minute), handlers.GetRewards)
		api.GET("/summary", handlers.GetSummary)

		// Платежи
		api.POST("/payments/subscribe", handlers.Subscribe)
		api.POST("/payments/cancel", handlers.CancelSubscription)
	}

	// Метрики Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Запуск сервера
	startServer(r, cfg.Port)
}

func seedBadges() {
	var count int64
	db.DB.Model(&models.Badge{}).Count(&count)
	if count == 0 {
		badges := []models.Badge{
			{Name: "First Victory", Description: "Complete your first goal", Icon: "🏆", Tier: models.BadgeTierBronze, CriteriaType: models.CriteriaPoints, CriteriaValue: 50},
			{Name: "Point Collector", Description: "Earn 500 points", Icon: "💎", Tier: models.BadgeTierSilver, CriteriaType: models.CriteriaPoints, CriteriaValue: 500},
			{Name: "Point Legend", Description: "Earn 2000 points", Icon: "👑", Tier: models.BadgeTierGold, CriteriaType: models.CriteriaPoints, CriteriaValue: 2000},
			{Name: "On a Roll", Description: "Reach a 3-goal streak", Icon: "🔥", Tier: models.BadgeTierBronze, CriteriaType: models.CriteriaStreak, CriteriaValue: 3},
			{Name: "Unstoppable", Description: "Reach a 7-goal streak", Icon: "⚡", Tier: models.BadgeTierSilver, CriteriaType: models.CriteriaStreak, CriteriaValue: 7},
			{Name: "Momentum Master", Description: "Reach a 30-goal streak", Icon: "🌟", Tier: models.BadgeTierGold, CriteriaType: models.CriteriaStreak, CriteriaValue: 30},
		}
		db.DB.Create(&badges)
		fmt.Println("✅ Seed badges created")
	}
}

func startServer(router *gin.Engine, port string) {
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	utils.Logger.Info("starting_http_server", zap.String("port", port))

	fmt.Println("\n🚀 ================================")
	fmt.Println("   Momentum Backend Started")
	fmt.Println("   ================================")
	fmt.Printf("   🌐 Server:  http://localhost:%s\n", port)
	fmt.Printf("   📊 Metrics: http://localhost:%s/metrics\n", port)
	fmt.Printf("   ❤️  Health: http://localhost:%s/health\n", port)
	fmt.Println("   ================================")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.Fatal("http_server_failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting_down_server")
	fmt.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Fatal("server_forced_shutdown", zap.Error(err))
	}

	utils.Logger.Info("server_stopped")
	fmt.Println("✅ Server stopped gracefully")
}
