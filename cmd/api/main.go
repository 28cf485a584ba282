package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ponderdome/ponderdome/internal/config"
	"github.com/ponderdome/ponderdome/internal/handlers"
	"github.com/ponderdome/ponderdome/internal/middleware"
	"github.com/ponderdome/ponderdome/internal/repository"
	"github.com/ponderdome/ponderdome/internal/services"
	"github.com/ponderdome/ponderdome/pkg/cache"
	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.New(os.Stdout, cfg.Log.Level)
	logger.Info("Starting Ponderdome API server...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	activityProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ActivityEvents)
	defer activityProducer.Close()

	store := services.NewStore(repository.NewStore(db.DB))

	leaderboardService := services.NewLeaderboardService(store, cfg.Feed.LeaderboardSize, logger)
	feedService := services.NewFeedService(store, leaderboardService, activityProducer, &cfg.Feed, logger)
	likeService := services.NewLikeService(store, activityProducer, logger)
	commentService := services.NewCommentService(store, activityProducer, logger)
	profileService := services.NewProfileService(store, activityProducer, logger)
	authService := services.NewAuthService(store, redisClient, activityProducer, logger)

	feedHandler := handlers.NewFeedHandler(feedService, likeService, commentService)
	userHandler := handlers.NewUserHandler(authService, profileService, leaderboardService, cfg.JWT.Secret, cfg.JWT.ExpireTime)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		health := db.Health(c.Request.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":   health["status"],
			"database": health,
			"time":     time.Now().Unix(),
		})
	})

	jwtConfig := &middleware.JWTConfig{Secret: cfg.JWT.Secret, Revocations: redisClient}
	handlers.RegisterRoutes(router.Group("/api/v1"), feedHandler, userHandler, handlers.Guards{
		Auth:         middleware.NewJWTAuth(jwtConfig),
		OptionalAuth: middleware.NewOptionalJWTAuth(jwtConfig),
		Throttle: func(scope string) gin.HandlerFunc {
			return middleware.NewRateLimit(redisClient, scope, cfg.RateLimit.Writes, cfg.RateLimit.Window, logger)
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func init() {
	if err := os.MkdirAll("configs", 0755); err != nil {
		log.Printf("Failed to create configs directory: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}

func createDefaultConfig(path string) error {
	defaultConfig := `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s
  allow_origins:
    - "http://localhost:3000"

database:
  host: "localhost"
  port: 5432
  user: "ponderdome"
  password: "ponderdome"
  dbname: "ponderdome"
  sslmode: "disable"
  max_open_conns: 50
  max_idle_conns: 10
  conn_max_lifetime: 1h

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 20
  min_idle_conns: 5

kafka:
  brokers:
    - "localhost:9092"
  topics:
    activity_events: "activity-events"
  group_id: "counter-worker-group"

jwt:
  secret: "change-me-in-production"
  expire_time: 24h

feed:
  default_page_size: 20
  max_page_size: 100
  leaderboard_size: 50  # authors below this position show no rank

rate_limit:
  writes: 30
  window: 1m

log:
  level: "info"`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
