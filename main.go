package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wtwinds/wtwinds-backend/handlers"
	"github.com/wtwinds/wtwinds-backend/internal/config"
	"github.com/wtwinds/wtwinds-backend/internal/database"
	"github.com/wtwinds/wtwinds-backend/internal/mail"
	"github.com/wtwinds/wtwinds-backend/internal/posts"
	"github.com/wtwinds/wtwinds-backend/internal/sessions"
	"github.com/wtwinds/wtwinds-backend/internal/users"
	"github.com/wtwinds/wtwinds-backend/pkg/logger"
	"github.com/wtwinds/wtwinds-backend/pkg/metrics"
	"github.com/wtwinds/wtwinds-backend/pkg/middleware"
	"github.com/wtwinds/wtwinds-backend/web"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mode=%s mongo=%v redis=%v smtp=%v",
		cfg.Auth.Mode, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Mail.Server != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(web.Templates())

	// Connect to Redis early so sessions and the rate-limiter can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Connect to MongoDB with retry/backoff to tolerate startup races
	ctx := context.Background()
	const maxAttempts = 5
	backoff := time.Second
	var client *mongo.Client
	var errConn error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if errConn == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if errConn != nil {
		logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	db := client.Database(cfg.MongoDB.Database)

	userSvc := users.NewService(users.NewMongoUserRepository(db.Collection("users")))
	postSvc := posts.NewService(posts.NewMongoPostRepository(db.Collection("posts")))

	// Prefer Redis-backed sessions when available; Mongo otherwise
	var sessionsSvc *sessions.Service
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"), cfg.Session.TTL)
		logger.Infof("Using Redis for session storage")
	} else {
		sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")), cfg.Session.TTL)
		logger.Infof("Using MongoDB for session storage")
	}
	r.Use(middleware.SessionMiddleware(cfg, sessionsSvc))

	mailer := mail.New(cfg.Mail)
	handlers.NewAuthHandler(cfg, userSvc, sessionsSvc, mailer).Register(r.Group("/"))
	handlers.NewPostsHandler(cfg, userSvc, postSvc, sessionsSvc).Register(r.Group("/"))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness — 200 only when the stores answer
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps["mongodb"] = client.Ping(pctx, nil) == nil
		if !deps["mongodb"] {
			ready = false
		}
		if redisClient != nil {
			deps["redis"] = redisClient.Ping(pctx).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		}

		status := http.StatusOK
		label := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			label = "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting wtwinds on %s (auth mode: %s)", addr, cfg.Auth.Mode)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
