package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lovenotes/anniversary/handlers"
	"github.com/lovenotes/anniversary/internal/bootstrap"
	"github.com/lovenotes/anniversary/internal/config"
	contenthandler "github.com/lovenotes/anniversary/internal/content/handler"
	"github.com/lovenotes/anniversary/internal/content/repository"
	"github.com/lovenotes/anniversary/internal/content/service"
	"github.com/lovenotes/anniversary/internal/page"
	"github.com/lovenotes/anniversary/internal/sessions"
	"github.com/lovenotes/anniversary/internal/tokens"
	"github.com/lovenotes/anniversary/internal/view"
	"github.com/lovenotes/anniversary/pkg/logger"
	"github.com/lovenotes/anniversary/pkg/metrics"
	"github.com/lovenotes/anniversary/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Server.LogLevel)
	logger.Infof("config loaded: content=%s assets=%s redis=%v", cfg.Content.Backend, cfg.Assets.Backend, cfg.Redis.Host != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Redis is optional: token blacklist, shared rate limiting and the redis content backend
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb, err = bootstrap.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warnf("failed to connect to Redis: %v", err)
		} else {
			sessions.SetBlacklistClient(rdb)
			defer rdb.Close()
		}
	}

	var limiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limiter = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			limiter = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	repo, closeRepo, err := bootstrap.NewRepository(ctx, cfg, rdb)
	if err != nil {
		logger.Fatalf("content store: %v", err)
	}
	defer closeRepo()

	uploader, closeUploader, err := bootstrap.NewUploader(ctx, cfg)
	if err != nil {
		logger.Fatalf("asset uploader: %v", err)
	}
	defer closeUploader()

	schema, err := bootstrap.LoadSchema(cfg)
	if err != nil {
		logger.Fatalf("field schema: %v", err)
	}
	loc, err := bootstrap.Location(cfg)
	if err != nil {
		logger.Fatalf("timezone: %v", err)
	}
	startField, _ := schema.Field(view.FieldStartDate)

	mgr := page.NewManager(page.Options{
		Schema:   schema,
		Content:  service.New(repo, cfg.Content.Collection, cfg.Content.Document),
		Uploader: uploader,
		Cropper:  bootstrap.NewCropper(cfg),
		Clock:    view.NewClock(loc, startField.Default),
	})

	secret := []byte(cfg.JWT.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			logger.Fatalf("generate token secret: %v", err)
		}
		logger.Warnf("JWT_SECRET not set; admin sessions will not survive a restart")
	}
	admin, err := handlers.NewAdminHandler(handlers.AdminOptions{
		Manager:      mgr,
		Verifier:     tokens.NewVerifier(secret),
		Secret:       secret,
		Password:     cfg.Admin.Password,
		TokenTTL:     cfg.Admin.TokenTTL,
		SecureCookie: cfg.Server.Environment == "production",
	})
	if err != nil {
		logger.Fatalf("admin handler: %v", err)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: the content store must answer and Redis must be up when it is relied on
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		_, err := repo.Fetch(pingCtx, cfg.Content.Collection, cfg.Content.Document)
		deps["content"] = err == nil || errors.Is(err, repository.ErrNotFound)
		ready = ready && deps["content"]

		if cfg.Redis.Host != "" && (cfg.RateLimit.UseRedis || cfg.Content.Backend == "redis") {
			deps["redis"] = rdb != nil && rdb.Ping(pingCtx).Err() == nil
			ready = ready && deps["redis"]
		}

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	r.SetHTMLTemplate(handlers.Templates())
	handlers.RegisterSiteRoutes(r, mgr)
	contenthandler.RegisterContentRoutes(r, mgr)
	handlers.RegisterSwagger(r)
	if limiter != nil {
		admin.Register(r, limiter)
	} else {
		admin.Register(r)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting anniversary site on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
