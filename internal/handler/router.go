package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/session-api/internal/middleware"
	"github.com/noah-isme/session-api/internal/service"
	"github.com/noah-isme/session-api/pkg/config"
	"github.com/noah-isme/session-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/session-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/session-api/pkg/middleware/requestid"
)

// RouterDeps collects what the HTTP layer needs.
type RouterDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions *service.SessionService
	Metrics  *service.MetricsService
	Limiter  redis.Scripter
}

// NewRouter assembles the gin engine. Rate limiting is attached in production only.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log, "/health", "/ready", "/metrics"))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	health := NewHealthHandler(deps.Sessions, deps.Metrics)
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/")
	if cfg.Env == config.EnvProduction {
		log.Info("running in production mode, rate limiting enabled")
		api.Use(middleware.RateLimit(deps.Limiter, cfg.RateLimit, log))
	} else {
		log.Info("running in development mode")
	}
	NewAuthHandler(deps.Sessions).Register(api)

	return r
}
