package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/session-api/api/swagger"
	"github.com/noah-isme/session-api/internal/handler"
	"github.com/noah-isme/session-api/internal/repository"
	"github.com/noah-isme/session-api/internal/service"
	"github.com/noah-isme/session-api/pkg/cache"
	"github.com/noah-isme/session-api/pkg/config"
	"github.com/noah-isme/session-api/pkg/database"
	"github.com/noah-isme/session-api/pkg/logger"
	"github.com/noah-isme/session-api/pkg/retry"
)

// @title Session API
// @version 1.0.0
// @description Session token lifecycle: signup, signin, refresh, verify and signout.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.JWT.Secret == "" || (cfg.Env == config.EnvProduction && cfg.JWT.Secret == config.DevJWTSecret) {
		logr.Fatal("JWT_SECRET must be set")
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db, cfg.Revocation.Timeout)
	revocations := repository.NewRevocationRepository(redisClient, logr, repository.RevocationOptions{
		KeyPrefix: cfg.Revocation.KeyPrefix,
		TTL:       cfg.Revocation.TTL,
		Timeout:   cfg.Revocation.Timeout,
		Retry:     retry.DefaultPolicy(cfg.Revocation.RetryAttempts),
	})
	defer revocations.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	passwords := service.NewPasswordService(service.PasswordParams{
		MemoryKiB:   cfg.Password.MemoryKiB,
		Iterations:  cfg.Password.Iterations,
		Parallelism: cfg.Password.Parallelism,
	})
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, TTL: cfg.JWT.Expiration})
	sessions := service.NewSessionService(userRepo, revocations, passwords, tokens, validator.New(), logr, metrics)

	router := handler.NewRouter(handler.RouterDeps{
		Config:   cfg,
		Logger:   logr,
		Sessions: sessions,
		Metrics:  metrics,
		Limiter:  redisClient,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
