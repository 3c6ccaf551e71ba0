package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/noah-isme/hms-api/api/swagger"
	"github.com/noah-isme/hms-api/internal/handler"
	"github.com/noah-isme/hms-api/internal/repository"
	"github.com/noah-isme/hms-api/internal/router"
	"github.com/noah-isme/hms-api/internal/service"
	"github.com/noah-isme/hms-api/pkg/config"
	"github.com/noah-isme/hms-api/pkg/database"
	"github.com/noah-isme/hms-api/pkg/logger"
	"github.com/noah-isme/hms-api/pkg/mailer"
	"github.com/noah-isme/hms-api/pkg/ratelimit"
	"github.com/noah-isme/hms-api/pkg/storage"
)

// @title HMS API
// @version 1.0.0
// @description Hostel management backend: accounts, password lifecycle and student feedback
// @BasePath /
// @schemes http https
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

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("database migration failed", zap.Error(err))
		}
	}

	rdb, err := ratelimit.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("uploads directory unavailable", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)

	tokens := service.NewTokenService(cfg.JWT, logr)
	uploads := service.NewUploadService(files, logr, service.UploadServiceConfig{
		PublicPrefix:  cfg.Uploads.PublicPrefix,
		MaxImageBytes: cfg.Uploads.MaxImageBytes,
		MaxSheetBytes: cfg.Uploads.MaxSheetBytes,
		MaxImages:     cfg.Uploads.MaxImages,
	})
	users := service.NewUserService(userRepo, tokens, mailer.New(cfg.Mail, logr), auditRepo, nil, logr, service.UserServiceConfig{
		FrontendURL: cfg.FrontendURL,
		MaxBulkRows: cfg.BulkImport.MaxRows,
	}).WithMetrics(metrics)
	feedback := service.NewFeedbackService(feedbackRepo, uploads, logr)
	exports := service.NewExportService(feedback, logr, nil, nil)

	checks := map[string]handler.Pinger{"database": db}
	if rdb != nil {
		checks["redis"] = redisPinger{rdb: rdb}
	}

	engine := router.Setup(cfg, router.Deps{
		Users:    handler.NewUserHandler(users, uploads),
		Feedback: handler.NewFeedbackHandler(feedback, exports),
		Ops:      handler.NewMetricsHandler(metrics, checks),
		Metrics:  metrics,
		Auth:     users,
		Limiter:  ratelimit.New(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window),
	}, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
