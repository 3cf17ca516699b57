package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-auditor/api/swagger"
	"github.com/noah-isme/lms-auditor/internal/app"
	"github.com/noah-isme/lms-auditor/internal/handler"
	"github.com/noah-isme/lms-auditor/internal/middleware"
	"github.com/noah-isme/lms-auditor/internal/models"
	"github.com/noah-isme/lms-auditor/pkg/config"
	"github.com/noah-isme/lms-auditor/pkg/logger"
	reqidmiddleware "github.com/noah-isme/lms-auditor/pkg/middleware/requestid"
)

// @title LMS Auditor API
// @version 1.0.0
// @description Audits and corrects Canvas course assignments against institutional checklists.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg, false)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to build services", zap.Error(err))
	}
	defer services.Close() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newRouter(s *app.Services) *gin.Engine {
	cfg := s.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(s.Logger))
	r.Use(middleware.Metrics(s.Metrics))

	metricsHandler := handler.NewMetricsHandler(s.Metrics, map[string]handler.ReadinessCheck{
		"cache": s.PingCache,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auditHandler := handler.NewAuditHandler(s.Audits, s.Export, s.Validator, s.Logger.Named("http"), 0)
	searchHandler := handler.NewSearchHandler(s.Search, s.Validator)

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta(), middleware.JWT(s.Auth))
	{
		api.POST("/audits", auditHandler.Audit)
		api.GET("/audits/:courseId/export", auditHandler.Export)
		api.POST("/corrections", middleware.RequireRoles(models.RoleAdmin), auditHandler.Correct)
		api.GET("/courses/search", searchHandler.Search)
		api.GET("/metrics/summary", metricsHandler.Summary)
	}
	return r
}
