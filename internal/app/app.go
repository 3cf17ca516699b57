// Package app wires configuration into the services shared by the HTTP API and the CLI.
package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/internal/models"
	"github.com/noah-isme/lms-auditor/internal/repository"
	"github.com/noah-isme/lms-auditor/internal/service"
	"github.com/noah-isme/lms-auditor/pkg/cache"
	"github.com/noah-isme/lms-auditor/pkg/canvas"
	"github.com/noah-isme/lms-auditor/pkg/config"
)

// Services is the set of long-lived collaborators built from one Config.
type Services struct {
	Config    *config.Config
	Logger    *zap.Logger
	Validator *validator.Validate
	Metrics   *service.MetricsService
	LMS       *canvas.Client
	Cache     *service.CacheService
	Snapshots *service.SnapshotService
	Audits    *service.AuditService
	Search    *service.CourseSearchService
	Export    *service.ExportService
	Auth      *service.AuthService

	cacheRepo *repository.CacheRepository
}

// New builds every service. Redis is optional: when it cannot be reached the search cache is
// disabled and a warning is logged.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := service.NewMetricsService()

	lms, err := canvas.NewClient(canvas.Options{
		BaseURL:  cfg.LMS.BaseURL,
		Token:    cfg.LMS.Token,
		Timeout:  cfg.LMS.Timeout,
		PerPage:  cfg.LMS.PerPage,
		Observer: metrics,
		Logger:   logger.Named("canvas"),
	})
	if err != nil {
		return nil, err
	}

	s := &Services{
		Config:    cfg,
		Logger:    logger,
		Validator: validator.New(),
		Metrics:   metrics,
		LMS:       lms,
	}

	var cacheRepo service.CacheRepository
	if cfg.Search.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("search cache disabled", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		} else {
			s.cacheRepo = repository.NewCacheRepository(client, "", logger.Named("cache"))
			cacheRepo = s.cacheRepo
		}
	}
	s.Cache = service.NewCacheService(cacheRepo, metrics, cfg.Search.CacheTTL, logger.Named("cache"), cacheRepo != nil)

	s.Snapshots = service.NewSnapshotService(lms, service.SnapshotServiceConfig{
		CategoryName:   cfg.Teams.CategoryName,
		LegacyCategory: cfg.Teams.LegacyCategory,
	}, logger.Named("snapshot"))

	corrector := service.NewCorrectionService(service.CorrectionServiceParams{
		LMS: lms,
		Config: service.CorrectionServiceConfig{
			Plagiarism: models.PlagiarismSettings{
				Tool:             cfg.Plagiarism.Tool,
				ToolType:         cfg.Plagiarism.ToolType,
				ReportVisibility: cfg.Plagiarism.ReportVisibility,
			},
			CategoryName: cfg.Teams.CategoryName,
			MinTeamSize:  cfg.Teams.MinSize,
			MaxTeamSize:  cfg.Teams.MaxSize,
		},
		Metrics: metrics,
		Logger:  logger.Named("corrector"),
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	})

	s.Audits = service.NewAuditService(service.AuditServiceParams{
		Courses:   lms,
		Snapshots: s.Snapshots,
		Evaluator: service.NewComplianceEvaluator(metrics),
		Corrector: corrector,
		CourseURL: cfg.LMS.CourseURL,
		Logger:    logger.Named("audit"),
	})
	s.Search = service.NewCourseSearchService(lms, s.Cache, logger.Named("search"))
	s.Export = service.NewExportService(logger.Named("export"), nil, nil)
	s.Auth = service.NewAuthService(s.Validator, logger.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	return s, nil
}

// PingCache reports whether the search cache backend answers. It is a no-op without Redis.
func (s *Services) PingCache(ctx context.Context) error {
	if s.cacheRepo == nil {
		return nil
	}
	return s.cacheRepo.Ping(ctx)
}

// Close releases the Redis connection, if any.
func (s *Services) Close() error {
	if s.cacheRepo == nil {
		return nil
	}
	return s.cacheRepo.Close()
}
