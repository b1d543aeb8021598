package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/timetable-core-api/api/swagger"
	"github.com/noah-isme/timetable-core-api/internal/handler"
	"github.com/noah-isme/timetable-core-api/internal/middleware"
	"github.com/noah-isme/timetable-core-api/internal/models"
	"github.com/noah-isme/timetable-core-api/internal/repository"
	"github.com/noah-isme/timetable-core-api/internal/service"
	"github.com/noah-isme/timetable-core-api/pkg/cache"
	"github.com/noah-isme/timetable-core-api/pkg/config"
	"github.com/noah-isme/timetable-core-api/pkg/database"
	"github.com/noah-isme/timetable-core-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-core-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-core-api/pkg/middleware/requestid"
)

// @title Timetable Core API
// @version 1.0.0
// @description Assignment validation and period merging for weekly school timetables
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, audit report caching disabled", "error", err)
		redisClient = nil
	}

	grid := models.Grid{
		NumDays:          cfg.Grid.NumDays,
		NumPeriods:       cfg.Grid.NumPeriods,
		BreakAfterPeriod: cfg.Grid.BreakAfterPeriod,
	}

	scheduleRepo := repository.NewScheduleRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	var cacheRepo *repository.CacheRepository
	if cfg.Audit.CacheEnabled && redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	metricsSvc := service.NewMetricsService()
	auditSvc := service.NewAuditService(scheduleRepo, lessonRepo, auditCacheOrNil(cacheRepo), grid, service.AuditRules{
		TeacherDailyLimit: cfg.Rules.TeacherDailyLimit,
		CacheTTL:          cfg.Audit.CacheTTL,
	}, logr)
	placementSvc := service.NewPlacementService(scheduleRepo, grid, service.PlacementRules{
		TeacherDailyLimit: cfg.Rules.TeacherDailyLimit,
	}, nil, logr)
	mergeSvc := service.NewMergeService(lessonRepo, scheduleRepo, grid, auditSvc, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, grid, logr)
	exportSvc := service.NewExportService(scheduleRepo, grid, logr)

	placementHandler := handler.NewPlacementHandler(placementSvc, mergeSvc, metricsSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, mergeSvc)
	auditHandler := handler.NewAuditHandler(auditSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/placements/validate", placementHandler.Validate)
		api.POST("/placements", placementHandler.Place)
		api.POST("/merges/plan", placementHandler.Plan)

		api.GET("/schedules", scheduleHandler.List)
		api.GET("/sections/:id/timetable", scheduleHandler.Timetable)
		api.GET("/sections/:id/timetable/export", exportHandler.Export)
		api.DELETE("/sections/:id/slots/:day/:period", scheduleHandler.ClearSlot)

		api.GET("/audit", auditHandler.Sweep)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// auditCacheOrNil keeps the typed-nil pointer from masquerading as a non-nil
// interface inside AuditService.
func auditCacheOrNil(repo *repository.CacheRepository) service.AuditCache {
	if repo == nil {
		return nil
	}
	return repo
}
