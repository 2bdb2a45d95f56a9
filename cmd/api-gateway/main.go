package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/enrollment-admin-api/api/swagger"
	"github.com/noah-isme/enrollment-admin-api/internal/handler"
	"github.com/noah-isme/enrollment-admin-api/internal/middleware"
	"github.com/noah-isme/enrollment-admin-api/internal/repository"
	"github.com/noah-isme/enrollment-admin-api/internal/service"
	"github.com/noah-isme/enrollment-admin-api/internal/validation"
	"github.com/noah-isme/enrollment-admin-api/pkg/cache"
	"github.com/noah-isme/enrollment-admin-api/pkg/config"
	"github.com/noah-isme/enrollment-admin-api/pkg/database"
	"github.com/noah-isme/enrollment-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/enrollment-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/enrollment-admin-api/pkg/middleware/requestid"
)

// @title Enrollment Admin API
// @version 0.1.0
// @description Admin backend for student course enrollments
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, count cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validation.New()

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)

	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, cacheSvc, metricsSvc, validate, service.ListConfig{
		DefaultPageSize: cfg.List.DefaultPageSize,
		MaxPageSize:     cfg.List.MaxPageSize,
	}, logr)
	exportSvc := service.NewExportService(enrollmentRepo, cfg.Export.ChunkSize, metricsSvc, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, exportSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

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
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/courses", courseHandler.List)
		api.POST("/courses", courseHandler.Create)
		api.DELETE("/courses/:id", courseHandler.Delete)

		// export is registered before the id routes so the path segment
		// "export" never binds as an id
		api.GET("/enrollments/export", enrollmentHandler.Export)
		api.GET("/enrollments", enrollmentHandler.List)
		api.POST("/enrollments", enrollmentHandler.Create)
		api.PUT("/enrollments/:id", enrollmentHandler.Update)
		api.PATCH("/enrollments/:id", enrollmentHandler.Update)
		api.DELETE("/enrollments/:id", enrollmentHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
