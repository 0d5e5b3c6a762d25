package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/visionary-built/MyCourierBackend/api/swagger"
	"github.com/visionary-built/MyCourierBackend/internal/handler"
	"github.com/visionary-built/MyCourierBackend/internal/middleware"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	"github.com/visionary-built/MyCourierBackend/internal/repository"
	"github.com/visionary-built/MyCourierBackend/internal/service"
	"github.com/visionary-built/MyCourierBackend/pkg/cache"
	"github.com/visionary-built/MyCourierBackend/pkg/config"
	"github.com/visionary-built/MyCourierBackend/pkg/database"
	"github.com/visionary-built/MyCourierBackend/pkg/jobs"
	"github.com/visionary-built/MyCourierBackend/pkg/logger"
	corsmiddleware "github.com/visionary-built/MyCourierBackend/pkg/middleware/cors"
	reqidmiddleware "github.com/visionary-built/MyCourierBackend/pkg/middleware/requestid"
)

// @title Courier Operations API
// @version 0.1.0
// @description Consignment lifecycle, rider assignment and return handling
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

	var cacheRepo *repository.CacheRepository
	if cfg.Tracking.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, tracking cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	bookingRepo := repository.NewBookingRepository(db)
	manualRepo := repository.NewManualBookingRepository(db)
	riderRepo := repository.NewRiderRepository(db)
	sheetRepo := repository.NewSheetRepository(db)
	returnRepo := repository.NewReturnRepository(db)

	propagator := service.NewPropagator(bookingRepo, manualRepo, metricsSvc, jobs.QueueConfig{
		Workers:    cfg.Propagation.Workers,
		MaxRetries: cfg.Propagation.MaxRetries,
		RetryDelay: cfg.Propagation.RetryDelay,
		Logger:     logr,
	}, logr)
	propagator.Start(ctx)
	defer propagator.Stop()

	classifier := service.NewClassifier(service.ValidationConfig{
		BranchCity:        cfg.Courier.BranchCity,
		ServiceableCities: cfg.Courier.ServiceableCities,
	})

	consignmentSvc := service.NewConsignmentService(bookingRepo, manualRepo, sheetRepo, classifier, propagator, nil, logr)
	assignmentSvc := service.NewAssignmentService(riderRepo, sheetRepo, consignmentSvc, metricsSvc, nil, logr)
	returnSvc := service.NewReturnService(returnRepo, riderRepo, consignmentSvc, metricsSvc, nil, logr)
	voidSvc := service.NewVoidService(bookingRepo, classifier, propagator, metricsSvc, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Tracking.CacheTTL, logr, cfg.Tracking.CacheEnabled && cacheRepo != nil)
	trackingSvc := service.NewTrackingService(consignmentSvc, cacheSvc, cfg.Tracking.CacheTTL, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	bookingHandler := handler.NewBookingHandler(consignmentSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	returnHandler := handler.NewReturnHandler(returnSvc)
	voidHandler := handler.NewVoidHandler(voidSvc)
	trackingHandler := handler.NewTrackingHandler(trackingSvc)
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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.GET("/track/:cn", trackingHandler.Track)

	authed := api.Group("")
	authed.Use(middleware.JWT(tokenSvc))

	bookings := authed.Group("/bookings")
	{
		bookings.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleCustomer), bookingHandler.Create)
		bookings.GET("", bookingHandler.List)
		bookings.GET("/:cn", bookingHandler.Get)
		bookings.PUT("/:cn/status", middleware.RequireRoles(models.RoleAdmin, models.RoleRider), bookingHandler.UpdateStatus)
		bookings.POST("/:cn/remarks", middleware.RequireRoles(models.RoleAdmin), bookingHandler.AppendRemark)
	}

	sheets := authed.Group("/sheets")
	{
		sheets.GET("", middleware.RequireRoles(models.RoleAdmin), assignmentHandler.List)
		sheets.POST("/assign", middleware.RequireRoles(models.RoleAdmin), assignmentHandler.Assign)
		sheets.POST("/remove", middleware.RequireRoles(models.RoleAdmin), assignmentHandler.Remove)
		sheets.POST("/complete", middleware.RequireRoles(models.RoleRider), assignmentHandler.Complete)
		sheets.GET("/mine", middleware.RequireRoles(models.RoleRider), assignmentHandler.MySheets)
		sheets.POST("/consignments/:cn/accept", middleware.RequireRoles(models.RoleRider), assignmentHandler.Accept)
		sheets.POST("/consignments/:cn/decline", middleware.RequireRoles(models.RoleRider), assignmentHandler.Decline)
		sheets.GET("/:id", middleware.RequireRoles(models.RoleAdmin), assignmentHandler.Detail)
	}

	authed.GET("/riders/active", middleware.RequireRoles(models.RoleAdmin), assignmentHandler.ActiveRiders)

	returns := authed.Group("/returns")
	{
		returns.POST("", middleware.RequireRoles(models.RoleRider), returnHandler.Register)
		returns.GET("/today", middleware.RequireRoles(models.RoleRider), returnHandler.Today)
		returns.GET("", middleware.RequireRoles(models.RoleAdmin), returnHandler.List)
		returns.PUT("/:id/complete", middleware.RequireRoles(models.RoleAdmin), returnHandler.Complete)
	}

	voids := authed.Group("/voids")
	voids.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		voids.GET("", voidHandler.List)
		voids.POST("", voidHandler.Void)
		voids.POST("/sweep", voidHandler.Sweep)
	}

	authed.GET("/metrics/snapshot", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
