package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/uni-payroll/catams-api/api/swagger"
	"github.com/uni-payroll/catams-api/internal/handler"
	"github.com/uni-payroll/catams-api/internal/middleware"
	"github.com/uni-payroll/catams-api/internal/models"
	"github.com/uni-payroll/catams-api/internal/policy"
	"github.com/uni-payroll/catams-api/internal/repository"
	"github.com/uni-payroll/catams-api/internal/service"
	"github.com/uni-payroll/catams-api/pkg/cache"
	"github.com/uni-payroll/catams-api/pkg/config"
	"github.com/uni-payroll/catams-api/pkg/database"
	"github.com/uni-payroll/catams-api/pkg/logger"
	corsmiddleware "github.com/uni-payroll/catams-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uni-payroll/catams-api/pkg/middleware/requestid"
)

// @title CATAMS API
// @version 1.0.0
// @description Casual academic timesheet approval and payroll service
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	timesheetRepo := repository.NewTimesheetRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	userRepo := repository.NewUserRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	policyRows := policy.Schedule1()
	if cfg.Policy.ReloadOnStart {
		rows, err := policyRepo.LoadAll(context.Background())
		if err != nil {
			logr.Sugar().Fatalw("failed to load pay policy", "error", err)
		}
		if len(rows) > 0 {
			policyRows = rows
		}
	}
	provider, err := policy.NewProvider(policyRows)
	if err != nil {
		logr.Sugar().Fatalw("invalid pay policy", "error", err)
	}
	calculator := policy.NewCalculator(provider, policy.CalculatorConfig{
		MinHours: decimal.NewFromFloat(cfg.Timesheet.HoursMin),
		MaxHours: decimal.NewFromFloat(cfg.Timesheet.HoursMax),
	})

	metrics := service.NewMetricsService()

	cacheSvc := service.NewCacheService(cacheRepo, logr, metrics, cfg.Dashboard.CacheEnabled, cfg.Dashboard.CacheTTL)
	cacheSvc.Start(context.Background())
	defer cacheSvc.Stop()

	timesheetSvc := service.NewTimesheetService(db, timesheetRepo, courseRepo, userRepo, calculator, cacheSvc, metrics, nil, logr, cfg.Timesheet)
	approvalSvc := service.NewApprovalService(db, timesheetRepo, courseRepo, userRepo, cacheSvc, nil, logr)
	querySvc := service.NewQueryService(timesheetRepo, courseRepo, userRepo, nil, logr)
	dashboardSvc := service.NewDashboardService(timesheetRepo, courseRepo, userRepo, cacheSvc, nil, logr)

	timesheetHandler := handler.NewTimesheetHandler(timesheetSvc, querySvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT))

	timesheets := api.Group("/timesheets")
	{
		timesheets.POST("/quote", timesheetHandler.Quote)
		timesheets.GET("", timesheetHandler.List)
		timesheets.POST("", middleware.RequireRoles(models.RoleLecturer, models.RoleAdmin), timesheetHandler.Create)
		timesheets.GET("/me", timesheetHandler.My)
		timesheets.GET("/pending-approval", timesheetHandler.Pending)
		timesheets.GET("/pending-final-approval", middleware.RequireRoles(models.RoleAdmin), timesheetHandler.PendingFinal)
		timesheets.GET("/config", timesheetHandler.Config)
		timesheets.GET("/:id", timesheetHandler.Get)
		timesheets.PUT("/:id", timesheetHandler.Update)
		timesheets.DELETE("/:id", timesheetHandler.Delete)
	}

	approvals := api.Group("/approvals")
	{
		approvals.POST("", approvalHandler.Apply)
		approvals.GET("/history/:id", approvalHandler.History)
	}

	api.GET("/dashboard/summary", dashboardHandler.Summary)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
