package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-fees-api/api/swagger"
	"github.com/noah-isme/sma-fees-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-fees-api/internal/middleware"
	"github.com/noah-isme/sma-fees-api/internal/models"
	"github.com/noah-isme/sma-fees-api/internal/repository"
	"github.com/noah-isme/sma-fees-api/internal/service"
	"github.com/noah-isme/sma-fees-api/pkg/cache"
	"github.com/noah-isme/sma-fees-api/pkg/config"
	"github.com/noah-isme/sma-fees-api/pkg/database"
	"github.com/noah-isme/sma-fees-api/pkg/export"
	"github.com/noah-isme/sma-fees-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-fees-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-fees-api/pkg/middleware/requestid"
)

// @title SMA Fees API
// @version 1.0.0
// @description Fee payment allocation service for school fee management
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	studentFeeRepo := repository.NewStudentFeeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	contextSvc := service.NewFeeContextService(studentRepo, studentFeeRepo, feeRepo, paymentRepo, logr)
	allocationSvc := service.NewAllocationService(contextSvc, logr)
	outstandingSvc := service.NewOutstandingService(studentFeeRepo, cacheRepo, cfg.Fees.OutstandingCacheTTL, logr)
	exportSvc := service.NewExportService(paymentRepo, studentFeeRepo, studentRepo, outstandingSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentFeeRepo, cacheRepo, metricsSvc, validate, logr, service.PaymentConfig{
		ReceiptPrefix: cfg.Fees.ReceiptPrefix,
	})

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	feeHandler := handler.NewFeeHandler(contextSvc, allocationSvc, outstandingSvc, exportSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	readRoles := []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleBursar, models.RoleTeacher}
	writeRoles := []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleBursar}

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	secured.GET("/students/:id/payment-context", internalmiddleware.RequireRoles(readRoles...), feeHandler.PaymentContext)
	secured.POST("/students/:id/allocations/suggest", internalmiddleware.RequireRoles(writeRoles...), feeHandler.Suggest)
	secured.POST("/students/:id/allocations/validate", internalmiddleware.RequireRoles(writeRoles...), feeHandler.Validate)

	secured.GET("/fees/outstanding", internalmiddleware.RequireRoles(readRoles...), feeHandler.Outstanding)
	secured.GET("/fees/outstanding/export", internalmiddleware.RequireRoles(readRoles...), feeHandler.OutstandingExport)

	secured.POST("/payments", internalmiddleware.RequireRoles(writeRoles...), paymentHandler.Record)
	secured.GET("/payments/:id/receipt", internalmiddleware.RequireRoles(readRoles...), paymentHandler.Receipt)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
