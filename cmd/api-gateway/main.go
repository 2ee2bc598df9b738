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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/hiring-pipeline-api/api/swagger"
	"github.com/noah-isme/hiring-pipeline-api/internal/handler"
	"github.com/noah-isme/hiring-pipeline-api/internal/middleware"
	"github.com/noah-isme/hiring-pipeline-api/internal/repository"
	"github.com/noah-isme/hiring-pipeline-api/internal/service"
	"github.com/noah-isme/hiring-pipeline-api/pkg/cache"
	"github.com/noah-isme/hiring-pipeline-api/pkg/config"
	"github.com/noah-isme/hiring-pipeline-api/pkg/database"
	"github.com/noah-isme/hiring-pipeline-api/pkg/export"
	"github.com/noah-isme/hiring-pipeline-api/pkg/jobs"
	"github.com/noah-isme/hiring-pipeline-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hiring-pipeline-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hiring-pipeline-api/pkg/middleware/requestid"
	"github.com/noah-isme/hiring-pipeline-api/pkg/storage"
)

// @title Hiring Pipeline API
// @version 0.1.0
// @description Multi-stage hiring workflow: applications, stage gates, offers, reviews and scoring.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	letterStore, err := storage.NewLocalStorage(cfg.Offers.LetterStorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init letter storage", "error", err)
	}
	letterSigner := storage.NewSignedURLSigner(cfg.Offers.SignedURLSecret, cfg.Offers.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	jobRepo := repository.NewJobRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	scorecardRepo := repository.NewScorecardRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)
	gateRepo := repository.NewStageGateRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	worker := service.NewNotificationWorker(notificationRepo, logr).WithMetrics(metricsSvc)
	queue := jobs.NewQueue("notifications", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	queue.Start(context.Background())
	defer queue.Stop()

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			metricsSvc.SetQueueDepth(queue.Depth())
		}
	}()

	accessSvc := service.NewAccessService(orgRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, queue, logr)
	authSvc := service.NewAuthService(userRepo, orgRepo, auditRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hiring-pipeline-api",
	})
	gateSvc := service.NewStageGateService(gateRepo, cacheRepo, nil, logr, cfg.Gates.CacheTTL).WithMetrics(metricsSvc)
	pipelineSvc := service.NewPipelineService(appRepo, jobRepo, orgRepo, accessSvc, gateSvc, auditRepo, notificationSvc, logr)
	offerSvc := service.NewOfferService(
		offerRepo, appRepo, jobRepo, orgRepo, accessSvc, auditRepo, notificationSvc,
		export.NewOfferLetterRenderer(), letterStore, letterSigner, logr,
		service.OfferServiceConfig{FallbackPreOfferStage: cfg.Pipeline.FallbackPreOfferStage},
	)
	approvalSvc := service.NewApprovalService(approvalRepo, orgRepo, auditRepo, notificationSvc, nil, logr)
	scoreSvc := service.NewScoreService(scoreRepo, auditRepo, nil, logr)
	reviewSvc := service.NewReviewService(scorecardRepo, interviewRepo, appRepo, jobRepo, accessSvc, nil, logr)
	exportSvc := service.NewExportService(appRepo, jobRepo, accessSvc, export.NewCSVExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	pipelineHandler := handler.NewPipelineHandler(pipelineSvc)
	offerHandler := handler.NewOfferHandler(offerSvc)
	gateHandler := handler.NewStageGateHandler(gateSvc, jobRepo, accessSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	scoreHandler := handler.NewScoreHandler(scoreSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

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

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Letter downloads authenticate through the signed token in the URL.
	api.GET("/offer-letters/download", offerHandler.DownloadLetter)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)

	authed.GET("/applications", pipelineHandler.List)
	authed.GET("/applications/:id", pipelineHandler.Get)
	authed.GET("/applications/:id/blockers", pipelineHandler.Blockers)
	authed.PUT("/applications/:id/stage", pipelineHandler.AdvanceStage)
	authed.DELETE("/applications/:id", pipelineHandler.Withdraw)

	authed.POST("/applications/:id/offer", offerHandler.Create)
	authed.GET("/offers/:id", offerHandler.Get)
	authed.POST("/offers/:id/send", offerHandler.Send)
	authed.POST("/offers/:id/view", offerHandler.RecordView)
	authed.POST("/offers/:id/sign", offerHandler.Sign)
	authed.POST("/offers/:id/withdraw", offerHandler.Withdraw)
	authed.POST("/offers/:id/letter", offerHandler.GenerateLetter)

	authed.POST("/applications/:id/scorecards", reviewHandler.SubmitScorecard)
	authed.GET("/applications/:id/scorecards", reviewHandler.ListScorecards)
	authed.POST("/applications/:id/interviews", reviewHandler.ScheduleInterview)
	authed.GET("/applications/:id/interviews", reviewHandler.ListInterviews)
	authed.POST("/applications/:id/interviews/:interviewId/complete", reviewHandler.CompleteInterview)

	authed.POST("/approvals", approvalHandler.Request)
	authed.GET("/approvals", approvalHandler.ListMine)
	authed.GET("/approvals/:id", approvalHandler.Get)
	authed.POST("/approvals/:id/respond", approvalHandler.Respond)

	authed.PUT("/scores", scoreHandler.Upsert)
	authed.DELETE("/scores/:id", scoreHandler.Delete)
	authed.GET("/scores/:targetType/:targetId", scoreHandler.ListByTarget)
	authed.GET("/scores/:targetType/:targetId/mine", scoreHandler.Mine)

	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)

	staff := authed.Group("/jobs", middleware.RequireStaff())
	staff.GET("/:id/stage-gates", gateHandler.List)
	staff.PUT("/:id/stage-gates", gateHandler.Put)
	staff.GET("/:id/export", exportHandler.PipelineCSV)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
