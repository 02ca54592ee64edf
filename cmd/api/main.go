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

	_ "github.com/careerlab/careerlab-os/api/swagger"
	"github.com/careerlab/careerlab-os/internal/ai"
	"github.com/careerlab/careerlab-os/internal/handler"
	"github.com/careerlab/careerlab-os/internal/mail"
	"github.com/careerlab/careerlab-os/internal/middleware"
	"github.com/careerlab/careerlab-os/internal/repository"
	"github.com/careerlab/careerlab-os/internal/service"
	"github.com/careerlab/careerlab-os/pkg/cache"
	"github.com/careerlab/careerlab-os/pkg/config"
	"github.com/careerlab/careerlab-os/pkg/database"
	"github.com/careerlab/careerlab-os/pkg/logger"
	corsmiddleware "github.com/careerlab/careerlab-os/pkg/middleware/cors"
	reqidmiddleware "github.com/careerlab/careerlab-os/pkg/middleware/requestid"
)

// @title Career Lab OS API
// @version 1.0.0
// @description CRM, autonomous outreach and proctored assessment platform
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		redisClient = nil
	}

	generator, err := ai.NewClient(ctx, cfg.Gemini)
	if err != nil {
		logr.Sugar().Fatalw("gemini client failed", "error", err)
	}
	mailer := mail.NewSMTPSender(cfg.SMTP)

	// Repositories.
	leadRepo := repository.NewLeadRepository(db)
	commRepo := repository.NewCommunicationRepository(db)
	examRepo := repository.NewExamRepository(db)
	resultRepo := repository.NewExamResultRepository(db)
	sessionRepo := repository.NewExamSessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	// Services.
	metricsSvc := service.NewMetricsService()
	notifier := service.NewResultNotifier(mailer, cfg.Notifier, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	authSvc := service.NewAuthService(userRepo, nil, logr, cfg.JWT)
	twoFactorSvc := service.NewTwoFactorService(userRepo, nil, logr)
	userSvc := service.NewUserService(userRepo, nil, logr)
	leadSvc := service.NewLeadService(leadRepo, commRepo, cacheRepo, nil, logr)
	analysisSvc := service.NewLeadAnalysisService(leadRepo, generator, logr)
	outreachSvc := service.NewOutreachService(leadRepo, commRepo, generator, mailer, logr, cfg.Outreach)
	examSvc := service.NewExamService(examRepo, generator, cacheRepo, nil, logr)
	gradingSvc := service.NewGradingService(examRepo, resultRepo, notifier, nil, logr, cfg.Exams.PassThreshold)
	sessionSvc := service.NewExamSessionService(sessionRepo, examRepo, gradingSvc, nil, logr, cfg.Exams)
	auditSvc := service.NewAuditService(resultRepo, generator, logr)
	chatSvc := service.NewChatService(examRepo, leadRepo, generator, nil, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheRepo, logr, cfg.Dashboard)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	twoFactorHandler := handler.NewTwoFactorHandler(twoFactorSvc)
	leadHandler := handler.NewLeadHandler(leadSvc, analysisSvc)
	outreachHandler := handler.NewOutreachHandler(outreachSvc)
	examHandler := handler.NewExamHandler(examSvc, auditSvc)
	sessionHandler := handler.NewSessionHandler(examSvc, sessionSvc, gradingSvc)
	resultHandler := handler.NewResultHandler(auditSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	// Overdue session sweeper.
	go func() {
		ticker := time.NewTicker(cfg.Exams.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessionSvc.ExpireOverdue(ctx); n > 0 {
					logr.Sugar().Infow("auto-submitted overdue sessions", "count", n)
				}
			}
		}
	}()

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

	api.POST("/auth/register", userHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	public := api.Group("/public")
	{
		public.GET("/exams/:id", sessionHandler.GetExam)
		public.POST("/exams/:id/sessions", sessionHandler.Start)
		public.POST("/exams/submit", sessionHandler.SubmitDirect)
		public.GET("/sessions/:id", sessionHandler.Get)
		public.PUT("/sessions/:id/answers", sessionHandler.Answer)
		public.POST("/sessions/:id/flags", sessionHandler.Flag)
		public.POST("/sessions/:id/submit", sessionHandler.Submit)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.PUT("/auth/profile", userHandler.UpdateProfile)
		protected.GET("/auth/2fa", twoFactorHandler.Status)
		protected.POST("/auth/2fa/setup", twoFactorHandler.Setup)
		protected.POST("/auth/2fa/verify", twoFactorHandler.Verify)

		protected.GET("/leads", leadHandler.List)
		protected.POST("/leads", leadHandler.Create)
		protected.GET("/leads/:id", leadHandler.Get)
		protected.PUT("/leads/:id", leadHandler.Update)
		protected.POST("/leads/:id/analyze", leadHandler.Analyze)
		protected.POST("/leads/:id/followup", outreachHandler.FollowUp)
		protected.POST("/outreach/process", outreachHandler.ProcessBatch)

		protected.GET("/exams", examHandler.List)
		protected.POST("/exams", examHandler.Create)
		protected.GET("/exams/:id", examHandler.Get)
		protected.POST("/exams/:id/generate", examHandler.Generate)
		protected.GET("/exams/:id/results", examHandler.Results)
		protected.GET("/exams/:id/results/export", examHandler.ExportResults)
		protected.POST("/results/:id/audit", resultHandler.Audit)

		protected.POST("/chat", chatHandler.Chat)
		protected.GET("/dashboard/stats", dashboardHandler.Stats)
		protected.GET("/dashboard/analytics", dashboardHandler.Analytics)
		protected.GET("/system/metrics", metricsHandler.Snapshot)
	}

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
