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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sigmadocs/ged-api/api/swagger"
	"github.com/sigmadocs/ged-api/internal/handler"
	"github.com/sigmadocs/ged-api/internal/middleware"
	"github.com/sigmadocs/ged-api/internal/repository"
	"github.com/sigmadocs/ged-api/internal/service"
	"github.com/sigmadocs/ged-api/pkg/cache"
	"github.com/sigmadocs/ged-api/pkg/config"
	"github.com/sigmadocs/ged-api/pkg/database"
	"github.com/sigmadocs/ged-api/pkg/logger"
	corsmiddleware "github.com/sigmadocs/ged-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sigmadocs/ged-api/pkg/middleware/requestid"
	"github.com/sigmadocs/ged-api/pkg/storage"
)

const version = "1.0.0"

// @title SigmaDocs GED API
// @version 1.0.0
// @description Document management backend: sessions, documents, locks, backups and scheduled tasks
// @BasePath /api
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	documentStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("document storage init failed", "error", err)
	}
	backupStore, err := storage.NewLocalStorage(cfg.Backups.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("backup storage init failed", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	backupRepo := repository.NewBackupRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	stateRepo := repository.NewStateRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	auditService := service.NewAuditService(userRepo, logr)
	auditService.Start(ctx)
	defer auditService.Stop()

	authService := service.NewAuthService(userRepo, auditService, validate, logr, service.AuthConfig{
		SessionTTL:        cfg.Auth.SessionTTL,
		BootstrapAdmin:    cfg.Auth.BootstrapAdmin,
		BootstrapEmail:    cfg.Auth.BootstrapEmail,
		BootstrapPassword: cfg.Auth.BootstrapPassword,
	})
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, userRepo, logr)
	documentService := service.NewDocumentService(documentRepo, documentStore, auditService, validate, logr, service.DocumentsConfig{
		APIPrefix:        cfg.APIPrefix,
		DownloadSecret:   cfg.Documents.DownloadSecret,
		DownloadTokenTTL: cfg.Documents.DownloadTokenTTL,
		MaxFileSizeBytes: cfg.Documents.MaxFileSizeBytes,
	})
	lockService := service.NewLockService(documentRepo, auditService, logr, cfg.Documents.LockTTL)

	signer := storage.NewSignedURLSigner(cfg.Backups.SignedURLSecret, cfg.Backups.SignedURLTTL)
	backupService := service.NewBackupService(backupRepo, backupStore, signer, auditService, logr, service.BackupsConfig{
		APIPrefix:    cfg.APIPrefix,
		DocumentsDir: cfg.Documents.StorageDir,
		Retention:    cfg.Backups.Retention,
	})

	settingsService := service.NewSettingsService(settingRepo, cacheRepo, auditService, validate, logr, service.CompanyInfo{
		Name: cfg.Company.Name,
		CNPJ: cfg.Company.CNPJ,
	})
	stateService := service.NewStateService(stateRepo, cacheRepo, logr)

	mailer, err := service.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	if err != nil {
		logr.Sugar().Warnw("smtp mailer init failed, alert mail disabled", "error", err)
	}
	var alertMailer service.AlertMailer
	if mailer != nil {
		alertMailer = mailer
	}
	alertService := service.NewAlertService(documentRepo, alertRepo, userRepo, alertMailer, auditService, logr, service.AlertsConfig{
		Enabled:      cfg.Alerts.Enabled,
		NoticeWindow: cfg.Alerts.NoticeWindow,
	})

	taskService := service.NewTaskService(taskRepo, backupService, alertService, userRepo, lockService, auditService, validate, logr)
	if err := taskService.EnsureDefaults(ctx); err != nil {
		logr.Sugar().Warnw("failed to seed default tasks", "error", err)
	}

	metricsService := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authService, handler.SessionCookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Env == config.EnvProduction,
	})
	documentHandler := handler.NewDocumentHandler(documentService, lockService)
	backupHandler := handler.NewBackupHandler(backupService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	taskHandler := handler.NewTaskHandler(taskService)
	alertHandler := handler.NewAlertHandler(alertService)
	stateHandler := handler.NewStateHandler(stateService)
	auditHandler := handler.NewAuditHandler(auditService)
	healthHandler := handler.NewHealthHandler(db, version)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	session := middleware.Session(authService, cfg.Auth.CookieName)
	admin := middleware.RequireAdmin()
	cronOrSession := middleware.CronOrSession(authService, cfg.Auth.CookieName, cfg.Cron.Secret)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/health", healthHandler.Check)
		api.GET("/config", settingsHandler.GetConfig)
		api.GET("/states", stateHandler.List)

		auth := api.Group("/auth")
		{
			login := auth.Group("")
			if cfg.Throttle.Enabled {
				login.Use(middleware.Throttle(cfg.Throttle.RPS, cfg.Throttle.Burst))
			}
			login.POST("/login", authHandler.Login)

			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", session, authHandler.Me)
		}

		documents := api.Group("/documents", session)
		{
			documents.GET("", documentHandler.List)
			documents.POST("", documentHandler.Create)
			documents.GET("/:id", documentHandler.Get)
			documents.DELETE("/:id", documentHandler.Delete)
			documents.GET("/:id/lock", documentHandler.LockStatus)
			documents.POST("/:id/lock", documentHandler.AcquireLock)
			documents.DELETE("/:id/lock", documentHandler.ReleaseLock)
			documents.POST("/:id/download", documentHandler.IssueDownload)
		}
		// Token-authenticated, no session required.
		api.GET("/documents/download/:token", documentHandler.Download)

		backups := api.Group("/backup", session, admin)
		{
			backups.GET("", backupHandler.List)
			backups.POST("", backupHandler.Create)
			backups.DELETE("", backupHandler.Prune)
			backups.POST("/:id/download", backupHandler.SignedURL)
			backups.POST("/:id/restore", backupHandler.Restore)
		}
		api.GET("/backup/download/:token", backupHandler.Download)

		api.PUT("/config", session, admin, settingsHandler.Update)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", session, admin, taskHandler.List)
			tasks.PUT("/:id", session, admin, taskHandler.Update)
			tasks.POST("", cronOrSession, admin, taskHandler.Execute)
			tasks.POST("/run", cronOrSession, admin, taskHandler.RunDue)
			tasks.POST("/:id/run", cronOrSession, admin, taskHandler.RunOne)
		}

		api.POST("/alerts/process", cronOrSession, admin, alertHandler.Process)

		api.GET("/audit", session, admin, auditHandler.List)
		api.GET("/audit/export", session, admin, auditHandler.Export)
	}

	// Programmatic surface authenticated by API key.
	v1 := r.Group("/api/v1", middleware.APIKey(apiKeyService))
	{
		v1.GET("/documents", documentHandler.List)
		v1.GET("/documents/:id", documentHandler.Get)
		v1.POST("/documents/:id/download", documentHandler.IssueDownload)
		v1.GET("/states", stateHandler.List)
	}

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	if redisClient != nil {
		_ = redisClient.Close()
	}
}
