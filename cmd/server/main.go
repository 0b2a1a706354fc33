// Package main runs the gig scheduling HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gigboard/backend/config"
	"github.com/gigboard/backend/internal/auth"
	"github.com/gigboard/backend/internal/emaillogs"
	"github.com/gigboard/backend/internal/gigs"
	"github.com/gigboard/backend/internal/middleware"
	"github.com/gigboard/backend/internal/notify"
	"github.com/gigboard/backend/internal/organizations"
	"github.com/gigboard/backend/internal/plans"
	"github.com/gigboard/backend/pkg/database"
	"github.com/gigboard/backend/pkg/queue"
	"github.com/gigboard/backend/pkg/redis"
	"github.com/gigboard/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Organizations, sections, memberships
	orgRepo := organizations.NewRepository(pool)
	orgHandler := organizations.NewHandler(orgRepo)

	// Plans
	planRepo := plans.NewRepository(pool)
	planService := plans.NewService(planRepo, logger)
	planHandler := plans.NewHandler(planRepo, planService, orgRepo)

	// Email logs and stats
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo)

	// Gigs with notification fan-out wired behind the save path
	gigRepo := gigs.NewRepository(pool)
	notifyRepo := notify.NewRepository(pool)
	engine := notify.NewEngine(notifyRepo, gigRepo, planRepo, orgRepo, emailLogsRepo, jobQueue,
		cfg.Server.PublicBaseURL, logger)
	gigService := gigs.NewService(gigRepo, planRepo, engine, logger)
	gigHandler := gigs.NewHandler(gigRepo, gigService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: answer a gig from a mailed link, no login required
	router.POST("/answer/:id", planHandler.Answer)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Organizations
		api.GET("/organizations", orgHandler.ListMyOrganizations)
		api.POST("/organizations", orgHandler.CreateOrganization)
		api.POST("/organizations/join", orgHandler.JoinOrganization)
		api.GET("/organizations/:id/members", gigs.RequireOrgAccess(orgRepo), orgHandler.ListMembers)
		api.GET("/organizations/:id/sections", gigs.RequireOrgAccess(orgRepo), orgHandler.ListSections)
		api.POST("/organizations/:id/sections", gigs.RequireOrgAccess(orgRepo), orgHandler.CreateSection)
		api.GET("/organizations/:id/email-stats", gigs.RequireOrgAccess(orgRepo), emailLogsHandler.Stats)

		// Memberships
		api.PUT("/memberships/:id/section", orgHandler.SetDefaultSection)
		api.PATCH("/memberships/:id", orgHandler.UpdateMembership)
		api.POST("/memberships/:id/confirm", orgHandler.ConfirmMembership)

		// Gigs
		api.GET("/organizations/:id/gigs", gigs.RequireOrgAccess(orgRepo), gigHandler.ListByOrganization)
		api.POST("/organizations/:id/gigs", gigs.RequireOrgAccess(orgRepo), gigHandler.Create)
		api.GET("/gigs/:id", gigs.RequireGigOrgAccess(gigRepo, orgRepo), gigHandler.GetByID)
		api.PATCH("/gigs/:id", gigs.RequireGigOrgAccess(gigRepo, orgRepo), gigHandler.Update)
		api.DELETE("/gigs/:id", gigs.RequireGigOrgAccess(gigRepo, orgRepo), gigHandler.Trash)
		api.GET("/gigs/:id/changes", gigs.RequireGigOrgAccess(gigRepo, orgRepo), gigHandler.Changes)
		api.POST("/gigs/:id/watch", gigs.RequireGigOrgAccess(gigRepo, orgRepo), gigHandler.Watch)
		api.DELETE("/gigs/:id/watch", gigs.RequireGigOrgAccess(gigRepo, orgRepo), gigHandler.Unwatch)
		api.GET("/gigs/:id/emails", gigs.RequireGigOrgAccess(gigRepo, orgRepo), emailLogsHandler.ListByGig)

		// Plans (reading the roster creates missing plans)
		api.GET("/gigs/:id/plans", gigs.RequireGigOrgAccess(gigRepo, orgRepo), planHandler.ListByGig)
		api.PUT("/plans/:id/status", planHandler.SetStatus)
		api.PUT("/plans/:id/section", planHandler.SetSection)
		api.PUT("/plans/:id/comment", planHandler.SetComment)
		api.PUT("/plans/:id/feedback", planHandler.SetFeedback)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
