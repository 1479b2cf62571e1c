package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"iark_app/internal/checkout"
	"iark_app/internal/config"
	"iark_app/internal/handlers"
	authMiddleware "iark_app/internal/middleware"
	"iark_app/internal/services"
	"iark_app/internal/session"
	"iark_app/internal/store"
	"iark_app/internal/tasks"
	"iark_app/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	config.SetupLogger(cfg)
	ctx := context.Background()

	// Initialize Database
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = services.InitDB(cfg.DatabaseURL, cfg.IsProduction())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := services.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
	} else {
		log.Warn("DATABASE_URL not set, database features disabled")
	}
	st := store.New(db)

	// Redis backs the caches, the rate limiter and the checkout mode store
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, caching and rate limiting disabled")
			cache = nil
		}
	}
	defer cache.Close()

	var modes checkout.ModeStore = checkout.NewMemoryModeStore()
	if cache != nil {
		modes = checkout.NewRedisModeStore(cache.Client())
	}

	// Initialize Firebase
	authClient, err := services.InitFirebase(ctx, cfg.Firebase)
	if err != nil {
		log.WithError(err).Warn("Firebase initialization failed, login disabled")
		authClient = nil
	}

	var resolver session.Resolver
	var issuer handlers.SessionIssuer
	if authClient != nil {
		resolver = &services.FirebaseResolver{Verifier: authClient, Profiles: st, Cache: cache}
		issuer = authClient
	}

	donations := &services.DonationService{
		Store:      st,
		Receipts:   &tasks.Scheduler{Store: st},
		AppURL:     cfg.AppURL,
		PendingTTL: time.Duration(cfg.PendingDonationTTLHours) * time.Hour,
	}
	if gateway := services.NewMidtransService(cfg.Midtrans); gateway != nil {
		donations.Gateway = gateway
	} else {
		log.Warn("Midtrans not configured, donations are recorded without a payment session")
	}
	if cfg.Turnstile.Enabled() {
		donations.Verifier = services.NewTurnstileVerifier(cfg.Turnstile)
	}
	if cache != nil && cfg.DonationRateLimitPerMinute > 0 {
		donations.Limiter = services.NewRateLimiter(cache.Client(), "iark:rate_limit", cfg.DonationRateLimitPerMinute, time.Minute)
	}

	var uploader handlers.Uploader
	objectStorage, err := services.NewObjectStorage(ctx, cfg.Storage)
	if err != nil {
		log.WithError(err).Warn("Object storage unavailable, admin uploads disabled")
	} else if objectStorage != nil {
		uploader = objectStorage
	}

	renderer, err := web.NewTemplateRenderer()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("8M"))
	e.Use(authMiddleware.LoadSession(resolver))

	e.StaticFS("/static", web.Static())

	// Initialize handlers
	secure := cfg.IsProduction()
	authHandler := handlers.NewAuthHandler(issuer, cache, cfg.Firebase, secure)
	publicHandler := handlers.NewPublicHandler(st, cache)
	checkoutHandler := handlers.NewCheckoutHandler(st, modes, donations, cfg.Turnstile.Enabled(), cfg.Turnstile.SiteKey, secure)
	donationHandler := handlers.NewDonationHandler(donations)
	dashboardHandler := handlers.NewDashboardHandler(st, cache)
	adminHandler := handlers.NewAdminHandler(st, donations, cache, uploader)

	requireAuth := authMiddleware.RequireAuth()

	// Public routes
	e.GET("/", publicHandler.Home)
	e.GET("/acara", publicHandler.Events)
	e.GET("/acara/:id", publicHandler.EventDetail)
	e.POST("/acara/:id/daftar", publicHandler.RegisterEvent, requireAuth)

	e.GET("/donasi", publicHandler.Campaigns)
	e.GET(checkout.SuccessPath, donationHandler.Success)
	e.GET("/donasi/:slug", checkoutHandler.Show)
	e.POST("/donasi/:slug", checkoutHandler.Submit)
	e.POST("/donasi/:slug/masuk", checkoutHandler.ChooseLogin)
	e.POST("/donasi/:slug/tamu", checkoutHandler.ChooseGuest)
	e.POST("/donasi/:slug/ubah", checkoutHandler.ChangeMode)

	e.GET(checkout.LoginPath, authHandler.LoginPage)
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)

	// API
	e.POST("/api/donations", donationHandler.Create)
	e.GET("/api/donations/:order_id/status", donationHandler.Status)
	e.POST("/api/payments/midtrans/notification", donationHandler.Notification)

	// Protected routes
	protected := e.Group("/dashboard", requireAuth)
	protected.GET("", dashboardHandler.Dashboard)
	protected.POST("/profil", dashboardHandler.UpdateProfile)

	admin := e.Group("/admin", requireAuth, authMiddleware.RequireAdmin())
	adminHandler.Register(admin)

	// Start server
	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
