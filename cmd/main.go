package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"card-service/internal/handler"
	"card-service/internal/middleware"
	"card-service/internal/model"
	"card-service/internal/ratelimit"
	"card-service/internal/upload"
	"card-service/pkg/config"
	"card-service/pkg/database"
	"card-service/pkg/jwtutil"
	"card-service/pkg/logger"
	"card-service/prometheus"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.InitLogger(cfg); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting card service", cfg.LogConfig()...)

	// Connect to the database and migrate the schema
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.Company{},
		&model.User{},
		&model.EmployeeCard{},
		&model.CompanyService{},
		&model.NfcTag{},
		&model.AnalyticsEvent{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	jwtutil.Initialize(&cfg.JWT)

	// Rate limit store: redis when configured so the lockout holds across
	// replicas, in-process otherwise
	var store ratelimit.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		store = ratelimit.NewRedisStore(client)
		log.Info("Rate limiting backed by redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		memStore := ratelimit.NewMemoryStore(nil, cfg.RateLimit.SweepInterval)
		defer memStore.Stop()
		store = memStore
		log.Info("Rate limiting in-process")
	}
	limiter := ratelimit.New(store, &cfg.RateLimit)

	photos, err := upload.NewDiskStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize photo storage", zap.Error(err))
	}

	handler.Init(cfg, photos, limiter)

	// Keep the active cards gauge fresh
	go trackActiveCards(log)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Locale resolution runs before routing so redirects fire for any path
	e.Pre(middleware.LocaleMiddleware)

	registerRoutes(e, cfg, limiter)

	// Start server in a goroutine so shutdown can drain in-flight requests
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			log.Info("Server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}

func registerRoutes(e *echo.Echo, cfg *config.Config, limiter *ratelimit.Limiter) {
	// Service routes
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Stored photos and static assets
	e.Static("/uploads", cfg.Upload.Dir)

	// Authentication: login carries its own per-identifier limit inside the
	// handler, on top of nothing else; register shares the auth class by IP
	auth := e.Group("/auth")
	auth.POST("/register", handler.Register, middleware.RateLimitMiddleware(limiter, ratelimit.ClassAuth))
	auth.POST("/login", handler.Login)
	auth.POST("/logout", handler.Logout)

	// Authenticated dashboard API
	api := e.Group("/api",
		middleware.AuthMiddleware(cfg.JWT.CookieName),
		middleware.RateLimitMiddleware(limiter, ratelimit.ClassAPI),
	)
	api.GET("/profile", handler.GetProfile)
	api.POST("/auth/reverify", handler.ReverifyPassword)

	api.POST("/employees", handler.CreateEmployee)
	api.GET("/employees", handler.ListEmployees)
	api.GET("/employees/:id", handler.GetEmployee)
	api.PUT("/employees/:id", handler.UpdateEmployee)
	api.DELETE("/employees/:id", handler.DeleteEmployee)
	api.POST("/employees/:id/toggle", handler.ToggleEmployeeStatus)

	api.GET("/companies", handler.ListCompanies)
	api.POST("/companies", handler.CreateCompany)
	api.POST("/companies/assign", handler.AssignUserToCompany)
	api.GET("/companies/:id", handler.GetCompany)
	api.PUT("/companies/:id", handler.UpdateCompany)
	api.GET("/companies/:id/analytics", handler.CompanyAnalytics)

	api.GET("/companies/:id/services", handler.ListCompanyServices)
	api.POST("/companies/:id/services", handler.CreateCompanyService)
	api.PUT("/companies/:id/services/:service_id", handler.UpdateCompanyService)
	api.DELETE("/companies/:id/services/:service_id", handler.DeleteCompanyService)
	api.POST("/companies/:id/services/reorder", handler.ReorderCompanyServices)

	api.POST("/nfc-tags", handler.RegisterNfcTag)
	api.GET("/nfc-tags", handler.ListNfcTags)
	api.POST("/nfc-tags/:tag_id/deactivate", handler.DeactivateNfcTag)

	// NFC tag resolution, outside the locale tree
	e.GET("/t/:uid", handler.NfcResolve)

	// Localized pages. The role lookup hits the store so a role change takes
	// effect without reissuing the session.
	userLookup := func(ctx context.Context, userID string) (string, *string, error) {
		var user model.User
		result := database.GetDB().WithContext(ctx).
			Select("role", "company_id").
			First(&user, "id = ?", userID)
		if result.Error != nil {
			return "", nil, result.Error
		}
		return user.Role, user.CompanyID, nil
	}

	pages := e.Group("/:locale")
	pages.GET("/home", handler.Home)
	pages.GET("/signin", handler.Signin)
	pages.GET("/signup", handler.Signup)
	pages.GET("/card/:slug", handler.PublicCard)
	pages.GET("/card/:slug/manifest.json", handler.CardManifest)
	pages.GET("/card/:slug/vcard", handler.CardVCard)

	dashboards := pages.Group("/dashboard", middleware.RoleGate(cfg.JWT.CookieName, userLookup))
	dashboards.GET("/admin", handler.Dashboard)
	dashboards.GET("/company", handler.Dashboard)
	dashboards.GET("/employee", handler.Dashboard)
}

// trackActiveCards refreshes the active cards gauge once a minute
func trackActiveCards(log *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		var count int64
		if err := database.GetDB().Model(&model.EmployeeCard{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
			log.Warn("Failed to count active cards", zap.Error(err))
			continue
		}
		prometheus.ActiveCardsGauge.Set(float64(count))
	}
}
