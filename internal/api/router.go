package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/clintrack/trial-registry/docs"
	"github.com/clintrack/trial-registry/internal/api/handler"
	"github.com/clintrack/trial-registry/internal/api/middleware"
	"github.com/clintrack/trial-registry/internal/core/domain"
	"github.com/clintrack/trial-registry/internal/core/service"
	mongostore "github.com/clintrack/trial-registry/internal/infrastructure/db/mongo"
	redisstore "github.com/clintrack/trial-registry/internal/infrastructure/db/redis"
	"github.com/clintrack/trial-registry/internal/infrastructure/http/handlers"
	"github.com/clintrack/trial-registry/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, cfg.Development())

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("registry"))

	// --- Dependencies ---
	userRepo := mongostore.NewUserRepository(db)
	trialRepo := mongostore.NewTrialRepository(db)
	auditRepo := mongostore.NewAuditRepository(db)
	sessions := redisstore.NewSessionStore(rdb)

	authService := service.NewAuthService(userRepo, sessions, cfg.JWTSecret, cfg.SessionTTL, log)
	trialService := service.NewTrialService(trialRepo, auditRepo, log)

	authHandler := handler.NewAuthHandler(authService, !cfg.Development())
	trialHandler := handler.NewTrialHandler(trialService)

	authRequired := middleware.Auth(cfg.JWTSecret, sessions, log)
	authOptional := middleware.OptionalAuth(cfg.JWTSecret, sessions, log)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, authRequired)
	auth.GET("/user", authHandler.Me, authRequired)
	auth.GET("/check", authHandler.Check, authOptional)
	auth.PUT("/profile", authHandler.UpdateProfile, authRequired)

	// --- Trial routes (all authenticated; ownership enforced in the service) ---
	trials := e.Group("/api/trials", authRequired)
	trials.POST("", trialHandler.Create)
	trials.GET("", trialHandler.List)
	trials.GET("/:id", trialHandler.Get)
	trials.PUT("/:id", trialHandler.Update)
	trials.DELETE("/:id", trialHandler.Delete)

	// --- Admin routes ---
	admin := e.Group("/api/admin", authRequired, adminOnly)
	admin.GET("/users", authHandler.ListUsers)

	// --- Operational endpoints ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
