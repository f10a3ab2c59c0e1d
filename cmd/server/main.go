package main

import (
	"log"
	"net/http"

	_ "github.com/Abhirsi/HawalaSend-backend/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Abhirsi/HawalaSend-backend/internal/auth"
	"github.com/Abhirsi/HawalaSend-backend/internal/cache"
	"github.com/Abhirsi/HawalaSend-backend/internal/config"
	"github.com/Abhirsi/HawalaSend-backend/internal/db"
	"github.com/Abhirsi/HawalaSend-backend/internal/handler"
	appmiddleware "github.com/Abhirsi/HawalaSend-backend/internal/middleware"
	"github.com/Abhirsi/HawalaSend-backend/internal/model"
	"github.com/Abhirsi/HawalaSend-backend/internal/repository"
	"github.com/Abhirsi/HawalaSend-backend/internal/router"
	"github.com/Abhirsi/HawalaSend-backend/internal/service"
)

// @title HawalaSend Auth API
// @version 1.0
// @description User authentication service: registration, login, and JWT session management.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)

	// Initialize auth components; the signing secret and hasher are
	// process-wide and created exactly once.
	hasher := auth.NewHasher(cfg.BcryptCost)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	limiter := auth.NewAttemptLimiter(cacheClient, cfg.LoginMaxFailures, cfg.LoginBlockDuration)

	// Initialize services
	authService := service.NewAuthService(userRepo, hasher, jwtService, limiter, cfg.AccessTokenTTL)

	// Initialize handlers and the session guard
	guard := appmiddleware.NewSessionGuard(
		jwtService,
		authService,
		cfg.AccessTokenTTL,
		cfg.TokenRefreshWindow,
		cfg.RateLimitRPS,
		cfg.RateLimitBurst,
	)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler()

	// Register routes
	router.Register(e, cfg, guard, authHandler, userHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
