// File: app/app.go
package app

import (
	"context"
	"go-clinic-auth/config"
	"go-clinic-auth/db"
	"go-clinic-auth/handler"
	"go-clinic-auth/logger"
	"go-clinic-auth/repository"
	"go-clinic-auth/router"
	"go-clinic-auth/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database, "file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error applying migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	// --- Wiring All Layers Together ---
	// The signing secret is injected here once; nothing below reads it
	// from the environment.
	codec := service.NewTokenCodec([]byte(config.AppConfig.JWT.SecretKey))

	tokenRepo := repository.NewTokenRepository(database)
	principalRepo := repository.NewPrincipalRepository(database)

	issuer := service.NewTokenIssuer(codec, tokenRepo)
	principalCache := service.NewPrincipalCache(principalRepo, redisClient)
	authService := service.NewAuthService(principalRepo, tokenRepo, issuer, codec, principalCache)

	authHandler := handler.NewAuthHandler(authService, config.AppConfig.Server.SecureCookies)
	guard := handler.NewAuthGuard(codec, principalCache)

	r := router.NewRouter(authHandler, guard)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
