package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crew-recruitment-backend/config"
	_ "crew-recruitment-backend/docs" // Important for Swagger
	"crew-recruitment-backend/internal/app"
	"crew-recruitment-backend/internal/delivery/http/middleware"
	v1 "crew-recruitment-backend/internal/delivery/http/v1"
	"crew-recruitment-backend/pkg/auth"
	"crew-recruitment-backend/pkg/logger"
	"crew-recruitment-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           Crew Recruitment Sync API
// @version         1.0
// @description     Candidate self-service, ATS sync triggers and retry queue operations.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	zl := logger.Init(cfg.Env, cfg.Debug)
	defer zl.Sync()
	zl.Info("Starting crew recruitment backend", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	gin.SetMode(cfg.GinMode)

	// 3. Wire database, Redis, ATS and usecases
	ctx := context.Background()
	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialise application", zap.Error(err))
	}
	defer a.Close()
	a.Sync.Start()

	// 4. Setup Auth
	var jwks *auth.KeySet
	if cfg.JWKSURL != "" {
		jwks = auth.NewKeySet(cfg.JWKSURL)
	}
	verifier := auth.NewVerifier(cfg.JWTSecret, jwks)

	// 5. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		CandidateUC:    a.Candidate,
		ApplicationUC:  a.Application,
		HydrationUC:    a.Hydration,
		SyncUC:         a.Sync,
		QueueUC:        a.Queue,
		HealthUC:       a.Health,
		Verifier:       verifier,
		RateLimiter:    middleware.NewRateLimiter(redis.Client(), zl.Named("rate_limit")),
		Logger:         zl,
		AllowedOrigins: cfg.AllowedOrigins,
		Development:    !cfg.IsProduction(),
		CronSecret:     cfg.CronSecret,
		DrainLimit:     cfg.Sync.DrainLimit,
		StaleAfter:     cfg.Sync.StaleAfter,
		EnableSwagger:  cfg.EnableSwagger || !cfg.IsProduction(),
	})

	// 6. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("Listen failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	// Pending background syncs finish or spill to the retry queue.
	if err := a.Sync.Shutdown(shutdownCtx); err != nil {
		zl.Error("Background syncs did not drain", zap.Error(err))
	}

	zl.Info("Server exiting")
}
