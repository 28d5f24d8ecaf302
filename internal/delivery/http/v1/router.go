package v1

import (
	"net/http"
	"time"

	"crew-recruitment-backend/internal/delivery/http/middleware"
	"crew-recruitment-backend/internal/delivery/http/response"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/usecase"
	"crew-recruitment-backend/pkg/auth"
	"crew-recruitment-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type RouterDeps struct {
	CandidateUC   domain.CandidateUsecase
	ApplicationUC domain.ApplicationUsecase
	HydrationUC   domain.HydrationUsecase
	SyncUC        domain.SyncUsecase
	QueueUC       domain.RetryQueueUsecase
	HealthUC      usecase.HealthUsecase
	Verifier      *auth.Verifier
	RateLimiter   *middleware.RateLimiter
	Logger        *zap.Logger

	AllowedOrigins []string
	Development    bool
	CronSecret     string
	DrainLimit     int
	StaleAfter     time.Duration
	EnableSwagger  bool
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterValidators(v)
	}

	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.AllowedOrigins, deps.Development)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler(deps.Logger))

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		if deps.HealthUC == nil {
			response.Success(c, http.StatusOK, "System operational", nil)
			return
		}
		status, healthy := deps.HealthUC.Check(c.Request.Context())
		if !healthy {
			response.Error(c, http.StatusServiceUnavailable, "System degraded", status)
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})

	if deps.EnableSwagger {
		v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Scheduler routes
	cron := v1.Group("/cron")
	cron.Use(middleware.CronAuth(deps.CronSecret))
	NewCronHandler(cron, deps.QueueUC, deps.DrainLimit, deps.StaleAfter)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Verifier, deps.Logger))
	{
		NewCandidateHandler(protected, deps.CandidateUC, deps.HydrationUC,
			deps.RateLimiter.Middleware(middleware.HydrateRateLimitConfig()))
		NewApplicationHandler(protected, deps.ApplicationUC)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(middleware.RoleAdmin))
	{
		NewSyncHandler(admin.Group("", deps.RateLimiter.Middleware(middleware.AdminSyncRateLimitConfig())), deps.SyncUC)
		NewSyncQueueHandler(admin, deps.QueueUC)
	}

	return r
}
