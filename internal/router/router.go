package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-api/internal/handler"
	"github.com/noah-isme/hms-api/internal/middleware"
	"github.com/noah-isme/hms-api/internal/service"
	"github.com/noah-isme/hms-api/pkg/config"
	"github.com/noah-isme/hms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hms-api/pkg/middleware/requestid"
	"github.com/noah-isme/hms-api/pkg/ratelimit"
)

// Deps groups everything the routes are wired to.
type Deps struct {
	Users    *handler.UserHandler
	Feedback *handler.FeedbackHandler
	Ops      *handler.MetricsHandler
	Metrics  *service.MetricsService
	Auth     middleware.Authenticator
	Limiter  *ratelimit.Limiter
}

// Setup builds the gin engine with global middleware and every route.
func Setup(cfg *config.Config, deps Deps, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.Uploads.MaxSheetBytes
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.SecurityHeaders())
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", deps.Ops.Health)
	r.GET("/ready", deps.Ops.Ready)
	r.GET("/metrics", deps.Ops.Prometheus)
	r.Static(cfg.Uploads.PublicPrefix, cfg.Uploads.Dir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := adminGuard(cfg.Security, deps.Auth)
	limited := middleware.RateLimit(deps.Limiter, logr)

	api := r.Group("/api")

	users := api.Group("/userRoutes")
	{
		users.POST("/register", deps.Users.Register)
		users.POST("/set-password", deps.Users.SetPassword)
		users.POST("/login", limited, deps.Users.Login)
		users.POST("/forgot-password", limited, deps.Users.ForgotPassword)
		users.POST("/reset-password", deps.Users.ResetPassword)
		users.GET("/verify-token", deps.Users.VerifyToken)

		users.POST("/bulk-upload", with(admin, deps.Users.BulkUpload)...)
		users.GET("/all", with(admin, deps.Users.List)...)
		users.GET("/:id", with(admin, deps.Users.Get)...)
		users.PUT("/:id", with(admin, deps.Users.Update)...)
		users.DELETE("/:id", with(admin, deps.Users.Delete)...)
	}

	feedback := api.Group("/feedback")
	{
		feedback.POST("/createFeedback", deps.Feedback.Create)
		feedback.GET("/getall", deps.Feedback.List)
		feedback.GET("/export", with(admin, deps.Feedback.Export)...)
		feedback.PUT("/:id/status", with(admin, deps.Feedback.UpdateStatus)...)
		feedback.DELETE("/:id", with(admin, deps.Feedback.Delete)...)
	}

	return r
}

// adminGuard returns the JWT and RBAC chain when admin auth is required.
func adminGuard(cfg config.SecurityConfig, auth middleware.Authenticator) []gin.HandlerFunc {
	if !cfg.RequireAdminAuth || auth == nil {
		return nil
	}
	return []gin.HandlerFunc{middleware.JWT(auth), middleware.RequireAdmin()}
}

func with(chain []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, h)
}
