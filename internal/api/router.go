package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "cmsadmin/docs" // Swagger docs

	"cmsadmin/internal/api/envelope"
	"cmsadmin/internal/api/middleware"
	"cmsadmin/internal/auth"
	"cmsadmin/internal/config"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/events"
	"cmsadmin/internal/metrics"
)

// Dependencies is everything the HTTP layer is built from.
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tokens  *auth.AuthService
	Revoker auth.RefreshRevoker
	Limiter auth.LoginLimiter
	// Feed backs /v1/ws; nil leaves the route out.
	Feed events.Subscriber
	// Scanner is optional.
	Scanner VirusScanner

	Users    UserService
	Contents ContentService
	Forms    FormService
	Media    MediaService
	SEOs     SEOService
}

// NewRouter builds the gin engine with the middleware chain, /health, /metrics, /docs and /v1.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Config == nil {
		deps.Config = &config.Config{}
	}
	useJSONFieldNames()

	router := gin.New()
	// escaped canonical URLs such as https%3A%2F%2Fsite%2Fpage stay one path segment
	router.UseRawPath = true
	router.UnescapePathValues = true

	router.Use(
		gin.Recovery(),
		middleware.CorrelationID(),
		middleware.RequestLogger(deps.Logger),
		metrics.GinMiddleware(),
	)
	router.NoRoute(func(c *gin.Context) {
		envelope.Fail(c, errcode.NotFound("route not found"))
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.InternalSecret(deps.Config.API.MetricsSecret), gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	RegisterRoutes(router, deps)
	return router
}
