package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcastillo/reqtx"
	"github.com/mcastillo/reqtx/internal/domain"
	"github.com/mcastillo/reqtx/internal/infrastructure/auth"
	"github.com/mcastillo/reqtx/internal/infrastructure/cache"
	"github.com/mcastillo/reqtx/internal/infrastructure/database"
	"github.com/mcastillo/reqtx/internal/infrastructure/logging"
	"github.com/mcastillo/reqtx/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for route registration.
type RouterConfig struct {
	Bridge       *reqtx.Bridge
	ArticleRepo  domain.ArticleRepository
	AuthorRepo   domain.AuthorRepository
	Cache        *cache.RedisClient
	DB           *database.Connection
	JWTValidator *auth.JWTValidator
	Logger       *logging.Logger
	Metrics      *metrics.Metrics
}

// RegisterRoutes sets up all API routes on the server.
// follows RESTful conventions and groups routes logically.
func RegisterRoutes(e *echo.Echo, config RouterConfig) {
	// prometheus metrics endpoint (no auth, standard scraping path)
	if config.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
			config.Metrics.Registry,
			promhttp.HandlerOpts{
				Registry:          config.Metrics.Registry,
				EnableOpenMetrics: true,
			},
		)))

		// apply metrics middleware to all routes
		e.Use(metrics.Middleware(config.Metrics))
	}

	// health endpoints (no auth required)
	RegisterHealthRoutes(e, config.DB)

	// api v1 group with auth
	v1 := e.Group("/api/v1")

	// reads and anonymous commenting stay public; everything else needs a token
	public := PublicRoutesSkipper("/api/v1/articles/:id/comments")
	v1.Use(AuthMiddleware(AuthConfig{
		JWTValidator: config.JWTValidator,
		Skipper: func(c echo.Context) bool {
			return c.Request().Method == http.MethodGet || public(c)
		},
	}))

	// error-channel binding: observe every failed request, including errors
	// forwarded after a rollback, before the global error handler responds
	v1.Use(config.Bridge.WrapError(errorAudit(config.Logger), reqtx.Options{
		Signature: reqtx.Signature{Leading: 4},
	}))

	// safety net for routes that open a transaction outside the wrapper
	v1.Use(config.Bridge.RollbackOnError())

	// register domain handlers
	articleHandler := NewArticleHandler(config.Bridge, config.ArticleRepo, config.Cache, config.Logger)
	articleHandler.RegisterRoutes(v1)

	authorHandler := NewAuthorHandler(config.Bridge, config.AuthorRepo)
	authorHandler.RegisterRoutes(v1)

	cacheEnabled := config.Cache != nil
	metricsEnabled := config.Metrics != nil
	config.Logger.Info("api routes registered",
		"version", "v1",
		"health_endpoints", []string{"/health", "/ready"},
		"metrics_enabled", metricsEnabled,
		"cache_enabled", cacheEnabled,
		"api_prefix", "/api/v1",
	)
}

// errorAudit is the error-channel handler bound at the group level: it logs
// the failure with request identity and forwards the error unchanged.
func errorAudit(logger *logging.Logger) reqtx.ErrorHandlerFunc {
	l := logger.WithComponent("request_audit")

	return func(err error, c echo.Context, args reqtx.Args) error {
		l.Warn("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err.Error(),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return err
	}
}
