package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mcastillo/reqtx/internal/infrastructure/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsContextKey is the context key for the authenticated caller's claims.
	ClaimsContextKey contextKey = "auth_claims"
)

// AuthConfig holds authentication middleware configuration.
type AuthConfig struct {
	// JWTValidator validates bearer tokens from the Authorization header.
	JWTValidator *auth.JWTValidator

	// Skipper defines a function to skip auth for certain routes.
	Skipper func(c echo.Context) bool
}

// AuthMiddleware validates the Authorization bearer token and stores the
// claims in context for downstream handlers. returns 401 when the token is
// missing or invalid.
func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// check if we should skip auth for this route
			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			token := auth.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			claims, err := config.JWTValidator.ValidateToken(token)
			if err != nil {
				if errors.Is(err, auth.ErrMissingToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization token")
			}

			// store in context for downstream handlers
			c.Set(string(ClaimsContextKey), claims)

			return next(c)
		}
	}
}

// RequireWriter rejects callers whose role does not permit content writes.
// must run after AuthMiddleware.
func RequireWriter() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !claims.CanWrite() {
				return echo.NewHTTPError(http.StatusForbidden, "write access required")
			}
			return next(c)
		}
	}
}

// ClaimsFrom retrieves the authenticated caller's claims from context.
// returns nil if not authenticated.
func ClaimsFrom(c echo.Context) *auth.Claims {
	if val := c.Get(string(ClaimsContextKey)); val != nil {
		if claims, ok := val.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// PublicRoutesSkipper returns a skipper function that skips auth for public routes.
func PublicRoutesSkipper(publicPaths ...string) func(echo.Context) bool {
	pathSet := make(map[string]bool)
	for _, p := range publicPaths {
		pathSet[p] = true
	}

	return func(c echo.Context) bool {
		return pathSet[c.Path()]
	}
}
