// Package authecho adapts an authorizer.Authorizer to Echo.
package authecho

import (
	"github.com/labstack/echo/v4"

	authorizer "github.com/relaychat/authorizer"
	"github.com/relaychat/authorizer/core"
	"github.com/relaychat/authorizer/decision"
	"github.com/relaychat/authorizer/validator"
)

// DefaultClaimsKey is the echo.Context key the verified claims are stored under.
var DefaultClaimsKey = "claims"

// middlewareConfig holds all configuration for the middleware
type middlewareConfig struct {
	errorHandler func(echo.Context, *decision.Decision) error
	contextKey   string
}

// NewMiddleware authorizes every request with a before calling next.
func NewMiddleware(a *authorizer.Authorizer, opts ...Option) echo.MiddlewareFunc {
	config := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultClaimsKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			d, claims := a.AuthorizeClaims(r.Context(), authorizer.FromHTTPRequest(r))
			if !d.Allowed() {
				return config.errorHandler(c, d)
			}

			c.SetRequest(r.WithContext(core.SetClaims(r.Context(), claims)))
			c.Set(config.contextKey, claims)
			return next(c)
		}
	}
}

func defaultErrorHandler(c echo.Context, d *decision.Decision) error {
	status, body := authorizer.StatusFor(d)
	return c.JSON(status, body)
}

// GetClaims extracts the verified claims from the Echo context
func GetClaims(c echo.Context, contextKey string) (*validator.Claims, bool) {
	claims := c.Get(contextKey)
	if claims == nil {
		return nil, false
	}

	verified, ok := claims.(*validator.Claims)
	return verified, ok
}
