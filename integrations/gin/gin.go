// Package authgin adapts an authorizer.Authorizer to Gin.
package authgin

import (
	"errors"

	"github.com/gin-gonic/gin"

	authorizer "github.com/relaychat/authorizer"
	"github.com/relaychat/authorizer/core"
	"github.com/relaychat/authorizer/decision"
	"github.com/relaychat/authorizer/validator"
)

// DefaultClaimsKey is the gin.Context key the verified claims are stored under.
const DefaultClaimsKey = "claims"

var (
	ErrMissingClaims = errors.New("no claims found in context")
	ErrInvalidClaims = errors.New("invalid claims type")
)

type middlewareConfig struct {
	errorHandler func(*gin.Context, *decision.Decision)
	contextKey   string
}

// NewMiddleware creates a Gin middleware that authorizes every request
// with a. Allowed requests continue with the claims set under the context
// key and in the request context. Denied requests are aborted through the
// error handler.
func NewMiddleware(a *authorizer.Authorizer, opts ...Option) gin.HandlerFunc {
	config := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultClaimsKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(c *gin.Context) {
		d, claims := a.AuthorizeClaims(c.Request.Context(), authorizer.FromHTTPRequest(c.Request))
		if !d.Allowed() {
			config.errorHandler(c, d)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(core.SetClaims(c.Request.Context(), claims))
		c.Set(config.contextKey, claims)
		c.Next()
	}
}

func defaultErrorHandler(c *gin.Context, d *decision.Decision) {
	status, body := authorizer.StatusFor(d)
	c.AbortWithStatusJSON(status, body)
}

// GetClaims returns the claims stored by the middleware. An empty
// contextKey means DefaultClaimsKey.
func GetClaims(c *gin.Context, contextKey string) (*validator.Claims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	verified, ok := claims.(*validator.Claims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return verified, nil
}
