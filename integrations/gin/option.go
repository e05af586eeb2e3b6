package authgin

import (
	"github.com/gin-gonic/gin"

	"github.com/relaychat/authorizer/decision"
)

// Option defines a functional option for configuring the middleware
type Option func(*middlewareConfig)

// WithErrorHandler sets a custom error handler for denied requests.
func WithErrorHandler(handler func(*gin.Context, *decision.Decision)) Option {
	return func(config *middlewareConfig) {
		config.errorHandler = handler
	}
}

// WithContextKey sets a custom context key to store claims
func WithContextKey(key string) Option {
	return func(config *middlewareConfig) {
		config.contextKey = key
	}
}
