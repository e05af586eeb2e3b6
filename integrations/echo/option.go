package authecho

import (
	"github.com/labstack/echo/v4"

	"github.com/relaychat/authorizer/decision"
)

// Option is a function that configures the middleware
type Option func(*middlewareConfig)

// WithErrorHandler sets a custom error handler
func WithErrorHandler(handler func(echo.Context, *decision.Decision) error) Option {
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
