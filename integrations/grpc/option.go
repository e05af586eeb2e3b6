package grpc

import (
	"errors"

	authorizer "github.com/relaychat/authorizer"
)

// Option configures the interceptor.
type Option func(*Interceptor) error

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by the authorizer for consistent logging
// across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// WithAuthorizer sets the Authorizer that decides every call (REQUIRED).
func WithAuthorizer(a *authorizer.Authorizer) Option {
	return func(i *Interceptor) error {
		if a == nil {
			return errors.New("authorizer cannot be nil")
		}
		i.authorizer = a
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor.
func WithLogger(logger Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// WithRequestExtractor sets a custom request extractor.
// Default is MetadataRequestExtractor.
func WithRequestExtractor(extractor RequestExtractor) Option {
	return func(i *Interceptor) error {
		if extractor == nil {
			return errors.New("request extractor cannot be nil")
		}
		i.requestExtractor = extractor
		return nil
	}
}

// WithErrorHandler sets a custom error handler function.
// Default is DefaultErrorHandler which maps deny reasons to gRPC status codes.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *Interceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods excludes specific gRPC methods from authorization.
// Methods should be provided in the format: "/package.Service/Method"
// Example: "/grpc.health.v1.Health/Check"
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = true
		}
		return nil
	}
}
