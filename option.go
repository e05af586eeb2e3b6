package authorizer

import (
	"errors"

	"github.com/relaychat/authorizer/core"
)

// Option configures the Authorizer.
// Returns error for validation failures.
type Option func(*Authorizer) error

// WithKeyResolver sets the component that finds the key a token was
// signed with (REQUIRED). *jwks.Resolver satisfies it.
func WithKeyResolver(r core.KeyResolver) Option {
	return func(a *Authorizer) error {
		if r == nil {
			return ErrKeyResolverNil
		}
		a.resolver = r
		return nil
	}
}

// WithTokenVerifier sets the component that checks signature and claims
// (REQUIRED). *validator.Validator satisfies it.
//
// Example:
//
//	v, err := validator.New(
//	    validator.WithIssuer(cognitoURL),
//	    validator.WithClientID(appClientID),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	a, err := authorizer.New(
//	    authorizer.WithKeyResolver(resolver),
//	    authorizer.WithTokenVerifier(v),
//	)
func WithTokenVerifier(v core.TokenVerifier) Option {
	return func(a *Authorizer) error {
		if v == nil {
			return ErrTokenVerifierNil
		}
		a.verifier = v
		return nil
	}
}

// WithTokenExtractor sets the function to extract the token from the request.
//
// Default: QueryParameterTokenExtractor(DefaultTokenParameter)
func WithTokenExtractor(e TokenExtractor) Option {
	return func(a *Authorizer) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		a.tokenExtractor = e
		return nil
	}
}

// WithErrorHandler sets the handler CheckRequest calls when a request is
// denied. See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *Authorizer) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		a.errorHandler = h
		return nil
	}
}

// WithLogger sets an optional logger for the authorizer.
// The logger will be used throughout the evaluation flow in both the
// authorizer and core.
//
// The logger interface is compatible with log/slog.Logger and with the
// adapters returned by NewZapLogger, NewLogrusLogger and NewZerologLogger.
func WithLogger(logger Logger) Option {
	return func(a *Authorizer) error {
		if logger == nil {
			return ErrLoggerNil
		}
		a.logger = logger
		return nil
	}
}

// WithMetrics sets where decision counts and latencies are recorded.
//
// Default: NoopMetrics
func WithMetrics(m Metrics) Option {
	return func(a *Authorizer) error {
		if m == nil {
			return ErrMetricsNil
		}
		a.metrics = m
		return nil
	}
}

// WithTracer sets the tracer used to wrap each authorization in a span.
//
// Default: NoopTracer
func WithTracer(t Tracer) Option {
	return func(a *Authorizer) error {
		if t == nil {
			return ErrTracerNil
		}
		a.tracer = t
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrKeyResolverNil    = errors.New("key resolver cannot be nil (use WithKeyResolver)")
	ErrTokenVerifierNil  = errors.New("token verifier cannot be nil (use WithTokenVerifier)")
	ErrTokenExtractorNil = errors.New("tokenExtractor cannot be nil")
	ErrErrorHandlerNil   = errors.New("errorHandler cannot be nil")
	ErrLoggerNil         = errors.New("logger cannot be nil")
	ErrMetricsNil        = errors.New("metrics cannot be nil")
	ErrTracerNil         = errors.New("tracer cannot be nil")
)
