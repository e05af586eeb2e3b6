package authorizer

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/relaychat/authorizer/core"
	"github.com/relaychat/authorizer/decision"
	"github.com/relaychat/authorizer/validator"
)

// DefaultPrincipal is used when a verified token carries no sub claim.
const DefaultPrincipal = "user"

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core and jwks for consistent logging
// across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Authorizer turns an inbound request into an Allow or Deny decision.
type Authorizer struct {
	core           *core.Core
	tokenExtractor TokenExtractor
	errorHandler   ErrorHandler
	logger         Logger
	metrics        Metrics
	tracer         Tracer

	// Used during construction only.
	resolver core.KeyResolver
	verifier core.TokenVerifier
}

// New constructs an Authorizer.
//
// Example:
//
//	a, err := authorizer.New(
//	    authorizer.WithKeyResolver(resolver),
//	    authorizer.WithTokenVerifier(v),
//	    authorizer.WithLogger(authorizer.NewZapLogger(zapLogger)),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create authorizer: %v", err)
//	}
func New(opts ...Option) (*Authorizer, error) {
	a := &Authorizer{}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("invalid authorizer configuration: %w", err)
	}

	a.applyDefaults()

	if err := a.createCore(); err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}

	return a, nil
}

func (a *Authorizer) validate() error {
	if a.resolver == nil {
		return ErrKeyResolverNil
	}
	if a.verifier == nil {
		return ErrTokenVerifierNil
	}
	return nil
}

func (a *Authorizer) applyDefaults() {
	if a.tokenExtractor == nil {
		a.tokenExtractor = QueryParameterTokenExtractor(DefaultTokenParameter)
	}
	if a.errorHandler == nil {
		a.errorHandler = DefaultErrorHandler
	}
	if a.logger == nil {
		a.logger = nopLogger{}
	}
	if a.metrics == nil {
		a.metrics = &NoopMetrics{}
	}
	if a.tracer == nil {
		a.tracer = &NoopTracer{}
	}
}

func (a *Authorizer) createCore() error {
	c, err := core.New(
		core.WithKeyResolver(a.resolver),
		core.WithTokenVerifier(a.verifier),
		core.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.core = c
	return nil
}

// Authorize evaluates req and always returns a decision. Failures of any
// kind, panics included, end in a Deny carrying one of the fixed reason
// strings; error text never reaches the decision.
func (a *Authorizer) Authorize(ctx context.Context, req *Request) *decision.Decision {
	d, _ := a.AuthorizeClaims(ctx, req)
	return d
}

// AuthorizeClaims is Authorize for adapters that hand the verified claims
// on to their handlers. The claims are nil unless the decision is Allow.
func (a *Authorizer) AuthorizeClaims(ctx context.Context, req *Request) (result *decision.Decision, claims *validator.Claims) {
	if req == nil {
		req = &Request{}
	}
	resource := req.Resource()

	var span Span = &NoopSpan{}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic during authorization", "panic", r, "stack", string(debug.Stack()))
			span.RecordError(fmt.Errorf("panic: %v", r))
			result, claims = decision.Deny(resource, ReasonError), nil
		}
		a.observe(span, result, time.Since(start))
	}()

	ctx, span = a.tracer.StartSpan(ctx, "authorizer.Authorize")

	token, err := a.tokenExtractor(req)
	if err != nil {
		a.logger.Warn("failed to extract token from request", "error", err, "resource", resource)
		return decision.Deny(resource, ReasonMalformedToken), nil
	}

	evaluation := a.core.Evaluate(ctx, token)
	if evaluation.Outcome != core.Valid {
		if evaluation.Outcome == core.Failed {
			span.RecordError(evaluation.Err)
		}
		return decision.Deny(resource, ReasonFor(evaluation)), nil
	}

	claims = evaluation.Claims
	principal := claims.Subject
	if principal == "" {
		principal = DefaultPrincipal
	}

	return decision.Allow(principal, resource, map[string]any{
		"scope":     claims.Scope,
		"username":  claims.Username,
		"client_id": claims.ClientID,
		"token_use": claims.TokenUse,
		"exp":       claims.ExpiresAt.Unix(),
	}), claims
}

func (a *Authorizer) observe(span Span, d *decision.Decision, elapsed time.Duration) {
	effect := string(d.Effect)
	reason := d.Reason()

	span.SetTag("authorizer.effect", effect)
	if reason != "" {
		span.SetTag("authorizer.reason", reason)
	}
	span.Finish()

	a.metrics.IncCounter(MetricDecisions, map[string]string{"effect": effect, "reason": reason})
	a.metrics.ObserveHistogram(MetricAuthorizeDuration, elapsed.Seconds(), map[string]string{"effect": effect})

	a.logger.Debug("authorization decided",
		"effect", effect,
		"reason", reason,
		"principal", d.PrincipalID,
		"duration", elapsed)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
