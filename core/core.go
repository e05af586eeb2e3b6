package core

import (
	"context"
	"errors"
	"time"

	"github.com/relaychat/authorizer/validator"
)

// KeyResolver finds the key descriptor a token was signed with.
type KeyResolver interface {
	ResolveKey(ctx context.Context, token string) (validator.KeyDescriptor, error)
}

// TokenVerifier checks a token against a resolved key.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, token string, key validator.KeyDescriptor) (*validator.Claims, error)
}

// Logger defines an optional logging interface for the core pipeline.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Outcome tags a Result.
type Outcome int

const (
	// Valid means the token verified and Result.Claims is set.
	Valid Outcome = iota
	// Missing means no token was presented.
	Missing
	// Rejected means the token itself is bad. Result.Code says why.
	Rejected
	// Failed means the token could not be judged, for example because
	// the key set was unavailable.
	Failed
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Missing:
		return "missing"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is what Evaluate produces: verified claims or exactly one
// classified failure.
type Result struct {
	Outcome Outcome
	Claims  *validator.Claims
	Code    validator.ErrorCode
	Err     error
}

// Core runs a token through key resolution and verification.
type Core struct {
	resolver KeyResolver
	verifier TokenVerifier
	logger   Logger
}

// Evaluate resolves the token's key and verifies the token with it. It
// never returns an error; failures are carried by the Result.
func (c *Core) Evaluate(ctx context.Context, token string) Result {
	if token == "" {
		c.logger.Debug("No token provided")
		return Result{Outcome: Missing, Err: ErrTokenMissing}
	}

	start := time.Now()

	key, err := c.resolver.ResolveKey(ctx, token)
	if err != nil {
		return c.failure(err, time.Since(start))
	}

	claims, err := c.verifier.ValidateToken(ctx, token, key)
	if err != nil {
		return c.failure(err, time.Since(start))
	}
	if claims == nil {
		return c.failure(errors.New("verifier returned no claims"), time.Since(start))
	}

	c.logger.Debug("Token validated successfully", "kid", key.KeyID, "duration", time.Since(start))
	return Result{Outcome: Valid, Claims: claims}
}

func (c *Core) failure(err error, duration time.Duration) Result {
	code := validator.CodeOf(err)

	if errors.Is(err, validator.ErrTokenInvalid) {
		c.logger.Warn("Token rejected", "code", code, "error", err, "duration", duration)
		return Result{Outcome: Rejected, Code: code, Err: err}
	}

	c.logger.Error("Token evaluation failed", "code", code, "error", err, "duration", duration)
	return Result{Outcome: Failed, Code: code, Err: err}
}
