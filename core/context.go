package core

import (
	"context"

	"github.com/relaychat/authorizer/validator"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	claimsKey contextKey = iota
)

// SetClaims stores verified claims in the context. Adapters call it after
// an Allow decision so handlers can see who the caller is.
func SetClaims(ctx context.Context, claims *validator.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims retrieves the claims stored by SetClaims.
//
//	claims, err := core.GetClaims(ctx)
//	if err != nil {
//	    return err
//	}
func GetClaims(ctx context.Context) (*validator.Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*validator.Claims)
	if !ok || claims == nil {
		return nil, ErrClaimsNotFound
	}
	return claims, nil
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	_, err := GetClaims(ctx)
	return err == nil
}
