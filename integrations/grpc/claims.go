package grpc

import (
	"context"

	"github.com/relaychat/authorizer/core"
	"github.com/relaychat/authorizer/validator"
)

// GetClaims retrieves the verified claims the interceptor stored in the
// context.
//
// Example:
//
//	claims, err := authgrpc.GetClaims(ctx)
//	if err != nil {
//	    return nil, status.Error(codes.Internal, "failed to get claims")
//	}
//	fmt.Println(claims.Subject)
func GetClaims(ctx context.Context) (*validator.Claims, error) {
	return core.GetClaims(ctx)
}

// MustGetClaims retrieves claims from the context or panics.
// Use only when you are certain claims exist (e.g., after interceptor has run).
func MustGetClaims(ctx context.Context) *validator.Claims {
	claims, err := core.GetClaims(ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}
