package core

import "errors"

// Sentinel errors for the evaluation pipeline.
var (
	// ErrTokenMissing is carried by a Missing result.
	ErrTokenMissing = errors.New("token missing")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")
)
