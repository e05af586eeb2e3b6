package jwks

import (
	"context"
	"errors"
	"fmt"

	"github.com/relaychat/authorizer/validator"
)

// KeySource is the part of KeyCache the Resolver depends on.
type KeySource interface {
	Get(ctx context.Context) (map[string]validator.KeyDescriptor, error)
	Invalidate()
}

// Resolver finds the key a token claims to be signed with.
type Resolver struct {
	source KeySource
	logger Logger
}

// NewResolver builds a Resolver reading keys from source.
func NewResolver(source KeySource, opts ...ResolverOption) (*Resolver, error) {
	if source == nil {
		return nil, errors.New("key source is required")
	}

	r := &Resolver{source: source, logger: nopLogger{}}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return r, nil
}

// ResolveKey returns the descriptor matching the kid in the token header.
// Only the header is decoded; a token without a kid fails before any key
// set lookup. A kid missing from the cached set forces exactly one refresh,
// which picks up keys the provider rotated in since the last fetch.
func (r *Resolver) ResolveKey(ctx context.Context, token string) (validator.KeyDescriptor, error) {
	header, err := validator.ParseHeader(token)
	if err != nil {
		return validator.KeyDescriptor{}, err
	}
	if header.KeyID == "" {
		return validator.KeyDescriptor{}, validator.NewValidationError(
			validator.CodeMalformedToken,
			"token header has no kid",
			nil,
		)
	}

	keys, err := r.source.Get(ctx)
	if err != nil {
		return validator.KeyDescriptor{}, keySetError(err)
	}
	if key, ok := keys[header.KeyID]; ok {
		return key, nil
	}

	r.logger.Debug("kid not in cached key set, refreshing", "kid", header.KeyID)
	r.source.Invalidate()

	keys, err = r.source.Get(ctx)
	if err != nil {
		return validator.KeyDescriptor{}, keySetError(err)
	}
	if key, ok := keys[header.KeyID]; ok {
		return key, nil
	}

	return validator.KeyDescriptor{}, validator.NewValidationError(
		validator.CodeUnknownKey,
		fmt.Sprintf("no key with kid %q in key set", header.KeyID),
		nil,
	)
}

func keySetError(err error) error {
	if validator.CodeOf(err) == validator.CodeKeySetUnavailable {
		return err
	}
	return validator.NewValidationError(validator.CodeKeySetUnavailable, "failed to load key set", err)
}
