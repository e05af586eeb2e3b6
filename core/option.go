package core

import "errors"

// Option is a function that configures the Core.
// Options return errors to enable validation during construction.
type Option func(*Core) error

// New creates a new Core instance with the provided options.
//
// Both WithKeyResolver and WithTokenVerifier are required.
//
// Example:
//
//	c, err := core.New(
//	    core.WithKeyResolver(resolver),
//	    core.WithTokenVerifier(v),
//	    core.WithLogger(slog.Default()),
//	)
func New(opts ...Option) (*Core, error) {
	c := &Core{logger: nopLogger{}}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Core) validate() error {
	if c.resolver == nil {
		return errors.New("key resolver is required but not set (use WithKeyResolver option)")
	}
	if c.verifier == nil {
		return errors.New("token verifier is required but not set (use WithTokenVerifier option)")
	}
	return nil
}

// WithKeyResolver sets the component that maps a token to its key.
func WithKeyResolver(resolver KeyResolver) Option {
	return func(c *Core) error {
		if resolver == nil {
			return errors.New("key resolver cannot be nil")
		}
		c.resolver = resolver
		return nil
	}
}

// WithTokenVerifier sets the component that checks signature and claims.
func WithTokenVerifier(verifier TokenVerifier) Option {
	return func(c *Core) error {
		if verifier == nil {
			return errors.New("token verifier cannot be nil")
		}
		c.verifier = verifier
		return nil
	}
}

// WithLogger sets an optional logger for the Core.
//
// Rejected tokens are logged at warn level with their classification and
// the underlying error, infrastructure failures at error level.
func WithLogger(logger Logger) Option {
	return func(c *Core) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
