// Package signup restricts self-service registration to one email domain.
//
// Gate.Evaluate is a pre sign-up hook: it receives the registration event
// from the identity provider and either rejects it or returns it with the
// user marked as confirmed and verified.
package signup

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultAllowedSuffix is the email suffix accepted when none is configured.
const DefaultAllowedSuffix = "@sjsu.edu"

var (
	ErrEmailRequired   = errors.New("email required")
	ErrEmailNotAllowed = errors.New("email address is not allowed to register")
)

// Event is a pre sign-up trigger event. Unknown fields of the provider's
// event are not preserved.
type Event struct {
	Version       string   `json:"version,omitempty"`
	TriggerSource string   `json:"triggerSource,omitempty"`
	Region        string   `json:"region,omitempty"`
	UserPoolID    string   `json:"userPoolId,omitempty"`
	UserName      string   `json:"userName,omitempty"`
	Request       Request  `json:"request"`
	Response      Response `json:"response"`
}

type Request struct {
	UserAttributes map[string]string `json:"userAttributes"`
}

type Response struct {
	AutoConfirmUser bool `json:"autoConfirmUser"`
	AutoVerifyEmail bool `json:"autoVerifyEmail"`
	AutoVerifyPhone bool `json:"autoVerifyPhone"`
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Gate accepts registrations whose email ends with the allowed suffix.
type Gate struct {
	allowedSuffix string
	logger        Logger
}

// Option configures a Gate.
type Option func(*Gate) error

// WithAllowedSuffix sets the accepted email suffix. Matching ignores case.
func WithAllowedSuffix(suffix string) Option {
	return func(g *Gate) error {
		if suffix == "" {
			return errors.New("allowed suffix cannot be empty")
		}
		g.allowedSuffix = strings.ToLower(suffix)
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger Logger) Option {
	return func(g *Gate) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		g.logger = logger
		return nil
	}
}

// NewGate returns a Gate. Without options it accepts DefaultAllowedSuffix.
func NewGate(opts ...Option) (*Gate, error) {
	g := &Gate{
		allowedSuffix: DefaultAllowedSuffix,
		logger:        nopLogger{},
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return g, nil
}

// Evaluate rejects the event unless its email attribute ends with the
// allowed suffix. An accepted event is returned with AutoConfirmUser and
// AutoVerifyEmail set; the input is not modified.
func (g *Gate) Evaluate(event *Event) (*Event, error) {
	if event == nil {
		return nil, ErrEmailRequired
	}

	email := strings.ToLower(event.Request.UserAttributes["email"])
	if email == "" {
		g.logger.Info("sign-up rejected", "reason", "no email", "user", event.UserName)
		return nil, ErrEmailRequired
	}
	if !strings.HasSuffix(email, g.allowedSuffix) {
		g.logger.Info("sign-up rejected", "reason", "domain", "user", event.UserName)
		return nil, fmt.Errorf("%w: only %s addresses may register", ErrEmailNotAllowed, g.allowedSuffix)
	}

	accepted := *event
	accepted.Response.AutoConfirmUser = true
	accepted.Response.AutoVerifyEmail = true

	g.logger.Debug("sign-up accepted", "user", event.UserName)
	return &accepted, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
