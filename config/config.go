// Package config loads the authorizer's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment keys.
const (
	KeyClientID            = "APP_CLIENT_ID"
	KeyCognitoURL          = "COGNITO_URL"
	KeyJWKSTTLSeconds      = "JWKS_TTL_SECONDS"
	KeyJWKSURL             = "JWKS_URL"
	KeyJWKSFetchTimeout    = "JWKS_FETCH_TIMEOUT"
	KeyTokenQueryParam     = "TOKEN_QUERY_PARAM"
	KeyListenAddr          = "LISTEN_ADDR"
	KeyLogLevel            = "LOG_LEVEL"
	KeyRedisAddr           = "REDIS_ADDR"
	KeySignupAllowedSuffix = "SIGNUP_ALLOWED_SUFFIX"
)

// ErrMissingRequired is returned when a required key has no value.
var ErrMissingRequired = errors.New("missing required configuration")

// Config stores all the settings of the authorizer and its server.
type Config struct {
	// ClientID is the app client id access tokens must be issued to.
	ClientID string
	// CognitoURL is the token issuer. The key set is served under it.
	CognitoURL string
	// JWKSURL overrides the key set location derived from CognitoURL.
	JWKSURL string

	JWKSTTL             time.Duration
	JWKSFetchTimeout    time.Duration
	TokenQueryParam     string
	ListenAddr          string
	LogLevel            string
	RedisAddr           string
	SignupAllowedSuffix string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault(KeyJWKSTTLSeconds, 3600)
	v.SetDefault(KeyJWKSFetchTimeout, "5s")
	v.SetDefault(KeyTokenQueryParam, "token")
	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeySignupAllowedSuffix, "@sjsu.edu")

	for _, key := range []string{KeyClientID, KeyCognitoURL} {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequired, key)
		}
	}

	cfg := &Config{
		ClientID:            v.GetString(KeyClientID),
		CognitoURL:          strings.TrimSpace(v.GetString(KeyCognitoURL)),
		JWKSURL:             strings.TrimSpace(v.GetString(KeyJWKSURL)),
		JWKSTTL:             time.Duration(v.GetInt(KeyJWKSTTLSeconds)) * time.Second,
		JWKSFetchTimeout:    v.GetDuration(KeyJWKSFetchTimeout),
		TokenQueryParam:     v.GetString(KeyTokenQueryParam),
		ListenAddr:          v.GetString(KeyListenAddr),
		LogLevel:            strings.ToLower(v.GetString(KeyLogLevel)),
		RedisAddr:           v.GetString(KeyRedisAddr),
		SignupAllowedSuffix: strings.ToLower(v.GetString(KeySignupAllowedSuffix)),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := url.Parse(c.CognitoURL); err != nil {
		return fmt.Errorf("invalid %s: %w", KeyCognitoURL, err)
	}
	if c.JWKSURL != "" {
		if _, err := url.Parse(c.JWKSURL); err != nil {
			return fmt.Errorf("invalid %s: %w", KeyJWKSURL, err)
		}
	}
	if c.JWKSTTL <= 0 {
		return fmt.Errorf("%s must be positive", KeyJWKSTTLSeconds)
	}
	if c.JWKSFetchTimeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyJWKSFetchTimeout)
	}
	if c.TokenQueryParam == "" {
		return fmt.Errorf("%s cannot be empty", KeyTokenQueryParam)
	}
	return nil
}

// IssuerURL returns CognitoURL parsed.
func (c *Config) IssuerURL() *url.URL {
	u, _ := url.Parse(c.CognitoURL)
	return u
}

// KeySetURL returns the JWKS_URL override, or nil when there is none.
func (c *Config) KeySetURL() *url.URL {
	if c.JWKSURL == "" {
		return nil
	}
	u, _ := url.Parse(c.JWKSURL)
	return u
}
