package authecho

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authorizer "github.com/relaychat/authorizer"
	"github.com/relaychat/authorizer/decision"
	"github.com/relaychat/authorizer/internal/tokentest"
	"github.com/relaychat/authorizer/validator"
)

type staticResolver struct {
	key validator.KeyDescriptor
}

func (r staticResolver) ResolveKey(context.Context, string) (validator.KeyDescriptor, error) {
	return r.key, nil
}

func newServer(t *testing.T, signer *tokentest.Signer, opts ...Option) *echo.Echo {
	t.Helper()

	v, err := validator.New(validator.WithIssuer(tokentest.Issuer), validator.WithClientID(tokentest.ClientID))
	require.NoError(t, err)
	a, err := authorizer.New(authorizer.WithKeyResolver(staticResolver{key: signer.Descriptor()}), authorizer.WithTokenVerifier(v))
	require.NoError(t, err)

	e := echo.New()
	e.Use(NewMiddleware(a, opts...))
	e.GET("/ws", func(c echo.Context) error {
		claims, ok := GetClaims(c, DefaultClaimsKey)
		if !ok {
			return c.String(http.StatusInternalServerError, "no claims")
		}
		return c.String(http.StatusOK, claims.Subject)
	})
	return e
}

func TestNewMiddleware(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	e := newServer(t, signer)

	t.Run("allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+signer.Sign(t, tokentest.AccessClaims("user-42")), nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-42", rec.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Token is missing.","reason":"missing_token"}`, rec.Body.String())
	})

	t.Run("expired token", func(t *testing.T) {
		claims := tokentest.AccessClaims("user-42")
		claims["exp"] = int64(1)

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+signer.Sign(t, claims), nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), authorizer.ReasonTokenExpired)
	})
}

func TestWithOptions(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	e := newServer(t, signer,
		WithContextKey("identity"),
		WithErrorHandler(func(c echo.Context, d *decision.Decision) error {
			return c.String(http.StatusTeapot, d.Reason())
		}),
	)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "missing_token", rec.Body.String())

	// The handler reads the default key, which is empty under a custom one.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+signer.Sign(t, tokentest.AccessClaims("user-42")), nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
