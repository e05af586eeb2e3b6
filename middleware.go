package authorizer

import (
	"context"
	"net/http"

	"github.com/relaychat/authorizer/core"
	"github.com/relaychat/authorizer/validator"
)

// CheckRequest is net/http middleware. next is called only when the
// request is allowed, with the verified claims stored in the request
// context (see GetClaims). Denied requests go to the ErrorHandler.
func (a *Authorizer) CheckRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, claims := a.AuthorizeClaims(r.Context(), FromHTTPRequest(r))
		if !d.Allowed() {
			a.logger.Debug("request denied",
				"method", r.Method,
				"path", r.URL.Path,
				"reason", d.Reason())
			a.errorHandler(w, r, d)
			return
		}

		r = r.Clone(core.SetClaims(r.Context(), claims))
		next.ServeHTTP(w, r)
	})
}

// GetClaims retrieves the claims CheckRequest stored in the context.
//
// Example:
//
//	claims, err := authorizer.GetClaims(r.Context())
//	if err != nil {
//	    http.Error(w, "failed to get claims", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(claims.Subject)
func GetClaims(ctx context.Context) (*validator.Claims, error) {
	return core.GetClaims(ctx)
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}
