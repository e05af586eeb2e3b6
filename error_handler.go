package authorizer

import (
	"encoding/json"
	"net/http"

	"github.com/relaychat/authorizer/decision"
)

// ErrorHandler is called by CheckRequest when a request is denied. It
// decides the response. The decision's reason tells a missing token apart
// from a rejected one and from an internal failure. The default handler
// will return a status code of 400 for a missing token, 500 when the token
// could not be judged and 401 for every other reason.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, d *decision.Decision)

type errorBody struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// DefaultErrorHandler is the default error handler implementation for
// CheckRequest. If an error handler is not provided via the
// WithErrorHandler option this will be used.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, d *decision.Decision) {
	status, body := StatusFor(d)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// StatusFor returns the HTTP status and body the default handler sends for
// a Deny. Framework adapters reuse it.
func StatusFor(d *decision.Decision) (int, any) {
	reason := d.Reason()

	switch reason {
	case ReasonMissingToken:
		return http.StatusBadRequest, errorBody{Message: "Token is missing.", Reason: reason}
	case ReasonError:
		return http.StatusInternalServerError, errorBody{Message: "Something went wrong while checking the token.", Reason: reason}
	default:
		return http.StatusUnauthorized, errorBody{Message: "Token is invalid.", Reason: reason}
	}
}
