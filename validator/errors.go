package validator

import "errors"

// ErrTokenInvalid is matched by every ValidationError that describes a
// problem with the presented token itself, as opposed to a failure to
// obtain the provider's keys.
var ErrTokenInvalid = errors.New("token invalid")

// ErrorCode classifies why a token could not be turned into Claims.
type ErrorCode string

// Error codes. The string values are part of the deny reason contract and
// must not change.
const (
	CodeMalformedToken      ErrorCode = "malformed_token"
	CodeUnknownKey          ErrorCode = "unknown_key"
	CodeBadSignature        ErrorCode = "bad_signature"
	CodeDisallowedAlgorithm ErrorCode = "disallowed_algorithm"
	CodeMissingClaim        ErrorCode = "missing_claim"
	CodeExpired             ErrorCode = "expired"
	CodeNotYetValid         ErrorCode = "not_yet_valid"
	CodeIssuerMismatch      ErrorCode = "issuer_mismatch"
	CodeWrongTokenUse       ErrorCode = "wrong_token_use"
	CodeClientMismatch      ErrorCode = "client_mismatch"
	CodeKeySetUnavailable   ErrorCode = "key_set_unavailable"
	CodeUnclassified        ErrorCode = "unclassified"
)

// ValidationError wraps a verification failure with its classification.
// Details carries the underlying error for logging only; it never leaves
// the process.
type ValidationError struct {
	Code    ErrorCode
	Message string
	Details error
}

// NewValidationError creates a new ValidationError with the given code and message.
func NewValidationError(code ErrorCode, message string, details error) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is reports whether target is ErrTokenInvalid and the failure is about
// the token rather than about key retrieval.
func (e *ValidationError) Is(target error) bool {
	if target != ErrTokenInvalid {
		return false
	}
	return e.Code != CodeKeySetUnavailable && e.Code != CodeUnclassified
}

// CodeOf returns the classification of err. Errors that are not a
// ValidationError are reported as CodeUnclassified, nil as the empty code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code
	}
	return CodeUnclassified
}
