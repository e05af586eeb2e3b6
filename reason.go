package authorizer

import (
	"github.com/relaychat/authorizer/core"
	"github.com/relaychat/authorizer/validator"
)

// Deny reasons. These are the only strings that ever appear under the
// reason key of a decision.
const (
	ReasonMissingToken = "missing_token"
	ReasonTokenExpired = "token_expired"
	ReasonError        = "error"

	// ReasonMalformedToken is used when the token could not be extracted.
	ReasonMalformedToken = invalidTokenPrefix + string(validator.CodeMalformedToken)

	invalidTokenPrefix = "invalid_token: "
)

// InvalidTokenReason returns the deny reason for a rejected token.
func InvalidTokenReason(code validator.ErrorCode) string {
	return invalidTokenPrefix + string(code)
}

// ReasonFor maps an unsuccessful evaluation to its deny reason.
func ReasonFor(result core.Result) string {
	switch result.Outcome {
	case core.Missing:
		return ReasonMissingToken
	case core.Rejected:
		switch result.Code {
		case validator.CodeExpired:
			return ReasonTokenExpired
		case validator.CodeMalformedToken,
			validator.CodeUnknownKey,
			validator.CodeBadSignature,
			validator.CodeDisallowedAlgorithm,
			validator.CodeMissingClaim,
			validator.CodeNotYetValid,
			validator.CodeIssuerMismatch,
			validator.CodeWrongTokenUse,
			validator.CodeClientMismatch:
			return InvalidTokenReason(result.Code)
		}
	}
	return ReasonError
}
