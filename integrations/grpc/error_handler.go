package grpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	authorizer "github.com/relaychat/authorizer"
	"github.com/relaychat/authorizer/decision"
)

// ErrorHandler converts a Deny decision to a gRPC status error.
type ErrorHandler func(d *decision.Decision) error

// DefaultErrorHandler maps deny reasons to gRPC status codes. A failure to
// judge the token is the server's problem and is reported as Internal;
// every other reason is Unauthenticated. The status message is the reason,
// which never carries error text.
func DefaultErrorHandler(d *decision.Decision) error {
	if d.Allowed() {
		return nil
	}

	switch reason := d.Reason(); reason {
	case authorizer.ReasonMissingToken:
		return status.Error(codes.Unauthenticated, "missing credentials")
	case authorizer.ReasonError, "":
		return status.Error(codes.Internal, "unable to verify token")
	default:
		return status.Error(codes.Unauthenticated, reason)
	}
}
