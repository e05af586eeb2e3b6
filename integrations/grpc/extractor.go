package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/metadata"

	authorizer "github.com/relaychat/authorizer"
)

// RequestExtractor builds the authorization request for a call.
type RequestExtractor func(ctx context.Context, fullMethod string) (*authorizer.Request, error)

// ErrMultipleAuthHeaders indicates multiple authorization metadata entries were provided.
var ErrMultipleAuthHeaders = errors.New("multiple authorization metadata entries are not allowed")

// MetadataRequestExtractor copies the incoming metadata into the request
// headers and uses the full method name as the resource. Only the first
// value of each key is kept, except for authorization, which must not be
// repeated.
//
// gRPC normalizes incoming metadata keys to lowercase.
func MetadataRequestExtractor(ctx context.Context, fullMethod string) (*authorizer.Request, error) {
	req := &authorizer.Request{
		Type:      "REQUEST",
		MethodArn: fullMethod,
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return req, nil // No metadata, no token (not an error)
	}

	if len(md.Get("authorization")) > 1 {
		return nil, ErrMultipleAuthHeaders
	}

	req.Headers = make(map[string]string, len(md))
	for key, values := range md {
		if len(values) > 0 {
			req.Headers[key] = values[0]
		}
	}

	return req, nil
}
