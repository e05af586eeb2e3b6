// Package grpc provides gRPC server interceptors that run every call
// through an authorizer.Authorizer.
//
// Incoming metadata is turned into an authorizer.Request whose resource is
// the full method name. The Authorizer decides; a Deny becomes a gRPC status
// error and an Allow stores the verified claims in the handler's context.
//
// gRPC clients send credentials as metadata, so the Authorizer should read
// the Authorization header:
//
//	a, err := authorizer.New(
//	    authorizer.WithKeyResolver(resolver),
//	    authorizer.WithTokenVerifier(v),
//	    authorizer.WithTokenExtractor(authorizer.AuthHeaderTokenExtractor),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	interceptor, err := authgrpc.New(
//	    authgrpc.WithAuthorizer(a),
//	    authgrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// # Status Codes
//
// DefaultErrorHandler maps deny reasons to codes:
//
//   - missing_token: codes.Unauthenticated
//   - token_expired and invalid_token: <code>: codes.Unauthenticated
//   - error: codes.Internal
//
// Handlers read the claims with GetClaims:
//
//	func (s *server) Send(ctx context.Context, req *pb.SendRequest) (*pb.SendReply, error) {
//	    claims, err := authgrpc.GetClaims(ctx)
//	    if err != nil {
//	        return nil, status.Error(codes.Internal, "failed to get claims")
//	    }
//	    ...
//	}
package grpc
