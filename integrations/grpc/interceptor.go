package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	authorizer "github.com/relaychat/authorizer"
	"github.com/relaychat/authorizer/core"
)

// Interceptor authorizes gRPC calls.
type Interceptor struct {
	authorizer       *authorizer.Authorizer
	requestExtractor RequestExtractor
	errorHandler     ErrorHandler
	excludedMethods  map[string]bool
	logger           Logger
}

// New creates a new gRPC interceptor with the provided options.
// WithAuthorizer option is required.
func New(opts ...Option) (*Interceptor, error) {
	interceptor := &Interceptor{
		requestExtractor: MetadataRequestExtractor,
		errorHandler:     DefaultErrorHandler,
		excludedMethods:  make(map[string]bool),
		logger:           nopLogger{},
	}

	for _, opt := range opts {
		if err := opt(interceptor); err != nil {
			return nil, err
		}
	}

	if interceptor.authorizer == nil {
		return nil, errors.New("authorizer is required, use WithAuthorizer option")
	}

	return interceptor, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that
// authorizes each call before the handler runs.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.excludedMethods[info.FullMethod] {
			i.logger.Debug("skipping authorization for excluded method",
				"method", info.FullMethod)
			return handler(ctx, req)
		}

		authorizedCtx, err := i.authorize(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(authorizedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that
// authorizes the stream once, when it opens.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excludedMethods[info.FullMethod] {
			i.logger.Debug("skipping authorization for excluded method",
				"method", info.FullMethod)
			return handler(srv, ss)
		}

		authorizedCtx, err := i.authorize(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          authorizedCtx,
		})
	}
}

func (i *Interceptor) authorize(ctx context.Context, method string) (context.Context, error) {
	req, err := i.requestExtractor(ctx, method)
	if err != nil {
		i.logger.Warn("failed to read gRPC metadata",
			"error", err,
			"method", method)
		return ctx, status.Error(codes.InvalidArgument, err.Error())
	}

	d, claims := i.authorizer.AuthorizeClaims(ctx, req)
	if !d.Allowed() {
		i.logger.Debug("call denied",
			"method", method,
			"reason", d.Reason())
		return ctx, i.errorHandler(d)
	}

	return core.SetClaims(ctx, claims), nil
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context with the verified claims.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
