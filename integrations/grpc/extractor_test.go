package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func TestMetadataRequestExtractor(t *testing.T) {
	t.Run("it uses the method as the resource", func(t *testing.T) {
		md := metadata.Pairs("authorization", "Bearer abc", "x-request-id", "1", "x-request-id", "2")
		ctx := metadata.NewIncomingContext(context.Background(), md)

		req, err := MetadataRequestExtractor(ctx, testMethod)
		require.NoError(t, err)

		assert.Equal(t, "REQUEST", req.Type)
		assert.Equal(t, testMethod, req.Resource())
		assert.Equal(t, "Bearer abc", req.Header("Authorization"))
		assert.Equal(t, "1", req.Header("x-request-id"))
	})

	t.Run("no metadata is not an error", func(t *testing.T) {
		req, err := MetadataRequestExtractor(context.Background(), testMethod)
		require.NoError(t, err)
		assert.Empty(t, req.Headers)
		assert.Equal(t, testMethod, req.MethodArn)
	})

	t.Run("repeated authorization is refused", func(t *testing.T) {
		md := metadata.Pairs("authorization", "Bearer a", "authorization", "Bearer b")
		ctx := metadata.NewIncomingContext(context.Background(), md)

		req, err := MetadataRequestExtractor(ctx, testMethod)
		assert.Nil(t, req)
		assert.ErrorIs(t, err, ErrMultipleAuthHeaders)
	})
}
