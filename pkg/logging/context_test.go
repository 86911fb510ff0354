package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))
	assert.Equal(t, Default(), FromContext(nil)) //nolint:staticcheck
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)

	ctx := WithLogger(context.Background(), &logger)
	Ctx(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
}

func TestWithFieldAccumulates(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)

	ctx := WithLogger(context.Background(), &logger)
	ctx = WithRetailer(ctx, "smoke_shop")
	ctx = WithListing(ctx, "https://smoke_shop.example/short-story")
	ctx = WithOperation(ctx, "update")

	FromContext(ctx).Info().Msg("listing updated")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"retailer":"smoke_shop"`)
	assert.Contains(t, out, `"url":"https://smoke_shop.example/short-story"`)
	assert.Contains(t, out, `"operation":"update"`)
}
