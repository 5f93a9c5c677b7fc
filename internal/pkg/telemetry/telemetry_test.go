package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupWithEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{Endpoint: "http://127.0.0.1:4318", Insecure: true, Version: "test"})
	require.NoError(t, err)
	// nothing was recorded, so shutdown has nothing to flush
	assert.NoError(t, shutdown(context.Background()))
}

func TestHostOf(t *testing.T) {
	tests := map[string]string{
		"collector:4318":          "collector:4318",
		"http://collector:4318":   "collector:4318",
		"https://otel.example/":   "otel.example",
		"  http://localhost:4318": "localhost:4318",
	}
	for in, want := range tests {
		assert.Equal(t, want, hostOf(in), in)
	}
}
