package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing_Disabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), "cybermeme", "test", "")

	require.NoError(t, err)
	assert.False(t, tp.Enabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracerProvider_NilSafe(t *testing.T) {
	var tp *TracerProvider

	assert.False(t, tp.Enabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
}
