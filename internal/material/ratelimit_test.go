package material

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterSpacesCalls(t *testing.T) {
	l := NewLimiter(600) // 100ms spacing
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 190*time.Millisecond)
}

func TestLimiterFirstCallImmediate(t *testing.T) {
	l := NewLimiter(1) // 60s spacing, must not apply to the first call
	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestLimiterCancelled(t *testing.T) {
	l := NewLimiter(1)
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, l.Wait(cancelled))
}
