package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 5*time.Second, p.Delay)
}

func TestNormalized(t *testing.T) {
	p := Policy{MaxAttempts: 0, Delay: -time.Second}.Normalized()
	assert.Equal(t, 1, p.MaxAttempts)
	assert.Equal(t, time.Duration(0), p.Delay)

	p = Policy{MaxAttempts: 5, Delay: time.Second}.Normalized()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Delay)
}

func TestWait_ZeroDelayReturnsImmediately(t *testing.T) {
	p := Policy{MaxAttempts: 3}
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWait_ObservesDelay(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: 50 * time.Millisecond}
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWait_CancelledContext(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}
