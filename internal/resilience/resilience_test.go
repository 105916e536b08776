package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	cfg := Config{MaxRetries: 3, InitialBackoff: time.Millisecond}

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), cfg, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), cfg, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		wantErr := errors.New("still down")
		calls := 0
		err := RetryWithBackoff(context.Background(), cfg, func() error {
			calls++
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, cfg.MaxRetries+1, calls)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, cfg, func() error {
			t.Fatal("fn should not run with cancelled context")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCircuitBreakerOpensOnFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")
	boom := errors.New("boom")

	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (any, error) { return nil, boom })
	}

	_, err := cb.Execute(func() (any, error) { return nil, nil })
	assert.Error(t, err, "breaker should be open after sustained failures")
}
