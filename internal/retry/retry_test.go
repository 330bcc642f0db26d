package retry

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return eris.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	calls := 0
	boom := eris.New("down")
	err := Do(context.Background(), fastConfig(2), func(context.Context) error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, eris.Is(err, boom))
}

func TestDo_RetryIfStopsEarly(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryIf = IsTransient

	calls := 0
	err := Do(context.Background(), cfg, func(context.Context) error {
		calls++
		return eris.New("bad request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, fastConfig(3), func(context.Context) error {
		calls++
		return eris.New("flaky")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("parse error")))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(eris.Wrap(syscall.ECONNREFUSED, "dial")))
}
