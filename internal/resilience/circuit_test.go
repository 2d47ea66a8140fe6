package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGateway = eris.New("gateway down")

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})
	ctx := context.Background()

	fail := func(ctx context.Context) error { return errGateway }

	for i := 0; i < 3; i++ {
		err := cb.Execute(ctx, fail)
		require.ErrorIs(t, err, errGateway)
	}
	assert.Equal(t, CircuitOpen, cb.State())

	// Further calls are rejected without invoking fn.
	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenProbeRecovers(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})
	cb.nowFunc = func() time.Time { return now }

	ctx := context.Background()
	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return errGateway }))
	assert.Equal(t, CircuitOpen, cb.State())

	// After the reset timeout, one probe is allowed; success closes the circuit.
	now = now.Add(11 * time.Second)
	assert.Equal(t, CircuitHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ctx, func(ctx context.Context) error { return nil }))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})
	cb.nowFunc = func() time.Time { return now }

	ctx := context.Background()
	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return errGateway }))

	now = now.Add(11 * time.Second)
	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return errGateway }))
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return errGateway }))
	require.NoError(t, cb.Execute(ctx, func(ctx context.Context) error { return nil }))
	require.Error(t, cb.Execute(ctx, func(ctx context.Context) error { return errGateway }))

	// One failure after a success is below the threshold.
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestExecuteVal(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	ctx := context.Background()

	v, err := ExecuteVal(ctx, cb, func(ctx context.Context) ([]float32, error) {
		return []float32{1, 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)

	_, err = ExecuteVal(ctx, cb, func(ctx context.Context) ([]float32, error) {
		return nil, errGateway
	})
	require.ErrorIs(t, err, errGateway)

	_, err = ExecuteVal(ctx, cb, func(ctx context.Context) ([]float32, error) {
		return []float32{3}, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("schema violation")))
	assert.True(t, IsTransient(NewTransientError(eris.New("http 503"), 503)))
	assert.True(t, IsTransient(eris.New("connection reset by peer")))
	assert.True(t, IsTransient(eris.New("503 Service Unavailable")))
}
