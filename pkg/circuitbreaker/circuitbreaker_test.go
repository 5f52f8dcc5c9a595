package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 2, Timeout: time.Hour})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	}
	assert.Equal(t, "open", cb.State())

	err := cb.Execute(func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker test is open")
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 2, Timeout: time.Hour})
	boom := errors.New("boom")

	require.Error(t, cb.Execute(func() error { return boom }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Error(t, cb.Execute(func() error { return boom }))
	assert.Equal(t, "closed", cb.State(), "one failure after a success does not trip")
}

func TestHalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 1, Timeout: 5 * time.Millisecond})
	boom := errors.New("boom")

	require.Error(t, cb.Execute(func() error { return boom }))
	require.Equal(t, "open", cb.State())

	time.Sleep(10 * time.Millisecond)

	// First probe fails: straight back to open.
	require.Error(t, cb.Execute(func() error { return boom }))
	assert.Equal(t, "open", cb.State())

	time.Sleep(10 * time.Millisecond)

	// Successful probe closes the breaker.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, "closed", cb.State())
}
