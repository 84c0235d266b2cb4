package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedJitter(v float64) func() float64 {
	return func() float64 { return v }
}

func TestBackoffSequenceDoublesEachAttempt(t *testing.T) {
	var b backoffState
	j := fixedJitter(0.5) // midpoint jitter -> no adjustment

	d1, ok := b.next(j)
	assert.True(t, ok)
	assert.Equal(t, backoffInitial, d1)

	d2, ok := b.next(j)
	assert.True(t, ok)
	assert.Equal(t, 2*backoffInitial, d2)

	d3, _ := b.next(j)
	assert.Equal(t, 4*backoffInitial, d3)
}

func TestBackoffCapsAtMaxDelay(t *testing.T) {
	var b backoffState
	j := fixedJitter(0.5)
	for i := 0; i < backoffMaxAttempt; i++ {
		d, ok := b.next(j)
		assert.True(t, ok)
		assert.LessOrEqual(t, d, backoffMax)
	}
}

func TestBackoffExhaustsAfterMaxAttempts(t *testing.T) {
	var b backoffState
	j := fixedJitter(0.5)
	for i := 0; i < backoffMaxAttempt; i++ {
		_, ok := b.next(j)
		assert.True(t, ok)
	}
	_, ok := b.next(j)
	assert.False(t, ok, "backoff must refuse a 6th attempt within one incident")
}

func TestBackoffResetStartsOver(t *testing.T) {
	var b backoffState
	j := fixedJitter(0.5)
	b.next(j)
	b.next(j)
	b.reset()
	d, ok := b.next(j)
	assert.True(t, ok)
	assert.Equal(t, backoffInitial, d)
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	cb := newCircuitBreaker()
	var tripped bool
	for i := 0; i < circuitFailureThreshold; i++ {
		tripped = cb.recordFailure()
	}
	assert.True(t, tripped)
	assert.True(t, cb.isOpen())

	allowed, _ := cb.allow()
	assert.False(t, allowed, "an open circuit must refuse attempts immediately")
}

func TestCircuitAutoClosesAfterResetTimeout(t *testing.T) {
	cb := newCircuitBreaker()
	for i := 0; i < circuitFailureThreshold; i++ {
		cb.recordFailure()
	}
	require := assert.New(t)
	require.True(cb.isOpen())

	frozen := time.Now().Add(circuitResetTimeout + time.Second)
	cb.now = func() time.Time { return frozen }

	allowed, autoClosed := cb.allow()
	require.True(allowed)
	require.True(autoClosed)
	require.False(cb.isOpen())
}

func TestCircuitExplicitResetClosesImmediately(t *testing.T) {
	cb := newCircuitBreaker()
	for i := 0; i < circuitFailureThreshold; i++ {
		cb.recordFailure()
	}
	cb.reset()
	allowed, autoClosed := cb.allow()
	assert.True(t, allowed)
	assert.False(t, autoClosed, "an already-closed circuit doesn't report an auto-close")
}

func TestCircuitSuccessResetsConsecutiveCount(t *testing.T) {
	cb := newCircuitBreaker()
	for i := 0; i < circuitFailureThreshold-1; i++ {
		cb.recordFailure()
	}
	cb.recordSuccess()
	assert.Equal(t, 0, cb.consecutive)
	assert.False(t, cb.isOpen())
}
