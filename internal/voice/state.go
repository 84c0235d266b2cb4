// ABOUTME: Per-guild connection state machine, backoff schedule, and circuit breaker
// ABOUTME: All plain data (spec 9: "Recovery state... is plain data, one record per guild")
package voice

import (
	"math/rand"
	"time"
)

// State is a Connection's position in the per-guild state machine (spec 4.5).
type State string

const (
	StateDisconnected        State = "Disconnected"
	StateAwaitingCredentials State = "AwaitingCredentials"
	StateConnecting          State = "Connecting"
	StateReady               State = "Ready"
	StateReconnecting        State = "Reconnecting"
	StateFailed              State = "Failed"
)

// backoffDefaults per spec 4.5.
const (
	backoffInitial    = 500 * time.Millisecond
	backoffMultiplier = 2.0
	backoffMax        = 30 * time.Second
	backoffJitter     = 0.10
	backoffMaxAttempt = 5
)

// backoffState is a hand-rolled, deterministic-up-to-jitter schedule, not
// cenkalti/backoff/v5 — see DESIGN.md for why: the spec pins an exact
// {500,1000,2000,4000,8000}ms sequence within stated jitter bounds, which
// calls for a small explicit struct over a general backoff library.
type backoffState struct {
	attempt int
}

// next returns the delay for the current attempt and advances it, or false
// once backoffMaxAttempt has been exhausted for this incident.
func (b *backoffState) next(jitter func() float64) (time.Duration, bool) {
	if b.attempt >= backoffMaxAttempt {
		return 0, false
	}
	base := float64(backoffInitial) * pow(backoffMultiplier, b.attempt)
	if base > float64(backoffMax) {
		base = float64(backoffMax)
	}
	j := 1.0 + (jitter()*2-1)*backoffJitter
	delay := time.Duration(base * j)
	b.attempt++
	return delay, true
}

func (b *backoffState) reset() {
	b.attempt = 0
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

func defaultJitter() float64 {
	return rand.Float64()
}

// circuitBreakerDefaults per spec 4.5.
const (
	circuitFailureThreshold = 10
	circuitResetTimeout     = 60 * time.Second
)

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
)

// circuitBreaker trips after circuitFailureThreshold consecutive failures
// and closes automatically after circuitResetTimeout, or on explicit reset.
type circuitBreaker struct {
	state       circuitState
	consecutive int
	openedAt    time.Time
	now         func() time.Time
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{now: time.Now}
}

// allow reports whether a connection attempt may proceed. autoClosed is
// true when this call itself found reset_timeout elapsed and closed the
// circuit, so the caller can emit CircuitClosed exactly once.
func (c *circuitBreaker) allow() (ok bool, autoClosed bool) {
	if c.state != circuitOpen {
		return true, false
	}
	if c.now().Sub(c.openedAt) >= circuitResetTimeout {
		c.state = circuitClosed
		c.consecutive = 0
		return true, true
	}
	return false, false
}

// recordFailure returns true the instant this failure trips the breaker open.
func (c *circuitBreaker) recordFailure() bool {
	c.consecutive++
	if c.consecutive >= circuitFailureThreshold && c.state == circuitClosed {
		c.state = circuitOpen
		c.openedAt = c.now()
		return true
	}
	return false
}

func (c *circuitBreaker) recordSuccess() {
	c.consecutive = 0
	c.state = circuitClosed
}

// reset is the administrative override (spec 4.5: "Closing is automatic on
// timeout expiry or explicit administrative reset").
func (c *circuitBreaker) reset() {
	c.state = circuitClosed
	c.consecutive = 0
}

func (c *circuitBreaker) isOpen() bool {
	return c.state == circuitOpen
}
