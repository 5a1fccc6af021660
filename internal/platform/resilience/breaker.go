// Package resilience guards calls to an upstream provider with a
// consecutive-failure circuit breaker.
package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

type BreakerConfig struct {
	Enabled bool
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before letting trial calls through.
	Cooldown time.Duration
	// TrialCalls successful half-open calls close the breaker again. It is also
	// the number of trial calls allowed in flight.
	TrialCalls int
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		TrialCalls:       1,
	}
}

// Normalized replaces out-of-range values with the defaults.
func (c BreakerConfig) Normalized() BreakerConfig {
	defaults := DefaultBreakerConfig()
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaults.FailureThreshold
	}
	if c.Cooldown <= 0 {
		c.Cooldown = defaults.Cooldown
	}
	if c.TrialCalls < 1 {
		c.TrialCalls = defaults.TrialCalls
	}
	return c
}

// OpenError is returned by Allow while the breaker rejects calls.
type OpenError struct {
	Name    string
	RetryIn time.Duration
}

func (e *OpenError) Error() string {
	if e.RetryIn <= 0 {
		return fmt.Sprintf("%s: %s, trial slots busy", e.Name, ErrCircuitOpen)
	}
	return fmt.Sprintf("%s: %s, retry in %s", e.Name, ErrCircuitOpen, e.RetryIn.Round(time.Second))
}

func (e *OpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// Breaker trips after consecutive failures against one named upstream.
// A nil *Breaker is valid and always allows.
type Breaker struct {
	mu sync.Mutex

	name     string
	cfg      BreakerConfig
	onChange func(name string, from, to State)
	now      func() time.Time

	state     State
	failures  int
	openedAt  time.Time
	inFlight  int
	successes int
}

// NewBreaker returns nil when cfg is disabled.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if !cfg.Enabled {
		return nil
	}
	return &Breaker{
		name:  name,
		cfg:   cfg.Normalized(),
		now:   time.Now,
		state: StateClosed,
	}
}

// OnStateChange registers fn to run after every transition. fn is called
// with the breaker's lock released.
func (b *Breaker) OnStateChange(fn func(name string, from, to State)) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

func (b *Breaker) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

func (b *Breaker) Allow() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	from := b.state
	err := b.allowLocked()
	to, notify := b.state, b.onChange
	b.mu.Unlock()

	b.emit(notify, from, to)
	return err
}

func (b *Breaker) allowLocked() error {
	if b.state == StateOpen {
		elapsed := b.now().Sub(b.openedAt)
		if elapsed < b.cfg.Cooldown {
			return &OpenError{Name: b.name, RetryIn: b.cfg.Cooldown - elapsed}
		}
		b.set(StateHalfOpen)
	}
	if b.state == StateHalfOpen {
		if b.inFlight >= b.cfg.TrialCalls {
			return &OpenError{Name: b.name}
		}
		b.inFlight++
	}
	return nil
}

// Record reports the outcome of a call that Allow let through. Only
// failures that say something about upstream health should pass failed=true.
func (b *Breaker) Record(failed bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	from := b.state
	if failed {
		b.failureLocked()
	} else {
		b.successLocked()
	}
	to, notify := b.state, b.onChange
	b.mu.Unlock()

	b.emit(notify, from, to)
}

func (b *Breaker) successLocked() {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		if b.inFlight > 0 {
			b.inFlight--
		}
		b.successes++
		if b.successes >= b.cfg.TrialCalls && b.inFlight == 0 {
			b.set(StateClosed)
		}
	}
}

func (b *Breaker) failureLocked() {
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.set(StateOpen)
		}
	case StateHalfOpen:
		b.set(StateOpen)
	case StateOpen:
		b.openedAt = b.now()
	}
}

// State reports half_open once the cooldown has elapsed, even before the
// next Allow performs the transition.
func (b *Breaker) State() State {
	if b == nil {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) set(to State) {
	b.state = to
	b.inFlight = 0
	b.successes = 0
	switch to {
	case StateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	case StateOpen:
		b.openedAt = b.now()
	}
}

func (b *Breaker) emit(fn func(name string, from, to State), from, to State) {
	if fn != nil && from != to {
		fn(b.name, from, to)
	}
}
