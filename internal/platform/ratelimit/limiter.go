package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrClosed        = errors.New("rate limiter closed")
	ErrUnknownSource = errors.New("rate limiter source is not registered")
)

// Policy allows at most MaxRequests call starts within any rolling Window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

func (p Policy) Validate() error {
	if p.MaxRequests < 1 {
		return fmt.Errorf("max requests must be >= 1, got %d", p.MaxRequests)
	}
	if p.Window <= 0 {
		return fmt.Errorf("window must be > 0, got %s", p.Window)
	}
	return nil
}

// Interval is the spacing enforced between two consecutive starts.
func (p Policy) Interval() time.Duration {
	return p.Window / time.Duration(p.MaxRequests)
}

// Registry holds one limiter per source. All workers hitting the same source
// must share the registry so concurrency never bypasses the throttle.
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	policies map[string]Policy

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRegistry() *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		limiters: make(map[string]*rate.Limiter),
		policies: make(map[string]Policy),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *Registry) Register(source string, policy Policy) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return fmt.Errorf("source is required")
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy for %s: %w", source, err)
	}

	// Burst 1 spreads starts evenly, which is strictly tighter than the
	// rolling-window bound.
	limiter := rate.NewLimiter(rate.Every(policy.Interval()), 1)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[source] = limiter
	r.policies[source] = policy
	return nil
}

// Acquire blocks until source has a free slot. It returns the context error on
// cancellation and ErrClosed once Close has been called.
func (r *Registry) Acquire(ctx context.Context, source string) error {
	if r.ctx.Err() != nil {
		return ErrClosed
	}

	r.mu.RLock()
	limiter, ok := r.limiters[source]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()

	if err := limiter.Wait(waitCtx); err != nil {
		if r.ctx.Err() != nil {
			return ErrClosed
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("acquire %s: %w", source, err)
	}
	return nil
}

// Close releases every pending and future Acquire with ErrClosed.
func (r *Registry) Close() {
	r.cancel()
}

func (r *Registry) Policy(source string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	policy, ok := r.policies[source]
	return policy, ok
}

func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.policies))
	for source := range r.policies {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}
