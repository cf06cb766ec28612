package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/newsletter-triage/pkg/timeutil"
)

// RateLimiter paces calls to remote hosts (IMAP servers, bookmark APIs).
// Responsibilities:
// - Bookkeep each host's last access timestamp
// - Grow a per-host backoff after transient failures
// - Resolve how long a caller must wait before contacting a host again
type RateLimiter interface {
	SetBaseDelay(baseDelay time.Duration)
	SetJitter(jitter time.Duration)
	SetRandomSeed(randomSeed int64)
	SetHostInterval(host string, interval time.Duration)
	Backoff(host string)
	ResetBackoff(host string)
	MarkLastAccessAsNow(host string)
	ResolveDelay(host string) time.Duration
	Wait(ctx context.Context, host string) error
}

var defaultBackoff = timeutil.NewBackoffParam(1*time.Second, 2.0, 5*time.Minute)

type ConcurrentRateLimiter struct {
	mu          sync.RWMutex
	rngMu       sync.Mutex
	baseDelay   time.Duration
	jitter      time.Duration
	backoff     timeutil.BackoffParam
	hostTimings map[string]hostTiming
	rng         *rand.Rand
}

func NewConcurrentRateLimiter() *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		hostTimings: make(map[string]hostTiming),
		backoff:     defaultBackoff,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ConcurrentRateLimiter) SetBaseDelay(baseDelay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseDelay = baseDelay
}

func (r *ConcurrentRateLimiter) SetJitter(jitter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jitter = jitter
}

func (r *ConcurrentRateLimiter) SetBackoffParam(param timeutil.BackoffParam) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backoff = param
}

func (r *ConcurrentRateLimiter) SetRandomSeed(randomSeed int64) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	r.rng = rand.New(rand.NewSource(randomSeed))
}

// SetHostInterval sets a minimum spacing for one host, independent of the base delay.
func (r *ConcurrentRateLimiter) SetHostInterval(host string, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.minInterval = interval
	r.hostTimings[host] = timing
}

// Backoff increments the host's failure counter and recomputes its backoff delay.
func (r *ConcurrentRateLimiter) Backoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.backoffCount++
	r.rngMu.Lock()
	timing.backoffDelay = timeutil.ExponentialBackoffDelay(timing.backoffCount, r.jitter, r.rng, r.backoff)
	r.rngMu.Unlock()
	r.hostTimings[host] = timing
}

// ResetBackoff clears backoff state after a successful call.
func (r *ConcurrentRateLimiter) ResetBackoff(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing, exists := r.hostTimings[host]
	if !exists {
		return
	}
	timing.backoffCount = 0
	timing.backoffDelay = 0
	r.hostTimings[host] = timing
}

func (r *ConcurrentRateLimiter) MarkLastAccessAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.lastAccessAt = time.Now()
	r.hostTimings[host] = timing
}

// ResolveDelay returns the remaining wait before host may be contacted.
// FinalDelay = max(baseDelay, minInterval, backoffDelay) + jitter, minus time already elapsed.
// Unknown hosts are not delayed.
func (r *ConcurrentRateLimiter) ResolveDelay(host string) time.Duration {
	r.mu.RLock()
	timing, exists := r.hostTimings[host]
	base := r.baseDelay
	jitter := r.jitter
	r.mu.RUnlock()

	if !exists || timing.lastAccessAt.IsZero() {
		return 0
	}

	finalDelay := timeutil.MaxDuration([]time.Duration{base, timing.minInterval, timing.backoffDelay})

	r.rngMu.Lock()
	finalDelay += timeutil.ComputeJitter(jitter, r.rng)
	r.rngMu.Unlock()

	elapsed := time.Since(timing.lastAccessAt)
	if elapsed < finalDelay {
		return finalDelay - elapsed
	}
	return 0
}

// Wait blocks until host may be contacted, then marks it as accessed.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, host string) error {
	if delay := r.ResolveDelay(host); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	r.MarkLastAccessAsNow(host)
	return nil
}

func (r *ConcurrentRateLimiter) BaseDelay() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseDelay
}

func (r *ConcurrentRateLimiter) Jitter() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jitter
}

// HostTimings returns a copy of the per-host state.
func (r *ConcurrentRateLimiter) HostTimings() map[string]hostTiming {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]hostTiming, len(r.hostTimings))
	for k, v := range r.hostTimings {
		out[k] = v
	}
	return out
}
