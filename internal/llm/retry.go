// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/mdaqa/internal/logging"
	"github.com/pdiddy/mdaqa/pkg/types"
)

// Policy bounds the retries of one logical provider call.
type Policy struct {
	// MaxRetries is the maximum number of calls, including the first.
	MaxRetries int

	// BaseDelay is the backoff before the second call.
	BaseDelay time.Duration

	// MaxDelay caps the exponential part of the backoff. Jitter is added
	// on top of the cap.
	MaxDelay time.Duration
}

// PolicyFrom builds a Policy from the processing configuration.
func PolicyFrom(p types.ProcessingConfig) Policy {
	return Policy{
		MaxRetries: p.MaxRetries,
		BaseDelay:  p.BaseDelayDuration(),
		MaxDelay:   p.MaxDelayDuration(),
	}
}

// Delay returns the backoff after the failed call numbered attempt
// (zero-based): min(MaxDelay, BaseDelay*2^attempt) plus jitter seconds,
// where jitter is expected in [0, 1).
func (p Policy) Delay(attempt int, jitter float64) time.Duration {
	return p.backoff(attempt) + time.Duration(jitter*float64(time.Second))
}

func (p Policy) backoff(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// MaxBackoff returns the upper bound on total sleeping time for one
// logical call, excluding jitter.
func (p Policy) MaxBackoff() time.Duration {
	var total time.Duration
	for i := 0; i < p.attempts(); i++ {
		total += p.backoff(i)
	}
	return total
}

func (p Policy) attempts() int {
	if p.MaxRetries < 1 {
		return 1
	}
	return p.MaxRetries
}

// retryState tracks one logical call. It is discarded when the call resolves.
type retryState struct {
	attempts int
	backoff  time.Duration
	lastErr  error
}

// Retrier wraps a Provider so that transient failures are retried with
// exponential backoff and jitter. It is itself a Provider.
type Retrier struct {
	provider Provider
	policy   Policy
	log      *zap.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// NewRetrier returns a Retrier around p.
func NewRetrier(p Provider, policy Policy, log *zap.Logger) *Retrier {
	return &Retrier{
		provider: p,
		policy:   policy,
		log:      logging.OrNop(log),
		sleep:    sleepContext,
		jitter:   rand.Float64,
	}
}

// Name returns the wrapped provider's name.
func (r *Retrier) Name() string { return r.provider.Name() }

// Generate calls the wrapped provider up to MaxRetries times. Every error
// except the last is followed by a backoff sleep; the last error is
// returned unchanged. A context cancelled during a sleep ends the call with
// the context's error.
func (r *Retrier) Generate(ctx context.Context, systemPrompt, userPrompt string, wantJSON bool) (string, error) {
	var st retryState
	limit := r.policy.attempts()

	for attempt := 0; attempt < limit; attempt++ {
		st.attempts++
		text, err := r.provider.Generate(ctx, systemPrompt, userPrompt, wantJSON)
		if err == nil {
			if st.attempts > 1 {
				r.log.Info("provider call recovered",
					zap.String("provider", r.provider.Name()),
					zap.Int("attempts", st.attempts),
					zap.Duration("backoff", st.backoff))
			}
			return text, nil
		}
		st.lastErr = err

		if attempt == limit-1 {
			break
		}

		delay := r.policy.Delay(attempt, r.jitter())
		r.log.Warn("provider call failed, retrying",
			zap.String("provider", r.provider.Name()),
			zap.Int("attempt", st.attempts),
			zap.Int("max_attempts", limit),
			zap.Duration("delay", delay),
			zap.Error(err))

		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
		st.backoff += delay
	}

	r.log.Error("provider call failed, retries exhausted",
		zap.String("provider", r.provider.Name()),
		zap.Int("attempts", st.attempts),
		zap.Duration("backoff", st.backoff),
		zap.Error(st.lastErr))
	return "", st.lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
