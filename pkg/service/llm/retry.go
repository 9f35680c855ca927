package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 200 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
)

type retryPolicy struct {
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

type RetryOption func(*retryPolicy)

// WithTimeout bounds every single attempt. Zero disables the bound.
func WithTimeout(d time.Duration) RetryOption {
	return func(p *retryPolicy) {
		p.timeout = d
	}
}

// WithMaxRetries sets how many times a failed call is repeated
func WithMaxRetries(n int) RetryOption {
	return func(p *retryPolicy) {
		p.maxRetries = max(n, 0)
	}
}

// WithBackoff sets the first delay and the cap of the exponential backoff
func WithBackoff(base, maxDelay time.Duration) RetryOption {
	return func(p *retryPolicy) {
		p.baseDelay = base
		p.maxDelay = maxDelay
	}
}

func newRetryPolicy(opts []RetryOption) retryPolicy {
	p := retryPolicy{
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// backoff returns a full jitter delay in [0, min(maxDelay, base*2^attempt)]
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.baseDelay <= 0 {
		return 0
	}
	ceiling := p.baseDelay
	for i := 0; i < attempt && ceiling < p.maxDelay; i++ {
		ceiling *= 2
	}
	if p.maxDelay > 0 && ceiling > p.maxDelay {
		ceiling = p.maxDelay
	}
	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

func retry[T any](ctx context.Context, p retryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.backoff(attempt - 1)
			logging.From(ctx).Warn("retrying provider call",
				"op", op,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, goerr.Wrap(model.AsProviderFailure(ctx.Err()), "provider call cancelled",
					goerr.V("op", op), goerr.V("attempt", attempt))
			case <-timer.C:
			}
		}

		result, err := callWithTimeout(ctx, p.timeout, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// the caller gave up; retrying would only extend the wait
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return zero, goerr.Wrap(model.AsProviderFailure(err), "provider call cancelled",
				goerr.V("op", op), goerr.V("attempt", attempt+1))
		}
	}

	return zero, goerr.Wrap(model.AsProviderFailure(lastErr), "provider call failed after retries",
		goerr.V("op", op), goerr.V("attempts", p.maxRetries+1))
}

func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// RetryGenerator retries a Generator with bounded attempts and jittered
// backoff. Exhaustion is reported as ErrProviderFailure.
type RetryGenerator struct {
	gen    interfaces.Generator
	policy retryPolicy
}

var _ interfaces.Generator = &RetryGenerator{}

func NewRetryGenerator(gen interfaces.Generator, opts ...RetryOption) *RetryGenerator {
	return &RetryGenerator{gen: gen, policy: newRetryPolicy(opts)}
}

func (r *RetryGenerator) Generate(ctx context.Context, prompt string, opt interfaces.GenerateOption) (string, error) {
	return retry(ctx, r.policy, "generate", func(ctx context.Context) (string, error) {
		return r.gen.Generate(ctx, prompt, opt)
	})
}

// RetryEmbedder is RetryGenerator for the embedding provider
type RetryEmbedder struct {
	emb    interfaces.Embedder
	policy retryPolicy
}

var _ interfaces.Embedder = &RetryEmbedder{}

func NewRetryEmbedder(emb interfaces.Embedder, opts ...RetryOption) *RetryEmbedder {
	return &RetryEmbedder{emb: emb, policy: newRetryPolicy(opts)}
}

func (r *RetryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return retry(ctx, r.policy, "embed", func(ctx context.Context) ([][]float32, error) {
		return r.emb.Embed(ctx, texts)
	})
}
