package remote

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/goliatone/go-dynui/pkg/record"
)

// RetryPolicy bounds the optional retry wrapper. The core fetch never
// retries on its own.
type RetryPolicy struct {
	// MaxAttempts counts the first request; values below 1 mean 1.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns three attempts with a short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.Reset()

	limit := p.MaxAttempts
	if limit < 1 {
		limit = 1
	}
	return &boundedBackOff{ctx: ctx, inner: exp, limit: limit}
}

// boundedBackOff stops after limit attempts or once ctx is done.
type boundedBackOff struct {
	ctx      context.Context
	inner    backoff.BackOff
	limit    int
	attempts int
}

func (b *boundedBackOff) NextBackOff() time.Duration {
	b.attempts++
	if b.attempts >= b.limit || b.ctx.Err() != nil {
		return backoff.Stop
	}
	return b.inner.NextBackOff()
}

func (b *boundedBackOff) Reset() {
	b.attempts = 0
	b.inner.Reset()
}

// FetchWithRetry repeats Fetch on transient failures (network errors, 429 and
// 5xx statuses) according to policy. Decode failures and other statuses are
// returned immediately.
func (f *Fetcher) FetchWithRetry(ctx context.Context, ep Endpoint, policy RetryPolicy) ([]record.Record, error) {
	var (
		records []record.Record
		final   error
	)
	operation := func() error {
		recs, err := f.Fetch(ctx, ep)
		if err == nil {
			records, final = recs, nil
			return nil
		}
		var ferr *FetchError
		if errors.As(err, &ferr) && !ferr.Retryable() {
			final = err
			return nil
		}
		final = err
		return err
	}
	notify := func(err error, wait time.Duration) {
		f.opts.Logger.Info("remote fetch retry",
			zap.String("endpoint", ep.Label()),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	_ = backoff.RetryNotify(operation, policy.backOff(ctx), notify)
	if final != nil {
		return nil, final
	}
	return records, nil
}

// FetchAndApplyWithRetry is FetchAndApply over FetchWithRetry.
func (f *Fetcher) FetchAndApplyWithRetry(ctx context.Context, ep Endpoint, policy RetryPolicy, apply ApplyFunc) Result {
	records, err := f.FetchWithRetry(ctx, ep, policy)
	return f.Complete(ctx, ep, records, err, apply)
}

// Poll calls fn immediately and then every interval until ctx is done.
func Poll(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if fn == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}
	fn(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			fn(ctx)
		}
	}
}
