package page

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-dynui/pkg/record"
	"github.com/goliatone/go-dynui/pkg/remote"
)

var errNoSlotWritten = errors.New("page: no slot written")

// SyncResult extends a fetch result with the number of declared slots that
// were left untouched across all applied records.
type SyncResult struct {
	remote.Result
	Unapplied int
}

type fetched struct {
	records []record.Record
	err     error
}

// Sync fetches every declared endpoint, at most cfg.Concurrency at a time,
// then applies the responses on the calling goroutine in declaration order.
// Failed endpoints leave their slots untouched; their errors are joined in
// the returned error.
func (c *Controller) Sync(ctx context.Context) ([]SyncResult, error) {
	ctx, cancel := c.lifetime(ctx)
	defer cancel()

	out := make([]fetched, len(c.endpoints))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, eb := range c.endpoints {
		i, eb := i, eb
		g.Go(func() error {
			recs, err := c.fetch(ctx, eb)
			out[i] = fetched{records: recs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]SyncResult, 0, len(c.endpoints))
	var errs []error
	for i, eb := range c.endpoints {
		res := c.complete(ctx, eb, out[i].records, out[i].err)
		if res.Err != nil && !res.Canceled {
			errs = append(errs, res.Err)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// SyncEndpoint fetches and applies a single endpoint on the calling goroutine.
func (c *Controller) SyncEndpoint(ctx context.Context, name string) (SyncResult, error) {
	eb, ok := c.endpoint(name)
	if !ok {
		return SyncResult{}, fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
	}
	ctx, cancel := c.lifetime(ctx)
	defer cancel()

	recs, err := c.fetch(ctx, eb)
	res := c.complete(ctx, eb, recs, err)
	return res, res.Err
}

// Watch polls every endpoint declared with a poll interval until ctx is
// done or the controller is closed. Each response is applied through the
// dispatcher.
func (c *Controller) Watch(ctx context.Context) error {
	ctx, cancel := c.lifetime(ctx)
	defer cancel()

	var g errgroup.Group
	for _, eb := range c.endpoints {
		if eb.poll <= 0 {
			continue
		}
		eb := eb
		g.Go(func() error {
			remote.Poll(ctx, eb.poll, func(ctx context.Context) {
				c.fetchAndDispatch(ctx, eb, nil, func() {})
			})
			return nil
		})
	}
	return g.Wait()
}

// syncAsync fetches eb off the calling goroutine. The fetch and its apply
// end with ctx or with the controller, whichever comes first.
func (c *Controller) syncAsync(ctx context.Context, eb *endpointBinding, done func(SyncResult)) {
	ctx, cancel := c.lifetime(ctx)
	go c.fetchAndDispatch(ctx, eb, done, cancel)
}

func (c *Controller) fetchAndDispatch(ctx context.Context, eb *endpointBinding, done func(SyncResult), release func()) {
	recs, err := c.fetch(ctx, eb)
	c.opts.Dispatcher.Dispatch(func() {
		defer release()
		res := c.complete(ctx, eb, recs, err)
		if done != nil {
			done(res)
		}
	})
}

// lifetime derives a context that also ends when the controller is closed.
func (c *Controller) lifetime(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	base, closed := c.ctx, c.closed
	c.mu.Unlock()
	if closed {
		cancel()
		return ctx, cancel
	}
	if base == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) fetch(ctx context.Context, eb *endpointBinding) ([]record.Record, error) {
	if eb.retry != nil {
		return c.fetcher.FetchWithRetry(ctx, eb.endpoint, *eb.retry)
	}
	return c.fetcher.Fetch(ctx, eb.endpoint)
}

func (c *Controller) complete(ctx context.Context, eb *endpointBinding, recs []record.Record, err error) SyncResult {
	if c.isClosed() {
		c.opts.Logger.Debug("endpoint response dropped after close", zap.String("endpoint", eb.endpoint.Label()))
		return SyncResult{Result: remote.Result{Endpoint: eb.endpoint.Label(), Records: len(recs), Canceled: true, Err: context.Canceled}}
	}

	var unapplied int
	apply := func(_ context.Context, rec record.Record) error {
		res, err := c.binder.Bind(rec, eb.slots)
		unapplied += res.Unapplied()
		if err != nil {
			return err
		}
		if res.Applied == 0 && len(eb.slots) > 0 {
			return errNoSlotWritten
		}
		return nil
	}

	res := c.fetcher.Complete(ctx, eb.endpoint, recs, err, apply)
	if res.Err == nil {
		c.opts.Logger.Debug("endpoint synced",
			zap.String("endpoint", res.Endpoint),
			zap.Int("applied", res.Applied),
			zap.Int("unapplied", unapplied),
		)
	}
	return SyncResult{Result: res, Unapplied: unapplied}
}

func (c *Controller) endpoint(name string) (*endpointBinding, bool) {
	for _, eb := range c.endpoints {
		if eb.endpoint.Name == name {
			return eb, true
		}
	}
	return nil, false
}
