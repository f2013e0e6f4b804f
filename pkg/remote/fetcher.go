package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/record"
)

// ApplyFunc writes one record into the page. A returned error skips the
// record; the remaining records are still applied.
type ApplyFunc func(ctx context.Context, rec record.Record) error

// Result summarizes one fetch-and-apply cycle.
type Result struct {
	Endpoint string
	// Records is the number of records decoded from the response.
	Records int
	Applied int
	Skipped int
	// Canceled is set when ctx ended before every record was applied.
	Canceled bool
	Err      error
}

// Fetcher pulls record collections and applies them in response order.
type Fetcher struct {
	opts Options
}

// New returns a fetcher configured by fns.
func New(fns ...OptionFn) *Fetcher {
	return &Fetcher{opts: NewOptions(fns...)}
}

// Fetch performs one request and decodes the full collection. Either every
// record is returned or a *FetchError is.
func (f *Fetcher) Fetch(ctx context.Context, ep Endpoint) ([]record.Record, error) {
	if err := ep.Validate(); err != nil {
		return nil, &FetchError{Endpoint: ep.Label(), Stage: StageConfig, Err: err}
	}

	payload, ferr := f.load(ctx, ep)
	if ferr != nil {
		return nil, ferr
	}

	records, err := record.Decode(payload, ep.Shape())
	if err != nil {
		return nil, &FetchError{Endpoint: ep.Label(), Stage: StageDecode, Err: err}
	}
	return records, nil
}

func (f *Fetcher) load(ctx context.Context, ep Endpoint) ([]byte, *FetchError) {
	fail := func(stage Stage, status int, err error) *FetchError {
		if ctxErr := ctx.Err(); ctxErr != nil && stage != StageStatus {
			return &FetchError{Endpoint: ep.Label(), Stage: StageCanceled, Err: ctxErr}
		}
		return &FetchError{Endpoint: ep.Label(), Stage: stage, Status: status, Err: err}
	}

	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = f.opts.Timeout
	}
	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	target, err := ep.requestURL()
	if err != nil {
		return nil, fail(StageConfig, 0, err)
	}
	req, err := http.NewRequestWithContext(reqCtx, ep.method(), target, nil)
	if err != nil {
		return nil, fail(StageConfig, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.opts.Client.Do(req)
	if err != nil {
		return nil, fail(StageRequest, 0, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fail(StageStatus, resp.StatusCode, errors.New("unexpected status "+resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(StageRead, resp.StatusCode, err)
	}
	return data, nil
}

// FetchAndApply fetches ep and applies every record in response order. The
// whole response is decoded before the first apply, so a failed fetch leaves
// the page exactly as it was. Failures are reported and logged, never
// returned as a panic or partial update.
func (f *Fetcher) FetchAndApply(ctx context.Context, ep Endpoint, apply ApplyFunc) Result {
	records, err := f.Fetch(ctx, ep)
	return f.Complete(ctx, ep, records, err, apply)
}

// Complete finishes a fetch performed elsewhere: a non-nil err is reported
// and nothing is applied, otherwise records are applied.
func (f *Fetcher) Complete(ctx context.Context, ep Endpoint, records []record.Record, err error, apply ApplyFunc) Result {
	if err != nil {
		return f.failed(ep, err)
	}
	return f.Apply(ctx, ep, records, apply)
}

// Apply runs apply over records in order, stopping when ctx ends.
func (f *Fetcher) Apply(ctx context.Context, ep Endpoint, records []record.Record, apply ApplyFunc) Result {
	result := Result{Endpoint: ep.Label(), Records: len(records)}
	for i, rec := range records {
		if ctx.Err() != nil {
			result.Canceled = true
			f.opts.Logger.Debug("remote apply canceled",
				zap.String("endpoint", result.Endpoint),
				zap.Int("remaining", len(records)-i),
			)
			return result
		}
		if apply == nil {
			result.Skipped++
			continue
		}
		if err := apply(ctx, rec); err != nil {
			result.Skipped++
			f.opts.Logger.Warn("remote record skipped",
				zap.String("endpoint", result.Endpoint),
				zap.String("record", rec.ID),
				zap.Error(err),
			)
			continue
		}
		result.Applied++
	}
	f.opts.Logger.Debug("remote records applied",
		zap.String("endpoint", result.Endpoint),
		zap.Int("applied", result.Applied),
		zap.Int("skipped", result.Skipped),
	)
	return result
}

// Go fetches ep on its own goroutine and dispatches the apply phase and the
// done callback onto the configured dispatcher. done may be nil.
func (f *Fetcher) Go(ctx context.Context, ep Endpoint, apply ApplyFunc, done func(Result)) {
	go func() {
		records, err := f.Fetch(ctx, ep)
		f.opts.Dispatcher.Dispatch(func() {
			result := f.Complete(ctx, ep, records, err, apply)
			if done != nil {
				done(result)
			}
		})
	}()
}

func (f *Fetcher) failed(ep Endpoint, err error) Result {
	result := Result{Endpoint: ep.Label(), Err: err}

	var ferr *FetchError
	if !errors.As(err, &ferr) {
		ferr = &FetchError{Endpoint: ep.Label(), Stage: StageRequest, Err: err}
		result.Err = ferr
	}
	if ferr.Stage == StageCanceled {
		result.Canceled = true
		f.opts.Logger.Debug("remote fetch canceled", zap.String("endpoint", ferr.Endpoint))
		return result
	}

	f.opts.Logger.Warn("remote fetch failed",
		zap.String("endpoint", ferr.Endpoint),
		zap.String("stage", string(ferr.Stage)),
		zap.Int("status", ferr.Status),
		zap.Error(ferr.Err),
	)
	if f.opts.Reporter != nil {
		f.opts.Reporter.FetchFailed(ep, ferr)
	}
	return result
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Endpoint, r.Err)
	}
	return fmt.Sprintf("%s: %d/%d applied", r.Endpoint, r.Applied, r.Records)
}
