package remote

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/loop"
)

const defaultTimeout = 10 * time.Second

// Reporter receives fetch failures so the page can surface them.
type Reporter interface {
	FetchFailed(endpoint Endpoint, err *FetchError)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(endpoint Endpoint, err *FetchError)

func (f ReporterFunc) FetchFailed(endpoint Endpoint, err *FetchError) {
	f(endpoint, err)
}

type Options struct {
	Client *http.Client
	// Timeout applies to endpoints that do not set their own.
	Timeout    time.Duration
	UserAgent  string
	Reporter   Reporter
	Dispatcher loop.Dispatcher
	Logger     *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Client:     http.DefaultClient,
		Timeout:    defaultTimeout,
		UserAgent:  "go-dynui",
		Dispatcher: loop.Inline,
		Logger:     zap.NewNop(),
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = loop.Inline
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithHTTPClient(client *http.Client) OptionFn {
	return func(o *Options) {
		o.Client = client
	}
}

func WithTimeout(timeout time.Duration) OptionFn {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

func WithUserAgent(agent string) OptionFn {
	return func(o *Options) {
		o.UserAgent = agent
	}
}

func WithReporter(reporter Reporter) OptionFn {
	return func(o *Options) {
		o.Reporter = reporter
	}
}

// WithDispatcher routes the apply phase of asynchronous fetches, usually to
// the page event loop.
func WithDispatcher(dispatcher loop.Dispatcher) OptionFn {
	return func(o *Options) {
		o.Dispatcher = dispatcher
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}
