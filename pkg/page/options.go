package page

import (
	"net/http"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/loop"
	"github.com/goliatone/go-dynui/pkg/remote"
	"github.com/goliatone/go-dynui/pkg/sequence"
)

const defaultConcurrency = 4

// Submission is the payload collected on a submit event.
type Submission struct {
	Form   string                         `json:"form"`
	Inputs map[string]string              `json:"inputs"`
	Lists  map[string][]map[string]string `json:"lists,omitempty"`
}

type Options struct {
	// Dispatcher serializes callbacks from timers, debounced input and
	// asynchronous fetches onto the UI thread.
	Dispatcher loop.Dispatcher
	HTTPClient *http.Client
	Reporter   remote.Reporter
	Clock      sequence.Clock
	OnSubmit   func(Submission)
	Logger     *zap.Logger

	// ThemeSelector resolves markers from a registered theme instead of the
	// inline theme section of the config.
	ThemeSelector theme.ThemeSelector
	ThemeName     string
	ThemeVariant  string
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Dispatcher: loop.Inline,
		HTTPClient: http.DefaultClient,
		Clock:      sequence.RealClock(),
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
	if opts.Dispatcher == nil {
		opts.Dispatcher = loop.Inline
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = sequence.RealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithDispatcher(dispatcher loop.Dispatcher) OptionFn {
	return func(o *Options) {
		o.Dispatcher = dispatcher
	}
}

func WithHTTPClient(client *http.Client) OptionFn {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

// WithReporter receives remote fetch failures.
func WithReporter(reporter remote.Reporter) OptionFn {
	return func(o *Options) {
		o.Reporter = reporter
	}
}

// WithClock drives sequence timers, mostly for tests.
func WithClock(clock sequence.Clock) OptionFn {
	return func(o *Options) {
		o.Clock = clock
	}
}

func WithOnSubmit(fn func(Submission)) OptionFn {
	return func(o *Options) {
		o.OnSubmit = fn
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithThemeSelector resolves class markers through a go-theme selector.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) OptionFn {
	return func(o *Options) {
		o.ThemeSelector = selector
		o.ThemeName = name
		o.ThemeVariant = variant
	}
}
