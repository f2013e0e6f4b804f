package sequence

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/loop"
)

type Options struct {
	// Loop restarts from the first step when the list is exhausted.
	Loop       bool
	Condition  Condition
	Clock      Clock
	Dispatcher loop.Dispatcher
	// OnStep runs after every step action, OnDone once the sequence stops.
	OnStep func(State)
	OnDone func(State)
	Logger *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Clock:      RealClock(),
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
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = loop.Inline
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

// WithLoop makes the sequence cycle until its condition holds or it is
// canceled.
func WithLoop() OptionFn {
	return func(o *Options) {
		o.Loop = true
	}
}

// WithCondition sets the terminal condition, checked after every step
// before the next one is scheduled.
func WithCondition(cond Condition) OptionFn {
	return func(o *Options) {
		o.Condition = cond
	}
}

func WithClock(clock Clock) OptionFn {
	return func(o *Options) {
		o.Clock = clock
	}
}

// WithDispatcher routes timer callbacks, usually onto the page event loop.
func WithDispatcher(dispatcher loop.Dispatcher) OptionFn {
	return func(o *Options) {
		o.Dispatcher = dispatcher
	}
}

func WithOnStep(fn func(State)) OptionFn {
	return func(o *Options) {
		o.OnStep = fn
	}
}

func WithOnDone(fn func(State)) OptionFn {
	return func(o *Options) {
		o.OnDone = fn
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}
