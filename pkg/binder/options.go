package binder

import (
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

type Options struct {
	Sanitizer *bluemonday.Policy
	Logger    *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Sanitizer: DefaultSanitizer(),
		Logger:    zap.NewNop(),
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
	if opts.Sanitizer == nil {
		opts.Sanitizer = DefaultSanitizer()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

// WithSanitizer replaces the html slot policy, e.g. bluemonday.StrictPolicy().
func WithSanitizer(policy *bluemonday.Policy) OptionFn {
	return func(o *Options) {
		o.Sanitizer = policy
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}
