package rules

import (
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/visibility"
)

type Options struct {
	// Evaluator replaces the bundled expression language when set.
	Evaluator visibility.Evaluator
	Marker    string
	Extras    map[string]any
	Logger    *zap.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Marker: visibility.DefaultMarker,
		Logger: zap.NewNop(),
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
	if strings.TrimSpace(opts.Marker) == "" {
		opts.Marker = visibility.DefaultMarker
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func WithEvaluator(evaluator visibility.Evaluator) OptionFn {
	return func(o *Options) {
		o.Evaluator = evaluator
	}
}

func WithMarker(marker string) OptionFn {
	return func(o *Options) {
		o.Marker = marker
	}
}

func WithExtras(extras map[string]any) OptionFn {
	return func(o *Options) {
		if len(extras) == 0 {
			o.Extras = nil
			return
		}
		o.Extras = make(map[string]any, len(extras))
		for k, v := range extras {
			o.Extras[k] = v
		}
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}
