package fieldlist

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/dom"
)

const defaultIDAttempts = 8

// IDFunc generates group identifiers.
type IDFunc func() string

type Options struct {
	// Fields names the sub-fields of every group, in display order.
	Fields []string
	// Max caps the number of groups; zero means unbounded.
	Max        int
	IDFunc     IDFunc
	IDAttempts int
	Logger     *zap.Logger

	// Document and Container enable DOM materialization: each group is
	// rendered as a child of the container element.
	Document  *dom.Document
	Container string
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		IDFunc:     NewUUID,
		IDAttempts: defaultIDAttempts,
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
	if opts.IDFunc == nil {
		opts.IDFunc = NewUUID
	}
	if opts.IDAttempts <= 0 {
		opts.IDAttempts = defaultIDAttempts
	}
	if opts.Max < 0 {
		opts.Max = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

// NewUUID is the default IDFunc.
func NewUUID() string {
	return uuid.NewString()
}

func WithFields(fields ...string) OptionFn {
	return func(o *Options) {
		o.Fields = o.Fields[:0]
		for _, field := range fields {
			if field = strings.TrimSpace(field); field != "" {
				o.Fields = append(o.Fields, field)
			}
		}
	}
}

// WithMax caps the list at n groups. Add returns ErrLimitReached once full.
func WithMax(n int) OptionFn {
	return func(o *Options) {
		o.Max = n
	}
}

func WithIDFunc(fn IDFunc) OptionFn {
	return func(o *Options) {
		o.IDFunc = fn
	}
}

// WithIDAttempts bounds how many identifiers Add draws before giving up on a
// colliding generator.
func WithIDAttempts(n int) OptionFn {
	return func(o *Options) {
		o.IDAttempts = n
	}
}

// WithDocument materializes groups under the element with id container.
func WithDocument(doc *dom.Document, container string) OptionFn {
	return func(o *Options) {
		o.Document = doc
		o.Container = strings.TrimSpace(container)
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}
