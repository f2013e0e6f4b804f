package records

import "github.com/goliatone/go-dynui/pkg/record"

const (
	defaultRoutePath = "/api/records"
	defaultLimit     = 50
	maxLimit         = 200
)

// Options configures the records API.
type Options struct {
	RoutePath   string
	SearchParam string
	LimitParam  string
	OffsetParam string
	// DefaultLimit applies when the request names no limit; MaxLimit caps
	// any requested limit.
	DefaultLimit int
	MaxLimit     int

	// SearchFields are the attributes matched against the query. Empty
	// means the record ID plus every string attribute.
	SearchFields []string
	// Records replaces the embedded author collection.
	Records []record.Record
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    defaultRoutePath,
		SearchParam:  "q",
		LimitParam:   "limit",
		OffsetParam:  "offset",
		DefaultLimit: defaultLimit,
		MaxLimit:     maxLimit,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}

	def := DefaultOptions()
	if opts.RoutePath == "" {
		opts.RoutePath = def.RoutePath
	}
	if opts.SearchParam == "" {
		opts.SearchParam = def.SearchParam
	}
	if opts.LimitParam == "" {
		opts.LimitParam = def.LimitParam
	}
	if opts.OffsetParam == "" {
		opts.OffsetParam = def.OffsetParam
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = def.MaxLimit
	}
	if opts.DefaultLimit <= 0 || opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = min(def.DefaultLimit, opts.MaxLimit)
	}
	opts.SearchFields = append([]string(nil), opts.SearchFields...)
	if opts.Records != nil {
		opts.Records = append([]record.Record{}, opts.Records...)
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) { o.SearchParam = name }
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) { o.LimitParam = name }
}

func WithOffsetParam(name string) OptionFn {
	return func(o *Options) { o.OffsetParam = name }
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) { o.DefaultLimit = limit }
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) { o.MaxLimit = limit }
}

func WithSearchFields(fields ...string) OptionFn {
	return func(o *Options) { o.SearchFields = fields }
}

// WithRecords serves records instead of the embedded sample collection.
func WithRecords(records []record.Record) OptionFn {
	return func(o *Options) { o.Records = records }
}

// collection returns the configured records, falling back to the embedded
// sample data.
func (o Options) collection() ([]record.Record, error) {
	if o.Records != nil {
		return o.Records, nil
	}
	return DefaultRecords()
}
