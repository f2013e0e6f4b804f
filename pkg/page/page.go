package page

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/binder"
	"github.com/goliatone/go-dynui/pkg/config"
	"github.com/goliatone/go-dynui/pkg/dom"
	"github.com/goliatone/go-dynui/pkg/fieldlist"
	"github.com/goliatone/go-dynui/pkg/remote"
	"github.com/goliatone/go-dynui/pkg/sequence"
	"github.com/goliatone/go-dynui/pkg/styles"
	"github.com/goliatone/go-dynui/pkg/visibility"
	"github.com/goliatone/go-dynui/pkg/visibility/rules"
)

var (
	// ErrUnknownEndpoint is returned when syncing an endpoint the page does not declare.
	ErrUnknownEndpoint = errors.New("page: unknown endpoint")
	// ErrUnknownSequence is returned when starting a sequence the page does not declare.
	ErrUnknownSequence = errors.New("page: unknown sequence")
)

type endpointBinding struct {
	endpoint remote.Endpoint
	slots    binder.SlotMap
	retry    *remote.RetryPolicy
	poll     time.Duration
	trigger  string
}

type sequenceBinding struct {
	cfg   config.SequenceConfig
	steps []sequence.Step
	cond  sequence.Condition
}

// Controller wires a page document to its visibility rules, field lists,
// remote endpoints and reveal sequences. Event bindings are registered once
// by New; each binding closes over its own configuration.
type Controller struct {
	doc     *dom.Document
	opts    Options
	markers styles.Markers

	rules       *rules.Engine
	binder      *binder.Binder
	fetcher     *remote.Fetcher
	lists       map[string]*fieldlist.List
	listOrder   []config.ListConfig
	endpoints   []*endpointBinding
	sequences   map[string]*sequenceBinding
	bindings    []binding
	concurrency int
	debounced   func(func())

	mu      sync.Mutex
	state   visibility.InputState
	report  rules.Report
	running map[string]*sequence.Sequencer
	inputs  map[string]string
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
}

// New builds a controller for doc from cfg. Predicates, slot maps and
// sequence conditions are all compiled here, so a controller that was built
// successfully cannot fail on a malformed rule later.
func New(doc *dom.Document, cfg config.Document, fns ...OptionFn) (*Controller, error) {
	if doc == nil {
		return nil, errors.New("page: document is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := NewOptions(fns...)
	markers, err := resolveMarkers(cfg, opts)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		doc:         doc,
		opts:        opts,
		markers:     markers,
		binder:      binder.New(doc, binder.WithLogger(opts.Logger.Named("binder"))),
		lists:       make(map[string]*fieldlist.List, len(cfg.Lists)),
		listOrder:   cfg.Lists,
		sequences:   make(map[string]*sequenceBinding, len(cfg.Sequences)),
		concurrency: cfg.Concurrency,
		running:     make(map[string]*sequence.Sequencer),
	}
	if c.concurrency <= 0 {
		c.concurrency = defaultConcurrency
	}
	if d := cfg.Debounce.Std(); d > 0 {
		c.debounced = debounce.New(d)
	}

	c.fetcher = remote.New(
		remote.WithHTTPClient(opts.HTTPClient),
		remote.WithReporter(opts.Reporter),
		remote.WithDispatcher(opts.Dispatcher),
		remote.WithLogger(opts.Logger.Named("remote")),
	)

	if err := c.initRules(cfg.Rules); err != nil {
		return nil, err
	}
	c.initLists(cfg.Lists)
	c.initEndpoints(cfg.Endpoints)
	if err := c.initSequences(cfg.Sequences); err != nil {
		return nil, err
	}

	c.state, c.inputs = c.collectInputs()
	c.bindings = c.buildBindings(cfg)
	return c, nil
}

func resolveMarkers(cfg config.Document, opts Options) (styles.Markers, error) {
	if opts.ThemeSelector != nil {
		base, err := styles.FromSelector(opts.ThemeSelector, opts.ThemeName, opts.ThemeVariant)
		if err != nil {
			return styles.Defaults(), fmt.Errorf("page: %w", err)
		}
		return cfg.Markers.Merge(base), nil
	}
	markers, err := cfg.ResolveMarkers()
	if err != nil {
		return styles.Defaults(), fmt.Errorf("page: %w", err)
	}
	return markers, nil
}

func (c *Controller) initRules(cfgs []config.RuleConfig) error {
	c.rules = rules.New(
		rules.WithMarker(c.markers.Visible),
		rules.WithLogger(c.opts.Logger.Named("visibility")),
	)
	list := make([]rules.Rule, 0, len(cfgs))
	for _, rc := range cfgs {
		rule := rules.Rule{Name: rc.Name, Target: rc.Target, When: rc.When}
		if strings.TrimSpace(rc.Marker) != "" {
			rule.Marker = c.markers.Lookup(rc.Marker)
		}
		list = append(list, rule)
	}
	if err := c.rules.Register(list...); err != nil {
		return fmt.Errorf("page: %w", err)
	}
	return nil
}

func (c *Controller) initLists(cfgs []config.ListConfig) {
	for _, lc := range cfgs {
		c.lists[lc.Name] = fieldlist.New(
			fieldlist.WithFields(lc.Fields...),
			fieldlist.WithMax(lc.Max),
			fieldlist.WithDocument(c.doc, lc.Container),
			fieldlist.WithLogger(c.opts.Logger.Named("fieldlist").With(zap.String("list", lc.Name))),
		)
	}
}

func (c *Controller) initEndpoints(cfgs []config.EndpointConfig) {
	for _, ec := range cfgs {
		eb := &endpointBinding{
			endpoint: remote.Endpoint{
				Name:           ec.Name,
				URL:            ec.URL,
				Method:         ec.Method,
				Headers:        ec.Headers,
				Query:          ec.Query,
				ResultsPath:    ec.ResultsPath,
				IDField:        ec.IDField,
				AttributesPath: ec.AttributesPath,
				Timeout:        ec.Timeout.Std(),
			},
			slots:   ec.Slots,
			poll:    ec.Poll.Std(),
			trigger: strings.TrimSpace(ec.Trigger),
		}
		if ec.Retry != nil {
			policy := remote.DefaultRetryPolicy()
			if ec.Retry.MaxAttempts > 0 {
				policy.MaxAttempts = ec.Retry.MaxAttempts
			}
			if ec.Retry.InitialInterval > 0 {
				policy.InitialInterval = ec.Retry.InitialInterval.Std()
			}
			if ec.Retry.MaxInterval > 0 {
				policy.MaxInterval = ec.Retry.MaxInterval.Std()
			}
			eb.retry = &policy
		}
		c.endpoints = append(c.endpoints, eb)
	}
}

func (c *Controller) initSequences(cfgs []config.SequenceConfig) error {
	for _, sc := range cfgs {
		sb := &sequenceBinding{cfg: sc}
		for i, step := range sc.Steps {
			name := step.Name
			if name == "" {
				name = fmt.Sprintf("step-%d", i)
			}
			sb.steps = append(sb.steps, sequence.Step{
				Name:   name,
				Delay:  step.Delay.Std(),
				Action: sequence.Reveal(c.doc, c.markers.Lookup(step.Marker), step.Reveal...),
			})
		}
		if strings.TrimSpace(sc.Until) != "" {
			cond, err := sequence.ExprCondition(sc.Until)
			if err != nil {
				return fmt.Errorf("page: sequence %q: %w", sc.Name, err)
			}
			sb.cond = cond
		}
		c.sequences[sc.Name] = sb
	}
	return nil
}

// Start creates the initial field groups, applies visibility for the current
// inputs and starts autostart sequences. ctx bounds every sequence started by
// the controller.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return errors.New("page: controller already started")
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	var errs []error
	for _, lc := range c.listOrder {
		list := c.lists[lc.Name]
		for list.Len() < lc.Initial {
			if _, err := list.Add(); err != nil {
				errs = append(errs, fmt.Errorf("page: list %q: %w", lc.Name, err))
				break
			}
		}
	}

	c.Refresh()

	for _, name := range c.SequenceNames() {
		if c.sequences[name].cfg.AutoStart {
			if err := c.StartSequence(name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close cancels running sequences, pending fetches and any context derived
// from Start. Responses that arrive afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	cancel := c.cancel
	running := make([]*sequence.Sequencer, 0, len(c.running))
	for _, seq := range c.running {
		running = append(running, seq)
	}
	c.mu.Unlock()

	for _, seq := range running {
		seq.Cancel()
	}
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Refresh re-evaluates every visibility rule against the current inputs.
func (c *Controller) Refresh() rules.Report {
	report := c.rules.Refresh(c.doc, c.State())
	c.mu.Lock()
	c.report = report
	c.mu.Unlock()
	return report
}

// State returns a copy of the tracked input values.
func (c *Controller) State() visibility.InputState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// LastReport returns the outcome of the most recent visibility refresh.
func (c *Controller) LastReport() rules.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Document returns the page document.
func (c *Controller) Document() *dom.Document {
	return c.doc
}

// Markers returns the resolved class markers.
func (c *Controller) Markers() styles.Markers {
	return c.markers
}

// List returns the named field list.
func (c *Controller) List(name string) (*fieldlist.List, bool) {
	list, ok := c.lists[name]
	return list, ok
}

// Sequence returns the most recent run of the named sequence.
func (c *Controller) Sequence(name string) (*sequence.Sequencer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, ok := c.running[name]
	return seq, ok
}

// Inputs returns the tracked input names, sorted.
func (c *Controller) Inputs() []string {
	state := c.State()
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InputID returns the element id of the input tracked under name.
func (c *Controller) InputID(name string) (string, bool) {
	id, ok := c.inputs[name]
	return id, ok && id != ""
}

// ListNames returns the declared field lists in declaration order.
func (c *Controller) ListNames() []string {
	names := make([]string, 0, len(c.listOrder))
	for _, lc := range c.listOrder {
		names = append(names, lc.Name)
	}
	return names
}

// EndpointNames returns the declared endpoints in declaration order.
func (c *Controller) EndpointNames() []string {
	names := make([]string, 0, len(c.endpoints))
	for _, eb := range c.endpoints {
		names = append(names, eb.endpoint.Name)
	}
	return names
}

// SequenceNames returns the declared sequences, sorted.
func (c *Controller) SequenceNames() []string {
	names := make([]string, 0, len(c.sequences))
	for name := range c.sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartSequence (re)starts the named sequence, canceling a previous run. A
// sequence scoped to an element that is no longer attached does not start.
func (c *Controller) StartSequence(name string) error {
	sb, ok := c.sequences[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSequence, name)
	}

	c.mu.Lock()
	prev := c.running[name]
	base := c.ctx
	c.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}
	if base == nil {
		base = context.Background()
	}

	ctx, release := base, context.CancelFunc(func() {})
	if scope := strings.TrimSpace(sb.cfg.Scope); scope != "" {
		el, ok := c.doc.ByID(scope)
		if !ok {
			c.opts.Logger.Debug("sequence scope missing", zap.String("sequence", name), zap.String("scope", scope))
			return nil
		}
		ctx, release = c.doc.Lifetime(base, el)
	}

	fns := []sequence.OptionFn{
		sequence.WithClock(c.opts.Clock),
		sequence.WithDispatcher(c.opts.Dispatcher),
		sequence.WithCondition(sb.cond),
		sequence.WithOnDone(func(sequence.State) { release() }),
		sequence.WithLogger(c.opts.Logger.Named("sequence").With(zap.String("sequence", name))),
	}
	if sb.cfg.Loop {
		fns = append(fns, sequence.WithLoop())
	}
	seq, err := sequence.New(sb.steps, fns...)
	if err != nil {
		release()
		return fmt.Errorf("page: sequence %q: %w", name, err)
	}

	c.mu.Lock()
	c.running[name] = seq
	c.mu.Unlock()
	return seq.Start(ctx)
}

func (c *Controller) collectInputs() (visibility.InputState, map[string]string) {
	state := visibility.InputState{}
	ids := map[string]string{}
	for _, el := range c.doc.Find(isFormControl) {
		if _, grouped := el.Attr(fieldlist.GroupAttr); grouped {
			continue
		}
		if key := inputKey(el); key != "" {
			state[key] = el.Value()
			ids[key] = el.ID()
		}
	}
	return state, ids
}

func (c *Controller) listFor(group string) (*fieldlist.List, bool) {
	for _, list := range c.lists {
		if list.Has(group) {
			return list, true
		}
	}
	return nil, false
}

func (c *Controller) scheduleRefresh() {
	if c.debounced == nil {
		c.Refresh()
		return
	}
	c.debounced(func() {
		c.opts.Dispatcher.Dispatch(func() { c.Refresh() })
	})
}

func isFormControl(el *dom.Element) bool {
	switch el.Tag() {
	case "input", "select", "textarea":
		return true
	default:
		return false
	}
}

func inputKey(el *dom.Element) string {
	if name, ok := el.Attr("name"); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	return el.ID()
}
