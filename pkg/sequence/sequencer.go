package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/dom"
	"github.com/goliatone/go-dynui/pkg/visibility"
	"github.com/goliatone/go-dynui/pkg/visibility/expr"
)

var (
	// ErrNoSteps is returned by New for an empty step list.
	ErrNoSteps = errors.New("sequence: no steps")
	// ErrStarted is returned by Start on a sequencer that already ran.
	ErrStarted = errors.New("sequence: already started")
)

// Action performs a step's visual transition and returns how many items it
// revealed.
type Action func(ctx context.Context) int

// Step is one stage of a sequence. Delay is the pause between this step's
// action and the next step.
type Step struct {
	Name   string
	Delay  time.Duration
	Action Action
}

// Status is the lifecycle state of a sequencer.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusFinished
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	case StatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Reason explains why a sequence stopped.
type Reason string

const (
	ReasonExhausted Reason = "exhausted"
	ReasonCondition Reason = "condition"
	ReasonCanceled  Reason = "canceled"
)

// State is a snapshot of a sequencer.
type State struct {
	Status Status
	Reason Reason
	// Position is the index of the last step run, -1 before the first.
	Position int
	Step     string
	// Count accumulates the values returned by step actions.
	Count int
	// Iteration counts completed passes over the list when looping.
	Iteration int
	Runs      int
}

// Condition reports whether the sequence reached its terminal state.
type Condition func(State) bool

// Sequencer runs steps in order as an explicit state machine. After each
// action the condition is checked first; only when it does not hold is the
// next step scheduled.
type Sequencer struct {
	steps []Step
	opts  Options

	mu      sync.Mutex
	state   State
	gen     uint64
	timer   Timer
	ctx     context.Context
	stopCtx func() bool
	done    chan struct{}
}

// New validates steps and returns an idle sequencer.
func New(steps []Step, fns ...OptionFn) (*Sequencer, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	for i, step := range steps {
		if step.Delay < 0 {
			return nil, fmt.Errorf("sequence: step %d: negative delay", i)
		}
	}
	return &Sequencer{
		steps: append([]Step(nil), steps...),
		opts:  NewOptions(fns...),
		state: State{Position: -1},
		done:  make(chan struct{}),
	}, nil
}

// Start runs the first step immediately on the calling goroutine. Canceling
// ctx, for instance an element lifetime, cancels the sequence.
func (s *Sequencer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.state.Status != StatusIdle {
		s.mu.Unlock()
		return ErrStarted
	}
	s.state.Status = StatusRunning
	s.ctx = ctx
	s.gen++
	gen := s.gen
	if ctx.Err() != nil {
		final := s.finishLocked(StatusCanceled, ReasonCanceled)
		s.mu.Unlock()
		s.notifyDone(final)
		return nil
	}
	s.stopCtx = context.AfterFunc(ctx, func() { s.Cancel() })
	s.mu.Unlock()

	s.run(gen, 0)
	return nil
}

// Cancel stops the sequence and clears the pending transition. It reports
// false when the sequence was not running. Timer callbacks that were already
// in flight are ignored.
func (s *Sequencer) Cancel() bool {
	s.mu.Lock()
	if s.state.Status != StatusRunning {
		s.mu.Unlock()
		return false
	}
	final := s.finishLocked(StatusCanceled, ReasonCanceled)
	s.mu.Unlock()
	s.notifyDone(final)
	return true
}

// Done is closed once the sequence stops for any reason.
func (s *Sequencer) Done() <-chan struct{} {
	return s.done
}

// State returns a snapshot.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sequencer) run(gen uint64, pos int) {
	s.mu.Lock()
	if gen != s.gen || s.state.Status != StatusRunning {
		s.mu.Unlock()
		return
	}
	step := s.steps[pos]
	ctx := s.ctx
	s.mu.Unlock()

	revealed := 0
	if step.Action != nil {
		revealed = step.Action(ctx)
	}

	s.mu.Lock()
	if gen != s.gen || s.state.Status != StatusRunning {
		s.mu.Unlock()
		return
	}
	s.state.Position = pos
	s.state.Step = step.Name
	s.state.Count += revealed
	s.state.Runs++
	snapshot := s.state

	var final *State
	next := pos + 1
	switch {
	case s.opts.Condition != nil && s.opts.Condition(snapshot):
		final = s.finishLocked(StatusFinished, ReasonCondition)
	case next >= len(s.steps) && !s.opts.Loop:
		final = s.finishLocked(StatusFinished, ReasonExhausted)
	default:
		if next >= len(s.steps) {
			next = 0
			s.state.Iteration++
		}
		s.schedule(gen, next, step.Delay)
	}
	s.mu.Unlock()

	s.opts.Logger.Debug("sequence step",
		zap.Int("position", pos),
		zap.String("step", step.Name),
		zap.Int("count", snapshot.Count),
	)
	if s.opts.OnStep != nil {
		s.opts.OnStep(snapshot)
	}
	if final != nil {
		s.notifyDone(final)
	}
}

func (s *Sequencer) schedule(gen uint64, next int, delay time.Duration) {
	s.timer = s.opts.Clock.AfterFunc(delay, func() {
		s.opts.Dispatcher.Dispatch(func() {
			s.run(gen, next)
		})
	})
}

func (s *Sequencer) finishLocked(status Status, reason Reason) *State {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.stopCtx != nil {
		s.stopCtx()
		s.stopCtx = nil
	}
	s.state.Status = status
	s.state.Reason = reason
	close(s.done)
	final := s.state
	return &final
}

func (s *Sequencer) notifyDone(final *State) {
	s.opts.Logger.Debug("sequence stopped",
		zap.String("reason", string(final.Reason)),
		zap.Int("count", final.Count),
	)
	if s.opts.OnDone != nil {
		s.opts.OnDone(*final)
	}
}

// ExprCondition compiles a predicate over the sequence state. The predicate
// sees count, position, iteration and runs, e.g. "count >= 6".
func ExprCondition(rule string) (Condition, error) {
	if strings.TrimSpace(rule) == "" {
		return nil, errors.New("sequence: empty condition")
	}
	program, err := expr.Compile(rule)
	if err != nil {
		return nil, fmt.Errorf("sequence: condition: %w", err)
	}
	return func(st State) bool {
		ok, err := program.Eval(visibility.Context{Values: map[string]any{
			"count":     st.Count,
			"position":  st.Position,
			"iteration": st.Iteration,
			"runs":      st.Runs,
			"step":      st.Step,
		}})
		return err == nil && ok
	}, nil
}

// Reveal returns an action that applies marker to every attached element in
// ids and reports how many became visible. Detached or unknown ids and
// elements already carrying marker are not counted.
func Reveal(doc *dom.Document, marker string, ids ...string) Action {
	targets := append([]string(nil), ids...)
	return func(context.Context) int {
		revealed := 0
		for _, id := range targets {
			el, ok := doc.ByID(id)
			if !ok {
				continue
			}
			if visibility.ApplyVisibility(el, true, marker) {
				revealed++
			}
		}
		return revealed
	}
}
