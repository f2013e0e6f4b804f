package sequence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/goliatone/go-dynui/pkg/dom"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward and fires due timers in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at < c.timers[j].at })
		var due *manualTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && t.at <= c.now {
				due = t
				break
			}
		}
		if due != nil {
			due.fired = true
		}
		c.mu.Unlock()
		if due == nil {
			return
		}
		due.fn()
	}
}

func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func fixedAction(n int, log *[]string, name string) Action {
	return func(context.Context) int {
		*log = append(*log, name)
		return n
	}
}

func TestConditionEndsSequenceAtSecondStep(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	var ran []string
	cond, err := ExprCondition("count == 6")
	if err != nil {
		t.Fatalf("condition: %v", err)
	}
	seq, err := New([]Step{
		{Name: "first", Delay: time.Second, Action: fixedAction(3, &ran, "first")},
		{Name: "second", Delay: time.Second, Action: fixedAction(3, &ran, "second")},
	}, WithClock(clock), WithLoop(), WithCondition(cond))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := seq.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if st := seq.State(); st.Position != 0 || st.Count != 3 || st.Status != StatusRunning {
		t.Fatalf("expected S0 to run immediately, got %+v", st)
	}

	clock.Advance(999 * time.Millisecond)
	if seq.State().Position != 0 {
		t.Fatalf("S1 must wait for the full delay")
	}

	clock.Advance(time.Millisecond)
	st := seq.State()
	if st.Position != 1 || st.Count != 6 {
		t.Fatalf("expected S1 with count 6, got %+v", st)
	}
	if st.Status != StatusFinished || st.Reason != ReasonCondition {
		t.Fatalf("expected terminal by condition, got %+v", st)
	}
	select {
	case <-seq.Done():
	default:
		t.Fatalf("done must be closed")
	}

	clock.Advance(10 * time.Second)
	if diff := cmp.Diff([]string{"first", "second"}, ran); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
	if clock.Pending() != 0 {
		t.Fatalf("no transition may remain scheduled")
	}
}

func TestExhaustedWithoutLoop(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	var ran []string
	var final State
	seq, err := New([]Step{
		{Name: "a", Delay: 100 * time.Millisecond, Action: fixedAction(1, &ran, "a")},
		{Name: "b", Delay: 100 * time.Millisecond, Action: fixedAction(1, &ran, "b")},
		{Name: "c", Action: fixedAction(1, &ran, "c")},
	}, WithClock(clock), WithOnDone(func(s State) { final = s }))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := seq.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(100 * time.Millisecond)
	clock.Advance(100 * time.Millisecond)

	if diff := cmp.Diff([]string{"a", "b", "c"}, ran); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
	if final.Reason != ReasonExhausted || final.Count != 3 {
		t.Fatalf("unexpected final state %+v", final)
	}
}

func TestConditionCheckedBeforeAdvancing(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	var ran []string
	seq, err := New([]Step{
		{Name: "a", Delay: time.Second, Action: fixedAction(6, &ran, "a")},
		{Name: "b", Action: fixedAction(1, &ran, "b")},
	}, WithClock(clock), WithCondition(func(s State) bool { return s.Count >= 6 }))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_ = seq.Start(context.Background())
	clock.Advance(time.Minute)

	if diff := cmp.Diff([]string{"a"}, ran); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
	if seq.State().Reason != ReasonCondition {
		t.Fatalf("expected condition to win, got %+v", seq.State())
	}
}

func TestLoopWrapsAround(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	var ran []string
	seq, err := New([]Step{
		{Name: "a", Delay: time.Second, Action: fixedAction(1, &ran, "a")},
		{Name: "b", Delay: time.Second, Action: fixedAction(1, &ran, "b")},
	}, WithClock(clock), WithLoop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_ = seq.Start(context.Background())
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
	}
	if diff := cmp.Diff([]string{"a", "b", "a", "b"}, ran); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
	if seq.State().Iteration != 2 {
		t.Fatalf("expected two completed passes, got %d", seq.State().Iteration)
	}
	if !seq.Cancel() {
		t.Fatalf("expected cancel to stop a running loop")
	}
}

func TestCancelClearsPendingTransition(t *testing.T) {
	t.Parallel()

	clock := &manualClock{}
	var ran []string
	seq, err := New([]Step{
		{Name: "a", Delay: time.Second, Action: fixedAction(1, &ran, "a")},
		{Name: "b", Action: fixedAction(1, &ran, "b")},
	}, WithClock(clock))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_ = seq.Start(context.Background())

	if !seq.Cancel() {
		t.Fatalf("expected cancel to report true")
	}
	if seq.Cancel() {
		t.Fatalf("second cancel must report false")
	}
	clock.Advance(time.Minute)

	if diff := cmp.Diff([]string{"a"}, ran); diff != "" {
		t.Fatalf("canceled sequence kept running (-want +got):\n%s", diff)
	}
	st := seq.State()
	if st.Status != StatusCanceled || st.Reason != ReasonCanceled {
		t.Fatalf("unexpected state %+v", st)
	}
	if !errors.Is(seq.Start(context.Background()), ErrStarted) {
		t.Fatalf("restart must be rejected")
	}
}

func TestLateTimerCallbackIsIgnored(t *testing.T) {
	t.Parallel()

	var fire func()
	clock := clockFunc(func(_ time.Duration, fn func()) Timer {
		fire = fn
		return noopTimer{}
	})
	var ran []string
	seq, _ := New([]Step{
		{Name: "a", Delay: time.Second, Action: fixedAction(1, &ran, "a")},
		{Name: "b", Action: fixedAction(1, &ran, "b")},
	}, WithClock(clock))
	_ = seq.Start(context.Background())
	seq.Cancel()

	// The timer could not be stopped in time and fires anyway.
	fire()
	if diff := cmp.Diff([]string{"a"}, ran); diff != "" {
		t.Fatalf("late callback mutated the page (-want +got):\n%s", diff)
	}
}

func TestElementLifetimeCancelsSequence(t *testing.T) {
	t.Parallel()

	doc, err := dom.ParseString(`<ul id="list"><li id="i1"></li><li id="i2"></li><li id="i3"></li></ul>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	list, _ := doc.ByID("list")
	ctx, cancel := doc.Lifetime(context.Background(), list)
	defer cancel()

	clock := &manualClock{}
	seq, err := New([]Step{
		{Name: "first", Delay: time.Second, Action: Reveal(doc, "fade", "i1", "i2")},
		{Name: "second", Action: Reveal(doc, "fade", "i3", "missing")},
	}, WithClock(clock))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := seq.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	first, _ := doc.ByID("i1")
	if !first.HasClass("fade") || seq.State().Count != 2 {
		t.Fatalf("expected first reveal, got classes %v count %d", first.Classes(), seq.State().Count)
	}

	doc.Remove(list)
	select {
	case <-seq.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("sequence not canceled by element removal")
	}
	clock.Advance(time.Minute)

	third, _ := doc.ByID("i3")
	if third != nil {
		t.Fatalf("removed subtree must not be addressable")
	}
	if seq.State().Status != StatusCanceled {
		t.Fatalf("unexpected state %+v", seq.State())
	}
}

func TestRevealCountsOnlyNewlyVisible(t *testing.T) {
	t.Parallel()

	doc, err := dom.ParseString(`<ul><li id="i1" class="fade"></li><li id="i2"></li><li id="i3"></li></ul>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	clock := &manualClock{}
	seq, err := New([]Step{
		{Name: "first", Delay: time.Second, Action: Reveal(doc, "fade", "i1", "i2")},
		{Name: "second", Delay: time.Second, Action: Reveal(doc, "fade", "i2", "i3")},
	}, WithClock(clock), WithLoop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := seq.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
	}

	if got := seq.State().Count; got != 2 {
		t.Fatalf("expected only i2 and i3 counted across passes, got %d", got)
	}
	seq.Cancel()
}

func TestStartWithCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran []string
	seq, _ := New([]Step{{Name: "a", Action: fixedAction(1, &ran, "a")}}, WithClock(&manualClock{}))
	if err := seq.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(ran) != 0 || seq.State().Status != StatusCanceled {
		t.Fatalf("expected no step to run, got %v %+v", ran, seq.State())
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}
	if _, err := New([]Step{{Delay: -time.Second}}); err == nil {
		t.Fatalf("expected negative delay error")
	}
	if _, err := ExprCondition("count >"); err == nil {
		t.Fatalf("expected compile error")
	}
}

type clockFunc func(time.Duration, func()) Timer

func (f clockFunc) AfterFunc(d time.Duration, fn func()) Timer { return f(d, fn) }

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }
