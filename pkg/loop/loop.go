// Package loop provides the single cooperative event loop the page
// controller runs on. Tasks posted from timers, network callbacks or input
// handlers execute one at a time in post order, so UI mutations never
// interleave.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrStopped is returned when posting to a loop whose Run has returned.
	ErrStopped = errors.New("loop: stopped")
	// ErrRunning is returned when Run or RunPending is called while another
	// caller is already draining the loop.
	ErrRunning = errors.New("loop: already running")
)

// Dispatcher schedules fn to run on the UI thread.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// Inline runs tasks immediately on the calling goroutine.
var Inline Dispatcher = DispatcherFunc(func(fn func()) {
	if fn != nil {
		fn()
	}
})

// Loop is a serial task queue. Posting never blocks.
type Loop struct {
	logger *zap.Logger

	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	running bool
	stopped bool
}

// New returns an idle loop; call Run to start processing.
func New(fns ...OptionFn) *Loop {
	opts := NewOptions(fns...)
	return &Loop{
		logger: opts.Logger,
		wake:   make(chan struct{}, 1),
	}
}

// Dispatch implements Dispatcher. Tasks posted after the loop stopped are
// dropped.
func (l *Loop) Dispatch(fn func()) {
	if !l.Post(fn) {
		l.logger.Debug("loop task dropped after stop")
	}
}

// Post queues fn and reports whether it was accepted.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do posts fn and waits until it has run or ctx is done.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes tasks until ctx is done. Tasks still queued at that point
// are discarded and later posts are rejected.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrRunning
	}
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.stopped = true
		dropped := len(l.queue)
		l.queue = nil
		l.mu.Unlock()
		if dropped > 0 {
			l.logger.Debug("loop stopped with pending tasks", zap.Int("dropped", dropped))
		}
	}()

	for {
		l.drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunPending executes queued tasks on the calling goroutine until the queue
// is empty and returns how many ran. It lets synchronous callers such as the
// CLI drive the loop without a goroutine, and fails with ErrRunning while Run
// or another RunPending owns the loop.
func (l *Loop) RunPending() (int, error) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return 0, ErrRunning
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()
	return l.drain(), nil
}

// drain runs queued tasks in post order. Callers must own the loop.
func (l *Loop) drain() int {
	ran := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return ran
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.run(task)
		ran++
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", zap.Error(fmt.Errorf("%v", r)))
		}
	}()
	task()
}
