// Package sequence runs timed multi-step reveal sequences.
//
// A sequence moves through its steps S0..Sn as a finite state machine. S0
// runs as soon as Start is called; after each action the terminal condition
// is evaluated first and, when it does not hold, the next step is scheduled
// after the current step's delay. Reaching the end of the list stops the
// sequence unless it loops.
//
// Every pending transition is cancelable. Cancel, or canceling the context
// passed to Start, stops the timer and any callback that still fires is
// ignored.
package sequence
