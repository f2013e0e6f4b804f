// Package visibility defines the contracts used to decide whether a piece of
// the page should be shown, plus the class-marker toggle that applies the
// decision to an element.
//
// Rule evaluation lives behind the Evaluator interface so callers can swap the
// bundled expression language (package expr) for their own. The rules
// subpackage binds compiled rules to page elements.
package visibility

import (
	"strings"

	"github.com/goliatone/go-dynui/pkg/dom"
)

// DefaultMarker is the class toggled on elements that should be shown. The
// transition it drives is owned by the page stylesheet.
const DefaultMarker = "visible"

// Evaluator determines whether a target should be visible based on a rule
// string and the current input state.
type Evaluator interface {
	Eval(target, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values typically come from the
// current form state while Extras allows callers to inject arbitrary context
// such as user roles or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(target, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(target, rule string, ctx Context) (bool, error) {
	return fn(target, rule, ctx)
}

// InputState maps a field identifier to its current user-entered value. It
// is read at evaluation time and never persisted.
type InputState map[string]string

// Clone returns a copy of the state.
func (s InputState) Clone() InputState {
	if s == nil {
		return InputState{}
	}
	out := make(InputState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Context converts the state into an evaluation context, carrying extras
// through unchanged.
func (s InputState) Context(extras map[string]any) Context {
	values := make(map[string]any, len(s))
	for k, v := range s {
		values[strings.TrimSpace(k)] = v
	}
	return Context{Values: values, Extras: extras}
}

// ApplyVisibility sets the marker class on el when visible is true and clears
// it otherwise. Applying the same decision twice leaves the element
// unchanged. It reports whether the class list changed. An empty marker
// falls back to DefaultMarker.
func ApplyVisibility(el *dom.Element, visible bool, marker string) bool {
	if el == nil {
		return false
	}
	if strings.TrimSpace(marker) == "" {
		marker = DefaultMarker
	}
	return el.SetClass(marker, visible)
}
