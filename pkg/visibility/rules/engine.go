package rules

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/dom"
	"github.com/goliatone/go-dynui/pkg/visibility"
	"github.com/goliatone/go-dynui/pkg/visibility/expr"
)

// Rule shows Target while When holds for the current input state.
type Rule struct {
	Name   string
	Target string
	When   string
	// Marker overrides the engine marker for this rule.
	Marker string
}

type compiledRule struct {
	Rule
	program *expr.Program
}

// Report summarises a Refresh pass.
type Report struct {
	Visible []string
	Hidden  []string
	// Missing lists targets that are not attached; they are skipped.
	Missing []string
	// Failed maps rule names to evaluation errors; their targets keep their
	// previous state.
	Failed map[string]error
}

// Engine evaluates registered rules against input state and toggles the
// marker class on their targets.
type Engine struct {
	opts  Options
	rules []compiledRule
}

// New constructs an engine with default options plus any overrides.
func New(fns ...OptionFn) *Engine {
	return &Engine{opts: NewOptions(fns...)}
}

// Evaluate reports whether predicate holds for state.
func (e *Engine) Evaluate(state visibility.InputState, predicate string) (bool, error) {
	ctx := state.Context(e.opts.Extras)
	if e.opts.Evaluator != nil {
		return e.opts.Evaluator.Eval("", predicate, ctx)
	}
	program, err := expr.Compile(predicate)
	if err != nil {
		return false, err
	}
	return program.Eval(ctx)
}

// Register validates and stores rules. Rules are compiled once here so a
// malformed predicate surfaces at initialization rather than on input.
func (e *Engine) Register(rules ...Rule) error {
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		rule.Target = strings.TrimSpace(rule.Target)
		if rule.Target == "" {
			return fmt.Errorf("rules: rule %d missing target", i)
		}
		if strings.TrimSpace(rule.Name) == "" {
			rule.Name = rule.Target
		}
		entry := compiledRule{Rule: rule}
		if e.opts.Evaluator == nil {
			program, err := expr.Compile(rule.When)
			if err != nil {
				return fmt.Errorf("rules: rule %q: %w", rule.Name, err)
			}
			entry.program = program
		}
		compiled = append(compiled, entry)
	}
	e.rules = append(e.rules, compiled...)
	return nil
}

// Rules returns the registered rules in registration order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, 0, len(e.rules))
	for _, rule := range e.rules {
		out = append(out, rule.Rule)
	}
	return out
}

// Inputs lists the input identifiers read by registered rules. It is empty
// when a custom evaluator is configured.
func (e *Engine) Inputs() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, rule := range e.rules {
		for _, id := range rule.program.Identifiers() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Refresh evaluates every registered rule against state and applies the
// outcome to the rule's target in doc.
func (e *Engine) Refresh(doc *dom.Document, state visibility.InputState) Report {
	var report Report
	ctx := state.Context(e.opts.Extras)

	for _, rule := range e.rules {
		visible, err := e.eval(rule, ctx)
		if err != nil {
			if report.Failed == nil {
				report.Failed = make(map[string]error)
			}
			report.Failed[rule.Name] = err
			e.opts.Logger.Warn("visibility rule failed",
				zap.String("rule", rule.Name),
				zap.String("target", rule.Target),
				zap.Error(err),
			)
			continue
		}

		if !e.apply(doc, rule.Target, visible, rule.Marker) {
			report.Missing = append(report.Missing, rule.Target)
			e.opts.Logger.Debug("visibility target missing", zap.String("target", rule.Target))
			continue
		}
		if visible {
			report.Visible = append(report.Visible, rule.Target)
		} else {
			report.Hidden = append(report.Hidden, rule.Target)
		}
	}
	return report
}

// Apply toggles the marker on the element with id target. A missing target
// is a no-op and reports false.
func (e *Engine) Apply(doc *dom.Document, target string, visible bool) bool {
	return e.apply(doc, target, visible, "")
}

func (e *Engine) apply(doc *dom.Document, target string, visible bool, marker string) bool {
	el, ok := doc.ByID(target)
	if !ok {
		return false
	}
	if marker == "" {
		marker = e.opts.Marker
	}
	visibility.ApplyVisibility(el, visible, marker)
	return true
}

func (e *Engine) eval(rule compiledRule, ctx visibility.Context) (bool, error) {
	if rule.program != nil {
		return rule.program.Eval(ctx)
	}
	if e.opts.Evaluator == nil {
		return false, errors.New("rules: no evaluator configured")
	}
	return e.opts.Evaluator.Eval(rule.Target, rule.When, ctx)
}
