package expr

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynui/pkg/visibility"
)

func values(kv ...any) visibility.Context {
	ctx := visibility.Context{Values: map[string]any{}}
	for i := 0; i+1 < len(kv); i += 2 {
		ctx.Values[kv[i].(string)] = kv[i+1]
	}
	return ctx
}

func TestEvaluatorStringEquality(t *testing.T) {
	t.Parallel()

	eval := New()

	cases := []struct {
		name  string
		rule  string
		input string
		want  bool
	}{
		{name: "single quoted match", rule: "city == 'Anaheim'", input: "Anaheim", want: true},
		{name: "single quoted mismatch", rule: "city == 'Anaheim'", input: "Irvine", want: false},
		{name: "double quoted", rule: `city == "Anaheim"`, input: "Anaheim", want: true},
		{name: "bare word literal", rule: "city == Anaheim", input: "Anaheim", want: true},
		{name: "case sensitive", rule: "city == 'Anaheim'", input: "anaheim", want: false},
		{name: "not equal", rule: "city != 'Anaheim'", input: "Irvine", want: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := eval.Eval("offer", tc.rule, values("city", tc.input))
			if err != nil {
				t.Fatalf("Eval returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Eval(%q, city=%q) = %v, want %v", tc.rule, tc.input, got, tc.want)
			}
		})
	}
}

func TestEvaluatorBooleanComparison(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("extras", "newsletter == true", values("newsletter", "on"))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected checkbox value to coerce to true")
	}

	ok, err = eval.Eval("extras", "newsletter == true", values("newsletter", "false"))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected string false to coerce to false")
	}
}

func TestEvaluatorOrdering(t *testing.T) {
	t.Parallel()

	eval := New()

	cases := []struct {
		rule string
		ctx  visibility.Context
		want bool
	}{
		{rule: "count >= 6", ctx: values("count", 6), want: true},
		{rule: "count >= 6", ctx: values("count", "5"), want: false},
		{rule: "count > 2.5", ctx: values("count", 3), want: true},
		{rule: "guests < 3", ctx: values("guests", "2"), want: true},
		{rule: "guests <= 3", ctx: values("guests", 4), want: false},
		{rule: "guests < 3", ctx: values(), want: false},
		{rule: "guests != 3", ctx: values(), want: true},
		{rule: "plan > 'basic'", ctx: values("plan", "pro"), want: true},
	}

	for _, tc := range cases {
		got, err := eval.Eval("", tc.rule, tc.ctx)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%q, %v) = %v, want %v", tc.rule, tc.ctx.Values, got, tc.want)
		}
	}
}

func TestEvaluatorTruthyAndNot(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("", "company", values("company", "Acme"))
	if err != nil || !ok {
		t.Fatalf("expected non-empty string to be truthy (ok=%v err=%v)", ok, err)
	}

	ok, err = eval.Eval("", "!company", values("company", "  "))
	if err != nil || !ok {
		t.Fatalf("expected blank string to be falsy (ok=%v err=%v)", ok, err)
	}
}

func TestEvaluatorCompositionAndGrouping(t *testing.T) {
	t.Parallel()

	eval := New()
	rule := `city == "Anaheim" && (plan == "pro" || extras.beta)`

	ok, err := eval.Eval("", rule, visibility.Context{
		Values: map[string]any{"city": "Anaheim", "plan": "free"},
		Extras: map[string]any{"beta": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected extras flag to satisfy the group")
	}

	ok, err = eval.Eval("", rule, values("city", "Irvine", "plan", "pro"))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected conjunction to fail on city")
	}
}

func TestEvaluatorDotLookup(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("", `guest.email != ""`, values("guest.email", "ana@example.com"))
	if err != nil || !ok {
		t.Fatalf("expected flattened dotted key lookup (ok=%v err=%v)", ok, err)
	}

	ok, err = eval.Eval("", `guest.email == "ana@example.com"`, visibility.Context{
		Values: map[string]any{"guest": map[string]string{"email": "ana@example.com"}},
	})
	if err != nil || !ok {
		t.Fatalf("expected nested lookup (ok=%v err=%v)", ok, err)
	}
}

func TestEvaluatorNullLiteral(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("", "missing == null", values())
	if err != nil || !ok {
		t.Fatalf("expected missing == null (ok=%v err=%v)", ok, err)
	}
}

func TestEvaluatorEmptyRuleIsVisible(t *testing.T) {
	t.Parallel()

	ok, err := New().Eval("", "   ", values())
	if err != nil || !ok {
		t.Fatalf("expected empty rule to evaluate to true (ok=%v err=%v)", ok, err)
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rule     string
		fragment string
	}{
		{rule: "city = 'x'", fragment: "use '=='"},
		{rule: "a & b", fragment: "use '&&'"},
		{rule: "a | b", fragment: "use '||'"},
		{rule: "(a == 1", fragment: "missing closing"},
		{rule: "city == 'Anaheim", fragment: "unterminated"},
		{rule: "count >= true", fragment: "requires a number or string"},
		{rule: "== 3", fragment: "expected identifier"},
		{rule: "a == 1 b", fragment: "unexpected token"},
		{rule: "city == ", fragment: "missing literal"},
	}

	for _, tc := range cases {
		_, err := Compile(tc.rule)
		if err == nil {
			t.Fatalf("Compile(%q) expected error", tc.rule)
		}
		if !strings.Contains(err.Error(), tc.fragment) {
			t.Fatalf("Compile(%q) error %q does not mention %q", tc.rule, err.Error(), tc.fragment)
		}
	}
}

func TestProgramIdentifiers(t *testing.T) {
	t.Parallel()

	program := MustCompile(`city == Anaheim && (guests > 2 || !city) && extras.beta`)
	if diff := cmp.Diff([]string{"city", "guests"}, program.Identifiers()); diff != "" {
		t.Fatalf("identifiers mismatch (-want +got):\n%s", diff)
	}
	if program.Source() == "" {
		t.Fatalf("expected source retained")
	}
}
