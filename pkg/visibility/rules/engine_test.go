package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-dynui/pkg/dom"
	"github.com/goliatone/go-dynui/pkg/visibility"
)

func newPage(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(`<form>
		<input id="city" name="city">
		<div id="anaheim-offer" class="offer">Free parking in Anaheim</div>
		<div id="guest-note" class="note visible">Bring a friend</div>
	</form>`)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

func TestEvaluateMatchesConfiguredValue(t *testing.T) {
	t.Parallel()

	engine := New()
	for _, tc := range []struct {
		city string
		want bool
	}{
		{city: "Anaheim", want: true},
		{city: "Irvine", want: false},
		{city: "", want: false},
	} {
		got, err := engine.Evaluate(visibility.InputState{"city": tc.city}, "city == 'Anaheim'")
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tc.city, err)
		}
		if got != tc.want {
			t.Fatalf("Evaluate(%q) = %v, want %v", tc.city, got, tc.want)
		}
	}
}

func TestRefreshTogglesMarker(t *testing.T) {
	t.Parallel()

	doc := newPage(t)
	engine := New()
	if err := engine.Register(Rule{Target: "anaheim-offer", When: "city == 'Anaheim'"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	report := engine.Refresh(doc, visibility.InputState{"city": "Anaheim"})
	if diff := cmp.Diff([]string{"anaheim-offer"}, report.Visible); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
	offer, _ := doc.ByID("anaheim-offer")
	if !offer.HasClass(visibility.DefaultMarker) {
		t.Fatalf("expected marker applied")
	}

	// Re-applying the same state leaves the class list untouched.
	engine.Refresh(doc, visibility.InputState{"city": "Anaheim"})
	if diff := cmp.Diff([]string{"offer", "visible"}, offer.Classes()); diff != "" {
		t.Fatalf("classes mismatch after second refresh (-want +got):\n%s", diff)
	}

	report = engine.Refresh(doc, visibility.InputState{"city": "Irvine"})
	if diff := cmp.Diff([]string{"anaheim-offer"}, report.Hidden); diff != "" {
		t.Fatalf("hidden mismatch (-want +got):\n%s", diff)
	}
	if offer.HasClass(visibility.DefaultMarker) {
		t.Fatalf("expected marker cleared")
	}
}

func TestRefreshSkipsMissingTargets(t *testing.T) {
	t.Parallel()

	doc := newPage(t)
	engine := New(WithMarker("is-shown"))
	err := engine.Register(
		Rule{Name: "ghost", Target: "removed-panel", When: "city"},
		Rule{Target: "guest-note", When: "city", Marker: "shown"},
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	report := engine.Refresh(doc, visibility.InputState{"city": "Irvine"})
	if diff := cmp.Diff([]string{"removed-panel"}, report.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	note, _ := doc.ByID("guest-note")
	if !note.HasClass("shown") || note.HasClass("is-shown") {
		t.Fatalf("expected rule marker override, got %v", note.Classes())
	}
}

func TestRegisterRejectsInvalidRules(t *testing.T) {
	t.Parallel()

	engine := New()
	if err := engine.Register(Rule{When: "city"}); err == nil {
		t.Fatalf("expected error for missing target")
	}
	if err := engine.Register(Rule{Target: "x", When: "city = 'Anaheim'"}); err == nil {
		t.Fatalf("expected compile error")
	}
	if len(engine.Rules()) != 0 {
		t.Fatalf("failed registrations must not store rules")
	}
}

func TestRefreshKeepsStateOnEvaluatorFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	failing := visibility.EvaluatorFunc(func(string, string, visibility.Context) (bool, error) {
		return false, errors.New("boom")
	})

	doc := newPage(t)
	engine := New(WithEvaluator(failing), WithLogger(zap.New(core)))
	if err := engine.Register(Rule{Target: "guest-note", When: "anything"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	report := engine.Refresh(doc, visibility.InputState{})
	if report.Failed["guest-note"] == nil {
		t.Fatalf("expected failure recorded")
	}
	note, _ := doc.ByID("guest-note")
	if !note.HasClass("visible") {
		t.Fatalf("expected previous visibility retained")
	}
	if logs.FilterMessage("visibility rule failed").Len() != 1 {
		t.Fatalf("expected one warning log, got %d", logs.Len())
	}
}

func TestInputsListsRuleIdentifiers(t *testing.T) {
	t.Parallel()

	engine := New()
	err := engine.Register(
		Rule{Target: "a", When: "city == 'Anaheim'"},
		Rule{Target: "b", When: "guests > 2 && city"},
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if diff := cmp.Diff([]string{"city", "guests"}, engine.Inputs()); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
}
