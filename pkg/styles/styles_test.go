package styles

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"
)

func TestFromManifestAppliesVariantOverrides(t *testing.T) {
	t.Parallel()

	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"dynui.marker.visible": "is-shown",
			"dynui.marker.fade":    "fade-in",
		},
		Variants: map[string]theme.Variant{
			"calm": {
				Tokens: map[string]string{"dynui.marker.fade": "fade-slow"},
			},
		},
	}

	got := FromManifest(manifest, "calm")
	want := Markers{Visible: "is-shown", Fade: "fade-slow", Slide: "slide"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("markers mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSelector(t *testing.T) {
	t.Parallel()

	selector := &stubThemeSelector{selection: &theme.Selection{
		Theme:   "acme",
		Variant: "",
		Manifest: &theme.Manifest{
			Name:   "acme",
			Tokens: map[string]string{"dynui.marker.slide": "slide-left"},
		},
	}}

	markers, err := FromSelector(selector, "acme", "")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if markers.Lookup("slide") != "slide-left" || markers.Lookup("visible") != "visible" {
		t.Fatalf("unexpected markers %+v", markers)
	}
	if len(selector.calls) != 1 || selector.calls[0] != "acme" {
		t.Fatalf("unexpected selector calls %v", selector.calls)
	}

	_, err = FromSelector(&stubThemeSelector{err: errors.New("unknown theme")}, "nope", "")
	if err == nil {
		t.Fatalf("expected selector error")
	}
}

func TestLookupPassesThroughLiteralClasses(t *testing.T) {
	t.Parallel()

	m := Markers{Visible: "on"}
	if m.Lookup("") != "on" {
		t.Fatalf("empty name should resolve to the visible marker")
	}
	if m.Lookup("fade") != "fade" {
		t.Fatalf("unset markers should fall back to defaults")
	}
	if m.Lookup("pulse") != "pulse" {
		t.Fatalf("unknown names should pass through")
	}
}

type stubThemeSelector struct {
	selection *theme.Selection
	err       error
	calls     []string
}

func (s *stubThemeSelector) Select(name, _ string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, name)
	return s.selection, s.err
}
