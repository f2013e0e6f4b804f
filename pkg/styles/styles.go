// Package styles resolves the class markers the controller toggles. The
// controller never interprets them; the page stylesheet owns the transition
// each marker triggers.
//
// Markers default to "visible", "fade" and "slide" and can be renamed per
// theme through go-theme manifest tokens:
//
//	dynui.marker.visible: is-shown
//	dynui.marker.fade:    fade-in
//	dynui.marker.slide:   slide-up
package styles

import (
	"errors"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

const tokenPrefix = "dynui.marker."

// Markers names the class markers used by the controller.
type Markers struct {
	Visible string `json:"visible,omitempty" yaml:"visible,omitempty"`
	Fade    string `json:"fade,omitempty" yaml:"fade,omitempty"`
	Slide   string `json:"slide,omitempty" yaml:"slide,omitempty"`
}

// Defaults returns the built-in marker names.
func Defaults() Markers {
	return Markers{Visible: "visible", Fade: "fade", Slide: "slide"}
}

// Merge returns m with empty entries filled from fallback.
func (m Markers) Merge(fallback Markers) Markers {
	if strings.TrimSpace(m.Visible) == "" {
		m.Visible = fallback.Visible
	}
	if strings.TrimSpace(m.Fade) == "" {
		m.Fade = fallback.Fade
	}
	if strings.TrimSpace(m.Slide) == "" {
		m.Slide = fallback.Slide
	}
	return m
}

// Lookup maps a marker name ("visible", "fade", "slide") to its class.
// Unknown names are returned unchanged so callers can pass literal classes.
func (m Markers) Lookup(name string) string {
	m = m.Merge(Defaults())
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "visible":
		return m.Visible
	case "fade":
		return m.Fade
	case "slide":
		return m.Slide
	default:
		return strings.TrimSpace(name)
	}
}

// FromManifest reads marker tokens from a theme manifest, letting the named
// variant override the base tokens.
func FromManifest(manifest *theme.Manifest, variant string) Markers {
	if manifest == nil {
		return Defaults()
	}
	tokens := make(map[string]string, len(manifest.Tokens))
	for k, v := range manifest.Tokens {
		tokens[k] = v
	}
	if v, ok := manifest.Variants[strings.TrimSpace(variant)]; ok {
		for k, val := range v.Tokens {
			tokens[k] = val
		}
	}

	return Markers{
		Visible: tokens[tokenPrefix+"visible"],
		Fade:    tokens[tokenPrefix+"fade"],
		Slide:   tokens[tokenPrefix+"slide"],
	}.Merge(Defaults())
}

// FromSelector resolves a theme selection and reads its markers.
func FromSelector(selector theme.ThemeSelector, name, variant string) (Markers, error) {
	if selector == nil {
		return Defaults(), errors.New("styles: theme selector is nil")
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return Defaults(), fmt.Errorf("styles: select theme %q: %w", name, err)
	}
	if selection == nil {
		return Defaults(), nil
	}
	return FromManifest(selection.Manifest, selection.Variant), nil
}
