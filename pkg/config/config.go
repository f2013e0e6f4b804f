package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-dynui/pkg/binder"
	"github.com/goliatone/go-dynui/pkg/styles"
)

// Document is a page configuration file.
type Document struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	// Page is the HTML page the controller drives, relative to the config file.
	Page string `json:"page,omitempty" yaml:"page,omitempty"`

	Theme   ThemeConfig    `json:"theme,omitempty" yaml:"theme,omitempty"`
	Markers styles.Markers `json:"markers,omitempty" yaml:"markers,omitempty"`

	// Debounce delays visibility refreshes after input events; zero refreshes
	// synchronously.
	Debounce Duration `json:"debounce,omitempty" yaml:"debounce,omitempty"`
	// Concurrency bounds how many endpoints sync at once.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`

	Rules     []RuleConfig     `json:"rules,omitempty" yaml:"rules,omitempty"`
	Lists     []ListConfig     `json:"lists,omitempty" yaml:"lists,omitempty"`
	Endpoints []EndpointConfig `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
	Sequences []SequenceConfig `json:"sequences,omitempty" yaml:"sequences,omitempty"`
}

// ThemeConfig declares marker tokens through a go-theme manifest.
type ThemeConfig struct {
	Name     string                       `json:"name,omitempty" yaml:"name,omitempty"`
	Version  string                       `json:"version,omitempty" yaml:"version,omitempty"`
	Variant  string                       `json:"variant,omitempty" yaml:"variant,omitempty"`
	Tokens   map[string]string            `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Variants map[string]map[string]string `json:"variants,omitempty" yaml:"variants,omitempty"`
}

// RuleConfig shows Target while When holds.
type RuleConfig struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Target string `json:"target" yaml:"target"`
	When   string `json:"when" yaml:"when"`
	Marker string `json:"marker,omitempty" yaml:"marker,omitempty"`
}

// ListConfig declares a repeatable field group list.
type ListConfig struct {
	Name      string   `json:"name" yaml:"name"`
	Container string   `json:"container" yaml:"container"`
	Fields    []string `json:"fields" yaml:"fields"`
	Max       int      `json:"max,omitempty" yaml:"max,omitempty"`
	// Add is the id of the button that appends a group.
	Add string `json:"add,omitempty" yaml:"add,omitempty"`
	// Initial groups created when the page starts.
	Initial int `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// EndpointConfig declares a remote record collection and where its records
// are bound.
type EndpointConfig struct {
	Name           string            `json:"name" yaml:"name"`
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Query          map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
	ResultsPath    string            `json:"results_path,omitempty" yaml:"results_path,omitempty"`
	IDField        string            `json:"id_field,omitempty" yaml:"id_field,omitempty"`
	AttributesPath string            `json:"attributes_path,omitempty" yaml:"attributes_path,omitempty"`
	Timeout        Duration          `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	Retry *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// Poll refetches on an interval when positive.
	Poll Duration `json:"poll,omitempty" yaml:"poll,omitempty"`
	// Trigger is the id of an element whose click refetches the endpoint.
	Trigger string `json:"trigger,omitempty" yaml:"trigger,omitempty"`

	Slots binder.SlotMap `json:"slots" yaml:"slots"`
}

// RetryConfig enables the retry wrapper for an endpoint.
type RetryConfig struct {
	MaxAttempts     int      `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	InitialInterval Duration `json:"initial_interval,omitempty" yaml:"initial_interval,omitempty"`
	MaxInterval     Duration `json:"max_interval,omitempty" yaml:"max_interval,omitempty"`
}

// SequenceConfig declares a timed reveal sequence.
type SequenceConfig struct {
	Name string `json:"name" yaml:"name"`
	// Trigger is the id of the element whose click starts the sequence.
	Trigger   string `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	AutoStart bool   `json:"autostart,omitempty" yaml:"autostart,omitempty"`
	Loop      bool   `json:"loop,omitempty" yaml:"loop,omitempty"`
	// Until is a predicate over count, position, iteration and runs.
	Until string `json:"until,omitempty" yaml:"until,omitempty"`
	// Scope is the element whose removal cancels the sequence.
	Scope string       `json:"scope,omitempty" yaml:"scope,omitempty"`
	Steps []StepConfig `json:"steps" yaml:"steps"`
}

// StepConfig reveals Reveal with Marker, then waits Delay.
type StepConfig struct {
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Reveal []string `json:"reveal" yaml:"reveal"`
	Marker string   `json:"marker,omitempty" yaml:"marker,omitempty"`
	Delay  Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
}

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// Validate reports every structural problem in the document.
func (d Document) Validate() error {
	var errs []error
	if d.Concurrency < 0 {
		errs = append(errs, errors.New("config: concurrency must not be negative"))
	}

	for i, rule := range d.Rules {
		if strings.TrimSpace(rule.Target) == "" {
			errs = append(errs, fmt.Errorf("config: rules[%d]: target is required", i))
		}
	}

	lists := make(map[string]struct{}, len(d.Lists))
	for i, list := range d.Lists {
		switch {
		case !namePattern.MatchString(list.Name):
			errs = append(errs, fmt.Errorf("config: lists[%d]: invalid name %q", i, list.Name))
		case strings.TrimSpace(list.Container) == "":
			errs = append(errs, fmt.Errorf("config: list %q: container is required", list.Name))
		case list.Max > 0 && list.Initial > list.Max:
			errs = append(errs, fmt.Errorf("config: list %q: initial exceeds max", list.Name))
		}
		if _, dup := lists[list.Name]; dup {
			errs = append(errs, fmt.Errorf("config: duplicate list %q", list.Name))
		}
		lists[list.Name] = struct{}{}
	}

	endpoints := make(map[string]struct{}, len(d.Endpoints))
	for i, ep := range d.Endpoints {
		if !namePattern.MatchString(ep.Name) {
			errs = append(errs, fmt.Errorf("config: endpoints[%d]: invalid name %q", i, ep.Name))
		}
		if strings.TrimSpace(ep.URL) == "" {
			errs = append(errs, fmt.Errorf("config: endpoint %q: url is required", ep.Name))
		}
		if err := ep.Slots.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("config: endpoint %q: %w", ep.Name, err))
		}
		if _, dup := endpoints[ep.Name]; dup {
			errs = append(errs, fmt.Errorf("config: duplicate endpoint %q", ep.Name))
		}
		endpoints[ep.Name] = struct{}{}
	}

	sequences := make(map[string]struct{}, len(d.Sequences))
	for i, seq := range d.Sequences {
		if !namePattern.MatchString(seq.Name) {
			errs = append(errs, fmt.Errorf("config: sequences[%d]: invalid name %q", i, seq.Name))
		}
		if len(seq.Steps) == 0 {
			errs = append(errs, fmt.Errorf("config: sequence %q: at least one step is required", seq.Name))
		}
		if _, dup := sequences[seq.Name]; dup {
			errs = append(errs, fmt.Errorf("config: duplicate sequence %q", seq.Name))
		}
		sequences[seq.Name] = struct{}{}
	}

	return errors.Join(errs...)
}

// Manifest returns the theme section as a go-theme manifest, or nil when no
// theme is declared.
func (t ThemeConfig) Manifest() *theme.Manifest {
	if strings.TrimSpace(t.Name) == "" {
		return nil
	}
	version := strings.TrimSpace(t.Version)
	if version == "" {
		version = "1.0.0"
	}
	manifest := &theme.Manifest{
		Name:    t.Name,
		Version: version,
		Tokens:  copyStrings(t.Tokens),
	}
	if len(t.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(t.Variants))
		for name, tokens := range t.Variants {
			manifest.Variants[name] = theme.Variant{Tokens: copyStrings(tokens)}
		}
	}
	return manifest
}

// ResolveMarkers combines theme tokens with explicit markers. Explicit
// markers win over the theme, the theme over the defaults.
func (d Document) ResolveMarkers() (styles.Markers, error) {
	base := styles.Defaults()
	if manifest := d.Theme.Manifest(); manifest != nil {
		if _, ok := manifest.Variants[d.Theme.Variant]; d.Theme.Variant != "" && !ok {
			return base, fmt.Errorf("config: theme %q has no variant %q", manifest.Name, d.Theme.Variant)
		}
		base = styles.FromManifest(manifest, d.Theme.Variant)
	}
	return d.Markers.Merge(base), nil
}

func copyStrings(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
