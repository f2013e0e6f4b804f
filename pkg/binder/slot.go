package binder

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects how a slot value is written into its target.
type Mode string

const (
	// ModeText writes the element's own text (escaped on render).
	ModeText Mode = "text"

	// ModeValue writes the value attribute of form controls.
	ModeValue Mode = "value"

	// ModeHTML writes sanitized markup.
	ModeHTML Mode = "html"
)

const (
	attrModePrefix      = "attr:"
	targetIDPlaceholder = "{id}"
)

// AttrMode writes the named attribute, for example AttrMode("href").
func AttrMode(name string) Mode {
	return Mode(attrModePrefix + strings.TrimSpace(name))
}

// Slot is a named UI location populated from one record attribute.
type Slot struct {
	// Target is the element id. "{id}" is replaced with the record ID so one
	// slot definition can serve a whole collection.
	Target string `json:"target" yaml:"target"`
	// Attribute is the record attribute read by the slot. Defaults to the
	// slot name.
	Attribute string `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	// Template optionally formats the value (pongo2 syntax). The context
	// exposes value (formatted), raw, id and record.
	Template string `json:"template,omitempty" yaml:"template,omitempty"`
	Mode     Mode   `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// SlotMap declares slots by name.
type SlotMap map[string]Slot

// Names returns slot names in lexical order; Bind processes slots in this
// order.
func (m SlotMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every slot declares a target and a known mode.
func (m SlotMap) Validate() error {
	for _, name := range m.Names() {
		slot := m[name]
		if strings.TrimSpace(slot.Target) == "" {
			return fmt.Errorf("binder: slot %q missing target", name)
		}
		if _, _, err := slot.mode(); err != nil {
			return fmt.Errorf("binder: slot %q: %w", name, err)
		}
	}
	return nil
}

func (s Slot) attribute(name string) string {
	if attr := strings.TrimSpace(s.Attribute); attr != "" {
		return attr
	}
	return name
}

func (s Slot) target(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(s.Target), targetIDPlaceholder, id)
}

func (s Slot) mode() (Mode, string, error) {
	raw := Mode(strings.ToLower(strings.TrimSpace(string(s.Mode))))
	switch {
	case raw == "":
		return ModeText, "", nil
	case raw == ModeText, raw == ModeValue, raw == ModeHTML:
		return raw, "", nil
	case strings.HasPrefix(string(raw), attrModePrefix):
		attr := strings.TrimSpace(strings.TrimPrefix(string(raw), attrModePrefix))
		if attr == "" {
			return "", "", fmt.Errorf("empty attribute mode")
		}
		return Mode(attrModePrefix), attr, nil
	default:
		return "", "", fmt.Errorf("unknown mode %q", s.Mode)
	}
}
