// Package record holds the transient, read-only copies of external data
// records that the controller binds into the page, and decodes them from
// JSON collection payloads.
package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is an external record such as an author or a rating. ID is stable
// and determines the record's binding target; Attributes maps attribute
// names to decoded JSON values.
type Record struct {
	ID         string
	Attributes map[string]any
}

// New returns a record with a copy of attrs.
func New(id string, attrs map[string]any) Record {
	out := Record{ID: strings.TrimSpace(id), Attributes: make(map[string]any, len(attrs))}
	for k, v := range attrs {
		out.Attributes[k] = v
	}
	return out
}

// Lookup returns the attribute at path. Exact keys win; otherwise the path is
// split on dots and nested objects are traversed. The pseudo attribute "id"
// resolves to the record ID when no attribute of that name exists.
func (r Record) Lookup(path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	if v, ok := r.Attributes[path]; ok {
		return v, true
	}
	if path == "id" && r.ID != "" {
		return r.ID, true
	}

	var current any = r.Attributes
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := obj[part]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Has reports whether path resolves to an attribute.
func (r Record) Has(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// String returns the attribute at path formatted as text.
func (r Record) String(path string) (string, bool) {
	v, ok := r.Lookup(path)
	if !ok {
		return "", false
	}
	return Format(v), true
}

// Format renders a decoded JSON value as display text. Integral numbers drop
// their fractional part.
func Format(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, Format(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Map returns a copy of the attributes with "id" set, suitable as template
// data.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		out[k] = v
	}
	if _, ok := out["id"]; !ok {
		out["id"] = r.ID
	}
	return out
}
