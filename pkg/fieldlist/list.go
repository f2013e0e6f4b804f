package fieldlist

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-dynui/pkg/dom"
)

var (
	// ErrLimitReached is returned by Add when the list is at its cap.
	ErrLimitReached = errors.New("fieldlist: limit reached")
	// ErrDuplicateID is returned by Add when the generator keeps producing
	// identifiers already in use.
	ErrDuplicateID = errors.New("fieldlist: could not generate a unique group id")
	// ErrUnknownGroup is returned when addressing a group that is not in the list.
	ErrUnknownGroup = errors.New("fieldlist: unknown group")
	// ErrUnknownField is returned when setting a sub-field the list does not declare.
	ErrUnknownField = errors.New("fieldlist: unknown field")
)

// Group is a snapshot of one repeatable set of inputs.
type Group struct {
	ID     string            `json:"id"`
	Values map[string]string `json:"values,omitempty"`
}

type entry struct {
	id     string
	values map[string]string
	el     *dom.Element
}

// List is an ordered collection of field groups. Groups live in a slice
// addressed through an id index; callers only ever see snapshots.
type List struct {
	opts Options

	mu      sync.Mutex
	entries []*entry
	index   map[string]int
}

// New returns an empty list.
func New(fns ...OptionFn) *List {
	return &List{
		opts:  NewOptions(fns...),
		index: make(map[string]int),
	}
}

// Add appends a new group with a fresh identifier and returns it.
func (l *List) Add() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.opts.Max > 0 && len(l.entries) >= l.opts.Max {
		return "", fmt.Errorf("%w: max %d", ErrLimitReached, l.opts.Max)
	}

	id, err := l.nextIDLocked()
	if err != nil {
		return "", err
	}

	e := &entry{id: id, values: make(map[string]string, len(l.opts.Fields))}
	for _, field := range l.opts.Fields {
		e.values[field] = ""
	}

	if l.opts.Document != nil {
		el, err := l.materialize(e)
		if err != nil {
			return "", err
		}
		e.el = el
	}

	l.index[id] = len(l.entries)
	l.entries = append(l.entries, e)
	l.opts.Logger.Debug("field group added", zap.String("group", id), zap.Int("len", len(l.entries)))
	return id, nil
}

func (l *List) nextIDLocked() (string, error) {
	for attempt := 0; attempt < l.opts.IDAttempts; attempt++ {
		id := strings.TrimSpace(l.opts.IDFunc())
		if id == "" {
			continue
		}
		if _, taken := l.index[id]; taken {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrDuplicateID, l.opts.IDAttempts)
}

// Remove deletes the group with the given id. Removing an id that is not in
// the list does nothing and reports false, so a repeated removal is
// equivalent to a single one.
func (l *List) Remove(id string) bool {
	l.mu.Lock()
	pos, ok := l.index[id]
	if !ok {
		l.mu.Unlock()
		l.opts.Logger.Debug("field group already removed", zap.String("group", id))
		return false
	}

	removed := l.entries[pos]
	copy(l.entries[pos:], l.entries[pos+1:])
	l.entries[len(l.entries)-1] = nil
	l.entries = l.entries[:len(l.entries)-1]
	delete(l.index, id)
	for i := pos; i < len(l.entries); i++ {
		l.index[l.entries[i].id] = i
	}
	l.mu.Unlock()

	if removed.el != nil && l.opts.Document != nil {
		l.opts.Document.Remove(removed.el)
	}
	l.opts.Logger.Debug("field group removed", zap.String("group", id))
	return true
}

// Len returns the number of groups.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// IDs returns group identifiers in append order.
func (l *List) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, len(l.entries))
	for i, e := range l.entries {
		ids[i] = e.id
	}
	return ids
}

// Has reports whether a group with the id exists.
func (l *List) Has(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[id]
	return ok
}

// Get returns a snapshot of one group.
func (l *List) Get(id string) (Group, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.index[id]
	if !ok {
		return Group{}, false
	}
	return l.entries[pos].snapshot(), true
}

// Groups returns snapshots of every group in append order.
func (l *List) Groups() []Group {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Group, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.snapshot()
	}
	return out
}

// SetValue records the value of one sub-field and mirrors it into the
// materialized input when there is one.
func (l *List) SetValue(id, field, value string) error {
	l.mu.Lock()
	pos, ok := l.index[id]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownGroup, id)
	}
	e := l.entries[pos]
	if len(l.opts.Fields) > 0 {
		if _, declared := e.values[field]; !declared {
			l.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}
	e.values[field] = value
	doc := l.opts.Document
	l.mu.Unlock()

	if doc != nil {
		if input, ok := doc.ByID(InputID(id, field)); ok {
			input.SetValue(value)
		}
	}
	return nil
}

// Values returns the submitted values of every group in append order.
func (l *List) Values() []map[string]string {
	groups := l.Groups()
	out := make([]map[string]string, len(groups))
	for i, g := range groups {
		out[i] = g.Values
	}
	return out
}

func (e *entry) snapshot() Group {
	values := make(map[string]string, len(e.values))
	for k, v := range e.values {
		values[k] = v
	}
	return Group{ID: e.id, Values: values}
}
