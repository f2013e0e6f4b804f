package fieldlist

import (
	"fmt"

	"github.com/goliatone/go-dynui/pkg/dom"
)

const (
	// GroupAttr carries the owning group id on every materialized element.
	GroupAttr = "data-group-id"
	// FieldAttr carries the sub-field name on materialized inputs.
	FieldAttr = "data-field"

	GroupClass  = "field-group"
	RemoveClass = "remove-group"
)

// GroupElementID returns the id of a group's container element.
func GroupElementID(group string) string {
	return "group-" + group
}

// InputID returns the id of the input bound to field inside group. The
// "-field-" segment keeps input ids disjoint from RemoveButtonID.
func InputID(group, field string) string {
	return group + "-field-" + field
}

// RemoveButtonID returns the id of a group's remove button.
func RemoveButtonID(group string) string {
	return group + "-remove"
}

// Element returns the materialized container of a group.
func (l *List) Element(id string) (*dom.Element, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.index[id]
	if !ok || l.entries[pos].el == nil {
		return nil, false
	}
	return l.entries[pos].el, true
}

// materialize builds the group subtree detached and attaches it in one step,
// so a failed attach leaves the page untouched.
func (l *List) materialize(e *entry) (*dom.Element, error) {
	doc := l.opts.Document
	container, ok := doc.ByID(l.opts.Container)
	if !ok {
		return nil, fmt.Errorf("fieldlist: container %q not found", l.opts.Container)
	}

	group := doc.CreateElement("div", GroupElementID(e.id))
	group.AddClass(GroupClass)
	group.SetAttr(GroupAttr, e.id)

	for _, field := range l.opts.Fields {
		input := doc.CreateElement("input", InputID(e.id, field))
		input.SetAttr("name", fmt.Sprintf("%s[%s]", field, e.id))
		input.SetAttr(GroupAttr, e.id)
		input.SetAttr(FieldAttr, field)
		input.SetValue(e.values[field])
		if err := doc.Append(group, input); err != nil {
			return nil, fmt.Errorf("fieldlist: build group %q: %w", e.id, err)
		}
	}

	button := doc.CreateElement("button", RemoveButtonID(e.id))
	button.AddClass(RemoveClass)
	button.SetAttr("type", "button")
	button.SetAttr(GroupAttr, e.id)
	button.SetText("Remove")
	if err := doc.Append(group, button); err != nil {
		return nil, fmt.Errorf("fieldlist: build group %q: %w", e.id, err)
	}

	if err := doc.Append(container, group); err != nil {
		return nil, fmt.Errorf("fieldlist: attach group %q: %w", e.id, err)
	}
	return group, nil
}
