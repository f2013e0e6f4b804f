package dom

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// RootTag is the tag given to the synthetic root of every Document.
const RootTag = "body"

var (
	// ErrIDInUse is returned when attaching an element whose id is already
	// used by another attached element.
	ErrIDInUse = errors.New("dom: id already in use")
	// ErrForeignElement is returned when mixing elements from two documents.
	ErrForeignElement = errors.New("dom: element belongs to another document")
)

// Document owns an element tree and the id index over its attached nodes.
// All element reads and writes go through the document lock, so a Document
// may be shared between the event loop and direct callers.
type Document struct {
	mu    sync.RWMutex
	root  *Element
	index map[string]*Element
}

type nodeKind uint8

const (
	elementNode nodeKind = iota
	textNode
	commentNode
)

// Element is a node in the document tree. The zero value is not usable;
// create elements with Document.CreateElement.
//
// Text and comments are kept as unexported child nodes so mixed content
// renders back in source order; Children, Find and ByClass only expose
// element nodes.
type Element struct {
	doc      *Document
	kind     nodeKind
	id       string
	tag      string
	classes  []string
	text     string
	inner    string
	attrs    map[string]string
	children []*Element
	parent   *Element
	attached bool
	cancels  []context.CancelFunc
}

// NewDocument returns an empty document with an attached root.
func NewDocument() *Document {
	d := &Document{index: make(map[string]*Element)}
	d.root = &Element{doc: d, tag: RootTag, attached: true}
	return d
}

// Root returns the document root.
func (d *Document) Root() *Element {
	if d == nil {
		return nil
	}
	return d.root
}

// CreateElement returns a detached element owned by d.
func (d *Document) CreateElement(tag, id string) *Element {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		tag = "div"
	}
	return &Element{doc: d, tag: tag, id: strings.TrimSpace(id)}
}

// Append links child (and its subtree) as the last child of parent. When
// parent is attached the subtree becomes attached and indexed; detached
// parents let callers assemble a subtree before inserting it. A child that is
// currently attached elsewhere is moved.
func (d *Document) Append(parent, child *Element) error {
	if parent == nil || child == nil {
		return errors.New("dom: append requires parent and child")
	}
	if parent.doc != d || child.doc != d {
		return ErrForeignElement
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for p := parent; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("dom: cannot append %q under its own descendant", child.id)
		}
	}
	if parent.attached && !child.attached {
		if err := d.checkIDsLocked(child); err != nil {
			return err
		}
	}
	if child.parent != nil {
		d.unlinkLocked(child)
	}

	child.parent = parent
	parent.children = append(parent.children, child)
	if parent.attached && !child.attached {
		d.attachLocked(child)
	} else if !parent.attached && child.attached {
		d.unindexLocked(child, false)
	}
	return nil
}

// Remove detaches el and its subtree. Lifetime contexts of every removed
// element are canceled. Removing a detached element is a no-op and reports
// false.
func (d *Document) Remove(el *Element) bool {
	if d == nil || el == nil || el.doc != d || el == d.root {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !el.attached {
		return false
	}
	d.detachLocked(el, true)
	return true
}

// ByID returns the attached element with the supplied id.
func (d *Document) ByID(id string) (*Element, bool) {
	if d == nil {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.index[strings.TrimSpace(id)]
	return el, ok
}

// Attached reports whether el is currently part of the tree.
func (d *Document) Attached(el *Element) bool {
	if d == nil || el == nil || el.doc != d {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return el.attached
}

// Find walks the attached tree depth first and returns the elements that
// satisfy match, in document order.
func (d *Document) Find(match func(*Element) bool) []*Element {
	if d == nil || match == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*Element
	var walk func(*Element)
	walk = func(el *Element) {
		for _, child := range el.children {
			if child.kind != elementNode {
				continue
			}
			if match(child) {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(d.root)
	return out
}

// ByClass returns attached elements carrying the class name.
func (d *Document) ByClass(name string) []*Element {
	name = strings.TrimSpace(name)
	return d.Find(func(el *Element) bool {
		return indexOf(el.classes, name) >= 0
	})
}

// Lifetime derives a context that is canceled when el is detached from the
// tree. The returned context is already canceled when el is not attached.
func (d *Document) Lifetime(parent context.Context, el *Element) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	if d == nil || el == nil || el.doc != d {
		cancel()
		return ctx, cancel
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !el.attached {
		cancel()
		return ctx, cancel
	}
	el.cancels = append(el.cancels, cancel)
	return ctx, cancel
}

func (d *Document) checkIDsLocked(el *Element) error {
	seen := make(map[string]struct{})
	var check func(*Element) error
	check = func(node *Element) error {
		if node.id != "" {
			if existing, ok := d.index[node.id]; ok && existing != node {
				return fmt.Errorf("%w: %q", ErrIDInUse, node.id)
			}
			if _, dup := seen[node.id]; dup {
				return fmt.Errorf("%w: %q", ErrIDInUse, node.id)
			}
			seen[node.id] = struct{}{}
		}
		for _, child := range node.children {
			if err := check(child); err != nil {
				return err
			}
		}
		return nil
	}
	return check(el)
}

func (d *Document) attachLocked(el *Element) {
	el.attached = true
	if el.id != "" {
		d.index[el.id] = el
	}
	for _, child := range el.children {
		d.attachLocked(child)
	}
}

func (d *Document) detachLocked(el *Element, cancel bool) {
	d.unlinkLocked(el)
	d.unindexLocked(el, cancel)
}

func (d *Document) unlinkLocked(el *Element) {
	if parent := el.parent; parent != nil {
		for i, child := range parent.children {
			if child == el {
				parent.children = append(parent.children[:i], parent.children[i+1:]...)
				break
			}
		}
	}
	el.parent = nil
}

func (d *Document) unindexLocked(el *Element, cancel bool) {
	el.attached = false
	if el.id != "" && d.index[el.id] == el {
		delete(d.index, el.id)
	}
	if cancel {
		for _, fn := range el.cancels {
			fn()
		}
		el.cancels = nil
	}
	for _, child := range el.children {
		d.unindexLocked(child, cancel)
	}
}

// ID returns the element id.
func (e *Element) ID() string { return e.id }

// Tag returns the lower-cased tag name.
func (e *Element) Tag() string { return e.tag }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Parent returns the parent element, or nil for the root and unlinked nodes.
func (e *Element) Parent() *Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.parent
}

// Children returns a snapshot of the element's child elements.
func (e *Element) Children() []*Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	out := make([]*Element, 0, len(e.children))
	for _, child := range e.children {
		if child.kind == elementNode {
			out = append(out, child)
		}
	}
	return out
}

// Classes returns the class list in insertion order.
func (e *Element) Classes() []string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return append([]string(nil), e.classes...)
}

// HasClass reports whether the class is present.
func (e *Element) HasClass(name string) bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return indexOf(e.classes, strings.TrimSpace(name)) >= 0
}

// AddClass adds the class if absent.
func (e *Element) AddClass(names ...string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for _, name := range names {
		e.setClassLocked(name, true)
	}
}

// RemoveClass drops the class if present.
func (e *Element) RemoveClass(names ...string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for _, name := range names {
		e.setClassLocked(name, false)
	}
}

// SetClass adds the class when on is true and removes it otherwise. It
// reports whether the class list changed.
func (e *Element) SetClass(name string, on bool) bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.setClassLocked(name, on)
}

func (e *Element) setClassLocked(name string, on bool) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	idx := indexOf(e.classes, name)
	switch {
	case on && idx < 0:
		e.classes = append(e.classes, name)
		return true
	case !on && idx >= 0:
		e.classes = append(e.classes[:idx], e.classes[idx+1:]...)
		return true
	default:
		return false
	}
}

// Text returns the element's own text content: its direct text children
// joined in order, trimmed.
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var b strings.Builder
	for _, child := range e.children {
		if child.kind == textNode {
			b.WriteString(child.text)
		}
	}
	return strings.TrimSpace(b.String())
}

// SetText replaces the element's own text and clears any inner markup. The
// new text takes the position of the first existing text child; child
// elements keep their place.
func (e *Element) SetText(text string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.inner = ""

	node := &Element{doc: e.doc, kind: textNode, text: text, parent: e, attached: e.attached}
	kept := e.children[:0]
	placed := false
	for _, child := range e.children {
		if child.kind != textNode {
			kept = append(kept, child)
			continue
		}
		if !placed && text != "" {
			kept = append(kept, node)
			placed = true
		}
	}
	if !placed && text != "" {
		kept = append([]*Element{node}, kept...)
	}
	e.children = kept
}

// InnerHTML returns markup previously stored with SetInnerHTML.
func (e *Element) InnerHTML() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.inner
}

// SetInnerHTML stores trusted markup rendered verbatim inside the element.
// Callers are responsible for sanitizing untrusted input.
func (e *Element) SetInnerHTML(markup string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.inner = markup
	kept := e.children[:0]
	for _, child := range e.children {
		if child.kind == elementNode {
			kept = append(kept, child)
		}
	}
	e.children = kept
}

// Value returns the value attribute.
func (e *Element) Value() string {
	v, _ := e.Attr("value")
	return v
}

// SetValue sets the value attribute.
func (e *Element) SetValue(value string) {
	e.SetAttr("value", value)
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	v, ok := e.attrs[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// SetAttr sets an attribute. The id and class attributes are managed through
// their dedicated accessors and are ignored here.
func (e *Element) SetAttr(name, value string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "id" || name == "class" {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	delete(e.attrs, strings.ToLower(strings.TrimSpace(name)))
}

func (e *Element) sortedAttrNames() []string {
	names := make([]string, 0, len(e.attrs))
	for name := range e.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
