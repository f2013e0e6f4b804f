// Package dom models the page as an in-memory element tree.
//
// The tree is the only shared mutable resource of the controller: visibility
// rules, field lists, template bindings, remote sync and reveal sequences all
// mutate disjoint subtrees of a single Document. Elements are addressed by id
// and every write path can ask the document whether the target is still
// attached, so work scheduled against an element that has been removed turns
// into a no-op instead of mutating a detached node.
//
// Documents can be built programmatically or parsed from HTML (see Parse) and
// written back out with Render.
package dom
