package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse builds a Document from an HTML page or fragment. The children of the
// parsed <body> become children of the document root. Each element keeps its
// id, class list and attributes; text and comments stay in source order
// between the child elements.
func Parse(r io.Reader) (*Document, error) {
	if r == nil {
		return nil, fmt.Errorf("dom: missing reader")
	}
	node, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse html: %w", err)
	}

	doc := NewDocument()
	body := findBody(node)
	if body == nil {
		return doc, nil
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()
	if err := doc.importChildren(doc.root, body); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

func findBody(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}

func (d *Document) importChildren(parent *Element, src *html.Node) error {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			parent.children = append(parent.children, &Element{doc: d, kind: textNode, text: c.Data, parent: parent, attached: true})
		case html.CommentNode:
			parent.children = append(parent.children, &Element{doc: d, kind: commentNode, text: c.Data, parent: parent, attached: true})
		case html.ElementNode:
			el := &Element{doc: d, tag: strings.ToLower(c.Data), parent: parent, attached: true}
			for _, attr := range c.Attr {
				key := strings.ToLower(attr.Key)
				switch key {
				case "id":
					el.id = strings.TrimSpace(attr.Val)
				case "class":
					for _, name := range strings.Fields(attr.Val) {
						if indexOf(el.classes, name) < 0 {
							el.classes = append(el.classes, name)
						}
					}
				default:
					if el.attrs == nil {
						el.attrs = make(map[string]string)
					}
					el.attrs[key] = attr.Val
				}
			}
			if el.id != "" {
				if _, exists := d.index[el.id]; exists {
					return fmt.Errorf("%w: %q", ErrIDInUse, el.id)
				}
				d.index[el.id] = el
			}
			parent.children = append(parent.children, el)
			if err := d.importChildren(el, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Render writes the children of the document root as HTML.
func (d *Document) Render(w io.Writer) error {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, child := range d.root.children {
		if err := renderElement(w, child); err != nil {
			return err
		}
	}
	return nil
}

// String renders the document to a string, mainly for tests and previews.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

// Render writes the element and its subtree as HTML.
func (e *Element) Render(w io.Writer) error {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return renderElement(w, e)
}

func renderElement(w io.Writer, el *Element) error {
	node, err := toNode(el)
	if err != nil {
		return err
	}
	return html.Render(w, node)
}

func toNode(el *Element) (*html.Node, error) {
	switch el.kind {
	case textNode:
		return &html.Node{Type: html.TextNode, Data: el.text}, nil
	case commentNode:
		return &html.Node{Type: html.CommentNode, Data: el.text}, nil
	}

	node := &html.Node{
		Type:     html.ElementNode,
		Data:     el.tag,
		DataAtom: atom.Lookup([]byte(el.tag)),
	}
	if el.id != "" {
		node.Attr = append(node.Attr, html.Attribute{Key: "id", Val: el.id})
	}
	if len(el.classes) > 0 {
		node.Attr = append(node.Attr, html.Attribute{Key: "class", Val: strings.Join(el.classes, " ")})
	}
	for _, name := range el.sortedAttrNames() {
		node.Attr = append(node.Attr, html.Attribute{Key: name, Val: el.attrs[name]})
	}

	if el.inner != "" {
		fragment, err := html.ParseFragment(strings.NewReader(el.inner), &html.Node{
			Type:     html.ElementNode,
			Data:     el.tag,
			DataAtom: node.DataAtom,
		})
		if err != nil {
			return nil, fmt.Errorf("dom: parse inner markup of %q: %w", el.id, err)
		}
		for _, child := range fragment {
			node.AppendChild(child)
		}
	}
	for _, child := range el.children {
		converted, err := toNode(child)
		if err != nil {
			return nil, err
		}
		node.AppendChild(converted)
	}
	return node, nil
}
