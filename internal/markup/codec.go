// Package markup converts document nodes to and from their tagged-tree
// markup form (Fragment), and Fragments to and from HTML.
package markup

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// TagText is the tag of a text leaf fragment.
const TagText = "text"

// Fragment is one element of the markup form. Node tags are kind names,
// mark wrappers use mark tag names, and attribute keys are markup names
// (data-id, data-language, href, ...).
type Fragment struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Children   []Fragment        `json:"children,omitempty"`
	Text       string            `json:"text,omitempty"`
}

// Codec renders and parses nodes against one registry.
type Codec struct {
	reg *schema.Registry
}

// NewCodec returns a codec for reg.
func NewCodec(reg *schema.Registry) *Codec {
	return &Codec{reg: reg}
}

// Render produces the markup form of n. Attributes equal to their default,
// and null attributes, are omitted.
func (c *Codec) Render(n *doctree.Node) Fragment {
	if n.IsText() {
		return renderText(n)
	}
	f := Fragment{Tag: n.Kind.Name()}
	spec, _ := c.reg.Spec(n.Kind)
	for _, a := range spec.Attrs {
		v, ok := n.Attrs.Get(a.Name)
		if !ok || a.IsDefault(v) {
			continue
		}
		if f.Attributes == nil {
			f.Attributes = map[string]string{}
		}
		f.Attributes[a.Markup] = a.Render(v)
	}
	for _, ch := range n.Children {
		f.Children = append(f.Children, c.Render(ch))
	}
	return f
}

// renderText wraps the leaf in one wrapper per mark, outermost first in
// canonical mark order.
func renderText(n *doctree.Node) Fragment {
	f := Fragment{Tag: TagText, Text: n.Text}
	for i := len(n.Marks) - 1; i >= 0; i-- {
		m := n.Marks[i]
		w := Fragment{Tag: m.Tag.Name(), Children: []Fragment{f}}
		if attr := m.Tag.PayloadAttr(); attr != "" && m.Payload != "" {
			w.Attributes = map[string]string{attr: m.Payload}
		}
		f = w
	}
	return f
}

// RenderDocument renders the root of t.
func (c *Codec) RenderDocument(t *doctree.Tree) Fragment {
	return c.Render(t.Root())
}

// Parse builds a node from f. Defaults fill absent attributes and the result
// is checked against the registry; every failure is a *ParseError.
func (c *Codec) Parse(f Fragment) (*doctree.Node, error) {
	nodes, err := c.ParseFragment(f)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, &ParseError{Kind: Malformed, Tag: f.Tag, Err: fmt.Errorf("expected one node, got %d", len(nodes))}
	}
	return nodes[0], nil
}

// ParseFragment builds the nodes of fs. A mark wrapper may yield several
// text leaves, so the result can be longer than fs.
func (c *Codec) ParseFragment(fs ...Fragment) ([]*doctree.Node, error) {
	var out []*doctree.Node
	for _, f := range fs {
		var err error
		if out, err = c.parse(f, nil, out); err != nil {
			return nil, err
		}
	}
	for _, n := range out {
		if err := doctree.Normalize(c.reg, n); err != nil {
			return nil, violation(err)
		}
	}
	return out, nil
}

// ParseDocument builds a tree from a doc fragment.
func (c *Codec) ParseDocument(f Fragment) (*doctree.Tree, error) {
	if _, ok := schema.KindByName(f.Tag); !ok {
		return nil, &ParseError{Kind: UnknownTag, Tag: f.Tag}
	}
	if f.Tag != schema.RootDocument.Name() {
		return nil, &ParseError{Kind: SchemaViolation, Tag: f.Tag, Err: errors.New("document root must be doc")}
	}
	root, err := c.Parse(f)
	if err != nil {
		return nil, err
	}
	t, err := doctree.New(c.reg, root)
	if err != nil {
		return nil, violation(err)
	}
	return t, nil
}

func (c *Codec) parse(f Fragment, marks schema.MarkSet, out []*doctree.Node) ([]*doctree.Node, error) {
	if f.Tag == TagText {
		if len(f.Children) > 0 {
			return nil, &ParseError{Kind: Malformed, Tag: f.Tag, Err: errors.New("text has children")}
		}
		return append(out, doctree.NewText(f.Text, marks...)), nil
	}
	if tag, ok := schema.MarkTagByName(f.Tag); ok {
		m := schema.Mark{Tag: tag}
		if attr := tag.PayloadAttr(); attr != "" {
			m.Payload = f.Attributes[attr]
		}
		if tag == schema.Link && m.Payload == "" {
			return nil, &ParseError{Kind: AttributeParseFailure, Tag: f.Tag, Attr: "href", Err: errors.New("link without href")}
		}
		inner := marks.With(m)
		var err error
		for _, ch := range f.Children {
			if out, err = c.parse(ch, inner, out); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	kind, ok := schema.KindByName(f.Tag)
	spec, registered := c.reg.Spec(kind)
	if !ok || !registered {
		return nil, &ParseError{Kind: UnknownTag, Tag: f.Tag}
	}
	if len(marks) > 0 {
		return nil, &ParseError{Kind: SchemaViolation, Tag: f.Tag, Err: errors.New("marks wrap only text")}
	}
	if f.Text != "" {
		return nil, &ParseError{Kind: Malformed, Tag: f.Tag, Err: errors.New("container carries text")}
	}
	var attrs schema.Attrs
	for key, raw := range f.Attributes {
		a, ok := spec.Attrs.ByMarkup(key)
		if !ok {
			continue
		}
		v, err := a.Parse(raw)
		if err != nil {
			return nil, &ParseError{Kind: AttributeParseFailure, Tag: f.Tag, Attr: key, Err: err}
		}
		if attrs == nil {
			attrs = schema.Attrs{}
		}
		attrs[a.Name] = v
	}
	n := doctree.NewNode(kind, attrs)
	var err error
	for _, ch := range f.Children {
		if n.Children, err = c.parse(ch, nil, n.Children); err != nil {
			return nil, err
		}
	}
	return append(out, n), nil
}

func violation(err error) error {
	var sv *doctree.SchemaViolation
	if errors.As(err, &sv) {
		return &ParseError{Kind: SchemaViolation, Tag: sv.Kind.Name(), Err: err}
	}
	return &ParseError{Kind: SchemaViolation, Err: err}
}

// MarshalDocument encodes t as JSON markup.
func (c *Codec) MarshalDocument(t *doctree.Tree) ([]byte, error) {
	return json.Marshal(c.RenderDocument(t))
}

// UnmarshalDocument decodes JSON markup into a tree.
func (c *Codec) UnmarshalDocument(data []byte) (*doctree.Tree, error) {
	var f Fragment
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ParseError{Kind: Malformed, Err: err}
	}
	return c.ParseDocument(f)
}
