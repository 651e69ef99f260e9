// Package doctree is the in-memory document: a strict tree of typed nodes
// constrained by a schema registry and addressed by integer positions.
//
// Positions count one unit per text character and one unit per node
// boundary token, depth first, excluding the root's own boundaries. Every
// mutation shifts positions; callers recompute them before each call.
package doctree

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/blockdoc/internal/schema"
)

// Node is either a container (Children) or a text leaf (Text, Marks).
// Nodes inside a Tree are owned by it: read them, never mutate them, and do
// not keep them across a mutation.
type Node struct {
	Kind     schema.NodeKind
	Attrs    schema.Attrs
	Children []*Node
	Text     string
	Marks    schema.MarkSet

	size  int
	sized bool
}

// NewText builds a text leaf.
func NewText(text string, marks ...schema.Mark) *Node {
	return &Node{Kind: schema.Text, Text: text, Marks: schema.NewMarkSet(marks...)}
}

// NewNode builds a container.
func NewNode(kind schema.NodeKind, attrs schema.Attrs, children ...*Node) *Node {
	return &Node{Kind: kind, Attrs: attrs.Clone(), Children: children}
}

// NewDoc builds a RootDocument.
func NewDoc(blocks ...*Node) *Node { return NewNode(schema.RootDocument, nil, blocks...) }

// NewTextBlock builds a TextBlock.
func NewTextBlock(paragraphs ...*Node) *Node { return NewNode(schema.TextBlock, nil, paragraphs...) }

// NewParagraph builds a Paragraph; plain strings become unmarked text runs.
func NewParagraph(content ...any) *Node {
	p := NewNode(schema.Paragraph, nil)
	for _, c := range content {
		switch v := c.(type) {
		case string:
			p.Children = append(p.Children, NewText(v))
		case *Node:
			p.Children = append(p.Children, v)
		}
	}
	return p
}

// NewCodeBlock builds a CodeBlock; an empty language keeps the default.
func NewCodeBlock(language, code string) *Node {
	var attrs schema.Attrs
	if language != "" {
		attrs = schema.Attrs{"language": language}
	}
	n := NewNode(schema.CodeBlock, attrs)
	if code != "" {
		n.Children = []*Node{NewText(code)}
	}
	return n
}

// NewAIBlock builds an AIBlock.
func NewAIBlock(prompt string) *Node {
	var attrs schema.Attrs
	if prompt != "" {
		attrs = schema.Attrs{"prompt": prompt}
	}
	return NewNode(schema.AIBlock, attrs)
}

// IsText reports whether n is a text leaf.
func (n *Node) IsText() bool { return n.Kind == schema.Text }

// Size is the number of position units the node occupies.
func (n *Node) Size() int {
	if n.IsText() {
		return utf8.RuneCountInString(n.Text)
	}
	if n.sized {
		return n.size
	}
	return 2 + n.contentSize()
}

// ContentSize is Size minus the node's own boundary tokens.
func (n *Node) ContentSize() int {
	if n.IsText() {
		return n.Size()
	}
	return n.Size() - 2
}

func (n *Node) contentSize() int {
	total := 0
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

// Attr returns an attribute value, "" when null.
func (n *Node) Attr(name string) string { return n.Attrs[name] }

// ID returns the id attribute.
func (n *Node) ID() string { return n.Attrs["id"] }

// ChildKinds lists the kinds of the direct children.
func (n *Node) ChildKinds() []schema.NodeKind { return kindsOf(n.Children) }

// TextContent concatenates all text below n.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Clone deep-copies n, sizes included.
func (n *Node) Clone() *Node {
	c := &Node{
		Kind:  n.Kind,
		Attrs: n.Attrs.Clone(),
		Text:  n.Text,
		Marks: n.Marks.Clone(),
		size:  n.size,
		sized: n.sized,
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Equal compares structure, attributes, text and marks.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind || n.Text != o.Text || !n.Marks.Equal(o.Marks) || len(n.Attrs) != len(o.Attrs) || len(n.Children) != len(o.Children) {
		return false
	}
	for k, v := range n.Attrs {
		if ov, ok := o.Attrs[k]; !ok || ov != v {
			return false
		}
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// String renders a compact debugging form, e.g. doc[textBlock[paragraph["Hi"]]].
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.IsText() {
		if len(n.Marks) > 0 {
			sb.WriteString(n.Marks.String())
		}
		sb.WriteString(`"` + n.Text + `"`)
		return
	}
	sb.WriteString(n.Kind.Name())
	if len(n.Children) == 0 {
		return
	}
	sb.WriteByte('[')
	for i, c := range n.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		c.write(sb)
	}
	sb.WriteByte(']')
}

// seal caches sizes through the subtree.
func (n *Node) seal() int {
	if n.IsText() {
		return n.Size()
	}
	total := 2
	for _, c := range n.Children {
		total += c.seal()
	}
	n.size, n.sized = total, true
	return total
}

func kindsOf(nodes []*Node) []schema.NodeKind {
	out := make([]schema.NodeKind, len(nodes))
	for i, c := range nodes {
		out[i] = c.Kind
	}
	return out
}

// splitText cuts a text leaf at rune offset off.
func splitText(n *Node, off int) (*Node, *Node) {
	r := []rune(n.Text)
	left := &Node{Kind: schema.Text, Text: string(r[:off]), Marks: n.Marks.Clone()}
	right := &Node{Kind: schema.Text, Text: string(r[off:]), Marks: n.Marks.Clone()}
	return left, right
}

// normalizeInline drops empty text leaves and merges neighbours with equal
// marks.
func normalizeInline(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, c := range nodes {
		if c.IsText() {
			if c.Text == "" {
				continue
			}
			if k := len(out); k > 0 && out[k-1].IsText() && out[k-1].Marks.Equal(c.Marks) {
				out[k-1] = &Node{Kind: schema.Text, Text: out[k-1].Text + c.Text, Marks: out[k-1].Marks.Clone()}
				continue
			}
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
