package doctree

import (
	"fmt"

	"github.com/dgallion1/blockdoc/internal/schema"
)

// Tree holds one RootDocument and the registry that constrains it. Sizes are
// cached on every node and adjusted along the mutated path, so Size is O(1)
// and Resolve is O(depth × siblings). A Tree is not safe for concurrent use.
type Tree struct {
	reg  *schema.Registry
	root *Node
}

// New validates root against reg and takes a private copy of it. Missing
// attributes are filled with their defaults and inline content is
// normalized.
func New(reg *schema.Registry, root *Node) (*Tree, error) {
	if root == nil || root.Kind != schema.RootDocument {
		return nil, &SchemaViolation{Kind: schema.RootDocument, Reason: "root must be a doc node"}
	}
	c := root.Clone()
	if err := prepare(reg, c); err != nil {
		return nil, err
	}
	c.seal()
	return &Tree{reg: reg, root: c}, nil
}

// Empty returns the smallest valid document: one TextBlock holding one empty
// Paragraph.
func Empty(reg *schema.Registry) *Tree {
	t, err := New(reg, NewDoc(NewTextBlock(NewParagraph())))
	if err != nil {
		panic(fmt.Sprintf("doctree: empty document rejected: %v", err))
	}
	return t
}

// Registry returns the registry the tree validates against.
func (t *Tree) Registry() *schema.Registry { return t.reg }

// Root returns the RootDocument. It is owned by the tree.
func (t *Tree) Root() *Node { return t.root }

// Size is the content size of the root.
func (t *Tree) Size() int { return t.root.Size() - 2 }

// Clone returns an independent copy.
func (t *Tree) Clone() *Tree { return &Tree{reg: t.reg, root: t.root.Clone()} }

// Replace swaps in the content of o. o must not be used afterwards.
func (t *Tree) Replace(o *Tree) {
	t.reg, t.root = o.reg, o.root
}

// Equal compares document content.
func (t *Tree) Equal(o *Tree) bool { return t.root.Equal(o.root) }

func (t *Tree) String() string { return t.root.String() }

func (t *Tree) checkPos(p int) error {
	if p < 0 || p > t.Size() {
		return outOfRange(p, t.Size())
	}
	return nil
}

// prepare validates n deeply, fills default attributes and normalizes
// inline content in place.
func prepare(reg *schema.Registry, n *Node) error {
	spec, ok := reg.Spec(n.Kind)
	if !ok {
		return &SchemaViolation{Kind: n.Kind, Reason: "kind is not registered"}
	}
	if n.IsText() {
		if len(n.Children) > 0 {
			return &SchemaViolation{Kind: n.Kind, Reason: "text leaves have no children"}
		}
		return nil
	}
	if n.Text != "" || len(n.Marks) > 0 {
		return &SchemaViolation{Kind: n.Kind, Reason: "containers carry no text or marks"}
	}
	attrs := spec.Attrs.Defaults()
	for name, raw := range n.Attrs {
		if raw == "" {
			continue
		}
		v, err := reg.ParseAttr(n.Kind, name, raw)
		if err != nil {
			return &SchemaViolation{Kind: n.Kind, Reason: err.Error()}
		}
		if attrs == nil {
			attrs = schema.Attrs{}
		}
		attrs[name] = v
	}
	n.Attrs = attrs.Clone()

	if spec.Content.Allows(schema.Text) {
		n.Children = normalizeInline(n.Children)
	}
	if !reg.ValidateChildren(n.Kind, n.ChildKinds()) {
		return &SchemaViolation{Kind: n.Kind, Attempted: n.ChildKinds()}
	}
	if err := checkMarks(reg, n.Kind, n.Children); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := prepare(reg, c); err != nil {
			return err
		}
	}
	return nil
}

func checkMarks(reg *schema.Registry, container schema.NodeKind, children []*Node) error {
	if reg.Markable(container) {
		return nil
	}
	for _, c := range children {
		if c.IsText() && len(c.Marks) > 0 {
			return &SchemaViolation{Kind: container, Reason: "text here cannot carry marks"}
		}
	}
	return nil
}

// adjust adds delta to the cached size of every node on path.
func adjust(path []*Node, delta int) {
	for _, n := range path {
		n.size += delta
	}
}

// Normalize validates a detached node against reg in place, filling default
// attributes and merging inline content the way a Tree would hold it.
func Normalize(reg *schema.Registry, n *Node) error {
	if err := prepare(reg, n); err != nil {
		return err
	}
	n.seal()
	return nil
}
