package doctree

import (
	"fmt"

	"github.com/dgallion1/blockdoc/internal/schema"
)

// InsertAt places fragment at p. The fragment is copied, so later changes
// to it do not reach the tree. When p falls inside a text leaf the leaf is
// split around the fragment. The resulting child sequence of the container
// must satisfy its content pattern, otherwise a *SchemaViolation is returned
// and the tree is unchanged.
func (t *Tree) InsertAt(p int, fragment ...*Node) error {
	r, err := t.Resolve(p)
	if err != nil {
		return err
	}
	if len(fragment) == 0 {
		return nil
	}
	frags := make([]*Node, len(fragment))
	added := 0
	for i, f := range fragment {
		if f == nil {
			return fmt.Errorf("insert at %d: nil node in fragment", p)
		}
		c := f.Clone()
		if err := prepare(t.reg, c); err != nil {
			return err
		}
		c.seal()
		frags[i] = c
		added += c.Size()
	}

	container, idx := r.Container(), r.Index()
	seq := make([]*Node, 0, len(container.Children)+len(frags)+1)
	seq = append(seq, container.Children[:idx]...)
	rest := container.Children[idx:]
	if r.Offset > 0 {
		left, right := splitText(rest[0], r.Offset)
		seq = append(seq, left)
		seq = append(seq, frags...)
		seq = append(seq, right)
		seq = append(seq, rest[1:]...)
	} else {
		seq = append(seq, frags...)
		seq = append(seq, rest...)
	}

	if !t.reg.ValidateChildren(container.Kind, kindsOf(seq)) {
		return &SchemaViolation{Kind: container.Kind, Attempted: kindsOf(seq)}
	}
	if err := checkMarks(t.reg, container.Kind, frags); err != nil {
		return err
	}
	if holdsText(t.reg, container.Kind) {
		seq = normalizeInline(seq)
	}
	container.Children = seq
	adjust(r.Path, added)
	return nil
}

// RemoveRange deletes everything between from and to. Both ends must fall in
// the same container; text leaves are trimmed at partial ends.
func (t *Tree) RemoveRange(from, to int) error {
	if err := t.checkRange(from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	rf, err := t.Resolve(from)
	if err != nil {
		return err
	}
	rt, err := t.Resolve(to)
	if err != nil {
		return err
	}
	if rf.Container() != rt.Container() {
		return fmt.Errorf("%w: %d and %d are in different containers", ErrInvalidRange, from, to)
	}
	c := rf.Container()
	seq := make([]*Node, 0, len(c.Children)+2)
	seq = append(seq, c.Children[:rf.Index()]...)
	if rf.Offset > 0 {
		left, _ := splitText(c.Children[rf.Index()], rf.Offset)
		seq = append(seq, left)
	}
	if rt.Offset > 0 {
		_, right := splitText(c.Children[rt.Index()], rt.Offset)
		seq = append(seq, right)
		seq = append(seq, c.Children[rt.Index()+1:]...)
	} else {
		seq = append(seq, c.Children[rt.Index():]...)
	}
	if holdsText(t.reg, c.Kind) {
		seq = normalizeInline(seq)
	}
	if !t.reg.ValidateChildren(c.Kind, kindsOf(seq)) {
		return &SchemaViolation{Kind: c.Kind, Attempted: kindsOf(seq)}
	}
	c.Children = seq
	adjust(rf.Path, -(to - from))
	return nil
}

func (t *Tree) checkRange(from, to int) error {
	if err := t.checkPos(from); err != nil {
		return err
	}
	if err := t.checkPos(to); err != nil {
		return err
	}
	if from > to {
		return fmt.Errorf("%w: from %d is after to %d", ErrInvalidRange, from, to)
	}
	return nil
}

func holdsText(reg *schema.Registry, kind schema.NodeKind) bool {
	s, ok := reg.Spec(kind)
	return ok && s.Content.Allows(schema.Text)
}

// Slice copies the content between from and to, which must share a
// container. Text leaves cut by either end are trimmed.
func (t *Tree) Slice(from, to int) ([]*Node, error) {
	if err := t.checkRange(from, to); err != nil {
		return nil, err
	}
	rf, err := t.Resolve(from)
	if err != nil {
		return nil, err
	}
	rt, err := t.Resolve(to)
	if err != nil {
		return nil, err
	}
	if rf.Container() != rt.Container() {
		return nil, fmt.Errorf("%w: %d and %d are in different containers", ErrInvalidRange, from, to)
	}
	if from == to {
		return nil, nil
	}
	c := rf.Container()
	var out []*Node
	for i := rf.Index(); i < len(c.Children) && (i < rt.Index() || (i == rt.Index() && rt.Offset > 0)); i++ {
		n := c.Children[i].Clone()
		if n.IsText() {
			lo, hi := 0, n.Size()
			if i == rf.Index() {
				lo = rf.Offset
			}
			if i == rt.Index() {
				hi = rt.Offset
			}
			r := []rune(n.Text)
			n.Text = string(r[lo:hi])
		}
		out = append(out, n)
	}
	return out, nil
}
