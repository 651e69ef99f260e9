package doctree

import "github.com/dgallion1/blockdoc/internal/schema"

// Run is the part of a text leaf that overlaps a range.
type Run struct {
	Parent *Node
	Index  int
	Node   *Node
	// Start is the position where the whole leaf begins.
	Start int
	// From and To are absolute positions of the overlapping part.
	From, To int
}

// Runs calls fn for every text leaf overlapping [from, to), in document
// order, until fn returns false.
func (t *Tree) Runs(from, to int, fn func(Run) bool) error {
	if err := t.checkRange(from, to); err != nil {
		return err
	}
	runs(t.root, 0, from, to, fn)
	return nil
}

func runs(n *Node, start, from, to int, fn func(Run) bool) bool {
	off := start
	for i, c := range n.Children {
		if off >= to {
			return true
		}
		size := c.Size()
		if off+size > from {
			if c.IsText() {
				lo, hi := max(from, off), min(to, off+size)
				if lo < hi && !fn(Run{Parent: n, Index: i, Node: c, Start: off, From: lo, To: hi}) {
					return false
				}
			} else if !runs(c, off+1, from, to, fn) {
				return false
			}
		}
		off += size
	}
	return true
}

// ToggleMark removes m from [from, to) when every markable character there
// already carries it, and adds it otherwise. Text in containers that do not
// accept marks is left alone; a range with no markable text is a no-op.
func (t *Tree) ToggleMark(from, to int, m schema.Mark) error {
	if err := t.checkRange(from, to); err != nil {
		return err
	}
	m = m.Normalized()
	found, all := false, true
	runs(t.root, 0, from, to, func(r Run) bool {
		if !t.reg.Markable(r.Parent.Kind) {
			return true
		}
		found = true
		if !r.Node.Marks.Has(m) {
			all = false
			return false
		}
		return true
	})
	if !found {
		return nil
	}
	if all {
		return t.RemoveMark(from, to, m.Tag)
	}
	return t.AddMark(from, to, m)
}

// AddMark sets m on every markable character in [from, to), replacing any
// mark with the same tag.
func (t *Tree) AddMark(from, to int, m schema.Mark) error {
	return t.updateMarks(from, to, func(s schema.MarkSet) schema.MarkSet { return s.With(m) })
}

// RemoveMark clears tag from every markable character in [from, to).
func (t *Tree) RemoveMark(from, to int, tag schema.MarkTag) error {
	return t.updateMarks(from, to, func(s schema.MarkSet) schema.MarkSet { return s.Without(tag) })
}

type runSpan struct{ index, lo, hi int }

func (t *Tree) updateMarks(from, to int, update func(schema.MarkSet) schema.MarkSet) error {
	if err := t.checkRange(from, to); err != nil {
		return err
	}
	var parents []*Node
	spans := map[*Node][]runSpan{}
	runs(t.root, 0, from, to, func(r Run) bool {
		if !t.reg.Markable(r.Parent.Kind) {
			return true
		}
		if _, ok := spans[r.Parent]; !ok {
			parents = append(parents, r.Parent)
		}
		spans[r.Parent] = append(spans[r.Parent], runSpan{index: r.Index, lo: r.From - r.Start, hi: r.To - r.Start})
		return true
	})
	for _, p := range parents {
		p.Children = restyle(p.Children, spans[p], update)
	}
	return nil
}

// restyle splits the listed runs at their span edges and applies update to
// the middle pieces. Sizes do not change.
func restyle(children []*Node, spans []runSpan, update func(schema.MarkSet) schema.MarkSet) []*Node {
	out := make([]*Node, 0, len(children)+2*len(spans))
	j := 0
	for i, c := range children {
		if j >= len(spans) || spans[j].index != i {
			out = append(out, c)
			continue
		}
		s := spans[j]
		j++
		r := []rune(c.Text)
		out = append(out,
			&Node{Kind: schema.Text, Text: string(r[:s.lo]), Marks: c.Marks.Clone()},
			&Node{Kind: schema.Text, Text: string(r[s.lo:s.hi]), Marks: update(c.Marks.Clone())},
			&Node{Kind: schema.Text, Text: string(r[s.hi:]), Marks: c.Marks.Clone()},
		)
	}
	return normalizeInline(out)
}
