package doctree

import "github.com/dgallion1/blockdoc/internal/schema"

// ResolvedPos locates a position: the chain of containers from the root down
// to the innermost one whose content holds the position, the child index in
// that container, and the character offset when the position falls inside a
// text leaf.
type ResolvedPos struct {
	Pos int
	// Path[0] is the root, Path[len-1] the container.
	Path []*Node
	// Starts[d] is the position where Path[d]'s content begins.
	Starts []int
	// Indexes[d] is the child of Path[d] that leads to Path[d+1]; the last
	// entry is Index.
	Indexes []int
	// Offset is the character offset inside Container().Children[Index()],
	// zero when the position sits between children.
	Offset int
}

// Depth of the container; the root is depth 0.
func (r ResolvedPos) Depth() int { return len(r.Path) - 1 }

// Container is the innermost node whose content holds the position.
func (r ResolvedPos) Container() *Node { return r.Path[len(r.Path)-1] }

// Index is the child index in Container.
func (r ResolvedPos) Index() int { return r.Indexes[len(r.Indexes)-1] }

// Start is the position where Container's content begins.
func (r ResolvedPos) Start() int { return r.Starts[len(r.Starts)-1] }

// End is the position where Container's content ends.
func (r ResolvedPos) End() int { return r.Start() + r.Container().ContentSize() }

// Node returns the ancestor at depth d.
func (r ResolvedPos) Node(d int) *Node { return r.Path[d] }

// Before is the position just before the ancestor at depth d (d >= 1).
func (r ResolvedPos) Before(d int) int { return r.Starts[d] - 1 }

// InText reports whether the position falls strictly inside a text leaf.
func (r ResolvedPos) InText() bool { return r.Offset > 0 }

// NodeAfter is the child starting at the position, or nil.
func (r ResolvedPos) NodeAfter() *Node {
	c := r.Container()
	if r.Offset > 0 || r.Index() >= len(c.Children) {
		return nil
	}
	return c.Children[r.Index()]
}

// Ancestor returns the deepest ancestor accepted by match and its depth.
func (r ResolvedPos) Ancestor(match func(schema.NodeKind) bool) (*Node, int, bool) {
	for d := len(r.Path) - 1; d >= 0; d-- {
		if match(r.Path[d].Kind) {
			return r.Path[d], d, true
		}
	}
	return nil, -1, false
}

// Resolve locates p.
func (t *Tree) Resolve(p int) (ResolvedPos, error) {
	if err := t.checkPos(p); err != nil {
		return ResolvedPos{}, err
	}
	r := ResolvedPos{Pos: p}
	node, start := t.root, 0
	for {
		r.Path = append(r.Path, node)
		r.Starts = append(r.Starts, start)
		off := start
		descended := false
		for i, c := range node.Children {
			if p == off {
				r.Indexes = append(r.Indexes, i)
				return r, nil
			}
			end := off + c.Size()
			if p < end {
				r.Indexes = append(r.Indexes, i)
				if c.IsText() {
					r.Offset = p - off
					return r, nil
				}
				node, start = c, off+1
				descended = true
				break
			}
			off = end
		}
		if !descended {
			r.Indexes = append(r.Indexes, len(node.Children))
			return r, nil
		}
	}
}

// NodeAt returns the non-text node that starts right after p.
func (t *Tree) NodeAt(p int) (*Node, error) {
	r, err := t.Resolve(p)
	if err != nil {
		return nil, err
	}
	n := r.NodeAfter()
	if n == nil || n.IsText() {
		return nil, ErrNoNode
	}
	return n, nil
}

// MarksBefore returns the marks of the text unit just before the position,
// or nil when the position is not preceded by text in its container.
func (r ResolvedPos) MarksBefore() schema.MarkSet {
	c := r.Container()
	if r.Offset > 0 {
		return c.Children[r.Index()].Marks
	}
	if i := r.Index(); i > 0 && c.Children[i-1].IsText() {
		return c.Children[i-1].Marks
	}
	return nil
}
