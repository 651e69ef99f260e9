package doctree

import "strings"

// NodesBetween calls fn for each node overlapping [from, to) with the
// position before it, its parent and its index there. Children are visited
// only when fn returns true.
func (t *Tree) NodesBetween(from, to int, fn func(n *Node, pos int, parent *Node, index int) bool) error {
	if err := t.checkRange(from, to); err != nil {
		return err
	}
	nodesBetween(t.root, 0, from, to, fn)
	return nil
}

func nodesBetween(n *Node, start, from, to int, fn func(*Node, int, *Node, int) bool) {
	pos := start
	for i, c := range n.Children {
		if pos >= to {
			return
		}
		end := pos + c.Size()
		if end > from && fn(c, pos, n, i) && !c.IsText() && len(c.Children) > 0 {
			nodesBetween(c, pos+1, from, to, fn)
		}
		pos = end
	}
}

// Descendants visits every node in document order.
func (t *Tree) Descendants(fn func(n *Node, pos int, parent *Node, index int) bool) {
	nodesBetween(t.root, 0, 0, t.Size(), fn)
}

// Block is a top-level child of the root and the position before it.
type Block struct {
	Node *Node
	Pos  int
}

// Blocks lists the root's children.
func (t *Tree) Blocks() []Block {
	out := make([]Block, 0, len(t.root.Children))
	pos := 0
	for _, c := range t.root.Children {
		out = append(out, Block{Node: c, Pos: pos})
		pos += c.Size()
	}
	return out
}

// FindByID returns the first node whose id attribute equals id and the
// position before it.
func (t *Tree) FindByID(id string) (*Node, int, bool) {
	if id == "" {
		return nil, 0, false
	}
	var (
		found *Node
		at    int
	)
	t.Descendants(func(n *Node, pos int, _ *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.ID() == id {
			found, at = n, pos
			return false
		}
		return true
	})
	return found, at, found != nil
}

// TextBetween concatenates the text in [from, to), writing blockSep between
// the contents of separate text-holding blocks.
func (t *Tree) TextBetween(from, to int, blockSep string) (string, error) {
	var sb strings.Builder
	first := true
	err := t.NodesBetween(from, to, func(n *Node, pos int, _ *Node, _ int) bool {
		if n.IsText() {
			r := []rune(n.Text)
			lo, hi := max(from, pos)-pos, min(to, pos+len(r))-pos
			if lo < hi {
				sb.WriteString(string(r[lo:hi]))
			}
			return false
		}
		if holdsText(t.reg, n.Kind) && blockSep != "" {
			if first {
				first = false
			} else {
				sb.WriteString(blockSep)
			}
		}
		return true
	})
	return sb.String(), err
}

// CharacterCount is the number of text characters in the document.
func (t *Tree) CharacterCount() int {
	total := 0
	t.Descendants(func(n *Node, _ int, _ *Node, _ int) bool {
		if n.IsText() {
			total += n.Size()
			return false
		}
		return true
	})
	return total
}
