// Package selection projects toolbar state from a tree and a selection. It
// reads the tree only and keeps nothing between calls.
package selection

import (
	"strconv"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// Selection is an anchor and a head position; the head moves with the
// caret and may precede the anchor.
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// Caret is an empty selection at p.
func Caret(p int) Selection { return Selection{Anchor: p, Head: p} }

// Span is an anchor-to-head selection.
func Span(anchor, head int) Selection { return Selection{Anchor: anchor, Head: head} }

// Bounds returns the ordered ends.
func (s Selection) Bounds() (from, to int) {
	if s.Anchor <= s.Head {
		return s.Anchor, s.Head
	}
	return s.Head, s.Anchor
}

// Empty reports whether the selection is a caret.
func (s Selection) Empty() bool { return s.Anchor == s.Head }

// Clamp pulls both ends into [0, size].
func (s Selection) Clamp(size int) Selection {
	clamp := func(p int) int { return min(max(p, 0), size) }
	return Selection{Anchor: clamp(s.Anchor), Head: clamp(s.Head)}
}

// State is what a toolbar shows for a selection.
type State struct {
	Selection   Selection        `json:"selection"`
	ActiveMarks []schema.MarkTag `json:"activeMarks"`
	// ActiveBlockKind is nil when the selection has no single enclosing
	// block kind.
	ActiveBlockKind *schema.NodeKind `json:"activeBlockKind"`
	// HeadingLevel is the level shared by every paragraph touched, else 0.
	HeadingLevel int `json:"headingLevel"`
	// TextAlign is the alignment shared by every paragraph touched, else "".
	TextAlign string `json:"textAlign,omitempty"`
	// Link is the href shared by every selected character, else "".
	Link string `json:"link,omitempty"`
}

// Project computes the full State for sel.
func Project(t *doctree.Tree, sel Selection) (State, error) {
	st := State{Selection: sel}
	marks, err := activeMarkSet(t, sel)
	if err != nil {
		return State{}, err
	}
	st.ActiveMarks = marks.Tags()
	if st.ActiveMarks == nil {
		st.ActiveMarks = []schema.MarkTag{}
	}
	if m, ok := marks.Get(schema.Link); ok {
		st.Link = m.Payload
	}
	if k, ok, err := ActiveBlockKind(t, sel); err != nil {
		return State{}, err
	} else if ok {
		st.ActiveBlockKind = &k
	}
	if st.HeadingLevel, st.TextAlign, err = paragraphState(t, sel); err != nil {
		return State{}, err
	}
	return st, nil
}

// ActiveMarks returns the mark tags carried by every text unit in sel. For
// a caret it looks at the unit before it, and at nothing at the start of a
// block.
func ActiveMarks(t *doctree.Tree, sel Selection) ([]schema.MarkTag, error) {
	marks, err := activeMarkSet(t, sel)
	if err != nil {
		return nil, err
	}
	return marks.Tags(), nil
}

// activeMarkSet keeps a mark only if every unit carries the same payload;
// tags whose payload differs survive without one.
func activeMarkSet(t *doctree.Tree, sel Selection) (schema.MarkSet, error) {
	from, to := sel.Bounds()
	if from == to {
		r, err := t.Resolve(from)
		if err != nil {
			return nil, err
		}
		return r.MarksBefore().Clone(), nil
	}
	var (
		acc   schema.MarkSet
		first = true
	)
	err := t.Runs(from, to, func(run doctree.Run) bool {
		if first {
			acc, first = run.Node.Marks.Clone(), false
			return len(acc) > 0
		}
		acc = intersect(acc, run.Node.Marks)
		return len(acc) > 0
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func intersect(a, b schema.MarkSet) schema.MarkSet {
	var out schema.MarkSet
	for _, m := range a {
		other, ok := b.Get(m.Tag)
		if !ok {
			continue
		}
		if other.Payload != m.Payload {
			m.Payload = ""
		}
		out = out.With(m)
	}
	return out
}

// ActiveBlockKind returns the deepest block kind shared by the ancestors of
// both ends of sel, below the root. A selection covering exactly one block
// reports that block's kind.
func ActiveBlockKind(t *doctree.Tree, sel Selection) (schema.NodeKind, bool, error) {
	from, to := sel.Bounds()
	rf, err := t.Resolve(from)
	if err != nil {
		return schema.KindInvalid, false, err
	}
	rt, err := t.Resolve(to)
	if err != nil {
		return schema.KindInvalid, false, err
	}
	reg := t.Registry()
	if rf.Container() == rt.Container() && !rf.InText() && !rt.InText() && rt.Index() == rf.Index()+1 {
		if n := rf.NodeAfter(); n != nil && reg.IsBlock(n.Kind) {
			return n.Kind, true, nil
		}
	}
	kind, found := schema.KindInvalid, false
	for d := 1; d <= rf.Depth() && d <= rt.Depth(); d++ {
		a, b := rf.Node(d).Kind, rt.Node(d).Kind
		if a != b {
			break
		}
		if reg.IsBlock(a) {
			kind, found = a, true
		}
	}
	return kind, found, nil
}

func paragraphState(t *doctree.Tree, sel Selection) (int, string, error) {
	from, to := sel.Bounds()
	var (
		levels = map[string]bool{}
		aligns = map[string]bool{}
	)
	err := t.NodesBetween(from, to, func(n *doctree.Node, _ int, _ *doctree.Node, _ int) bool {
		if n.Kind == schema.Paragraph {
			levels[n.Attr("level")] = true
			aligns[n.Attr("textAlign")] = true
			return false
		}
		return !n.IsText()
	})
	if err != nil {
		return 0, "", err
	}
	level, align := 0, ""
	if len(levels) == 1 {
		for l := range levels {
			level, _ = strconv.Atoi(l)
		}
	}
	if len(aligns) == 1 {
		for a := range aligns {
			align = a
		}
	}
	return level, align, nil
}
