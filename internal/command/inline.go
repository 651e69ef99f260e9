package command

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// ToggleInlineMark toggles a mark over a range. Payload is the highlight
// color or link href.
type ToggleInlineMark struct {
	Range   *Range         `json:"range"`
	MarkTag schema.MarkTag `json:"markTag"`
	Payload string         `json:"payload,omitempty"`
}

func (c *ToggleInlineMark) Name() string { return "toggleInlineMark" }

func (c *ToggleInlineMark) Apply(env *Env) error {
	if c.MarkTag == schema.MarkInvalid {
		return fmt.Errorf("%w: markTag is required", ErrInvalidParams)
	}
	if c.MarkTag == schema.Link && c.Payload == "" {
		return fmt.Errorf("%w: link needs an href payload", ErrInvalidParams)
	}
	if c.Payload != "" && c.MarkTag.PayloadAttr() == "" {
		return fmt.Errorf("%w: %s takes no payload", ErrInvalidParams, c.MarkTag)
	}
	r := env.rangeOr(c.Range)
	if err := checkMarkable(env.Tree, r); err != nil {
		return err
	}
	return env.Tree.ToggleMark(r.From, r.To, schema.Mark{Tag: c.MarkTag, Payload: c.Payload})
}

// SetLink links a range to Href.
type SetLink struct {
	Range *Range `json:"range"`
	Href  string `json:"href"`
}

func (c *SetLink) Name() string { return "setLink" }

func (c *SetLink) Apply(env *Env) error {
	if c.Href == "" {
		return fmt.Errorf("%w: href is required", ErrInvalidParams)
	}
	r := env.rangeOr(c.Range)
	if err := checkMarkable(env.Tree, r); err != nil {
		return err
	}
	return env.Tree.AddMark(r.From, r.To, schema.Mark{Tag: schema.Link, Payload: c.Href})
}

// UnsetLink removes links from a range. With an empty range it removes the
// whole link around the caret.
type UnsetLink struct {
	Range *Range `json:"range"`
}

func (c *UnsetLink) Name() string { return "unsetLink" }

func (c *UnsetLink) Apply(env *Env) error {
	r := env.rangeOr(c.Range)
	if r.Empty() {
		var err error
		if r, err = markExtent(env.Tree, r.From, schema.Link); err != nil {
			return err
		}
	}
	return env.Tree.RemoveMark(r.From, r.To, schema.Link)
}

// ToggleHeadingLevel makes every paragraph touching the range a heading of
// Level, or plain paragraphs again when all of them already are.
type ToggleHeadingLevel struct {
	Range *Range `json:"range"`
	Level int    `json:"level"`
}

func (c *ToggleHeadingLevel) Name() string { return "toggleHeadingLevel" }

func (c *ToggleHeadingLevel) Apply(env *Env) error {
	if c.Level < 1 || c.Level > 6 {
		return fmt.Errorf("%w: level %d not in [1, 6]", ErrInvalidParams, c.Level)
	}
	paras, err := paragraphsIn(env.Tree, env.rangeOr(c.Range))
	if err != nil {
		return err
	}
	want := strconv.Itoa(c.Level)
	value := "0"
	for _, p := range paras {
		if p.node.Attr("level") != want {
			value = want
			break
		}
	}
	for _, p := range paras {
		if err := env.Tree.SetNodeAttr(p.pos, "level", value); err != nil {
			return err
		}
	}
	return nil
}

// SetTextAlign aligns every paragraph touching the range.
type SetTextAlign struct {
	Range *Range `json:"range"`
	Align string `json:"align"`
}

func (c *SetTextAlign) Name() string { return "setTextAlign" }

func (c *SetTextAlign) Apply(env *Env) error {
	if _, err := env.reg().ParseAttr(schema.Paragraph, "textAlign", c.Align); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	paras, err := paragraphsIn(env.Tree, env.rangeOr(c.Range))
	if err != nil {
		return err
	}
	for _, p := range paras {
		if err := env.Tree.SetNodeAttr(p.pos, "textAlign", c.Align); err != nil {
			return err
		}
	}
	return nil
}

type located struct {
	node *doctree.Node
	pos  int
}

func paragraphsIn(t *doctree.Tree, r Range) ([]located, error) {
	var out []located
	err := t.NodesBetween(r.From, r.To, func(n *doctree.Node, pos int, _ *doctree.Node, _ int) bool {
		if n.Kind == schema.Paragraph {
			out = append(out, located{node: n, pos: pos})
			return false
		}
		return !n.IsText()
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no paragraph in [%d, %d]", ErrNoTarget, r.From, r.To)
	}
	return out, nil
}

// checkMarkable rejects ranges that start inside text refusing marks, or
// that hold text only of that sort.
func checkMarkable(t *doctree.Tree, r Range) error {
	reg := t.Registry()
	res, err := t.Resolve(r.From)
	if err != nil {
		return err
	}
	if holder, _, ok := res.Ancestor(func(k schema.NodeKind) bool { return holdsText(reg, k) }); ok && !reg.Markable(holder.Kind) {
		return fmt.Errorf("%w: inside %s", ErrMarkNotAllowed, holder.Kind)
	}
	markable, other := false, false
	err = t.Runs(r.From, r.To, func(run doctree.Run) bool {
		if reg.Markable(run.Parent.Kind) {
			markable = true
			return false
		}
		other = true
		return true
	})
	if err != nil {
		return err
	}
	if other && !markable {
		return fmt.Errorf("%w: range holds no markable text", ErrMarkNotAllowed)
	}
	return nil
}

// markExtent widens the caret at pos to the neighbouring runs that carry
// tag with the same payload.
func markExtent(t *doctree.Tree, pos int, tag schema.MarkTag) (Range, error) {
	res, err := t.Resolve(pos)
	if err != nil {
		return Range{}, err
	}
	c := res.Container()
	i := res.Index()
	if res.Offset == 0 {
		i--
	}
	if i < 0 || i >= len(c.Children) || !c.Children[i].IsText() {
		return Cursor(pos), nil
	}
	m, ok := c.Children[i].Marks.Get(tag)
	if !ok {
		return Cursor(pos), nil
	}
	lo, hi := i, i
	for lo > 0 && c.Children[lo-1].IsText() && c.Children[lo-1].Marks.Has(m) {
		lo--
	}
	for hi+1 < len(c.Children) && c.Children[hi+1].IsText() && c.Children[hi+1].Marks.Has(m) {
		hi++
	}
	from := res.Start()
	for _, ch := range c.Children[:lo] {
		from += ch.Size()
	}
	to := from
	for _, ch := range c.Children[lo : hi+1] {
		to += ch.Size()
	}
	return Range{From: from, To: to}, nil
}

func holdsText(reg *schema.Registry, kind schema.NodeKind) bool {
	s, ok := reg.Spec(kind)
	return ok && s.Content.Allows(schema.Text)
}
