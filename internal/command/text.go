package command

import (
	"fmt"
	"unicode/utf8"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// InsertText types Text at Position. Text in a markable block takes the
// marks of the character before it, links excepted.
type InsertText struct {
	Position *int   `json:"position"`
	Text     string `json:"text"`
}

func (c *InsertText) Name() string { return "insertText" }

func (c *InsertText) Apply(env *Env) error {
	if c.Text == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidParams)
	}
	pos := env.posOr(c.Position)
	res, err := env.Tree.Resolve(pos)
	if err != nil {
		return err
	}
	var marks schema.MarkSet
	if env.reg().Markable(res.Container().Kind) {
		marks = res.MarksBefore().Without(schema.Link)
	}
	if err := env.Tree.InsertAt(pos, doctree.NewText(c.Text, marks...)); err != nil {
		return err
	}
	env.Selection = Cursor(pos + utf8.RuneCountInString(c.Text))
	return nil
}

// DeleteRange removes a range whose ends share a container.
type DeleteRange struct {
	Range *Range `json:"range"`
}

func (c *DeleteRange) Name() string { return "deleteRange" }

func (c *DeleteRange) Apply(env *Env) error {
	r := env.rangeOr(c.Range)
	if err := env.Tree.RemoveRange(r.From, r.To); err != nil {
		return err
	}
	env.Selection = Cursor(r.From)
	return nil
}

// SplitParagraph breaks the paragraph at Position in two. The new paragraph
// keeps the alignment and, unless the split is at the very end, the heading
// level.
type SplitParagraph struct {
	Position *int `json:"position"`
}

func (c *SplitParagraph) Name() string { return "splitParagraph" }

func (c *SplitParagraph) Apply(env *Env) error {
	t := env.Tree
	pos := env.posOr(c.Position)
	res, err := t.Resolve(pos)
	if err != nil {
		return err
	}
	p := res.Container()
	if p.Kind != schema.Paragraph {
		return fmt.Errorf("%w: %d is not inside a paragraph", ErrNoTarget, pos)
	}
	end := res.End()
	tail, err := t.Slice(pos, end)
	if err != nil {
		return err
	}
	attrs := p.Attrs.Clone()
	if pos == end {
		delete(attrs, "level")
	}
	if err := t.RemoveRange(pos, end); err != nil {
		return err
	}
	if err := t.InsertAt(pos+1, doctree.NewNode(schema.Paragraph, attrs, tail...)); err != nil {
		return err
	}
	env.Selection = Cursor(pos + 2)
	return nil
}
