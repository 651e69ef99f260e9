package command

import (
	"fmt"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/markup"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// InsertTextBlock inserts a TextBlock holding one empty Paragraph.
type InsertTextBlock struct {
	Position *int `json:"position"`
}

func (c *InsertTextBlock) Name() string { return "insertTextBlock" }

func (c *InsertTextBlock) Apply(env *Env) error {
	pos := env.posOr(c.Position)
	n := doctree.NewNode(schema.TextBlock, env.idAttrs(nil), doctree.NewParagraph())
	if err := env.Tree.InsertAt(pos, n); err != nil {
		return err
	}
	env.Selection = Cursor(pos + 2)
	return nil
}

// InsertCodeBlock inserts an empty CodeBlock; Language defaults to
// plaintext.
type InsertCodeBlock struct {
	Position *int   `json:"position"`
	Language string `json:"language,omitempty"`
}

func (c *InsertCodeBlock) Name() string { return "insertCodeBlock" }

func (c *InsertCodeBlock) Apply(env *Env) error {
	pos := env.posOr(c.Position)
	var attrs schema.Attrs
	if c.Language != "" {
		attrs = schema.Attrs{"language": c.Language}
	}
	if err := env.Tree.InsertAt(pos, doctree.NewNode(schema.CodeBlock, env.idAttrs(attrs))); err != nil {
		return err
	}
	env.Selection = Cursor(pos + 1)
	return nil
}

// InsertAIBlock inserts an AIBlock, a leaf the host later replaces content
// after.
type InsertAIBlock struct {
	Position *int   `json:"position"`
	Prompt   string `json:"prompt,omitempty"`
}

func (c *InsertAIBlock) Name() string { return "insertAIBlock" }

func (c *InsertAIBlock) Apply(env *Env) error {
	pos := env.posOr(c.Position)
	var attrs schema.Attrs
	if c.Prompt != "" {
		attrs = schema.Attrs{"prompt": c.Prompt}
	}
	if err := env.Tree.InsertAt(pos, doctree.NewNode(schema.AIBlock, env.idAttrs(attrs))); err != nil {
		return err
	}
	env.Selection = Cursor(pos + 2)
	return nil
}

// InsertFragment parses markup fragments and inserts the nodes at Position
// in one step.
type InsertFragment struct {
	Position  *int              `json:"position"`
	Fragments []markup.Fragment `json:"fragments"`
}

func (c *InsertFragment) Name() string { return "insertFragment" }

func (c *InsertFragment) Apply(env *Env) error {
	if len(c.Fragments) == 0 {
		return fmt.Errorf("%w: no fragments", ErrInvalidParams)
	}
	nodes, err := env.Codec.ParseFragment(c.Fragments...)
	if err != nil {
		return err
	}
	reg := env.reg()
	size := 0
	for _, n := range nodes {
		if spec, ok := reg.Spec(n.Kind); ok && spec.RootChild && n.ID() == "" {
			n.Attrs = env.idAttrs(n.Attrs)
		}
		size += n.Size()
	}
	pos := env.posOr(c.Position)
	if err := env.Tree.InsertAt(pos, nodes...); err != nil {
		return err
	}
	env.Selection = Cursor(pos + size)
	return nil
}

// MoveBlock moves the reorderable node starting at Position so that it
// starts at Target, given in coordinates before the move.
type MoveBlock struct {
	Position int `json:"position"`
	Target   int `json:"target"`
}

func (c *MoveBlock) Name() string { return "moveBlock" }

func (c *MoveBlock) Apply(env *Env) error {
	t := env.Tree
	n, err := t.NodeAt(c.Position)
	if err != nil {
		return err
	}
	if spec, _ := env.reg().Spec(n.Kind); !spec.Reorderable {
		return fmt.Errorf("%w: %s", ErrNotReorderable, n.Kind)
	}
	size := n.Size()
	end := c.Position + size
	if c.Target == c.Position || c.Target == end {
		env.Selection = Cursor(c.Position)
		return nil
	}
	if c.Target > c.Position && c.Target < end {
		return fmt.Errorf("%w: target %d is inside the moved %s", doctree.ErrInvalidRange, c.Target, n.Kind)
	}
	if _, err := t.Resolve(c.Target); err != nil {
		return err
	}
	moved := n.Clone()
	if err := t.RemoveRange(c.Position, end); err != nil {
		return err
	}
	target := c.Target
	if target >= end {
		target -= size
	}
	if err := t.InsertAt(target, moved); err != nil {
		return err
	}
	env.Selection = Cursor(target)
	return nil
}

// SetCodeLanguage sets the language of the CodeBlock at or around
// Position; an empty language resets it to plaintext.
type SetCodeLanguage struct {
	Position *int   `json:"position"`
	Language string `json:"language"`
}

func (c *SetCodeLanguage) Name() string { return "setCodeLanguage" }

func (c *SetCodeLanguage) Apply(env *Env) error {
	at, err := findBlock(env.Tree, env.posOr(c.Position), schema.CodeBlock)
	if err != nil {
		return err
	}
	return env.Tree.SetNodeAttr(at, "language", c.Language)
}

// SetPrompt sets the generation prompt of the AIBlock at Position.
type SetPrompt struct {
	Position *int   `json:"position"`
	Prompt   string `json:"prompt"`
}

func (c *SetPrompt) Name() string { return "setPrompt" }

func (c *SetPrompt) Apply(env *Env) error {
	at, err := findBlock(env.Tree, env.posOr(c.Position), schema.AIBlock)
	if err != nil {
		return err
	}
	return env.Tree.SetNodeAttr(at, "prompt", c.Prompt)
}

// idAttrs adds a fresh id to attrs when the pipeline assigns ids.
func (e *Env) idAttrs(attrs schema.Attrs) schema.Attrs {
	id := e.newID()
	if id == "" {
		return attrs
	}
	out := attrs.Clone()
	if out == nil {
		out = schema.Attrs{}
	}
	out["id"] = id
	return out
}

// findBlock returns the position before the node of kind that starts at
// pos or encloses it.
func findBlock(t *doctree.Tree, pos int, kind schema.NodeKind) (int, error) {
	r, err := t.Resolve(pos)
	if err != nil {
		return 0, err
	}
	if n := r.NodeAfter(); n != nil && n.Kind == kind {
		return pos, nil
	}
	if _, d, ok := r.Ancestor(func(k schema.NodeKind) bool { return k == kind }); ok && d > 0 {
		return r.Before(d), nil
	}
	return 0, fmt.Errorf("%w: no %s at %d", ErrNoTarget, kind, pos)
}
